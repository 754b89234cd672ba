package cart

import "time"

const (
	EventItemAdded   = "ItemAddedToCart"
	EventItemRemoved = "ItemRemovedFromCart"
)

type ItemAddedToCart struct {
	CartID    string    `json:"cart_id"`
	VariantID int       `json:"variant_id"`
	AddedAt   time.Time `json:"added_at"`
}

type ItemRemovedFromCart struct {
	CartID    string    `json:"cart_id"`
	VariantID int       `json:"variant_id"`
	RemovedAt time.Time `json:"removed_at"`
}
