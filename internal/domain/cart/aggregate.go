package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/example/ec-product-card/internal/infrastructure/store"
	"go.uber.org/zap"
)

const AggregateType = "Cart"

// Store owns a session's cart: an ordered list of variant ids, duplicates allowed,
// plus the premium flag that decides shipping cost.
type Store struct {
	id      string
	items   []int
	premium bool
	journal store.EventStoreInterface
	logger  *zap.Logger
}

// GetCartID returns the cart ID for a session
func GetCartID(sessionID string) string {
	return "cart-" + sessionID
}

// NewStore returns an empty cart. journal may be nil, in which case nothing is recorded.
func NewStore(cartID string, premium bool, journal store.EventStoreInterface, logger *zap.Logger) *Store {
	return &Store{
		id:      cartID,
		items:   []int{},
		premium: premium,
		journal: journal,
		logger:  logger.With(zap.String("component", "cart"), zap.String("cart_id", cartID)),
	}
}

// Load rebuilds a cart by replaying its journal
func Load(ctx context.Context, cartID string, premium bool, journal store.EventStoreInterface, logger *zap.Logger) (*Store, error) {
	s := NewStore(cartID, premium, journal, logger)
	if journal == nil {
		return s, nil
	}

	events, err := journal.Load(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart events: %w", err)
	}
	for _, event := range events {
		if err := s.applyEvent(event); err != nil {
			return nil, fmt.Errorf("failed to apply event %s: %w", event.ID, err)
		}
	}
	return s, nil
}

func (s *Store) applyEvent(event store.Event) error {
	switch event.EventType {
	case EventItemAdded:
		var data ItemAddedToCart
		if err := event.Decode(&data); err != nil {
			return err
		}
		s.items = append(s.items, data.VariantID)
	case EventItemRemoved:
		var data ItemRemovedFromCart
		if err := event.Decode(&data); err != nil {
			return err
		}
		s.removeFirst(data.VariantID)
	}
	return nil
}

// AddToCart appends id. Any id is accepted.
func (s *Store) AddToCart(ctx context.Context, id int) {
	s.items = append(s.items, id)

	s.record(ctx, EventItemAdded, ItemAddedToCart{
		CartID:    s.id,
		VariantID: id,
		AddedAt:   time.Now(),
	})
}

// RemoveFromCart deletes the first occurrence of id. An absent id is a no-op.
func (s *Store) RemoveFromCart(ctx context.Context, id int) {
	if !s.removeFirst(id) {
		return
	}

	s.record(ctx, EventItemRemoved, ItemRemovedFromCart{
		CartID:    s.id,
		VariantID: id,
		RemovedAt: time.Now(),
	})
}

func (s *Store) removeFirst(id int) bool {
	for i, item := range s.items {
		if item == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// record journals a mutation. The in-memory cart is authoritative, so failures are only logged.
func (s *Store) record(ctx context.Context, eventType string, data any) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Append(ctx, s.id, AggregateType, eventType, data); err != nil {
		s.logger.Warn("failed to journal cart event", zap.String("event_type", eventType), zap.Error(err))
	}
}

// ID returns the cart's aggregate id
func (s *Store) ID() string {
	return s.id
}

// Items returns a copy of the cart contents in insertion order
func (s *Store) Items() []int {
	out := make([]int, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int {
	return len(s.items)
}

func (s *Store) Premium() bool {
	return s.premium
}
