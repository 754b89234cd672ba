// Package audit follows the mirrored journal on Kafka and keeps a running tally of
// cart and review activity across every session.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/example/ec-product-card/internal/domain/cart"
	"github.com/example/ec-product-card/internal/domain/product"
	"github.com/example/ec-product-card/internal/infrastructure/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Summary is a point-in-time copy of the tally
type Summary struct {
	Events        int         `json:"events"`
	Skipped       int         `json:"skipped"`
	InCarts       map[int]int `json:"in_carts"` // variant id -> net units across carts
	Reviews       int         `json:"reviews"`
	AverageRating string      `json:"average_rating"`
	Recommended   int         `json:"recommended"`
}

type Auditor struct {
	mu          sync.Mutex
	events      int
	skipped     int
	inCarts     map[int]int
	reviews     int
	ratingSum   int
	recommended int
	logger      *zap.Logger
}

func NewAuditor(logger *zap.Logger) *Auditor {
	return &Auditor{
		inCarts: make(map[int]int),
		logger:  logger.With(zap.String("component", "auditor")),
	}
}

// HandleEvent processes one journaled event read from Kafka.
// Events of aggregates it does not track are counted as skipped.
func (a *Auditor) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var err error
	switch event.AggregateType {
	case cart.AggregateType:
		err = a.handleCartEvent(event)
	case product.AggregateType:
		err = a.handleReviewEvent(event)
	default:
		a.skipped++
		a.logger.Debug("skipping event",
			zap.String("aggregate_type", event.AggregateType),
			zap.String("event_type", event.EventType))
		return nil
	}
	if err != nil {
		return err
	}
	a.events++
	return nil
}

func (a *Auditor) handleCartEvent(event store.Event) error {
	switch event.EventType {
	case cart.EventItemAdded:
		var e cart.ItemAddedToCart
		if err := event.Decode(&e); err != nil {
			return fmt.Errorf("failed to decode %s: %w", event.EventType, err)
		}
		a.inCarts[e.VariantID]++
		a.logger.Info("item added to cart",
			zap.String("cart_id", e.CartID),
			zap.Int("variant_id", e.VariantID),
			zap.Int("version", event.Version))

	case cart.EventItemRemoved:
		var e cart.ItemRemovedFromCart
		if err := event.Decode(&e); err != nil {
			return fmt.Errorf("failed to decode %s: %w", event.EventType, err)
		}
		if a.inCarts[e.VariantID]--; a.inCarts[e.VariantID] <= 0 {
			delete(a.inCarts, e.VariantID)
		}
		a.logger.Info("item removed from cart",
			zap.String("cart_id", e.CartID),
			zap.Int("variant_id", e.VariantID),
			zap.Int("version", event.Version))

	default:
		a.logger.Warn("unknown cart event", zap.String("event_type", event.EventType))
	}
	return nil
}

func (a *Auditor) handleReviewEvent(event store.Event) error {
	if event.EventType != product.EventReviewSubmitted {
		a.logger.Warn("unknown review event", zap.String("event_type", event.EventType))
		return nil
	}

	var e product.ReviewSubmitted
	if err := event.Decode(&e); err != nil {
		return fmt.Errorf("failed to decode %s: %w", event.EventType, err)
	}
	a.reviews++
	a.ratingSum += e.Review.Rating
	if e.Review.Recommend == "yes" {
		a.recommended++
	}
	a.logger.Info("review submitted",
		zap.String("reviews_id", e.ReviewsID),
		zap.String("name", e.Review.Name),
		zap.Int("rating", e.Review.Rating),
		zap.String("recommend", e.Review.Recommend))
	return nil
}

func (a *Auditor) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Summary{
		Events:        a.events,
		Skipped:       a.skipped,
		InCarts:       make(map[int]int, len(a.inCarts)),
		Reviews:       a.reviews,
		AverageRating: "0.0",
		Recommended:   a.recommended,
	}
	for id, n := range a.inCarts {
		s.InCarts[id] = n
	}
	if a.reviews > 0 {
		s.AverageRating = decimal.NewFromInt(int64(a.ratingSum)).
			Div(decimal.NewFromInt(int64(a.reviews))).
			StringFixed(1)
	}
	return s
}
