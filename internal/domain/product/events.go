package product

import (
	"context"
	"fmt"
	"time"

	"github.com/example/ec-product-card/internal/catalog"
	"github.com/example/ec-product-card/internal/infrastructure/store"
)

const (
	AggregateType        = "ProductReviews"
	EventReviewSubmitted = "ReviewSubmitted"
)

// ReviewSubmitted is journaled for every review accepted by a session's page
type ReviewSubmitted struct {
	ReviewsID   string         `json:"reviews_id"`
	Review      catalog.Review `json:"review"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// GetReviewsID returns the review journal ID for a session
func GetReviewsID(sessionID string) string {
	return "reviews-" + sessionID
}

// LoadReviews replays the review journal in submission order
func LoadReviews(ctx context.Context, journal store.EventStoreInterface, reviewsID string) ([]catalog.Review, error) {
	events, err := journal.Load(ctx, reviewsID)
	if err != nil {
		return nil, fmt.Errorf("failed to load review events: %w", err)
	}

	var reviews []catalog.Review
	for _, event := range events {
		if event.EventType != EventReviewSubmitted {
			continue
		}
		var data ReviewSubmitted
		if err := event.Decode(&data); err != nil {
			return nil, fmt.Errorf("failed to decode event %s: %w", event.ID, err)
		}
		reviews = append(reviews, data.Review)
	}
	return reviews, nil
}
