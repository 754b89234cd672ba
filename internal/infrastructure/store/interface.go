package store

import "context"

// EventStoreInterface defines the interface for event stores
type EventStoreInterface interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error)
	Load(ctx context.Context, aggregateID string) ([]Event, error)
}

// Publisher mirrors appended events to an external channel (Kafka in production)
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}
