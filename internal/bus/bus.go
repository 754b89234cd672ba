// Package bus is an in-process publish/subscribe channel with synchronous delivery.
//
// A Bus is constructed explicitly and handed to the components that need it. Publish runs every
// handler registered for the topic, in registration order, before it returns; handlers may publish
// again and those nested deliveries also complete first.
package bus

import (
	"context"
	"sync"
)

// Handler receives a published payload.
type Handler func(ctx context.Context, payload any)

type entry struct {
	id      uint64
	handler Handler
}

// Bus routes payloads from publishers to subscribers by topic.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	topics map[string][]entry
}

func New() *Bus {
	return &Bus{topics: make(map[string][]entry)}
}

// Subscription is returned by Subscribe and removes its handler when cancelled.
type Subscription struct {
	bus   *Bus
	topic string
	id    uint64
	once  sync.Once
}

// Unsubscribe removes the handler. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.remove(s.topic, s.id)
	})
}

// Subscribe registers handler for topic.
func (b *Bus) Subscribe(topic string, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], entry{id: id, handler: handler})
	return &Subscription{bus: b, topic: topic, id: id}
}

// Publish delivers payload to the handlers registered for topic at the time of the call.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) {
	b.mu.Lock()
	handlers := make([]Handler, len(b.topics[topic]))
	for i, e := range b.topics[topic] {
		handlers[i] = e.handler
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ctx, payload)
	}
}

// Subscribers reports how many handlers are registered for topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

func (b *Bus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.topics[topic]
	for i, e := range entries {
		if e.id != id {
			continue
		}
		// Copy so an in-flight Publish snapshot is untouched.
		next := make([]entry, 0, len(entries)-1)
		next = append(next, entries[:i]...)
		next = append(next, entries[i+1:]...)
		if len(next) == 0 {
			delete(b.topics, topic)
		} else {
			b.topics[topic] = next
		}
		return
	}
}

// TopicReviewSubmitted carries a catalog.Review from the review form to the product view-model.
const TopicReviewSubmitted = "review-submitted"
