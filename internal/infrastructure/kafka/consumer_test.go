package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeReader serves queued messages, then fails every read with readErr
type fakeReader struct {
	mu       sync.Mutex
	messages []kafka.Message
	readErr  error
	reads    int
	closed   bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if ctx.Err() != nil {
		return kafka.Message{}, ctx.Err()
	}
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		return msg, nil
	}
	return kafka.Message{}, r.readErr
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) readCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

func TestConsumer_BacksOffOnReadErrors(t *testing.T) {
	reader := &fakeReader{readErr: errors.New("broker unreachable")}
	core, logs := observer.New(zap.WarnLevel)
	consumer := newConsumer(reader, 50*time.Millisecond, zap.New(core))

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	err := consumer.Consume(ctx, func(context.Context, []byte, []byte) error { return nil })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.LessOrEqual(t, reader.readCount(), 4)
	assert.LessOrEqual(t, logs.FilterMessage("error reading message").Len(), 4)
}

func TestConsumer_StopsDuringBackoff(t *testing.T) {
	reader := &fakeReader{readErr: errors.New("broker unreachable")}
	consumer := newConsumer(reader, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- consumer.Consume(ctx, func(context.Context, []byte, []byte) error { return nil })
	}()

	require.Eventually(t, func() bool { return reader.readCount() >= 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop while backing off")
	}
	assert.Equal(t, 1, reader.readCount())
}

func TestConsumer_HandlesMessagesAndSkipsFailures(t *testing.T) {
	reader := &fakeReader{
		messages: []kafka.Message{
			{Key: []byte("cart-1"), Value: []byte("first")},
			{Key: []byte("cart-2"), Value: []byte("second")},
		},
		readErr: errors.New("no more messages"),
	}
	core, logs := observer.New(zap.WarnLevel)
	consumer := newConsumer(reader, time.Hour, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var keys []string
	handler := func(_ context.Context, key, value []byte) error {
		mu.Lock()
		defer mu.Unlock()
		keys = append(keys, string(key))
		if len(keys) == 2 {
			cancel()
		}
		if string(value) == "first" {
			return errors.New("bad payload")
		}
		return nil
	}

	err := consumer.Consume(ctx, handler)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"cart-1", "cart-2"}, keys)
	assert.Equal(t, 1, logs.FilterMessage("error handling message").Len())
}

func TestConsumer_Close(t *testing.T) {
	reader := &fakeReader{}
	consumer := newConsumer(reader, time.Second, zap.NewNop())

	require.NoError(t, consumer.Close())
	assert.True(t, reader.closed)
}
