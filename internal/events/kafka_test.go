package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	m.msgs = append(m.msgs, msgs...)
	return m.err
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

// blockingWriter never completes a write on its own, like a writer whose
// brokers are unreachable.
type blockingWriter struct{}

func (blockingWriter) WriteMessages(ctx context.Context, _ ...kafka.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingWriter) Close() error { return nil }

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, ParseBrokers(""))
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &mockWriter{}
	p := &KafkaPublisher{w: w}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	err := p.Publish(context.Background(), OrderEvent{
		Type:       OrderPrioritized,
		OrderID:    "ABC123",
		Priority:   true,
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "ABC123", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "order.prioritized", string(msg.Headers[0].Value))

	var got OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, OrderPrioritized, got.Type)
	assert.True(t, got.Priority)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{w: &mockWriter{err: errors.New("broker down")}}

	err := p.Publish(context.Background(), OrderEvent{Type: OrderCreated, OrderID: "X"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write order.created event")
}

func TestNewKafkaPublisher_Writer(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "pizza.orders", 0)
	assert.Equal(t, DefaultPublishTimeout, p.timeout)

	w, ok := p.w.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "pizza.orders", w.Topic)
	assert.Equal(t, 10*time.Millisecond, w.BatchTimeout)
	assert.Equal(t, DefaultPublishTimeout, w.WriteTimeout)

	p = NewKafkaPublisher([]string{"localhost:9092"}, "pizza.orders", 500*time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, p.timeout)
}

func TestKafkaPublisher_PublishTimeout(t *testing.T) {
	p := &KafkaPublisher{w: blockingWriter{}, timeout: 20 * time.Millisecond}

	start := time.Now()
	err := p.Publish(context.Background(), OrderEvent{Type: OrderCreated, OrderID: "X"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
