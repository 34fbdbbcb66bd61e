package cart

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront-checkout/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type MockReader struct {
	msgs   []kafka.Message
	err    error
	closed bool
	reads  atomic.Int32
	// failures makes the first reads return err before falling back to io.EOF.
	failures int32
}

func (m *MockReader) ReadMessage(context.Context) (kafka.Message, error) {
	n := m.reads.Add(1)
	if m.failures > 0 {
		if n <= m.failures {
			return kafka.Message{}, m.err
		}
		return kafka.Message{}, io.EOF
	}
	if m.err != nil {
		return kafka.Message{}, m.err
	}
	if len(m.msgs) == 0 {
		return kafka.Message{}, context.Canceled
	}
	msg := m.msgs[0]
	m.msgs = m.msgs[1:]
	return msg, nil
}

func (m *MockReader) Close() error {
	m.closed = true
	return nil
}

type MockClearer struct {
	cleared  []string
	placedAt []time.Time
	err      error
}

func (m *MockClearer) ClearCartPlacedAt(_ context.Context, ownerID string, placedAt time.Time) error {
	m.cleared = append(m.cleared, ownerID)
	m.placedAt = append(m.placedAt, placedAt)
	return m.err
}

func orderMessage(eventType, value string) kafka.Message {
	return kafka.Message{
		Key:     []byte("ord_1"),
		Value:   []byte(value),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(eventType)}},
	}
}

func TestProcessMessage_ClearsCart(t *testing.T) {
	reader := &MockReader{msgs: []kafka.Message{
		orderMessage(domain.EventOrderPlaced,
			`{"order_id":"ord_1","cart_owner_id":"guest-cart-9","placed_at":"2026-03-01T12:00:00Z"}`),
	}}
	carts := &MockClearer{}
	c := NewOrderPlacedConsumer(carts, reader, zap.NewNop())

	assert.NoError(t, c.processMessage(context.Background()))

	assert.Equal(t, []string{"guest-cart-9"}, carts.cleared)
	assert.Equal(t, []time.Time{time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}, carts.placedAt)
}

func TestProcessMessage_RequiresPlacedAt(t *testing.T) {
	reader := &MockReader{msgs: []kafka.Message{
		orderMessage(domain.EventOrderPlaced, `{"order_id":"ord_1","cart_owner_id":"guest-cart-9"}`),
	}}
	carts := &MockClearer{}
	c := NewOrderPlacedConsumer(carts, reader, zap.NewNop())

	assert.NoError(t, c.processMessage(context.Background()))
	assert.Empty(t, carts.cleared)
}

func TestProcessMessage_SkipsOtherEventTypes(t *testing.T) {
	reader := &MockReader{msgs: []kafka.Message{
		orderMessage("checkout.abandoned", `{"cart_owner_id":"cust-1","placed_at":"2026-03-01T12:00:00Z"}`),
	}}
	carts := &MockClearer{}
	c := NewOrderPlacedConsumer(carts, reader, zap.NewNop())

	assert.NoError(t, c.processMessage(context.Background()))

	assert.Empty(t, carts.cleared)
}

func TestProcessMessage_InvalidPayload(t *testing.T) {
	reader := &MockReader{msgs: []kafka.Message{
		orderMessage(domain.EventOrderPlaced, `not json`),
		orderMessage(domain.EventOrderPlaced, `{"order_id":"ord_2"}`),
	}}
	carts := &MockClearer{}
	c := NewOrderPlacedConsumer(carts, reader, zap.NewNop())

	assert.NoError(t, c.processMessage(context.Background()))
	assert.NoError(t, c.processMessage(context.Background()))

	assert.Empty(t, carts.cleared)
}

func TestProcessMessage_ClearErrorDoesNotPanic(t *testing.T) {
	reader := &MockReader{msgs: []kafka.Message{
		orderMessage(domain.EventOrderPlaced, `{"cart_owner_id":"cust-1","placed_at":"2026-03-01T12:00:00Z"}`),
	}}
	carts := &MockClearer{err: errors.New("mongo down")}
	c := NewOrderPlacedConsumer(carts, reader, zap.NewNop())

	assert.NoError(t, c.processMessage(context.Background()))

	assert.Equal(t, []string{"cust-1"}, carts.cleared)
}

func TestRun_StopsWhenContextDone(t *testing.T) {
	reader := &MockReader{err: errors.New("broker unreachable")}
	c := NewOrderPlacedConsumer(&MockClearer{}, reader, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Run(ctx)

	assert.NoError(t, c.Close())
	assert.True(t, reader.closed)
}

func TestRun_ReturnsWhenReaderClosed(t *testing.T) {
	reader := &MockReader{err: errors.New("broker unreachable"), failures: 2}
	c := NewOrderPlacedConsumer(&MockClearer{}, reader, zap.NewNop())
	c.backoff = time.Millisecond

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the reader was closed")
	}
	assert.Equal(t, int32(3), reader.reads.Load())
}

func TestRun_BacksOffOnReadErrors(t *testing.T) {
	reader := &MockReader{err: errors.New("broker unreachable")}
	c := NewOrderPlacedConsumer(&MockClearer{}, reader, zap.NewNop())
	c.backoff = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	c.Run(ctx)

	assert.LessOrEqual(t, reader.reads.Load(), int32(4))
	assert.GreaterOrEqual(t, reader.reads.Load(), int32(2))
}
