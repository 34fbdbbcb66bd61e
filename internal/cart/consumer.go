package cart

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/fjod/go_cart/storefront-checkout/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Clearer interface {
	ClearCartPlacedAt(ctx context.Context, ownerID string, placedAt time.Time) error
}

const readRetryBackoff = time.Second

// OrderPlacedConsumer empties carts for orders read from the checkout outbox topic. It covers
// orders whose cart could not be cleared right after submission.
type OrderPlacedConsumer struct {
	carts   Clearer
	reader  MessageReader
	backoff time.Duration
	log     *zap.Logger
}

func NewKafkaReader(topic, groupID string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
}

func NewOrderPlacedConsumer(carts Clearer, reader MessageReader, log *zap.Logger) *OrderPlacedConsumer {
	return &OrderPlacedConsumer{
		carts:   carts,
		reader:  reader,
		backoff: readRetryBackoff,
		log:     log.Named("cart-consumer"),
	}
}

// Run reads until ctx is done or the reader is closed. Read errors are retried after a pause.
func (c *OrderPlacedConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		err := c.processMessage(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return
		}

		c.log.Warn("error reading message", zap.Error(err), zap.Duration("retry_in", c.backoff))
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.backoff):
		}
	}
}

func (c *OrderPlacedConsumer) Close() error {
	return c.reader.Close()
}

// processMessage handles one message. Only read errors are returned; a bad message is
// logged and skipped.
func (c *OrderPlacedConsumer) processMessage(ctx context.Context) error {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return err
	}

	if eventType(m) != domain.EventOrderPlaced {
		return nil
	}

	var event domain.PlacedOrder
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.log.Warn("error parsing message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if event.CartOwnerID == "" || event.PlacedAt.IsZero() {
		c.log.Warn("order placed event without cart owner or time",
			zap.String("order_id", event.OrderID))
		return nil
	}

	if err := c.carts.ClearCartPlacedAt(ctx, event.CartOwnerID, event.PlacedAt); err != nil {
		c.log.Error("failed to clear cart for placed order",
			zap.String("order_id", event.OrderID),
			zap.String("owner_id", event.CartOwnerID),
			zap.Error(err))
	}
	return nil
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
