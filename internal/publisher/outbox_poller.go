package publisher

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront-checkout/internal/repository"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const batchSize = 100

// OutboxStore is the slice of the repository the poller needs.
type OutboxStore interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*repository.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
	DeleteProcessedEvents(ctx context.Context, olderThan time.Time) (int64, error)
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Options struct {
	PollInterval  time.Duration
	PurgeInterval time.Duration
	Retention     time.Duration
}

// OutboxPoller publishes order events written by the ledger to Kafka.
type OutboxPoller struct {
	opts   Options
	repo   OutboxStore
	writer MessageWriter
	log    *zap.Logger
	now    func() time.Time
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewOutboxPoller(repo OutboxStore, writer MessageWriter, opts Options, log *zap.Logger) *OutboxPoller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.PurgeInterval <= 0 {
		opts.PurgeInterval = time.Hour
	}
	return &OutboxPoller{
		opts:   opts,
		repo:   repo,
		writer: writer,
		log:    log.Named("outbox"),
		now:    time.Now,
	}
}

// Run blocks until ctx is done.
func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.opts.PollInterval)
	purgeTicker := time.NewTicker(p.opts.PurgeInterval)
	defer eventTicker.Stop()
	defer purgeTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-purgeTicker.C:
			p.purgeProcessedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Close flushes and closes the writer.
func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) int {
	events, err := p.repo.GetUnprocessedEvents(ctx, batchSize)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.log.Error("failed to fetch outbox events", zap.Error(err))
		}
		return 0
	}

	published := 0
	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.log.Warn("failed to publish outbox event",
				zap.Int64("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Error(err))
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.Error("failed to mark outbox event as processed",
				zap.Int64("event_id", event.ID), zap.Error(err))
			continue
		}
		published++
	}
	if published > 0 {
		p.log.Debug("outbox events published", zap.Int("count", published))
	}
	return published
}

func (p *OutboxPoller) purgeProcessedEvents(ctx context.Context) {
	if p.opts.Retention <= 0 {
		return
	}
	n, err := p.repo.DeleteProcessedEvents(ctx, p.now().Add(-p.opts.Retention))
	if err != nil {
		p.log.Error("failed to purge processed outbox events", zap.Error(err))
		return
	}
	if n > 0 {
		p.log.Info("purged processed outbox events", zap.Int64("count", n))
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		// keyed by order so all events for one order land on one partition
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
