package publisher

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Snapman5678/ChainWave/internal/checkout"
)

// EventSource is the slice of the order repository the poller reads from.
type EventSource interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*checkout.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

// messageWriter matches the kafka-go writer; swapped for a fake in tests.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller drains unpublished order events to Kafka on a fixed tick.
// Publish failures are logged and retried on the next tick; the outbox row is
// only marked processed after the broker accepted the message.
type OutboxPoller struct {
	tick      time.Duration
	batchSize int
	repo      EventSource
	writer    messageWriter
}

func NewOutboxPoller(repo EventSource, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{tick: time.Second, batchSize: 100, repo: repo, writer: w}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		log.Printf("failed to fetch outbox events: %v", err)
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			log.Printf("failed to publish event id = %v: %v", event.ID, err)
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			log.Printf("failed to mark event as processed id = %v: %v", event.ID, err)
			continue
		}
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *checkout.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id for ordering
		Value: event.Payload,             // already JSON from the database
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
