package checkout

import (
	"context"
	"time"
)

// OutboxEvent is one row awaiting publication to the message broker.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// RepoInterface defines the order storage operations the service and the
// outbox poller need. Consumers define this interface, not the postgres
// implementation.
type RepoInterface interface {
	// CreateOrder inserts the order, its lines, and the outbox event in one
	// transaction.
	CreateOrder(ctx context.Context, order *Order, eventPayload []byte) error

	// GetOrderByIdempotencyKey returns the order previously created with key,
	// or ErrIdempotencyKeyMiss.
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*Order, error)

	// GetOrder returns the order or ErrOrderNotFound.
	GetOrder(ctx context.Context, id string) (*Order, error)

	// ListOrders returns the session's orders, newest first.
	ListOrders(ctx context.Context, sessionID string) ([]*Order, error)

	// GetUnprocessedEvents returns up to limit unpublished outbox rows, oldest
	// first.
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)

	// MarkEventAsProcessed stamps the outbox row as published.
	MarkEventAsProcessed(ctx context.Context, id int64) error

	Close() error
}
