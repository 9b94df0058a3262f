// Package audit fans declaration history events out to Kafka through the
// transactional outbox: stores write events to the outbox table inside the
// business transaction, the worker publishes and marks them.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Row is one pending outbox record.
type Row struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// OutboxStore reads and settles pending rows.
type OutboxStore interface {
	FetchUnpublished(ctx context.Context, limit int) ([]Row, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Producer delivers one event payload. Implemented by the Kafka publisher;
// tests substitute a fake.
type Producer interface {
	Publish(ctx context.Context, key string, payload []byte) error
}
