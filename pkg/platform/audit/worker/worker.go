// Package worker drains the audit outbox into Kafka.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"declara/pkg/platform/audit"
)

const (
	defaultInterval  = 2 * time.Second
	defaultBatchSize = 100
)

// Worker polls the outbox and publishes pending rows. One worker runs per
// process; delivery is at-least-once.
type Worker struct {
	store     audit.OutboxStore
	producer  audit.Producer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type Option func(*Worker)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(w *Worker) { w.interval = d }
}

// WithBatchSize overrides how many rows one poll drains.
func WithBatchSize(n int) Option {
	return func(w *Worker) { w.batchSize = n }
}

func New(store audit.OutboxStore, producer audit.Producer, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		store:     store,
		producer:  producer,
		logger:    logger,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// Drain publishes one batch of pending rows and marks the delivered ones. A
// publish failure stops the batch; already delivered rows are still marked
// so they are not republished on the next tick.
func (w *Worker) Drain(ctx context.Context) error {
	rows, err := w.store.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	published := make([]uuid.UUID, 0, len(rows))
	var publishErr error
	for _, row := range rows {
		if err := w.producer.Publish(ctx, row.AggregateID, row.Payload); err != nil {
			publishErr = err
			break
		}
		published = append(published, row.ID)
	}

	if len(published) > 0 {
		if err := w.store.MarkPublished(ctx, published); err != nil {
			return err
		}
	}
	return publishErr
}
