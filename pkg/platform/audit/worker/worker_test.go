package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"declara/pkg/platform/audit"
)

type fakeOutbox struct {
	rows      []audit.Row
	published []uuid.UUID
	fetchErr  error
	markErr   error
}

func (f *fakeOutbox) FetchUnpublished(_ context.Context, limit int) ([]audit.Row, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(f.rows) > limit {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, ids []uuid.UUID) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.published = append(f.published, ids...)
	remaining := f.rows[:0]
	for _, row := range f.rows {
		marked := false
		for _, id := range ids {
			if row.ID == id {
				marked = true
				break
			}
		}
		if !marked {
			remaining = append(remaining, row)
		}
	}
	f.rows = remaining
	return nil
}

type fakeProducer struct {
	delivered [][]byte
	keys      []string
	failAfter int
	err       error
}

func (f *fakeProducer) Publish(_ context.Context, key string, payload []byte) error {
	if f.err != nil && len(f.delivered) >= f.failAfter {
		return f.err
	}
	f.delivered = append(f.delivered, payload)
	f.keys = append(f.keys, key)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func outboxRow(aggregateID string) audit.Row {
	return audit.Row{
		ID:            uuid.New(),
		AggregateType: "declaration",
		AggregateID:   aggregateID,
		EventType:     "update",
		Payload:       []byte(`{"Action":"update"}`),
		CreatedAt:     time.Now(),
	}
}

func TestDrainPublishesAndMarks(t *testing.T) {
	store := &fakeOutbox{rows: []audit.Row{outboxRow("decl-1"), outboxRow("decl-2")}}
	producer := &fakeProducer{}
	w := New(store, producer, testLogger())

	require.NoError(t, w.Drain(context.Background()))

	assert.Len(t, producer.delivered, 2)
	assert.Equal(t, []string{"decl-1", "decl-2"}, producer.keys)
	assert.Len(t, store.published, 2)
	assert.Empty(t, store.rows)
}

func TestDrainEmptyOutbox(t *testing.T) {
	store := &fakeOutbox{}
	producer := &fakeProducer{}
	w := New(store, producer, testLogger())

	require.NoError(t, w.Drain(context.Background()))
	assert.Empty(t, producer.delivered)
}

func TestDrainStopsOnPublishFailureButMarksDelivered(t *testing.T) {
	rows := []audit.Row{outboxRow("decl-1"), outboxRow("decl-2"), outboxRow("decl-3")}
	store := &fakeOutbox{rows: append([]audit.Row{}, rows...)}
	producer := &fakeProducer{failAfter: 1, err: errors.New("broker unavailable")}
	w := New(store, producer, testLogger())

	err := w.Drain(context.Background())

	require.Error(t, err)
	assert.Len(t, producer.delivered, 1)
	// The delivered row is marked; the rest stay pending for the next tick.
	assert.Equal(t, []uuid.UUID{rows[0].ID}, store.published)
	assert.Len(t, store.rows, 2)
}

func TestDrainRespectsBatchSize(t *testing.T) {
	store := &fakeOutbox{rows: []audit.Row{outboxRow("a"), outboxRow("b"), outboxRow("c")}}
	producer := &fakeProducer{}
	w := New(store, producer, testLogger(), WithBatchSize(2))

	require.NoError(t, w.Drain(context.Background()))

	assert.Len(t, producer.delivered, 2)
	assert.Len(t, store.rows, 1)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := &fakeOutbox{}
	producer := &fakeProducer{}
	w := New(store, producer, testLogger(), WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDrainPropagatesFetchError(t *testing.T) {
	store := &fakeOutbox{fetchErr: errors.New("db down")}
	w := New(store, &fakeProducer{}, testLogger())

	assert.Error(t, w.Drain(context.Background()))
}
