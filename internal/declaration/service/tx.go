package service

import (
	"context"
	"sync"
	"time"

	"declara/pkg/domainerrors"
)

// TxRunner bounds a record mutation and its audit entry so they commit
// together. The postgres runner opens a database transaction and carries it
// through the context; the in-memory runner serializes per declaration.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Sharded mutexes instead of one global lock keep unrelated declarations
// from contending.
const numTxShards = 128

const defaultTxTimeout = 5 * time.Second

// InMemoryTxRunner pairs with the in-memory declaration store.
type InMemoryTxRunner struct {
	shards  [numTxShards]sync.Mutex
	timeout time.Duration
}

func NewInMemoryTxRunner() *InMemoryTxRunner {
	return &InMemoryTxRunner{}
}

func (t *InMemoryTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := t.selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

func (t *InMemoryTxRunner) selectShard(ctx context.Context) int {
	if key, ok := ctx.Value(txKeyCtx).(string); ok && key != "" {
		return int(hashString(key) % numTxShards)
	}
	return 0
}

// WithTxKey scopes the lock to one declaration.
func WithTxKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, txKeyCtx, key)
}

// hashString is FNV-1a.
func hashString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}

type txKey struct{}

var txKeyCtx = txKey{}
