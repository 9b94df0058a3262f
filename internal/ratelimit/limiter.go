// Package ratelimit throttles write operations per actor with a sliding
// window. The store is pluggable: bounded in-memory for a single node, Redis
// when running more than one replica.
package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of one admission check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store counts requests per key within the window and reports admission.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// Limiter applies one fixed policy over a Store.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

func NewLimiter(store Store, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

// Check admits or rejects one request for the key.
func (l *Limiter) Check(ctx context.Context, key string) (Result, error) {
	return l.store.Allow(ctx, key, l.limit, l.window)
}
