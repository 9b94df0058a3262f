package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (Result, error) {
	return Result{}, errors.New("store unavailable")
}

func TestLimiterAppliesPolicy(t *testing.T) {
	limiter := NewLimiter(NewInMemoryStore(100), 2, time.Minute)
	ctx := context.Background()

	res, err := limiter.Check(ctx, "actor-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Limit)

	_, err = limiter.Check(ctx, "actor-1")
	require.NoError(t, err)

	res, err = limiter.Check(ctx, "actor-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestLimiterPropagatesStoreError(t *testing.T) {
	limiter := NewLimiter(failingStore{}, 2, time.Minute)

	_, err := limiter.Check(context.Background(), "actor-1")
	assert.Error(t, err)
}
