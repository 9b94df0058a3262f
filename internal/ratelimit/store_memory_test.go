package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreAllowsUpToLimit(t *testing.T) {
	store := NewInMemoryStore(100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := store.Allow(ctx, "actor-1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 3, res.Limit)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := store.Allow(ctx, "actor-1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.False(t, res.ResetAt.IsZero())
}

func TestInMemoryStoreKeysAreIndependent(t *testing.T) {
	store := NewInMemoryStore(100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Allow(ctx, "actor-1", 3, time.Minute)
		require.NoError(t, err)
	}

	res, err := store.Allow(ctx, "actor-2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestInMemoryStoreWindowSlides(t *testing.T) {
	store := NewInMemoryStore(100)
	ctx := context.Background()

	res, err := store.Allow(ctx, "actor-1", 1, 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = store.Allow(ctx, "actor-1", 1, 10*time.Millisecond)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	time.Sleep(15 * time.Millisecond)

	res, err = store.Allow(ctx, "actor-1", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestInMemoryStoreEvictsWhenFull(t *testing.T) {
	store := NewInMemoryStore(10)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := store.Allow(ctx, fmt.Sprintf("actor-%d", i), 5, time.Minute)
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, store.Len(), 10)
}

func TestInMemoryStoreEvictedKeyStartsFresh(t *testing.T) {
	store := NewInMemoryStore(1)
	ctx := context.Background()

	res, err := store.Allow(ctx, "actor-1", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	// actor-2 displaces actor-1's window.
	_, err = store.Allow(ctx, "actor-2", 1, time.Minute)
	require.NoError(t, err)

	res, err = store.Allow(ctx, "actor-1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
