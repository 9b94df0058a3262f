package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxKeys bounds the memory store. One window per key; at 60 requests
// per window the worst case stays under a few megabytes.
const DefaultMaxKeys = 10000

// InMemoryStore implements Store with a per-key sliding window. When the key
// cap is reached, the least recently touched key is evicted.
type InMemoryStore struct {
	mu      sync.Mutex
	maxKeys int
	windows map[string]*slidingWindow
}

type slidingWindow struct {
	timestamps []time.Time
	touchedAt  time.Time
}

func NewInMemoryStore(maxKeys int) *InMemoryStore {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	return &InMemoryStore{
		maxKeys: maxKeys,
		windows: make(map[string]*slidingWindow),
	}
}

func (s *InMemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	sw := s.windows[key]
	if sw == nil {
		if len(s.windows) >= s.maxKeys {
			s.evictOldest()
		}
		sw = &slidingWindow{}
		s.windows[key] = sw
	}
	sw.touchedAt = now

	cutoff := now.Add(-window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]

	if len(sw.timestamps) >= limit {
		return Result{
			Allowed: false,
			Limit:   limit,
			ResetAt: sw.timestamps[0].Add(window),
		}, nil
	}

	sw.timestamps = append(sw.timestamps, now)
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(sw.timestamps),
		ResetAt:   sw.timestamps[0].Add(window),
	}, nil
}

// evictOldest drops the least recently touched window. Caller holds the
// lock.
func (s *InMemoryStore) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for key, sw := range s.windows {
		if !found || sw.touchedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = sw.touchedAt
			found = true
		}
	}
	if found {
		delete(s.windows, oldestKey)
	}
}

// Len reports the tracked key count, for tests.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
