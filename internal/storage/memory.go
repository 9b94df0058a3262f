package storage

import (
	"context"
	"sync"

	"declara/pkg/platform/sentinel"
)

// InMemoryStore holds artifacts in process memory. Dev and test use only.
type InMemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

type memObject struct {
	data        []byte
	contentType string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{objects: make(map[string]memObject)}
}

func (s *InMemoryStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memObject{
		data:        append([]byte{}, data...),
		contentType: contentType,
	}
	return "mem://artifacts/" + key, nil
}

func (s *InMemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]byte{}, obj.data...), nil
}

// ContentType reports the stored content type, for tests.
func (s *InMemoryStore) ContentType(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[key].contentType
}

// Len reports the object count, for tests.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
