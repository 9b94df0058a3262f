package declaration

import (
	"context"
	"sort"
	"sync"

	"declara/pkg/domain"
	"declara/pkg/platform/sentinel"
)

// InMemoryStore is the dev and test store. Safe for concurrent use.
type InMemoryStore struct {
	mu           sync.RWMutex
	declarations map[domain.DeclarationID]Declaration
	entries      map[domain.DeclarationID][]AuditEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		declarations: make(map[domain.DeclarationID]Declaration),
		entries:      make(map[domain.DeclarationID][]AuditEntry),
	}
}

func (s *InMemoryStore) Create(_ context.Context, d Declaration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.declarations[d.ID]; exists {
		return sentinel.ErrConflict
	}
	s.declarations[d.ID] = d
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, d Declaration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.declarations[d.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.declarations[d.ID] = d
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, declID domain.DeclarationID) (Declaration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.declarations[declID]
	if !ok {
		return Declaration{}, sentinel.ErrNotFound
	}
	return d, nil
}

func (s *InMemoryStore) ListByCreator(_ context.Context, creatorID string) ([]Declaration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Declaration
	for _, d := range s.declarations {
		if d.CreatedBy == creatorID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) AppendEntry(_ context.Context, entry AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.DeclarationID] = append(s.entries[entry.DeclarationID], entry)
	return nil
}

// ListEntries returns the trail newest first.
func (s *InMemoryStore) ListEntries(_ context.Context, declID domain.DeclarationID) ([]AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.entries[declID]
	out := append([]AuditEntry{}, stored...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}
