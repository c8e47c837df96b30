package memory

import (
	"context"
	"sync"

	id "fraudintel/pkg/domain"
	audit "fraudintel/pkg/platform/audit"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries []audit.SearchEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) AppendBatch(_ context.Context, entries []audit.SearchEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return nil
}

// ListByAccount returns the entries written for an account, oldest first.
func (s *InMemoryStore) ListByAccount(_ context.Context, accountID id.AccountID) ([]audit.SearchEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.SearchEntry
	for _, e := range s.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
