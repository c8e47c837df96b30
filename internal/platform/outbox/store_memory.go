package outbox

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is an outbox for tests and single-process runs.
type InMemoryStore struct {
	mu      sync.Mutex
	entries []*Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *InMemoryStore) Pending(_ context.Context, limit int) ([]*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Entry
	for _, e := range s.entries {
		if e.PublishedAt != nil {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, entryID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.find(entryID); e != nil {
		e.Attempts++
		e.PublishedAt = &at
	}
	return nil
}

func (s *InMemoryStore) MarkFailed(_ context.Context, entryID uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.find(entryID); e != nil {
		e.Attempts++
		e.LastError = reason
	}
	return nil
}

// All returns a snapshot of every entry, published or not.
func (s *InMemoryStore) All() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	return out
}

func (s *InMemoryStore) find(entryID uuid.UUID) *Entry {
	i := slices.IndexFunc(s.entries, func(e *Entry) bool { return e.ID == entryID })
	if i < 0 {
		return nil
	}
	return s.entries[i]
}
