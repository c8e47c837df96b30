// Package store holds the authoritative fraud-record stores.
package store

import (
	"context"
	"sync"

	"fraudintel/internal/search/models"
	"fraudintel/internal/search/query"
)

// InMemoryRecordStore is the authoritative dataset for local runs and tests.
type InMemoryRecordStore struct {
	mu      sync.RWMutex
	records []models.Record
}

func NewInMemoryRecordStore(records ...models.Record) *InMemoryRecordStore {
	s := &InMemoryRecordStore{}
	s.records = append(s.records, records...)
	return s
}

func (s *InMemoryRecordStore) Insert(_ context.Context, records ...models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

func (s *InMemoryRecordStore) Find(_ context.Context, p *query.Predicate, page query.Pagination) (models.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return query.Apply(s.records, p, page), nil
}
