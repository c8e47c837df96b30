package store

import (
	"context"
	"sync"
	"time"

	"fraudintel/internal/account/models"
	"fraudintel/internal/account/ports"
	id "fraudintel/pkg/domain"
	"fraudintel/pkg/platform/sentinel"
)

// InMemoryAccountStore keeps accounts in a map guarded by a single mutex, so
// every guarded increment and claim is atomic with respect to the others.
type InMemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*models.Account
}

func NewInMemoryAccountStore() *InMemoryAccountStore {
	return &InMemoryAccountStore{
		accounts: make(map[id.AccountID]*models.Account),
	}
}

// Save inserts or replaces an account. Provisioning and tests use it; the
// search core never does.
func (s *InMemoryAccountStore) Save(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account.Clone()
	return nil
}

func (s *InMemoryAccountStore) FindByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return account.Clone(), nil
}

func (s *InMemoryAccountStore) MarkExpired(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if account.Entitlement.Status != models.StatusExpired {
		account.Entitlement.Status = models.StatusExpired
		account.UpdatedAt = time.Now()
	}
	return nil
}

func (s *InMemoryAccountStore) IncrementUsage(_ context.Context, accountID id.AccountID) (models.Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return models.Usage{}, sentinel.ErrNotFound
	}
	ent := &account.Entitlement
	if ent.Exhausted() {
		return models.Usage{}, sentinel.ErrConflict
	}
	ent.Used++
	account.UpdatedAt = time.Now()
	return models.Usage{Used: ent.Used, Limit: ent.Limit, LowQuotaNotified: ent.LowQuotaNotified}, nil
}

func (s *InMemoryAccountStore) IncrementMemberUsage(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	account.Entitlement.Used++
	account.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryAccountStore) ClaimLowQuotaNotice(_ context.Context, accountID id.AccountID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if account.Entitlement.LowQuotaNotified {
		return false, nil
	}
	account.Entitlement.LowQuotaNotified = true
	account.UpdatedAt = time.Now()
	return true, nil
}

var _ ports.AccountStore = (*InMemoryAccountStore)(nil)
