package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"fraudintel/internal/account/models"
)

type seedFile struct {
	Accounts []*models.Account `yaml:"accounts"`
}

// ParseSeedYAML decodes an accounts document for the in-memory store.
// Status defaults to active and timestamps default to now.
func ParseSeedYAML(data []byte) ([]*models.Account, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse account seed: %w", err)
	}

	now := time.Now().UTC()
	seen := make(map[string]struct{}, len(f.Accounts))
	for i, a := range f.Accounts {
		if a == nil || a.ID.IsNil() {
			return nil, fmt.Errorf("account seed entry %d: id is required", i)
		}
		if _, dup := seen[a.ID.String()]; dup {
			return nil, fmt.Errorf("account seed entry %d: duplicate id %s", i, a.ID)
		}
		seen[a.ID.String()] = struct{}{}
		if !a.Role.Valid() {
			return nil, fmt.Errorf("account seed entry %d: unknown role %q", i, a.Role)
		}
		if !a.Entitlement.Kind.Valid() {
			return nil, fmt.Errorf("account seed entry %d: unknown kind %q", i, a.Entitlement.Kind)
		}
		if a.Entitlement.Status == "" {
			a.Entitlement.Status = models.StatusActive
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = a.CreatedAt
		}
	}
	return f.Accounts, nil
}

// LoadSeedFile saves every account in the YAML file at path and returns how
// many were loaded.
func (s *InMemoryAccountStore) LoadSeedFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read account seed: %w", err)
	}
	accounts, err := ParseSeedYAML(data)
	if err != nil {
		return 0, err
	}
	for _, a := range accounts {
		if err := s.Save(ctx, a); err != nil {
			return 0, err
		}
	}
	return len(accounts), nil
}
