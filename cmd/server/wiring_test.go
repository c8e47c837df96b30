package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudintel/internal/platform/config"
	httptransport "fraudintel/internal/transport/http"
	id "fraudintel/pkg/domain"
)

func TestOpenStores_MemorySeedsAccounts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "accounts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
accounts:
  - id: 3e9a1c2b-5d4f-4a6e-8b7c-9d0e1f2a3b4c
    email: analyst@example.com
    role: individual
    entitlement: {kind: paid, limit: 5, can_access_authoritative_data: true}
`), 0o600))

	a := &app{}
	cfg := config.Server{Database: config.DatabaseConfig{SeedAccounts: path}}
	st, err := a.openStores(ctx, cfg, slog.New(slog.DiscardHandler), map[string]httptransport.HealthCheck{})
	require.NoError(t, err)
	assert.Equal(t, "memory", a.storage)

	accountID, err := id.ParseAccountID("3e9a1c2b-5d4f-4a6e-8b7c-9d0e1f2a3b4c")
	require.NoError(t, err)
	account, err := st.accounts.FindByID(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, 5, account.Entitlement.Limit)
}

func TestOpenStores_BadSeedFails(t *testing.T) {
	a := &app{}
	cfg := config.Server{Database: config.DatabaseConfig{SeedAccounts: filepath.Join(t.TempDir(), "missing.yaml")}}
	_, err := a.openStores(context.Background(), cfg, slog.New(slog.DiscardHandler), map[string]httptransport.HealthCheck{})
	assert.Error(t, err)
}
