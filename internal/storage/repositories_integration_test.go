package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookoupai/Low-price-tron-energy/internal/config"
	"github.com/lookoupai/Low-price-tron-energy/internal/models"
	"github.com/lookoupai/Low-price-tron-energy/internal/types"
)

// These tests need a migrated Postgres instance; they skip when
// TEST_POSTGRES_HOST is unset.
func setupTestDB(t *testing.T) *PostgresDB {
	t.Helper()

	host := os.Getenv("TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("TEST_POSTGRES_HOST not set, skipping integration test")
	}

	cfg := &config.PostgresConfig{
		Host:           host,
		Port:           getTestEnv("TEST_POSTGRES_PORT", "5432"),
		Database:       getTestEnv("TEST_POSTGRES_DB", "tron_energy_test"),
		User:           getTestEnv("TEST_POSTGRES_USER", "tron"),
		Password:       os.Getenv("TEST_POSTGRES_PASSWORD"),
		MaxConnections: 5,
	}
	db, err := NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func getTestEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func uniqueAddress(t *testing.T) string {
	base := fmt.Sprintf("T%d", time.Now().UnixNano())
	for len(base) < 34 {
		base += "x"
	}
	t.Logf("using test address %s", base)
	return base[:34]
}

func TestBlacklistRepositoryLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlacklistRepository(db)
	ctx := context.Background()
	address := uniqueAddress(t)

	require.NoError(t, repo.Upsert(ctx, &models.BlacklistEntry{
		Address: address,
		Reason:  "integration test",
		Type:    types.EntryManual,
	}))

	entry, err := repo.GetActive(ctx, address)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "integration test", entry.Reason)
	assert.True(t, entry.Active)

	// empty reason keeps the stored one, provisional flips
	require.NoError(t, repo.Upsert(ctx, &models.BlacklistEntry{
		Address:     address,
		Type:        types.EntryManual,
		Provisional: true,
	}))
	entry, err = repo.GetActive(ctx, address)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "integration test", entry.Reason)
	assert.True(t, entry.Provisional)

	require.NoError(t, repo.Deactivate(ctx, address))
	entry, err = repo.GetActive(ctx, address)
	require.NoError(t, err)
	assert.Nil(t, entry, "deactivated row reads as absent")

	// re-adding reactivates the same row
	require.NoError(t, repo.Upsert(ctx, &models.BlacklistEntry{Address: address, Type: types.EntryManual}))
	entry, err = repo.GetActive(ctx, address)
	require.NoError(t, err)
	require.NotNil(t, entry)
}

func TestBlacklistRepositoryEdges(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlacklistRepository(db)
	ctx := context.Background()
	source, target := uniqueAddress(t), uniqueAddress(t)

	before, err := repo.EdgeCount(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.InsertEdge(ctx, source, target))
	require.NoError(t, repo.InsertEdge(ctx, source, target), "duplicate edge insert must be silent")

	after, err := repo.EdgeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}

func TestWhitelistRepositorySuccessCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWhitelistRepository(db)
	ctx := context.Background()
	address := uniqueAddress(t)

	entry := &models.WhitelistEntry{Address: address, Role: types.RolePayment}
	require.NoError(t, repo.UpsertAddress(ctx, entry))
	require.NoError(t, repo.UpsertAddress(ctx, entry))

	stored, err := repo.GetActiveAddress(ctx, address, types.RolePayment)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 2, stored.SuccessCount)

	// the other role has its own row
	other, err := repo.GetActiveAddress(ctx, address, types.RoleProvider)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestWhitelistRepositoryPairs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWhitelistRepository(db)
	ctx := context.Background()
	payment, provider := uniqueAddress(t), uniqueAddress(t)

	pair := &models.WhitelistPair{PaymentAddress: payment, ProviderAddress: provider}
	require.NoError(t, repo.UpsertPair(ctx, pair))
	require.NoError(t, repo.UpsertPair(ctx, pair))

	stored, err := repo.GetActivePair(ctx, payment, provider)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 2, stored.SuccessCount)

	reversed, err := repo.GetActivePair(ctx, provider, payment)
	require.NoError(t, err)
	assert.Nil(t, reversed)
}

func TestSettingsRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()
	key := fmt.Sprintf("test_key_%d", time.Now().UnixNano())

	_, found, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.SeedDefault(ctx, key, "seeded"))
	require.NoError(t, repo.SeedDefault(ctx, key, "ignored"))

	value, found, err := repo.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "seeded", value)

	require.NoError(t, repo.Set(ctx, key, "updated"))
	value, _, err = repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "updated", value)
}
