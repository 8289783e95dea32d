package reputation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookoupai/Low-price-tron-energy/internal/types"
)

func newTestWhitelistStore(repo *fakeWhitelistRepo) *WhitelistStore {
	return NewWhitelistStore(repo, 100, time.Minute, testLogger())
}

func TestWhitelistAddAndCheckAddress(t *testing.T) {
	repo := newFakeWhitelistRepo()
	store := newTestWhitelistStore(repo)
	ctx := context.Background()

	require.True(t, store.AddAddress(ctx, testPayAddr, types.RolePayment, "verified deal", "admin", false))

	entry := store.CheckAddress(ctx, testPayAddr, types.RolePayment)
	require.NotNil(t, entry)
	assert.Equal(t, types.RolePayment, entry.Role)
	assert.Equal(t, 1, entry.SuccessCount)
}

func TestWhitelistAddressRolesAreIndependent(t *testing.T) {
	repo := newFakeWhitelistRepo()
	store := newTestWhitelistStore(repo)
	ctx := context.Background()

	require.True(t, store.AddAddress(ctx, testPayAddr, types.RolePayment, "", "", false))

	assert.NotNil(t, store.CheckAddress(ctx, testPayAddr, types.RolePayment))
	assert.Nil(t, store.CheckAddress(ctx, testPayAddr, types.RoleProvider),
		"listing under one role must not vouch for the other")
}

func TestWhitelistAddAddressRejectsBadInput(t *testing.T) {
	store := newTestWhitelistStore(newFakeWhitelistRepo())
	ctx := context.Background()

	assert.False(t, store.AddAddress(ctx, "bogus", types.RolePayment, "", "", false))
	assert.False(t, store.AddAddress(ctx, testPayAddr, types.Role("broker"), "", "", false))
}

func TestWhitelistRepeatAddIncrementsSuccessCount(t *testing.T) {
	repo := newFakeWhitelistRepo()
	store := newTestWhitelistStore(repo)
	ctx := context.Background()

	require.True(t, store.AddAddress(ctx, testProvAddr, types.RoleProvider, "", "", false))
	require.True(t, store.AddAddress(ctx, testProvAddr, types.RoleProvider, "", "", false))

	entry := store.CheckAddress(ctx, testProvAddr, types.RoleProvider)
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.SuccessCount)
}

func TestWhitelistCheckAddressCaches(t *testing.T) {
	repo := newFakeWhitelistRepo()
	store := newTestWhitelistStore(repo)
	ctx := context.Background()

	require.True(t, store.AddAddress(ctx, testPayAddr, types.RolePayment, "", "", false))

	store.CheckAddress(ctx, testPayAddr, types.RolePayment)
	store.CheckAddress(ctx, testPayAddr, types.RolePayment)
	assert.Equal(t, 1, repo.getAddressCalls)

	store.CheckAddress(ctx, testPayAddr, types.RoleProvider)
	assert.Equal(t, 2, repo.getAddressCalls, "each role is a distinct cache key")
}

func TestWhitelistRemoveAddress(t *testing.T) {
	repo := newFakeWhitelistRepo()
	store := newTestWhitelistStore(repo)
	ctx := context.Background()

	require.True(t, store.AddAddress(ctx, testPayAddr, types.RolePayment, "", "", false))
	require.NotNil(t, store.CheckAddress(ctx, testPayAddr, types.RolePayment))

	assert.True(t, store.RemoveAddress(ctx, testPayAddr, types.RolePayment))
	assert.Nil(t, store.CheckAddress(ctx, testPayAddr, types.RolePayment))

	assert.True(t, store.RemoveAddress(ctx, testOther, types.RolePayment), "removing an unlisted entry is a success")
}

func TestWhitelistPairLifecycle(t *testing.T) {
	repo := newFakeWhitelistRepo()
	store := newTestWhitelistStore(repo)
	ctx := context.Background()

	require.True(t, store.AddPair(ctx, testPayAddr, testProvAddr, "admin", false))
	require.True(t, store.AddPair(ctx, testPayAddr, testProvAddr, "admin", false))

	pair := store.CheckPair(ctx, testPayAddr, testProvAddr)
	require.NotNil(t, pair)
	assert.Equal(t, 2, pair.SuccessCount)

	assert.Nil(t, store.CheckPair(ctx, testProvAddr, testPayAddr), "pair keys are ordered, not symmetric")
}

func TestWhitelistPairNeverCached(t *testing.T) {
	repo := newFakeWhitelistRepo()
	store := newTestWhitelistStore(repo)
	ctx := context.Background()

	require.True(t, store.AddPair(ctx, testPayAddr, testProvAddr, "", false))

	store.CheckPair(ctx, testPayAddr, testProvAddr)
	store.CheckPair(ctx, testPayAddr, testProvAddr)
	assert.Equal(t, 2, repo.getPairCalls, "every pair check must hit storage")
}

func TestWhitelistPairIndependentOfSingleEntries(t *testing.T) {
	repo := newFakeWhitelistRepo()
	store := newTestWhitelistStore(repo)
	ctx := context.Background()

	require.True(t, store.AddPair(ctx, testPayAddr, testProvAddr, "", false))

	assert.Nil(t, store.CheckAddress(ctx, testPayAddr, types.RolePayment),
		"a trusted pair does not vouch for its members individually")
	assert.Nil(t, store.CheckAddress(ctx, testProvAddr, types.RoleProvider))
}

func TestWhitelistStorageFailuresDegrade(t *testing.T) {
	repo := newFakeWhitelistRepo()
	store := newTestWhitelistStore(repo)
	ctx := context.Background()

	repo.upsertAddressErr = errors.New("connection refused")
	assert.False(t, store.AddAddress(ctx, testPayAddr, types.RolePayment, "", "", false))

	repo.getAddressErr = errors.New("connection refused")
	assert.Nil(t, store.CheckAddress(ctx, testPayAddr, types.RolePayment))

	repo.upsertPairErr = errors.New("connection refused")
	assert.False(t, store.AddPair(ctx, testPayAddr, testProvAddr, "", false))

	repo.getPairErr = errors.New("connection refused")
	assert.Nil(t, store.CheckPair(ctx, testPayAddr, testProvAddr))
}

func TestWhitelistStats(t *testing.T) {
	repo := newFakeWhitelistRepo()
	store := newTestWhitelistStore(repo)
	ctx := context.Background()

	require.True(t, store.AddAddress(ctx, testPayAddr, types.RolePayment, "", "", false))
	require.True(t, store.AddAddress(ctx, testProvAddr, types.RoleProvider, "", "", false))
	require.True(t, store.AddAddress(ctx, testOther, types.RoleProvider, "", "", false))
	require.True(t, store.AddPair(ctx, testPayAddr, testProvAddr, "", false))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Addresses)
	assert.Equal(t, int64(1), stats.Payment)
	assert.Equal(t, int64(2), stats.Provider)
	assert.Equal(t, int64(1), stats.Pairs)
}
