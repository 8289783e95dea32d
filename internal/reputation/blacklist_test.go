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

const (
	testPayAddr  = "TPay111111111111111111111111111111"
	testProvAddr = "TPro111111111111111111111111111111"
	testOther    = "TXyz111111111111111111111111111111"
)

func newTestBlacklistStore(repo *fakeBlacklistRepo) *BlacklistStore {
	return NewBlacklistStore(repo, 100, time.Minute, testLogger())
}

func TestBlacklistAddAndCheck(t *testing.T) {
	repo := newFakeBlacklistRepo()
	store := newTestBlacklistStore(repo)
	ctx := context.Background()

	ok := store.Add(ctx, testPayAddr, "scam deposit", "admin", types.EntryManual, false)
	require.True(t, ok)

	entry := store.Check(ctx, testPayAddr)
	require.NotNil(t, entry)
	assert.Equal(t, testPayAddr, entry.Address)
	assert.Equal(t, "scam deposit", entry.Reason)
	assert.Equal(t, types.EntryManual, entry.Type)
	assert.True(t, entry.Active)
}

func TestBlacklistAddRejectsInvalidAddress(t *testing.T) {
	repo := newFakeBlacklistRepo()
	store := newTestBlacklistStore(repo)

	assert.False(t, store.Add(context.Background(), "not-an-address", "reason", "", types.EntryManual, false))
	assert.Equal(t, 0, repo.upsertCalls, "invalid addresses must not reach storage")
}

func TestBlacklistAddIdempotentKeepsReason(t *testing.T) {
	repo := newFakeBlacklistRepo()
	store := newTestBlacklistStore(repo)
	ctx := context.Background()

	require.True(t, store.Add(ctx, testPayAddr, "original reason", "", types.EntryManual, false))
	require.True(t, store.Add(ctx, testPayAddr, "", "", types.EntryManual, true))

	entry := store.Check(ctx, testPayAddr)
	require.NotNil(t, entry)
	assert.Equal(t, "original reason", entry.Reason, "empty reason must not erase the stored one")
	assert.True(t, entry.Provisional, "provisional flag is overwritten on re-add")
}

func TestBlacklistCheckCachesPositive(t *testing.T) {
	repo := newFakeBlacklistRepo()
	store := newTestBlacklistStore(repo)
	ctx := context.Background()

	require.True(t, store.Add(ctx, testPayAddr, "r", "", types.EntryManual, false))

	store.Check(ctx, testPayAddr)
	store.Check(ctx, testPayAddr)
	store.Check(ctx, testPayAddr)
	assert.Equal(t, 1, repo.getCalls, "repeat checks should be served from cache")
}

func TestBlacklistCheckCachesNegative(t *testing.T) {
	repo := newFakeBlacklistRepo()
	store := newTestBlacklistStore(repo)
	ctx := context.Background()

	assert.Nil(t, store.Check(ctx, testOther))
	assert.Nil(t, store.Check(ctx, testOther))
	assert.Equal(t, 1, repo.getCalls, "the miss should be cached too")
}

func TestBlacklistAddInvalidatesCachedNegative(t *testing.T) {
	repo := newFakeBlacklistRepo()
	store := newTestBlacklistStore(repo)
	ctx := context.Background()

	assert.Nil(t, store.Check(ctx, testPayAddr))
	require.True(t, store.Add(ctx, testPayAddr, "r", "", types.EntryManual, false))

	entry := store.Check(ctx, testPayAddr)
	assert.NotNil(t, entry, "a write must be visible through the cache immediately")
	assert.Equal(t, 2, repo.getCalls)
}

func TestBlacklistRemove(t *testing.T) {
	repo := newFakeBlacklistRepo()
	store := newTestBlacklistStore(repo)
	ctx := context.Background()

	require.True(t, store.Add(ctx, testPayAddr, "r", "", types.EntryManual, false))
	require.NotNil(t, store.Check(ctx, testPayAddr))

	assert.True(t, store.Remove(ctx, testPayAddr))
	assert.Nil(t, store.Check(ctx, testPayAddr))
}

func TestBlacklistRemoveAbsentAddress(t *testing.T) {
	store := newTestBlacklistStore(newFakeBlacklistRepo())

	assert.True(t, store.Remove(context.Background(), testOther), "removing an unlisted address is a success")
	assert.False(t, store.Remove(context.Background(), "bogus"))
}

func TestBlacklistStorageFailuresDegrade(t *testing.T) {
	repo := newFakeBlacklistRepo()
	store := newTestBlacklistStore(repo)
	ctx := context.Background()

	repo.upsertErr = errors.New("connection refused")
	assert.False(t, store.Add(ctx, testPayAddr, "r", "", types.EntryManual, false))

	repo.getErr = errors.New("connection refused")
	assert.Nil(t, store.Check(ctx, testPayAddr))

	repo.deactivateErr = errors.New("connection refused")
	assert.False(t, store.Remove(ctx, testPayAddr))
}

func TestBlacklistCheckErrorNotCached(t *testing.T) {
	repo := newFakeBlacklistRepo()
	store := newTestBlacklistStore(repo)
	ctx := context.Background()

	repo.getErr = errors.New("timeout")
	assert.Nil(t, store.Check(ctx, testPayAddr))

	repo.getErr = nil
	require.True(t, store.Add(ctx, testPayAddr, "r", "", types.EntryManual, false))
	assert.NotNil(t, store.Check(ctx, testPayAddr), "a failed read must not poison the cache")
}

func TestBlacklistAddAssociation(t *testing.T) {
	repo := newFakeBlacklistRepo()
	store := newTestBlacklistStore(repo)
	ctx := context.Background()

	assert.True(t, store.AddAssociation(ctx, testProvAddr, testPayAddr))
	assert.True(t, store.AddAssociation(ctx, testProvAddr, testPayAddr), "duplicate edges are a no-op")
	assert.False(t, store.AddAssociation(ctx, "bad", testPayAddr))

	count, err := store.EdgeCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestBlacklistStats(t *testing.T) {
	repo := newFakeBlacklistRepo()
	store := newTestBlacklistStore(repo)
	ctx := context.Background()

	require.True(t, store.Add(ctx, testPayAddr, "r", "", types.EntryManual, false))
	require.True(t, store.Add(ctx, testProvAddr, "r", "", types.EntryAutoAssociated, true))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Manual)
	assert.Equal(t, int64(1), stats.AutoAssociated)
	assert.Equal(t, int64(1), stats.Provisional)
}
