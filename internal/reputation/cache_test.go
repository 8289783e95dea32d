package reputation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEntryCachePutGet(t *testing.T) {
	cache := newEntryCache(10, time.Minute)

	cache.put("a", "value-a")
	got, ok := cache.get("a")
	assert.True(t, ok)
	assert.Equal(t, "value-a", got)

	_, ok = cache.get("missing")
	assert.False(t, ok)
}

func TestEntryCacheNegativeEntry(t *testing.T) {
	cache := newEntryCache(10, time.Minute)

	cache.put("absent", nil)
	got, ok := cache.get("absent")
	assert.True(t, ok, "a cached negative is still a hit")
	assert.Nil(t, got)
}

func TestEntryCacheExpiry(t *testing.T) {
	cache := newEntryCache(10, time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.put("a", "value-a")

	now = now.Add(59 * time.Second)
	_, ok := cache.get("a")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = cache.get("a")
	assert.False(t, ok, "entry should expire after the TTL")
	assert.Equal(t, 0, cache.size())
}

func TestEntryCacheInvalidate(t *testing.T) {
	cache := newEntryCache(10, time.Minute)

	cache.put("a", "value-a")
	cache.invalidate("a")

	_, ok := cache.get("a")
	assert.False(t, ok)
}

func TestEntryCacheCapacityEviction(t *testing.T) {
	cache := newEntryCache(2, time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.put("first", 1)
	now = now.Add(time.Second)
	cache.put("second", 2)
	now = now.Add(time.Second)
	cache.put("third", 3)

	assert.Equal(t, 2, cache.size())
	_, ok := cache.get("first")
	assert.False(t, ok, "the oldest write should be evicted")
	_, ok = cache.get("second")
	assert.True(t, ok)
	_, ok = cache.get("third")
	assert.True(t, ok)
}

func TestEntryCacheEvictionPrefersExpired(t *testing.T) {
	cache := newEntryCache(2, time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.put("stale", 1)
	now = now.Add(2 * time.Minute)
	cache.put("fresh", 2)
	cache.put("newer", 3)

	_, ok := cache.get("fresh")
	assert.True(t, ok, "a live entry must not be evicted while an expired one exists")
	_, ok = cache.get("newer")
	assert.True(t, ok)
}

func TestEntryCacheOverwriteDoesNotEvict(t *testing.T) {
	cache := newEntryCache(2, time.Minute)

	cache.put("a", 1)
	cache.put("b", 2)
	cache.put("a", 10)

	assert.Equal(t, 2, cache.size())
	got, ok := cache.get("a")
	assert.True(t, ok)
	assert.Equal(t, 10, got)
	_, ok = cache.get("b")
	assert.True(t, ok)
}
