package reputation

import (
	"sync"
	"time"
)

// cacheEntry holds one cached lookup result. A nil value is a cached
// negative: storage was consulted and had no active row.
type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// entryCache is a fixed-capacity TTL map fronting the reputation tables.
// It is a per-process optimization only; storage stays the source of truth
// and writers must invalidate the key they touched.
type entryCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]cacheEntry

	now func() time.Time // overridable in tests
}

func newEntryCache(capacity int, ttl time.Duration) *entryCache {
	return &entryCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]cacheEntry),
		now:      time.Now,
	}
}

// get returns the cached value and whether the key was present and fresh.
// The returned value is nil for a cached negative.
func (c *entryCache) get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

// put stores value (possibly nil) under key for the configured TTL.
func (c *entryCache) put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictLocked()
	}
	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)}
}

// invalidate drops the entry for key so the next read goes to storage.
func (c *entryCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// evictLocked removes expired entries, then, if the cache is still full,
// the entry closest to expiry. With a uniform TTL that is the oldest write.
func (c *entryCache) evictLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) < c.capacity {
		return
	}

	var oldestKey string
	var oldestExpiry time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldestExpiry) {
			oldestKey = key
			oldestExpiry = entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

func (c *entryCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
