package cache

import (
	"sync"
	"time"
)

// entry pairs a stored value with its expiry time. Entries are replaced
// wholesale on Set, never mutated in place.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is an in-memory key/value store with a fixed TTL per entry.
// Expiry is checked lazily on Get; there is no background eviction.
// Safe for concurrent use.
type Cache[V any] struct {
	mutex   sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache whose entries expire ttl after insertion
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the value for key if present and not expired. Expired
// entries are removed on access.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mutex.RLock()
	e, ok := c.entries[key]
	c.mutex.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}

	if c.now().After(e.expiresAt) {
		c.mutex.Lock()
		// re-check under the write lock; a concurrent Set may have
		// refreshed the entry since the read
		if current, ok := c.entries[key]; ok && c.now().After(current.expiresAt) {
			delete(c.entries, key)
		}
		c.mutex.Unlock()

		var zero V
		return zero, false
	}

	return e.value, true
}

// Set stores value under key with the cache's TTL, replacing any
// previous entry
func (c *Cache[V]) Set(key string, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Len returns the number of entries currently stored, including any
// that have expired but not yet been collected by a Get
func (c *Cache[V]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}
