// Package cache provides the process-wide TTL cache shared by the source
// fetchers. Entries expire by staleness only: an expired entry is ignored on
// read and overwritten by the next write for its key. There is no capacity
// bound and no background eviction. Concurrent writers to the same key race
// last-writer-wins, which is accepted for this workload.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a string-keyed TTL cache. The zero value is not usable; construct
// with New.
type Cache[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry[V]
}

// New creates a cache whose entries live for ttl after each Set.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the live value for key. Expired entries behave as absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Since(e.storedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, resetting its expiry.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, storedAt: time.Now()}
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Key builds a cache key from request parameters. Callers sort multi-value
// parts before joining so equivalent requests share one entry.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
