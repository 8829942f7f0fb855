package salonpress

import (
	"slices"
	"sync"
	"time"
)

// collectionCache mirrors one content file in memory. A zero or negative ttl
// disables caching, which is what development mode uses.
type collectionCache[T any] struct {
	mu        sync.RWMutex
	items     []T
	loaded    bool
	refreshed time.Time
	ttl       time.Duration
}

func newCollectionCache[T any](ttl time.Duration) *collectionCache[T] {
	return &collectionCache[T]{ttl: ttl}
}

// isStale reports whether the cached copy must be reloaded at now.
func (c *collectionCache[T]) isStale(now time.Time) bool {
	return !c.loaded || c.ttl <= 0 || now.Sub(c.refreshed) >= c.ttl
}

// get returns a copy of the cached items when they are still fresh.
func (c *collectionCache[T]) get(now time.Time) ([]T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.isStale(now) {
		return nil, false
	}
	return slices.Clone(c.items), true
}

// set replaces the cached items and stamps the refresh time.
func (c *collectionCache[T]) set(items []T, now time.Time) {
	c.mu.Lock()
	c.items = slices.Clone(items)
	c.loaded = true
	c.refreshed = now
	c.mu.Unlock()
}

// invalidate clears the cache so the next read triggers a fresh load.
func (c *collectionCache[T]) invalidate() {
	c.mu.Lock()
	c.items = nil
	c.loaded = false
	c.mu.Unlock()
}
