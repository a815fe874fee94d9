// Package cache provides a small bounded concurrent cache.
package cache

import "sync"

// Cache is a generic key/value cache guarded by a RWMutex. When a maximum size
// is set and reached, new keys are not stored; existing entries are never
// evicted, which keeps Get results stable for the process lifetime.
type Cache[K comparable, V any] struct {
	items map[K]V
	max   int
	mutex sync.RWMutex
}

// New creates a cache holding at most max entries. A max of zero or less
// means unbounded.
func New[K comparable, V any](max int) *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
		max:   max,
	}
}

// Get retrieves an item from the cache
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	v, ok := c.items[key]
	return v, ok
}

// Set stores an item. It reports false when the cache is full and key was not
// already present.
func (c *Cache[K, V]) Set(key K, value V) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.items[key]; !exists && c.max > 0 && len(c.items) >= c.max {
		return false
	}
	c.items[key] = value
	return true
}

// GetOrCompute returns the cached value for key or computes and stores it.
// Concurrent callers may compute the same key more than once; compute must be
// deterministic so the overwrite is harmless.
func (c *Cache[K, V]) GetOrCompute(key K, compute func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := compute()
	c.Set(key, v)
	return v
}

// Delete removes an item from the cache
func (c *Cache[K, V]) Delete(key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *Cache[K, V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[K]V)
}

// Size returns the number of items in the cache
func (c *Cache[K, V]) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.items)
}
