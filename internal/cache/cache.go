package cache

import "sync"

// Cache is a generic thread-safe LRU cache with a strict capacity.
// Inserting a new key into a full cache evicts the least recently used
// entry first, so Len never exceeds Capacity.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*cacheEntry[K, V]
	order    lruList[K]
	capacity int
	onEvict  func(K, V)

	hits      uint64
	misses    uint64
	evictions uint64
}

// cacheEntry holds a cached value and its position in the recency list.
type cacheEntry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// New creates a new cache holding at most capacity entries.
// A capacity below 1 is treated as 1.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[K, V]{
		entries:  make(map[K]*cacheEntry[K, V], capacity),
		capacity: capacity,
	}
}

// OnEvict registers a callback invoked for every entry removed by the
// capacity bound or Clear. The callback runs with the cache lock
// held and must not call back into the cache.
func (c *Cache[K, V]) OnEvict(fn func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// GetOrCreateErr returns the cached value for key, marking it as most
// recently used, or calls create and stores its result. create runs under
// the lock so concurrent callers never build the same key twice. Failed
// values are not stored.
func (c *Cache[K, V]) GetOrCreateErr(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.hits++
		c.order.MoveToFront(entry.node)
		return entry.value, nil
	}
	c.misses++

	value, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.insert(key, value)
	return value, nil
}

// Clear removes all entries from the cache. Statistics are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.onEvict != nil {
		for key, entry := range c.entries {
			c.onEvict(key, entry.value)
		}
	}
	c.entries = make(map[K]*cacheEntry[K, V], c.capacity)
	c.order.Clear()
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Capacity returns the maximum number of entries.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Keys returns the cached keys from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Keys()
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// insert adds a new key, evicting least recently used entries while the
// cache is full. Caller must hold c.mu.
func (c *Cache[K, V]) insert(key K, value V) {
	for len(c.entries) >= c.capacity {
		oldest, ok := c.order.RemoveOldest()
		if !ok {
			break
		}
		evicted := c.entries[oldest]
		delete(c.entries, oldest)
		c.evictions++
		if c.onEvict != nil && evicted != nil {
			c.onEvict(oldest, evicted.value)
		}
	}
	c.entries[key] = &cacheEntry[K, V]{
		value: value,
		node:  c.order.PushFront(key),
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the maximum number of entries.
	Capacity int
	// Hits is the number of lookups that found their key.
	Hits uint64
	// Misses is the number of lookups that did not.
	Misses uint64
	// HitRate is Hits / (Hits + Misses), or 0 before the first lookup.
	HitRate float64
	// Evictions is the number of entries dropped by the capacity bound.
	Evictions uint64
}
