// Package cache provides a generic, strictly bounded LRU cache.
//
// The cache never holds more than its capacity: inserting a new key into a
// full cache first evicts the least recently used entry. An optional
// eviction callback lets owners release whatever the evicted value holds.
//
//	c := cache.New[string, int](10)
//	value, err := c.GetOrCreateErr("key", func() (int, error) {
//		return 42, nil
//	})
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation
// (it contains a mutex).
package cache
