package mesh

import (
	"github.com/gogpu/ripple/internal/cache"
)

// DefaultCapacity is the number of grids a cache keeps by default.
const DefaultCapacity = 10

// Key identifies a grid by its resolution.
type Key struct {
	Rows    int
	Columns int
}

// Cache memoizes grids by resolution. It is safe for concurrent use.
//
// A hit returns the same *Mesh pointer that was built on the first request.
type Cache struct {
	lru *cache.Cache[Key, *Mesh]
}

// Stats contains cache statistics.
type Stats = cache.Stats

// NewCache creates a cache holding at most capacity grids.
// A capacity below 1 is treated as 1. Grids leaving the cache are logged
// at debug level.
func NewCache(capacity int) *Cache {
	lru := cache.New[Key, *Mesh](capacity)
	lru.OnEvict(func(k Key, m *Mesh) {
		slogger().Debug("mesh: grid dropped",
			"rows", k.Rows, "columns", k.Columns, "vertices", m.VertexCount())
	})
	return &Cache{lru: lru}
}

// Get returns the grid for (rows, columns), building and storing it on a
// miss. Invalid resolutions return an error wrapping ErrInvalidResolution
// and leave the cache unchanged.
func (c *Cache) Get(rows, columns int) (*Mesh, error) {
	if rows < 1 || columns < 1 {
		_, err := Build(rows, columns)
		return nil, err
	}
	return c.lru.GetOrCreateErr(Key{Rows: rows, Columns: columns}, func() (*Mesh, error) {
		return Build(rows, columns)
	})
}

// Len returns the number of cached grids.
func (c *Cache) Len() int { return c.lru.Len() }

// Capacity returns the maximum number of cached grids.
func (c *Cache) Capacity() int { return c.lru.Capacity() }

// Keys returns cached resolutions from most to least recently used.
func (c *Cache) Keys() []Key { return c.lru.Keys() }

// Stats returns hit, miss and eviction counters.
func (c *Cache) Stats() Stats { return c.lru.Stats() }

// Clear drops every cached grid.
func (c *Cache) Clear() { c.lru.Clear() }
