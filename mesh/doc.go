// Package mesh builds tessellated planar grids for drawing a ripple field.
//
// A grid of R rows and C columns has (R+1)·(C+1) vertices laid out on the
// unit square centred at the origin, with texture coordinates spanning
// [0, 1]². Indices use quad topology: four indices per cell.
//
// Grids are immutable once built and are memoized by [Cache], keyed by
// resolution. The cache holds at most [DefaultCapacity] grids unless a
// different capacity is given to [NewCache]; inserting into a full cache
// evicts the least recently used grid.
//
//	c := mesh.NewCache(mesh.DefaultCapacity)
//	m, err := c.Get(150, 150)
//	if err != nil {
//	    return err
//	}
//	_ = m.VertexCount() // 151 * 151
package mesh
