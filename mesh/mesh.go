package mesh

import (
	"errors"
	"fmt"
)

// ErrInvalidResolution is returned when a grid is requested with fewer than
// one row or column.
var ErrInvalidResolution = errors.New("mesh: resolution must be at least 1x1")

// Component counts per vertex.
const (
	PositionComponents = 3
	TexCoordComponents = 2
	IndicesPerQuad     = 4
)

// Mesh is a tessellated planar grid. Its slices must not be modified.
type Mesh struct {
	Rows    int
	Columns int

	// Positions holds x, y, z per vertex.
	Positions []float32
	// TexCoords holds u, v per vertex.
	TexCoords []float32
	// Indices holds four vertex indices per quad.
	Indices []uint32
}

// VertexCount returns the number of vertices in the grid.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / PositionComponents
}

// QuadCount returns the number of quads in the grid.
func (m *Mesh) QuadCount() int {
	return len(m.Indices) / IndicesPerQuad
}

// VertexIndex returns the index of grid vertex (i, j), where i runs along
// rows and j along columns.
func (m *Mesh) VertexIndex(i, j int) int {
	return j*(m.Rows+1) + i
}

// Position returns the position of vertex n.
func (m *Mesh) Position(n int) (x, y, z float32) {
	p := m.Positions[n*PositionComponents:]
	return p[0], p[1], p[2]
}

// TexCoord returns the texture coordinate of vertex n.
func (m *Mesh) TexCoord(n int) (u, v float32) {
	t := m.TexCoords[n*TexCoordComponents:]
	return t[0], t[1]
}

// Build generates a grid without consulting any cache.
func Build(rows, columns int) (*Mesh, error) {
	if rows < 1 || columns < 1 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidResolution, rows, columns)
	}

	stride := rows + 1
	vertices := stride * (columns + 1)
	m := &Mesh{
		Rows:      rows,
		Columns:   columns,
		Positions: make([]float32, 0, vertices*PositionComponents),
		TexCoords: make([]float32, 0, vertices*TexCoordComponents),
		Indices:   make([]uint32, 0, rows*columns*IndicesPerQuad),
	}

	fr, fc := float32(rows), float32(columns)
	for j := 0; j <= columns; j++ {
		v := float32(j) / fc
		for i := 0; i <= rows; i++ {
			u := float32(i) / fr
			m.Positions = append(m.Positions, u-0.5, v-0.5, 0)
			m.TexCoords = append(m.TexCoords, u, v)
		}
	}

	for j := 0; j < columns; j++ {
		for i := 0; i < rows; i++ {
			a := uint32(j*stride + i)
			b := uint32((j+1)*stride + i)
			m.Indices = append(m.Indices, a, a+1, b+1, b)
		}
	}
	return m, nil
}
