package ripple

import (
	"fmt"

	"github.com/gogpu/ripple/host"
	"github.com/gogpu/ripple/mesh"
)

// Plane places a tessellated grid in the host scene. The grid spans
// Width×Height centred at (X, Y), faces +Z and samples the surface texture
// bound to unit 0.
type Plane struct {
	X, Y          float64
	Width, Height float64
	Rows, Columns int
}

// NewPlane returns a unit plane at the origin with detail×detail quads.
func NewPlane(detail int) Plane {
	return Plane{Width: 1, Height: 1, Rows: detail, Columns: detail}
}

// Draw fetches the grid from c and asks d to draw it.
func (p Plane) Draw(d host.MeshDrawer, c *mesh.Cache) error {
	m, err := c.Get(p.Rows, p.Columns)
	if err != nil {
		return fmt.Errorf("ripple: plane: %w", err)
	}
	return d.DrawMesh(&host.MeshDraw{
		Mesh:        m,
		X:           float32(p.X),
		Y:           float32(p.Y),
		Width:       float32(p.Width),
		Height:      float32(p.Height),
		Normal:      [3]float32{0, 0, 1},
		TextureUnit: 0,
	})
}
