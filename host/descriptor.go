package host

import "github.com/gogpu/ripple/mesh"

// TextureDescriptor describes a 2D texture usable both as a render
// attachment and as a sampled input.
type TextureDescriptor struct {
	Label     string
	Width     int
	Height    int
	Format    TextureFormat
	Address   AddressMode
	MinFilter Filter
	MagFilter Filter
}

// UniformDecl declares one member of a program's uniform block.
// Offset and Components are measured in 32-bit floats.
type UniformDecl struct {
	Name       string
	Offset     int
	Components int
}

// ProgramDescriptor describes a shader program: a vertex stage that covers
// the render target with a quad and a fragment stage that computes one texel.
type ProgramDescriptor struct {
	Label string

	// Source is WGSL with vs_main and fs_main entry points. The uniform
	// block is bound at group 0 binding 0, the input texture at binding 1
	// and its sampler at binding 2.
	Source string

	// Uniforms lists the members of the uniform block.
	Uniforms []UniformDecl

	// Kernel is the CPU rendition of the fragment stage. Devices that cannot
	// compile Source run it instead.
	Kernel Kernel
}

// BlockSize returns the uniform block size in floats, rounded up to a
// multiple of four.
func (d *ProgramDescriptor) BlockSize() int {
	n := 0
	for _, u := range d.Uniforms {
		if end := u.Offset + u.Components; end > n {
			n = end
		}
	}
	return (n + 3) &^ 3
}

// Lookup returns the declaration for name and its location.
func (d *ProgramDescriptor) Lookup(name string) (UniformDecl, UniformLocation) {
	for i, u := range d.Uniforms {
		if u.Name == name {
			return u, UniformLocation(i)
		}
	}
	return UniformDecl{}, NoLocation
}

// Sampler reads the texture bound to unit 0 at a normalized coordinate.
type Sampler interface {
	Sample(u, v float32) [4]float32
}

// Kernel computes one output texel. coord is the texel centre in [0, 1]²
// and uniforms is the program's uniform block.
type Kernel func(in Sampler, coord [2]float32, uniforms []float32) [4]float32

// MeshDraw describes a textured mesh draw: the mesh scaled by
// (Width, Height) and translated to (X, Y), facing Normal, with texels read
// from TextureUnit.
type MeshDraw struct {
	Mesh        *mesh.Mesh
	X, Y        float32
	Width       float32
	Height      float32
	Normal      [3]float32
	TextureUnit int
}
