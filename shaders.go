package ripple

import (
	_ "embed"

	"github.com/gogpu/ripple/host"
)

//go:embed shaders/drop.wgsl
var dropShaderWGSL string

//go:embed shaders/update.wgsl
var updateShaderWGSL string

// Uniform names. Locations are resolved once per program build.
const (
	uniformCenter   = "center"
	uniformRadius   = "radius"
	uniformStrength = "strength"
	uniformDelta    = "delta"
	uniformRatio    = "ratio"
)

// dropProgram adds a cosine-shaped bump to the height channel.
// Must match DropUniforms in drop.wgsl.
var dropProgram = host.ProgramDescriptor{
	Label:  "ripple-drop",
	Source: dropShaderWGSL,
	Uniforms: []host.UniformDecl{
		{Name: uniformCenter, Offset: 0, Components: 2},
		{Name: uniformRadius, Offset: 2, Components: 1},
		{Name: uniformStrength, Offset: 3, Components: 1},
	},
	Kernel: dropKernel,
}

// updateProgram runs one relaxation step of the height field.
// Must match UpdateUniforms in update.wgsl.
var updateProgram = host.ProgramDescriptor{
	Label:  "ripple-update",
	Source: updateShaderWGSL,
	Uniforms: []host.UniformDecl{
		{Name: uniformDelta, Offset: 0, Components: 2},
		{Name: uniformRatio, Offset: 2, Components: 1},
	},
	Kernel: updateKernel,
}
