package host

// ContextEpoch identifies the active GPU context. Every context loss or
// re-parenting produces a larger epoch. NoContext means no context is
// available yet.
type ContextEpoch uint64

// NoContext is the epoch reported before any context exists.
const NoContext ContextEpoch = 0

// Resource IDs
//
// These opaque IDs represent GPU resources owned by a Device.

// TextureID is an opaque handle to a texture.
type TextureID uint64

// FramebufferID is an opaque handle to a framebuffer with one or more color
// attachments.
type FramebufferID uint64

// ProgramID is an opaque handle to a linked shader program.
type ProgramID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// UniformLocation addresses one uniform of a program.
type UniformLocation int32

// NoLocation is returned for unknown uniform names. Setting it is a no-op.
const NoLocation UniformLocation = -1

// Capability names an optional device feature.
type Capability string

// Capabilities queried by the simulator.
const (
	// CapFloatRenderTarget reports that floating-point textures can be
	// rendered to.
	CapFloatRenderTarget Capability = "float-render-target"

	// CapVertexTextureFetch reports that the vertex stage can sample
	// textures, which displacing a mesh by the height field requires.
	CapVertexTextureFetch Capability = "vertex-texture-fetch"
)

// Limit names an integer device limit.
type Limit string

// Limits queried by the simulator.
const (
	// LimitMaxColorAttachments is the number of color attachments a
	// framebuffer may have.
	LimitMaxColorAttachments Limit = "max-color-attachments"
)

// Filter selects texture sampling.
type Filter uint8

// Filter modes.
const (
	FilterNearest Filter = iota
	FilterLinear
)

// String returns the filter name.
func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterLinear:
		return "linear"
	default:
		return "unknown"
	}
}

// TextureFormat specifies the texel format of a texture.
type TextureFormat uint8

// Texture formats.
const (
	// TextureFormatRGBA16Float is 16-bit RGBA, floating point.
	TextureFormatRGBA16Float TextureFormat = iota + 1

	// TextureFormatRGBA32Float is 32-bit RGBA, floating point.
	TextureFormatRGBA32Float

	// TextureFormatRGBA8Unorm is 8-bit RGBA, normalized unsigned integer.
	TextureFormatRGBA8Unorm
)

// String returns the format name.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA16Float:
		return "rgba16float"
	case TextureFormatRGBA32Float:
		return "rgba32float"
	case TextureFormatRGBA8Unorm:
		return "rgba8unorm"
	default:
		return "unknown"
	}
}

// IsFloat reports whether the format stores floating-point texels.
func (f TextureFormat) IsFloat() bool {
	return f == TextureFormatRGBA16Float || f == TextureFormatRGBA32Float
}

// AddressMode selects how coordinates outside [0, 1] are resolved.
type AddressMode uint8

// Address modes.
const (
	AddressClampToEdge AddressMode = iota
	AddressRepeat
)
