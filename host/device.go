package host

import "errors"

// Errors reported by devices.
var (
	// ErrNoContext is returned when no GPU context is active.
	ErrNoContext = errors.New("host: no active context")

	// ErrIncompleteFramebuffer is returned by FramebufferStatus for a
	// framebuffer that cannot be rendered to.
	ErrIncompleteFramebuffer = errors.New("host: framebuffer incomplete")

	// ErrStaleResource is returned when a command refers to a resource that
	// no longer exists.
	ErrStaleResource = errors.New("host: stale or unknown resource")

	// ErrNoRenderTarget is returned by draws issued without a bound target
	// or program.
	ErrNoRenderTarget = errors.New("host: no render target bound")
)

// Device is the GPU command surface the simulator issues against.
//
// A Device is driven from the goroutine that owns the GPU context.
// Implementations need not support concurrent commands.
type Device interface {
	// Epoch returns the identity of the active context.
	Epoch() ContextEpoch

	// Supports reports whether an optional capability is available.
	Supports(Capability) bool

	// Limit returns an integer device limit, or 0 when unknown.
	Limit(Limit) int

	CreateProgram(desc *ProgramDescriptor) (ProgramID, error)
	DestroyProgram(ProgramID)

	// UniformLocation resolves a uniform name, returning NoLocation when
	// the program has no such uniform.
	UniformLocation(p ProgramID, name string) UniformLocation

	CreateTexture(desc *TextureDescriptor) (TextureID, error)
	DestroyTexture(TextureID)
	SetTextureFilter(t TextureID, min, mag Filter)

	// CreateFramebuffer creates a framebuffer with one color attachment
	// per texture, in order.
	CreateFramebuffer(attachments []TextureID) (FramebufferID, error)

	// FramebufferStatus returns nil when the framebuffer is complete.
	FramebufferStatus(FramebufferID) error
	DestroyFramebuffer(FramebufferID)

	// BindRenderTarget directs subsequent draws into one attachment of a
	// framebuffer.
	BindRenderTarget(fb FramebufferID, attachment int)
	ReleaseRenderTarget()

	UseProgram(ProgramID)
	SetUniform(loc UniformLocation, values ...float32)
	BindTexture(unit int, t TextureID)

	// DrawFullScreenQuad runs the current program over every texel of the
	// bound render target.
	DrawFullScreenQuad() error
}

// MeshDrawer draws textured meshes into the host's scene.
type MeshDrawer interface {
	DrawMesh(*MeshDraw) error
}

// Host is a Device that can also draw meshes.
type Host interface {
	Device
	MeshDrawer
}
