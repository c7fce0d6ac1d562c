package ripple

import "errors"

// Errors recorded by a Surface or returned by the Registry.
//
// Failures of GPU work are never returned from Drop, Advance or Draw.
// They are kept as the surface's sticky error, see [Surface.Err].
var (
	// ErrNoContext is returned when the device has no active context.
	ErrNoContext = errors.New("ripple: no active context")

	// ErrInsufficientColorAttachments is recorded when the device cannot
	// attach both simulation buffers to one framebuffer.
	ErrInsufficientColorAttachments = errors.New("ripple: device supports fewer than two color attachments")

	// ErrMissingCapability is recorded when the device lacks float render
	// targets or vertex texture fetch.
	ErrMissingCapability = errors.New("ripple: missing device capability")

	// ErrProgramBuild is recorded when the drop or update program fails to
	// compile or link.
	ErrProgramBuild = errors.New("ripple: shader program build failed")

	// ErrFramebufferIncomplete is recorded when the simulation framebuffer
	// is not renderable.
	ErrFramebufferIncomplete = errors.New("ripple: framebuffer incomplete")

	// ErrPassFailed is recorded when a drop or update pass fails to draw.
	ErrPassFailed = errors.New("ripple: simulation pass failed")

	// ErrInvalidSize is returned for non-positive surface dimensions.
	ErrInvalidSize = errors.New("ripple: invalid surface size")

	// ErrUnknownHandle is returned for handles the registry never issued or
	// has already deleted.
	ErrUnknownHandle = errors.New("ripple: unknown handle")

	// ErrClosed is returned by a registry after Close.
	ErrClosed = errors.New("ripple: registry closed")
)
