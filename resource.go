package ripple

// ContextResource is GPU state that must be rebuilt when the host's
// context changes.
type ContextResource interface {
	// RefreshIfContextChanged rebuilds the resource when the device epoch
	// differs from the one it was built for. It reports whether a rebuild
	// happened.
	RefreshIfContextChanged() bool

	// Release destroys the resource's GPU objects. The resource rebuilds
	// on next use.
	Release()
}

var _ ContextResource = (*Surface)(nil)
