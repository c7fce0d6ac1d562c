package ripple

// PassState tracks which simulation buffer the next pass writes.
//
// The two buffers are color attachments 0 (A) and 1 (B) of the surface's
// framebuffer. Every pass reads one buffer and writes the other, then flips.
type PassState uint8

const (
	// Idle is the state after every resource rebuild. The next pass writes
	// A and reads B.
	Idle PassState = iota

	// UsingPong means the last pass wrote B. The next pass writes A.
	UsingPong

	// UsingPing means the last pass wrote A. The next pass writes B.
	UsingPing
)

// String returns the state name.
func (s PassState) String() string {
	switch s {
	case Idle:
		return "idle"
	case UsingPong:
		return "pong"
	case UsingPing:
		return "ping"
	default:
		return "unknown"
	}
}

// Write returns the attachment the next pass renders into.
func (s PassState) Write() int {
	if s == UsingPing {
		return 1
	}
	return 0
}

// Read returns the attachment the next pass samples. It also holds the
// most recent simulation state, which Draw exposes.
func (s PassState) Read() int {
	return 1 - s.Write()
}

// Next returns the state after a pass completes.
func (s PassState) Next() PassState {
	if s == UsingPing {
		return UsingPong
	}
	return UsingPing
}
