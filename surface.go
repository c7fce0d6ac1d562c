package ripple

import (
	"fmt"
	"math/rand/v2"

	"github.com/gogpu/ripple/host"
)

// minColorAttachments is the number of attachments the ping-pong
// framebuffer needs.
const minColorAttachments = 2

// Surface simulates a rippling height field on the GPU.
//
// The field lives in two RGBA16F textures (R holds height, G velocity)
// attached to one framebuffer. Drop and Advance each run one pass that reads
// one texture and writes the other; Draw binds the latest state to texture
// unit 0 for the host to sample.
//
// GPU objects are created on first use and rebuilt whenever the device
// reports a new context epoch. Failures are sticky for the epoch in which
// they happen: every operation is then a no-op until the context changes.
//
// A Surface is driven from the goroutine that owns the GPU context and is
// not safe for concurrent use.
type Surface struct {
	device   host.Device
	programs *Programs
	rng      *rand.Rand

	width, height int
	ratio         float64
	strength      float64

	state    PassState
	epoch    host.ContextEpoch
	set      *ProgramSet
	textures [2]host.TextureID
	fb       host.FramebufferID
	err      error
}

// NewSurface creates a surface simulated on d. No GPU work happens until
// the first Drop, Advance or Draw.
func NewSurface(d host.Device, opts ...Option) (*Surface, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, o.width, o.height)
	}
	if o.programs == nil {
		o.programs = NewPrograms()
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // visual noise, not security
	}

	propagateLogger(d, Logger())
	s := &Surface{
		device:   d,
		programs: o.programs,
		rng:      o.rng,
		width:    o.width,
		height:   o.height,
		strength: o.strength,
	}
	s.SetAttenuation(o.attenuation)
	return s, nil
}

// RefreshIfContextChanged implements ContextResource. It does nothing while
// the device has no context.
func (s *Surface) RefreshIfContextChanged() bool {
	epoch := s.device.Epoch()
	if epoch == host.NoContext || epoch == s.epoch {
		return false
	}
	s.rebuild(epoch)
	return true
}

// rebuild recreates every GPU object for epoch. The epoch is recorded even
// on failure so the failure persists until the context changes again.
func (s *Surface) rebuild(epoch host.ContextEpoch) {
	s.destroy()
	s.state = Idle
	s.epoch = epoch
	s.set = nil
	s.err = nil

	log := Logger()
	log.Debug("ripple: rebuilding surface",
		"epoch", uint64(epoch), "width", s.width, "height", s.height)

	set, err := s.programs.Acquire(s.device)
	if err != nil {
		s.fail(err)
		return
	}
	if err := checkDevice(s.device); err != nil {
		s.fail(err)
		return
	}

	for i, label := range [2]string{"ripple-field-a", "ripple-field-b"} {
		id, err := s.device.CreateTexture(&host.TextureDescriptor{
			Label:     label,
			Width:     s.width,
			Height:    s.height,
			Format:    host.TextureFormatRGBA16Float,
			Address:   host.AddressClampToEdge,
			MinFilter: host.FilterLinear,
			MagFilter: host.FilterLinear,
		})
		if err != nil {
			s.fail(fmt.Errorf("ripple: create %s: %w", label, err))
			return
		}
		s.textures[i] = id
	}

	fb, err := s.device.CreateFramebuffer(s.textures[:])
	if err != nil {
		s.fail(fmt.Errorf("%w: %w", ErrFramebufferIncomplete, err))
		return
	}
	s.fb = fb
	if err := s.device.FramebufferStatus(fb); err != nil {
		s.fail(fmt.Errorf("%w: %w", ErrFramebufferIncomplete, err))
		return
	}

	s.set = set
}

// checkDevice verifies the limits and capabilities the simulation needs.
func checkDevice(d host.Device) error {
	if n := d.Limit(host.LimitMaxColorAttachments); n < minColorAttachments {
		return fmt.Errorf("%w: have %d", ErrInsufficientColorAttachments, n)
	}
	for _, c := range []host.Capability{host.CapFloatRenderTarget, host.CapVertexTextureFetch} {
		if !d.Supports(c) {
			return fmt.Errorf("%w: %s", ErrMissingCapability, c)
		}
	}
	return nil
}

// fail records a sticky error for the current epoch.
func (s *Surface) fail(err error) {
	s.err = err
	s.set = nil
	Logger().Warn("ripple: surface disabled",
		"epoch", uint64(s.epoch), "err", err)
}

// ready reports whether passes can run.
func (s *Surface) ready() bool {
	return s.set != nil && s.err == nil
}

// destroy frees the textures and framebuffer. Stale IDs are ignored by the
// device.
func (s *Surface) destroy() {
	if s.fb != host.InvalidID {
		s.device.DestroyFramebuffer(s.fb)
		s.fb = host.InvalidID
	}
	for i, t := range s.textures {
		if t != host.InvalidID {
			s.device.DestroyTexture(t)
			s.textures[i] = host.InvalidID
		}
	}
}

// Drop adds a drop centred at (x, y) in [-1, 1]² with the given radius and
// strength. The strength is multiplied by the surface's strength scale.
// Drops with a non-positive radius change nothing and are skipped.
func (s *Surface) Drop(x, y, radius, strength float64) {
	s.RefreshIfContextChanged()
	if !s.ready() || radius <= 0 {
		return
	}
	d := s.device
	d.UseProgram(s.set.Drop)
	d.SetUniform(s.set.center, float32(x), float32(y))
	d.SetUniform(s.set.radius, float32(radius))
	d.SetUniform(s.set.strength, float32(strength*s.strength))
	s.pass()
}

// Advance runs one simulation step.
func (s *Surface) Advance() {
	s.RefreshIfContextChanged()
	if !s.ready() {
		return
	}
	d := s.device
	d.UseProgram(s.set.Update)
	d.SetUniform(s.set.delta, 1/float32(s.width), 1/float32(s.height))
	d.SetUniform(s.set.ratio, float32(s.ratio))
	s.pass()
}

// pass draws the current program from the read buffer into the write
// buffer and flips the pass state.
func (s *Surface) pass() {
	d := s.device
	d.BindRenderTarget(s.fb, s.state.Write())
	d.BindTexture(0, s.textures[s.state.Read()])
	err := d.DrawFullScreenQuad()
	d.ReleaseRenderTarget()
	if err != nil {
		s.fail(fmt.Errorf("%w: %w", ErrPassFailed, err))
		return
	}
	s.state = s.state.Next()
}

// Draw binds the latest simulation state to texture unit 0 with linear
// filtering, ready for the host's mesh draw.
func (s *Surface) Draw() {
	s.RefreshIfContextChanged()
	if !s.ready() {
		return
	}
	t := s.textures[s.state.Read()]
	s.device.BindTexture(0, t)
	s.device.SetTextureFilter(t, host.FilterLinear, host.FilterLinear)
}

// RandomDrops adds n drops of radius 1 at uniformly random positions.
// Their strengths alternate between -1 and +1, starting with -1.
func (s *Surface) RandomDrops(n int) {
	for i := range n {
		x := s.rng.Float64()*2 - 1
		y := s.rng.Float64()*2 - 1
		strength := -1.0
		if i&1 == 1 {
			strength = 1
		}
		s.Drop(x, y, 1, strength)
	}
}

// SetAttenuation sets the velocity damping ratio applied by Advance.
// Ratios above 1 are clamped to 1. Non-positive ratios are kept as given.
func (s *Surface) SetAttenuation(ratio float64) {
	if ratio > 1 {
		ratio = 1
	}
	if ratio <= 0 {
		Logger().Warn("ripple: non-positive attenuation", "ratio", ratio)
	}
	s.ratio = ratio
}

// Attenuation returns the effective damping ratio.
func (s *Surface) Attenuation() float64 { return s.ratio }

// Resize changes the simulation buffer size. The field restarts flat on the
// next use.
func (s *Surface) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if width == s.width && height == s.height {
		return nil
	}
	s.width, s.height = width, height
	s.Release()
	return nil
}

// Release implements ContextResource. The shared programs are kept.
func (s *Surface) Release() {
	s.destroy()
	s.state = Idle
	s.epoch = host.NoContext
	s.set = nil
	s.err = nil
}

// State returns the current pass state.
func (s *Surface) State() PassState { return s.state }

// Failed reports whether the surface is disabled for the current epoch.
func (s *Surface) Failed() bool { return s.err != nil }

// Err returns the error that disabled the surface, or nil.
func (s *Surface) Err() error { return s.err }

// Size returns the simulation buffer size in texels.
func (s *Surface) Size() (width, height int) { return s.width, s.height }

// Epoch returns the context epoch the surface was last built for.
func (s *Surface) Epoch() host.ContextEpoch { return s.epoch }

// Texture returns the texture holding the latest state, or host.InvalidID
// before the first successful build.
func (s *Surface) Texture() host.TextureID {
	if !s.ready() {
		return host.InvalidID
	}
	return s.textures[s.state.Read()]
}
