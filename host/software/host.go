package software

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/ripple/host"
)

// Errors returned by the software host.
var (
	// ErrNoKernel is returned when a program has no CPU kernel to run.
	ErrNoKernel = errors.New("software: program has no kernel")

	// ErrFeedbackLoop is returned when a draw samples the texture it
	// renders into.
	ErrFeedbackLoop = errors.New("software: render target is bound for sampling")

	// ErrInvalidTexture is returned for textures with non-positive size.
	ErrInvalidTexture = errors.New("software: invalid texture size")
)

// maxTextureUnits is the number of texture units commands may address.
const maxTextureUnits = 8

type program struct {
	desc  host.ProgramDescriptor
	block []float32
}

type framebuffer struct {
	attachments []host.TextureID
}

// Host is a CPU implementation of host.Host.
//
// Host is safe for concurrent use; commands are serialized by a mutex.
type Host struct {
	mu  sync.Mutex
	cfg config

	epoch  host.ContextEpoch
	nextID uint64

	programs     map[host.ProgramID]*program
	textures     map[host.TextureID]*texture
	framebuffers map[host.FramebufferID]*framebuffer

	// Bound state.
	target     host.FramebufferID
	attachment int
	current    host.ProgramID
	units      [maxTextureUnits]host.TextureID

	scratch []float32
	frames  []Frame
	stats   Stats

	logger atomic.Pointer[slog.Logger]
}

var _ host.Host = (*Host)(nil)

// New creates a software host with an active context at epoch 1.
func New(opts ...Option) *Host {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	h := &Host{cfg: cfg}
	h.logger.Store(slog.New(nopHandler{}))
	h.reset(1)
	return h
}

// SetLogger sets the logger used for diagnostics. Nil disables logging.
func (h *Host) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	h.logger.Store(l)
}

func (h *Host) slogger() *slog.Logger { return h.logger.Load() }

// reset drops every resource and binding and enters epoch e.
// Caller must hold h.mu or own h exclusively.
func (h *Host) reset(e host.ContextEpoch) {
	h.epoch = e
	h.programs = make(map[host.ProgramID]*program)
	h.textures = make(map[host.TextureID]*texture)
	h.framebuffers = make(map[host.FramebufferID]*framebuffer)
	h.target = host.InvalidID
	h.attachment = 0
	h.current = host.InvalidID
	h.units = [maxTextureUnits]host.TextureID{}
}

// LoseContext simulates a context loss: every resource is dropped and the
// epoch advances. Old IDs become stale.
func (h *Host) LoseContext() host.ContextEpoch {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.reset(h.epoch + 1)
	h.slogger().Info("software: context lost", "epoch", h.epoch)
	return h.epoch
}

// id allocates a resource ID. IDs are never reused across epochs.
func (h *Host) id() uint64 {
	h.nextID++
	return h.nextID
}

// Epoch implements host.Device.
func (h *Host) Epoch() host.ContextEpoch {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.epoch
}

// Supports implements host.Device.
func (h *Host) Supports(c host.Capability) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg.caps[c]
}

// Limit implements host.Device.
func (h *Host) Limit(l host.Limit) int {
	if l == host.LimitMaxColorAttachments {
		return h.cfg.maxColorAttachments
	}
	return 0
}

// CreateProgram implements host.Device. Programs without a kernel cannot
// run on the CPU and fail to build.
func (h *Host) CreateProgram(desc *host.ProgramDescriptor) (host.ProgramID, error) {
	if desc.Kernel == nil {
		return host.InvalidID, fmt.Errorf("%w: %q", ErrNoKernel, desc.Label)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := host.ProgramID(h.id())
	h.programs[id] = &program{
		desc:  *desc,
		block: make([]float32, max(desc.BlockSize(), 4)),
	}
	h.stats.ProgramsCreated++
	h.slogger().Debug("software: program created", "label", desc.Label, "id", id)
	return id, nil
}

// DestroyProgram implements host.Device.
func (h *Host) DestroyProgram(id host.ProgramID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.programs, id)
	if h.current == id {
		h.current = host.InvalidID
	}
}

// UniformLocation implements host.Device.
func (h *Host) UniformLocation(id host.ProgramID, name string) host.UniformLocation {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.programs[id]
	if !ok {
		return host.NoLocation
	}
	_, loc := p.desc.Lookup(name)
	return loc
}

// CreateTexture implements host.Device.
func (h *Host) CreateTexture(desc *host.TextureDescriptor) (host.TextureID, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return host.InvalidID, fmt.Errorf("%w: %dx%d", ErrInvalidTexture, desc.Width, desc.Height)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := host.TextureID(h.id())
	h.textures[id] = newTexture(desc)
	h.stats.TexturesCreated++
	return id, nil
}

// DestroyTexture implements host.Device.
func (h *Host) DestroyTexture(id host.TextureID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.textures, id)
	for i, u := range h.units {
		if u == id {
			h.units[i] = host.InvalidID
		}
	}
}

// SetTextureFilter implements host.Device.
func (h *Host) SetTextureFilter(id host.TextureID, minFilter, magFilter host.Filter) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stats.Commands++
	if t, ok := h.textures[id]; ok {
		t.desc.MinFilter = minFilter
		t.desc.MagFilter = magFilter
	}
}

// CreateFramebuffer implements host.Device.
func (h *Host) CreateFramebuffer(attachments []host.TextureID) (host.FramebufferID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, a := range attachments {
		if _, ok := h.textures[a]; !ok {
			return host.InvalidID, fmt.Errorf("software: attachment %d: %w", a, host.ErrStaleResource)
		}
	}
	id := host.FramebufferID(h.id())
	h.framebuffers[id] = &framebuffer{attachments: append([]host.TextureID(nil), attachments...)}
	h.stats.FramebuffersCreated++
	return id, nil
}

// FramebufferStatus implements host.Device. A framebuffer is complete when
// it has between one and the attachment limit of live attachments, all of
// the same size.
func (h *Host) FramebufferStatus(id host.FramebufferID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	fb, ok := h.framebuffers[id]
	if !ok {
		return host.ErrStaleResource
	}
	if n := len(fb.attachments); n == 0 || n > h.cfg.maxColorAttachments {
		return fmt.Errorf("%w: %d attachments, limit %d", host.ErrIncompleteFramebuffer, n, h.cfg.maxColorAttachments)
	}
	var w, ht int
	for i, a := range fb.attachments {
		t, ok := h.textures[a]
		if !ok {
			return fmt.Errorf("%w: attachment %d destroyed", host.ErrIncompleteFramebuffer, i)
		}
		if i == 0 {
			w, ht = t.desc.Width, t.desc.Height
		} else if t.desc.Width != w || t.desc.Height != ht {
			return fmt.Errorf("%w: attachment %d size mismatch", host.ErrIncompleteFramebuffer, i)
		}
	}
	return nil
}

// DestroyFramebuffer implements host.Device.
func (h *Host) DestroyFramebuffer(id host.FramebufferID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.framebuffers, id)
	if h.target == id {
		h.target = host.InvalidID
	}
}

// BindRenderTarget implements host.Device.
func (h *Host) BindRenderTarget(fb host.FramebufferID, attachment int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stats.Commands++
	h.target = fb
	h.attachment = attachment
}

// ReleaseRenderTarget implements host.Device.
func (h *Host) ReleaseRenderTarget() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stats.Commands++
	h.target = host.InvalidID
	h.attachment = 0
}

// UseProgram implements host.Device.
func (h *Host) UseProgram(id host.ProgramID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stats.Commands++
	h.current = id
}

// SetUniform implements host.Device. Values beyond the declared component
// count are ignored.
func (h *Host) SetUniform(loc host.UniformLocation, values ...float32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stats.Commands++
	p, ok := h.programs[h.current]
	if !ok || loc < 0 || int(loc) >= len(p.desc.Uniforms) {
		return
	}
	decl := p.desc.Uniforms[loc]
	n := min(len(values), decl.Components)
	copy(p.block[decl.Offset:decl.Offset+n], values[:n])
}

// BindTexture implements host.Device.
func (h *Host) BindTexture(unit int, id host.TextureID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stats.Commands++
	if unit < 0 || unit >= maxTextureUnits {
		return
	}
	h.units[unit] = id
}

// DrawFullScreenQuad implements host.Device. The current program's kernel
// runs once per texel of the bound attachment.
func (h *Host) DrawFullScreenQuad() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stats.Commands++
	fb, ok := h.framebuffers[h.target]
	if !ok || h.attachment < 0 || h.attachment >= len(fb.attachments) {
		return host.ErrNoRenderTarget
	}
	p, ok := h.programs[h.current]
	if !ok {
		return fmt.Errorf("%w: no program in use", host.ErrNoRenderTarget)
	}
	outID := fb.attachments[h.attachment]
	out, ok := h.textures[outID]
	if !ok {
		return host.ErrStaleResource
	}

	var in host.Sampler = zeroSampler{}
	if inID := h.units[0]; inID != host.InvalidID {
		if inID == outID {
			return ErrFeedbackLoop
		}
		if t, ok := h.textures[inID]; ok {
			in = t
		}
	}

	w, ht := out.desc.Width, out.desc.Height
	if cap(h.scratch) < len(out.data) {
		h.scratch = make([]float32, len(out.data))
	}
	scratch := h.scratch[:len(out.data)]

	fw, fh := float32(w), float32(ht)
	for y := 0; y < ht; y++ {
		v := (float32(y) + 0.5) / fh
		for x := 0; x < w; x++ {
			u := (float32(x) + 0.5) / fw
			texel := p.desc.Kernel(in, [2]float32{u, v}, p.block)
			copy(scratch[(y*w+x)*4:], texel[:])
		}
	}
	copy(out.data, scratch)
	h.stats.Draws++
	return nil
}

// DrawMesh implements host.MeshDrawer. The mesh is recorded as a Frame with
// the red channel of the bound texture sampled at each vertex.
func (h *Host) DrawMesh(d *host.MeshDraw) error {
	if d == nil || d.Mesh == nil {
		return errors.New("software: nil mesh")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.stats.Commands++
	var in host.Sampler = zeroSampler{}
	var bound host.TextureID
	if d.TextureUnit >= 0 && d.TextureUnit < maxTextureUnits {
		bound = h.units[d.TextureUnit]
		if t, ok := h.textures[bound]; ok {
			in = t
		}
	}

	m := d.Mesh
	heights := make([]float32, m.VertexCount())
	for n := range heights {
		u, v := m.TexCoord(n)
		heights[n] = in.Sample(u, v)[0]
	}

	h.frames = append(h.frames, Frame{
		Draw:    *d,
		Texture: bound,
		Heights: heights,
	})
	h.stats.MeshDraws++
	return nil
}

// ReadTexture returns a copy of a texture's RGBA texels in row-major order.
func (h *Host) ReadTexture(id host.TextureID) (data []float32, width, height int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.textures[id]
	if !ok {
		return nil, 0, 0, host.ErrStaleResource
	}
	return append([]float32(nil), t.data...), t.desc.Width, t.desc.Height, nil
}

// WriteTexture replaces a texture's texels. data must hold width·height·4
// floats.
func (h *Host) WriteTexture(id host.TextureID, data []float32) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.textures[id]
	if !ok {
		return host.ErrStaleResource
	}
	if len(data) != len(t.data) {
		return fmt.Errorf("software: texture holds %d floats, got %d", len(t.data), len(data))
	}
	copy(t.data, data)
	return nil
}

// BoundTexture returns the texture bound to unit.
func (h *Host) BoundTexture(unit int) host.TextureID {
	h.mu.Lock()
	defer h.mu.Unlock()

	if unit < 0 || unit >= maxTextureUnits {
		return host.InvalidID
	}
	return h.units[unit]
}

// TextureFilter returns the min and mag filters of a texture.
func (h *Host) TextureFilter(id host.TextureID) (minFilter, magFilter host.Filter, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.textures[id]
	if !ok {
		return 0, 0, false
	}
	return t.desc.MinFilter, t.desc.MagFilter, true
}

// Frames returns the mesh draws recorded since the last ResetFrames.
func (h *Host) Frames() []Frame {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Frame(nil), h.frames...)
}

// LastFrame returns the most recent mesh draw.
func (h *Host) LastFrame() (Frame, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.frames) == 0 {
		return Frame{}, false
	}
	return h.frames[len(h.frames)-1], true
}

// ResetFrames discards recorded mesh draws.
func (h *Host) ResetFrames() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = nil
}

// Stats returns command and resource counters.
func (h *Host) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.stats
	s.Programs = len(h.programs)
	s.Textures = len(h.textures)
	s.Framebuffers = len(h.framebuffers)
	return s
}

// Frame is one recorded mesh draw.
type Frame struct {
	Draw    host.MeshDraw
	Texture host.TextureID
	// Heights holds the sampled height for every mesh vertex.
	Heights []float32
}

// Stats counts commands and resources.
type Stats struct {
	// Commands is the number of commands issued, including draws.
	Commands uint64
	// Draws is the number of full-screen quad passes executed.
	Draws uint64
	// MeshDraws is the number of recorded mesh draws.
	MeshDraws uint64

	ProgramsCreated     uint64
	TexturesCreated     uint64
	FramebuffersCreated uint64

	// Live resource counts in the current epoch.
	Programs     int
	Textures     int
	Framebuffers int
}

// nopHandler silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
