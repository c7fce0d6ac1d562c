package ripple

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/ripple/host"
)

// fakeDevice records commands and lets tests control limits, capabilities
// and failures. Resources are counted but hold no data.
type fakeDevice struct {
	epoch  host.ContextEpoch
	nextID uint64

	maxAttachments int
	caps           map[host.Capability]bool

	failProgram     error
	failFramebuffer error
	failDraw        error

	programs     map[host.ProgramID]*host.ProgramDescriptor
	textures     map[host.TextureID]host.TextureDescriptor
	framebuffers map[host.FramebufferID][]host.TextureID

	commands []string
	units    [2]host.TextureID
	target   host.FramebufferID
	written  []host.TextureID
	meshes   []*host.MeshDraw
	logger   *slog.Logger
}

var _ host.Host = (*fakeDevice)(nil)

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		epoch:          1,
		maxAttachments: 8,
		caps: map[host.Capability]bool{
			host.CapFloatRenderTarget:  true,
			host.CapVertexTextureFetch: true,
		},
		programs:     make(map[host.ProgramID]*host.ProgramDescriptor),
		textures:     make(map[host.TextureID]host.TextureDescriptor),
		framebuffers: make(map[host.FramebufferID][]host.TextureID),
	}
}

// loseContext drops every resource and advances the epoch.
func (d *fakeDevice) loseContext() {
	d.epoch++
	clear(d.programs)
	clear(d.textures)
	clear(d.framebuffers)
}

func (d *fakeDevice) id() uint64 {
	d.nextID++
	return d.nextID
}

func (d *fakeDevice) record(format string, args ...any) {
	d.commands = append(d.commands, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) resetCommands() { d.commands = nil }

func (d *fakeDevice) SetLogger(l *slog.Logger) { d.logger = l }

func (d *fakeDevice) Epoch() host.ContextEpoch        { return d.epoch }
func (d *fakeDevice) Supports(c host.Capability) bool { return d.caps[c] }

func (d *fakeDevice) Limit(l host.Limit) int {
	if l == host.LimitMaxColorAttachments {
		return d.maxAttachments
	}
	return 0
}

func (d *fakeDevice) CreateProgram(desc *host.ProgramDescriptor) (host.ProgramID, error) {
	if d.failProgram != nil {
		return host.InvalidID, d.failProgram
	}
	id := host.ProgramID(d.id())
	d.programs[id] = desc
	return id, nil
}

func (d *fakeDevice) DestroyProgram(id host.ProgramID) { delete(d.programs, id) }

func (d *fakeDevice) UniformLocation(id host.ProgramID, name string) host.UniformLocation {
	desc, ok := d.programs[id]
	if !ok {
		return host.NoLocation
	}
	_, loc := desc.Lookup(name)
	return loc
}

func (d *fakeDevice) CreateTexture(desc *host.TextureDescriptor) (host.TextureID, error) {
	id := host.TextureID(d.id())
	d.textures[id] = *desc
	return id, nil
}

func (d *fakeDevice) DestroyTexture(id host.TextureID) { delete(d.textures, id) }

func (d *fakeDevice) SetTextureFilter(t host.TextureID, minFilter, magFilter host.Filter) {
	d.record("filter %d %s %s", t, minFilter, magFilter)
}

func (d *fakeDevice) CreateFramebuffer(attachments []host.TextureID) (host.FramebufferID, error) {
	id := host.FramebufferID(d.id())
	d.framebuffers[id] = append([]host.TextureID(nil), attachments...)
	return id, nil
}

func (d *fakeDevice) FramebufferStatus(host.FramebufferID) error { return d.failFramebuffer }

func (d *fakeDevice) DestroyFramebuffer(id host.FramebufferID) { delete(d.framebuffers, id) }

func (d *fakeDevice) BindRenderTarget(fb host.FramebufferID, attachment int) {
	d.record("target %d", attachment)
	d.target = fb
	if atts, ok := d.framebuffers[fb]; ok && attachment < len(atts) {
		d.written = append(d.written, atts[attachment])
	}
}

func (d *fakeDevice) ReleaseRenderTarget() {
	d.record("release")
	d.target = host.InvalidID
}

func (d *fakeDevice) UseProgram(id host.ProgramID) { d.record("program %d", id) }

func (d *fakeDevice) SetUniform(loc host.UniformLocation, values ...float32) {
	d.record("uniform %d %v", loc, values)
}

func (d *fakeDevice) BindTexture(unit int, t host.TextureID) {
	d.record("texture %d %d", unit, t)
	if unit >= 0 && unit < len(d.units) {
		d.units[unit] = t
	}
}

func (d *fakeDevice) DrawFullScreenQuad() error {
	d.record("draw")
	return d.failDraw
}

func (d *fakeDevice) DrawMesh(m *host.MeshDraw) error {
	d.record("mesh")
	d.meshes = append(d.meshes, m)
	return nil
}

var errFake = errors.New("fake failure")
