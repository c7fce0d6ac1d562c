package halhost

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ripple/host"
)

// Errors returned by the HAL host.
var (
	// ErrNoDevice is returned when the host has no device.
	ErrNoDevice = errors.New("halhost: no device")

	// ErrNoSource is returned for programs without WGSL source.
	ErrNoSource = errors.New("halhost: program has no shader source")

	// ErrFeedbackLoop is returned when a draw samples the texture it
	// renders into.
	ErrFeedbackLoop = errors.New("halhost: render target is bound for sampling")

	// ErrProviderTypes is returned when a device provider does not expose
	// HAL types.
	ErrProviderTypes = errors.New("halhost: provider does not expose HAL device and queue")
)

// maxTextureUnits is the number of texture units commands may address.
const maxTextureUnits = 8

// Host implements host.Device over a HAL device and queue.
//
// Host is safe for concurrent use; commands are serialized by a mutex.
type Host struct {
	mu   sync.Mutex
	opts options

	device hal.Device
	queue  hal.Queue
	epoch  host.ContextEpoch
	closed bool
	nextID uint64

	programs     map[host.ProgramID]*program
	textures     map[host.TextureID]*texture
	framebuffers map[host.FramebufferID]*framebuffer

	// empty is sampled when no texture is bound to unit 0.
	empty *texture

	target     host.FramebufferID
	attachment int
	current    host.ProgramID
	units      [maxTextureUnits]host.TextureID

	pending []submission
}

var _ host.Device = (*Host)(nil)

// New creates a host over device and queue at epoch 1.
func New(device hal.Device, queue hal.Queue, opts ...Option) *Host {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	h := &Host{opts: o}
	h.attach(device, queue)
	return h
}

// NewFromProvider creates a host over a device shared by a provider such as
// gogpu. The provider must expose HAL types, either through
// HalDevice() any and HalQueue() any or directly from Device and Queue.
func NewFromProvider(p gpucontext.DeviceProvider, opts ...Option) (*Host, error) {
	device, queue, err := halFromProvider(p)
	if err != nil {
		return nil, err
	}
	slogger().Info("halhost: using shared device", "adapter", p.AdapterInfo().Name)
	return New(device, queue, opts...), nil
}

func halFromProvider(p gpucontext.DeviceProvider) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	var rawDevice, rawQueue any
	if hp, ok := p.(halProvider); ok {
		rawDevice, rawQueue = hp.HalDevice(), hp.HalQueue()
	} else {
		rawDevice, rawQueue = p.Device(), p.Queue()
	}
	device, ok := rawDevice.(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: device is %T", ErrProviderTypes, rawDevice)
	}
	queue, ok := rawQueue.(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("%w: queue is %T", ErrProviderTypes, rawQueue)
	}
	return device, queue, nil
}

// SetLogger sets the logger for the package.
func (h *Host) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// SetDevice re-parents the host onto another device. Every resource of the
// previous device is destroyed and the epoch advances.
func (h *Host) SetDevice(device hal.Device, queue hal.Queue) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.destroyAll()
	h.attach(device, queue)
	slogger().Info("halhost: device changed", "epoch", h.epoch)
}

// attach resets resource tables for a new device. Caller must hold h.mu or
// own h exclusively.
func (h *Host) attach(device hal.Device, queue hal.Queue) {
	h.device = device
	h.queue = queue
	h.closed = device == nil || queue == nil
	h.epoch++
	h.programs = make(map[host.ProgramID]*program)
	h.textures = make(map[host.TextureID]*texture)
	h.framebuffers = make(map[host.FramebufferID]*framebuffer)
	h.empty = nil
	h.target = host.InvalidID
	h.attachment = 0
	h.current = host.InvalidID
	h.units = [maxTextureUnits]host.TextureID{}
}

// Close waits for the device to go idle and destroys every resource. The
// host reports host.NoContext afterwards.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.destroyAll()
	h.closed = true
}

// destroyAll releases every resource on the current device.
// Caller must hold h.mu.
func (h *Host) destroyAll() {
	if h.device == nil {
		return
	}
	if err := h.device.WaitIdle(); err != nil {
		slogger().Warn("halhost: wait idle failed", "err", err)
	}
	h.reclaim(true)
	for id, p := range h.programs {
		p.destroy(h.device)
		delete(h.programs, id)
	}
	for id, t := range h.textures {
		t.destroy(h.device)
		delete(h.textures, id)
	}
	if h.empty != nil {
		h.empty.destroy(h.device)
		h.empty = nil
	}
	clear(h.framebuffers)
}

func (h *Host) id() uint64 {
	h.nextID++
	return h.nextID
}

// Epoch implements host.Device.
func (h *Host) Epoch() host.ContextEpoch {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return host.NoContext
	}
	return h.epoch
}

// Supports implements host.Device. WebGPU renders to and samples RGBA16Float
// and allows texture reads in the vertex stage.
func (h *Host) Supports(c host.Capability) bool {
	switch c {
	case host.CapFloatRenderTarget, host.CapVertexTextureFetch:
		return true
	default:
		return false
	}
}

// Limit implements host.Device.
func (h *Host) Limit(l host.Limit) int {
	if l == host.LimitMaxColorAttachments {
		return int(h.opts.limits.MaxColorAttachments)
	}
	return 0
}

// halFormat maps a texture format to its HAL equivalent.
func halFormat(f host.TextureFormat) gputypes.TextureFormat {
	switch f {
	case host.TextureFormatRGBA32Float:
		return gputypes.TextureFormatRGBA32Float
	case host.TextureFormatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm
	default:
		return gputypes.TextureFormatRGBA16Float
	}
}

func halFilter(f host.Filter) gputypes.FilterMode {
	if f == host.FilterLinear {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}

func halAddress(a host.AddressMode) gputypes.AddressMode {
	if a == host.AddressRepeat {
		return gputypes.AddressModeRepeat
	}
	return gputypes.AddressModeClampToEdge
}
