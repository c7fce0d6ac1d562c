package halhost

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ripple/host"
)

// program is a render pipeline plus its uniform block.
type program struct {
	desc host.ProgramDescriptor

	shader     hal.ShaderModule
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	uniforms   hal.Buffer

	block []float32
}

func (p *program) destroy(d hal.Device) {
	if p.uniforms != nil {
		d.DestroyBuffer(p.uniforms)
	}
	if p.pipeline != nil {
		d.DestroyRenderPipeline(p.pipeline)
	}
	if p.pipeLayout != nil {
		d.DestroyPipelineLayout(p.pipeLayout)
	}
	if p.layout != nil {
		d.DestroyBindGroupLayout(p.layout)
	}
	if p.shader != nil {
		d.DestroyShaderModule(p.shader)
	}
}

// blockBytes encodes the uniform block as little-endian floats.
func (p *program) blockBytes() []byte {
	buf := make([]byte, len(p.block)*4)
	for i, v := range p.block {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// texture is a sampled render attachment.
type texture struct {
	desc    host.TextureDescriptor
	tex     hal.Texture
	view    hal.TextureView
	sampler hal.Sampler
}

func (t *texture) destroy(d hal.Device) {
	if t.sampler != nil {
		d.DestroySampler(t.sampler)
	}
	if t.view != nil {
		d.DestroyTextureView(t.view)
	}
	if t.tex != nil {
		d.DestroyTexture(t.tex)
	}
}

type framebuffer struct {
	attachments []host.TextureID
}

// CreateProgram implements host.Device.
func (h *Host) CreateProgram(desc *host.ProgramDescriptor) (host.ProgramID, error) {
	if desc.Source == "" {
		return host.InvalidID, fmt.Errorf("%w: %q", ErrNoSource, desc.Label)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return host.InvalidID, ErrNoDevice
	}
	p, err := h.buildProgram(desc)
	if err != nil {
		p.destroy(h.device)
		return host.InvalidID, fmt.Errorf("halhost: program %q: %w", desc.Label, err)
	}
	id := host.ProgramID(h.id())
	h.programs[id] = p
	slogger().Debug("halhost: program created", "label", desc.Label, "id", id)
	return id, nil
}

// buildProgram creates the HAL objects of a program. On error the returned
// program holds whatever was created so far.
func (h *Host) buildProgram(desc *host.ProgramDescriptor) (*program, error) {
	p := &program{
		desc:  *desc,
		block: make([]float32, max(desc.BlockSize(), 4)),
	}

	src, err := shaderSource(desc.Source, h.opts.spirv)
	if err != nil {
		return p, err
	}
	p.shader, err = h.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label + "_shader",
		Source: src,
	})
	if err != nil {
		return p, fmt.Errorf("create shader module: %w", err)
	}

	// Bind group layout:
	//   Binding 0: uniform block (fragment)
	//   Binding 1: input texture (fragment)
	//   Binding 2: input sampler (fragment)
	p.layout, err = h.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: desc.Label + "_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return p, fmt.Errorf("create bind group layout: %w", err)
	}

	p.pipeLayout, err = h.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.layout},
	})
	if err != nil {
		return p, fmt.Errorf("create pipeline layout: %w", err)
	}

	p.pipeline, err = h.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label + "_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatRGBA16Float,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return p, fmt.Errorf("create render pipeline: %w", err)
	}

	p.uniforms, err = h.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label + "_uniforms",
		Size:  uint64(len(p.block) * 4),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return p, fmt.Errorf("create uniform buffer: %w", err)
	}
	return p, nil
}

// DestroyProgram implements host.Device.
func (h *Host) DestroyProgram(id host.ProgramID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.programs[id]
	if !ok {
		return
	}
	h.drain()
	p.destroy(h.device)
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
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return host.InvalidID, ErrNoDevice
	}
	t, err := h.newTexture(desc)
	if err != nil {
		return host.InvalidID, err
	}
	id := host.TextureID(h.id())
	h.textures[id] = t
	return id, nil
}

// newTexture creates a texture, its view and its sampler.
// Caller must hold h.mu.
func (h *Host) newTexture(desc *host.TextureDescriptor) (*texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("halhost: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	format := halFormat(desc.Format)
	t := &texture{desc: *desc}

	var err error
	t.tex, err = h.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              uint32(desc.Width),  //nolint:gosec // positive, checked above
			Height:             uint32(desc.Height), //nolint:gosec // positive, checked above
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("halhost: create texture %q: %w", desc.Label, err)
	}

	t.view, err = h.device.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
		Label:         desc.Label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		t.destroy(h.device)
		return nil, fmt.Errorf("halhost: create texture view %q: %w", desc.Label, err)
	}

	if err := h.rebuildSampler(t); err != nil {
		t.destroy(h.device)
		return nil, err
	}
	return t, nil
}

// rebuildSampler replaces the texture's sampler to match its descriptor.
// Caller must hold h.mu.
func (h *Host) rebuildSampler(t *texture) error {
	address := halAddress(t.desc.Address)
	s, err := h.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        t.desc.Label + "_sampler",
		AddressModeU: address,
		AddressModeV: address,
		AddressModeW: address,
		MagFilter:    halFilter(t.desc.MagFilter),
		MinFilter:    halFilter(t.desc.MinFilter),
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("halhost: create sampler %q: %w", t.desc.Label, err)
	}
	if t.sampler != nil {
		h.drain()
		h.device.DestroySampler(t.sampler)
	}
	t.sampler = s
	return nil
}

// DestroyTexture implements host.Device.
func (h *Host) DestroyTexture(id host.TextureID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.textures[id]
	if !ok {
		return
	}
	h.drain()
	t.destroy(h.device)
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

	t, ok := h.textures[id]
	if !ok || (t.desc.MinFilter == minFilter && t.desc.MagFilter == magFilter) {
		return
	}
	t.desc.MinFilter = minFilter
	t.desc.MagFilter = magFilter
	if err := h.rebuildSampler(t); err != nil {
		slogger().Warn("halhost: sampler update failed", "texture", id, "err", err)
	}
}

// CreateFramebuffer implements host.Device.
func (h *Host) CreateFramebuffer(attachments []host.TextureID) (host.FramebufferID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return host.InvalidID, ErrNoDevice
	}
	for _, a := range attachments {
		if _, ok := h.textures[a]; !ok {
			return host.InvalidID, fmt.Errorf("halhost: attachment %d: %w", a, host.ErrStaleResource)
		}
	}
	id := host.FramebufferID(h.id())
	h.framebuffers[id] = &framebuffer{attachments: append([]host.TextureID(nil), attachments...)}
	return id, nil
}

// FramebufferStatus implements host.Device.
func (h *Host) FramebufferStatus(id host.FramebufferID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	fb, ok := h.framebuffers[id]
	if !ok {
		return host.ErrStaleResource
	}
	limit := int(h.opts.limits.MaxColorAttachments)
	if n := len(fb.attachments); n == 0 || n > limit {
		return fmt.Errorf("%w: %d attachments, limit %d", host.ErrIncompleteFramebuffer, n, limit)
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

// DestroyFramebuffer implements host.Device. Attachments stay alive.
func (h *Host) DestroyFramebuffer(id host.FramebufferID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.framebuffers, id)
	if h.target == id {
		h.target = host.InvalidID
	}
}
