package halhost

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ripple/host"
)

// submission is a command buffer in flight together with the bind group it
// references.
type submission struct {
	index     uint64
	cmd       hal.CommandBuffer
	bindGroup hal.BindGroup
}

// reclaim frees submissions the queue reports complete. With all set it
// frees everything; callers wait for the device first when that matters.
// Caller must hold h.mu.
func (h *Host) reclaim(all bool) {
	if len(h.pending) == 0 {
		return
	}
	done := h.queue.PollCompleted()
	kept := h.pending[:0]
	for _, s := range h.pending {
		if !all && s.index > done {
			kept = append(kept, s)
			continue
		}
		h.device.FreeCommandBuffer(s.cmd)
		h.device.DestroyBindGroup(s.bindGroup)
	}
	clear(h.pending[len(kept):])
	h.pending = kept
}

// drain waits for the device to finish every submission still in flight
// and frees them, so the resources they reference can be destroyed.
// Caller must hold h.mu.
func (h *Host) drain() {
	if len(h.pending) == 0 {
		return
	}
	if err := h.device.WaitIdle(); err != nil {
		slogger().Warn("halhost: wait idle failed", "err", err)
	}
	h.reclaim(true)
}

// Pending returns the number of submissions not yet reclaimed.
func (h *Host) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// BindRenderTarget implements host.Device.
func (h *Host) BindRenderTarget(fb host.FramebufferID, attachment int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.target = fb
	h.attachment = attachment
}

// ReleaseRenderTarget implements host.Device.
func (h *Host) ReleaseRenderTarget() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.target = host.InvalidID
	h.attachment = 0
}

// UseProgram implements host.Device.
func (h *Host) UseProgram(id host.ProgramID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.current = id
}

// SetUniform implements host.Device. The block is uploaded at the next draw.
func (h *Host) SetUniform(loc host.UniformLocation, values ...float32) {
	h.mu.Lock()
	defer h.mu.Unlock()

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

	if unit < 0 || unit >= maxTextureUnits {
		return
	}
	h.units[unit] = id
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

// input returns the texture sampled by the next draw.
// Caller must hold h.mu.
func (h *Host) input() (*texture, error) {
	if t, ok := h.textures[h.units[0]]; ok {
		return t, nil
	}
	if h.empty == nil {
		t, err := h.newTexture(&host.TextureDescriptor{
			Label:  "halhost_empty",
			Width:  1,
			Height: 1,
			Format: host.TextureFormatRGBA16Float,
		})
		if err != nil {
			return nil, err
		}
		h.empty = t
	}
	return h.empty, nil
}

// DrawFullScreenQuad implements host.Device.
func (h *Host) DrawFullScreenQuad() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrNoDevice
	}
	h.reclaim(false)

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
	if h.units[0] == outID {
		return ErrFeedbackLoop
	}
	in, err := h.input()
	if err != nil {
		return err
	}

	if err := h.queue.WriteBuffer(p.uniforms, 0, p.blockBytes()); err != nil {
		return fmt.Errorf("halhost: upload uniforms: %w", err)
	}

	bindGroup, err := h.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  p.desc.Label + "_bind",
		Layout: p.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: p.uniforms.NativeHandle(), Offset: 0, Size: uint64(len(p.block) * 4),
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: in.view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: in.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("halhost: create bind group: %w", err)
	}

	cmd, err := h.encodePass(p, out, bindGroup)
	if err != nil {
		h.device.DestroyBindGroup(bindGroup)
		return err
	}

	index, err := h.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		h.device.FreeCommandBuffer(cmd)
		h.device.DestroyBindGroup(bindGroup)
		return fmt.Errorf("halhost: submit: %w", err)
	}
	h.pending = append(h.pending, submission{index: index, cmd: cmd, bindGroup: bindGroup})
	return nil
}

// encodePass records one full-screen pass of p into out.
// Caller must hold h.mu.
func (h *Host) encodePass(p *program, out *texture, bindGroup hal.BindGroup) (hal.CommandBuffer, error) {
	encoder, err := h.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: p.desc.Label + "_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("halhost: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(p.desc.Label); err != nil {
		encoder.Destroy()
		return nil, fmt.Errorf("halhost: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: p.desc.Label + "_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       out.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
			},
		},
	})
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.Draw(6, 1, 0, 0)
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("halhost: end encoding: %w", err)
	}
	return cmd, nil
}
