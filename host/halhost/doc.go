// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package halhost implements host.Device on top of the gogpu/wgpu HAL.
//
// Every program becomes a render pipeline with one bind group layout:
//
//	@group(0) @binding(0) var<uniform> params: ...;      // uniform block
//	@group(0) @binding(1) var field: texture_2d<f32>;    // texture unit 0
//	@group(0) @binding(2) var field_sampler: sampler;
//
// Textures are RGBA16Float render attachments that can also be sampled, each
// with its own sampler reflecting the texture's filter settings. A
// framebuffer is a list of attachments; a draw renders into one of them.
//
// Draws are submitted immediately. Command buffers and bind groups are freed
// once the queue reports the submission complete.
//
// Shader sources are passed to the HAL as WGSL. [WithSPIRV] compiles them with
// naga first, for backends that only consume SPIR-V.
//
// The epoch advances whenever [Host.SetDevice] re-parents the host onto a new
// device. Resources of the previous device are destroyed and their IDs become
// stale.
package halhost
