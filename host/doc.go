// Package host defines the contract between the ripple simulator and the
// rendering engine that hosts it.
//
// The engine owns the GPU context. It reports the identity of that context as
// a monotonically increasing [ContextEpoch], answers capability and limit
// queries, and executes a small command surface: bind a render target, use a
// program, set uniforms, bind textures and draw a full-screen quad.
//
// # Resource Management
//
// GPU resources are referred to by opaque IDs ([TextureID], [FramebufferID],
// [ProgramID]). IDs are only meaningful within the epoch that created them.
// When the epoch changes every resource of the old epoch is gone; destroying
// a stale ID is a no-op and using one in a command has no effect.
//
// # Programs
//
// A [ProgramDescriptor] carries WGSL source for GPU-backed devices, the
// layout of its uniform block, and an optional [Kernel]: a per-texel CPU
// rendition of the fragment stage used by devices without a shader compiler.
//
// # Implementations
//
// Two implementations live in sub-packages:
//   - host/software: a CPU device that runs program kernels per texel
//   - host/halhost: a device over gogpu/wgpu HAL
package host
