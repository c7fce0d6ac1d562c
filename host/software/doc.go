// Package software implements host.Host on the CPU.
//
// Textures are stored as float32 RGBA regardless of their declared format.
// Programs run their host.Kernel once per texel of the bound render target,
// sampling the texture on unit 0 with clamp-to-edge addressing. Results are
// written to a scratch buffer and copied into the target after the pass, so a
// kernel never observes its own partial output.
//
// Mesh draws are recorded as frames: the height channel of the bound texture
// is sampled at every vertex, which lets callers rasterize or inspect the
// displaced surface without a GPU.
//
// The host reports both float render targets and vertex texture fetch and
// eight color attachments unless configured otherwise:
//
//	h := software.New(software.WithMaxColorAttachments(1))
package software
