// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package ripple simulates rippling water surfaces on the GPU.
//
// # Overview
//
// A [Surface] holds a height field in two floating-point textures. Drops
// push the field up or down around a point; every [Surface.Advance] relaxes
// it towards its neighbours and damps the velocity, so waves spread and fade.
// [Surface.Draw] binds the latest field to texture unit 0, where the host
// samples it while drawing a tessellated [Plane].
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/ripple"
//	    "github.com/gogpu/ripple/host/software"
//	)
//
//	dev := software.New()
//	s, err := ripple.NewSurface(dev, ripple.WithSize(128, 128))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s.Drop(0, 0, 8, 1)
//	for range 30 {
//	    s.Advance()
//	}
//	s.Draw()
//
// # Devices
//
// Surfaces talk to the GPU through [host.Device]. Two implementations ship
// with the module:
//   - host/software runs every pass on the CPU and records mesh draws
//   - host/halhost drives gogpu/wgpu HAL devices with WGSL pipelines
//
// # Context Changes
//
// Devices report a [host.ContextEpoch] that grows whenever the GPU context is
// lost or replaced. Surfaces compare it on every operation and rebuild their
// textures, framebuffer and programs when it changes. Anything that fails
// during a rebuild (missing capabilities, shader errors, incomplete
// framebuffers) disables the surface until the next epoch; the cause is
// available from [Surface.Err].
//
// # Registry
//
// A [Registry] keeps named surfaces for a host integration layer. It shares
// one [Programs] and one mesh cache between them and hands out a [Handle]
// for every placement in the host layout.
//
// # Logging
//
// ripple is silent by default. Use [SetLogger] to enable structured logging
// via log/slog.
package ripple
