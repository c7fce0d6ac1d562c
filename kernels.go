package ripple

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/ripple/host"
)

// dropKernel is the CPU rendition of fs_main in drop.wgsl. Both kernels
// write an opaque texel.
//
// Uniform block: center.xy, radius, strength.
func dropKernel(in host.Sampler, coord [2]float32, u []float32) [4]float32 {
	info := in.Sample(coord[0], coord[1])

	cx, cy, radius, strength := u[0], u[1], u[2], u[3]
	var bump float32
	if radius > 0 {
		dist := math32.Hypot(cx*0.5+0.5-coord[0], cy*0.5+0.5-coord[1])
		bump = math32.Max(0, 1-dist/(radius/100))
	}
	bump = 0.5 - math32.Cos(bump*math32.Pi)*0.5
	info[0] += bump * (strength / 1000)
	info[3] = 1
	return info
}

// updateKernel is the CPU rendition of fs_main in update.wgsl.
//
// Uniform block: delta.xy, ratio, padding.
func updateKernel(in host.Sampler, coord [2]float32, u []float32) [4]float32 {
	info := in.Sample(coord[0], coord[1])

	dx, dy, ratio := u[0], u[1], u[2]
	u0, v0 := coord[0], coord[1]
	average := (in.Sample(u0-dx, v0)[0] +
		in.Sample(u0, v0-dy)[0] +
		in.Sample(u0+dx, v0)[0] +
		in.Sample(u0, v0+dy)[0]) * 0.25

	info[1] += (average - info[0]) * 2
	info[1] *= ratio
	info[0] += info[1]
	info[3] = 1
	return info
}
