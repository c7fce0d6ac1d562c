package software

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/ripple/host"
)

// texture is a float32 RGBA image.
type texture struct {
	desc host.TextureDescriptor
	data []float32
}

func newTexture(desc *host.TextureDescriptor) *texture {
	return &texture{
		desc: *desc,
		data: make([]float32, desc.Width*desc.Height*4),
	}
}

func (t *texture) texel(x, y int) [4]float32 {
	w, h := t.desc.Width, t.desc.Height
	if t.desc.Address == host.AddressRepeat {
		x = ((x % w) + w) % w
		y = ((y % h) + h) % h
	} else {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
	}
	i := (y*w + x) * 4
	return [4]float32{t.data[i], t.data[i+1], t.data[i+2], t.data[i+3]}
}

// Sample implements host.Sampler. Magnified reads honour the texture's mag
// filter; the software host never minifies.
func (t *texture) Sample(u, v float32) [4]float32 {
	fx := u*float32(t.desc.Width) - 0.5
	fy := v*float32(t.desc.Height) - 0.5

	if t.desc.MagFilter == host.FilterNearest {
		return t.texel(int(math32.Floor(fx+0.5)), int(math32.Floor(fy+0.5)))
	}

	x0, y0 := math32.Floor(fx), math32.Floor(fy)
	ax, ay := fx-x0, fy-y0
	ix, iy := int(x0), int(y0)

	t00 := t.texel(ix, iy)
	t10 := t.texel(ix+1, iy)
	t01 := t.texel(ix, iy+1)
	t11 := t.texel(ix+1, iy+1)

	var out [4]float32
	for c := range out {
		top := t00[c] + (t10[c]-t00[c])*ax
		bottom := t01[c] + (t11[c]-t01[c])*ax
		out[c] = top + (bottom-top)*ay
	}
	return out
}

// zeroSampler stands in for an empty texture unit.
type zeroSampler struct{}

func (zeroSampler) Sample(float32, float32) [4]float32 { return [4]float32{} }
