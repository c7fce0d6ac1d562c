package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/ripple/host/software"
)

// heightGain maps heights to grey levels around mid-grey. Drops of
// strength 1 peak at 0.001.
const heightGain = 64000

// heightImage renders the vertex heights of a recorded mesh draw as a grey
// image, one pixel per vertex, with +Y up.
func heightImage(f software.Frame) (*image.Gray, error) {
	m := f.Draw.Mesh
	if m == nil || len(f.Heights) != m.VertexCount() {
		return nil, fmt.Errorf("rippledemo: frame has %d heights for its mesh", len(f.Heights))
	}
	w, h := m.Rows+1, m.Columns+1
	img := image.NewGray(image.Rect(0, 0, w, h))
	for j := range h {
		for i := range w {
			v := 128 + float64(f.Heights[m.VertexIndex(i, j)])*heightGain
			img.SetGray(i, h-1-j, color.Gray{Y: uint8(min(max(v, 0), 255))})
		}
	}
	return img, nil
}

// scaleImage resamples src to size×size.
func scaleImage(src image.Image, size int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("rippledemo: create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("rippledemo: encode %s: %w", path, err)
	}
	return f.Close()
}
