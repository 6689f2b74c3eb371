package decoder

import (
	"image"
	"image/color"
)

// Downsample reduces img by the power-of-two sample factor using a box
// average over sample x sample blocks. The output covers ceil(dim/sample)
// pixels on each axis so no source pixel is dropped. sample <= 1 returns
// img unchanged.
func Downsample(img image.Image, sample int) image.Image {
	if img == nil || sample <= 1 {
		return img
	}
	b := img.Bounds()
	outW := (b.Dx() + sample - 1) / sample
	outH := (b.Dy() + sample - 1) / sample
	dst := image.NewNRGBA(image.Rect(0, 0, outW, outH))

	for oy := 0; oy < outH; oy++ {
		for ox := 0; ox < outW; ox++ {
			var sr, sg, sb, sa, n uint32
			y0 := b.Min.Y + oy*sample
			x0 := b.Min.X + ox*sample
			for y := y0; y < y0+sample && y < b.Max.Y; y++ {
				for x := x0; x < x0+sample && x < b.Max.X; x++ {
					r, g, bl, a := img.At(x, y).RGBA()
					sr += r
					sg += g
					sb += bl
					sa += a
					n++
				}
			}
			dst.SetNRGBA(ox, oy, color.NRGBA{
				R: uint8(sr / n >> 8),
				G: uint8(sg / n >> 8),
				B: uint8(sb / n >> 8),
				A: uint8(sa / n >> 8),
			})
		}
	}
	return dst
}
