package core

import (
	"image"
	"sync/atomic"
)

// liveBuffers counts buffers allocated but not yet released. Leak checks in
// tests and the metrics hooks read it to verify the release discipline on
// every pipeline exit path.
var liveBuffers atomic.Int64

// LiveBuffers returns the number of unreleased pixel buffers process-wide.
func LiveBuffers() int64 { return liveBuffers.Load() }

// PixelBuffer is an owned, decoded raster. Ownership is exclusive: whoever
// holds the buffer must either hand it on unchanged or release it when a
// replacement is produced. Release is idempotent and safe on nil.
type PixelBuffer struct {
	img      image.Image
	width    int
	height   int
	released atomic.Bool
}

// NewPixelBuffer wraps img in an owned buffer. A nil img yields a nil buffer.
func NewPixelBuffer(img image.Image) *PixelBuffer {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	liveBuffers.Add(1)
	return &PixelBuffer{img: img, width: b.Dx(), height: b.Dy()}
}

// Image returns the underlying raster, or nil after Release.
func (p *PixelBuffer) Image() image.Image {
	if p == nil || p.released.Load() {
		return nil
	}
	return p.img
}

// Width survives Release so results can still report dimensions.
func (p *PixelBuffer) Width() int {
	if p == nil {
		return 0
	}
	return p.width
}

// Height survives Release so results can still report dimensions.
func (p *PixelBuffer) Height() int {
	if p == nil {
		return 0
	}
	return p.height
}

// Bounds returns the raster dimensions recorded at construction.
func (p *PixelBuffer) Bounds() Bounds {
	return Bounds{Width: p.Width(), Height: p.Height()}
}

// ApproxBytes estimates the raster's memory footprint at four bytes per
// pixel, which matches the RGBA-family types the decoders produce.
func (p *PixelBuffer) ApproxBytes() int64 {
	if p == nil {
		return 0
	}
	return int64(p.width) * int64(p.height) * 4
}

// Release drops the pixel data so the raster can be collected. Idempotent.
func (p *PixelBuffer) Release() {
	if p == nil {
		return
	}
	if p.released.CompareAndSwap(false, true) {
		p.img = nil
		liveBuffers.Add(-1)
	}
}

// Released reports whether Release has been called.
func (p *PixelBuffer) Released() bool {
	return p != nil && p.released.Load()
}
