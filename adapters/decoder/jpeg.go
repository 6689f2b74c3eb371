// Package decoder provides format-specific image decoders that produce
// owned pixel buffers, optionally reduced by a power-of-two sample factor.
package decoder

import (
	"context"
	"fmt"
	"io"

	"github.com/gen2brain/jpegn"

	"github.com/okulov/photonorm/core"
)

// JPEG decodes JPEG images. Baseline streams go through the fast jpegn
// decoder; jpegn itself falls back to the standard library for progressive
// and arithmetic-coded variants.
type JPEG struct{}

// NewJPEG returns an initialised JPEG decoder.
func NewJPEG() *JPEG { return &JPEG{} }

func (j *JPEG) CanDecode(format core.Format) bool {
	return format == core.FormatJPEG || format == core.FormatUnknown
}

func (j *JPEG) DecodeConfig(ctx context.Context, r io.Reader) (core.Bounds, error) {
	if err := ctx.Err(); err != nil {
		return core.Bounds{}, err
	}
	cfg, err := jpegn.DecodeConfig(r)
	if err != nil {
		return core.Bounds{}, fmt.Errorf("jpeg: %w", err)
	}
	return core.Bounds{Width: cfg.Width, Height: cfg.Height}, nil
}

func (j *JPEG) Decode(ctx context.Context, r io.Reader, sample int) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := jpegn.Decode(r, &jpegn.Options{ToRGBA: true})
	if err != nil {
		return nil, fmt.Errorf("jpeg: %w", err)
	}
	return core.NewPixelBuffer(Downsample(img, sample)), nil
}
