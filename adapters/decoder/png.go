package decoder

import (
	"context"
	"fmt"
	"image/png"
	"io"

	"github.com/okulov/photonorm/core"
)

// PNG decodes PNG images using the standard library.
type PNG struct{}

// NewPNG returns an initialised PNG decoder.
func NewPNG() *PNG { return &PNG{} }

func (p *PNG) CanDecode(format core.Format) bool {
	return format == core.FormatPNG
}

func (p *PNG) DecodeConfig(ctx context.Context, r io.Reader) (core.Bounds, error) {
	if err := ctx.Err(); err != nil {
		return core.Bounds{}, err
	}
	cfg, err := png.DecodeConfig(r)
	if err != nil {
		return core.Bounds{}, fmt.Errorf("png: %w", err)
	}
	return core.Bounds{Width: cfg.Width, Height: cfg.Height}, nil
}

func (p *PNG) Decode(ctx context.Context, r io.Reader, sample int) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}
	return core.NewPixelBuffer(Downsample(img, sample)), nil
}
