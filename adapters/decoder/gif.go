package decoder

import (
	"context"
	"fmt"
	"image/gif"
	"io"

	"github.com/okulov/photonorm/core"
)

// GIF decodes GIF images using the standard library. Animated inputs
// collapse to their first frame.
type GIF struct{}

// NewGIF returns an initialised GIF decoder.
func NewGIF() *GIF { return &GIF{} }

func (g *GIF) CanDecode(format core.Format) bool {
	return format == core.FormatGIF
}

func (g *GIF) DecodeConfig(ctx context.Context, r io.Reader) (core.Bounds, error) {
	if err := ctx.Err(); err != nil {
		return core.Bounds{}, err
	}
	cfg, err := gif.DecodeConfig(r)
	if err != nil {
		return core.Bounds{}, fmt.Errorf("gif: %w", err)
	}
	return core.Bounds{Width: cfg.Width, Height: cfg.Height}, nil
}

func (g *GIF) Decode(ctx context.Context, r io.Reader, sample int) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := gif.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("gif: %w", err)
	}
	return core.NewPixelBuffer(Downsample(img, sample)), nil
}
