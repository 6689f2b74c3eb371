package decoder

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/image/bmp"

	"github.com/okulov/photonorm/core"
)

// BMP decodes BMP images using golang.org/x/image/bmp.
type BMP struct{}

// NewBMP returns an initialised BMP decoder.
func NewBMP() *BMP { return &BMP{} }

func (b *BMP) CanDecode(format core.Format) bool {
	return format == core.FormatBMP
}

func (b *BMP) DecodeConfig(ctx context.Context, r io.Reader) (core.Bounds, error) {
	if err := ctx.Err(); err != nil {
		return core.Bounds{}, err
	}
	cfg, err := bmp.DecodeConfig(r)
	if err != nil {
		return core.Bounds{}, fmt.Errorf("bmp: %w", err)
	}
	return core.Bounds{Width: cfg.Width, Height: cfg.Height}, nil
}

func (b *BMP) Decode(ctx context.Context, r io.Reader, sample int) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := bmp.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("bmp: %w", err)
	}
	return core.NewPixelBuffer(Downsample(img, sample)), nil
}
