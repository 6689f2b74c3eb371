package decoder

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/image/webp"

	"github.com/okulov/photonorm/core"
)

// WebP decodes WebP images using golang.org/x/image/webp.
// NOTE: golang.org/x/image/webp does not support animated WebP; the libvips
// backend handles those when enabled.
type WebP struct{}

// NewWebP returns an initialised WebP decoder.
func NewWebP() *WebP { return &WebP{} }

func (w *WebP) CanDecode(format core.Format) bool {
	return format == core.FormatWebP
}

func (w *WebP) DecodeConfig(ctx context.Context, r io.Reader) (core.Bounds, error) {
	if err := ctx.Err(); err != nil {
		return core.Bounds{}, err
	}
	cfg, err := webp.DecodeConfig(r)
	if err != nil {
		return core.Bounds{}, fmt.Errorf("webp: %w", err)
	}
	return core.Bounds{Width: cfg.Width, Height: cfg.Height}, nil
}

func (w *WebP) Decode(ctx context.Context, r io.Reader, sample int) (*core.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := webp.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("webp: %w", err)
	}
	return core.NewPixelBuffer(Downsample(img, sample)), nil
}
