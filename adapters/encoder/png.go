package encoder

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/okulov/photonorm/core"
	apperrors "github.com/okulov/photonorm/errors"
)

// PNG encodes pixel buffers to PNG for callers that request lossless output.
type PNG struct{}

// NewPNG returns a PNG encoder.
func NewPNG() *PNG { return &PNG{} }

func (p *PNG) CanEncode(format core.Format) bool {
	return format == core.FormatPNG
}

func (p *PNG) Encode(ctx context.Context, buf *core.PixelBuffer, _ core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := buf.Image()
	if src == nil {
		return nil, apperrors.ErrNilBuffer
	}

	var out bytes.Buffer
	if err := png.Encode(&out, src); err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}
	return out.Bytes(), nil
}
