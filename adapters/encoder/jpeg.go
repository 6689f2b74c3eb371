// Package encoder provides format-specific image encoders.
package encoder

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	"github.com/okulov/photonorm/core"
	apperrors "github.com/okulov/photonorm/errors"
)

// JPEG encodes pixel buffers to JPEG.
type JPEG struct {
	DefaultQuality int // used when EncodeOptions.Quality == 0
}

// NewJPEG returns a JPEG encoder with the given default quality.
func NewJPEG(defaultQuality int) *JPEG {
	if defaultQuality <= 0 {
		defaultQuality = 85
	}
	return &JPEG{DefaultQuality: defaultQuality}
}

func (j *JPEG) CanEncode(format core.Format) bool {
	return format == core.FormatJPEG
}

func (j *JPEG) Encode(ctx context.Context, buf *core.PixelBuffer, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := buf.Image()
	if src == nil {
		return nil, apperrors.ErrNilBuffer
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = j.DefaultQuality
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("jpeg: %w", err)
	}
	return out.Bytes(), nil
}
