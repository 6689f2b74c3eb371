// Package exif reads the EXIF orientation tag from encoded image streams.
package exif

import (
	"context"
	"io"

	"github.com/evanoberholster/imagemeta"

	"github.com/okulov/photonorm/core"
	"github.com/okulov/photonorm/utils"
)

// DefaultMaxPrefix bounds how much of the stream the reader inspects; EXIF
// metadata lives in the leading segments, so 1 MiB is generous.
const DefaultMaxPrefix = 1 << 20

// Reader extracts the orientation tag via imagemeta. It never fails: a
// missing tag, a corrupt segment, an unsupported container, or a short
// stream all map to OrientationNormal. A wrongly-oriented image is
// preferable to a failed upload.
type Reader struct {
	MaxPrefix int64 // 0 = DefaultMaxPrefix
}

// NewReader returns a Reader with the default prefix bound.
func NewReader() *Reader { return &Reader{} }

func (rd *Reader) ReadOrientation(ctx context.Context, r io.Reader) (o core.Orientation) {
	o = core.OrientationNormal
	defer func() {
		// A malformed container must degrade to normal, not escape.
		_ = recover()
	}()

	maxPrefix := rd.MaxPrefix
	if maxPrefix <= 0 {
		maxPrefix = DefaultMaxPrefix
	}

	// imagemeta needs a seekable stream, so buffer the bounded prefix.
	buf, err := utils.DrainReader(ctx, io.LimitReader(r, maxPrefix), 0)
	if err != nil {
		return o
	}
	defer utils.ReleaseBuffer(buf)

	m, err := imagemeta.Decode(utils.BytesReader(buf.Bytes()))
	if err != nil {
		return o
	}
	return core.OrientationFromEXIF(uint16(m.Orientation))
}
