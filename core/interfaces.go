package core

import (
	"context"
	"io"
	"time"
)

// Decoder turns an encoded stream into an owned pixel buffer.
// Implementations live in adapters/decoder/.
type Decoder interface {
	// DecodeConfig parses the stream header and returns the image bounds
	// without materializing pixel data.
	DecodeConfig(ctx context.Context, r io.Reader) (Bounds, error)
	// Decode reads the full stream and returns a raster reduced by the
	// power-of-two sample factor (1 = full resolution).
	Decode(ctx context.Context, r io.Reader, sample int) (*PixelBuffer, error)
	// CanDecode reports whether this decoder handles the given format hint.
	CanDecode(format Format) bool
}

// Encoder serialises a pixel buffer to bytes in a target format.
// Implementations live in adapters/encoder/.
type Encoder interface {
	Encode(ctx context.Context, buf *PixelBuffer, opts EncodeOptions) ([]byte, error)
	CanEncode(format Format) bool
}

// EncodeOptions carries format-specific encoding parameters.
type EncodeOptions struct {
	Quality    int  // 1-100; 0 = use encoder default
	Interlaced bool // progressive JPEG / interlaced PNG
}

// OrientationReader extracts the EXIF orientation from an encoded stream.
// Implementations must never fail: anything unreadable is OrientationNormal.
type OrientationReader interface {
	ReadOrientation(ctx context.Context, r io.Reader) Orientation
}

// MetricsCollector receives observations from the processor and the
// metrics hook. Implementations must be safe for concurrent use.
type MetricsCollector interface {
	JobStarted()
	JobFinished(status string, total time.Duration, outputBytes int64)
	RecordStageDuration(stage string, d time.Duration)
	RecordDegradation(stage string)
}

// Job outcome labels passed to MetricsCollector.JobFinished.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
)

// Logger is a minimal structured logging interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Registry maps Format values to codec implementations and holds the
// orientation reader the pipeline consults between decode and transform.
type Registry interface {
	DecoderFor(format Format) (Decoder, bool)
	EncoderFor(format Format) (Encoder, bool)
	RegisterDecoder(format Format, d Decoder)
	RegisterEncoder(format Format, e Encoder)
	OrientationReader() OrientationReader
	SetOrientationReader(r OrientationReader)
}
