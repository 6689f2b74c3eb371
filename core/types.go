package core

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Format identifies an image codec.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatGIF     Format = "gif"
	FormatWebP    Format = "webp"
	FormatBMP     Format = "bmp"
	FormatUnknown Format = "unknown"
)

// Orientation is the EXIF orientation tag (1-8). The value describes the
// transform the camera applied when writing the raster; the pipeline applies
// the inverse so the output is upright.
type Orientation uint8

const (
	OrientationNormal     Orientation = 1
	OrientationFlipH      Orientation = 2
	OrientationRotate180  Orientation = 3
	OrientationFlipV      Orientation = 4
	OrientationTranspose  Orientation = 5
	OrientationRotate90   Orientation = 6 // correct by rotating 90 degrees clockwise
	OrientationTransverse Orientation = 7
	OrientationRotate270  Orientation = 8 // correct by rotating 270 degrees clockwise
)

// OrientationFromEXIF maps a raw tag value to an Orientation. Out-of-range
// values collapse to OrientationNormal; orientation handling never fails.
func OrientationFromEXIF(v uint16) Orientation {
	if v < 1 || v > 8 {
		return OrientationNormal
	}
	return Orientation(v)
}

// SwapsDimensions reports whether correcting this orientation exchanges
// width and height.
func (o Orientation) SwapsDimensions() bool {
	return o >= OrientationTranspose && o <= OrientationRotate270
}

func (o Orientation) String() string {
	switch o {
	case OrientationNormal:
		return "normal"
	case OrientationFlipH:
		return "flip-h"
	case OrientationRotate180:
		return "rotate-180"
	case OrientationFlipV:
		return "flip-v"
	case OrientationTranspose:
		return "transpose"
	case OrientationRotate90:
		return "rotate-90"
	case OrientationTransverse:
		return "transverse"
	case OrientationRotate270:
		return "rotate-270"
	}
	return "unknown"
}

// Bounds holds image dimensions in pixels.
type Bounds struct {
	Width  int
	Height int
}

// Valid reports whether both axes are positive.
func (b Bounds) Valid() bool { return b.Width > 0 && b.Height > 0 }

// Pixels returns the total pixel count.
func (b Bounds) Pixels() int64 { return int64(b.Width) * int64(b.Height) }

func (b Bounds) String() string { return fmt.Sprintf("%dx%d", b.Width, b.Height) }

// Degradation records a transform that failed softly. The pipeline carried
// on with the pixels it already had; the record is kept for observability.
type Degradation struct {
	Stage string
	Err   error
}

func (d Degradation) String() string { return d.Stage + ": " + d.Err.Error() }

// Frame is the unit of work passed from stage to stage. A frame owns at most
// one pixel buffer at a time; ownership transfers happen through SwapBuffer
// so the previous raster is always released.
type Frame struct {
	Source Source

	// Filled by the probe stage before any pixels are decoded.
	Format Format
	Bounds Bounds
	Sample int // power-of-two decode reduction factor

	// Filled by the orientation stage.
	Orientation Orientation

	// The currently owned raster, nil before decode and after release.
	Buffer *PixelBuffer

	// Final encoded bytes, set by the encode stage.
	Encoded []byte

	// Per-job encode overrides; zero values use the pipeline defaults.
	Quality int
	Output  Format

	Degradations []Degradation
}

// SwapBuffer installs next as the frame's owned raster. The previous buffer
// is released unless it is the very same buffer.
func (f *Frame) SwapBuffer(next *PixelBuffer) {
	if f.Buffer == next {
		return
	}
	if f.Buffer != nil {
		f.Buffer.Release()
	}
	f.Buffer = next
}

// ReleaseBuffer releases and detaches the owned raster, if any.
func (f *Frame) ReleaseBuffer() {
	if f.Buffer != nil {
		f.Buffer.Release()
		f.Buffer = nil
	}
}

// Degrade records a soft failure against stage.
func (f *Frame) Degrade(stage string, err error) {
	f.Degradations = append(f.Degradations, Degradation{Stage: stage, Err: err})
}

// Result is returned to the caller after the pipeline completes.
type Result struct {
	// Encoded output bytes and their codec.
	Data   []byte
	Format Format

	// Output dimensions.
	Width  int
	Height int

	// Probe findings for the original source.
	SourceBounds Bounds
	SampleSize   int
	Orientation  Orientation

	// Transforms that failed softly on the way here, empty on a clean run.
	Degradations []Degradation

	// Observability.
	ProcessingTime time.Duration
	StageTimings   map[string]time.Duration
}

// Stage names used for timings, hooks and error attribution.
const (
	StageProbe  = "probe"
	StageDecode = "decode"
	StageOrient = "orient"
	StageResize = "resize"
	StageEncode = "encode"
)

// Source abstracts where image bytes come from. Open must return a fresh
// stream positioned at the start each time it is called: the pipeline opens
// the source once per stage that needs bytes instead of buffering decoded
// pixels between them.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name is an optional logical name (file path, upload id); may be empty.
	Name() string
	// Size is the byte length when known, -1 otherwise.
	Size() int64
}

// Job encapsulates a single unit of work for the worker pool.
type Job struct {
	ID      string
	Ctx     context.Context //nolint:containedctx // intentional for async jobs
	Source  Source
	Options JobOptions
	// ResultCh receives the outcome. Submit allocates a buffered channel
	// when nil; a caller-provided channel must have capacity so a worker
	// never blocks on delivery.
	ResultCh chan JobResult
}

// JobOptions controls per-job behaviour.
type JobOptions struct {
	// Quality overrides the configured encode quality; 0 keeps the default.
	Quality int
	// Output selects the encode format; empty keeps the default (JPEG).
	Output Format
}

// JobResult wraps the outcome of an async job.
type JobResult struct {
	JobID  string
	Result *Result
	Err    error
}

// Stats is a snapshot of processor counters.
type Stats struct {
	Processed int64 // completed without a hard failure
	Failed    int64 // aborted with a decode or encode failure
	Degraded  int64 // completed but with at least one absorbed soft failure
}

// Stage is the fundamental pipeline building block. Each Stage advances a
// *Frame and must be safe for concurrent use across goroutines.
type Stage interface {
	Name() string
	Run(ctx context.Context, f *Frame) (*Frame, error)
}

// Hook is an optional observer invoked around pipeline stages. BeforeStage
// may derive a new context (to open a trace span, attach fields); the
// returned context is passed to the stage and to AfterStage.
type Hook interface {
	BeforeStage(ctx context.Context, stage string, f *Frame) context.Context
	AfterStage(ctx context.Context, stage string, f *Frame, d time.Duration, err error)
}
