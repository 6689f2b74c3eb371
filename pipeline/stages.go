// Package pipeline provides the image-normalization stages and a standalone
// runner for chaining them.
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/okulov/photonorm/config"
	"github.com/okulov/photonorm/core"
	apperrors "github.com/okulov/photonorm/errors"
	"github.com/okulov/photonorm/utils"
)

// ── Probe ─────────────────────────────────────────────────────────────────────

// ProbeStage sniffs the source format and reads the image bounds from the
// stream header without materializing pixel data, then derives the
// power-of-two sample factor for the decode stage. Opens exactly one stream.
type ProbeStage struct {
	Registry     core.Registry
	TargetBudget int   // smaller-axis pixel budget the decode must cover
	MaxPixels    int64 // 0 = no limit
}

func (s *ProbeStage) Name() string { return core.StageProbe }

func (s *ProbeStage) Run(ctx context.Context, f *core.Frame) (*core.Frame, error) {
	rc, err := f.Source.Open(ctx)
	if err != nil {
		return nil, apperrors.Decode(s.Name(), err)
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, utils.SniffLen)
	head, _ := br.Peek(utils.SniffLen)
	f.Format = core.Format(utils.DetectFormat(head))

	dec, ok := s.Registry.DecoderFor(f.Format)
	if !ok {
		return nil, apperrors.Decode(s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, f.Format))
	}

	bounds, err := dec.DecodeConfig(ctx, br)
	if err != nil {
		return nil, apperrors.Decode(s.Name(), err)
	}
	if !bounds.Valid() {
		return nil, apperrors.Decode(s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrInvalidDimensions, bounds))
	}
	if s.MaxPixels > 0 && bounds.Pixels() > s.MaxPixels {
		return nil, apperrors.Decode(s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrImageTooLarge, bounds))
	}

	f.Bounds = bounds
	f.Sample = core.SampleSizeFor(bounds, s.TargetBudget)
	return f, nil
}

// ── Decode ────────────────────────────────────────────────────────────────────

// DecodeStage reopens the source and decodes the pixel data at the sample
// factor the probe computed. This is the largest allocation in the pipeline;
// any failure here is a hard per-image error.
type DecodeStage struct {
	Registry core.Registry
}

func (s *DecodeStage) Name() string { return core.StageDecode }

func (s *DecodeStage) Run(ctx context.Context, f *core.Frame) (*core.Frame, error) {
	dec, ok := s.Registry.DecoderFor(f.Format)
	if !ok {
		return nil, apperrors.Decode(s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, f.Format))
	}

	rc, err := f.Source.Open(ctx)
	if err != nil {
		return nil, apperrors.Decode(s.Name(), err)
	}
	defer rc.Close()

	sample := f.Sample
	if sample < 1 {
		sample = 1
	}
	buf, err := dec.Decode(ctx, rc, sample)
	if err != nil {
		return nil, apperrors.Decode(s.Name(), err)
	}
	if buf.Image() == nil {
		return nil, apperrors.Decode(s.Name(), apperrors.ErrNilBuffer)
	}

	f.SwapBuffer(buf)
	return f, nil
}

// ── Orient ────────────────────────────────────────────────────────────────────

// TransformFunc applies the orientation-correcting affine transform.
type TransformFunc func(src image.Image, o core.Orientation) (image.Image, error)

// OrientStage reads the EXIF orientation from a fresh source stream and
// applies the corrective transform. Reading never fails (unreadable metadata
// is OrientationNormal), and a failing transform degrades to the un-rotated
// buffer instead of aborting the pipeline.
type OrientStage struct {
	Reader core.OrientationReader
	// Transform overrides the imaging-backed default; used by failure tests.
	Transform TransformFunc
}

func (s *OrientStage) Name() string { return core.StageOrient }

func (s *OrientStage) Run(ctx context.Context, f *core.Frame) (*core.Frame, error) {
	f.Orientation = s.readOrientation(ctx, f)
	if f.Orientation == core.OrientationNormal || f.Buffer == nil {
		return f, nil
	}

	transform := s.Transform
	if transform == nil {
		transform = CorrectOrientation
	}
	img, err := runTransform(transform, f.Buffer.Image(), f.Orientation)
	if err != nil {
		f.Degrade(s.Name(), err)
		return f, nil
	}

	f.SwapBuffer(core.NewPixelBuffer(img))
	return f, nil
}

func (s *OrientStage) readOrientation(ctx context.Context, f *core.Frame) core.Orientation {
	if s.Reader == nil {
		return core.OrientationNormal
	}
	rc, err := f.Source.Open(ctx)
	if err != nil {
		return core.OrientationNormal
	}
	defer rc.Close()
	return s.Reader.ReadOrientation(ctx, rc)
}

// runTransform confines transform panics to this stage so they degrade like
// ordinary soft failures.
func runTransform(t TransformFunc, src image.Image, o core.Orientation) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("transform panic: %v", r)
		}
	}()
	img, err = t(src, o)
	if err == nil && img == nil {
		err = fmt.Errorf("transform returned no image")
	}
	return img, err
}

// CorrectOrientation maps each EXIF code to its corrective transform.
// imaging rotates counter-clockwise, so the clockwise corrections for codes
// 6 and 8 map to Rotate270 and Rotate90 respectively.
func CorrectOrientation(src image.Image, o core.Orientation) (image.Image, error) {
	switch o {
	case core.OrientationNormal:
		return src, nil
	case core.OrientationFlipH:
		return imaging.FlipH(src), nil
	case core.OrientationRotate180:
		return imaging.Rotate180(src), nil
	case core.OrientationFlipV:
		return imaging.FlipV(src), nil
	case core.OrientationTranspose:
		return imaging.Transpose(src), nil
	case core.OrientationRotate90:
		return imaging.Rotate270(src), nil
	case core.OrientationTransverse:
		return imaging.Transverse(src), nil
	case core.OrientationRotate270:
		return imaging.Rotate90(src), nil
	}
	return src, nil
}

// ── Resize ────────────────────────────────────────────────────────────────────

// ScaleFunc produces a raster of exactly (w, h) from src.
type ScaleFunc func(src image.Image, w, h int) (image.Image, error)

// ResizeStage bounds the buffer to MaxDimension on the longer axis, both
// axes scaled by the identical factor. A buffer already within bounds passes
// through untouched; a failing scale degrades to the unscaled buffer.
type ResizeStage struct {
	MaxDimension int
	// Resampler controls quality vs speed.  Defaults to xdraw.BiLinear.
	Resampler xdraw.Interpolator
	// Scale overrides the resampler-backed default; used by failure tests.
	Scale ScaleFunc
}

func (s *ResizeStage) Name() string { return core.StageResize }

func (s *ResizeStage) Run(_ context.Context, f *core.Frame) (*core.Frame, error) {
	if f.Buffer == nil {
		return f, nil
	}
	srcW, srcH := f.Buffer.Width(), f.Buffer.Height()
	dstW, dstH := utils.FitDimensions(srcW, srcH, s.MaxDimension)
	if dstW == srcW && dstH == srcH {
		return f, nil
	}

	scale := s.Scale
	if scale == nil {
		scale = s.drawScale
	}
	img, err := runScale(scale, f.Buffer.Image(), dstW, dstH)
	if err != nil {
		f.Degrade(s.Name(), err)
		return f, nil
	}

	f.SwapBuffer(core.NewPixelBuffer(img))
	return f, nil
}

func (s *ResizeStage) drawScale(src image.Image, w, h int) (image.Image, error) {
	sampler := s.Resampler
	if sampler == nil {
		sampler = xdraw.BiLinear
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sampler.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst, nil
}

func runScale(sc ScaleFunc, src image.Image, w, h int) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("scale panic: %v", r)
		}
	}()
	img, err = sc(src, w, h)
	if err == nil && img == nil {
		err = fmt.Errorf("scale returned no image")
	}
	return img, err
}

// ── Encode ────────────────────────────────────────────────────────────────────

// EncodeStage serialises the final buffer. The single stage whose failure is
// always a hard pipeline failure: there is no fallback output.
type EncodeStage struct {
	Registry       core.Registry
	DefaultQuality int
	DefaultFormat  core.Format
}

func (s *EncodeStage) Name() string { return core.StageEncode }

func (s *EncodeStage) Run(ctx context.Context, f *core.Frame) (*core.Frame, error) {
	format := f.Output
	if format == "" {
		format = s.DefaultFormat
	}
	if format == "" {
		format = core.FormatJPEG
	}

	enc, ok := s.Registry.EncoderFor(format)
	if !ok {
		return nil, apperrors.Encode(s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format))
	}
	if f.Buffer.Image() == nil {
		return nil, apperrors.Encode(s.Name(), apperrors.ErrNilBuffer)
	}

	quality := f.Quality
	if quality <= 0 {
		quality = s.DefaultQuality
	}

	data, err := enc.Encode(ctx, f.Buffer, core.EncodeOptions{Quality: quality})
	if err != nil {
		return nil, apperrors.Encode(s.Name(), err)
	}
	if len(data) == 0 {
		return nil, apperrors.Encode(s.Name(), apperrors.ErrNoOutput)
	}

	f.Output = format
	f.Encoded = data
	return f, nil
}

// ── Default chain ─────────────────────────────────────────────────────────────

// Default builds the probe -> decode -> orient -> resize -> encode chain
// from cfg against the given registry.
func Default(cfg config.Config, reg core.Registry) []core.Stage {
	return []core.Stage{
		&ProbeStage{
			Registry:     reg,
			TargetBudget: cfg.TargetBudget(),
			MaxPixels:    cfg.MaxPixels,
		},
		&DecodeStage{Registry: reg},
		&OrientStage{Reader: reg.OrientationReader()},
		&ResizeStage{MaxDimension: cfg.MaxDimension, Resampler: cfg.Resampler},
		&EncodeStage{Registry: reg, DefaultQuality: cfg.Quality, DefaultFormat: core.FormatJPEG},
	}
}
