//go:build govips && cgo

// Package vips provides an optional libvips-backed codec set. When enabled
// with the govips build tag it replaces the pure-Go adapters in a registry,
// bringing shrink-on-load JPEG decode and native WebP encode.
package vips

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/okulov/photonorm/adapters/decoder"
	"github.com/okulov/photonorm/core"
	"github.com/okulov/photonorm/utils"
)

// Available reports whether the libvips backend was compiled in.
func Available() bool { return true }

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	DefaultQuality int
	MaxCacheSize   int
	MaxWorkers     int
	ReportLeaks    bool
}

// Backend is a libvips-powered Decoder and OrientationReader; per-format
// encoders hang off it via Register. Safe for concurrent use.
type Backend struct {
	cfg BackendConfig
}

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown() when the process exits.
func NewBackend(cfg BackendConfig) (*Backend, error) {
	if cfg.DefaultQuality <= 0 {
		cfg.DefaultQuality = 85
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	govips.Startup(&govips.Config{
		ConcurrencyLevel: cfg.MaxWorkers,
		MaxCacheSize:     cfg.MaxCacheSize,
		ReportLeaks:      cfg.ReportLeaks,
		CollectStats:     true,
	})
	return &Backend{cfg: cfg}, nil
}

// Shutdown releases all libvips resources. Call once at process exit.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

// Register installs the backend as decoder, orientation reader, and
// JPEG/PNG/WebP encoder on reg, replacing the pure-Go adapters.
func Register(reg core.Registry, b *Backend) {
	for _, f := range []core.Format{core.FormatJPEG, core.FormatPNG, core.FormatGIF, core.FormatWebP, core.FormatBMP} {
		reg.RegisterDecoder(f, b)
	}
	for _, f := range []core.Format{core.FormatJPEG, core.FormatPNG, core.FormatWebP} {
		reg.RegisterEncoder(f, &formatEncoder{backend: b, format: f})
	}
	reg.SetOrientationReader(b)
}

// ─── Decoder ──────────────────────────────────────────────────────────────────

func (b *Backend) CanDecode(f core.Format) bool {
	switch f {
	case core.FormatJPEG, core.FormatPNG, core.FormatGIF, core.FormatWebP, core.FormatBMP, core.FormatUnknown:
		return true
	}
	return false
}

func (b *Backend) DecodeConfig(ctx context.Context, r io.Reader) (core.Bounds, error) {
	ref, err := b.load(ctx, r, 1)
	if err != nil {
		return core.Bounds{}, err
	}
	defer ref.Close()
	return core.Bounds{Width: ref.Width(), Height: ref.Height()}, nil
}

func (b *Backend) Decode(ctx context.Context, r io.Reader, sample int) (*core.PixelBuffer, error) {
	if sample < 1 {
		sample = 1
	}
	raw, err := drain(ctx, r)
	if err != nil {
		return nil, err
	}

	// Header-only load: vips decodes lazily, so this costs no pixel work.
	hdr, err := loadBytes(raw, 1)
	if err != nil {
		return nil, err
	}
	origW := hdr.Width()
	hdr.Close()

	// libvips shrinks JPEGs at load time up to 8x; non-JPEG loaders ignore
	// the hint. Whatever reduction the loader did not deliver is applied
	// after export.
	shrink := sample
	if shrink > 8 {
		shrink = 8
	}
	ref, err := loadBytes(raw, shrink)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	// Export losslessly and decode with the stdlib so the pipeline owns an
	// image.Image independent of libvips memory.
	out, _, err := ref.ExportPng(govips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips: export: %w", err)
	}
	img, err := png.Decode(utils.BytesReader(out))
	if err != nil {
		return nil, fmt.Errorf("vips: convert: %w", err)
	}

	if residual := sample / achievedShrink(origW, img.Bounds().Dx()); residual > 1 {
		img = decoder.Downsample(img, residual)
	}
	return core.NewPixelBuffer(img), nil
}

// achievedShrink infers the power-of-two reduction the loader performed by
// comparing the original and loaded widths.
func achievedShrink(origW, loadedW int) int {
	shrink := 1
	for loadedW > 0 && origW/(shrink*2) >= loadedW {
		shrink *= 2
	}
	return shrink
}

func (b *Backend) load(ctx context.Context, r io.Reader, shrink int) (*govips.ImageRef, error) {
	raw, err := drain(ctx, r)
	if err != nil {
		return nil, err
	}
	return loadBytes(raw, shrink)
}

func drain(ctx context.Context, r io.Reader) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := utils.DrainReader(ctx, r, 0)
	if err != nil {
		return nil, fmt.Errorf("vips: drain: %w", err)
	}
	raw := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)
	return raw, nil
}

func loadBytes(raw []byte, shrink int) (*govips.ImageRef, error) {
	params := govips.NewImportParams()
	if shrink > 1 {
		params.JpegShrinkFactor.Set(shrink)
	}
	ref, err := govips.LoadImageFromBuffer(raw, params)
	if err != nil {
		return nil, fmt.Errorf("vips: load: %w", err)
	}
	return ref, nil
}

// ─── OrientationReader ────────────────────────────────────────────────────────

func (b *Backend) ReadOrientation(ctx context.Context, r io.Reader) core.Orientation {
	ref, err := b.load(ctx, r, 1)
	if err != nil {
		return core.OrientationNormal
	}
	defer ref.Close()
	return core.OrientationFromEXIF(uint16(ref.Orientation()))
}

// ─── Encoder ──────────────────────────────────────────────────────────────────

// formatEncoder binds the backend to one output format.
type formatEncoder struct {
	backend *Backend
	format  core.Format
}

func (e *formatEncoder) CanEncode(f core.Format) bool { return f == e.format }

func (e *formatEncoder) Encode(ctx context.Context, buf *core.PixelBuffer, opts core.EncodeOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := buf.Image()
	if src == nil {
		return nil, fmt.Errorf("vips: nil buffer")
	}

	// Round-trip through PNG to hand the raster to libvips.
	pngBuf := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(pngBuf)
	if err := png.Encode(pngBuf, src); err != nil {
		return nil, fmt.Errorf("vips: convert: %w", err)
	}
	ref, err := govips.NewImageFromBuffer(utils.CloneBytes(pngBuf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("vips: load: %w", err)
	}
	defer ref.Close()

	quality := opts.Quality
	if quality <= 0 {
		quality = e.backend.cfg.DefaultQuality
	}

	switch e.format {
	case core.FormatJPEG:
		ep := govips.NewJpegExportParams()
		ep.Quality = quality
		ep.Interlace = opts.Interlaced
		out, _, err := ref.ExportJpeg(ep)
		if err != nil {
			return nil, fmt.Errorf("vips: encode jpeg: %w", err)
		}
		return out, nil
	case core.FormatPNG:
		ep := govips.NewPngExportParams()
		ep.Interlace = opts.Interlaced
		out, _, err := ref.ExportPng(ep)
		if err != nil {
			return nil, fmt.Errorf("vips: encode png: %w", err)
		}
		return out, nil
	case core.FormatWebP:
		ep := govips.NewWebpExportParams()
		ep.Quality = quality
		out, _, err := ref.ExportWebp(ep)
		if err != nil {
			return nil, fmt.Errorf("vips: encode webp: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("vips: unsupported format %s", e.format)
	}
}
