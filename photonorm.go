// Package photonorm normalizes arbitrary user-supplied photos into
// correctly oriented, size-bounded, compressed JPEG byte streams suitable
// for upload to a remote store.
//
// Each invocation probes the source bounds without touching pixel data,
// decodes at a power-of-two sample factor that keeps peak memory bounded,
// corrects the EXIF orientation, resizes to the configured maximum dimension
// preserving aspect ratio, and encodes the result. Orientation and resize
// failures degrade gracefully; probe, decode and encode failures abort.
package photonorm

import (
	"context"
	"io"

	"github.com/okulov/photonorm/adapters/decoder"
	"github.com/okulov/photonorm/adapters/encoder"
	"github.com/okulov/photonorm/adapters/exif"
	"github.com/okulov/photonorm/config"
	"github.com/okulov/photonorm/core"
	"github.com/okulov/photonorm/pipeline"
)

// Re-export Format constants for convenience.
const (
	JPEG = core.FormatJPEG
	PNG  = core.FormatPNG
	WebP = core.FormatWebP
)

// DefaultConfig returns the production defaults: quality 85 JPEG output
// bounded to 1024 px on the longer side.
func DefaultConfig() config.Config { return config.Default() }

// Option customises a Processor under construction.
type Option func(*builder)

type builder struct {
	cfg     config.Config
	logger  core.Logger
	metrics core.MetricsCollector
	hooks   []core.Hook
	reg     core.Registry
}

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(b *builder) { b.cfg = cfg }
}

// WithLogger attaches a structured logger.
func WithLogger(l core.Logger) Option {
	return func(b *builder) { b.logger = l }
}

// WithMetrics attaches a metrics collector for job-level observations.
func WithMetrics(m core.MetricsCollector) Option {
	return func(b *builder) { b.metrics = m }
}

// WithHooks registers stage-boundary observers.
func WithHooks(hooks ...core.Hook) Option {
	return func(b *builder) { b.hooks = append(b.hooks, hooks...) }
}

// WithRegistry replaces the default codec registry, e.g. with one carrying
// the libvips backend. The registry must have decoders and encoders for
// every format the caller feeds in.
func WithRegistry(reg core.Registry) Option {
	return func(b *builder) { b.reg = reg }
}

// Processor is the primary entry point.
type Processor struct {
	inner *core.Processor
	reg   core.Registry
}

// New creates a fully wired Processor: pure-Go JPEG, PNG, GIF, WebP and BMP
// decoders, JPEG and PNG encoders, and the imagemeta orientation reader.
func New(opts ...Option) (*Processor, error) {
	b := &builder{cfg: config.Default()}
	for _, opt := range opts {
		opt(b)
	}
	if err := config.Validate(b.cfg); err != nil {
		return nil, err
	}

	reg := b.reg
	if reg == nil {
		reg = DefaultRegistry(b.cfg)
	}

	inner := core.NewProcessor(b.cfg, reg, pipeline.Default(b.cfg, reg))
	if b.logger != nil {
		inner.SetLogger(b.logger)
	}
	if b.metrics != nil {
		inner.SetMetrics(b.metrics)
	}
	for _, h := range b.hooks {
		inner.AddHook(h)
	}
	return &Processor{inner: inner, reg: reg}, nil
}

// DefaultRegistry builds the pure-Go codec registry: jpegn-backed JPEG,
// stdlib PNG/GIF, x/image WebP/BMP decode, JPEG/PNG encode, imagemeta
// orientation reading.
func DefaultRegistry(cfg config.Config) *core.DefaultRegistry {
	reg := core.NewRegistry()
	reg.RegisterDecoder(core.FormatJPEG, decoder.NewJPEG())
	reg.RegisterDecoder(core.FormatPNG, decoder.NewPNG())
	reg.RegisterDecoder(core.FormatGIF, decoder.NewGIF())
	reg.RegisterDecoder(core.FormatWebP, decoder.NewWebP())
	reg.RegisterDecoder(core.FormatBMP, decoder.NewBMP())
	reg.RegisterEncoder(core.FormatJPEG, encoder.NewJPEG(cfg.Quality))
	reg.RegisterEncoder(core.FormatPNG, encoder.NewPNG())
	reg.SetOrientationReader(exif.NewReader())
	return reg
}

// RegisterDecoder registers a custom decoder for the given format.
func (p *Processor) RegisterDecoder(f core.Format, d core.Decoder) { p.reg.RegisterDecoder(f, d) }

// RegisterEncoder registers a custom encoder for the given format.
func (p *Processor) RegisterEncoder(f core.Format, e core.Encoder) { p.reg.RegisterEncoder(f, e) }

// Start starts the background worker pool. Synchronous Process calls work
// without it.
func (p *Processor) Start() { p.inner.Start() }

// Stop drains and shuts down the worker pool.
func (p *Processor) Stop() { p.inner.Stop() }

// Process runs one invocation synchronously: probe, decode, orient, resize,
// encode. The Result carries the encoded bytes and per-stage observations.
func (p *Processor) Process(ctx context.Context, src core.Source) (*core.Result, error) {
	return p.inner.Process(ctx, src)
}

// Batch processes sources concurrently across the pool width; results come
// back in input order.
func (p *Processor) Batch(ctx context.Context, sources []core.Source) []core.JobResult {
	return p.inner.Batch(ctx, sources)
}

// Submit enqueues an async job for the worker pool and returns its result
// channel. Requires Start.
func (p *Processor) Submit(job core.Job) (<-chan core.JobResult, error) {
	return p.inner.Submit(job)
}

// Stats returns processing counters.
func (p *Processor) Stats() core.Stats { return p.inner.Stats() }

// NewPipeline creates a reusable standalone pipeline over custom stages,
// sharing no state with the processor's own chain.
func (p *Processor) NewPipeline(stages ...core.Stage) *pipeline.Pipeline {
	return pipeline.New().Use(stages...)
}

// ── Source constructors ───────────────────────────────────────────────────────

// FromFile creates a Source that reopens the file at path for each stage.
func FromFile(path string) core.Source { return core.NewFileSource(path) }

// FromBytes creates a Source over an in-memory byte slice.
func FromBytes(b []byte) core.Source { return core.NewBytesSource(b) }

// FromReader adapts a one-shot reader; it is drained into memory (bounded)
// on first use so the pipeline can reopen it per stage.
func FromReader(r io.Reader) core.Source { return core.NewReaderSource(r) }
