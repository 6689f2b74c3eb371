package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okulov/photonorm/config"
	apperrors "github.com/okulov/photonorm/errors"
)

// Processor is the central orchestrator: it runs the stage chain over one
// source per invocation and owns an optional worker pool for async and batch
// use. Invocations share no mutable state, so a Processor is safe for
// concurrent use without limit; the pool is a convenience bound, not a
// correctness requirement.
type Processor struct {
	cfg      config.Config
	registry Registry
	stages   []Stage
	hooks    []Hook
	logger   Logger
	metrics  MetricsCollector

	// Worker pool.
	jobQueue  chan Job
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	shutdown  chan struct{}

	processed atomic.Int64
	failed    atomic.Int64
	degraded  atomic.Int64
}

// NewProcessor creates a Processor running the given stage chain. Call
// Start() before submitting async jobs; call Stop() when done. Synchronous
// Process calls work without Start.
func NewProcessor(cfg config.Config, reg Registry, stages []Stage) *Processor {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Processor{
		cfg:      cfg,
		registry: reg,
		stages:   stages,
		jobQueue: make(chan Job, queueSize),
		shutdown: make(chan struct{}),
	}
}

// SetLogger attaches a structured logger.
func (p *Processor) SetLogger(l Logger) { p.logger = l }

// SetMetrics attaches a metrics collector for job-level observations.
func (p *Processor) SetMetrics(m MetricsCollector) { p.metrics = m }

// AddHook registers a stage-boundary observer.
func (p *Processor) AddHook(h Hook) { p.hooks = append(p.hooks, h) }

// Registry returns the underlying registry so callers can swap codecs after
// construction.
func (p *Processor) Registry() Registry { return p.registry }

// Start launches the worker pool.  It is idempotent.
func (p *Processor) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workerCount(); i++ {
			p.wg.Add(1)
			go p.worker()
		}
	})
}

// Stop shuts down all workers.  Queued jobs that no worker picked up before
// shutdown are not processed.
func (p *Processor) Stop() {
	p.stopOnce.Do(func() { close(p.shutdown) })
	p.wg.Wait()
}

func (p *Processor) workerCount() int {
	if p.cfg.WorkerCount > 0 {
		return p.cfg.WorkerCount
	}
	return runtime.NumCPU()
}

// Process runs one full invocation synchronously on the caller's goroutine:
// probe, decode, orient, resize, encode. The returned Result holds the
// encoded bytes; every intermediate buffer has been released by the time it
// returns, on success and failure alike.
func (p *Processor) Process(ctx context.Context, src Source) (*Result, error) {
	return p.ProcessWithOptions(ctx, src, JobOptions{})
}

// ProcessWithOptions is Process with per-invocation encode overrides.
func (p *Processor) ProcessWithOptions(ctx context.Context, src Source, opts JobOptions) (*Result, error) {
	if src == nil {
		return nil, apperrors.Decode(StageProbe, apperrors.ErrEmptyInput)
	}
	// Reader sources drain on first open; hand them the configured bounds
	// unless the caller set their own.
	if rs, ok := src.(*ReaderSource); ok {
		if rs.MaxBytes == 0 && p.cfg.MaxSourceBytes > 0 {
			rs.MaxBytes = p.cfg.MaxSourceBytes
		}
		if rs.ChunkSize == 0 {
			rs.ChunkSize = p.cfg.DrainChunkSize
		}
	}
	if p.metrics != nil {
		p.metrics.JobStarted()
	}

	start := time.Now()
	f := &Frame{
		Source:  src,
		Quality: opts.Quality,
		Output:  opts.Output,
	}

	timings := make(map[string]time.Duration, len(p.stages))
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			f.ReleaseBuffer()
			return nil, p.fail(src, start, fmt.Errorf("%s: %w", stage.Name(), err))
		}

		sctx := ctx
		for _, h := range p.hooks {
			sctx = h.BeforeStage(sctx, stage.Name(), f)
		}

		t := time.Now()
		_, err := stage.Run(sctx, f)
		elapsed := time.Since(t)
		timings[stage.Name()] = elapsed

		for _, h := range p.hooks {
			h.AfterStage(sctx, stage.Name(), f, elapsed, err)
		}
		if err != nil {
			f.ReleaseBuffer()
			return nil, p.fail(src, start, err)
		}
	}

	res := &Result{
		Data:           f.Encoded,
		Format:         f.Output,
		Width:          f.Buffer.Width(),
		Height:         f.Buffer.Height(),
		SourceBounds:   f.Bounds,
		SampleSize:     f.Sample,
		Orientation:    f.Orientation,
		Degradations:   f.Degradations,
		ProcessingTime: time.Since(start),
		StageTimings:   timings,
	}
	// The encoded bytes are the output now; drop the final raster.
	f.ReleaseBuffer()

	p.processed.Add(1)
	status := StatusOK
	if len(res.Degradations) > 0 {
		p.degraded.Add(1)
		status = StatusDegraded
	}
	if p.metrics != nil {
		p.metrics.JobFinished(status, res.ProcessingTime, int64(len(res.Data)))
	}
	if p.logger != nil {
		p.logger.Debug("pipeline.done",
			"source", src.Name(),
			"output", fmt.Sprintf("%dx%d %s %dB", res.Width, res.Height, res.Format, len(res.Data)),
			"sample", res.SampleSize,
			"orientation", res.Orientation.String(),
			"degradations", len(res.Degradations),
			"duration_ms", res.ProcessingTime.Milliseconds(),
		)
	}
	return res, nil
}

func (p *Processor) fail(src Source, start time.Time, err error) error {
	p.failed.Add(1)
	if p.metrics != nil {
		p.metrics.JobFinished(StatusFailed, time.Since(start), 0)
	}
	if p.logger != nil {
		p.logger.Error("pipeline.failed",
			"source", src.Name(),
			"error", err.Error(),
		)
	}
	return err
}

// Submit enqueues an async job and returns the channel its JobResult will
// arrive on. Returns ErrQueueFull when the queue is at capacity.
func (p *Processor) Submit(job Job) (<-chan JobResult, error) {
	if job.ID == "" {
		job.ID = newJobID()
	}
	if job.ResultCh == nil {
		job.ResultCh = make(chan JobResult, 1)
	}
	select {
	case p.jobQueue <- job:
		return job.ResultCh, nil
	default:
		return nil, apperrors.ErrQueueFull
	}
}

// Batch processes sources concurrently across the pool width and returns
// results in input order.
func (p *Processor) Batch(ctx context.Context, sources []Source) []JobResult {
	results := make([]JobResult, len(sources))
	sem := make(chan struct{}, p.workerCount())
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			r, err := p.Process(ctx, s)
			results[idx] = JobResult{JobID: fmt.Sprintf("batch-%d", idx), Result: r, Err: err}
		}(i, src)
	}
	wg.Wait()
	return results
}

// Stats returns a snapshot of the processor counters.
func (p *Processor) Stats() Stats {
	return Stats{
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
		Degraded:  p.degraded.Load(),
	}
}

// ── worker pool internals ─────────────────────────────────────────────────────

func (p *Processor) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.shutdown:
			return
		case job := <-p.jobQueue:
			p.processJob(job)
		}
	}
}

func (p *Processor) processJob(job Job) {
	ctx := job.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := p.cfg.JobTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := p.ProcessWithOptions(ctx, job.Source, job.Options)
	if job.ResultCh != nil {
		job.ResultCh <- JobResult{JobID: job.ID, Result: result, Err: err}
	}
}

func newJobID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("job-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
