package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/okulov/photonorm/core"
)

// Pipeline executes a sequence of Stages over a single frame with hook
// support. It enforces the buffer-release discipline on every exit path:
// whatever raster the frame holds when a stage fails or the context is
// cancelled is released before the error is returned.
type Pipeline struct {
	stages []core.Stage
	hooks  []core.Hook
}

// New returns an empty Pipeline.
func New() *Pipeline { return &Pipeline{} }

// Use appends stages to the pipeline.  Returns the same Pipeline for chaining.
func (p *Pipeline) Use(s ...core.Stage) *Pipeline {
	p.stages = append(p.stages, s...)
	return p
}

// AddHook registers an observer.
func (p *Pipeline) AddHook(h core.Hook) *Pipeline {
	p.hooks = append(p.hooks, h)
	return p
}

// Run executes the stages on f strictly in order. Cancellation is checked
// only at stage boundaries; a stage in flight runs to completion. The
// returned map carries per-stage timings for the stages that ran.
func (p *Pipeline) Run(ctx context.Context, f *core.Frame) (map[string]time.Duration, error) {
	timings := make(map[string]time.Duration, len(p.stages))

	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			f.ReleaseBuffer()
			return timings, fmt.Errorf("%s: %w", stage.Name(), err)
		}

		sctx := ctx
		for _, h := range p.hooks {
			sctx = h.BeforeStage(sctx, stage.Name(), f)
		}

		start := time.Now()
		_, err := stage.Run(sctx, f)
		elapsed := time.Since(start)
		timings[stage.Name()] = elapsed

		for _, h := range p.hooks {
			h.AfterStage(sctx, stage.Name(), f, elapsed, err)
		}
		if err != nil {
			f.ReleaseBuffer()
			return timings, err
		}
	}
	return timings, nil
}

// Clone returns a shallow copy of the pipeline so a configured chain can be
// reused safely across goroutines.
func (p *Pipeline) Clone() *Pipeline {
	cp := &Pipeline{
		stages: make([]core.Stage, len(p.stages)),
		hooks:  make([]core.Hook, len(p.hooks)),
	}
	copy(cp.stages, p.stages)
	copy(cp.hooks, p.hooks)
	return cp
}
