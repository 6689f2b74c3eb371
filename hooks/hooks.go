// Package hooks provides production-ready Hook, Logger, and metrics
// implementations for observing pipeline stages.
package hooks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/okulov/photonorm/core"
)

// ── Structured logger adapter ─────────────────────────────────────────────────

// SlogLogger wraps the standard library slog.Logger to satisfy core.Logger.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger creates a logger backed by slog.
func NewSlogLogger(l *slog.Logger) *SlogLogger { return &SlogLogger{log: l} }

func (s *SlogLogger) Debug(msg string, fields ...interface{}) { s.log.Debug(msg, fields...) }
func (s *SlogLogger) Info(msg string, fields ...interface{})  { s.log.Info(msg, fields...) }
func (s *SlogLogger) Warn(msg string, fields ...interface{})  { s.log.Warn(msg, fields...) }
func (s *SlogLogger) Error(msg string, fields ...interface{}) { s.log.Error(msg, fields...) }

// ── Logging hook ──────────────────────────────────────────────────────────────

// LoggingHook logs stage boundaries, including soft failures the pipeline
// absorbed as degradations.
type LoggingHook struct {
	logger core.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) BeforeStage(ctx context.Context, stage string, f *core.Frame) context.Context {
	h.logger.Debug("pipeline.stage.start",
		"stage", stage,
		"format", string(f.Format),
		"bounds", f.Bounds.String(),
		"sample", f.Sample,
	)
	return ctx
}

func (h *LoggingHook) AfterStage(_ context.Context, stage string, f *core.Frame, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("pipeline.stage.error",
			"stage", stage,
			"duration_ms", d.Milliseconds(),
			"error", err.Error(),
		)
		return
	}
	if n := len(f.Degradations); n > 0 {
		last := f.Degradations[n-1]
		if last.Stage == stage {
			h.logger.Warn("pipeline.stage.degraded",
				"stage", stage,
				"duration_ms", d.Milliseconds(),
				"cause", last.Err.Error(),
			)
			return
		}
	}
	h.logger.Debug("pipeline.stage.done",
		"stage", stage,
		"duration_ms", d.Milliseconds(),
		"buffer", f.Buffer.Bounds().String(),
	)
}

// ── In-memory metrics collector ───────────────────────────────────────────────

// InMemoryMetrics accumulates observations in maps; safe for concurrent use.
// Intended for tests and lightweight embedding.
type InMemoryMetrics struct {
	mu sync.RWMutex

	jobsByStatus    map[string]int64
	stageDurationMs map[string]int64
	stageCalls      map[string]int64
	degradations    map[string]int64
	activeJobs      int64
	outputBytes     int64
}

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		jobsByStatus:    make(map[string]int64),
		stageDurationMs: make(map[string]int64),
		stageCalls:      make(map[string]int64),
		degradations:    make(map[string]int64),
	}
}

func (m *InMemoryMetrics) JobStarted() {
	m.mu.Lock()
	m.activeJobs++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) JobFinished(status string, _ time.Duration, outputBytes int64) {
	m.mu.Lock()
	m.activeJobs--
	m.jobsByStatus[status]++
	m.outputBytes += outputBytes
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordStageDuration(stage string, d time.Duration) {
	m.mu.Lock()
	m.stageDurationMs[stage] += d.Milliseconds()
	m.stageCalls[stage]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordDegradation(stage string) {
	m.mu.Lock()
	m.degradations[stage]++
	m.mu.Unlock()
}

// MetricsSnapshot is an immutable point-in-time copy of metrics.
type MetricsSnapshot struct {
	JobsByStatus    map[string]int64
	StageDurationMs map[string]int64
	StageCalls      map[string]int64
	Degradations    map[string]int64
	ActiveJobs      int64
	OutputBytes     int64
}

// Snapshot returns a copy of current metrics.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		JobsByStatus:    make(map[string]int64, len(m.jobsByStatus)),
		StageDurationMs: make(map[string]int64, len(m.stageDurationMs)),
		StageCalls:      make(map[string]int64, len(m.stageCalls)),
		Degradations:    make(map[string]int64, len(m.degradations)),
		ActiveJobs:      m.activeJobs,
		OutputBytes:     m.outputBytes,
	}
	for k, v := range m.jobsByStatus {
		snap.JobsByStatus[k] = v
	}
	for k, v := range m.stageDurationMs {
		snap.StageDurationMs[k] = v
	}
	for k, v := range m.stageCalls {
		snap.StageCalls[k] = v
	}
	for k, v := range m.degradations {
		snap.Degradations[k] = v
	}
	return snap
}

// ── Metrics hook ──────────────────────────────────────────────────────────────

// MetricsHook feeds stage-level events into a MetricsCollector. Job-level
// events come from the processor itself via SetMetrics.
type MetricsHook struct {
	collector core.MetricsCollector
}

// NewMetricsHook creates a MetricsHook.
func NewMetricsHook(c core.MetricsCollector) *MetricsHook { return &MetricsHook{collector: c} }

func (h *MetricsHook) BeforeStage(ctx context.Context, _ string, _ *core.Frame) context.Context {
	return ctx
}

func (h *MetricsHook) AfterStage(_ context.Context, stage string, f *core.Frame, d time.Duration, err error) {
	h.collector.RecordStageDuration(stage, d)
	if err != nil {
		return
	}
	if n := len(f.Degradations); n > 0 && f.Degradations[n-1].Stage == stage {
		h.collector.RecordDegradation(stage)
	}
}
