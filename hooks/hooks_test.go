package hooks

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/okulov/photonorm/core"
)

func testFrame(t *testing.T) *core.Frame {
	t.Helper()
	f := &core.Frame{
		Format: core.FormatJPEG,
		Bounds: core.Bounds{Width: 100, Height: 80},
		Sample: 1,
		Buffer: core.NewPixelBuffer(image.NewNRGBA(image.Rect(0, 0, 100, 80))),
	}
	t.Cleanup(f.ReleaseBuffer)
	return f
}

func TestInMemoryMetrics(t *testing.T) {
	m := NewInMemoryMetrics()

	m.JobStarted()
	m.JobStarted()
	m.RecordStageDuration(core.StageDecode, 20*time.Millisecond)
	m.RecordStageDuration(core.StageDecode, 30*time.Millisecond)
	m.RecordDegradation(core.StageOrient)
	m.JobFinished(core.StatusOK, 50*time.Millisecond, 4096)
	m.JobFinished(core.StatusFailed, 10*time.Millisecond, 0)

	snap := m.Snapshot()
	if snap.ActiveJobs != 0 {
		t.Errorf("active jobs: got %d", snap.ActiveJobs)
	}
	if snap.JobsByStatus[core.StatusOK] != 1 || snap.JobsByStatus[core.StatusFailed] != 1 {
		t.Errorf("jobs by status: %v", snap.JobsByStatus)
	}
	if snap.StageCalls[core.StageDecode] != 2 {
		t.Errorf("stage calls: %v", snap.StageCalls)
	}
	if snap.StageDurationMs[core.StageDecode] != 50 {
		t.Errorf("stage duration: %v", snap.StageDurationMs)
	}
	if snap.Degradations[core.StageOrient] != 1 {
		t.Errorf("degradations: %v", snap.Degradations)
	}
	if snap.OutputBytes != 4096 {
		t.Errorf("output bytes: got %d", snap.OutputBytes)
	}
}

func TestMetricsHook_RecordsDegradationOnce(t *testing.T) {
	m := NewInMemoryMetrics()
	h := NewMetricsHook(m)
	ctx := context.Background()
	f := testFrame(t)

	// Clean stage: duration only.
	h.AfterStage(ctx, core.StageDecode, f, time.Millisecond, nil)
	// Orient degrades.
	f.Degrade(core.StageOrient, errors.New("rotate failed"))
	h.AfterStage(ctx, core.StageOrient, f, time.Millisecond, nil)
	// Later stage must not re-count the orient degradation.
	h.AfterStage(ctx, core.StageResize, f, time.Millisecond, nil)

	snap := m.Snapshot()
	if snap.Degradations[core.StageOrient] != 1 {
		t.Errorf("orient degradations: got %d, want 1", snap.Degradations[core.StageOrient])
	}
	if snap.Degradations[core.StageResize] != 0 {
		t.Errorf("resize degradations: got %d, want 0", snap.Degradations[core.StageResize])
	}
	if snap.StageCalls[core.StageDecode] != 1 || snap.StageCalls[core.StageResize] != 1 {
		t.Errorf("stage calls: %v", snap.StageCalls)
	}
}

func TestLoggingHook(t *testing.T) {
	var out bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug})))
	h := NewLoggingHook(logger)
	ctx := context.Background()
	f := testFrame(t)

	h.BeforeStage(ctx, core.StageDecode, f)
	h.AfterStage(ctx, core.StageDecode, f, time.Millisecond, nil)
	if !strings.Contains(out.String(), "pipeline.stage.start") || !strings.Contains(out.String(), "pipeline.stage.done") {
		t.Errorf("missing start/done events:\n%s", out.String())
	}

	out.Reset()
	f.Degrade(core.StageOrient, errors.New("rotate failed"))
	h.AfterStage(ctx, core.StageOrient, f, time.Millisecond, nil)
	if !strings.Contains(out.String(), "pipeline.stage.degraded") {
		t.Errorf("missing degraded event:\n%s", out.String())
	}

	out.Reset()
	h.AfterStage(ctx, core.StageEncode, f, time.Millisecond, errors.New("boom"))
	if !strings.Contains(out.String(), "pipeline.stage.error") {
		t.Errorf("missing error event:\n%s", out.String())
	}
}
