package hooks

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okulov/photonorm/core"
)

// TracingHook opens an OpenTelemetry span around each pipeline stage. The
// caller supplies the Tracer; exporter and SDK wiring belong to the host
// application.
type TracingHook struct {
	tracer trace.Tracer
}

// NewTracingHook creates a TracingHook over tracer.
func NewTracingHook(tracer trace.Tracer) *TracingHook { return &TracingHook{tracer: tracer} }

func (h *TracingHook) BeforeStage(ctx context.Context, stage string, f *core.Frame) context.Context {
	if h.tracer == nil {
		return ctx
	}
	ctx, _ = h.tracer.Start(ctx, "pipeline."+stage,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("image.format", string(f.Format)),
			attribute.Int("image.width", f.Bounds.Width),
			attribute.Int("image.height", f.Bounds.Height),
			attribute.Int("image.sample", f.Sample),
		),
	)
	return ctx
}

func (h *TracingHook) AfterStage(ctx context.Context, _ string, f *core.Frame, _ time.Duration, err error) {
	if h.tracer == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if f.Buffer != nil {
		span.SetAttributes(
			attribute.Int("buffer.width", f.Buffer.Width()),
			attribute.Int("buffer.height", f.Buffer.Height()),
		)
	}
	span.End()
}
