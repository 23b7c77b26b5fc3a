package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/monometrics/metrics"
)

// Span attribute keys.
const (
	AttrStatus     = "status"
	AttrException  = "exception"
	AttrDurationMs = "duration_ms"
	AttrStage      = "stage"
)

// EventMalformedSource is added to the active span when a source signals
// after terminating.
const EventMalformedSource = "malformed source"

// SpanRegistry is a metrics.Registry that turns every flow into a span
// named after the stage, backdated to the moment of subscription. Flow
// spans are children of the span active in the subscribing context.
type SpanRegistry struct {
	tracer trace.Tracer
	now    func() time.Time
}

// NewSpanRegistry creates a registry starting spans on tracer.
func NewSpanRegistry(tracer trace.Tracer) *SpanRegistry {
	return &SpanRegistry{tracer: tracer, now: time.Now}
}

// Record implements metrics.Registry.
func (r *SpanRegistry) Record(ctx context.Context, m metrics.Measurement) error {
	switch m.Kind {
	case metrics.KindFlow:
		r.recordFlow(ctx, m)
	case metrics.KindMalformed:
		span := trace.SpanFromContext(ctx)
		if span.IsRecording() {
			span.AddEvent(EventMalformedSource, trace.WithAttributes(attribute.String(AttrStage, m.Identity.String())))
		}
	}
	return nil
}

func (r *SpanRegistry) recordFlow(ctx context.Context, m metrics.Measurement) {
	end := r.now()
	attrs := make([]attribute.KeyValue, 0, len(m.Identity.Tags)+3)
	for _, t := range m.Identity.Tags {
		attrs = append(attrs, attribute.String(t.Key, t.Value))
	}
	attrs = append(attrs,
		attribute.String(AttrStatus, string(m.Outcome)),
		attribute.Int64(AttrDurationMs, m.Duration.Milliseconds()),
	)
	if m.Exception != "" {
		attrs = append(attrs, attribute.String(AttrException, m.Exception))
	}

	_, span := r.tracer.Start(ctx, m.Identity.Name,
		trace.WithTimestamp(end.Add(-m.Duration)),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	switch m.Outcome {
	case metrics.OutcomeError:
		span.SetStatus(codes.Error, m.Exception)
	case metrics.OutcomeSuccess:
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}
