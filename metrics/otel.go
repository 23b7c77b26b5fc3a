package metrics

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterFlowDuration = ".flow.duration"
	meterSubscribed   = ".subscribed"
	meterMalformed    = ".malformed.source"

	attrStatus    = "status"
	attrException = "exception"
)

// OTelRegistry records measurements on OpenTelemetry instruments. The
// instruments for an identity name are created on first use and cached.
type OTelRegistry struct {
	meter   metric.Meter
	buckets []float64

	instruments sync.Map // identity name -> *otelInstruments
}

type otelInstruments struct {
	duration   metric.Float64Histogram
	subscribed metric.Int64Counter
	malformed  metric.Int64Counter
}

// OTelOption configures an OTelRegistry.
type OTelOption func(*OTelRegistry)

// WithHistogramBuckets sets explicit bucket boundaries, in seconds, for flow durations.
func WithHistogramBuckets(bounds ...float64) OTelOption {
	return func(r *OTelRegistry) { r.buckets = bounds }
}

// NewOTelRegistry creates a registry recording on meter.
func NewOTelRegistry(meter metric.Meter, opts ...OTelOption) *OTelRegistry {
	r := &OTelRegistry{meter: meter}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record implements Registry.
func (r *OTelRegistry) Record(ctx context.Context, m Measurement) error {
	inst, err := r.instrumentsFor(m.Identity.Name)
	if err != nil {
		return err
	}

	switch m.Kind {
	case KindFlow:
		attrs := append(tagAttributes(m.Identity, 2),
			attribute.String(attrStatus, string(m.Outcome)),
			attribute.String(attrException, m.Exception),
		)
		inst.duration.Record(ctx, m.Duration.Seconds(), metric.WithAttributes(attrs...))
	case KindSubscribed:
		inst.subscribed.Add(ctx, 1, metric.WithAttributes(tagAttributes(m.Identity, 0)...))
	case KindMalformed:
		inst.malformed.Add(ctx, 1, metric.WithAttributes(tagAttributes(m.Identity, 0)...))
	default:
		return fmt.Errorf("unknown measurement kind %d", m.Kind)
	}
	return nil
}

func (r *OTelRegistry) instrumentsFor(name string) (*otelInstruments, error) {
	if cached, ok := r.instruments.Load(name); ok {
		return cached.(*otelInstruments), nil
	}

	histOpts := []metric.Float64HistogramOption{
		metric.WithDescription("Time from subscription to outcome"),
		metric.WithUnit("s"),
	}
	if len(r.buckets) > 0 {
		histOpts = append(histOpts, metric.WithExplicitBucketBoundaries(r.buckets...))
	}
	duration, err := r.meter.Float64Histogram(name+meterFlowDuration, histOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", name+meterFlowDuration, err)
	}

	subscribed, err := r.meter.Int64Counter(name+meterSubscribed,
		metric.WithDescription("Number of subscriptions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", name+meterSubscribed, err)
	}

	malformed, err := r.meter.Int64Counter(name+meterMalformed,
		metric.WithDescription("Signals received after the source terminated"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", name+meterMalformed, err)
	}

	inst := &otelInstruments{duration: duration, subscribed: subscribed, malformed: malformed}
	actual, _ := r.instruments.LoadOrStore(name, inst)
	return actual.(*otelInstruments), nil
}

func tagAttributes(id Identity, extra int) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(id.Tags)+extra)
	for _, t := range id.Tags {
		attrs = append(attrs, attribute.String(t.Key, t.Value))
	}
	return attrs
}
