package observability

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	goerrors "github.com/kbukum/monometrics/errors"
	"github.com/kbukum/monometrics/metrics"
	"github.com/kbukum/monometrics/mono"
)

type fixedStepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *fixedStepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func newSpanRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, tp
}

func keepCurrent(t *testing.T) {
	t.Helper()
	prev := metrics.SetCurrent(nil)
	t.Cleanup(func() { metrics.SetCurrent(prev) })
}

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure to be true")
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tc := range tests {
		if got := sampler(tc.rate).Description(); got != tc.want {
			t.Errorf("sampler(%v) = %q, want %q", tc.rate, got, tc.want)
		}
	}
}

func TestSpanRegistry_Flow(t *testing.T) {
	sr, tp := newSpanRecorder(t)
	reg := NewSpanRegistry(tp.Tracer("test"))
	clock := &fixedStepClock{now: time.Unix(100, 0), step: 20 * time.Millisecond}

	src := mono.Tagged(mono.Named(mono.Just(1), "users.load"), "region", "eu")
	if _, _, err := mono.Block(context.Background(), metrics.New(src, metrics.WithRegistry(reg), metrics.WithClock(clock))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "users.load" {
		t.Errorf("expected span users.load, got %s", span.Name())
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("expected OK status, got %v", span.Status())
	}
	if d := span.EndTime().Sub(span.StartTime()); d != 20*time.Millisecond {
		t.Errorf("expected the span to cover the flow duration, got %v", d)
	}

	attrs := map[string]string{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["region"] != "eu" || attrs[AttrStatus] != "success" || attrs[AttrDurationMs] != "20" {
		t.Errorf("unexpected attributes %v", attrs)
	}
	if _, ok := attrs[AttrException]; ok {
		t.Error("success spans carry no exception")
	}
}

func TestSpanRegistry_ErrorAndCancel(t *testing.T) {
	sr, tp := newSpanRecorder(t)
	reg := NewSpanRegistry(tp.Tracer("test"))

	_, _, err := mono.Block(context.Background(), metrics.New(mono.Error[int](goerrors.Cancelled("x")), metrics.WithRegistry(reg)))
	if err == nil {
		t.Fatal("expected the error to be forwarded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := mono.Block(ctx, metrics.New(mono.Never[int](), metrics.WithRegistry(reg))); err == nil {
		t.Fatal("expected the context error")
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected two spans, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error || spans[0].Status().Description != string(goerrors.ErrCodeCancelled) {
		t.Errorf("unexpected error status %v", spans[0].Status())
	}
	if spans[1].Status().Code != codes.Unset {
		t.Errorf("cancelled flows leave the status unset, got %v", spans[1].Status())
	}
}

func TestSpanRegistry_ParentAndMalformedEvent(t *testing.T) {
	sr, tp := newSpanRecorder(t)
	reg := NewSpanRegistry(tp.Tracer("test"))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "request")
	if _, _, err := mono.Block(ctx, metrics.New(mono.Named(mono.Just(1), "child"), metrics.WithRegistry(reg))); err != nil {
		t.Fatal(err)
	}
	if err := reg.Record(ctx, metrics.Measurement{Identity: metrics.Identity{Name: "child"}, Kind: metrics.KindMalformed}); err != nil {
		t.Fatal(err)
	}
	parent.End()

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected two spans, got %d", len(spans))
	}
	child, root := spans[0], spans[1]
	if child.Parent().SpanID() != root.SpanContext().SpanID() {
		t.Error("flow span must be a child of the subscribing span")
	}
	events := root.Events()
	if len(events) != 1 || events[0].Name != EventMalformedSource {
		t.Errorf("expected a malformed source event, got %v", events)
	}
}

func TestSetup_Disabled(t *testing.T) {
	keepCurrent(t)

	b, err := Setup(context.Background(), "svc", metrics.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Registry != nil || b.Installed() || metrics.Available() {
		t.Error("a disabled config must install nothing")
	}
	if err := b.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestSetup_None(t *testing.T) {
	keepCurrent(t)

	b, err := Setup(context.Background(), "svc", metrics.Config{Enabled: true, Backend: metrics.BackendNone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := b.Registry.(metrics.NopRegistry); !ok {
		t.Errorf("expected a NopRegistry, got %T", b.Registry)
	}
	if metrics.Available() {
		t.Error("the none backend must not enable instrumentation")
	}
}

func TestSetup_InvalidConfig(t *testing.T) {
	keepCurrent(t)

	tests := []struct {
		name string
		cfg  metrics.Config
	}{
		{"unknown backend", metrics.Config{Enabled: true, Backend: "statsd"}},
		{"unsorted buckets", metrics.Config{Enabled: true, Backend: metrics.BackendPrometheus, Buckets: []float64{1, 0.5}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Setup(context.Background(), "svc", tc.cfg, WithPrometheusRegistry(prometheus.NewRegistry()))
			if !goerrors.HasCode(err, goerrors.ErrCodeInvalidConfig) {
				t.Errorf("expected INVALID_CONFIG, got %v", err)
			}
			if b != nil || metrics.Available() {
				t.Error("an invalid config must install nothing")
			}
		})
	}
}

func TestSetup_Prometheus(t *testing.T) {
	keepCurrent(t)
	preg := prometheus.NewRegistry()

	b, err := Setup(context.Background(), "svc",
		metrics.Config{Enabled: true, Backend: metrics.BackendPrometheus, Namespace: "svc"},
		WithPrometheusRegistry(preg),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Installed() || !metrics.Available() {
		t.Fatal("expected the registry to be installed")
	}

	users := metrics.Instrument(mono.Named(mono.Just(1), "users.load"))
	if _, _, err := mono.Block(context.Background(), users); err != nil {
		t.Fatal(err)
	}

	expected := `
# HELP svc_users_load_subscribed_total Number of subscriptions
# TYPE svc_users_load_subscribed_total counter
svc_users_load_subscribed_total 1
`
	if err := testutil.GatherAndCompare(b.Gatherer, strings.NewReader(expected), "svc_users_load_subscribed_total"); err != nil {
		t.Error(err)
	}

	if err := b.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
	if metrics.Available() {
		t.Error("shutdown must restore the previous registry")
	}
}

func TestSetup_OTelWithTraces(t *testing.T) {
	keepCurrent(t)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	sr, tp := newSpanRecorder(t)

	b, err := Setup(context.Background(), "svc",
		metrics.Config{Enabled: true, Backend: metrics.BackendOTel, Traces: true},
		WithMeterProvider(mp),
		WithTracerProvider(tp),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = b.Shutdown(context.Background()) })

	if _, _, err := mono.Block(context.Background(), metrics.Instrument(mono.Named(mono.Just(1), "users.load"))); err != nil {
		t.Fatal(err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != metrics.DefaultName {
			t.Errorf("expected the namespace as meter name, got %q", sm.Scope.Name)
		}
		for _, m := range sm.Metrics {
			if m.Name == "users.load.flow.duration" {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected the flow histogram")
	}
	if len(sr.Ended()) != 1 {
		t.Errorf("expected one flow span, got %d", len(sr.Ended()))
	}
}
