package metrics

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/monometrics/mono"
	"github.com/kbukum/monometrics/mono/testutil"
)

func newManualMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func attr(set attribute.Set, key string) string {
	v, ok := set.Value(attribute.Key(key))
	if !ok {
		return "<missing>"
	}
	return v.AsString()
}

func TestOTelRegistry_FlowAndSubscribed(t *testing.T) {
	reader, provider := newManualMeter(t)
	reg := NewOTelRegistry(provider.Meter("test"), WithHistogramBuckets(0.001, 0.01, 1))
	clock := &stepClock{now: time.Unix(0, 0), step: 5 * time.Millisecond}

	ok := mono.Tagged(mono.Named(mono.Just(1), "users.load"), "region", "eu")
	failing := mono.Tagged(mono.Named(mono.Error[int](errBoom), "users.load"), "region", "eu")
	run(t, New(ok, WithRegistry(reg), WithClock(clock)), nil, mono.FusionSync)
	run(t, New(failing, WithRegistry(reg), WithClock(clock)), nil, mono.FusionNone)

	got := collect(t, reader)

	flow, found := got["users.load.flow.duration"]
	if !found {
		t.Fatalf("flow histogram not recorded, have %v", got)
	}
	if flow.Unit != "s" {
		t.Errorf("unit: got %q, want s", flow.Unit)
	}
	hist, isHist := flow.Data.(metricdata.Histogram[float64])
	if !isHist {
		t.Fatalf("expected a float64 histogram, got %T", flow.Data)
	}
	if len(hist.DataPoints) != 2 {
		t.Fatalf("expected one point per status, got %d", len(hist.DataPoints))
	}
	for _, dp := range hist.DataPoints {
		if attr(dp.Attributes, "region") != "eu" {
			t.Errorf("region attribute: got %q", attr(dp.Attributes, "region"))
		}
		if dp.Count != 1 {
			t.Errorf("count: got %d, want 1", dp.Count)
		}
		if len(dp.Bounds) != 3 {
			t.Errorf("bounds: got %v", dp.Bounds)
		}
		switch attr(dp.Attributes, attrStatus) {
		case "success":
			if attr(dp.Attributes, attrException) != "" {
				t.Errorf("success must carry an empty exception, got %q", attr(dp.Attributes, attrException))
			}
		case "error":
			if attr(dp.Attributes, attrException) != "*errors.errorString" {
				t.Errorf("exception: got %q", attr(dp.Attributes, attrException))
			}
		default:
			t.Errorf("unexpected status %q", attr(dp.Attributes, attrStatus))
		}
	}

	subscribed, isSum := got["users.load.subscribed"].Data.(metricdata.Sum[int64])
	if !isSum {
		t.Fatalf("expected an int64 sum, got %T", got["users.load.subscribed"].Data)
	}
	if len(subscribed.DataPoints) != 1 || subscribed.DataPoints[0].Value != 2 {
		t.Errorf("subscribed: got %+v, want a single point of 2", subscribed.DataPoints)
	}
}

func TestOTelRegistry_Malformed(t *testing.T) {
	reader, provider := newManualMeter(t)
	reg := NewOTelRegistry(provider.Meter("test"))

	src := &scriptedMono{kind: "Scripted"}
	rec := testutil.NewPassiveRecorder[int]()
	New[int](src, WithRegistry(reg)).Subscribe(context.Background(), rec)
	src.actual.OnComplete()
	src.actual.OnNext(1)

	sum, ok := collect(t, reader)["reactor.scripted.malformed.source"].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("malformed counter not recorded")
	}
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("malformed: got %+v, want 1", sum.DataPoints)
	}
}

func TestOTelRegistry_InstrumentsCached(t *testing.T) {
	_, provider := newManualMeter(t)
	reg := NewOTelRegistry(provider.Meter("test"))

	first, err := reg.instrumentsFor("a")
	if err != nil {
		t.Fatal(err)
	}
	second, err := reg.instrumentsFor("a")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("expected instruments to be created once per name")
	}
}

func TestOTelRegistry_UnknownKind(t *testing.T) {
	_, provider := newManualMeter(t)
	reg := NewOTelRegistry(provider.Meter("test"))
	err := reg.Record(context.Background(), Measurement{Identity: Identity{Name: "x"}, Kind: Kind(42)})
	if err == nil {
		t.Error("expected an error for an unknown kind")
	}
}
