package observability

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	goerrors "github.com/kbukum/monometrics/errors"
	"github.com/kbukum/monometrics/logger"
	"github.com/kbukum/monometrics/metrics"
	"github.com/kbukum/monometrics/version"
)

// Backend is the metrics registry built from a metrics.Config together with
// the providers it owns.
type Backend struct {
	// Name is the configured backend, or empty when metrics are disabled.
	Name string
	// Registry is nil when metrics are disabled.
	Registry metrics.Registry
	// Gatherer exposes the collected series of the prometheus backend.
	Gatherer prometheus.Gatherer

	installed      bool
	previous       metrics.Registry
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
}

type setupOptions struct {
	version        string
	environment    string
	registerer     prometheus.Registerer
	gatherer       prometheus.Gatherer
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// SetupOption configures Setup.
type SetupOption func(*setupOptions)

// WithServiceInfo sets the version and environment reported by OTLP resources.
func WithServiceInfo(version, environment string) SetupOption {
	return func(o *setupOptions) {
		o.version = version
		o.environment = environment
	}
}

// WithPrometheusRegistry registers collectors with reg instead of the
// default Prometheus registry.
func WithPrometheusRegistry(reg *prometheus.Registry) SetupOption {
	return func(o *setupOptions) {
		o.registerer = reg
		o.gatherer = reg
	}
}

// WithMeterProvider records on mp instead of the global or OTLP provider.
func WithMeterProvider(mp metric.MeterProvider) SetupOption {
	return func(o *setupOptions) { o.meterProvider = mp }
}

// WithTracerProvider starts flow spans on tp instead of the global or OTLP provider.
func WithTracerProvider(tp trace.TracerProvider) SetupOption {
	return func(o *setupOptions) { o.tracerProvider = tp }
}

// Setup builds the registry described by cfg and installs it with
// metrics.SetCurrent, so Instrument decorates stages from then on. A
// disabled config installs nothing. With an OTLP endpoint and no explicit
// provider, Setup starts OTLP exporters owned by the Backend.
func Setup(ctx context.Context, serviceName string, cfg metrics.Config, opts ...SetupOption) (*Backend, error) {
	o := setupOptions{
		version:     version.Get().Short(),
		environment: "development",
		registerer:  prometheus.DefaultRegisterer,
		gatherer:    prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.Get("observability")
	b := &Backend{}
	if !cfg.Active() {
		if cfg.Enabled {
			b.Name = cfg.Backend
			b.Registry = metrics.NopRegistry{}
		}
		log.Debug("metrics disabled", logger.Fields(
			logger.FieldService, serviceName,
			logger.FieldBackend, cfg.Backend,
		))
		return b, nil
	}
	b.Name = cfg.Backend

	var reg metrics.Registry
	switch cfg.Backend {
	case metrics.BackendPrometheus:
		reg = metrics.NewPrometheusRegistry(o.registerer, cfg.Namespace, cfg.Buckets)
		b.Gatherer = o.gatherer
	case metrics.BackendOTel:
		mp := o.meterProvider
		if mp == nil {
			var err error
			if mp, err = b.initMeter(ctx, serviceName, cfg, o); err != nil {
				return nil, err
			}
		}
		var otelOpts []metrics.OTelOption
		if len(cfg.Buckets) > 0 {
			otelOpts = append(otelOpts, metrics.WithHistogramBuckets(cfg.Buckets...))
		}
		reg = metrics.NewOTelRegistry(mp.Meter(cfg.Namespace), otelOpts...)
	default:
		return nil, goerrors.UnsupportedBackend(cfg.Backend)
	}

	if cfg.Traces {
		tp := o.tracerProvider
		if tp == nil {
			var err error
			if tp, err = b.initTracer(ctx, serviceName, cfg, o); err != nil {
				_ = b.shutdownProviders(ctx)
				return nil, err
			}
		}
		reg = metrics.Multi(reg, NewSpanRegistry(tp.Tracer(TracerName)))
	}

	b.Registry = reg
	b.previous = metrics.SetCurrent(reg)
	b.installed = true

	log.Info("metrics backend installed", logger.Fields(
		logger.FieldService, serviceName,
		logger.FieldBackend, cfg.Backend,
		"namespace", cfg.Namespace,
		"traces", cfg.Traces,
	))
	return b, nil
}

func (b *Backend) initMeter(ctx context.Context, serviceName string, cfg metrics.Config, o setupOptions) (metric.MeterProvider, error) {
	if cfg.Endpoint == "" {
		return otel.GetMeterProvider(), nil
	}
	mp, err := InitMeter(ctx, MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: o.version,
		Environment:    o.environment,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		Interval:       cfg.Interval,
	})
	if err != nil {
		return nil, goerrors.BackendInit(metrics.BackendOTel, err)
	}
	b.meterProvider = mp
	return mp, nil
}

func (b *Backend) initTracer(ctx context.Context, serviceName string, cfg metrics.Config, o setupOptions) (trace.TracerProvider, error) {
	if cfg.Endpoint == "" {
		return otel.GetTracerProvider(), nil
	}
	tp, err := InitTracer(ctx, TracerConfig{
		ServiceName:    serviceName,
		ServiceVersion: o.version,
		Environment:    o.environment,
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		SampleRate:     1.0,
	})
	if err != nil {
		return nil, goerrors.BackendInit("otel-traces", err)
	}
	b.tracerProvider = tp
	return tp, nil
}

// Installed reports whether Setup made Registry the process-wide registry.
func (b *Backend) Installed() bool { return b.installed }

// Shutdown restores the process-wide registry that was current before
// Setup and flushes the providers the Backend started.
func (b *Backend) Shutdown(ctx context.Context) error {
	if b.installed {
		metrics.SetCurrent(b.previous)
		b.installed = false
	}
	return b.shutdownProviders(ctx)
}

func (b *Backend) shutdownProviders(ctx context.Context) error {
	var errs []error
	if b.meterProvider != nil {
		errs = append(errs, b.meterProvider.Shutdown(ctx))
		b.meterProvider = nil
	}
	if b.tracerProvider != nil {
		errs = append(errs, b.tracerProvider.Shutdown(ctx))
		b.tracerProvider = nil
	}
	return errors.Join(errs...)
}
