// Package observability connects metrics registries to OpenTelemetry and
// Prometheus.
//
// Setup turns a metrics.Config into a registry and installs it as the
// process-wide registry:
//
//	backend, err := observability.Setup(ctx, "users-api", cfg.Metrics)
//	if err != nil {
//	    return err
//	}
//	defer backend.Shutdown(ctx)
//
//	users := metrics.Instrument(mono.Named(loadUsers, "users.load"))
//
// With Traces enabled every flow is also recorded as a span by
// SpanRegistry. InitMeter and InitTracer start OTLP HTTP exporters and are
// used by Setup when an endpoint is configured.
package observability
