// Package metrics decorates a mono with lifecycle metrics: one latency
// measurement per subscription, keyed by the stage's name, its tags and the
// outcome (success, error or cancel).
//
// The decorator is transparent. Values, errors and completion reach the
// consumer unchanged, and fusion requested by the consumer is relayed to the
// upstream stage verbatim, so a synchronous source still resolves inside
// the Subscribe call.
//
// # Identity
//
// The metric name is the stage's declared name (mono.Named) or, when none
// is declared, "reactor" suffixed with the lower-cased stage kind. Declared
// tags (mono.Tagged) become metric attributes in declaration order.
//
// # Measurements
//
// For an identity named N each backend maintains:
//
//   - N.flow.duration: histogram of seconds from subscribe to outcome,
//     attributes status=success|error|cancel and exception (error type)
//   - N.subscribed: counter of subscriptions
//   - N.malformed.source: counter of values or errors received after the
//     source had already terminated
//
// Cancellation records a duration like the other outcomes.
//
// # Usage
//
//	metrics.SetCurrent(metrics.NewOTelRegistry(observability.Meter("users")))
//
//	load := mono.Named(mono.FromFunc(fetchUser), "users.load")
//	user, _, err := mono.Block(ctx, metrics.Instrument(load))
//
// Services usually install the registry from configuration instead, with
// observability.Setup, which also owns any OTLP exporters it starts.
//
// Instrument returns the stage unchanged when no registry is available;
// New always decorates and records nothing when the registry is absent.
package metrics
