package metrics

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kbukum/monometrics/logger"
	"github.com/kbukum/monometrics/mono"
)

const debugLevel = zerolog.DebugLevel

// Decorated is a mono that measures every subscription to its source.
// Identity and registry are resolved once, when it is built.
type Decorated[T any] struct {
	source   mono.Mono[T]
	identity Identity
	registry Registry
	clock    Clock
	log      *logger.Logger
	id       string
}

// New decorates source. The registry is the one given with WithRegistry, or
// the process-wide one; when neither exists the decorator records nothing.
func New[T any](source mono.Mono[T], opts ...Option) *Decorated[T] {
	o := newOptions(opts)
	d := &Decorated[T]{
		source:   source,
		identity: resolveIdentity(source),
		registry: Bind(o.registry),
		clock:    o.clock,
		log:      o.log,
		id:       uuid.NewString(),
	}
	d.log.Debug("metrics decorator created", logger.Fields(
		logger.FieldStage, d.identity.String(),
		logger.FieldDecoratorID, d.id,
		"registry", d.registry != nil,
	))
	return d
}

// Instrument decorates source when a registry is available, through
// WithRegistry or SetCurrent. Otherwise source is returned as is.
func Instrument[T any](source mono.Mono[T], opts ...Option) mono.Mono[T] {
	o := newOptions(opts)
	if o.registry == nil && !Available() {
		return source
	}
	return New(source, opts...)
}

// Subscribe wraps s in a new measuring subscriber and subscribes it to the source.
func (d *Decorated[T]) Subscribe(ctx context.Context, s mono.Subscriber[T]) {
	d.source.Subscribe(ctx, newSubscriber(ctx, s, d))
}

// Metadata returns the source's metadata.
func (d *Decorated[T]) Metadata() mono.Metadata {
	return d.source.Metadata()
}

// Identity returns the identity measurements are keyed by.
func (d *Decorated[T]) Identity() Identity {
	id := d.identity
	id.Tags = append([]mono.Tag(nil), id.Tags...)
	return id
}

// Registry returns the bound registry, nil when absent.
func (d *Decorated[T]) Registry() Registry { return d.registry }
