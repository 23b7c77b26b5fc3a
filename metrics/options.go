package metrics

import (
	"time"

	"github.com/kbukum/monometrics/logger"
)

// Clock supplies timestamps to the subscriber.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type options struct {
	registry Registry
	clock    Clock
	log      *logger.Logger
}

// Option configures a decorator.
type Option func(*options)

// WithRegistry records to r instead of the process-wide registry.
func WithRegistry(r Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger used to report discarded measurements.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{clock: systemClock{}}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Get("metrics")
	}
	return o
}
