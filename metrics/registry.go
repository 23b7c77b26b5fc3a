package metrics

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// Outcome is the terminal result of one subscription.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
	OutcomeCancel  Outcome = "cancel"
)

// Kind selects the meter a Measurement is recorded on.
type Kind int

const (
	// KindFlow is a subscription outcome with its duration.
	KindFlow Kind = iota
	// KindSubscribed counts a new subscription.
	KindSubscribed
	// KindMalformed counts a signal received after termination.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindFlow:
		return "flow"
	case KindSubscribed:
		return "subscribed"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Measurement is one record handed to a Registry.
type Measurement struct {
	Identity Identity
	Kind     Kind
	// Outcome and Duration are set for KindFlow only.
	Outcome  Outcome
	Duration time.Duration
	// Exception names the error type for OutcomeError.
	Exception string
}

// Registry is a metrics backend. Record must be safe for concurrent use.
// Errors and panics raised by Record are discarded by the decorator.
type Registry interface {
	Record(ctx context.Context, m Measurement) error
}

// RegistryFunc adapts a function to the Registry interface.
type RegistryFunc func(ctx context.Context, m Measurement) error

func (f RegistryFunc) Record(ctx context.Context, m Measurement) error { return f(ctx, m) }

// NopRegistry discards every measurement.
type NopRegistry struct{}

func (NopRegistry) Record(context.Context, Measurement) error { return nil }

// Multi records every measurement to each of registries in turn. A failing
// registry does not stop the others; their errors are joined. nil
// registries are skipped, and Multi returns nil when none is left.
func Multi(registries ...Registry) Registry {
	var rs []Registry
	for _, r := range registries {
		if r != nil {
			rs = append(rs, r)
		}
	}
	switch len(rs) {
	case 0:
		return nil
	case 1:
		return rs[0]
	}
	return multiRegistry(rs)
}

type multiRegistry []Registry

func (m multiRegistry) Record(ctx context.Context, meas Measurement) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, meas); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type registryHolder struct {
	registry Registry
}

var current atomic.Pointer[registryHolder]

// SetCurrent installs the process-wide registry used by decorators built
// without WithRegistry, and returns the previous one. nil removes it.
func SetCurrent(r Registry) Registry {
	var prev *registryHolder
	if r == nil {
		prev = current.Swap(nil)
	} else {
		prev = current.Swap(&registryHolder{registry: r})
	}
	if prev == nil {
		return nil
	}
	return prev.registry
}

// Current returns the process-wide registry, or nil.
func Current() Registry {
	if h := current.Load(); h != nil {
		return h.registry
	}
	return nil
}

// Available reports whether a process-wide registry is installed. It is the
// gate callers check before composing a decorator.
func Available() bool {
	return current.Load() != nil
}

// Bind resolves the registry a decorator records to: explicit when given,
// otherwise the current process-wide registry. The result may be nil.
func Bind(explicit Registry) Registry {
	if explicit != nil {
		return explicit
	}
	return Current()
}
