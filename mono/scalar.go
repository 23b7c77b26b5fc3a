package mono

import (
	"context"
	"sync/atomic"

	goerrors "github.com/kbukum/monometrics/errors"
)

const (
	stateIdle int32 = iota
	stateFused
	stateRunning
	stateDone
)

// Just returns a mono that emits v. It supports FusionSync.
func Just[T any](v T) Mono[T] {
	return &callableMono[T]{
		kind:         "Just",
		boundarySafe: true,
		fn:           func() (T, bool, error) { return v, true, nil },
	}
}

// Empty returns a mono that completes without a value. It supports FusionSync.
func Empty[T any]() Mono[T] {
	return &callableMono[T]{
		kind:         "Empty",
		boundarySafe: true,
		fn: func() (T, bool, error) {
			var zero T
			return zero, false, nil
		},
	}
}

// FromCallable returns a mono that calls fn once per subscription, when
// demand is requested or when a fused consumer polls. It supports
// FusionSync but refuses fusion across a goroutine boundary.
func FromCallable[T any](fn func() (T, error)) Mono[T] {
	return &callableMono[T]{
		kind: "Callable",
		fn: func() (T, bool, error) {
			v, err := fn()
			if err != nil {
				var zero T
				return zero, false, err
			}
			return v, true, nil
		},
	}
}

type callableMono[T any] struct {
	kind         string
	boundarySafe bool
	fn           func() (T, bool, error)
}

func (c *callableMono[T]) Subscribe(_ context.Context, s Subscriber[T]) {
	s.OnSubscribe(&callableSubscription[T]{fn: c.fn, actual: s, boundarySafe: c.boundarySafe})
}

func (c *callableMono[T]) Metadata() Metadata { return Metadata{Kind: c.kind} }

type callableSubscription[T any] struct {
	fn           func() (T, bool, error)
	actual       Subscriber[T]
	boundarySafe bool
	state        atomic.Int32
	cancelled    atomic.Bool
}

func (s *callableSubscription[T]) Request(n int64) {
	if !s.state.CompareAndSwap(stateIdle, stateDone) {
		return
	}
	if n <= 0 {
		s.actual.OnError(goerrors.InvalidRequest(n))
		return
	}
	v, ok, err := s.fn()
	if s.cancelled.Load() {
		return
	}
	if err != nil {
		s.actual.OnError(err)
		return
	}
	if ok {
		s.actual.OnNext(v)
		if s.cancelled.Load() {
			return
		}
	}
	s.actual.OnComplete()
}

func (s *callableSubscription[T]) Cancel() {
	s.cancelled.Store(true)
	s.state.Store(stateDone)
}

func (s *callableSubscription[T]) RequestFusion(requested FusionMode) FusionMode {
	if requested&FusionSync == 0 {
		return FusionNone
	}
	if requested&FusionBoundary != 0 && !s.boundarySafe {
		return FusionNone
	}
	if s.state.CompareAndSwap(stateIdle, stateFused) {
		return FusionSync
	}
	return FusionNone
}

func (s *callableSubscription[T]) Poll() (T, bool, error) {
	if s.state.CompareAndSwap(stateFused, stateDone) {
		return s.fn()
	}
	var zero T
	return zero, false, nil
}

func (s *callableSubscription[T]) IsEmpty() bool { return s.state.Load() != stateFused }

func (s *callableSubscription[T]) Clear() { s.state.CompareAndSwap(stateFused, stateDone) }

// Error returns a mono that fails with err right after OnSubscribe.
func Error[T any](err error) Mono[T] {
	return &errorMono[T]{err: err}
}

type errorMono[T any] struct {
	err error
}

func (e *errorMono[T]) Subscribe(_ context.Context, s Subscriber[T]) {
	sub := &idleSubscription[T]{}
	s.OnSubscribe(sub)
	if !sub.cancelled.Load() {
		s.OnError(e.err)
	}
}

func (e *errorMono[T]) Metadata() Metadata { return Metadata{Kind: "Error"} }

// Never returns a mono that never signals after OnSubscribe.
func Never[T any]() Mono[T] {
	return neverMono[T]{}
}

type neverMono[T any] struct{}

func (neverMono[T]) Subscribe(_ context.Context, s Subscriber[T]) {
	s.OnSubscribe(&idleSubscription[T]{})
}

func (neverMono[T]) Metadata() Metadata { return Metadata{Kind: "Never"} }

type idleSubscription[T any] struct {
	NoFusion[T]
	cancelled atomic.Bool
}

func (*idleSubscription[T]) Request(int64) {}
func (s *idleSubscription[T]) Cancel()     { s.cancelled.Store(true) }
