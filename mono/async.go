package mono

import (
	"context"
	"sync/atomic"

	goerrors "github.com/kbukum/monometrics/errors"
)

// FromFunc returns a mono that runs fn on its own goroutine once demand is
// requested. Cancelling the subscription cancels the context passed to fn.
// FromFunc does not fuse.
func FromFunc[T any](fn func(ctx context.Context) (T, error)) Mono[T] {
	return &funcMono[T]{fn: fn}
}

type funcMono[T any] struct {
	fn func(ctx context.Context) (T, error)
}

func (f *funcMono[T]) Subscribe(ctx context.Context, s Subscriber[T]) {
	runCtx, cancel := context.WithCancel(ctx)
	s.OnSubscribe(&funcSubscription[T]{fn: f.fn, actual: s, ctx: runCtx, cancel: cancel})
}

func (f *funcMono[T]) Metadata() Metadata { return Metadata{Kind: "Func"} }

type funcSubscription[T any] struct {
	NoFusion[T]
	fn     func(ctx context.Context) (T, error)
	actual Subscriber[T]
	ctx    context.Context
	cancel context.CancelFunc
	state  atomic.Int32
}

func (s *funcSubscription[T]) Request(n int64) {
	if n <= 0 {
		if s.state.CompareAndSwap(stateIdle, stateDone) {
			s.cancel()
			s.actual.OnError(goerrors.InvalidRequest(n))
		}
		return
	}
	if s.state.CompareAndSwap(stateIdle, stateRunning) {
		go s.run()
	}
}

func (s *funcSubscription[T]) run() {
	v, err := s.fn(s.ctx)
	if !s.state.CompareAndSwap(stateRunning, stateDone) {
		return
	}
	s.cancel()
	if err != nil {
		s.actual.OnError(err)
		return
	}
	s.actual.OnNext(v)
	s.actual.OnComplete()
}

func (s *funcSubscription[T]) Cancel() {
	if s.state.Swap(stateDone) != stateDone {
		s.cancel()
	}
}
