package mono

import (
	"context"
	"slices"
	"sync"

	goerrors "github.com/kbukum/monometrics/errors"
)

// Sink completes a mono from outside the subscription, typically from
// another goroutine. Every subscriber, before or after resolution, receives
// the same outcome. Subscribers may negotiate FusionAsync.
type Sink[T any] struct {
	mu       sync.Mutex
	resolved bool
	result   sinkResult[T]
	subs     []*sinkSubscription[T]
}

type sinkResult[T any] struct {
	value T
	ok    bool
	err   error
}

// NewSink returns a Sink and the Mono it completes.
func NewSink[T any]() (*Sink[T], Mono[T]) {
	s := &Sink[T]{}
	return s, &sinkMono[T]{sink: s}
}

// Success resolves the sink with v. It returns false if the sink was already resolved.
func (s *Sink[T]) Success(v T) bool {
	return s.resolve(sinkResult[T]{value: v, ok: true})
}

// Empty resolves the sink without a value. It returns false if the sink was already resolved.
func (s *Sink[T]) Empty() bool {
	return s.resolve(sinkResult[T]{})
}

// Error resolves the sink with err. It returns false if the sink was already resolved.
func (s *Sink[T]) Error(err error) bool {
	return s.resolve(sinkResult[T]{err: err})
}

// Subscribers returns the number of subscribers still waiting for the outcome.
func (s *Sink[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Sink[T]) resolve(res sinkResult[T]) bool {
	s.mu.Lock()
	if s.resolved {
		s.mu.Unlock()
		return false
	}
	s.resolved = true
	s.result = res
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(res)
	}
	return true
}

func (s *Sink[T]) outcome() (sinkResult[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.resolved
}

func (s *Sink[T]) add(sub *sinkSubscription[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.resolved {
		s.subs = append(s.subs, sub)
	}
}

func (s *Sink[T]) remove(sub *sinkSubscription[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = slices.DeleteFunc(s.subs, func(other *sinkSubscription[T]) bool { return other == sub })
}

type sinkMono[T any] struct {
	sink *Sink[T]
}

func (m *sinkMono[T]) Subscribe(_ context.Context, s Subscriber[T]) {
	sub := &sinkSubscription[T]{parent: m.sink, actual: s}
	m.sink.add(sub)
	s.OnSubscribe(sub)
	sub.markReady()
	if res, done := m.sink.outcome(); done {
		sub.deliver(res)
	}
}

func (m *sinkMono[T]) Metadata() Metadata { return Metadata{Kind: "Sink"} }

// sinkSubscription delivers at most once. requested must be set before the
// parent outcome is read, and deliver checks it after the outcome is
// published, so one of the two paths always emits. A fused subscription is
// not signalled before OnSubscribe has returned.
type sinkSubscription[T any] struct {
	parent *Sink[T]
	actual Subscriber[T]

	mu        sync.Mutex
	ready     bool
	requested bool
	fused     bool
	cancelled bool
	delivered bool
	slot      T
	hasSlot   bool
}

func (s *sinkSubscription[T]) Request(n int64) {
	s.mu.Lock()
	if s.cancelled || s.delivered || s.fused {
		s.mu.Unlock()
		return
	}
	if n <= 0 {
		s.delivered = true
		s.mu.Unlock()
		s.parent.remove(s)
		s.actual.OnError(goerrors.InvalidRequest(n))
		return
	}
	s.requested = true
	s.mu.Unlock()

	if res, done := s.parent.outcome(); done {
		s.deliver(res)
	}
}

func (s *sinkSubscription[T]) deliver(res sinkResult[T]) {
	s.mu.Lock()
	if s.cancelled || s.delivered || (!s.fused && !s.requested) || (s.fused && !s.ready) {
		s.mu.Unlock()
		return
	}
	s.delivered = true
	if s.fused {
		if res.err == nil && res.ok {
			s.slot = res.value
			s.hasSlot = true
		}
		s.mu.Unlock()
		switch {
		case res.err != nil:
			s.actual.OnError(res.err)
		case res.ok:
			var zero T
			s.actual.OnNext(zero)
			s.actual.OnComplete()
		default:
			s.actual.OnComplete()
		}
		return
	}
	s.mu.Unlock()

	switch {
	case res.err != nil:
		s.actual.OnError(res.err)
	case res.ok:
		s.actual.OnNext(res.value)
		s.actual.OnComplete()
	default:
		s.actual.OnComplete()
	}
}

func (s *sinkSubscription[T]) markReady() {
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
}

func (s *sinkSubscription[T]) Cancel() {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	s.hasSlot = false
	var zero T
	s.slot = zero
	s.mu.Unlock()
	s.parent.remove(s)
}

func (s *sinkSubscription[T]) RequestFusion(requested FusionMode) FusionMode {
	if requested&FusionAsync == 0 {
		return FusionNone
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requested || s.delivered || s.cancelled {
		return FusionNone
	}
	s.fused = true
	return FusionAsync
}

func (s *sinkSubscription[T]) Poll() (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if !s.hasSlot {
		return zero, false, nil
	}
	v := s.slot
	s.slot = zero
	s.hasSlot = false
	return v, true, nil
}

func (s *sinkSubscription[T]) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.hasSlot
}

func (s *sinkSubscription[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.slot = zero
	s.hasSlot = false
}
