package testutil

import (
	"fmt"
	"sync"

	"github.com/kbukum/monometrics/mono"
)

// SignalKind identifies a recorded signal.
type SignalKind string

const (
	SignalNext     SignalKind = "next"
	SignalError    SignalKind = "error"
	SignalComplete SignalKind = "complete"
)

// Signal is one recorded signal.
type Signal[T any] struct {
	Kind  SignalKind
	Value T
	Err   error
}

func (s Signal[T]) String() string {
	switch s.Kind {
	case SignalNext:
		return fmt.Sprintf("next(%v)", s.Value)
	case SignalError:
		return fmt.Sprintf("error(%v)", s.Err)
	default:
		return string(s.Kind)
	}
}

// Recorder is a Subscriber that records what it receives.
type Recorder[T any] struct {
	requestFusion mono.FusionMode
	demand        int64

	mu         sync.Mutex
	sub        mono.Subscription[T]
	granted    mono.FusionMode
	subscribed int
	signals    []Signal[T]
	once       sync.Once
	done       chan struct{}
}

// NewRecorder returns a recorder that requests one value without fusion.
func NewRecorder[T any]() *Recorder[T] {
	return &Recorder[T]{demand: 1, done: make(chan struct{})}
}

// NewFusedRecorder returns a recorder that negotiates mode and falls back to
// requesting one value when fusion is refused.
func NewFusedRecorder[T any](mode mono.FusionMode) *Recorder[T] {
	return &Recorder[T]{requestFusion: mode, demand: 1, done: make(chan struct{})}
}

// NewPassiveRecorder returns a recorder that never requests; use Request or
// Cancel to drive it.
func NewPassiveRecorder[T any]() *Recorder[T] {
	return &Recorder[T]{done: make(chan struct{})}
}

func (r *Recorder[T]) OnSubscribe(s mono.Subscription[T]) {
	r.mu.Lock()
	r.sub = s
	r.subscribed++
	if r.requestFusion != mono.FusionNone {
		r.granted = s.RequestFusion(r.requestFusion)
	}
	granted := r.granted
	r.mu.Unlock()

	switch {
	case granted.Has(mono.FusionSync):
		v, ok, err := s.Poll()
		switch {
		case err != nil:
			r.OnError(err)
		case ok:
			r.record(Signal[T]{Kind: SignalNext, Value: v})
			r.OnComplete()
		default:
			r.OnComplete()
		}
	case granted.Has(mono.FusionAsync):
	case r.demand > 0:
		s.Request(r.demand)
	}
}

func (r *Recorder[T]) OnNext(v T) {
	r.mu.Lock()
	granted, sub := r.granted, r.sub
	r.mu.Unlock()

	if granted.Has(mono.FusionAsync) {
		polled, ok, err := sub.Poll()
		if err != nil {
			r.OnError(err)
			return
		}
		if ok {
			r.record(Signal[T]{Kind: SignalNext, Value: polled})
		}
		return
	}
	r.record(Signal[T]{Kind: SignalNext, Value: v})
}

func (r *Recorder[T]) OnError(err error) {
	r.record(Signal[T]{Kind: SignalError, Err: err})
	r.once.Do(func() { close(r.done) })
}

func (r *Recorder[T]) OnComplete() {
	r.record(Signal[T]{Kind: SignalComplete})
	r.once.Do(func() { close(r.done) })
}

func (r *Recorder[T]) record(s Signal[T]) {
	r.mu.Lock()
	r.signals = append(r.signals, s)
	r.mu.Unlock()
}

// Request forwards demand to the subscription.
func (r *Recorder[T]) Request(n int64) {
	if s := r.Subscription(); s != nil {
		s.Request(n)
	}
}

// Cancel cancels the subscription.
func (r *Recorder[T]) Cancel() {
	if s := r.Subscription(); s != nil {
		s.Cancel()
	}
}

// Subscription returns the subscription received in OnSubscribe, or nil.
func (r *Recorder[T]) Subscription() mono.Subscription[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sub
}

// Granted returns the fusion mode granted by the producer.
func (r *Recorder[T]) Granted() mono.FusionMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.granted
}

// SubscribeCount returns how many times OnSubscribe was called.
func (r *Recorder[T]) SubscribeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscribed
}

// Done is closed on the first terminal signal.
func (r *Recorder[T]) Done() <-chan struct{} { return r.done }

// Signals returns a copy of the recorded signals.
func (r *Recorder[T]) Signals() []Signal[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Signal[T](nil), r.signals...)
}

// Trace renders the recorded signals, e.g. "next(1) complete".
func (r *Recorder[T]) Trace() string {
	out := ""
	for i, s := range r.Signals() {
		if i > 0 {
			out += " "
		}
		out += s.String()
	}
	return out
}
