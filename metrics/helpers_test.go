package metrics

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/kbukum/monometrics/mono"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memRegistry keeps every measurement in memory.
type memRegistry struct {
	mu           sync.Mutex
	measurements []Measurement
}

func (r *memRegistry) Record(_ context.Context, m Measurement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.measurements = append(r.measurements, m)
	return nil
}

func (r *memRegistry) all() []Measurement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Measurement(nil), r.measurements...)
}

func (r *memRegistry) flows() []Measurement {
	var out []Measurement
	for _, m := range r.all() {
		if m.Kind == KindFlow {
			out = append(out, m)
		}
	}
	return out
}

func (r *memRegistry) count(kind Kind) int {
	n := 0
	for _, m := range r.all() {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

func (r *memRegistry) outcomes(outcome Outcome) int {
	n := 0
	for _, m := range r.flows() {
		if m.Outcome == outcome {
			n++
		}
	}
	return n
}

// stepClock advances by step on every reading.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// scriptedMono hands its subscriber to the test so signals can be driven by hand.
type scriptedMono struct {
	kind   string
	grant  mono.FusionMode
	actual mono.Subscriber[int]
	sub    *scriptedSubscription
}

func (s *scriptedMono) Subscribe(_ context.Context, actual mono.Subscriber[int]) {
	s.actual = actual
	s.sub = &scriptedSubscription{grant: s.grant}
	actual.OnSubscribe(s.sub)
}

func (s *scriptedMono) Metadata() mono.Metadata { return mono.Metadata{Kind: s.kind} }

type scriptedSubscription struct {
	mono.NoFusion[int]
	grant     mono.FusionMode
	requested atomic.Int64
	cancels   atomic.Int32
}

func (s *scriptedSubscription) RequestFusion(requested mono.FusionMode) mono.FusionMode {
	return requested & s.grant
}

func (s *scriptedSubscription) Request(n int64) { s.requested.Add(n) }
func (s *scriptedSubscription) Cancel()         { s.cancels.Add(1) }

// countingMono counts Metadata calls on its source.
type countingMono[T any] struct {
	mono.Mono[T]
	calls atomic.Int32
}

func (c *countingMono[T]) Metadata() mono.Metadata {
	c.calls.Add(1)
	return c.Mono.Metadata()
}

// panickingMetadata is a stage whose metadata accessor is broken.
type panickingMetadata struct {
	mono.Mono[int]
}

func (panickingMetadata) Metadata() mono.Metadata { panic("metadata unavailable") }

var errBoom = errors.New("boom")
