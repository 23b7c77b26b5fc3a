package metrics

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	goerrors "github.com/kbukum/monometrics/errors"
	"github.com/kbukum/monometrics/logger"
	"github.com/kbukum/monometrics/mono"
)

// Session states. Resolved, errored and cancelled are terminal and absorbing.
const (
	stateInit int32 = iota
	stateStarted
	stateResolved
	stateErrored
	stateCancelled
)

// subscriber measures one subscription. It is the upstream's Subscriber and
// the downstream's Subscription at the same time, relaying every signal and
// every fusion request unchanged.
//
// The first terminal transition out of stateStarted wins a CAS and is the
// only one that records, so a terminal signal racing a Cancel yields exactly
// one outcome.
type subscriber[T any] struct {
	actual mono.Subscriber[T]
	dec    *Decorated[T]
	ctx    context.Context

	upstream mono.Subscription[T]
	mode     atomic.Uint32
	start    time.Time
	state    atomic.Int32
}

func newSubscriber[T any](ctx context.Context, actual mono.Subscriber[T], dec *Decorated[T]) *subscriber[T] {
	s := &subscriber[T]{actual: actual, dec: dec}
	if dec.registry != nil {
		s.ctx = context.WithoutCancel(ctx)
	}
	return s
}

// --- mono.Subscriber (from upstream) ---

func (s *subscriber[T]) OnSubscribe(sub mono.Subscription[T]) {
	if !s.state.CompareAndSwap(stateInit, stateStarted) {
		sub.Cancel()
		return
	}
	s.upstream = sub
	if s.dec.registry != nil {
		s.start = s.dec.clock.Now()
		s.record(Measurement{Identity: s.dec.identity, Kind: KindSubscribed})
	}
	s.actual.OnSubscribe(s)
}

func (s *subscriber[T]) OnNext(v T) {
	if s.fusion() == mono.FusionAsync {
		// availability signal, the value is measured when polled
		if s.state.Load() > stateStarted {
			s.recordMalformed("next")
		}
		s.actual.OnNext(v)
		return
	}
	if s.terminate(stateResolved) {
		s.recordFlow(OutcomeSuccess, nil)
	} else {
		s.recordMalformed("next")
	}
	s.actual.OnNext(v)
}

func (s *subscriber[T]) OnError(err error) {
	if s.terminate(stateErrored) {
		s.recordFlow(OutcomeError, err)
	} else {
		s.recordMalformed("error")
	}
	s.actual.OnError(err)
}

func (s *subscriber[T]) OnComplete() {
	if s.terminate(stateResolved) {
		s.recordFlow(OutcomeSuccess, nil)
	}
	s.actual.OnComplete()
}

// --- mono.Subscription (to downstream) ---

func (s *subscriber[T]) Request(n int64) {
	s.upstream.Request(n)
}

func (s *subscriber[T]) Cancel() {
	if s.terminate(stateCancelled) {
		s.recordFlow(OutcomeCancel, nil)
	}
	s.upstream.Cancel()
}

func (s *subscriber[T]) RequestFusion(requested mono.FusionMode) mono.FusionMode {
	granted := s.upstream.RequestFusion(requested)
	s.mode.Store(uint32(granted))
	return granted
}

func (s *subscriber[T]) Poll() (T, bool, error) {
	v, ok, err := s.upstream.Poll()
	switch {
	case err != nil:
		if s.terminate(stateErrored) {
			s.recordFlow(OutcomeError, err)
		}
	case ok:
		if s.terminate(stateResolved) {
			s.recordFlow(OutcomeSuccess, nil)
		}
	case s.fusion() == mono.FusionSync:
		// sync poll without a value means the source completed empty
		if s.terminate(stateResolved) {
			s.recordFlow(OutcomeSuccess, nil)
		}
	}
	return v, ok, err
}

func (s *subscriber[T]) IsEmpty() bool { return s.upstream.IsEmpty() }

func (s *subscriber[T]) Clear() { s.upstream.Clear() }

// --- bookkeeping ---

func (s *subscriber[T]) fusion() mono.FusionMode {
	return mono.FusionMode(s.mode.Load()) &^ mono.FusionBoundary
}

func (s *subscriber[T]) terminate(to int32) bool {
	return s.state.CompareAndSwap(stateStarted, to)
}

func (s *subscriber[T]) recordFlow(outcome Outcome, err error) {
	if s.dec.registry == nil {
		return
	}
	elapsed := s.dec.clock.Now().Sub(s.start)
	if elapsed < 0 {
		elapsed = 0
	}
	s.record(Measurement{
		Identity:  s.dec.identity,
		Kind:      KindFlow,
		Outcome:   outcome,
		Duration:  elapsed,
		Exception: exceptionName(err),
	})
}

// recordMalformed counts signals that arrive after the source already
// terminated on its own. Signals racing a cancellation are not counted.
func (s *subscriber[T]) recordMalformed(signal string) {
	if s.dec.registry == nil || s.state.Load() == stateCancelled {
		return
	}
	if s.dec.log.Enabled(debugLevel) {
		err := goerrors.MalformedSource(s.dec.identity.Name, signal)
		s.dec.log.Debug("source signalled after terminating", logger.ErrorFields(s.dec.identity.String(), err))
	}
	s.record(Measurement{Identity: s.dec.identity, Kind: KindMalformed})
}

func (s *subscriber[T]) record(m Measurement) {
	defer func() {
		if r := recover(); r != nil {
			s.discard(m, goerrors.FromPanic(r))
		}
	}()
	if err := s.dec.registry.Record(s.ctx, m); err != nil {
		s.discard(m, err)
	}
}

func (s *subscriber[T]) discard(m Measurement, cause error) {
	if !s.dec.log.Enabled(debugLevel) {
		return
	}
	err := goerrors.RecordFailed(m.Identity.Name+"."+m.Kind.String(), cause)
	s.dec.log.Debug("measurement discarded", logger.Fields(
		logger.FieldStage, s.dec.identity.String(),
		logger.FieldOutcome, string(m.Outcome),
		logger.FieldDecoratorID, s.dec.id,
		logger.FieldError, err.Error(),
	))
}

// exceptionName identifies the type of err for the exception attribute.
func exceptionName(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := goerrors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return fmt.Sprintf("%T", err)
}
