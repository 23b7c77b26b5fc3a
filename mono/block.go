package mono

import (
	"context"
	"sync"
)

// Block subscribes to m and waits for its outcome. It negotiates FusionAny
// when the producer offers it. ok is false when m completed empty. If ctx
// is done first, the subscription is cancelled and ctx.Err() returned.
func Block[T any](ctx context.Context, m Mono[T]) (value T, ok bool, err error) {
	b := &blockingSubscriber[T]{done: make(chan struct{})}
	m.Subscribe(ctx, b)

	select {
	case <-b.done:
		return b.value, b.ok, b.err
	case <-ctx.Done():
		b.cancel()
		var zero T
		return zero, false, ctx.Err()
	}
}

type blockingSubscriber[T any] struct {
	mu   sync.Mutex
	sub  Subscription[T]
	mode FusionMode
	once sync.Once
	done chan struct{}

	value T
	ok    bool
	err   error
}

func (b *blockingSubscriber[T]) OnSubscribe(s Subscription[T]) {
	b.mu.Lock()
	b.sub = s
	b.mode = s.RequestFusion(FusionAny)
	mode := b.mode
	b.mu.Unlock()

	switch mode {
	case FusionSync:
		v, ok, err := s.Poll()
		b.finish(v, ok, err)
	case FusionAsync:
	default:
		s.Request(1)
	}
}

func (b *blockingSubscriber[T]) OnNext(v T) {
	b.mu.Lock()
	mode, sub := b.mode, b.sub
	b.mu.Unlock()

	if mode == FusionAsync {
		polled, ok, err := sub.Poll()
		if err != nil {
			b.finish(polled, false, err)
			return
		}
		if ok {
			b.finish(polled, true, nil)
		}
		return
	}
	b.finish(v, true, nil)
}

func (b *blockingSubscriber[T]) OnError(err error) {
	var zero T
	b.finish(zero, false, err)
}

func (b *blockingSubscriber[T]) OnComplete() {
	var zero T
	b.finish(zero, false, nil)
}

func (b *blockingSubscriber[T]) finish(v T, ok bool, err error) {
	b.once.Do(func() {
		b.value, b.ok, b.err = v, ok, err
		close(b.done)
	})
}

func (b *blockingSubscriber[T]) cancel() {
	b.mu.Lock()
	s := b.sub
	b.mu.Unlock()
	if s != nil {
		s.Cancel()
	}
}

// SubscribeFunc subscribes to m with callbacks and unbounded demand. Any
// callback may be nil. The returned function cancels the subscription.
func SubscribeFunc[T any](ctx context.Context, m Mono[T], onValue func(T), onError func(error), onComplete func()) (cancel func()) {
	l := &lambdaSubscriber[T]{onValue: onValue, onError: onError, onComplete: onComplete}
	m.Subscribe(ctx, l)
	return l.cancel
}

type lambdaSubscriber[T any] struct {
	mu         sync.Mutex
	sub        Subscription[T]
	onValue    func(T)
	onError    func(error)
	onComplete func()
}

func (l *lambdaSubscriber[T]) OnSubscribe(s Subscription[T]) {
	l.mu.Lock()
	l.sub = s
	l.mu.Unlock()
	s.Request(1)
}

func (l *lambdaSubscriber[T]) OnNext(v T) {
	if l.onValue != nil {
		l.onValue(v)
	}
}

func (l *lambdaSubscriber[T]) OnError(err error) {
	if l.onError != nil {
		l.onError(err)
	}
}

func (l *lambdaSubscriber[T]) OnComplete() {
	if l.onComplete != nil {
		l.onComplete()
	}
}

func (l *lambdaSubscriber[T]) cancel() {
	l.mu.Lock()
	s := l.sub
	l.mu.Unlock()
	if s != nil {
		s.Cancel()
	}
}
