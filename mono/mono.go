package mono

import (
	"context"
	"strconv"
	"strings"
)

// FusionMode is a set of delivery modes a producer and consumer may agree on.
type FusionMode uint8

const (
	// FusionNone means regular demand-driven signalling.
	FusionNone FusionMode = 0
	// FusionSync means the consumer pulls the value synchronously with Poll.
	FusionSync FusionMode = 1 << 0
	// FusionAsync means the producer signals availability and the consumer polls.
	FusionAsync FusionMode = 1 << 1
	// FusionAny requests either Sync or Async, whichever the producer supports.
	FusionAny = FusionSync | FusionAsync
	// FusionBoundary marks that Poll may be called across a goroutine boundary.
	FusionBoundary FusionMode = 1 << 2
)

// Has reports whether all bits of other are set in m.
func (m FusionMode) Has(other FusionMode) bool {
	return other != FusionNone && m&other == other
}

// String returns a readable representation such as "SYNC" or "ASYNC|BOUNDARY".
func (m FusionMode) String() string {
	if m == FusionNone {
		return "NONE"
	}
	var parts []string
	if m&FusionSync != 0 {
		parts = append(parts, "SYNC")
	}
	if m&FusionAsync != 0 {
		parts = append(parts, "ASYNC")
	}
	if m&FusionBoundary != 0 {
		parts = append(parts, "BOUNDARY")
	}
	if rest := m &^ (FusionAny | FusionBoundary); rest != 0 {
		parts = append(parts, "FusionMode("+strconv.Itoa(int(rest))+")")
	}
	return strings.Join(parts, "|")
}

// Subscription links one consumer to one producer.
type Subscription[T any] interface {
	// Request signals demand for the value. Non-positive n is a protocol
	// error reported through OnError.
	Request(n int64)
	// Cancel stops delivery and releases producer resources. Idempotent.
	Cancel()
	// RequestFusion asks for a fusion mode and returns the granted mode.
	// Producers that cannot fuse return FusionNone. Must be called from
	// OnSubscribe, before any Request.
	RequestFusion(requested FusionMode) FusionMode
	// Poll fetches the value in a fused mode. ok=false means no value is
	// available (Async) or the mono completed empty (Sync).
	Poll() (value T, ok bool, err error)
	// IsEmpty reports whether Poll would return no value right now.
	IsEmpty() bool
	// Clear discards any value held for Poll.
	Clear()
}

// Subscriber receives the signals of one subscription.
type Subscriber[T any] interface {
	OnSubscribe(s Subscription[T])
	OnNext(value T)
	OnError(err error)
	OnComplete()
}

// Mono is a lazy producer of at most one value.
type Mono[T any] interface {
	// Subscribe starts a new subscription delivering to s. OnSubscribe is
	// always called before Subscribe returns.
	Subscribe(ctx context.Context, s Subscriber[T])
	// Metadata describes the stage for naming and tagging.
	Metadata() Metadata
}

// NoFusion can be embedded by subscriptions that never fuse.
type NoFusion[T any] struct{}

func (NoFusion[T]) RequestFusion(FusionMode) FusionMode { return FusionNone }

func (NoFusion[T]) Poll() (T, bool, error) {
	var zero T
	return zero, false, nil
}

func (NoFusion[T]) IsEmpty() bool { return true }
func (NoFusion[T]) Clear()        {}
