// Package mono provides a minimal single-value reactive engine: a producer
// contract that yields at most one value or one error, then terminates.
//
// A Mono is lazy. Nothing happens until Subscribe is called, and each call
// starts an independent subscription. Consumers drive delivery through the
// Subscription they receive in OnSubscribe, either by requesting demand
// (Request) or by negotiating fusion (RequestFusion) and fetching the value
// directly with Poll.
//
// # Fusion
//
// Fusion is negotiated explicitly. The consumer asks for a FusionMode and
// the producer grants a mode it supports, or FusionNone:
//
//   - FusionSync: the value is computed by Poll itself; Poll returning
//     ok=false means the mono completed empty. No OnNext/OnComplete follow.
//   - FusionAsync: the producer calls OnNext with the zero value to signal
//     that Poll will now return the value, then OnComplete or OnError.
//   - FusionBoundary: a flag added to the request when Poll may run on a
//     different goroutine than the producer. Producers that run user code
//     in Poll refuse fusion when it is set.
//
// # Usage
//
//	m := mono.Named(mono.FromCallable(loadUser), "users.load")
//	user, ok, err := mono.Block(ctx, m)
//
// With an externally completed value:
//
//	sink, m := mono.NewSink[string]()
//	go func() { sink.Success(fetch()) }()
//	v, _, err := mono.Block(ctx, m)
package mono
