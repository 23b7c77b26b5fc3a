// Package testutil provides a recording subscriber for testing monos and
// operators that decorate them.
//
// Recorder normalizes fused delivery into the logical signal sequence, so a
// fused and an unfused run of the same mono can be compared directly:
//
//	rec := testutil.NewFusedRecorder[int](mono.FusionAny)
//	m.Subscribe(ctx, rec)
//	<-rec.Done()
//	rec.Signals() // [next(1) complete]
package testutil
