// Package batchz redistributes a stream of elements into batches: disjoint
// key-identified groups, possibly overlapping windows, and materialized
// buffers. Batches are delimited by count, elapsed time, predicate
// transitions, or an external boundary signal, and every stage is coupled to
// downstream demand so that a slow consumer throttles the upstream producer
// instead of forcing unbounded buffering.
//
// The engine works with Go channels carrying Result values. Groups and
// windows are emitted as lazily subscribed sub-streams (Substream); buffers
// are emitted as materialized slices once their boundary closes.
//
// Basic usage:
//
//	ctx := context.Background()
//	in := make(chan batchz.Result[Order])
//
//	grouper := batchz.NewGroupBy(func(o Order) (string, error) {
//		return o.Region, nil
//	})
//
//	groups := grouper.Process(ctx, in)
//	for g := range groups {
//		group := g.Value()
//		go func() {
//			for r := range group.Subscribe(ctx) {
//				handle(group.Key, r.Value())
//			}
//		}()
//	}
//
// The package provides batching operators for common redistribution patterns:
//   - Grouping by key into disjoint sub-streams
//   - Count-delimited windows and buffers, with overlap or drop gaps
//   - Time-delimited windows and buffers with a size cap
//   - Predicate-delimited (While/Until) windows and buffers
//   - Boundary-signal-delimited windows and buffers
//
// Flow control is pull-based: each sub-stream holds at most its prefetch
// capacity of undelivered elements, and once a batch's queue is full the
// dispatcher stops pulling from upstream until the batch's consumer drains.
// An unconsumed batch can therefore stall the whole pipeline indefinitely.
// That is a deliberate, caller-governed property of demand-based flow
// control, not a defect; size prefetch capacity and consumption concurrency
// accordingly.
package batchz

import (
	"context"
)

// Processor is the core interface for batching components.
// It transforms an input channel of type In to an output channel of type Out.
// Processors should:
//   - Close the output channel when the input channel is closed
//   - Respect context cancellation
//   - Propagate terminal errors to every open batch and the outer channel
//   - Be safe for concurrent use
type Processor[In, Out any] interface {
	// Process transforms the input channel to an output channel.
	// It should close the output channel when processing is complete.
	Process(ctx context.Context, in <-chan In) <-chan Out

	// Name returns a descriptive name for the processor, useful for debugging.
	Name() string
}

// DefaultPrefetch is the per-batch queue capacity used when an operator is
// not configured with WithPrefetch. It bounds how many elements a batch may
// hold before the dispatcher stops pulling from upstream.
const DefaultPrefetch = 16

// BatchKind identifies which flavor of batch an event or metadata entry
// refers to.
type BatchKind string

// Batch kinds.
const (
	KindGroup  BatchKind = "group"
	KindWindow BatchKind = "window"
	KindBuffer BatchKind = "buffer"
)

// CloseReason records why a batch was closed.
type CloseReason string

// Close reasons reported through batch metadata and observers.
const (
	CloseSize      CloseReason = "size"      // count boundary reached
	CloseSpan      CloseReason = "span"      // time boundary elapsed
	ClosePredicate CloseReason = "predicate" // predicate transition
	CloseBoundary  CloseReason = "boundary"  // external boundary signal
	CloseComplete  CloseReason = "complete"  // upstream completed
	CloseError     CloseReason = "error"     // terminal error
	CloseCancel    CloseReason = "cancel"    // consumer or context cancellation
)
