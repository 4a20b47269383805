package batchz

import (
	"context"
	"time"
)

// TimeBuffer is the materialized counterpart of TimeWindow: each batch
// collects eagerly and is emitted as an immutable slice when its span
// elapses or its size cap is reached, whichever comes first.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type TimeBuffer[T any] struct {
	span    time.Duration
	maxSize int
	obs     Observer
	name    string
	clock   Clock
}

// NewTimeBuffer creates a processor that collects elements into slices,
// emitting each collection after span has elapsed since its first element,
// or immediately once the optional size cap is reached. The classic
// dual-trigger batch shape: throughput from the size cap, bounded latency
// from the span.
//
// When to use:
//   - Bulk writes with a latency ceiling
//   - Micro-batching for downstream APIs with per-call overhead
//   - Periodic flushing of bursty streams
//
// Example:
//
//	// Flush up to 500 rows or every 2 seconds, whichever comes first.
//	buffer := batchz.NewTimeBuffer[Row](2*time.Second, batchz.RealClock).
//		WithMaxSize(500)
//
//	batches := buffer.Process(ctx, rows)
//	for b := range batches {
//		bulkWrite(b.Value())
//	}
//
// Parameters:
//   - span: Duration after which an open collection is emitted (must be > 0)
//   - clock: Clock interface for time operations
//
// Returns a new TimeBuffer processor with fluent configuration methods.
func NewTimeBuffer[T any](span time.Duration, clock Clock) *TimeBuffer[T] {
	return &TimeBuffer[T]{
		span:  span,
		name:  "time-buffer",
		clock: clock,
	}
}

// WithMaxSize caps the number of elements per collection. 0 disables the cap.
func (b *TimeBuffer[T]) WithMaxSize(n int) *TimeBuffer[T] {
	if n < 0 {
		n = 0
	}
	b.maxSize = n
	return b
}

// WithObserver sets the lifecycle observer.
func (b *TimeBuffer[T]) WithObserver(obs Observer) *TimeBuffer[T] {
	b.obs = obs
	return b
}

// WithName sets a custom name for this processor.
func (b *TimeBuffer[T]) WithName(name string) *TimeBuffer[T] {
	b.name = name
	return b
}

// Process emits collections in creation order. A collection opens on its
// first element, so quiet periods produce no empty emissions.
func (b *TimeBuffer[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[[]T] {
	out := make(chan Result[[]T])

	go func() {
		defer close(out)

		bs := newBufferSet[T](b.name, b.obs)
		bs.clock = b.clock
		timer := b.clock.NewTimer(b.span)
		timer.Stop()
		defer timer.Stop()

		var cur *bufEntry[T]

		for {
			select {
			case <-ctx.Done():
				bs.discardAll(CloseCancel)
				return

			case r, ok := <-in:
				if !ok {
					bs.emitAll(ctx, out, CloseComplete, false)
					return
				}
				if r.IsError() {
					bs.fail(r.Error())
					sendError(ctx, out, r.Error(), b.name)
					return
				}

				if cur == nil {
					cur = bs.open()
					timer.Reset(b.span)
				}
				bs.route(r.Value())

				if b.maxSize > 0 && len(cur.items) >= b.maxSize {
					timer.Stop()
					if !bs.emit(ctx, out, cur, CloseSize) {
						bs.discardAll(CloseCancel)
						return
					}
					cur = nil
				}

			case <-timer.C():
				if cur != nil {
					if !bs.emit(ctx, out, cur, CloseSpan) {
						bs.discardAll(CloseCancel)
						return
					}
					cur = nil
				}
			}
		}
	}()

	return out
}

// Name returns the processor name.
func (b *TimeBuffer[T]) Name() string {
	return b.name
}
