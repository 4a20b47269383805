package batchz

import (
	"context"
)

// CountBuffer is the materialized counterpart of CountWindow: the same
// size/skip boundaries, but each batch is collected eagerly and emitted as
// an immutable slice when it closes, instead of being streamed through a
// sub-sequence.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type CountBuffer[T any] struct {
	maxSize int
	skip    int
	obs     Observer
	name    string
}

// NewCountBuffer creates a processor that collects elements into slices of
// up to maxSize, opening a new collection every skip elements (skip defaults
// to maxSize). Overlap and drop-gap behavior match NewCountWindow; the
// difference is purely in the emission shape.
//
// When to use:
//   - Bulk operations that want the whole batch at once (bulk insert, RPC)
//   - Fixed-size pagination of a stream
//   - Rolling snapshots of the last N elements every M elements
//
// Example:
//
//	// Contiguous batches of 100.
//	buffer := batchz.NewCountBuffer[Record](100)
//
//	batches := buffer.Process(ctx, records)
//	for b := range batches {
//		bulkInsert(b.Value())
//	}
//
// Parameters:
//   - maxSize: Number of elements after which a collection closes (must be > 0)
//
// Returns a new CountBuffer processor with fluent configuration methods.
func NewCountBuffer[T any](maxSize int) *CountBuffer[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &CountBuffer[T]{
		maxSize: maxSize,
		skip:    maxSize,
		name:    "count-buffer",
	}
}

// WithSkip sets how many elements apart consecutive collections open.
func (b *CountBuffer[T]) WithSkip(skip int) *CountBuffer[T] {
	if skip < 1 {
		skip = 1
	}
	b.skip = skip
	return b
}

// WithObserver sets the lifecycle observer.
func (b *CountBuffer[T]) WithObserver(obs Observer) *CountBuffer[T] {
	b.obs = obs
	return b
}

// WithName sets a custom name for this processor.
func (b *CountBuffer[T]) WithName(name string) *CountBuffer[T] {
	b.name = name
	return b
}

// Process emits closed collections in creation order. On upstream completion
// the remaining partial collections are emitted in creation order; on a
// terminal error open collections are discarded and the error supersedes
// them on the outer channel.
func (b *CountBuffer[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[[]T] {
	out := make(chan Result[[]T])

	go func() {
		defer close(out)

		bs := newBufferSet[T](b.name, b.obs)
		i := 0

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

				if i%b.skip == 0 {
					bs.open()
				}
				i++
				bs.route(r.Value())

				for e := bs.front(); e != nil && len(e.items) >= b.maxSize; e = bs.front() {
					if !bs.emit(ctx, out, e, CloseSize) {
						bs.discardAll(CloseCancel)
						return
					}
				}
			}
		}
	}()

	return out
}

// Name returns the processor name.
func (b *CountBuffer[T]) Name() string {
	return b.name
}
