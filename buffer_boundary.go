package batchz

import (
	"context"
)

// BoundaryBuffer is the materialized counterpart of BoundaryWindow: every
// boundary emission closes the current collection and emits it as a slice,
// empty or not, then opens the next. Only the final collection at upstream
// completion suppresses an empty emission.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type BoundaryBuffer[T, B any] struct {
	boundary <-chan B
	obs      Observer
	name     string
}

// NewBoundaryBuffer creates a processor that collects elements between
// emissions of a companion boundary sequence. The boundary values themselves
// are discarded; only their timing matters.
//
// Example:
//
//	ticks := make(chan time.Time)
//	buffer := batchz.NewBoundaryBuffer[Sample, time.Time](ticks)
//
//	batches := buffer.Process(ctx, samples)
//	for b := range batches {
//		flush(b.Value())
//	}
//
// Parameters:
//   - boundary: Companion sequence whose emissions close the current collection
//
// Returns a new BoundaryBuffer processor with fluent configuration methods.
func NewBoundaryBuffer[T, B any](boundary <-chan B) *BoundaryBuffer[T, B] {
	return &BoundaryBuffer[T, B]{
		boundary: boundary,
		name:     "boundary-buffer",
	}
}

// WithObserver sets the lifecycle observer.
func (b *BoundaryBuffer[T, B]) WithObserver(obs Observer) *BoundaryBuffer[T, B] {
	b.obs = obs
	return b
}

// WithName sets a custom name for this processor.
func (b *BoundaryBuffer[T, B]) WithName(name string) *BoundaryBuffer[T, B] {
	b.name = name
	return b
}

// Process emits collections in creation order.
func (b *BoundaryBuffer[T, B]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[[]T] {
	out := make(chan Result[[]T])

	go func() {
		defer close(out)

		bs := newBufferSet[T](b.name, b.obs)
		boundary := b.boundary
		cur := bs.open()

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
				bs.route(r.Value())

			case _, ok := <-boundary:
				if !ok {
					boundary = nil
					continue
				}
				if !bs.emit(ctx, out, cur, CloseBoundary) {
					bs.discardAll(CloseCancel)
					return
				}
				cur = bs.open()
			}
		}
	}()

	return out
}

// Name returns the processor name.
func (b *BoundaryBuffer[T, B]) Name() string {
	return b.name
}
