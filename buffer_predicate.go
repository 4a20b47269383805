package batchz

import (
	"context"
)

// BufferWhile is the materialized counterpart of WindowWhile: runs of
// consecutive matching elements are collected and emitted as slices at each
// predicate transition. Unlike WindowWhile, empty collections are never
// emitted; a non-matching element with nothing collected passes silently.
// That asymmetry is deliberate and part of the contract.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type BufferWhile[T any] struct {
	pred func(T) bool
	obs  Observer
	name string
}

// NewBufferWhile creates a processor that collects runs of matching
// elements. The predicate must be deterministic and side-effect free.
//
// When to use:
//   - Extracting runs of interesting elements, discarding delimiters
//   - Collapsing contiguous matching regions into single emissions
//
// Example:
//
//	// Over 1,3,5,2,4,6,11,12,13 this emits [2 4 6] then [12];
//	// empty collections are suppressed.
//	buffer := batchz.NewBufferWhile(func(n int) bool { return n%2 == 0 })
//
//	batches := buffer.Process(ctx, numbers)
//	for b := range batches {
//		handle(b.Value())
//	}
//
// Parameters:
//   - pred: Predicate deciding whether an element continues the current run
//
// Returns a new BufferWhile processor with fluent configuration methods.
func NewBufferWhile[T any](pred func(T) bool) *BufferWhile[T] {
	return &BufferWhile[T]{
		pred: pred,
		name: "buffer-while",
	}
}

// WithObserver sets the lifecycle observer.
func (b *BufferWhile[T]) WithObserver(obs Observer) *BufferWhile[T] {
	b.obs = obs
	return b
}

// WithName sets a custom name for this processor.
func (b *BufferWhile[T]) WithName(name string) *BufferWhile[T] {
	b.name = name
	return b
}

// Process emits collections in creation order; the final partial run is
// emitted at completion.
func (b *BufferWhile[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[[]T] {
	out := make(chan Result[[]T])

	go func() {
		defer close(out)

		bs := newBufferSet[T](b.name, b.obs)
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

				if b.pred(r.Value()) {
					if cur == nil {
						cur = bs.open()
					}
					bs.route(r.Value())
					continue
				}

				if cur != nil {
					if !bs.emit(ctx, out, cur, ClosePredicate) {
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
func (b *BufferWhile[T]) Name() string {
	return b.name
}

// BufferUntil is the materialized counterpart of WindowUntil: collections
// are delimited by separator elements. Separators are dropped by default or
// routed into the next collection with WithCutBefore. Empty collections are
// never emitted.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type BufferUntil[T any] struct {
	pred      func(T) bool
	cutBefore bool
	obs       Observer
	name      string
}

// NewBufferUntil creates a processor that cuts collections at separator
// elements. The cut policy matches WindowUntil: separators belong to neither
// side by default; WithCutBefore(true) makes each separator begin the next
// collection.
//
// Example:
//
//	// Collect log lines between flush markers; markers are dropped.
//	buffer := batchz.NewBufferUntil(func(l Line) bool { return l.IsFlush })
//
// Parameters:
//   - pred: Predicate identifying separator elements
//
// Returns a new BufferUntil processor with fluent configuration methods.
func NewBufferUntil[T any](pred func(T) bool) *BufferUntil[T] {
	return &BufferUntil[T]{
		pred: pred,
		name: "buffer-until",
	}
}

// WithCutBefore makes each separator element start the next collection
// rather than being dropped.
func (b *BufferUntil[T]) WithCutBefore(cutBefore bool) *BufferUntil[T] {
	b.cutBefore = cutBefore
	return b
}

// WithObserver sets the lifecycle observer.
func (b *BufferUntil[T]) WithObserver(obs Observer) *BufferUntil[T] {
	b.obs = obs
	return b
}

// WithName sets a custom name for this processor.
func (b *BufferUntil[T]) WithName(name string) *BufferUntil[T] {
	b.name = name
	return b
}

// Process emits collections in creation order; the final partial collection
// is emitted at completion.
func (b *BufferUntil[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[[]T] {
	out := make(chan Result[[]T])

	go func() {
		defer close(out)

		bs := newBufferSet[T](b.name, b.obs)
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

				if !b.pred(r.Value()) {
					if cur == nil {
						cur = bs.open()
					}
					bs.route(r.Value())
					continue
				}

				// Separator.
				if cur != nil && len(cur.items) > 0 {
					if !bs.emit(ctx, out, cur, ClosePredicate) {
						bs.discardAll(CloseCancel)
						return
					}
				} else if cur != nil {
					bs.discard(cur, ClosePredicate)
				}
				cur = nil

				if b.cutBefore {
					cur = bs.open()
					bs.route(r.Value())
				}
			}
		}
	}()

	return out
}

// Name returns the processor name.
func (b *BufferUntil[T]) Name() string {
	return b.name
}
