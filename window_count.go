package batchz

import (
	"context"
)

// CountWindow redistributes a stream into count-delimited windows. A new
// window opens every skip elements and closes once it has accumulated
// maxSize elements, so windows overlap when skip < maxSize, are contiguous
// when skip == maxSize, and leave a gap of dropped elements when
// skip > maxSize. Each window is emitted as a lazily subscribed sub-stream
// the moment it opens.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type CountWindow[T any] struct {
	maxSize  int
	skip     int
	prefetch int
	obs      Observer
	name     string
}

// NewCountWindow creates a processor that opens a new window every skip
// elements (skip defaults to maxSize, giving contiguous windows) and closes
// each window after maxSize elements. The element that opens a window is
// also its first element; with overlap, an element is routed to every
// currently open window.
//
// When to use:
//   - Fixed-size examination of a stream (every N elements)
//   - Rolling computations over the last N elements, refreshed every M
//   - Sampling regions of a stream with deliberate gaps (skip > size)
//
// Example:
//
//	// Overlapping windows: size 5, a new one every 3 elements.
//	// Over 1..10 this produces [1 2 3 4 5], [4 5 6 7 8], [7 8 9 10], [10].
//	windower := batchz.NewCountWindow[int](5).WithSkip(3)
//
//	windows := windower.Process(ctx, numbers)
//	for w := range windows {
//		win := w.Value()
//		go consume(win.Seq(), win.Subscribe(ctx))
//	}
//
// Parameters:
//   - maxSize: Number of elements after which a window closes (must be > 0)
//
// Returns a new CountWindow processor with fluent configuration methods.
func NewCountWindow[T any](maxSize int) *CountWindow[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &CountWindow[T]{
		maxSize:  maxSize,
		skip:     maxSize,
		prefetch: DefaultPrefetch,
		name:     "count-window",
	}
}

// WithSkip sets how many elements apart consecutive windows open.
// skip < maxSize overlaps windows; skip > maxSize drops the elements between
// one window's close and the next one's open.
func (w *CountWindow[T]) WithSkip(skip int) *CountWindow[T] {
	if skip < 1 {
		skip = 1
	}
	w.skip = skip
	return w
}

// WithPrefetch sets each window's queue capacity. A full window queue blocks
// the dispatcher until that window's consumer drains; see the stall
// discussion on GroupBy.WithPrefetch.
func (w *CountWindow[T]) WithPrefetch(n int) *CountWindow[T] {
	if n < 1 {
		n = 1
	}
	w.prefetch = n
	return w
}

// WithObserver sets the lifecycle observer.
func (w *CountWindow[T]) WithObserver(obs Observer) *CountWindow[T] {
	w.obs = obs
	return w
}

// WithName sets a custom name for this processor.
func (w *CountWindow[T]) WithName(name string) *CountWindow[T] {
	w.name = name
	return w
}

// Process emits windows in creation order. On upstream completion all open
// windows complete in creation order; a terminal error is propagated to
// every open window and then to the outer channel.
func (w *CountWindow[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[*Window[T]] {
	out := make(chan Result[*Window[T]])

	go func() {
		defer close(out)

		ws := newWindowSet[T](w.name, w.prefetch, w.obs)
		i := 0

		for {
			select {
			case <-ctx.Done():
				ws.cancelAll()
				return

			case r, ok := <-in:
				if !ok {
					ws.closeAll(CloseComplete)
					return
				}
				if r.IsError() {
					ws.failAll(r.Error())
					sendError(ctx, out, r.Error(), w.name)
					return
				}

				if i%w.skip == 0 {
					e := ws.open()
					if !ws.emit(ctx, out, e) {
						ws.cancelAll()
						return
					}
				}
				i++

				if err := ws.route(ctx, r.Value()); err != nil {
					ws.cancelAll()
					return
				}

				for e := ws.front(); e != nil && e.n >= w.maxSize; e = ws.front() {
					ws.close(e, CloseSize)
				}
			}
		}
	}()

	return out
}

// Name returns the processor name.
func (w *CountWindow[T]) Name() string {
	return w.name
}
