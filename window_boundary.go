package batchz

import (
	"context"
)

// BoundaryWindow redistributes a stream into contiguous windows delimited by
// a companion boundary signal. The first window opens immediately; every
// boundary emission closes the current window and opens the next, regardless
// of how many elements arrived in between, so empty windows are possible.
// If the boundary channel closes, the current window simply runs until the
// upstream completes.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type BoundaryWindow[T, B any] struct {
	boundary <-chan B
	prefetch int
	obs      Observer
	name     string
}

// NewBoundaryWindow creates a processor that cuts windows whenever the
// companion boundary sequence emits. The boundary values themselves are
// discarded; only their timing matters.
//
// When to use:
//   - Aligning batches to an external cadence (checkpoints, commits, ticks)
//   - Cutting windows from one stream by the activity of another
//
// Example:
//
//	commits := make(chan struct{})
//	windower := batchz.NewBoundaryWindow[Event, struct{}](commits)
//
//	windows := windower.Process(ctx, events)
//	for w := range windows {
//		win := w.Value()
//		go consume(win.Subscribe(ctx))
//	}
//
// Parameters:
//   - boundary: Companion sequence whose emissions close the current window
//
// Returns a new BoundaryWindow processor with fluent configuration methods.
func NewBoundaryWindow[T, B any](boundary <-chan B) *BoundaryWindow[T, B] {
	return &BoundaryWindow[T, B]{
		boundary: boundary,
		prefetch: DefaultPrefetch,
		name:     "boundary-window",
	}
}

// WithPrefetch sets each window's queue capacity; see GroupBy.WithPrefetch
// for the stall discussion.
func (w *BoundaryWindow[T, B]) WithPrefetch(n int) *BoundaryWindow[T, B] {
	if n < 1 {
		n = 1
	}
	w.prefetch = n
	return w
}

// WithObserver sets the lifecycle observer.
func (w *BoundaryWindow[T, B]) WithObserver(obs Observer) *BoundaryWindow[T, B] {
	w.obs = obs
	return w
}

// WithName sets a custom name for this processor.
func (w *BoundaryWindow[T, B]) WithName(name string) *BoundaryWindow[T, B] {
	w.name = name
	return w
}

// Process emits windows in creation order.
func (w *BoundaryWindow[T, B]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[*Window[T]] {
	out := make(chan Result[*Window[T]])

	go func() {
		defer close(out)

		ws := newWindowSet[T](w.name, w.prefetch, w.obs)
		boundary := w.boundary

		cur := ws.open()
		if !ws.emit(ctx, out, cur) {
			ws.cancelAll()
			return
		}

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
				if cur.win.canceled() {
					ws.remove(cur)
					cur = ws.open()
					if !ws.emit(ctx, out, cur) {
						ws.cancelAll()
						return
					}
				}
				if err := ws.route(ctx, r.Value()); err != nil {
					ws.cancelAll()
					return
				}

			case _, ok := <-boundary:
				if !ok {
					// Boundary exhausted: no further cuts.
					boundary = nil
					continue
				}
				ws.close(cur, CloseBoundary)
				cur = ws.open()
				if !ws.emit(ctx, out, cur) {
					ws.cancelAll()
					return
				}
			}
		}
	}()

	return out
}

// Name returns the processor name.
func (w *BoundaryWindow[T, B]) Name() string {
	return w.name
}
