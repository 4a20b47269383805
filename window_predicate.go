package batchz

import (
	"context"
)

// WindowWhile redistributes a stream into windows of consecutive elements
// matching a predicate. A matching element joins the current window, opening
// one if necessary; a non-matching element closes the current window and is
// discarded. Every closure emits a window, including empty ones: a
// non-matching element arriving with no window open emits an empty window.
// No trailing empty window is emitted at completion. This asymmetry with
// BufferWhile, which suppresses empty emissions, is deliberate and part of
// the contract.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type WindowWhile[T any] struct {
	pred     func(T) bool
	prefetch int
	obs      Observer
	name     string
}

// NewWindowWhile creates a processor that cuts windows at predicate
// transitions. The predicate must be deterministic and side-effect free.
//
// When to use:
//   - Splitting a stream at sentinel or delimiter elements
//   - Isolating runs of elements sharing a property
//   - Detecting gaps: each empty window marks a lone non-matching element
//
// Example:
//
//	// Over 1,3,5,2,4,6,11,12,13 this emits three empty windows (for 1, 3
//	// and 5), then a window of 2,4,6, then a window of 12.
//	windower := batchz.NewWindowWhile(func(n int) bool { return n%2 == 0 })
//
//	windows := windower.Process(ctx, numbers)
//	for w := range windows {
//		win := w.Value()
//		go consume(win.Subscribe(ctx))
//	}
//
// Parameters:
//   - pred: Predicate deciding whether an element continues the current window
//
// Returns a new WindowWhile processor with fluent configuration methods.
func NewWindowWhile[T any](pred func(T) bool) *WindowWhile[T] {
	return &WindowWhile[T]{
		pred:     pred,
		prefetch: DefaultPrefetch,
		name:     "window-while",
	}
}

// WithPrefetch sets each window's queue capacity; see GroupBy.WithPrefetch
// for the stall discussion.
func (w *WindowWhile[T]) WithPrefetch(n int) *WindowWhile[T] {
	if n < 1 {
		n = 1
	}
	w.prefetch = n
	return w
}

// WithObserver sets the lifecycle observer.
func (w *WindowWhile[T]) WithObserver(obs Observer) *WindowWhile[T] {
	w.obs = obs
	return w
}

// WithName sets a custom name for this processor.
func (w *WindowWhile[T]) WithName(name string) *WindowWhile[T] {
	w.name = name
	return w
}

// Process emits windows in creation order.
func (w *WindowWhile[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[*Window[T]] {
	out := make(chan Result[*Window[T]])

	go func() {
		defer close(out)

		ws := newWindowSet[T](w.name, w.prefetch, w.obs)
		var cur *winEntry[T]

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

				if cur != nil && cur.win.canceled() {
					ws.remove(cur)
					cur = nil
				}

				if w.pred(r.Value()) {
					if cur == nil {
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
					continue
				}

				// Predicate transition: the non-matching element closes the
				// current window and is discarded. With no window open it
				// still marks a boundary, emitted as an empty window.
				if cur == nil {
					cur = ws.open()
					if !ws.emit(ctx, out, cur) {
						ws.cancelAll()
						return
					}
				}
				ws.close(cur, ClosePredicate)
				cur = nil
			}
		}
	}()

	return out
}

// Name returns the processor name.
func (w *WindowWhile[T]) Name() string {
	return w.name
}

// WindowUntil redistributes a stream into windows delimited by separator
// elements, identified by a predicate. Every separator closes the current
// window (emitting an empty window if none is open) and is dropped by
// default; WithCutBefore routes the separator into the next window instead.
// The final partial window is emitted at completion.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type WindowUntil[T any] struct {
	pred      func(T) bool
	cutBefore bool
	prefetch  int
	obs       Observer
	name      string
}

// NewWindowUntil creates a processor that cuts windows at separator
// elements. The predicate must be deterministic and side-effect free.
//
// The cut policy is explicit: by default the separator belongs to neither
// the window it closes nor the next one. Call WithCutBefore(true) to make
// each separator open and begin the next window instead.
//
// Example:
//
//	// New window after every checkpoint marker; markers are dropped.
//	windower := batchz.NewWindowUntil(func(e Event) bool {
//		return e.Kind == KindCheckpoint
//	})
//
// Parameters:
//   - pred: Predicate identifying separator elements
//
// Returns a new WindowUntil processor with fluent configuration methods.
func NewWindowUntil[T any](pred func(T) bool) *WindowUntil[T] {
	return &WindowUntil[T]{
		pred:     pred,
		prefetch: DefaultPrefetch,
		name:     "window-until",
	}
}

// WithCutBefore makes each separator element start the next window rather
// than being dropped.
func (w *WindowUntil[T]) WithCutBefore(cutBefore bool) *WindowUntil[T] {
	w.cutBefore = cutBefore
	return w
}

// WithPrefetch sets each window's queue capacity; see GroupBy.WithPrefetch
// for the stall discussion.
func (w *WindowUntil[T]) WithPrefetch(n int) *WindowUntil[T] {
	if n < 1 {
		n = 1
	}
	w.prefetch = n
	return w
}

// WithObserver sets the lifecycle observer.
func (w *WindowUntil[T]) WithObserver(obs Observer) *WindowUntil[T] {
	w.obs = obs
	return w
}

// WithName sets a custom name for this processor.
func (w *WindowUntil[T]) WithName(name string) *WindowUntil[T] {
	w.name = name
	return w
}

// Process emits windows in creation order.
func (w *WindowUntil[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[*Window[T]] {
	out := make(chan Result[*Window[T]])

	go func() {
		defer close(out)

		ws := newWindowSet[T](w.name, w.prefetch, w.obs)
		var cur *winEntry[T]

		openCur := func() bool {
			cur = ws.open()
			if !ws.emit(ctx, out, cur) {
				ws.cancelAll()
				return false
			}
			return true
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

				if cur != nil && cur.win.canceled() {
					ws.remove(cur)
					cur = nil
				}

				if !w.pred(r.Value()) {
					if cur == nil && !openCur() {
						return
					}
					if err := ws.route(ctx, r.Value()); err != nil {
						ws.cancelAll()
						return
					}
					continue
				}

				// Separator: close the current window, empty or not.
				if cur == nil && !openCur() {
					return
				}
				ws.close(cur, ClosePredicate)
				cur = nil

				if w.cutBefore {
					if !openCur() {
						return
					}
					if err := ws.route(ctx, r.Value()); err != nil {
						ws.cancelAll()
						return
					}
				}
			}
		}
	}()

	return out
}

// Name returns the processor name.
func (w *WindowUntil[T]) Name() string {
	return w.name
}
