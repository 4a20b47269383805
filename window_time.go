package batchz

import (
	"context"
	"time"
)

// TimeWindow redistributes a stream into contiguous windows delimited by
// elapsed time. A window opens on the first element after the previous close
// and closes when its span elapses or, optionally, when it reaches a maximum
// size, whichever comes first. Windows are emitted as lazily subscribed
// sub-streams when they open.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type TimeWindow[T any] struct {
	span     time.Duration
	maxSize  int
	prefetch int
	obs      Observer
	name     string
	clock    Clock
}

// NewTimeWindow creates a processor that closes each window after span has
// elapsed since it opened. Combine with WithMaxSize for timeout-style
// batching that never waits longer than span and never grows past the size
// cap.
//
// When to use:
//   - Time-sliced processing of an irregular stream
//   - Bounding the latency of downstream batch consumers
//   - Timeout-style batching (size cap with a deadline)
//
// Example:
//
//	// Close each window after 5 seconds or 1000 elements.
//	windower := batchz.NewTimeWindow[Event](5*time.Second, batchz.RealClock).
//		WithMaxSize(1000)
//
//	windows := windower.Process(ctx, events)
//	for w := range windows {
//		win := w.Value()
//		go consume(win.Subscribe(ctx))
//	}
//
// Parameters:
//   - span: Duration after which an open window closes (must be > 0)
//   - clock: Clock interface for time operations
//
// Returns a new TimeWindow processor with fluent configuration methods.
func NewTimeWindow[T any](span time.Duration, clock Clock) *TimeWindow[T] {
	return &TimeWindow[T]{
		span:     span,
		prefetch: DefaultPrefetch,
		name:     "time-window",
		clock:    clock,
	}
}

// WithMaxSize caps the number of elements per window. A window reaching the
// cap closes immediately without waiting for its span. 0 disables the cap.
func (w *TimeWindow[T]) WithMaxSize(n int) *TimeWindow[T] {
	if n < 0 {
		n = 0
	}
	w.maxSize = n
	return w
}

// WithPrefetch sets each window's queue capacity; see GroupBy.WithPrefetch
// for the stall discussion.
func (w *TimeWindow[T]) WithPrefetch(n int) *TimeWindow[T] {
	if n < 1 {
		n = 1
	}
	w.prefetch = n
	return w
}

// WithObserver sets the lifecycle observer.
func (w *TimeWindow[T]) WithObserver(obs Observer) *TimeWindow[T] {
	w.obs = obs
	return w
}

// WithName sets a custom name for this processor.
func (w *TimeWindow[T]) WithName(name string) *TimeWindow[T] {
	w.name = name
	return w
}

// Process emits windows in creation order. The span timer starts when a
// window opens, not at fixed wall-clock intervals, so quiet periods produce
// no empty windows.
func (w *TimeWindow[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[*Window[T]] {
	out := make(chan Result[*Window[T]])

	go func() {
		defer close(out)

		ws := newWindowSet[T](w.name, w.prefetch, w.obs)
		ws.clock = w.clock
		timer := w.clock.NewTimer(w.span)
		timer.Stop()
		defer timer.Stop()

		var cur *winEntry[T]

		for {
			select {
			case <-ctx.Done():
				ws.cancelAll()
				return

			case item, ok := <-in:
				if !ok {
					ws.closeAll(CloseComplete)
					return
				}
				if item.IsError() {
					ws.failAll(item.Error())
					sendError(ctx, out, item.Error(), w.name)
					return
				}

				if cur != nil && cur.win.canceled() {
					timer.Stop()
					ws.remove(cur)
					cur = nil
				}
				if cur == nil {
					cur = ws.open()
					if !ws.emit(ctx, out, cur) {
						ws.cancelAll()
						return
					}
					timer.Reset(w.span)
				}

				if err := ws.route(ctx, item.Value()); err != nil {
					ws.cancelAll()
					return
				}

				if w.maxSize > 0 && cur.n >= w.maxSize {
					timer.Stop()
					ws.close(cur, CloseSize)
					cur = nil
				}

			case <-timer.C():
				if cur != nil {
					ws.close(cur, CloseSpan)
					cur = nil
				}
			}
		}
	}()

	return out
}

// Name returns the processor name.
func (w *TimeWindow[T]) Name() string {
	return w.name
}
