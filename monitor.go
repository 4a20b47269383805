package batchz

import (
	"context"
	"sync/atomic"
	"time"
)

// StreamStats contains statistics about Results flowing through a monitored
// stream, for observability around the batching operators.
type StreamStats struct {
	// LastUpdate is the timestamp of this statistics snapshot
	LastUpdate time.Time
	// Count is the number of Results observed since the last report
	Count int64
	// Errors is the number of error Results observed since the last report
	Errors int64
	// Rate is the average Results per second since the last report
	Rate float64
}

// Monitor observes Results passing through a stream and periodically reports
// statistics. It's a pass-through processor that doesn't modify the stream
// but provides visibility into throughput on either side of a batching
// operator.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Monitor[T any] struct {
	onStats  func(StreamStats)
	name     string
	interval time.Duration
	clock    Clock
	count    atomic.Int64
	errors   atomic.Int64
}

// NewMonitor creates a pass-through processor that observes stream
// throughput. Place it before a batching operator to watch upstream
// pressure, or after one to watch batch emission; paired with an Observer's
// stall callbacks it pinpoints where demand coupling is holding a pipeline
// back.
//
// Example:
//
//	monitor := batchz.NewMonitor[Order](time.Second, batchz.RealClock,
//		func(stats batchz.StreamStats) {
//			log.Printf("%.2f results/sec (%d errors)", stats.Rate, stats.Errors)
//		})
//
//	observed := monitor.Process(ctx, orders)
//
// Parameters:
//   - interval: How often to report statistics
//   - clock: Clock interface for time operations
//   - onStats: Callback function invoked with statistics at each interval
//
// Returns a new Monitor processor that observes stream throughput.
func NewMonitor[T any](interval time.Duration, clock Clock, onStats func(StreamStats)) *Monitor[T] {
	return &Monitor[T]{
		name:     "monitor",
		interval: interval,
		clock:    clock,
		onStats:  onStats,
	}
}

// WithName sets a custom name for this processor.
func (m *Monitor[T]) WithName(name string) *Monitor[T] {
	m.name = name
	return m
}

func (m *Monitor[T]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[T] {
	out := make(chan Result[T])

	go func() {
		defer close(out)

		ticker := m.clock.NewTicker(m.interval)
		defer ticker.Stop()

		last := m.clock.Now()

		report := func() {
			now := m.clock.Now()
			count := m.count.Swap(0)
			errs := m.errors.Swap(0)
			elapsed := now.Sub(last).Seconds()
			last = now

			rate := 0.0
			if elapsed > 0 {
				rate = float64(count) / elapsed
			}
			if m.onStats != nil {
				m.onStats(StreamStats{
					LastUpdate: now,
					Count:      count,
					Errors:     errs,
					Rate:       rate,
				})
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case r, ok := <-in:
				if !ok {
					report()
					return
				}
				m.count.Add(1)
				if r.IsError() {
					m.errors.Add(1)
				}
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}

			case <-ticker.C():
				report()
			}
		}
	}()

	return out
}

// Name returns the processor name.
func (m *Monitor[T]) Name() string {
	return m.name
}
