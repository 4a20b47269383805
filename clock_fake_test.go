// Package batchz provides a fake clock implementation for deterministic testing.
package batchz

import (
	"context"
	"sync"
	"time"
)

// FakeClock implements Clock for testing purposes.
// It allows manual control of time progression.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type FakeClock struct {
	mu      sync.RWMutex
	wg      sync.WaitGroup
	time    time.Time
	waiters []*waiter
}

// waiter represents a timer or ticker waiting for a specific time.
type waiter struct {
	targetTime time.Time
	destChan   chan time.Time
	afterFunc  func()
	period     time.Duration // For tickers
	active     bool
}

// NewFakeClock creates a new FakeClock set to the given time.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{
		time: t,
	}
}

// Now returns the current time of the fake clock.
func (f *FakeClock) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.time
}

// Since returns the time elapsed since t.
func (f *FakeClock) Since(t time.Time) time.Duration {
	return f.Now().Sub(t)
}

// Sleep blocks until the fake clock advances past the duration.
func (f *FakeClock) Sleep(d time.Duration) {
	<-f.After(d)
}

// WithTimeout returns a context that cancels after the specified duration.
func (f *FakeClock) WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return f.WithDeadline(ctx, f.Now().Add(timeout))
}

// WithDeadline returns a context that cancels at the specified deadline.
func (f *FakeClock) WithDeadline(ctx context.Context, deadline time.Time) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	timer := f.AfterFunc(deadline.Sub(f.Now()), cancel)
	return ctx, func() {
		timer.Stop()
		cancel()
	}
}

// After waits for the duration to elapse and then sends the current time.
func (f *FakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan time.Time, 1)
	w := &waiter{
		targetTime: f.time.Add(d),
		destChan:   ch,
		active:     true,
	}
	f.waiters = append(f.waiters, w)

	return ch
}

// AfterFunc waits for the duration to elapse and then executes fn.
func (f *FakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	w := &waiter{
		targetTime: f.time.Add(d),
		afterFunc:  fn,
		active:     true,
	}
	f.waiters = append(f.waiters, w)

	return &fakeTimer{clock: f, waiter: w}
}

// NewTimer creates a new Timer.
func (f *FakeClock) NewTimer(d time.Duration) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	w := &waiter{
		targetTime: f.time.Add(d),
		destChan:   make(chan time.Time, 1),
		active:     true,
	}
	f.waiters = append(f.waiters, w)

	return &fakeTimer{clock: f, waiter: w}
}

// NewTicker returns a new Ticker.
func (f *FakeClock) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()

	w := &waiter{
		targetTime: f.time.Add(d),
		destChan:   make(chan time.Time, 1),
		period:     d,
		active:     true,
	}
	f.waiters = append(f.waiters, w)

	return &fakeTicker{clock: f, waiter: w}
}

// Step advances the fake clock by the given duration.
func (f *FakeClock) Step(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.setTimeLocked(f.time.Add(d))
}

// SetTime sets the fake clock to the given time.
func (f *FakeClock) SetTime(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.setTimeLocked(t)
}

// HasWaiters returns true if there are any waiters.
func (f *FakeClock) HasWaiters() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, w := range f.waiters {
		if w.active {
			return true
		}
	}
	return false
}

// BlockUntilReady blocks until all pending timer callbacks have completed.
func (f *FakeClock) BlockUntilReady() {
	f.wg.Wait()
}

// setTimeLocked sets the time and triggers any waiters. Caller must hold f.mu.
func (f *FakeClock) setTimeLocked(t time.Time) {
	if t.Before(f.time) {
		panic("cannot move fake clock backwards")
	}

	f.time = t

	newWaiters := make([]*waiter, 0, len(f.waiters))
	for _, w := range f.waiters {
		if !w.active {
			continue
		}

		if !w.targetTime.After(t) {
			if w.destChan != nil {
				select {
				case w.destChan <- t:
				default:
				}
			}

			if w.afterFunc != nil {
				f.wg.Add(1)
				go func() {
					defer f.wg.Done()
					w.afterFunc()
				}()
			}

			// Tickers rearm; timers are done.
			if w.period > 0 {
				w.targetTime = w.targetTime.Add(w.period)
				for !w.targetTime.After(t) {
					select {
					case w.destChan <- w.targetTime:
					default:
					}
					w.targetTime = w.targetTime.Add(w.period)
				}
				newWaiters = append(newWaiters, w)
			}
		} else {
			newWaiters = append(newWaiters, w)
		}
	}

	f.waiters = newWaiters
}

// fakeTimer implements Timer.
type fakeTimer struct {
	clock  *FakeClock
	waiter *waiter
}

// Stop prevents the Timer from firing.
func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	active := t.waiter.active
	t.waiter.active = false
	return active
}

// Reset changes the timer to expire after duration d.
func (t *fakeTimer) Reset(d time.Duration) bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	active := t.waiter.active
	t.waiter.active = true
	t.waiter.targetTime = t.clock.time.Add(d)

	// Drop a stale fire so the rearmed timer doesn't trigger early.
	if t.waiter.destChan != nil {
		select {
		case <-t.waiter.destChan:
		default:
		}
	}

	// A fired or stopped waiter may have been pruned; re-register it.
	for _, w := range t.clock.waiters {
		if w == t.waiter {
			return active
		}
	}
	t.clock.waiters = append(t.clock.waiters, t.waiter)
	return active
}

// C returns the channel on which the time will be sent.
func (t *fakeTimer) C() <-chan time.Time {
	return t.waiter.destChan
}

// fakeTicker implements Ticker.
type fakeTicker struct {
	clock  *FakeClock
	waiter *waiter
}

// Stop turns off the ticker.
func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	t.waiter.active = false
}

// C returns the channel on which the ticks are delivered.
func (t *fakeTicker) C() <-chan time.Time {
	return t.waiter.destChan
}
