package batchz

import (
	"context"
	"sync"
)

// demandQueue is the bounded single-producer/single-consumer queue that
// couples a batch to downstream demand. The producer side (the dispatcher)
// may buffer up to the prefetch capacity without any consumer present; once
// the queue is full, send blocks until the consumer drains or the queue
// terminates. Delivery to the consumer is demand-counted: next hands out an
// element only after the consumer has granted demand via request.
//
// A blocked send is the stall state described throughout this package: it is
// not an error and resolves only when downstream demand resumes.
type demandQueue[T any] struct {
	mu  sync.Mutex
	buf []Result[T] // ring buffer, len(buf) == capacity
	// head indexes the oldest element; count is the number buffered.
	head  int
	count int

	// demand is the number of elements the consumer has requested and not
	// yet received. Buffering up to capacity needs no demand; handing an
	// element to the consumer consumes one unit.
	demand int

	closed  bool  // no further elements; buffered ones still drain
	failure error // delivered to the consumer after the buffer drains
	term    bool  // terminated: buffered elements are abandoned

	// Signal channels, capacity 1. A non-blocking send wakes the other side;
	// both sides re-check state under mu after waking.
	spaceCh chan struct{}
	itemCh  chan struct{}

	onStall  func() // invoked when send begins blocking on a full queue
	onResume func() // invoked when a blocked send proceeds
}

func newDemandQueue[T any](capacity int) *demandQueue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &demandQueue[T]{
		buf:     make([]Result[T], capacity),
		spaceCh: make(chan struct{}, 1),
		itemCh:  make(chan struct{}, 1),
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// send enqueues one element, blocking while the queue is full. It returns
// ErrStreamClosed if the queue was closed or terminated, and ctx.Err() if the
// producer's context ends while blocked.
func (q *demandQueue[T]) send(ctx context.Context, r Result[T]) error {
	q.mu.Lock()
	stalled := false
	for {
		if q.closed || q.term {
			q.mu.Unlock()
			if stalled && q.onResume != nil {
				q.onResume()
			}
			return ErrStreamClosed
		}
		if q.count < len(q.buf) {
			q.buf[(q.head+q.count)%len(q.buf)] = r
			q.count++
			q.mu.Unlock()
			signal(q.itemCh)
			if stalled && q.onResume != nil {
				q.onResume()
			}
			return nil
		}
		q.mu.Unlock()

		if !stalled {
			stalled = true
			if q.onStall != nil {
				q.onStall()
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.spaceCh:
		}
		q.mu.Lock()
	}
}

// request grants the consumer side n more units of demand.
func (q *demandQueue[T]) request(n int) {
	if n <= 0 {
		return
	}
	q.mu.Lock()
	q.demand += n
	q.mu.Unlock()
	signal(q.itemCh)
}

// next dequeues one element, blocking until an element is buffered and
// demand has been granted. The second return is false once the queue is
// exhausted: after close-and-drain, after termination, or when ctx ends.
// A pending failure is delivered as a final error Result before exhaustion.
func (q *demandQueue[T]) next(ctx context.Context) (Result[T], bool) {
	var zero Result[T]
	q.mu.Lock()
	for {
		if q.term {
			q.mu.Unlock()
			return zero, false
		}
		if q.count > 0 && q.demand > 0 {
			r := q.buf[q.head]
			q.buf[q.head] = zero
			q.head = (q.head + 1) % len(q.buf)
			q.count--
			q.demand--
			q.mu.Unlock()
			signal(q.spaceCh)
			return r, true
		}
		if q.count == 0 && q.closed {
			if err := q.failure; err != nil {
				q.failure = nil
				q.mu.Unlock()
				return NewError(zero.value, err, "substream"), true
			}
			q.mu.Unlock()
			return zero, false
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			q.terminate()
			return zero, false
		case <-q.itemCh:
		}
		q.mu.Lock()
	}
}

// close marks the queue complete. Buffered elements still drain; send
// returns ErrStreamClosed afterward.
func (q *demandQueue[T]) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	signal(q.itemCh)
	signal(q.spaceCh)
}

// fail marks the queue complete with a terminal error. Buffered elements
// drain first; the error supersedes completion and is delivered last.
func (q *demandQueue[T]) fail(err error) {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.failure = err
	}
	q.mu.Unlock()
	signal(q.itemCh)
	signal(q.spaceCh)
}

// terminate abandons the queue: buffered elements are dropped and both sides
// unblock. Used for consumer-side cancellation.
func (q *demandQueue[T]) terminate() {
	q.mu.Lock()
	q.term = true
	q.count = 0
	q.mu.Unlock()
	signal(q.itemCh)
	signal(q.spaceCh)
}

// terminated reports whether the consumer abandoned the queue.
func (q *demandQueue[T]) terminated() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.term
}

// depth returns the number of buffered, undelivered elements.
func (q *demandQueue[T]) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}
