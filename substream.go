package batchz

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// Substream is a lazily subscribed sub-sequence of an outer stream. It moves
// through three states: unsubscribed-buffering (elements accumulate in a
// bounded queue), subscribed-draining (a drain goroutine replays them in
// order under demand), and closed. A Substream is emitted as the content of
// a Group or Window before any consumer exists; elements received meanwhile
// are held up to the prefetch capacity, after which the dispatcher that
// feeds it blocks.
//
// Subscribe may be called at most once. Canceling the subscription context
// abandons buffered elements and detaches the substream from its dispatcher.
type Substream[T any] struct {
	id         string
	seq        int
	q          *demandQueue[T]
	subscribed atomic.Bool
}

func newSubstream[T any](seq, prefetch int) *Substream[T] {
	return &Substream[T]{
		id:  uuid.NewString(),
		seq: seq,
		q:   newDemandQueue[T](prefetch),
	}
}

// ID returns the unique identifier of this substream.
func (s *Substream[T]) ID() string {
	return s.id
}

// Seq returns the creation sequence number of this substream within its
// operator: the window generation index for windows, the group creation
// index for groups.
func (s *Substream[T]) Seq() int {
	return s.seq
}

// Subscribe transitions the substream to draining and returns the channel
// its elements are replayed on, in arrival order. The channel closes after
// the last element once the batch is closed; a terminal pipeline error
// arrives as a final error Result. Subscribing a second time returns a
// closed channel.
func (s *Substream[T]) Subscribe(ctx context.Context) <-chan Result[T] {
	out := make(chan Result[T])
	if !s.subscribed.CompareAndSwap(false, true) {
		close(out)
		return out
	}

	go func() {
		defer close(out)
		for {
			s.q.request(1)
			r, ok := s.q.next(ctx)
			if !ok {
				return
			}
			select {
			case out <- r:
			case <-ctx.Done():
				s.q.terminate()
				return
			}
		}
	}()

	return out
}

// send routes one element into the substream, blocking while its queue is
// full. Returns ErrStreamClosed if the substream is closed or was abandoned
// by its consumer.
func (s *Substream[T]) send(ctx context.Context, r Result[T]) error {
	return s.q.send(ctx, r)
}

// closeStream completes the substream; buffered elements still drain.
func (s *Substream[T]) closeStream() {
	s.q.close()
}

// failStream completes the substream with a terminal error, delivered after
// buffered elements drain.
func (s *Substream[T]) failStream(err error) {
	s.q.fail(err)
}

// cancel abandons the substream, dropping buffered elements.
func (s *Substream[T]) cancel() {
	s.q.terminate()
}

// canceled reports whether the consumer abandoned this substream.
func (s *Substream[T]) canceled() bool {
	return s.q.terminated()
}
