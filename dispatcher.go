package batchz

import (
	"context"
	"errors"
	"time"
)

// Window is a boundary-delimited sub-sequence emitted by the windowing
// operators. The handle is emitted when the window opens; its elements are
// consumed by subscribing to the embedded Substream. Windows may overlap
// (count windows with skip < size) and may be empty (predicate and boundary
// closures with no intervening elements).
type Window[T any] struct {
	*Substream[T]
}

// winEntry tracks one open window inside an operator's dispatch loop.
type winEntry[T any] struct {
	win      *Window[T]
	openedAt time.Time
	n        int
}

// windowSet is the ordered table of currently open windows owned by a single
// Process call. Windows are registered in creation order and always closed
// in creation order; the table never outlives its dispatcher.
type windowSet[T any] struct {
	op       string
	prefetch int
	obs      Observer
	clock    Clock
	entries  []*winEntry[T]
	seq      int
}

func newWindowSet[T any](op string, prefetch int, obs Observer) *windowSet[T] {
	return &windowSet[T]{op: op, prefetch: prefetch, obs: obs, clock: RealClock}
}

func (ws *windowSet[T]) info(e *winEntry[T]) BatchInfo {
	return BatchInfo{
		Operator: ws.op,
		Kind:     KindWindow,
		ID:       e.win.ID(),
		Seq:      e.win.Seq(),
		Size:     e.n,
	}
}

// open creates and registers a new window, wiring stall observation into its
// queue.
func (ws *windowSet[T]) open() *winEntry[T] {
	sub := newSubstream[T](ws.seq, ws.prefetch)
	ws.seq++
	e := &winEntry[T]{win: &Window[T]{Substream: sub}, openedAt: ws.clock.Now()}
	sub.q.onStall = func() { ws.obs.stall(ws.info(e)) }
	sub.q.onResume = func() { ws.obs.resume(ws.info(e)) }
	ws.entries = append(ws.entries, e)
	ws.obs.open(ws.info(e))
	return e
}

// emit hands a window handle to the downstream consumer. The send blocks
// until the consumer accepts it, which is how outer demand throttles window
// creation. Returns false if ctx ends first.
func (ws *windowSet[T]) emit(ctx context.Context, out chan<- Result[*Window[T]], e *winEntry[T]) bool {
	r := NewSuccess(e.win).
		WithMetadata(MetadataBatchID, e.win.ID()).
		WithMetadata(MetadataBatchKind, KindWindow).
		WithMetadata(MetadataBatchSeq, e.win.Seq()).
		WithMetadata(MetadataOpenedAt, e.openedAt).
		WithMetadata(MetadataOperator, ws.op)
	select {
	case out <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// route sends an element to every open window. Windows abandoned by their
// consumers are dropped from the table instead of failing the pipeline.
// Returns a non-nil error only when the dispatcher's context ends.
func (ws *windowSet[T]) route(ctx context.Context, item T) error {
	kept := ws.entries[:0]
	for _, e := range ws.entries {
		if e.win.canceled() {
			continue
		}
		if err := e.win.send(ctx, NewSuccess(item)); err != nil {
			if errors.Is(err, ErrStreamClosed) {
				continue
			}
			return err
		}
		e.n++
		kept = append(kept, e)
	}
	ws.entries = kept
	return nil
}

// remove unregisters an entry without closing it.
func (ws *windowSet[T]) remove(e *winEntry[T]) {
	for i, cur := range ws.entries {
		if cur == e {
			ws.entries = append(ws.entries[:i], ws.entries[i+1:]...)
			return
		}
	}
}

// close completes a window and unregisters it.
func (ws *windowSet[T]) close(e *winEntry[T], reason CloseReason) {
	ws.remove(e)
	e.win.closeStream()
	info := ws.info(e)
	info.Reason = reason
	ws.obs.closed(info)
}

// front returns the oldest open window, or nil.
func (ws *windowSet[T]) front() *winEntry[T] {
	if len(ws.entries) == 0 {
		return nil
	}
	return ws.entries[0]
}

// closeAll completes every open window in creation order.
func (ws *windowSet[T]) closeAll(reason CloseReason) {
	for len(ws.entries) > 0 {
		ws.close(ws.entries[0], reason)
	}
}

// failAll propagates a terminal error to every open window, in creation
// order, and clears the table.
func (ws *windowSet[T]) failAll(err error) {
	entries := ws.entries
	ws.entries = nil
	for _, e := range entries {
		e.win.failStream(err)
		info := ws.info(e)
		info.Reason = CloseError
		ws.obs.closed(info)
	}
	ws.obs.terminalError(ws.op, err)
}

// cancelAll abandons every open window. Used when the dispatcher's context
// ends: cancellation of the outer sequence cancels open batches transitively.
func (ws *windowSet[T]) cancelAll() {
	entries := ws.entries
	ws.entries = nil
	for _, e := range entries {
		e.win.cancel()
		info := ws.info(e)
		info.Reason = CloseCancel
		ws.obs.closed(info)
	}
}

// bufEntry tracks one open buffer: a materialized ordered collection that is
// emitted atomically when its boundary closes.
type bufEntry[T any] struct {
	items    []T
	openedAt time.Time
	seq      int
}

// bufferSet is the ordered table of currently open buffers owned by a single
// Process call.
type bufferSet[T any] struct {
	op      string
	obs     Observer
	clock   Clock
	entries []*bufEntry[T]
	seq     int
}

func newBufferSet[T any](op string, obs Observer) *bufferSet[T] {
	return &bufferSet[T]{op: op, obs: obs, clock: RealClock}
}

func (bs *bufferSet[T]) info(e *bufEntry[T]) BatchInfo {
	return BatchInfo{
		Operator: bs.op,
		Kind:     KindBuffer,
		Seq:      e.seq,
		Size:     len(e.items),
	}
}

// open creates and registers a new buffer.
func (bs *bufferSet[T]) open() *bufEntry[T] {
	e := &bufEntry[T]{seq: bs.seq, openedAt: bs.clock.Now()}
	bs.seq++
	bs.entries = append(bs.entries, e)
	bs.obs.open(bs.info(e))
	return e
}

// route appends an element to every open buffer.
func (bs *bufferSet[T]) route(item T) {
	for _, e := range bs.entries {
		e.items = append(e.items, item)
	}
}

func (bs *bufferSet[T]) remove(e *bufEntry[T]) {
	for i, cur := range bs.entries {
		if cur == e {
			bs.entries = append(bs.entries[:i], bs.entries[i+1:]...)
			return
		}
	}
}

// front returns the oldest open buffer, or nil.
func (bs *bufferSet[T]) front() *bufEntry[T] {
	if len(bs.entries) == 0 {
		return nil
	}
	return bs.entries[0]
}

// emit closes a buffer and sends its contents downstream as an immutable
// snapshot. The send blocks until the consumer accepts it; that is the
// demand coupling for buffer operators. Returns false if ctx ends first.
func (bs *bufferSet[T]) emit(ctx context.Context, out chan<- Result[[]T], e *bufEntry[T], reason CloseReason) bool {
	bs.remove(e)
	info := bs.info(e)
	info.Reason = reason
	bs.obs.closed(info)

	items := make([]T, len(e.items))
	copy(items, e.items)
	r := NewSuccess(items).
		WithMetadata(MetadataBatchKind, KindBuffer).
		WithMetadata(MetadataBatchSeq, e.seq).
		WithMetadata(MetadataCloseReason, reason).
		WithMetadata(MetadataOpenedAt, e.openedAt).
		WithMetadata(MetadataClosedAt, bs.clock.Now()).
		WithMetadata(MetadataOperator, bs.op)
	select {
	case out <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// discard closes a buffer without emitting it. Used for empty-buffer
// suppression and terminal errors.
func (bs *bufferSet[T]) discard(e *bufEntry[T], reason CloseReason) {
	bs.remove(e)
	info := bs.info(e)
	info.Reason = reason
	bs.obs.closed(info)
}

// emitAll closes every open buffer in creation order. Empty buffers are
// emitted or suppressed per emitEmpty. Returns false if ctx ends first.
func (bs *bufferSet[T]) emitAll(ctx context.Context, out chan<- Result[[]T], reason CloseReason, emitEmpty bool) bool {
	for len(bs.entries) > 0 {
		e := bs.entries[0]
		if len(e.items) == 0 && !emitEmpty {
			bs.discard(e, reason)
			continue
		}
		if !bs.emit(ctx, out, e, reason) {
			return false
		}
	}
	return true
}

// discardAll drops every open buffer. The terminal error that caused it
// supersedes their contents on the outer channel.
func (bs *bufferSet[T]) discardAll(reason CloseReason) {
	for len(bs.entries) > 0 {
		bs.discard(bs.entries[0], reason)
	}
}

// fail reports a terminal error and drops all open buffers.
func (bs *bufferSet[T]) fail(err error) {
	bs.discardAll(CloseError)
	bs.obs.terminalError(bs.op, err)
}

// sendError delivers a terminal error Result on an outer channel.
func sendError[Out any](ctx context.Context, out chan<- Result[Out], err error, op string) {
	var zero Out
	select {
	case out <- NewError(zero, err, op):
	case <-ctx.Done():
	}
}
