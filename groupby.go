package batchz

import (
	"context"
)

// Group is a disjoint, key-identified sub-sequence produced by GroupBy.
// Every element whose classifier output equals Key is routed to this group,
// in upstream order. A group is created lazily on its first matching element
// and completes only when the upstream completes; it is never closed early
// while the upstream is live, unless its consumer cancels.
type Group[K comparable, T any] struct {
	// Key is the classifier output identifying this group.
	Key K

	*Substream[T]
}

// GroupBy partitions a stream into disjoint groups by a key classifier.
// Each element belongs to exactly one group, groups are emitted in
// first-encounter order of their keys, and no group is ever emitted empty.
// Group contents are consumed by subscribing to each emitted Group, usually
// on a separate goroutine per group.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type GroupBy[T any, K comparable] struct {
	key      func(T) (K, error)
	prefetch int
	obs      Observer
	name     string
}

// NewGroupBy creates a processor that splits a stream into per-key
// sub-streams. The classifier must be deterministic and side-effect free; an
// error returned by it is terminal for the whole pipeline, failing every
// open group and the outer sequence.
//
// Each group holds at most the prefetch capacity of unconsumed elements.
// When a group's queue is full, the dispatcher stops pulling from upstream
// until that group's consumer drains. If the consumer concurrency never
// revisits a pending group, the pipeline stalls permanently. This hazard is
// inherent to demand-based flow control and is deliberately not masked;
// see WithPrefetch.
//
// When to use:
//   - Routing elements to per-key handlers (per customer, per region)
//   - Demultiplexing a merged event stream back into logical streams
//   - Keyed aggregation where each group is reduced independently
//
// Example:
//
//	grouper := batchz.NewGroupBy(func(e Event) (string, error) {
//		return e.TenantID, nil
//	}).WithPrefetch(64)
//
//	groups := grouper.Process(ctx, events)
//	for g := range groups {
//		if g.IsError() {
//			return g.Error()
//		}
//		group := g.Value()
//		go consume(group.Key, group.Subscribe(ctx))
//	}
//
// Parameters:
//   - key: Classifier mapping an element to its group key
//
// Returns a new GroupBy processor with fluent configuration methods.
func NewGroupBy[T any, K comparable](key func(T) (K, error)) *GroupBy[T, K] {
	return &GroupBy[T, K]{
		key:      key,
		prefetch: DefaultPrefetch,
		name:     "group-by",
	}
}

// WithPrefetch sets each group's queue capacity: how many elements a group
// may hold before the dispatcher stops pulling from upstream. A larger value
// buys more slack between unevenly consumed groups at the cost of memory; no
// value eliminates the stall hazard when a group is never consumed.
func (g *GroupBy[T, K]) WithPrefetch(n int) *GroupBy[T, K] {
	if n < 1 {
		n = 1
	}
	g.prefetch = n
	return g
}

// WithObserver sets the lifecycle observer for group open/close, stalls, and
// terminal errors.
func (g *GroupBy[T, K]) WithObserver(obs Observer) *GroupBy[T, K] {
	g.obs = obs
	return g
}

// WithName sets a custom name for this processor.
func (g *GroupBy[T, K]) WithName(name string) *GroupBy[T, K] {
	g.name = name
	return g
}

type groupEntry[K comparable, T any] struct {
	group *Group[K, T]
	n     int
}

func (g *GroupBy[T, K]) info(e *groupEntry[K, T]) BatchInfo {
	return BatchInfo{
		Operator: g.name,
		Kind:     KindGroup,
		ID:       e.group.ID(),
		Seq:      e.group.Seq(),
		Key:      e.group.Key,
		Size:     e.n,
	}
}

// Process partitions the input stream. Group handles are emitted on the
// returned channel in first-encounter order; a terminal error arrives as a
// final error Result after being propagated to every open group.
func (g *GroupBy[T, K]) Process(ctx context.Context, in <-chan Result[T]) <-chan Result[*Group[K, T]] {
	out := make(chan Result[*Group[K, T]])

	go func() {
		defer close(out)

		groups := make(map[K]*groupEntry[K, T])
		order := make([]*groupEntry[K, T], 0)

		cancelAll := func() {
			for _, e := range order {
				e.group.cancel()
			}
		}

		failAll := func(err error) {
			for _, e := range order {
				if e.group.canceled() {
					continue
				}
				e.group.failStream(err)
				info := g.info(e)
				info.Reason = CloseError
				g.obs.closed(info)
			}
			g.obs.terminalError(g.name, err)
			sendError(ctx, out, err, g.name)
		}

		for {
			select {
			case <-ctx.Done():
				cancelAll()
				return

			case r, ok := <-in:
				if !ok {
					for _, e := range order {
						if e.group.canceled() {
							continue
						}
						e.group.closeStream()
						info := g.info(e)
						info.Reason = CloseComplete
						g.obs.closed(info)
					}
					return
				}
				if r.IsError() {
					failAll(r.Error())
					return
				}

				item := r.Value()
				key, err := g.key(item)
				if err != nil {
					failAll(NewStreamError(item, &ClassifierError{Err: err}, g.name))
					return
				}

				e, exists := groups[key]
				if !exists {
					sub := newSubstream[T](len(order), g.prefetch)
					e = &groupEntry[K, T]{group: &Group[K, T]{Key: key, Substream: sub}}
					sub.q.onStall = func() { g.obs.stall(g.info(e)) }
					sub.q.onResume = func() { g.obs.resume(g.info(e)) }
					groups[key] = e
					order = append(order, e)
					g.obs.open(g.info(e))

					handle := NewSuccess(e.group).
						WithMetadata(MetadataBatchID, e.group.ID()).
						WithMetadata(MetadataBatchKind, KindGroup).
						WithMetadata(MetadataBatchSeq, e.group.Seq()).
						WithMetadata(MetadataGroupKey, key).
						WithMetadata(MetadataOperator, g.name)
					select {
					case out <- handle:
					case <-ctx.Done():
						cancelAll()
						return
					}
				}

				if e.group.canceled() {
					// Consumer abandoned the group; its elements are dropped.
					continue
				}

				// Blocks while the group's queue is full. This is the
				// documented stall: upstream is not pulled again until the
				// group's consumer drains.
				if err := e.group.send(ctx, NewSuccess(item)); err != nil {
					if ctx.Err() != nil {
						cancelAll()
						return
					}
					// ErrStreamClosed: the consumer canceled mid-send.
					continue
				}
				e.n++
			}
		}
	}()

	return out
}

// Name returns the processor name.
func (g *GroupBy[T, K]) Name() string {
	return g.name
}
