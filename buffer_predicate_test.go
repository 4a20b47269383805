package batchz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectBatches[T any](t *testing.T, out <-chan Result[[]T]) ([][]T, []error) {
	t.Helper()

	var batches [][]T
	var errs []error
	for b := range out {
		if b.IsError() {
			errs = append(errs, b.Error())
			continue
		}
		batches = append(batches, b.Value())
	}
	return batches, errs
}

func TestBufferWhile(t *testing.T) {
	ctx := context.Background()
	in := make(chan Result[int], 9)
	for _, n := range []int{1, 3, 5, 2, 4, 6, 11, 12, 13} {
		in <- NewSuccess(n)
	}
	close(in)

	buffer := NewBufferWhile(func(n int) bool { return n%2 == 0 })
	batches, errs := collectBatches(t, buffer.Process(ctx, in))

	require.Empty(t, errs)

	// Unlike WindowWhile over the same input, no empty collections appear.
	require.Len(t, batches, 2)
	assert.Equal(t, []int{2, 4, 6}, batches[0])
	assert.Equal(t, []int{12}, batches[1])
}

func TestBufferWhileAllNonMatching(t *testing.T) {
	ctx := context.Background()
	in := make(chan Result[int], 3)
	for _, n := range []int{1, 3, 5} {
		in <- NewSuccess(n)
	}
	close(in)

	buffer := NewBufferWhile(func(n int) bool { return n%2 == 0 })
	batches, errs := collectBatches(t, buffer.Process(ctx, in))

	require.Empty(t, errs)
	assert.Empty(t, batches, "empty collections must never be emitted")
}

func TestBufferWhileTrailingRunEmittedOnCompletion(t *testing.T) {
	ctx := context.Background()
	in := make(chan Result[int], 3)
	for _, n := range []int{1, 2, 4} {
		in <- NewSuccess(n)
	}
	close(in)

	buffer := NewBufferWhile(func(n int) bool { return n%2 == 0 })
	batches, errs := collectBatches(t, buffer.Process(ctx, in))

	require.Empty(t, errs)
	require.Len(t, batches, 1)
	assert.Equal(t, []int{2, 4}, batches[0])
}

func TestBufferUntilSeparatorDropped(t *testing.T) {
	ctx := context.Background()
	in := make(chan Result[int], 8)
	for _, n := range []int{1, 2, 9, 3, 4, 9, 9, 5} {
		in <- NewSuccess(n)
	}
	close(in)

	buffer := NewBufferUntil(func(n int) bool { return n == 9 })
	batches, errs := collectBatches(t, buffer.Process(ctx, in))

	require.Empty(t, errs)

	// Consecutive separators produce no empty collections.
	require.Len(t, batches, 3)
	assert.Equal(t, []int{1, 2}, batches[0])
	assert.Equal(t, []int{3, 4}, batches[1])
	assert.Equal(t, []int{5}, batches[2])
}

func TestBufferUntilCutBefore(t *testing.T) {
	ctx := context.Background()
	in := make(chan Result[int], 7)
	for _, n := range []int{1, 2, 9, 3, 4, 9, 5} {
		in <- NewSuccess(n)
	}
	close(in)

	buffer := NewBufferUntil(func(n int) bool { return n == 9 }).WithCutBefore(true)
	batches, errs := collectBatches(t, buffer.Process(ctx, in))

	require.Empty(t, errs)
	require.Len(t, batches, 3)
	assert.Equal(t, []int{1, 2}, batches[0])
	assert.Equal(t, []int{9, 3, 4}, batches[1])
	assert.Equal(t, []int{9, 5}, batches[2])
}
