package batchz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowWhile(t *testing.T) {
	ctx := context.Background()
	in := make(chan Result[int], 9)
	for _, n := range []int{1, 3, 5, 2, 4, 6, 11, 12, 13} {
		in <- NewSuccess(n)
	}
	close(in)

	windower := NewWindowWhile(func(n int) bool { return n%2 == 0 })
	contents, errs := collectWindows(t, ctx, windower.Process(ctx, in))

	require.Empty(t, errs)

	// Each leading odd element marks a boundary with nothing collected,
	// emitted as an empty window. No trailing empty window at completion.
	require.Len(t, contents, 5)
	assert.Empty(t, contents[0])
	assert.Empty(t, contents[1])
	assert.Empty(t, contents[2])
	assert.Equal(t, []int{2, 4, 6}, contents[3])
	assert.Equal(t, []int{12}, contents[4])
}

func TestWindowWhileTrailingRunEmittedOnCompletion(t *testing.T) {
	ctx := context.Background()
	in := make(chan Result[int], 4)
	for _, n := range []int{2, 4, 1, 6} {
		in <- NewSuccess(n)
	}
	close(in)

	windower := NewWindowWhile(func(n int) bool { return n%2 == 0 })
	contents, errs := collectWindows(t, ctx, windower.Process(ctx, in))

	require.Empty(t, errs)
	require.Len(t, contents, 2)
	assert.Equal(t, []int{2, 4}, contents[0])
	assert.Equal(t, []int{6}, contents[1])
}

func TestWindowUntilSeparatorDropped(t *testing.T) {
	ctx := context.Background()
	in := make(chan Result[int], 7)
	for _, n := range []int{1, 2, 9, 3, 4, 9, 5} {
		in <- NewSuccess(n)
	}
	close(in)

	windower := NewWindowUntil(func(n int) bool { return n == 9 })
	contents, errs := collectWindows(t, ctx, windower.Process(ctx, in))

	require.Empty(t, errs)
	require.Len(t, contents, 3)
	assert.Equal(t, []int{1, 2}, contents[0])
	assert.Equal(t, []int{3, 4}, contents[1])
	assert.Equal(t, []int{5}, contents[2])
}

func TestWindowUntilCutBefore(t *testing.T) {
	ctx := context.Background()
	in := make(chan Result[int], 7)
	for _, n := range []int{1, 2, 9, 3, 4, 9, 5} {
		in <- NewSuccess(n)
	}
	close(in)

	windower := NewWindowUntil(func(n int) bool { return n == 9 }).WithCutBefore(true)
	contents, errs := collectWindows(t, ctx, windower.Process(ctx, in))

	require.Empty(t, errs)
	require.Len(t, contents, 3)
	assert.Equal(t, []int{1, 2}, contents[0])
	assert.Equal(t, []int{9, 3, 4}, contents[1])
	assert.Equal(t, []int{9, 5}, contents[2])
}

func TestWindowUntilLeadingSeparatorEmitsEmptyWindow(t *testing.T) {
	ctx := context.Background()
	in := make(chan Result[int], 3)
	for _, n := range []int{9, 1, 2} {
		in <- NewSuccess(n)
	}
	close(in)

	windower := NewWindowUntil(func(n int) bool { return n == 9 })
	contents, errs := collectWindows(t, ctx, windower.Process(ctx, in))

	require.Empty(t, errs)
	require.Len(t, contents, 2)
	assert.Empty(t, contents[0])
	assert.Equal(t, []int{1, 2}, contents[1])
}
