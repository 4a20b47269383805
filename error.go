package batchz

import (
	"errors"
	"fmt"
	"time"
)

// ErrStreamClosed is returned when an element is pushed into a batch whose
// sub-stream has already been closed, cancelled, or failed.
var ErrStreamClosed = errors.New("substream closed")

// StreamError represents an error that occurred during batch dispatch.
// It captures both the item that caused the error and the error itself,
// enabling better debugging and error handling strategies.
//
//nolint:govet // fieldalignment: struct layout optimized for readability over memory
type StreamError[T any] struct {
	// Item is the original item that caused the processing error.
	Item T

	// Err is the underlying error that occurred during processing.
	Err error

	// OperatorName identifies which operator generated the error.
	OperatorName string

	// Timestamp records when the error occurred.
	Timestamp time.Time
}

// NewStreamError creates a new StreamError with the current timestamp.
func NewStreamError[T any](item T, err error, operatorName string) *StreamError[T] {
	return &StreamError[T]{
		Item:         item,
		Err:          err,
		OperatorName: operatorName,
		Timestamp:    time.Now(),
	}
}

// String returns a human-readable representation of the error.
func (se *StreamError[T]) String() string {
	return fmt.Sprintf("StreamError[%s]: %v (item: %v, time: %s)",
		se.OperatorName, se.Err, se.Item, se.Timestamp.Format(time.RFC3339))
}

// Unwrap returns the underlying error, enabling error wrapping chains.
func (se *StreamError[T]) Unwrap() error {
	return se.Err
}

// Error implements the error interface.
func (se *StreamError[T]) Error() string {
	return se.String()
}

// ClassifierError wraps an error returned by a key classifier or predicate.
// A classifier error is terminal: it fails every open batch and the outer
// sequence, and nothing is retried.
type ClassifierError struct {
	Err error
}

// Error implements the error interface.
func (ce *ClassifierError) Error() string {
	return fmt.Sprintf("classifier: %v", ce.Err)
}

// Unwrap returns the underlying classifier error.
func (ce *ClassifierError) Unwrap() error {
	return ce.Err
}
