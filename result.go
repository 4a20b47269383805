package batchz

import (
	"fmt"
	"time"
)

// Result represents either a successful value or an error in stream
// processing. Carrying both on one channel avoids dual-channel plumbing and
// lets a terminal error travel the same path as the elements it supersedes.
// Metadata support carries batch context (identity, boundaries, close
// reasons) through the pipeline.
type Result[T any] struct {
	value    T
	err      *StreamError[T]
	metadata map[string]interface{} // nil by default for zero overhead
}

// NewSuccess creates a Result containing a successful value.
func NewSuccess[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// NewError creates a Result containing an error.
func NewError[T any](item T, err error, operatorName string) Result[T] {
	return Result[T]{err: NewStreamError(item, err, operatorName)}
}

// IsError returns true if this Result contains an error.
func (r Result[T]) IsError() bool {
	return r.err != nil
}

// IsSuccess returns true if this Result contains a successful value.
func (r Result[T]) IsSuccess() bool {
	return r.err == nil
}

// Value returns the successful value.
// Panics if called on a Result containing an error - always check IsSuccess() first.
func (r Result[T]) Value() T {
	if r.err != nil {
		panic("called Value() on Result containing an error")
	}
	return r.value
}

// Error returns the StreamError.
// Returns nil if this Result contains a successful value.
func (r Result[T]) Error() *StreamError[T] {
	return r.err
}

// ValueOr returns the successful value if present, otherwise returns the fallback.
func (r Result[T]) ValueOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// Map applies a function to the value if this Result is successful.
// If this Result contains an error, returns the error unchanged.
// Metadata is preserved through successful transformations.
func (r Result[T]) Map(fn func(T) T) Result[T] {
	if r.err != nil {
		return r
	}

	result := NewSuccess(fn(r.value))
	result.metadata = r.metadata
	return result
}

// Standard metadata keys attached to emitted batches.
const (
	MetadataBatchID     = "batch_id"     // string - unique batch identifier
	MetadataBatchKind   = "batch_kind"   // BatchKind - group, window, or buffer
	MetadataBatchSeq    = "batch_seq"    // int - creation sequence number
	MetadataGroupKey    = "group_key"    // any - grouping key (groups only)
	MetadataOpenedAt    = "opened_at"    // time.Time - when the batch opened
	MetadataClosedAt    = "closed_at"    // time.Time - when the batch closed
	MetadataCloseReason = "close_reason" // CloseReason - why the batch closed
	MetadataOperator    = "operator"     // string - operator that emitted the batch
)

// WithMetadata returns a new Result with the specified metadata key-value pair.
// This is an immutable operation - the original Result is unchanged. Multiple
// calls can be chained. Empty keys are ignored.
func (r Result[T]) WithMetadata(key string, value interface{}) Result[T] {
	if key == "" {
		return r
	}

	var newMetadata map[string]interface{}
	if r.metadata == nil {
		newMetadata = map[string]interface{}{key: value}
	} else {
		newMetadata = make(map[string]interface{}, len(r.metadata)+1)
		for k, v := range r.metadata {
			newMetadata[k] = v
		}
		newMetadata[key] = value
	}

	return Result[T]{
		value:    r.value,
		err:      r.err,
		metadata: newMetadata,
	}
}

// GetMetadata retrieves a metadata value by key.
// Returns the value and true if the key exists, nil and false otherwise.
// The caller must type-assert the returned value to the expected type.
func (r Result[T]) GetMetadata(key string) (interface{}, bool) {
	if r.metadata == nil {
		return nil, false
	}
	value, exists := r.metadata[key]
	return value, exists
}

// HasMetadata returns true if this Result contains any metadata.
func (r Result[T]) HasMetadata() bool {
	return len(r.metadata) > 0
}

// MetadataKeys returns all metadata keys for this Result.
// Returns an empty slice if no metadata is present.
func (r Result[T]) MetadataKeys() []string {
	if r.metadata == nil {
		return []string{}
	}
	keys := make([]string, 0, len(r.metadata))
	for k := range r.metadata {
		keys = append(keys, k)
	}
	return keys
}

// BatchTime retrieves a time.Time metadata value, typically MetadataOpenedAt
// or MetadataClosedAt. Returns the zero time and false if the key is absent
// or not a time.Time.
func (r Result[T]) BatchTime(key string) (time.Time, bool) {
	v, ok := r.GetMetadata(key)
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// String returns a human-readable representation for debugging.
func (r Result[T]) String() string {
	if r.err != nil {
		return fmt.Sprintf("Result[error: %v]", r.err)
	}
	return fmt.Sprintf("Result[value: %v]", r.value)
}
