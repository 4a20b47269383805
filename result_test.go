package batchz

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewSuccess(t *testing.T) {
	result := NewSuccess(42)

	if !result.IsSuccess() {
		t.Error("expected success result")
	}
	if result.IsError() {
		t.Error("expected IsError to be false")
	}
	if result.Value() != 42 {
		t.Errorf("expected value 42, got %d", result.Value())
	}
	if result.Error() != nil {
		t.Error("expected nil error on success result")
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("dispatch failed")
	result := NewError(7, err, "grouper")

	if result.IsSuccess() {
		t.Error("expected error result")
	}
	if !result.IsError() {
		t.Error("expected IsError to be true")
	}

	streamErr := result.Error()
	if streamErr == nil {
		t.Fatal("expected non-nil StreamError")
	}
	if streamErr.Item != 7 {
		t.Errorf("expected item 7, got %d", streamErr.Item)
	}
	if !errors.Is(streamErr, err) {
		t.Error("expected StreamError to wrap the original error")
	}
	if streamErr.OperatorName != "grouper" {
		t.Errorf("expected operator 'grouper', got %q", streamErr.OperatorName)
	}
}

func TestResultValuePanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic when calling Value() on error result")
		}
	}()

	result := NewError(0, errors.New("boom"), "op")
	result.Value()
}

func TestResultValueOr(t *testing.T) {
	success := NewSuccess(10)
	if got := success.ValueOr(-1); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}

	failure := NewError(10, errors.New("boom"), "op")
	if got := failure.ValueOr(-1); got != -1 {
		t.Errorf("expected fallback -1, got %d", got)
	}
}

func TestResultMap(t *testing.T) {
	doubled := NewSuccess(21).Map(func(v int) int { return v * 2 })
	if doubled.Value() != 42 {
		t.Errorf("expected 42, got %d", doubled.Value())
	}

	failure := NewError(21, errors.New("boom"), "op")
	mapped := failure.Map(func(v int) int { return v * 2 })
	if !mapped.IsError() {
		t.Error("expected Map to preserve the error")
	}
	if mapped.Error().Item != 21 {
		t.Errorf("expected original item 21, got %d", mapped.Error().Item)
	}
}

func TestResultMapPreservesMetadata(t *testing.T) {
	result := NewSuccess(1).
		WithMetadata(MetadataBatchSeq, 3).
		Map(func(v int) int { return v + 1 })

	seq, ok := result.GetMetadata(MetadataBatchSeq)
	if !ok {
		t.Fatal("expected metadata to survive Map")
	}
	if seq != 3 {
		t.Errorf("expected seq 3, got %v", seq)
	}
}

func TestResultMetadata(t *testing.T) {
	bare := NewSuccess(1)
	if bare.HasMetadata() {
		t.Error("expected no metadata on a fresh result")
	}
	if len(bare.MetadataKeys()) != 0 {
		t.Error("expected empty key list")
	}
	if _, ok := bare.GetMetadata(MetadataBatchID); ok {
		t.Error("expected lookup on bare result to miss")
	}

	tagged := bare.
		WithMetadata(MetadataBatchID, "abc").
		WithMetadata(MetadataBatchKind, KindWindow)

	// WithMetadata is immutable: the original is untouched.
	if bare.HasMetadata() {
		t.Error("expected original result to remain metadata-free")
	}

	if !tagged.HasMetadata() {
		t.Error("expected metadata on tagged result")
	}
	if len(tagged.MetadataKeys()) != 2 {
		t.Errorf("expected 2 keys, got %d", len(tagged.MetadataKeys()))
	}

	id, ok := tagged.GetMetadata(MetadataBatchID)
	if !ok || id != "abc" {
		t.Errorf("expected batch id 'abc', got %v", id)
	}
	kind, ok := tagged.GetMetadata(MetadataBatchKind)
	if !ok || kind != KindWindow {
		t.Errorf("expected kind window, got %v", kind)
	}
}

func TestResultWithMetadataEmptyKeyIgnored(t *testing.T) {
	result := NewSuccess(1).WithMetadata("", "value")
	if result.HasMetadata() {
		t.Error("expected empty key to be ignored")
	}
}

func TestResultBatchTime(t *testing.T) {
	opened := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	result := NewSuccess(1).
		WithMetadata(MetadataOpenedAt, opened).
		WithMetadata(MetadataBatchSeq, 5)

	got, ok := result.BatchTime(MetadataOpenedAt)
	if !ok {
		t.Fatal("expected opened_at to be present")
	}
	if !got.Equal(opened) {
		t.Errorf("expected %v, got %v", opened, got)
	}

	if _, ok := result.BatchTime(MetadataClosedAt); ok {
		t.Error("expected missing key to report false")
	}
	if _, ok := result.BatchTime(MetadataBatchSeq); ok {
		t.Error("expected non-time value to report false")
	}
}

func TestResultString(t *testing.T) {
	success := NewSuccess(42)
	if got := success.String(); !strings.Contains(got, "42") {
		t.Errorf("expected value in string form, got %q", got)
	}

	failure := NewError(0, errors.New("boom"), "op")
	if got := failure.String(); !strings.Contains(got, "boom") {
		t.Errorf("expected error in string form, got %q", got)
	}
}
