package batchz

import (
	"github.com/rs/zerolog"
)

// BatchInfo describes a batch lifecycle event delivered to an Observer.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type BatchInfo struct {
	// Operator is the name of the operator that owns the batch.
	Operator string

	// Kind is the batch flavor: group, window, or buffer.
	Kind BatchKind

	// ID is the unique batch identifier. Empty for buffer batches, which
	// have no sub-stream identity.
	ID string

	// Seq is the batch creation sequence number within its operator.
	Seq int

	// Key is the grouping key, set for group batches only.
	Key interface{}

	// Size is the number of elements routed into the batch so far.
	Size int

	// Reason is set on close events.
	Reason CloseReason
}

// Observer receives batch lifecycle callbacks from an operator: batch open
// and close, stall onset and resolution, and terminal errors. All fields are
// optional; nil callbacks are skipped. Callbacks run on the dispatcher
// goroutine and must not block.
//
// A stall is not an error. It reports that the dispatcher is blocked pushing
// into a full batch queue and will make no progress until that batch's
// consumer drains. Observing stalls is the supported way to diagnose the
// demand-coupling hazard documented on each operator's WithPrefetch.
type Observer struct {
	OnOpen   func(BatchInfo)
	OnClose  func(BatchInfo)
	OnStall  func(BatchInfo)
	OnResume func(BatchInfo)
	OnError  func(operator string, err error)
}

func (o Observer) open(info BatchInfo) {
	if o.OnOpen != nil {
		o.OnOpen(info)
	}
}

func (o Observer) closed(info BatchInfo) {
	if o.OnClose != nil {
		o.OnClose(info)
	}
}

func (o Observer) stall(info BatchInfo) {
	if o.OnStall != nil {
		o.OnStall(info)
	}
}

func (o Observer) resume(info BatchInfo) {
	if o.OnResume != nil {
		o.OnResume(info)
	}
}

func (o Observer) terminalError(operator string, err error) {
	if o.OnError != nil {
		o.OnError(operator, err)
	}
}

// LogObserver returns an Observer that writes structured lifecycle events to
// the given zerolog logger. Open and close events log at debug level, stalls
// and terminal errors at warn and error respectively.
//
// Example:
//
//	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
//	grouper := batchz.NewGroupBy(keyFn).WithObserver(batchz.LogObserver(logger))
func LogObserver(logger zerolog.Logger) Observer {
	event := func(e *zerolog.Event, info BatchInfo) *zerolog.Event {
		e = e.Str("operator", info.Operator).
			Str("kind", string(info.Kind)).
			Int("seq", info.Seq)
		if info.ID != "" {
			e = e.Str("batch_id", info.ID)
		}
		if info.Key != nil {
			e = e.Interface("key", info.Key)
		}
		return e
	}

	return Observer{
		OnOpen: func(info BatchInfo) {
			event(logger.Debug(), info).Msg("batch opened")
		},
		OnClose: func(info BatchInfo) {
			event(logger.Debug(), info).
				Int("size", info.Size).
				Str("reason", string(info.Reason)).
				Msg("batch closed")
		},
		OnStall: func(info BatchInfo) {
			event(logger.Warn(), info).
				Int("size", info.Size).
				Msg("dispatcher stalled on full batch queue")
		},
		OnResume: func(info BatchInfo) {
			event(logger.Debug(), info).Msg("dispatcher resumed")
		},
		OnError: func(operator string, err error) {
			logger.Error().Str("operator", operator).Err(err).Msg("pipeline failed")
		},
	}
}
