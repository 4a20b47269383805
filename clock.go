// Package batchz provides batching primitives, including time-delimited
// boundaries that depend on an injectable clock for deterministic testing.
package batchz

import "github.com/zoobzio/clockz"

// Clock provides time operations for deterministic testing.
type Clock = clockz.Clock

// Timer represents a single event timer.
type Timer = clockz.Timer

// Ticker delivers ticks at intervals.
type Ticker = clockz.Ticker

// RealClock is the default Clock using standard time.
var RealClock Clock = clockz.RealClock
