package engine

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoActivePosition is returned by CapturePhoto before the session has
// received its first position sample.
var ErrNoActivePosition = errors.New("no position recorded yet")

// ErrEngineClosed is returned for any command issued after Close.
var ErrEngineClosed = errors.New("engine closed")

// TransitionError reports a lifecycle command that is not valid from the
// current state. The session is left unchanged.
type TransitionError struct {
	From    SessionState
	Command string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Command, e.From)
}

// SensorError wraps a position source failure. The session stays in its
// current state; metrics simply stop advancing until samples return.
type SensorError struct {
	Err error
}

func (e *SensorError) Error() string {
	return fmt.Sprintf("position source: %v", e.Err)
}

func (e *SensorError) Unwrap() error { return e.Err }

// StaleSampleError reports a position sample timestamped before one
// already processed. The sample is discarded so the position log stays
// non-decreasing in recorded time and its distance never accrues.
type StaleSampleError struct {
	RecordedAt time.Time
	Last       time.Time
}

func (e *StaleSampleError) Error() string {
	return fmt.Sprintf("position sample at %s predates last sample at %s; discarded",
		e.RecordedAt.Format(time.RFC3339), e.Last.Format(time.RFC3339))
}

// ClockAnomalyError reports a wall-clock regression. The computed active
// duration is clamped so it never decreases.
type ClockAnomalyError struct {
	At     time.Time
	Active time.Duration
}

func (e *ClockAnomalyError) Error() string {
	return fmt.Sprintf("clock moved backwards at %s; active duration held at %s", e.At.Format(time.RFC3339), e.Active)
}
