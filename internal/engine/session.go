package engine

import "time"

type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateRunning    SessionState = "running"
	StatePaused     SessionState = "paused"
	StateAutoPaused SessionState = "auto_paused"
	StateEnded      SessionState = "ended"
)

// WalkSession is the aggregate a running engine mutates. It is owned
// exclusively by the engine's event loop; callers only ever see snapshots
// (Metrics) or the frozen FinalizedSession.
type WalkSession struct {
	State           SessionState
	StartedAt       time.Time
	EndedAt         time.Time
	Track           []Position
	StartPosition   *Position
	EndPosition     *Position
	CurrentPosition *Position
	Photos          []Photo
}

// Photo anchors a captured image to the walk's current position and a
// session-relative offset.
type Photo struct {
	ID         string    `json:"id"`
	ImageRef   string    `json:"image_ref"`
	Caption    string    `json:"caption,omitempty"`
	Position   Position  `json:"position"`
	CapturedAt time.Time `json:"captured_at"`
	OffsetMs   int64     `json:"offset_ms"`
}

// PauseInterval is one entry in the pause ledger. End is zero while the
// pause is still open. Auto marks pauses the engine entered on its own.
type PauseInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end,omitempty"`
	Auto  bool      `json:"auto"`
}

// FinalizedSession is the immutable record End hands to the caller for
// persistence and display. The engine never touches it again.
type FinalizedSession struct {
	StartedAt     time.Time       `json:"started_at"`
	EndedAt       time.Time       `json:"ended_at"`
	StartPosition *Position       `json:"start_position,omitempty"`
	EndPosition   *Position       `json:"end_position,omitempty"`
	Track         []Position      `json:"track"`
	Photos        []Photo         `json:"photos"`
	Pauses        []PauseInterval `json:"pauses"`
	Metrics       Metrics         `json:"metrics"`
}
