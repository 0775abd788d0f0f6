package engine

import "time"

// Position is a single immutable sample from a position source.
// Optional sensor readings are nil when the device did not report them.
type Position struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
	SpeedMps   *float64  `json:"speed_mps,omitempty"`
	AltitudeM  *float64  `json:"altitude_m,omitempty"`
	HeadingDeg *float64  `json:"heading_deg,omitempty"`
}
