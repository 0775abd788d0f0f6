package engine

import "time"

// Metrics is an immutable snapshot of everything derived from the position
// log and the active duration.
type Metrics struct {
	DistanceM      float64 `json:"distance_m"`
	DurationMs     int64   `json:"duration_ms"`
	PausedMs       int64   `json:"paused_ms"`
	AvgSpeedMps    float64 `json:"avg_speed_mps"`
	MaxSpeedMps    float64 `json:"max_speed_mps"`
	ElevationGainM float64 `json:"elevation_gain_m"`
	Calories       float64 `json:"calories"`
	Steps          int     `json:"steps"`
}

// runningTotals memoizes the per-sample sums so snapshots are cheap. It is
// a cache of ComputeMetrics, never a source of truth: replaying the track
// through ComputeMetrics must always reproduce it.
type runningTotals struct {
	distanceM      float64
	maxSpeedMps    float64
	elevationGainM float64
	lastAltitudeM  *float64
}

// observeAltitude accrues positive altitude deltas between consecutive
// track positions. A missing altitude breaks the pair on both sides.
func (r *runningTotals) observeAltitude(p Position) {
	if p.AltitudeM == nil {
		r.lastAltitudeM = nil
		return
	}
	if r.lastAltitudeM != nil && *p.AltitudeM > *r.lastAltitudeM {
		r.elevationGainM += *p.AltitudeM - *r.lastAltitudeM
	}
	alt := *p.AltitudeM
	r.lastAltitudeM = &alt
}

func (r *runningTotals) acceptStep(stepM, speedMps float64) {
	r.distanceM += stepM
	if speedMps > r.maxSpeedMps {
		r.maxSpeedMps = speedMps
	}
}

func (r *runningTotals) snapshot(active, paused time.Duration, cfg Config) Metrics {
	m := Metrics{
		DistanceM:      r.distanceM,
		DurationMs:     active.Milliseconds(),
		PausedMs:       paused.Milliseconds(),
		MaxSpeedMps:    r.maxSpeedMps,
		ElevationGainM: r.elevationGainM,
	}
	if active > 0 {
		m.AvgSpeedMps = r.distanceM / active.Seconds()
	}
	m.Calories = r.distanceM * cfg.CaloriesPerMeter

	stride := cfg.StrideBaseM + m.AvgSpeedMps*cfg.StridePerMps
	if stride > cfg.StrideMaxM {
		stride = cfg.StrideMaxM
	}
	if stride > 0 {
		m.Steps = int(m.DistanceM / stride)
	}
	return m
}

// sampleSpeed picks the speed attributed to an accepted sample: the
// reported instantaneous speed when present, otherwise the speed derived
// from the step to the previous accepted sample.
func sampleSpeed(p Position, stepM float64, dt time.Duration) float64 {
	if p.SpeedMps != nil {
		return *p.SpeedMps
	}
	if dt <= 0 {
		return 0
	}
	return stepM / dt.Seconds()
}

// ComputeMetrics re-derives the full metrics set from a position log and
// the active/paused durations. The engine maintains the same values
// incrementally; this function is the definition they are checked against.
func ComputeMetrics(track []Position, active, paused time.Duration, cfg Config) Metrics {
	cfg = cfg.withDefaults()
	acc := distanceAccumulator{noiseFloorM: cfg.NoiseFloorM}
	var totals runningTotals
	for _, p := range track {
		totals.observeAltitude(p)
		stepM, dt, accepted := acc.advance(p)
		if !accepted {
			continue
		}
		totals.acceptStep(stepM, sampleSpeed(p, stepM, dt))
	}
	return totals.snapshot(active, paused, cfg)
}
