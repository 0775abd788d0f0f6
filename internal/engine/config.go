package engine

import "time"

const (
	defaultNoiseFloorM       = 2.0
	defaultAutoPauseSpeedMps = 0.3
	defaultAutoPauseWindow   = 20 * time.Second
	defaultTickInterval      = 500 * time.Millisecond
	defaultCaloriesPerMeter  = 0.05
	defaultStrideBaseM       = 0.5
	defaultStridePerMps      = 0.1
	defaultStrideMaxM        = 0.8
)

// Config tunes a walk engine. The zero value selects the defaults above.
//
// The calorie factor and the stride model are deliberately crude linear
// estimates; they are configuration, not contract.
type Config struct {
	// NoiseFloorM is the minimum distance between accepted positions for an
	// increment to count as movement rather than GPS jitter.
	NoiseFloorM float64

	// AutoPauseSpeedMps and AutoPauseWindow control the detector: sustained
	// speed below the floor for longer than the window pauses the session.
	AutoPauseSpeedMps float64
	AutoPauseWindow   time.Duration

	// TickInterval drives duration accounting independently of sample
	// arrival. Scheduling jitter is tolerated; durations are recomputed
	// from absolute timestamps on every tick.
	TickInterval time.Duration

	CaloriesPerMeter float64
	StrideBaseM      float64
	StridePerMps     float64
	StrideMaxM       float64

	// Publish, when set, receives every new metrics snapshot. Called from
	// the engine's event loop; implementations must not block.
	Publish func(Metrics)
}

func (c Config) withDefaults() Config {
	if c.NoiseFloorM <= 0 {
		c.NoiseFloorM = defaultNoiseFloorM
	}
	if c.AutoPauseSpeedMps <= 0 {
		c.AutoPauseSpeedMps = defaultAutoPauseSpeedMps
	}
	if c.AutoPauseWindow <= 0 {
		c.AutoPauseWindow = defaultAutoPauseWindow
	}
	if c.TickInterval <= 0 {
		c.TickInterval = defaultTickInterval
	}
	if c.CaloriesPerMeter <= 0 {
		c.CaloriesPerMeter = defaultCaloriesPerMeter
	}
	if c.StrideBaseM <= 0 {
		c.StrideBaseM = defaultStrideBaseM
	}
	if c.StridePerMps <= 0 {
		c.StridePerMps = defaultStridePerMps
	}
	if c.StrideMaxM <= 0 {
		c.StrideMaxM = defaultStrideMaxM
	}
	return c
}
