package engine

import "time"

// autoPauseDetector watches instantaneous speed and decides when sustained
// stillness should pause the session without user action. Its only state is
// the instant speed first dropped below the floor, plus whether the pause
// signal has already fired.
type autoPauseDetector struct {
	speedFloorMps float64
	window        time.Duration

	belowSince time.Time
	engaged    bool
}

// observe feeds one speed reading. pause fires exactly once when speed has
// stayed below the floor for longer than the window; resume fires exactly
// once when speed recovers while engaged.
func (d *autoPauseDetector) observe(speedMps float64, now time.Time) (pause, resume bool) {
	if speedMps < d.speedFloorMps {
		if d.belowSince.IsZero() {
			d.belowSince = now
			return false, false
		}
		if !d.engaged && now.Sub(d.belowSince) > d.window {
			d.engaged = true
			return true, false
		}
		return false, false
	}

	d.belowSince = time.Time{}
	if d.engaged {
		d.engaged = false
		return false, true
	}
	return false, false
}

func (d *autoPauseDetector) reset() {
	d.belowSince = time.Time{}
	d.engaged = false
}
