package engine

import "time"

// timekeeper accounts active versus paused time. Paused time is derived
// from a ledger of intervals (the last one open-ended while paused), never
// from an incrementing counter, so re-entrant pause/resume cannot
// double-count. Active time is always recomputed from absolute timestamps
// and clamped non-decreasing to survive clock adjustments.
type timekeeper struct {
	startedAt  time.Time
	pauses     []PauseInterval
	lastActive time.Duration
}

func (k *timekeeper) start(at time.Time) {
	*k = timekeeper{startedAt: at}
}

func (k *timekeeper) paused() bool {
	n := len(k.pauses)
	return n > 0 && k.pauses[n-1].End.IsZero()
}

func (k *timekeeper) openPause(at time.Time, auto bool) {
	if k.paused() {
		return
	}
	k.pauses = append(k.pauses, PauseInterval{Start: at, Auto: auto})
}

func (k *timekeeper) closePause(at time.Time) {
	if !k.paused() {
		return
	}
	k.pauses[len(k.pauses)-1].End = at
}

// convertOpenPause reclassifies an open auto-pause as explicit, so it no
// longer auto-resumes on movement.
func (k *timekeeper) convertOpenPause() {
	if k.paused() {
		k.pauses[len(k.pauses)-1].Auto = false
	}
}

func (k *timekeeper) pausedTotal(now time.Time) time.Duration {
	var total time.Duration
	for _, p := range k.pauses {
		end := p.End
		if end.IsZero() {
			end = now
		}
		if end.After(p.Start) {
			total += end.Sub(p.Start)
		}
	}
	return total
}

// activeAt returns the active duration at now. anomaly is true when the
// clock regressed and the previous value was held instead.
func (k *timekeeper) activeAt(now time.Time) (active time.Duration, anomaly bool) {
	active = now.Sub(k.startedAt) - k.pausedTotal(now)
	if active < k.lastActive {
		return k.lastActive, true
	}
	k.lastActive = active
	return active, false
}
