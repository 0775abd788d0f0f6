package engine

import (
	"time"

	"github.com/shiveshkaul/puprouteapp-sub001/internal/shared/geo"
)

// distanceAccumulator totals great-circle distance between accepted
// positions. Increments below the noise floor are treated as GPS jitter:
// they do not accrue and do not advance the reference point, so slow real
// drift still counts once it exceeds the floor cumulatively.
type distanceAccumulator struct {
	noiseFloorM  float64
	lastAccepted *Position
}

// advance reports the increment contributed by p. The first position is
// always accepted with a zero step. dt is the time since the previous
// accepted position.
func (a *distanceAccumulator) advance(p Position) (stepM float64, dt time.Duration, accepted bool) {
	if a.lastAccepted == nil {
		cp := p
		a.lastAccepted = &cp
		return 0, 0, true
	}

	stepM = geo.HaversineM(a.lastAccepted.Lat, a.lastAccepted.Lng, p.Lat, p.Lng)
	if stepM < a.noiseFloorM {
		return 0, 0, false
	}

	dt = p.RecordedAt.Sub(a.lastAccepted.RecordedAt)
	cp := p
	a.lastAccepted = &cp
	return stepM, dt, true
}
