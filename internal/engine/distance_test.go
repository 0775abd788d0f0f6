package engine

import (
	"testing"
	"time"
)

func TestDistanceAccumulatorFirstPointFree(t *testing.T) {
	acc := distanceAccumulator{noiseFloorM: 2}
	step, dt, ok := acc.advance(Position{Lat: 10, Lng: 20})
	if !ok || step != 0 || dt != 0 {
		t.Fatalf("first point should be accepted at zero cost: %v %v %v", step, dt, ok)
	}
}

func TestDistanceAccumulatorNoiseKeepsReference(t *testing.T) {
	base := time.Unix(1700000000, 0)
	acc := distanceAccumulator{noiseFloorM: 2}
	acc.advance(Position{Lat: 0, Lng: 0, RecordedAt: base})

	// three jittery points, each ~1.2 m from the original fix
	for i := 1; i <= 3; i++ {
		p := Position{Lat: 0, Lng: 1.2 * degPerMeter, RecordedAt: base.Add(time.Duration(i) * time.Second)}
		if step, _, ok := acc.advance(p); ok || step != 0 {
			t.Fatalf("jitter point %d should be rejected, got step %v", i, step)
		}
	}

	// a real step measures from the last accepted point, not the jitter
	step, dt, ok := acc.advance(Position{Lat: 0, Lng: 5 * degPerMeter, RecordedAt: base.Add(10 * time.Second)})
	if !ok {
		t.Fatalf("expected acceptance")
	}
	if step < 4.9 || step > 5.1 {
		t.Fatalf("expected ~5 m step, got %v", step)
	}
	if dt != 10*time.Second {
		t.Fatalf("dt should span back to the accepted point, got %v", dt)
	}
}

func TestDistanceAccumulatorSlowDriftEventuallyCounts(t *testing.T) {
	base := time.Unix(1700000000, 0)
	acc := distanceAccumulator{noiseFloorM: 2}
	acc.advance(Position{Lat: 0, Lng: 0, RecordedAt: base})

	// 1 m per sample: each individual delta is under the floor relative to
	// the last accepted point until the cumulative offset crosses it
	var total float64
	for i := 1; i <= 3; i++ {
		p := Position{Lat: 0, Lng: float64(i) * degPerMeter, RecordedAt: base.Add(time.Duration(i) * time.Second)}
		step, _, _ := acc.advance(p)
		total += step
	}
	if total < 1.9 || total > 3.1 {
		t.Fatalf("expected drift to count once past the floor, got %v", total)
	}
}
