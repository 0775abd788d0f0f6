package engine

import (
	"testing"
	"time"
)

func TestDetectorFiresOncePastWindow(t *testing.T) {
	base := time.Unix(1700000000, 0)
	d := autoPauseDetector{speedFloorMps: 0.3, window: 20 * time.Second}

	if pause, _ := d.observe(0.1, base); pause {
		t.Fatalf("first slow reading must not pause")
	}
	if pause, _ := d.observe(0.1, base.Add(19*time.Second)); pause {
		t.Fatalf("19 s below threshold must not pause")
	}
	pause, _ := d.observe(0.1, base.Add(21*time.Second))
	if !pause {
		t.Fatalf("21 s below threshold must pause")
	}
	// idempotent: staying slow does not re-fire
	if pause, _ := d.observe(0.1, base.Add(30*time.Second)); pause {
		t.Fatalf("pause signal must fire exactly once")
	}
}

func TestDetectorResumeOnlyWhenEngaged(t *testing.T) {
	base := time.Unix(1700000000, 0)
	d := autoPauseDetector{speedFloorMps: 0.3, window: 20 * time.Second}

	if _, resume := d.observe(1.2, base); resume {
		t.Fatalf("normal speed without engagement must not resume")
	}

	d.observe(0.1, base)
	if _, resume := d.observe(1.2, base.Add(10*time.Second)); resume {
		t.Fatalf("recovering before the window must not resume")
	}

	d.observe(0.1, base.Add(20*time.Second))
	if pause, _ := d.observe(0.1, base.Add(41*time.Second)); !pause {
		t.Fatalf("expected pause")
	}
	_, resume := d.observe(1.2, base.Add(50*time.Second))
	if !resume {
		t.Fatalf("expected resume after engagement")
	}
	if _, resume := d.observe(1.2, base.Add(51*time.Second)); resume {
		t.Fatalf("resume signal must fire exactly once")
	}
}

func TestDetectorMovementResetsWindow(t *testing.T) {
	base := time.Unix(1700000000, 0)
	d := autoPauseDetector{speedFloorMps: 0.3, window: 20 * time.Second}

	d.observe(0.1, base)
	d.observe(1.0, base.Add(15*time.Second)) // clears the slow streak
	d.observe(0.1, base.Add(16*time.Second))
	if pause, _ := d.observe(0.1, base.Add(30*time.Second)); pause {
		t.Fatalf("window must restart after movement")
	}
	if pause, _ := d.observe(0.1, base.Add(37*time.Second)); !pause {
		t.Fatalf("expected pause once the restarted window elapses")
	}
}
