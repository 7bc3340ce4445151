package motion

import (
	"testing"

	"github.com/dwt27/isopod/internal/control"
)

func TestDetectorsFalseUntilWindowsFull(t *testing.T) {
	s := New()
	for i := 0; i < fastWindowLen-1; i++ {
		s.Push(control.ImuReadings{AZ: gravity})
	}
	if s.DetectFast() {
		t.Error("DetectFast should be false before the fast window fills")
	}
	if s.DetectSlow() {
		t.Error("DetectSlow should be false before the slow window fills")
	}
}

// TestShockDetection mirrors scenario S4: 15 steady samples at 1g, then one
// sample with a large acceleration spike. On the next evaluation detect_fast
// should fire and the movement counter should reset to zero.
func TestShockDetection(t *testing.T) {
	s := New()
	for i := 0; i < fastWindowLen; i++ {
		s.Push(control.ImuReadings{AZ: gravity})
	}
	if s.DetectFast() {
		t.Fatal("should not detect shock from steady 1g readings")
	}

	s.Push(control.ImuReadings{AZ: 20.0})

	if !s.DetectFast() {
		t.Fatal("expected shock detection after acceleration spike")
	}
	if s.samplesSinceLastMovement != 0 {
		t.Errorf("samplesSinceLastMovement = %d, want 0 after shock", s.samplesSinceLastMovement)
	}
}

func TestShockClearsSlowWindow(t *testing.T) {
	s := New()
	// Fill slow window indirectly via repeated fast-window fills of steady
	// readings so it becomes full.
	for i := 0; i < fastWindowLen*slowWindowLen; i++ {
		s.Push(control.ImuReadings{AZ: gravity})
	}
	if !s.slow.IsFull() {
		t.Fatal("expected slow window to be full by now")
	}
	s.Push(control.ImuReadings{AZ: 50.0})
	if s.slow.IsFull() {
		t.Error("a detected shock should clear the slow window")
	}
}

func TestTimeouts(t *testing.T) {
	s := New()
	if s.MovementTimeout() || s.SleepTimeout() {
		t.Error("timeouts should be false immediately after construction")
	}
	// Steady 1g readings: neither detector fires, so the idle counter
	// is free to accumulate.
	for i := 0; i < movementTimeoutSamples+1; i++ {
		s.Push(control.ImuReadings{AZ: gravity})
	}
	if !s.MovementTimeout() {
		t.Error("expected MovementTimeout to be true after enough idle samples")
	}
}
