package patternmanager

import (
	"testing"

	"github.com/dwt27/isopod/internal/config"
	"github.com/dwt27/isopod/internal/control"
	"github.com/dwt27/isopod/internal/motion"
	"github.com/dwt27/isopod/internal/patterns"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := &config.Config{}
	controls := control.NewControls(100, "", patterns.Names())
	m, err := New(cfg, controls)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

// TestInitialStateIsTransition checks the default startup state: a
// Transition from black, with no static_pattern configured.
func TestInitialStateIsTransition(t *testing.T) {
	m := newTestManager(t)
	if m.kind != kindTransition {
		t.Fatalf("kind = %v, want kindTransition", m.kind)
	}
}

// TestTransitionSettlesToOrientationPattern drives a Transition to
// completion with a flat, unmoving IMU signal and checks it lands in
// Stationary on a pattern selected by selectByOrientation.
func TestTransitionSettlesToOrientationPattern(t *testing.T) {
	m := newTestManager(t)
	sensor := motion.New()
	imu := control.ImuReadings{AZ: 9.81}
	fix := &control.GpsFix{}

	// Fill the fast/slow windows with a steady, non-shock signal so
	// DetectFast/DetectSlow/SleepTimeout all read false at frame 60.
	for i := 0; i < transitionFrames; i++ {
		sensor.Push(imu)
		m.Step(sensor, fix, imu)
	}
	// One more Step applies the deferred transition scheduled at t==60.
	m.Step(sensor, fix, imu)

	if m.kind != kindStationary {
		t.Fatalf("kind = %v, want kindStationary", m.kind)
	}
	want := selectByOrientation(imu)
	if got := m.active.Name(); got != want {
		t.Fatalf("active pattern = %q, want %q", got, want)
	}
}

// TestSelectByOrientationSigns is scenario S3: the 8 sign octants map to
// distinct patterns, and (+,+,+) resolves to id_spines.
func TestSelectByOrientationSigns(t *testing.T) {
	cases := []struct {
		ax, ay, az float64
		want       string
	}{
		{-1, -1, -1, patterns.NameZoom},
		{-1, -1, 1, patterns.NameStarfield},
		{-1, 1, -1, patterns.NameColourfield},
		{-1, 1, 1, patterns.NameGlitch},
		{1, -1, -1, patterns.NameColourWipes},
		{1, -1, 1, patterns.NameWormholes},
		{1, 1, -1, patterns.NameSparkles},
		{1, 1, 1, patterns.NameIdSpines},
	}
	for _, c := range cases {
		mean := control.ImuReadings{AX: c.ax, AY: c.ay, AZ: c.az}
		if got := selectByOrientation(mean); got != c.want {
			t.Errorf("selectByOrientation(%+v) = %q, want %q", mean, got, c.want)
		}
	}
}

// TestMovementStackedCounterResets puts the Manager straight into
// Movement with a fresh beans pattern, whose tubes start centred and so
// not stacked, and a stacked-frame counter one short of the exit
// threshold. One stepMovement must reset the counter and stay in
// Movement.
func TestMovementStackedCounterResets(t *testing.T) {
	m := newTestManager(t)
	m.kind = kindMovement
	p, _ := patterns.New(patterns.NameBeans)
	m.active = p
	m.stackedFrames = movementStackedThreshold - 1

	sensor := motion.New()
	fix := &control.GpsFix{}
	imu := control.ImuReadings{AZ: 9.81}

	frame := m.stepMovement(sensor, fix, imu)
	if frame == nil {
		t.Fatal("stepMovement returned nil frame")
	}
	if m.kind != kindMovement {
		t.Fatalf("single step should not exit Movement, kind = %v", m.kind)
	}
	if m.stackedFrames != 0 {
		t.Errorf("stackedFrames = %d, want 0 after a non-stacked frame", m.stackedFrames)
	}
}

// TestStaticModeSwapsOnControlsChange exercises the Static-mode-only
// consumption of Controls.PatternName documented in DESIGN.md: a
// control-surface pattern change takes effect immediately, without
// going through Transition.
func TestStaticModeSwapsOnControlsChange(t *testing.T) {
	cfg := &config.Config{StaticPattern: patterns.NameZoom}
	controls := control.NewControls(100, patterns.NameZoom, patterns.Names())
	m, err := New(cfg, controls)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.active.Name() != patterns.NameZoom {
		t.Fatalf("initial static pattern = %q, want zoom", m.active.Name())
	}

	controls.SetPatternName(patterns.NameSparkles)
	fix := &control.GpsFix{}
	m.Step(nil, fix, control.ImuReadings{})

	if m.active.Name() != patterns.NameSparkles {
		t.Fatalf("after Controls swap, active = %q, want sparkles", m.active.Name())
	}
}

// TestTransitionEntersMovementOnShock drives a Transition to completion
// while the motion sensor is reporting a shock; the machine must land in
// Movement running beans.
func TestTransitionEntersMovementOnShock(t *testing.T) {
	m := newTestManager(t)
	sensor := motion.New()
	fix := &control.GpsFix{}
	shock := control.ImuReadings{AZ: 20.0}

	for i := 0; i < transitionFrames; i++ {
		sensor.Push(shock)
		m.Step(sensor, fix, shock)
	}
	m.Step(sensor, fix, shock)

	if m.kind != kindMovement {
		t.Fatalf("kind = %v, want kindMovement", m.kind)
	}
	if got := m.active.Name(); got != patterns.NameBeans {
		t.Fatalf("active = %q, want beans", got)
	}
}

// TestJukeboxDwellRollsOver checks the jukebox cycle: once the dwell
// expires the machine advects through JukeboxTransition and lands on a
// fresh playlist entry.
func TestJukeboxDwellRollsOver(t *testing.T) {
	cfg := &config.Config{StaticPattern: "jukebox"}
	controls := control.NewControls(100, "", patterns.Names())
	m, err := New(cfg, controls)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.kind != kindJukebox {
		t.Fatalf("kind = %v, want kindJukebox", m.kind)
	}

	fix := &control.GpsFix{}
	m.jukeboxFrames = jukeboxDwellFrames // expire the dwell
	m.Step(nil, fix, control.ImuReadings{})
	m.Step(nil, fix, control.ImuReadings{})
	if m.kind != kindJukeboxTransition {
		t.Fatalf("kind = %v, want kindJukeboxTransition", m.kind)
	}

	for i := 0; i < transitionFrames; i++ {
		m.Step(nil, fix, control.ImuReadings{})
	}
	if m.kind != kindJukebox {
		t.Fatalf("kind = %v, want kindJukebox after the cross-fade", m.kind)
	}
	if m.active.Name() == patterns.NameBeans {
		t.Fatal("jukebox must never select beans")
	}
	if m.jukeboxFrames > 1 {
		t.Errorf("jukeboxFrames = %d, want reset", m.jukeboxFrames)
	}
}

// TestNewRejectsUnknownStaticPattern checks that a bad static_pattern
// is fatal at startup rather than silently falling back.
func TestNewRejectsUnknownStaticPattern(t *testing.T) {
	cfg := &config.Config{StaticPattern: "not_a_real_pattern"}
	controls := control.NewControls(100, "", patterns.Names())
	if _, err := New(cfg, controls); err == nil {
		t.Fatal("New should reject an unknown static_pattern name")
	}
}
