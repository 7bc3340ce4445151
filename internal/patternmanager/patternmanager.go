// Package patternmanager implements the state machine that selects and
// cross-fades between patterns based on motion, orientation, and
// configuration.
package patternmanager

import (
	"fmt"
	"log"
	"math/rand/v2"
	"sort"

	"github.com/dwt27/isopod/internal/config"
	"github.com/dwt27/isopod/internal/control"
	"github.com/dwt27/isopod/internal/motion"
	"github.com/dwt27/isopod/internal/patterns"
)

const (
	// transitionFrames is the fixed 60-frame (≈1s at 60fps) duration of
	// both Transition and JukeboxTransition.
	transitionFrames = 60
	// movementStackedThreshold is the number of consecutive
	// all-stacked frames (≈3.3s) that ends the Movement state.
	movementStackedThreshold = 199
	// jukeboxDwellFrames is how long Jukebox stays on one pattern
	// (≈60s) before cross-fading to the next.
	jukeboxDwellFrames = 3600
)

type kind int

const (
	kindStationary kind = iota
	kindMovement
	kindTransition
	kindStatic
	kindJukebox
	kindJukeboxTransition
)

// stacked is implemented by the beans pattern; Manager type-asserts
// against it rather than importing the beans pattern's concrete type.
type stacked interface {
	AllStacked() bool
}

// Manager is the per-frame-driven pattern state machine. It is owned
// exclusively by the render thread, like the pattern instances it
// drives; it is not safe for concurrent use.
type Manager struct {
	kind   kind
	active patterns.Pattern

	lastFrame control.Frame
	t         int // frames since a Transition/JukeboxTransition began

	stackedFrames int // Movement: consecutive all-stacked frames
	jukeboxFrames int // Jukebox: frames in current pattern

	// staticPatternName tracks the pattern Controls most recently
	// swapped in while in Static mode (see the "Controls.pattern_name
	// in Static mode" decision in DESIGN.md).
	staticPatternName string

	controls *control.Controls
	pending  func()
}

// New builds a Manager in its initial state: a Transition from black
// unless configuration selects Static or Jukebox. An invalid
// static_pattern name is a configuration error: fatal at startup, not a
// silent fallback.
func New(cfg *config.Config, controls *control.Controls) (*Manager, error) {
	m := &Manager{controls: controls}

	switch cfg.StaticPattern {
	case "":
		m.kind = kindTransition
		m.lastFrame = control.NewFrame()
	case "jukebox":
		m.enterJukebox(randomPlaylistEntry())
	default:
		p, ok := patterns.New(cfg.StaticPattern)
		if !ok {
			return nil, fmt.Errorf("patternmanager: unknown static_pattern %q", cfg.StaticPattern)
		}
		m.kind = kindStatic
		m.active = p
		m.staticPatternName = cfg.StaticPattern
	}
	return m, nil
}

// Step advances the state machine by one frame and returns the frame to
// render. The returned pointer is valid until the next Step call.
// State transitions decided this frame are deferred to the start of the
// next call, so the frame returned here always belongs to
// the state that was active when Step was called.
func (m *Manager) Step(sensor *motion.Sensor, gps *control.GpsFix, imu control.ImuReadings) *control.Frame {
	if m.pending != nil {
		next := m.pending
		m.pending = nil
		next()
	}

	switch m.kind {
	case kindStatic:
		return m.stepStatic(gps, imu)
	case kindStationary:
		return m.stepStationary(sensor, gps, imu)
	case kindMovement:
		return m.stepMovement(sensor, gps, imu)
	case kindTransition:
		return m.stepTransition(sensor)
	case kindJukebox:
		return m.stepJukebox(gps, imu)
	case kindJukeboxTransition:
		return m.stepJukeboxTransition()
	default:
		panic("patternmanager: unreachable state")
	}
}

func (m *Manager) stepStatic(gps *control.GpsFix, imu control.ImuReadings) *control.Frame {
	if name := m.controls.PatternName(); name != "" && name != m.staticPatternName {
		if p, ok := patterns.New(name); ok {
			m.active = p
			m.staticPatternName = name
		}
	}
	frame := m.active.Step(gps, imu)
	m.lastFrame = *frame
	return frame
}

func (m *Manager) stepStationary(sensor *motion.Sensor, gps *control.GpsFix, imu control.ImuReadings) *control.Frame {
	frame := m.active.Step(gps, imu)
	m.lastFrame = *frame

	switch {
	case sensor.DetectFast() || sensor.DetectSlow():
		m.scheduleTransition("shock/creep")
	case !m.active.IsSleep() && sensor.SleepTimeout():
		m.scheduleTransition("sleep timeout")
	}
	return frame
}

func (m *Manager) stepMovement(sensor *motion.Sensor, gps *control.GpsFix, imu control.ImuReadings) *control.Frame {
	frame := m.active.Step(gps, imu)
	m.lastFrame = *frame

	if s, ok := m.active.(stacked); ok && s.AllStacked() {
		m.stackedFrames++
	} else {
		m.stackedFrames = 0
	}
	if m.stackedFrames >= movementStackedThreshold {
		m.scheduleTransition("beans stacked")
	}
	return frame
}

func (m *Manager) stepTransition(sensor *motion.Sensor) *control.Frame {
	advectFrame(&m.lastFrame)
	m.t++

	if m.t == transitionFrames {
		switch {
		case sensor.SleepTimeout():
			m.pending = func() { m.enterStationary(patterns.NameSleep) }
		case sensor.DetectFast() || sensor.DetectSlow():
			m.pending = func() { m.enterMovement() }
		default:
			mean, _ := sensor.FastMean()
			name := selectByOrientation(mean)
			m.pending = func() { m.enterStationary(name) }
		}
	}
	return &m.lastFrame
}

func (m *Manager) stepJukebox(gps *control.GpsFix, imu control.ImuReadings) *control.Frame {
	frame := m.active.Step(gps, imu)
	m.lastFrame = *frame

	m.jukeboxFrames++
	if m.jukeboxFrames > jukeboxDwellFrames {
		m.pending = func() {
			m.kind = kindJukeboxTransition
			m.t = 0
		}
	}
	return frame
}

func (m *Manager) stepJukeboxTransition() *control.Frame {
	advectFrame(&m.lastFrame)
	m.t++
	if m.t == transitionFrames {
		next := randomPlaylistEntry()
		m.pending = func() { m.enterJukebox(next) }
	}
	return &m.lastFrame
}

func (m *Manager) scheduleTransition(reason string) {
	log.Printf("patternmanager: %s -> transition (%s)", m.active.Name(), reason)
	m.pending = func() {
		m.kind = kindTransition
		m.t = 0
	}
}

func (m *Manager) enterStationary(name string) {
	p, ok := patterns.New(name)
	if !ok {
		panic("patternmanager: unknown pattern " + name)
	}
	log.Printf("patternmanager: transition -> stationary(%s)", name)
	m.kind = kindStationary
	m.active = p
}

func (m *Manager) enterMovement() {
	p, _ := patterns.New(patterns.NameBeans)
	log.Printf("patternmanager: transition -> movement(beans)")
	m.kind = kindMovement
	m.active = p
	m.stackedFrames = 0
}

func (m *Manager) enterJukebox(name string) {
	p, ok := patterns.New(name)
	if !ok {
		panic("patternmanager: unknown jukebox pattern " + name)
	}
	m.kind = kindJukebox
	m.active = p
	m.jukeboxFrames = 0
}

// advectFrame slides a frame's pixels one slot toward the tip of each
// spine, backfilling the vacated root slot with black.
func advectFrame(f *control.Frame) {
	for s := range f {
		spine := &f[s]
		for k := len(spine) - 1; k > 0; k-- {
			spine[k] = spine[k-1]
		}
		spine[0] = control.Black
	}
}

// selectByOrientation maps the signs of the smoothed accelerometer axes
// to a pattern name. The (+,+,+) slot gets id_spines: it is nearly
// unreachable with the battery pack mounted, so the diagnostic pattern
// lives there.
func selectByOrientation(mean control.ImuReadings) string {
	px, py, pz := mean.AX >= 0, mean.AY >= 0, mean.AZ >= 0
	switch {
	case !px && !py && !pz:
		return patterns.NameZoom
	case !px && !py && pz:
		return patterns.NameStarfield
	case !px && py && !pz:
		return patterns.NameColourfield
	case !px && py && pz:
		return patterns.NameGlitch
	case px && !py && !pz:
		return patterns.NameColourWipes
	case px && !py && pz:
		return patterns.NameWormholes
	case px && py && !pz:
		return patterns.NameSparkles
	default: // (+,+,+)
		return patterns.NameIdSpines
	}
}

func randomPlaylistEntry() string {
	playlist := patterns.JukeboxPlaylist()
	sort.Strings(playlist)
	return playlist[rand.IntN(len(playlist))]
}
