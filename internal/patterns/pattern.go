// Package patterns implements the closed registry of LED patterns: the
// uniform Pattern contract and its 11 concrete implementations.
package patterns

import "github.com/dwt27/isopod/internal/control"

// Registered pattern names.
const (
	NameZoom         = "zoom"
	NameStarfield    = "starfield"
	NameColourfield  = "colourfield"
	NameColourWipes  = "colour_wipes"
	NameGlitch       = "glitch"
	NameSparkles     = "sparkles"
	NameWormholes    = "wormholes"
	NameSleep        = "sleep"
	NameBeans        = "beans"
	NameRainbowSwirl = "rainbow_swirl"
	NameIdSpines     = "id_spines"
)

// Pattern is the contract every registry entry satisfies. Step is called
// at a target rate of 60 Hz; implementations may assume a constant
// 1/60 s time-step. The returned Frame pointer is owned by the pattern
// and remains valid until the next Step call; implementations must not
// allocate a new Frame inside Step.
type Pattern interface {
	Step(gps *control.GpsFix, imu control.ImuReadings) *control.Frame
	Name() string
	// IsSleep is true only for the sleep pattern.
	IsSleep() bool
}

// Constructor builds a fresh Pattern instance.
type Constructor func() Pattern

var registry = map[string]Constructor{}

func register(name string, ctor Constructor) {
	if _, exists := registry[name]; exists {
		panic("patterns: duplicate registration for " + name)
	}
	registry[name] = ctor
}

// New returns a freshly constructed pattern by name, or false if name is
// not in the registry.
func New(name string) (Pattern, bool) {
	ctor, ok := registry[name]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// Names returns every registered pattern name. Order is not guaranteed
// (map iteration); callers that need a stable order sort the result.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}

// JukeboxPlaylist returns every pattern name except "beans", the set
// the jukebox mode cycles through. Beans is excluded: it only makes
// sense driven by live motion.
func JukeboxPlaylist() []string {
	playlist := make([]string, 0, len(registry))
	for n := range registry {
		if n != NameBeans {
			playlist = append(playlist, n)
		}
	}
	return playlist
}

// basePattern factors out the owned-Frame storage shared by nearly every
// pattern.
type basePattern struct {
	leds control.Frame
}

func (b *basePattern) frame() *control.Frame { return &b.leds }
