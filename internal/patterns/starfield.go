package patterns

import (
	"math/rand/v2"

	"github.com/dwt27/isopod/internal/control"
)

func init() { register(NameStarfield, newStarfield) }

// starfieldPattern shifts every spine outward by one pixel each frame and,
// with probability 0.083, emits a white star at the root with a random
// intensity in [85,255].
type starfieldPattern struct {
	basePattern
}

func newStarfield() Pattern {
	return &starfieldPattern{}
}

func (p *starfieldPattern) Step(_ *control.GpsFix, _ control.ImuReadings) *control.Frame {
	for s := range p.leds {
		spine := &p.leds[s]
		for led := len(spine) - 1; led > 0; led-- {
			spine[led] = spine[led-1]
		}
		if rand.Float32() < 0.083 {
			intensity := byte(85 + rand.IntN(255-85+1))
			spine[0] = control.RGB{R: intensity, G: intensity, B: intensity}
		} else {
			spine[0] = control.Black
		}
	}
	return p.frame()
}

func (p *starfieldPattern) Name() string  { return NameStarfield }
func (p *starfieldPattern) IsSleep() bool { return false }
