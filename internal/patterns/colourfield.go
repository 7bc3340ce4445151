package patterns

import (
	"math/rand/v2"

	"github.com/dwt27/isopod/internal/control"
	colorful "github.com/lucasb-eyer/go-colorful"
)

func init() { register(NameColourfield, newColourfield) }

// colourfieldPattern is starfield's cadence with 20% fully-saturated
// random-hue stars and 80% white stars of intensity [85,150].
type colourfieldPattern struct {
	basePattern
}

func newColourfield() Pattern {
	return &colourfieldPattern{}
}

func (p *colourfieldPattern) Step(_ *control.GpsFix, _ control.ImuReadings) *control.Frame {
	for s := range p.leds {
		spine := &p.leds[s]
		for led := len(spine) - 1; led > 0; led-- {
			spine[led] = spine[led-1]
		}

		switch {
		case rand.Float32() >= 0.083:
			spine[0] = control.Black
		case rand.Float32() < 0.2:
			hue := rand.Float64() * 360.0
			r, g, b := colorful.Hsv(hue, 1.0, 1.0).RGB255()
			spine[0] = control.RGB{R: r, G: g, B: b}
		default:
			intensity := byte(85 + rand.IntN(150-85+1))
			spine[0] = control.RGB{R: intensity, G: intensity, B: intensity}
		}
	}
	return p.frame()
}

func (p *colourfieldPattern) Name() string  { return NameColourfield }
func (p *colourfieldPattern) IsSleep() bool { return false }
