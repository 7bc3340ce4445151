package patterns

import (
	"github.com/dwt27/isopod/internal/config"
	"github.com/dwt27/isopod/internal/control"
	colorful "github.com/lucasb-eyer/go-colorful"
)

func init() { register(NameRainbowSwirl, newRainbowSwirl) }

// rainbowSwirlPattern is an HSV swirl around the 12 spines with a configurable radial smear and a
// moving phase, both read from config so a deployment can tune the feel
// without a rebuild.
type rainbowSwirlPattern struct {
	basePattern
	phase float64
}

func newRainbowSwirl() Pattern {
	return &rainbowSwirlPattern{}
}

func (p *rainbowSwirlPattern) Step(_ *control.GpsFix, _ control.ImuReadings) *control.Frame {
	radialSmear := 1.0
	speed := 2.0
	if cfg := config.Get(); cfg != nil {
		radialSmear = cfg.RainbowSwirlRadialSmear
		speed = cfg.RainbowSwirlSpeed
	}

	numSpines := len(p.leds)
	for s := range p.leds {
		spineHue := 360.0 * float64(s) / float64(numSpines)
		for led := range p.leds[s] {
			hue := spineHue + float64(led)*radialSmear + p.phase
			hue = normalizeHue(hue)
			r, g, b := colorful.Hsv(hue, 1.0, 1.0).RGB255()
			p.leds[s][led] = control.RGB{R: r, G: g, B: b}
		}
	}

	p.phase += speed
	return p.frame()
}

func normalizeHue(h float64) float64 {
	for h >= 360 {
		h -= 360
	}
	for h < 0 {
		h += 360
	}
	return h
}

func (p *rainbowSwirlPattern) Name() string  { return NameRainbowSwirl }
func (p *rainbowSwirlPattern) IsSleep() bool { return false }
