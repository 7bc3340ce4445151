package patterns

import "github.com/dwt27/isopod/internal/control"

func init() { register(NameZoom, newZoom) }

// zoomPattern paints white pixels every 10 slots, scrolled inward by one
// slot each frame.
type zoomPattern struct {
	basePattern
	i int
}

func newZoom() Pattern {
	return &zoomPattern{i: 0}
}

func (p *zoomPattern) Step(_ *control.GpsFix, _ control.ImuReadings) *control.Frame {
	for s := 0; s < len(p.leds); s++ {
		for led := 0; led < len(p.leds[s]); led++ {
			if (led+p.i)%10 == 0 {
				p.leds[s][led] = control.RGB{R: 255, G: 255, B: 255}
			} else {
				p.leds[s][led] = control.Black
			}
		}
	}
	if p.i == 0 {
		p.i = control.LedsPerSpine
	} else {
		p.i--
	}
	return p.frame()
}

func (p *zoomPattern) Name() string  { return NameZoom }
func (p *zoomPattern) IsSleep() bool { return false }
