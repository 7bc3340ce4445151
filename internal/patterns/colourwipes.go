package patterns

import (
	"math/rand/v2"

	"github.com/dwt27/isopod/internal/control"
	colorful "github.com/lucasb-eyer/go-colorful"
)

func init() { register(NameColourWipes, newColourWipes) }

const (
	wipeSpeed       = 0.5
	wipeSpawnFrames = 20
	wipeHeadLen     = 5
	wipeDecay       = 2
)

// wipe is one active colour wipe advancing down a spine.
type wipe struct {
	spine    int
	position float64
	colour   control.RGB
}

// colourWipesPattern advances a list of wipes down their spines at
// wipeSpeed pixels/frame; every wipeSpawnFrames frames a new wipe spawns
// on the next spine round-robin. Non-white pixels decay globally by
// wipeDecay per frame.
type colourWipesPattern struct {
	basePattern
	wipes      []wipe
	nextSpine  int
	frameCount int
}

func newColourWipes() Pattern {
	return &colourWipesPattern{}
}

func (p *colourWipesPattern) Step(_ *control.GpsFix, _ control.ImuReadings) *control.Frame {
	for s := range p.leds {
		for led := range p.leds[s] {
			c := &p.leds[s][led]
			if *c == (control.RGB{R: 255, G: 255, B: 255}) {
				continue
			}
			c.R = decayByte(c.R)
			c.G = decayByte(c.G)
			c.B = decayByte(c.B)
		}
	}

	if p.frameCount > 0 && p.frameCount%wipeSpawnFrames == 0 {
		hue := rand.Float64() * 360.0
		sat := rand.Float64()
		r, g, b := colorful.Hsv(hue, sat, 1.0).RGB255()
		p.wipes = append(p.wipes, wipe{
			spine:  p.nextSpine,
			colour: control.RGB{R: r, G: g, B: b},
		})
		p.nextSpine = (p.nextSpine + 1) % len(p.leds)
	}
	p.frameCount++

	live := p.wipes[:0]
	for _, w := range p.wipes {
		w.position += wipeSpeed
		head := int(w.position)
		if head >= control.LedsPerSpine+wipeHeadLen {
			continue // off the end of the spine, drop it
		}
		for k := 0; k < wipeHeadLen; k++ {
			if idx := head - k; idx >= 0 && idx < control.LedsPerSpine {
				p.leds[w.spine][idx] = control.RGB{R: 255, G: 255, B: 255}
			}
		}
		if idx := head - wipeHeadLen; idx >= 0 && idx < control.LedsPerSpine {
			p.leds[w.spine][idx] = w.colour
		}
		live = append(live, w)
	}
	p.wipes = live

	return p.frame()
}

func decayByte(v byte) byte {
	if v < wipeDecay {
		return 0
	}
	return v - wipeDecay
}

func (p *colourWipesPattern) Name() string  { return NameColourWipes }
func (p *colourWipesPattern) IsSleep() bool { return false }
