package patterns

import (
	"math/rand/v2"

	"github.com/dwt27/isopod/internal/control"
)

func init() { register(NameSparkles, newSparkles) }

const (
	sparklesCadence = 3
	sparkleProb     = 0.01
)

// sparklesPattern clears and redraws every 3rd frame: each pixel
// independently has a 1% chance of igniting itself and its next
// neighbour white; other frames hold.
type sparklesPattern struct {
	basePattern
	frameCount int
}

func newSparkles() Pattern {
	return &sparklesPattern{}
}

func (p *sparklesPattern) Step(_ *control.GpsFix, _ control.ImuReadings) *control.Frame {
	if p.frameCount%sparklesCadence == 0 {
		p.leds = control.NewFrame()
		for s := range p.leds {
			for led := range p.leds[s] {
				if rand.Float64() < sparkleProb {
					p.leds[s][led] = control.RGB{R: 255, G: 255, B: 255}
					if led+1 < control.LedsPerSpine {
						p.leds[s][led+1] = control.RGB{R: 255, G: 255, B: 255}
					}
				}
			}
		}
	}
	p.frameCount++
	return p.frame()
}

func (p *sparklesPattern) Name() string  { return NameSparkles }
func (p *sparklesPattern) IsSleep() bool { return false }
