package patterns

import (
	"math"

	"github.com/dwt27/isopod/internal/control"
)

func init() { register(NameSleep, newSleep) }

const (
	sleepSinusoidFrames = 90  // the sin² double-pulse portion
	sleepCycleFrames    = 300 // full cycle including the rest period
)

// sleepPattern streams a red heartbeat down each spine: sin² over one
// full period gives a curvy double pulse, cut off after 90 frames and
// held black for the rest of the 300-frame cycle. The only pattern
// marked IsSleep.
type sleepPattern struct {
	basePattern
	frameCount int
}

func newSleep() Pattern {
	return &sleepPattern{}
}

func (p *sleepPattern) heartbeatIntensity() byte {
	inCycle := p.frameCount % sleepCycleFrames
	if inCycle >= sleepSinusoidFrames {
		return 0
	}
	omega := 2 * math.Pi / float64(sleepSinusoidFrames)
	s := math.Sin(float64(inCycle) * omega)
	return byte(math.Round(255 * s * s))
}

func (p *sleepPattern) Step(_ *control.GpsFix, _ control.ImuReadings) *control.Frame {
	root := control.RGB{R: p.heartbeatIntensity()}
	for s := range p.leds {
		spine := &p.leds[s]
		for led := len(spine) - 1; led > 0; led-- {
			spine[led] = spine[led-1]
		}
		spine[0] = root
	}
	p.frameCount++
	return p.frame()
}

func (p *sleepPattern) Name() string  { return NameSleep }
func (p *sleepPattern) IsSleep() bool { return true }
