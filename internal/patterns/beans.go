package patterns

import (
	"github.com/dwt27/isopod/internal/beans"
	"github.com/dwt27/isopod/internal/control"
	"github.com/dwt27/isopod/internal/geometry"
)

func init() { register(NameBeans, newBeans) }

// gravityScale amplifies the (negated) IMU acceleration vector so the
// beans respond briskly to handling.
const gravityScale = 5.0

// startupFrames is the duration of the outward-growing white band shown
// before physics starts.
const startupFrames = (beans.NumBeans / 2) * 4

// beansPattern drives one BeanTube per opposing spine pair (6 tubes),
// each fed a scalar acceleration projected from gravity onto the
// tube's axis.
type beansPattern struct {
	basePattern
	tubes      [len(geometry.OpposingPairs)]*beans.Tube
	frameCount int
}

func newBeans() Pattern {
	p := &beansPattern{}
	for i := range p.tubes {
		p.tubes[i] = beans.NewTube()
	}
	return p
}

func (p *beansPattern) Step(_ *control.GpsFix, imu control.ImuReadings) *control.Frame {
	if p.frameCount < startupFrames {
		p.renderStartupBand()
		p.frameCount++
		return p.frame()
	}

	gravity := imu.AccelVector().Scale(-gravityScale)

	for i, pair := range geometry.OpposingPairs {
		direction := geometry.SpineDirections[pair[1]]
		acceleration := geometry.Dot(gravity, direction)
		p.tubes[i].Step(acceleration)
		p.paintPair(pair, p.tubes[i])
	}

	p.frameCount++
	return p.frame()
}

func (p *beansPattern) renderStartupBand() {
	bandLen := (p.frameCount * control.LedsPerSpine) / startupFrames
	for s := range p.leds {
		for led := range p.leds[s] {
			if led < bandLen {
				p.leds[s][led] = control.RGB{R: 255, G: 255, B: 255}
			} else {
				p.leds[s][led] = control.Black
			}
		}
	}
}

// paintPair maps the tube's bean positions onto its two member spines,
// mirrored: spine A's tip reaches the tube's left wall, spine B's tip
// reaches the tube's right wall.
func (p *beansPattern) paintPair(pair [2]int, tube *beans.Tube) {
	spineA, spineB := pair[0], pair[1]
	for k := 0; k < control.LedsPerSpine; k++ {
		p.leds[spineA][k] = tube.GetColour(control.LedsPerSpine - 1 - k)
		p.leds[spineB][k] = tube.GetColour(beans.TubeLen - control.LedsPerSpine + k)
	}
}

func (p *beansPattern) Name() string  { return NameBeans }
func (p *beansPattern) IsSleep() bool { return false }

// AllStacked reports whether every tube is currently stacked against one
// of its walls. PatternManager polls this to decide when the movement
// display has settled.
func (p *beansPattern) AllStacked() bool {
	for _, tube := range p.tubes {
		if !tube.IsStacked() {
			return false
		}
	}
	return true
}
