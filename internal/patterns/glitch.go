package patterns

import (
	"math/rand/v2"

	"github.com/dwt27/isopod/internal/control"
	colorful "github.com/lucasb-eyer/go-colorful"
)

func init() { register(NameGlitch, newGlitch) }

const (
	glitchMeanFrames = 0.6 * 60 // ≈0.6s at 60fps
	gapMeanFrames    = 0.8 * 60 // ≈0.8s at 60fps

	glitchMaxSegments  = 30 // Uniform(0,30)
	glitchMinSegLen    = 15
	glitchSegLenSpread = 40 - glitchMinSegLen // Uniform(15,40)

	glitchOnProb       = 0.1
	glitchOffProb      = 0.1
	glitchRecolourProb = 0.03
)

type glitchSegment struct {
	spine  int
	start  int
	length int
	colour control.RGB
	on     bool
}

// glitchPattern alternates "glitching" (random segments flickering on
// random spines) and "gap" (blank) periods, each exponentially
// distributed around its mean length.
type glitchPattern struct {
	basePattern
	glitching       bool
	framesRemaining int
	segments        []glitchSegment
}

func newGlitch() Pattern {
	p := &glitchPattern{}
	p.enterGap()
	return p
}

func expFrames(mean float64) int {
	n := int(rand.ExpFloat64() * mean)
	if n < 1 {
		n = 1
	}
	return n
}

func (p *glitchPattern) enterGap() {
	p.glitching = false
	p.framesRemaining = expFrames(gapMeanFrames)
	p.segments = nil
}

func randomColour() control.RGB {
	hue := rand.Float64() * 360.0
	r, g, b := colorful.Hsv(hue, 1.0, 1.0).RGB255()
	return control.RGB{R: r, G: g, B: b}
}

func (p *glitchPattern) enterGlitch() {
	p.glitching = true
	p.framesRemaining = expFrames(glitchMeanFrames)

	n := rand.IntN(glitchMaxSegments + 1)
	p.segments = make([]glitchSegment, n)
	for i := range p.segments {
		length := glitchMinSegLen + rand.IntN(glitchSegLenSpread+1)
		p.segments[i] = glitchSegment{
			spine:  rand.IntN(len(p.leds)),
			start:  rand.IntN(control.LedsPerSpine),
			length: length,
			colour: randomColour(),
			on:     true,
		}
	}
}

func (p *glitchPattern) Step(_ *control.GpsFix, _ control.ImuReadings) *control.Frame {
	p.leds = control.NewFrame()

	p.framesRemaining--
	if p.framesRemaining <= 0 {
		if p.glitching {
			p.enterGap()
		} else {
			p.enterGlitch()
		}
	}

	for i := range p.segments {
		seg := &p.segments[i]
		if seg.on {
			if rand.Float64() < glitchOffProb {
				seg.on = false
			}
		} else {
			if rand.Float64() < glitchOnProb {
				seg.on = true
			}
		}
		if rand.Float64() < glitchRecolourProb {
			seg.colour = randomColour()
		}
		if !seg.on {
			continue
		}
		for k := 0; k < seg.length; k++ {
			idx := seg.start + k
			if idx >= control.LedsPerSpine {
				break
			}
			p.leds[seg.spine][idx] = seg.colour
		}
	}

	return p.frame()
}

func (p *glitchPattern) Name() string  { return NameGlitch }
func (p *glitchPattern) IsSleep() bool { return false }
