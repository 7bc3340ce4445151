package patterns

import (
	"math/rand/v2"

	"github.com/dwt27/isopod/internal/control"
)

func init() { register(NameWormholes, newWormholes) }

const (
	wormHeadFade   = 2
	wormBodyLen    = 20
	wormTailFade   = 10
	wormLen        = 1 + wormHeadFade + wormBodyLen + wormTailFade
	wormSpawnProb  = 0.2 // 1/5 per frame
	wormSpawnTries = 10
)

// worm is a short-lived traveller along a spine: a white head, a
// 2-pixel head-fade, a 20-pixel solid body, and a 10-pixel tail-fade to
// black. Its inverse speed (frames per pixel of movement) is a signed
// integer in [-3,-1] ∪ [1,3]; the sign gives direction.
type worm struct {
	spine        int
	head         int
	invSpeed     int
	frameCounter int
}

func (w *worm) direction() int {
	if w.invSpeed < 0 {
		return -1
	}
	return 1
}

// span returns the inclusive pixel range the worm currently occupies,
// trailing behind the head opposite its direction of travel.
func (w *worm) span() (lo, hi int) {
	tail := w.head - w.direction()*(wormLen-1)
	if tail < w.head {
		return tail, w.head
	}
	return w.head, tail
}

func (w *worm) overlaps(o *worm) bool {
	lo1, hi1 := w.span()
	lo2, hi2 := o.span()
	return lo1 <= hi2 && lo2 <= hi1
}

type wormholesPattern struct {
	basePattern
	worms []worm
}

func newWormholes() Pattern {
	return &wormholesPattern{}
}

func (p *wormholesPattern) trySpawn() {
	if rand.Float64() >= wormSpawnProb {
		return
	}

	for attempt := 0; attempt < wormSpawnTries; attempt++ {
		dirMag := 1 + rand.IntN(3) // 1..3
		invSpeed := dirMag
		if rand.IntN(2) == 0 {
			invSpeed = -dirMag
		}

		candidate := worm{
			spine:    rand.IntN(len(p.leds)),
			invSpeed: invSpeed,
		}
		if candidate.direction() > 0 {
			candidate.head = 0
		} else {
			candidate.head = control.LedsPerSpine - 1
		}

		conflict := false
		for i := range p.worms {
			if p.worms[i].spine == candidate.spine && p.worms[i].overlaps(&candidate) {
				conflict = true
				break
			}
		}
		if !conflict {
			p.worms = append(p.worms, candidate)
			return
		}
	}
}

func (p *wormholesPattern) Step(_ *control.GpsFix, _ control.ImuReadings) *control.Frame {
	p.trySpawn()

	live := p.worms[:0]
	for i := range p.worms {
		w := &p.worms[i]
		w.frameCounter++
		mag := w.invSpeed
		if mag < 0 {
			mag = -mag
		}
		if w.frameCounter >= mag {
			w.frameCounter = 0
			w.head += w.direction()
		}
		if w.head >= -wormLen && w.head <= control.LedsPerSpine-1+wormLen {
			live = append(live, *w)
		}
	}
	p.worms = live

	p.leds = control.NewFrame()
	for i := range p.worms {
		w := &p.worms[i]
		dir := w.direction()
		for offset := 0; offset < wormLen; offset++ {
			idx := w.head - dir*offset
			if idx < 0 || idx >= control.LedsPerSpine {
				continue
			}
			p.leds[w.spine][idx] = wormPixelColour(offset)
		}
	}

	return p.frame()
}

// wormPixelColour returns the colour at a given offset behind the head:
// offset 0 is the white head, 1..wormHeadFade fade from white, the next
// wormBodyLen pixels are solid white, and the final wormTailFade fade to
// black.
func wormPixelColour(offset int) control.RGB {
	switch {
	case offset == 0:
		return control.RGB{R: 255, G: 255, B: 255}
	case offset <= wormHeadFade:
		intensity := byte(255 - (255*offset)/(wormHeadFade+1))
		return control.RGB{R: intensity, G: intensity, B: intensity}
	case offset <= wormHeadFade+wormBodyLen:
		return control.RGB{R: 255, G: 255, B: 255}
	default:
		tailOffset := offset - wormHeadFade - wormBodyLen
		intensity := byte(255 - (255*tailOffset)/wormTailFade)
		return control.RGB{R: intensity, G: intensity, B: intensity}
	}
}

func (p *wormholesPattern) Name() string  { return NameWormholes }
func (p *wormholesPattern) IsSleep() bool { return false }
