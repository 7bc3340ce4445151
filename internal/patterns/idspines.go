package patterns

import (
	"log"

	"github.com/dwt27/isopod/internal/control"
)

func init() { register(NameIdSpines, newIdSpines) }

// idSpinesPattern is a diagnostic pattern for reading off spine identity
// during bring-up: spine index/4 picks a primary colour (red, green,
// blue) and index%4+1 sets the length of the repeated lit groups, each
// separated by a 2-pixel black gap, so any of the 12 spines can be
// identified by naming a colour and counting a group:
//
//	0: R  R  R          4: G  G  G          8: B  B  B
//	1: RR  RR  RR       5: GG  GG  GG       9: BB  BB  BB
//	2: RRR  RRR  RRR    6: GGG  GGG  GGG   10: BBB  BBB  BBB
//	3: RRRR  RRRR       7: GGGG  GGGG     11: BBBB  BBBB
//
// It also fills the (+,+,+) orientation slot, which is otherwise hard
// to reach on the finished build.
type idSpinesPattern struct {
	basePattern
	frameCounter int
}

var idSpineColours = [3]control.RGB{
	{R: 255},
	{G: 255},
	{B: 255},
}

func newIdSpines() Pattern {
	return &idSpinesPattern{}
}

func (p *idSpinesPattern) Step(_ *control.GpsFix, imu control.ImuReadings) *control.Frame {
	for s := range p.leds {
		number := s%4 + 1
		colour := idSpineColours[s/4]

		for led := range p.leds[s] {
			if led%(number+2) == 0 || led%(number+2) == 1 {
				p.leds[s][led] = control.Black
			} else {
				p.leds[s][led] = colour
			}
		}
	}

	// Once a second, log the raw accelerometer readings; this pattern
	// is a bring-up aid and orientation is half of what it verifies.
	if p.frameCounter%60 == 0 {
		log.Printf("id_spines: acceleration: %.2f %.2f %.2f", imu.AX, imu.AY, imu.AZ)
	}
	p.frameCounter++

	return p.frame()
}

func (p *idSpinesPattern) Name() string  { return NameIdSpines }
func (p *idSpinesPattern) IsSleep() bool { return false }
