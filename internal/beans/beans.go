// Package beans implements the one-dimensional N-body inelastic-collision
// physics used by the beans pattern: an opposing spine pair modelled as a
// tube of unit-diameter particles pushed by projected gravity.
package beans

import (
	"fmt"
	"math/rand/v2"

	"github.com/dwt27/isopod/internal/control"
)

const (
	// TubeLen is the number of discrete slots in a tube.
	TubeLen = 118
	// NumBeans is the number of particles per tube.
	NumBeans = 41

	stepsPerFrame = 10
	dt            = 1.0 / float64(stepsPerFrame)

	// epsilon is the tolerance used by the ordering/bounds invariants.
	epsilon = 0.1
)

type bean struct {
	position float64
	velocity float64
	colour   control.RGB
}

// Tube is a 1-D tube of NumBeans ordered particles sliding within
// [0, TubeLen-1].
type Tube struct {
	beans [NumBeans]bean
}

// NewTube builds a Tube with its beans centred and at rest, all coloured
// white.
func NewTube() *Tube {
	t := &Tube{}
	firstPos := float64(TubeLen)/2.0 - float64(NumBeans)/2.0
	for i := range t.beans {
		t.beans[i] = bean{
			position: firstPos + float64(i),
			colour:   control.RGB{R: 255, G: 255, B: 255},
		}
	}
	return t
}

// sanityCheck asserts the solver invariants: exact bean count
// (structural, enforced by the array type), strict ordering with
// Pauli-exclusion spacing, and in-bounds positions. A violation is a
// programmer fault, not a runtime error: it panics rather
// than returning an error.
func (t *Tube) sanityCheck() {
	for i := 0; i < NumBeans-1; i++ {
		if t.beans[i+1].position-t.beans[i].position <= 1.0-epsilon {
			panic(fmt.Sprintf("beans: ordering invariant violated at index %d: positions %v, %v",
				i, t.beans[i].position, t.beans[i+1].position))
		}
	}
	for i, b := range t.beans {
		if b.position < -epsilon || b.position > float64(TubeLen)-1.0+epsilon {
			panic(fmt.Sprintf("beans: bounds invariant violated at index %d: position %v", i, b.position))
		}
	}
}

// Step runs stepsPerFrame sub-steps with an effective per-sub-step
// acceleration of acceleration/100.
func (t *Tube) Step(acceleration float64) {
	for i := 0; i < stepsPerFrame; i++ {
		t.subStep(acceleration / 100.0)
	}
}

// subStep runs exactly one physics sub-step, processing beans in index
// order. Invariants are checked before and after.
func (t *Tube) subStep(a float64) {
	t.sanityCheck()

	fuzzMagnitude := a
	if fuzzMagnitude < 0 {
		fuzzMagnitude = -fuzzMagnitude
	}

	for i := 0; i < NumBeans; i++ {
		fuzz := fuzzMagnitude * (2.0*rand.Float64() - 1.0)
		t.beans[i].velocity += (a + fuzz) * dt
		next := t.beans[i].position + t.beans[i].velocity*dt

		switch {
		case t.beans[i].velocity > 0:
			if i < NumBeans-1 {
				right := t.beans[i+1]
				if right.position-next < 1.0 {
					next = right.position - 1.0
					if right.velocity > 0 {
						t.beans[i].velocity = right.velocity
					} else {
						t.beans[i].velocity = 0
					}
				}
			} else if next > float64(TubeLen)-1.0 {
				next = float64(TubeLen) - 1.0
				t.beans[i].velocity = 0
			}
		case t.beans[i].velocity < 0:
			if i > 0 {
				left := t.beans[i-1]
				if next-left.position < 1.0 {
					next = left.position + 1.0
					if left.velocity < 0 {
						t.beans[i].velocity = left.velocity
					} else {
						t.beans[i].velocity = 0
					}
				}
			} else if next < 0 {
				next = 0
				t.beans[i].velocity = 0
			}
		}

		t.beans[i].position = next
	}

	t.sanityCheck()
}

func (t *Tube) beanAtPos(position int) (bean, bool) {
	for _, b := range t.beans {
		if int(roundHalfAwayFromZero(b.position)) == position {
			return b, true
		}
	}
	return bean{}, false
}

func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return float64(int(v + 0.5))
	}
	return float64(int(v - 0.5))
}

// GetColour rounds each bean's continuous position to the nearest integer
// slot and returns that bean's colour, or black if no bean rounds there.
func (t *Tube) GetColour(positionIndex int) control.RGB {
	if b, ok := t.beanAtPos(positionIndex); ok {
		return b.colour
	}
	return control.Black
}

// IsStacked reports whether every bean is within half a slot of one
// closed-packed end of the tube.
func (t *Tube) IsStacked() bool {
	stackedLeft := t.beans[NumBeans-1].position < float64(NumBeans)-0.5
	stackedRight := t.beans[0].position > float64(TubeLen-NumBeans)-0.5
	return stackedLeft || stackedRight
}
