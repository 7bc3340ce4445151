package leddriver

import (
	"testing"

	"github.com/dwt27/isopod/internal/config"
	"github.com/dwt27/isopod/internal/control"
)

func TestPredictedCurrentAllBlackIsBaseOffset(t *testing.T) {
	f := control.NewFrame()
	if got := predictedCurrentA(&f); got != baseCurrentA {
		t.Fatalf("predictedCurrentA(black) = %v, want %v", got, baseCurrentA)
	}
}

func TestPowerScaleNoLimitingWhenUnderBudget(t *testing.T) {
	f := control.NewFrame()
	f[0][0] = control.RGB{R: 10, G: 10, B: 10}
	if got := powerScale(&f, 4.0, 100); got != 1.0 {
		t.Fatalf("powerScale = %v, want 1.0", got)
	}
}

func TestPowerScaleCompressesOverBudget(t *testing.T) {
	f := control.NewFrame()
	for s := range f {
		for led := range f[s] {
			f[s][led] = control.RGB{R: 255, G: 255, B: 255}
		}
	}
	scale := powerScale(&f, 4.0, 100)
	if scale >= 1.0 {
		t.Fatalf("expected compression for a fully-lit frame, got scale %v", scale)
	}
	total := predictedCurrentA(&f)
	if got := total * scale; got > 4.0+1e-9 {
		t.Fatalf("scaled current %v exceeds limit 4.0", got)
	}
}

// TestBrightnessWinsOverThermalWhenSmaller verifies that the smaller of
// the two scales wins; they never multiply together.
func TestBrightnessWinsOverThermalWhenSmaller(t *testing.T) {
	f := control.NewFrame()
	f[0][0] = control.RGB{R: 1, G: 1, B: 1} // negligible current draw
	if got := powerScale(&f, 4.0, 50); got != 0.5 {
		t.Fatalf("powerScale = %v, want 0.5", got)
	}
}

func TestThermalWinsOverBrightnessWhenSmaller(t *testing.T) {
	f := control.NewFrame()
	for s := range f {
		for led := range f[s] {
			f[s][led] = control.RGB{R: 255, G: 255, B: 255}
		}
	}
	thermal := powerScale(&f, 4.0, 100)
	got := powerScale(&f, 4.0, 90)
	if got != thermal {
		t.Fatalf("powerScale with brightness=90 = %v, want thermal scale %v (thermal is smaller)", got, thermal)
	}
}

func TestScaleByteRoundsHalfToEven(t *testing.T) {
	cases := []struct {
		v     byte
		scale float64
		want  byte
	}{
		{10, 1.0, 10},
		{10, 0.25, 2}, // 2.5 -> 2 (round to even)
		{11, 0.25, 3}, // 2.75 -> 3
		{6, 0.25, 2},  // 1.5 -> 2 (round to even)
	}
	for _, c := range cases {
		if got := scaleByte(c.v, c.scale); got != c.want {
			t.Errorf("scaleByte(%d, %v) = %d, want %d", c.v, c.scale, got, c.want)
		}
	}
}

func TestAllBlack(t *testing.T) {
	f := control.NewFrame()
	if !allBlack(&f) {
		t.Fatal("zero-value frame should be all black")
	}
	f[3][5] = control.RGB{R: 1}
	if allBlack(&f) {
		t.Fatal("frame with one lit pixel should not be all black")
	}
}

func TestValidateMapping(t *testing.T) {
	var good [config.NumSpines]int
	for i := range good {
		good[i] = i + 1
	}
	if err := validateMapping(good); err != nil {
		t.Fatalf("validateMapping(identity) = %v, want nil", err)
	}

	bad := good
	bad[0] = bad[1] // duplicate entry, missing one value
	if err := validateMapping(bad); err == nil {
		t.Fatal("validateMapping should reject a non-permutation")
	}
}
