// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package leddriver

import "github.com/dwt27/isopod/internal/control"

// Per-component current coefficients and the constant base-current
// offset of the power model. baseCurrentA is an approximate figure, not a
// measured one (see DESIGN.md); it is kept as a named constant rather
// than buried inline so the power-model tests can reference it directly.
const (
	baseCurrentA = 1.5
	kRed         = 5.533e-5
	kGreen       = 4.985e-5
	kBlue        = 5.533e-5
)

// predictedCurrentA returns the total current a frame would draw if
// rendered at full (unscaled) brightness.
func predictedCurrentA(f *control.Frame) float64 {
	total := baseCurrentA
	for s := range f {
		for _, px := range f[s] {
			total += float64(px.R)*kRed + float64(px.G)*kGreen + float64(px.B)*kBlue
		}
	}
	return total
}

// powerScale computes the multiplicative scale to apply to every
// subpixel given a current limit and an external brightness setpoint
// (0..100). The thermal (current-limit) compressor and the brightness
// scale do not compose: the smaller of the two wins.
func powerScale(f *control.Frame, limitAmp float64, brightness uint8) float64 {
	thermal := 1.0
	if total := predictedCurrentA(f); total > limitAmp {
		thermal = limitAmp / total
	}
	scale := thermal
	if brightness < 100 {
		if b := float64(brightness) / 100.0; b < scale {
			scale = b
		}
	}
	return scale
}

// scaleByte applies scale to v with half-to-even (banker's) rounding to
// the nearest byte.
func scaleByte(v byte, scale float64) byte {
	if scale == 1.0 {
		return v
	}
	return byte(roundHalfToEven(float64(v) * scale))
}

func roundHalfToEven(x float64) float64 {
	floor := float64(int64(x))
	frac := x - floor
	switch {
	case frac < 0.5:
		return floor
	case frac > 0.5:
		return floor + 1
	default:
		if int64(floor)%2 == 0 {
			return floor
		}
		return floor + 1
	}
}

// allBlack reports whether every pixel in f is (0,0,0).
func allBlack(f *control.Frame) bool {
	for s := range f {
		for _, px := range f[s] {
			if !px.IsBlack() {
				return false
			}
		}
	}
	return true
}
