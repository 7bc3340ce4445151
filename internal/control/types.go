// Package control defines the process-wide data model shared across the
// render loop, the sensor threads, and the external-interface adapters:
// sensor readings, the LED frame buffer, and the remotely-settable
// Controls.
package control

import (
	"math"
	"time"

	"github.com/dwt27/isopod/internal/geometry"
)

// LedsPerSpine is the pattern-facing per-spine LED count.
const LedsPerSpine = 59

// RGB is a 24-bit colour triple.
type RGB struct {
	R, G, B byte
}

// Black is the zero value of RGB; named for readability at call sites that
// care about blackness specifically (power gating, decay floors).
var Black = RGB{}

// IsBlack reports whether c is (0,0,0).
func (c RGB) IsBlack() bool {
	return c == Black
}

// Frame is a fixed-shape S×L array of RGB triples, S = geometry.NumSpines
// spines by LedsPerSpine pixels each.
type Frame [geometry.NumSpines][LedsPerSpine]RGB

// NewFrame returns a Frame with every pixel black.
func NewFrame() Frame {
	return Frame{}
}

// GpsFix is a momentary GPS solution. The zero value is the "null
// island, epoch" default the reporter substitutes when no fix is
// available.
type GpsFix struct {
	Longitude  float64
	Latitude   float64
	Altitude   float64
	Satellites int
	Time       time.Time
}

// DefaultGpsFix is the reporter's substitute for a missing fix.
func DefaultGpsFix() GpsFix {
	return GpsFix{Time: time.Unix(0, 0).UTC()}
}

// ImuReadings is a single IMU sample: acceleration in m/s² and angular
// rate in rad/s. It implements ringbuffer.Summable so it can be pushed
// directly into a moving-average window.
type ImuReadings struct {
	AX, AY, AZ float64
	GX, GY, GZ float64
}

// Add implements ringbuffer.Summable: componentwise addition.
func (r ImuReadings) Add(o ImuReadings) ImuReadings {
	return ImuReadings{
		AX: r.AX + o.AX, AY: r.AY + o.AY, AZ: r.AZ + o.AZ,
		GX: r.GX + o.GX, GY: r.GY + o.GY, GZ: r.GZ + o.GZ,
	}
}

// Scale implements ringbuffer.Summable: scalar multiplication (used for
// division by a window's capacity).
func (r ImuReadings) Scale(s float64) ImuReadings {
	return ImuReadings{
		AX: r.AX * s, AY: r.AY * s, AZ: r.AZ * s,
		GX: r.GX * s, GY: r.GY * s, GZ: r.GZ * s,
	}
}

// AccelVector returns the acceleration components as a geometry.Vector3.
func (r ImuReadings) AccelVector() geometry.Vector3 {
	return geometry.Vector3{X: r.AX, Y: r.AY, Z: r.AZ}
}

// AccelMagnitude returns the Euclidean norm of the acceleration vector.
func (r ImuReadings) AccelMagnitude() float64 {
	return r.AccelVector().Magnitude()
}

// GyroMagnitude is a heuristic: the square root of the sum of *signed*
// gyro components, not the geometric norm. The shock threshold was
// tuned against this measure; do not "fix" it to a Euclidean norm
// without re-tuning.
func (r ImuReadings) GyroMagnitude() float64 {
	sum := r.GX + r.GY + r.GZ
	if sum < 0 {
		return -math.Sqrt(-sum)
	}
	return math.Sqrt(sum)
}

// BatteryReadings is a single fuel-gauge sample.
type BatteryReadings struct {
	Voltage       float64
	Current       float64 // signed; negative = discharging
	StateOfCharge float64 // percent
}
