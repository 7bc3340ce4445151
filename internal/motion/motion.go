// Package motion classifies the device as shocked, slowly creeping, or
// idle based on two cascaded moving averages of IMU readings.
package motion

import (
	"math"

	"github.com/dwt27/isopod/internal/control"
	"github.com/dwt27/isopod/internal/ringbuffer"
)

const (
	// fastWindowLen is ≈0.25 s at 60 fps.
	fastWindowLen = 15
	// slowWindowLen is ≈10 s at 60 fps.
	slowWindowLen = 600

	// movementTimeoutSamples is ≈3.3 s.
	movementTimeoutSamples = 200
	// sleepTimeoutSamples is ≈2 minutes.
	sleepTimeoutSamples = 7200

	gravity            = 9.81
	accelShockThresh   = 0.5
	gyroShockThresh    = 1.0
	slowMovementThresh = 1.0
)

// Sensor holds the two moving-average windows and the movement-recency
// counter. It is owned exclusively by the render thread; it is not safe
// for concurrent use.
type Sensor struct {
	fast *ringbuffer.RingBuffer[control.ImuReadings]
	slow *ringbuffer.RingBuffer[control.ImuReadings]

	samplesSinceLastMovement int
}

// New builds a Sensor with empty windows.
func New() *Sensor {
	return &Sensor{
		fast: ringbuffer.New[control.ImuReadings](fastWindowLen),
		slow: ringbuffer.New[control.ImuReadings](slowWindowLen),
	}
}

// Push appends a new IMU sample. When the fast window fills, its mean
// is cascaded into the slow window. Cascading the mean rather than the
// raw sample keeps sub-second vibration from aliasing into the
// 10-second creep signal. The movement-recency counter is reset
// whenever either detector fires this step.
func (s *Sensor) Push(imu control.ImuReadings) {
	s.fast.Push(imu)
	if mean, ok := s.fast.Mean(); ok {
		s.slow.Push(mean)
	}

	s.samplesSinceLastMovement++
	if s.DetectFast() || s.DetectSlow() {
		s.samplesSinceLastMovement = 0
	}
}

// DetectFast reports shock: either the fast window's mean acceleration
// magnitude deviates from 1 g by more than accelShockThresh, or its gyro
// magnitude (the heuristic sum-of-axes measure) exceeds
// gyroShockThresh. Returns false until the fast window is full. On a
// positive detection the slow window is cleared, to prevent a shock from
// registering as a spurious creep afterwards.
func (s *Sensor) DetectFast() bool {
	mean, ok := s.fast.Mean()
	if !ok {
		return false
	}
	accelShock := math.Abs(mean.AccelMagnitude()-gravity) > accelShockThresh
	gyroShock := mean.GyroMagnitude() > gyroShockThresh
	if accelShock || gyroShock {
		s.slow.Clear()
	}
	return accelShock || gyroShock
}

// DetectSlow reports creep: the slow window's head-minus-tail
// acceleration-vector delta exceeds slowMovementThresh. Returns false
// until the slow window is full. Pure query: does not mutate.
func (s *Sensor) DetectSlow() bool {
	head, ok1 := s.slow.Head()
	tail, ok2 := s.slow.Tail()
	if !ok1 || !ok2 {
		return false
	}
	dx := head.AccelVector().X - tail.AccelVector().X
	dy := head.AccelVector().Y - tail.AccelVector().Y
	dz := head.AccelVector().Z - tail.AccelVector().Z
	mag := math.Sqrt(dx*dx + dy*dy + dz*dz)
	return mag > slowMovementThresh
}

// MovementTimeout reports whether it has been long enough since the last
// detected movement that a Movement-state pattern should end. Pure
// query.
func (s *Sensor) MovementTimeout() bool {
	return s.samplesSinceLastMovement > movementTimeoutSamples
}

// SleepTimeout reports whether it has been long enough since the last
// detected movement that the device should enter the sleep pattern. Pure
// query.
func (s *Sensor) SleepTimeout() bool {
	return s.samplesSinceLastMovement > sleepTimeoutSamples
}

// FastMean returns the fast window's mean, or false until it is full.
// Used by the orientation-selection logic in PatternManager.
func (s *Sensor) FastMean() (control.ImuReadings, bool) {
	return s.fast.Mean()
}
