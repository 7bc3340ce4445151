// Package geometry defines the 3-vector primitives and the fixed spine
// direction table used by orientation-aware patterns.
package geometry

import "math"

// NumSpines is the number of spines (LED strips) on the device.
const NumSpines = 12

// phi is the golden ratio used to build the icosahedral vertex coordinates.
const phi = 1.618

// Vector3 is a general-purpose 3D vector.
type Vector3 struct {
	X, Y, Z float64
}

// Magnitude returns the Euclidean norm of v.
func (v Vector3) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Scale returns v scaled by s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// Normalized returns v scaled to unit magnitude. It panics if v's
// magnitude is too close to zero; callers are expected to only normalize
// vectors known to be nonzero.
func (v Vector3) Normalized() Vector3 {
	m := v.Magnitude()
	if m < 1e-9 {
		panic("geometry: cannot normalize a near-zero vector")
	}
	return v.Scale(1.0 / m)
}

// Dot returns the dot product of a and b.
func Dot(a, b Vector3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Angle returns the angle between a and b in radians, in [0, π].
func Angle(a, b Vector3) float64 {
	cosTheta := Dot(a, b) / (a.Magnitude() * b.Magnitude())
	return math.Acos(clampUnit(cosTheta))
}

// SignedAngle returns the angle between unit vectors a and b, negated
// when they are closer to antiparallel than parallel, distinguishing
// "facing toward" from "facing away".
func SignedAngle(a, b Vector3) float64 {
	d := Dot(a, b)
	angle := math.Acos(clampUnit(d))
	if d < 0 {
		return -angle
	}
	return angle
}

func clampUnit(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// vizToAccelSpace rotates a vector from the LED-visualiser coordinate
// frame (in which spine directions are canonically defined) into the
// accelerometer's sensor frame. The rotation matrix is fixed, determined
// once for the physical assembly; it is not recomputed at runtime. Its
// rows are only approximately orthonormal, so the result is not exactly
// unit length; unit renormalizes it.
func vizToAccelSpace(v Vector3) Vector3 {
	rotation := [3]Vector3{
		{0.03673168, -0.9976672, 0.03169258},
		{0.82488157, 0.01338809, -0.52387375},
		{-0.564111, -0.04538539, -0.8512061},
	}
	return Vector3{
		X: Dot(rotation[0], v),
		Y: Dot(rotation[1], v),
		Z: Dot(rotation[2], v),
	}
}

func unit(x, y, z float64) Vector3 {
	return vizToAccelSpace(Vector3{x, y, z}).Normalized()
}

// SpineDirections gives, for each of the 12 spines, a unit vector
// describing its direction from the device centre, expressed in the
// accelerometer's sensor frame. Opposing spine pairs are
// (0,3), (1,2), (4,7), (5,6), (8,11), (9,10).
var SpineDirections = [NumSpines]Vector3{
	unit(0.0, 1.0, phi),
	unit(0.0, 1.0, -phi),
	unit(0.0, -1.0, phi),
	unit(0.0, -1.0, -phi),
	unit(1.0, phi, 0.0),
	unit(1.0, -phi, 0.0),
	unit(-1.0, phi, 0.0),
	unit(-1.0, -phi, 0.0),
	unit(phi, 0.0, 1.0),
	unit(phi, 0.0, -1.0),
	unit(-phi, 0.0, 1.0),
	unit(-phi, 0.0, -1.0),
}

// OpposingPairs enumerates the 6 opposing spine-index pairs that make up
// the 6 bean tubes.
var OpposingPairs = [6][2]int{
	{0, 3}, {1, 2}, {4, 7}, {5, 6}, {8, 11}, {9, 10},
}
