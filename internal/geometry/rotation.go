package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Rotation is a 3x3 rotation matrix stored row-major.
type Rotation [3][3]float64

// Identity is the rotation that leaves every point in place.
var Identity = Rotation{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// NewRotation returns the rotation about z by phi followed by the rotation
// about y by theta. It equals NewRotation3(phi, theta, 0).
func NewRotation(phi, theta float64) Rotation {
	sp, cp := math.Sincos(phi)
	st, ct := math.Sincos(theta)
	return Rotation{
		{ct * cp, -ct * sp, st},
		{sp, cp, 0},
		{-st * cp, st * sp, ct},
	}
}

// NewRotation3 is NewRotation followed by a rotation of omega about the
// molecule's long (z) axis.
func NewRotation3(phi, theta, omega float64) Rotation {
	sp, cp := math.Sincos(phi)
	st, ct := math.Sincos(theta)
	so, co := math.Sincos(omega)
	return Rotation{
		{ct*cp*co - so*sp, -ct*sp*co - cp*so, st * co},
		{sp*co + cp*ct*so, cp*co - ct*so*sp, so * st},
		{-st * cp, st * sp, ct},
	}
}

// Apply rotates v.
func (r Rotation) Apply(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: v.X*r[0][0] + v.Y*r[0][1] + v.Z*r[0][2],
		Y: v.X*r[1][0] + v.Y*r[1][1] + v.Z*r[1][2],
		Z: v.X*r[2][0] + v.Y*r[2][1] + v.Z*r[2][2],
	}
}

// RotateInto writes the rotated copies of src into dst, which must be at
// least as long as src.
func (r Rotation) RotateInto(dst, src []r3.Vec) {
	for i, v := range src {
		dst[i] = r.Apply(v)
	}
}

// ShiftToContact translates pts along z so that the smallest z is zero.
// This fixes the approach-distance origin for profile building.
func ShiftToContact(pts []r3.Vec) {
	if len(pts) == 0 {
		return
	}
	minZ := pts[0].Z
	for _, p := range pts[1:] {
		if p.Z < minZ {
			minZ = p.Z
		}
	}
	for i := range pts {
		pts[i].Z -= minZ
	}
}
