// Package geometry provides the small 3-D vector and torsion-angle toolkit
// shared by the dihedral and restraint registries.  All angles are in radians.
package geometry

import "math"

// Vec3 is a 3-D cartesian coordinate or displacement.
type Vec3 [3]float64

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

// Cross returns the cross product of v and w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

// Norm returns the euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Distance returns the euclidean distance between two points.
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Norm()
}

// WrapAngle normalises an angle into (-pi, pi].  The lower boundary maps to
// +pi so that a flat trans peptide bond reads as +180 degrees, matching
// crystallographic convention.
func WrapAngle(a float64) float64 {
	r := math.Remainder(a, 2*math.Pi)
	if r <= -math.Pi {
		r = math.Pi
	}
	return r
}

// DihedralAngle returns the torsion angle defined by four points, in radians
// within (-pi, pi].  The sign follows the IUPAC convention: looking along the
// p1→p2 axis, a clockwise rotation of the far bond is positive.
//
// Degenerate inputs (collinear consecutive points) yield NaN.
func DihedralAngle(p0, p1, p2, p3 Vec3) float64 {
	b0 := p1.Sub(p0)
	b1 := p2.Sub(p1)
	b2 := p3.Sub(p2)

	n1 := b0.Cross(b1)
	n2 := b1.Cross(b2)

	b1n := b1.Norm()
	if b1n == 0 {
		return math.NaN()
	}

	x := n1.Dot(n2)
	y := b0.Scale(b1n).Dot(n2)
	if x == 0 && y == 0 {
		return math.NaN()
	}
	return math.Atan2(y, x)
}
