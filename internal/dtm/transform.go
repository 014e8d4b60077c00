package dtm

import "math"

// Point is a single cloud return in meters, in whichever frame the caller
// is working in (sensor or world).
type Point struct {
	X, Y, Z float32
}

// Matrix is a 4x4 row-major homogeneous transform:
// m00,m01,m02,m03, m10,... Only the affine 3x4 part is applied to points.
type Matrix [16]float64

// Apply transforms p by the affine part of m.
func (m Matrix) Apply(p Point) Point {
	x := float64(p.X)
	y := float64(p.Y)
	z := float64(p.Z)
	return Point{
		X: float32(m[0]*x + m[1]*y + m[2]*z + m[3]),
		Y: float32(m[4]*x + m[5]*y + m[6]*z + m[7]),
		Z: float32(m[8]*x + m[9]*y + m[10]*z + m[11]),
	}
}

// Translation returns the translation component of m.
func (m Matrix) Translation() (x, y, z float64) {
	return m[3], m[7], m[11]
}

// Pose6D is a robot pose as yaw, pitch, roll (radians) plus translation.
type Pose6D struct {
	Yaw, Pitch, Roll float64
	X, Y, Z          float64
}

// Matrix builds the homogeneous transform for the pose (ZYX convention).
func (p Pose6D) Matrix() Matrix {
	ca, sa := math.Cos(p.Yaw), math.Sin(p.Yaw)
	cb, sb := math.Cos(p.Pitch), math.Sin(p.Pitch)
	cg, sg := math.Cos(p.Roll), math.Sin(p.Roll)

	return Matrix{
		ca * cb, ca*sb*sg - sa*cg, ca*sb*cg + sa*sg, p.X,
		sa * cb, sa*sb*sg + ca*cg, sa*sb*cg - ca*sg, p.Y,
		-sb, cb * sg, cb * cg, p.Z,
		0, 0, 0, 1,
	}
}

// Pose6D decomposes the transform back into yaw/pitch/roll and translation.
func (m Matrix) Pose6D() Pose6D {
	var yaw, roll float64
	d := math.Sqrt(m[0]*m[0] + m[4]*m[4])
	if math.Abs(d) > 1e-10 {
		yaw = math.Atan2(m[4], m[0])
		roll = math.Atan2(m[9], m[10])
	} else {
		yaw = math.Atan2(-m[1], m[5])
		roll = 0
	}
	pitch := math.Atan2(-m[8], d)

	return Pose6D{Yaw: yaw, Pitch: pitch, Roll: roll, X: m[3], Y: m[7], Z: m[11]}
}
