// Package hklmath provides the small amount of 3D math the diffractometer
// core needs: a 3-vector type and helpers to build and apply rotation
// quaternions on top of gonum's quat.Number.
package hklmath

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

const (
	// Epsilon is the numeric tolerance shared by the solver, the
	// solution-list deduplication and the tests. It must stay in sync
	// with existing solution sets, do not tune it.
	Epsilon = 1e-6

	// Tau is the reciprocal-space convention constant (2*pi).
	Tau = 2 * math.Pi

	DegToRad = math.Pi / 180
	RadToDeg = 180 / math.Pi
)

// Vector is a 3-component vector in the laboratory or reciprocal basis.
type Vector [3]float64

func (v Vector) Add(o Vector) Vector {
	return Vector{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vector) Sub(o Vector) Vector {
	return Vector{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

func (v Vector) Scale(f float64) Vector {
	return Vector{v[0] * f, v[1] * f, v[2] * f}
}

func (v Vector) Dot(o Vector) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

func (v Vector) Cross(o Vector) Vector {
	return Vector{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

func (v Vector) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector along v, or v unchanged when its
// norm is too small to divide by.
func (v Vector) Normalize() Vector {
	n := v.Norm()
	if n < Epsilon {
		return v
	}
	return v.Scale(1 / n)
}

// Angle returns the angle between v and o in radians, in [0, pi].
func (v Vector) Angle(o Vector) float64 {
	c := v.Dot(o) / (v.Norm() * o.Norm())
	// clamp against rounding excursions outside [-1, 1]
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c)
}

// ProjectOnPlane removes from v its component along the plane normal n.
func (v Vector) ProjectOnPlane(n Vector) Vector {
	n = n.Normalize()
	return v.Sub(n.Scale(v.Dot(n)))
}

// Rotate applies the rotation quaternion q to v (q v q*).
func (v Vector) Rotate(q quat.Number) Vector {
	p := quat.Number{Imag: v[0], Jmag: v[1], Kmag: v[2]}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return Vector{r.Imag, r.Jmag, r.Kmag}
}

// IsNull reports whether every component of v is below Epsilon.
func (v Vector) IsNull() bool {
	return math.Abs(v[0]) < Epsilon &&
		math.Abs(v[1]) < Epsilon &&
		math.Abs(v[2]) < Epsilon
}

// RotationQuat builds the unit quaternion rotating by angle (radians)
// around axis. The axis does not need to be normalized.
func RotationQuat(axis Vector, angle float64) quat.Number {
	axis = axis.Normalize()
	s, c := math.Sincos(angle / 2)
	return quat.Number{
		Real: c,
		Imag: s * axis[0],
		Jmag: s * axis[1],
		Kmag: s * axis[2],
	}
}

// QuatMatrix expands a unit rotation quaternion into its 3x3 rotation
// matrix, for composition with reciprocal-space matrices.
func QuatMatrix(q quat.Number) *mat.Dense {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	})
}

// RestrictSymm folds an angle into (-pi, pi].
func RestrictSymm(a float64) float64 {
	a = math.Mod(a, Tau)
	if a > math.Pi {
		a -= Tau
	} else if a <= -math.Pi {
		a += Tau
	}
	return a
}

// QuatIdentity is the no-rotation quaternion.
func QuatIdentity() quat.Number {
	return quat.Number{Real: 1}
}

// QuatEqual reports whether two rotation quaternions are equal within
// Epsilon, treating q and -q as the same rotation.
func QuatEqual(a, b quat.Number) bool {
	if quatClose(a, b) {
		return true
	}
	return quatClose(a, quat.Scale(-1, b))
}

func quatClose(a, b quat.Number) bool {
	d := quat.Sub(a, b)
	return math.Abs(d.Real) < Epsilon &&
		math.Abs(d.Imag) < Epsilon &&
		math.Abs(d.Jmag) < Epsilon &&
		math.Abs(d.Kmag) < Epsilon
}
