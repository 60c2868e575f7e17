// Package lattice models a crystal unit cell: three lengths, three
// angles, and the reciprocal-space B matrix derived from them.
package lattice

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"hklgo/pkg/errors"
	"hklgo/pkg/hklmath"
	"hklgo/pkg/parameter"
	"hklgo/pkg/unit"
)

// Lattice is a unit cell. Lengths are stored in nm, angles in radians
// (degrees for user values).
type Lattice struct {
	a, b, c           *parameter.Parameter
	alpha, beta, gamm *parameter.Parameter
}

// triple returns sqrt of the triple-product factor of the cell, or an
// error when the angles cannot close a parallelepiped.
func triple(alpha, beta, gamma float64) (float64, error) {
	ca, cb, cg := math.Cos(alpha), math.Cos(beta), math.Cos(gamma)
	d := 1 - ca*ca - cb*cb - cg*cg + 2*ca*cb*cg
	if d <= 0 {
		return 0, errors.New(errors.ErrLatticeParam,
			"lattice angles (%g, %g, %g) do not close a cell", alpha, beta, gamma)
	}
	return math.Sqrt(d), nil
}

func checkLengths(a, b, c float64) error {
	for _, v := range []float64{a, b, c} {
		if math.IsNaN(v) || v <= 0 {
			return errors.New(errors.ErrLatticeParam, "invalid lattice length %g", v)
		}
	}
	return nil
}

// New creates a lattice from lengths in nm and angles in radians.
func New(a, b, c, alpha, beta, gamma float64) (*Lattice, error) {
	if err := checkLengths(a, b, c); err != nil {
		return nil, err
	}
	if _, err := triple(alpha, beta, gamma); err != nil {
		return nil, err
	}

	l := &Lattice{}
	var err error
	mk := func(name, desc string, min, v, max float64, u, pu unit.Unit) *parameter.Parameter {
		if err != nil {
			return nil
		}
		var p *parameter.Parameter
		p, err = parameter.New(name, desc, min, v, max, true, u, pu)
		return p
	}
	l.a = mk("a", "length of the first lattice vector", 0, a, a+10, unit.LengthNM, unit.LengthNM)
	l.b = mk("b", "length of the second lattice vector", 0, b, b+10, unit.LengthNM, unit.LengthNM)
	l.c = mk("c", "length of the third lattice vector", 0, c, c+10, unit.LengthNM, unit.LengthNM)
	l.alpha = mk("alpha", "angle between b and c", -math.Pi, alpha, math.Pi, unit.AngleRad, unit.AngleDeg)
	l.beta = mk("beta", "angle between a and c", -math.Pi, beta, math.Pi, unit.AngleRad, unit.AngleDeg)
	l.gamm = mk("gamma", "angle between a and b", -math.Pi, gamma, math.Pi, unit.AngleRad, unit.AngleDeg)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// NewDefault returns a 1.54 nm cubic cell.
func NewDefault() *Lattice {
	l, err := New(1.54, 1.54, 1.54,
		90*hklmath.DegToRad, 90*hklmath.DegToRad, 90*hklmath.DegToRad)
	if err != nil {
		panic(err) // constants above are valid
	}
	return l
}

// Cubic returns a cubic cell of edge a nm.
func Cubic(a float64) (*Lattice, error) {
	return New(a, a, a,
		90*hklmath.DegToRad, 90*hklmath.DegToRad, 90*hklmath.DegToRad)
}

func (l *Lattice) A() *parameter.Parameter     { return l.a }
func (l *Lattice) B() *parameter.Parameter     { return l.b }
func (l *Lattice) C() *parameter.Parameter     { return l.c }
func (l *Lattice) Alpha() *parameter.Parameter { return l.alpha }
func (l *Lattice) Beta() *parameter.Parameter  { return l.beta }
func (l *Lattice) Gamma() *parameter.Parameter { return l.gamm }

// Get returns the six cell parameters in the requested unit.
func (l *Lattice) Get(t unit.Type) (a, b, c, alpha, beta, gamma float64) {
	return l.a.Value(t), l.b.Value(t), l.c.Value(t),
		l.alpha.Value(t), l.beta.Value(t), l.gamm.Value(t)
}

// Set replaces all six cell parameters at once. The combination is
// validated first; an invalid cell leaves the lattice untouched.
func (l *Lattice) Set(a, b, c, alpha, beta, gamma float64, t unit.Type) error {
	if t == unit.User {
		alpha *= hklmath.DegToRad
		beta *= hklmath.DegToRad
		gamma *= hklmath.DegToRad
	}
	if err := checkLengths(a, b, c); err != nil {
		return err
	}
	if _, err := triple(alpha, beta, gamma); err != nil {
		return err
	}
	l.a.SetValue(a, unit.Default)
	l.b.SetValue(b, unit.Default)
	l.c.SetValue(c, unit.Default)
	l.alpha.SetValue(alpha, unit.Default)
	l.beta.SetValue(beta, unit.Default)
	l.gamm.SetValue(gamma, unit.Default)
	return nil
}

// Volume returns the cell volume in nm^3.
func (l *Lattice) Volume() float64 {
	a, b, c, alpha, beta, gamma := l.Get(unit.Default)
	d, err := triple(alpha, beta, gamma)
	if err != nil {
		return 0
	}
	return a * b * c * d
}

// BMatrix returns the upper-triangular B matrix mapping Miller indices
// to reciprocal-space coordinates, 2*pi convention.
func (l *Lattice) BMatrix() (*mat.Dense, error) {
	a, b, c, alpha, beta, gamma := l.Get(unit.Default)
	d, err := triple(alpha, beta, gamma)
	if err != nil {
		return nil, err
	}
	sa := math.Sin(alpha)
	ca, cb, cg := math.Cos(alpha), math.Cos(beta), math.Cos(gamma)

	b11 := hklmath.Tau / (b * sa)
	b22 := hklmath.Tau / c
	tmp := b22 / sa

	return mat.NewDense(3, 3, []float64{
		hklmath.Tau * sa / (a * d), b11 / d * (ca*cb - cg), tmp / d * (cg*ca - cb),
		0, b11, tmp / math.Sin(beta) / math.Sin(gamma) * (cb*cg - ca),
		0, 0, b22,
	}), nil
}

// BMatrixInv returns the inverse of the B matrix.
func (l *Lattice) BMatrixInv() (*mat.Dense, error) {
	b, err := l.BMatrix()
	if err != nil {
		return nil, err
	}
	var inv mat.Dense
	if err := inv.Inverse(b); err != nil {
		return nil, errors.Wrap(err, errors.ErrLatticeParam, "singular B matrix")
	}
	return &inv, nil
}

// Reciprocal returns the reciprocal cell, lengths in nm^-1.
func (l *Lattice) Reciprocal() (*Lattice, error) {
	a, b, c, alpha, beta, gamma := l.Get(unit.Default)
	d, err := triple(alpha, beta, gamma)
	if err != nil {
		return nil, err
	}
	sa, sb, sg := math.Sin(alpha), math.Sin(beta), math.Sin(gamma)
	ca, cb, cg := math.Cos(alpha), math.Cos(beta), math.Cos(gamma)

	cb1 := (cb*cg - ca) / (sb * sg)
	cb2 := (cg*ca - cb) / (sg * sa)
	cb3 := (ca*cb - cg) / (sa * sb)
	sb1 := d / (sb * sg)
	sb2 := d / (sg * sa)
	sb3 := d / (sa * sb)

	return New(
		hklmath.Tau*sa/(a*d),
		hklmath.Tau*sb/(b*d),
		hklmath.Tau*sg/(c*d),
		math.Atan2(sb1, cb1),
		math.Atan2(sb2, cb2),
		math.Atan2(sb3, cb3),
	)
}

// Copy returns an independent copy of the lattice.
func (l *Lattice) Copy() *Lattice {
	return &Lattice{
		a:     l.a.Copy(),
		b:     l.b.Copy(),
		c:     l.c.Copy(),
		alpha: l.alpha.Copy(),
		beta:  l.beta.Copy(),
		gamm:  l.gamm.Copy(),
	}
}
