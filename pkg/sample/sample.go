// Package sample binds a crystal lattice to its orientation on the
// instrument: the U rotation placing the cell in the laboratory frame
// and the UB product mapping Miller indices to laboratory coordinates.
package sample

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"hklgo/pkg/errors"
	"hklgo/pkg/hklmath"
	"hklgo/pkg/lattice"
	"hklgo/pkg/parameter"
	"hklgo/pkg/unit"
)

// Sample is a crystal mounted on the sample holder. The orientation is
// parameterized as three successive rotations around the laboratory
// axes, U = Rx(ux) . Ry(uy) . Rz(uz).
type Sample struct {
	name       string
	lattice    *lattice.Lattice
	ux, uy, uz *parameter.Parameter
	u          quat.Number
}

// New creates a sample with the default cubic lattice and an identity
// orientation.
func New(name string) *Sample {
	return NewWithLattice(name, lattice.NewDefault())
}

// NewWithLattice creates a sample around an existing lattice.
func NewWithLattice(name string, l *lattice.Lattice) *Sample {
	mk := func(pname, desc string) *parameter.Parameter {
		p, err := parameter.New(pname, desc, -math.Pi, 0, math.Pi, true,
			unit.AngleRad, unit.AngleDeg)
		if err != nil {
			panic(err) // static arguments are valid
		}
		return p
	}
	return &Sample{
		name:    name,
		lattice: l,
		ux:      mk("ux", "rotation of the sample around the x axis"),
		uy:      mk("uy", "rotation of the sample around the y axis"),
		uz:      mk("uz", "rotation of the sample around the z axis"),
		u:       hklmath.QuatIdentity(),
	}
}

func (s *Sample) Name() string              { return s.name }
func (s *Sample) Lattice() *lattice.Lattice { return s.lattice }

// SetLattice replaces the lattice.
func (s *Sample) SetLattice(l *lattice.Lattice) { s.lattice = l }

func (s *Sample) Ux() *parameter.Parameter { return s.ux }
func (s *Sample) Uy() *parameter.Parameter { return s.uy }
func (s *Sample) Uz() *parameter.Parameter { return s.uz }

// SetU sets the orientation from the three rotation angles in radians.
func (s *Sample) SetU(ux, uy, uz float64) error {
	for _, v := range []float64{ux, uy, uz} {
		if math.IsNaN(v) {
			return errors.New(errors.ErrInvalidValue, "orientation angle is NaN")
		}
	}
	s.ux.SetValue(ux, unit.Default)
	s.uy.SetValue(uy, unit.Default)
	s.uz.SetValue(uz, unit.Default)
	s.updateU()
	return nil
}

func (s *Sample) updateU() {
	qx := hklmath.RotationQuat(hklmath.Vector{1, 0, 0}, s.ux.Value(unit.Default))
	qy := hklmath.RotationQuat(hklmath.Vector{0, 1, 0}, s.uy.Value(unit.Default))
	qz := hklmath.RotationQuat(hklmath.Vector{0, 0, 1}, s.uz.Value(unit.Default))
	s.u = quat.Mul(quat.Mul(qx, qy), qz)
}

// U returns the orientation quaternion.
func (s *Sample) U() quat.Number { return s.u }

// UMatrix returns the orientation as a rotation matrix.
func (s *Sample) UMatrix() *mat.Dense {
	return hklmath.QuatMatrix(s.u)
}

// UB returns the product of the orientation and the lattice B matrix.
// The lattice is kept valid by its transactional setter, so B always
// exists here.
func (s *Sample) UB() *mat.Dense {
	b, err := s.lattice.BMatrix()
	if err != nil {
		errors.Fatalf("lattice of sample %q became invalid: %v", s.name, err)
	}
	var ub mat.Dense
	ub.Mul(s.UMatrix(), b)
	return &ub
}

// SetUB installs an externally computed UB matrix: the rotational part
// U = UB . B^-1 is decomposed back into the three orientation angles.
// A UB whose rotational part is not close to a rotation is accepted as
// is; only the rotation component survives.
func (s *Sample) SetUB(ub *mat.Dense) error {
	binv, err := s.lattice.BMatrixInv()
	if err != nil {
		return err
	}
	var u mat.Dense
	u.Mul(ub, binv)

	// decompose U = Rx(ux) . Ry(uy) . Rz(uz)
	sy := u.At(0, 2)
	if sy > 1 {
		sy = 1
	} else if sy < -1 {
		sy = -1
	}
	uy := math.Asin(sy)
	var ux, uz float64
	if c := math.Cos(uy); math.Abs(c) > hklmath.Epsilon {
		ux = math.Atan2(-u.At(1, 2)/c, u.At(2, 2)/c)
		uz = math.Atan2(-u.At(0, 1)/c, u.At(0, 0)/c)
	} else {
		// gimbal lock, fold everything into uz
		ux = 0
		uz = math.Atan2(u.At(1, 0), u.At(1, 1))
	}
	return s.SetU(ux, uy, uz)
}

// Copy returns an independent copy of the sample.
func (s *Sample) Copy() *Sample {
	return &Sample{
		name:    s.name,
		lattice: s.lattice.Copy(),
		ux:      s.ux.Copy(),
		uy:      s.uy.Copy(),
		uz:      s.uz.Copy(),
		u:       s.u,
	}
}
