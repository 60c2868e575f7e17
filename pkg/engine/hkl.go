package engine

import (
	"gonum.org/v1/gonum/mat"

	"hklgo/pkg/errors"
	"hklgo/pkg/hklmath"
	"hklgo/pkg/log"
	"hklgo/pkg/parameter"
	"hklgo/pkg/unit"
)

// NewHKL creates the Miller-index engine with its h, k, l pseudo axes
// and no mode; the instrument package supplies the modes.
func NewHKL(logger *log.Logger) *Engine {
	e := New("hkl", logger)
	e.AddPseudo("h", "h Miller index", unit.None, unit.None)
	e.AddPseudo("k", "k Miller index", unit.None, unit.None)
	e.AddPseudo("l", "l Miller index", unit.None, unit.None)
	return e
}

// HKLGet is the readback shared by every hkl mode: the scattering
// vector q = kf - ki expressed in the crystal reciprocal basis.
func HKLGet(e *Engine) error {
	q := e.geometry.Kf(e.detector).Sub(e.geometry.Ki())
	v, err := e.geometry.ProjectIntoReciprocal(e.sample, q)
	if err != nil {
		return err
	}
	for i, p := range e.pseudos {
		p.SetValue(v[i], unit.Default)
	}
	return nil
}

// hphi returns the target reflection rotated into the laboratory
// frame: R_sample . UB . (h, k, l).
func hphi(e *Engine, h hklmath.Vector) hklmath.Vector {
	var v mat.VecDense
	v.MulVec(e.sample.UB(), mat.NewVecDense(3, []float64{h[0], h[1], h[2]}))
	return hklmath.Vector{v.AtVec(0), v.AtVec(1), v.AtVec(2)}.
		Rotate(e.geometry.SampleRotation())
}

// RUBhMinusQ fills f[0..2] with the diffraction condition residual:
// the rotated target reflection minus the actual scattering vector.
func RUBhMinusQ(e *Engine, f []float64) error {
	h := hklmath.Vector{
		e.pseudos[0].Value(unit.Default),
		e.pseudos[1].Value(unit.Default),
		e.pseudos[2].Value(unit.Default),
	}
	hp := hphi(e, h)
	q := e.geometry.Kf(e.detector).Sub(e.geometry.Ki())
	f[0] = hp[0] - q[0]
	f[1] = hp[1] - q[1]
	f[2] = hp[2] - q[2]
	return nil
}

// RUBhMinusQFunc is the plain three-residual diffraction system, for
// modes with exactly three writable axes.
func RUBhMinusQFunc() Function {
	return Function{Size: 3, F: RUBhMinusQ}
}

// NewHKLMode builds a solver-driven hkl mode with the shared readback.
func NewHKLMode(name string, axesR, axesW []string, fns []Function, params ...*parameter.Parameter) *Mode {
	return &Mode{
		Name:       name,
		AxesR:      axesR,
		AxesW:      axesW,
		Functions:  fns,
		Parameters: params,
		Get:        HKLGet,
	}
}

// DoubleDiffractionParameters declares the secondary reflection of a
// double-diffraction mode.
func DoubleDiffractionParameters(h2, k2, l2 float64) []*parameter.Parameter {
	mk := func(name string, v float64) *parameter.Parameter {
		p, err := parameter.New(name, name+" of the secondary reflection",
			-10, v, 10, true, unit.None, unit.None)
		if err != nil {
			errors.Fatalf("bad double diffraction parameter %q: %v", name, err)
		}
		return p
	}
	return []*parameter.Parameter{mk("h2", h2), mk("k2", k2), mk("l2", l2)}
}

// DoubleDiffractionFunc constrains both the target reflection and a
// secondary one: f[0..2] is the usual diffraction residual, f[3]
// vanishes when the secondary reflection also sits on the Ewald
// sphere.
func DoubleDiffractionFunc() Function {
	return Function{
		Size: 4,
		F: func(e *Engine, f []float64) error {
			if err := RUBhMinusQ(e, f); err != nil {
				return err
			}
			m := e.mode
			h2 := hklmath.Vector{
				m.ParameterByName("h2").Value(unit.Default),
				m.ParameterByName("k2").Value(unit.Default),
				m.ParameterByName("l2").Value(unit.Default),
			}
			ki := e.geometry.Ki()
			kf2 := ki.Add(hphi(e, h2))
			f[3] = kf2.Dot(kf2) - ki.Dot(ki)
			return nil
		},
	}
}

// SurfaceParameters declares the sample surface normal carried by the
// qper_qpar, incidence and emergence modes.
func SurfaceParameters(x, y, z float64) []*parameter.Parameter {
	mk := func(name string, v float64) *parameter.Parameter {
		p, err := parameter.New(name, name+" component of the surface normal",
			-1, v, 1, true, unit.None, unit.None)
		if err != nil {
			errors.Fatalf("bad surface parameter %q: %v", name, err)
		}
		return p
	}
	return []*parameter.Parameter{mk("x", x), mk("y", y), mk("z", z)}
}

// surfaceNormal reads the mode's surface parameters as a vector.
func surfaceNormal(m *Mode) hklmath.Vector {
	return hklmath.Vector{
		m.ParameterByName("x").Value(unit.Default),
		m.ParameterByName("y").Value(unit.Default),
		m.ParameterByName("z").Value(unit.Default),
	}
}
