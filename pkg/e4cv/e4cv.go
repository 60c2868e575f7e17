// Package e4cv describes the vertical four-circle diffractometer with
// an extra out-of-plane gamma arm: three sample circles (omega, chi,
// phi), the tth detector circle and the gamma offset.
package e4cv

import (
	"math"

	"hklgo/pkg/detector"
	"hklgo/pkg/engine"
	"hklgo/pkg/geometry"
	"hklgo/pkg/hklmath"
	"hklgo/pkg/log"
	"hklgo/pkg/unit"
)

const (
	Omega = "omega"
	Chi   = "chi"
	Phi   = "phi"
	Tth   = "tth"
	Gamma = "gamma"
)

var allAxes = []string{Omega, Chi, Phi, Tth, Gamma}

// NewGeometry builds the instrument axis layout. The beam travels
// along +X; omega, phi and tth rotate around -Y, chi around +X, gamma
// around +Z.
func NewGeometry() *geometry.Geometry {
	g := geometry.New("E4CVG")

	h := g.AddHolder()
	h.AddRotation(Omega, hklmath.Vector{0, -1, 0}, unit.AngleDeg)
	h.AddRotation(Chi, hklmath.Vector{1, 0, 0}, unit.AngleDeg)
	h.AddRotation(Phi, hklmath.Vector{0, -1, 0}, unit.AngleDeg)

	h = g.AddHolder()
	h.AddRotation(Tth, hklmath.Vector{0, -1, 0}, unit.AngleDeg)
	h.AddRotation(Gamma, hklmath.Vector{0, 0, 1}, unit.AngleDeg)

	return g
}

// NewDetector returns the point detector riding the tth/gamma arm.
func NewDetector() *detector.Detector {
	return detector.New0D(1)
}

// bissectorFunc keeps omega on the bissector of the scattered beam:
// on top of the diffraction condition, tth must stay at twice omega.
func bissectorFunc() engine.Function {
	return engine.Function{
		Size: 4,
		F: func(e *engine.Engine, f []float64) error {
			if err := engine.RUBhMinusQ(e, f); err != nil {
				return err
			}
			omega := e.Geometry().AxisByName(Omega).Value(unit.Default)
			tth := e.Geometry().AxisByName(Tth).Value(unit.Default)
			f[3] = tth - 2*math.Mod(omega, math.Pi)
			return nil
		},
	}
}

func newHKL(logger *log.Logger) *engine.Engine {
	e := engine.NewHKL(logger)

	e.AddMode(engine.NewHKLMode("bissector",
		allAxes, []string{Omega, Chi, Phi, Tth},
		[]engine.Function{bissectorFunc()}))

	e.AddMode(engine.NewHKLMode("constant_omega",
		allAxes, []string{Chi, Phi, Tth},
		[]engine.Function{engine.RUBhMinusQFunc()}))

	e.AddMode(engine.NewHKLMode("constant_chi",
		allAxes, []string{Omega, Phi, Tth},
		[]engine.Function{engine.RUBhMinusQFunc()}))

	e.AddMode(engine.NewHKLMode("constant_phi",
		allAxes, []string{Omega, Chi, Tth},
		[]engine.Function{engine.RUBhMinusQFunc()}))

	e.AddMode(engine.NewHKLMode("double_diffraction",
		allAxes, []string{Omega, Chi, Phi, Tth},
		[]engine.Function{engine.DoubleDiffractionFunc()},
		engine.DoubleDiffractionParameters(1, 1, 0)...))

	return e
}

// NewEngines assembles the engine set of the instrument. Call Init on
// the result before computing.
func NewEngines(logger *log.Logger) *engine.List {
	l := engine.NewList(logger)

	l.Add(newHKL(logger))
	l.Add(engine.NewQ(logger, Tth))
	l.Add(engine.NewIncidence(logger,
		[]string{Omega, Chi, Phi}, []float64{0, 1, 0}))
	l.Add(engine.NewEmergence(logger, allAxes, []float64{0, 1, 0}))

	return l
}
