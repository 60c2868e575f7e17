// Package sixs describes the SOLEIL SIXS MED 2+3 diffractometer: a
// beta/mu/omega sample stack and a detector arm sharing beta, carrying
// gamma, delta and the eta_a slit rotation. The slit axis is not
// solved for; after each solve it is refitted so the slits stay
// parallel to the sample surface.
package sixs

import (
	"hklgo/pkg/detector"
	"hklgo/pkg/engine"
	"hklgo/pkg/errors"
	"hklgo/pkg/geometry"
	"hklgo/pkg/hklmath"
	"hklgo/pkg/log"
	"hklgo/pkg/parameter"
	"hklgo/pkg/solver"
	"hklgo/pkg/unit"
)

const (
	Beta  = "beta"
	Mu    = "mu"
	Omega = "omega"
	Gamma = "gamma"
	Delta = "delta"
	EtaA  = "eta_a"
)

var allAxes = []string{Beta, Mu, Omega, Gamma, Delta, EtaA}

// NewGeometry builds the MED 2+3 axis layout. beta belongs to both
// holders: lifting the sample stage lifts the detector arm with it.
func NewGeometry() *geometry.Geometry {
	g := geometry.New("SOLEIL SIXS MED2+3")

	h := g.AddHolder()
	h.AddRotation(Beta, hklmath.Vector{0, -1, 0}, unit.AngleDeg)
	h.AddRotation(Mu, hklmath.Vector{0, 0, 1}, unit.AngleDeg)
	h.AddRotation(Omega, hklmath.Vector{0, -1, 0}, unit.AngleDeg)

	h = g.AddHolder()
	h.AddRotation(Beta, hklmath.Vector{0, -1, 0}, unit.AngleDeg)
	h.AddRotation(Gamma, hklmath.Vector{0, 0, 1}, unit.AngleDeg)
	h.AddRotation(Delta, hklmath.Vector{0, -1, 0}, unit.AngleDeg)
	h.AddRotation(EtaA, hklmath.Vector{-1, 0, 0}, unit.AngleDeg)

	return g
}

// NewDetector returns the point detector riding the gamma/delta arm.
func NewDetector() *detector.Detector {
	return detector.New0D(1)
}

func newHKL(logger *log.Logger) *engine.Engine {
	e := engine.NewHKL(logger)

	e.AddMode(engine.NewHKLMode("mu_fixed",
		allAxes, []string{Omega, Gamma, Delta},
		[]engine.Function{engine.RUBhMinusQFunc()}))

	e.AddMode(engine.NewHKLMode("gamma_fixed",
		allAxes, []string{Mu, Omega, Delta},
		[]engine.Function{engine.RUBhMinusQFunc()}))

	return e
}

// NewEngines assembles the engine set, with the slit refit installed
// as the solution-list multiply hook.
func NewEngines(logger *log.Logger) *engine.List {
	l := engine.NewList(logger)
	l.Solutions().SetMultiply(fitSlits)

	l.Add(newHKL(logger))
	l.Add(engine.NewQ2(logger, Gamma, Delta))
	l.Add(engine.NewQperQpar(logger, Gamma, Delta))
	l.Add(engine.NewIncidence(logger,
		[]string{Beta, Mu, Omega}, []float64{0, 1, 0}))
	l.Add(engine.NewEmergence(logger,
		[]string{Beta, Mu, Omega, Gamma, Delta}, []float64{0, 1, 0}))

	return l
}

// fitSlits realigns the slit axis of one solution: the slit plane
// normal (+Z on the arm) must stay perpendicular to the sample surface
// normal, taken as the rotated axis of the innermost sample circle.
// When the scalar fit fails the slit axis keeps its previous value.
func fitSlits(_ *geometry.List, it *geometry.ListItem) {
	g := it.Geometry()
	sampleHolder := g.Holder(0)
	detHolder := g.Holder(1)

	sAxes := sampleHolder.Axes()
	dAxes := detHolder.Axes()
	slits := dAxes[len(dAxes)-1]

	surface := sAxes[len(sAxes)-1].Transform().Axis.
		Rotate(sampleHolder.Orientation())

	saved := slits.Value(unit.Default)
	residual := func(x, f []float64) error {
		if err := solver.CheckNaN(x); err != nil {
			return err
		}
		slits.SetValue(x[0], unit.Default)
		g.Update()
		n := hklmath.Vector{0, 0, 1}.Rotate(detHolder.Orientation())
		f[0] = surface.Dot(n)
		return nil
	}

	root, err := solver.Solve(residual, []float64{saved}, solver.Options{})
	if err != nil {
		slits.SetValue(saved, unit.Default)
		g.Update()
		return
	}
	// store the canonical representative of the fitted angle
	slits.SetValue(hklmath.RestrictSymm(root[0]), unit.Default)
	g.Update()
}

/*
 * MED 2+3 v2: same arm without the beta stage. The slit refit is
 * optional there, gated by the eta_a_rotation list parameter and run
 * after the solve over the final solution pool.
 */

var v2Axes = []string{Mu, Omega, Gamma, Delta, EtaA}

// NewGeometryV2 builds the MED 2+3 v2 axis layout.
func NewGeometryV2() *geometry.Geometry {
	g := geometry.New("SOLEIL SIXS MED2+3 v2")

	h := g.AddHolder()
	h.AddRotation(Mu, hklmath.Vector{0, 0, 1}, unit.AngleDeg)
	h.AddRotation(Omega, hklmath.Vector{0, -1, 0}, unit.AngleDeg)

	h = g.AddHolder()
	h.AddRotation(Gamma, hklmath.Vector{0, 0, 1}, unit.AngleDeg)
	h.AddRotation(Delta, hklmath.Vector{0, -1, 0}, unit.AngleDeg)
	h.AddRotation(EtaA, hklmath.Vector{-1, 0, 0}, unit.AngleDeg)

	return g
}

func newHKLV2(logger *log.Logger) *engine.Engine {
	e := engine.NewHKL(logger)

	e.AddMode(engine.NewHKLMode("mu_fixed",
		v2Axes, []string{Omega, Gamma, Delta},
		[]engine.Function{engine.RUBhMinusQFunc()}))

	e.AddMode(engine.NewHKLMode("gamma_fixed",
		v2Axes, []string{Mu, Omega, Delta},
		[]engine.Function{engine.RUBhMinusQFunc()}))

	return e
}

// NewEnginesV2 assembles the v2 engine set. The slit refit runs as a
// post-set pass only when the eta_a_rotation parameter is set to 1.
func NewEnginesV2(logger *log.Logger) *engine.List {
	l := engine.NewList(logger)

	rot, err := parameter.New("eta_a_rotation",
		"enable the slit realignment after each solve",
		0, 0, 1, true, unit.None, unit.None)
	if err != nil {
		errors.Fatalf("bad eta_a_rotation parameter: %v", err)
	}
	l.AddParameter(rot)
	l.SetPostSet(func(l *engine.List) error {
		if l.ParameterByName("eta_a_rotation").Value(unit.Default) < 0.5 {
			return nil
		}
		sols := l.Solutions()
		for _, it := range sols.Items() {
			fitSlits(sols, it)
		}
		return nil
	})

	l.Add(newHKLV2(logger))
	l.Add(engine.NewQ2(logger, Gamma, Delta))
	l.Add(engine.NewQperQpar(logger, Gamma, Delta))
	l.Add(engine.NewIncidence(logger,
		[]string{Mu, Omega}, []float64{0, 1, 0}))
	l.Add(engine.NewEmergence(logger,
		[]string{Mu, Omega, Gamma, Delta}, []float64{0, 1, 0}))

	return l
}
