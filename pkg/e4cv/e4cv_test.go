package e4cv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"hklgo/pkg/detector"
	"hklgo/pkg/engine"
	"hklgo/pkg/geometry"
	"hklgo/pkg/hklmath"
	"hklgo/pkg/lattice"
	"hklgo/pkg/log"
	"hklgo/pkg/sample"
	"hklgo/pkg/unit"
)

const deg = hklmath.DegToRad

// setup returns the instrument with a cubic crystal whose lattice
// constant equals the wavelength, so the (0, 0, 1) reflection sits at
// tth = 60 degrees.
func setup(t *testing.T) (*geometry.Geometry, *detector.Detector, *sample.Sample, *engine.List) {
	t.Helper()
	g := NewGeometry()
	require.NoError(t, g.SetWavelength(1.54))
	det := NewDetector()

	cell, err := lattice.Cubic(1.54)
	require.NoError(t, err)
	smp := sample.NewWithLattice("crystal", cell)

	engines := NewEngines(log.Discard())
	engines.Init(g, det, smp)
	return g, det, smp, engines
}

// start puts the axes in a generic position so the first Newton step
// is well conditioned.
func start(t *testing.T, g *geometry.Geometry) {
	t.Helper()
	require.NoError(t, g.AxisValuesSet(
		[]float64{30 * deg, 10 * deg, 10 * deg, 60 * deg, 0}, unit.Default))
}

func TestGeometryLayout(t *testing.T) {
	g := NewGeometry()
	assert.Equal(t, []string{Omega, Chi, Phi, Tth, Gamma}, g.AxisNames())
	assert.Equal(t, 2, g.HolderCount())
}

func TestEngineSet(t *testing.T) {
	_, _, _, engines := setup(t)
	names := []string{}
	for _, e := range engines.Engines() {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"hkl", "q", "incidence", "emergence"}, names)

	hkl := engines.EngineByName("hkl")
	require.NotNil(t, hkl)
	assert.Equal(t, []string{"bissector", "constant_omega", "constant_chi",
		"constant_phi", "double_diffraction"}, hkl.ModeNames())
	assert.Equal(t, "bissector", hkl.Mode().Name)
}

func TestBissectorSolve(t *testing.T) {
	g, _, _, engines := setup(t)
	start(t, g)
	hkl := engines.EngineByName("hkl")

	target := []float64{0, 0, 1}
	require.NoError(t, hkl.Set(target, unit.Default))

	sols := engines.Solutions()
	require.NotZero(t, sols.Len())

	for _, it := range sols.Items() {
		sg := it.Geometry()
		assert.True(t, sg.IsValidRange())

		// every solution reaches the target
		require.NoError(t, g.InitFrom(sg))
		require.NoError(t, hkl.Get())
		values := hkl.PseudoValues(unit.Default)
		assert.InDelta(t, target[0], values[0], 1e-4)
		assert.InDelta(t, target[1], values[1], 1e-4)
		assert.InDelta(t, target[2], values[2], 1e-4)

		// and honors the bissector relation
		omega := sg.AxisByName(Omega).Value(unit.Default)
		tth := sg.AxisByName(Tth).Value(unit.Default)
		assert.InDelta(t, 0,
			hklmath.RestrictSymm(tth-2*math.Mod(omega, math.Pi)), 1e-3)
	}
}

func TestBissectorSolutionsSorted(t *testing.T) {
	g, _, _, engines := setup(t)
	start(t, g)
	ref := g.Copy()
	hkl := engines.EngineByName("hkl")

	require.NoError(t, hkl.Set([]float64{0, 0, 1}, unit.Default))

	prev := math.Inf(-1)
	for _, it := range engines.Solutions().Items() {
		d := ref.Distance(it.Geometry())
		assert.GreaterOrEqual(t, d, prev-hklmath.Epsilon)
		prev = d
	}

	// the working geometry is parked on the best solution
	first := engines.Solutions().First().Geometry()
	assert.InDelta(t, 0, g.Distance(first), 1e-9)
}

func TestConstantOmegaKeepsOmega(t *testing.T) {
	g, _, _, engines := setup(t)
	start(t, g)
	hkl := engines.EngineByName("hkl")
	require.NoError(t, hkl.SelectMode("constant_omega"))

	require.NoError(t, hkl.Set([]float64{0, 0, 1}, unit.Default))

	for _, it := range engines.Solutions().Items() {
		assert.InDelta(t, 30*deg,
			it.Geometry().AxisByName(Omega).Value(unit.Default), 1e-9,
			"a frozen axis must not move")
	}

	require.NoError(t, hkl.Get())
	assert.InDelta(t, 1, hkl.PseudoValues(unit.Default)[2], 1e-4)
}

func TestDoubleDiffractionSolve(t *testing.T) {
	g, _, smp, engines := setup(t)
	start(t, g)
	hkl := engines.EngineByName("hkl")
	require.NoError(t, hkl.SelectMode("double_diffraction"))

	target := []float64{0, 0, 1}
	require.NoError(t, hkl.Set(target, unit.Default))
	require.NoError(t, hkl.Get())
	values := hkl.PseudoValues(unit.Default)
	assert.InDelta(t, 1, values[2], 1e-4)

	// the secondary (1, 1, 0) reflection sits on the Ewald sphere too
	var v mat.VecDense
	v.MulVec(smp.UB(), mat.NewVecDense(3, []float64{1, 1, 0}))
	hp := hklmath.Vector{v.AtVec(0), v.AtVec(1), v.AtVec(2)}.
		Rotate(g.SampleRotation())
	ki := g.Ki()
	kf2 := ki.Add(hp)
	assert.InDelta(t, ki.Norm(), kf2.Norm(), 1e-4)
}

func TestQSolveRoundTrip(t *testing.T) {
	g, _, _, engines := setup(t)
	require.NoError(t, g.AxisValuesSet(
		[]float64{0, 0, 0, 10 * deg, 0}, unit.Default))
	q := engines.EngineByName("q")

	require.NoError(t, q.Set([]float64{2}, unit.Default))
	require.NoError(t, q.Get())
	assert.InDelta(t, 2, q.PseudoValues(unit.Default)[0], 1e-5)

	// tth carries the whole scattering angle
	qmax := 2 * hklmath.Tau / 1.54
	wantTth := 2 * math.Asin(2/qmax)
	tth := g.AxisByName(Tth).Value(unit.Default)
	assert.InDelta(t, wantTth, math.Abs(hklmath.RestrictSymm(tth)), 1e-5)
}

func TestIncidenceReadback(t *testing.T) {
	g, _, _, engines := setup(t)

	// chi = 90 tips the surface normal onto z, omega = -30 tilts it
	// toward the beam
	require.NoError(t, g.AxisValuesSet(
		[]float64{-30 * deg, 90 * deg, 0, 0, 0}, unit.Default))

	inc := engines.EngineByName("incidence")
	require.NoError(t, inc.Get())
	values := inc.PseudoValues(unit.User)
	assert.InDelta(t, 30, values[0], 1e-6)
	assert.InDelta(t, 90, values[1], 1e-6)
}

func TestEmergenceReadback(t *testing.T) {
	g, _, _, engines := setup(t)

	// flat sample, detector lifted to tth = 60: the exit beam leaves
	// the horizontal surface at zero grazing angle
	require.NoError(t, g.AxisValuesSet(
		[]float64{0, 0, 0, 60 * deg, 0}, unit.Default))

	em := engines.EngineByName("emergence")
	require.NoError(t, em.Get())
	assert.InDelta(t, 0, em.PseudoValues(unit.Default)[0], 1e-9)
}

func TestReadOnlyEnginesRejectSet(t *testing.T) {
	_, _, _, engines := setup(t)
	inc := engines.EngineByName("incidence")
	err := inc.Set([]float64{0.1, 0}, unit.Default)
	require.Error(t, err)
}

func TestNoSolutionRestoresGeometry(t *testing.T) {
	g, _, _, engines := setup(t)
	start(t, g)
	before := g.AxisValuesGet(unit.Default)
	hkl := engines.EngineByName("hkl")

	// a reflection far outside the Ewald sphere is unreachable
	err := hkl.Set([]float64{9, 9, 9}, unit.Default)
	require.Error(t, err)
	assert.InDeltaSlice(t, before, g.AxisValuesGet(unit.Default), 1e-9)
}
