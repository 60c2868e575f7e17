package sixs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hklgo/pkg/engine"
	"hklgo/pkg/geometry"
	"hklgo/pkg/hklmath"
	"hklgo/pkg/lattice"
	"hklgo/pkg/log"
	"hklgo/pkg/sample"
	"hklgo/pkg/unit"
)

const deg = hklmath.DegToRad

func setup(t *testing.T) (*geometry.Geometry, *engine.List) {
	t.Helper()
	g := NewGeometry()
	require.NoError(t, g.SetWavelength(1.54))

	cell, err := lattice.Cubic(1.54)
	require.NoError(t, err)
	smp := sample.NewWithLattice("crystal", cell)

	engines := NewEngines(log.Discard())
	engines.Init(g, NewDetector(), smp)
	return g, engines
}

// slitMisalignment measures how far the slit plane is from containing
// the sample surface normal: zero when the refit succeeded.
func slitMisalignment(g *geometry.Geometry) float64 {
	sampleHolder := g.Holder(0)
	sAxes := sampleHolder.Axes()
	surface := sAxes[len(sAxes)-1].Transform().Axis.
		Rotate(sampleHolder.Orientation())
	n := hklmath.Vector{0, 0, 1}.Rotate(g.Holder(1).Orientation())
	return surface.Dot(n)
}

func TestGeometryLayout(t *testing.T) {
	g := NewGeometry()
	assert.Equal(t, []string{Beta, Mu, Omega, Gamma, Delta, EtaA}, g.AxisNames())
	require.Equal(t, 2, g.HolderCount())
	assert.Len(t, g.Holder(0).Axes(), 3)
	assert.Len(t, g.Holder(1).Axes(), 4)
}

func TestBetaMovesBothArms(t *testing.T) {
	g := NewGeometry()
	require.NoError(t, g.AxisByName(Beta).SetValue(20*deg, unit.Default))
	g.Update()

	q := hklmath.RotationQuat(hklmath.Vector{0, -1, 0}, 20*deg)
	assert.True(t, hklmath.QuatEqual(g.Holder(0).Orientation(), q))
	assert.True(t, hklmath.QuatEqual(g.Holder(1).Orientation(), q))
}

func TestEngineSet(t *testing.T) {
	_, engines := setup(t)
	names := []string{}
	for _, e := range engines.Engines() {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"hkl", "q2", "qper_qpar", "incidence", "emergence"},
		names)

	hkl := engines.EngineByName("hkl")
	require.NotNil(t, hkl)
	assert.Equal(t, []string{"mu_fixed", "gamma_fixed"}, hkl.ModeNames())
}

func TestMuFixedSolve(t *testing.T) {
	g, engines := setup(t)
	require.NoError(t, g.AxisValuesSet(
		[]float64{0, 5 * deg, 30 * deg, 10 * deg, 60 * deg, 0}, unit.Default))
	hkl := engines.EngineByName("hkl")

	target := []float64{0, 0, 1}
	require.NoError(t, hkl.Set(target, unit.Default))

	sols := engines.Solutions()
	require.NotZero(t, sols.Len())

	for _, it := range sols.Items() {
		sg := it.Geometry()

		// frozen axes do not move
		assert.InDelta(t, 0,
			sg.AxisByName(Beta).Value(unit.Default), 1e-12)
		assert.InDelta(t, 5*deg,
			sg.AxisByName(Mu).Value(unit.Default), 1e-12)

		// the refit keeps the slits parallel to the sample surface
		assert.InDelta(t, 0, slitMisalignment(sg), 1e-4)

		require.NoError(t, g.InitFrom(sg))
		require.NoError(t, hkl.Get())
		assert.InDeltaSlice(t, target, hkl.PseudoValues(unit.Default), 1e-4)
	}
}

func TestGammaFixedKeepsGamma(t *testing.T) {
	g, engines := setup(t)
	require.NoError(t, g.AxisValuesSet(
		[]float64{0, 5 * deg, 30 * deg, 10 * deg, 60 * deg, 0}, unit.Default))
	hkl := engines.EngineByName("hkl")
	require.NoError(t, hkl.SelectMode("gamma_fixed"))

	require.NoError(t, hkl.Set([]float64{0, 0, 1}, unit.Default))

	for _, it := range engines.Solutions().Items() {
		assert.InDelta(t, 10*deg,
			it.Geometry().AxisByName(Gamma).Value(unit.Default), 1e-12)
	}
	require.NoError(t, hkl.Get())
	assert.InDelta(t, 1, hkl.PseudoValues(unit.Default)[2], 1e-4)
}

func TestQ2Readback(t *testing.T) {
	g, engines := setup(t)
	require.NoError(t, g.AxisValuesSet(
		[]float64{0, 0, 0, 0, 60 * deg, 0}, unit.Default))

	q2 := engines.EngineByName("q2")
	require.NoError(t, q2.Get())
	values := q2.PseudoValues(unit.Default)
	assert.InDelta(t, hklmath.Tau/1.54, values[0], 1e-6)
	assert.InDelta(t, 90, values[1]*hklmath.RadToDeg, 1e-6)
}

func TestQperQparReadback(t *testing.T) {
	g, engines := setup(t)
	require.NoError(t, g.AxisValuesSet(
		[]float64{0, 0, 0, 0, 60 * deg, 0}, unit.Default))

	qq := engines.EngineByName("qper_qpar")
	require.NoError(t, qq.Get())
	values := qq.PseudoValues(unit.Default)
	assert.InDelta(t, 0, values[0], 1e-9)
	assert.InDelta(t, hklmath.Tau/1.54, values[1], 1e-6)
}

func TestV2SlitRefitIsGated(t *testing.T) {
	g := NewGeometryV2()
	require.NoError(t, g.SetWavelength(1.54))
	cell, err := lattice.Cubic(1.54)
	require.NoError(t, err)
	smp := sample.NewWithLattice("crystal", cell)

	engines := NewEnginesV2(log.Discard())
	engines.Init(g, NewDetector(), smp)
	hkl := engines.EngineByName("hkl")

	startValues := []float64{5 * deg, 30 * deg, 10 * deg, 60 * deg, 20 * deg}

	// hook disabled: the slit axis keeps its value
	require.NoError(t, g.AxisValuesSet(startValues, unit.Default))
	require.NoError(t, hkl.Set([]float64{0, 0, 1}, unit.Default))
	for _, it := range engines.Solutions().Items() {
		assert.InDelta(t, 20*deg,
			it.Geometry().AxisByName(EtaA).Value(unit.Default), 1e-12)
	}

	// hook enabled: every solution comes back realigned
	rot := engines.ParameterByName("eta_a_rotation")
	require.NotNil(t, rot)
	require.NoError(t, rot.SetValue(1, unit.Default))

	require.NoError(t, g.AxisValuesSet(startValues, unit.Default))
	require.NoError(t, hkl.Set([]float64{0, 0, 1}, unit.Default))
	for _, it := range engines.Solutions().Items() {
		assert.InDelta(t, 0, slitMisalignment(it.Geometry()), 1e-4)
	}
}
