package sample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hklgo/pkg/hklmath"
	"hklgo/pkg/lattice"
	"hklgo/pkg/unit"
)

func TestNewDefaults(t *testing.T) {
	s := New("crystal")
	assert.Equal(t, "crystal", s.Name())
	assert.True(t, hklmath.QuatEqual(s.U(), hklmath.QuatIdentity()))
	assert.InDelta(t, 1.54, s.Lattice().A().Value(unit.Default), 1e-12)
}

func TestUBIdentityOrientation(t *testing.T) {
	l, err := lattice.Cubic(1.54)
	require.NoError(t, err)
	s := NewWithLattice("crystal", l)

	ub := s.UB()
	want := hklmath.Tau / 1.54
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want, ub.At(i, i), 1e-9)
	}
}

func TestSetU(t *testing.T) {
	s := New("crystal")
	require.NoError(t, s.SetU(0, 0, math.Pi/2))

	// the orientation rotates the first reciprocal basis vector
	v := hklmath.Vector{1, 0, 0}.Rotate(s.U())
	assert.InDelta(t, 0, v[0], 1e-12)
	assert.InDelta(t, 1, v[1], 1e-12)

	assert.Error(t, s.SetU(math.NaN(), 0, 0))
}

func TestSetUBRoundTrip(t *testing.T) {
	l, err := lattice.New(1.54, 2.1, 1.8, 80*hklmath.DegToRad,
		95*hklmath.DegToRad, 110*hklmath.DegToRad)
	require.NoError(t, err)
	s := NewWithLattice("crystal", l)
	require.NoError(t, s.SetU(0.3, -0.7, 1.1))

	ub := s.UB()
	s2 := NewWithLattice("copy", l.Copy())
	require.NoError(t, s2.SetUB(ub))

	assert.InDelta(t, 0.3, s2.Ux().Value(unit.Default), 1e-9)
	assert.InDelta(t, -0.7, s2.Uy().Value(unit.Default), 1e-9)
	assert.InDelta(t, 1.1, s2.Uz().Value(unit.Default), 1e-9)
}

func TestCopyIndependence(t *testing.T) {
	s := New("crystal")
	require.NoError(t, s.SetU(0.1, 0.2, 0.3))

	c := s.Copy()
	require.NoError(t, c.SetU(1, 1, 1))

	assert.InDelta(t, 0.1, s.Ux().Value(unit.Default), 1e-12)
	assert.InDelta(t, 1, c.Ux().Value(unit.Default), 1e-12)
}
