// Package unit describes the physical and user-facing units attached to
// instrument parameters, and the conversion factors between them.
package unit

import "math"

// Dim is the physical dimension of a unit. Units can only be paired or
// converted within the same dimension.
type Dim int

const (
	DimNone Dim = iota
	DimAngle
	DimLength
)

// Type selects which unit of a parameter's (default, user) pair a value
// is expressed in.
type Type int

const (
	// Default is the internal unit (radian for angles, meter for
	// lengths) every computation runs in.
	Default Type = iota
	// User is the operator-facing unit attached to the parameter.
	User
)

// Unit is one unit descriptor. ToSI is the factor turning a value in
// this unit into the dimension's reference unit.
type Unit struct {
	Dim  Dim
	Name string
	Repr string
	ToSI float64
}

var (
	None      = Unit{DimNone, "", "", 1}
	AngleRad  = Unit{DimAngle, "radian", "rad", 1}
	AngleDeg  = Unit{DimAngle, "degree", "°", math.Pi / 180}
	AngleMRad = Unit{DimAngle, "milliradian", "mrad", 1e-3}
	LengthM   = Unit{DimLength, "meter", "m", 1}
	LengthMM  = Unit{DimLength, "millimeter", "mm", 1e-3}
	LengthNM  = Unit{DimLength, "nanometer", "nm", 1e-9}
)

// Compatible reports whether two units share a dimension and can be
// paired on one parameter.
func Compatible(a, b Unit) bool {
	return a.Dim == b.Dim
}

// Factor returns the multiplier converting a value expressed in from
// into the equivalent value expressed in to. It returns NaN for units
// of different dimensions.
func Factor(from, to Unit) float64 {
	if !Compatible(from, to) {
		return math.NaN()
	}
	return from.ToSI / to.ToSI
}
