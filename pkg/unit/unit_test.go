package unit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompatible(t *testing.T) {
	assert.True(t, Compatible(AngleRad, AngleDeg))
	assert.True(t, Compatible(LengthM, LengthNM))
	assert.False(t, Compatible(AngleRad, LengthM))
	assert.True(t, Compatible(None, None))
}

func TestFactor(t *testing.T) {
	assert.InDelta(t, 180/math.Pi, Factor(AngleRad, AngleDeg), 1e-12)
	assert.InDelta(t, math.Pi/180, Factor(AngleDeg, AngleRad), 1e-12)
	assert.InDelta(t, 1e3, Factor(LengthM, LengthMM), 1e-9)
	assert.True(t, math.IsNaN(Factor(AngleRad, LengthM)))
}

func TestRoundTrip(t *testing.T) {
	v := 123.456
	assert.InDelta(t, v, v*Factor(AngleRad, AngleMRad)*Factor(AngleMRad, AngleRad), 1e-9)
}
