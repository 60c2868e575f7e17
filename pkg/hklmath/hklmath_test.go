package hklmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
)

func TestVectorBasics(t *testing.T) {
	v := Vector{1, 2, 3}
	o := Vector{4, 5, 6}

	assert.Equal(t, Vector{5, 7, 9}, v.Add(o))
	assert.Equal(t, Vector{-3, -3, -3}, v.Sub(o))
	assert.Equal(t, Vector{2, 4, 6}, v.Scale(2))
	assert.InDelta(t, 32, v.Dot(o), 1e-12)
	assert.Equal(t, Vector{-3, 6, -3}, v.Cross(o))
	assert.InDelta(t, math.Sqrt(14), v.Norm(), 1e-12)
}

func TestNormalize(t *testing.T) {
	n := Vector{3, 0, 4}.Normalize()
	assert.InDelta(t, 1, n.Norm(), 1e-12)

	// too small to normalize, returned unchanged
	tiny := Vector{1e-9, 0, 0}
	assert.Equal(t, tiny, tiny.Normalize())
}

func TestAngle(t *testing.T) {
	x := Vector{1, 0, 0}
	y := Vector{0, 1, 0}
	assert.InDelta(t, math.Pi/2, x.Angle(y), 1e-12)
	assert.InDelta(t, 0, x.Angle(Vector{2, 0, 0}), 1e-12)
	assert.InDelta(t, math.Pi, x.Angle(Vector{-1, 0, 0}), 1e-12)
}

func TestProjectOnPlane(t *testing.T) {
	v := Vector{1, 2, 3}
	p := v.ProjectOnPlane(Vector{0, 0, 1})
	assert.InDelta(t, 1, p[0], 1e-12)
	assert.InDelta(t, 2, p[1], 1e-12)
	assert.InDelta(t, 0, p[2], 1e-12)
}

func TestRotationQuat(t *testing.T) {
	// quarter turn around z maps x onto y
	q := RotationQuat(Vector{0, 0, 1}, math.Pi/2)
	r := Vector{1, 0, 0}.Rotate(q)
	assert.InDelta(t, 0, r[0], 1e-12)
	assert.InDelta(t, 1, r[1], 1e-12)
	assert.InDelta(t, 0, r[2], 1e-12)

	// axis normalization is implicit
	q2 := RotationQuat(Vector{0, 0, 10}, math.Pi/2)
	assert.True(t, QuatEqual(q, q2))
}

func TestQuatMatrixMatchesRotate(t *testing.T) {
	q := RotationQuat(Vector{1, 2, 3}, 0.7)
	m := QuatMatrix(q)
	v := Vector{0.3, -1.2, 2.5}
	r := v.Rotate(q)
	for i := 0; i < 3; i++ {
		got := m.At(i, 0)*v[0] + m.At(i, 1)*v[1] + m.At(i, 2)*v[2]
		assert.InDelta(t, r[i], got, 1e-12)
	}
}

func TestRestrictSymm(t *testing.T) {
	assert.InDelta(t, 0, RestrictSymm(Tau), 1e-12)
	assert.InDelta(t, -math.Pi/2, RestrictSymm(3*math.Pi/2), 1e-12)
	assert.InDelta(t, math.Pi/2, RestrictSymm(-3*math.Pi/2), 1e-12)
	assert.InDelta(t, 0.5, RestrictSymm(0.5), 1e-12)
}

func TestQuatEqualSignAmbiguity(t *testing.T) {
	q := RotationQuat(Vector{0, 1, 0}, 1.1)
	neg := quat.Scale(-1, q)
	require.NotEqual(t, q, neg)
	assert.True(t, QuatEqual(q, neg))
	assert.False(t, QuatEqual(q, RotationQuat(Vector{0, 1, 0}, 1.2)))
}

func TestIsNull(t *testing.T) {
	assert.True(t, Vector{}.IsNull())
	assert.True(t, Vector{1e-8, -1e-8, 0}.IsNull())
	assert.False(t, Vector{1e-3, 0, 0}.IsNull())
}
