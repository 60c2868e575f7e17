package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hklgo/pkg/errors"
)

func TestSolveLinear(t *testing.T) {
	fn := func(x, f []float64) error {
		f[0] = 2*x[0] - 3
		return nil
	}
	root, err := Solve(fn, []float64{0}, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, root[0], 1e-6)
}

func TestSolveCoupledSystem(t *testing.T) {
	// intersection of a circle and a line
	fn := func(x, f []float64) error {
		f[0] = x[0]*x[0] + x[1]*x[1] - 4
		f[1] = x[0] - x[1]
		return nil
	}
	root, err := Solve(fn, []float64{1, 0.5}, Options{})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2, math.Abs(root[0]), 1e-5)
	assert.InDelta(t, root[0], root[1], 1e-5)
}

func TestSolveTrigSystem(t *testing.T) {
	// the shape of an instrument residual: angles only
	fn := func(x, f []float64) error {
		f[0] = math.Sin(x[0]) - 0.5
		f[1] = math.Cos(x[1]) - 0.5
		return nil
	}
	root, err := Solve(fn, []float64{0.1, 0.1}, Options{
		Min: []float64{-math.Pi, -math.Pi},
		Max: []float64{math.Pi, math.Pi},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, math.Sin(root[0]), 1e-6)
	assert.InDelta(t, 0.5, math.Cos(root[1]), 1e-6)
}

func TestSolveRestartsOnBadRegion(t *testing.T) {
	// the residual errors out around the starting point, forcing
	// restarts into the valid region
	fn := func(x, f []float64) error {
		if x[0] < 0 {
			return errors.New(errors.ErrInvalidValue, "out of domain")
		}
		f[0] = math.Sqrt(x[0]) - 2
		return nil
	}
	root, err := Solve(fn, []float64{-1}, Options{
		Min: []float64{0},
		Max: []float64{10},
	})
	require.NoError(t, err)
	assert.InDelta(t, 4, root[0], 1e-5)
}

func TestSolveNoRoot(t *testing.T) {
	fn := func(x, f []float64) error {
		f[0] = x[0]*x[0] + 1 // never zero
		return nil
	}
	_, err := Solve(fn, []float64{0}, Options{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrNoConvergence, errors.CodeOf(err))
}

func TestSolveKeepsStartingPoint(t *testing.T) {
	x0 := []float64{1, 2}
	fn := func(x, f []float64) error {
		f[0] = x[0] - 3
		f[1] = x[1] - 4
		return nil
	}
	_, err := Solve(fn, x0, Options{})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, x0)
}

func TestCheckNaN(t *testing.T) {
	assert.NoError(t, CheckNaN([]float64{1, 2, 3}))
	assert.Error(t, CheckNaN([]float64{1, math.NaN()}))
}
