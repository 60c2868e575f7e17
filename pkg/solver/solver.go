// Package solver implements the nonlinear multiroot solver the
// inverse-solving machinery delegates to: a damped Newton iteration
// with a finite-difference Jacobian, restarted from a random point
// inside the axis ranges whenever it stalls, and capped at a hard
// iteration ceiling.
package solver

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"hklgo/pkg/errors"
	"hklgo/pkg/hklmath"
	"hklgo/pkg/log"
)

const (
	// MaxIterations is the hard ceiling on solver steps, restarts
	// included. Fixed for compatibility with existing solution sets.
	MaxIterations = 1000

	// restartEvery forces a restart from a random point when this many
	// consecutive steps have not converged.
	restartEvery = 100

	// maxHalvings bounds the step damping line search.
	maxHalvings = 6
)

// Func evaluates the residual vector at x into f (len(f) == len(x)).
// Implementations must return an error instead of producing NaN
// residuals; the solver treats any error as a stalled step and
// restarts.
type Func func(x, f []float64) error

// Options tunes one Solve call.
type Options struct {
	// Tolerance on the residual L1 norm. Defaults to hklmath.Epsilon.
	Tolerance float64

	// Min/Max bound the per-component random restarts. Components with
	// missing or unbounded ranges restart inside [-pi, pi].
	Min, Max []float64

	// Rand is the restart source. Defaults to a fixed-seed source so
	// solves are reproducible.
	Rand *rand.Rand

	// Logger receives per-restart trace output. Defaults to Discard.
	Logger *log.Logger
}

// Solve searches for a root of fn starting from x0. It returns the
// root, or ErrNoConvergence after MaxIterations steps. x0 is not
// modified.
func Solve(fn Func, x0 []float64, opts Options) ([]float64, error) {
	n := len(x0)
	tol := opts.Tolerance
	if tol == 0 {
		tol = hklmath.Epsilon
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	x := append([]float64(nil), x0...)
	f := make([]float64, n)
	ft := make([]float64, n)
	xt := make([]float64, n)
	jac := mat.NewDense(n, n, nil)
	rhs := mat.NewDense(n, 1, nil)
	step := mat.NewDense(n, 1, nil)

	restart := func() {
		for i := range x {
			lo, hi := -math.Pi, math.Pi
			if i < len(opts.Min) && i < len(opts.Max) &&
				opts.Max[i]-opts.Min[i] < 1e6 && opts.Max[i] > opts.Min[i] {
				lo, hi = opts.Min[i], opts.Max[i]
			}
			x[i] = lo + rng.Float64()*(hi-lo)
		}
	}

	for iter := 1; iter <= MaxIterations; iter++ {
		if err := fn(x, f); err != nil {
			logger.Debug("residual evaluation failed, restarting",
				log.Fields{"iter": iter, "err": err})
			restart()
			continue
		}
		norm := floats.Norm(f, 1)
		if norm < tol {
			return x, nil
		}
		if iter%restartEvery == 0 {
			logger.Debug("solver stalled, restarting",
				log.Fields{"iter": iter, "residual": norm})
			restart()
			continue
		}

		if !jacobian(fn, x, f, xt, ft, jac) {
			restart()
			continue
		}
		for i := 0; i < n; i++ {
			rhs.Set(i, 0, -f[i])
		}
		var qr mat.QR
		qr.Factorize(jac)
		if err := qr.SolveTo(step, false, rhs); err != nil {
			restart()
			continue
		}

		if !advance(fn, x, xt, ft, step, norm) {
			restart()
		}
	}

	return nil, errors.New(errors.ErrNoConvergence,
		"no root found after %d iterations", MaxIterations)
}

// jacobian fills jac with forward finite differences of fn around x,
// given f = fn(x). Returns false when an evaluation fails.
func jacobian(fn Func, x, f, xt, ft []float64, jac *mat.Dense) bool {
	n := len(x)
	for j := 0; j < n; j++ {
		h := 1e-8 * math.Max(math.Abs(x[j]), 1)
		copy(xt, x)
		xt[j] += h
		if err := fn(xt, ft); err != nil {
			return false
		}
		for i := 0; i < n; i++ {
			jac.Set(i, j, (ft[i]-f[i])/h)
		}
	}
	return true
}

// advance applies the Newton step with backtracking: the first damping
// factor that evaluates cleanly and reduces the residual wins. A full
// step that evaluates cleanly is taken even without reduction, so the
// iteration can cross a residual ridge; a step that never evaluates
// asks the caller to restart.
func advance(fn Func, x, xt, ft []float64, step *mat.Dense, norm float64) bool {
	var full []float64
	t := 1.0
	for k := 0; k <= maxHalvings; k++ {
		for i := range x {
			xt[i] = x[i] + t*step.At(i, 0)
		}
		if err := fn(xt, ft); err == nil {
			if floats.Norm(ft, 1) < norm {
				copy(x, xt)
				return true
			}
			if k == 0 {
				full = append([]float64(nil), xt...)
			}
		}
		t /= 2
	}
	if full != nil {
		copy(x, full)
		return true
	}
	return false
}

// CheckNaN guards residual evaluations: axis values must never be NaN
// when they reach an instrument residual function.
func CheckNaN(x []float64) error {
	for i, v := range x {
		if math.IsNaN(v) {
			return errors.New(errors.ErrInvalidValue,
				"NaN input at component %d", i)
		}
	}
	return nil
}
