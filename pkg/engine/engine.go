// Package engine implements pseudo-axis computation: engines map real
// axis positions to derived coordinates (Miller indices, scattering
// vector norms, beam angles) and solve the inverse problem, filling a
// ranked list of axis configurations reaching requested pseudo values.
package engine

import (
	"math/rand"

	"hklgo/pkg/detector"
	"hklgo/pkg/errors"
	"hklgo/pkg/geometry"
	"hklgo/pkg/log"
	"hklgo/pkg/parameter"
	"hklgo/pkg/sample"
	"hklgo/pkg/solver"
	"hklgo/pkg/unit"
)

// Function is one residual system driven by the solver. Size is the
// dimension of both the residual vector and the writable axis set; F
// is evaluated with the candidate axis values already written to the
// geometry.
type Function struct {
	Size int
	F    func(e *Engine, f []float64) error
}

// Mode is one way of driving an engine: the axes it reads, the subset
// it writes, the residual systems tried in turn, and optional mode
// parameters (surface normals, secondary reflections).
type Mode struct {
	Name       string
	AxesR      []string
	AxesW      []string
	Functions  []Function
	Parameters []*parameter.Parameter

	// Get computes the pseudo values from the current geometry.
	Get func(e *Engine) error

	// Set solves for the pseudo targets. nil selects the generic
	// solver-driven path.
	Set func(e *Engine) error
}

// ParameterByName returns the named mode parameter or nil.
func (m *Mode) ParameterByName(name string) *parameter.Parameter {
	for _, p := range m.Parameters {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Engine computes one family of pseudo axes. Engines are built by the
// instrument packages and bound to a geometry through a List.
type Engine struct {
	name    string
	pseudos []*parameter.Parameter
	modes   []*Mode
	mode    *Mode

	list      *List
	geometry  *geometry.Geometry
	detector  *detector.Detector
	sample    *sample.Sample
	solutions *geometry.List
	logger    *log.Logger
	rng       *rand.Rand
}

// New creates an unbound engine.
func New(name string, logger *log.Logger) *Engine {
	return &Engine{
		name:   name,
		logger: logger.WithComponent(name),
	}
}

func (e *Engine) Name() string { return e.name }

// AddPseudo declares a pseudo axis and returns its parameter.
func (e *Engine) AddPseudo(name, desc string, u, pu unit.Unit) *parameter.Parameter {
	p, err := parameter.New(name, desc, -10, 0, 10, true, u, pu)
	if err != nil {
		errors.Fatalf("engine %q: bad pseudo axis %q: %v", e.name, name, err)
	}
	e.pseudos = append(e.pseudos, p)
	return p
}

func (e *Engine) Pseudos() []*parameter.Parameter { return e.pseudos }

// PseudoByName returns the named pseudo axis or nil.
func (e *Engine) PseudoByName(name string) *parameter.Parameter {
	for _, p := range e.pseudos {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// PseudoValues returns the pseudo axis values in the requested unit.
func (e *Engine) PseudoValues(t unit.Type) []float64 {
	values := make([]float64, len(e.pseudos))
	for i, p := range e.pseudos {
		values[i] = p.Value(t)
	}
	return values
}

// AddMode registers a mode; the first one becomes the default.
func (e *Engine) AddMode(m *Mode) {
	e.modes = append(e.modes, m)
	if e.mode == nil {
		e.mode = m
	}
}

func (e *Engine) Modes() []*Mode { return e.modes }
func (e *Engine) Mode() *Mode    { return e.mode }

// ModeNames returns the registered mode names in order.
func (e *Engine) ModeNames() []string {
	names := make([]string, len(e.modes))
	for i, m := range e.modes {
		names[i] = m.Name
	}
	return names
}

// SelectMode switches the current mode by name.
func (e *Engine) SelectMode(name string) error {
	for _, m := range e.modes {
		if m.Name == name {
			e.mode = m
			return nil
		}
	}
	return errors.New(errors.ErrInvalidValue,
		"engine %q has no mode %q", e.name, name)
}

// Geometry returns the bound geometry, nil before Init.
func (e *Engine) Geometry() *geometry.Geometry { return e.geometry }
func (e *Engine) Detector() *detector.Detector { return e.detector }
func (e *Engine) Sample() *sample.Sample       { return e.sample }

// Solutions returns the shared solution list.
func (e *Engine) Solutions() *geometry.List { return e.solutions }

func (e *Engine) bind(l *List) {
	e.list = l
	e.geometry = l.geometry
	e.detector = l.detector
	e.sample = l.sample
	e.solutions = l.solutions
	e.rng = l.rng
}

func (e *Engine) checkBound() error {
	if e.geometry == nil {
		return errors.New(errors.ErrInvalidValue,
			"engine %q is not initialized", e.name)
	}
	return nil
}

// Get refreshes the pseudo axis values from the current geometry.
func (e *Engine) Get() error {
	if err := e.checkBound(); err != nil {
		return err
	}
	if e.mode == nil || e.mode.Get == nil {
		return errors.New(errors.ErrInvalidValue,
			"engine %q cannot read back", e.name)
	}
	e.geometry.Update()
	return e.mode.Get(e)
}

// Set moves the instrument to the given pseudo values: the targets are
// stored, the current mode solved, and the shared solution list
// refilled with every reachable axis configuration, closest first. The
// working geometry is left on the best solution; on failure it is
// restored.
func (e *Engine) Set(values []float64, t unit.Type) error {
	if err := e.checkBound(); err != nil {
		return err
	}
	if len(values) != len(e.pseudos) {
		return errors.New(errors.ErrInvalidValue,
			"engine %q expects %d pseudo values, got %d",
			e.name, len(e.pseudos), len(values))
	}
	for i, v := range values {
		if err := e.pseudos[i].SetValue(v, t); err != nil {
			return err
		}
	}

	if e.mode != nil && e.mode.Set != nil {
		if err := e.mode.Set(e); err != nil {
			return err
		}
	} else if err := e.autoSet(); err != nil {
		return err
	}
	return e.list.postSetHook()
}

// writableAxes resolves the current mode's writable axis names against
// the geometry table. An unknown name is a broken engine descriptor.
func (e *Engine) writableAxes() []*parameter.Parameter {
	axes := make([]*parameter.Parameter, len(e.mode.AxesW))
	for i, name := range e.mode.AxesW {
		a := e.geometry.AxisByName(name)
		if a == nil {
			errors.Fatalf("engine %q mode %q: unknown axis %q",
				e.name, e.mode.Name, name)
		}
		axes[i] = a
	}
	return axes
}

// prepare freezes every axis the mode does not write, so neither the
// random restarts nor the permutation expansion touch the fixed ones.
func (e *Engine) prepare(axes []*parameter.Parameter) {
	for _, a := range e.geometry.Axes() {
		a.SetFit(false)
	}
	for _, a := range axes {
		a.SetFit(true)
	}
}

// autoSet is the generic inverse path: each residual system of the
// mode is solved from the reference position, every root is expanded
// over its periodic images, then the pool is multiplied by the
// instrument hook, filtered, and ranked by distance to the reference.
func (e *Engine) autoSet() error {
	m := e.mode
	if m == nil || len(m.Functions) == 0 {
		return errors.New(errors.ErrInvalidValue,
			"engine %q is read only", e.name)
	}
	axes := e.writableAxes()
	e.prepare(axes)

	ref := e.geometry.Copy()
	e.solutions.Reset()

	found := false
	for _, fn := range m.Functions {
		if fn.Size != len(axes) {
			errors.Fatalf("engine %q mode %q: %d residuals for %d axes",
				e.name, m.Name, fn.Size, len(axes))
		}
		if err := e.geometry.InitFrom(ref); err != nil {
			return err
		}
		if e.solveFunction(axes, fn) {
			found = true
		}
	}
	if !found {
		e.geometry.InitFrom(ref)
		return errors.New(errors.ErrNoSolution,
			"engine %q mode %q: no solution", e.name, m.Name)
	}

	e.solutions.Multiply()
	e.solutions.RemoveInvalid()
	if e.solutions.Len() == 0 {
		e.geometry.InitFrom(ref)
		return errors.New(errors.ErrNoSolution,
			"engine %q mode %q: no solution in range", e.name, m.Name)
	}
	e.solutions.Sort(ref)
	return e.geometry.InitFrom(e.solutions.First().Geometry())
}

func (e *Engine) solveFunction(axes []*parameter.Parameter, fn Function) bool {
	n := len(axes)
	x0 := make([]float64, n)
	min := make([]float64, n)
	max := make([]float64, n)
	for i, a := range axes {
		x0[i] = a.Value(unit.Default)
		min[i], max[i] = a.MinMax(unit.Default)
	}

	residual := func(x, f []float64) error {
		if err := solver.CheckNaN(x); err != nil {
			return err
		}
		for i, a := range axes {
			a.SetValue(x[i], unit.Default)
		}
		e.geometry.Update()
		return fn.F(e, f)
	}

	root, err := solver.Solve(residual, x0, solver.Options{
		Min:    min,
		Max:    max,
		Rand:   e.rng,
		Logger: e.logger,
	})
	if err != nil {
		e.logger.Debug("residual system did not converge",
			log.Fields{"mode": e.mode.Name, "err": err})
		return false
	}

	for i, a := range axes {
		a.SetValue(root[i], unit.Default)
	}
	e.geometry.Update()
	e.solutions.AddWithPermutations(e.geometry)
	return true
}
