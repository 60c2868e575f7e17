package engine

import (
	"math/rand"

	"hklgo/pkg/detector"
	"hklgo/pkg/errors"
	"hklgo/pkg/geometry"
	"hklgo/pkg/log"
	"hklgo/pkg/parameter"
	"hklgo/pkg/sample"
)

// List owns the engines of one instrument plus the state they share:
// the working geometry, the solution pool and optional list-level
// parameters consumed by a post-set hook.
type List struct {
	engines    []*Engine
	geometry   *geometry.Geometry
	detector   *detector.Detector
	sample     *sample.Sample
	solutions  *geometry.List
	parameters []*parameter.Parameter
	postSet    func(l *List) error
	logger     *log.Logger
	rng        *rand.Rand
}

// NewList creates an empty engine list. Solves are reproducible: the
// restart source is seeded once here.
func NewList(logger *log.Logger) *List {
	if logger == nil {
		logger = log.Discard()
	}
	return &List{
		solutions: geometry.NewList(),
		logger:    logger,
		rng:       rand.New(rand.NewSource(1)),
	}
}

// Add registers an engine; duplicate names are a descriptor bug.
func (l *List) Add(e *Engine) *Engine {
	if l.EngineByName(e.name) != nil {
		errors.Fatalf("engine %q registered twice", e.name)
	}
	l.engines = append(l.engines, e)
	return e
}

func (l *List) Engines() []*Engine { return l.engines }

// EngineByName returns the named engine or nil.
func (l *List) EngineByName(name string) *Engine {
	for _, e := range l.engines {
		if e.name == name {
			return e
		}
	}
	return nil
}

// Solutions returns the list refilled by every successful Set.
func (l *List) Solutions() *geometry.List { return l.solutions }

// Geometry returns the bound working geometry, nil before Init.
func (l *List) Geometry() *geometry.Geometry { return l.geometry }

// AddParameter declares a list-level parameter, typically consumed by
// the post-set hook.
func (l *List) AddParameter(p *parameter.Parameter) *parameter.Parameter {
	l.parameters = append(l.parameters, p)
	return p
}

// ParameterByName returns the named list parameter or nil.
func (l *List) ParameterByName(name string) *parameter.Parameter {
	for _, p := range l.parameters {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// SetPostSet installs a hook run after every successful engine Set,
// once the solution pool is final.
func (l *List) SetPostSet(fn func(l *List) error) { l.postSet = fn }

func (l *List) postSetHook() error {
	if l.postSet == nil {
		return nil
	}
	return l.postSet(l)
}

// Init binds every engine to the instrument state. It must be called
// once before Get or Set.
func (l *List) Init(g *geometry.Geometry, det *detector.Detector, s *sample.Sample) {
	l.geometry = g
	l.detector = det
	l.sample = s
	for _, e := range l.engines {
		e.bind(l)
	}
}

// GetAll refreshes the pseudo values of every engine from the current
// geometry.
func (l *List) GetAll() error {
	for _, e := range l.engines {
		if err := e.Get(); err != nil {
			return err
		}
	}
	return nil
}
