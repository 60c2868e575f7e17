// Package geometry models a positioning instrument: a shared table of
// axes grouped into rigid-body holders, the incident beam source, and
// the list container used to collect and rank computed positions.
package geometry

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"hklgo/pkg/detector"
	"hklgo/pkg/errors"
	"hklgo/pkg/hklmath"
	"hklgo/pkg/parameter"
	"hklgo/pkg/sample"
	"hklgo/pkg/unit"
)

// DefaultWavelength is the incident wavelength a fresh geometry starts
// with, in nm (Cu K-alpha).
const DefaultWavelength = 1.54

// Source is the incident beam. The beam always travels along +X in the
// laboratory frame.
type Source struct {
	Wavelength float64 // nm
}

// Ki returns the incident wave vector, 2*pi/lambda along +X.
func (s Source) Ki() hklmath.Vector {
	return hklmath.Vector{hklmath.Tau / s.Wavelength, 0, 0}
}

// Geometry is an instrument configuration: named axes shared through
// an index table by one or more holders.
type Geometry struct {
	name    string
	source  Source
	axes    []*parameter.Parameter
	holders []*Holder
}

// New creates an empty geometry with the default wavelength. Axes are
// added through AddHolder and the holder Add* methods.
func New(name string) *Geometry {
	return &Geometry{
		name:   name,
		source: Source{Wavelength: DefaultWavelength},
	}
}

func (g *Geometry) Name() string { return g.name }

// Wavelength returns the source wavelength in nm.
func (g *Geometry) Wavelength() float64 { return g.source.Wavelength }

// SetWavelength replaces the source wavelength. Non positive or NaN
// wavelengths are rejected.
func (g *Geometry) SetWavelength(w float64) error {
	if math.IsNaN(w) || w <= 0 {
		return errors.New(errors.ErrInvalidValue, "invalid wavelength %g", w)
	}
	g.source.Wavelength = w
	return nil
}

// AddHolder appends a new empty rigid-body chain.
func (g *Geometry) AddHolder() *Holder {
	h := &Holder{g: g, q: hklmath.QuatIdentity()}
	g.holders = append(g.holders, h)
	return h
}

// Holder returns the i-th holder. Holder 0 is by convention the sample
// stack.
func (g *Geometry) Holder(i int) *Holder { return g.holders[i] }

func (g *Geometry) HolderCount() int { return len(g.holders) }

// Axes returns the shared axis table in declaration order.
func (g *Geometry) Axes() []*parameter.Parameter { return g.axes }

func (g *Geometry) axisIndex(name string) int {
	for i, a := range g.axes {
		if a.Name() == name {
			return i
		}
	}
	return -1
}

// AxisByName returns the named axis or nil.
func (g *Geometry) AxisByName(name string) *parameter.Parameter {
	if i := g.axisIndex(name); i >= 0 {
		return g.axes[i]
	}
	return nil
}

// AxisNames returns the axis names in table order.
func (g *Geometry) AxisNames() []string {
	names := make([]string, len(g.axes))
	for i, a := range g.axes {
		names[i] = a.Name()
	}
	return names
}

// AxisValuesGet returns the axis values in table order, expressed in
// the requested unit.
func (g *Geometry) AxisValuesGet(t unit.Type) []float64 {
	values := make([]float64, len(g.axes))
	for i, a := range g.axes {
		values[i] = a.Value(t)
	}
	return values
}

// AxisValuesSet moves every axis at once. The whole slice is validated
// before any axis moves, so a bad entry leaves the geometry untouched.
// Holder orientations are refreshed after the move.
func (g *Geometry) AxisValuesSet(values []float64, t unit.Type) error {
	if len(values) != len(g.axes) {
		return errors.New(errors.ErrInvalidValue,
			"expected %d axis values, got %d", len(g.axes), len(values))
	}
	for i, v := range values {
		if math.IsNaN(v) {
			return errors.New(errors.ErrInvalidValue,
				"value is NaN").WithAxis(g.axes[i].Name())
		}
	}
	for i, v := range values {
		g.axes[i].SetValue(v, t)
	}
	g.Update()
	return nil
}

// Update recomputes holder orientations when any axis moved since the
// last pass, then clears the dirty flags. Cheap when nothing moved.
func (g *Geometry) Update() {
	dirty := false
	for _, a := range g.axes {
		if a.Changed() {
			dirty = true
			break
		}
	}
	if !dirty {
		return
	}
	for _, h := range g.holders {
		h.update()
	}
	for _, a := range g.axes {
		a.ClearChanged()
	}
}

// Copy returns an independent geometry: axes are deep-copied, holders
// rebuilt on the same index chains.
func (g *Geometry) Copy() *Geometry {
	c := &Geometry{name: g.name, source: g.source}
	c.axes = make([]*parameter.Parameter, len(g.axes))
	for i, a := range g.axes {
		c.axes[i] = a.Copy()
	}
	c.holders = make([]*Holder, len(g.holders))
	for i, h := range g.holders {
		c.holders[i] = &Holder{
			g:   c,
			idx: append([]int(nil), h.idx...),
			q:   h.q,
		}
	}
	return c
}

// InitFrom copies the axis values, ranges and source of src into g.
// Both geometries must share the same descriptor.
func (g *Geometry) InitFrom(src *Geometry) error {
	if g.name != src.name || len(g.axes) != len(src.axes) {
		return errors.New(errors.ErrInvalidValue,
			"cannot initialize %q from %q", g.name, src.name)
	}
	for i := range g.axes {
		if err := g.axes[i].InitFrom(src.axes[i]); err != nil {
			return err
		}
	}
	g.source = src.source
	g.Update()
	return nil
}

// Distance returns the summed absolute axis differences between two
// configurations of the same instrument.
func (g *Geometry) Distance(o *Geometry) float64 {
	d := 0.0
	for i, a := range g.axes {
		d += math.Abs(a.Value(unit.Default) - o.axes[i].Value(unit.Default))
	}
	return d
}

// DistanceOrthodromic is Distance with periodic axes measured on the
// circle, so 359 degrees sits one degree from zero.
func (g *Geometry) DistanceOrthodromic(o *Geometry) float64 {
	d := 0.0
	for i, a := range g.axes {
		d += a.OrthodromicDistance(o.axes[i].Value(unit.Default))
	}
	return d
}

// IsValid reports whether every axis value lies inside its range.
func (g *Geometry) IsValid() bool {
	for _, a := range g.axes {
		if !a.IsValid() {
			return false
		}
	}
	return true
}

// IsValidRange is IsValid with periodic axes checked modulo their
// period.
func (g *Geometry) IsValidRange() bool {
	for _, a := range g.axes {
		if !a.IsValidRange() {
			return false
		}
	}
	return true
}

// ClosestFromGeometryWithRange moves g to ref's position, with each
// periodic axis folded to the in-range representative nearest g's
// current value. When any axis has no in-range representative the move
// is rejected and g is left untouched.
func (g *Geometry) ClosestFromGeometryWithRange(ref *Geometry) error {
	if len(g.axes) != len(ref.axes) {
		return errors.New(errors.ErrInvalidValue,
			"geometries %q and %q differ", g.name, ref.name)
	}
	values := make([]float64, len(g.axes))
	for i, a := range g.axes {
		v := ref.axes[i].ValueClosest(a)
		if math.IsNaN(v) {
			return errors.New(errors.ErrUndefinedClosest,
				"no in-range value near %g", a.Value(unit.Default)).
				WithAxis(a.Name())
		}
		values[i] = v
	}
	for i, a := range g.axes {
		a.SetValue(values[i], unit.Default)
	}
	g.Update()
	return nil
}

// Randomize draws every fitted axis uniformly from its range.
func (g *Geometry) Randomize(rng *rand.Rand) {
	for _, a := range g.axes {
		a.Randomize(rng)
	}
	g.Update()
}

// Ki returns the incident wave vector in the laboratory frame.
func (g *Geometry) Ki() hklmath.Vector {
	return g.source.Ki()
}

// Kf returns the diffracted wave vector seen by det: the incident
// vector rotated by the detector holder orientation.
func (g *Geometry) Kf(det *detector.Detector) hklmath.Vector {
	return g.Ki().Rotate(g.holders[det.HolderIndex()].q)
}

// SampleRotation returns the orientation of the sample holder.
func (g *Geometry) SampleRotation() quat.Number {
	return g.holders[0].q
}

// ProjectIntoReciprocal expresses a laboratory vector in the crystal
// reciprocal basis: v_abc = (R_sample . UB)^-1 . v.
func (g *Geometry) ProjectIntoReciprocal(s *sample.Sample, v hklmath.Vector) (hklmath.Vector, error) {
	var rub, inv mat.Dense
	rub.Mul(hklmath.QuatMatrix(g.holders[0].q), s.UB())
	if err := inv.Inverse(&rub); err != nil {
		return hklmath.Vector{}, errors.Wrap(err, errors.ErrLatticeParam,
			"singular orientation matrix")
	}
	var out mat.VecDense
	out.MulVec(&inv, mat.NewVecDense(3, []float64{v[0], v[1], v[2]}))
	return hklmath.Vector{out.AtVec(0), out.AtVec(1), out.AtVec(2)}, nil
}

// KiAbc returns the incident wave vector in the reciprocal basis of s.
func (g *Geometry) KiAbc(s *sample.Sample) (hklmath.Vector, error) {
	return g.ProjectIntoReciprocal(s, g.Ki())
}

// KfAbc returns the diffracted wave vector seen by det in the
// reciprocal basis of s.
func (g *Geometry) KfAbc(det *detector.Detector, s *sample.Sample) (hklmath.Vector, error) {
	return g.ProjectIntoReciprocal(s, g.Kf(det))
}
