// Package parameter models one scalar degree of freedom of a
// positioning instrument: its value, validity range, unit pair, fit
// flag and the rigid-body transformation it contributes (a rotation
// about an axis, optionally offset from the origin, or a translation).
package parameter

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/num/quat"

	"hklgo/pkg/errors"
	"hklgo/pkg/hklmath"
	"hklgo/pkg/unit"
)

// Kind discriminates the transformation a parameter applies.
type Kind int

const (
	// None marks bookkeeping parameters (lattice lengths, pseudo-axis
	// values, mode parameters) that move nothing.
	None Kind = iota
	Rotation
	RotationWithOrigin
	Translation
)

func (k Kind) String() string {
	switch k {
	case Rotation:
		return "rotation"
	case RotationWithOrigin:
		return "rotation-with-origin"
	case Translation:
		return "translation"
	default:
		return "none"
	}
}

// Transform is the geometric action of an axis.
type Transform struct {
	Kind   Kind
	Axis   hklmath.Vector
	Origin hklmath.Vector
}

// Compatible reports whether two transforms describe the same physical
// axis. Two axes of the same name inside one geometry must be
// compatible; anything else is a broken instrument descriptor.
func (t Transform) Compatible(o Transform) bool {
	if t.Kind != o.Kind {
		return false
	}
	return t.Axis.Sub(o.Axis).IsNull() && t.Origin.Sub(o.Origin).IsNull()
}

// Parameter is one degree of freedom. Values are stored in the default
// unit (radian, meter); the user unit only affects Value/SetValue with
// unit.User.
type Parameter struct {
	name        string
	description string
	value       float64
	min, max    float64
	unit        unit.Unit
	userUnit    unit.Unit
	fit         bool
	changed     bool
	period      float64 // 0 for non periodic parameters
	transform   Transform
}

// New creates a generic (non moving) parameter. Used for lattice
// parameters, pseudo axes and mode parameters.
func New(name, description string, min, value, max float64, fit bool, u, pu unit.Unit) (*Parameter, error) {
	if !unit.Compatible(u, pu) {
		return nil, errors.New(errors.ErrInvalidValue,
			"units %q and %q are not compatible", u.Name, pu.Name).WithAxis(name)
	}
	if math.IsNaN(value) || math.IsNaN(min) || math.IsNaN(max) || min > max {
		return nil, errors.New(errors.ErrInvalidValue,
			"invalid range [%g, %g] or value %g", min, max, value).WithAxis(name)
	}
	return &Parameter{
		name:        name,
		description: description,
		value:       value,
		min:         min,
		max:         max,
		unit:        u,
		userUnit:    pu,
		fit:         fit,
		changed:     true,
	}, nil
}

// NewRotation creates a rotation axis around v with the default
// [-pi, pi] range and a 2*pi period.
func NewRotation(name string, v hklmath.Vector, userUnit unit.Unit) *Parameter {
	return &Parameter{
		name:      name,
		min:       -math.Pi,
		max:       math.Pi,
		unit:      unit.AngleRad,
		userUnit:  userUnit,
		fit:       true,
		changed:   true,
		period:    hklmath.Tau,
		transform: Transform{Kind: Rotation, Axis: v},
	}
}

// NewRotationWithOrigin creates a rotation axis around v passing
// through origin instead of the laboratory origin.
func NewRotationWithOrigin(name string, v, origin hklmath.Vector, userUnit unit.Unit) *Parameter {
	p := NewRotation(name, v, userUnit)
	p.transform = Transform{Kind: RotationWithOrigin, Axis: v, Origin: origin}
	return p
}

// NewTranslation creates a translation axis along v with an unbounded
// range and no periodicity.
func NewTranslation(name string, v hklmath.Vector, userUnit unit.Unit) *Parameter {
	return &Parameter{
		name:      name,
		min:       -math.MaxFloat64,
		max:       math.MaxFloat64,
		unit:      unit.LengthM,
		userUnit:  userUnit,
		fit:       true,
		changed:   true,
		transform: Transform{Kind: Translation, Axis: v},
	}
}

func (p *Parameter) Name() string         { return p.name }
func (p *Parameter) Description() string  { return p.description }
func (p *Parameter) Unit() unit.Unit      { return p.unit }
func (p *Parameter) UserUnit() unit.Unit  { return p.userUnit }
func (p *Parameter) Transform() Transform { return p.transform }
func (p *Parameter) Period() float64      { return p.period }

// Fit reports whether the parameter participates in fitting.
func (p *Parameter) Fit() bool       { return p.fit }
func (p *Parameter) SetFit(fit bool) { p.fit = fit }

// Changed reports whether the value moved since the last geometry
// update pass.
func (p *Parameter) Changed() bool { return p.changed }

// ClearChanged is called by the owning geometry once holder
// orientations have been recomputed.
func (p *Parameter) ClearChanged() { p.changed = false }

// Value returns the current value expressed in the requested unit.
func (p *Parameter) Value(t unit.Type) float64 {
	if t == unit.User {
		return p.value * unit.Factor(p.unit, p.userUnit)
	}
	return p.value
}

// SetValue converts v to the default unit and stores it, marking the
// parameter dirty. NaN is rejected and leaves the value untouched. The
// validity range is advisory and deliberately not enforced here.
func (p *Parameter) SetValue(v float64, t unit.Type) error {
	if math.IsNaN(v) {
		return errors.New(errors.ErrInvalidValue, "value is NaN").WithAxis(p.name)
	}
	if t == unit.User {
		v /= unit.Factor(p.unit, p.userUnit)
	}
	p.value = v
	p.changed = true
	return nil
}

// MinMax returns the range bounds in the requested unit.
func (p *Parameter) MinMax(t unit.Type) (min, max float64) {
	if t == unit.User {
		f := unit.Factor(p.unit, p.userUnit)
		return p.min * f, p.max * f
	}
	return p.min, p.max
}

// SetMinMax replaces the validity range.
func (p *Parameter) SetMinMax(min, max float64, t unit.Type) error {
	if math.IsNaN(min) || math.IsNaN(max) || min > max {
		return errors.New(errors.ErrInvalidValue,
			"invalid range [%g, %g]", min, max).WithAxis(p.name)
	}
	if t == unit.User {
		f := unit.Factor(p.unit, p.userUnit)
		min /= f
		max /= f
	}
	p.min = min
	p.max = max
	return nil
}

// IsValid reports whether the value lies inside [min, max], bounds
// inclusive.
func (p *Parameter) IsValid() bool {
	return p.value >= p.min && p.value <= p.max
}

// IsValidRange is the periodicity-aware validity check used before
// accepting a range-derived solution: for periodic parameters some
// period-shifted representative of the value must lie inside the
// range.
func (p *Parameter) IsValidRange() bool {
	if p.period == 0 {
		return p.IsValid()
	}
	smallest := p.smallestInRange()
	return smallest <= p.max+hklmath.Epsilon
}

// smallestInRange returns the representative of value shifted by whole
// periods into [min, min+period).
func (p *Parameter) smallestInRange() float64 {
	return p.value - p.period*math.Floor((p.value-p.min)/p.period)
}

// SetSmallestInRange shifts the value by whole periods down to the
// smallest representative still at or above min. Non periodic
// parameters are left untouched.
func (p *Parameter) SetSmallestInRange() {
	if p.period == 0 {
		return
	}
	p.value = p.smallestInRange()
	p.changed = true
}

// ValueClosest returns the representative of p's value (shifted by
// whole periods) that lies within p's range and is nearest to ref's
// value. It returns NaN when no representative falls inside the range,
// signalling that "closest" is undefined for this axis.
func (p *Parameter) ValueClosest(ref *Parameter) float64 {
	if p.period == 0 {
		return p.value
	}

	closest := math.NaN()
	best := math.Inf(1)
	for v := p.smallestInRange(); v <= p.max+hklmath.Epsilon; v += p.period {
		if d := math.Abs(v - ref.value); d < best {
			best = d
			closest = v
		}
	}
	return closest
}

// OrthodromicDistance returns the shortest distance between the
// current value and v: modulo the period for periodic parameters, the
// plain absolute difference otherwise.
func (p *Parameter) OrthodromicDistance(v float64) float64 {
	d := math.Abs(p.value - v)
	if p.period == 0 {
		return d
	}
	d = math.Mod(d, p.period)
	if d > p.period/2 {
		d = p.period - d
	}
	return d
}

// IsPermutable reports whether the solution enumerator should branch
// over this axis: free, periodic, and with a range wide enough to hold
// more than one representative of a value.
func (p *Parameter) IsPermutable() bool {
	return p.fit && p.period != 0 && p.max-p.min > p.period
}

// Quaternion returns the rotation contributed by the current value,
// or ok=false for transformations that do not rotate.
func (p *Parameter) Quaternion() (quat.Number, bool) {
	switch p.transform.Kind {
	case Rotation, RotationWithOrigin:
		return hklmath.RotationQuat(p.transform.Axis, p.value), true
	default:
		return quat.Number{}, false
	}
}

// TransformApply applies the parameter's transformation at its current
// value to a point.
func (p *Parameter) TransformApply(v hklmath.Vector) hklmath.Vector {
	switch p.transform.Kind {
	case Rotation:
		q, _ := p.Quaternion()
		return v.Rotate(q)
	case RotationWithOrigin:
		q, _ := p.Quaternion()
		o := p.transform.Origin
		return o.Add(v.Sub(o).Rotate(q))
	case Translation:
		return v.Add(p.transform.Axis.Scale(p.value))
	default:
		return v
	}
}

// Randomize draws a uniform value from the range for fitted parameters
// with a finite range.
func (p *Parameter) Randomize(rng *rand.Rand) {
	if !p.fit || math.IsInf(p.max-p.min, 0) || p.max-p.min > 1e18 {
		return
	}
	p.value = p.min + rng.Float64()*(p.max-p.min)
	p.changed = true
}

// Copy returns an independent copy of the parameter.
func (p *Parameter) Copy() *Parameter {
	c := *p
	return &c
}

// InitFrom copies value, range and flags from src. Both parameters
// must describe the same axis.
func (p *Parameter) InitFrom(src *Parameter) error {
	if p.name != src.name || !p.transform.Compatible(src.transform) {
		return errors.New(errors.ErrInvalidValue,
			"cannot initialize from parameter %q", src.name).WithAxis(p.name)
	}
	p.value = src.value
	p.min = src.min
	p.max = src.max
	p.fit = src.fit
	p.changed = true
	return nil
}
