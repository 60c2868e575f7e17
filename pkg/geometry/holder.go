package geometry

import (
	"gonum.org/v1/gonum/num/quat"

	"hklgo/pkg/errors"
	"hklgo/pkg/hklmath"
	"hklgo/pkg/parameter"
	"hklgo/pkg/unit"
)

// Holder is one rigid-body stack of axes: the sample circles or a
// detector arm. Holders do not own their axes, they reference slots in
// the geometry axis table so two holders can share a physical axis.
type Holder struct {
	g   *Geometry
	idx []int
	q   quat.Number
}

// add registers p in the geometry axis table and appends it to the
// holder chain. Instrument descriptors are static; a redeclared axis
// with an incompatible transform or a duplicate inside one chain is a
// programming error and aborts.
func (h *Holder) add(p *parameter.Parameter) *parameter.Parameter {
	i := h.g.axisIndex(p.Name())
	if i < 0 {
		i = len(h.g.axes)
		h.g.axes = append(h.g.axes, p)
	} else {
		existing := h.g.axes[i]
		if !existing.Transform().Compatible(p.Transform()) {
			errors.Fatalf("axis %q redeclared with an incompatible transformation", p.Name())
		}
		p = existing
	}
	for _, j := range h.idx {
		if j == i {
			errors.Fatalf("axis %q added twice to the same holder", p.Name())
		}
	}
	h.idx = append(h.idx, i)
	return p
}

// AddRotation appends a rotation axis around v to the holder chain.
func (h *Holder) AddRotation(name string, v hklmath.Vector, userUnit unit.Unit) *parameter.Parameter {
	return h.add(parameter.NewRotation(name, v, userUnit))
}

// AddRotationWithOrigin appends a rotation axis around v passing
// through origin.
func (h *Holder) AddRotationWithOrigin(name string, v, origin hklmath.Vector, userUnit unit.Unit) *parameter.Parameter {
	return h.add(parameter.NewRotationWithOrigin(name, v, origin, userUnit))
}

// AddTranslation appends a translation axis along v.
func (h *Holder) AddTranslation(name string, v hklmath.Vector, userUnit unit.Unit) *parameter.Parameter {
	return h.add(parameter.NewTranslation(name, v, userUnit))
}

// update recomputes the cumulative orientation of the chain: the
// ordered product of the axis rotations, first axis leftmost.
// Translations contribute no rotation and are skipped.
func (h *Holder) update() {
	h.q = hklmath.QuatIdentity()
	for _, i := range h.idx {
		if pq, ok := h.g.axes[i].Quaternion(); ok {
			h.q = quat.Mul(h.q, pq)
		}
	}
}

// Orientation returns the cumulative rotation of the chain as of the
// last geometry update.
func (h *Holder) Orientation() quat.Number {
	return h.q
}

// Axes returns the holder's axes in chain order.
func (h *Holder) Axes() []*parameter.Parameter {
	axes := make([]*parameter.Parameter, len(h.idx))
	for k, i := range h.idx {
		axes[k] = h.g.axes[i]
	}
	return axes
}

// TransformApply moves a point through the full chain, innermost axis
// first, so translations and offset rotations compose correctly.
func (h *Holder) TransformApply(v hklmath.Vector) hklmath.Vector {
	for k := len(h.idx) - 1; k >= 0; k-- {
		v = h.g.axes[h.idx[k]].TransformApply(v)
	}
	return v
}
