package geometry

import (
	"hklgo/pkg/hklmath"
	"hklgo/pkg/unit"
)

// ListItem wraps one geometry held by a List. Engines attach the
// pseudo-axis readback to the item when they post-process solutions.
type ListItem struct {
	geometry *Geometry
}

func (it *ListItem) Geometry() *Geometry { return it.geometry }

// MultiplyFn derives extra solutions from one list item, typically by
// exploiting an instrument symmetry, and appends them through Add.
type MultiplyFn func(l *List, it *ListItem)

// List collects computed geometries, deduplicated on insertion and
// sortable by distance to a reference position.
type List struct {
	items    []*ListItem
	multiply MultiplyFn
}

func NewList() *List { return &List{} }

// SetMultiply installs the symmetry hook applied by Multiply.
func (l *List) SetMultiply(fn MultiplyFn) { l.multiply = fn }

func (l *List) Len() int { return len(l.items) }

// Items returns the backing slice, valid until the next mutation.
func (l *List) Items() []*ListItem { return l.items }

// First returns the first item, or nil when the list is empty. After a
// Sort this is the solution closest to the reference.
func (l *List) First() *ListItem {
	if len(l.items) == 0 {
		return nil
	}
	return l.items[0]
}

// Next returns the item following it, or nil at the end.
func (l *List) Next(it *ListItem) *ListItem {
	for i, cur := range l.items {
		if cur == it && i+1 < len(l.items) {
			return l.items[i+1]
		}
	}
	return nil
}

// Reset drops every item but keeps the multiply hook.
func (l *List) Reset() { l.items = nil }

// Add appends an independent copy of g unless an equivalent position
// (orthodromic distance below the shared tolerance) is already stored.
func (l *List) Add(g *Geometry) {
	g.Update()
	for _, it := range l.items {
		if it.geometry.DistanceOrthodromic(g) < hklmath.Epsilon {
			return
		}
	}
	l.items = append(l.items, &ListItem{geometry: g.Copy()})
}

// Sort orders the items by ascending distance to ref. Items within the
// shared tolerance of each other keep their insertion order, so the
// ranking is reproducible.
func (l *List) Sort(ref *Geometry) {
	d := make([]float64, len(l.items))
	for i, it := range l.items {
		d[i] = ref.Distance(it.geometry)
	}
	for i := 1; i < len(l.items); i++ {
		it, di := l.items[i], d[i]
		j := i - 1
		for j >= 0 && d[j] > di+hklmath.Epsilon {
			l.items[j+1], d[j+1] = l.items[j], d[j]
			j--
		}
		l.items[j+1], d[j+1] = it, di
	}
}

// RemoveInvalid drops items with any axis outside its range, periodic
// axes checked modulo their period.
func (l *List) RemoveInvalid() {
	valid := l.items[:0]
	for _, it := range l.items {
		if it.geometry.IsValidRange() {
			valid = append(valid, it)
		}
	}
	l.items = valid
}

// Multiply applies the installed symmetry hook to every item present
// when the call starts. Items appended by the hook are not themselves
// multiplied.
func (l *List) Multiply() {
	if l.multiply == nil {
		return
	}
	n := len(l.items)
	for i := 0; i < n; i++ {
		l.multiply(l, l.items[i])
	}
}

// MultiplyFromRange expands every item over the periodic images of its
// permutable axes, appending each distinct in-range combination.
func (l *List) MultiplyFromRange() {
	n := len(l.items)
	for i := 0; i < n; i++ {
		l.expandFromRange(l.items[i].geometry)
	}
}

// AddWithPermutations adds g and all its distinct periodic images in
// one pass. This is what the inverse solvers call for each root.
func (l *List) AddWithPermutations(g *Geometry) {
	l.Add(g)
	l.expandFromRange(g)
}

func (l *List) expandFromRange(ref *Geometry) {
	c := ref.Copy()
	for _, a := range c.axes {
		if a.IsPermutable() {
			a.SetSmallestInRange()
		}
	}
	c.Update()
	l.permR(ref, c, 0)
}

// permR walks the axis table depth-first: every permutable axis
// branches over its period-shifted representatives, the leaves keep
// the combinations that are in range and distinct from the reference.
func (l *List) permR(ref, g *Geometry, i int) {
	if i == len(g.axes) {
		g.Update()
		if g.Distance(ref) > hklmath.Epsilon && g.IsValidRange() {
			l.Add(g)
		}
		return
	}
	a := g.axes[i]
	if !a.IsPermutable() {
		l.permR(ref, g, i+1)
		return
	}
	v0 := a.Value(unit.Default)
	_, max := a.MinMax(unit.Default)
	for v := v0; v <= max+hklmath.Epsilon; v += a.Period() {
		a.SetValue(v, unit.Default)
		l.permR(ref, g, i+1)
	}
	a.SetValue(v0, unit.Default)
}
