// Package detector models the detection side of an instrument. Only
// point (0D) detectors exist for now; a detector is essentially the
// index of the geometry holder carrying it.
package detector

// Detector identifies which rigid-body holder of a geometry the
// diffracted beam is measured on.
type Detector struct {
	holder int
}

// New0D creates a point detector attached to the holder at idx
// (holder 0 is by convention the sample stack, detectors ride the
// later holders).
func New0D(idx int) *Detector {
	return &Detector{holder: idx}
}

// HolderIndex returns the geometry holder index the detector rides.
func (d *Detector) HolderIndex() int {
	return d.holder
}
