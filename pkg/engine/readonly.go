package engine

import (
	"math"

	"hklgo/pkg/hklmath"
	"hklgo/pkg/log"
	"hklgo/pkg/unit"
)

// beamAngles computes the grazing angle between a beam vector and the
// rotated sample surface, plus the azimuth of the rotated normal
// around the beam axis.
func beamAngles(e *Engine, beam hklmath.Vector) (grazing, azimuth float64) {
	n := surfaceNormal(e.mode).Rotate(e.geometry.SampleRotation())
	grazing = math.Pi/2 - n.Angle(beam)
	p := n.ProjectOnPlane(hklmath.Vector{1, 0, 0})
	azimuth = math.Atan2(p[2], p[1])
	return grazing, azimuth
}

func newReadonly(logger *log.Logger, name, desc string, axesR []string,
	surface []float64, get func(e *Engine) error) *Engine {

	e := New(name, logger)
	e.AddPseudo(name, desc, unit.AngleRad, unit.AngleDeg)
	e.AddPseudo("azimuth", "azimuth of the sample surface around the beam",
		unit.AngleRad, unit.AngleDeg)

	e.AddMode(&Mode{
		Name:       name,
		AxesR:      axesR,
		Parameters: SurfaceParameters(surface[0], surface[1], surface[2]),
		Get:        get,
	})
	return e
}

// NewIncidence creates the read-only engine reporting the grazing
// angle of the incident beam on the sample surface. axesR names the
// sample axes the value depends on; surface is the default normal.
func NewIncidence(logger *log.Logger, axesR []string, surface []float64) *Engine {
	return newReadonly(logger, "incidence",
		"grazing angle of the incident beam on the sample surface",
		axesR, surface,
		func(e *Engine) error {
			incidence, azimuth := beamAngles(e, e.geometry.Ki())
			e.pseudos[0].SetValue(incidence, unit.Default)
			e.pseudos[1].SetValue(azimuth, unit.Default)
			return nil
		})
}

// NewEmergence creates the read-only engine reporting the grazing
// angle of the diffracted beam leaving the sample surface.
func NewEmergence(logger *log.Logger, axesR []string, surface []float64) *Engine {
	return newReadonly(logger, "emergence",
		"grazing angle of the diffracted beam leaving the sample surface",
		axesR, surface,
		func(e *Engine) error {
			emergence, azimuth := beamAngles(e, e.geometry.Kf(e.detector))
			e.pseudos[0].SetValue(emergence, unit.Default)
			e.pseudos[1].SetValue(azimuth, unit.Default)
			return nil
		})
}
