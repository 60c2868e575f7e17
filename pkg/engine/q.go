package engine

import (
	"math"

	"hklgo/pkg/hklmath"
	"hklgo/pkg/log"
	"hklgo/pkg/unit"
)

// qmax is the largest reachable scattering vector norm, at full
// backscattering.
func qmax(wavelength float64) float64 {
	return 2 * hklmath.Tau / wavelength
}

// NewQ creates the one-axis scattering-vector engine driving the given
// detector axis.
func NewQ(logger *log.Logger, tthAxis string) *Engine {
	e := New("q", logger)
	e.AddPseudo("q", "norm of the scattering vector", unit.None, unit.None)

	axes := []string{tthAxis}
	e.AddMode(&Mode{
		Name:  "q",
		AxesR: axes,
		AxesW: axes,
		Functions: []Function{{
			Size: 1,
			F: func(e *Engine, f []float64) error {
				tth := hklmath.RestrictSymm(
					e.geometry.AxisByName(tthAxis).Value(unit.Default))
				q := qmax(e.geometry.Wavelength()) * math.Sin(tth/2)
				f[0] = e.pseudos[0].Value(unit.Default) - q
				return nil
			},
		}},
		Get: qGet,
	})
	return e
}

// qGet reads back q with its sign taken from the side of the direct
// beam the detector sits on.
func qGet(e *Engine) error {
	ki := e.geometry.Ki()
	kf := e.geometry.Kf(e.detector)
	theta := ki.Angle(kf) / 2
	if kf[1] < 0 || kf[2] < 0 {
		theta = -theta
	}
	return e.pseudos[0].SetValue(
		qmax(e.geometry.Wavelength())*math.Sin(theta), unit.Default)
}

// q2Values computes the polar readback shared by the q2 engine: the
// scattering vector norm and the angle of kf around the beam axis.
func q2Values(e *Engine) (q, alpha float64) {
	ki := e.geometry.Ki()
	kf := e.geometry.Kf(e.detector)
	theta := ki.Angle(kf) / 2
	q = qmax(e.geometry.Wavelength()) * math.Sin(theta)

	// project kf off the beam axis to read the azimuth
	p := kf.ProjectOnPlane(hklmath.Vector{1, 0, 0})
	alpha = math.Atan2(p[2], p[1])
	return q, alpha
}

// NewQ2 creates the two-axis polar scattering-vector engine (q and its
// azimuth around the beam) driving the two given detector axes.
func NewQ2(logger *log.Logger, axesW ...string) *Engine {
	e := New("q2", logger)
	e.AddPseudo("q", "norm of the scattering vector", unit.None, unit.None)
	e.AddPseudo("alpha", "azimuth of the scattering vector around the beam",
		unit.AngleRad, unit.AngleDeg)

	e.AddMode(&Mode{
		Name:  "q2",
		AxesR: axesW,
		AxesW: axesW,
		Functions: []Function{{
			Size: 2,
			F: func(e *Engine, f []float64) error {
				q, alpha := q2Values(e)
				f[0] = e.pseudos[0].Value(unit.Default) - q
				f[1] = e.pseudos[1].Value(unit.Default) - alpha
				return nil
			},
		}},
		Get: func(e *Engine) error {
			q, alpha := q2Values(e)
			e.pseudos[0].SetValue(q, unit.Default)
			e.pseudos[1].SetValue(alpha, unit.Default)
			return nil
		},
	})
	return e
}

// qperQparValues decomposes the scattering vector against the sample
// surface normal: the component along the rotated normal and the
// in-plane remainder, both signed.
func qperQparValues(e *Engine) (qper, qpar float64) {
	ki := e.geometry.Ki()
	q := e.geometry.Kf(e.detector).Sub(ki)

	n := surfaceNormal(e.mode).
		Rotate(e.geometry.SampleRotation()).
		Normalize()

	// npar fixes the sign convention of the in-plane component
	npar := ki.Cross(n)

	norm := q.Dot(n)
	qperV := n.Scale(norm)
	qper = qperV.Norm()
	if math.Signbit(norm) {
		qper = -qper
	}

	qparV := q.Sub(qperV)
	qpar = qparV.Norm()
	if math.Signbit(q.Dot(npar)) {
		qpar = -qpar
	}
	return qper, qpar
}

// NewQperQpar creates the surface-relative scattering-vector engine
// driving the two given detector axes.
func NewQperQpar(logger *log.Logger, axesW ...string) *Engine {
	e := New("qper_qpar", logger)
	e.AddPseudo("qper", "component of the scattering vector along the surface normal",
		unit.None, unit.None)
	e.AddPseudo("qpar", "in-plane component of the scattering vector",
		unit.None, unit.None)

	e.AddMode(&Mode{
		Name:       "qper_qpar",
		AxesR:      axesW,
		AxesW:      axesW,
		Parameters: SurfaceParameters(0, 1, 0),
		Functions: []Function{{
			Size: 2,
			F: func(e *Engine, f []float64) error {
				qper, qpar := qperQparValues(e)
				f[0] = e.pseudos[0].Value(unit.Default) - qper
				f[1] = e.pseudos[1].Value(unit.Default) - qpar
				return nil
			},
		}},
		Get: func(e *Engine) error {
			qper, qpar := qperQparValues(e)
			e.pseudos[0].SetValue(qper, unit.Default)
			e.pseudos[1].SetValue(qpar, unit.Default)
			return nil
		},
	})
	return e
}
