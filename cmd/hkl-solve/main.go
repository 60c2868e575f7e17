// hkl-solve computes diffractometer axis positions for a requested
// reciprocal-space point.
//
// Usage:
//
//	hkl-solve -h 1 -k 1 -l 0 [options]
//
// Options:
//
//	-geometry string   Instrument: e4cv or sixs (default "e4cv")
//	-mode string       hkl mode (default: the instrument default)
//	-wavelength float  Incident wavelength in nm (default 1.54)
//	-lattice float     Cubic lattice constant in nm (default 1.54)
//	-max int           Maximum number of solutions to print (default 10)
//	-trace             Enable solver tracing
//
// Examples:
//
//	# bissector solutions for the (1,1,0) reflection
//	hkl-solve -h 1 -k 1 -l 0
//
//	# keep omega fixed instead
//	hkl-solve -h 1 -k 1 -l 0 -mode constant_omega
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"hklgo/pkg/detector"
	"hklgo/pkg/e4cv"
	"hklgo/pkg/engine"
	"hklgo/pkg/geometry"
	"hklgo/pkg/lattice"
	"hklgo/pkg/log"
	"hklgo/pkg/sample"
	"hklgo/pkg/sixs"
	"hklgo/pkg/unit"
)

func main() {
	geom := flag.String("geometry", "e4cv", "Instrument: e4cv or sixs")
	mode := flag.String("mode", "", "hkl mode (default: the instrument default)")
	wavelength := flag.Float64("wavelength", 1.54, "Incident wavelength in nm")
	a := flag.Float64("lattice", 1.54, "Cubic lattice constant in nm")
	h := flag.Float64("h", 0, "h Miller index")
	k := flag.Float64("k", 0, "k Miller index")
	l := flag.Float64("l", 0, "l Miller index")
	max := flag.Int("max", 10, "Maximum number of solutions to print")
	trace := flag.Bool("trace", false, "Enable solver tracing")

	flag.Parse()

	level := log.INFO
	if *trace {
		level = log.DEBUG
	}
	logger := log.New(os.Stderr, level)

	var g *geometry.Geometry
	var det *detector.Detector
	var engines *engine.List
	switch *geom {
	case "e4cv":
		g = e4cv.NewGeometry()
		det = e4cv.NewDetector()
		engines = e4cv.NewEngines(logger)
	case "sixs":
		g = sixs.NewGeometry()
		det = sixs.NewDetector()
		engines = sixs.NewEngines(logger)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown geometry %q\n", *geom)
		flag.Usage()
		os.Exit(1)
	}

	if err := g.SetWavelength(*wavelength); err != nil {
		fatal(err)
	}

	cell, err := lattice.Cubic(*a)
	if err != nil {
		fatal(err)
	}
	smp := sample.NewWithLattice("crystal", cell)

	engines.Init(g, det, smp)
	hkl := engines.EngineByName("hkl")
	if *mode != "" {
		if err := hkl.SelectMode(*mode); err != nil {
			fatal(err)
		}
	}

	logger.Info("solving", log.Fields{
		"geometry": g.Name(),
		"mode":     hkl.Mode().Name,
		"hkl":      fmt.Sprintf("(%g, %g, %g)", *h, *k, *l),
	})

	if err := hkl.Set([]float64{*h, *k, *l}, unit.Default); err != nil {
		fatal(err)
	}

	names := g.AxisNames()
	fmt.Printf("%4s  %s\n", "#", strings.Join(names, "  "))
	for i, it := range engines.Solutions().Items() {
		if i >= *max {
			fmt.Printf("... %d more\n", engines.Solutions().Len()-*max)
			break
		}
		values := it.Geometry().AxisValuesGet(unit.User)
		row := make([]string, len(values))
		for j, v := range values {
			row[j] = fmt.Sprintf("%9.4f", v)
		}
		fmt.Printf("%4d  %s\n", i+1, strings.Join(row, "  "))
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
