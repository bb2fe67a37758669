// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package ephys derives the electrophysiological quantities of a single
compartment -- surface area, absolute capacitance, leak conductance, axial
coupling conductances -- from user-supplied geometry or absolute values.

A compartment is either dimensioned (geometry plus specific membrane values)
or dimensionless (absolute capacitance / leak conductance, no geometry);
mixing the two regimes in one Props is a contract violation reported at
construction.  Property reads on an incompletely specified compartment never
fail hard: they return a missing-value error (or false) and log a diagnostic,
so that model assembly can decide whether the absence matters.
*/
package ephys

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/unit"

	"github.com/emer/dendrite/dlog"
	"github.com/emer/dendrite/units"
)

// ErrMissing reports a property that cannot be resolved because required
// parameters were never supplied.  It is a soft condition: callers either
// omit the value or escalate at assembly level.
var ErrMissing = errors.New("missing parameters")

// DimensionlessError reports an operation that requires spatial geometry on
// a compartment defined only by absolute capacitance / leak values, or
// redundant geometry supplied to such a compartment.  Always fatal.
type DimensionlessError struct {
	Name string // compartment name
	Op   string // offending operation or parameter set
}

func (e *DimensionlessError) Error() string {
	return fmt.Sprintf("ephys: %s is invalid for dimensionless compartment %q: provide [length, diameter, cm, gl, r_axial] instead of [cm_abs, gl_abs], or use explicit values", e.Op, e.Name)
}

// Props holds the geometric and electrical parameters of one compartment.
// Zero-valued fields are treated as not set.
type Props struct {
	Name        string                    `desc:"compartment name, used to suffix parameter names"`
	Length      unit.Length               `desc:"compartment length"`
	Diameter    unit.Length               `desc:"compartment diameter"`
	Cm          units.SpecificCapacitance `desc:"specific membrane capacitance (usually uF/cm^2)"`
	Gl          units.SpecificConductance `desc:"specific leak conductance (usually uS/cm^2)"`
	CmAbs       unit.Capacitance          `desc:"absolute capacitance (usually pF) -- makes the compartment dimensionless"`
	GlAbs       unit.Conductance          `desc:"absolute leak conductance (usually nS) -- makes the compartment dimensionless"`
	RAxial      units.Resistivity         `desc:"axial resistivity (usually Ohm*cm)"`
	VRest       unit.Voltage              `desc:"resting membrane potential"`
	ScaleFactor float64                   `desc:"global area scale factor, default 1"`
	SpineFactor float64                   `desc:"dendritic area scale factor accounting for spines, default 1"`

	dimensionless bool
}

// New validates the supplied properties and returns them with area factors
// defaulted to 1.  Providing any geometric parameter together with absolute
// capacitance / leak values is a DimensionlessError.
func New(p Props) (*Props, error) {
	p.dimensionless = p.CmAbs != 0 || p.GlAbs != 0
	if p.dimensionless &&
		(p.Length != 0 || p.Diameter != 0 || p.Cm != 0 || p.Gl != 0 || p.RAxial != 0) {
		return nil, &DimensionlessError{Name: p.Name, Op: "setting [length, diameter, cm, gl, r_axial]"}
	}
	if p.ScaleFactor == 0 {
		p.ScaleFactor = 1
	}
	if p.SpineFactor == 0 {
		p.SpineFactor = 1
	}
	return &p, nil
}

// Dimensionless reports whether the compartment was defined by absolute
// capacitance / leak values and therefore carries no spatial geometry.
func (pp *Props) Dimensionless() bool { return pp.dimensionless }

// Area returns the compartment's surface area (open cylinder):
// pi * length * diameter * scale_factor * spine_factor.
// It reports false, with a diagnostic, for dimensionless compartments and
// when length or diameter are missing.
func (pp *Props) Area() (units.Area, bool) {
	if pp.dimensionless {
		dlog.Warnw("surface area is not defined for a dimensionless compartment", "name", pp.Name)
		return 0, false
	}
	if pp.Length == 0 || pp.Diameter == 0 {
		dlog.Warnw("missing [length, diameter], could not calculate area", "name", pp.Name)
		return 0, false
	}
	a := math.Pi * float64(pp.Length) * float64(pp.Diameter) * pp.ScaleFactor * pp.SpineFactor
	return units.Area(a), true
}

// Capacitance returns the compartment's absolute capacitance: the stored
// absolute value for dimensionless compartments, else area * cm.
func (pp *Props) Capacitance() (unit.Capacitance, bool) {
	if pp.dimensionless {
		if pp.CmAbs != 0 {
			return pp.CmAbs, true
		}
		dlog.Warnw("missing [cm_abs], could not resolve capacitance", "name", pp.Name)
		return 0, false
	}
	area, ok := pp.Area()
	if !ok || pp.Cm == 0 {
		dlog.Warnw("could not calculate capacitance", "name", pp.Name)
		return 0, false
	}
	return unit.Capacitance(float64(area) * float64(pp.Cm)), true
}

// GLeak returns the compartment's absolute leak conductance: the stored
// absolute value for dimensionless compartments, else area * gl.
func (pp *Props) GLeak() (unit.Conductance, bool) {
	if pp.dimensionless {
		if pp.GlAbs != 0 {
			return pp.GlAbs, true
		}
		dlog.Warnw("missing [gl_abs], could not resolve leak conductance", "name", pp.Name)
		return 0, false
	}
	area, ok := pp.Area()
	if !ok || pp.Gl == 0 {
		dlog.Warnw("could not calculate leak conductance", "name", pp.Name)
		return 0, false
	}
	return unit.Conductance(float64(area) * float64(pp.Gl)), true
}

// axialResistance is the end-to-end axial resistance of the cylinder in
// ohms: (4 * r_axial * length) / (pi * diameter^2).
func (pp *Props) axialResistance() (float64, error) {
	if pp.Length == 0 || pp.Diameter == 0 || pp.RAxial == 0 {
		return 0, fmt.Errorf("ephys: %w: [length, diameter, r_axial] required for %q", ErrMissing, pp.Name)
	}
	d := float64(pp.Diameter)
	return (4 * float64(pp.RAxial) * float64(pp.Length)) / (math.Pi * d * d), nil
}

// CylinderConductance returns the coupling conductance through the whole
// cylindrical compartment, 1 / axial resistance.  It is invalid (a
// DimensionlessError) for dimensionless compartments; missing geometry is a
// soft ErrMissing.
func (pp *Props) CylinderConductance() (unit.Conductance, error) {
	if pp.dimensionless {
		return 0, &DimensionlessError{Name: pp.Name, Op: "cylinder conductance"}
	}
	ri, err := pp.axialResistance()
	if err != nil {
		return 0, err
	}
	return unit.Conductance(1 / ri), nil
}

// CouplingConductance returns the conductance between the centers of two
// adjacent cylindrical compartments: each side contributes half of its axial
// resistance, 1 / ((r_a + r_b) / 2).  It is invalid (a DimensionlessError)
// when either compartment is dimensionless -- connect those with an explicit
// conductance instead.
func CouplingConductance(a, b *Props) (unit.Conductance, error) {
	if a.dimensionless {
		return 0, &DimensionlessError{Name: a.Name, Op: "coupling conductance"}
	}
	if b.dimensionless {
		return 0, &DimensionlessError{Name: b.Name, Op: "coupling conductance"}
	}
	ra, err := a.axialResistance()
	if err != nil {
		return 0, err
	}
	rb, err := b.axialResistance()
	if err != nil {
		return 0, err
	}
	return unit.Conductance(1 / ((ra + rb) / 2)), nil
}

// Parameters returns the compartment's resolved membrane parameters --
// EL_<name>, C_<name>, gL_<name> -- merged with the supplied constants
// table.  Entries that cannot be resolved are omitted with a diagnostic; a
// parameter read never fails hard.
func (pp *Props) Parameters(c Constants) units.Parameters {
	out := units.Parameters{}
	sfx := ""
	if pp.Name != "" {
		sfx = "_" + pp.Name
	}
	if pp.VRest != 0 {
		out["EL"+sfx] = pp.VRest
	} else {
		dlog.Errorw("could not resolve resting potential", "name", pp.Name, "param", "EL"+sfx)
	}
	if cm, ok := pp.Capacitance(); ok {
		out["C"+sfx] = cm
	} else {
		dlog.Errorw("could not resolve capacitance", "name", pp.Name, "param", "C"+sfx)
	}
	if gl, ok := pp.GLeak(); ok {
		out["gL"+sfx] = gl
	} else {
		dlog.Errorw("could not resolve leak conductance", "name", pp.Name, "param", "gL"+sfx)
	}
	out.Merge(c.Parameters())
	return out
}
