// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package units provides the physical-quantity helpers used throughout dendrite.
All quantities are float64 SI values carried in gonum's unit types
(unit.Voltage, unit.Capacitance, unit.Conductance, ...), so dimensional
consistency is enforced by the type system rather than by runtime unit
algebra.  This package adds the derived dimensions gonum does not predefine
(surface area, axial resistivity, specific capacitance / conductance),
constructors for the magnitudes conventional in cellular neuroscience
(mV, pF, nS, ms, um, uF/cm^2, ...), the Parameters map used for engine
namespaces, and the step-count quantization for event timing.
*/
package units

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/unit"
)

// Constructors for conventional magnitudes.  Each returns a plain SI-valued
// gonum quantity; e.g. MV(-70) is -0.07 volt.

// MV returns a voltage given in millivolts.
func MV(v float64) unit.Voltage { return unit.Voltage(v * 1e-3) }

// PF returns a capacitance given in picofarads.
func PF(v float64) unit.Capacitance { return unit.Capacitance(v * 1e-12) }

// NS returns a conductance given in nanosiemens.
func NS(v float64) unit.Conductance { return unit.Conductance(v * 1e-9) }

// US returns a conductance given in microsiemens.
func US(v float64) unit.Conductance { return unit.Conductance(v * 1e-6) }

// PA returns a current given in picoamperes.
func PA(v float64) unit.Current { return unit.Current(v * 1e-12) }

// Ms returns a time given in milliseconds.
func Ms(v float64) unit.Time { return unit.Time(v * 1e-3) }

// Us returns a time given in microseconds.
func Us(v float64) unit.Time { return unit.Time(v * 1e-6) }

// Um returns a length given in micrometres.
func Um(v float64) unit.Length { return unit.Length(v * 1e-6) }

// UFPerCm2 returns a specific capacitance given in microfarads per square
// centimetre (1 uF/cm^2 == 1e-2 F/m^2).
func UFPerCm2(v float64) SpecificCapacitance { return SpecificCapacitance(v * 1e-2) }

// USPerCm2 returns a specific conductance given in microsiemens per square
// centimetre (1 uS/cm^2 == 1e-2 S/m^2).
func USPerCm2(v float64) SpecificConductance { return SpecificConductance(v * 1e-2) }

// OhmCm returns an axial resistivity given in ohm-centimetres
// (1 ohm*cm == 1e-2 ohm*m).
func OhmCm(v float64) Resistivity { return Resistivity(v * 1e-2) }

// Area is a surface area in square metres.
type Area float64

// Unit converts the Area to a *unit.Unit for dimensional analysis.
func (a Area) Unit() *unit.Unit {
	return unit.New(float64(a), unit.Dimensions{unit.LengthDim: 2})
}

// From converts the supplied quantity to an Area, returning an error on
// dimension mismatch.
func (a *Area) From(u unit.Uniter) error {
	if !unit.DimensionsMatch(u, Area(0)) {
		*a = Area(math.NaN())
		return fmt.Errorf("units: %v is not an area", u.Unit())
	}
	*a = Area(u.Unit().Value())
	return nil
}

func (a Area) String() string { return fmt.Sprintf("%g m^2", float64(a)) }

// Resistivity is an axial (volume) resistivity in ohm-metres.
type Resistivity float64

// Unit converts the Resistivity to a *unit.Unit for dimensional analysis.
func (r Resistivity) Unit() *unit.Unit {
	return unit.New(float64(r), unit.Dimensions{
		unit.MassDim:    1,
		unit.LengthDim:  3,
		unit.TimeDim:    -3,
		unit.CurrentDim: -2,
	})
}

// From converts the supplied quantity to a Resistivity, returning an error on
// dimension mismatch.
func (r *Resistivity) From(u unit.Uniter) error {
	if !unit.DimensionsMatch(u, Resistivity(0)) {
		*r = Resistivity(math.NaN())
		return fmt.Errorf("units: %v is not a resistivity", u.Unit())
	}
	*r = Resistivity(u.Unit().Value())
	return nil
}

func (r Resistivity) String() string { return fmt.Sprintf("%g Ohm m", float64(r)) }

// SpecificCapacitance is a membrane capacitance per unit area in F/m^2.
type SpecificCapacitance float64

// Unit converts the SpecificCapacitance to a *unit.Unit for dimensional
// analysis.
func (c SpecificCapacitance) Unit() *unit.Unit {
	return unit.New(float64(c), unit.Dimensions{
		unit.CurrentDim: 2,
		unit.TimeDim:    4,
		unit.MassDim:    -1,
		unit.LengthDim:  -4,
	})
}

// From converts the supplied quantity to a SpecificCapacitance, returning an
// error on dimension mismatch.
func (c *SpecificCapacitance) From(u unit.Uniter) error {
	if !unit.DimensionsMatch(u, SpecificCapacitance(0)) {
		*c = SpecificCapacitance(math.NaN())
		return fmt.Errorf("units: %v is not a specific capacitance", u.Unit())
	}
	*c = SpecificCapacitance(u.Unit().Value())
	return nil
}

func (c SpecificCapacitance) String() string { return fmt.Sprintf("%g F m^-2", float64(c)) }

// SpecificConductance is a membrane conductance per unit area in S/m^2.
type SpecificConductance float64

// Unit converts the SpecificConductance to a *unit.Unit for dimensional
// analysis.
func (g SpecificConductance) Unit() *unit.Unit {
	return unit.New(float64(g), unit.Dimensions{
		unit.CurrentDim: 2,
		unit.TimeDim:    3,
		unit.MassDim:    -1,
		unit.LengthDim:  -4,
	})
}

// From converts the supplied quantity to a SpecificConductance, returning an
// error on dimension mismatch.
func (g *SpecificConductance) From(u unit.Uniter) error {
	if !unit.DimensionsMatch(u, SpecificConductance(0)) {
		*g = SpecificConductance(math.NaN())
		return fmt.Errorf("units: %v is not a specific conductance", u.Unit())
	}
	*g = SpecificConductance(u.Unit().Value())
	return nil
}

func (g SpecificConductance) String() string { return fmt.Sprintf("%g S m^-2", float64(g)) }

// Parameters maps engine variable names to physical quantities.  It is the
// namespace handed to the simulation engine together with the equation text.
type Parameters map[string]unit.Uniter

// Merge copies every entry of other into p, overwriting on key collisions.
func (p Parameters) Merge(other Parameters) {
	for k, v := range other {
		p[k] = v
	}
}

// Clone returns a shallow copy of p (values are immutable quantities).
func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Names returns the parameter names in sorted order, for deterministic
// printing.
func (p Parameters) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// stepTol is the relative tolerance for deciding that a time value lies on
// the simulation step grid.
const stepTol = 1e-6

// Steps converts a time quantity to an integer number of simulation steps of
// size dt.  Event conditions compare integer step counters for exactness, so
// times that are not a multiple of dt (within a small tolerance for float
// representation of decimal values) are rejected rather than rounded --
// silent truncation drifts over repeated triggers.
func Steps(t, dt unit.Time) (int64, error) {
	if dt <= 0 {
		return 0, fmt.Errorf("units: simulation step must be positive, got %v", dt)
	}
	if t < 0 {
		return 0, fmt.Errorf("units: time value must be non-negative, got %v", t)
	}
	ratio := float64(t) / float64(dt)
	n := math.Round(ratio)
	if math.Abs(ratio-n) > stepTol*math.Max(1, math.Abs(ratio)) {
		return 0, fmt.Errorf("units: %v is not a multiple of the simulation step %v", t, dt)
	}
	return int64(n), nil
}

// Ptr returns a pointer to v; a convenience for optional configuration
// fields.
func Ptr[T any](v T) *T { return &v }
