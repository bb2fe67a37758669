// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compartment

import (
	"fmt"

	"gonum.org/v1/gonum/unit"

	"github.com/emer/dendrite/ephys"
	"github.com/emer/dendrite/equations"
	"github.com/emer/dendrite/units"
)

// EventID identifies one dendritic-spike event: the mechanism name (e.g.
// "Na", "Ca") on a given compartment.
type EventID struct {
	Mech string `desc:"spike mechanism name"`
	Comp string `desc:"compartment name"`
}

// ID returns the variable-name stem shared by the event's state variables,
// mech_comp.
func (id EventID) ID() string { return id.Mech + "_" + id.Comp }

// String returns the event's registered name, spike_mech_comp.
func (id EventID) String() string { return "spike_" + id.ID() }

// Reversal is the reversal potential of a dendritic-spike current, given
// either symbolically (a key into the constants table, e.g. "E_Na") or as a
// literal voltage.  The zero value means unset.
type Reversal struct {
	symbol  string
	volt    unit.Voltage
	literal bool
}

// SymbolicReversal names a reversal potential from the constants table.
func SymbolicReversal(key string) Reversal { return Reversal{symbol: key} }

// LiteralReversal sets a reversal potential directly.
func LiteralReversal(v unit.Voltage) Reversal { return Reversal{volt: v, literal: true} }

// resolve returns the voltage and whether the reversal was set at all.
// Unknown symbolic keys are an error naming the valid keys.
func (r Reversal) resolve(c ephys.Constants) (unit.Voltage, bool, error) {
	switch {
	case r.literal:
		return r.volt, true, nil
	case r.symbol != "":
		v, err := c.Reversal(r.symbol)
		if err != nil {
			return 0, false, err
		}
		return v, true, nil
	}
	return 0, false, nil
}

// DSpikeConfig holds the tunable parameters of one dendritic-spike event.
// Nil pointer fields (and zero Reversal values) are left unset, so a config
// can describe a partial overlay; units.Ptr builds the pointers inline.
type DSpikeConfig struct {
	Threshold    *unit.Voltage     `desc:"voltage threshold that triggers the event"`
	GRise        *unit.Conductance `desc:"peak conductance of the depolarizing (rise) phase"`
	GFall        *unit.Conductance `desc:"peak conductance of the repolarizing (fall) phase"`
	ERise        Reversal          `desc:"reversal potential of the rise current"`
	EFall        Reversal          `desc:"reversal potential of the fall current"`
	DurationRise *unit.Time        `desc:"length of the rise conductance window"`
	DurationFall *unit.Time        `desc:"length of the fall conductance window"`
	OffsetFall   *unit.Time        `desc:"delay from trigger to the start of the fall window"`
	Refractory   *unit.Time        `desc:"minimum time between successive triggers"`
}

// dspikes is the per-compartment event registry, present only on dendrites.
type dspikes struct {
	order      []EventID
	conditions map[EventID]string
	actions    map[EventID]string
	params     map[EventID]units.Parameters
}

func newDSpikes() *dspikes {
	return &dspikes{
		conditions: make(map[EventID]string),
		actions:    make(map[EventID]string),
		params:     make(map[EventID]units.Parameters),
	}
}

func (d *dspikes) clone() *dspikes {
	out := newDSpikes()
	out.order = make([]EventID, len(d.order))
	copy(out.order, d.order)
	for id, c := range d.conditions {
		out.conditions[id] = c
	}
	for id, a := range d.actions {
		out.actions[id] = a
	}
	for id, p := range d.params {
		out.params[id] = p.Clone()
	}
	return out
}

// DSpikes attaches a dendritic-spike mechanism to the compartment: two
// current terms (rise and fall), their gated conductance windows, the
// trigger condition, and the action that stamps the trigger time.  All
// timing parameters are quantized to whole simulation steps; a duration
// that is not a multiple of the clock step is rejected.  Only dendrite
// compartments carry this capability, and each mechanism name may be added
// once per compartment.
func (cm *Compartment) DSpikes(mech string, cfg DSpikeConfig) error {
	if cm.dspk == nil {
		return &CapabilityError{Comp: cm.Name, Role: cm.role, Op: "adding dendritic spikes"}
	}
	id := EventID{Mech: mech, Comp: cm.Name}
	if _, dup := cm.dspk.conditions[id]; dup {
		return &DuplicateMechanismError{Comp: cm.Name, Mech: id.String()}
	}
	params, err := cm.dspikeParams(id, cfg)
	if err != nil {
		return err
	}
	e := id.ID()
	if err := cm.block.AddCurrentTerm("I_rise_" + e); err != nil {
		return err
	}
	if err := cm.block.AddCurrentTerm("I_fall_" + e); err != nil {
		return err
	}
	if err := cm.block.Append(equations.DSpike(mech, cm.Name)...); err != nil {
		return err
	}
	cm.dspk.order = append(cm.dspk.order, id)
	cm.dspk.conditions[id] = fmt.Sprintf(
		"V_%s >= Vth_%s and t_in_timesteps >= spiketime_%s + refractory_%s * gate_%s",
		cm.Name, e, e, e, e)
	cm.dspk.actions[id] = fmt.Sprintf(
		"spiketime_%s = t_in_timesteps; gate_%s = 1", e, e)
	cm.dspk.params[id] = params
	return nil
}

// ConfigDSpikes overlays new parameter values onto an already-attached
// dendritic-spike mechanism, leaving unset fields untouched.  It reports
// whether the mechanism was found; configs that fail validation (unknown
// reversal key, unquantizable duration) leave the event unchanged.
func (cm *Compartment) ConfigDSpikes(mech string, cfg DSpikeConfig) (bool, error) {
	if cm.dspk == nil {
		return false, nil
	}
	id := EventID{Mech: mech, Comp: cm.Name}
	if _, ok := cm.dspk.conditions[id]; !ok {
		return false, nil
	}
	overlay, err := cm.dspikeParams(id, cfg)
	if err != nil {
		return false, err
	}
	cm.dspk.params[id].Merge(overlay)
	return true, nil
}

// dspikeParams converts a config into event parameters, quantizing all
// timing values into whole-step counts against the compartment clock.
func (cm *Compartment) dspikeParams(id EventID, cfg DSpikeConfig) (units.Parameters, error) {
	e := id.ID()
	out := units.Parameters{}
	if cfg.Threshold != nil {
		out["Vth_"+e] = *cfg.Threshold
	}
	if cfg.GRise != nil {
		out["g_rise_max_"+e] = *cfg.GRise
	}
	if cfg.GFall != nil {
		out["g_fall_max_"+e] = *cfg.GFall
	}
	if v, ok, err := cfg.ERise.resolve(cm.consts); err != nil {
		return nil, fmt.Errorf("compartment: %s rise reversal: %w", id, err)
	} else if ok {
		out["E_rise_"+id.Mech] = v
	}
	if v, ok, err := cfg.EFall.resolve(cm.consts); err != nil {
		return nil, fmt.Errorf("compartment: %s fall reversal: %w", id, err)
	} else if ok {
		out["E_fall_"+id.Mech] = v
	}
	times := []struct {
		key string
		val *unit.Time
	}{
		{"duration_rise_" + e, cfg.DurationRise},
		{"duration_fall_" + e, cfg.DurationFall},
		{"offset_fall_" + e, cfg.OffsetFall},
		{"refractory_" + e, cfg.Refractory},
	}
	for _, tv := range times {
		if tv.val == nil {
			continue
		}
		n, err := units.Steps(*tv.val, cm.step)
		if err != nil {
			return nil, fmt.Errorf("compartment: %s %s: %w", id, tv.key, err)
		}
		out[tv.key] = unit.Dimless(n)
	}
	return out, nil
}

// HasDSpike reports whether the named mechanism is attached.
func (cm *Compartment) HasDSpike(mech string) bool {
	if cm.dspk == nil {
		return false
	}
	_, ok := cm.dspk.conditions[EventID{Mech: mech, Comp: cm.Name}]
	return ok
}

// Events returns the trigger condition of every attached event.
func (cm *Compartment) Events() map[EventID]string {
	out := make(map[EventID]string)
	if cm.dspk == nil {
		return out
	}
	for id, c := range cm.dspk.conditions {
		out[id] = c
	}
	return out
}

// EventActions returns the trigger action of every attached event.
func (cm *Compartment) EventActions() map[EventID]string {
	out := make(map[EventID]string)
	if cm.dspk == nil {
		return out
	}
	for id, a := range cm.dspk.actions {
		out[id] = a
	}
	return out
}

// EventNames returns the registered event names in attachment order.
func (cm *Compartment) EventNames() []string {
	if cm.dspk == nil {
		return nil
	}
	out := make([]string, len(cm.dspk.order))
	for i, id := range cm.dspk.order {
		out[i] = id.String()
	}
	return out
}
