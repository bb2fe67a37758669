// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neuronmodel

import (
	"fmt"

	"gonum.org/v1/gonum/unit"

	"github.com/emer/dendrite/compartment"
	"github.com/emer/dendrite/ephys"
	"github.com/emer/dendrite/units"
)

// PointModel is a single-compartment neuron: one unnamed membrane patch,
// whose variables carry no compartment suffix (V, I, I_ext).  Point models
// cannot be connected to other compartments.
type PointModel struct {
	cm          *compartment.Compartment
	extraEqs    []string
	extraParams units.Parameters
}

// NewPoint creates a point neuron with the named membrane model (empty
// selects leaky integrate-and-fire).
func NewPoint(model string, p ephys.Props, opts ...compartment.Option) (*PointModel, error) {
	cm, err := compartment.NewSoma("", model, p, opts...)
	if err != nil {
		return nil, err
	}
	return &PointModel{cm: cm, extraParams: units.Parameters{}}, nil
}

// Synapse attaches a synaptic channel to the point neuron.
func (pm *PointModel) Synapse(channel, tag string, syn compartment.Syn) error {
	return pm.cm.Synapse(channel, tag, syn)
}

// Noise attaches an Ornstein-Uhlenbeck noise current.  Nil arguments take
// the compartment defaults.
func (pm *PointModel) Noise(tau *unit.Time, sigma, mean *unit.Current) error {
	return pm.cm.Noise(tau, sigma, mean)
}

// AddEquations appends user-supplied equation text to the aggregate.
func (pm *PointModel) AddEquations(eqs string) {
	if eqs != "" {
		pm.extraEqs = append(pm.extraEqs, eqs)
	}
}

// AddParams merges user-supplied parameters into the aggregate namespace.
func (pm *PointModel) AddParams(p units.Parameters) {
	pm.extraParams.Merge(p)
}

// Equations returns the point neuron's aggregated equation text.
func (pm *PointModel) Equations() string {
	parts := append([]string{pm.cm.Equations()}, pm.extraEqs...)
	out := parts[0]
	for _, p := range parts[1:] {
		out += "\n\n" + p
	}
	return out
}

// Parameters returns the point neuron's resolved parameters plus extras.
func (pm *PointModel) Parameters() (units.Parameters, error) {
	out, err := pm.cm.Parameters(nil)
	if err != nil {
		return nil, err
	}
	out.Merge(pm.extraParams)
	return out, nil
}

// Build submits the point neuron to the engine.
func (pm *PointModel) Build(eng Engine, cfg BuildConfig) (RunnableGroup, error) {
	if cfg.SecondReset != "" || cfg.SpikeWidth != 0 {
		return nil, fmt.Errorf("neuronmodel: second reset applies only to multicompartment models")
	}
	if cfg.N <= 0 {
		cfg.N = 1
	}
	if cfg.Method == "" {
		cfg.Method = "euler"
	}
	params, err := pm.Parameters()
	if err != nil {
		return nil, err
	}
	group, err := eng.Submit(GroupSpec{
		N:          cfg.N,
		Method:     cfg.Method,
		Equations:  pm.Equations(),
		Parameters: params,
		Events:     map[string]string{},
		Threshold:  cfg.Threshold,
		Reset:      cfg.Reset,
		Refractory: cfg.Refractory,
	})
	if err != nil {
		return nil, err
	}
	if !cfg.NoInitRest {
		if vr := pm.cm.Props().VRest; vr != 0 {
			if err := group.SetInitialValue("V", vr); err != nil {
				return nil, err
			}
		}
	}
	return group, nil
}
