// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neuronmodel

import (
	"gonum.org/v1/gonum/unit"

	"github.com/emer/dendrite/units"
)

// GroupSpec is everything a simulation engine needs to instantiate one
// neuron group: the aggregated equation text (one declaration per line,
// `lhs = rhs  :unit` for derived quantities, `d<var>/dt = rhs  :unit` for
// differential ones, `<var>  :unit` for free state variables), the resolved
// parameter namespace, and the registered event trigger conditions.
type GroupSpec struct {
	N          int               `desc:"population size"`
	Method     string            `desc:"numerical integration method, e.g. euler"`
	Equations  string            `desc:"aggregated equation text"`
	Parameters units.Parameters  `desc:"resolved parameter namespace"`
	Events     map[string]string `desc:"event name to trigger-condition expression"`
	Threshold  string            `desc:"somatic spike threshold expression"`
	Reset      string            `desc:"somatic reset expression"`
	Refractory string            `desc:"somatic refractory specification"`
}

// RunnableGroup is the engine-side handle for a submitted group.
type RunnableGroup interface {
	// SetInitialValue sets a state variable's initial value across the group.
	SetInitialValue(name string, v unit.Uniter) error

	// RegisterEventAction wires the expression to run when the named event
	// triggers.
	RegisterEventAction(event, action string) error

	// ConnectSelf builds a delayed self-connection that runs the expression
	// after each somatic spike, used to shape the action potential with a
	// second reset.
	ConnectSelf(onTrigger string, delay unit.Time) error
}

// Engine is the simulation-engine adapter the assembled model is handed to.
// The model configures the engine but never drives it.
type Engine interface {
	Submit(spec GroupSpec) (RunnableGroup, error)
}
