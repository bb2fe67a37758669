// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package neuronmodel assembles compartments into a runnable multi-compartment
neuron model: it deep-copies the prototype compartments, wires their
connections, aggregates equations, parameters and events, and hands the
result to a simulation-engine adapter.
*/
package neuronmodel

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/unit"

	"github.com/emer/dendrite/compartment"
	"github.com/emer/dendrite/ephys"
	"github.com/emer/dendrite/units"
)

// ErrMixedDimensionality reports a model mixing geometry-specified and
// absolute-valued compartments, which breaks coupling derivation and
// default-property broadcasting.
var ErrMixedDimensionality = errors.New("neuronmodel: cannot mix dimensioned and dimensionless compartments in one model")

// Link connects two prototype compartments with the given coupling.  The
// zero Coupling derives the conductance from both endpoints' geometry.
type Link struct {
	A *compartment.Compartment `desc:"first endpoint"`
	B *compartment.Compartment `desc:"second endpoint"`
	G compartment.Coupling     `desc:"axial coupling between the endpoints"`
}

// Model is an assembled multi-compartment neuron.  It owns private copies
// of every compartment it was built from, so two models assembled from the
// same prototypes never alias mutable state.
type Model struct {
	comps       []*compartment.Compartment
	byName      map[string]*compartment.Compartment
	graph       [][2]string
	extraEqs    []string
	extraParams units.Parameters
}

// New assembles a model from a connection list.  Every compartment must be
// named, no two distinct compartments may share a name, no link may connect
// a compartment to itself, and all compartments must agree on whether they
// are dimensioned or dimensionless.  Each distinct compartment is copied
// exactly once before any connection is wired; the prototypes are never
// mutated.
func New(links []Link) (*Model, error) {
	if len(links) == 0 {
		return nil, errors.New("neuronmodel: at least one link is required")
	}
	orig := make(map[string]*compartment.Compartment)
	var order []string
	for _, ln := range links {
		if ln.A == nil || ln.B == nil {
			return nil, errors.New("neuronmodel: links must reference two compartments")
		}
		if ln.A == ln.B || ln.A.Name == ln.B.Name {
			return nil, fmt.Errorf("neuronmodel: link connects %q to a compartment of the same name", ln.A.Name)
		}
		for _, c := range []*compartment.Compartment{ln.A, ln.B} {
			if c.Name == "" {
				return nil, errors.New("neuronmodel: model compartments must be named")
			}
			if prev, ok := orig[c.Name]; ok {
				if prev != c {
					return nil, fmt.Errorf("neuronmodel: two distinct compartments share the name %q", c.Name)
				}
				continue
			}
			orig[c.Name] = c
			order = append(order, c.Name)
		}
	}

	// Dimensionality must be uniform before any equation is spliced.
	dimless := orig[order[0]].Dimensionless()
	for _, n := range order[1:] {
		if orig[n].Dimensionless() != dimless {
			return nil, fmt.Errorf("%w: %q and %q disagree", ErrMixedDimensionality, order[0], n)
		}
	}

	m := &Model{
		byName:      make(map[string]*compartment.Compartment, len(order)),
		extraParams: units.Parameters{},
	}
	for _, n := range order {
		cp := orig[n].Clone()
		m.byName[n] = cp
		m.comps = append(m.comps, cp)
	}
	for _, ln := range links {
		a, b := m.byName[ln.A.Name], m.byName[ln.B.Name]
		if err := a.Connect(b, ln.G); err != nil {
			return nil, err
		}
		m.graph = append(m.graph, [2]string{a.Name, b.Name})
	}
	return m, nil
}

// Comp returns the model's own copy of the named compartment.
func (m *Model) Comp(name string) (*compartment.Compartment, bool) {
	c, ok := m.byName[name]
	return c, ok
}

// Compartments returns the model's compartments in first-appearance order.
func (m *Model) Compartments() []*compartment.Compartment {
	out := make([]*compartment.Compartment, len(m.comps))
	copy(out, m.comps)
	return out
}

// Graph returns the connection topology as name pairs, in wiring order.
func (m *Model) Graph() [][2]string {
	out := make([][2]string, len(m.graph))
	copy(out, m.graph)
	return out
}

// Defaults holds network-wide property overrides.  Nil fields are left
// untouched; units.Ptr builds the pointers inline.
type Defaults struct {
	Cm          *units.SpecificCapacitance `desc:"specific membrane capacitance"`
	Gl          *units.SpecificConductance `desc:"specific leak conductance"`
	RAxial      *units.Resistivity         `desc:"axial resistivity"`
	VRest       *unit.Voltage              `desc:"resting potential, applied to every compartment"`
	ScaleFactor *float64                   `desc:"area scale factor"`
	SpineFactor *float64                   `desc:"spine-correction area factor"`
}

// geometric reports whether any geometry-bound field is supplied.
func (d Defaults) geometric() bool {
	return d.Cm != nil || d.Gl != nil || d.RAxial != nil || d.ScaleFactor != nil || d.SpineFactor != nil
}

// ApplyDefaults broadcasts the supplied values to every compartment's
// physical properties.  Geometry-bound fields require a fully dimensioned
// model; the resting potential applies regardless.  Validation runs across
// the whole model before any compartment is mutated.
func (m *Model) ApplyDefaults(d Defaults) error {
	if d.geometric() {
		for _, c := range m.comps {
			if c.Dimensionless() {
				return &ephys.DimensionlessError{Name: c.Name, Op: "applying geometric default properties"}
			}
		}
	}
	for _, c := range m.comps {
		p := c.Props()
		if d.Cm != nil {
			p.Cm = *d.Cm
		}
		if d.Gl != nil {
			p.Gl = *d.Gl
		}
		if d.RAxial != nil {
			p.RAxial = *d.RAxial
		}
		if d.ScaleFactor != nil {
			p.ScaleFactor = *d.ScaleFactor
		}
		if d.SpineFactor != nil {
			p.SpineFactor = *d.SpineFactor
		}
		if d.VRest != nil {
			p.VRest = *d.VRest
		}
	}
	return nil
}

// ConfigDSpikes overlays new parameter values onto the named dendritic-spike
// mechanism on every compartment that carries it, returning how many were
// updated.
func (m *Model) ConfigDSpikes(mech string, cfg compartment.DSpikeConfig) (int, error) {
	n := 0
	for _, c := range m.comps {
		ok, err := c.ConfigDSpikes(mech, cfg)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// AddEquations appends user-supplied equation text to the aggregate.
func (m *Model) AddEquations(eqs string) {
	if eqs != "" {
		m.extraEqs = append(m.extraEqs, eqs)
	}
}

// AddParams merges user-supplied parameters into the aggregate namespace.
func (m *Model) AddParams(p units.Parameters) {
	m.extraParams.Merge(p)
}

// Equations aggregates every compartment's equation block, in assembly
// order, followed by any user-supplied extra equations.
func (m *Model) Equations() string {
	parts := make([]string, 0, len(m.comps)+len(m.extraEqs))
	for _, c := range m.comps {
		parts = append(parts, c.Equations())
	}
	parts = append(parts, m.extraEqs...)
	return strings.Join(parts, "\n\n")
}

// Parameters aggregates every compartment's resolved parameters plus any
// user-supplied extras.  Coupling conductances resolve against the model's
// own compartment copies.
func (m *Model) Parameters() (units.Parameters, error) {
	lookup := func(name string) (*ephys.Props, bool) {
		c, ok := m.byName[name]
		if !ok {
			return nil, false
		}
		return c.Props(), true
	}
	out := units.Parameters{}
	for _, c := range m.comps {
		p, err := c.Parameters(lookup)
		if err != nil {
			return nil, err
		}
		out.Merge(p)
	}
	out.Merge(m.extraParams)
	return out, nil
}

// Events aggregates every registered event's trigger condition, keyed by
// event name.
func (m *Model) Events() map[string]string {
	out := make(map[string]string)
	for _, c := range m.comps {
		for id, cond := range c.Events() {
			out[id.String()] = cond
		}
	}
	return out
}

// EventActions aggregates every registered event's trigger action, keyed by
// event name.
func (m *Model) EventActions() map[string]string {
	out := make(map[string]string)
	for _, c := range m.comps {
		for id, act := range c.EventActions() {
			out[id.String()] = act
		}
	}
	return out
}

// EventNames returns every registered event name, in compartment assembly
// order and per-compartment attachment order.
func (m *Model) EventNames() []string {
	var out []string
	for _, c := range m.comps {
		out = append(out, c.EventNames()...)
	}
	return out
}

// BuildConfig drives Build.  SecondReset and SpikeWidth shape the somatic
// action potential with a delayed self-connection; they must be supplied
// together or not at all.
type BuildConfig struct {
	N            int       `desc:"population size, default 1"`
	Method       string    `desc:"integration method, default euler"`
	Threshold    string    `desc:"somatic spike threshold expression"`
	Reset        string    `desc:"somatic reset expression"`
	Refractory   string    `desc:"somatic refractory specification"`
	SecondReset  string    `desc:"expression run SpikeWidth after each spike"`
	SpikeWidth   unit.Time `desc:"delay before the second reset"`
	NoInitRest   bool      `desc:"skip initializing each V to the resting potential"`
	NoInitEvents bool      `desc:"skip wiring event actions into the engine"`
}

// Build submits the aggregated model to the engine and finishes the wiring:
// voltages start at each compartment's resting potential, every registered
// dendritic-spike action is installed, and the optional second reset is
// connected with its delay.
func (m *Model) Build(eng Engine, cfg BuildConfig) (RunnableGroup, error) {
	if (cfg.SecondReset == "") != (cfg.SpikeWidth == 0) {
		return nil, errors.New("neuronmodel: SecondReset and SpikeWidth must be supplied together")
	}
	if cfg.N <= 0 {
		cfg.N = 1
	}
	if cfg.Method == "" {
		cfg.Method = "euler"
	}
	params, err := m.Parameters()
	if err != nil {
		return nil, err
	}
	group, err := eng.Submit(GroupSpec{
		N:          cfg.N,
		Method:     cfg.Method,
		Equations:  m.Equations(),
		Parameters: params,
		Events:     m.Events(),
		Threshold:  cfg.Threshold,
		Reset:      cfg.Reset,
		Refractory: cfg.Refractory,
	})
	if err != nil {
		return nil, err
	}
	if !cfg.NoInitRest {
		for _, c := range m.comps {
			if vr := c.Props().VRest; vr != 0 {
				if err := group.SetInitialValue("V_"+c.Name, vr); err != nil {
					return nil, err
				}
			}
		}
	}
	if !cfg.NoInitEvents {
		actions := m.EventActions()
		for _, name := range m.EventNames() {
			if err := group.RegisterEventAction(name, actions[name]); err != nil {
				return nil, err
			}
		}
	}
	if cfg.SecondReset != "" {
		if err := group.ConnectSelf(cfg.SecondReset, cfg.SpikeWidth); err != nil {
			return nil, err
		}
	}
	return group, nil
}
