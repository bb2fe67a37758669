// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package compartment provides the single-compartment building block of a
multi-compartment neuron model: a named membrane patch carrying its equation
block, physical properties, synaptic and noise mechanisms, connections to
neighboring compartments, and (for dendrites) dendritic-spike events.
*/
package compartment

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/unit"

	"github.com/emer/dendrite/dlog"
	"github.com/emer/dendrite/ephys"
	"github.com/emer/dendrite/equations"
	"github.com/emer/dendrite/units"
)

// Role tags a compartment with its place in the neuron.  The role only
// gates capabilities (dendritic spiking); equations and parameters are
// shared machinery across all roles.
type Role int32

const (
	// Generic is a plain compartment with no role-specific capabilities.
	Generic Role = iota

	// Soma is the spike-initiation compartment; model assembly draws the
	// group threshold and reset from it.
	Soma

	// Dendrite carries the dendritic-spike capability.
	Dendrite
)

func (r Role) String() string {
	switch r {
	case Generic:
		return "generic"
	case Soma:
		return "soma"
	case Dendrite:
		return "dendrite"
	}
	return fmt.Sprintf("Role(%d)", int32(r))
}

// DefaultStep is the simulation clock step assumed when none is configured.
// Event timing parameters are quantized against this step.
const DefaultStep = unit.Time(100e-6)

// Compartment is one membrane patch of a neuron model.  Construct with New,
// NewSoma, or NewDendrite, then attach mechanisms; the accumulated equations
// and parameters are read back with Equations and Parameters.
type Compartment struct {
	Name string `desc:"compartment name, used as the variable-name suffix; empty only for point neurons"`

	role     Role
	block    *equations.Block
	props    *ephys.Props
	consts   ephys.Constants
	step     unit.Time
	params   units.Parameters
	conns    []Connection
	syns     map[string]struct{}
	hasNoise bool
	dspk     *dspikes
}

// Option configures a compartment at construction time.
type Option func(*Compartment)

// WithConstants overrides the default electrophysiology constants table.
func WithConstants(c ephys.Constants) Option {
	return func(cm *Compartment) { cm.consts = c }
}

// WithStep sets the simulation clock step used to quantize event timing.
func WithStep(dt unit.Time) Option {
	return func(cm *Compartment) { cm.step = dt }
}

// New creates a generic compartment with the named membrane model.  An empty
// model selects the passive membrane.  An unknown model is reported and the
// compartment falls back to the passive membrane.  The name becomes the
// suffix of every variable the compartment defines; it may be empty only for
// point neurons, which cannot be connected to other compartments.
func New(name, model string, p ephys.Props, opts ...Option) (*Compartment, error) {
	cm := &Compartment{
		Name:   name,
		role:   Generic,
		consts: ephys.Defaults(),
		step:   DefaultStep,
		params: units.Parameters{},
		syns:   make(map[string]struct{}),
	}
	for _, o := range opts {
		o(cm)
	}
	if cm.step <= 0 {
		return nil, fmt.Errorf("compartment: clock step must be positive, got %v", cm.step)
	}
	p.Name = name
	props, err := ephys.New(p)
	if err != nil {
		return nil, err
	}
	cm.props = props

	if model == "" {
		model = equations.Passive
	}
	frags, err := equations.Membrane(model, name)
	if err != nil {
		dlog.Warnw("unknown membrane model, falling back to passive",
			"name", name, "model", model, "err", err)
		if frags, err = equations.Membrane(equations.Passive, name); err != nil {
			return nil, err
		}
	}
	sfx := equations.Suffix(name)
	block, err := equations.NewBlock(frags, "I"+sfx, "I_ext"+sfx)
	if err != nil {
		return nil, err
	}
	cm.block = block
	return cm, nil
}

// NewSoma creates a soma compartment.  An empty model selects the leaky
// integrate-and-fire membrane.
func NewSoma(name, model string, p ephys.Props, opts ...Option) (*Compartment, error) {
	if model == "" {
		model = equations.LeakyIF
	}
	cm, err := New(name, model, p, opts...)
	if err != nil {
		return nil, err
	}
	cm.role = Soma
	return cm, nil
}

// NewDendrite creates a dendrite compartment carrying the dendritic-spike
// capability.  An empty model selects the passive membrane.
func NewDendrite(name, model string, p ephys.Props, opts ...Option) (*Compartment, error) {
	cm, err := New(name, model, p, opts...)
	if err != nil {
		return nil, err
	}
	cm.role = Dendrite
	cm.dspk = newDSpikes()
	return cm, nil
}

// Role returns the compartment's role tag.
func (cm *Compartment) Role() Role { return cm.role }

// Props returns the compartment's physical properties.
func (cm *Compartment) Props() *ephys.Props { return cm.props }

// Constants returns the electrophysiology constants table in effect.
func (cm *Compartment) Constants() ephys.Constants { return cm.consts }

// Step returns the simulation clock step used for event quantization.
func (cm *Compartment) Step() unit.Time { return cm.step }

// Dimensionless reports whether the compartment was specified with absolute
// capacitance and leak conductance instead of geometry.
func (cm *Compartment) Dimensionless() bool { return cm.props.Dimensionless() }

// Equations renders the compartment's full equation block.
func (cm *Compartment) Equations() string { return cm.block.Render() }

// CurrentTerms returns the additive terms of the total injected current, in
// the order the mechanisms were attached.
func (cm *Compartment) CurrentTerms() []string { return cm.block.Terms() }

// HasVar reports whether the compartment's equations define the variable.
func (cm *Compartment) HasVar(name string) bool { return cm.block.HasVar(name) }

// Syn specifies one synaptic input: the maximum conductance, the kinetics
// time constants, and whether the conductance is rescaled so that a unitary
// event peaks at exactly G.
type Syn struct {
	G         unit.Conductance `desc:"maximum synaptic conductance"`
	TRise     unit.Time        `desc:"rise time constant; zero selects instant-rise kinetics"`
	TDecay    unit.Time        `desc:"decay time constant"`
	Normalize bool             `desc:"rescale G so a unitary dual-exponential event peaks at G; needs G, TRise and TDecay"`
}

// Synapse attaches a synaptic channel (AMPA, NMDA or GABA) under the given
// tag.  The [channel, tag] pair must be unique per compartment.  Kinetics
// with both rise and decay constants use the dual-exponential form; decay
// alone uses instant rise.  A per-synapse weight parameter w_<channel>_<tag>
// is always emitted with value 1; conductance and time constants are emitted
// only when specified.
func (cm *Compartment) Synapse(channel, tag string, syn Syn) error {
	id := channel + "_" + tag
	if _, dup := cm.syns[id]; dup {
		return &DuplicateMechanismError{Comp: cm.Name, Mech: id}
	}
	riseDecay := syn.TRise > 0 && syn.TDecay > 0
	frags, err := equations.Synapse(channel, tag, cm.Name, riseDecay)
	if err != nil {
		return err
	}
	sfx := equations.Suffix(cm.Name)
	if err := cm.block.AddCurrentTerm(fmt.Sprintf("I_%s_%s%s", channel, tag, sfx)); err != nil {
		return err
	}
	if err := cm.block.Append(frags...); err != nil {
		return err
	}
	cm.syns[id] = struct{}{}
	cm.params[fmt.Sprintf("w_%s_%s%s", channel, tag, sfx)] = unit.Dimless(1)

	g := syn.G
	if syn.Normalize {
		if riseDecay && syn.G != 0 {
			f, err := GNormFactor(syn.TRise, syn.TDecay)
			if err != nil {
				return err
			}
			g = unit.Conductance(float64(g) * f)
		} else {
			dlog.Warnw("normalization needs G, TRise and TDecay; skipping",
				"name", cm.Name, "synapse", id)
		}
	}
	if g != 0 {
		cm.params[fmt.Sprintf("g_%s_%s%s", channel, tag, sfx)] = g
	}
	if syn.TRise > 0 {
		cm.params[fmt.Sprintf("t_%s_rise_%s%s", channel, tag, sfx)] = syn.TRise
	}
	if syn.TDecay > 0 {
		cm.params[fmt.Sprintf("t_%s_decay_%s%s", channel, tag, sfx)] = syn.TDecay
	}
	return nil
}

// Noise attaches an Ornstein-Uhlenbeck noise current.  Nil tau defaults to
// 20 ms, nil sigma to 1 pA and nil mean to zero; supplied values are used
// as given, so an explicit zero sigma yields a constant mean current.  At
// most one noise source per compartment.
func (cm *Compartment) Noise(tau *unit.Time, sigma, mean *unit.Current) error {
	if cm.hasNoise {
		return &DuplicateMechanismError{Comp: cm.Name, Mech: "noise"}
	}
	tc := units.Ms(20)
	if tau != nil {
		tc = *tau
	}
	if tc <= 0 {
		return fmt.Errorf("compartment: noise correlation time must be positive, got %v", tc)
	}
	sd := units.PA(1)
	if sigma != nil {
		sd = *sigma
	}
	var mu unit.Current
	if mean != nil {
		mu = *mean
	}
	sfx := equations.Suffix(cm.Name)
	if err := cm.block.AddCurrentTerm("I_noise" + sfx); err != nil {
		return err
	}
	if err := cm.block.Append(equations.Noise(cm.Name)...); err != nil {
		return err
	}
	cm.params["tau_noise"+sfx] = tc
	cm.params["sigma_noise"+sfx] = sd
	cm.params["mean_noise"+sfx] = mu
	cm.hasNoise = true
	return nil
}

// AddParams merges user-defined parameters into the compartment.
func (cm *Compartment) AddParams(p units.Parameters) {
	cm.params.Merge(p)
}

// Parameters collects every parameter the compartment's equations refer to:
// mechanism parameters, resolved coupling conductances, dendritic-spike
// event parameters, and the membrane parameters derived from the physical
// properties plus the constants table.  Derived coupling conductances need
// the peer compartment's properties, supplied through lookup.
func (cm *Compartment) Parameters(lookup PropsLookup) (units.Parameters, error) {
	out := cm.params.Clone()
	cps, err := cm.couplingParameters(lookup)
	if err != nil {
		return nil, err
	}
	out.Merge(cps)
	if cm.dspk != nil {
		for _, p := range cm.dspk.params {
			out.Merge(p)
		}
	}
	out.Merge(cm.props.Parameters(cm.consts))
	return out, nil
}

// GNormFactor returns the factor that rescales a dual-exponential synaptic
// conductance so that a unitary event peaks at exactly the configured
// maximum.  The two time constants must be positive and distinct.
func GNormFactor(tRise, tDecay unit.Time) (float64, error) {
	if tRise <= 0 || tDecay <= 0 {
		return 0, fmt.Errorf("compartment: normalization time constants must be positive, got rise %v decay %v", tRise, tDecay)
	}
	if tRise == tDecay {
		return 0, fmt.Errorf("compartment: normalization time constants must be distinct, got %v", tRise)
	}
	tr, td := float64(tRise), float64(tDecay)
	tPeak := (td * tr / (td - tr)) * math.Log(td/tr)
	factor := (td * tr / (td - tr)) * (-math.Exp(-tPeak/tr) + math.Exp(-tPeak/td)) / 1e-3
	return 1 / factor, nil
}

// Clone returns a deep copy of the compartment.  Connections are carried
// over by peer name, so clones resolve their couplings independently.
func (cm *Compartment) Clone() *Compartment {
	props := *cm.props
	out := &Compartment{
		Name:     cm.Name,
		role:     cm.role,
		block:    cm.block.Clone(),
		props:    &props,
		consts:   cm.consts,
		step:     cm.step,
		params:   cm.params.Clone(),
		conns:    make([]Connection, len(cm.conns)),
		syns:     make(map[string]struct{}, len(cm.syns)),
		hasNoise: cm.hasNoise,
	}
	copy(out.conns, cm.conns)
	for k := range cm.syns {
		out.syns[k] = struct{}{}
	}
	if cm.dspk != nil {
		out.dspk = cm.dspk.clone()
	}
	return out
}

// String renders a human-readable summary of the compartment: equations,
// locally-resolvable parameters, and event names.
func (cm *Compartment) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Compartment %q (%s)\n", cm.Name, cm.role)
	sb.WriteString("\nEQUATIONS\n")
	sb.WriteString(cm.block.Render())
	sb.WriteString("\n\nPARAMETERS\n")
	params, err := cm.Parameters(nil)
	if err != nil {
		fmt.Fprintf(&sb, "\t<unresolvable: %v>\n", err)
	} else {
		for _, k := range params.Names() {
			fmt.Fprintf(&sb, "\t%s = %v\n", k, params[k])
		}
	}
	if cm.dspk != nil && len(cm.dspk.conditions) > 0 {
		sb.WriteString("\nEVENTS\n")
		names := cm.EventNames()
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(&sb, "\t%s\n", n)
		}
	}
	return sb.String()
}
