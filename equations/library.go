// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equations

import (
	"fmt"
	"sort"
	"strings"
)

// library.go is the fixed template catalog.  Templates are fragment lists
// with two placeholder slots: {c} expands to the compartment-name suffix
// ("_soma", or "" for point-neuron models) and {t} to the per-synapse tag.
// The catalog is pure data; every entry keeps the total-current protocol of
// Block (membrane templates define I{c} = I_ext{c}).

// Membrane model template keys.
const (
	Passive    = "passive"
	LeakyIF    = "leakyIF"
	AdaptiveIF = "adaptiveIF"
	AdEx       = "adex"
	CadIF      = "cadIF"
)

// Synaptic channel keys.
const (
	AMPA = "AMPA"
	NMDA = "NMDA"
	GABA = "GABA"
)

var membrane = map[string][]Fragment{
	// Leaky membrane:
	Passive: {
		{Diff, "V{c}", "(gL{c} * (EL{c}-V{c}) + I{c}) / C{c}", "volt"},
		{Algebraic, "I{c}", "I_ext{c}", "amp"},
		{Free, "I_ext{c}", "", "amp"},
	},

	// Leaky integrate and fire:
	LeakyIF: {
		{Diff, "V{c}", "(gL{c} * (EL{c}-V{c}) + I{c}) / C{c}", "volt"},
		{Algebraic, "I{c}", "I_ext{c}", "amp"},
		{Free, "I_ext{c}", "", "amp"},
	},

	// Leaky integrate and fire with adaptation:
	AdaptiveIF: {
		{Diff, "V{c}", "(gL{c} * (EL{c}-V{c}) + I{c} - w{c}) / C{c}", "volt"},
		{Diff, "w{c}", "(a{c} * (V{c}-EL{c}) - w{c}) / tauw{c}", "amp"},
		{Algebraic, "I{c}", "I_ext{c}", "amp"},
		{Free, "I_ext{c}", "", "amp"},
	},

	// Adaptive exponential integrate & fire:
	AdEx: {
		{Diff, "V{c}", "(gL{c} * (EL{c}-V{c}) + gL{c}*DeltaT{c}*exp((V{c}-Vth{c})/DeltaT{c}) + I{c} - w{c}) / C{c}", "volt"},
		{Diff, "w{c}", "(a{c} * (V{c}-EL{c}) - w{c}) / tauw{c}", "amp"},
		{Algebraic, "I{c}", "I_ext{c}", "amp"},
		{Free, "I_ext{c}", "", "amp"},
	},

	// Conductance-based integrate and fire with adaptation:
	CadIF: {
		{Diff, "V{c}", "(gL{c}*(EL{c}-V{c}) + I{c} - w{c}) / C{c}", "volt"},
		{Algebraic, "w{c}", "gA * (V{c}-EA)", "amp"},
		{Diff, "gA", "(gAmax * (abs(V{c}-EA)) / mV - gA) / tauA", "siemens"},
		{Algebraic, "I{c}", "I_ext{c}", "amp"},
		{Free, "I_ext{c}", "", "amp"},
	},
}

var synapse = map[string][]Fragment{
	// AMPA with instant rise (decay kinetics only):
	"AMPA": {
		{Algebraic, "I_AMPA_{t}{c}", "g_AMPA_{t}{c} * (E_AMPA-V{c}) * s_AMPA_{t}{c} * w_AMPA_{t}{c}", "amp"},
		{Diff, "s_AMPA_{t}{c}", "-s_AMPA_{t}{c} / t_AMPA_decay_{t}{c}", "1"},
	},

	// AMPA with rise and decay kinetics:
	"AMPA_rd": {
		{Algebraic, "I_AMPA_{t}{c}", "g_AMPA_{t}{c} * (E_AMPA-V{c}) * x_AMPA_{t}{c} * w_AMPA_{t}{c}", "amp"},
		{Diff, "x_AMPA_{t}{c}", "(-x_AMPA_{t}{c}/t_AMPA_decay_{t}{c}) + s_AMPA_{t}{c}/ms", "1"},
		{Diff, "s_AMPA_{t}{c}", "-s_AMPA_{t}{c} / t_AMPA_rise_{t}{c}", "1"},
	},

	// GABA with instant rise (decay kinetics only):
	"GABA": {
		{Algebraic, "I_GABA_{t}{c}", "g_GABA_{t}{c} * (E_GABA-V{c}) * s_GABA_{t}{c} * w_GABA_{t}{c}", "amp"},
		{Diff, "s_GABA_{t}{c}", "-s_GABA_{t}{c} / t_GABA_decay_{t}{c}", "1"},
	},

	// GABA with rise and decay kinetics:
	"GABA_rd": {
		{Algebraic, "I_GABA_{t}{c}", "g_GABA_{t}{c} * (E_GABA-V{c}) * x_GABA_{t}{c} * w_GABA_{t}{c}", "amp"},
		{Diff, "x_GABA_{t}{c}", "(-x_GABA_{t}{c}/t_GABA_decay_{t}{c}) + s_GABA_{t}{c}/ms", "1"},
		{Diff, "s_GABA_{t}{c}", "-s_GABA_{t}{c} / t_GABA_rise_{t}{c}", "1"},
	},

	// NMDA with magnesium block and decay kinetics only:
	"NMDA": {
		{Algebraic, "I_NMDA_{t}{c}", "g_NMDA_{t}{c} * (E_NMDA-V{c}) * s_NMDA_{t}{c} / (1 + Mg_con * exp(-Alpha_NMDA*(V{c}/mV+Gamma_NMDA)) / Beta_NMDA) * w_NMDA_{t}{c}", "amp"},
		{Diff, "s_NMDA_{t}{c}", "-s_NMDA_{t}{c}/t_NMDA_decay_{t}{c}", "1"},
	},

	// NMDA with magnesium block and rise + decay kinetics:
	"NMDA_rd": {
		{Algebraic, "I_NMDA_{t}{c}", "g_NMDA_{t}{c} * (E_NMDA-V{c}) * x_NMDA_{t}{c} / (1 + Mg_con * exp(-Alpha_NMDA*(V{c}/mV+Gamma_NMDA)) / Beta_NMDA) * w_NMDA_{t}{c}", "amp"},
		{Diff, "x_NMDA_{t}{c}", "(-x_NMDA_{t}{c}/t_NMDA_decay_{t}{c}) + s_NMDA_{t}{c}/ms", "1"},
		{Diff, "s_NMDA_{t}{c}", "-s_NMDA_{t}{c} / t_NMDA_rise_{t}{c}", "1"},
	},
}

// Ornstein-Uhlenbeck noise current:
var noise = []Fragment{
	{Diff, "I_noise{c}", "(mean_noise{c}-I_noise{c}) / tau_noise{c} + sigma_noise{c} * (sqrt(2/(tau_noise{c}*dt)) * randn())", "amp"},
}

// Suffix returns the variable-name suffix for a compartment name: "_<name>",
// or "" for the unnamed (point-neuron) case.
func Suffix(name string) string {
	if name == "" {
		return ""
	}
	return "_" + name
}

func expand(frags []Fragment, name, tag string) []Fragment {
	r := strings.NewReplacer("{c}", Suffix(name), "{t}", tag)
	out := make([]Fragment, len(frags))
	for i, f := range frags {
		out[i] = Fragment{Kind: f.Kind, Var: r.Replace(f.Var), RHS: r.Replace(f.RHS), Unit: f.Unit}
	}
	return out
}

// MembraneKeys returns the valid membrane template keys, sorted.
func MembraneKeys() []string {
	keys := make([]string, 0, len(membrane))
	for k := range membrane {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ChannelKeys returns the valid synaptic channel keys, sorted.
func ChannelKeys() []string {
	return []string{AMPA, GABA, NMDA}
}

// Membrane instantiates a membrane model template for the named compartment.
// An unknown model key is an error naming the valid key set.
func Membrane(model, name string) ([]Fragment, error) {
	frags, ok := membrane[model]
	if !ok {
		return nil, fmt.Errorf("equations: unknown membrane model %q, valid models: %s",
			model, strings.Join(MembraneKeys(), ", "))
	}
	return expand(frags, name, ""), nil
}

// Synapse instantiates a synaptic kinetics template for the given channel,
// tag and compartment name.  The rise+decay variant is selected when
// riseDecay is true.  An unknown channel is an error naming the valid key
// set.
func Synapse(channel, tag, name string, riseDecay bool) ([]Fragment, error) {
	key := channel
	if riseDecay {
		key += "_rd"
	}
	frags, ok := synapse[key]
	if !ok {
		return nil, fmt.Errorf("equations: unknown synaptic channel %q, valid channels: %s",
			channel, strings.Join(ChannelKeys(), ", "))
	}
	return expand(frags, name, tag), nil
}

// Noise instantiates the stochastic noise current template for the named
// compartment.
func Noise(name string) []Fragment {
	return expand(noise, name, "")
}

// CouplingCurrent returns the axial current flowing from compartment `from`
// into compartment `to`.
func CouplingCurrent(from, to string) Fragment {
	return Fragment{
		Kind: Algebraic,
		Var:  fmt.Sprintf("I_%s_%s", from, to),
		RHS:  fmt.Sprintf("(V_%s-V_%s) * g_%s_%s", from, to, from, to),
		Unit: "amp",
	}
}

// DSpike returns the equation fragments for one dendritic-spike mechanism
// `mech` on compartment `comp`: the rise and fall currents, the two gated
// conductance windows (expressed against the integer step counter
// t_in_timesteps), and the spiketime / gate bookkeeping state variables.
func DSpike(mech, comp string) []Fragment {
	e := mech + "_" + comp
	return []Fragment{
		{Algebraic, "I_rise_" + e,
			fmt.Sprintf("g_rise_%s * (E_rise_%s-V_%s)", e, mech, comp), "amp"},
		{Algebraic, "I_fall_" + e,
			fmt.Sprintf("g_fall_%s * (E_fall_%s-V_%s)", e, mech, comp), "amp"},
		{Algebraic, "g_rise_" + e,
			fmt.Sprintf("g_rise_max_%s * int(t_in_timesteps <= spiketime_%s + duration_rise_%s) * gate_%s",
				e, e, e, e), "siemens"},
		{Algebraic, "g_fall_" + e,
			fmt.Sprintf("g_fall_max_%s * int(t_in_timesteps <= spiketime_%s + offset_fall_%s + duration_fall_%s) * int(t_in_timesteps >= spiketime_%s + offset_fall_%s) * gate_%s",
				e, e, e, e, e, e, e), "siemens"},
		{Free, "spiketime_" + e, "", "1"},
		{Free, "gate_" + e, "", "1"},
	}
}
