// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compartment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/unit"

	"github.com/emer/dendrite/ephys"
	"github.com/emer/dendrite/units"
)

func naConfig() DSpikeConfig {
	return DSpikeConfig{
		Threshold:    units.Ptr(units.MV(-35)),
		GRise:        units.Ptr(units.NS(30)),
		GFall:        units.Ptr(units.NS(14)),
		ERise:        SymbolicReversal("E_Na"),
		EFall:        SymbolicReversal("E_K"),
		DurationRise: units.Ptr(units.Ms(1.2)),
		DurationFall: units.Ptr(units.Ms(2.4)),
		OffsetFall:   units.Ptr(units.Ms(0.2)),
		Refractory:   units.Ptr(units.Ms(5)),
	}
}

func TestDSpikesRequiresDendrite(t *testing.T) {
	err := testSoma(t).DSpikes("Na", naConfig())
	var cerr *CapabilityError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, Soma, cerr.Role)
}

func TestDSpikesWiring(t *testing.T) {
	dend := testDend(t)
	require.NoError(t, dend.DSpikes("Na", naConfig()))

	assert.Contains(t, dend.CurrentTerms(), "I_rise_Na_dend")
	assert.Contains(t, dend.CurrentTerms(), "I_fall_Na_dend")
	assert.True(t, dend.HasVar("spiketime_Na_dend"))
	assert.True(t, dend.HasVar("gate_Na_dend"))
	assert.True(t, dend.HasDSpike("Na"))
	assert.Equal(t, []string{"spike_Na_dend"}, dend.EventNames())

	id := EventID{Mech: "Na", Comp: "dend"}
	assert.Equal(t,
		"V_dend >= Vth_Na_dend and t_in_timesteps >= spiketime_Na_dend + refractory_Na_dend * gate_Na_dend",
		dend.Events()[id])
	assert.Equal(t,
		"spiketime_Na_dend = t_in_timesteps; gate_Na_dend = 1",
		dend.EventActions()[id])

	err := dend.DSpikes("Na", naConfig())
	var dup *DuplicateMechanismError
	assert.ErrorAs(t, err, &dup)
}

func TestDSpikeParameterQuantization(t *testing.T) {
	dend := testDend(t)
	require.NoError(t, dend.DSpikes("Na", naConfig()))

	params, err := dend.Parameters(nil)
	require.NoError(t, err)
	assert.Equal(t, units.MV(-35), params["Vth_Na_dend"])
	assert.Equal(t, units.NS(30), params["g_rise_max_Na_dend"])
	assert.Equal(t, units.NS(14), params["g_fall_max_Na_dend"])
	assert.Equal(t, units.MV(70), params["E_rise_Na"])
	assert.Equal(t, units.MV(-89), params["E_fall_Na"])

	// Times become whole step counts against the 100 us default clock.
	assert.Equal(t, unit.Dimless(12), params["duration_rise_Na_dend"])
	assert.Equal(t, unit.Dimless(24), params["duration_fall_Na_dend"])
	assert.Equal(t, unit.Dimless(2), params["offset_fall_Na_dend"])
	assert.Equal(t, unit.Dimless(50), params["refractory_Na_dend"])
}

func TestDSpikeCustomStep(t *testing.T) {
	dend, err := NewDendrite("dend", "", ephys.Props{
		CmAbs: units.PF(50),
		GlAbs: units.NS(2.5),
		VRest: units.MV(-70),
	}, WithStep(units.Us(50)))
	require.NoError(t, err)
	require.NoError(t, dend.DSpikes("Na", naConfig()))
	params, err := dend.Parameters(nil)
	require.NoError(t, err)
	assert.Equal(t, unit.Dimless(100), params["refractory_Na_dend"])
}

func TestDSpikeRejectsOffGridTimes(t *testing.T) {
	dend := testDend(t)
	cfg := naConfig()
	cfg.DurationRise = units.Ptr(units.Us(250)) // 2.5 steps
	err := dend.DSpikes("Na", cfg)
	require.Error(t, err)
	assert.False(t, dend.HasDSpike("Na"))
}

func TestDSpikeReversals(t *testing.T) {
	dend := testDend(t)
	cfg := naConfig()
	cfg.ERise = SymbolicReversal("E_Cl")
	err := dend.DSpikes("Na", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E_Na", "error enumerates the valid keys")

	cfg.ERise = LiteralReversal(units.MV(55))
	require.NoError(t, dend.DSpikes("Na", cfg))
	params, err := dend.Parameters(nil)
	require.NoError(t, err)
	assert.Equal(t, units.MV(55), params["E_rise_Na"])
}

func TestConfigDSpikesOverlay(t *testing.T) {
	dend := testDend(t)
	require.NoError(t, dend.DSpikes("Na", naConfig()))

	ok, err := dend.ConfigDSpikes("Na", DSpikeConfig{
		Threshold:  units.Ptr(units.MV(-40)),
		Refractory: units.Ptr(units.Ms(10)),
	})
	require.NoError(t, err)
	assert.True(t, ok)

	params, err := dend.Parameters(nil)
	require.NoError(t, err)
	assert.Equal(t, units.MV(-40), params["Vth_Na_dend"])
	assert.Equal(t, unit.Dimless(100), params["refractory_Na_dend"])
	// Untouched fields keep their values.
	assert.Equal(t, units.NS(30), params["g_rise_max_Na_dend"])

	// Unknown mechanism reports not-found without error.
	ok, err = dend.ConfigDSpikes("Ca", DSpikeConfig{Threshold: units.Ptr(units.MV(-30))})
	require.NoError(t, err)
	assert.False(t, ok)

	// A failing overlay leaves the event untouched.
	ok, err = dend.ConfigDSpikes("Na", DSpikeConfig{Refractory: units.Ptr(units.Us(250))})
	require.Error(t, err)
	assert.False(t, ok)
	params, err = dend.Parameters(nil)
	require.NoError(t, err)
	assert.Equal(t, unit.Dimless(100), params["refractory_Na_dend"])
}

func TestEventID(t *testing.T) {
	id := EventID{Mech: "Na", Comp: "dend"}
	assert.Equal(t, "Na_dend", id.ID())
	assert.Equal(t, "spike_Na_dend", id.String())
}
