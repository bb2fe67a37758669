// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compartment

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/unit"

	"github.com/emer/dendrite/dlog"
	"github.com/emer/dendrite/ephys"
	"github.com/emer/dendrite/units"
)

func TestMain(m *testing.M) {
	dlog.SetLogger(zap.NewNop()) // fallback and soft-missing paths log by design
	os.Exit(m.Run())
}

func testSoma(t *testing.T) *Compartment {
	t.Helper()
	cm, err := NewSoma("soma", "", ephys.Props{
		CmAbs: units.PF(200),
		GlAbs: units.NS(10),
		VRest: units.MV(-70),
	})
	require.NoError(t, err)
	return cm
}

func testDend(t *testing.T) *Compartment {
	t.Helper()
	cm, err := NewDendrite("dend", "", ephys.Props{
		CmAbs: units.PF(50),
		GlAbs: units.NS(2.5),
		VRest: units.MV(-70),
	})
	require.NoError(t, err)
	return cm
}

func TestConstruction(t *testing.T) {
	soma := testSoma(t)
	assert.Equal(t, Soma, soma.Role())
	assert.True(t, soma.Dimensionless())
	assert.Equal(t, DefaultStep, soma.Step())
	assert.Contains(t, soma.Equations(), "dV_soma/dt")
	assert.Equal(t, "I_soma = I_ext_soma  :amp", currentLine(t, soma))

	dend := testDend(t)
	assert.Equal(t, Dendrite, dend.Role())

	_, err := New("x", "y", ephys.Props{}, WithStep(-units.Us(1)))
	assert.Error(t, err)
}

func TestUnknownModelFallsBackToPassive(t *testing.T) {
	cm, err := New("c", "hodgkin-huxley", ephys.Props{CmAbs: units.PF(100)})
	require.NoError(t, err)
	assert.Contains(t, cm.Equations(), "dV_c/dt = (gL_c * (EL_c-V_c) + I_c) / C_c  :volt")
}

// currentLine extracts the rendered total-current record.
func currentLine(t *testing.T, cm *Compartment) string {
	t.Helper()
	for _, line := range strings.Split(cm.Equations(), "\n") {
		if strings.HasPrefix(line, "I"+suffixOf(cm)+" = ") {
			return line
		}
	}
	t.Fatalf("no current record in equations of %q", cm.Name)
	return ""
}

func suffixOf(cm *Compartment) string {
	if cm.Name == "" {
		return ""
	}
	return "_" + cm.Name
}

func TestSynapseAddsSingleCurrentTerm(t *testing.T) {
	dend := testDend(t)
	require.NoError(t, dend.Synapse("AMPA", "x", Syn{G: units.NS(1), TDecay: units.Ms(5)}))

	line := currentLine(t, dend)
	assert.Equal(t, 1, strings.Count(line, "I_AMPA_x_dend"))
	assert.Equal(t, []string{"I_AMPA_x_dend"}, dend.CurrentTerms())

	err := dend.Synapse("AMPA", "x", Syn{G: units.NS(2), TDecay: units.Ms(5)})
	var dup *DuplicateMechanismError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "AMPA_x", dup.Mech)

	// Same channel under a different tag is fine.
	require.NoError(t, dend.Synapse("AMPA", "y", Syn{TDecay: units.Ms(5)}))
	assert.Equal(t, []string{"I_AMPA_x_dend", "I_AMPA_y_dend"}, dend.CurrentTerms())
}

func TestSynapseParameters(t *testing.T) {
	dend := testDend(t)
	require.NoError(t, dend.Synapse("GABA", "i", Syn{
		G:      units.NS(2),
		TRise:  units.Ms(1),
		TDecay: units.Ms(8),
	}))
	params, err := dend.Parameters(nil)
	require.NoError(t, err)
	assert.Equal(t, unit.Dimless(1), params["w_GABA_i_dend"])
	assert.Equal(t, units.NS(2), params["g_GABA_i_dend"])
	assert.Equal(t, units.Ms(1), params["t_GABA_rise_i_dend"])
	assert.Equal(t, units.Ms(8), params["t_GABA_decay_i_dend"])

	// Both time constants select the dual-exponential variant.
	assert.True(t, dend.HasVar("x_GABA_i_dend"))

	// A bare synapse still gets its unit weight, nothing else.
	require.NoError(t, dend.Synapse("NMDA", "x", Syn{}))
	params, err = dend.Parameters(nil)
	require.NoError(t, err)
	assert.Equal(t, unit.Dimless(1), params["w_NMDA_x_dend"])
	_, ok := params["g_NMDA_x_dend"]
	assert.False(t, ok)

	err = dend.Synapse("glycine", "x", Syn{})
	assert.Error(t, err)
}

func TestGNormFactor(t *testing.T) {
	tr, td := units.Ms(2), units.Ms(50)
	f, err := GNormFactor(tr, td)
	require.NoError(t, err)

	// The waveform peaks at tp; the rescaled conductance there is exactly
	// the nominal value.
	trs, tds := float64(tr), float64(td)
	tp := (tds * trs / (tds - trs)) * math.Log(tds/trs)
	x := (tds * trs / (tds - trs)) * (-math.Exp(-tp/trs) + math.Exp(-tp/tds)) / 1e-3
	assert.InEpsilon(t, 1.0, f*x, 1e-12)

	_, err = GNormFactor(0, td)
	assert.Error(t, err)
	_, err = GNormFactor(tr, tr)
	assert.Error(t, err)
}

// TestNormalizedPeak integrates the dual-exponential kinetics and checks
// that a unitary event peaks at the nominal conductance within 1%.
func TestNormalizedPeak(t *testing.T) {
	dend := testDend(t)
	require.NoError(t, dend.Synapse("AMPA", "x", Syn{
		G:         units.NS(1),
		TRise:     units.Ms(2),
		TDecay:    units.Ms(50),
		Normalize: true,
	}))
	params, err := dend.Parameters(nil)
	require.NoError(t, err)
	gNorm := float64(params["g_AMPA_x_dend"].(unit.Conductance))

	// dx/dt = -x/t_decay + s/ms ; ds/dt = -s/t_rise ; unitary event: s = 1.
	const dt = 1e-6
	tr, td := 2e-3, 50e-3
	x, s := 0.0, 1.0
	peak := 0.0
	for tm := 0.0; tm < 0.3; tm += dt {
		x += dt * (-x/td + s/1e-3)
		s += dt * (-s / tr)
		if g := gNorm * x; g > peak {
			peak = g
		}
	}
	assert.InEpsilon(t, float64(units.NS(1)), peak, 0.01)
}

func TestNormalizeNeedsFullKinetics(t *testing.T) {
	dend := testDend(t)
	// Missing rise time: normalization is skipped, G kept as given.
	require.NoError(t, dend.Synapse("AMPA", "x", Syn{
		G: units.NS(1), TDecay: units.Ms(5), Normalize: true,
	}))
	params, err := dend.Parameters(nil)
	require.NoError(t, err)
	assert.Equal(t, units.NS(1), params["g_AMPA_x_dend"])
}

func TestNoise(t *testing.T) {
	soma := testSoma(t)
	require.NoError(t, soma.Noise(nil, nil, nil))
	assert.Contains(t, currentLine(t, soma), "I_noise_soma")

	params, err := soma.Parameters(nil)
	require.NoError(t, err)
	assert.Equal(t, units.Ms(20), params["tau_noise_soma"])
	assert.Equal(t, units.PA(1), params["sigma_noise_soma"])
	assert.Equal(t, unit.Current(0), params["mean_noise_soma"])

	err = soma.Noise(units.Ptr(units.Ms(10)), units.Ptr(units.PA(2)), nil)
	var dup *DuplicateMechanismError
	assert.ErrorAs(t, err, &dup)
}

func TestNoiseExplicitValues(t *testing.T) {
	soma := testSoma(t)
	// An explicit zero sigma is kept, not replaced by the default.
	require.NoError(t, soma.Noise(units.Ptr(units.Ms(5)), units.Ptr(units.PA(0)), units.Ptr(units.PA(30))))

	params, err := soma.Parameters(nil)
	require.NoError(t, err)
	assert.Equal(t, units.Ms(5), params["tau_noise_soma"])
	assert.Equal(t, unit.Current(0), params["sigma_noise_soma"])
	assert.Equal(t, units.PA(30), params["mean_noise_soma"])

	err = testSoma(t).Noise(units.Ptr(unit.Time(0)), nil, nil)
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	dend := testDend(t)
	require.NoError(t, dend.Synapse("AMPA", "x", Syn{TDecay: units.Ms(5)}))
	require.NoError(t, dend.DSpikes("Na", DSpikeConfig{
		Threshold: units.Ptr(units.MV(-35)),
	}))

	cp := dend.Clone()
	require.NoError(t, cp.Synapse("GABA", "i", Syn{TDecay: units.Ms(8)}))
	require.NoError(t, cp.DSpikes("Ca", DSpikeConfig{}))

	assert.NotContains(t, dend.CurrentTerms(), "I_GABA_i_dend")
	assert.False(t, dend.HasDSpike("Ca"))
	assert.True(t, cp.HasDSpike("Na"))
	assert.Contains(t, cp.CurrentTerms(), "I_AMPA_x_dend")

	// The duplicate guard still sees the inherited mechanisms.
	var dup *DuplicateMechanismError
	assert.ErrorAs(t, cp.Synapse("AMPA", "x", Syn{}), &dup)
}

func TestString(t *testing.T) {
	dend := testDend(t)
	require.NoError(t, dend.DSpikes("Na", DSpikeConfig{Threshold: units.Ptr(units.MV(-35))}))
	out := dend.String()
	assert.Contains(t, out, "EQUATIONS")
	assert.Contains(t, out, "PARAMETERS")
	assert.Contains(t, out, "spike_Na_dend")
}
