// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFragmentRender(t *testing.T) {
	diff := Fragment{Diff, "V_soma", "(gL_soma * (EL_soma-V_soma) + I_soma) / C_soma", "volt"}
	assert.Equal(t, "dV_soma/dt = (gL_soma * (EL_soma-V_soma) + I_soma) / C_soma  :volt", diff.Render())

	alg := Fragment{Algebraic, "I_soma", "I_ext_soma", "amp"}
	assert.Equal(t, "I_soma = I_ext_soma  :amp", alg.Render())

	free := Fragment{Free, "I_ext_soma", "", "amp"}
	assert.Equal(t, "I_ext_soma  :amp", free.Render())
}

func newTestBlock(t *testing.T) *Block {
	t.Helper()
	frags, err := Membrane(Passive, "soma")
	require.NoError(t, err)
	b, err := NewBlock(frags, "I_soma", "I_ext_soma")
	require.NoError(t, err)
	return b
}

func TestNewBlockRequiresCurrentRecord(t *testing.T) {
	frags, err := Membrane(Passive, "soma")
	require.NoError(t, err)
	_, err = NewBlock(frags, "I_dend", "I_ext_dend")
	assert.Error(t, err)
}

func TestBlockAppendRejectsRedefinition(t *testing.T) {
	b := newTestBlock(t)
	err := b.Append(Fragment{Algebraic, "V_soma", "0*mV", "volt"})
	assert.Error(t, err)
}

func TestBlockCurrentTerms(t *testing.T) {
	b := newTestBlock(t)
	require.NoError(t, b.AddCurrentTerm("I_AMPA_x_soma"))
	require.NoError(t, b.AddCurrentTerm("I_dend_soma"))
	assert.Error(t, b.AddCurrentTerm("I_AMPA_x_soma"))

	out := b.Render()
	assert.Contains(t, out, "I_soma = I_ext_soma + I_AMPA_x_soma + I_dend_soma  :amp")
	assert.Equal(t, 1, strings.Count(out, "I_AMPA_x_soma"), "term appears once in the current record")
	assert.Equal(t, []string{"I_AMPA_x_soma", "I_dend_soma"}, b.Terms())
	assert.Equal(t, "I_soma", b.CurrentVar())
	assert.True(t, b.HasTerm("I_dend_soma"))
	assert.False(t, b.HasTerm("I_noise_soma"))
}

func TestBlockCloneIsIndependent(t *testing.T) {
	b := newTestBlock(t)
	require.NoError(t, b.AddCurrentTerm("I_noise_soma"))

	c := b.Clone()
	require.NoError(t, c.AddCurrentTerm("I_dend_soma"))
	require.NoError(t, c.Append(Fragment{Free, "w_extra", "", "1"}))

	assert.False(t, b.HasTerm("I_dend_soma"))
	assert.False(t, b.HasVar("w_extra"))
	assert.True(t, c.HasTerm("I_noise_soma"))
}

func TestBlockRenderPreservesOrder(t *testing.T) {
	b := newTestBlock(t)
	require.NoError(t, b.Append(Noise("soma")...))
	require.NoError(t, b.AddCurrentTerm("I_noise_soma"))

	lines := strings.Split(b.Render(), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.True(t, strings.HasPrefix(lines[0], "dV_soma/dt"), "membrane equation stays first")
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "dI_noise_soma/dt"), "late additions render last")
}
