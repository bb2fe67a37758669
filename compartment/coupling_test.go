// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compartment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emer/dendrite/ephys"
	"github.com/emer/dendrite/units"
)

func testDimensioned(t *testing.T, name string) *Compartment {
	t.Helper()
	cm, err := NewDendrite(name, "", ephys.Props{
		Length:   units.Um(250),
		Diameter: units.Um(2),
		Cm:       units.UFPerCm2(1),
		Gl:       units.USPerCm2(40),
		RAxial:   units.OhmCm(150),
		VRest:    units.MV(-70),
	})
	require.NoError(t, err)
	return cm
}

func TestConnectSameNameAlwaysFails(t *testing.T) {
	couplings := []Coupling{
		{}, // half cylinders
		ExplicitG(units.NS(15)),
		CylinderOf("x"),
	}
	for _, g := range couplings {
		a := testDimensioned(t, "x")
		b := testDimensioned(t, "x")
		assert.Error(t, a.Connect(b, g), "coupling %v", g.Kind)
		assert.Error(t, a.Connect(a, g), "self connect, coupling %v", g.Kind)
	}
}

func TestConnectExplicit(t *testing.T) {
	soma, dend := testSoma(t), testDend(t)
	require.NoError(t, soma.Connect(dend, ExplicitG(units.NS(15))))

	assert.Contains(t, soma.CurrentTerms(), "I_dend_soma")
	assert.Contains(t, dend.CurrentTerms(), "I_soma_dend")
	assert.True(t, soma.HasVar("I_dend_soma"))
	assert.True(t, dend.HasVar("I_soma_dend"))

	sp, err := soma.Parameters(nil)
	require.NoError(t, err)
	assert.Equal(t, units.NS(15), sp["g_dend_soma"])
	dp, err := dend.Parameters(nil)
	require.NoError(t, err)
	assert.Equal(t, units.NS(15), dp["g_soma_dend"])

	// A second connection between the same pair is rejected.
	assert.Error(t, soma.Connect(dend, ExplicitG(units.NS(1))))
}

func TestConnectExplicitNeedsConductance(t *testing.T) {
	soma, dend := testSoma(t), testDend(t)
	assert.Error(t, soma.Connect(dend, ExplicitG(0)))
}

func TestConnectDerivedNeedsGeometry(t *testing.T) {
	// Dimensionless endpoints cannot derive a conductance from geometry.
	var derr *ephys.DimensionlessError
	assert.ErrorAs(t, testSoma(t).Connect(testDend(t), Coupling{}), &derr)
	assert.ErrorAs(t, testSoma(t).Connect(testDimensioned(t, "d"), Coupling{}), &derr)
	assert.ErrorAs(t, testDimensioned(t, "d").Connect(testSoma(t), Coupling{}), &derr)
	assert.ErrorAs(t, testSoma(t).Connect(testDend(t), CylinderOf("dend")), &derr)
	// Mixed pairs fail even when the cylinder endpoint is the dimensioned one.
	assert.ErrorAs(t, testSoma(t).Connect(testDimensioned(t, "d"), CylinderOf("d")), &derr)
	assert.ErrorAs(t, testDimensioned(t, "d").Connect(testSoma(t), CylinderOf("d")), &derr)
}

func TestConnectHalfCylinders(t *testing.T) {
	a := testDimensioned(t, "prox")
	b := testDimensioned(t, "dist")
	require.NoError(t, a.Connect(b, Coupling{}))

	lookup := func(name string) (*ephys.Props, bool) {
		switch name {
		case "prox":
			return a.Props(), true
		case "dist":
			return b.Props(), true
		}
		return nil, false
	}
	want, err := ephys.CouplingConductance(a.Props(), b.Props())
	require.NoError(t, err)

	ap, err := a.Parameters(lookup)
	require.NoError(t, err)
	assert.Equal(t, want, ap["g_dist_prox"])
	bp, err := b.Parameters(lookup)
	require.NoError(t, err)
	assert.Equal(t, want, bp["g_prox_dist"])

	// Without the peer in scope the conductance is omitted, not an error.
	ap, err = a.Parameters(nil)
	require.NoError(t, err)
	_, ok := ap["g_dist_prox"]
	assert.False(t, ok)
}

func TestConnectCylinder(t *testing.T) {
	a := testDimensioned(t, "prox")
	b := testDimensioned(t, "dist")
	require.NoError(t, a.Connect(b, CylinderOf("dist")))

	want, err := b.Props().CylinderConductance()
	require.NoError(t, err)

	lookup := func(name string) (*ephys.Props, bool) {
		if name == "dist" {
			return b.Props(), true
		}
		return nil, false
	}
	ap, err := a.Parameters(lookup)
	require.NoError(t, err)
	assert.Equal(t, want, ap["g_dist_prox"])

	// Both sides resolve against the same endpoint.
	bp, err := b.Parameters(nil)
	require.NoError(t, err)
	assert.Equal(t, want, bp["g_prox_dist"])
}

func TestConnectCylinderEndpointMustMatch(t *testing.T) {
	a := testDimensioned(t, "prox")
	b := testDimensioned(t, "dist")
	assert.Error(t, a.Connect(b, CylinderOf("apical")))
}

func TestConnectionsAreCopiedOnClone(t *testing.T) {
	a := testDimensioned(t, "prox")
	b := testDimensioned(t, "dist")
	require.NoError(t, a.Connect(b, Coupling{}))

	cp := a.Clone()
	conns := cp.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, "dist", conns[0].Peer)
	assert.Equal(t, HalfCylinders, conns[0].Kind)
}
