// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ephys

import (
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/unit"
	"gopkg.in/yaml.v3"

	"github.com/emer/dendrite/units"
)

// Constants is the table of default ionic and synaptic constants shared by
// every compartment of a model: channel reversal potentials and the NMDA
// magnesium-block parameters.  It is an explicit value passed into models at
// construction, not mutable process-wide state; build a modified copy (or
// load one from YAML) to override.
type Constants struct {
	EAMPA     unit.Voltage `desc:"AMPA channel reversal potential"`
	ENMDA     unit.Voltage `desc:"NMDA channel reversal potential"`
	EGABA     unit.Voltage `desc:"GABA channel reversal potential"`
	ENa       unit.Voltage `desc:"sodium reversal potential"`
	EK        unit.Voltage `desc:"potassium reversal potential"`
	ECa       unit.Voltage `desc:"calcium reversal potential"`
	MgCon     float64      `desc:"extracellular magnesium concentration for the NMDA block (mM)"`
	AlphaNMDA float64      `desc:"voltage sensitivity of the NMDA magnesium block (1/mV)"`
	BetaNMDA  float64      `desc:"magnesium block scaling constant"`
	GammaNMDA float64      `desc:"voltage offset of the NMDA magnesium block (mV)"`
}

// Defaults returns the standard constants table.
func Defaults() Constants {
	return Constants{
		EAMPA:     units.MV(0),
		ENMDA:     units.MV(0),
		EGABA:     units.MV(-80),
		ENa:       units.MV(70),
		EK:        units.MV(-89),
		ECa:       units.MV(136),
		MgCon:     1.0,
		AlphaNMDA: 0.062,
		BetaNMDA:  3.57,
		GammaNMDA: 0,
	}
}

// Parameters returns the constants as an engine parameter namespace.
func (c Constants) Parameters() units.Parameters {
	return units.Parameters{
		"E_AMPA":     c.EAMPA,
		"E_NMDA":     c.ENMDA,
		"E_GABA":     c.EGABA,
		"E_Na":       c.ENa,
		"E_K":        c.EK,
		"E_Ca":       c.ECa,
		"Mg_con":     unit.Dimless(c.MgCon),
		"Alpha_NMDA": unit.Dimless(c.AlphaNMDA),
		"Beta_NMDA":  unit.Dimless(c.BetaNMDA),
		"Gamma_NMDA": unit.Dimless(c.GammaNMDA),
	}
}

// ReversalKeys returns the valid symbolic reversal-potential keys, sorted.
func ReversalKeys() []string {
	return []string{"E_AMPA", "E_Ca", "E_GABA", "E_K", "E_NMDA", "E_Na"}
}

// Reversal resolves a symbolic reversal-potential key against the table.
// An unknown key is an error naming the valid key set.
func (c Constants) Reversal(key string) (unit.Voltage, error) {
	switch key {
	case "E_AMPA":
		return c.EAMPA, nil
	case "E_NMDA":
		return c.ENMDA, nil
	case "E_GABA":
		return c.EGABA, nil
	case "E_Na":
		return c.ENa, nil
	case "E_K":
		return c.EK, nil
	case "E_Ca":
		return c.ECa, nil
	}
	return 0, fmt.Errorf("ephys: unknown ionic reference %q, valid keys: %s",
		key, strings.Join(ReversalKeys(), ", "))
}

// constantsFile is the YAML override schema.  Voltages are given in mV;
// absent fields keep their defaults.
type constantsFile struct {
	EAMPAmv   *float64 `yaml:"e_ampa_mv"`
	ENMDAmv   *float64 `yaml:"e_nmda_mv"`
	EGABAmv   *float64 `yaml:"e_gaba_mv"`
	ENamv     *float64 `yaml:"e_na_mv"`
	EKmv      *float64 `yaml:"e_k_mv"`
	ECamv     *float64 `yaml:"e_ca_mv"`
	MgCon     *float64 `yaml:"mg_con"`
	AlphaNMDA *float64 `yaml:"alpha_nmda"`
	BetaNMDA  *float64 `yaml:"beta_nmda"`
	GammaNMDA *float64 `yaml:"gamma_nmda"`
}

// LoadConstants reads a YAML constants override and returns the default
// table with the provided fields replaced.
func LoadConstants(r io.Reader) (Constants, error) {
	c := Defaults()
	var f constantsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return c, fmt.Errorf("ephys: reading constants: %w", err)
	}
	if f.EAMPAmv != nil {
		c.EAMPA = units.MV(*f.EAMPAmv)
	}
	if f.ENMDAmv != nil {
		c.ENMDA = units.MV(*f.ENMDAmv)
	}
	if f.EGABAmv != nil {
		c.EGABA = units.MV(*f.EGABAmv)
	}
	if f.ENamv != nil {
		c.ENa = units.MV(*f.ENamv)
	}
	if f.EKmv != nil {
		c.EK = units.MV(*f.EKmv)
	}
	if f.ECamv != nil {
		c.ECa = units.MV(*f.ECamv)
	}
	if f.MgCon != nil {
		c.MgCon = *f.MgCon
	}
	if f.AlphaNMDA != nil {
		c.AlphaNMDA = *f.AlphaNMDA
	}
	if f.BetaNMDA != nil {
		c.BetaNMDA = *f.BetaNMDA
	}
	if f.GammaNMDA != nil {
		c.GammaNMDA = *f.GammaNMDA
	}
	return c, nil
}
