// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package dendrite is the overall repository for building reduced, few-compartment
integrate-and-fire neuron models in the Go language (golang).  Compartments are
specified declaratively; the library composes their membrane, synaptic, coupling
and dendritic-spike equations into a single model description that an external
simulation engine can integrate.

This top-level of the repository has no functional code -- everything is
organized into the following sub-repositories:

* dlog: the diagnostics logger that soft failures (unresolvable properties)
report through.

* units: physical-quantity helpers (volts, farads, siemens, ...) built on
gonum's unit types, plus the integer step-count quantization used by the
dendritic-spike event conditions.

* equations: the fixed catalog of membrane / synapse / noise / dendritic-spike
equation templates, and the Block accumulator that keeps one compartment's
equations as an ordered list of typed fragments with a single total-current
record.

* ephys: the electrophysiological property calculator, deriving areas,
capacitances and coupling conductances from compartment geometry, and the
default ionic-constants table.

* compartment: the central Compartment type with its composition protocol
(Synapse, Noise, Connect, DSpikes) and the dendritic-spike event engine.

* neuronmodel: assembles connected compartments into one Model, validates
naming and dimensionality, aggregates equations / parameters / events, and
hands everything to a simulation-engine adapter.

* examples: these actually compile into runnable programs.  examples/twocomp
builds the standard soma + dendrite model and prints the composed equations
and parameters.
*/
package dendrite
