// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compartment

import "fmt"

// DuplicateMechanismError reports an attempt to add a mechanism (synapse
// channel+tag, noise, or dendritic-spike event) that the compartment already
// carries.  Always fatal at the offending call.
type DuplicateMechanismError struct {
	Comp string // compartment name
	Mech string // mechanism identifier, e.g. "AMPA_x" or "noise"
}

func (e *DuplicateMechanismError) Error() string {
	return fmt.Sprintf("compartment: mechanism %q has already been added to %q -- use a different [channel, tag] or event name", e.Mech, e.Comp)
}

// CapabilityError reports a dendrite-only operation invoked on a compartment
// whose role does not carry the dendritic-spike capability.
type CapabilityError struct {
	Comp string
	Role Role
	Op   string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("compartment: %s requires a dendrite compartment, but %q has role %s", e.Op, e.Comp, e.Role)
}
