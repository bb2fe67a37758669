// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compartment

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/unit"

	"github.com/emer/dendrite/dlog"
	"github.com/emer/dendrite/ephys"
	"github.com/emer/dendrite/equations"
	"github.com/emer/dendrite/units"
)

// CouplingKind selects how the axial conductance between two connected
// compartments is obtained.
type CouplingKind int32

const (
	// HalfCylinders derives the conductance from the axial resistances of
	// both endpoints, averaging the two half cylinders.  This is the
	// default: the zero value of Coupling connects this way.
	HalfCylinders CouplingKind = iota

	// Cylinder derives the conductance from the full cylindrical resistance
	// of a single named endpoint.
	Cylinder

	// Explicit uses a user-provided conductance as-is.
	Explicit
)

func (k CouplingKind) String() string {
	switch k {
	case HalfCylinders:
		return "half_cylinders"
	case Cylinder:
		return "cylinder"
	case Explicit:
		return "explicit"
	}
	return fmt.Sprintf("CouplingKind(%d)", int32(k))
}

// Coupling describes the axial conductance of one connection.  The zero
// value requests half-cylinder derivation from both endpoints' geometry.
type Coupling struct {
	Kind     CouplingKind     `desc:"how the conductance is obtained"`
	G        unit.Conductance `desc:"conductance value, used only when Kind is Explicit"`
	Endpoint string           `desc:"name of the compartment whose cylinder sets the conductance, used only when Kind is Cylinder"`
}

// ExplicitG returns a Coupling that uses the given conductance directly.
func ExplicitG(g unit.Conductance) Coupling {
	return Coupling{Kind: Explicit, G: g}
}

// CylinderOf returns a Coupling derived from the full cylindrical
// resistance of the named endpoint, which must be one of the two
// compartments being connected.
func CylinderOf(name string) Coupling {
	return Coupling{Kind: Cylinder, Endpoint: name}
}

// Connection records one attached neighbor, as seen from this compartment.
// The peer is stored by name so that connections survive compartment
// copying: the conductance is resolved against a PropsLookup at parameter
// export time, not at connect time.
type Connection struct {
	GVar     string           `desc:"name of the conductance parameter, g_<from>_<to>"`
	Kind     CouplingKind     `desc:"how the conductance is obtained"`
	G        unit.Conductance `desc:"explicit conductance, when Kind is Explicit"`
	Peer     string           `desc:"name of the other endpoint"`
	Endpoint string           `desc:"cylinder endpoint name, when Kind is Cylinder"`
}

// PropsLookup resolves a compartment name to its physical properties.
// Model assembly supplies one spanning all member compartments; a nil
// lookup resolves nothing beyond the receiver itself.
type PropsLookup func(name string) (*ephys.Props, bool)

// Connect electrically couples cm and other: each side gains an axial
// current I_<from>_<to> driven by the voltage difference, added to its
// total injected current.  Both compartments must carry distinct non-empty
// names.  Derived couplings (HalfCylinders, Cylinder) require dimensioned
// properties on the endpoints involved.
func (cm *Compartment) Connect(other *Compartment, g Coupling) error {
	if other == nil {
		return fmt.Errorf("compartment: cannot connect %q to a nil compartment", cm.Name)
	}
	if cm == other || cm.Name == other.Name {
		return fmt.Errorf("compartment: cannot connect %q to itself or to another compartment of the same name", cm.Name)
	}
	if cm.Name == "" || other.Name == "" {
		return errors.New("compartment: connected compartments must be named")
	}
	switch g.Kind {
	case Explicit:
		if g.G == 0 {
			return fmt.Errorf("compartment: explicit coupling between %q and %q needs a nonzero conductance", cm.Name, other.Name)
		}
	case Cylinder:
		if g.Endpoint != cm.Name && g.Endpoint != other.Name {
			return fmt.Errorf("compartment: cylinder endpoint %q is neither %q nor %q", g.Endpoint, cm.Name, other.Name)
		}
		if cm.props.Dimensionless() {
			return &ephys.DimensionlessError{Name: cm.Name, Op: "deriving a cylinder coupling conductance"}
		}
		if other.props.Dimensionless() {
			return &ephys.DimensionlessError{Name: other.Name, Op: "deriving a cylinder coupling conductance"}
		}
	case HalfCylinders:
		if cm.props.Dimensionless() {
			return &ephys.DimensionlessError{Name: cm.Name, Op: "deriving a half-cylinders coupling conductance"}
		}
		if other.props.Dimensionless() {
			return &ephys.DimensionlessError{Name: other.Name, Op: "deriving a half-cylinders coupling conductance"}
		}
	default:
		return fmt.Errorf("compartment: invalid coupling kind %v", g.Kind)
	}

	fwd := equations.CouplingCurrent(other.Name, cm.Name) // current into cm
	bwd := equations.CouplingCurrent(cm.Name, other.Name) // current into other
	if err := cm.block.AddCurrentTerm(fwd.Var); err != nil {
		return fmt.Errorf("compartment: %q already connected to %q: %w", cm.Name, other.Name, err)
	}
	if err := other.block.AddCurrentTerm(bwd.Var); err != nil {
		return fmt.Errorf("compartment: %q already connected to %q: %w", other.Name, cm.Name, err)
	}
	if err := cm.block.Append(fwd); err != nil {
		return err
	}
	if err := other.block.Append(bwd); err != nil {
		return err
	}

	base := Connection{Kind: g.Kind, G: g.G, Endpoint: g.Endpoint}
	toSelf := base
	toSelf.GVar = "g_" + other.Name + "_" + cm.Name
	toSelf.Peer = other.Name
	toOther := base
	toOther.GVar = "g_" + cm.Name + "_" + other.Name
	toOther.Peer = cm.Name
	cm.conns = append(cm.conns, toSelf)
	other.conns = append(other.conns, toOther)
	return nil
}

// Connections returns a copy of the connection records attached to cm.
func (cm *Compartment) Connections() []Connection {
	out := make([]Connection, len(cm.conns))
	copy(out, cm.conns)
	return out
}

// couplingParameters resolves every attached connection to a conductance
// parameter.  Unresolvable derived couplings (missing peer or missing
// geometry) are logged and omitted, so that partially-specified models can
// still be inspected.
func (cm *Compartment) couplingParameters(lookup PropsLookup) (units.Parameters, error) {
	find := func(name string) (*ephys.Props, bool) {
		if name == cm.Name {
			return cm.props, true
		}
		if lookup == nil {
			return nil, false
		}
		return lookup(name)
	}
	out := units.Parameters{}
	for _, cn := range cm.conns {
		switch cn.Kind {
		case Explicit:
			out[cn.GVar] = cn.G
		case HalfCylinders:
			peer, ok := find(cn.Peer)
			if !ok {
				dlog.Warnw("peer properties unavailable, omitting coupling conductance",
					"name", cm.Name, "peer", cn.Peer, "param", cn.GVar)
				continue
			}
			g, err := ephys.CouplingConductance(cm.props, peer)
			if err != nil {
				if errors.Is(err, ephys.ErrMissing) {
					dlog.Warnw("coupling conductance unavailable",
						"name", cm.Name, "peer", cn.Peer, "param", cn.GVar, "err", err)
					continue
				}
				return nil, err
			}
			out[cn.GVar] = g
		case Cylinder:
			ep, ok := find(cn.Endpoint)
			if !ok {
				dlog.Warnw("cylinder endpoint unavailable, omitting coupling conductance",
					"name", cm.Name, "endpoint", cn.Endpoint, "param", cn.GVar)
				continue
			}
			g, err := ep.CylinderConductance()
			if err != nil {
				if errors.Is(err, ephys.ErrMissing) {
					dlog.Warnw("cylinder conductance unavailable",
						"name", cm.Name, "endpoint", cn.Endpoint, "param", cn.GVar, "err", err)
					continue
				}
				return nil, err
			}
			out[cn.GVar] = g
		}
	}
	return out, nil
}
