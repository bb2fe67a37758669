// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package equations holds the fixed catalog of equation-fragment templates
(membrane models, synaptic kinetics, noise, dendritic-spike channels) and the
Block accumulator that composes one compartment's equations.

The engine's equation language is one declaration per line:

	d<var>/dt = <rhs>  :<unit>     differential quantity
	<var> = <rhs>  :<unit>         algebraic (derived) quantity
	<var>  :<unit>                 free state variable

A Block keeps an ordered list of typed fragments plus a single total-current
record whose right-hand side is rebuilt from a term list, so adding a current
source is an O(1) append with duplicate detection instead of a textual
find-and-replace on anchor substrings.  Declaration order is preserved
verbatim into the rendered text because the engine's parser is sensitive to
the order of derived quantities.
*/
package equations

import (
	"fmt"
	"strings"
)

// Kind is the declaration kind of an equation fragment.
type Kind int32

const (
	// Diff is a differential quantity: d<var>/dt = rhs.
	Diff Kind = iota

	// Algebraic is a derived quantity: <var> = rhs.
	Algebraic

	// Free is a free state variable with no defining equation.
	Free
)

func (k Kind) String() string {
	switch k {
	case Diff:
		return "diff"
	case Algebraic:
		return "algebraic"
	case Free:
		return "free"
	}
	return fmt.Sprintf("Kind(%d)", int32(k))
}

// Fragment is one equation declaration.
type Fragment struct {
	Kind Kind   // declaration kind
	Var  string // variable name, without the d<var>/dt decoration
	RHS  string // right-hand-side expression; empty for Free
	Unit string // engine unit annotation: volt, amp, siemens, 1, ...
}

// Render returns the fragment as one line of engine equation text.
func (f Fragment) Render() string {
	switch f.Kind {
	case Diff:
		return fmt.Sprintf("d%s/dt = %s  :%s", f.Var, f.RHS, f.Unit)
	case Algebraic:
		return fmt.Sprintf("%s = %s  :%s", f.Var, f.RHS, f.Unit)
	default:
		return fmt.Sprintf("%s  :%s", f.Var, f.Unit)
	}
}

// Block accumulates the equations describing a single compartment.  Exactly
// one fragment is the total-current record; every current source added later
// becomes an additive term on its right-hand side.
type Block struct {
	frags   []Fragment
	vars    map[string]int // defined variable -> index into frags
	current int            // index of the total-current record
	base    string         // external input term, e.g. I_ext_soma
	terms   []string       // additive current terms, in insertion order
	termSet map[string]struct{}
}

// NewBlock builds a Block from an initial fragment list (normally a membrane
// template).  currentVar names the total injected current variable and base
// its external-input term; the fragments must contain exactly one algebraic
// definition `currentVar = base`.
func NewBlock(frags []Fragment, currentVar, base string) (*Block, error) {
	b := &Block{
		vars:    make(map[string]int, len(frags)),
		current: -1,
		base:    base,
		termSet: make(map[string]struct{}),
	}
	if err := b.Append(frags...); err != nil {
		return nil, err
	}
	idx, ok := b.vars[currentVar]
	if !ok || b.frags[idx].Kind != Algebraic || b.frags[idx].RHS != base {
		return nil, fmt.Errorf("equations: no total-current record %s = %s in fragments", currentVar, base)
	}
	b.current = idx
	return b, nil
}

// Append adds fragments to the end of the block, rejecting any variable that
// already has a defining equation.
func (b *Block) Append(frags ...Fragment) error {
	for _, f := range frags {
		if _, dup := b.vars[f.Var]; dup {
			return fmt.Errorf("equations: variable %s is already defined", f.Var)
		}
		b.vars[f.Var] = len(b.frags)
		b.frags = append(b.frags, f)
	}
	return nil
}

// AddCurrentTerm appends an additive term to the total-current record.
func (b *Block) AddCurrentTerm(term string) error {
	if _, dup := b.termSet[term]; dup {
		return fmt.Errorf("equations: current term %s is already present", term)
	}
	b.termSet[term] = struct{}{}
	b.terms = append(b.terms, term)
	return nil
}

// HasVar reports whether the block defines the named variable.
func (b *Block) HasVar(name string) bool {
	_, ok := b.vars[name]
	return ok
}

// HasTerm reports whether the total-current record already includes the term.
func (b *Block) HasTerm(term string) bool {
	_, ok := b.termSet[term]
	return ok
}

// CurrentVar returns the name of the total injected current variable.
func (b *Block) CurrentVar() string { return b.frags[b.current].Var }

// Terms returns a copy of the additive current terms, in insertion order.
func (b *Block) Terms() []string {
	out := make([]string, len(b.terms))
	copy(out, b.terms)
	return out
}

// Render returns the block as engine equation text, one declaration per
// line, in insertion order.  The total-current record is rendered with its
// accumulated terms.
func (b *Block) Render() string {
	lines := make([]string, len(b.frags))
	for i, f := range b.frags {
		if i == b.current {
			rhs := b.base
			if len(b.terms) > 0 {
				rhs += " + " + strings.Join(b.terms, " + ")
			}
			f.RHS = rhs
		}
		lines[i] = f.Render()
	}
	return strings.Join(lines, "\n")
}

// Clone returns a deep copy of the block.
func (b *Block) Clone() *Block {
	out := &Block{
		frags:   make([]Fragment, len(b.frags)),
		vars:    make(map[string]int, len(b.vars)),
		current: b.current,
		base:    b.base,
		terms:   make([]string, len(b.terms)),
		termSet: make(map[string]struct{}, len(b.termSet)),
	}
	copy(out.frags, b.frags)
	copy(out.terms, b.terms)
	for k, v := range b.vars {
		out.vars[k] = v
	}
	for k := range b.termSet {
		out.termSet[k] = struct{}{}
	}
	return out
}
