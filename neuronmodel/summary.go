// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neuronmodel

import (
	"fmt"
	"io"
	"strings"

	"github.com/goki/ki/indent"
)

// String renders the structural summary as text.
func (m *Model) String() string {
	var sb strings.Builder
	m.WriteSummary(&sb)
	return sb.String()
}

// WriteSummary writes a human-readable structural summary of the model:
// compartments with their roles, mechanisms and events, the connection
// topology, and the resolved parameter names.
func (m *Model) WriteSummary(w io.Writer) {
	depth := 0
	w.Write(indent.TabBytes(depth))
	fmt.Fprintf(w, "Model: %d compartments, %d connections\n", len(m.comps), len(m.graph))
	depth++
	for _, c := range m.comps {
		w.Write(indent.TabBytes(depth))
		fmt.Fprintf(w, "%s: %s\n", c.Name, c.Role())
		depth++
		if terms := c.CurrentTerms(); len(terms) > 0 {
			w.Write(indent.TabBytes(depth))
			fmt.Fprintf(w, "currents: %s\n", strings.Join(terms, " + "))
		}
		if evs := c.EventNames(); len(evs) > 0 {
			w.Write(indent.TabBytes(depth))
			fmt.Fprintf(w, "events: %s\n", strings.Join(evs, ", "))
		}
		depth--
	}
	w.Write(indent.TabBytes(depth))
	fmt.Fprintf(w, "topology:\n")
	depth++
	for _, e := range m.graph {
		w.Write(indent.TabBytes(depth))
		fmt.Fprintf(w, "%s <-> %s\n", e[0], e[1])
	}
	depth--
	params, err := m.Parameters()
	if err != nil {
		w.Write(indent.TabBytes(depth))
		fmt.Fprintf(w, "parameters: <unresolvable: %v>\n", err)
		return
	}
	w.Write(indent.TabBytes(depth))
	fmt.Fprintf(w, "parameters: %s\n", strings.Join(params.Names(), ", "))
}
