// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package builder

import (
	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
)

// reviveNodes marks every dependency of an alive node alive. Dependencies
// are link and stage link sources, the nearest earlier writer of each
// semantic the node reads unlinked, and for input and output role nodes the
// nearest earlier node of the same fragment in the same group, which keeps
// chained input fetches connected.
func (a *Analysis) reviveNodes() {
	var queue []int
	for i := len(a.Work) - 1; i >= 0; i-- {
		if a.Work[i].Alive {
			queue = append(queue, i)
		}
	}
	revive := func(i int) {
		if i >= 0 && !a.Work[i].Alive {
			a.Work[i].Alive = true
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		w := &a.Work[i]

		for _, p := range a.producers(w.Node) {
			revive(a.pos[p])
		}
		for _, sem := range a.semanticReads(w.Node) {
			revive(a.previousWriter(i, sem))
		}
		if r := w.Fragment.Role; r == fragment.RoleInput || r == fragment.RoleOutput {
			revive(a.previousSibling(i))
		}
	}
}

// previousWriter returns the position of the nearest node before i that
// writes sem, or -1.
func (a *Analysis) previousWriter(i int, sem string) int {
	for j := i - 1; j >= 0; j-- {
		for _, s := range a.semanticWrites(a.Work[j].Node) {
			if s == sem {
				return j
			}
		}
	}
	return -1
}

// previousSibling returns the position of the nearest node before i with
// the same fragment and group, or -1.
func (a *Analysis) previousSibling(i int) int {
	w := &a.Work[i]
	for j := i - 1; j >= 0; j-- {
		o := &a.Work[j]
		if o.Fragment == w.Fragment && o.Group == w.Group {
			return j
		}
	}
	return -1
}

// consumers returns the working set nodes linking from id.
func (a *Analysis) consumers(id graph.NodeID) []graph.NodeID {
	var out []graph.NodeID
	for i := range a.Work {
		n := a.Graph.Node(a.Work[i].Node)
		for _, l := range n.Inputs {
			if l.Source == id {
				out = append(out, n.ID)
				break
			}
		}
	}
	return out
}
