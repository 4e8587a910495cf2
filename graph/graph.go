// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package graph

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// NodeID indexes a node in its graph's arena.
type NodeID int

// Preference is the authored hint for which raster shader a node should run in.
type Preference uint8

const (
	PreferNone Preference = iota
	PreferVertex
	PreferPixel
)

// String returns the lowercase preference name.
func (p Preference) String() string {
	switch p {
	case PreferVertex:
		return "vertex"
	case PreferPixel:
		return "pixel"
	default:
		return "none"
	}
}

// ParsePreference parses a preference name; "" parses as PreferNone.
func ParsePreference(s string) (Preference, bool) {
	switch s {
	case "", "none":
		return PreferNone, true
	case "vertex":
		return PreferVertex, true
	case "pixel":
		return PreferPixel, true
	default:
		return PreferNone, false
	}
}

// Link feeds one input parameter of a node from an output slot of another.
type Link struct {
	// Input is the consuming parameter name.
	Input string

	// Source is the producing node.
	Source NodeID

	// Output is the index into the producer fragment's output slots.
	Output int

	// Mask is an optional swizzle applied to the source value, e.g. "xyz".
	Mask string
}

// Node is one fragment instantiation.
type Node struct {
	ID NodeID

	// Fragment is resolved by name against the repository at build time.
	Fragment string

	// Stage is the authored stage; StageUnresolved lets the builder decide.
	Stage Stage

	// Group is the batching group; 0 is the shared group.
	Group int

	// GraphIndex is the authoring order, used as a tie-break when sorting.
	GraphIndex int

	Inputs []Link

	// StageLinks are ordering and liveness dependencies on extension-point
	// writers that carry no value through a local variable.
	StageLinks []NodeID

	Prefer Preference

	// Label is an optional authoring name used in diagnostics.
	Label string
}

// Graph is an arena of nodes. Nodes[i].ID == i for every node.
type Graph struct {
	Name  string
	Nodes []Node
	Roots []NodeID
}

// New creates an empty graph.
func New(name string) *Graph {
	return &Graph{Name: name}
}

// NodeOption configures a node added with AddNode.
type NodeOption func(*Node)

// WithStage pins the authored stage of a node.
func WithStage(s Stage) NodeOption {
	return func(n *Node) { n.Stage = s }
}

// WithGroup places a node in a batching group.
func WithGroup(group int) NodeOption {
	return func(n *Node) { n.Group = group }
}

// WithPreference sets the preferred shader hint.
func WithPreference(p Preference) NodeOption {
	return func(n *Node) { n.Prefer = p }
}

// WithLabel sets the diagnostic label.
func WithLabel(label string) NodeOption {
	return func(n *Node) { n.Label = label }
}

// AddNode appends a node instantiating fragmentName and returns its ID.
// Graph indices increase monotonically with insertion.
func (g *Graph) AddNode(fragmentName string, opts ...NodeOption) NodeID {
	id := NodeID(len(g.Nodes))
	n := Node{
		ID:         id,
		Fragment:   fragmentName,
		GraphIndex: len(g.Nodes),
	}
	for _, opt := range opts {
		opt(&n)
	}
	g.Nodes = append(g.Nodes, n)
	return id
}

// Connect links output slot output of src to input parameter input of dst.
func (g *Graph) Connect(src NodeID, output int, dst NodeID, input string) {
	g.ConnectMasked(src, output, dst, input, "")
}

// ConnectMasked is Connect with a swizzle applied to the source value.
func (g *Graph) ConnectMasked(src NodeID, output int, dst NodeID, input, mask string) {
	n := &g.Nodes[dst]
	n.Inputs = append(n.Inputs, Link{Input: input, Source: src, Output: output, Mask: mask})
}

// AddStageLink makes dst depend on the extension-point writer src.
func (g *Graph) AddStageLink(src, dst NodeID) {
	n := &g.Nodes[dst]
	n.StageLinks = append(n.StageLinks, src)
}

// AddRoot marks a node as an externally required result.
func (g *Graph) AddRoot(id NodeID) {
	g.Roots = append(g.Roots, id)
}

// Node returns the node with the given ID.
func (g *Graph) Node(id NodeID) *Node {
	return &g.Nodes[id]
}

// Has reports whether id is a valid node index.
func (g *Graph) Has(id NodeID) bool {
	return id >= 0 && int(id) < len(g.Nodes)
}

// Name returns a diagnostic name for a node.
func (n *Node) Name() string {
	if n.Label != "" {
		return fmt.Sprintf("%s#%d(%s)", n.Fragment, n.ID, n.Label)
	}
	return fmt.Sprintf("%s#%d", n.Fragment, n.ID)
}

// Validate checks the structural invariants the builder relies on: arena
// IDs match positions, links only reference nodes authored earlier, and
// roots are in range. Every violation is reported.
func (g *Graph) Validate() error {
	var errs *multierror.Error
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if int(n.ID) != i {
			errs = multierror.Append(errs, fmt.Errorf("node at index %d has id %d", i, n.ID))
		}
		if n.Fragment == "" {
			errs = multierror.Append(errs, fmt.Errorf("node %d has no fragment", i))
		}
		for _, l := range n.Inputs {
			if !g.Has(l.Source) {
				errs = multierror.Append(errs, fmt.Errorf("%s: input %q links to unknown node %d", n.Name(), l.Input, l.Source))
				continue
			}
			if g.Nodes[l.Source].GraphIndex >= n.GraphIndex {
				errs = multierror.Append(errs, fmt.Errorf("%s: input %q links to %s which is not authored earlier", n.Name(), l.Input, g.Nodes[l.Source].Name()))
			}
			if l.Output < 0 {
				errs = multierror.Append(errs, fmt.Errorf("%s: input %q has negative output slot", n.Name(), l.Input))
			}
		}
		for _, s := range n.StageLinks {
			if !g.Has(s) {
				errs = multierror.Append(errs, fmt.Errorf("%s: stage link to unknown node %d", n.Name(), s))
				continue
			}
			if g.Nodes[s].GraphIndex >= n.GraphIndex {
				errs = multierror.Append(errs, fmt.Errorf("%s: stage link to %s which is not authored earlier", n.Name(), g.Nodes[s].Name()))
			}
		}
	}
	for _, r := range g.Roots {
		if !g.Has(r) {
			errs = multierror.Append(errs, fmt.Errorf("root %d out of range", r))
		}
	}
	return errs.ErrorOrNil()
}
