// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package builder

import (
	"errors"
	"sort"

	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
)

// WorkingData is the per-node state derived by the analysis. It lives for
// one build only.
type WorkingData struct {
	Node     graph.NodeID
	Fragment *fragment.Fragment

	// Stage is the resolved final sub-stage.
	Stage graph.Stage

	Group      int
	GraphIndex int

	// Root is set for externally required nodes.
	Root bool

	// Alive nodes are emitted.
	Alive bool

	// AnyShader nodes sit in the vertex stage and are emitted again in the
	// pixel shader instead of crossing the stage boundary.
	AnyShader bool

	// Moved is set when the node was pulled from the pixel into the vertex
	// shader.
	Moved bool
}

// EmittedIn reports whether the node's code appears in shader s.
func (w *WorkingData) EmittedIn(s graph.ShaderType) bool {
	if !w.Alive {
		return false
	}
	if w.Stage.Shader() == s {
		return true
	}
	return w.AnyShader && s == graph.ShaderPixel
}

// Analysis is the result of the analysis phase: which nodes participate,
// in which stage and order, and how values cross from the vertex to the
// pixel shader. The vertex and pixel builds of one graph compute identical
// analyses, which is what makes their cross-stage slots agree.
type Analysis struct {
	Graph   *graph.Graph
	Repo    *fragment.Repository
	Compute bool

	// Work holds the working set sorted by (stage, group, graph index).
	Work []WorkingData

	// Slots are the synthesized cross-stage slots ordered by key.
	Slots []Slot

	// GroupShim is set when more than one non-zero group occurs among the
	// alive pixel nodes.
	GroupShim bool

	frags     []*fragment.Fragment
	pos       map[graph.NodeID]int
	slotIndex map[SlotKey]int
}

// Analyze runs the analysis phase for a build of shader s. Render builds
// (vertex or pixel) analyze both raster stages together.
func Analyze(repo *fragment.Repository, g *graph.Graph, s graph.ShaderType) (*Analysis, error) {
	if repo == nil || g == nil {
		return nil, NewError(ErrInternal, "nil repository or graph")
	}
	if err := g.Validate(); err != nil {
		return nil, wrap(ErrGraphStructure, g.Name, err)
	}

	a := &Analysis{
		Graph:   g,
		Repo:    repo,
		Compute: s == graph.ShaderCompute,
	}
	if err := a.resolveFragments(); err != nil {
		return nil, err
	}

	a.buildWorkingSet()
	if err := a.fixNodeStages(); err != nil {
		return nil, err
	}
	a.sortWorkingData()
	a.reviveNodes()
	if !a.Compute {
		a.moveNodeShaderStage()
	}
	a.checkGroupIndex()
	if err := a.findCrossStageConnections(); err != nil {
		return nil, err
	}
	return a, nil
}

// Lookup returns the working data of a node in the working set.
func (a *Analysis) Lookup(id graph.NodeID) (*WorkingData, bool) {
	i, ok := a.pos[id]
	if !ok {
		return nil, false
	}
	return &a.Work[i], true
}

// Emitted returns the nodes emitted in shader s, in emission order.
func (a *Analysis) Emitted(s graph.ShaderType) []*WorkingData {
	var out []*WorkingData
	for i := range a.Work {
		if a.Work[i].EmittedIn(s) {
			out = append(out, &a.Work[i])
		}
	}
	return out
}

// Alive returns the number of alive nodes.
func (a *Analysis) Alive() int {
	n := 0
	for i := range a.Work {
		if a.Work[i].Alive {
			n++
		}
	}
	return n
}

// resolveFragments looks up every node's fragment and checks that links
// name existing parameters and output slots.
func (a *Analysis) resolveFragments() error {
	g := a.Graph
	a.frags = make([]*fragment.Fragment, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		f, err := a.Repo.Fragment(n.Fragment)
		if err != nil {
			return wrap(ErrGraphStructure, n.Name(), err)
		}
		a.frags[i] = f
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		for _, l := range n.Inputs {
			p, ok := a.frags[i].Param(l.Input)
			if !ok || !p.Kind.IsInput() || p.Kind == fragment.ParamStageIn {
				return errorf(ErrGraphStructure, n.Name(), "fragment %q has no linkable input %q", n.Fragment, l.Input)
			}
			if _, ok := a.frags[l.Source].Output(l.Output); !ok {
				return errorf(ErrGraphStructure, n.Name(), "input %q links to missing output %d of %s",
					l.Input, l.Output, g.Nodes[l.Source].Name())
			}
		}
	}
	return nil
}

// producers returns the nodes a node depends on: link sources followed by
// stage link sources.
func (a *Analysis) producers(id graph.NodeID) []graph.NodeID {
	n := a.Graph.Node(id)
	out := make([]graph.NodeID, 0, len(n.Inputs)+len(n.StageLinks))
	for _, l := range n.Inputs {
		out = append(out, l.Source)
	}
	return append(out, n.StageLinks...)
}

// semanticReads returns the canonical semantics a node reads without a
// link. Output role semantic inputs are stage outputs and are not reads.
func (a *Analysis) semanticReads(id graph.NodeID) []string {
	f := a.frags[id]
	n := a.Graph.Node(id)
	var out []string
	for _, p := range f.Params {
		if p.Semantic == "" || p.Kind == fragment.ParamStageIn || !p.Kind.IsInput() {
			continue
		}
		if f.Role == fragment.RoleOutput || fragment.IsSystemValue(p.Semantic) || linked(n, p.Name) {
			continue
		}
		out = append(out, fragment.CanonicalSemantic(p.Semantic))
	}
	return out
}

// semanticWrites returns the canonical semantics of a node's output
// parameters.
func (a *Analysis) semanticWrites(id graph.NodeID) []string {
	var out []string
	for _, p := range a.frags[id].Params {
		if p.Semantic != "" && p.Kind.IsOutput() {
			out = append(out, fragment.CanonicalSemantic(p.Semantic))
		}
	}
	return out
}

func linked(n *graph.Node, input string) bool {
	for _, l := range n.Inputs {
		if l.Input == input {
			return true
		}
	}
	return false
}

// buildWorkingSet collects every node reachable from the roots and from
// side-effect nodes, following links, stage links and unlinked semantic
// reads. The traversal is an explicit-stack post-order walk, so producers
// always precede their consumers in the collected order.
func (a *Analysis) buildWorkingSet() {
	g := a.Graph
	done := make([]bool, len(g.Nodes))
	var order []graph.NodeID

	visit := func(seed graph.NodeID) {
		if done[seed] {
			return
		}
		stack := []graph.NodeID{seed}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			if done[id] {
				stack = stack[:len(stack)-1]
				continue
			}
			pending := false
			for _, p := range a.producers(id) {
				if !done[p] {
					stack = append(stack, p)
					pending = true
				}
			}
			if !pending {
				stack = stack[:len(stack)-1]
				done[id] = true
				order = append(order, id)
			}
		}
	}

	root := make([]bool, len(g.Nodes))
	for _, r := range g.Roots {
		root[r] = true
		visit(r)
	}
	for i := range g.Nodes {
		if a.frags[i].SideEffects {
			visit(graph.NodeID(i))
		}
	}

	writers := make(map[string][]graph.NodeID)
	for i := range g.Nodes {
		for _, sem := range a.semanticWrites(graph.NodeID(i)) {
			writers[sem] = append(writers[sem], graph.NodeID(i))
		}
	}
	// order grows while it is scanned, so producers found through semantic
	// reads are scanned too.
	for i := 0; i < len(order); i++ {
		for _, sem := range a.semanticReads(order[i]) {
			for _, w := range writers[sem] {
				visit(w)
			}
		}
	}

	lastOutput := a.lastGroupOutputs(root)
	a.Work = make([]WorkingData, len(order))
	for i, id := range order {
		n := g.Node(id)
		f := a.frags[id]
		a.Work[i] = WorkingData{
			Node:       id,
			Fragment:   f,
			Stage:      n.Stage,
			Group:      n.Group,
			GraphIndex: n.GraphIndex,
			Root:       root[id],
		}
		a.Work[i].Alive = f.SideEffects ||
			(root[id] && (n.Group == 0 || f.Role != fragment.RoleOutput)) ||
			lastOutput[id]
	}
	a.reindex()
}

// lastGroupOutputs picks, per fragment, the last grouped output root. The
// other groups' output roots are only kept when something revives them.
func (a *Analysis) lastGroupOutputs(root []bool) map[graph.NodeID]bool {
	last := make(map[string]*graph.Node)
	for i := range a.Graph.Nodes {
		n := &a.Graph.Nodes[i]
		if !root[i] || n.Group == 0 || a.frags[i].Role != fragment.RoleOutput {
			continue
		}
		cur, ok := last[n.Fragment]
		if !ok || n.Group > cur.Group || (n.Group == cur.Group && n.GraphIndex > cur.GraphIndex) {
			last[n.Fragment] = n
		}
	}
	out := make(map[graph.NodeID]bool, len(last))
	for _, n := range last {
		out[n.ID] = true
	}
	return out
}

// sortWorkingData orders the working set by (stage, group, graph index).
// Emission relies on this order to know whether a semantic was already
// produced earlier in the text.
func (a *Analysis) sortWorkingData() {
	sort.SliceStable(a.Work, func(i, j int) bool {
		wi, wj := &a.Work[i], &a.Work[j]
		if wi.Stage != wj.Stage {
			return wi.Stage < wj.Stage
		}
		if wi.Group != wj.Group {
			return wi.Group < wj.Group
		}
		return wi.GraphIndex < wj.GraphIndex
	})
	a.reindex()
}

func (a *Analysis) reindex() {
	a.pos = make(map[graph.NodeID]int, len(a.Work))
	for i := range a.Work {
		a.pos[a.Work[i].Node] = i
	}
}

// checkGroupIndex enables the group switch shim when the alive pixel nodes
// span more than one non-zero group.
func (a *Analysis) checkGroupIndex() {
	if a.Compute {
		return
	}
	groups := make(map[int]struct{})
	for i := range a.Work {
		w := &a.Work[i]
		if w.Group != 0 && w.EmittedIn(graph.ShaderPixel) {
			groups[w.Group] = struct{}{}
		}
	}
	a.GroupShim = len(groups) > 1
}

// asBuildError converts lookup failures to graph structure errors.
func asBuildError(node string, err error) error {
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	var nf *fragment.NotFoundError
	if errors.As(err, &nf) {
		return wrap(ErrGraphStructure, node, err)
	}
	return wrap(ErrInternal, node, err)
}
