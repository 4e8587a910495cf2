// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package builder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/shadergraph/dialect"
	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
)

// ioParam is one stage input, stage output or stage-local value.
type ioParam struct {
	Semantic string
	Type     string
	Macro    string
	Name     string
	Flat     bool

	// owner is the first node that declared the value, for diagnostics.
	owner string
}

func (p *ioParam) varying(location int) dialect.Varying {
	return dialect.Varying{
		Type:     p.Type,
		Name:     p.Name,
		Semantic: p.Semantic,
		Macro:    p.Macro,
		Flat:     p.Flat,
		Location: location,
	}
}

// ioTable is an ordered set of ioParams keyed by canonical semantic.
type ioTable struct {
	kind   string
	params map[string]*ioParam
}

func newIOTable(kind string) *ioTable {
	return &ioTable{kind: kind, params: make(map[string]*ioParam)}
}

// add records a use of a semantic. Uses must agree on the type; the macro
// of the first use wins.
func (t *ioTable) add(sem string, p fragment.Parameter, owner string) error {
	if cur, ok := t.params[sem]; ok {
		if !sameType(cur.Type, p.Type) {
			return errorf(ErrSemanticConflict, owner, "%s %q is %s here but %s in %s",
				t.kind, sem, p.Type, cur.Type, cur.owner)
		}
		return nil
	}
	t.params[sem] = &ioParam{
		Semantic: sem,
		Type:     strings.TrimSpace(p.Type),
		Macro:    p.Macro,
		Flat:     flatType(p.Type),
		owner:    owner,
	}
	return nil
}

func (t *ioTable) get(sem string) (*ioParam, bool) {
	p, ok := t.params[sem]
	return p, ok
}

// sorted returns the params ordered by semantic.
func (t *ioTable) sorted() []*ioParam {
	out := make([]*ioParam, 0, len(t.params))
	for _, p := range t.params {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Semantic < out[j].Semantic })
	return out
}

func sameType(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

// flatType reports whether values of the type cannot be interpolated.
func flatType(token string) bool {
	switch fragment.ScalarBase(token) {
	case "int", "uint", "bool":
		return true
	default:
		return false
	}
}

// isStageOutput reports whether writing a machine semantic in shader s
// produces a hardware output of s.
func isStageOutput(s graph.ShaderType, sem string) bool {
	switch s {
	case graph.ShaderVertex:
		return !fragment.IsSystemValue(sem)
	case graph.ShaderPixel:
		return sem == fragment.PixelReturnSemantic ||
			strings.HasPrefix(sem, "SV_TARGET") ||
			strings.HasPrefix(sem, "SV_DEPTH")
	default:
		return false
	}
}

// stageOutputParams returns the parameters of a node that are hardware
// outputs of shader s. Output role nodes export their semantic inputs;
// other nodes export their semantic outputs.
func stageOutputParams(f *fragment.Fragment, s graph.ShaderType) []fragment.Parameter {
	var out []fragment.Parameter
	for _, p := range f.Params {
		if p.Semantic == "" || !fragment.IsMachineSemantic(p.Semantic) {
			continue
		}
		sem := fragment.CanonicalSemantic(p.Semantic)
		if !isStageOutput(s, sem) {
			continue
		}
		if f.Role == fragment.RoleOutput && p.Kind.IsInput() && p.Kind != fragment.ParamStageIn {
			out = append(out, p)
		} else if f.Role != fragment.RoleOutput && p.Kind.IsOutput() {
			out = append(out, p)
		}
	}
	return out
}

// collectOutputs gathers the hardware outputs of shader s. The vertex
// outputs are collected identically by the vertex and pixel builds.
func (a *Analysis) collectOutputs(s graph.ShaderType) (*ioTable, error) {
	t := newIOTable("output")
	if s == graph.ShaderCompute {
		return t, nil
	}
	for _, w := range a.Emitted(s) {
		owner := a.Graph.Node(w.Node).Name()
		for _, p := range stageOutputParams(w.Fragment, s) {
			if err := t.add(fragment.CanonicalSemantic(p.Semantic), p, owner); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// findInOutParameters builds the input, output and local tables of the
// shader. It walks the emitted nodes in order, tracking which semantics
// earlier nodes already wrote: an unlinked semantic read of a written
// value uses the writer's variable, any other read is a stage input. The
// pixel shader additionally declares every vertex output as an input.
func (b *build) findInOutParameters() error {
	var err error
	b.outputs, err = b.a.collectOutputs(b.stage)
	if err != nil {
		return err
	}
	b.inputs = newIOTable("input")
	b.locals = newIOTable("local value")
	written := newIOTable("written semantic")

	for _, w := range b.nodes {
		n := b.a.Graph.Node(w.Node)
		owner := n.Name()
		for _, p := range w.Fragment.Params {
			if p.Semantic == "" {
				continue
			}
			sem := fragment.CanonicalSemantic(p.Semantic)
			if !fragment.IsMachineSemantic(p.Semantic) {
				if p.Kind.IsInput() || p.Kind.IsOutput() {
					if err := b.locals.add(sem, p, owner); err != nil {
						return err
					}
				}
				continue
			}
			switch {
			case p.Kind == fragment.ParamStageIn:
				err = b.inputs.add(sem, p, owner)
			case !p.Kind.IsInput() || linked(n, p.Name):
			case w.Fragment.Role == fragment.RoleOutput:
				if _, ok := written.get(sem); ok {
					err = written.add(sem, p, owner)
				}
			default:
				if _, ok := written.get(sem); ok {
					err = written.add(sem, p, owner)
				} else {
					err = b.inputs.add(sem, p, owner)
				}
			}
			if err != nil {
				return err
			}
		}
		for _, p := range w.Fragment.Params {
			if p.Semantic != "" && p.Kind.IsOutput() && fragment.IsMachineSemantic(p.Semantic) {
				if err := written.add(fragment.CanonicalSemantic(p.Semantic), p, owner); err != nil {
					return err
				}
			}
		}
	}

	if b.stage == graph.ShaderPixel {
		vertexOut, err := b.a.collectOutputs(graph.ShaderVertex)
		if err != nil {
			return err
		}
		for _, o := range vertexOut.sorted() {
			p := fragment.Parameter{Type: o.Type, Macro: o.Macro}
			if err := b.inputs.add(o.Semantic, p, o.owner); err != nil {
				return err
			}
		}
	}

	if b.instancing && b.stage != graph.ShaderCompute {
		flat := fragment.Parameter{Type: "uint"}
		switch b.stage {
		case graph.ShaderVertex:
			if err := b.inputs.add("SV_INSTANCEID", flat, "instancing"); err != nil {
				return err
			}
			if err := b.outputs.add(dialect.InstanceSemantic, flat, "instancing"); err != nil {
				return err
			}
		case graph.ShaderPixel:
			if err := b.inputs.add(dialect.InstanceSemantic, flat, "instancing"); err != nil {
				return err
			}
		}
	}
	return b.nameIO()
}

// nameIO assigns variable names in semantic order.
func (b *build) nameIO() error {
	for _, p := range b.inputs.sorted() {
		name, err := b.ioName("in_", p.Semantic)
		if err != nil {
			return err
		}
		p.Name = name
	}
	for _, p := range b.outputs.sorted() {
		name, err := b.ioName("out_", p.Semantic)
		if err != nil {
			return err
		}
		p.Name = name
	}
	for _, p := range b.locals.sorted() {
		name, err := b.names.call("loc_" + p.Semantic)
		if err != nil {
			return err
		}
		p.Name = name
	}
	return nil
}

func (b *build) ioName(prefix, sem string) (string, error) {
	if sem == dialect.InstanceSemantic {
		return dialect.InstanceVarying, nil
	}
	return b.names.call(prefix + sem)
}

// varyingLocations assigns interface locations shared by the vertex
// outputs and pixel inputs: slots first, then vertex outputs by semantic,
// then the instance index. Both builds derive the same table from the
// analysis.
func (b *build) varyingLocations() (map[string]int, error) {
	locs := make(map[string]int)
	for _, s := range b.a.Slots {
		locs[s.Semantic] = len(locs)
	}
	vertexOut, err := b.a.collectOutputs(graph.ShaderVertex)
	if err != nil {
		return nil, err
	}
	for _, o := range vertexOut.sorted() {
		if o.Semantic != "POSITION" {
			locs[o.Semantic] = len(locs)
		}
	}
	if b.instancing {
		locs[dialect.InstanceSemantic] = len(locs)
	}
	return locs, nil
}

// pixelOutputLocation maps a render target semantic to its index.
func pixelOutputLocation(sem string) int {
	if rest, ok := strings.CutPrefix(sem, "SV_TARGET"); ok {
		var n int
		if _, err := fmt.Sscanf(rest, "%d", &n); err == nil {
			return n
		}
	}
	return 0
}
