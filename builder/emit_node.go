// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package builder

import (
	"strconv"
	"strings"

	"github.com/gogpu/shadergraph/dialect"
	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
)

// emitNode writes one node instance as a scoped block. Output storage is
// declared ahead of the block so later nodes can read it. Inside the block
// every parameter is a local under its own name, and outputs are copied
// back to their storage after the body.
func (b *build) emitNode(wd *WorkingData) error {
	w := &b.w
	n := b.a.Graph.Node(wd.Node)
	f := wd.Fragment

	if b.stage == graph.ShaderPixel && b.a.GroupShim && wd.Group != b.group {
		if wd.Group != 0 {
			w.writeLinef("%s = %s[%d];", groupLocal, groupArray, wd.Group)
		}
		b.group = wd.Group
	}

	w.writeLine("// " + n.Name())
	if f.InitBody != "" && !b.initDone[f.Name] {
		w.writeText(f.InitBody)
		b.initDone[f.Name] = true
	}

	g := guard{w: w}
	for _, p := range f.Params {
		if !p.Kind.IsOutput() || b.isLocal(p) {
			continue
		}
		g.Begin(p.Macro)
		w.writeLine(b.declare(p.Type, b.vars[varKey{wd.Node, p.Name}]))
	}
	g.End()

	w.writeLine("{")
	w.pushIndent()

	var written []fragment.Parameter
	for _, p := range f.Params {
		switch p.Kind {
		case fragment.ParamIn, fragment.ParamStageIn:
			expr, err := b.inputExpr(wd, n, p)
			if err != nil {
				return err
			}
			g.Begin(p.Macro)
			w.writeLinef("%s %s = %s;", b.d.Type(p.Type), p.Name, expr)
		case fragment.ParamInOut:
			expr, err := b.inputExpr(wd, n, p)
			if err != nil {
				return err
			}
			g.Begin(p.Macro)
			w.writeLinef("%s %s = %s;", b.d.Type(p.Type), p.Name, expr)
			written = append(written, p)
		case fragment.ParamOut:
			// Seeded from storage so a partial write keeps the rest.
			g.Begin(p.Macro)
			w.writeLinef("%s %s = %s;", b.d.Type(p.Type), p.Name, b.vars[varKey{wd.Node, p.Name}])
			written = append(written, p)
		}
	}
	g.End()

	w.writeText(b.expandTokens(wd))

	for _, p := range written {
		g.Begin(p.Macro)
		w.writeLinef("%s = %s;", b.vars[varKey{wd.Node, p.Name}], p.Name)
	}
	for _, p := range stageOutputParams(f, b.stage) {
		out, ok := b.outputs.get(fragment.CanonicalSemantic(p.Semantic))
		if !ok {
			return errorf(ErrInternal, n.Name(), "output %q was not collected", p.Semantic)
		}
		g.Begin(p.Macro)
		w.writeLinef("%s.%s = %s;", dialect.OutputVar, out.Name, p.Name)
	}
	g.End()

	w.popIndent()
	w.writeLine("}")

	for _, p := range f.Params {
		if p.Kind.IsOutput() && fragment.IsMachineSemantic(p.Semantic) {
			b.written[fragment.CanonicalSemantic(p.Semantic)] = b.vars[varKey{wd.Node, p.Name}]
		}
	}
	return nil
}

func (b *build) isLocal(p fragment.Parameter) bool {
	return p.Semantic != "" && !fragment.IsMachineSemantic(p.Semantic)
}

// inputExpr returns the expression a node reads for an input parameter:
// the linked output (through a slot when it crosses from the vertex
// shader), else the semantic's current value, else zero.
func (b *build) inputExpr(wd *WorkingData, n *graph.Node, p fragment.Parameter) (string, error) {
	for _, l := range n.Inputs {
		if l.Input != p.Name {
			continue
		}
		expr, err := b.linkExpr(n, l)
		if err != nil {
			return "", err
		}
		if l.Mask != "" {
			expr += "." + l.Mask
		}
		return expr, nil
	}

	if p.Semantic == "" {
		return b.zero(p.Type), nil
	}
	sem := fragment.CanonicalSemantic(p.Semantic)
	if b.isLocal(p) {
		l, _ := b.locals.get(sem)
		return l.Name, nil
	}
	if p.Kind == fragment.ParamStageIn {
		in, _ := b.inputs.get(sem)
		return in.Name, nil
	}
	if v, ok := b.written[sem]; ok {
		return v, nil
	}
	if wd.Fragment.Role == fragment.RoleOutput {
		return b.zero(p.Type), nil
	}
	in, ok := b.inputs.get(sem)
	if !ok {
		return "", errorf(ErrInternal, n.Name(), "input %q was not collected", sem)
	}
	return in.Name, nil
}

func (b *build) linkExpr(n *graph.Node, l graph.Link) (string, error) {
	p, ok := b.a.Lookup(l.Source)
	if !ok {
		return "", errorf(ErrInternal, n.Name(), "producer of %q is not in the working set", l.Input)
	}
	if p.EmittedIn(b.stage) {
		out, _ := p.Fragment.Output(l.Output)
		return b.vars[varKey{l.Source, out.Name}], nil
	}
	if s, ok := b.a.Slot(SlotKey{Node: l.Source, Output: l.Output}); ok && b.stage == graph.ShaderPixel {
		return s.Field, nil
	}
	return "", errorf(ErrInternal, n.Name(), "input %q reads %s which is not emitted in the %s shader",
		l.Input, b.a.Graph.Node(l.Source).Name(), b.stage)
}

func (b *build) zero(token string) string {
	if z := b.d.Zero(token); z != "" {
		return z
	}
	return b.d.Type(token) + "(0)"
}

// expandTokens substitutes the group index and instance counter tokens
// of a node's body.
func (b *build) expandTokens(wd *WorkingData) string {
	f := wd.Fragment
	body := f.Body
	if f.GroupIndexToken != "" {
		body = strings.ReplaceAll(body, f.GroupIndexToken, strconv.Itoa(wd.Group))
	}
	if f.AutoIncrementToken != "" && strings.Contains(body, f.AutoIncrementToken) {
		body = strings.ReplaceAll(body, f.AutoIncrementToken, strconv.Itoa(b.counter))
		b.counter++
	}
	return body
}
