// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/shadergraph/dialect"
	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/layout"
)

// Names of the generated uniform storage.
const (
	passBlock     = "PassConstants"
	pipelineBlock = "PipelineConstants"

	// groundLayerDeclaration must declare the GroundLayer struct and the
	// ground_layers array the group switch reads from.
	groundLayerDeclaration = "GroundLayer"
	groupLocal             = "current_layer"
	groupArray             = "ground_layers"
)

// resource is a texture or sampler uniform and its binding.
type resource struct {
	Param fragment.Parameter
	Bind  dialect.BindTarget
}

// uniformSet is the uniform storage of one build.
type uniformSet struct {
	layouts   [fragment.RateCount]layout.Layout
	resources []resource

	pass, pipeline, draw, buffer dialect.BindTarget

	// accessors maps object uniform names to their accessor functions.
	accessors map[string]string
}

// includes resolves the declarations required by nodes plus the extra
// names, transitively, in post-order: every declaration follows the ones
// it includes. Each declaration appears once.
func (a *Analysis) includes(nodes []*WorkingData, extra ...string) ([]*fragment.Declaration, error) {
	const (
		visiting = 1
		visited  = 2
	)
	state := make(map[string]int)
	var out []*fragment.Declaration

	var visit func(name, from string) error
	visit = func(name, from string) error {
		switch state[name] {
		case visiting:
			return errorf(ErrGraphStructure, from, "declaration %q includes itself", name)
		case visited:
			return nil
		}
		d, err := a.Repo.Declaration(name)
		if err != nil {
			return asBuildError(from, err)
		}
		state[name] = visiting
		for _, inc := range d.Includes {
			if err := visit(inc, "declaration "+name); err != nil {
				return err
			}
		}
		state[name] = visited
		out = append(out, d)
		return nil
	}

	for _, w := range nodes {
		for _, inc := range w.Fragment.Includes {
			if err := visit(inc, a.Graph.Node(w.Node).Name()); err != nil {
				return nil, err
			}
		}
	}
	for _, name := range extra {
		if err := visit(name, a.Graph.Name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// usesObjectUniforms reports whether any alive node, or any declaration
// the alive nodes include, reads per-object uniforms. The result is the
// same for the vertex and pixel builds, which both then carry the
// instance index.
func (a *Analysis) usesObjectUniforms() (bool, error) {
	var alive []*WorkingData
	for i := range a.Work {
		if a.Work[i].Alive {
			alive = append(alive, &a.Work[i])
		}
	}
	var extra []string
	if a.GroupShim {
		extra = append(extra, groundLayerDeclaration)
	}
	decls, err := a.includes(alive, extra...)
	if err != nil {
		return false, err
	}
	for _, d := range decls {
		if hasObjectUniform(d.Uniforms) {
			return true, nil
		}
	}
	for _, w := range alive {
		if hasObjectUniform(w.Fragment.Uniforms()) {
			return true, nil
		}
	}
	return false, nil
}

func hasObjectUniform(params []fragment.Parameter) bool {
	for _, p := range params {
		if p.Kind.IsUniform() && p.UniformRate() == fragment.RateObject && !p.Tag().IsResource() {
			return true
		}
	}
	return false
}

// discoverUniforms collects the uniforms of the included declarations and
// then of the emitted nodes, and lays them out per rate. Uniforms of the
// same name are shared and must agree on type and rate.
func (b *build) discoverUniforms() error {
	var extra []string
	if b.stage == graph.ShaderPixel && b.a.GroupShim {
		extra = append(extra, groundLayerDeclaration)
	}
	decls, err := b.a.includes(b.nodes, extra...)
	if err != nil {
		return err
	}
	b.decls = decls

	seen := make(map[string]fragment.Parameter)
	var entries [fragment.RateCount][]layout.Entry
	u := &b.uniforms
	u.accessors = make(map[string]string)

	add := func(p fragment.Parameter, owner string) error {
		if cur, ok := seen[p.Name]; ok {
			if !sameType(cur.Type, p.Type) || cur.UniformRate() != p.UniformRate() {
				return errorf(ErrSemanticConflict, owner, "uniform %q is %s (%s) here but %s (%s) elsewhere",
					p.Name, p.Type, p.UniformRate(), cur.Type, cur.UniformRate())
			}
			return nil
		}
		seen[p.Name] = p
		if _, err := b.names.exact(p.Name); err != nil {
			return err
		}
		if p.Tag().IsResource() {
			u.resources = append(u.resources, resource{Param: p})
			return nil
		}
		e, err := layout.NewEntry(p)
		if err != nil {
			return wrap(ErrGraphStructure, owner, err)
		}
		r := p.UniformRate()
		entries[r] = append(entries[r], e)
		return nil
	}

	for _, d := range decls {
		for _, p := range d.Uniforms {
			if err := add(p, "declaration "+d.Name); err != nil {
				return err
			}
		}
	}
	for _, w := range b.nodes {
		for _, p := range w.Fragment.Uniforms() {
			if err := add(p, b.a.Graph.Node(w.Node).Name()); err != nil {
				return err
			}
		}
	}

	u.layouts[fragment.RatePass] = layout.Sequential(fragment.RatePass, entries[fragment.RatePass])
	u.layouts[fragment.RatePipeline] = layout.Sequential(fragment.RatePipeline, entries[fragment.RatePipeline])
	u.layouts[fragment.RateObject] = layout.Pack(fragment.RateObject, entries[fragment.RateObject])

	for _, e := range u.layouts[fragment.RateObject].Entries {
		name, err := b.names.exact("get_" + e.Name)
		if err != nil {
			return err
		}
		u.accessors[e.Name] = name
	}
	// Object uniforms are macros, so no parameter may reuse their names.
	for _, w := range b.nodes {
		for _, p := range w.Fragment.Params {
			if _, ok := u.accessors[p.Name]; ok && p.Kind != fragment.ParamUniform {
				return errorf(ErrGraphStructure, b.a.Graph.Node(w.Node).Name(),
					"parameter %q has the name of an object uniform", p.Name)
			}
		}
	}

	alloc := dialect.NewAllocator(0)
	u.pass = alloc.Next(dialect.RegisterTypeB)
	u.pipeline = alloc.Next(dialect.RegisterTypeB)
	u.draw = alloc.Next(dialect.RegisterTypeB)
	u.buffer = alloc.Next(dialect.RegisterTypeT)
	for i := range u.resources {
		rt := dialect.RegisterTypeT
		if u.resources[i].Param.Tag() == fragment.TagSampler {
			rt = dialect.RegisterTypeS
		}
		u.resources[i].Bind = alloc.Next(rt)
	}
	return nil
}

// objectOffset names the DrawConstants field holding the first register
// of shader s's object uniforms.
func objectOffset(s graph.ShaderType) string {
	return s.String() + "_object_offset"
}

func drawFields(s graph.ShaderType) []string {
	if s == graph.ShaderCompute {
		return []string{objectOffset(s), dialect.InstanceCount}
	}
	return []string{objectOffset(graph.ShaderVertex), objectOffset(graph.ShaderPixel), dialect.InstanceCount}
}

func (b *build) emitUniforms() {
	w := &b.w
	g := guard{w: w}
	u := &b.uniforms

	blocks := []struct {
		name string
		rate fragment.Rate
		bind dialect.BindTarget
	}{
		{passBlock, fragment.RatePass, u.pass},
		{pipelineBlock, fragment.RatePipeline, u.pipeline},
	}
	for _, blk := range blocks {
		l := u.layouts[blk.rate]
		if l.Empty() {
			continue
		}
		w.writeLine(b.d.ConstantBlock(blk.name, blk.bind))
		w.writeLine("{")
		w.pushIndent()
		for _, e := range l.Entries {
			g.Begin(e.Macro)
			w.writeLine(b.d.ConstantField(e.Type, e.Name, e.Offset))
		}
		g.End()
		w.popIndent()
		w.writeLine("};")
		w.blank()
	}

	if b.instancing {
		w.writeLine(b.d.ConstantBlock(dialect.DrawConstants, u.draw))
		w.writeLine("{")
		w.pushIndent()
		for i, name := range drawFields(b.stage) {
			w.writeLine(b.d.ConstantField("uint", name, i*layout.ScalarSize))
		}
		w.popIndent()
		w.writeLine("};")
		w.writeLine(b.d.StructuredBuffer(dialect.UniformBuffer, u.buffer))
		w.writeLine(b.d.Static("uint " + dialect.InstanceIndex + ";"))
		w.blank()

		for _, e := range u.layouts[fragment.RateObject].Entries {
			g.Begin(e.Macro)
			b.emitAccessor(e)
		}
		g.End()
	}

	if len(u.resources) > 0 {
		for _, r := range u.resources {
			g.Begin(r.Param.Macro)
			w.writeLine(b.d.Resource(r.Param.Type, r.Param.Name, r.Bind))
		}
		g.End()
		w.blank()
	}
}

// emitAccessor writes the function reading one object uniform of the
// current instance from the shared buffer, and aliases the uniform name to
// a call of it.
func (b *build) emitAccessor(e layout.Entry) {
	w := &b.w
	stride := b.uniforms.layouts[fragment.RateObject].StrideInVec4()
	reg, _ := layout.Element(e.Offset)
	elem := func(k int) string {
		return fmt.Sprintf("%s[%s + (%s / %s) * %d + %d]",
			dialect.UniformBuffer, objectOffset(b.stage), dialect.InstanceIndex, dialect.InstanceCount, stride, reg+k)
	}
	get := b.uniforms.accessors[e.Name]
	ty := b.d.Type(e.Type)

	w.writeLinef("%s %s()", ty, get)
	w.writeLine("{")
	w.pushIndent()
	switch e.Tag {
	case fragment.TagMatrix:
		rows, cols := matrixDims(e.Type)
		row := fragment.ScalarBase(e.Type) + strconv.Itoa(cols)
		parts := make([]string, rows)
		for k := range parts {
			parts[k] = b.d.Reinterpret(row, elem(k)+components(cols))
		}
		w.writeLinef("return %s(%s);", ty, strings.Join(parts, ", "))
	case fragment.TagSpline:
		w.writeLinef("%s value;", ty)
		for k := 0; k < fragment.SplinePoints; k++ {
			w.writeLinef("value.points[%d] = %s;", k, b.d.Reinterpret("float4", elem(k)))
		}
		w.writeLine("return value;")
	default:
		w.writeLinef("return %s;", b.d.Reinterpret(e.Type, elem(0)+layout.Swizzle(e)))
	}
	w.popIndent()
	w.writeLine("}")
	w.directivef("#define %s %s()", e.Name, get)
}

// matrixDims parses the row and column counts of a token like "float4x3".
func matrixDims(token string) (rows, cols int) {
	token = strings.TrimSpace(token)
	i := strings.IndexAny(token, "0123456789")
	if i < 0 {
		return 4, 4
	}
	r, c, ok := strings.Cut(token[i:], "x")
	if !ok {
		return 4, 4
	}
	rows, err1 := strconv.Atoi(r)
	cols, err2 := strconv.Atoi(c)
	if err1 != nil || err2 != nil || rows < 1 || rows > 4 || cols < 1 || cols > 4 {
		return 4, 4
	}
	return rows, cols
}

// components selects the first n components of a register.
func components(n int) string {
	if n >= 4 {
		return ""
	}
	return "." + "xyzw"[:n]
}
