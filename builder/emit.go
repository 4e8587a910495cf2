// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package builder

import (
	"strconv"
	"strings"

	"github.com/gogpu/shadergraph/dialect"
	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/shader"
)

// Build generates the source of shader s for a graph.
//
// The vertex and pixel shaders of one graph are built by two calls; both
// run the same analysis, so the values crossing between them agree.
func Build(repo *fragment.Repository, g *graph.Graph, s graph.ShaderType, opts Options) (*shader.Source, error) {
	a, err := Analyze(repo, g, s)
	if err != nil {
		return nil, err
	}
	return a.Build(s, opts)
}

// Build generates the source of shader s from a finished analysis. A
// render analysis can build both its vertex and pixel shaders. The
// analysis is not modified, so builds may run concurrently.
func (a *Analysis) Build(s graph.ShaderType, opts Options) (*shader.Source, error) {
	if a.Compute != (s == graph.ShaderCompute) {
		return nil, errorf(ErrInternal, a.Graph.Name, "analysis cannot build a %s shader", s)
	}

	d := dialect.For(opts.Target)
	b := &build{
		a:        a,
		opts:     opts,
		d:        d,
		stage:    s,
		names:    newNamer(d, opts.maxIdentifierLength(d)),
		nodes:    a.Emitted(s),
		vars:     make(map[varKey]string),
		written:  make(map[string]string),
		initDone: make(map[string]bool),
	}

	var err error
	if b.instancing, err = a.usesObjectUniforms(); err != nil {
		return nil, err
	}
	if err := b.discoverUniforms(); err != nil {
		return nil, err
	}
	if err := b.findInOutParameters(); err != nil {
		return nil, err
	}
	if err := b.assignVariables(); err != nil {
		return nil, err
	}

	src := &shader.Source{
		Name:       a.Graph.Name,
		Macros:     append(shader.MacroSet(nil), opts.Macros...),
		Stage:      s,
		Target:     opts.Target,
		EntryPoint: dialect.EntryPoint,
		Profile:    dialect.Profile(opts.Target, opts.ShaderModel, s),
		Layouts:    b.uniforms.layouts,
	}
	if opts.Target == dialect.TargetNull {
		return src, nil
	}
	if err := b.emit(); err != nil {
		return nil, err
	}
	src.Text = b.w.String()
	return src, nil
}

// varKey names one output parameter of a node.
type varKey struct {
	node  graph.NodeID
	param string
}

// build is the state of one emission.
type build struct {
	a     *Analysis
	opts  Options
	d     dialect.Dialect
	stage graph.ShaderType
	names *namer
	w     writer

	// nodes are the nodes emitted in this shader, in order.
	nodes []*WorkingData

	inputs, outputs, locals *ioTable

	decls    []*fragment.Declaration
	uniforms uniformSet

	// instancing is set when object uniforms are read, which needs the
	// instance index in every stage.
	instancing bool

	// vars holds the storage variable of each output parameter.
	vars map[varKey]string

	// written maps a machine semantic to the variable of its latest
	// writer so far in the emitted text.
	written map[string]string

	initDone map[string]bool
	counter  int
	group    int
}

// assignVariables names the storage of every output parameter and the
// cross-stage slot fields. Local semantics share one variable per
// semantic.
func (b *build) assignVariables() error {
	for _, s := range b.a.Slots {
		if _, err := b.names.exact(s.Field); err != nil {
			return err
		}
	}
	for _, w := range b.nodes {
		for _, p := range w.Fragment.Params {
			if !p.Kind.IsOutput() {
				continue
			}
			key := varKey{w.Node, p.Name}
			if b.isLocal(p) {
				l, _ := b.locals.get(fragment.CanonicalSemantic(p.Semantic))
				b.vars[key] = l.Name
				continue
			}
			name, err := b.names.call("n" + strconv.Itoa(int(w.Node)) + "_" + p.Name)
			if err != nil {
				return err
			}
			b.vars[key] = name
		}
	}
	return nil
}

func (b *build) emit() error {
	w := &b.w
	for _, line := range b.d.Preamble(b.stage) {
		b.line(line)
	}
	w.directivef("#define %s 1", dialect.StageMacro(b.stage))
	w.blank()

	for _, d := range b.decls {
		if strings.TrimSpace(d.Body) == "" {
			continue
		}
		w.writeLine("// " + d.Name)
		w.writeText(d.Body)
		w.blank()
	}

	b.emitUniforms()

	locs, err := b.varyingLocations()
	if err != nil {
		return err
	}
	if b.stage != graph.ShaderCompute {
		b.emitOutputStruct(locs)
	}
	if !b.d.InputsAsParams() {
		b.emitInterfaceGlobals(locs)
	}
	return b.emitEntry(locs)
}

// line writes a generated line, keeping preprocessor lines at column zero.
func (b *build) line(s string) {
	if strings.HasPrefix(s, "#") {
		b.w.directive(s)
		return
	}
	b.w.writeLine(s)
}

func slotVarying(s Slot, location int) dialect.Varying {
	return dialect.Varying{
		Type:     s.Type,
		Name:     s.Field,
		Semantic: s.Semantic,
		Macro:    s.Macro,
		Flat:     flatType(s.Type),
		Location: location,
	}
}

// structFields returns the output struct members: the slots the vertex
// shader feeds, the hardware outputs by semantic, and the instance index.
func (b *build) structFields(locs map[string]int) []dialect.Varying {
	var out []dialect.Varying
	if b.stage == graph.ShaderVertex {
		for _, s := range b.a.Slots {
			out = append(out, slotVarying(s, locs[s.Semantic]))
		}
	}
	var instance *ioParam
	for _, p := range b.outputs.sorted() {
		if p.Semantic == dialect.InstanceSemantic {
			instance = p
			continue
		}
		loc := locs[p.Semantic]
		if b.stage == graph.ShaderPixel {
			loc = pixelOutputLocation(p.Semantic)
		}
		out = append(out, p.varying(loc))
	}
	if instance != nil {
		out = append(out, instance.varying(locs[instance.Semantic]))
	}
	return out
}

// entryInputs returns the stage inputs: the slots the pixel shader reads,
// then the hardware inputs by semantic.
func (b *build) entryInputs(locs map[string]int) []dialect.Varying {
	var out []dialect.Varying
	if b.stage == graph.ShaderPixel {
		for _, s := range b.a.Slots {
			out = append(out, slotVarying(s, locs[s.Semantic]))
		}
	}
	for i, p := range b.inputs.sorted() {
		loc := i
		if b.stage == graph.ShaderPixel {
			var ok bool
			if loc, ok = locs[p.Semantic]; !ok {
				loc = len(locs) + i
			}
		}
		v := p.varying(loc)
		// Only interpolated inputs take an interpolation mode.
		v.Flat = v.Flat && b.stage == graph.ShaderPixel
		out = append(out, v)
	}
	return out
}

func (b *build) emitOutputStruct(locs map[string]int) {
	w := &b.w
	g := guard{w: w}
	w.writeLinef("struct %s", dialect.OutputStruct)
	w.writeLine("{")
	w.pushIndent()
	for _, v := range b.structFields(locs) {
		g.Begin(v.Macro)
		w.writeLine(b.d.StructField(v))
	}
	g.End()
	w.popIndent()
	w.writeLine("};")
	w.blank()
}

// emitInterfaceGlobals declares inputs and outputs for dialects that do
// not pass them through the entry point signature.
func (b *build) emitInterfaceGlobals(locs map[string]int) {
	g := guard{w: &b.w}
	n := 0
	for _, v := range b.entryInputs(locs) {
		g.Begin(v.Macro)
		b.line(b.d.Input(b.stage, v))
		n++
	}
	if b.stage != graph.ShaderCompute {
		for _, v := range b.structFields(locs) {
			if decl := b.d.OutputGlobal(b.stage, v); decl != "" {
				g.Begin(v.Macro)
				b.line(decl)
				n++
			}
		}
	}
	g.End()
	if n > 0 {
		b.w.blank()
	}
}

// emitEntry writes the entry point. Guarded parameters are joined with a
// comma macro that is empty before the first parameter, so any subset of
// them forms a valid list.
func (b *build) emitEntry(locs map[string]int) error {
	w := &b.w
	for _, line := range b.d.EntryOpen(b.stage, b.opts.workgroupSize()) {
		w.writeLine(line)
	}
	var params []dialect.Varying
	if b.d.InputsAsParams() {
		params = b.entryInputs(locs)
	}
	if len(params) > 0 {
		w.directivef("#define %s", dialect.CommaMacro)
		w.pushIndent()
		g := guard{w: w}
		for _, v := range params {
			g.Begin(v.Macro)
			w.writeLinef("%s %s", dialect.CommaMacro, b.d.Input(b.stage, v))
			w.directivef("#undef %s", dialect.CommaMacro)
			w.directivef("#define %s ,", dialect.CommaMacro)
		}
		g.End()
		w.popIndent()
	}
	w.writeLine(")")
	if len(params) > 0 {
		w.directivef("#undef %s", dialect.CommaMacro)
	}
	w.writeLine("{")
	w.pushIndent()
	if err := b.emitMain(locs); err != nil {
		return err
	}
	w.popIndent()
	w.writeLine("}")
	return nil
}

func (b *build) emitMain(locs map[string]int) error {
	w := &b.w
	if b.stage != graph.ShaderCompute {
		w.writeLine(b.declare(dialect.OutputStruct, dialect.OutputVar))
	}

	if b.instancing {
		switch b.stage {
		case graph.ShaderVertex:
			in, _ := b.inputs.get("SV_INSTANCEID")
			w.writeLinef("%s = %s;", dialect.InstanceIndex, in.Name)
		case graph.ShaderPixel:
			w.writeLinef("%s = %s;", dialect.InstanceIndex, dialect.InstanceVarying)
		default:
			w.writeLinef("%s = 0;", dialect.InstanceIndex)
		}
	}
	if b.stage == graph.ShaderPixel && b.a.GroupShim {
		w.writeLinef("%s %s;", groundLayerDeclaration, groupLocal)
	}

	g := guard{w: w}
	for _, l := range b.locals.sorted() {
		g.Begin(l.Macro)
		w.writeLine(b.declare(l.Type, l.Name))
	}
	if b.stage == graph.ShaderPixel {
		for _, s := range b.a.Slots {
			l, ok := b.locals.get(s.Local)
			if s.Local == "" || !ok {
				continue
			}
			g.Begin(s.Macro)
			w.writeLinef("%s = %s;", l.Name, s.Field)
		}
	}
	g.End()
	w.blank()

	for _, n := range b.nodes {
		if err := b.emitNode(n); err != nil {
			return err
		}
	}

	if b.stage == graph.ShaderVertex {
		for _, s := range b.a.Slots {
			p, ok := b.a.Lookup(s.Node)
			if !ok {
				return errorf(ErrInternal, b.a.Graph.Node(s.Node).Name(), "slot %s has no producer", s.Field)
			}
			out, _ := p.Fragment.Output(s.Output)
			g.Begin(s.Macro)
			w.writeLinef("%s.%s = %s;", dialect.OutputVar, s.Field, b.vars[varKey{s.Node, out.Name}])
		}
		g.End()
		if b.instancing {
			w.writeLinef("%s.%s = %s;", dialect.OutputVar, dialect.InstanceVarying, dialect.InstanceIndex)
		}
	}
	if b.stage != graph.ShaderCompute {
		for _, v := range b.structFields(locs) {
			if store := b.d.StoreOutput(b.stage, v); store != "" {
				g.Begin(v.Macro)
				w.writeLine(store)
			}
		}
		g.End()
	}
	if ret := b.d.Return(b.stage); ret != "" {
		w.writeLine(ret)
	}
	return nil
}

// declare returns a local declaration initialized to zero when the
// dialect can spell a zero of the type.
func (b *build) declare(token, name string) string {
	if zero := b.d.Zero(token); zero != "" {
		return b.d.Type(token) + " " + name + " = " + zero + ";"
	}
	return b.d.Type(token) + " " + name + ";"
}
