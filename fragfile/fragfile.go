// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fragfile

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/shader"
)

// File is the decoded content of one or more definition files.
type File struct {
	Fragments    []*fragment.Fragment
	Declarations []*fragment.Declaration
	Graphs       []*graph.Graph

	// Macros holds the macros a graph block sets, by graph name.
	Macros map[string]shader.MacroSet
}

type fragmentBlock struct {
	Usage              string       `hcl:"usage,optional"`
	Role               string       `hcl:"role,optional"`
	SideEffects        bool         `hcl:"side_effects,optional"`
	Includes           []string     `hcl:"includes,optional"`
	Body               string       `hcl:"body,optional"`
	InitBody           string       `hcl:"init_body,optional"`
	GroupIndexToken    string       `hcl:"group_index_token,optional"`
	AutoIncrementToken string       `hcl:"auto_increment_token,optional"`
	Params             []paramBlock `hcl:"param,block"`
}

type paramBlock struct {
	Name     string `hcl:"name,label"`
	Type     string `hcl:"type"`
	Kind     string `hcl:"kind,optional"`
	Semantic string `hcl:"semantic,optional"`
	Rate     string `hcl:"rate,optional"`
	Macro    string `hcl:"macro,optional"`
}

type declarationBlock struct {
	Body     string       `hcl:"body,optional"`
	Includes []string     `hcl:"includes,optional"`
	Uniforms []paramBlock `hcl:"uniform,block"`
}

type graphBlock struct {
	Roots  []string    `hcl:"roots,optional"`
	Macros cty.Value   `hcl:"macros,optional"`
	Nodes  []nodeBlock `hcl:"node,block"`
}

type nodeBlock struct {
	ID       string       `hcl:"id,label"`
	Fragment string       `hcl:"fragment"`
	Stage    string       `hcl:"stage,optional"`
	Group    int          `hcl:"group,optional"`
	Prefer   string       `hcl:"prefer,optional"`
	Label    string       `hcl:"label,optional"`
	After    []string     `hcl:"after,optional"`
	Inputs   []inputBlock `hcl:"input,block"`
}

type inputBlock struct {
	Name   string `hcl:"name,label"`
	From   string `hcl:"from"`
	Output int    `hcl:"output,optional"`
	Mask   string `hcl:"mask,optional"`
}

// Parse decodes one definition file. All problems found are returned as
// diagnostics; the returned file holds whatever decoded cleanly.
func Parse(src []byte, filename string) (*File, hcl.Diagnostics) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, diags
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, diags
	}

	out := &File{Macros: make(map[string]shader.MacroSet)}
	for name, attr := range body.Attributes {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unexpected attribute",
			Detail:   fmt.Sprintf("Attribute %q is not allowed at the top level.", name),
			Subject:  attr.NameRange.Ptr(),
		})
	}

	for _, block := range body.Blocks {
		if len(block.Labels) != 1 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid block",
				Detail:   fmt.Sprintf("A %s block needs exactly one name label.", block.Type),
				Subject:  block.DefRange().Ptr(),
			})
			continue
		}
		name := block.Labels[0]
		switch block.Type {
		case "fragment":
			var fb fragmentBlock
			diags = append(diags, gohcl.DecodeBody(block.Body, nil, &fb)...)
			f, more := fb.fragment(name, block.DefRange())
			diags = append(diags, more...)
			if f != nil {
				out.Fragments = append(out.Fragments, f)
			}
		case "declaration":
			var db declarationBlock
			diags = append(diags, gohcl.DecodeBody(block.Body, nil, &db)...)
			d, more := db.declaration(name, block.DefRange())
			diags = append(diags, more...)
			if d != nil {
				out.Declarations = append(out.Declarations, d)
			}
		case "graph":
			var gb graphBlock
			diags = append(diags, gohcl.DecodeBody(block.Body, nil, &gb)...)
			g, more := gb.graph(name, block.DefRange())
			diags = append(diags, more...)
			if g == nil {
				continue
			}
			out.Graphs = append(out.Graphs, g)
			if !gb.Macros.IsNull() {
				m, err := Macros(gb.Macros)
				if err != nil {
					diags = append(diags, errorAt(block.DefRange(), "Invalid macros", err.Error()))
					continue
				}
				out.Macros[name] = m
			}
		default:
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported block type",
				Detail:   fmt.Sprintf("Blocks of type %q are not expected here.", block.Type),
				Subject:  block.TypeRange.Ptr(),
			})
		}
	}
	return out, diags
}

func errorAt(rng hcl.Range, summary, detail string) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  rng.Ptr(),
	}
}

func (fb *fragmentBlock) fragment(name string, rng hcl.Range) (*fragment.Fragment, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	usage, ok := fragment.ParseUsage(orDefault(fb.Usage, "any"))
	if !ok {
		diags = append(diags, errorAt(rng, "Invalid usage", fmt.Sprintf("Fragment %q has unknown usage %q.", name, fb.Usage)))
	}
	role, ok := fragment.ParseRole(orDefault(fb.Role, "none"))
	if !ok {
		diags = append(diags, errorAt(rng, "Invalid role", fmt.Sprintf("Fragment %q has unknown role %q.", name, fb.Role)))
	}

	f := &fragment.Fragment{
		Name:               name,
		Body:               fb.Body,
		InitBody:           fb.InitBody,
		Includes:           fb.Includes,
		SideEffects:        fb.SideEffects,
		Usage:              usage,
		Role:               role,
		GroupIndexToken:    fb.GroupIndexToken,
		AutoIncrementToken: fb.AutoIncrementToken,
	}
	for _, pb := range fb.Params {
		p, err := pb.parameter("in")
		if err != nil {
			diags = append(diags, errorAt(rng, "Invalid parameter", fmt.Sprintf("Fragment %q: %s.", name, err)))
			continue
		}
		f.Params = append(f.Params, p)
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return f, diags
}

func (db *declarationBlock) declaration(name string, rng hcl.Range) (*fragment.Declaration, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	d := &fragment.Declaration{Name: name, Body: db.Body, Includes: db.Includes}
	for _, pb := range db.Uniforms {
		p, err := pb.parameter("uniform")
		if err != nil {
			diags = append(diags, errorAt(rng, "Invalid uniform", fmt.Sprintf("Declaration %q: %s.", name, err)))
			continue
		}
		if !p.Kind.IsUniform() {
			diags = append(diags, errorAt(rng, "Invalid uniform", fmt.Sprintf("Declaration %q: %q has non-uniform kind %s.", name, p.Name, p.Kind)))
			continue
		}
		d.Uniforms = append(d.Uniforms, p)
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return d, diags
}

func (pb *paramBlock) parameter(defaultKind string) (fragment.Parameter, error) {
	kind, ok := fragment.ParseParamKind(orDefault(pb.Kind, defaultKind))
	if !ok {
		return fragment.Parameter{}, fmt.Errorf("parameter %q has unknown kind %q", pb.Name, pb.Kind)
	}
	rate, ok := fragment.ParseRate(orDefault(pb.Rate, "pass"))
	if !ok {
		return fragment.Parameter{}, fmt.Errorf("parameter %q has unknown rate %q", pb.Name, pb.Rate)
	}
	if pb.Type == "" {
		return fragment.Parameter{}, fmt.Errorf("parameter %q has no type", pb.Name)
	}
	return fragment.Parameter{
		Name:     pb.Name,
		Type:     pb.Type,
		Semantic: pb.Semantic,
		Kind:     kind,
		Rate:     rate,
		Macro:    pb.Macro,
	}, nil
}

// graph builds the graph of a block. Nodes are added in block order, so
// links and stage links may only name nodes declared above.
func (gb *graphBlock) graph(name string, rng hcl.Range) (*graph.Graph, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	g := graph.New(name)
	ids := make(map[string]graph.NodeID, len(gb.Nodes))

	lookup := func(node, ref, what string) (graph.NodeID, bool) {
		id, ok := ids[ref]
		if !ok {
			diags = append(diags, errorAt(rng, "Unknown node",
				fmt.Sprintf("Graph %q: node %q %s %q, which is not declared above it.", name, node, what, ref)))
		}
		return id, ok
	}

	for _, nb := range gb.Nodes {
		if _, dup := ids[nb.ID]; dup {
			diags = append(diags, errorAt(rng, "Duplicate node", fmt.Sprintf("Graph %q declares node %q twice.", name, nb.ID)))
			continue
		}
		stage, ok := graph.ParseStage(nb.Stage)
		if !ok {
			diags = append(diags, errorAt(rng, "Invalid stage", fmt.Sprintf("Graph %q: node %q has unknown stage %q.", name, nb.ID, nb.Stage)))
		}
		prefer, ok := graph.ParsePreference(nb.Prefer)
		if !ok {
			diags = append(diags, errorAt(rng, "Invalid preference", fmt.Sprintf("Graph %q: node %q has unknown preference %q.", name, nb.ID, nb.Prefer)))
		}

		label := nb.Label
		if label == "" {
			label = nb.ID
		}
		id := g.AddNode(nb.Fragment,
			graph.WithStage(stage),
			graph.WithGroup(nb.Group),
			graph.WithPreference(prefer),
			graph.WithLabel(label),
		)
		for _, in := range nb.Inputs {
			if src, ok := lookup(nb.ID, in.From, "reads from"); ok {
				g.ConnectMasked(src, in.Output, id, in.Name, in.Mask)
			}
		}
		for _, after := range nb.After {
			if src, ok := lookup(nb.ID, after, "runs after"); ok {
				g.AddStageLink(src, id)
			}
		}
		ids[nb.ID] = id
	}
	for _, r := range gb.Roots {
		id, ok := ids[r]
		if !ok {
			diags = append(diags, errorAt(rng, "Unknown root", fmt.Sprintf("Graph %q names root %q, which is not a node.", name, r)))
			continue
		}
		g.AddRoot(id)
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return g, diags
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Merge appends the definitions of o to f. Graph macros of o win.
func (f *File) Merge(o *File) {
	f.Fragments = append(f.Fragments, o.Fragments...)
	f.Declarations = append(f.Declarations, o.Declarations...)
	f.Graphs = append(f.Graphs, o.Graphs...)
	if f.Macros == nil {
		f.Macros = make(map[string]shader.MacroSet)
	}
	for name, m := range o.Macros {
		f.Macros[name] = m
	}
}

// Repository builds a fragment repository from the file's fragments and
// declarations. Duplicate names and includes of missing declarations are
// reported together.
func (f *File) Repository() (*fragment.Repository, error) {
	repo, err := fragment.NewRepository(f.Fragments, f.Declarations)
	if err != nil {
		return nil, err
	}
	if err := repo.CheckIncludes(); err != nil {
		return nil, err
	}
	return repo, nil
}

// Graph returns the graph with the given name.
func (f *File) Graph(name string) (*graph.Graph, bool) {
	for _, g := range f.Graphs {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// GraphNames returns the names of all graphs in sorted order.
func (f *File) GraphNames() []string {
	names := make([]string, 0, len(f.Graphs))
	for _, g := range f.Graphs {
		names = append(names, g.Name)
	}
	sort.Strings(names)
	return names
}

// CheckGraphs reports graph names declared more than once.
func (f *File) CheckGraphs() error {
	var errs *multierror.Error
	seen := make(map[string]bool, len(f.Graphs))
	for _, g := range f.Graphs {
		if seen[g.Name] {
			errs = multierror.Append(errs, fmt.Errorf("duplicate graph %q", g.Name))
		}
		seen[g.Name] = true
	}
	return errs.ErrorOrNil()
}
