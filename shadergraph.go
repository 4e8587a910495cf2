// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package shadergraph compiles effect graphs into shader source.
//
// An effect graph wires instances of fragments, reusable source templates
// held in a fragment.Repository, into a data-flow graph. shadergraph turns
// the graph into the complete source of a vertex, pixel or compute shader
// for one of several dialects:
//   - HLSL, for DirectX style toolchains
//   - PSSL, for console toolchains
//   - GLSL, for Vulkan
//
// The package provides a simple, high-level API as well as a Session that
// adds a bytecode cache, a native compiler hook and fallback shaders.
//
// Example usage:
//
//	g := graph.New("Unlit")
//	c := g.AddNode("ConstColor")
//	o := g.AddNode("OutputColor")
//	g.Connect(c, 0, o, "color")
//	g.AddRoot(o)
//
//	src, err := shadergraph.Compile(repo, g, graph.ShaderPixel)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(src.Text, src.Hash())
//
// For finer control over the individual phases, use the builder package:
//
//	a, _ := builder.Analyze(repo, g, graph.ShaderPixel)
//	vs, _ := a.Build(graph.ShaderVertex, builder.DefaultOptions())
//	ps, _ := a.Build(graph.ShaderPixel, builder.DefaultOptions())
package shadergraph

import (
	"fmt"

	"github.com/gogpu/shadergraph/builder"
	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/shader"
)

// Compile generates the source of shader s for a graph using default
// options.
//
// This is the simplest way to build a shader. For more control, use
// CompileWithOptions or a Session.
func Compile(repo *fragment.Repository, g *graph.Graph, s graph.ShaderType) (*shader.Source, error) {
	return CompileWithOptions(repo, g, s, builder.DefaultOptions())
}

// CompileWithOptions generates the source of shader s for a graph.
//
// The compilation pipeline is:
//  1. Validate the graph and resolve its fragments
//  2. Analyze liveness, stages and cross-stage values
//  3. Lay out uniforms and emit the text through the target dialect
func CompileWithOptions(repo *fragment.Repository, g *graph.Graph, s graph.ShaderType, opts builder.Options) (*shader.Source, error) {
	src, err := builder.Build(repo, g, s, opts)
	if err != nil {
		return nil, &CompileError{Shader: graphName(g), Stage: s, Err: err}
	}
	return src, nil
}

// Stages returns the shaders a graph produces: compute when any of its
// fragments is compute-only, vertex and pixel otherwise.
func Stages(repo *fragment.Repository, g *graph.Graph) ([]graph.ShaderType, error) {
	for i := range g.Nodes {
		f, err := repo.Fragment(g.Nodes[i].Fragment)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", g.Nodes[i].Name(), err)
		}
		if f.Usage == fragment.UsageCompute {
			return []graph.ShaderType{graph.ShaderCompute}, nil
		}
	}
	return []graph.ShaderType{graph.ShaderVertex, graph.ShaderPixel}, nil
}

// CompileError reports a failed build of one shader stage.
type CompileError struct {
	// Shader is the graph name.
	Shader string

	Stage graph.ShaderType
	Err   error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s %s shader: %v", e.Shader, e.Stage, e.Err)
}

// Unwrap returns the underlying build error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

func graphName(g *graph.Graph) string {
	if g == nil {
		return ""
	}
	return g.Name
}
