// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

/*
Package builder turns an effect graph into the source text of one shader
stage.

A build runs in two phases. The analysis phase decides which nodes take
part and where:

  - the working set is every node reachable from the roots and from
    side-effect nodes, through links, stage links and unlinked semantic
    reads
  - each node gets a final sub-stage within the range its fragment's usage
    allows, with producers never sorting after consumers
  - dead nodes are revived when an alive node depends on them
  - pure pixel nodes fed only by the vertex shader move into it, and pure
    vertex nodes needed by both shaders are duplicated into the pixel one
  - every value still crossing from the vertex to the pixel shader gets a
    synthesized interpolator slot

The emission phase writes the text through a dialect: preamble and
declarations, uniform blocks and accessors, the output struct, the entry
point and one scoped block per node. Guarded parameters are wrapped in
#ifdef blocks, so one text serves every macro combination.

# Usage

	src, err := builder.Build(repo, g, graph.ShaderPixel, builder.DefaultOptions())
	if err != nil {
		return err
	}
	fmt.Println(src.Text)

Building the vertex and pixel shaders from one Analysis avoids running the
analysis twice:

	a, err := builder.Analyze(repo, g, graph.ShaderPixel)
	vs, err := a.Build(graph.ShaderVertex, opts)
	ps, err := a.Build(graph.ShaderPixel, opts)

# Errors

Build failures are *Error values classified by ErrorKind; use
IsGraphStructure, IsSemanticConflict and IsIdentifierOverflow to test
them.
*/
package builder
