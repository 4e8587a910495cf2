// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package dialect renders the target-specific pieces of generated shader
// source.
//
// The code builder lays out a shader once; a Dialect supplies the spelling
// of every construct whose syntax differs between targets: constant blocks,
// the shared uniform buffer, resource declarations, stage inputs and outputs,
// the entry point signature and bit reinterpretation. Fragment bodies are
// emitted verbatim, so each dialect also contributes a preamble of macros
// that lets HLSL-flavored bodies compile unchanged where possible.
package dialect

import (
	"github.com/gogpu/shadergraph/graph"
)

// Varying is one stage input or output.
type Varying struct {
	// Type is the authored type token.
	Type string

	// Name is the generated variable or field name.
	Name string

	// Semantic is the canonical semantic.
	Semantic string

	// Macro guards the varying, if any.
	Macro string

	// Flat disables interpolation.
	Flat bool

	// Location is the interface slot for dialects that bind varyings by index.
	Location int
}

// Dialect renders target-specific syntax. Implementations are stateless
// and safe for concurrent use.
type Dialect interface {
	Target() Target

	// Preamble returns the lines emitted at the very top of a shader.
	Preamble(s graph.ShaderType) []string

	// MaxIdentifierLength is the longest identifier the native compiler accepts.
	MaxIdentifierLength() int

	// IsReserved reports whether name is a keyword or built-in.
	IsReserved(name string) bool

	// Type maps an authored type token to the dialect's spelling.
	Type(token string) string

	// Zero returns a zero value expression of the type, or "" when the
	// dialect has no expression for it and the declaration is left bare.
	Zero(token string) string

	// Static declares a private global.
	Static(decl string) string

	// Reinterpret converts raw uint bits in expr to the scalar base of token.
	Reinterpret(token, expr string) string

	// ConstantBlock opens a constant block; the caller writes "{", the
	// fields and "};".
	ConstantBlock(name string, bt BindTarget) string

	// ConstantField declares a constant block member at a fixed byte offset.
	ConstantField(token, name string, offset int) string

	// StructuredBuffer declares the shared uint4 buffer.
	StructuredBuffer(name string, bt BindTarget) string

	// Resource declares a texture or sampler.
	Resource(token, name string, bt BindTarget) string

	// StructField declares an output struct member.
	StructField(v Varying) string

	// InputsAsParams reports whether stage inputs are entry point parameters.
	// Otherwise Input returns a global declaration.
	InputsAsParams() bool

	// Input declares a stage input.
	Input(s graph.ShaderType, v Varying) string

	// OutputGlobal declares the global backing an output, or "".
	OutputGlobal(s graph.ShaderType, v Varying) string

	// EntryOpen returns the lines up to and including the opening
	// parenthesis of the entry point.
	EntryOpen(s graph.ShaderType, threads [3]int) []string

	// StoreOutput copies one output struct field to its destination at the
	// end of the entry point, or returns "".
	StoreOutput(s graph.ShaderType, v Varying) string

	// Return ends the entry point.
	Return(s graph.ShaderType) string
}

// For returns the dialect of a target.
func For(t Target) Dialect {
	switch t {
	case TargetPSSL:
		return hlslDialect{pssl: true}
	case TargetGLSL:
		return glslDialect{}
	case TargetNull:
		return nullDialect{}
	default:
		return hlslDialect{}
	}
}
