// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fragment

import "strings"

// ParamKind classifies a fragment parameter.
type ParamKind uint8

const (
	// ParamIn is read by the fragment body.
	ParamIn ParamKind = iota

	// ParamOut is written by the fragment body and may feed other nodes.
	ParamOut

	// ParamInOut is read and written by the fragment body.
	ParamInOut

	// ParamStageIn is a hardware input of the stage the node runs in.
	ParamStageIn

	// ParamUniform is a uniform value updated at the parameter's Rate.
	ParamUniform

	// ParamCustomUniform is a per-draw uniform supplied by the material.
	ParamCustomUniform

	// ParamDynamic is a per-draw value animated at runtime.
	ParamDynamic
)

// String returns the lowercase kind name used in fragment files.
func (k ParamKind) String() string {
	switch k {
	case ParamIn:
		return "in"
	case ParamOut:
		return "out"
	case ParamInOut:
		return "inout"
	case ParamStageIn:
		return "stage_in"
	case ParamUniform:
		return "uniform"
	case ParamCustomUniform:
		return "custom_uniform"
	case ParamDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// IsInput reports whether the body reads the parameter as a value.
func (k ParamKind) IsInput() bool {
	return k == ParamIn || k == ParamInOut || k == ParamStageIn
}

// IsOutput reports whether the parameter is a link output slot.
func (k ParamKind) IsOutput() bool {
	return k == ParamOut || k == ParamInOut
}

// IsUniform reports whether the parameter is backed by uniform storage.
func (k ParamKind) IsUniform() bool {
	return k == ParamUniform || k == ParamCustomUniform || k == ParamDynamic
}

// ParseParamKind parses a kind name as produced by ParamKind.String.
func ParseParamKind(s string) (ParamKind, bool) {
	for k := ParamIn; k <= ParamDynamic; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return ParamIn, false
}

// Rate is the update frequency of a uniform.
type Rate uint8

const (
	// RatePass uniforms change once per render pass.
	RatePass Rate = iota

	// RatePipeline uniforms change with pipeline state.
	RatePipeline

	// RateObject uniforms change per object or draw.
	RateObject

	// RateCount is the number of rates.
	RateCount
)

// String returns the lowercase rate name.
func (r Rate) String() string {
	switch r {
	case RatePass:
		return "pass"
	case RatePipeline:
		return "pipeline"
	case RateObject:
		return "object"
	default:
		return "unknown"
	}
}

// ParseRate parses a rate name.
func ParseRate(s string) (Rate, bool) {
	for r := RatePass; r < RateCount; r++ {
		if r.String() == s {
			return r, true
		}
	}
	return RatePass, false
}

// Usage declares which shader stages a fragment may run in.
type Usage uint8

const (
	// UsageAny places no restriction on the stage.
	UsageAny Usage = iota

	// UsageVertex restricts the fragment to the vertex shader.
	UsageVertex

	// UsagePixel restricts the fragment to the pixel shader.
	UsagePixel

	// UsageVertexPixel allows either raster stage.
	UsageVertexPixel

	// UsageCompute restricts the fragment to compute shaders.
	UsageCompute
)

// String returns the lowercase usage name.
func (u Usage) String() string {
	switch u {
	case UsageAny:
		return "any"
	case UsageVertex:
		return "vertex"
	case UsagePixel:
		return "pixel"
	case UsageVertexPixel:
		return "vertex_pixel"
	case UsageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// Movable reports whether the analysis may relocate or duplicate a node of
// this usage between the vertex and pixel shaders.
func (u Usage) Movable() bool {
	return u == UsageAny || u == UsageVertexPixel
}

// ParseUsage parses a usage name.
func ParseUsage(s string) (Usage, bool) {
	for u := UsageAny; u <= UsageCompute; u++ {
		if u.String() == s {
			return u, true
		}
	}
	return UsageAny, false
}

// Role marks the few fragment kinds with dedicated code generation.
type Role uint8

const (
	// RoleNone is an ordinary data-driven fragment.
	RoleNone Role = iota

	// RoleInput fetches stage inputs.
	RoleInput

	// RoleOutput writes stage outputs. Its semantic In parameters are
	// hardware outputs of the stage.
	RoleOutput

	// RoleExtensionRead reads a named extension point.
	RoleExtensionRead

	// RoleExtensionWrite writes a named extension point.
	RoleExtensionWrite
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleInput:
		return "input"
	case RoleOutput:
		return "output"
	case RoleExtensionRead:
		return "extension_read"
	case RoleExtensionWrite:
		return "extension_write"
	default:
		return "unknown"
	}
}

// ParseRole parses a role name.
func ParseRole(s string) (Role, bool) {
	for r := RoleNone; r <= RoleExtensionWrite; r++ {
		if r.String() == s {
			return r, true
		}
	}
	return RoleNone, false
}

// Parameter is one typed fragment parameter or declaration uniform.
type Parameter struct {
	// Name is the identifier the body refers to.
	Name string

	// Type is the type token, e.g. "float4" or "texture2D".
	Type string

	// Semantic is either a machine semantic or a stage-local value name.
	// Empty for plain link parameters.
	Semantic string

	Kind ParamKind

	// Rate applies to ParamUniform only.
	Rate Rate

	// Macro guards the parameter. "NAME" maps to #ifdef and "!NAME" to #ifndef.
	Macro string
}

// Tag returns the type tag of the parameter's type token.
func (p Parameter) Tag() TypeTag {
	return ParseTypeTag(p.Type)
}

// UniformRate returns the rate whose storage backs a uniform parameter.
// Custom and dynamic uniforms always live in per-object storage.
func (p Parameter) UniformRate() Rate {
	if p.Kind == ParamUniform {
		return p.Rate
	}
	return RateObject
}

// Fragment is a reusable shader source template.
type Fragment struct {
	Name string

	// Params are ordered as authored; the order of output parameters defines
	// link output slot indices.
	Params []Parameter

	// Body is emitted once per node instance.
	Body string

	// InitBody is emitted once per build, ahead of the first instance.
	InitBody string

	// Includes name declarations the fragment depends on.
	Includes []string

	// SideEffects keeps the fragment alive even without consumers.
	SideEffects bool

	Usage Usage
	Role  Role

	// GroupIndexToken, when set, is replaced in Body by the node's group index.
	GroupIndexToken string

	// AutoIncrementToken, when set, is replaced in Body by a counter that
	// increments with every instance emitted in a build.
	AutoIncrementToken string
}

// Outputs returns the link output slots in declaration order.
func (f *Fragment) Outputs() []Parameter {
	var out []Parameter
	for _, p := range f.Params {
		if p.Kind.IsOutput() {
			out = append(out, p)
		}
	}
	return out
}

// Output returns the output slot at index.
func (f *Fragment) Output(index int) (Parameter, bool) {
	outs := f.Outputs()
	if index < 0 || index >= len(outs) {
		return Parameter{}, false
	}
	return outs[index], true
}

// Param returns the parameter with the given name.
func (f *Fragment) Param(name string) (Parameter, bool) {
	for _, p := range f.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Uniforms returns all uniform-backed parameters.
func (f *Fragment) Uniforms() []Parameter {
	var out []Parameter
	for _, p := range f.Params {
		if p.Kind.IsUniform() {
			out = append(out, p)
		}
	}
	return out
}

// Declaration is a named snippet with uniforms shared between fragments.
type Declaration struct {
	Name string

	// Body is emitted verbatim in the shared declaration section.
	Body string

	// Uniforms are grouped by their Rate during emission.
	Uniforms []Parameter

	// Includes name further declarations emitted before this one.
	Includes []string
}

// MacroName strips the negation prefix from a guard macro.
func MacroName(macro string) (name string, negated bool) {
	if rest, ok := strings.CutPrefix(macro, "!"); ok {
		return rest, true
	}
	return macro, false
}
