// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dialect

import "strings"

// UnnamedIdentifier is the default name for empty identifiers.
const UnnamedIdentifier = "_unnamed"

// Names the generated text declares itself. Fragment parameters that collide
// with these are renamed.
const (
	OutputStruct     = "ShaderOutput"
	OutputVar        = "shader_out_data"
	EntryPoint       = "main"
	UniformBuffer    = "uniforms"
	InstanceIndex    = "instance_index"
	InstanceCount    = "instance_count"
	DrawConstants    = "DrawConstants"
	CommaMacro       = "SG_COMMA"
	InstanceSemantic = "SG_INSTANCE_INDEX"
	InstanceVarying  = "sg_instance_index"
)

// hlslKeywords contains HLSL reserved words, intrinsic names and type names.
var hlslKeywords = map[string]struct{}{
	"AppendStructuredBuffer": {}, "asm": {}, "BlendState": {}, "bool": {}, "break": {},
	"Buffer": {}, "ByteAddressBuffer": {}, "case": {}, "cbuffer": {}, "centroid": {},
	"class": {}, "column_major": {}, "compile": {}, "const": {}, "continue": {},
	"ConsumeStructuredBuffer": {}, "default": {}, "discard": {}, "do": {}, "double": {},
	"dword": {}, "else": {}, "export": {}, "extern": {}, "false": {}, "float": {},
	"for": {}, "groupshared": {}, "half": {}, "if": {}, "in": {}, "inline": {},
	"inout": {}, "InputPatch": {}, "int": {}, "interface": {}, "line": {}, "lineadj": {},
	"linear": {}, "LineStream": {}, "matrix": {}, "min16float": {}, "min16int": {},
	"min16uint": {}, "namespace": {}, "nointerpolation": {}, "noperspective": {},
	"NULL": {}, "out": {}, "OutputPatch": {}, "packoffset": {}, "pass": {},
	"pixelfragment": {}, "point": {}, "PointStream": {}, "precise": {}, "register": {},
	"return": {}, "row_major": {}, "RWBuffer": {}, "RWByteAddressBuffer": {},
	"RWStructuredBuffer": {}, "RWTexture1D": {}, "RWTexture2D": {}, "RWTexture3D": {},
	"sample": {}, "sampler": {}, "SamplerState": {}, "SamplerComparisonState": {},
	"shared": {}, "snorm": {}, "stateblock": {}, "static": {}, "string": {}, "struct": {},
	"switch": {}, "StructuredBuffer": {}, "tbuffer": {}, "technique": {}, "texture": {},
	"Texture1D": {}, "Texture2D": {}, "Texture2DArray": {}, "Texture3D": {},
	"TextureCube": {}, "TextureCubeArray": {}, "triangle": {}, "triangleadj": {},
	"TriangleStream": {}, "true": {}, "typedef": {}, "uniform": {}, "unorm": {},
	"unsigned": {}, "vector": {}, "vertexfragment": {}, "void": {}, "volatile": {},
	"while": {}, "uint": {}, "ConstantBuffer": {}, "template": {}, "this": {},

	// Intrinsics commonly called from fragment bodies.
	"abs": {}, "all": {}, "any": {}, "asfloat": {}, "asint": {}, "asuint": {},
	"clamp": {}, "clip": {}, "cos": {}, "cross": {}, "ddx": {}, "ddy": {},
	"distance": {}, "dot": {}, "exp": {}, "exp2": {}, "floor": {}, "frac": {},
	"length": {}, "lerp": {}, "log": {}, "log2": {}, "max": {}, "min": {}, "mul": {},
	"normalize": {}, "pow": {}, "reflect": {}, "refract": {}, "round": {}, "rsqrt": {},
	"saturate": {}, "sign": {}, "sin": {}, "smoothstep": {}, "sqrt": {}, "step": {},
	"tan": {},
}

// hlslCaseInsensitive are legacy keywords matched without regard to case.
var hlslCaseInsensitive = map[string]struct{}{
	"asm": {}, "decl": {}, "pass": {}, "technique": {}, "texture1d": {},
	"texture2d": {}, "texture3d": {}, "texturecube": {},
}

// psslKeywords are PSSL additions on top of the HLSL set.
var psslKeywords = map[string]struct{}{
	"RegularBuffer": {}, "RW_RegularBuffer": {}, "ConstantBuffer": {}, "nointerp": {},
	"nopersp": {}, "thread_group_memory": {}, "NUM_THREADS": {}, "SamplerComparisonState": {},
}

// glslKeywords contains GLSL reserved words and common built-in names.
var glslKeywords = map[string]struct{}{
	"void": {}, "bool": {}, "int": {}, "uint": {}, "float": {}, "double": {},
	"vec2": {}, "vec3": {}, "vec4": {}, "ivec2": {}, "ivec3": {}, "ivec4": {},
	"uvec2": {}, "uvec3": {}, "uvec4": {}, "bvec2": {}, "bvec3": {}, "bvec4": {},
	"mat2": {}, "mat3": {}, "mat4": {}, "mat2x2": {}, "mat3x3": {}, "mat4x4": {},
	"sampler": {}, "samplerShadow": {}, "texture2D": {}, "texture3D": {},
	"textureCube": {}, "texture2DArray": {}, "sampler2D": {}, "sampler3D": {},
	"samplerCube": {},

	"attribute": {}, "const": {}, "uniform": {}, "varying": {}, "buffer": {},
	"shared": {}, "coherent": {}, "volatile": {}, "restrict": {}, "readonly": {},
	"writeonly": {}, "layout": {}, "centroid": {}, "flat": {}, "smooth": {},
	"noperspective": {}, "patch": {}, "sample": {}, "break": {}, "continue": {},
	"do": {}, "for": {}, "while": {}, "switch": {}, "case": {}, "default": {},
	"if": {}, "else": {}, "subroutine": {}, "in": {}, "out": {}, "inout": {},
	"true": {}, "false": {}, "invariant": {}, "precise": {}, "discard": {},
	"return": {}, "struct": {}, "lowp": {}, "mediump": {}, "highp": {},
	"precision": {},

	// Reserved for future use.
	"common": {}, "partition": {}, "active": {}, "asm": {}, "class": {}, "union": {},
	"enum": {}, "typedef": {}, "template": {}, "this": {}, "resource": {}, "goto": {},
	"inline": {}, "noinline": {}, "public": {}, "static": {}, "extern": {},
	"external": {}, "interface": {}, "long": {}, "short": {}, "half": {},
	"fixed": {}, "unsigned": {}, "superp": {}, "input": {}, "output": {},
	"filter": {}, "sizeof": {}, "cast": {}, "namespace": {}, "using": {},

	"main": {}, "mix": {}, "fract": {}, "texture": {}, "dot": {}, "cross": {},
	"normalize": {}, "length": {}, "clamp": {}, "min": {}, "max": {}, "pow": {},
}

// isReserved checks a name against a keyword table and, when set, the
// case-insensitive legacy table.
func isReserved(table map[string]struct{}, caseInsensitive bool, name string) bool {
	if _, ok := table[name]; ok {
		return true
	}
	if caseInsensitive {
		_, ok := hlslCaseInsensitive[strings.ToLower(name)]
		return ok
	}
	return false
}

// Escape returns a safe identifier for d. Reserved names are prefixed with
// an underscore, as are GLSL names in the gl_ namespace.
func Escape(d Dialect, name string) string {
	if name == "" {
		return UnnamedIdentifier
	}
	if d.IsReserved(name) {
		return "_" + name
	}
	return name
}
