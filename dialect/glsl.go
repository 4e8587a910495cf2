// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dialect

import (
	"fmt"
	"strings"

	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
)

// glslDialect renders Vulkan GLSL 4.50. Stage inputs and outputs are
// globals bound by location; the output struct is copied to them before
// main returns. Constant blocks use the scalar block layout so explicit
// offsets match the HLSL packing.
type glslDialect struct{}

// glslTypes maps HLSL type tokens to GLSL.
var glslTypes = map[string]string{
	"float2": "vec2", "float3": "vec3", "float4": "vec4",
	"half2": "vec2", "half3": "vec3", "half4": "vec4", "half": "float",
	"int2": "ivec2", "int3": "ivec3", "int4": "ivec4",
	"uint2": "uvec2", "uint3": "uvec3", "uint4": "uvec4",
	"bool2": "bvec2", "bool3": "bvec3", "bool4": "bvec4",
	"float2x2": "mat2", "float3x3": "mat3", "float4x4": "mat4",
	"float3x4": "mat4x3", "float4x3": "mat3x4",
	"Texture2D": "texture2D", "Texture3D": "texture3D", "TextureCube": "textureCube",
	"Texture2DArray": "texture2DArray", "SamplerState": "sampler",
	"SamplerComparisonState": "samplerShadow",
	"spline": "Spline",
}

// glslBuiltins maps canonical input semantics to built-in variables.
var glslBuiltins = map[string]string{
	"SV_INSTANCEID":       "uint(gl_InstanceIndex)",
	"SV_VERTEXID":         "uint(gl_VertexIndex)",
	"SV_ISFRONTFACE":      "gl_FrontFacing",
	"SV_DISPATCHTHREADID": "gl_GlobalInvocationID",
	"SV_GROUPTHREADID":    "gl_LocalInvocationID",
	"SV_GROUPID":          "gl_WorkGroupID",
}

func (glslDialect) Target() Target { return TargetGLSL }

func (glslDialect) Preamble(graph.ShaderType) []string {
	lines := []string{
		"#version 450",
		"#extension GL_EXT_scalar_block_layout : require",
		"#define SG_GLSL 1",
	}
	// Keep the defines sorted so the text is reproducible.
	for _, from := range [...]string{
		"bool2", "bool3", "bool4",
		"float2", "float2x2", "float3", "float3x3", "float4", "float4x4",
		"int2", "int3", "int4",
		"uint2", "uint3", "uint4",
	} {
		lines = append(lines, "#define "+from+" "+glslTypes[from])
	}
	return append(lines,
		"#define lerp mix",
		"#define frac fract",
		"#define rsqrt inversesqrt",
		"#define ddx dFdx",
		"#define ddy dFdy",
		"#define saturate(x) clamp(x, 0.0, 1.0)",
		"#define mul(a, b) ((b) * (a))",
		fmt.Sprintf("struct Spline { vec4 points[%d]; };", fragment.SplinePoints),
	)
}

func (glslDialect) MaxIdentifierLength() int { return 1024 }

func (glslDialect) IsReserved(name string) bool {
	return strings.HasPrefix(name, "gl_") || isReserved(glslKeywords, false, name)
}

func (glslDialect) Type(token string) string {
	if t, ok := glslTypes[token]; ok {
		return t
	}
	return token
}

func (d glslDialect) Zero(token string) string {
	if fragment.ParseTypeTag(token) == fragment.TagSpline {
		zeros := strings.TrimSuffix(strings.Repeat("vec4(0), ", fragment.SplinePoints), ", ")
		return fmt.Sprintf("Spline(vec4[%d](%s))", fragment.SplinePoints, zeros)
	}
	if fragment.ParseTypeTag(token) == fragment.TagUnknown {
		return ""
	}
	return d.Type(token) + "(0)"
}

func (glslDialect) Static(decl string) string { return decl }

func (d glslDialect) Reinterpret(token, expr string) string {
	n := fragment.ParseTypeTag(token).Components()
	switch fragment.ScalarBase(token) {
	case "int":
		return d.Type(token) + "(" + expr + ")"
	case "uint":
		return expr
	case "bool":
		if n > 1 {
			return fmt.Sprintf("notEqual(%s, uvec%d(0u))", expr, n)
		}
		return "(" + expr + " != 0u)"
	default:
		return "uintBitsToFloat(" + expr + ")"
	}
}

func (glslDialect) ConstantBlock(name string, bt BindTarget) string {
	return fmt.Sprintf("layout(scalar, set = %d, binding = %d) uniform %s", bt.Space, bt.Binding, name)
}

func (d glslDialect) ConstantField(token, name string, offset int) string {
	return fmt.Sprintf("layout(offset = %d) %s %s;", offset, d.Type(token), name)
}

func (glslDialect) StructuredBuffer(name string, bt BindTarget) string {
	return fmt.Sprintf("layout(std430, set = %d, binding = %d) readonly buffer %s_block { uvec4 %s[]; };",
		bt.Space, bt.Binding, name, name)
}

func (d glslDialect) Resource(token, name string, bt BindTarget) string {
	return fmt.Sprintf("layout(set = %d, binding = %d) uniform %s %s;", bt.Space, bt.Binding, d.Type(token), name)
}

func (d glslDialect) StructField(v Varying) string {
	return fmt.Sprintf("%s %s;", d.Type(v.Type), v.Name)
}

func (glslDialect) InputsAsParams() bool { return false }

func (d glslDialect) Input(s graph.ShaderType, v Varying) string {
	if b, ok := glslBuiltins[v.Semantic]; ok {
		return "#define " + v.Name + " " + b
	}
	if s == graph.ShaderPixel && v.Semantic == "POSITION" {
		return "#define " + v.Name + " gl_FragCoord"
	}
	flat := ""
	if v.Flat && s == graph.ShaderPixel {
		flat = "flat "
	}
	return fmt.Sprintf("layout(location = %d) %sin %s %s;", v.Location, flat, d.Type(v.Type), v.Name)
}

func (d glslDialect) OutputGlobal(s graph.ShaderType, v Varying) string {
	if s == graph.ShaderCompute || glslBuiltinOutput(s, v.Semantic) != "" {
		return ""
	}
	flat := ""
	if v.Flat {
		flat = "flat "
	}
	return fmt.Sprintf("layout(location = %d) %sout %s sg_out_%s;", v.Location, flat, d.Type(v.Type), v.Name)
}

func (glslDialect) EntryOpen(s graph.ShaderType, threads [3]int) []string {
	if s == graph.ShaderCompute {
		return []string{
			fmt.Sprintf("layout(local_size_x = %d, local_size_y = %d, local_size_z = %d) in;", threads[0], threads[1], threads[2]),
			"void " + EntryPoint + "(",
		}
	}
	return []string{"void " + EntryPoint + "("}
}

func (glslDialect) StoreOutput(s graph.ShaderType, v Varying) string {
	if s == graph.ShaderCompute {
		return ""
	}
	if b := glslBuiltinOutput(s, v.Semantic); b != "" {
		return fmt.Sprintf("%s = %s.%s;", b, OutputVar, v.Name)
	}
	return fmt.Sprintf("sg_out_%s = %s.%s;", v.Name, OutputVar, v.Name)
}

func (glslDialect) Return(graph.ShaderType) string { return "" }

func glslBuiltinOutput(s graph.ShaderType, sem string) string {
	switch {
	case s == graph.ShaderVertex && sem == "POSITION":
		return "gl_Position"
	case s == graph.ShaderPixel && sem == "SV_DEPTH":
		return "gl_FragDepth"
	default:
		return ""
	}
}
