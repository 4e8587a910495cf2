// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dialect

import (
	"fmt"
	"strings"

	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
)

// hlslDialect renders HLSL. The PSSL variant shares its structure and
// differs in keywords, semantics and buffer spelling.
type hlslDialect struct {
	pssl bool
}

func (d hlslDialect) Target() Target {
	if d.pssl {
		return TargetPSSL
	}
	return TargetHLSL
}

func (d hlslDialect) Preamble(s graph.ShaderType) []string {
	if d.pssl {
		return []string{
			"#define SG_PSSL 1",
			"#define " + fragment.PixelReturnSemantic + " S_TARGET_OUTPUT0",
			"struct Spline { float4 points[" + fmt.Sprint(fragment.SplinePoints) + "]; };",
		}
	}
	return []string{
		"#define SG_HLSL 1",
		"#define " + fragment.PixelReturnSemantic + " SV_Target0",
		"struct Spline { float4 points[" + fmt.Sprint(fragment.SplinePoints) + "]; };",
	}
}

func (d hlslDialect) MaxIdentifierLength() int {
	if d.pssl {
		return 127
	}
	return 255
}

func (d hlslDialect) IsReserved(name string) bool {
	if d.pssl {
		if _, ok := psslKeywords[name]; ok {
			return true
		}
	}
	return isReserved(hlslKeywords, true, name)
}

func (d hlslDialect) Type(token string) string {
	if strings.EqualFold(token, "spline") {
		return "Spline"
	}
	return token
}

func (d hlslDialect) Zero(token string) string {
	return "(" + d.Type(token) + ")0"
}

func (d hlslDialect) Static(decl string) string {
	return "static " + decl
}

func (d hlslDialect) Reinterpret(token, expr string) string {
	switch fragment.ScalarBase(token) {
	case "int":
		return "asint(" + expr + ")"
	case "uint":
		return expr
	case "bool":
		return "(" + expr + " != 0)"
	default:
		return "asfloat(" + expr + ")"
	}
}

func (d hlslDialect) ConstantBlock(name string, bt BindTarget) string {
	kw := "cbuffer"
	if d.pssl {
		kw = "ConstantBuffer"
	}
	return fmt.Sprintf("%s %s : %s", kw, name, register(bt))
}

func (d hlslDialect) ConstantField(token, name string, offset int) string {
	const comps = "xyzw"
	reg, comp := offset/16, (offset%16)/4
	if comp == 0 {
		return fmt.Sprintf("%s %s : packoffset(c%d);", d.Type(token), name, reg)
	}
	return fmt.Sprintf("%s %s : packoffset(c%d.%c);", d.Type(token), name, reg, comps[comp])
}

func (d hlslDialect) StructuredBuffer(name string, bt BindTarget) string {
	kw := "StructuredBuffer"
	if d.pssl {
		kw = "RegularBuffer"
	}
	return fmt.Sprintf("%s<uint4> %s : %s;", kw, name, register(bt))
}

func (d hlslDialect) Resource(token, name string, bt BindTarget) string {
	return fmt.Sprintf("%s %s : %s;", token, name, register(bt))
}

func (d hlslDialect) StructField(v Varying) string {
	return fmt.Sprintf("%s%s %s : %s;", d.interpolation(v), d.Type(v.Type), v.Name, d.semantic(v.Semantic))
}

func (d hlslDialect) InputsAsParams() bool { return true }

func (d hlslDialect) Input(_ graph.ShaderType, v Varying) string {
	return fmt.Sprintf("%s%s %s : %s", d.interpolation(v), d.Type(v.Type), v.Name, d.semantic(v.Semantic))
}

func (d hlslDialect) OutputGlobal(graph.ShaderType, Varying) string { return "" }

func (d hlslDialect) EntryOpen(s graph.ShaderType, threads [3]int) []string {
	if s == graph.ShaderCompute {
		attr := "numthreads"
		if d.pssl {
			attr = "NUM_THREADS"
		}
		return []string{
			fmt.Sprintf("[%s(%d, %d, %d)]", attr, threads[0], threads[1], threads[2]),
			"void " + EntryPoint + "(",
		}
	}
	return []string{OutputStruct + " " + EntryPoint + "("}
}

func (d hlslDialect) StoreOutput(graph.ShaderType, Varying) string { return "" }

func (d hlslDialect) Return(s graph.ShaderType) string {
	if s == graph.ShaderCompute {
		return ""
	}
	return "return " + OutputVar + ";"
}

func (d hlslDialect) interpolation(v Varying) string {
	if !v.Flat {
		return ""
	}
	if d.pssl {
		return "nointerp "
	}
	return "nointerpolation "
}

// psslSemantics maps canonical semantics to their PSSL spelling.
var psslSemantics = map[string]string{
	"POSITION":            "S_POSITION",
	"SV_INSTANCEID":       "S_INSTANCE_ID",
	"SV_VERTEXID":         "S_VERTEX_ID",
	"SV_DISPATCHTHREADID": "S_DISPATCH_THREAD_ID",
	"SV_GROUPTHREADID":    "S_GROUP_THREAD_ID",
	"SV_GROUPID":          "S_GROUP_ID",
	"SV_ISFRONTFACE":      "S_FRONT_FACE",
	"SV_DEPTH":            "S_DEPTH_OUTPUT",
}

func (d hlslDialect) semantic(sem string) string {
	if d.pssl {
		if s, ok := psslSemantics[sem]; ok {
			return s
		}
		if rest, ok := strings.CutPrefix(sem, "SV_TARGET"); ok {
			return "S_TARGET_OUTPUT" + rest
		}
		return sem
	}
	if sem == "POSITION" {
		return "SV_POSITION"
	}
	return sem
}

func register(bt BindTarget) string {
	if bt.Space != 0 {
		return fmt.Sprintf("register(%s%d, space%d)", bt.Type, bt.Register, bt.Space)
	}
	return fmt.Sprintf("register(%s%d)", bt.Type, bt.Register)
}
