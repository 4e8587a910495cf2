// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package graph

import (
	"fmt"

	"github.com/gogpu/shadergraph/fragment"
)

// ShaderType is a programmable pipeline stage that a build targets.
type ShaderType uint8

const (
	ShaderVertex ShaderType = iota
	ShaderPixel
	ShaderCompute
)

// String returns the lowercase shader name.
func (s ShaderType) String() string {
	switch s {
	case ShaderVertex:
		return "vertex"
	case ShaderPixel:
		return "pixel"
	case ShaderCompute:
		return "compute"
	default:
		return fmt.Sprintf("shader(%d)", uint8(s))
	}
}

// ParseShaderType parses "vertex", "pixel" (or "fragment") and "compute".
func ParseShaderType(s string) (ShaderType, bool) {
	switch s {
	case "vertex":
		return ShaderVertex, true
	case "pixel", "fragment":
		return ShaderPixel, true
	case "compute":
		return ShaderCompute, true
	default:
		return ShaderVertex, false
	}
}

// Stage is an ordered sub-stage. Every shader type has an input, main and
// output sub-stage; the order of the constants is the emission order.
type Stage uint8

const (
	StageUnresolved Stage = iota
	StageVertexInput
	StageVertex
	StageVertexOutput
	StagePixelInput
	StagePixel
	StagePixelOutput
	StageComputeInput
	StageCompute
	StageComputeOutput
)

var stageNames = [...]string{
	StageUnresolved:    "unresolved",
	StageVertexInput:   "vertex_input",
	StageVertex:        "vertex",
	StageVertexOutput:  "vertex_output",
	StagePixelInput:    "pixel_input",
	StagePixel:         "pixel",
	StagePixelOutput:   "pixel_output",
	StageComputeInput:  "compute_input",
	StageCompute:       "compute",
	StageComputeOutput: "compute_output",
}

// String returns the sub-stage name.
func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

// ParseStage parses a sub-stage name; "" parses as StageUnresolved.
func ParseStage(s string) (Stage, bool) {
	if s == "" {
		return StageUnresolved, true
	}
	for i, name := range stageNames {
		if name == s {
			return Stage(i), true
		}
	}
	return StageUnresolved, false
}

// Shader returns the shader type a resolved sub-stage belongs to.
func (s Stage) Shader() ShaderType {
	switch {
	case s >= StageComputeInput:
		return ShaderCompute
	case s >= StagePixelInput:
		return ShaderPixel
	default:
		return ShaderVertex
	}
}

// Range is an inclusive span of sub-stages.
type Range struct {
	Lo, Hi Stage
}

// Contains reports whether s lies within r.
func (r Range) Contains(s Stage) bool {
	return s >= r.Lo && s <= r.Hi
}

// Empty reports whether the range admits no stage.
func (r Range) Empty() bool {
	return r.Lo > r.Hi
}

// Intersect returns the overlap of two ranges.
func (r Range) Intersect(o Range) Range {
	lo, hi := r.Lo, r.Hi
	if o.Lo > lo {
		lo = o.Lo
	}
	if o.Hi < hi {
		hi = o.Hi
	}
	return Range{Lo: lo, Hi: hi}
}

// ShaderRange returns the sub-stages of one shader type.
func ShaderRange(s ShaderType) Range {
	switch s {
	case ShaderVertex:
		return Range{StageVertexInput, StageVertexOutput}
	case ShaderPixel:
		return Range{StagePixelInput, StagePixelOutput}
	default:
		return Range{StageComputeInput, StageComputeOutput}
	}
}

// UsageRange returns the sub-stages a fragment usage admits.
func UsageRange(u fragment.Usage) Range {
	switch u {
	case fragment.UsageVertex:
		return ShaderRange(ShaderVertex)
	case fragment.UsagePixel:
		return ShaderRange(ShaderPixel)
	case fragment.UsageVertexPixel:
		return Range{StageVertexInput, StagePixelOutput}
	case fragment.UsageCompute:
		return ShaderRange(ShaderCompute)
	default:
		return Range{StageVertexInput, StageComputeOutput}
	}
}

// MainStage returns the main sub-stage of a shader type.
func MainStage(s ShaderType) Stage {
	switch s {
	case ShaderVertex:
		return StageVertex
	case ShaderPixel:
		return StagePixel
	default:
		return StageCompute
	}
}
