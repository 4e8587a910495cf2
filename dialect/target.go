// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dialect

import (
	"fmt"
	"strings"

	"github.com/gogpu/shadergraph/graph"
)

// Target selects the shading dialect of generated source.
type Target uint8

const (
	// TargetHLSL is the native HLSL-like dialect.
	TargetHLSL Target = iota

	// TargetPSSL is the console PSSL-like dialect.
	TargetPSSL

	// TargetGLSL is Vulkan GLSL.
	TargetGLSL

	// TargetNull generates no text; layouts are still computed.
	TargetNull
)

// String returns the lowercase target name.
func (t Target) String() string {
	switch t {
	case TargetHLSL:
		return "hlsl"
	case TargetPSSL:
		return "pssl"
	case TargetGLSL:
		return "glsl"
	case TargetNull:
		return "null"
	default:
		return fmt.Sprintf("target(%d)", uint8(t))
	}
}

// ParseTarget parses a target name, case-insensitively.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(s) {
	case "hlsl", "":
		return TargetHLSL, nil
	case "pssl":
		return TargetPSSL, nil
	case "glsl", "vulkan":
		return TargetGLSL, nil
	case "null", "none":
		return TargetNull, nil
	default:
		return TargetHLSL, fmt.Errorf("unknown target %q", s)
	}
}

// Extension returns the conventional file extension for a stage's source.
func (t Target) Extension(s graph.ShaderType) string {
	switch t {
	case TargetGLSL:
		switch s {
		case graph.ShaderVertex:
			return ".vert"
		case graph.ShaderPixel:
			return ".frag"
		default:
			return ".comp"
		}
	case TargetPSSL:
		return ".pssl"
	case TargetNull:
		return ".txt"
	default:
		return ".hlsl"
	}
}

// ShaderModel represents a DirectX Shader Model version used to form HLSL
// profiles.
type ShaderModel uint8

const (
	ShaderModel5_0 ShaderModel = iota

	// ShaderModel5_1 is the default.
	ShaderModel5_1

	ShaderModel6_0
	ShaderModel6_2
	ShaderModel6_6
)

// String returns e.g. "SM 5.1".
func (sm ShaderModel) String() string {
	major, minor := sm.version()
	return fmt.Sprintf("SM %d.%d", major, minor)
}

// ProfileSuffix returns the profile suffix, e.g. "5_1".
func (sm ShaderModel) ProfileSuffix() string {
	major, minor := sm.version()
	return fmt.Sprintf("%d_%d", major, minor)
}

func (sm ShaderModel) version() (major, minor uint8) {
	switch sm {
	case ShaderModel5_0:
		return 5, 0
	case ShaderModel6_0:
		return 6, 0
	case ShaderModel6_2:
		return 6, 2
	case ShaderModel6_6:
		return 6, 6
	default:
		return 5, 1
	}
}

// ParseShaderModel parses "5.1", "5_1" or "6.0".
func ParseShaderModel(s string) (ShaderModel, error) {
	for sm := ShaderModel5_0; sm <= ShaderModel6_6; sm++ {
		suffix := sm.ProfileSuffix()
		if s == suffix || s == strings.ReplaceAll(suffix, "_", ".") {
			return sm, nil
		}
	}
	return ShaderModel5_1, fmt.Errorf("unknown shader model %q", s)
}

// Profile returns the native compiler profile of a stage, e.g. "ps_5_1" or
// "sce_vs_vs_orbis". The null target has no profile.
func Profile(t Target, sm ShaderModel, s graph.ShaderType) string {
	switch t {
	case TargetHLSL:
		return shaderPrefix(s) + "_" + sm.ProfileSuffix()
	case TargetPSSL:
		switch s {
		case graph.ShaderVertex:
			return "sce_vs_vs_orbis"
		case graph.ShaderPixel:
			return "sce_ps_orbis"
		default:
			return "sce_cs_orbis"
		}
	case TargetGLSL:
		switch s {
		case graph.ShaderVertex:
			return "vert"
		case graph.ShaderPixel:
			return "frag"
		default:
			return "comp"
		}
	default:
		return ""
	}
}

func shaderPrefix(s graph.ShaderType) string {
	switch s {
	case graph.ShaderVertex:
		return "vs"
	case graph.ShaderPixel:
		return "ps"
	default:
		return "cs"
	}
}

// StageMacro returns the macro the generated text defines for a stage.
func StageMacro(s graph.ShaderType) string {
	switch s {
	case graph.ShaderVertex:
		return "VERTEX_SHADER"
	case graph.ShaderPixel:
		return "PIXEL_SHADER"
	default:
		return "COMPUTE_SHADER"
	}
}
