// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package builder

import (
	"github.com/gogpu/shadergraph/dialect"
	"github.com/gogpu/shadergraph/shader"
)

// Options configures a build.
type Options struct {
	// Target selects the dialect of the generated text.
	Target dialect.Target

	// ShaderModel forms the HLSL profile.
	ShaderModel dialect.ShaderModel

	// Macros are passed to the native compiler and gate guarded
	// declarations. They are part of the content hash.
	Macros shader.MacroSet

	// MaxIdentifierLength overrides the dialect's limit when positive.
	MaxIdentifierLength int

	// WorkgroupSize is the compute thread group size.
	WorkgroupSize [3]int
}

// DefaultOptions returns options for HLSL Shader Model 5.1.
func DefaultOptions() Options {
	return Options{
		Target:        dialect.TargetHLSL,
		ShaderModel:   dialect.ShaderModel5_1,
		WorkgroupSize: [3]int{8, 8, 1},
	}
}

func (o Options) maxIdentifierLength(d dialect.Dialect) int {
	if o.MaxIdentifierLength > 0 {
		return o.MaxIdentifierLength
	}
	return d.MaxIdentifierLength()
}

func (o Options) workgroupSize() [3]int {
	ws := o.WorkgroupSize
	for i := range ws {
		if ws[i] <= 0 {
			ws[i] = 1
		}
	}
	return ws
}
