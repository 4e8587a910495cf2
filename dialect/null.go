// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dialect

import "github.com/gogpu/shadergraph/graph"

// nullDialect backs TargetNull. The builder emits no text for it, but
// naming and layout still go through a dialect, so it answers like HLSL.
type nullDialect struct {
	hlslDialect
}

func (nullDialect) Target() Target { return TargetNull }

func (nullDialect) Preamble(graph.ShaderType) []string { return nil }
