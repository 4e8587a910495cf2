// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package builder

import (
	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
)

// moveNodeShaderStage pulls pixel nodes whose inputs all come from the
// vertex shader into the vertex shader, repeating until nothing moves, and
// then marks vertex nodes needed by both shaders for duplication.
func (a *Analysis) moveNodeShaderStage() {
	for changed := true; changed; {
		changed = false
		for i := range a.Work {
			w := &a.Work[i]
			if !a.moveCandidate(w) {
				continue
			}
			if stage, ok := a.vertexPlacement(w); ok {
				w.Stage = stage
				w.Moved = true
				changed = true
			}
		}
		if changed {
			a.sortWorkingData()
		}
	}
	a.markAnyShader()
}

// pure reports whether a fragment computes only from its links and plain
// uniforms, so running it in another shader cannot change its meaning.
func pure(f *fragment.Fragment) bool {
	if f.Role != fragment.RoleNone || f.SideEffects || !f.Usage.Movable() {
		return false
	}
	for _, p := range f.Params {
		if p.Semantic != "" || p.Kind == fragment.ParamStageIn || p.Tag().IsResource() {
			return false
		}
	}
	return true
}

func (a *Analysis) moveCandidate(w *WorkingData) bool {
	if !w.Alive || w.Stage.Shader() != graph.ShaderPixel || w.Group != 0 || !pure(w.Fragment) {
		return false
	}
	n := a.Graph.Node(w.Node)
	if n.Prefer == graph.PreferPixel || len(n.StageLinks) > 0 {
		return false
	}
	if len(n.Inputs) == 0 && n.Prefer != graph.PreferVertex {
		return false
	}
	for _, c := range a.consumers(w.Node) {
		if cw := &a.Work[a.pos[c]]; cw.Alive && cw.Stage.Shader() == graph.ShaderPixel {
			return true
		}
	}
	return false
}

// vertexPlacement returns the vertex sub-stage a moved node takes, or false
// when some producer is not in the vertex shader.
func (a *Analysis) vertexPlacement(w *WorkingData) (graph.Stage, bool) {
	stage := graph.StageVertex
	for _, p := range a.producers(w.Node) {
		pw := &a.Work[a.pos[p]]
		if pw.Stage.Shader() != graph.ShaderVertex {
			return 0, false
		}
		need := pw.Stage
		if w.Group < pw.Group {
			need++
		}
		if need > stage {
			stage = need
		}
	}
	return stage, stage <= graph.StageVertexOutput
}

// markAnyShader walks the working set from the back, flooding vertex and
// pixel demand from consumers to producers. A pure vertex node demanded by
// both shaders is duplicated into the pixel shader; a duplicated consumer
// demands its producers in both shaders.
func (a *Analysis) markAnyShader() {
	vertexDemand := make([]bool, len(a.Work))
	pixelDemand := make([]bool, len(a.Work))
	for i := len(a.Work) - 1; i >= 0; i-- {
		w := &a.Work[i]
		if !w.Alive {
			continue
		}
		inVertex := w.Stage.Shader() == graph.ShaderVertex
		if inVertex && vertexDemand[i] && pixelDemand[i] && a.duplicable(w) {
			w.AnyShader = true
		}
		inPixel := w.Stage.Shader() == graph.ShaderPixel || w.AnyShader
		for _, p := range a.producers(w.Node) {
			j := a.pos[p]
			if inVertex {
				vertexDemand[j] = true
			}
			if inPixel {
				pixelDemand[j] = true
			}
		}
	}
}

func (a *Analysis) duplicable(w *WorkingData) bool {
	if w.Group != 0 || !pure(w.Fragment) {
		return false
	}
	n := a.Graph.Node(w.Node)
	return n.Prefer != graph.PreferVertex && len(n.StageLinks) == 0
}
