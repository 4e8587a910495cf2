// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package builder

import (
	"sort"

	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
)

// renderRange spans both raster shaders.
var renderRange = graph.Range{Lo: graph.StageVertexInput, Hi: graph.StagePixelOutput}

// allowedRange returns the sub-stages a node may occupy in this build.
func (a *Analysis) allowedRange(w *WorkingData) (graph.Range, error) {
	build := renderRange
	kind := "render"
	if a.Compute {
		build = graph.ShaderRange(graph.ShaderCompute)
		kind = "compute"
	}
	r := graph.UsageRange(w.Fragment.Usage).Intersect(build)
	if r.Empty() {
		return r, errorf(ErrGraphStructure, a.Graph.Node(w.Node).Name(),
			"fragment %q with usage %s cannot run in a %s build", w.Fragment.Name, w.Fragment.Usage, kind)
	}
	return r, nil
}

// fixNodeStages resolves the final stage of every node in the working set.
//
// A node's usage clamps its stage range. Unresolved nodes inherit the most
// downstream stage of their producers; a stage outside the range clamps to
// the range's last sub-stage. Consumers are then pushed forward until no
// producer sorts after its consumer. Stages only increase and are bounded,
// so the loop ends; a consumer pushed out of its range is an error.
func (a *Analysis) fixNodeStages() error {
	byIndex := make([]int, len(a.Work))
	for i := range byIndex {
		byIndex[i] = i
	}
	sort.Slice(byIndex, func(i, j int) bool {
		return a.Work[byIndex[i]].GraphIndex < a.Work[byIndex[j]].GraphIndex
	})

	ranges := make([]graph.Range, len(a.Work))
	for _, i := range byIndex {
		w := &a.Work[i]
		r, err := a.allowedRange(w)
		if err != nil {
			return err
		}
		ranges[i] = r

		if w.Stage == graph.StageUnresolved {
			for _, p := range a.producers(w.Node) {
				if ps := a.Work[a.pos[p]].Stage; ps > w.Stage {
					w.Stage = ps
				}
			}
			w.Stage = mainOf(w.Stage)
			if w.Stage == graph.StageUnresolved {
				w.Stage = a.defaultStage(w.Fragment.Usage)
			}
		}
		if !r.Contains(w.Stage) {
			w.Stage = r.Hi
		}
	}

	for round := 0; ; round++ {
		if round > len(a.Work) {
			return NewError(ErrGraphStructure, "stage propagation did not converge")
		}
		changed := false
		for _, i := range byIndex {
			w := &a.Work[i]
			for _, p := range a.producers(w.Node) {
				pw := &a.Work[a.pos[p]]
				need := pw.Stage
				if w.Group < pw.Group {
					need++
				}
				if w.Stage < need {
					w.Stage = need
					changed = true
				}
			}
			if !ranges[i].Contains(w.Stage) {
				n := a.Graph.Node(w.Node)
				return errorf(ErrGraphStructure, n.Name(),
					"no %s stage satisfies the order of its inputs (needs %s)", w.Fragment.Usage, w.Stage)
			}
		}
		if !changed {
			return nil
		}
	}
}

// mainOf lifts an input sub-stage to the main sub-stage of its shader, so a
// consumer of an input fetch runs in the body of the shader.
func mainOf(s graph.Stage) graph.Stage {
	switch s {
	case graph.StageVertexInput:
		return graph.StageVertex
	case graph.StagePixelInput:
		return graph.StagePixel
	case graph.StageComputeInput:
		return graph.StageCompute
	default:
		return s
	}
}

func (a *Analysis) defaultStage(u fragment.Usage) graph.Stage {
	switch {
	case a.Compute:
		return graph.StageCompute
	case u == fragment.UsageVertex:
		return graph.StageVertex
	default:
		return graph.StagePixel
	}
}
