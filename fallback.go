// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shadergraph

import (
	"sync"

	"github.com/gogpu/shadergraph/builder"
	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/shader"
)

// Names of the built-in fallback fragments.
const (
	FallbackPosition     = "sg_FallbackPosition"
	FallbackVertexOutput = "sg_FallbackVertexOutput"
	FallbackColor        = "sg_FallbackColor"
	FallbackPixelOutput  = "sg_FallbackPixelOutput"
	FallbackDispatch     = "sg_FallbackDispatch"
)

var fallbackFragments = []*fragment.Fragment{
	{
		Name:  FallbackPosition,
		Usage: fragment.UsageVertex,
		Params: []fragment.Parameter{
			{Name: "position", Type: "float3", Semantic: "POSITION", Kind: fragment.ParamStageIn},
			{Name: "clip", Type: "float4", Kind: fragment.ParamOut},
		},
		Body: "clip = float4(position, 1);",
	},
	{
		Name:  FallbackVertexOutput,
		Usage: fragment.UsageVertex,
		Role:  fragment.RoleOutput,
		Params: []fragment.Parameter{
			{Name: "position", Type: "float4", Semantic: "SV_Position", Kind: fragment.ParamIn},
		},
	},
	{
		Name:  FallbackColor,
		Usage: fragment.UsagePixel,
		Params: []fragment.Parameter{
			{Name: "color", Type: "float4", Kind: fragment.ParamOut},
		},
		// Magenta marks geometry whose material failed to build.
		Body: "color = float4(1, 0, 1, 1);",
	},
	{
		Name:  FallbackPixelOutput,
		Usage: fragment.UsagePixel,
		Role:  fragment.RoleOutput,
		Params: []fragment.Parameter{
			{Name: "color", Type: "float4", Semantic: fragment.PixelReturnSemantic, Kind: fragment.ParamIn},
		},
	},
	{
		Name:        FallbackDispatch,
		Usage:       fragment.UsageCompute,
		SideEffects: true,
	},
}

var fallbackRepo = sync.OnceValues(func() (*fragment.Repository, error) {
	return fragment.NewRepository(fallbackFragments, nil)
})

// FallbackFragments returns copies of the built-in fallback fragments, for
// merging into a user repository.
func FallbackFragments() []*fragment.Fragment {
	out := make([]*fragment.Fragment, len(fallbackFragments))
	for i, f := range fallbackFragments {
		c := *f
		c.Params = append([]fragment.Parameter(nil), f.Params...)
		out[i] = &c
	}
	return out
}

// FallbackGraph returns the graph of the fallback shader for s. Vertex and
// pixel share one graph that passes the position through and shades
// magenta; compute dispatches an empty kernel.
func FallbackGraph(s graph.ShaderType) *graph.Graph {
	if s == graph.ShaderCompute {
		g := graph.New("Fallback")
		g.AddRoot(g.AddNode(FallbackDispatch))
		return g
	}
	g := graph.New("Fallback")
	p := g.AddNode(FallbackPosition)
	vo := g.AddNode(FallbackVertexOutput)
	c := g.AddNode(FallbackColor)
	po := g.AddNode(FallbackPixelOutput)
	g.Connect(p, 0, vo, "position")
	g.Connect(c, 0, po, "color")
	g.AddRoot(vo)
	g.AddRoot(po)
	return g
}

// Fallback builds the fallback shader for s with the target and limits of
// opts.
func Fallback(s graph.ShaderType, opts builder.Options) (*shader.Source, error) {
	repo, err := fallbackRepo()
	if err != nil {
		return nil, err
	}
	return CompileWithOptions(repo, FallbackGraph(s), s, opts)
}
