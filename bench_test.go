// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shadergraph

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/gogpu/shadergraph/builder"
	"github.com/gogpu/shadergraph/dialect"
	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/shader"
)

// ---------------------------------------------------------------------------
// Benchmark graphs: a color chain of increasing length
// ---------------------------------------------------------------------------

var brighten = &fragment.Fragment{
	Name: "Brighten",
	Params: []fragment.Parameter{
		{Name: "c", Type: "float4", Kind: fragment.ParamIn},
		{Name: "amount", Type: "float", Kind: fragment.ParamUniform, Rate: fragment.RatePass},
		{Name: "r", Type: "float4", Kind: fragment.ParamOut},
	},
	Body: "r = saturate(c * (1 + amount));",
}

func benchRepo(b *testing.B) *fragment.Repository {
	b.Helper()
	repo, err := fragment.NewRepository([]*fragment.Fragment{constColor, outputColor, brighten}, nil)
	if err != nil {
		b.Fatalf("NewRepository: %v", err)
	}
	return repo
}

// chainGraph is ConstColor followed by n Brighten nodes feeding the output.
func chainGraph(n int) *graph.Graph {
	g := graph.New(fmt.Sprintf("Chain%d", n))
	prev := g.AddNode("ConstColor")
	for i := 0; i < n; i++ {
		next := g.AddNode("Brighten")
		g.Connect(prev, 0, next, "c")
		prev = next
	}
	o := g.AddNode("OutputColor")
	g.Connect(prev, 0, o, "color")
	g.AddRoot(o)
	return g
}

var graphsBySize = []struct {
	name  string
	nodes int
}{
	{"small", 2},
	{"medium", 32},
	{"large", 256},
}

// BenchmarkCompile benchmarks a full pixel shader build by graph size.
func BenchmarkCompile(b *testing.B) {
	repo := benchRepo(b)
	for _, sc := range graphsBySize {
		b.Run(sc.name, func(b *testing.B) {
			g := chainGraph(sc.nodes)
			b.ReportAllocs()
			b.ResetTimer()

			var result *shader.Source
			for i := 0; i < b.N; i++ {
				var err error
				result, err = Compile(repo, g, graph.ShaderPixel)
				if err != nil {
					b.Fatalf("compile failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// BenchmarkCompileAllTargets builds the same graph for every dialect.
func BenchmarkCompileAllTargets(b *testing.B) {
	repo := benchRepo(b)
	g := chainGraph(32)
	for _, target := range []dialect.Target{dialect.TargetHLSL, dialect.TargetPSSL, dialect.TargetGLSL, dialect.TargetNull} {
		b.Run(target.String(), func(b *testing.B) {
			opts := builder.DefaultOptions()
			opts.Target = target
			b.ReportAllocs()
			b.ResetTimer()

			var result *shader.Source
			for i := 0; i < b.N; i++ {
				var err error
				result, err = CompileWithOptions(repo, g, graph.ShaderPixel, opts)
				if err != nil {
					b.Fatalf("compile failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// BenchmarkSessionCompileAll measures building both raster shaders from
// one shared analysis.
func BenchmarkSessionCompileAll(b *testing.B) {
	s := NewSession(fragment.NewLibrary(benchRepo(b)), DefaultSessionOptions())
	defer s.Close()
	g := chainGraph(32)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()

	var result []*shader.Source
	for i := 0; i < b.N; i++ {
		var err error
		result, err = s.CompileAll(ctx, g, nil)
		if err != nil {
			b.Fatalf("compile failed: %v", err)
		}
	}
	runtime.KeepAlive(result)
}
