// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shadergraph

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/shadergraph/builder"
	"github.com/gogpu/shadergraph/dialect"
	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
)

var (
	constColor = &fragment.Fragment{
		Name: "ConstColor",
		Params: []fragment.Parameter{
			{Name: "color", Type: "float4", Kind: fragment.ParamOut},
		},
		Body: "color = float4(1, 0, 0, 1);",
	}
	outputColor = &fragment.Fragment{
		Name:  "OutputColor",
		Usage: fragment.UsagePixel,
		Role:  fragment.RoleOutput,
		Params: []fragment.Parameter{
			{Name: "color", Type: "float4", Semantic: fragment.PixelReturnSemantic, Kind: fragment.ParamIn},
		},
	}
	clearBuffer = &fragment.Fragment{
		Name:        "ClearBuffer",
		Usage:       fragment.UsageCompute,
		SideEffects: true,
		Params: []fragment.Parameter{
			{Name: "id", Type: "uint3", Semantic: "SV_DispatchThreadID", Kind: fragment.ParamStageIn},
		},
		Body: "buffer[id.x] = 0;",
	}
)

func testRepo(t testing.TB) *fragment.Repository {
	t.Helper()
	repo, err := fragment.NewRepository([]*fragment.Fragment{constColor, outputColor, clearBuffer}, nil)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	return repo
}

func unlitGraph() *graph.Graph {
	g := graph.New("Unlit")
	c := g.AddNode("ConstColor")
	o := g.AddNode("OutputColor")
	g.Connect(c, 0, o, "color")
	g.AddRoot(o)
	return g
}

func brokenGraph() *graph.Graph {
	g := graph.New("Broken")
	g.AddRoot(g.AddNode("DoesNotExist"))
	return g
}

func TestCompile(t *testing.T) {
	src, err := Compile(testRepo(t), unlitGraph(), graph.ShaderPixel)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	for _, want := range []string{"#define PIXEL_SHADER 1", "color = float4(1, 0, 0, 1);"} {
		if !strings.Contains(src.Text, want) {
			t.Errorf("missing %q in:\n%s", want, src.Text)
		}
	}
	if src.Profile != "ps_5_1" {
		t.Errorf("Profile = %q, want ps_5_1", src.Profile)
	}
	if src.FileName() != "Unlit.pixel.hlsl" {
		t.Errorf("FileName() = %q", src.FileName())
	}
}

func TestCompileWithOptions_Target(t *testing.T) {
	opts := builder.DefaultOptions()
	opts.Target = dialect.TargetGLSL
	src, err := CompileWithOptions(testRepo(t), unlitGraph(), graph.ShaderPixel, opts)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if src.Target != dialect.TargetGLSL || !strings.Contains(src.Text, "#version") {
		t.Errorf("expected GLSL source, got:\n%s", src.Text)
	}
}

func TestCompile_Error(t *testing.T) {
	_, err := Compile(testRepo(t), brokenGraph(), graph.ShaderVertex)
	if err == nil {
		t.Fatal("expected an error for a missing fragment")
	}

	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("got %T, want *CompileError", err)
	}
	if ce.Shader != "Broken" || ce.Stage != graph.ShaderVertex {
		t.Errorf("CompileError = %+v", ce)
	}
	if !builder.IsGraphStructure(err) {
		t.Errorf("build error kind lost through CompileError: %v", err)
	}
	if !strings.Contains(err.Error(), "compile Broken vertex shader") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestStages(t *testing.T) {
	repo := testRepo(t)

	render, err := Stages(repo, unlitGraph())
	if err != nil {
		t.Fatalf("Stages: %v", err)
	}
	if diff := cmp.Diff([]graph.ShaderType{graph.ShaderVertex, graph.ShaderPixel}, render); diff != "" {
		t.Errorf("render stages (-want +got):\n%s", diff)
	}

	g := graph.New("Clear")
	g.AddNode("ClearBuffer")
	compute, err := Stages(repo, g)
	if err != nil {
		t.Fatalf("Stages: %v", err)
	}
	if diff := cmp.Diff([]graph.ShaderType{graph.ShaderCompute}, compute); diff != "" {
		t.Errorf("compute stages (-want +got):\n%s", diff)
	}

	if _, err := Stages(repo, brokenGraph()); err == nil {
		t.Error("Stages accepted a missing fragment")
	}
}

func TestFallback(t *testing.T) {
	tests := []struct {
		stage graph.ShaderType
		want  []string
	}{
		{graph.ShaderVertex, []string{"#define VERTEX_SHADER 1", "clip = float4(position, 1);"}},
		{graph.ShaderPixel, []string{"#define PIXEL_SHADER 1", "color = float4(1, 0, 1, 1);"}},
		{graph.ShaderCompute, []string{"#define COMPUTE_SHADER 1", "// " + FallbackDispatch + "#0"}},
	}
	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			src, err := Fallback(tt.stage, builder.DefaultOptions())
			if err != nil {
				t.Fatalf("Fallback: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(src.Text, want) {
					t.Errorf("missing %q in:\n%s", want, src.Text)
				}
			}
			if src.Stage != tt.stage {
				t.Errorf("Stage = %s", src.Stage)
			}
		})
	}
}

func TestFallbackFragments_AreCopies(t *testing.T) {
	frags := FallbackFragments()
	frags[0].Params[0].Name = "changed"
	if fallbackFragments[0].Params[0].Name == "changed" {
		t.Error("FallbackFragments shares parameters with the built-in table")
	}
}
