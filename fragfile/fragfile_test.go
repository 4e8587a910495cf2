// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fragfile

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"

	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/shader"
)

const fragmentsSrc = `
declaration "Camera" {
  body = "#define VIEW_PROJ view_proj"
  uniform "view_proj" {
    type = "float4x4"
  }
}

fragment "ConstColor" {
  param "color" {
    type = "float4"
    kind = "out"
  }
  body = "color = float4(1, 0, 0, 1);"
}

fragment "Tint" {
  includes = ["Camera"]
  param "c" {
    type = "float4"
  }
  param "tint" {
    type  = "float4"
    kind  = "uniform"
    rate  = "object"
    macro = "!NO_TINT"
  }
  param "r" {
    type = "float4"
    kind = "out"
  }
  body = <<-EOT
    r = c * tint;
  EOT
}

fragment "OutputColor" {
  usage = "pixel"
  role  = "output"
  param "color" {
    type     = "float4"
    semantic = "PIXEL_RETURN_SEMANTIC"
  }
}
`

const graphSrc = `
graph "Tinted" {
  macros = {
    FOG     = true
    QUALITY = 2
    NAME    = "hi"
  }
  node "color" {
    fragment = "ConstColor"
  }
  node "tint" {
    fragment = "Tint"
    prefer   = "pixel"
    input "c" {
      from = "color"
      mask = "xyzw"
    }
  }
  node "out" {
    fragment = "OutputColor"
    stage    = "pixel_output"
    group    = 1
    input "color" {
      from = "tint"
    }
    after = ["color"]
  }
  roots = ["out"]
}
`

func TestParse_Fragments(t *testing.T) {
	f, diags := Parse([]byte(fragmentsSrc), "fragments.hcl")
	if diags.HasErrors() {
		t.Fatalf("Parse: %s", diags.Error())
	}
	if len(f.Fragments) != 3 || len(f.Declarations) != 1 {
		t.Fatalf("got %d fragments and %d declarations", len(f.Fragments), len(f.Declarations))
	}

	tint := f.Fragments[1]
	want := []fragment.Parameter{
		{Name: "c", Type: "float4", Kind: fragment.ParamIn},
		{Name: "tint", Type: "float4", Kind: fragment.ParamUniform, Rate: fragment.RateObject, Macro: "!NO_TINT"},
		{Name: "r", Type: "float4", Kind: fragment.ParamOut},
	}
	if diff := cmp.Diff(want, tint.Params); diff != "" {
		t.Errorf("Tint params (-want +got):\n%s", diff)
	}
	if strings.TrimSpace(tint.Body) != "r = c * tint;" {
		t.Errorf("Tint body = %q", tint.Body)
	}

	out := f.Fragments[2]
	if out.Usage != fragment.UsagePixel || out.Role != fragment.RoleOutput {
		t.Errorf("OutputColor usage=%s role=%s", out.Usage, out.Role)
	}

	cam := f.Declarations[0]
	if len(cam.Uniforms) != 1 || cam.Uniforms[0].Kind != fragment.ParamUniform || cam.Uniforms[0].Rate != fragment.RatePass {
		t.Errorf("Camera uniforms = %+v", cam.Uniforms)
	}

	repo, err := f.Repository()
	if err != nil {
		t.Fatalf("Repository: %v", err)
	}
	if diff := cmp.Diff([]string{"ConstColor", "OutputColor", "Tint"}, repo.FragmentNames()); diff != "" {
		t.Errorf("FragmentNames (-want +got):\n%s", diff)
	}
}

func TestParse_Graph(t *testing.T) {
	f, diags := Parse([]byte(graphSrc), "graph.hcl")
	if diags.HasErrors() {
		t.Fatalf("Parse: %s", diags.Error())
	}
	g, ok := f.Graph("Tinted")
	if !ok {
		t.Fatal("graph Tinted not found")
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(g.Nodes) != 3 {
		t.Fatalf("got %d nodes", len(g.Nodes))
	}

	tint := g.Node(1)
	if tint.Prefer != graph.PreferPixel || tint.Label != "tint" {
		t.Errorf("tint node = %+v", tint)
	}
	if diff := cmp.Diff([]graph.Link{{Input: "c", Source: 0, Output: 0, Mask: "xyzw"}}, tint.Inputs); diff != "" {
		t.Errorf("tint inputs (-want +got):\n%s", diff)
	}

	out := g.Node(2)
	if out.Stage != graph.StagePixelOutput || out.Group != 1 {
		t.Errorf("out stage=%s group=%d", out.Stage, out.Group)
	}
	if diff := cmp.Diff([]graph.NodeID{0}, out.StageLinks); diff != "" {
		t.Errorf("out stage links (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]graph.NodeID{2}, g.Roots); diff != "" {
		t.Errorf("roots (-want +got):\n%s", diff)
	}

	want := shader.MacroSet{
		{Name: "FOG", Value: "1"},
		{Name: "NAME", Value: "hi"},
		{Name: "QUALITY", Value: "2"},
	}
	if diff := cmp.Diff(want, f.Macros["Tinted"]); diff != "" {
		t.Errorf("macros (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `fragment "A" {`, ""},
		{"top attribute", `x = 1`, "Unexpected attribute"},
		{"unknown block", `shader "A" {}`, "Unsupported block type"},
		{"labels", `fragment {}`, "Invalid block"},
		{"usage", `fragment "A" { usage = "geometry" }`, "Invalid usage"},
		{"kind", `fragment "A" {
  param "p" {
    type = "float"
    kind = "sideways"
  }
}`, "Invalid parameter"},
		{"missing type", `fragment "A" {
  param "p" {
  }
}`, "Missing required argument"},
		{"forward link", `graph "G" {
  node "a" {
    fragment = "A"
    input "x" {
      from = "b"
    }
  }
  node "b" {
    fragment = "B"
  }
}`, "Unknown node"},
		{"root", `graph "G" { roots = ["nope"] }`, "Unknown root"},
		{"stage", `graph "G" {
  node "a" {
    fragment = "A"
    stage    = "geometry"
  }
}`, "Invalid stage"},
		{"uniform kind", `declaration "D" {
  uniform "u" {
    type = "float"
    kind = "in"
  }
}`, "Invalid uniform"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := Parse([]byte(tt.src), "bad.hcl")
			if !diags.HasErrors() {
				t.Fatal("expected diagnostics")
			}
			if !strings.Contains(diags.Error(), tt.want) {
				t.Errorf("diagnostics %q do not mention %q", diags.Error(), tt.want)
			}
		})
	}
}

func TestLoadGlob(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/defs/fragments.hcl":    fragmentsSrc,
		"/defs/graphs/tint.hcl":  graphSrc,
		"/defs/graphs/notes.txt": "not hcl",
	}
	for name, src := range files {
		if err := afero.WriteFile(fs, name, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	f, err := LoadGlob(fs, "/defs/**/*.hcl")
	if err != nil {
		t.Fatalf("LoadGlob: %v", err)
	}
	if len(f.Fragments) != 3 || len(f.Graphs) != 1 {
		t.Errorf("got %d fragments and %d graphs", len(f.Fragments), len(f.Graphs))
	}
	if diff := cmp.Diff([]string{"Tinted"}, f.GraphNames()); diff != "" {
		t.Errorf("GraphNames (-want +got):\n%s", diff)
	}

	if _, err := LoadGlob(fs, "/missing/*.hcl"); err == nil {
		t.Error("LoadGlob succeeded without matches")
	}
}

func TestLoadGlob_DuplicateGraph(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/a.hcl", []byte(graphSrc), 0o644)
	_ = afero.WriteFile(fs, "/b.hcl", []byte(graphSrc), 0o644)
	if _, err := LoadGlob(fs, "/*.hcl"); err == nil || !strings.Contains(err.Error(), `duplicate graph "Tinted"`) {
		t.Errorf("got %v, want a duplicate graph error", err)
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/f.hcl", []byte(fragmentsSrc), 0o644)
	f, err := Load(fs, "/f.hcl")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(f.Fragments) != 3 {
		t.Errorf("got %d fragments", len(f.Fragments))
	}
	if _, err := Load(fs, "/nope.hcl"); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}

func TestMacros(t *testing.T) {
	v := cty.ObjectVal(map[string]cty.Value{
		"B": cty.False,
		"A": cty.NumberIntVal(3),
		"C": cty.NullVal(cty.String),
	})
	got, err := Macros(v)
	if err != nil {
		t.Fatalf("Macros: %v", err)
	}
	want := shader.MacroSet{{Name: "A", Value: "3"}, {Name: "B", Value: "0"}, {Name: "C"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Macros (-want +got):\n%s", diff)
	}

	if _, err := Macros(cty.StringVal("FOG")); err == nil {
		t.Error("Macros accepted a string")
	}
	if _, err := Macros(cty.ObjectVal(map[string]cty.Value{"L": cty.ListValEmpty(cty.String)})); err == nil {
		t.Error("Macros accepted a list value")
	}
}
