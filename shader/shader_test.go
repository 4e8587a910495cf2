// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/shadergraph/dialect"
	"github.com/gogpu/shadergraph/graph"
)

func TestMacroSet_Active(t *testing.T) {
	s := MacroSet{{Name: "FOG", Value: "1"}}
	tests := []struct {
		guard string
		want  bool
	}{
		{"", true},
		{"FOG", true},
		{"!FOG", false},
		{"SKINNED", false},
		{"!SKINNED", true},
	}
	for _, tt := range tests {
		if got := s.Active(tt.guard); got != tt.want {
			t.Errorf("Active(%q) = %v, want %v", tt.guard, got, tt.want)
		}
	}
}

func TestMacroSet_With(t *testing.T) {
	s := MacroSet{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}}
	got := s.With("A", "3").With("C", "4")
	want := MacroSet{{Name: "A", Value: "3"}, {Name: "B", Value: "2"}, {Name: "C", Value: "4"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("With mismatch (-want +got):\n%s", diff)
	}
	if v, _ := s.Get("A"); v != "1" {
		t.Error("With modified the receiver")
	}
}

func TestSource_Hash(t *testing.T) {
	base := Source{
		Name:   "Unlit",
		Text:   "float4 main() : SV_Target0 { return 1; }\n",
		Macros: MacroSet{{Name: "FOG", Value: "1"}},
		Stage:  graph.ShaderPixel,
		Target: dialect.TargetHLSL,
	}

	same := base
	same.Name = "Renamed"
	if base.Hash() != same.Hash() {
		t.Error("hash should depend on content only")
	}

	variants := map[string]func(*Source){
		"text":   func(s *Source) { s.Text += " " },
		"macro":  func(s *Source) { s.Macros = MacroSet{{Name: "FOG", Value: "2"}} },
		"stage":  func(s *Source) { s.Stage = graph.ShaderVertex },
		"target": func(s *Source) { s.Target = dialect.TargetGLSL },
	}
	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			v := base
			mutate(&v)
			if v.Hash() == base.Hash() {
				t.Errorf("changing %s should change the hash", name)
			}
		})
	}

	if err := base.Hash().Validate(); err != nil {
		t.Errorf("invalid digest: %v", err)
	}
}

func TestSource_FileName(t *testing.T) {
	s := Source{Name: "Unlit", Stage: graph.ShaderPixel, Target: dialect.TargetGLSL}
	if got := s.FileName(); got != "Unlit.pixel.frag" {
		t.Errorf("FileName() = %q", got)
	}
}
