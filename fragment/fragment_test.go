// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fragment

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseTypeTag(t *testing.T) {
	tests := []struct {
		token string
		want  TypeTag
	}{
		{"bool", TagBool},
		{"int", TagInt},
		{"uint", TagUint},
		{"float", TagFloat},
		{"half", TagFloat},
		{"float1", TagFloat},
		{"float2", TagVector2},
		{"int3", TagVector3},
		{"uint4", TagVector4},
		{"float4x4", TagMatrix},
		{"float3x3", TagMatrix},
		{"spline", TagSpline},
		{"Texture2D", TagTexture},
		{"texture2D", TagTexture},
		{"TextureCube", TagTexture},
		{"SamplerState", TagSampler},
		{"sampler", TagSampler},
		{"GroundLayer", TagUnknown},
		{"float5", TagUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := ParseTypeTag(tt.token); got != tt.want {
				t.Errorf("ParseTypeTag(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestTypeTag_Components(t *testing.T) {
	if got := TagVector3.Components(); got != 3 {
		t.Errorf("TagVector3.Components() = %d, want 3", got)
	}
	if got := TagMatrix.Components(); got != 0 {
		t.Errorf("TagMatrix.Components() = %d, want 0", got)
	}
	if !TagTexture.IsResource() || TagFloat.IsResource() {
		t.Error("IsResource mismatch")
	}
}

func TestIsMachineSemantic(t *testing.T) {
	tests := []struct {
		semantic string
		want     bool
	}{
		{"POSITION", true},
		{"SV_POSITION", true},
		{"sv_position", true},
		{"COLOR", true},
		{"COLOR1", true},
		{"TEXCOORD7", true},
		{"NORMAL", true},
		{"PIXEL_RETURN_SEMANTIC", true},
		{"SV_InstanceID", true},
		{"world_normal", false},
		{"TEXCOORDS", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.semantic, func(t *testing.T) {
			if got := IsMachineSemantic(tt.semantic); got != tt.want {
				t.Errorf("IsMachineSemantic(%q) = %v, want %v", tt.semantic, got, tt.want)
			}
		})
	}
}

func TestCanonicalSemantic(t *testing.T) {
	if CanonicalSemantic("SV_POSITION") != CanonicalSemantic("POSITION") {
		t.Error("SV_POSITION and POSITION should share a slot")
	}
	if got := CanonicalSemantic("texcoord0"); got != "TEXCOORD0" {
		t.Errorf("CanonicalSemantic(texcoord0) = %q", got)
	}
	if got := CanonicalSemantic("roughness"); got != "roughness" {
		t.Errorf("local semantics must be kept verbatim, got %q", got)
	}

	// A missing index is slot 0.
	same := [][2]string{
		{"TEXCOORD", "TEXCOORD0"},
		{"color", "COLOR0"},
		{"Normal", "normal0"},
		{"SV_Target", "SV_TARGET0"},
		{"POSITION0", "SV_Position"},
	}
	for _, pair := range same {
		if a, b := CanonicalSemantic(pair[0]), CanonicalSemantic(pair[1]); a != b {
			t.Errorf("CanonicalSemantic(%q) = %q, CanonicalSemantic(%q) = %q, want one key", pair[0], a, pair[1], b)
		}
	}
	if CanonicalSemantic("TEXCOORD") == CanonicalSemantic("TEXCOORD1") {
		t.Error("TEXCOORD and TEXCOORD1 are different slots")
	}
}

func TestFragment_Outputs(t *testing.T) {
	f := &Fragment{
		Name: "Split",
		Params: []Parameter{
			{Name: "in_color", Type: "float4", Kind: ParamIn},
			{Name: "rgb", Type: "float3", Kind: ParamOut},
			{Name: "time", Type: "float", Kind: ParamUniform},
			{Name: "alpha", Type: "float", Kind: ParamInOut},
		},
	}

	outs := f.Outputs()
	if len(outs) != 2 || outs[0].Name != "rgb" || outs[1].Name != "alpha" {
		t.Fatalf("Outputs() = %+v", outs)
	}
	if _, ok := f.Output(2); ok {
		t.Error("Output(2) should not exist")
	}
	if got := len(f.Uniforms()); got != 1 {
		t.Errorf("len(Uniforms()) = %d, want 1", got)
	}
}

func TestParameter_UniformRate(t *testing.T) {
	p := Parameter{Kind: ParamUniform, Rate: RatePass}
	if p.UniformRate() != RatePass {
		t.Error("uniform should keep its rate")
	}
	p = Parameter{Kind: ParamDynamic, Rate: RatePass}
	if p.UniformRate() != RateObject {
		t.Error("dynamic parameters live in object storage")
	}
}

func TestParseEnums(t *testing.T) {
	if k, ok := ParseParamKind("stage_in"); !ok || k != ParamStageIn {
		t.Errorf("ParseParamKind(stage_in) = %v, %v", k, ok)
	}
	if r, ok := ParseRate("object"); !ok || r != RateObject {
		t.Errorf("ParseRate(object) = %v, %v", r, ok)
	}
	if u, ok := ParseUsage("vertex_pixel"); !ok || u != UsageVertexPixel {
		t.Errorf("ParseUsage(vertex_pixel) = %v, %v", u, ok)
	}
	if r, ok := ParseRole("extension_write"); !ok || r != RoleExtensionWrite {
		t.Errorf("ParseRole(extension_write) = %v, %v", r, ok)
	}
	if _, ok := ParseRate("frame"); ok {
		t.Error("ParseRate should reject unknown names")
	}
}

func TestMacroName(t *testing.T) {
	name, neg := MacroName("!USE_FOG")
	if name != "USE_FOG" || !neg {
		t.Errorf("MacroName(!USE_FOG) = %q, %v", name, neg)
	}
	name, neg = MacroName("USE_FOG")
	if name != "USE_FOG" || neg {
		t.Errorf("MacroName(USE_FOG) = %q, %v", name, neg)
	}
}

func TestNewRepository_Duplicates(t *testing.T) {
	_, err := NewRepository(
		[]*Fragment{{Name: "A"}, {Name: "A"}, {Name: ""}},
		[]*Declaration{{Name: "D"}, {Name: "D"}},
	)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{`duplicate fragment "A"`, "empty name", `duplicate declaration "D"`} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should mention %q", msg, want)
		}
	}
}

func TestRepository_Lookup(t *testing.T) {
	repo, err := NewRepository([]*Fragment{{Name: "Tint"}}, []*Declaration{{Name: "Common"}})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := repo.Fragment("Tint"); err != nil {
		t.Errorf("Fragment(Tint) error: %v", err)
	}
	_, err = repo.Fragment("Missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.What != "fragment" || nf.Name != "Missing" {
		t.Errorf("Fragment(Missing) error = %v", err)
	}
	if !repo.HasDeclaration("Common") || repo.HasDeclaration("Other") {
		t.Error("HasDeclaration mismatch")
	}
}

func TestRepository_CheckIncludes(t *testing.T) {
	repo, err := NewRepository(
		[]*Fragment{{Name: "A", Includes: []string{"X"}}, {Name: "B", Includes: []string{"Y"}}},
		[]*Declaration{{Name: "X", Includes: []string{"Z"}}},
	)
	if err != nil {
		t.Fatal(err)
	}
	err = repo.CheckIncludes()
	if err == nil {
		t.Fatal("expected missing includes")
	}
	for _, want := range []string{`"Y"`, `"Z"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestLibrary_UpdateIsCopyOnWrite(t *testing.T) {
	tint := &Fragment{Name: "Tint", Body: "color *= tint;"}
	repo, err := NewRepository([]*Fragment{tint}, nil)
	if err != nil {
		t.Fatal(err)
	}
	lib := NewLibrary(repo)
	before := lib.Snapshot()

	err = lib.Update(func(c *Contents) error {
		c.Fragments["Tint"].Body = "color *= 2.0 * tint;"
		c.Fragments["Fog"] = &Fragment{Name: "Fog"}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	old, _ := before.Fragment("Tint")
	if old.Body != "color *= tint;" {
		t.Errorf("previous snapshot was mutated: %q", old.Body)
	}
	after := lib.Snapshot()
	got, _ := after.Fragment("Tint")
	if got.Body != "color *= 2.0 * tint;" {
		t.Errorf("updated body = %q", got.Body)
	}
	if diff := cmp.Diff([]string{"Fog", "Tint"}, after.FragmentNames()); diff != "" {
		t.Errorf("FragmentNames mismatch (-want +got):\n%s", diff)
	}
}

func TestLibrary_UpdateRejected(t *testing.T) {
	lib := NewLibrary(nil)
	before := lib.Snapshot()

	err := lib.Update(func(c *Contents) error {
		c.Fragments["Broken"] = &Fragment{Name: "Broken", Includes: []string{"Nope"}}
		return nil
	})
	if err == nil {
		t.Fatal("expected include error")
	}
	if lib.Snapshot() != before {
		t.Error("failed update must not publish")
	}
}

func TestLibrary_ConcurrentReaders(t *testing.T) {
	lib := NewLibrary(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = lib.Snapshot().FragmentNames()
			}
		}()
	}
	for i := 0; i < 10; i++ {
		_ = lib.Update(func(c *Contents) error {
			c.Fragments["F"] = &Fragment{Name: "F"}
			return nil
		})
	}
	wg.Wait()
}
