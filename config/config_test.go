// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package config

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/gogpu/shadergraph/dialect"
	"github.com/gogpu/shadergraph/shader"
)

const fullConfig = `
target                = "glsl"
shader_model          = "6.0"
log_level             = "debug"
max_identifier_length = 48
workgroup_size        = [64]
fragments             = "defs/**/*.hcl"
parallelism           = 4

macros = {
  SKINNED = true
  LIGHTS  = 4
}

cache {
  dir     = "/cache"
  workers = 3
}
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(fullConfig), "shadergraph.hcl")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Fragments != "defs/**/*.hcl" || c.Cache == nil || c.Cache.Dir != "/cache" || c.Cache.Workers != 3 {
		t.Errorf("decoded %+v", c)
	}

	opts, err := c.BuilderOptions()
	if err != nil {
		t.Fatalf("BuilderOptions: %v", err)
	}
	if opts.Target != dialect.TargetGLSL || opts.ShaderModel != dialect.ShaderModel6_0 {
		t.Errorf("target=%s shader model=%v", opts.Target, opts.ShaderModel)
	}
	if opts.MaxIdentifierLength != 48 {
		t.Errorf("MaxIdentifierLength = %d", opts.MaxIdentifierLength)
	}
	if opts.WorkgroupSize != [3]int{64, 1, 1} {
		t.Errorf("WorkgroupSize = %v", opts.WorkgroupSize)
	}
	want := shader.MacroSet{{Name: "LIGHTS", Value: "4"}, {Name: "SKINNED", Value: "1"}}
	if diff := cmp.Diff(want, opts.Macros); diff != "" {
		t.Errorf("macros (-want +got):\n%s", diff)
	}
}

func TestParse_Defaults(t *testing.T) {
	c, err := Parse([]byte(""), "empty.hcl")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(Default().Target, c.Target); diff != "" {
		t.Errorf("target (-want +got):\n%s", diff)
	}
	opts, err := c.BuilderOptions()
	if err != nil {
		t.Fatalf("BuilderOptions: %v", err)
	}
	if opts.Target != dialect.TargetHLSL || opts.WorkgroupSize != [3]int{8, 8, 1} || len(opts.Macros) != 0 {
		t.Errorf("default options = %+v", opts)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"target", `target = "metal"`, "unknown target"},
		{"level", `log_level = "loud"`, "unknown log level"},
		{"workgroup", `workgroup_size = [1, 2, 3, 4]`, "at most 3"},
		{"shader model", `shader_model = "9.9"`, "shader model"},
		{"macros", `macros = "FOG"`, "macros must be an object"},
		{"unknown", `colour = "red"`, "Unsupported argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want an error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestSessionOptions(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/shadergraph.hcl", []byte(fullConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(fs, "/shadergraph.hcl")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	opts, err := c.SessionOptions(fs, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("SessionOptions: %v", err)
	}
	if opts.Store == nil || opts.Writer == nil {
		t.Fatal("cache block did not configure a store and writer")
	}
	defer opts.Writer.Close()
	if opts.Parallelism != 4 {
		t.Errorf("Parallelism = %d", opts.Parallelism)
	}
	if c.Logger("test").GetLevel() != hclog.Debug {
		t.Errorf("logger level = %s", c.Logger("test").GetLevel())
	}
}
