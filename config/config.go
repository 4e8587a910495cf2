// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package config loads the HCL configuration of the shadergraphc tool and
// turns it into session options.
package config

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"

	"github.com/gogpu/shadergraph"
	"github.com/gogpu/shadergraph/builder"
	"github.com/gogpu/shadergraph/cache"
	"github.com/gogpu/shadergraph/dialect"
	"github.com/gogpu/shadergraph/fragfile"
)

// Config is the decoded configuration file.
//
//	target                = "glsl"
//	shader_model          = "6.0"
//	log_level             = "debug"
//	max_identifier_length = 64
//	workgroup_size        = [64, 1, 1]
//	fragments             = "shaders/**/*.hcl"
//	macros = {
//	  FOG = true
//	}
//	cache {
//	  dir     = ".shadercache"
//	  workers = 4
//	  queue   = 128
//	}
type Config struct {
	Target              string    `hcl:"target,optional"`
	ShaderModel         string    `hcl:"shader_model,optional"`
	LogLevel            string    `hcl:"log_level,optional"`
	MaxIdentifierLength int       `hcl:"max_identifier_length,optional"`
	WorkgroupSize       []int     `hcl:"workgroup_size,optional"`
	Fragments           string    `hcl:"fragments,optional"`
	Macros              cty.Value `hcl:"macros,optional"`
	Parallelism         int       `hcl:"parallelism,optional"`

	Cache *Cache `hcl:"cache,block"`
}

// Cache configures the on-disk bytecode cache.
type Cache struct {
	Dir     string `hcl:"dir"`
	Workers int    `hcl:"workers,optional"`
	Queue   int    `hcl:"queue,optional"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Target:    "hlsl",
		LogLevel:  "warn",
		Fragments: "fragments/**/*.hcl",
	}
}

// Load reads a configuration file. Unset fields keep their defaults.
func Load(fsys afero.Fs, name string) (*Config, error) {
	src, err := afero.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	return Parse(src, name)
}

// Parse decodes configuration source. The file name selects the syntax:
// ".hcl" for native syntax and ".json" for JSON.
func Parse(src []byte, filename string) (*Config, error) {
	c := Default()
	if err := hclsimple.Decode(filename, src, nil, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return c, nil
}

// Validate checks values that HCL decoding cannot.
func (c *Config) Validate() error {
	if _, err := dialect.ParseTarget(c.Target); err != nil {
		return err
	}
	if c.ShaderModel != "" {
		if _, err := dialect.ParseShaderModel(c.ShaderModel); err != nil {
			return err
		}
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if len(c.WorkgroupSize) > 3 {
		return fmt.Errorf("workgroup_size has %d dimensions, at most 3 are allowed", len(c.WorkgroupSize))
	}
	if c.MaxIdentifierLength < 0 {
		return fmt.Errorf("max_identifier_length must not be negative")
	}
	if _, err := fragfile.Macros(c.Macros); err != nil {
		return err
	}
	return nil
}

// Logger creates the tool's logger at the configured level.
func (c *Config) Logger(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.LevelFromString(c.LogLevel),
	})
}

// BuilderOptions converts the configuration into build options.
func (c *Config) BuilderOptions() (builder.Options, error) {
	opts := builder.DefaultOptions()
	target, err := dialect.ParseTarget(c.Target)
	if err != nil {
		return opts, err
	}
	opts.Target = target
	if c.ShaderModel != "" {
		if opts.ShaderModel, err = dialect.ParseShaderModel(c.ShaderModel); err != nil {
			return opts, err
		}
	}
	opts.MaxIdentifierLength = c.MaxIdentifierLength
	if len(c.WorkgroupSize) > 0 {
		opts.WorkgroupSize = [3]int{1, 1, 1}
		copy(opts.WorkgroupSize[:], c.WorkgroupSize)
	}
	if opts.Macros, err = fragfile.Macros(c.Macros); err != nil {
		return opts, err
	}
	return opts, nil
}

// SessionOptions converts the configuration into session options. With a
// cache block the store lives below its directory on fsys.
func (c *Config) SessionOptions(fsys afero.Fs, log hclog.Logger) (shadergraph.SessionOptions, error) {
	opts := shadergraph.DefaultSessionOptions()
	b, err := c.BuilderOptions()
	if err != nil {
		return opts, err
	}
	opts.Builder = b
	opts.Logger = log
	if c.Parallelism > 0 {
		opts.Parallelism = c.Parallelism
	}
	if c.Cache != nil {
		store := cache.NewFSStore(fsys, c.Cache.Dir)
		wopts := cache.DefaultWriterOptions()
		if c.Cache.Workers > 0 {
			wopts.Workers = c.Cache.Workers
		}
		if c.Cache.Queue > 0 {
			wopts.Queue = c.Cache.Queue
		}
		wopts.Logger = log.Named("cache")
		opts.Store = store
		opts.Writer = cache.NewWriter(store, wopts)
	}
	return opts, nil
}
