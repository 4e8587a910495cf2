// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/gogpu/shadergraph/dialect"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/shader"
)

// CompileCommand writes the generated source of graphs to files.
type CompileCommand struct {
	*Meta

	stage  string
	outDir string
}

func (c *CompileCommand) Help() string {
	return strings.TrimSpace(`
Usage: shadergraphc compile [options] [graph...]

  Compiles the named graphs, or every graph when none is named, and writes
  one source file per shader stage. Each written file is printed with its
  content hash.

Options:

  -config=path       Configuration file. Defaults to shadergraph.hcl when
                     present.

  -fragments=glob    Fragment and graph files to load, e.g. "defs/**/*.hcl".

  -target=name       Output dialect: hlsl, pssl, glsl or null. The null
                     target writes no files.

  -stage=name        Compile only this stage: vertex, pixel or compute.

  -o=dir             Output directory. Defaults to the current directory.

  -D NAME[=VALUE]    Define a macro. May be repeated.

  -log-level=level   trace, debug, info, warn or error.
`)
}

func (c *CompileCommand) Synopsis() string {
	return "Compile graphs to shader source"
}

func (c *CompileCommand) Run(args []string) int {
	f := c.flagSet("compile")
	f.StringVar(&c.stage, "stage", "", "")
	f.StringVar(&c.outDir, "o", ".", "")
	if err := f.Parse(args); err != nil {
		return c.usageError(err, c.Help())
	}

	var only graph.ShaderType
	if c.stage != "" {
		st, ok := graph.ParseShaderType(c.stage)
		if !ok {
			return c.fail(fmt.Errorf("unknown stage %q", c.stage))
		}
		only = st
	}

	w, err := c.load()
	if err != nil {
		return c.fail(err)
	}
	graphs, err := w.graphs(f.Args())
	if err != nil {
		return c.fail(err)
	}
	s, done, err := w.session(c.FS)
	if err != nil {
		return c.fail(err)
	}
	defer done()

	ctx := context.Background()
	status := 0
	for _, g := range graphs {
		macros := c.graphMacros(w, g.Name)
		var sources []*shader.Source
		if c.stage != "" {
			var src *shader.Source
			src, err = s.Compile(ctx, g, only, macros)
			sources = []*shader.Source{src}
		} else {
			sources, err = s.CompileAll(ctx, g, macros)
		}
		if err != nil {
			c.Ui.Error(err.Error())
			status = 1
			continue
		}
		for _, src := range sources {
			if err := c.write(src); err != nil {
				c.Ui.Error(err.Error())
				status = 1
			}
		}
	}
	return status
}

func (c *CompileCommand) write(src *shader.Source) error {
	name := path.Join(c.outDir, src.FileName())
	if src.Target != dialect.TargetNull {
		if err := c.FS.MkdirAll(c.outDir, 0o755); err != nil {
			return err
		}
		if err := afero.WriteFile(c.FS, name, []byte(src.Text), 0o644); err != nil {
			return err
		}
	}
	c.Ui.Output(fmt.Sprintf("%s %s", name, src.Hash()))
	return nil
}
