// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/gogpu/shadergraph"
	"github.com/gogpu/shadergraph/builder"
	"github.com/gogpu/shadergraph/graph"
)

// InspectCommand prints the analysis of graphs as a tree: the nodes each
// shader emits, the dead nodes and the cross-stage slots.
type InspectCommand struct {
	*Meta
}

func (c *InspectCommand) Help() string {
	return strings.TrimSpace(`
Usage: shadergraphc inspect [options] [graph...]

  Analyzes the named graphs, or every graph when none is named, and prints
  where each node is emitted. Nodes are listed in emission order with their
  resolved stage and group. Flags mark roots, nodes moved into the vertex
  shader and nodes duplicated into the pixel shader.

Options:

  -config=path       Configuration file.

  -fragments=glob    Fragment and graph files to load.

  -log-level=level   trace, debug, info, warn or error.
`)
}

func (c *InspectCommand) Synopsis() string {
	return "Show how graphs are split into shader stages"
}

func (c *InspectCommand) Run(args []string) int {
	f := c.flagSet("inspect")
	if err := f.Parse(args); err != nil {
		return c.usageError(err, c.Help())
	}
	w, err := c.load()
	if err != nil {
		return c.fail(err)
	}
	graphs, err := w.graphs(f.Args())
	if err != nil {
		return c.fail(err)
	}

	status := 0
	for _, g := range graphs {
		tree, err := inspect(w, g)
		if err != nil {
			c.Ui.Error(err.Error())
			status = 1
			continue
		}
		c.Ui.Output(strings.TrimRight(tree, "\n"))
	}
	return status
}

func inspect(w *workspace, g *graph.Graph) (string, error) {
	stages, err := shadergraph.Stages(w.repo, g)
	if err != nil {
		return "", err
	}
	a, err := builder.Analyze(w.repo, g, stages[len(stages)-1])
	if err != nil {
		return "", &shadergraph.CompileError{Shader: g.Name, Stage: stages[len(stages)-1], Err: err}
	}

	tree := treeprint.NewWithRoot(g.Name)
	for _, st := range stages {
		branch := tree.AddMetaBranch(len(a.Emitted(st)), st.String())
		for _, wd := range a.Emitted(st) {
			branch.AddMetaNode(nodeFlags(wd, st), g.Node(wd.Node).Name())
		}
	}

	var dead []string
	for i := range a.Work {
		if !a.Work[i].Alive {
			dead = append(dead, g.Node(a.Work[i].Node).Name())
		}
	}
	if len(dead) > 0 {
		branch := tree.AddMetaBranch(len(dead), "dead")
		for _, name := range dead {
			branch.AddNode(name)
		}
	}

	if len(a.Slots) > 0 {
		branch := tree.AddMetaBranch(len(a.Slots), "slots")
		for _, s := range a.Slots {
			branch.AddMetaNode(s.Type, fmt.Sprintf("%s : %s <- %s[%d]", s.Field, s.Semantic, g.Node(s.Node).Name(), s.Output))
		}
	}
	if a.GroupShim {
		tree.AddNode("group shim")
	}
	return tree.String(), nil
}

func nodeFlags(wd *builder.WorkingData, st graph.ShaderType) string {
	flags := []string{wd.Stage.String(), fmt.Sprintf("group %d", wd.Group)}
	if wd.Root {
		flags = append(flags, "root")
	}
	if wd.Moved {
		flags = append(flags, "moved")
	}
	if wd.AnyShader && st == graph.ShaderPixel {
		flags = append(flags, "duplicated")
	}
	return strings.Join(flags, " ")
}
