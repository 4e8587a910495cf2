// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/gogpu/shadergraph/dialect"
	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/shader"
)

// LayoutCommand prints the uniform layouts of graphs.
type LayoutCommand struct {
	*Meta
}

func (c *LayoutCommand) Help() string {
	return strings.TrimSpace(`
Usage: shadergraphc layout [options] [graph...]

  Prints the uniform layout of every rate used by each shader of the named
  graphs, or of every graph when none is named. Offsets and sizes are in
  bytes; the stride is rounded up to whole 16-byte registers.

Options:

  -config=path       Configuration file.

  -fragments=glob    Fragment and graph files to load.

  -D NAME[=VALUE]    Define a macro. May be repeated. Guarded uniforms are
                     always packed and listed with their guard.

  -log-level=level   trace, debug, info, warn or error.
`)
}

func (c *LayoutCommand) Synopsis() string {
	return "Show the uniform layouts of graphs"
}

func (c *LayoutCommand) Run(args []string) int {
	f := c.flagSet("layout")
	if err := f.Parse(args); err != nil {
		return c.usageError(err, c.Help())
	}
	// Layouts do not depend on the dialect.
	c.target = dialect.TargetNull.String()

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

	status := 0
	for _, g := range graphs {
		sources, err := s.CompileAll(context.Background(), g, c.graphMacros(w, g.Name))
		if err != nil {
			c.Ui.Error(err.Error())
			status = 1
			continue
		}
		for _, src := range sources {
			c.Ui.Output(formatLayouts(src))
		}
	}
	return status
}

func formatLayouts(src *shader.Source) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", src.Name, src.Stage)
	empty := true
	for r := fragment.RatePass; r < fragment.RateCount; r++ {
		l := src.Layout(r)
		if l.Empty() {
			continue
		}
		empty = false
		fmt.Fprintf(&sb, "  %s (stride %d, %d registers)\n", r, l.Stride, l.StrideInVec4())
		tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
		for _, e := range l.Entries {
			name := e.Name
			if e.Macro != "" {
				name += " [" + e.Macro + "]"
			}
			fmt.Fprintf(tw, "    %s\t%s\t%d\t%d\n", name, e.Type, e.Offset, e.Size)
		}
		_ = tw.Flush()
	}
	if empty {
		sb.WriteString("  no uniforms\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
