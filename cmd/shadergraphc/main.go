// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command shadergraphc compiles effect graphs defined in HCL files into
// shader source.
//
// Usage:
//
//	shadergraphc <command> [options] [graph...]
//
// Examples:
//
//	shadergraphc compile -o build Unlit          # Write Unlit.vertex.hlsl and Unlit.pixel.hlsl
//	shadergraphc compile -target glsl -D FOG=1   # Compile every graph for Vulkan
//	shadergraphc inspect Unlit                   # Show where each node runs
//	shadergraphc layout Unlit                    # Show the uniform layouts
package main

import (
	"os"

	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
)

const shadergraphcVersion = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:], &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}, afero.NewOsFs()))
}

func run(args []string, ui cli.Ui, fs afero.Fs) int {
	meta := &Meta{Ui: ui, FS: fs}

	c := cli.NewCLI("shadergraphc", shadergraphcVersion)
	c.Args = args
	c.Commands = map[string]cli.CommandFactory{
		"compile": func() (cli.Command, error) {
			return &CompileCommand{Meta: meta}, nil
		},
		"inspect": func() (cli.Command, error) {
			return &InspectCommand{Meta: meta}, nil
		},
		"layout": func() (cli.Command, error) {
			return &LayoutCommand{Meta: meta}, nil
		},
		"version": func() (cli.Command, error) {
			return &VersionCommand{Meta: meta}, nil
		},
	}

	status, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	return status
}
