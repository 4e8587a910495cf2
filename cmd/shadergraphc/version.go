// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"runtime"
)

// VersionCommand prints the tool version.
type VersionCommand struct {
	*Meta
}

func (c *VersionCommand) Help() string {
	return "Usage: shadergraphc version\n\n  Prints the shadergraphc version."
}

func (c *VersionCommand) Synopsis() string {
	return "Print the shadergraphc version"
}

func (c *VersionCommand) Run(_ []string) int {
	c.Ui.Output(fmt.Sprintf("shadergraphc version %s (%s)", shadergraphcVersion, runtime.Version()))
	return 0
}
