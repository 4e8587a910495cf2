// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fragfile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/hcl/v2"
	"github.com/spf13/afero"
)

// Load reads and parses one definition file.
func Load(fsys afero.Fs, name string) (*File, error) {
	src, err := afero.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	f, diags := Parse(src, name)
	if diags.HasErrors() {
		return nil, diags
	}
	return f, nil
}

// LoadGlob reads every file matching a doublestar pattern, e.g.
// "shaders/**/*.hcl", and merges them in lexical path order. Diagnostics
// of all files are reported together.
func LoadGlob(fsys afero.Fs, pattern string) (*File, error) {
	pattern = filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	base, _ := doublestar.SplitPattern(pattern)

	var matches []string
	err := afero.Walk(fsys, base, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ok, err := doublestar.Match(pattern, filepath.ToSlash(path))
		if err != nil {
			return err
		}
		if ok {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match %q", pattern)
	}

	out := &File{}
	var diags hcl.Diagnostics
	for _, name := range matches {
		src, err := afero.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		f, more := Parse(src, name)
		diags = append(diags, more...)
		if f != nil {
			out.Merge(f)
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}
	if err := out.CheckGraphs(); err != nil {
		return nil, err
	}
	return out, nil
}
