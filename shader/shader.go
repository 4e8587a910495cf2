// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package shader defines the artifact produced by one build: the generated
// text together with everything needed to compile, cache and bind it.
package shader

import (
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/gogpu/shadergraph/dialect"
	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/layout"
)

// Macro is one preprocessor definition passed to the native compiler.
type Macro struct {
	Name  string
	Value string
}

// MacroSet is an ordered list of macros. The order is part of the content
// hash, so callers that build sets from maps should sort them first.
type MacroSet []Macro

// Get returns the value of a defined macro.
func (s MacroSet) Get(name string) (string, bool) {
	for _, m := range s {
		if m.Name == name {
			return m.Value, true
		}
	}
	return "", false
}

// Defined reports whether name is defined.
func (s MacroSet) Defined(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Active reports whether a guard is satisfied: "NAME" when NAME is defined
// and "!NAME" when it is not. The empty guard is always active.
func (s MacroSet) Active(guard string) bool {
	if guard == "" {
		return true
	}
	name, negated := fragment.MacroName(guard)
	return s.Defined(name) != negated
}

// With returns a copy of s with name set to value. An existing definition
// keeps its position.
func (s MacroSet) With(name, value string) MacroSet {
	out := make(MacroSet, len(s), len(s)+1)
	copy(out, s)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Macro{Name: name, Value: value})
}

// Source is the generated source of one shader stage. It is immutable once
// returned by the builder.
type Source struct {
	// Name is the graph name.
	Name string

	Text   string
	Macros MacroSet
	Stage  graph.ShaderType
	Target dialect.Target

	// EntryPoint and Profile are passed to the native compiler.
	EntryPoint string
	Profile    string

	// Layouts holds the uniform layout of each rate, indexed by fragment.Rate.
	Layouts [fragment.RateCount]layout.Layout
}

// Layout returns the layout of a rate.
func (s *Source) Layout(r fragment.Rate) layout.Layout {
	return s.Layouts[r]
}

// Hash returns the content hash of the text, macros, stage and target.
// Identical inputs always hash identically, so the digest serves as a
// bytecode cache key.
func (s *Source) Hash() digest.Digest {
	d := digest.Canonical.Digester()
	h := d.Hash()
	fmt.Fprintf(h, "%s\x00%s\x00", s.Stage, s.Target)
	for _, m := range s.Macros {
		fmt.Fprintf(h, "%s=%s\x00", m.Name, m.Value)
	}
	_, _ = io.WriteString(h, "\x00")
	_, _ = io.WriteString(h, s.Text)
	return d.Digest()
}

// FileName returns "<name>.<stage><ext>", e.g. "Unlit.pixel.hlsl".
func (s *Source) FileName() string {
	return s.Name + "." + s.Stage.String() + s.Target.Extension(s.Stage)
}
