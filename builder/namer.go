// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package builder

import (
	"fmt"
	"strings"

	"github.com/gogpu/shadergraph/dialect"
	"github.com/gogpu/shadergraph/graph"
)

// namer generates identifiers for one build. Names are sanitized, escaped
// against the dialect's keywords and checked against its length limit.
// Comparison is case-insensitive because HLSL keywords partly are.
type namer struct {
	d   dialect.Dialect
	max int

	// usedNames is keyed by lowercase name.
	usedNames map[string]struct{}

	counter uint32
}

func newNamer(d dialect.Dialect, maxLen int) *namer {
	n := &namer{
		d:         d,
		max:       maxLen,
		usedNames: make(map[string]struct{}),
	}
	for _, name := range []string{
		dialect.OutputStruct,
		dialect.OutputVar,
		dialect.EntryPoint,
		dialect.UniformBuffer,
		dialect.InstanceIndex,
		dialect.InstanceCount,
		dialect.DrawConstants,
		dialect.CommaMacro,
		dialect.InstanceVarying,
		passBlock,
		pipelineBlock,
		groupLocal,
		groupArray,
		"Spline",
		objectOffset(graph.ShaderVertex),
		objectOffset(graph.ShaderPixel),
		objectOffset(graph.ShaderCompute),
	} {
		n.reserve(name)
	}
	return n
}

// call returns a unique identifier derived from base, adding a numeric
// suffix when base is taken.
func (n *namer) call(base string) (string, error) {
	escaped := dialect.Escape(n.d, sanitize(base))

	lower := strings.ToLower(escaped)
	if !n.isUsedLower(lower) {
		n.usedNames[lower] = struct{}{}
		return escaped, n.check(escaped)
	}
	for {
		n.counter++
		candidate := fmt.Sprintf("%s_%d", escaped, n.counter)
		lowerCandidate := strings.ToLower(candidate)
		if !n.isUsedLower(lowerCandidate) {
			n.usedNames[lowerCandidate] = struct{}{}
			return candidate, n.check(candidate)
		}
	}
}

// exact reserves a name that must not change, such as a field both stages
// agree on, and returns it sanitized. A name already in use is an error.
func (n *namer) exact(name string) (string, error) {
	s := sanitize(name)
	if n.isUsedLower(strings.ToLower(s)) {
		return s, errorf(ErrGraphStructure, "", "identifier %q is already in use", s)
	}
	n.reserve(s)
	return s, n.check(s)
}

// reserve marks a name as used without returning it.
func (n *namer) reserve(name string) {
	n.usedNames[strings.ToLower(name)] = struct{}{}
}

func (n *namer) isUsedLower(lowerName string) bool {
	_, used := n.usedNames[lowerName]
	return used
}

func (n *namer) check(name string) error {
	if n.max > 0 && len(name) > n.max {
		return errorf(ErrIdentifierOverflow, "", "identifier %q is %d characters, %s accepts at most %d",
			name, len(name), n.d.Target(), n.max)
	}
	return nil
}

// sanitize replaces every character that cannot appear in an identifier
// with '_' and prefixes names that start with a digit.
func sanitize(s string) string {
	if s == "" {
		return dialect.UnnamedIdentifier
	}
	var b strings.Builder
	b.Grow(len(s) + 1)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
			b.WriteByte(c)
		case c >= '0' && c <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
