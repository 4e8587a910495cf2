// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package builder

import (
	"fmt"
	"strings"

	"github.com/gogpu/shadergraph/fragment"
)

// writer accumulates generated text.
type writer struct {
	out    strings.Builder
	indent int
}

// writeLine writes s as an indented line.
func (w *writer) writeLine(s string) {
	w.writeIndent()
	w.out.WriteString(s)
	w.out.WriteByte('\n')
}

// writeLinef writes a formatted indented line.
func (w *writer) writeLinef(format string, args ...any) {
	w.writeLine(fmt.Sprintf(format, args...))
}

// directive writes a preprocessor line at column zero.
func (w *writer) directive(s string) {
	w.out.WriteString(s)
	w.out.WriteByte('\n')
}

func (w *writer) directivef(format string, args ...any) {
	w.directive(fmt.Sprintf(format, args...))
}

// writeText writes multi-line source such as a fragment body, one line at a
// time. Preprocessor lines stay at column zero.
func (w *writer) writeText(text string) {
	text = strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n \t")
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			w.out.WriteByte('\n')
		case strings.HasPrefix(trimmed, "#"):
			w.directive(trimmed)
		default:
			w.writeLine(strings.TrimRight(line, " \t"))
		}
	}
}

func (w *writer) blank() {
	w.out.WriteByte('\n')
}

func (w *writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("    ")
	}
}

func (w *writer) pushIndent() {
	w.indent++
}

func (w *writer) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}

func (w *writer) String() string {
	return w.out.String()
}

// guard emits #ifdef/#ifndef/#else/#endif around runs of lines that share
// a macro. It is inactive, or has one macro active; switching to the
// negation of the active macro emits #else instead of closing the block.
type guard struct {
	w      *writer
	active string
}

// Begin makes macro the active guard. The empty macro closes any open block.
func (g *guard) Begin(macro string) {
	if macro == g.active {
		return
	}
	if g.active != "" && macro != "" && negates(g.active, macro) {
		g.w.directive("#else")
		g.active = macro
		return
	}
	g.End()
	if macro == "" {
		return
	}
	name, negated := fragment.MacroName(macro)
	if negated {
		g.w.directivef("#ifndef %s", name)
	} else {
		g.w.directivef("#ifdef %s", name)
	}
	g.active = macro
}

// End closes the open block, if any.
func (g *guard) End() {
	if g.active != "" {
		g.w.directive("#endif")
		g.active = ""
	}
}

func negates(a, b string) bool {
	an, aneg := fragment.MacroName(a)
	bn, bneg := fragment.MacroName(b)
	return an == bn && aneg != bneg
}
