// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"fmt"
	"sort"

	"github.com/gogpu/shadergraph/fragment"
)

// Register sizes in bytes.
const (
	ScalarSize   = 4
	RegisterSize = 16
	MatrixSize   = 4 * RegisterSize
	SplineSize   = fragment.SplinePoints * RegisterSize
)

// Entry is one uniform value in a layout.
type Entry struct {
	Name string

	// Type is the authored type token.
	Type string

	Tag fragment.TypeTag

	// Macro is the guard the value was declared under, if any.
	Macro string

	// Offset and Size are in bytes.
	Offset int
	Size   int
}

// Layout is the memory layout of the uniforms of one rate.
type Layout struct {
	Rate    fragment.Rate
	Entries []Entry

	// Stride is the total byte size rounded up to a whole register.
	Stride int
}

// StrideInVec4 returns the stride in 16-byte registers.
func (l Layout) StrideInVec4() int {
	return l.Stride / RegisterSize
}

// Lookup returns the entry with the given name.
func (l Layout) Lookup(name string) (Entry, bool) {
	for _, e := range l.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Empty reports whether the layout has no entries.
func (l Layout) Empty() bool {
	return len(l.Entries) == 0
}

// NewEntry creates an unplaced entry for a uniform parameter.
func NewEntry(p fragment.Parameter) (Entry, error) {
	tag := p.Tag()
	size := PackedSize(tag)
	if size == 0 {
		return Entry{}, fmt.Errorf("uniform %q: type %q cannot be packed", p.Name, p.Type)
	}
	return Entry{
		Name:  p.Name,
		Type:  p.Type,
		Tag:   tag,
		Macro: p.Macro,
		Size:  size,
	}, nil
}

// PackedSize returns the slot size of a tag in packed storage: scalars take
// 4 bytes, vectors a whole register, matrices four registers and splines
// one register per control point. Resources return 0.
func PackedSize(tag fragment.TypeTag) int {
	switch tag {
	case fragment.TagBool, fragment.TagInt, fragment.TagUint, fragment.TagFloat:
		return ScalarSize
	case fragment.TagVector2, fragment.TagVector3, fragment.TagVector4:
		return RegisterSize
	case fragment.TagMatrix:
		return MatrixSize
	case fragment.TagSpline:
		return SplineSize
	default:
		return 0
	}
}

// Pack places entries in one shared buffer. Entries are stably sorted by
// descending size, so equal sizes keep their encounter order, and offsets
// accumulate from zero. The input slice is not modified.
func Pack(rate fragment.Rate, entries []Entry) Layout {
	placed := make([]Entry, len(entries))
	copy(placed, entries)
	sort.SliceStable(placed, func(i, j int) bool {
		return placed[i].Size > placed[j].Size
	})

	offset := 0
	for i := range placed {
		placed[i].Offset = offset
		offset += placed[i].Size
	}
	return Layout{Rate: rate, Entries: placed, Stride: roundUp(offset, RegisterSize)}
}

// Sequential places entries in declaration order using constant buffer
// rules: a value never straddles a 16-byte register, and matrices and
// splines start on a register boundary.
func Sequential(rate fragment.Rate, entries []Entry) Layout {
	placed := make([]Entry, len(entries))
	copy(placed, entries)

	offset := 0
	for i := range placed {
		e := &placed[i]
		size := sequentialSize(e.Tag)
		if size == 0 {
			size = e.Size
		}
		if size >= RegisterSize || offset%RegisterSize+size > RegisterSize {
			offset = roundUp(offset, RegisterSize)
		}
		e.Offset = offset
		e.Size = size
		offset += size
	}
	return Layout{Rate: rate, Entries: placed, Stride: roundUp(offset, RegisterSize)}
}

func sequentialSize(tag fragment.TypeTag) int {
	if n := tag.Components(); n > 0 {
		return n * ScalarSize
	}
	return PackedSize(tag)
}

// Element returns the register index and component of a byte offset.
func Element(offset int) (register, component int) {
	return offset / RegisterSize, (offset % RegisterSize) / ScalarSize
}

// Swizzle returns the component selector of an entry within its first
// register, e.g. ".y" for a float at byte 4 or ".xyz" for a float3.
// Matrices and splines span whole registers and return "".
func Swizzle(e Entry) string {
	n := e.Tag.Components()
	if n == 0 {
		return ""
	}
	if e.Tag.IsVector() && e.Size == RegisterSize && n == 4 {
		return ""
	}
	_, c := Element(e.Offset)
	const comps = "xyzw"
	if c+n > len(comps) {
		return ""
	}
	return "." + comps[c:c+n]
}

func roundUp(v, align int) int {
	return (v + align - 1) / align * align
}
