// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package dialect

// RegisterType represents the HLSL register class of a resource.
type RegisterType uint8

const (
	// RegisterTypeB is for constant buffers.
	RegisterTypeB RegisterType = iota

	// RegisterTypeT is for textures and read-only buffers.
	RegisterTypeT

	// RegisterTypeS is for samplers.
	RegisterTypeS

	registerTypeCount
)

// String returns the single-character register prefix.
func (rt RegisterType) String() string {
	switch rt {
	case RegisterTypeT:
		return "t"
	case RegisterTypeS:
		return "s"
	default:
		return "b"
	}
}

// BindTarget is the binding of one resource. HLSL-like dialects use the
// register class and index; GLSL uses the flat binding number.
type BindTarget struct {
	Type RegisterType

	// Space is the register space, or descriptor set in GLSL.
	Space uint8

	// Register is the index within the register class.
	Register uint32

	// Binding is the index across all classes.
	Binding uint32
}

// Allocator hands out bind targets in allocation order.
type Allocator struct {
	space    uint8
	next     [registerTypeCount]uint32
	bindings uint32
}

// NewAllocator creates an allocator for one register space.
func NewAllocator(space uint8) *Allocator {
	return &Allocator{space: space}
}

// Next returns the next bind target of a register class.
func (a *Allocator) Next(rt RegisterType) BindTarget {
	bt := BindTarget{
		Type:     rt,
		Space:    a.space,
		Register: a.next[rt],
		Binding:  a.bindings,
	}
	a.next[rt]++
	a.bindings++
	return bt
}
