// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package builder

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
)

// SlotKey identifies a value crossing from the vertex to the pixel shader.
type SlotKey struct {
	Node   graph.NodeID
	Output int
}

// Slot is a synthesized interpolator carrying one vertex output slot to
// the pixel shader.
type Slot struct {
	SlotKey

	// Type is the type token of the producing output.
	Type string

	// Macro guards the slot when the producing output is guarded.
	Macro string

	// Field is the output struct field and pixel input name.
	Field string

	// Semantic is derived from a hash of the producing fragment and output
	// names, which keeps it short whatever the names are.
	Semantic string

	// Local is set for extension-point slots: the local semantic the pixel
	// shader seeds from the slot.
	Local string
}

// findCrossStageConnections registers one slot per (producer, output) pair
// read in the pixel shader from a vertex node that is not duplicated there.
// Repeated reads of the same pair share the slot. Extension-point writers
// reached through a stage link get a slot per local output the reader
// consumes.
func (a *Analysis) findCrossStageConnections() error {
	a.Slots = nil
	a.slotIndex = make(map[SlotKey]int)
	if a.Compute {
		return nil
	}

	for i := range a.Work {
		c := &a.Work[i]
		if !c.EmittedIn(graph.ShaderPixel) {
			continue
		}
		n := a.Graph.Node(c.Node)
		for _, l := range n.Inputs {
			p := &a.Work[a.pos[l.Source]]
			if !a.crosses(p) {
				continue
			}
			a.addSlot(p, l.Output, "")
		}
		if err := a.linkExtension(c, graph.ShaderPixel); err != nil {
			return err
		}
	}
	for i := range a.Work {
		c := &a.Work[i]
		if c.EmittedIn(graph.ShaderVertex) {
			if err := a.linkExtension(c, graph.ShaderVertex); err != nil {
				return err
			}
		}
	}

	sort.Slice(a.Slots, func(i, j int) bool {
		if a.Slots[i].Node != a.Slots[j].Node {
			return a.Slots[i].Node < a.Slots[j].Node
		}
		return a.Slots[i].Output < a.Slots[j].Output
	})
	for i := range a.Slots {
		a.slotIndex[a.Slots[i].SlotKey] = i
	}
	return nil
}

func (a *Analysis) addSlot(p *WorkingData, output int, local string) {
	key := SlotKey{Node: p.Node, Output: output}
	if _, ok := a.slotIndex[key]; ok {
		return
	}
	out, _ := p.Fragment.Output(output)
	a.slotIndex[key] = len(a.Slots)
	a.Slots = append(a.Slots, Slot{
		SlotKey:  key,
		Type:     out.Type,
		Macro:    out.Macro,
		Field:    fmt.Sprintf("xs_%d_%d", key.Node, key.Output),
		Semantic: slotSemantic(p.Fragment.Name, out.Name, key.Node),
		Local:    local,
	})
}

// linkExtension binds the local inputs of an extension-point reader emitted
// in stage s to the writers it is stage-linked to. A writer left in the
// vertex shader hands its value over through a slot; a reader input that no
// linked writer provides is an error.
func (a *Analysis) linkExtension(c *WorkingData, s graph.ShaderType) error {
	if c.Fragment.Role != fragment.RoleExtensionRead {
		return nil
	}
	n := a.Graph.Node(c.Node)
	for _, in := range c.Fragment.Params {
		if in.Kind.IsOutput() || !isLocalSemantic(in.Semantic) || linked(n, in.Name) {
			continue
		}
		sem := fragment.CanonicalSemantic(in.Semantic)
		found := false
		for _, src := range n.StageLinks {
			p := &a.Work[a.pos[src]]
			if p.Fragment.Role != fragment.RoleExtensionWrite {
				continue
			}
			for k, out := range p.Fragment.Outputs() {
				if !isLocalSemantic(out.Semantic) || fragment.CanonicalSemantic(out.Semantic) != sem {
					continue
				}
				if !sameType(out.Type, in.Type) {
					return errorf(ErrSemanticConflict, n.Name(), "local %q is %s here but %s in %s",
						sem, in.Type, out.Type, a.Graph.Node(src).Name())
				}
				switch {
				case p.EmittedIn(s):
					found = true
				case s == graph.ShaderPixel && a.crosses(p):
					a.addSlot(p, k, sem)
					found = true
				}
			}
		}
		if !found {
			return errorf(ErrGraphStructure, n.Name(),
				"extension point %s has no stage-linked writer in the %s shader", sem, s)
		}
	}
	return nil
}

func isLocalSemantic(sem string) bool {
	return sem != "" && !fragment.IsMachineSemantic(sem)
}

// crosses reports whether a producer's values reach the pixel shader
// through a slot.
func (a *Analysis) crosses(p *WorkingData) bool {
	return p.Alive && p.Stage.Shader() == graph.ShaderVertex && !p.AnyShader
}

// Slot returns the slot of a key.
func (a *Analysis) Slot(key SlotKey) (Slot, bool) {
	i, ok := a.slotIndex[key]
	if !ok {
		return Slot{}, false
	}
	return a.Slots[i], true
}

func slotSemantic(fragmentName, output string, node graph.NodeID) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fragmentName + ":" + output))
	return fmt.Sprintf("XS%08X_%d", h.Sum32(), node)
}
