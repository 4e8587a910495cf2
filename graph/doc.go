// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package graph defines the effect graph consumed by the code builder.
//
// A Graph is an arena: nodes are stored by value and addressed by NodeID,
// their index in Graph.Nodes. Links always point at nodes authored earlier,
// so the graph is acyclic by construction.
//
//	g := graph.New("Unlit")
//	c := g.AddNode("ConstColor")
//	o := g.AddNode("OutputColor", graph.WithStage(graph.StagePixelOutput))
//	g.Connect(c, 0, o, "color")
//	g.AddRoot(o)
package graph
