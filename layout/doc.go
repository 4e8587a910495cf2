// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package layout assigns byte offsets to uniform values.
//
// Object-rate uniforms are packed into one shared buffer with Pack: entries
// are sorted by descending size (greedy best fit) and placed back to back,
// so a float4x4 followed by a float yields offsets 0 and 64 and a stride of
// 80 bytes. Pass and pipeline uniforms live in constant blocks and use
// Sequential, which keeps declaration order and the 16-byte register rule.
//
// Both functions are pure: the same entries in the same order always produce
// the same offsets.
package layout
