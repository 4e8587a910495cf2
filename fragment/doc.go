// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package fragment holds the immutable building blocks of an effect graph:
// named shader fragments with typed parameters, and named declarations that
// share uniform blocks and helper snippets between fragments.
//
// Fragments are plain data. Only a small fixed set of roles (input, output,
// extension-point read and write) receive bespoke code generation; every
// other fragment is handled entirely by its parameter list and body text.
//
// # Sharing
//
// A Repository never changes after construction and may be read by any
// number of concurrent builds. Hot reload goes through a Library, which swaps
// in a whole new Repository:
//
//	lib := fragment.NewLibrary(repo)
//	err := lib.Update(func(c *fragment.Contents) error {
//	    c.Fragments["Tint"] = tint
//	    return nil
//	})
//
// Builds that already hold the previous snapshot keep using it unchanged.
package fragment
