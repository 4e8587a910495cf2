// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fragment

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mitchellh/copystructure"
)

// Library publishes the current Repository to concurrent builds and
// replaces it wholesale on reload.
type Library struct {
	current atomic.Pointer[Repository]

	// mu serializes writers; readers never block.
	mu sync.Mutex
}

// NewLibrary creates a library serving repo.
func NewLibrary(repo *Repository) *Library {
	if repo == nil {
		repo = FromContents(Contents{})
	}
	l := &Library{}
	l.current.Store(repo)
	return l
}

// Snapshot returns the repository to use for one build.
func (l *Library) Snapshot() *Repository {
	return l.current.Load()
}

// Replace publishes repo and returns the previous repository.
func (l *Library) Replace(repo *Repository) *Repository {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current.Swap(repo)
}

// Update deep-copies the current contents, lets fn modify the copy and
// publishes the result. If fn fails nothing is published.
func (l *Library) Update(fn func(*Contents) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	copied, err := copystructure.Copy(l.current.Load().Contents())
	if err != nil {
		return fmt.Errorf("copy repository: %w", err)
	}
	contents, ok := copied.(Contents)
	if !ok {
		return fmt.Errorf("copy repository: unexpected %T", copied)
	}
	if contents.Fragments == nil {
		contents.Fragments = make(map[string]*Fragment)
	}
	if contents.Declarations == nil {
		contents.Declarations = make(map[string]*Declaration)
	}

	if err := fn(&contents); err != nil {
		return err
	}

	next := FromContents(contents)
	if err := next.CheckIncludes(); err != nil {
		return err
	}
	l.current.Store(next)
	return nil
}
