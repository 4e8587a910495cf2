// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package cache stores compiled shader bytecode keyed by the content hash
// of its source.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/afero"
)

// Store is a content-addressed bytecode store. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the data stored under key. A missing entry is not an
	// error.
	Get(key digest.Digest) (data []byte, ok bool, err error)

	// Put stores data under key, replacing any previous entry.
	Put(key digest.Digest, data []byte) error
}

// FSStore keeps one file per entry below a root directory of an afero
// filesystem, sharded by the first two hex digits of the key.
type FSStore struct {
	fs   afero.Fs
	root string
}

// NewFSStore creates a store rooted at dir.
func NewFSStore(fs afero.Fs, dir string) *FSStore {
	return &FSStore{fs: fs, root: dir}
}

// NewMemStore creates a store backed by memory, for tests and tools.
func NewMemStore() *FSStore {
	return NewFSStore(afero.NewMemMapFs(), "/")
}

func (s *FSStore) path(key digest.Digest) (string, error) {
	if err := key.Validate(); err != nil {
		return "", fmt.Errorf("cache key %q: %w", key, err)
	}
	enc := key.Encoded()
	return path.Join(s.root, key.Algorithm().String(), enc[:2], enc), nil
}

// Get implements Store.
func (s *FSStore) Get(key digest.Digest) ([]byte, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := afero.ReadFile(s.fs, p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	return data, true, nil
}

// Put implements Store. The entry is written to a temporary file and
// renamed into place, so readers never see a partial entry.
func (s *FSStore) Put(key digest.Digest, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	dir := path.Dir(p)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	f, err := afero.TempFile(s.fs, dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache entry: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := s.fs.Rename(tmp, p); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("commit cache entry: %w", err)
	}
	return nil
}
