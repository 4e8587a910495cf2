// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package cache

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/opencontainers/go-digest"
	"github.com/spf13/afero"
)

func TestFSStore_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewFSStore(fs, "/cache")
	key := digest.FromString("ShaderOutput main()")

	if _, ok, err := s.Get(key); err != nil || ok {
		t.Fatalf("Get before Put = ok %v, err %v", ok, err)
	}
	if err := s.Put(key, []byte{1, 2, 3}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, ok, err := s.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get = ok %v, err %v", ok, err)
	}
	if !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Errorf("Get = %v, want [1 2 3]", data)
	}

	enc := key.Encoded()
	want := "/cache/sha256/" + enc[:2] + "/" + enc
	if exists, _ := afero.Exists(fs, want); !exists {
		t.Errorf("entry not stored at %s", want)
	}
}

func TestFSStore_InvalidKey(t *testing.T) {
	s := NewMemStore()
	if err := s.Put(digest.Digest("nope"), nil); err == nil {
		t.Error("Put accepted an invalid key")
	}
}

// countingStore records every Put.
type countingStore struct {
	mu   sync.Mutex
	puts map[digest.Digest][][]byte
	fail bool
}

func (s *countingStore) Get(digest.Digest) ([]byte, bool, error) { return nil, false, nil }

func (s *countingStore) Put(key digest.Digest, data []byte) error {
	if s.fail {
		return errors.New("disk full")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.puts == nil {
		s.puts = make(map[digest.Digest][][]byte)
	}
	s.puts[key] = append(s.puts[key], data)
	return nil
}

func TestWriter_FlushesOnClose(t *testing.T) {
	store := NewMemStore()
	w := NewWriter(store, DefaultWriterOptions())

	keys := []digest.Digest{
		digest.FromString("a"),
		digest.FromString("b"),
		digest.FromString("c"),
	}
	for i, k := range keys {
		if !w.Submit(k, []byte{byte(i)}) {
			t.Fatalf("Submit(%s) rejected", k)
		}
	}
	w.Close()

	for i, k := range keys {
		data, ok, err := store.Get(k)
		if err != nil || !ok {
			t.Fatalf("Get(%s) = ok %v, err %v", k, ok, err)
		}
		if !bytes.Equal(data, []byte{byte(i)}) {
			t.Errorf("Get(%s) = %v, want [%d]", k, data, i)
		}
	}
	if written, dropped := w.Stats(); written != 3 || dropped != 0 {
		t.Errorf("Stats = %d written, %d dropped; want 3, 0", written, dropped)
	}
	if w.Submit(keys[0], nil) {
		t.Error("Submit accepted after Close")
	}
}

func TestWriter_CoalescesPendingKey(t *testing.T) {
	store := &countingStore{}
	// Hold the only worker so submissions stay pending.
	w := &Writer{
		store:   store,
		log:     hclog.NewNullLogger(),
		queue:   make(chan digest.Digest, 4),
		pending: make(map[digest.Digest][]byte),
	}
	key := digest.FromString("k")
	w.Submit(key, []byte("old"))
	w.Submit(key, []byte("new"))
	if len(w.queue) != 1 {
		t.Fatalf("queue holds %d keys, want 1", len(w.queue))
	}

	w.wg.Add(1)
	go w.run()
	w.Close()

	if got := store.puts[key]; len(got) != 1 || string(got[0]) != "new" {
		t.Errorf("puts = %q, want one write of the newest data", got)
	}
}

func TestWriter_DropsWhenFull(t *testing.T) {
	store := &countingStore{}
	w := &Writer{
		store:   store,
		log:     hclog.NewNullLogger(),
		queue:   make(chan digest.Digest, 1),
		pending: make(map[digest.Digest][]byte),
	}
	if !w.Submit(digest.FromString("a"), nil) {
		t.Fatal("first Submit rejected")
	}
	if w.Submit(digest.FromString("b"), nil) {
		t.Error("Submit accepted beyond the queue bound")
	}
	if _, dropped := w.Stats(); dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	w.wg.Add(1)
	go w.run()
	w.Close()
}

func TestWriter_StoreFailureIsNotFatal(t *testing.T) {
	w := NewWriter(&countingStore{fail: true}, DefaultWriterOptions())
	w.Submit(digest.FromString("a"), []byte("x"))
	w.Close()
	if written, _ := w.Stats(); written != 0 {
		t.Errorf("written = %d after failing store, want 0", written)
	}
}
