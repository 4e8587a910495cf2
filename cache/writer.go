// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package cache

import (
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"
)

// WriterOptions configures a Writer.
type WriterOptions struct {
	// Workers is the number of concurrent store writes.
	Workers int

	// Queue bounds the number of distinct keys waiting to be written.
	// Submissions beyond it are dropped.
	Queue int

	Logger hclog.Logger
}

// DefaultWriterOptions returns two workers and a queue of 64 keys.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{Workers: 2, Queue: 64}
}

// Writer persists bytecode in the background. Submit never blocks the
// caller: a key already waiting is coalesced with the newer data, and a
// full queue drops the write with a warning, since a cache miss only costs
// a recompile.
type Writer struct {
	store Store
	log   hclog.Logger
	queue chan digest.Digest

	mu      sync.Mutex
	pending map[digest.Digest][]byte
	closed  bool

	flight  singleflight.Group
	wg      sync.WaitGroup
	written atomic.Int64
	dropped atomic.Int64
}

// NewWriter starts a writer for store. Close must be called to flush it.
func NewWriter(store Store, opts WriterOptions) *Writer {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Queue <= 0 {
		opts.Queue = 1
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	w := &Writer{
		store:   store,
		log:     opts.Logger,
		queue:   make(chan digest.Digest, opts.Queue),
		pending: make(map[digest.Digest][]byte),
	}
	w.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go w.run()
	}
	return w
}

// Submit schedules data to be stored under key and reports whether it was
// accepted.
func (w *Writer) Submit(key digest.Digest, data []byte) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	if _, ok := w.pending[key]; ok {
		w.pending[key] = data
		return true
	}
	select {
	case w.queue <- key:
		w.pending[key] = data
		return true
	default:
		w.dropped.Add(1)
		w.log.Warn("cache write queue full, dropping entry", "key", key)
		return false
	}
}

func (w *Writer) run() {
	defer w.wg.Done()
	for key := range w.queue {
		w.mu.Lock()
		data := w.pending[key]
		delete(w.pending, key)
		w.mu.Unlock()

		_, err, _ := w.flight.Do(key.String(), func() (any, error) {
			return nil, w.store.Put(key, data)
		})
		if err != nil {
			w.log.Error("cache write failed", "key", key, "error", err)
			continue
		}
		w.written.Add(1)
		w.log.Trace("cache entry written", "key", key, "bytes", len(data))
	}
}

// Close stops accepting submissions and waits for queued writes.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()
	w.wg.Wait()
}

// Stats returns the number of entries written and dropped so far.
func (w *Writer) Stats() (written, dropped int64) {
	return w.written.Load(), w.dropped.Load()
}
