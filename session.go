// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shadergraph

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/gogpu/shadergraph/builder"
	"github.com/gogpu/shadergraph/cache"
	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/shader"
)

// ErrNoCompiler is returned by Session.Bytecode on a cache miss when the
// session has no native compiler.
var ErrNoCompiler = errors.New("no native compiler configured")

// NativeCompiler turns generated source into bytecode. Implementations
// typically wrap an external shader compiler.
type NativeCompiler interface {
	Compile(ctx context.Context, src *shader.Source) ([]byte, error)
}

// SessionOptions configures a Session.
type SessionOptions struct {
	// Builder holds the target and limits of every build. Macros passed to
	// the compile calls are merged over Builder.Macros.
	Builder builder.Options

	Logger hclog.Logger

	// Store caches bytecode by source hash. Nil disables caching.
	Store cache.Store

	// Writer persists bytecode into Store in the background. When nil and
	// Store is set, the session starts its own writer and closes it in
	// Close.
	Writer *cache.Writer

	// Compiler produces bytecode on cache misses.
	Compiler NativeCompiler

	// Parallelism bounds the stages CompileAll builds at once.
	Parallelism int
}

// DefaultSessionOptions returns options with default builder settings and
// no cache or compiler.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		Builder:     builder.DefaultOptions(),
		Parallelism: 2,
	}
}

// Session compiles graphs against a fragment library that may be reloaded
// while builds run. It is safe for concurrent use.
type Session struct {
	lib  *fragment.Library
	opts SessionOptions
	log  hclog.Logger

	writer     *cache.Writer
	ownsWriter bool
	flight     singleflight.Group

	closeOnce sync.Once
}

// NewSession creates a session serving lib.
func NewSession(lib *fragment.Library, opts SessionOptions) *Session {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	s := &Session{
		lib:    lib,
		opts:   opts,
		log:    opts.Logger,
		writer: opts.Writer,
	}
	if s.writer == nil && opts.Store != nil {
		wopts := cache.DefaultWriterOptions()
		wopts.Logger = s.log.Named("cache")
		s.writer = cache.NewWriter(opts.Store, wopts)
		s.ownsWriter = true
	}
	return s
}

// Library returns the fragment library the session builds against.
func (s *Session) Library() *fragment.Library {
	return s.lib
}

// Close flushes the cache writer the session started, if any.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.ownsWriter {
			s.writer.Close()
		}
	})
}

func (s *Session) options(macros shader.MacroSet) builder.Options {
	opts := s.opts.Builder
	opts.Macros = append(shader.MacroSet(nil), opts.Macros...)
	for _, m := range macros {
		opts.Macros = opts.Macros.With(m.Name, m.Value)
	}
	return opts
}

// Compile builds shader st of g with macros merged over the session's.
func (s *Session) Compile(ctx context.Context, g *graph.Graph, st graph.ShaderType, macros shader.MacroSet) (*shader.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := CompileWithOptions(s.lib.Snapshot(), g, st, s.options(macros))
	if err != nil {
		return nil, err
	}
	s.log.Debug("shader built", "graph", g.Name, "stage", st, "hash", src.Hash())
	return src, nil
}

// CompileOrFallback is Compile, except that a failed build is logged and
// replaced by the fallback shader of the stage. fellBack reports the
// substitution; err is only set when the fallback fails too.
func (s *Session) CompileOrFallback(ctx context.Context, g *graph.Graph, st graph.ShaderType, macros shader.MacroSet) (src *shader.Source, fellBack bool, err error) {
	src, err = s.Compile(ctx, g, st, macros)
	if err == nil {
		return src, false, nil
	}
	if ctx.Err() != nil {
		return nil, false, err
	}
	s.log.Warn("shader build failed, using fallback", "graph", graphName(g), "stage", st, "error", err)

	src, ferr := Fallback(st, s.options(macros))
	if ferr != nil {
		return nil, false, multierror.Append(err, ferr)
	}
	return src, true, nil
}

// CompileAll builds every shader of g: vertex and pixel from one shared
// analysis, or the compute shader. Stages are built in parallel up to the
// session's parallelism and all stage failures are reported together.
// Sources are returned in stage order.
func (s *Session) CompileAll(ctx context.Context, g *graph.Graph, macros shader.MacroSet) ([]*shader.Source, error) {
	repo := s.lib.Snapshot()
	stages, err := Stages(repo, g)
	if err != nil {
		return nil, &CompileError{Shader: graphName(g), Stage: graph.ShaderPixel, Err: err}
	}

	last := stages[len(stages)-1]
	a, err := builder.Analyze(repo, g, last)
	if err != nil {
		return nil, &CompileError{Shader: g.Name, Stage: last, Err: err}
	}

	opts := s.options(macros)
	out := make([]*shader.Source, len(stages))
	errs := make([]error, len(stages))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.Parallelism)
	for i, st := range stages {
		i, st := i, st
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			src, err := a.Build(st, opts)
			if err != nil {
				errs[i] = &CompileError{Shader: g.Name, Stage: st, Err: err}
				return nil
			}
			out[i] = src
			return nil
		})
	}
	_ = eg.Wait()

	var merr *multierror.Error
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}
	s.log.Debug("graph built", "graph", g.Name, "stages", len(out), "alive", a.Alive())
	return out, nil
}

// Bytecode returns the compiled bytecode of src. The cache is consulted
// first; on a miss the native compiler runs and its result is handed to the
// cache writer without waiting for it to be stored. Concurrent calls for
// the same source share one compilation, and the writer coalesces their
// submissions.
func (s *Session) Bytecode(ctx context.Context, src *shader.Source) ([]byte, error) {
	key := src.Hash()
	log := s.log.With("shader", src.FileName(), "key", key)

	if s.opts.Store != nil {
		data, ok, err := s.opts.Store.Get(key)
		switch {
		case err != nil:
			log.Warn("cache lookup failed", "error", err)
		case ok:
			log.Trace("cache hit")
			return data, nil
		}
	}
	if s.opts.Compiler == nil {
		return nil, &CompileError{Shader: src.Name, Stage: src.Stage, Err: ErrNoCompiler}
	}

	v, err, shared := s.flight.Do(key.String(), func() (any, error) {
		return s.opts.Compiler.Compile(ctx, src)
	})
	if err != nil {
		return nil, &CompileError{Shader: src.Name, Stage: src.Stage, Err: fmt.Errorf("native compile: %w", err)}
	}
	data := v.([]byte)
	if s.writer != nil {
		s.writer.Submit(key, data)
	}
	log.Debug("shader compiled", "bytes", len(data), "shared", shared)
	return data, nil
}
