// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shadergraph

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/gogpu/shadergraph/builder"
	"github.com/gogpu/shadergraph/cache"
	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/shader"
)

// fakeCompiler returns the stage name as bytecode and counts its calls.
type fakeCompiler struct {
	calls atomic.Int32
	err   error
}

func (c *fakeCompiler) Compile(_ context.Context, src *shader.Source) ([]byte, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return []byte(src.Stage.String()), nil
}

func newTestSession(t *testing.T, opts SessionOptions) *Session {
	t.Helper()
	opts.Logger = hclog.New(&hclog.LoggerOptions{
		Name:   "shadergraph",
		Level:  hclog.Trace,
		Output: testWriter{t},
	})
	s := NewSession(fragment.NewLibrary(testRepo(t)), opts)
	t.Cleanup(s.Close)
	return s
}

// testWriter routes log output through t.Log.
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func TestSession_CompileMergesMacros(t *testing.T) {
	opts := DefaultSessionOptions()
	opts.Builder.Macros = shader.MacroSet{{Name: "FOG", Value: "1"}, {Name: "SKIN", Value: "0"}}
	s := newTestSession(t, opts)

	src, err := s.Compile(context.Background(), unlitGraph(), graph.ShaderPixel, shader.MacroSet{{Name: "FOG", Value: "2"}})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if v, _ := src.Macros.Get("FOG"); v != "2" {
		t.Errorf("FOG = %q, want the per-call value 2", v)
	}
	if !src.Macros.Defined("SKIN") {
		t.Error("session macro SKIN was dropped")
	}
	if v, _ := opts.Builder.Macros.Get("FOG"); v != "1" {
		t.Error("Compile modified the session's macros")
	}
}

func TestSession_CompileCanceled(t *testing.T) {
	s := newTestSession(t, DefaultSessionOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Compile(ctx, unlitGraph(), graph.ShaderPixel, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestSession_CompileAll(t *testing.T) {
	s := newTestSession(t, DefaultSessionOptions())

	srcs, err := s.CompileAll(context.Background(), unlitGraph(), nil)
	if err != nil {
		t.Fatalf("CompileAll: %v", err)
	}
	if len(srcs) != 2 || srcs[0].Stage != graph.ShaderVertex || srcs[1].Stage != graph.ShaderPixel {
		t.Fatalf("got %d sources, want vertex then pixel", len(srcs))
	}

	// The shared analysis must produce the same text as separate builds.
	for _, src := range srcs {
		want, err := s.Compile(context.Background(), unlitGraph(), src.Stage, nil)
		if err != nil {
			t.Fatalf("Compile(%s): %v", src.Stage, err)
		}
		if src.Hash() != want.Hash() {
			t.Errorf("%s: CompileAll and Compile disagree", src.Stage)
		}
	}
}

func TestSession_CompileAllCompute(t *testing.T) {
	s := newTestSession(t, DefaultSessionOptions())
	g := graph.New("Clear")
	g.AddNode("ClearBuffer")

	srcs, err := s.CompileAll(context.Background(), g, nil)
	if err != nil {
		t.Fatalf("CompileAll: %v", err)
	}
	if len(srcs) != 1 || srcs[0].Stage != graph.ShaderCompute {
		t.Fatalf("got %d sources, want one compute shader", len(srcs))
	}
	if !strings.Contains(srcs[0].Text, "buffer[id.x] = 0;") {
		t.Errorf("kernel body missing:\n%s", srcs[0].Text)
	}
}

func TestSession_CompileAllError(t *testing.T) {
	s := newTestSession(t, DefaultSessionOptions())
	_, err := s.CompileAll(context.Background(), brokenGraph(), nil)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want a *CompileError", err)
	}
}

func TestSession_CompileAllAggregates(t *testing.T) {
	opts := DefaultSessionOptions()
	opts.Builder.MaxIdentifierLength = 8
	s := newTestSession(t, opts)

	_, err := s.CompileAll(context.Background(), unlitGraph(), nil)
	var merr *multierror.Error
	if !errors.As(err, &merr) || len(merr.Errors) == 0 {
		t.Fatalf("got %v, want aggregated stage errors", err)
	}
	for _, e := range merr.Errors {
		var ce *CompileError
		if !errors.As(e, &ce) || !builder.IsIdentifierOverflow(e) {
			t.Errorf("stage error %v is not an identifier overflow", e)
		}
	}
}

func TestSession_CompileOrFallback(t *testing.T) {
	s := newTestSession(t, DefaultSessionOptions())

	src, fellBack, err := s.CompileOrFallback(context.Background(), brokenGraph(), graph.ShaderPixel, nil)
	if err != nil {
		t.Fatalf("CompileOrFallback: %v", err)
	}
	if !fellBack {
		t.Error("fellBack = false for a broken graph")
	}
	if !strings.Contains(src.Text, "color = float4(1, 0, 1, 1);") {
		t.Errorf("expected the fallback pixel shader, got:\n%s", src.Text)
	}

	_, fellBack, err = s.CompileOrFallback(context.Background(), unlitGraph(), graph.ShaderPixel, nil)
	if err != nil || fellBack {
		t.Errorf("working graph: fellBack=%v err=%v", fellBack, err)
	}
}

func TestSession_LibraryReload(t *testing.T) {
	s := newTestSession(t, DefaultSessionOptions())

	err := s.Library().Update(func(c *fragment.Contents) error {
		c.Fragments["ConstColor"] = &fragment.Fragment{
			Name:   "ConstColor",
			Params: constColor.Params,
			Body:   "color = float4(0, 0, 1, 1);",
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	src, err := s.Compile(context.Background(), unlitGraph(), graph.ShaderPixel, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(src.Text, "color = float4(0, 0, 1, 1);") {
		t.Errorf("reloaded fragment not used:\n%s", src.Text)
	}
}

func TestSession_Bytecode(t *testing.T) {
	store := cache.NewMemStore()
	fc := &fakeCompiler{}
	opts := DefaultSessionOptions()
	opts.Store = store
	opts.Compiler = fc

	s := newTestSession(t, opts)
	src, err := s.Compile(context.Background(), unlitGraph(), graph.ShaderPixel, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := s.Bytecode(context.Background(), src)
			if err != nil {
				t.Errorf("Bytecode: %v", err)
				return
			}
			if string(data) != "pixel" {
				t.Errorf("Bytecode = %q", data)
			}
		}()
	}
	wg.Wait()
	s.Close()

	if _, ok, _ := store.Get(src.Hash()); !ok {
		t.Fatal("bytecode was not written to the store")
	}

	// A second session over the same store hits the cache.
	before := fc.calls.Load()
	s2 := newTestSession(t, opts)
	if _, err := s2.Bytecode(context.Background(), src); err != nil {
		t.Fatalf("Bytecode: %v", err)
	}
	if fc.calls.Load() != before {
		t.Error("cache hit still invoked the native compiler")
	}
}

func TestSession_BytecodeErrors(t *testing.T) {
	s := newTestSession(t, DefaultSessionOptions())
	src, err := s.Compile(context.Background(), unlitGraph(), graph.ShaderPixel, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := s.Bytecode(context.Background(), src); !errors.Is(err, ErrNoCompiler) {
		t.Errorf("got %v, want ErrNoCompiler", err)
	}

	boom := errors.New("boom")
	opts := DefaultSessionOptions()
	opts.Compiler = &fakeCompiler{err: boom}
	s = newTestSession(t, opts)
	if _, err := s.Bytecode(context.Background(), src); !errors.Is(err, boom) {
		t.Errorf("got %v, want the compiler error", err)
	}
}
