// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	"github.com/gogpu/shadergraph"
	"github.com/gogpu/shadergraph/config"
	"github.com/gogpu/shadergraph/fragfile"
	"github.com/gogpu/shadergraph/fragment"
	"github.com/gogpu/shadergraph/graph"
	"github.com/gogpu/shadergraph/shader"
)

const defaultConfigFile = "shadergraph.hcl"

// Meta holds what every command shares: the UI, the filesystem and the
// common flags.
type Meta struct {
	Ui cli.Ui
	FS afero.Fs

	configPath string
	fragments  string
	target     string
	logLevel   string
	macros     macroFlags
}

// macroFlags collects repeated -D NAME[=VALUE] flags.
type macroFlags shader.MacroSet

func (m *macroFlags) String() string {
	parts := make([]string, len(*m))
	for i, d := range *m {
		parts[i] = d.Name + "=" + d.Value
	}
	return strings.Join(parts, ",")
}

func (m *macroFlags) Set(v string) error {
	name, value, ok := strings.Cut(v, "=")
	if name == "" {
		return fmt.Errorf("empty macro name in %q", v)
	}
	if !ok {
		value = "1"
	}
	*m = macroFlags(shader.MacroSet(*m).With(name, value))
	return nil
}

func (m *Meta) flagSet(name string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.SetOutput(io.Discard)
	f.StringVar(&m.configPath, "config", "", "configuration file (default: "+defaultConfigFile+" if present)")
	f.StringVar(&m.fragments, "fragments", "", "glob of fragment and graph files")
	f.StringVar(&m.target, "target", "", "hlsl, pssl, glsl or null")
	f.StringVar(&m.logLevel, "log-level", "", "trace, debug, info, warn or error")
	f.Var(&m.macros, "D", "define a macro, NAME or NAME=VALUE (repeatable)")
	return f
}

// workspace is the loaded state a command operates on.
type workspace struct {
	cfg  *config.Config
	file *fragfile.File
	repo *fragment.Repository
	log  hclog.Logger
}

// load reads the configuration and the definition files, applying the
// command-line overrides.
func (m *Meta) load() (*workspace, error) {
	cfg := config.Default()
	path := m.configPath
	if path == "" {
		if ok, _ := afero.Exists(m.FS, defaultConfigFile); ok {
			path = defaultConfigFile
		}
	}
	if path != "" {
		var err error
		if cfg, err = config.Load(m.FS, path); err != nil {
			return nil, err
		}
	}
	if m.fragments != "" {
		cfg.Fragments = m.fragments
	}
	if m.target != "" {
		cfg.Target = m.target
	}
	if m.logLevel != "" {
		cfg.LogLevel = m.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	file, err := fragfile.LoadGlob(m.FS, cfg.Fragments)
	if err != nil {
		return nil, err
	}
	// The fallback fragments are always available to graphs.
	file.Fragments = append(file.Fragments, shadergraph.FallbackFragments()...)
	repo, err := file.Repository()
	if err != nil {
		return nil, err
	}

	log := cfg.Logger("shadergraphc")
	log.Debug("definitions loaded", "fragments", len(file.Fragments), "graphs", len(file.Graphs))
	return &workspace{cfg: cfg, file: file, repo: repo, log: log}, nil
}

// session starts a session over the workspace. The returned function
// closes the session and flushes the cache writer.
func (w *workspace) session(fs afero.Fs) (*shadergraph.Session, func(), error) {
	opts, err := w.cfg.SessionOptions(fs, w.log)
	if err != nil {
		return nil, nil, err
	}
	s := shadergraph.NewSession(fragment.NewLibrary(w.repo), opts)
	return s, func() {
		s.Close()
		if opts.Writer != nil {
			opts.Writer.Close()
		}
	}, nil
}

// graphs resolves graph names; no names selects every graph.
func (w *workspace) graphs(names []string) ([]*graph.Graph, error) {
	if len(names) == 0 {
		names = w.file.GraphNames()
	}
	if len(names) == 0 {
		return nil, errors.New("no graphs defined")
	}
	out := make([]*graph.Graph, 0, len(names))
	for _, name := range names {
		g, ok := w.file.Graph(name)
		if !ok {
			return nil, fmt.Errorf("graph %q not found", name)
		}
		out = append(out, g)
	}
	return out, nil
}

// graphMacros returns the macros of a graph with the -D flags applied on top.
func (m *Meta) graphMacros(w *workspace, name string) shader.MacroSet {
	set := append(shader.MacroSet(nil), w.file.Macros[name]...)
	for _, d := range m.macros {
		set = set.With(d.Name, d.Value)
	}
	return set
}

func (m *Meta) fail(err error) int {
	m.Ui.Error(err.Error())
	return 1
}

// usageError reports a flag parse error; -h prints the help instead.
func (m *Meta) usageError(err error, help string) int {
	if errors.Is(err, flag.ErrHelp) {
		m.Ui.Output(help)
		return 0
	}
	m.Ui.Error(err.Error())
	m.Ui.Error(help)
	return 1
}
