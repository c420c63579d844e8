// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/BlexSetlog/taxilang/compiler"
	"github.com/BlexSetlog/taxilang/schema"
)

const defaultConfigPath = "taxi.yaml"

// projectConfig is the contents of a taxi.yaml project file. Relative
// paths in the file are resolved against the file's directory.
type projectConfig struct {
	Sources      []string      `yaml:"sources"`
	Dependencies []string      `yaml:"dependencies"`
	Codegen      codegenConfig `yaml:"codegen"`

	dir string
}

type codegenConfig struct {
	Language   string            `yaml:"language"`
	PluginPath string            `yaml:"pluginPath"`
	Output     string            `yaml:"output"`
	Options    map[string]string `yaml:"options"`
}

// loadConfig reads the project file at path. With no path, ./taxi.yaml is
// read if it exists.
func loadConfig(path string) (*projectConfig, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	fp, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &projectConfig{dir: "."}, nil
		}
		return nil, err
	}
	defer fp.Close()
	return decodeConfig(fp, filepath.Dir(path))
}

func decodeConfig(r io.Reader, dir string) (*projectConfig, error) {
	config := &projectConfig{dir: dir}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("Invalid project config: %w", err)
	}
	return config, nil
}

func (config *projectConfig) resolve(paths []string) []string {
	out := make([]string, len(paths))
	for ii, path := range paths {
		if filepath.IsAbs(path) {
			out[ii] = path
		} else {
			out[ii] = filepath.Join(config.dir, path)
		}
	}
	return out
}

// project is the set of sources and dependencies a command compiles.
type project struct {
	global  *globalOptions
	config  *projectConfig
	sources []string
	deps    []string
}

// loadProject selects sources from the command line, falling back to the
// project file when none are given. Dependencies named by flag replace
// those of the project file.
func loadProject(global *globalOptions, argv, deps []string) (*project, error) {
	config, err := loadConfig(global.configPath)
	if err != nil {
		return nil, err
	}
	p := &project{global: global, config: config}

	sourcePatterns := argv
	if len(sourcePatterns) == 0 {
		if len(config.Sources) == 0 {
			return nil, fmt.Errorf("No sources given, and no project file lists any")
		}
		sourcePatterns = config.resolve(config.Sources)
	}
	if p.sources, err = expandGlobs(sourcePatterns); err != nil {
		return nil, err
	}

	depPatterns := deps
	if len(depPatterns) == 0 {
		depPatterns = config.resolve(config.Dependencies)
	}
	if p.deps, err = expandGlobs(depPatterns); err != nil {
		return nil, err
	}
	return p, nil
}

func expandGlobs(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("Invalid path pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("No files match %q", pattern)
		}
		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				out = append(out, match)
			}
		}
	}
	return out, nil
}

func readSources(paths []string) ([]compiler.Source, error) {
	sources := make([]compiler.Source, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, compiler.Source{
			Name:    filepath.ToSlash(path),
			Content: content,
		})
	}
	return sources, nil
}

// compile compiles each dependency on its own, then the project sources
// with the dependencies available to `import`. Diagnostics are written to
// stderr. The returned error reports failures other than diagnostics of
// the project sources.
func (p *project) compile(stderr io.Writer) (compiler.CompileResult, error) {
	var opts []compiler.CompileOption
	if len(p.deps) > 0 {
		docs := make([]*schema.Document, 0, len(p.deps))
		for _, dep := range p.deps {
			p.global.logf("compiling dependency %s", dep)
			sources, err := readSources([]string{dep})
			if err != nil {
				return compiler.CompileResult{}, err
			}
			result := compiler.Compile(sources)
			printDiagnostics(stderr, result)
			doc, err := result.Document()
			if err != nil {
				return compiler.CompileResult{}, fmt.Errorf("Dependency %s failed to compile", dep)
			}
			docs = append(docs, doc)
		}
		set, err := compiler.Merge(docs)
		if err != nil {
			return compiler.CompileResult{}, err
		}
		opts = append(opts, compiler.WithDependencies(set))
	}

	for _, path := range p.sources {
		p.global.logf("reading %s", path)
	}
	sources, err := readSources(p.sources)
	if err != nil {
		return compiler.CompileResult{}, err
	}
	result := compiler.Compile(sources, opts...)
	printDiagnostics(stderr, result)
	return result, nil
}

func printDiagnostics(w io.Writer, result compiler.CompileResult) {
	for _, warn := range result.Warnings {
		pos := warn.Position()
		fmt.Fprintf(w, "%s:%d:%d: %s\n", warn.SourceName(), pos.Line, pos.Column, warn)
	}
	for _, err := range result.Errors {
		fmt.Fprintf(w, "%s:%d:%d: %v\n", err.SourceName(), err.Line(), err.Column(), err)
	}
}
