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

// Package compiler resolves parsed Taxi sources into a [schema.Document].
package compiler

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/BlexSetlog/taxilang/schema"
	"github.com/BlexSetlog/taxilang/syntax"
)

// UnknownSourceName names a single source compiled without a name.
const UnknownSourceName = "[unknown source]"

type CompileOption interface {
	apply(*CompileOptions)
}

type compileOption func(*CompileOptions)

func (f compileOption) apply(opts *CompileOptions) { f(opts) }

type CompileOptions struct {
	deps       *DocumentSet
	sourceName string
	noStdlib   bool
	parseOpts  []syntax.ParseOption
}

// WithDependencies makes the declarations of previously compiled
// documents available to `import` statements.
func WithDependencies(dependencies *DocumentSet) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.deps = dependencies
	})
}

// WithSourceName names sources that were given without a name.
func WithSourceName(sourceName string) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.sourceName = sourceName
	})
}

// WithStdlib controls whether the built-in `taxi.stdlib` functions can be
// called from accessors. It is enabled by default.
func WithStdlib(enabled bool) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.noStdlib = !enabled
	})
}

func WithParseOptions(parseOpts ...syntax.ParseOption) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.parseOpts = append(opts.parseOpts, parseOpts...)
	})
}

// Source is one named source text.
type Source struct {
	Name    string
	Content []byte
}

type CompileResult struct {
	document *schema.Document

	declaredTypeNames []string
	declaredImports   []string

	Errors   []*Error
	Warnings []*Warning
}

// Document returns the compiled document, or a *CompilationError if any
// errors were reported.
func (r *CompileResult) Document() (*schema.Document, error) {
	if len(r.Errors) > 0 {
		return nil, &CompilationError{Errors: r.Errors}
	}
	return r.document, nil
}

func Compile(sources []Source, opts ...CompileOption) CompileResult {
	return NewCompileOptions(opts...).Compile(sources)
}

func NewCompileOptions(opts ...CompileOption) *CompileOptions {
	compileOptions := &CompileOptions{}
	for _, opt := range opts {
		opt.apply(compileOptions)
	}
	return compileOptions
}

func (opts *CompileOptions) Compile(sources []Source) CompileResult {
	c := &compiler{
		opts:      opts,
		registry:  newTypeRegistry(),
		services:  make(map[string]*schema.Service),
		policies:  make(map[string]*schema.Policy),
		functions: make(map[string]*schema.Function),
		views:     make(map[string]*schema.View),
		usedNames: make(map[string]bool),

		inheriting: make(map[string]bool),
	}
	if !opts.noStdlib {
		c.stdlib = stdlibFunctions()
	}

	for ii, src := range sources {
		name := src.Name
		if name == "" {
			name = opts.sourceName
		}
		if name == "" {
			name = UnknownSourceName
		}
		parsed, err := syntax.Parse(src.Content, opts.parseOpts...)
		s := &source{
			name:  name,
			index: ii,
			file:  parsed,
			lines: syntax.NewLineIndex(src.Content),
		}
		if err != nil {
			var syntaxErr *syntax.Error
			if !errors.As(err, &syntaxErr) {
				panic(fmt.Sprintf("unexpected parse error: %v", err))
			}
			return CompileResult{
				Errors: []*Error{errSyntax(syntaxErr, s).(*Error)},
			}
		}
		c.sources = append(c.sources, s)
	}

	c.compileDocument()
	c.sortDiagnostics()
	return CompileResult{
		document:          c.document,
		declaredTypeNames: c.tokens.declaredTypeNames(),
		declaredImports:   c.tokens.declaredImports(),
		Errors:            c.errors,
		Warnings:          c.warnings,
	}
}

// Compiler compiles a fixed set of sources. The result is computed once,
// on first use.
type Compiler struct {
	opts    *CompileOptions
	sources []Source
	result  *CompileResult
}

func NewCompiler(sources []Source, opts ...CompileOption) *Compiler {
	return &Compiler{
		opts:    NewCompileOptions(opts...),
		sources: sources,
	}
}

// ForStrings compiles anonymous source texts. A single text is named
// "[unknown source]"; several are named "StringSource-0", "StringSource-1",
// and so on.
func ForStrings(texts ...string) *Compiler {
	sources := make([]Source, len(texts))
	for ii, text := range texts {
		sources[ii].Content = []byte(text)
		if len(texts) > 1 {
			sources[ii].Name = fmt.Sprintf("StringSource-%d", ii)
		}
	}
	return NewCompiler(sources)
}

func (c *Compiler) Result() CompileResult {
	if c.result == nil {
		result := c.opts.Compile(c.sources)
		c.result = &result
	}
	return *c.result
}

// Compile returns the document, or a *CompilationError listing every
// error.
func (c *Compiler) Compile() (*schema.Document, error) {
	result := c.Result()
	return result.Document()
}

// Validate returns every error without failing.
func (c *Compiler) Validate() []*Error {
	return c.Result().Errors
}

// DeclaredTypeNames returns the qualified names of the types declared by
// the sources, including inline aliases.
func (c *Compiler) DeclaredTypeNames() []string {
	return c.Result().declaredTypeNames
}

func (c *Compiler) DeclaredImports() []string {
	return c.Result().declaredImports
}

type source struct {
	name  string
	index int
	file  *syntax.File
	lines *syntax.LineIndex

	// Qualified names imported by this source.
	imports []string
}

func (s *source) at(node syntax.Node) location {
	return location{src: s, span: node.Span()}
}

func (s *source) unit(node syntax.Node) schema.CompilationUnit {
	span := node.Span()
	return schema.CompilationUnit{
		SourceName: s.name,
		Span:       span,
		Position:   s.lines.Position(span.Start()),
		End:        s.lines.Position(span.End()),
	}
}

// scope is the namespace and source that names are resolved against.
type scope struct {
	namespace string
	src       *source
}

func (sc scope) at(node syntax.Node) location {
	return sc.src.at(node)
}

func (sc scope) unit(node syntax.Node) schema.CompilationUnit {
	return sc.src.unit(node)
}

type compiler struct {
	opts     *CompileOptions
	sources  []*source
	tokens   *tokens
	registry *typeRegistry
	document *schema.Document
	errors   []*Error
	warnings []*Warning

	// Set by compileImports()
	imported  []schema.Type
	usedNames map[string]bool

	services  map[string]*schema.Service
	policies  map[string]*schema.Policy
	functions map[string]*schema.Function
	views     map[string]*schema.View
	stdlib    map[string]*schema.Function

	// Checks that need every declaration to be compiled, such as field
	// paths and enum synonyms.
	deferred []func()

	constraints []*constraintCheck

	// Object types whose inherits clause is being resolved.
	inheriting map[string]bool
}

func (c *compiler) err(err error) {
	c.errors = append(c.errors, err.(*Error))
}

func (c *compiler) warn(warning *Warning) {
	c.warnings = append(c.warnings, warning)
}

func (c *compiler) compileDocument() {
	c.tokens = collectTokens(c.sources)
	c.registerPlaceholders()
	c.compileImports()

	for _, name := range c.tokens.typeOrder {
		c.compileTypeTokens(name)
	}
	for _, name := range c.tokens.functionOrder {
		c.compileFunctionTokens(name)
	}
	c.compileExtensions()
	c.runDeferred()

	c.compileServices()
	c.compilePolicies()
	c.compileViews()
	c.runDeferred()

	c.validateConstraints()
	c.checkUnusedImports()
	c.document = c.assemble()
}

func (c *compiler) runDeferred() {
	for len(c.deferred) > 0 {
		deferred := c.deferred
		c.deferred = nil
		for _, check := range deferred {
			check()
		}
	}
}

func (c *compiler) assemble() *schema.Document {
	contents := schema.DocumentContents{
		Imports: c.tokens.declaredImports(),
	}
	for _, t := range c.registry.all() {
		contents.Types = append(contents.Types, t)
	}
	for _, name := range c.tokens.serviceOrder {
		if s, ok := c.services[name]; ok {
			contents.Services = append(contents.Services, s)
		}
	}
	for _, name := range c.tokens.policyOrder {
		if p, ok := c.policies[name]; ok {
			contents.Policies = append(contents.Policies, p)
		}
	}
	for _, f := range c.functions {
		contents.Functions = append(contents.Functions, f)
	}
	for _, name := range c.tokens.viewOrder {
		if v, ok := c.views[name]; ok {
			contents.Views = append(contents.Views, v)
		}
	}
	return schema.NewDocument(contents)
}

func (c *compiler) sortDiagnostics() {
	sourceIndex := make(map[string]int, len(c.sources))
	for _, src := range c.sources {
		sourceIndex[src.name] = src.index
	}
	slices.SortStableFunc(c.errors, func(a, b *Error) int {
		if x := cmp.Compare(sourceIndex[a.sourceName], sourceIndex[b.sourceName]); x != 0 {
			return x
		}
		if x := cmp.Compare(a.span.Start(), b.span.Start()); x != 0 {
			return x
		}
		return cmp.Compare(a.code, b.code)
	})
	slices.SortStableFunc(c.warnings, func(a, b *Warning) int {
		if x := cmp.Compare(sourceIndex[a.sourceName], sourceIndex[b.sourceName]); x != 0 {
			return x
		}
		if x := cmp.Compare(a.span.Start(), b.span.Start()); x != 0 {
			return x
		}
		return cmp.Compare(a.code, b.code)
	})
}
