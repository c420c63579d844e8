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

package schema

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrWrongKind = errors.New("wrong kind")
)

// LookupError is returned by Document lookups. It wraps ErrNotFound or
// ErrWrongKind.
type LookupError struct {
	Name string
	Want string
	Err  error
}

func (e *LookupError) Error() string {
	if e.Err == ErrWrongKind {
		return fmt.Sprintf("%s is not %s", e.Name, e.Want)
	}
	return e.Name + " is not defined"
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

func notFound(name, want string) error {
	return &LookupError{Name: name, Want: want, Err: ErrNotFound}
}

func wrongKind(name, want string) error {
	return &LookupError{Name: name, Want: want, Err: ErrWrongKind}
}

// DocumentContents is the input to NewDocument.
type DocumentContents struct {
	Types     []Type
	Services  []*Service
	Policies  []*Policy
	Functions []*Function
	Views     []*View
	Imports   []string
}

// Document is a compiled set of declarations. A Document is not modified
// after it is returned by the compiler, and may be shared between
// goroutines.
type Document struct {
	types     map[string]Type
	services  map[string]*Service
	policies  map[string]*Policy
	functions map[string]*Function
	views     map[string]*View
	imports   []string
}

func NewDocument(contents DocumentContents) *Document {
	doc := &Document{
		types:     make(map[string]Type, len(contents.Types)),
		services:  make(map[string]*Service, len(contents.Services)),
		policies:  make(map[string]*Policy, len(contents.Policies)),
		functions: make(map[string]*Function, len(contents.Functions)),
		views:     make(map[string]*View, len(contents.Views)),
		imports:   slices.Clone(contents.Imports),
	}
	for _, t := range contents.Types {
		doc.types[t.QualifiedName()] = t
	}
	for _, s := range contents.Services {
		doc.services[s.QualifiedName()] = s
	}
	for _, p := range contents.Policies {
		doc.policies[p.QualifiedName()] = p
	}
	for _, f := range contents.Functions {
		doc.functions[f.QualifiedName()] = f
	}
	for _, v := range contents.Views {
		doc.views[v.QualifiedName()] = v
	}
	slices.Sort(doc.imports)
	doc.imports = slices.Compact(doc.imports)
	return doc
}

// Type looks up a type by qualified name. Primitive types are found by
// bare or qualified name.
func (doc *Document) Type(qualifiedName string) (Type, error) {
	if t, ok := doc.types[qualifiedName]; ok {
		return t, nil
	}
	if p, ok := Primitive(qualifiedName); ok {
		return p, nil
	}
	if qualifiedName == Void.QualifiedName() {
		return Void, nil
	}
	return nil, notFound(qualifiedName, "a type")
}

func lookupAs[T Type](doc *Document, qualifiedName, want string) (T, error) {
	var zero T
	t, err := doc.Type(qualifiedName)
	if err != nil {
		return zero, err
	}
	typed, ok := t.(T)
	if !ok {
		return zero, wrongKind(qualifiedName, want)
	}
	return typed, nil
}

func (doc *Document) ObjectType(qualifiedName string) (*ObjectType, error) {
	return lookupAs[*ObjectType](doc, qualifiedName, "an object type")
}

func (doc *Document) EnumType(qualifiedName string) (*EnumType, error) {
	return lookupAs[*EnumType](doc, qualifiedName, "an enum")
}

func (doc *Document) TypeAlias(qualifiedName string) (*TypeAlias, error) {
	return lookupAs[*TypeAlias](doc, qualifiedName, "a type alias")
}

func (doc *Document) Service(qualifiedName string) (*Service, error) {
	if s, ok := doc.services[qualifiedName]; ok {
		return s, nil
	}
	return nil, notFound(qualifiedName, "a service")
}

func (doc *Document) Policy(qualifiedName string) (*Policy, error) {
	if p, ok := doc.policies[qualifiedName]; ok {
		return p, nil
	}
	return nil, notFound(qualifiedName, "a policy")
}

func (doc *Document) Function(qualifiedName string) (*Function, error) {
	if f, ok := doc.functions[qualifiedName]; ok {
		return f, nil
	}
	return nil, notFound(qualifiedName, "a function")
}

func (doc *Document) View(qualifiedName string) (*View, error) {
	if v, ok := doc.views[qualifiedName]; ok {
		return v, nil
	}
	return nil, notFound(qualifiedName, "a view")
}

func (doc *Document) ContainsType(qualifiedName string) bool {
	_, ok := doc.types[qualifiedName]
	return ok
}

// Contains reports whether any declaration (type, service, policy,
// function, or view) has the given name.
func (doc *Document) Contains(qualifiedName string) bool {
	_, err := doc.Lookup(qualifiedName)
	return err == nil
}

// Lookup finds a declaration of any kind by qualified name.
func (doc *Document) Lookup(qualifiedName string) (any, error) {
	if t, ok := doc.types[qualifiedName]; ok {
		return t, nil
	}
	if s, ok := doc.services[qualifiedName]; ok {
		return s, nil
	}
	if p, ok := doc.policies[qualifiedName]; ok {
		return p, nil
	}
	if f, ok := doc.functions[qualifiedName]; ok {
		return f, nil
	}
	if v, ok := doc.views[qualifiedName]; ok {
		return v, nil
	}
	return nil, notFound(qualifiedName, "a declaration")
}

func sortedValues[V any](m map[string]V) []V {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]V, len(keys))
	for ii, key := range keys {
		out[ii] = m[key]
	}
	return out
}

// TypeNames returns the qualified name of every type, sorted.
func (doc *Document) TypeNames() []string {
	return slices.Sorted(maps.Keys(doc.types))
}

func (doc *Document) Types() []Type {
	return sortedValues(doc.types)
}

func (doc *Document) Services() []*Service {
	return sortedValues(doc.services)
}

func (doc *Document) Policies() []*Policy {
	return sortedValues(doc.policies)
}

func (doc *Document) Functions() []*Function {
	return sortedValues(doc.functions)
}

func (doc *Document) Views() []*View {
	return sortedValues(doc.views)
}

// Imports returns the names imported by the document's sources.
func (doc *Document) Imports() []string {
	return slices.Clone(doc.imports)
}

type DeclarationKind string

const (
	DeclType      DeclarationKind = "type"
	DeclEnum      DeclarationKind = "enum"
	DeclEnumValue DeclarationKind = "enum value"
	DeclTypeAlias DeclarationKind = "type alias"
	DeclField     DeclarationKind = "field"
	DeclService   DeclarationKind = "service"
	DeclOperation DeclarationKind = "operation"
	DeclPolicy    DeclarationKind = "policy"
	DeclFunction  DeclarationKind = "function"
	DeclView      DeclarationKind = "view"
)

// Declaration is a named entity and one of its source locations. Members
// (fields, enum values, operations) are named `Owner.member`.
type Declaration struct {
	Name   string
	Kind   DeclarationKind
	Unit   CompilationUnit
	Entity any
}

func (doc *Document) declarations(yield func(Declaration) bool) {
	emit := func(name string, kind DeclarationKind, entity any, units ...CompilationUnit) bool {
		for _, unit := range units {
			if !yield(Declaration{Name: name, Kind: kind, Unit: unit, Entity: entity}) {
				return false
			}
		}
		return true
	}
	for _, t := range doc.Types() {
		switch t := t.(type) {
		case *ObjectType:
			if !emit(t.name, DeclType, t, t.units...) {
				return
			}
			for _, field := range t.Fields() {
				if !emit(t.name+"."+field.Name, DeclField, field, field.Unit) {
					return
				}
			}
		case *EnumType:
			if !emit(t.name, DeclEnum, t, t.units...) {
				return
			}
			for _, value := range t.Values() {
				if !emit(value.QualifiedName, DeclEnumValue, value, value.Unit) {
					return
				}
			}
		case *TypeAlias:
			if !emit(t.name, DeclTypeAlias, t, t.units...) {
				return
			}
		}
	}
	for _, s := range doc.Services() {
		if !emit(s.name, DeclService, s, s.units...) {
			return
		}
		for _, op := range s.Operations {
			if !emit(s.name+"."+op.Name, DeclOperation, op, op.Unit) {
				return
			}
		}
	}
	for _, p := range doc.Policies() {
		if !emit(p.name, DeclPolicy, p, p.units...) {
			return
		}
	}
	for _, f := range doc.Functions() {
		if !emit(f.name, DeclFunction, f, f.units...) {
			return
		}
	}
	for _, v := range doc.Views() {
		if !emit(v.name, DeclView, v, v.units...) {
			return
		}
		for _, find := range v.Finds {
			if find.Projection == nil {
				continue
			}
			for _, field := range find.Projection.Fields() {
				if !emit(v.name+"."+field.Name, DeclField, field, field.Unit) {
					return
				}
			}
		}
	}
}

// DeclarationAt returns the innermost declaration whose source span
// contains the 1-based line and column.
func (doc *Document) DeclarationAt(sourceName string, line, column uint32) (Declaration, bool) {
	var best Declaration
	found := false
	for decl := range doc.declarations {
		if !decl.Unit.Contains(sourceName, line, column) {
			continue
		}
		if !found || decl.Unit.Span.Len() < best.Unit.Span.Len() {
			best = decl
			found = true
		}
	}
	return best, found
}

// CompilationUnits returns every source location of the named
// declaration.
func (doc *Document) CompilationUnits(qualifiedName string) []CompilationUnit {
	var out []CompilationUnit
	for decl := range doc.declarations {
		if decl.Name == qualifiedName {
			out = append(out, decl.Unit)
		}
	}
	return out
}
