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

package compiler

import (
	"slices"

	"github.com/BlexSetlog/taxilang/syntax"
)

type declKind uint8

const (
	declObjectType declKind = iota
	declEnum
	declAlias
	declInlineAlias
)

func (k declKind) String() string {
	switch k {
	case declObjectType:
		return "type"
	case declEnum:
		return "enum"
	case declAlias, declInlineAlias:
		return "type alias"
	}
	panic("unreachable")
}

// token is a declaration node that has been located but not compiled.
type token[N syntax.Node] struct {
	namespace string
	name      string
	src       *source
	node      N
}

func (t *token[N]) scope() scope {
	return scope{namespace: t.namespace, src: t.src}
}

type typeToken struct {
	token[syntax.Node]
	kind     declKind
	compiled bool
}

type functionToken struct {
	token[*syntax.FunctionDecl]
	compiled bool
}

type importToken struct {
	name string
	src  *source
	node *syntax.Import
}

// tokens indexes every declaration of a compilation by qualified name.
// A name may be declared more than once, for example by two sources that
// each carry a copy of a shared type.
type tokens struct {
	imports []*importToken

	types     map[string][]*typeToken
	typeOrder []string

	functions     map[string][]*functionToken
	functionOrder []string

	services     map[string][]*token[*syntax.Service]
	serviceOrder []string

	policies    map[string][]*token[*syntax.Policy]
	policyOrder []string

	views     map[string][]*token[*syntax.View]
	viewOrder []string

	extensions []*token[syntax.Decl]
}

func addToken[T any](m map[string][]T, order *[]string, name string, tok T) {
	if _, ok := m[name]; !ok {
		*order = append(*order, name)
	}
	m[name] = append(m[name], tok)
}

// declName qualifies the name of a declaration. Unlike references,
// declarations are never namespace-exempt.
func declName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

func collectTokens(sources []*source) *tokens {
	t := &tokens{
		types:     make(map[string][]*typeToken),
		functions: make(map[string][]*functionToken),
		services:  make(map[string][]*token[*syntax.Service]),
		policies:  make(map[string][]*token[*syntax.Policy]),
		views:     make(map[string][]*token[*syntax.View]),
	}
	for _, src := range sources {
		for _, node := range src.file.Imports() {
			name := node.Name().String()
			src.imports = append(src.imports, name)
			t.imports = append(t.imports, &importToken{
				name: name,
				src:  src,
				node: node,
			})
		}
		for _, decl := range src.file.Decls() {
			t.collectDecl("", src, decl)
		}
		for _, ns := range src.file.Namespaces() {
			namespace := ns.Name().String()
			for _, decl := range ns.Decls() {
				t.collectDecl(namespace, src, decl)
			}
		}
	}
	return t
}

func (t *tokens) addType(kind declKind, namespace, name string, src *source, node syntax.Node) {
	addToken(t.types, &t.typeOrder, name, &typeToken{
		token: token[syntax.Node]{
			namespace: namespace,
			name:      name,
			src:       src,
			node:      node,
		},
		kind: kind,
	})
}

func (t *tokens) collectDecl(namespace string, src *source, decl syntax.Decl) {
	name := declName(namespace, decl.Name().Unescaped())
	switch node := decl.(type) {
	case *syntax.TypeDecl:
		t.addType(declObjectType, namespace, name, src, node)
		for _, field := range node.Fields() {
			if field.FieldType().InlineAliasOf() == nil {
				continue
			}
			aliasName := declName(namespace, field.FieldType().TypeRef().Name().String())
			t.addType(declInlineAlias, namespace, aliasName, src, field)
		}
	case *syntax.EnumDecl:
		t.addType(declEnum, namespace, name, src, node)
	case *syntax.AliasDecl:
		t.addType(declAlias, namespace, name, src, node)
	case *syntax.TypeExtension, *syntax.AliasExtension, *syntax.EnumExtension:
		t.extensions = append(t.extensions, &token[syntax.Decl]{
			namespace: namespace,
			name:      name,
			src:       src,
			node:      node,
		})
	case *syntax.Service:
		addToken(t.services, &t.serviceOrder, name, &token[*syntax.Service]{
			namespace: namespace,
			name:      name,
			src:       src,
			node:      node,
		})
	case *syntax.Policy:
		addToken(t.policies, &t.policyOrder, name, &token[*syntax.Policy]{
			namespace: namespace,
			name:      name,
			src:       src,
			node:      node,
		})
	case *syntax.FunctionDecl:
		addToken(t.functions, &t.functionOrder, name, &functionToken{
			token: token[*syntax.FunctionDecl]{
				namespace: namespace,
				name:      name,
				src:       src,
				node:      node,
			},
		})
	case *syntax.View:
		addToken(t.views, &t.viewOrder, name, &token[*syntax.View]{
			namespace: namespace,
			name:      name,
			src:       src,
			node:      node,
		})
	default:
		panic("unreachable")
	}
}

func (t *tokens) declaredTypeNames() []string {
	if t == nil {
		return nil
	}
	names := slices.Clone(t.typeOrder)
	slices.Sort(names)
	return names
}

func (t *tokens) declaredImports() []string {
	if t == nil {
		return nil
	}
	var names []string
	for _, imp := range t.imports {
		if !slices.Contains(names, imp.name) {
			names = append(names, imp.name)
		}
	}
	return names
}

// isLocal reports whether a type or function of this name is declared by
// the sources being compiled.
func (t *tokens) isLocal(name string) bool {
	if _, ok := t.types[name]; ok {
		return true
	}
	_, ok := t.functions[name]
	return ok
}
