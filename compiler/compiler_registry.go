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
	"maps"
	"slices"

	"github.com/BlexSetlog/taxilang/schema"
)

// typeRegistry holds the single instance of each user type in a
// compilation. Local declarations are registered as placeholders before
// any of them is compiled, so references between declarations always
// resolve to a stable instance.
type typeRegistry struct {
	types map[string]schema.UserType
}

func newTypeRegistry() *typeRegistry {
	return &typeRegistry{
		types: make(map[string]schema.UserType),
	}
}

func (r *typeRegistry) get(name string) (schema.UserType, bool) {
	t, ok := r.types[name]
	return t, ok
}

func (r *typeRegistry) contains(name string) bool {
	_, ok := r.types[name]
	return ok
}

// register adds a type under its qualified name. It returns false if the
// name is held by a different instance.
func (r *typeRegistry) register(t schema.UserType) bool {
	name := t.QualifiedName()
	if prev, ok := r.types[name]; ok {
		return prev == t
	}
	r.types[name] = t
	return true
}

// all returns every registered type, sorted by name.
func (r *typeRegistry) all() []schema.UserType {
	out := make([]schema.UserType, 0, len(r.types))
	for _, name := range slices.Sorted(maps.Keys(r.types)) {
		out = append(out, r.types[name])
	}
	return out
}

// getOrCreatePlaceholder returns the type registered under name, creating
// an undefined one if there is none. It returns false if the name is held
// by a type of another kind.
func getOrCreatePlaceholder[T schema.UserType](
	r *typeRegistry,
	name string,
	create func(string) T,
) (T, bool) {
	if prev, ok := r.types[name]; ok {
		t, ok := prev.(T)
		return t, ok
	}
	t := create(name)
	r.types[name] = t
	return t, true
}

func (c *compiler) registerPlaceholders() {
	for _, name := range c.tokens.typeOrder {
		toks := c.tokens.types[name]
		for _, tok := range toks {
			var ok bool
			switch tok.kind {
			case declObjectType:
				_, ok = getOrCreatePlaceholder(c.registry, name, schema.NewObjectType)
			case declEnum:
				_, ok = getOrCreatePlaceholder(c.registry, name, schema.NewEnumType)
			case declAlias, declInlineAlias:
				_, ok = getOrCreatePlaceholder(c.registry, name, schema.NewTypeAlias)
			default:
				panic("unreachable")
			}
			if !ok {
				tok.compiled = true
				first := toks[0]
				c.err(errRedefinition(
					tok.kind.String(),
					name,
					first.src.unit(first.node).String(),
					tok.src.unit(tok.node).String(),
					tok.src.at(declNameNode(tok.node)),
				))
			}
		}
		if _, local := schema.SplitName(name); schema.IsPrimitive(local) {
			tok := toks[0]
			c.warn(warnDeclShadowsBuiltin(local, tok.src.at(declNameNode(tok.node))))
		}
	}
}
