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
	"errors"

	"github.com/BlexSetlog/taxilang/schema"
	"github.com/BlexSetlog/taxilang/syntax"
)

// compileExtensions applies every extension, in source order, to the
// already compiled type it names.
func (c *compiler) compileExtensions() {
	for _, tok := range c.tokens.extensions {
		sc := tok.scope()
		switch node := tok.node.(type) {
		case *syntax.TypeExtension:
			if t, ok := extensionTarget[*schema.ObjectType](c, sc, node, "type"); ok {
				c.extendObjectType(sc, t, node)
			}
		case *syntax.EnumExtension:
			if t, ok := extensionTarget[*schema.EnumType](c, sc, node, "enum"); ok {
				c.extendEnum(sc, t, node)
			}
		case *syntax.AliasExtension:
			if t, ok := extensionTarget[*schema.TypeAlias](c, sc, node, "type alias"); ok {
				err := t.AddExtension(&schema.TypeAliasExtension{
					Annotations: c.compileAnnotations(node.Annotations()),
					Doc:         docText(node.Doc()),
					Unit:        sc.unit(node),
				})
				if err != nil {
					c.err(errExtensionBeforeDefinition("type alias", sc.at(node.Name())))
				}
			}
		default:
			panic("unreachable")
		}
	}
}

func typeKindName(t schema.Type) string {
	switch t.(type) {
	case *schema.ObjectType:
		return "type"
	case *schema.EnumType:
		return "enum"
	case *schema.TypeAlias:
		return "type alias"
	}
	return "primitive type"
}

// extensionTarget finds the type an extension applies to. Only types
// declared by the sources being compiled may be extended; imported types
// belong to their own document.
func extensionTarget[T schema.UserType](c *compiler, sc scope, node syntax.Decl, kind string) (T, bool) {
	var zero T
	raw := node.Name().Unescaped()
	at := sc.at(node.Name())

	var found schema.Type
	if p, ok := schema.Primitive(raw); ok {
		found = p
	} else {
		for _, candidate := range c.candidateNames(sc, raw) {
			if t, ok := c.registry.get(candidate); ok {
				found = t
				break
			}
		}
	}
	if found == nil {
		c.err(errExtensionBeforeDefinition(kind, at))
		return zero, false
	}
	t, ok := found.(T)
	if !ok {
		c.err(errExtensionKindMismatch(kind, typeKindName(found), found.QualifiedName(), at))
		return zero, false
	}
	if !c.tokens.isLocal(t.QualifiedName()) {
		c.err(errExtensionKindMismatch(kind, "imported type", t.QualifiedName(), at))
		return zero, false
	}
	if !t.IsDefined() {
		c.err(errExtensionBeforeDefinition(kind, at))
		return zero, false
	}
	c.usedNames[t.QualifiedName()] = true
	return t, true
}

func (c *compiler) extendObjectType(sc scope, t *schema.ObjectType, node *syntax.TypeExtension) {
	ext := &schema.ObjectTypeExtension{
		Annotations: c.compileAnnotations(node.Annotations()),
		Doc:         docText(node.Doc()),
		Unit:        sc.unit(node),
	}
	for _, fieldNode := range node.Fields() {
		name := fieldNode.Name().Unescaped()
		field, ok := ownField(t, name)
		if !ok {
			c.err(errFieldNotFound(name, t.QualifiedName(), sc.at(fieldNode.Name())))
			continue
		}
		fieldExt := &schema.FieldExtension{
			Name:        name,
			Annotations: c.compileAnnotations(fieldNode.Annotations()),
			Doc:         docText(fieldNode.Doc()),
			Unit:        sc.unit(fieldNode),
		}
		if ref := fieldNode.RefinedType(); ref != nil {
			refined, err := c.resolveTypeRef(sc, ref)
			if err != nil {
				c.err(err)
				continue
			}
			refinedUnderlying := schema.Underlying(refined)
			if refinedUnderlying.QualifiedName() != schema.Underlying(field.Type).QualifiedName() {
				c.err(errIncompatibleRefinement(
					name,
					t.QualifiedName(),
					refined.QualifiedName(),
					refinedUnderlying.QualifiedName(),
					field.Type.QualifiedName(),
					sc.at(ref),
				))
				continue
			}
			fieldExt.RefinedType = refined
		}
		ext.Fields = append(ext.Fields, fieldExt)
	}
	if err := t.AddExtension(ext); err != nil {
		c.err(errExtensionBeforeDefinition("type", sc.at(node.Name())))
	}
}

func ownField(t *schema.ObjectType, name string) (*schema.Field, bool) {
	for _, field := range t.Fields() {
		if field.Name == name {
			return field, true
		}
	}
	return nil, false
}

func (c *compiler) extendEnum(sc scope, t *schema.EnumType, node *syntax.EnumExtension) {
	ext := &schema.EnumExtension{
		Annotations: c.compileAnnotations(node.Annotations()),
		Doc:         docText(node.Doc()),
		Unit:        sc.unit(node),
	}
	for _, valueNode := range node.Values() {
		ext.Values = append(ext.Values, &schema.EnumValueExtension{
			Name:        valueNode.Name().Unescaped(),
			Annotations: c.compileAnnotations(valueNode.Annotations()),
			Synonyms:    c.compileSynonyms(sc, valueNode.Synonyms()),
			Doc:         docText(valueNode.Doc()),
			Unit:        sc.unit(valueNode),
		})
	}

	err := t.AddExtension(ext)
	var illegal *schema.IllegalEnumExtensionError
	switch {
	case err == nil:
	case errors.As(err, &illegal):
		c.err(errIllegalEnumExtension(illegal.Names, sc.at(node.Name())))
	default:
		c.err(errExtensionBeforeDefinition("enum", sc.at(node.Name())))
	}
}
