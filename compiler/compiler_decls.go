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
	"strings"

	"github.com/BlexSetlog/taxilang/schema"
	"github.com/BlexSetlog/taxilang/syntax"
)

// declNameNode returns the node that names a declaration, for error
// positions.
func declNameNode(node syntax.Node) syntax.Node {
	switch node := node.(type) {
	case syntax.Decl:
		return node.Name()
	case *syntax.Field:
		return node.FieldType().TypeRef().Name()
	}
	panic("unreachable")
}

func docText(doc *syntax.Doc) string {
	if doc == nil {
		return ""
	}
	return doc.Text()
}

func (c *compiler) compileAnnotations(nodes []*syntax.Annotation) []*schema.Annotation {
	var out []*schema.Annotation
	for _, node := range nodes {
		annotation := &schema.Annotation{Name: node.Name().String()}
		if value := node.Value(); value != nil {
			annotation.Params = append(annotation.Params, schema.AnnotationParam{
				Name:  "value",
				Value: value.Value(),
			})
		}
		for _, param := range node.Params() {
			annotation.Params = append(annotation.Params, schema.AnnotationParam{
				Name:  param.Name().Unescaped(),
				Value: param.Value().Value(),
			})
		}
		out = append(out, annotation)
	}
	return out
}

func (c *compiler) redefinitionErr(err error, at location) {
	var redef *schema.RedefinitionError
	if !errors.As(err, &redef) {
		panic("unreachable")
	}
	c.err(errRedefinition(
		redef.Kind,
		redef.Name,
		redef.Existing.String(),
		redef.Attempted.String(),
		at,
	))
}

// candidateNames lists the qualified names that a reference may denote,
// most specific first.
func (c *compiler) candidateNames(sc scope, raw string) []string {
	out := []string{schema.Qualify(sc.namespace, raw)}
	if !strings.Contains(raw, ".") {
		for _, imp := range sc.src.imports {
			if _, name := schema.SplitName(imp); name == raw {
				out = append(out, imp)
			}
		}
		if sc.namespace != "" {
			out = append(out, raw)
		}
	}
	return out
}

// lookupType finds a type by qualified name. A declaration that has not
// been compiled yet is compiled first.
func (c *compiler) lookupType(name string) (schema.Type, bool) {
	c.compileTypeTokens(name)
	t, ok := c.registry.get(name)
	if !ok {
		return nil, false
	}
	return t, true
}

func (c *compiler) resolveNamedType(sc scope, raw string, at location) (schema.Type, error) {
	if p, ok := schema.Primitive(raw); ok {
		return p, nil
	}
	if raw == "Void" || raw == schema.Void.QualifiedName() {
		return schema.Void, nil
	}
	for _, candidate := range c.candidateNames(sc, raw) {
		if t, ok := c.lookupType(candidate); ok {
			c.usedNames[candidate] = true
			return t, nil
		}
	}
	return nil, errUnresolvedType(raw, at)
}

// resolveName qualifies a reference to a registered type without
// compiling it.
func (c *compiler) resolveName(sc scope, raw string) (string, bool) {
	for _, candidate := range c.candidateNames(sc, raw) {
		if c.registry.contains(candidate) {
			c.usedNames[candidate] = true
			return candidate, true
		}
	}
	return "", false
}

func (c *compiler) resolveTypeRef(sc scope, ref *syntax.TypeRef) (schema.Type, error) {
	t, err := c.resolveNamedType(sc, ref.Name().String(), sc.at(ref.Name()))
	if err != nil {
		return nil, err
	}
	for range ref.ArrayDepth() {
		t = schema.NewArrayType(t, sc.unit(ref))
	}
	return t, nil
}

func (c *compiler) compileFieldType(sc scope, node *syntax.FieldType) (schema.Type, error) {
	members := node.UnionMembers()
	if members == nil {
		return c.resolveTypeRef(sc, node.TypeRef())
	}
	types := make([]schema.Type, 0, len(members))
	var firstErr error
	for _, member := range members {
		t, err := c.resolveTypeRef(sc, member)
		if err != nil {
			c.err(err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		types = append(types, t)
	}
	if firstErr != nil {
		return nil, nil
	}
	return schema.NewUnionType(types, sc.unit(node)), nil
}

func (c *compiler) compileTypeTokens(name string) {
	for _, tok := range c.tokens.types[name] {
		if tok.compiled {
			continue
		}
		tok.compiled = true
		c.compileTypeToken(tok)
	}
}

func (c *compiler) compileTypeToken(tok *typeToken) {
	switch tok.kind {
	case declObjectType:
		c.compileObjectType(tok)
	case declEnum:
		c.compileEnum(tok)
	case declAlias:
		node := tok.node.(*syntax.AliasDecl)
		c.compileAlias(tok, node.Aliased(), &schema.TypeAliasDefinition{
			Annotations: c.compileAnnotations(node.Annotations()),
			Doc:         docText(node.Doc()),
			Unit:        tok.src.unit(node),
		})
	case declInlineAlias:
		node := tok.node.(*syntax.Field)
		c.compileAlias(tok, node.FieldType().InlineAliasOf(), &schema.TypeAliasDefinition{
			Unit: tok.src.unit(node.FieldType()),
		})
	default:
		panic("unreachable")
	}
}

func (c *compiler) compileObjectType(tok *typeToken) {
	node := tok.node.(*syntax.TypeDecl)
	sc := tok.scope()
	registered, _ := c.registry.get(tok.name)
	t, ok := registered.(*schema.ObjectType)
	if !ok {
		return
	}

	def := &schema.ObjectTypeDefinition{
		Annotations: c.compileAnnotations(node.Annotations()),
		Doc:         docText(node.Doc()),
		Unit:        sc.unit(node),
	}
	for _, modifier := range node.Modifiers() {
		def.Modifiers = append(def.Modifiers, schema.Modifier(modifier.Get()))
	}
	c.inheriting[tok.name] = true
	for _, ref := range node.Inherits() {
		parent, err := c.resolveTypeRef(sc, ref)
		if err != nil {
			c.err(err)
			continue
		}
		parentType, ok := parent.(*schema.ObjectType)
		if !ok {
			c.err(errInvalidInheritance(parent.QualifiedName(), sc.at(ref)))
			continue
		}
		if c.inheriting[parentType.QualifiedName()] {
			c.err(errCircularInheritance(tok.name, parentType.QualifiedName(), sc.at(ref)))
			continue
		}
		def.Inherits = append(def.Inherits, parentType)
	}
	delete(c.inheriting, tok.name)
	c.checkInheritedFields(sc, def, node)

	ctx := exprCtx{scope: sc, owner: t}
	seen := make(map[string]bool)
	for _, fieldNode := range node.Fields() {
		name := fieldNode.Name().Unescaped()
		if seen[name] {
			c.err(errDuplicateField(name, tok.name, sc.at(fieldNode.Name())))
			continue
		}
		seen[name] = true
		if field := c.compileField(ctx, fieldNode); field != nil {
			def.Fields = append(def.Fields, field)
		}
	}

	if err := t.Define(def); err != nil {
		c.redefinitionErr(err, sc.at(node.Name()))
	}
}

// checkInheritedFields reports fields that two different ancestors declare
// with different types. Inheriting one field along several paths is not
// an error.
func (c *compiler) checkInheritedFields(sc scope, def *schema.ObjectTypeDefinition, node *syntax.TypeDecl) {
	type origin struct {
		owner    string
		typeName string
	}
	seen := make(map[string]origin)
	reported := make(map[string]bool)
	for _, parent := range def.Inherits {
		ancestors := append([]*schema.ObjectType{parent}, parent.AllInheritedTypes()...)
		for _, ancestor := range ancestors {
			for _, field := range ancestor.Fields() {
				cur := origin{ancestor.QualifiedName(), field.Type.QualifiedName()}
				prev, ok := seen[field.Name]
				if !ok {
					seen[field.Name] = cur
					continue
				}
				if prev.owner == cur.owner || prev.typeName == cur.typeName || reported[field.Name] {
					continue
				}
				reported[field.Name] = true
				c.err(errInheritedFieldConflict(field.Name, prev.owner, cur.owner, sc.at(node.Name())))
			}
		}
	}
}

func (c *compiler) compileField(ctx exprCtx, node *syntax.Field) *schema.Field {
	sc := ctx.scope
	fieldType := node.FieldType()
	t, err := c.compileFieldType(sc, fieldType)
	if err != nil {
		c.err(err)
		return nil
	}
	if t == nil {
		return nil
	}
	ref := fieldType.TypeRef()
	field := &schema.Field{
		Name:        node.Name().Unescaped(),
		Type:        t,
		Nullable:    ref.Nullable(),
		Closed:      node.Closed(),
		Annotations: c.compileAnnotations(node.Annotations()),
		Doc:         docText(node.Doc()),
		Unit:        sc.unit(node),
	}
	field.Constraints = c.compileConstraints(sc, ref.Constraints(), t, nil, "")

	var accessor schema.Accessor
	if accessorNode := node.Accessor(); accessorNode != nil {
		accessor = c.compileExpr(ctx, accessorNode.Expr())
	}
	if destructure := node.Destructure(); destructure != nil {
		accessor = c.compileDestructure(ctx, t, destructure, accessor)
	}
	field.Accessor = accessor
	return field
}

func (c *compiler) compileEnum(tok *typeToken) {
	node := tok.node.(*syntax.EnumDecl)
	sc := tok.scope()
	registered, _ := c.registry.get(tok.name)
	t, ok := registered.(*schema.EnumType)
	if !ok {
		return
	}

	def := &schema.EnumDefinition{
		Lenient:       node.Lenient(),
		Annotations:   c.compileAnnotations(node.Annotations()),
		Doc:           docText(node.Doc()),
		Unit:          sc.unit(node),
		BasePrimitive: schema.String,
	}
	allInts := len(node.Values()) > 0
	seen := make(map[string]bool)
	for _, valueNode := range node.Values() {
		name := valueNode.Name().Unescaped()
		if seen[name] {
			c.err(errDuplicateEnumValue(name, tok.name, sc.at(valueNode.Name())))
			continue
		}
		seen[name] = true

		var value any = name
		if lit := valueNode.Value(); lit != nil {
			value = lit.Value()
		}
		if _, ok := value.(int64); !ok {
			allInts = false
		}
		def.Values = append(def.Values, &schema.EnumValue{
			Name:          name,
			Value:         value,
			QualifiedName: tok.name + "." + name,
			Annotations:   c.compileAnnotations(valueNode.Annotations()),
			Synonyms:      c.compileSynonyms(sc, valueNode.Synonyms()),
			Doc:           docText(valueNode.Doc()),
			IsDefault:     valueNode.IsDefault(),
			Unit:          sc.unit(valueNode),
		})
	}
	if allInts {
		def.BasePrimitive = schema.Int
	}

	if err := t.Define(def); err != nil {
		c.redefinitionErr(err, sc.at(node.Name()))
	}
}

// compileSynonyms qualifies `synonym of` references. Whether each named
// value exists is checked once every enum has been compiled.
func (c *compiler) compileSynonyms(sc scope, nodes []*syntax.QualifiedName) []string {
	var out []string
	for _, node := range nodes {
		raw := node.String()
		enumName, valueName := schema.SplitName(raw)
		qualified, ok := c.resolveName(sc, enumName)
		if enumName == "" || !ok {
			c.err(errUnresolvedType(raw, sc.at(node)))
			continue
		}
		synonym := qualified + "." + valueName
		out = append(out, synonym)

		at := sc.at(node)
		c.deferred = append(c.deferred, func() {
			registered, _ := c.registry.get(qualified)
			enum, ok := registered.(*schema.EnumType)
			if !ok {
				c.err(errUnresolvedType(raw, at))
				return
			}
			if _, ok := enum.Value(valueName); !ok {
				c.err(errNotAnEnumValue(synonym, at))
			}
		})
	}
	return out
}

// compileAlias defines an explicit or inline alias. An alias whose chain
// leads back to itself is rejected and left undefined.
func (c *compiler) compileAlias(tok *typeToken, aliased *syntax.TypeRef, def *schema.TypeAliasDefinition) {
	sc := tok.scope()
	registered, _ := c.registry.get(tok.name)
	alias, ok := registered.(*schema.TypeAlias)
	if !ok {
		return
	}
	t, err := c.resolveTypeRef(sc, aliased)
	if err != nil {
		c.err(err)
		return
	}
	if reachesAlias(t, alias) {
		c.err(errCircularAlias(tok.name, sc.at(declNameNode(tok.node))))
		return
	}
	def.AliasType = t
	if err := alias.Define(def); err != nil {
		c.redefinitionErr(err, sc.at(declNameNode(tok.node)))
	}
}

func reachesAlias(t schema.Type, target *schema.TypeAlias) bool {
	seen := make(map[*schema.TypeAlias]bool)
	for {
		alias, ok := t.(*schema.TypeAlias)
		if !ok || seen[alias] {
			return false
		}
		if alias == target {
			return true
		}
		seen[alias] = true
		t = alias.AliasType()
		if t == nil {
			return false
		}
	}
}
