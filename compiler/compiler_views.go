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

	"github.com/BlexSetlog/taxilang/schema"
	"github.com/BlexSetlog/taxilang/syntax"
)

// viewCtx is the `find` clause whose projection is being compiled.
type viewCtx struct {
	name       string
	members    []string
	projection *schema.ObjectType
}

func (c *compiler) compileViews() {
	for _, name := range c.tokens.viewOrder {
		for _, tok := range c.tokens.views[name] {
			view := c.compileView(tok)
			prev, ok := c.views[name]
			if !ok {
				c.views[name] = view
				continue
			}
			unit := view.CompilationUnits()[0]
			if !prev.Equal(view) {
				c.err(errRedefinition(
					"view",
					name,
					prev.CompilationUnits()[0].String(),
					unit.String(),
					tok.src.at(tok.node.Name()),
				))
				continue
			}
			prev.AddCompilationUnit(unit)
		}
	}
}

func (c *compiler) compileView(tok *token[*syntax.View]) *schema.View {
	sc := tok.scope()
	node := tok.node
	view := schema.NewView(tok.name, sc.unit(node))
	view.Annotations = c.compileAnnotations(node.Annotations())
	view.Doc = docText(node.Doc())
	for _, ref := range node.Inherits() {
		t, err := c.resolveTypeRef(sc, ref)
		if err != nil {
			c.err(err)
			continue
		}
		view.Inherits = append(view.Inherits, t)
	}
	for _, findNode := range node.Finds() {
		if find, ok := c.compileFind(sc, tok.name, findNode); ok {
			view.Finds = append(view.Finds, find)
		}
	}
	return view
}

func (c *compiler) compileFind(sc scope, viewName string, node *syntax.ViewFind) (*schema.ViewFind, bool) {
	var members []schema.Type
	failed := false
	for _, memberNode := range node.Members() {
		var types []schema.Type
		for _, ref := range memberNode.Types() {
			t, err := c.resolveTypeRef(sc, ref)
			if err != nil {
				c.err(err)
				failed = true
				continue
			}
			types = append(types, t)
		}
		if failed {
			continue
		}
		if len(types) == 1 {
			members = append(members, types[0])
		} else {
			members = append(members, schema.NewUnionType(types, sc.unit(memberNode)))
		}
	}
	if failed {
		return nil, false
	}

	find := &schema.ViewFind{
		Source: members[0],
		Unit:   sc.unit(node),
	}
	if len(members) > 1 {
		find.Source = schema.NewJoinType(members[0], members[1:], sc.unit(node))
	}
	if !node.HasAs() {
		return find, true
	}

	vctx := &viewCtx{
		name:       viewName,
		members:    sourceNames(members),
		projection: schema.NewObjectType(viewName),
	}
	ctx := exprCtx{scope: sc, owner: vctx.projection, view: vctx}
	def := &schema.ObjectTypeDefinition{Unit: sc.unit(node)}
	for _, fieldNode := range node.Fields() {
		name := fieldNode.Name().Unescaped()
		if slices.ContainsFunc(def.Fields, func(f *schema.Field) bool { return f.Name == name }) {
			c.err(errDuplicateField(name, viewName, sc.at(fieldNode.Name())))
			continue
		}
		if field, ok := c.compileViewField(ctx, fieldNode); ok {
			def.Fields = append(def.Fields, field)
		}
	}
	if err := vctx.projection.Define(def); err != nil {
		panic("unreachable")
	}
	find.Projection = vctx.projection
	return find, true
}

func (c *compiler) compileViewField(ctx exprCtx, node *syntax.ViewField) (*schema.Field, bool) {
	field := &schema.Field{
		Name:        node.Name().Unescaped(),
		Annotations: c.compileAnnotations(node.Annotations()),
		Doc:         docText(node.Doc()),
		Unit:        ctx.unit(node),
	}
	if ref := node.TypeRef(); ref != nil {
		t, err := c.resolveTypeRef(ctx.scope, ref)
		if err != nil {
			c.err(err)
			return nil, false
		}
		field.Type = t
		field.Nullable = ref.Nullable()
	} else {
		typeName := node.SourceType()
		t, err := c.resolveNamedType(ctx.scope, typeName.String(), ctx.at(typeName))
		if err != nil {
			c.err(err)
			return nil, false
		}
		source, ok := c.checkViewSource(ctx, node.Source(), t)
		if !ok {
			return nil, false
		}
		field.Type = t
		field.Source = source
	}
	if accessor := node.Accessor(); accessor != nil {
		field.Accessor = c.compileExpr(ctx, accessor.Expr())
	}
	return field, true
}

// sourceNames lists the types a projection may select from: each join
// member, with arrays and unions unwrapped.
func sourceNames(members []schema.Type) []string {
	var out []string
	var visit func(schema.Type)
	visit = func(t schema.Type) {
		switch t := t.(type) {
		case *schema.ArrayType:
			visit(t.Member())
		case *schema.UnionType:
			for _, member := range t.Types() {
				visit(member)
			}
		default:
			out = append(out, t.QualifiedName())
		}
	}
	for _, member := range members {
		visit(member)
	}
	return out
}

func stripArrays(t schema.Type) schema.Type {
	for {
		array, ok := t.(*schema.ArrayType)
		if !ok {
			return t
		}
		t = array.Member()
	}
}

// checkViewSource resolves the `Source` of a `Source::Type` reference in a
// view. The source must be a member of the find clause, or the view
// itself, and must declare a field of the referenced type.
func (c *compiler) checkViewSource(ctx exprCtx, node *syntax.QualifiedName, target schema.Type) (schema.Type, bool) {
	vctx := ctx.view
	raw := node.String()
	_, viewShortName := schema.SplitName(vctx.name)
	if raw == viewShortName || raw == vctx.name {
		return vctx.projection, true
	}

	source, err := c.resolveNamedType(ctx.scope, raw, ctx.at(node))
	if err != nil {
		c.err(err)
		return nil, false
	}
	if !slices.Contains(vctx.members, source.QualifiedName()) {
		c.err(errNotViewSource(source.QualifiedName(), vctx.name, ctx.at(node)))
		return nil, false
	}
	if object, ok := elementType(source).(*schema.ObjectType); ok {
		for _, field := range object.AllFields() {
			if stripArrays(field.Type).QualifiedName() == target.QualifiedName() {
				return source, true
			}
		}
	}
	c.err(errNoFieldOfType(source.QualifiedName(), target.QualifiedName(), ctx.at(node)))
	return nil, false
}
