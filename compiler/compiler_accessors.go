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
	"github.com/BlexSetlog/taxilang/schema"
	"github.com/BlexSetlog/taxilang/syntax"
)

// exprCtx is the context an accessor expression is compiled in. owner is
// the type whose fields `this` refers to, and view is set inside the
// projection of a view.
type exprCtx struct {
	scope
	owner *schema.ObjectType
	view  *viewCtx
}

// compileExpr compiles an accessor expression. Errors are reported and
// the failed operand is replaced with a null literal, so the result is
// never nil.
func (c *compiler) compileExpr(ctx exprCtx, node syntax.Node) schema.Accessor {
	switch node := node.(type) {
	case syntax.Literal:
		return &schema.LiteralAccessor{Value: node.Value()}
	case *syntax.ExtractExpr:
		return compileExtract(node)
	case *syntax.WhenExpr:
		return c.compileWhen(ctx, node)
	case *syntax.CalcExpr:
		return &schema.CalculatedAccessor{
			Lhs:      c.compileExpr(ctx, node.Lhs()),
			Operator: node.Operator().Get(),
			Rhs:      c.compileExpr(ctx, node.Rhs()),
		}
	case *syntax.CallExpr:
		return c.compileCall(ctx, node)
	case *syntax.ThisRef:
		c.deferFieldPath(ctx, node.Path())
		return &schema.FieldReferenceAccessor{Path: node.Path().String()}
	case *syntax.ModelRef:
		return c.compileModelRef(ctx, node)
	}
	panic("unreachable")
}

func compileExtract(node *syntax.ExtractExpr) schema.Accessor {
	value := node.Argument().Value()
	switch node.Kind() {
	case syntax.ExtractXPath:
		expr, _ := value.(string)
		return &schema.XPathAccessor{Expression: expr}
	case syntax.ExtractJSONPath:
		expr, _ := value.(string)
		return &schema.JSONPathAccessor{Expression: expr}
	case syntax.ExtractColumn:
		return &schema.ColumnAccessor{Index: value}
	case syntax.ExtractDefault:
		return &schema.DefaultAccessor{Value: value}
	}
	panic("unreachable")
}

func (c *compiler) compileWhen(ctx exprCtx, node *syntax.WhenExpr) schema.Accessor {
	when := &schema.ConditionalAccessor{}
	if selector := node.Selector(); selector != nil {
		when.Selector = c.compileExpr(ctx, selector)
	}
	for _, caseNode := range node.Cases() {
		whenCase := &schema.WhenCase{
			Else:   caseNode.IsElse(),
			Result: c.compileExpr(ctx, caseNode.Result()),
		}
		if !caseNode.IsElse() {
			whenCase.Lhs = c.compileExpr(ctx, caseNode.Lhs())
			if op := caseNode.Operator(); op != nil {
				whenCase.Operator = op.Get()
				whenCase.Rhs = c.compileExpr(ctx, caseNode.Rhs())
			}
		}
		when.Cases = append(when.Cases, whenCase)
	}
	return when
}

func (c *compiler) compileCall(ctx exprCtx, node *syntax.CallExpr) schema.Accessor {
	call := &schema.FunctionAccessor{}
	for _, arg := range node.Args() {
		call.Args = append(call.Args, c.compileExpr(ctx, arg))
	}
	f, err := c.resolveFunction(ctx.scope, node.Name().String(), ctx.at(node.Name()))
	if err != nil {
		c.err(err)
		return &schema.LiteralAccessor{}
	}
	if !f.Accepts(len(call.Args)) {
		c.err(errFunctionArity(functionDisplayName(f), arityText(f), len(call.Args), ctx.at(node)))
	}
	call.Function = f
	return call
}

// deferFieldPath checks a `this.path` reference once the owning type has
// been defined.
func (c *compiler) deferFieldPath(ctx exprCtx, path *syntax.QualifiedName) {
	if ctx.owner == nil {
		return
	}
	owner := ctx.owner
	sc := ctx.scope
	c.deferred = append(c.deferred, func() {
		var t schema.Type = owner
		for _, part := range path.Parts() {
			object, ok := elementType(t).(*schema.ObjectType)
			var field *schema.Field
			if ok {
				field, ok = object.Field(part.Unescaped())
			}
			if !ok {
				c.err(errFieldNotFound(part.Unescaped(), t.QualifiedName(), sc.at(part)))
				return
			}
			t = field.Type
		}
	})
}

func (c *compiler) compileModelRef(ctx exprCtx, node *syntax.ModelRef) schema.Accessor {
	target, err := c.resolveNamedType(ctx.scope, node.TypeName().String(), ctx.at(node.TypeName()))
	if err != nil {
		c.err(err)
		return &schema.LiteralAccessor{}
	}
	if ctx.view != nil {
		source, ok := c.checkViewSource(ctx, node.Source(), target)
		if !ok {
			return &schema.LiteralAccessor{}
		}
		return &schema.ModelAttributeAccessor{Source: source, Target: target}
	}
	source, err := c.resolveNamedType(ctx.scope, node.Source().String(), ctx.at(node.Source()))
	if err != nil {
		c.err(err)
		return &schema.LiteralAccessor{}
	}
	return &schema.ModelAttributeAccessor{Source: source, Target: target}
}

// compileDestructure builds the accessor of a field whose object value is
// populated field by field. The named fields must exist on the field's
// type.
func (c *compiler) compileDestructure(
	ctx exprCtx,
	fieldType schema.Type,
	node *syntax.Destructure,
	source schema.Accessor,
) schema.Accessor {
	inner := exprCtx{scope: ctx.scope, view: ctx.view}
	if object, ok := elementType(fieldType).(*schema.ObjectType); ok {
		inner.owner = object
	}
	destructured := &schema.DestructuredAccessor{Source: source}
	for _, fieldNode := range node.Fields() {
		field := &schema.DestructuredField{Name: fieldNode.Name().Unescaped()}
		if accessor := fieldNode.Accessor(); accessor != nil {
			field.Accessor = c.compileExpr(inner, accessor.Expr())
		}
		destructured.Fields = append(destructured.Fields, field)
	}

	sc := ctx.scope
	c.deferred = append(c.deferred, func() {
		object, ok := elementType(fieldType).(*schema.ObjectType)
		for _, fieldNode := range node.Fields() {
			name := fieldNode.Name().Unescaped()
			if ok {
				if _, found := object.Field(name); found {
					continue
				}
			}
			c.err(errFieldNotFound(name, fieldType.QualifiedName(), sc.at(fieldNode.Name())))
		}
	})
	return destructured
}
