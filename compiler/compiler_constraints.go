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

// constraintCheck is a constraint waiting for validation. Checks run once
// every declaration has been compiled, because the field paths they name
// may belong to types declared anywhere in the document.
type constraintCheck struct {
	sc         scope
	target     schema.Type
	constraint schema.Constraint
	node       *syntax.Constraint

	// Set for constraints on operation parameters and return types.
	op     *schema.Operation
	opName string
}

func (c *compiler) compileConstraints(
	sc scope,
	nodes []*syntax.Constraint,
	target schema.Type,
	op *schema.Operation,
	opName string,
) []schema.Constraint {
	var out []schema.Constraint
	for _, node := range nodes {
		var constraint schema.Constraint
		path := node.Path().String()
		unit := sc.unit(node)
		switch {
		case node.IsFrom():
			constraint = &schema.ReturnValueDerivedFromParameterConstraint{
				AttributePath: path,
				Unit:          unit,
			}
		case node.Value() != nil:
			constraint = &schema.AttributeConstantValueConstraint{
				FieldName:     path,
				ExpectedValue: node.Value().Value(),
				Unit:          unit,
			}
		case node.ValuePath() != nil:
			constraint = &schema.AttributeValueFromParameterConstraint{
				FieldName:     path,
				AttributePath: node.ValuePath().String(),
				Unit:          unit,
			}
		default:
			panic("unreachable")
		}
		out = append(out, constraint)
		c.constraints = append(c.constraints, &constraintCheck{
			sc:         sc,
			target:     target,
			constraint: constraint,
			node:       node,
			op:         op,
			opName:     opName,
		})
	}
	return out
}

func (c *compiler) validateConstraints() {
	for _, check := range c.constraints {
		c.validateConstraint(check)
	}
}

func (c *compiler) validateConstraint(check *constraintCheck) {
	node := check.node
	switch constraint := check.constraint.(type) {
	case *schema.ReturnValueDerivedFromParameterConstraint:
		c.checkParamPath(check, node.Path(), false)
	case *schema.AttributeConstantValueConstraint:
		field, ok := c.checkFieldPath(check, node.Path())
		if !ok {
			return
		}
		want, ok := literalAccepted(field, constraint.ExpectedValue)
		if !ok {
			c.err(errConstraintTypeMismatch(
				constraint.FieldName,
				want,
				literalTypeName(constraint.ExpectedValue),
				check.sc.at(node.Value()),
			))
		}
	case *schema.AttributeValueFromParameterConstraint:
		if _, ok := c.checkFieldPath(check, node.Path()); !ok {
			return
		}
		c.checkParamPath(check, node.ValuePath(), true)
	default:
		panic("unreachable")
	}
}

// checkFieldPath follows a dotted field path from the constrained type.
// Arrays are stepped through to their member type.
func (c *compiler) checkFieldPath(check *constraintCheck, path *syntax.QualifiedName) (*schema.Field, bool) {
	t := check.target
	var field *schema.Field
	for _, part := range path.Parts() {
		object, ok := elementType(t).(*schema.ObjectType)
		if ok {
			field, ok = object.Field(part.Unescaped())
		}
		if !ok {
			c.err(errConstraintTargetNotFound(
				part.Unescaped(),
				t.QualifiedName(),
				check.sc.at(part),
			))
			return nil, false
		}
		t = field.Type
	}
	return field, true
}

// checkParamPath requires the first segment of a path to name a parameter
// of the constrained operation. When allowTypes is set, the path may
// instead start with the name of a type. Paths in field constraints are
// not checked.
func (c *compiler) checkParamPath(check *constraintCheck, path *syntax.QualifiedName, allowTypes bool) {
	if check.op == nil {
		return
	}
	first := path.Parts()[0]
	name := first.Unescaped()
	for _, param := range check.op.Parameters {
		if param.Name == name {
			return
		}
	}
	if allowTypes {
		if _, ok := schema.Primitive(path.String()); ok {
			return
		}
		if _, ok := c.resolveName(check.sc, path.String()); ok {
			return
		}
		if _, ok := c.resolveName(check.sc, name); ok {
			return
		}
	}
	c.err(errConstraintParamNotFound(name, check.opName, check.sc.at(first)))
}

func elementType(t schema.Type) schema.Type {
	for {
		t = schema.Underlying(t)
		array, ok := t.(*schema.ArrayType)
		if !ok {
			return t
		}
		t = array.Member()
	}
}

func literalTypeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "String"
	case int64:
		return "Int"
	case float64:
		return "Decimal"
	case bool:
		return "Boolean"
	}
	panic("unreachable")
}

// literalAccepted reports whether a literal may be compared with a field's
// values. Types without a literal form accept anything.
func literalAccepted(field *schema.Field, value any) (string, bool) {
	t := schema.Underlying(field.Type)
	if value == nil {
		return t.QualifiedName(), field.Nullable
	}
	switch t := t.(type) {
	case *schema.EnumType:
		switch value.(type) {
		case string, int64:
			return t.QualifiedName(), true
		}
		return t.QualifiedName(), false
	case *schema.PrimitiveType:
		var ok bool
		switch t {
		case schema.String, schema.Date, schema.Time, schema.DateTime, schema.Instant:
			_, ok = value.(string)
		case schema.Int:
			_, ok = value.(int64)
		case schema.Decimal, schema.Double:
			switch value.(type) {
			case int64, float64:
				ok = true
			}
		case schema.Boolean:
			_, ok = value.(bool)
		default:
			ok = true
		}
		return t.Name(), ok
	}
	return t.QualifiedName(), true
}
