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

package schema_test

import (
	"errors"
	"testing"

	"github.com/BlexSetlog/taxilang/internal/testutil"
	"github.com/BlexSetlog/taxilang/schema"
	"github.com/BlexSetlog/taxilang/syntax"
)

func unitAt(source string, start, length uint32, line, column uint32) schema.CompilationUnit {
	return schema.CompilationUnit{
		SourceName: source,
		Span:       syntax.NewSpan(start, length),
		Position:   syntax.Position{Line: line, Column: column},
		End:        syntax.Position{Line: line, Column: column + length},
	}
}

func TestQualify(t *testing.T) {
	t.Parallel()
	testutil.ExpectEq(t, "acme.Foo", schema.Qualify("acme", "Foo"))
	testutil.ExpectEq(t, "other.Foo", schema.Qualify("acme", "other.Foo"))
	testutil.ExpectEq(t, "Foo", schema.Qualify("", "Foo"))
	testutil.ExpectEq(t, "String", schema.Qualify("acme", "String"))

	ns, name := schema.SplitName("acme.orders.Order")
	testutil.ExpectEq(t, "acme.orders", ns)
	testutil.ExpectEq(t, "Order", name)
}

func TestPrimitives(t *testing.T) {
	t.Parallel()
	p, ok := schema.Primitive("String")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, schema.String, p)

	p, ok = schema.Primitive("lang.taxi.Int")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, schema.Int, p)

	_, ok = schema.Primitive("Strung")
	testutil.ExpectFalse(t, ok)
	testutil.ExpectTrue(t, schema.IsPrimitive("Void"))
	testutil.ExpectEq(t, "lang.taxi.Void", schema.Void.QualifiedName())
}

func TestCompositeTypeNames(t *testing.T) {
	t.Parallel()
	foo := schema.NewObjectType("acme.Foo")
	bar := schema.NewObjectType("acme.Bar")

	array := schema.NewArrayType(foo, schema.CompilationUnit{})
	testutil.ExpectEq(t, "lang.taxi.Array<acme.Foo>", array.QualifiedName())

	union := schema.NewUnionType([]schema.Type{foo, bar}, schema.CompilationUnit{})
	testutil.ExpectEq(t, "acme.Foo|acme.Bar", union.QualifiedName())

	join := schema.NewJoinType(array, []schema.Type{bar}, schema.CompilationUnit{})
	testutil.ExpectEq(t, "lang.taxi.Array<acme.Foo> joinTo acme.Bar", join.QualifiedName())
	testutil.ExpectEq(t, 2, len(join.Members()))
}

func TestObjectTypeRedefinition(t *testing.T) {
	t.Parallel()
	first := &schema.ObjectTypeDefinition{
		Fields: []*schema.Field{
			{Name: "a", Type: schema.String},
			{Name: "b", Type: schema.Int},
		},
		Unit: unitAt("a.taxi", 0, 10, 1, 1),
	}
	reordered := &schema.ObjectTypeDefinition{
		Fields: []*schema.Field{
			{Name: "b", Type: schema.Int},
			{Name: "a", Type: schema.String},
		},
		Unit: unitAt("b.taxi", 0, 10, 1, 1),
	}
	different := &schema.ObjectTypeDefinition{
		Fields: []*schema.Field{
			{Name: "a", Type: schema.Int},
			{Name: "b", Type: schema.Int},
		},
		Unit: unitAt("c.taxi", 0, 10, 1, 1),
	}

	foo := schema.NewObjectType("acme.Foo")
	testutil.ExpectFalse(t, foo.IsDefined())
	testutil.AssertNoError(t, foo.Define(first))
	testutil.ExpectTrue(t, foo.IsDefined())
	testutil.AssertNoError(t, foo.Define(reordered))
	testutil.ExpectEq(t, 2, len(foo.CompilationUnits()))

	err := foo.Define(different)
	var redef *schema.RedefinitionError
	if !errors.As(err, &redef) {
		t.Fatalf("expected *RedefinitionError, got %v", err)
	}
	testutil.ExpectEq(t, "acme.Foo", redef.Name)
	testutil.ExpectEq(t, "a.taxi", redef.Existing.SourceName)
	testutil.ExpectEq(t, "c.taxi", redef.Attempted.SourceName)
	testutil.ExpectMatch(t, `^Cannot redefine type acme\.Foo: definition in c\.taxi:1:1 conflicts`, err.Error())
}

func TestObjectTypeExtension(t *testing.T) {
	t.Parallel()
	foo := schema.NewObjectType("acme.Foo")
	ext := &schema.ObjectTypeExtension{
		Annotations: []*schema.Annotation{{Name: "Ext"}},
		Fields: []*schema.FieldExtension{{
			Name:        "a",
			Annotations: []*schema.Annotation{{Name: "Id"}},
			Doc:         "The identifier.",
		}},
	}
	err := foo.AddExtension(ext)
	testutil.ExpectTrue(t, errors.Is(err, schema.ErrNotDefined))

	testutil.AssertNoError(t, foo.Define(&schema.ObjectTypeDefinition{
		Fields:      []*schema.Field{{Name: "a", Type: schema.String}},
		Annotations: []*schema.Annotation{{Name: "Base"}},
	}))
	testutil.AssertNoError(t, foo.AddExtension(ext))

	testutil.ExpectEq(t, 2, len(foo.Annotations()))
	field, ok := foo.Field("a")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, 1, len(field.Annotations))
	testutil.ExpectEq(t, "Id", field.Annotations[0].Name)
	testutil.ExpectEq(t, "The identifier.", field.Doc)

	// the definition itself is not modified
	testutil.ExpectEq(t, 0, len(foo.Definition().Fields[0].Annotations))
}

func TestInheritanceFlattening(t *testing.T) {
	t.Parallel()
	typeA := schema.NewObjectType("TypeA")
	typeB := schema.NewObjectType("TypeB")
	typeC := schema.NewObjectType("TypeC")
	typeD := schema.NewObjectType("TypeD")

	testutil.AssertNoError(t, typeA.Define(&schema.ObjectTypeDefinition{
		Fields: []*schema.Field{{Name: "a", Type: schema.String}},
	}))
	testutil.AssertNoError(t, typeB.Define(&schema.ObjectTypeDefinition{
		Fields:   []*schema.Field{{Name: "b", Type: schema.String}},
		Inherits: []*schema.ObjectType{typeA},
	}))
	testutil.AssertNoError(t, typeC.Define(&schema.ObjectTypeDefinition{
		Fields:   []*schema.Field{{Name: "c", Type: schema.String}},
		Inherits: []*schema.ObjectType{typeB},
	}))
	testutil.AssertNoError(t, typeD.Define(&schema.ObjectTypeDefinition{
		Fields:   []*schema.Field{{Name: "d", Type: schema.String}},
		Inherits: []*schema.ObjectType{typeA, typeB},
	}))

	fieldNames := func(fields []*schema.Field) []string {
		var out []string
		for _, f := range fields {
			out = append(out, f.Name)
		}
		return out
	}
	testutil.ExpectSliceEq(t, []string{"c", "b", "a"}, fieldNames(typeC.AllFields()))
	testutil.ExpectSliceEq(t, []string{"d", "a", "b"}, fieldNames(typeD.AllFields()))
	testutil.ExpectEq(t, 2, len(typeD.AllInheritedTypes()))
}

func TestAliasTransitivity(t *testing.T) {
	t.Parallel()
	aliasB := schema.NewTypeAlias("B")
	aliasC := schema.NewTypeAlias("C")
	testutil.AssertNoError(t, aliasC.Define(&schema.TypeAliasDefinition{AliasType: aliasB}))
	testutil.AssertNoError(t, aliasB.Define(&schema.TypeAliasDefinition{AliasType: schema.String}))

	testutil.ExpectEq(t, schema.Type(schema.String), aliasC.UnderlyingType())
	testutil.ExpectEq(t, schema.Type(aliasB), aliasC.AliasType())

	loop := schema.NewTypeAlias("Loop")
	testutil.AssertNoError(t, loop.Define(&schema.TypeAliasDefinition{AliasType: loop}))
	testutil.ExpectEq(t, schema.Type(loop), loop.UnderlyingType())
}

func TestAliasAnnotationOrder(t *testing.T) {
	t.Parallel()
	alias := schema.NewTypeAlias("Name")
	testutil.AssertNoError(t, alias.Define(&schema.TypeAliasDefinition{
		AliasType:   schema.String,
		Annotations: []*schema.Annotation{{Name: "Base"}},
	}))
	testutil.AssertNoError(t, alias.AddExtension(&schema.TypeAliasExtension{
		Annotations: []*schema.Annotation{{Name: "Ext"}},
	}))
	annotations := alias.Annotations()
	testutil.ExpectEq(t, 2, len(annotations))
	testutil.ExpectEq(t, "Ext", annotations[0].Name)
	testutil.ExpectEq(t, "Base", annotations[1].Name)
}

func newCurrency(t *testing.T, lenient bool) *schema.EnumType {
	t.Helper()
	currency := schema.NewEnumType("Currency")
	err := currency.Define(&schema.EnumDefinition{
		Lenient: lenient,
		Values: []*schema.EnumValue{
			{Name: "GBP", Value: "GBP", QualifiedName: "Currency.GBP"},
			{Name: "USD", Value: "USD", QualifiedName: "Currency.USD", IsDefault: true},
			{Name: "EUR", Value: "Euro", QualifiedName: "Currency.EUR"},
		},
	})
	testutil.AssertNoError(t, err)
	return currency
}

func TestEnumLookups(t *testing.T) {
	t.Parallel()
	currency := newCurrency(t, false)

	value, ok := currency.OfValue("Euro")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, "EUR", value.Name)

	value, ok = currency.Of("EUR")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, "EUR", value.Name)

	// unknown names fall back to the default value
	value, ok = currency.OfName("AUD")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, "USD", value.Name)

	_, ok = currency.Value("gbp")
	testutil.ExpectFalse(t, ok)
	testutil.ExpectEq(t, schema.String, currency.BasePrimitive())
}

func TestEnumLenient(t *testing.T) {
	t.Parallel()
	currency := newCurrency(t, true)
	value, ok := currency.OfName("gbp")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, "GBP", value.Name)

	value, ok = currency.OfValue("EURO")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, "EUR", value.Name)
}

func TestEnumExtension(t *testing.T) {
	t.Parallel()
	currency := newCurrency(t, false)

	err := currency.AddExtension(&schema.EnumExtension{
		Values: []*schema.EnumValueExtension{{Name: "AUD"}},
	})
	var illegal *schema.IllegalEnumExtensionError
	if !errors.As(err, &illegal) {
		t.Fatalf("expected *IllegalEnumExtensionError, got %v", err)
	}
	testutil.ExpectEq(t,
		"Cannot modify the members in an enum.  An extension attempted to add a new members AUD",
		err.Error())

	testutil.AssertNoError(t, currency.AddExtension(&schema.EnumExtension{
		Values: []*schema.EnumValueExtension{{
			Name:        "GBP",
			Annotations: []*schema.Annotation{{Name: "Sterling"}},
			Doc:         "Pounds sterling.",
		}},
	}))
	value, ok := currency.Value("GBP")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, 1, len(value.Annotations))
	testutil.ExpectEq(t, "Pounds sterling.", value.Doc)
	testutil.ExpectEq(t, 3, len(currency.Values()))
}

func TestServiceEquality(t *testing.T) {
	t.Parallel()
	newService := func(opNames ...string) *schema.Service {
		svc := schema.NewService("acme.Svc", schema.CompilationUnit{})
		for _, name := range opNames {
			svc.Operations = append(svc.Operations, &schema.Operation{
				Name:       name,
				ReturnType: schema.String,
				Contract: &schema.OperationContract{
					ReturnType: schema.String,
					Constraints: []schema.Constraint{
						&schema.ReturnValueDerivedFromParameterConstraint{AttributePath: "x"},
					},
				},
			})
		}
		return svc
	}
	testutil.ExpectTrue(t, newService("a", "b").Equal(newService("b", "a")))
	testutil.ExpectFalse(t, newService("a", "b").Equal(newService("a")))
	testutil.ExpectFalse(t, newService("a").Equal(newService("c")))
}

func TestConstraintStrings(t *testing.T) {
	t.Parallel()
	testutil.ExpectEq(t, `currency = "GBP"`, (&schema.AttributeConstantValueConstraint{
		FieldName:     "currency",
		ExpectedValue: "GBP",
	}).String())
	testutil.ExpectEq(t, "currency = target.currency", (&schema.AttributeValueFromParameterConstraint{
		FieldName:     "currency",
		AttributePath: "target.currency",
	}).String())
	testutil.ExpectEq(t, "from source", (&schema.ReturnValueDerivedFromParameterConstraint{
		AttributePath: "source",
	}).String())
}

func TestPolicyScopes(t *testing.T) {
	t.Parallel()
	scope, ok := schema.ParseOperationScope("external")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, schema.ScopeExternal, scope)
	_, ok = schema.ParseOperationScope("everywhere")
	testutil.ExpectFalse(t, ok)

	testutil.ExpectEq(t, "* internal", schema.DefaultPolicyScope.String())

	stmt := &schema.PolicyStatement{
		Condition: &schema.CaseCondition{
			Lhs:      &schema.RelativeSubject{Source: schema.SourceCaller, TargetType: schema.NewObjectType("Group")},
			Operator: schema.OperatorEqual,
			Rhs:      &schema.AnyOfValuesSubject{Values: []any{"admin", int64(3)}},
		},
		Instruction: schema.Instruction{Type: schema.InstructionProcess, Processor: "acme.Redact"},
	}
	testutil.ExpectEq(t, `case caller.Group = ["admin", 3] -> process using acme.Redact`, stmt.String())
}

func TestAccessorStrings(t *testing.T) {
	t.Parallel()
	concat := schema.NewFunction(
		"taxi.stdlib.concat",
		[]*schema.FunctionParameter{{Type: schema.String, Varargs: true}},
		schema.String,
		schema.CompilationUnit{},
	)
	testutil.ExpectEq(t, "concat(lang.taxi.String...): lang.taxi.String", concat.Signature())
	testutil.ExpectTrue(t, concat.Accepts(0))
	testutil.ExpectTrue(t, concat.Accepts(3))

	accessor := &schema.ConditionalAccessor{
		Selector: &schema.FieldReferenceAccessor{Path: "kind"},
		Cases: []*schema.WhenCase{
			{
				Lhs:    &schema.LiteralAccessor{Value: "a"},
				Result: &schema.FunctionAccessor{
					Function: concat,
					Args: []schema.Accessor{
						&schema.XPathAccessor{Expression: "/a"},
						&schema.ColumnAccessor{Index: int64(2)},
					},
				},
			},
			{Else: true, Result: &schema.LiteralAccessor{}},
		},
	}
	testutil.ExpectEq(t,
		`when(this.kind) { "a" -> taxi.stdlib.concat(xpath("/a"), column(2)) else -> null }`,
		accessor.String())

	var visited int
	schema.WalkAccessor(accessor, func(schema.Accessor) { visited++ })
	testutil.ExpectEq(t, 7, visited)
}

func TestDocumentLookups(t *testing.T) {
	t.Parallel()
	foo := schema.NewObjectType("acme.Foo")
	testutil.AssertNoError(t, foo.Define(&schema.ObjectTypeDefinition{}))
	name := schema.NewTypeAlias("acme.Name")
	testutil.AssertNoError(t, name.Define(&schema.TypeAliasDefinition{AliasType: schema.String}))

	doc := schema.NewDocument(schema.DocumentContents{
		Types:   []schema.Type{name, foo},
		Imports: []string{"b.X", "a.Y", "b.X"},
	})
	testutil.ExpectSliceEq(t, []string{"acme.Foo", "acme.Name"}, doc.TypeNames())
	testutil.ExpectSliceEq(t, []string{"a.Y", "b.X"}, doc.Imports())

	got, err := doc.ObjectType("acme.Foo")
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, foo, got)

	_, err = doc.EnumType("acme.Foo")
	testutil.ExpectTrue(t, errors.Is(err, schema.ErrWrongKind))
	testutil.ExpectEq(t, "acme.Foo is not an enum", err.Error())

	_, err = doc.Type("acme.Bar")
	testutil.ExpectTrue(t, errors.Is(err, schema.ErrNotFound))
	testutil.ExpectEq(t, "acme.Bar is not defined", err.Error())

	_, err = doc.Service("acme.Svc")
	var lookupErr *schema.LookupError
	testutil.ExpectTrue(t, errors.As(err, &lookupErr))

	str, err := doc.Type("String")
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, schema.Type(schema.String), str)
}

func TestDeclarationAt(t *testing.T) {
	t.Parallel()
	foo := schema.NewObjectType("acme.Foo")
	testutil.AssertNoError(t, foo.Define(&schema.ObjectTypeDefinition{
		Fields: []*schema.Field{{
			Name: "bar",
			Type: schema.String,
			Unit: unitAt("a.taxi", 15, 11, 2, 4),
		}},
		Unit: schema.CompilationUnit{
			SourceName: "a.taxi",
			Span:       syntax.NewSpan(0, 30),
			Position:   syntax.Position{Line: 1, Column: 1},
			End:        syntax.Position{Line: 3, Column: 2},
		},
	}))
	doc := schema.NewDocument(schema.DocumentContents{Types: []schema.Type{foo}})

	decl, ok := doc.DeclarationAt("a.taxi", 2, 6)
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, "acme.Foo.bar", decl.Name)
	testutil.ExpectEq(t, schema.DeclField, decl.Kind)

	decl, ok = doc.DeclarationAt("a.taxi", 1, 3)
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, "acme.Foo", decl.Name)

	_, ok = doc.DeclarationAt("b.taxi", 1, 3)
	testutil.ExpectFalse(t, ok)
	_, ok = doc.DeclarationAt("a.taxi", 4, 1)
	testutil.ExpectFalse(t, ok)

	testutil.ExpectEq(t, 1, len(doc.CompilationUnits("acme.Foo")))
}
