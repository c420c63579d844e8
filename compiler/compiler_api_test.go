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

package compiler_test

import (
	"errors"
	"testing"

	"github.com/BlexSetlog/taxilang/compiler"
	"github.com/BlexSetlog/taxilang/encoding/taxitext"
	"github.com/BlexSetlog/taxilang/internal/testutil"
	"github.com/BlexSetlog/taxilang/schema"
)

func mustCompile(t *testing.T, c *compiler.Compiler) *schema.Document {
	t.Helper()
	doc, err := c.Compile()
	testutil.AssertNoError(t, err)
	return doc
}

func TestSourceOrderIndependence(t *testing.T) {
	t.Parallel()
	a := `
namespace demo {
   model Order {
      customer : Customer
      total : Money
   }
   type alias Money as Decimal
}`
	b := `
namespace demo {
   model Customer {
      name : String
      orders : Order[]
   }
   type extension Order {
      @Indexed
      customer
   }
}`
	ab := mustCompile(t, compiler.ForStrings(a, b))
	ba := mustCompile(t, compiler.ForStrings(b, a))
	testutil.ExpectNoDiff(t, taxitext.Encode(ab), taxitext.Encode(ba))
}

func TestIdenticalRedefinition(t *testing.T) {
	t.Parallel()
	src := `
namespace demo {
   model Person {
      name : String
   }
}`
	doc := mustCompile(t, compiler.ForStrings(src, src))
	person, err := doc.ObjectType("demo.Person")
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 2, len(person.CompilationUnits()))
	testutil.ExpectEq(t, 1, len(person.Fields()))

	units := doc.CompilationUnits("demo.Person")
	testutil.ExpectEq(t, 2, len(units))
	testutil.ExpectEq(t, "StringSource-0", units[0].SourceName)
	testutil.ExpectEq(t, "StringSource-1", units[1].SourceName)
}

func TestEnumRedefinitionValueOrder(t *testing.T) {
	t.Parallel()
	doc := mustCompile(t, compiler.ForStrings(
		"enum Side { Buy, Sell }",
		"enum Side { Sell, Buy }",
	))
	side, err := doc.EnumType("Side")
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 2, len(side.CompilationUnits()))

	var names []string
	for _, value := range side.Values() {
		names = append(names, value.Name)
	}
	testutil.ExpectSliceEq(t, []string{"Buy", "Sell"}, names)

	errs := compiler.ForStrings(
		"enum Side { Buy, Sell }",
		"enum Side { Sell, Hold }",
	).Validate()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	testutil.ExpectEq(t, "RedefinitionConflictError", errs[0].Kind())
}

func TestAliasChain(t *testing.T) {
	t.Parallel()
	doc := mustCompile(t, compiler.ForStrings(`
type alias Amount as Money
type alias Money as Price
type alias Price as Decimal
`))
	amount, err := doc.TypeAlias("Amount")
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "Money", amount.AliasType().QualifiedName())
	testutil.ExpectEq[schema.Type](t, schema.Decimal, amount.UnderlyingType())
}

func TestInheritedFields(t *testing.T) {
	t.Parallel()
	doc := mustCompile(t, compiler.ForStrings(`
model TypeC inherits TypeB {
   c : String
}
model TypeD inherits TypeA, TypeB {
   d : String
}
model TypeB inherits TypeA {
   b : String
}
model TypeA {
   a : String
}
`))
	fieldNames := func(typeName string) []string {
		object, err := doc.ObjectType(typeName)
		testutil.AssertNoError(t, err)
		var names []string
		for _, field := range object.AllFields() {
			names = append(names, field.Name)
		}
		return names
	}
	testutil.ExpectSliceEq(t, []string{"c", "b", "a"}, fieldNames("TypeC"))
	testutil.ExpectSliceEq(t, []string{"d", "a", "b"}, fieldNames("TypeD"))

	typeC, _ := doc.ObjectType("TypeC")
	var ancestors []string
	for _, ancestor := range typeC.AllInheritedTypes() {
		ancestors = append(ancestors, ancestor.QualifiedName())
	}
	testutil.ExpectSliceEq(t, []string{"TypeB", "TypeA"}, ancestors)
}

func TestCircularInheritance(t *testing.T) {
	t.Parallel()
	errs := compiler.ForStrings("model A inherits A { x : String }").Validate()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	testutil.ExpectEq(t, "CircularInheritanceError", errs[0].Kind())
	testutil.ExpectEq(t,
		"Type A cannot inherit from A as it would create an inheritance cycle",
		errs[0].Message(),
	)

	errs = compiler.ForStrings(
		"model A inherits B { a : String }",
		"model B inherits A { b : String }",
	).Validate()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	testutil.ExpectEq(t, uint32(3022), errs[0].Code())
	testutil.ExpectEq(t, "StringSource-1", errs[0].SourceName())
}

func TestInheritFromReferencingType(t *testing.T) {
	t.Parallel()
	doc := mustCompile(t, compiler.ForStrings(`
model Owner {
   pet : Pet
}
model Pet inherits Owner {
   name : String
}
`))
	pet, err := doc.ObjectType("Pet")
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 1, len(pet.Inherits()))
	testutil.ExpectEq(t, "Owner", pet.Inherits()[0].QualifiedName())
}

func TestIncompatibleRefinementMessage(t *testing.T) {
	t.Parallel()
	errs := compiler.ForStrings(`
model Trade {
   price : Decimal
}
type alias Label as String
type extension Trade {
   price : Label
}
`).Validate()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	testutil.ExpectEq(t, "IncompatibleFieldRefinementError", errs[0].Kind())
	testutil.ExpectEq(t,
		"Cannot refine field price on Trade to Label as it maps to lang.taxi.String"+
			" which is incompatible with the existing type of lang.taxi.Decimal",
		errs[0].Message(),
	)
}

func TestImportClosure(t *testing.T) {
	t.Parallel()
	lib := mustCompile(t, compiler.ForStrings(`
namespace lib {
   model Book {
      author : Author
      tags : Tag[]
   }
   model Author {
      name : String
   }
   enum Tag { Fiction, Reference }
   model Unrelated {
      x : String
   }
}`))
	deps, err := compiler.Merge([]*schema.Document{lib})
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t,
		[]string{"lib.Author", "lib.Book", "lib.Tag", "lib.Unrelated"},
		deps.Names(),
	)

	doc := mustCompile(t, compiler.NewCompiler(
		[]compiler.Source{{Name: "shop.taxi", Content: []byte(`
import lib.Book

model Listing {
   book : Book
}`)}},
		compiler.WithDependencies(deps),
	))
	testutil.ExpectSliceEq(t,
		[]string{"Listing", "lib.Author", "lib.Book", "lib.Tag"},
		doc.TypeNames(),
	)
	testutil.ExpectSliceEq(t, []string{"lib.Book"}, doc.Imports())
}

func TestUnresolvedImport(t *testing.T) {
	t.Parallel()
	errs := compiler.ForStrings(`
import lib.Missing

model Listing {
   name : String
}`).Validate()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	testutil.ExpectEq(t, uint32(3001), errs[0].Code())
	testutil.ExpectEq(t, "Cannot import lib.Missing as it is not defined", errs[0].Message())
}

func TestUnresolvedOperationTypes(t *testing.T) {
	t.Parallel()
	errs := compiler.ForStrings(`
service Payments {
   operation pay(value : Missing(amount = 1)) : Unknown(amount = 1)
}`).Validate()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	testutil.ExpectEq(t, "Missing is not defined", errs[0].Message())
	testutil.ExpectEq(t, "Unknown is not defined", errs[1].Message())
}

func TestCompilationErrorFormat(t *testing.T) {
	t.Parallel()
	c := compiler.ForStrings("model Foo {\n   bar : Bar\n}\n")
	_, err := c.Compile()
	testutil.AssertError(t, err)

	var compileErr *compiler.CompilationError
	if !errors.As(err, &compileErr) {
		t.Fatalf("expected *compiler.CompilationError, got %T", err)
	}
	testutil.ExpectEq(t, 1, len(compileErr.Errors))
	testutil.ExpectEq(t, "Compilation Error: (2,10) Bar is not defined", err.Error())

	unresolved := compileErr.Errors[0]
	testutil.ExpectEq(t, "E3000: Bar is not defined", unresolved.Error())
	testutil.ExpectEq(t, uint32(2), unresolved.Line())
	testutil.ExpectEq(t, uint32(10), unresolved.Column())
	testutil.ExpectEq(t, compiler.UnknownSourceName, unresolved.SourceName())

	var target *compiler.Error
	testutil.ExpectTrue(t, errors.As(err, &target))
}

func TestSourceNames(t *testing.T) {
	t.Parallel()
	errs := compiler.ForStrings(
		"model Foo {\n   a : String\n}\n",
		"model Bar {\n   b : Missing\n}\n",
	).Validate()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	testutil.ExpectEq(t, "StringSource-1", errs[0].SourceName())

	result := compiler.Compile(
		[]compiler.Source{{Content: []byte("model Foo {\n   a : Missing\n}\n")}},
		compiler.WithSourceName("orders.taxi"),
	)
	testutil.ExpectEq(t, 1, len(result.Errors))
	testutil.ExpectEq(t, "orders.taxi", result.Errors[0].SourceName())
}

func TestEnumExtensionAnnotations(t *testing.T) {
	t.Parallel()
	doc := mustCompile(t, compiler.ForStrings(`
namespace demo {
   @Reference
   enum Side {
      @Primary
      Buy,
      Sell
   }
   @Audited
   enum extension Side {
      @Preferred
      Buy
   }
}`))
	side, err := doc.EnumType("demo.Side")
	testutil.AssertNoError(t, err)

	var annotations []string
	for _, annotation := range side.Annotations() {
		annotations = append(annotations, annotation.String())
	}
	testutil.ExpectSliceEq(t, []string{"@Reference", "@Audited"}, annotations)

	buy, ok := side.Value("Buy")
	testutil.AssertTrue(t, ok)
	annotations = nil
	for _, annotation := range buy.Annotations {
		annotations = append(annotations, annotation.String())
	}
	testutil.ExpectSliceEq(t, []string{"@Primary", "@Preferred"}, annotations)
}

func TestDeclaredNames(t *testing.T) {
	t.Parallel()
	c := compiler.ForStrings(`
import lib.Isbn
import lib.Isbn

namespace shop {
   model Book {
      id : BookId as String
      isbn : Isbn
   }
}`)
	testutil.ExpectSliceEq(t, []string{"shop.Book", "shop.BookId"}, c.DeclaredTypeNames())
	testutil.ExpectSliceEq(t, []string{"lib.Isbn"}, c.DeclaredImports())

	errs := c.Validate()
	testutil.ExpectEq(t, 2, len(errs))
	testutil.ExpectEq(t, "UnresolvedImportError", errs[0].Kind())
	testutil.ExpectEq(t, "UnresolvedTypeError", errs[1].Kind())
}

func TestDeclarationAt(t *testing.T) {
	t.Parallel()
	doc := mustCompile(t, compiler.ForStrings("model Foo {\n   bar : String\n}\n"))

	decl, ok := doc.DeclarationAt(compiler.UnknownSourceName, 2, 5)
	testutil.AssertTrue(t, ok)
	testutil.ExpectEq(t, "Foo.bar", decl.Name)
	testutil.ExpectEq(t, schema.DeclField, decl.Kind)

	decl, ok = doc.DeclarationAt(compiler.UnknownSourceName, 1, 3)
	testutil.AssertTrue(t, ok)
	testutil.ExpectEq(t, "Foo", decl.Name)
	testutil.ExpectEq(t, schema.DeclType, decl.Kind)
}

func TestStdlibFunctions(t *testing.T) {
	t.Parallel()
	src := []compiler.Source{{Content: []byte(`
model Trade {
   venue : String
   code : String by left(this.venue, 3)
   label : String by taxi.stdlib.concat(this.venue, "-", this.code)
}`)}}

	doc, err := compiler.NewCompiler(src).Compile()
	testutil.AssertNoError(t, err)
	testutil.ExpectFalse(t, doc.Contains("taxi.stdlib.left"))

	trade, err := doc.ObjectType("Trade")
	testutil.AssertNoError(t, err)
	code, ok := trade.Field("code")
	testutil.AssertTrue(t, ok)
	call, ok := code.Accessor.(*schema.FunctionAccessor)
	testutil.AssertTrue(t, ok)
	testutil.ExpectEq(t, "taxi.stdlib.left", call.Function.QualifiedName())
	testutil.ExpectEq(t, "left(lang.taxi.String, lang.taxi.Int): lang.taxi.String", call.Function.Signature())

	errs := compiler.NewCompiler(src, compiler.WithStdlib(false)).Validate()
	testutil.ExpectEq(t, 2, len(errs))
	for _, err := range errs {
		testutil.ExpectEq(t, "UnresolvedFunctionError", err.Kind())
	}
}

func TestFunctionArityMessage(t *testing.T) {
	t.Parallel()
	errs := compiler.ForStrings(`
model Trade {
   venue : String
   label : String by concat()
   code : String by mid(this.venue)
}`).Validate()
	testutil.ExpectEq(t, 1, len(errs))
	testutil.ExpectEq(t, "Function mid expects 3 arguments but got 1", errs[0].Message())
}
