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

package syntax_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/BlexSetlog/taxilang/internal/testutil"
	"github.com/BlexSetlog/taxilang/syntax"
)

func syntaxTest(t *testing.T, testName string) {
	t.Parallel()

	srcPath := fmt.Sprintf("syntax/%s/%s.taxi", testName, testName)
	src, err := fs.ReadFile(testdata, srcPath)
	testutil.AssertNoError(t, err)

	expectErr := fmt.Sprintf("syntax/%s/expect_err.json", testName)
	if _, err := fs.Stat(testdata, expectErr); err == nil {
		testExpectErr(t, src, expectErr)
	} else {
		testExpectOK(t, src)
	}
}

func testExpectOK(t *testing.T, src []byte) {
	file, err := syntax.Parse(src)
	testutil.AssertNoError(t, err)

	testutil.ExpectNoDiff(t, string(src), syntax.Unparse(file))
	if dump := testutil.DumpJSON(file); !json.Valid(dump) {
		t.Errorf("invalid syntax tree dump:\n%s", dump)
	}

	syntax.Walk(file, func(node syntax.Node) bool {
		if node == nil {
			return true
		}
		span := node.Span()
		want := string(src[span.Start():span.End()])
		if got := syntax.Unparse(node); got != want {
			t.Errorf("%T at %d: unparsed %q, source %q", node, span.Start(), got, want)
		}
		return true
	})
}

func testExpectErr(t *testing.T, src []byte, expectPath string) {
	expectJSON, err := fs.ReadFile(testdata, expectPath)
	testutil.AssertNoError(t, err)

	test := make(map[string]interface{})
	decoder := json.NewDecoder(bytes.NewReader(expectJSON))
	decoder.UseNumber()
	testutil.AssertNoError(t, decoder.Decode(&test))

	errorName := test["error"].(string)
	expectErr, ok := syntaxErrors[errorName]
	if !ok {
		t.Fatalf("unknown parse error name %q", errorName)
	}

	_, err = syntax.Parse(src)
	testutil.AssertError(t, err)

	parseErr := err.(*syntax.Error)
	testutil.ExpectDiagnostics(t, []*syntax.Error{parseErr}, []*testutil.ExpectedDiagnostic{{
		Diagnostic: *expectErr,
		Span:       testutil.SpanOrDie(t, test["error_span"]),
	}})
}

func TestSyntax(t *testing.T) {
	t.Parallel()

	testDirs, err := fs.ReadDir(testdata, "syntax")
	testutil.AssertNoError(t, err)

	for _, testDir := range testDirs {
		if testDir.IsDir() {
			testName := testDir.Name()
			t.Run(testName, func(t *testing.T) {
				syntaxTest(t, testName)
			})
		}
	}
}

func mustParse(t *testing.T, src string) *syntax.File {
	t.Helper()
	file, err := syntax.Parse([]byte(src))
	testutil.AssertNoError(t, err)
	return file
}

func TestTypeDecl(t *testing.T) {
	t.Parallel()

	file := mustParse(t, `
[[ A person ]]
@Entity
closed model Person inherits Named {
	id : PersonId as String
	tags : Tag[]?
	home : Home | Office
}
`)
	testutil.ExpectEq(t, 1, len(file.Decls()))
	decl := file.Decls()[0].(*syntax.TypeDecl)
	testutil.ExpectEq(t, "Person", decl.Name().Get())
	testutil.ExpectTrue(t, decl.IsModel())
	testutil.ExpectTrue(t, decl.HasBody())
	testutil.ExpectEq(t, 1, len(decl.Modifiers()))
	testutil.ExpectEq(t, "closed", decl.Modifiers()[0].Get())
	testutil.ExpectEq(t, "A person", decl.Doc().Text())
	testutil.ExpectEq(t, "Entity", decl.Annotations()[0].Name().String())
	testutil.ExpectEq(t, "Named", decl.Inherits()[0].Name().String())

	fields := decl.Fields()
	testutil.ExpectEq(t, 3, len(fields))

	testutil.ExpectEq(t, "id", fields[0].Name().Get())
	testutil.ExpectEq(t, "PersonId", fields[0].FieldType().TypeRef().Name().String())
	testutil.ExpectEq(t, "String", fields[0].FieldType().InlineAliasOf().Name().String())

	tags := fields[1].FieldType().TypeRef()
	testutil.ExpectEq(t, 1, tags.ArrayDepth())
	testutil.ExpectTrue(t, tags.Nullable())

	members := fields[2].FieldType().UnionMembers()
	testutil.ExpectEq(t, 2, len(members))
	testutil.ExpectEq(t, "Office", members[1].Name().String())
}

func TestNamespaces(t *testing.T) {
	t.Parallel()

	file := mustParse(t, `
import a.b.C
import d.E

namespace one.two {
	type A
}

namespace three
type B
type C
`)
	testutil.ExpectEq(t, 2, len(file.Imports()))
	testutil.ExpectEq(t, "a.b.C", file.Imports()[0].Name().String())

	namespaces := file.Namespaces()
	testutil.ExpectEq(t, 2, len(namespaces))
	testutil.ExpectEq(t, "one.two", namespaces[0].Name().String())
	testutil.ExpectTrue(t, namespaces[0].Braced())
	testutil.ExpectEq(t, 1, len(namespaces[0].Decls()))
	testutil.ExpectFalse(t, namespaces[1].Braced())
	testutil.ExpectEq(t, 2, len(namespaces[1].Decls()))
	testutil.ExpectEq(t, 0, len(file.Decls()))
}

func TestEscapedIdent(t *testing.T) {
	t.Parallel()

	file := mustParse(t, "model `model` { `type` : String }")
	decl := file.Decls()[0].(*syntax.TypeDecl)
	testutil.ExpectEq(t, "`model`", decl.Name().Get())
	testutil.ExpectEq(t, "model", decl.Name().Unescaped())
	testutil.ExpectEq(t, "type", decl.Fields()[0].Name().Unescaped())
}

func TestEnumDecl(t *testing.T) {
	t.Parallel()

	file := mustParse(t, `lenient enum Color {
	Red("r") synonym of [x.Y.Rouge, x.Y.Rot],
	default Green(2)
}`)
	decl := file.Decls()[0].(*syntax.EnumDecl)
	testutil.ExpectTrue(t, decl.Lenient())

	values := decl.Values()
	testutil.ExpectEq(t, 2, len(values))
	testutil.ExpectEq(t, any("r"), values[0].Value().Value())
	testutil.ExpectEq(t, 2, len(values[0].Synonyms()))
	testutil.ExpectEq(t, "x.Y.Rot", values[0].Synonyms()[1].String())
	testutil.ExpectTrue(t, values[1].IsDefault())
	testutil.ExpectEq(t, any(int64(2)), values[1].Value().Value())
}

func TestPolicy(t *testing.T) {
	t.Parallel()

	file := mustParse(t, `policy P against Film {
	read {
		case caller.Group != "admin" -> process using Redact
		else -> permit
	}
	* external { deny }
}`)
	policy := file.Decls()[0].(*syntax.Policy)
	testutil.ExpectEq(t, "Film", policy.Target().Name().String())

	ruleSets := policy.RuleSets()
	testutil.ExpectEq(t, 2, len(ruleSets))
	testutil.ExpectTrue(t, ruleSets[0].Scope() == nil)
	testutil.ExpectEq(t, "read", syntax.Unparse(ruleSets[0].OperationType()))

	statements := ruleSets[0].Statements()
	testutil.ExpectEq(t, 2, len(statements))
	testutil.ExpectEq(t, syntax.SubjectCaller, statements[0].Lhs().Kind())
	testutil.ExpectEq(t, "!=", statements[0].Operator().Get())
	testutil.ExpectEq(t, syntax.SubjectLiteral, statements[0].Rhs().Kind())
	testutil.ExpectEq(t, "Redact", statements[0].Instruction().Processor().String())
	testutil.ExpectTrue(t, statements[1].IsElse())

	testutil.ExpectEq(t, "*", syntax.Unparse(ruleSets[1].OperationType()))
	testutil.ExpectEq(t, "external", ruleSets[1].Scope().Get())
	testutil.ExpectEq(t, "deny", ruleSets[1].Instruction().Name().Get())
}

func TestAccessors(t *testing.T) {
	t.Parallel()

	file := mustParse(t, `model A {
	a : X by xpath("/a")
	b : X by (this.a + 1)
	c : X by left(this.a, 3)
}`)
	fields := file.Decls()[0].(*syntax.TypeDecl).Fields()

	extract := fields[0].Accessor().Expr().(*syntax.ExtractExpr)
	testutil.ExpectEq(t, syntax.ExtractXPath, extract.Kind())
	testutil.ExpectEq(t, any("/a"), extract.Argument().Value())

	calc := fields[1].Accessor().Expr().(*syntax.CalcExpr)
	testutil.ExpectEq(t, "+", calc.Operator().Get())
	testutil.ExpectEq(t, "a", calc.Lhs().(*syntax.ThisRef).Path().String())

	call := fields[2].Accessor().Expr().(*syntax.CallExpr)
	testutil.ExpectEq(t, "left", call.Name().String())
	testutil.ExpectEq(t, 2, len(call.Args()))
}

func TestParseTypeRef(t *testing.T) {
	t.Parallel()

	opts := syntax.NewParseOptions()
	typeRef, err := opts.ParseTypeRef([]byte("acme.Money(currency = \"GBP\")[]"))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "acme.Money", typeRef.Name().String())
	testutil.ExpectEq(t, 1, typeRef.ArrayDepth())

	constraints := typeRef.Constraints()
	testutil.ExpectEq(t, 1, len(constraints))
	testutil.ExpectEq(t, "currency", constraints[0].Path().String())
	testutil.ExpectEq(t, any("GBP"), constraints[0].Value().Value())
}

func TestWithoutTrivia(t *testing.T) {
	t.Parallel()

	src := "model A { // comment\n\ta : B\n}"
	file, err := syntax.Parse([]byte(src), syntax.SaveTrivia(false))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "modelA{a:B}", syntax.Unparse(file))
	testutil.ExpectEq(t, uint32(len(src)), file.Span().Len())
}

func TestLineIndex(t *testing.T) {
	t.Parallel()

	src := []byte("model A {\n  é : B\n}")
	idx := syntax.NewLineIndex(src)

	testutil.ExpectEq(t, syntax.Position{Line: 1, Column: 1}, idx.Position(0))
	testutil.ExpectEq(t, syntax.Position{Line: 1, Column: 7}, idx.Position(6))

	colon := uint32(strings.Index(string(src), ":"))
	testutil.ExpectEq(t, syntax.Position{Line: 2, Column: 5}, idx.Position(colon))
	offset, ok := idx.Offset(syntax.Position{Line: 2, Column: 5})
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, colon, offset)

	_, ok = idx.Offset(syntax.Position{Line: 9, Column: 1})
	testutil.ExpectFalse(t, ok)
}
