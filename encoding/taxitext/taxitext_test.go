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

package taxitext_test

import (
	"errors"
	"testing"

	"github.com/BlexSetlog/taxilang/encoding/taxitext"
	"github.com/BlexSetlog/taxilang/internal/testutil"
	"github.com/BlexSetlog/taxilang/schema"
)

func testDocument(t *testing.T) *schema.Document {
	t.Helper()
	name := schema.NewTypeAlias("demo.Name")
	testutil.AssertNoError(t, name.Define(&schema.TypeAliasDefinition{
		AliasType: schema.String,
		Doc:       "A name.\nUsually printable.",
	}))

	status := schema.NewEnumType("demo.Status")
	testutil.AssertNoError(t, status.Define(&schema.EnumDefinition{
		BasePrimitive: schema.String,
		Lenient:       true,
		Values: []*schema.EnumValue{
			{Name: "Open", Value: "OPEN", IsDefault: true},
			{Name: "Closed", Value: "CLOSED", Synonyms: []string{"legacy.State.Done"}},
		},
	}))

	person := schema.NewObjectType("demo.Person")
	testutil.AssertNoError(t, person.Define(&schema.ObjectTypeDefinition{
		Annotations: []*schema.Annotation{{
			Name:   "Table",
			Params: []schema.AnnotationParam{{Name: "value", Value: "people"}},
		}},
		Fields: []*schema.Field{
			{Name: "name", Type: name},
			{Name: "status", Type: status, Nullable: true},
			{
				Name:     "tags",
				Type:     schema.NewArrayType(schema.String, schema.CompilationUnit{}),
				Accessor: &schema.JSONPathAccessor{Expression: "$.tags"},
			},
		},
	}))

	return schema.NewDocument(schema.DocumentContents{
		Types:   []schema.Type{person, status, name},
		Imports: []string{"lib.Other"},
	})
}

func TestEncode(t *testing.T) {
	t.Parallel()
	want := `import "lib.Other"
alias "demo.Name" {
	doc = "A name.\nUsually printable."
	aliases = "lang.taxi.String"
}
type "demo.Person" {
	annotation = "@Table(value = \"people\")"
	field "name" {
		type = "demo.Name"
	}
	field "status" {
		type = "demo.Status"
		nullable = .true
	}
	field "tags" {
		type = "lang.taxi.Array<lang.taxi.String>"
		accessor = "jsonPath(\"$.tags\")"
	}
}
enum "demo.Status" {
	base = "lang.taxi.String"
	lenient = .true
	value "Open" {
		value = "OPEN"
		default = .true
	}
	value "Closed" {
		value = "CLOSED"
		synonym = "legacy.State.Done"
	}
}
`
	testutil.ExpectNoDiff(t, want, taxitext.Encode(testDocument(t)))
}

type failingWriter struct {
	remaining int
}

var errWriteFailed = errors.New("write failed")

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.remaining <= 0 {
		return 0, errWriteFailed
	}
	w.remaining -= 1
	return len(p), nil
}

func TestEncodeToWriteError(t *testing.T) {
	t.Parallel()
	err := taxitext.EncodeTo(testDocument(t), &failingWriter{remaining: 4})
	if !errors.Is(err, errWriteFailed) {
		t.Fatalf("expected errWriteFailed, got %v", err)
	}
}
