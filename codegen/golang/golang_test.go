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

package golang_test

import (
	"testing"

	"github.com/BlexSetlog/taxilang/codegen"
	"github.com/BlexSetlog/taxilang/codegen/golang"
	"github.com/BlexSetlog/taxilang/compiler"
	"github.com/BlexSetlog/taxilang/internal/testutil"
)

func generate(t *testing.T, src string, options map[string]string) *codegen.OutputFile {
	t.Helper()
	doc, err := compiler.ForStrings(src).Compile()
	testutil.AssertNoError(t, err)
	resp, err := golang.Generate(codegen.NewRequest(doc, options))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 1, len(resp.Files))
	return resp.Files[0]
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	file := generate(t, `
namespace demo {
   [[ A person ]]
   model Person {
      name : Name
      nicknames : Name[]
      age : Int?
      side : Side
   }
   type alias Name as String
   enum Side { Buy, Sell }
   enum Priority { Low(1), High(2) }
   service PersonService {
      operation find(name : Name) : Person
      operation all() : Person[]
      operation ping()
   }
}`, map[string]string{"package": "demo"})

	testutil.ExpectSliceEq(t, []string{"demo.go"}, file.Path)
	testutil.ExpectNoDiff(t, "// Code generated by taxi-codegen-go. DO NOT EDIT.\n"+`
package demo

import "context"

type Name string

type Priority int64

const (
	PriorityLow  Priority = 1
	PriorityHigh Priority = 2
)

type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// A person
type Person struct {
	Name      Name   `+"`json:\"name\"`"+`
	Nicknames []Name `+"`json:\"nicknames\"`"+`
	Age       *int64 `+"`json:\"age,omitempty\"`"+`
	Side      Side   `+"`json:\"side\"`"+`
}

type PersonService interface {
	Find(ctx context.Context, name Name) (Person, error)
	All(ctx context.Context) ([]Person, error)
	Ping(ctx context.Context) error
}
`, file.Content)
}

func TestGenerateInheritance(t *testing.T) {
	t.Parallel()
	file := generate(t, `
namespace demo {
   model Event inherits Base {
      kind : String
      payload : Any?
   }
   model Base {
      created : Instant
   }
}`, nil)

	testutil.ExpectSliceEq(t, []string{"taxi.go"}, file.Path)
	testutil.ExpectNoDiff(t, "// Code generated by taxi-codegen-go. DO NOT EDIT.\n"+`
package taxi

import "time"

type Base struct {
	Created time.Time `+"`json:\"created\"`"+`
}

type Event struct {
	Base

	Kind    string `+"`json:\"kind\"`"+`
	Payload any    `+"`json:\"payload,omitempty\"`"+`
}
`, file.Content)
}

func TestGenerateNestedPackage(t *testing.T) {
	t.Parallel()
	file := generate(t, `
namespace demo {
   type alias Code as String
}`, map[string]string{"package": "internal/codes"})

	testutil.ExpectSliceEq(t, []string{"internal", "codes.go"}, file.Path)
	testutil.ExpectMatch(t, `(?m)^package codes$`, file.Content)
	testutil.ExpectMatch(t, `(?m)^type Code string$`, file.Content)
}

func TestGenerateReservedParamNames(t *testing.T) {
	t.Parallel()
	file := generate(t, `
namespace demo {
   service Lookup {
      operation byType(type : String, ctx : String) : String
   }
}`, nil)

	testutil.ExpectMatch(t,
		`ByType\(ctx context\.Context, type_ string, ctx_ string\) \(string, error\)`,
		file.Content,
	)
}

func TestGenerateNameCollision(t *testing.T) {
	t.Parallel()
	req := &codegen.Request{
		Types: []*codegen.TypeDecl{
			{Name: "billing.Account"},
			{Name: "crm.Account"},
		},
	}
	_, err := golang.Generate(req)
	testutil.AssertError(t, err)
	testutil.ExpectEq(t,
		"Go name Account is used by both billing.Account and crm.Account",
		err.Error(),
	)
}
