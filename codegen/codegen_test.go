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

package codegen_test

import (
	"testing"

	"github.com/BlexSetlog/taxilang/codegen"
	"github.com/BlexSetlog/taxilang/compiler"
	"github.com/BlexSetlog/taxilang/internal/testutil"
)

func TestNewRequest(t *testing.T) {
	t.Parallel()
	doc, err := compiler.ForStrings(`
namespace demo {
   [[ An order ]]
   model Order inherits Entity {
      lines : OrderLine[][]
      status : Status?
      ref : OrderRef | String
   }
   model Entity {
      id : String
   }
   model OrderLine {}
   type alias OrderRef as String
   enum Status { Open, Closed("done") }
   service Orders {
      operation get(id : String) : Order
      operation cancel(Order)
   }
}`).Compile()
	testutil.AssertNoError(t, err)

	req := codegen.NewRequest(doc, map[string]string{"package": "orders"})
	testutil.ExpectEq(t, "orders", req.Options["package"])

	testutil.ExpectEq(t, 3, len(req.Types))
	order := req.Types[1]
	testutil.ExpectEq(t, "demo.Order", order.Name)
	testutil.ExpectEq(t, "An order", order.Doc)
	testutil.ExpectSliceEq(t, []string{"demo.Entity"}, order.Inherits)
	testutil.ExpectEq(t, 3, len(order.Fields))
	testutil.ExpectEq(t, "demo.OrderLine", order.Fields[0].Type.Name)
	testutil.ExpectEq(t, 2, order.Fields[0].Type.ArrayDepth)
	testutil.ExpectTrue(t, order.Fields[1].Nullable)
	testutil.ExpectSliceEq(t,
		[]string{"demo.OrderRef", "lang.taxi.String"},
		order.Fields[2].Type.Union,
	)

	testutil.ExpectEq(t, 1, len(req.Enums))
	status := req.Enums[0]
	testutil.ExpectEq(t, "lang.taxi.String", status.Base)
	testutil.ExpectEq(t, "Closed", status.Values[1].Name)
	testutil.ExpectEq(t, "done", status.Values[1].Value)

	testutil.ExpectEq(t, 1, len(req.Aliases))
	testutil.ExpectEq(t, "lang.taxi.String", req.Aliases[0].Aliases.Name)

	testutil.ExpectEq(t, 1, len(req.Services))
	ops := req.Services[0].Operations
	testutil.ExpectEq(t, 2, len(ops))
	testutil.ExpectEq(t, "demo.Order", ops[0].Returns.Name)
	testutil.ExpectTrue(t, ops[1].Returns == nil)
	testutil.ExpectEq(t, "", ops[1].Params[0].Name)
}

func TestRequestFrame(t *testing.T) {
	t.Parallel()
	req := &codegen.Request{
		Aliases: []*codegen.AliasDecl{{
			Name:    "demo.Name",
			Aliases: codegen.TypeRef{Name: "lang.taxi.String"},
		}},
		Options: map[string]string{"package": "demo"},
	}
	frame, err := codegen.EncodeRequest(req)
	testutil.AssertNoError(t, err)

	frameLen, err := codegen.FrameLen(frame)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, uint32(len(frame)), frameLen)

	// Trailing bytes past the frame are ignored.
	decoded, err := codegen.DecodeRequest(append(frame, 0xFF, 0xFF))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "demo.Name", decoded.Aliases[0].Name)
	testutil.ExpectEq(t, "lang.taxi.String", decoded.Aliases[0].Aliases.Name)
	testutil.ExpectEq(t, "demo", decoded.Options["package"])
}

func TestResponseFrame(t *testing.T) {
	t.Parallel()
	frame, err := codegen.EncodeResponse(&codegen.Response{
		Files: []*codegen.OutputFile{{
			Path:    []string{"gen", "demo.go"},
			Content: "package demo\n",
		}},
	})
	testutil.AssertNoError(t, err)

	resp, err := codegen.DecodeResponse(frame)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "", resp.Error)
	testutil.ExpectSliceEq(t, []string{"gen", "demo.go"}, resp.Files[0].Path)
	testutil.ExpectEq(t, "package demo\n", resp.Files[0].Content)
}

func TestTruncatedFrame(t *testing.T) {
	t.Parallel()
	frame, err := codegen.EncodeResponse(&codegen.Response{Error: "unsupported"})
	testutil.AssertNoError(t, err)

	_, err = codegen.DecodeResponse(frame[:len(frame)-1])
	testutil.AssertError(t, err)
	testutil.ExpectMatch(t, `^codegen\.DecodeResponse: truncated frame`, err.Error())

	_, err = codegen.FrameLen(frame[:3])
	testutil.ExpectEq(t, "frame too short: 3 bytes", err.Error())

	_, err = codegen.FrameLen([]byte{2, 0, 0, 0})
	testutil.ExpectEq(t, "invalid frame length 2", err.Error())
}
