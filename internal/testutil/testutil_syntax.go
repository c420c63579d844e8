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

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"testing"
	"unicode"

	"github.com/BlexSetlog/taxilang/syntax"
)

// LoadSyntaxErrors reads the syntax error catalogue. Its message patterns
// match case-insensitively.
func LoadSyntaxErrors(testdata fs.FS) (map[string]*Diagnostic, error) {
	return loadCatalogue(testdata, "diagnostics/syntax_errors.json", "Error", "(?i)")
}

// DumpJSON renders a syntax tree as indented JSON, one object per node
// keyed by the node's type in kebab case. Leaf tokens carry their value or
// source text.
func DumpJSON(node syntax.Node) []byte {
	var buf bytes.Buffer
	dumpJSON(&buf, node, 0)
	return buf.Bytes()
}

func quoteJSON(s string) string {
	quoted, _ := json.Marshal(s)
	return string(quoted)
}

func nodeTypeName(node syntax.Node) string {
	var name strings.Builder
	for ii, c := range strings.TrimPrefix(fmt.Sprintf("%T", node), "*syntax.") {
		if unicode.IsUpper(c) {
			if ii > 0 {
				name.WriteByte('-')
			}
			c = unicode.ToLower(c)
		}
		name.WriteRune(c)
	}
	return name.String()
}

// leafValue returns the JSON key and value describing a leaf node, or ""
// if the node has none.
func leafValue(node syntax.Node) (string, string) {
	switch node := node.(type) {
	case *syntax.Space, *syntax.Newline, *syntax.Sigil, *syntax.Keyword:
		return "unparse", quoteJSON(syntax.Unparse(node))
	case *syntax.Comment:
		return "text", quoteJSON(node.Text())
	case *syntax.Doc:
		return "text", quoteJSON(node.Text())
	case *syntax.Ident:
		return "value", quoteJSON(node.Get())
	case *syntax.TextLit:
		return "value", quoteJSON(node.Get())
	case *syntax.IntLit:
		return "value", fmt.Sprint(node.GetInt64())
	case *syntax.DecimalLit:
		return "value", node.Raw()
	case *syntax.BoolLit:
		return "value", fmt.Sprint(node.Get())
	case *syntax.NullLit:
		return "value", "null"
	}
	return "", ""
}

func dumpJSON(buf *bytes.Buffer, node syntax.Node, indent int) {
	pad := strings.Repeat("    ", indent)
	fmt.Fprintf(buf, "%s{%s: {\n", pad, quoteJSON(nodeTypeName(node)))
	span := node.Span()
	fmt.Fprintf(buf, `%s    "span": {"start": %d, "len": %d}`, pad, span.Start(), span.Len())
	if key, value := leafValue(node); key != "" {
		fmt.Fprintf(buf, ",\n%s    %q: %s", pad, key, value)
	}

	first := true
	for child := range node.ChildNodes() {
		if first {
			fmt.Fprintf(buf, ",\n%s    \"child-nodes\": [\n", pad)
			first = false
		} else {
			buf.WriteString(",\n")
		}
		dumpJSON(buf, child, indent+2)
	}
	if !first {
		fmt.Fprintf(buf, "\n%s    ]", pad)
	}
	buf.WriteString("}}")
}

// SpanOrDie decodes a `{"start": N, "len": N}` object read with
// json.Decoder.UseNumber.
func SpanOrDie(t *testing.T, raw interface{}) syntax.Span {
	t.Helper()
	obj, ok := raw.(map[string]interface{})
	if !ok {
		t.Fatalf("expected span object, got %#v", raw)
	}
	field := func(key string) uint32 {
		num, ok := obj[key].(json.Number)
		if !ok {
			t.Fatalf("span field %q missing or not a number: %#v", key, obj[key])
		}
		value, err := num.Int64()
		if err != nil {
			t.Fatalf("span field %q: %v", key, err)
		}
		return uint32(value)
	}
	return syntax.NewSpan(field("start"), field("len"))
}
