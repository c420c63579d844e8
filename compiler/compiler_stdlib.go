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
)

// stdlibFunctions returns the built-in string functions, keyed by
// qualified name. They are callable from accessors without an import and
// are not part of the compiled document.
func stdlibFunctions() map[string]*schema.Function {
	str := &schema.FunctionParameter{Type: schema.String}
	num := &schema.FunctionParameter{Type: schema.Int}
	strs := &schema.FunctionParameter{Type: schema.String, Varargs: true}

	sigs := []struct {
		name   string
		params []*schema.FunctionParameter
		ret    schema.Type
	}{
		{"concat", []*schema.FunctionParameter{strs}, schema.String},
		{"trim", []*schema.FunctionParameter{str}, schema.String},
		{"left", []*schema.FunctionParameter{str, num}, schema.String},
		{"right", []*schema.FunctionParameter{str, num}, schema.String},
		{"mid", []*schema.FunctionParameter{str, num, num}, schema.String},
		{"upperCase", []*schema.FunctionParameter{str}, schema.String},
		{"lowerCase", []*schema.FunctionParameter{str}, schema.String},
		{"length", []*schema.FunctionParameter{str}, schema.Int},
		{"indexOf", []*schema.FunctionParameter{str, str}, schema.Int},
		{"replace", []*schema.FunctionParameter{str, str, str}, schema.String},
	}
	out := make(map[string]*schema.Function, len(sigs))
	for _, sig := range sigs {
		name := schema.StdlibNamespace + "." + sig.name
		out[name] = schema.NewFunction(name, sig.params, sig.ret, schema.CompilationUnit{
			SourceName: "<builtin>",
		})
	}
	return out
}
