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
	"fmt"
	"strings"

	"github.com/BlexSetlog/taxilang/schema"
)

func (c *compiler) compileFunctionTokens(name string) {
	for _, tok := range c.tokens.functions[name] {
		if tok.compiled {
			continue
		}
		tok.compiled = true
		f := c.compileFunction(tok)
		prev, ok := c.functions[name]
		if !ok {
			c.functions[name] = f
			continue
		}
		unit := f.CompilationUnits()[0]
		if !prev.Equal(f) {
			c.err(errRedefinition(
				"function",
				name,
				prev.CompilationUnits()[0].String(),
				unit.String(),
				tok.src.at(tok.node.Name()),
			))
			continue
		}
		prev.AddCompilationUnit(unit)
	}
}

func (c *compiler) compileFunction(tok *functionToken) *schema.Function {
	sc := tok.scope()
	node := tok.node
	var params []*schema.FunctionParameter
	for _, paramNode := range node.Params() {
		t, err := c.resolveTypeRef(sc, paramNode.TypeRef())
		if err != nil {
			c.err(err)
			t = schema.Any
		}
		params = append(params, &schema.FunctionParameter{
			Type:    t,
			Varargs: paramNode.IsVarargs(),
		})
	}
	ret, err := c.resolveTypeRef(sc, node.ReturnType())
	if err != nil {
		c.err(err)
		ret = schema.Any
	}
	f := schema.NewFunction(tok.name, params, ret, sc.unit(node))
	f.Annotations = c.compileAnnotations(node.Annotations())
	f.Doc = docText(node.Doc())
	return f
}

// resolveFunction finds a declared, imported, or built-in function.
func (c *compiler) resolveFunction(sc scope, raw string, at location) (*schema.Function, error) {
	for _, candidate := range c.candidateNames(sc, raw) {
		c.compileFunctionTokens(candidate)
		if f, ok := c.functions[candidate]; ok {
			c.usedNames[candidate] = true
			return f, nil
		}
	}
	if f, ok := c.stdlib[raw]; ok {
		return f, nil
	}
	if f, ok := c.stdlib[schema.StdlibNamespace+"."+raw]; ok {
		return f, nil
	}
	return nil, errUnresolvedFunction(raw, at)
}

func arityText(f *schema.Function) string {
	if f.IsVarargs() {
		return fmt.Sprintf("at least %d", len(f.Parameters)-1)
	}
	return fmt.Sprint(len(f.Parameters))
}

func functionDisplayName(f *schema.Function) string {
	return strings.TrimPrefix(f.QualifiedName(), schema.StdlibNamespace+".")
}
