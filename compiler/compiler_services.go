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

func (c *compiler) compileServices() {
	for _, name := range c.tokens.serviceOrder {
		for _, tok := range c.tokens.services[name] {
			service := c.compileService(tok)
			prev, ok := c.services[name]
			if !ok {
				c.services[name] = service
				continue
			}
			unit := service.CompilationUnits()[0]
			if !prev.Equal(service) {
				c.err(errRedefinition(
					"service",
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
}

func (c *compiler) compileService(tok *token[*syntax.Service]) *schema.Service {
	sc := tok.scope()
	node := tok.node
	service := schema.NewService(tok.name, sc.unit(node))
	service.Annotations = c.compileAnnotations(node.Annotations())
	service.Doc = docText(node.Doc())

	for _, opNode := range node.Operations() {
		name := opNode.Name().Unescaped()
		if prev, ok := service.Operation(name); ok {
			c.err(errRedefinition(
				"operation",
				tok.name+"."+name,
				prev.Unit.String(),
				sc.unit(opNode).String(),
				sc.at(opNode.Name()),
			))
			continue
		}
		service.Operations = append(service.Operations, c.compileOperation(sc, tok.name, opNode))
	}
	return service
}

func (c *compiler) compileOperation(sc scope, serviceName string, node *syntax.Operation) *schema.Operation {
	op := &schema.Operation{
		Name:        node.Name().Unescaped(),
		Annotations: c.compileAnnotations(node.Annotations()),
		Doc:         docText(node.Doc()),
		Unit:        sc.unit(node),
		ReturnType:  schema.Void,
	}
	opName := serviceName + "." + op.Name

	resolved := make([]bool, len(node.Params()))
	for ii, paramNode := range node.Params() {
		param := &schema.Parameter{
			Annotations: c.compileAnnotations(paramNode.Annotations()),
			Unit:        sc.unit(paramNode),
		}
		if name := paramNode.Name(); name != nil {
			param.Name = name.Unescaped()
		}
		ref := paramNode.TypeRef()
		t, err := c.resolveTypeRef(sc, ref)
		if err != nil {
			c.err(err)
			t = schema.Any
		} else {
			resolved[ii] = true
		}
		param.Type = t
		op.Parameters = append(op.Parameters, param)
	}
	// Parameter constraints may refer to any parameter, so they are
	// compiled once every parameter is known.
	for ii, paramNode := range node.Params() {
		if !resolved[ii] {
			continue
		}
		param := op.Parameters[ii]
		param.Constraints = c.compileConstraints(sc, paramNode.TypeRef().Constraints(), param.Type, op, opName)
	}

	if ref := node.ReturnType(); ref != nil {
		t, err := c.resolveTypeRef(sc, ref)
		if err != nil {
			c.err(err)
			t = schema.Any
		}
		op.ReturnType = t
		if constraints := ref.Constraints(); err == nil && len(constraints) > 0 {
			op.Contract = &schema.OperationContract{
				ReturnType:  t,
				Constraints: c.compileConstraints(sc, constraints, t, op, opName),
			}
		}
	}
	return op
}
