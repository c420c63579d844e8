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

type importRequest struct {
	name   string
	origin *importToken
}

// collateImports computes the closure of the requested imports: each
// imported entity is collected along with every type it references, so
// that the importing document can resolve them. A name that cannot be
// found is reported and does not stop the remaining imports.
func collateImports(deps *DocumentSet, requests []*importToken) ([]any, []error) {
	var queue []importRequest
	for _, req := range requests {
		queue = append(queue, importRequest{name: req.name, origin: req})
	}

	var collected []any
	var errs []error
	seen := make(map[string]bool)
	for len(queue) > 0 {
		req := queue[0]
		queue = queue[1:]
		if seen[req.name] || schema.IsPrimitive(req.name) {
			continue
		}
		seen[req.name] = true

		value, err := deps.resolveImport(req.name, req.origin.src.at(req.origin.node.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		collected = append(collected, value)
		for _, ref := range referencedTypes(value) {
			queue = append(queue, importRequest{
				name:   ref.QualifiedName(),
				origin: req.origin,
			})
		}
	}
	return collected, errs
}

func referencedTypes(value any) []schema.Type {
	switch value := value.(type) {
	case schema.UserType:
		return value.ReferencedTypes()
	case *schema.Function:
		var out []schema.Type
		for _, param := range value.Parameters {
			out = append(out, param.Type)
		}
		return append(out, value.ReturnType)
	default:
		return nil
	}
}

func (c *compiler) compileImports() {
	var requests []*importToken
	requested := make(map[string]bool)
	for _, imp := range c.tokens.imports {
		at := imp.src.at(imp.node.Name())
		if requested[imp.name] {
			c.warn(warnDuplicateImport(imp.name, at))
			continue
		}
		requested[imp.name] = true
		if c.tokens.isLocal(imp.name) {
			c.warn(warnImportDeclaredLocally(imp.name, at))
			continue
		}
		requests = append(requests, imp)
	}

	collected, errs := collateImports(c.opts.deps, requests)
	for _, err := range errs {
		c.err(err)
	}
	for _, value := range collected {
		switch value := value.(type) {
		case schema.UserType:
			if c.registry.register(value) {
				c.imported = append(c.imported, value)
			}
		case *schema.Function:
			if _, local := c.functions[value.QualifiedName()]; !local {
				c.functions[value.QualifiedName()] = value
			}
		}
	}
}

func (c *compiler) checkUnusedImports() {
	reported := make(map[string]bool)
	for _, imp := range c.tokens.imports {
		if reported[imp.name] || c.usedNames[imp.name] || c.tokens.isLocal(imp.name) {
			continue
		}
		reported[imp.name] = true
		_, isType := c.registry.get(imp.name)
		_, isFunction := c.functions[imp.name]
		if isType || isFunction {
			c.warn(warnUnusedImport(imp.name, imp.src.at(imp.node.Name())))
		}
	}
}
