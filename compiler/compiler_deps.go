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
	"errors"
	"maps"
	"slices"

	"github.com/BlexSetlog/taxilang/schema"
)

// DocumentSet is the merged declarations of previously compiled
// documents, available to `import` statements.
type DocumentSet struct {
	decls map[string] /* qualified name */ *mergedDecl
}

// Names returns every importable name, sorted.
func (s *DocumentSet) Names() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.decls))
}

// resolveImport returns the type or function declared under name.
func (s *DocumentSet) resolveImport(name string, at location) (any, error) {
	if s == nil {
		return nil, errUnresolvedImport(name, at)
	}
	decl, ok := s.decls[name]
	if !ok {
		return nil, errUnresolvedImport(name, at)
	}
	if decl.conflict {
		return nil, errImportConflict(name, at)
	}
	return decl.value, nil
}

type mergedDecl struct {
	// A schema.Type or *schema.Function.
	value    any
	conflict bool
}

func canUnifyMergedDecls(a, b *mergedDecl) bool {
	if a.conflict || b.conflict {
		return false
	}
	if a.value == b.value {
		return true
	}
	switch av := a.value.(type) {
	case *schema.ObjectType:
		bv, ok := b.value.(*schema.ObjectType)
		return ok && av.IsDefined() && bv.IsDefined() &&
			av.Definition().Equal(bv.Definition())
	case *schema.EnumType:
		bv, ok := b.value.(*schema.EnumType)
		return ok && av.IsDefined() && bv.IsDefined() &&
			av.Definition().Equal(bv.Definition())
	case *schema.TypeAlias:
		bv, ok := b.value.(*schema.TypeAlias)
		return ok && av.IsDefined() && bv.IsDefined() &&
			av.Definition().Equal(bv.Definition())
	case *schema.Function:
		bv, ok := b.value.(*schema.Function)
		return ok && av.Equal(bv)
	default:
		return false
	}
}

// Merge combines documents into a DocumentSet. A name declared by more
// than one document must have structurally equal declarations; otherwise
// importing it reports an error.
func Merge(documents []*schema.Document) (*DocumentSet, error) {
	set := func(decls map[string]*mergedDecl, k string, v *mergedDecl) {
		if prev, conflict := decls[k]; conflict {
			if !canUnifyMergedDecls(v, prev) {
				decls[k] = &mergedDecl{
					conflict: true,
				}
			}
			return
		}
		decls[k] = v
	}

	decls := make(map[string]*mergedDecl)
	for _, doc := range documents {
		if doc == nil {
			return nil, errors.New("compiler.Merge: nil document")
		}
		for _, t := range doc.Types() {
			set(decls, t.QualifiedName(), &mergedDecl{value: t})
		}
		for _, f := range doc.Functions() {
			set(decls, f.QualifiedName(), &mergedDecl{value: f})
		}
	}

	return &DocumentSet{
		decls: decls,
	}, nil
}
