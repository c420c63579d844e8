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

package schema

import (
	"slices"
	"strings"
)

// Types are compared by qualified name. Comparing type bodies would not
// terminate for recursive types, and every name maps to a single instance
// within a document.
func typeNamesEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.QualifiedName() == b.QualifiedName()
}

func typeNames[T Type](types []T) []string {
	out := make([]string, len(types))
	for ii, t := range types {
		out[ii] = t.QualifiedName()
	}
	return out
}

func typeListsEqual[T Type](a, b []T) bool {
	return slices.Equal(typeNames(a), typeNames(b))
}

// sameElements reports whether a and b hold the same multiset of values.
func sameElements[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[T]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}
	return true
}

func annotationStrings(annotations []*Annotation) []string {
	out := make([]string, len(annotations))
	for ii, annotation := range annotations {
		out[ii] = annotation.String()
	}
	return out
}

func annotationsEqual(a, b []*Annotation) bool {
	return sameElements(annotationStrings(a), annotationStrings(b))
}

func constraintsEqual(a, b []Constraint) bool {
	if len(a) != len(b) {
		return false
	}
	for ii := range a {
		if a[ii].String() != b[ii].String() {
			return false
		}
	}
	return true
}

func accessorsEqual(a, b Accessor) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

// appendNamedTypes appends t, or the named types that a composite t is
// built from.
func appendNamedTypes(out []Type, t Type) []Type {
	switch t := t.(type) {
	case nil:
		return out
	case *ArrayType:
		return appendNamedTypes(out, t.member)
	case *UnionType:
		for _, member := range t.types {
			out = appendNamedTypes(out, member)
		}
		return out
	case *JoinType:
		for _, member := range t.Members() {
			out = appendNamedTypes(out, member)
		}
		return out
	case *PrimitiveType, *VoidType:
		return out
	default:
		return append(out, t)
	}
}

func appendAccessorTypes(out []Type, accessor Accessor) []Type {
	walkAccessor(accessor, func(a Accessor) {
		switch a := a.(type) {
		case *ModelAttributeAccessor:
			out = appendNamedTypes(out, a.Source)
			out = appendNamedTypes(out, a.Target)
		case *FunctionAccessor:
			if a.Function != nil {
				out = appendNamedTypes(out, a.Function.ReturnType)
			}
		}
	})
	return out
}

func quoteList(values []string) string {
	return "[" + strings.Join(values, ", ") + "]"
}
