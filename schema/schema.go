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

// Package schema is the compiled form of a set of Taxi sources: types,
// services, policies, functions, and views, cross-referenced by qualified
// name.
package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BlexSetlog/taxilang/syntax"
)

const (
	PrimitiveNamespace = "lang.taxi"
	StdlibNamespace    = "taxi.stdlib"
)

// Qualify resolves name against namespace. Names that already contain a '.'
// and names of primitive types are returned unchanged.
func Qualify(namespace, name string) string {
	if strings.Contains(name, ".") || namespace == "" {
		return name
	}
	if _, ok := primitivesByName[name]; ok {
		return name
	}
	return namespace + "." + name
}

// SplitName splits a qualified name into its namespace and local name.
func SplitName(qualifiedName string) (namespace, name string) {
	idx := strings.LastIndexByte(qualifiedName, '.')
	if idx < 0 {
		return "", qualifiedName
	}
	return qualifiedName[:idx], qualifiedName[idx+1:]
}

// CompilationUnit locates a compiled entity in its source.
type CompilationUnit struct {
	SourceName string
	Span       syntax.Span
	Position   syntax.Position
	End        syntax.Position
}

func (u CompilationUnit) String() string {
	return fmt.Sprintf("%s:%d:%d", u.SourceName, u.Position.Line, u.Position.Column)
}

// Contains reports whether the 1-based line and column fall inside the unit.
func (u CompilationUnit) Contains(sourceName string, line, column uint32) bool {
	if u.SourceName != sourceName {
		return false
	}
	pos := syntax.Position{Line: line, Column: column}
	return !positionLess(pos, u.Position) && positionLess(pos, u.End)
}

func positionLess(a, b syntax.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}

type Annotation struct {
	Name   string
	Params []AnnotationParam
}

type AnnotationParam struct {
	Name  string
	Value any
}

func (a *Annotation) Param(name string) (any, bool) {
	for _, param := range a.Params {
		if param.Name == name {
			return param.Value, true
		}
	}
	return nil, false
}

func (a *Annotation) String() string {
	if len(a.Params) == 0 {
		return "@" + a.Name
	}
	var buf strings.Builder
	buf.WriteString("@")
	buf.WriteString(a.Name)
	buf.WriteString("(")
	for ii, param := range a.Params {
		if ii > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(param.Name)
		buf.WriteString(" = ")
		buf.WriteString(FormatLiteral(param.Value))
	}
	buf.WriteString(")")
	return buf.String()
}

// FormatLiteral renders a literal value the way it would be written in
// source.
func FormatLiteral(value any) string {
	switch value := value.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", value)
	case float64:
		return fmt.Sprintf("%g", value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// Type is implemented by every compiled type.
type Type interface {
	QualifiedName() string
	isType()
}

// UserType is a named type declared in source. A user type is created as an
// undefined placeholder and becomes defined once its declaration has been
// compiled.
type UserType interface {
	Type
	IsDefined() bool
	Doc() string
	Annotations() []*Annotation
	CompilationUnits() []CompilationUnit

	// ReferencedTypes lists the types this type's definition depends on.
	ReferencedTypes() []Type
}

type PrimitiveType struct {
	name string
	doc  string
}

func (*PrimitiveType) isType() {}

func (t *PrimitiveType) QualifiedName() string {
	return PrimitiveNamespace + "." + t.name
}

func (t *PrimitiveType) Name() string {
	return t.name
}

func (t *PrimitiveType) Doc() string {
	return t.doc
}

var (
	Boolean  = &PrimitiveType{"Boolean", "Represents a value which is either `true` or `false`."}
	String   = &PrimitiveType{"String", "A collection of characters."}
	Int      = &PrimitiveType{"Int", "A signed integer."}
	Decimal  = &PrimitiveType{"Decimal", "A signed decimal number."}
	Double   = &PrimitiveType{"Double", "A double-precision floating point number."}
	Date     = &PrimitiveType{"Date", "A date, without a time or timezone."}
	Time     = &PrimitiveType{"Time", "Time only, excluding the date part."}
	DateTime = &PrimitiveType{"DateTime", "A date and time, without a timezone."}
	Instant  = &PrimitiveType{"Instant", "A point in time, with date, time and timezone."}
	Any      = &PrimitiveType{"Any", "Can be anything."}
	Array    = &PrimitiveType{"Array", "A collection of things."}
)

var primitives = []*PrimitiveType{
	Boolean, String, Int, Decimal, Double, Date, Time, DateTime, Instant, Any, Array,
}

var primitivesByName = func() map[string]*PrimitiveType {
	out := make(map[string]*PrimitiveType, len(primitives)*2)
	for _, p := range primitives {
		out[p.name] = p
		out[p.QualifiedName()] = p
	}
	return out
}()

// Primitives returns every primitive type, in a stable order.
func Primitives() []*PrimitiveType {
	return slices.Clone(primitives)
}

// Primitive looks up a primitive by bare (`String`) or qualified
// (`lang.taxi.String`) name.
func Primitive(name string) (*PrimitiveType, bool) {
	p, ok := primitivesByName[name]
	return p, ok
}

func IsPrimitive(name string) bool {
	_, ok := primitivesByName[name]
	return ok || name == Void.QualifiedName() || name == "Void"
}

// VoidType is the return type of operations that return nothing.
type VoidType struct{}

func (*VoidType) isType() {}

func (*VoidType) QualifiedName() string {
	return PrimitiveNamespace + ".Void"
}

var Void = &VoidType{}

type ArrayType struct {
	member Type
	unit   CompilationUnit
}

func NewArrayType(member Type, unit CompilationUnit) *ArrayType {
	return &ArrayType{member: member, unit: unit}
}

func (*ArrayType) isType() {}

func (t *ArrayType) QualifiedName() string {
	return Array.QualifiedName() + "<" + t.member.QualifiedName() + ">"
}

func (t *ArrayType) Member() Type {
	return t.member
}

// UnionType is an ordered set of member types. Two unions are the same type
// when their member names are the same, in the same order.
type UnionType struct {
	types []Type
	unit  CompilationUnit
}

func NewUnionType(types []Type, unit CompilationUnit) *UnionType {
	return &UnionType{types: slices.Clone(types), unit: unit}
}

func (*UnionType) isType() {}

func (t *UnionType) QualifiedName() string {
	names := make([]string, len(t.types))
	for ii, member := range t.types {
		names[ii] = member.QualifiedName()
	}
	return strings.Join(names, "|")
}

func (t *UnionType) Types() []Type {
	return t.types
}

// JoinType is the target of a relational join: one left type joined to an
// ordered list of right types.
type JoinType struct {
	left  Type
	right []Type
	unit  CompilationUnit
}

func NewJoinType(left Type, right []Type, unit CompilationUnit) *JoinType {
	return &JoinType{left: left, right: slices.Clone(right), unit: unit}
}

func (*JoinType) isType() {}

func (t *JoinType) QualifiedName() string {
	var buf strings.Builder
	buf.WriteString(t.left.QualifiedName())
	for _, right := range t.right {
		buf.WriteString(" joinTo ")
		buf.WriteString(right.QualifiedName())
	}
	return buf.String()
}

func (t *JoinType) Left() Type {
	return t.left
}

func (t *JoinType) Right() []Type {
	return t.right
}

// Members returns the left type followed by the right types.
func (t *JoinType) Members() []Type {
	return append([]Type{t.left}, t.right...)
}
