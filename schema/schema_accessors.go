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
	"fmt"
	"slices"
	"strings"
)

// Accessor describes how a field's value is derived from its input. An
// accessor is captured structurally and never evaluated.
type Accessor interface {
	String() string
	isAccessor()
}

type XPathAccessor struct {
	Expression string
}

type JSONPathAccessor struct {
	Expression string
}

// ColumnAccessor reads a column by index (int64) or by header name
// (string).
type ColumnAccessor struct {
	Index any
}

// DefaultAccessor supplies a fixed value when the input has none.
type DefaultAccessor struct {
	Value any
}

// LiteralAccessor is a literal operand. A nil Value is `null`.
type LiteralAccessor struct {
	Value any
}

// FieldReferenceAccessor reads another field of the same value via
// `this.path`.
type FieldReferenceAccessor struct {
	Path string
}

// ModelAttributeAccessor selects the field of type Target from the model
// Source, written `Source::Target`.
type ModelAttributeAccessor struct {
	Source Type
	Target Type
}

type FunctionAccessor struct {
	Function *Function
	Args     []Accessor
}

type CalculatedAccessor struct {
	Lhs      Accessor
	Operator string
	Rhs      Accessor
}

type ConditionalAccessor struct {
	Selector Accessor
	Cases    []*WhenCase
}

type WhenCase struct {
	Else     bool
	Lhs      Accessor
	Operator string
	Rhs      Accessor
	Result   Accessor
}

// DestructuredAccessor populates the fields of an object-typed field,
// optionally relative to the value located by Source.
type DestructuredAccessor struct {
	Fields []*DestructuredField
	Source Accessor
}

type DestructuredField struct {
	Name     string
	Accessor Accessor
}

func (*XPathAccessor) isAccessor()          {}
func (*JSONPathAccessor) isAccessor()       {}
func (*ColumnAccessor) isAccessor()         {}
func (*DefaultAccessor) isAccessor()        {}
func (*LiteralAccessor) isAccessor()        {}
func (*FieldReferenceAccessor) isAccessor() {}
func (*ModelAttributeAccessor) isAccessor() {}
func (*FunctionAccessor) isAccessor()       {}
func (*CalculatedAccessor) isAccessor()     {}
func (*ConditionalAccessor) isAccessor()    {}
func (*DestructuredAccessor) isAccessor()   {}

func (a *XPathAccessor) String() string {
	return fmt.Sprintf("xpath(%q)", a.Expression)
}

func (a *JSONPathAccessor) String() string {
	return fmt.Sprintf("jsonPath(%q)", a.Expression)
}

func (a *ColumnAccessor) String() string {
	return "column(" + FormatLiteral(a.Index) + ")"
}

func (a *DefaultAccessor) String() string {
	return "default(" + FormatLiteral(a.Value) + ")"
}

func (a *LiteralAccessor) String() string {
	return FormatLiteral(a.Value)
}

func (a *FieldReferenceAccessor) String() string {
	return "this." + a.Path
}

func (a *ModelAttributeAccessor) String() string {
	return a.Source.QualifiedName() + "::" + a.Target.QualifiedName()
}

func (a *FunctionAccessor) String() string {
	args := make([]string, len(a.Args))
	for ii, arg := range a.Args {
		args[ii] = arg.String()
	}
	return a.Function.QualifiedName() + "(" + strings.Join(args, ", ") + ")"
}

func (a *CalculatedAccessor) String() string {
	return "(" + a.Lhs.String() + " " + a.Operator + " " + a.Rhs.String() + ")"
}

func (a *ConditionalAccessor) String() string {
	var buf strings.Builder
	buf.WriteString("when")
	if a.Selector != nil {
		buf.WriteString("(")
		buf.WriteString(a.Selector.String())
		buf.WriteString(")")
	}
	buf.WriteString(" {")
	for _, c := range a.Cases {
		buf.WriteString(" ")
		buf.WriteString(c.String())
	}
	buf.WriteString(" }")
	return buf.String()
}

func (c *WhenCase) String() string {
	var cond string
	switch {
	case c.Else:
		cond = "else"
	case c.Rhs == nil:
		cond = c.Lhs.String()
	default:
		cond = c.Lhs.String() + " " + c.Operator + " " + c.Rhs.String()
	}
	return cond + " -> " + c.Result.String()
}

func (a *DestructuredAccessor) String() string {
	parts := make([]string, len(a.Fields))
	for ii, field := range a.Fields {
		parts[ii] = field.Name + " by " + field.Accessor.String()
	}
	out := "{ " + strings.Join(parts, ", ") + " }"
	if a.Source != nil {
		out += " by " + a.Source.String()
	}
	return out
}

// walkAccessor calls fn on a and on every accessor nested within it.
func walkAccessor(a Accessor, fn func(Accessor)) {
	if a == nil {
		return
	}
	fn(a)
	switch a := a.(type) {
	case *FunctionAccessor:
		for _, arg := range a.Args {
			walkAccessor(arg, fn)
		}
	case *CalculatedAccessor:
		walkAccessor(a.Lhs, fn)
		walkAccessor(a.Rhs, fn)
	case *ConditionalAccessor:
		walkAccessor(a.Selector, fn)
		for _, c := range a.Cases {
			walkAccessor(c.Lhs, fn)
			walkAccessor(c.Rhs, fn)
			walkAccessor(c.Result, fn)
		}
	case *DestructuredAccessor:
		for _, field := range a.Fields {
			walkAccessor(field.Accessor, fn)
		}
		walkAccessor(a.Source, fn)
	}
}

// WalkAccessor calls fn on a and every nested accessor, parents first.
func WalkAccessor(a Accessor, fn func(Accessor)) {
	walkAccessor(a, fn)
}

type FunctionParameter struct {
	Type    Type
	Varargs bool
}

// Function is a declared function signature. Function bodies are provided
// by the runtime that evaluates accessors.
type Function struct {
	name        string
	Parameters  []*FunctionParameter
	ReturnType  Type
	Annotations []*Annotation
	Doc         string
	units       []CompilationUnit
}

func NewFunction(qualifiedName string, params []*FunctionParameter, returnType Type, unit CompilationUnit) *Function {
	return &Function{
		name:       qualifiedName,
		Parameters: params,
		ReturnType: returnType,
		units:      []CompilationUnit{unit},
	}
}

func (f *Function) QualifiedName() string {
	return f.name
}

func (f *Function) CompilationUnits() []CompilationUnit {
	return slices.Clone(f.units)
}

func (f *Function) AddCompilationUnit(unit CompilationUnit) {
	f.units = append(f.units, unit)
}

func (f *Function) IsVarargs() bool {
	return len(f.Parameters) > 0 && f.Parameters[len(f.Parameters)-1].Varargs
}

// Accepts reports whether a call with argc arguments matches the
// function's arity. A trailing varargs parameter accepts zero or more
// arguments.
func (f *Function) Accepts(argc int) bool {
	if f.IsVarargs() {
		return argc >= len(f.Parameters)-1
	}
	return argc == len(f.Parameters)
}

func (f *Function) Signature() string {
	params := make([]string, len(f.Parameters))
	for ii, param := range f.Parameters {
		params[ii] = param.Type.QualifiedName()
		if param.Varargs {
			params[ii] += "..."
		}
	}
	_, name := SplitName(f.name)
	return name + "(" + strings.Join(params, ", ") + "): " + f.ReturnType.QualifiedName()
}

func (f *Function) Equal(other *Function) bool {
	if f.name != other.name || len(f.Parameters) != len(other.Parameters) {
		return false
	}
	for ii, param := range f.Parameters {
		o := other.Parameters[ii]
		if param.Varargs != o.Varargs || !typeNamesEqual(param.Type, o.Type) {
			return false
		}
	}
	return typeNamesEqual(f.ReturnType, other.ReturnType)
}

// ViewFind is one `find { ... } as { ... }` clause of a view. Source is
// the single member type, or a JoinType when members are joined.
// Projection is nil when the clause has no `as` block.
type ViewFind struct {
	Source     Type
	Projection *ObjectType
	Unit       CompilationUnit
}

type View struct {
	name        string
	Inherits    []Type
	Finds       []*ViewFind
	Annotations []*Annotation
	Doc         string
	units       []CompilationUnit
}

func NewView(qualifiedName string, unit CompilationUnit) *View {
	return &View{name: qualifiedName, units: []CompilationUnit{unit}}
}

func (v *View) QualifiedName() string {
	return v.name
}

func (v *View) CompilationUnits() []CompilationUnit {
	return slices.Clone(v.units)
}

func (v *View) AddCompilationUnit(unit CompilationUnit) {
	v.units = append(v.units, unit)
}

func (v *View) Equal(other *View) bool {
	if v.name != other.name || len(v.Finds) != len(other.Finds) {
		return false
	}
	for ii, find := range v.Finds {
		o := other.Finds[ii]
		if !typeNamesEqual(find.Source, o.Source) {
			return false
		}
		if (find.Projection == nil) != (o.Projection == nil) {
			return false
		}
		if find.Projection != nil && !find.Projection.def.Equal(o.Projection.def) {
			return false
		}
	}
	return typeListsEqual(v.Inherits, other.Inherits) &&
		annotationsEqual(v.Annotations, other.Annotations)
}

func (v *View) ReferencedTypes() []Type {
	var out []Type
	for _, parent := range v.Inherits {
		out = appendNamedTypes(out, parent)
	}
	for _, find := range v.Finds {
		out = appendNamedTypes(out, find.Source)
		if find.Projection != nil {
			for _, field := range find.Projection.Fields() {
				out = appendNamedTypes(out, field.Type)
				out = appendAccessorTypes(out, field.Accessor)
			}
		}
	}
	return out
}
