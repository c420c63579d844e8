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
)

// Constraint restricts the permitted content of a parameter or return
// value. Constraints are checked structurally when a document is compiled.
type Constraint interface {
	String() string
	CompilationUnit() CompilationUnit
}

// AttributeConstantValueConstraint requires a field to equal a literal:
// `currency = "GBP"`.
type AttributeConstantValueConstraint struct {
	FieldName     string
	ExpectedValue any
	Unit          CompilationUnit
}

// AttributeValueFromParameterConstraint requires a field to carry the
// value found at a path of the operation's inputs: `currency = target`.
type AttributeValueFromParameterConstraint struct {
	FieldName     string
	AttributePath string
	Unit          CompilationUnit
}

// ReturnValueDerivedFromParameterConstraint declares that a return value
// is derived from an input path: `from source`.
type ReturnValueDerivedFromParameterConstraint struct {
	AttributePath string
	Unit          CompilationUnit
}

func (c *AttributeConstantValueConstraint) String() string {
	return c.FieldName + " = " + FormatLiteral(c.ExpectedValue)
}

func (c *AttributeValueFromParameterConstraint) String() string {
	return c.FieldName + " = " + c.AttributePath
}

func (c *ReturnValueDerivedFromParameterConstraint) String() string {
	return "from " + c.AttributePath
}

func (c *AttributeConstantValueConstraint) CompilationUnit() CompilationUnit {
	return c.Unit
}

func (c *AttributeValueFromParameterConstraint) CompilationUnit() CompilationUnit {
	return c.Unit
}

func (c *ReturnValueDerivedFromParameterConstraint) CompilationUnit() CompilationUnit {
	return c.Unit
}

type Parameter struct {
	Name        string
	Type        Type
	Annotations []*Annotation
	Constraints []Constraint
	Unit        CompilationUnit
}

func (p *Parameter) Equal(other *Parameter) bool {
	return p.Name == other.Name &&
		typeNamesEqual(p.Type, other.Type) &&
		annotationsEqual(p.Annotations, other.Annotations) &&
		constraintsEqual(p.Constraints, other.Constraints)
}

// OperationContract holds the constraints declared on an operation's
// return type.
type OperationContract struct {
	ReturnType  Type
	Constraints []Constraint
}

func (c *OperationContract) Equal(other *OperationContract) bool {
	if c == nil || other == nil {
		return c == nil && other == nil
	}
	return typeNamesEqual(c.ReturnType, other.ReturnType) &&
		constraintsEqual(c.Constraints, other.Constraints)
}

type Operation struct {
	Name        string
	Annotations []*Annotation
	Parameters  []*Parameter
	ReturnType  Type
	Contract    *OperationContract
	Doc         string
	Unit        CompilationUnit
}

func (op *Operation) Equal(other *Operation) bool {
	if op.Name != other.Name || len(op.Parameters) != len(other.Parameters) {
		return false
	}
	for ii, param := range op.Parameters {
		if !param.Equal(other.Parameters[ii]) {
			return false
		}
	}
	return annotationsEqual(op.Annotations, other.Annotations) &&
		typeNamesEqual(op.ReturnType, other.ReturnType) &&
		op.Contract.Equal(other.Contract)
}

type Service struct {
	name        string
	Operations  []*Operation
	Annotations []*Annotation
	Doc         string
	units       []CompilationUnit
}

func NewService(qualifiedName string, unit CompilationUnit) *Service {
	return &Service{name: qualifiedName, units: []CompilationUnit{unit}}
}

func (s *Service) QualifiedName() string {
	return s.name
}

func (s *Service) CompilationUnits() []CompilationUnit {
	return slices.Clone(s.units)
}

func (s *Service) AddCompilationUnit(unit CompilationUnit) {
	s.units = append(s.units, unit)
}

func (s *Service) Operation(name string) (*Operation, bool) {
	for _, op := range s.Operations {
		if op.Name == name {
			return op, true
		}
	}
	return nil, false
}

// Equal compares services by name, annotations, and the set of their
// operations.
func (s *Service) Equal(other *Service) bool {
	if s.name != other.name || len(s.Operations) != len(other.Operations) {
		return false
	}
	for _, op := range s.Operations {
		o, ok := other.Operation(op.Name)
		if !ok || !op.Equal(o) {
			return false
		}
	}
	return annotationsEqual(s.Annotations, other.Annotations)
}

func (s *Service) ReferencedTypes() []Type {
	var out []Type
	for _, op := range s.Operations {
		for _, param := range op.Parameters {
			out = appendNamedTypes(out, param.Type)
		}
		out = appendNamedTypes(out, op.ReturnType)
	}
	return out
}
