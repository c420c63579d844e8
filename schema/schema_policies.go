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
)

type OperationScope string

const (
	ScopeInternalAndExternal OperationScope = "internal"
	ScopeExternal            OperationScope = "external"
)

// ParseOperationScope maps a scope symbol to its OperationScope.
func ParseOperationScope(symbol string) (OperationScope, bool) {
	switch OperationScope(symbol) {
	case ScopeInternalAndExternal, ScopeExternal:
		return OperationScope(symbol), true
	}
	return "", false
}

const WildcardOperationType = "*"

// PolicyScope selects the operations a rule set applies to.
type PolicyScope struct {
	OperationType  string
	OperationScope OperationScope
}

var DefaultPolicyScope = PolicyScope{
	OperationType:  WildcardOperationType,
	OperationScope: ScopeInternalAndExternal,
}

func (s PolicyScope) String() string {
	return s.OperationType + " " + string(s.OperationScope)
}

type Operator string

const (
	OperatorEqual    Operator = "="
	OperatorNotEqual Operator = "!="
)

type InstructionType string

const (
	InstructionPermit  InstructionType = "permit"
	InstructionProcess InstructionType = "process"
	InstructionDefer   InstructionType = "defer"
	InstructionDeny    InstructionType = "deny"
)

// ParseInstructionType maps an instruction symbol to its type.
func ParseInstructionType(symbol string) (InstructionType, bool) {
	switch InstructionType(symbol) {
	case InstructionPermit, InstructionProcess, InstructionDefer, InstructionDeny:
		return InstructionType(symbol), true
	}
	return "", false
}

// Instruction is the outcome of a matched policy statement. Processor is
// only set for `process` instructions.
type Instruction struct {
	Type      InstructionType
	Processor string
}

func (i Instruction) String() string {
	if i.Processor != "" {
		return string(i.Type) + " using " + i.Processor
	}
	return string(i.Type)
}

type RelativeSource string

const (
	SourceCaller RelativeSource = "caller"
	SourceThis   RelativeSource = "this"
)

// Subject is one side of a policy case comparison.
type Subject interface {
	String() string
	isSubject()
}

// RelativeSubject reads a value of TargetType from the caller or from the
// policy's target.
type RelativeSubject struct {
	Source     RelativeSource
	TargetType Type
}

type LiteralSubject struct {
	Value any
}

type AnyOfValuesSubject struct {
	Values []any
}

func (*RelativeSubject) isSubject()    {}
func (*LiteralSubject) isSubject()     {}
func (*AnyOfValuesSubject) isSubject() {}

func (s *RelativeSubject) String() string {
	return string(s.Source) + "." + s.TargetType.QualifiedName()
}

func (s *LiteralSubject) String() string {
	return FormatLiteral(s.Value)
}

func (s *AnyOfValuesSubject) String() string {
	values := make([]string, len(s.Values))
	for ii, v := range s.Values {
		values[ii] = FormatLiteral(v)
	}
	return quoteList(values)
}

// Condition is either a CaseCondition or an ElseCondition.
type Condition interface {
	String() string
	isCondition()
}

type CaseCondition struct {
	Lhs      Subject
	Operator Operator
	Rhs      Subject
}

type ElseCondition struct{}

func (*CaseCondition) isCondition() {}
func (*ElseCondition) isCondition() {}

func (c *CaseCondition) String() string {
	return fmt.Sprintf("case %s %s %s", c.Lhs, c.Operator, c.Rhs)
}

func (*ElseCondition) String() string {
	return "else"
}

type PolicyStatement struct {
	Condition   Condition
	Instruction Instruction
	Unit        CompilationUnit
}

func (s *PolicyStatement) String() string {
	return s.Condition.String() + " -> " + s.Instruction.String()
}

// RuleSet holds statements in declaration order. The first statement whose
// condition matches decides the instruction.
type RuleSet struct {
	Scope      PolicyScope
	Statements []*PolicyStatement
	Unit       CompilationUnit
}

type Policy struct {
	name        string
	TargetType  Type
	RuleSets    []*RuleSet
	Annotations []*Annotation
	Doc         string
	units       []CompilationUnit
}

func NewPolicy(qualifiedName string, unit CompilationUnit) *Policy {
	return &Policy{name: qualifiedName, units: []CompilationUnit{unit}}
}

func (p *Policy) QualifiedName() string {
	return p.name
}

func (p *Policy) CompilationUnits() []CompilationUnit {
	return slices.Clone(p.units)
}

func (p *Policy) AddCompilationUnit(unit CompilationUnit) {
	p.units = append(p.units, unit)
}

// RuleSet returns the rule set for an exact scope.
func (p *Policy) RuleSet(scope PolicyScope) (*RuleSet, bool) {
	for _, ruleSet := range p.RuleSets {
		if ruleSet.Scope == scope {
			return ruleSet, true
		}
	}
	return nil, false
}

func (p *Policy) Equal(other *Policy) bool {
	if p.name != other.name || len(p.RuleSets) != len(other.RuleSets) {
		return false
	}
	for ii, ruleSet := range p.RuleSets {
		o := other.RuleSets[ii]
		if ruleSet.Scope != o.Scope || len(ruleSet.Statements) != len(o.Statements) {
			return false
		}
		for jj, stmt := range ruleSet.Statements {
			if stmt.String() != o.Statements[jj].String() {
				return false
			}
		}
	}
	return typeNamesEqual(p.TargetType, other.TargetType) &&
		annotationsEqual(p.Annotations, other.Annotations)
}

func (p *Policy) ReferencedTypes() []Type {
	out := appendNamedTypes(nil, p.TargetType)
	for _, ruleSet := range p.RuleSets {
		for _, stmt := range ruleSet.Statements {
			if c, ok := stmt.Condition.(*CaseCondition); ok {
				for _, subject := range []Subject{c.Lhs, c.Rhs} {
					if rel, ok := subject.(*RelativeSubject); ok {
						out = appendNamedTypes(out, rel.TargetType)
					}
				}
			}
		}
	}
	return out
}
