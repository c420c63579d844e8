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

func (c *compiler) compilePolicies() {
	for _, name := range c.tokens.policyOrder {
		for _, tok := range c.tokens.policies[name] {
			policy, ok := c.compilePolicy(tok)
			if !ok {
				continue
			}
			prev, ok := c.policies[name]
			if !ok {
				c.policies[name] = policy
				continue
			}
			unit := policy.CompilationUnits()[0]
			if !prev.Equal(policy) {
				c.err(errRedefinition(
					"policy",
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

func (c *compiler) compilePolicy(tok *token[*syntax.Policy]) (*schema.Policy, bool) {
	sc := tok.scope()
	node := tok.node
	target, err := c.resolveTypeRef(sc, node.Target())
	if err != nil {
		c.err(err)
		return nil, false
	}

	policy := schema.NewPolicy(tok.name, sc.unit(node))
	policy.TargetType = target
	policy.Annotations = c.compileAnnotations(node.Annotations())
	policy.Doc = docText(node.Doc())
	for _, ruleSetNode := range node.RuleSets() {
		if ruleSet, ok := c.compileRuleSet(sc, ruleSetNode); ok {
			policy.RuleSets = append(policy.RuleSets, ruleSet)
		}
	}
	return policy, true
}

func (c *compiler) compileRuleSet(sc scope, node *syntax.RuleSet) (*schema.RuleSet, bool) {
	ruleSet := &schema.RuleSet{
		Scope: schema.DefaultPolicyScope,
		Unit:  sc.unit(node),
	}
	switch opType := node.OperationType().(type) {
	case nil:
	case *syntax.Ident:
		ruleSet.Scope.OperationType = opType.Unescaped()
	case *syntax.Sigil:
		ruleSet.Scope.OperationType = schema.WildcardOperationType
	default:
		panic("unreachable")
	}
	if scopeNode := node.Scope(); scopeNode != nil {
		opScope, ok := schema.ParseOperationScope(scopeNode.Get())
		if !ok {
			c.err(errUnknownScope(scopeNode.Get(), sc.at(scopeNode)))
			return nil, false
		}
		ruleSet.Scope.OperationScope = opScope
	}

	if instructionNode := node.Instruction(); instructionNode != nil {
		instruction, ok := c.compileInstruction(sc, instructionNode)
		if !ok {
			return nil, false
		}
		ruleSet.Statements = append(ruleSet.Statements, &schema.PolicyStatement{
			Condition:   &schema.ElseCondition{},
			Instruction: instruction,
			Unit:        sc.unit(instructionNode),
		})
		return ruleSet, true
	}

	for _, stmtNode := range node.Statements() {
		if stmt, ok := c.compileStatement(sc, stmtNode); ok {
			ruleSet.Statements = append(ruleSet.Statements, stmt)
		}
	}
	return ruleSet, true
}

func (c *compiler) compileStatement(sc scope, node *syntax.Statement) (*schema.PolicyStatement, bool) {
	instruction, ok := c.compileInstruction(sc, node.Instruction())
	if !ok {
		return nil, false
	}
	stmt := &schema.PolicyStatement{
		Instruction: instruction,
		Unit:        sc.unit(node),
	}
	if node.IsElse() {
		stmt.Condition = &schema.ElseCondition{}
		return stmt, true
	}

	var operator schema.Operator
	switch symbol := node.Operator().Get(); schema.Operator(symbol) {
	case schema.OperatorEqual, schema.OperatorNotEqual:
		operator = schema.Operator(symbol)
	default:
		c.err(errInvalidOperator(symbol, sc.at(node.Operator())))
		return nil, false
	}
	lhs, lhsOK := c.compileSubject(sc, node.Lhs())
	rhs, rhsOK := c.compileSubject(sc, node.Rhs())
	if !lhsOK || !rhsOK {
		return nil, false
	}
	stmt.Condition = &schema.CaseCondition{
		Lhs:      lhs,
		Operator: operator,
		Rhs:      rhs,
	}
	return stmt, true
}

func (c *compiler) compileSubject(sc scope, node *syntax.Subject) (schema.Subject, bool) {
	switch node.Kind() {
	case syntax.SubjectCaller, syntax.SubjectThis:
		t, err := c.resolveTypeRef(sc, node.TypeRef())
		if err != nil {
			c.err(err)
			return nil, false
		}
		source := schema.SourceCaller
		if node.Kind() == syntax.SubjectThis {
			source = schema.SourceThis
		}
		return &schema.RelativeSubject{Source: source, TargetType: t}, true
	case syntax.SubjectLiteral:
		return &schema.LiteralSubject{Value: node.Literals()[0].Value()}, true
	case syntax.SubjectAnyOf:
		subject := &schema.AnyOfValuesSubject{}
		for _, lit := range node.Literals() {
			subject.Values = append(subject.Values, lit.Value())
		}
		return subject, true
	}
	panic("unreachable")
}

func (c *compiler) compileInstruction(sc scope, node *syntax.Instruction) (schema.Instruction, bool) {
	symbol := node.Name().Get()
	instructionType, ok := schema.ParseInstructionType(symbol)
	if !ok {
		c.err(errInvalidInstruction(symbol, sc.at(node.Name())))
		return schema.Instruction{}, false
	}
	instruction := schema.Instruction{Type: instructionType}
	processor := node.Processor()
	if instructionType == schema.InstructionProcess {
		if processor == nil {
			c.err(errMissingProcessor(sc.at(node)))
			return schema.Instruction{}, false
		}
		instruction.Processor = processor.String()
	}
	return instruction, true
}
