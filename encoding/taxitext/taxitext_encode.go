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

// Package taxitext renders a compiled document as indented text. The
// rendering is stable: declarations appear sorted by name and members in
// declaration order, so two equivalent documents render identically.
package taxitext

import (
	"fmt"
	"io"
	"strings"

	"github.com/BlexSetlog/taxilang/schema"
)

func Encode(doc *schema.Document) string {
	var buf strings.Builder
	EncodeTo(doc, &buf)
	return buf.String()
}

func EncodeTo(doc *schema.Document, w io.Writer) error {
	e := encoder{w: w}
	for _, name := range doc.Imports() {
		e.linef("import %s", quote(name))
	}
	for _, t := range doc.Types() {
		e.visitType(t)
	}
	for _, f := range doc.Functions() {
		e.visitFunction(f)
	}
	for _, s := range doc.Services() {
		e.visitService(s)
	}
	for _, p := range doc.Policies() {
		e.visitPolicy(p)
	}
	for _, v := range doc.Views() {
		e.visitView(v)
	}
	return e.err
}

type encoder struct {
	w      io.Writer
	indent int
	err    error
}

func (e *encoder) line(s string) {
	if e.err != nil {
		return
	}
	if indent := strings.Repeat("\t", e.indent); indent != "" {
		if _, err := io.WriteString(e.w, indent); err != nil {
			e.err = err
			return
		}
	}
	if _, err := io.WriteString(e.w, s); err != nil {
		e.err = err
		return
	}
	if _, err := io.WriteString(e.w, "\n"); err != nil {
		e.err = err
		return
	}
}

func (e *encoder) linef(format string, a ...any) {
	e.line(fmt.Sprintf(format, a...))
}

func (e *encoder) block(header string, body func()) {
	e.line(header + " {")
	e.indent += 1
	body()
	e.indent -= 1
	e.line("}")
}

func (e *encoder) text(name, value string) {
	if value != "" {
		e.linef("%s = %s", name, quote(value))
	}
}

func (e *encoder) flag(name string, value bool) {
	if value {
		e.linef("%s = .true", name)
	}
}

func (e *encoder) annotations(annotations []*schema.Annotation) {
	for _, annotation := range annotations {
		e.text("annotation", annotation.String())
	}
}

func (e *encoder) constraints(name string, constraints []schema.Constraint) {
	for _, constraint := range constraints {
		e.text(name, constraint.String())
	}
}

func (e *encoder) visitType(t schema.Type) {
	switch t := t.(type) {
	case *schema.ObjectType:
		e.block("type "+quote(t.QualifiedName()), func() {
			e.visitObjectBody(t)
		})
	case *schema.EnumType:
		e.block("enum "+quote(t.QualifiedName()), func() {
			e.text("doc", t.Doc())
			e.annotations(t.Annotations())
			e.text("base", t.BasePrimitive().QualifiedName())
			e.flag("lenient", t.IsLenient())
			for _, value := range t.Values() {
				e.block("value "+quote(value.Name), func() {
					e.text("doc", value.Doc)
					e.annotations(value.Annotations)
					e.linef("value = %s", schema.FormatLiteral(value.Value))
					e.flag("default", value.IsDefault)
					for _, synonym := range value.Synonyms {
						e.text("synonym", synonym)
					}
				})
			}
		})
	case *schema.TypeAlias:
		e.block("alias "+quote(t.QualifiedName()), func() {
			e.text("doc", t.Doc())
			e.annotations(t.Annotations())
			if aliased := t.AliasType(); aliased != nil {
				e.text("aliases", aliased.QualifiedName())
			}
		})
	default:
		panic(fmt.Sprintf("taxitext: unhandled type %T", t))
	}
}

func (e *encoder) visitObjectBody(t *schema.ObjectType) {
	e.text("doc", t.Doc())
	e.annotations(t.Annotations())
	for _, modifier := range t.Modifiers() {
		e.text("modifier", string(modifier))
	}
	for _, parent := range t.Inherits() {
		e.text("inherits", parent.QualifiedName())
	}
	for _, field := range t.Fields() {
		e.visitField(field)
	}
}

func (e *encoder) visitField(field *schema.Field) {
	e.block("field "+quote(field.Name), func() {
		e.text("doc", field.Doc)
		e.annotations(field.Annotations)
		e.text("type", field.Type.QualifiedName())
		e.flag("nullable", field.Nullable)
		e.flag("closed", field.Closed)
		e.constraints("constraint", field.Constraints)
		if field.Source != nil {
			e.text("source", field.Source.QualifiedName())
		}
		if field.Accessor != nil {
			e.text("accessor", field.Accessor.String())
		}
	})
}

func (e *encoder) visitFunction(f *schema.Function) {
	e.block("function "+quote(f.QualifiedName()), func() {
		e.text("doc", f.Doc)
		e.annotations(f.Annotations)
		e.text("signature", f.Signature())
	})
}

func (e *encoder) visitService(s *schema.Service) {
	e.block("service "+quote(s.QualifiedName()), func() {
		e.text("doc", s.Doc)
		e.annotations(s.Annotations)
		for _, op := range s.Operations {
			e.block("operation "+quote(op.Name), func() {
				e.text("doc", op.Doc)
				e.annotations(op.Annotations)
				for _, param := range op.Parameters {
					e.block("param "+quote(param.Name), func() {
						e.annotations(param.Annotations)
						e.text("type", param.Type.QualifiedName())
						e.constraints("constraint", param.Constraints)
					})
				}
				e.text("returns", op.ReturnType.QualifiedName())
				if op.Contract != nil {
					e.constraints("contract", op.Contract.Constraints)
				}
			})
		}
	})
}

func (e *encoder) visitPolicy(p *schema.Policy) {
	e.block("policy "+quote(p.QualifiedName()), func() {
		e.text("doc", p.Doc)
		e.annotations(p.Annotations)
		e.text("target", p.TargetType.QualifiedName())
		for _, ruleSet := range p.RuleSets {
			e.block("rules "+quote(ruleSet.Scope.String()), func() {
				for _, stmt := range ruleSet.Statements {
					e.text("statement", stmt.String())
				}
			})
		}
	})
}

func (e *encoder) visitView(v *schema.View) {
	e.block("view "+quote(v.QualifiedName()), func() {
		e.text("doc", v.Doc)
		e.annotations(v.Annotations)
		for _, parent := range v.Inherits {
			e.text("inherits", parent.QualifiedName())
		}
		for _, find := range v.Finds {
			e.block("find "+quote(find.Source.QualifiedName()), func() {
				if find.Projection == nil {
					return
				}
				for _, field := range find.Projection.Fields() {
					e.visitField(field)
				}
			})
		}
	})
}

func quote(text string) string {
	var buf strings.Builder
	buf.WriteByte('"')
	for _, c := range text {
		if c == '\\' || c == '"' {
			buf.WriteByte('\\')
			buf.WriteRune(c)
			continue
		}
		if c == '\t' {
			buf.WriteString("\\t")
			continue
		}
		if c == '\n' {
			buf.WriteString("\\n")
			continue
		}
		if c < 0x20 || c == 0x7F {
			fmt.Fprintf(&buf, "\\x%02X", c)
			continue
		}
		buf.WriteRune(c)
	}
	buf.WriteByte('"')
	return buf.String()
}
