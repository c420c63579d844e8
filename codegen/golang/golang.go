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

// Package golang generates Go declarations from a codegen request: object
// types become structs, enums become typed constants, type aliases become
// named types and services become interfaces.
package golang

import (
	"fmt"
	"go/format"
	"go/token"
	"path"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/BlexSetlog/taxilang/codegen"
	"github.com/BlexSetlog/taxilang/schema"
)

// DefaultPackage is used when the request has no "package" option.
const DefaultPackage = "taxi"

// Generate renders every declaration of the request into one Go source
// file. The "package" option names the Go package, optionally prefixed by
// the directory to write it to.
func Generate(req *codegen.Request) (*codegen.Response, error) {
	goPackage := req.Options["package"]
	if goPackage == "" {
		goPackage = DefaultPackage
	}
	g := &generator{
		req:     req,
		names:   make(map[string]string),
		imports: make(map[string]bool),
	}
	if err := g.assignNames(); err != nil {
		return nil, err
	}
	src, err := g.emit(path.Base(goPackage))
	if err != nil {
		return nil, err
	}
	return &codegen.Response{
		Files: []*codegen.OutputFile{{
			Path:    strings.Split(goPackage+".go", "/"),
			Content: string(src),
		}},
	}, nil
}

type generator struct {
	req     *codegen.Request
	names   map[string] /* qualified name */ string
	imports map[string]bool
	buf     strings.Builder
}

func (g *generator) line(s string) {
	g.buf.WriteString(s)
	g.buf.WriteString("\n")
}

func (g *generator) linef(format string, a ...any) {
	g.line(fmt.Sprintf(format, a...))
}

func (g *generator) doc(indent, text string) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		g.line(strings.TrimRight(indent+"// "+line, " "))
	}
}

func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// assignNames gives each declaration the exported form of its unqualified
// name. Two declarations that would share a Go name are an error.
func (g *generator) assignNames() error {
	var qualified []string
	for _, t := range g.req.Types {
		qualified = append(qualified, t.Name)
	}
	for _, e := range g.req.Enums {
		qualified = append(qualified, e.Name)
	}
	for _, a := range g.req.Aliases {
		qualified = append(qualified, a.Name)
	}
	for _, s := range g.req.Services {
		qualified = append(qualified, s.Name)
	}

	owners := make(map[string]string)
	for _, name := range qualified {
		_, local := schema.SplitName(name)
		goName := exported(local)
		if prev, ok := owners[goName]; ok && prev != name {
			return fmt.Errorf("Go name %s is used by both %s and %s", goName, prev, name)
		}
		owners[goName] = name
		g.names[name] = goName
	}
	return nil
}

var primitiveTypes = map[string]string{
	schema.Boolean.QualifiedName():  "bool",
	schema.String.QualifiedName():   "string",
	schema.Int.QualifiedName():      "int64",
	schema.Decimal.QualifiedName():  "float64",
	schema.Double.QualifiedName():   "float64",
	schema.Date.QualifiedName():     "time.Time",
	schema.Time.QualifiedName():     "time.Time",
	schema.DateTime.QualifiedName(): "time.Time",
	schema.Instant.QualifiedName():  "time.Time",
	schema.Any.QualifiedName():      "any",
	schema.Array.QualifiedName():    "[]any",
}

func (g *generator) goType(ref codegen.TypeRef, nullable bool) string {
	var base string
	switch {
	case ref.Union != nil:
		base = "any"
	case primitiveTypes[ref.Name] != "":
		base = primitiveTypes[ref.Name]
		if strings.HasPrefix(base, "time.") {
			g.imports["time"] = true
		}
	case g.names[ref.Name] != "":
		base = g.names[ref.Name]
	default:
		base = "any"
	}
	if ref.ArrayDepth > 0 {
		return strings.Repeat("[]", ref.ArrayDepth) + base
	}
	if nullable && base != "any" {
		return "*" + base
	}
	return base
}

func paramName(name string, index int) string {
	if name == "" {
		return fmt.Sprintf("p%d", index)
	}
	if token.IsKeyword(name) || name == "ctx" {
		return name + "_"
	}
	return name
}

func (g *generator) emit(packageName string) ([]byte, error) {
	var body strings.Builder
	decls := &g.buf

	for _, alias := range g.req.Aliases {
		g.doc("", alias.Doc)
		g.linef("type %s %s", g.names[alias.Name], g.goType(alias.Aliases, false))
		g.line("")
	}
	for _, enum := range g.req.Enums {
		g.emitEnum(enum)
	}
	for _, t := range g.req.Types {
		g.emitStruct(t)
	}
	for _, service := range g.req.Services {
		g.emitService(service)
	}
	declText := strings.TrimRight(decls.String(), "\n")

	body.WriteString("// Code generated by taxi-codegen-go. DO NOT EDIT.\n\n")
	fmt.Fprintf(&body, "package %s\n", packageName)
	imports := make([]string, 0, len(g.imports))
	for imp := range g.imports {
		imports = append(imports, strconv.Quote(imp))
	}
	slices.Sort(imports)
	switch len(imports) {
	case 0:
	case 1:
		fmt.Fprintf(&body, "\nimport %s\n", imports[0])
	default:
		body.WriteString("\nimport (\n")
		for _, imp := range imports {
			fmt.Fprintf(&body, "\t%s\n", imp)
		}
		body.WriteString(")\n")
	}
	if declText != "" {
		body.WriteString("\n")
		body.WriteString(declText)
		body.WriteString("\n")
	}

	src, err := format.Source([]byte(body.String()))
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w\n%s", err, body.String())
	}
	return src, nil
}

func (g *generator) emitEnum(enum *codegen.EnumDecl) {
	name := g.names[enum.Name]
	intBased := enum.Base == schema.Int.QualifiedName()
	goBase := "string"
	if intBased {
		goBase = "int64"
	}
	g.doc("", enum.Doc)
	g.linef("type %s %s", name, goBase)
	g.line("")
	if len(enum.Values) == 0 {
		return
	}
	g.line("const (")
	for _, value := range enum.Values {
		literal := strconv.Quote(value.Value)
		if intBased {
			literal = value.Value
		}
		g.doc("\t", value.Doc)
		g.linef("\t%s%s %s = %s", name, exported(value.Name), name, literal)
	}
	g.line(")")
	g.line("")
}

func (g *generator) emitStruct(t *codegen.TypeDecl) {
	g.doc("", t.Doc)
	g.linef("type %s struct {", g.names[t.Name])
	for _, parent := range t.Inherits {
		g.linef("\t%s", g.goType(codegen.TypeRef{Name: parent}, false))
	}
	if len(t.Inherits) > 0 && len(t.Fields) > 0 {
		g.line("")
	}
	for _, field := range t.Fields {
		tag := field.Name
		if field.Nullable {
			tag += ",omitempty"
		}
		g.doc("\t", field.Doc)
		g.linef("\t%s %s `json:%s`",
			exported(field.Name),
			g.goType(field.Type, field.Nullable),
			strconv.Quote(tag),
		)
	}
	g.line("}")
	g.line("")
}

func (g *generator) emitService(service *codegen.ServiceDecl) {
	g.imports["context"] = true
	g.doc("", service.Doc)
	g.linef("type %s interface {", g.names[service.Name])
	for _, op := range service.Operations {
		params := []string{"ctx context.Context"}
		for ii, param := range op.Params {
			params = append(params, paramName(param.Name, ii)+" "+g.goType(param.Type, false))
		}
		results := "error"
		if op.Returns != nil {
			results = "(" + g.goType(*op.Returns, false) + ", error)"
		}
		g.doc("\t", op.Doc)
		g.linef("\t%s(%s) %s", exported(op.Name), strings.Join(params, ", "), results)
	}
	g.line("}")
	g.line("")
}
