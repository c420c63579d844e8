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

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BlexSetlog/taxilang/codegen"
	"github.com/BlexSetlog/taxilang/compiler"
	"github.com/BlexSetlog/taxilang/internal/testutil"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		testutil.AssertNoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		testutil.AssertNoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestDecodeConfig(t *testing.T) {
	t.Parallel()
	config, err := decodeConfig(strings.NewReader(`
sources:
  - schema/*.taxi
dependencies:
  - ../shared/lib.taxi
codegen:
  language: go
  output: gen
  options:
    package: orders
`), "project")
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t, []string{"schema/*.taxi"}, config.Sources)
	testutil.ExpectEq(t, "go", config.Codegen.Language)
	testutil.ExpectEq(t, "orders", config.Codegen.Options["package"])
	testutil.ExpectSliceEq(t,
		[]string{filepath.Join("project", "schema/*.taxi"), filepath.Join("shared", "lib.taxi")},
		config.resolve(append(config.Sources, config.Dependencies...)),
	)

	_, err = decodeConfig(strings.NewReader("sourcez: [a.taxi]\n"), ".")
	testutil.AssertError(t, err)
	testutil.ExpectMatch(t, `(?s)^Invalid project config: .*sourcez`, err.Error())

	config, err = decodeConfig(strings.NewReader(""), ".")
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 0, len(config.Sources))
}

func TestProjectCompile(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{
		"taxi.yaml": "sources: [src/*.taxi]\ndependencies: [deps/lib.taxi]\n",
		"deps/lib.taxi": `
namespace lib {
   type alias Isbn as String
}`,
		"src/book.taxi": `
import lib.Isbn
namespace shop {
   model Book {
      isbn : Isbn
   }
}`,
	})
	global := &globalOptions{configPath: filepath.Join(dir, "taxi.yaml")}
	p, err := loadProject(global, nil, nil)
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t, []string{filepath.Join(dir, "src", "book.taxi")}, p.sources)
	testutil.ExpectSliceEq(t, []string{filepath.Join(dir, "deps", "lib.taxi")}, p.deps)

	var stderr strings.Builder
	result, err := p.compile(&stderr)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "", stderr.String())
	doc, err := result.Document()
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t, []string{"lib.Isbn", "shop.Book"}, doc.TypeNames())
}

func TestProjectDiagnostics(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{
		"foo.taxi": "namespace demo {\n   model Foo {\n      bar : Bar\n   }\n}\n",
	})
	srcPath := filepath.Join(dir, "foo.taxi")
	p, err := loadProject(&globalOptions{configPath: filepath.Join(dir, "missing.yaml")}, []string{srcPath}, nil)
	testutil.AssertError(t, err)
	testutil.ExpectTrue(t, p == nil)

	p, err = loadProject(&globalOptions{}, []string{srcPath}, nil)
	testutil.AssertNoError(t, err)

	var stderr strings.Builder
	result, err := p.compile(&stderr)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 1, len(result.Errors))
	testutil.ExpectEq(t,
		filepath.ToSlash(srcPath)+":3:13: E3000: Bar is not defined\n",
		stderr.String(),
	)
}

func TestExpandGlobs(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{
		"b.taxi": "",
		"a.taxi": "",
	})
	paths, err := expandGlobs([]string{
		filepath.Join(dir, "*.taxi"),
		filepath.Join(dir, "a.taxi"),
	})
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t, []string{
		filepath.Join(dir, "a.taxi"),
		filepath.Join(dir, "b.taxi"),
	}, paths)

	_, err = expandGlobs([]string{filepath.Join(dir, "*.yaml")})
	testutil.AssertError(t, err)
	testutil.ExpectMatch(t, `^No files match`, err.Error())
}

func TestOutPath(t *testing.T) {
	t.Parallel()
	path, err := outPath("out", &codegen.OutputFile{Path: []string{"gen", "demo.go"}})
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, filepath.Join("out", "gen", "demo.go"), path)

	for _, parts := range [][]string{
		nil,
		{""},
		{".."},
		{"gen", "."},
		{"/etc", "passwd"},
		{"gen/demo.go"},
	} {
		_, err := outPath("out", &codegen.OutputFile{Path: parts})
		testutil.ExpectMatch(t, `^Invalid output path`, err.Error())
	}
}

func TestLocatePlugin(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{
		"plugins/taxi-codegen-go.wasm": "",
	})
	searchPath := strings.Join([]string{
		filepath.Join(dir, "empty"),
		filepath.Join(dir, "plugins"),
	}, string(filepath.ListSeparator))

	path, err := locatePlugin(searchPath, "go")
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, filepath.Join(dir, "plugins", "taxi-codegen-go.wasm"), path)

	_, err = locatePlugin(searchPath, "rust")
	testutil.ExpectEq(t,
		"Taxi codegen plugin taxi-codegen-rust.wasm not found in plugin path",
		err.Error(),
	)
}

func TestInspector(t *testing.T) {
	t.Parallel()
	doc, err := compiler.ForStrings(`namespace demo {
   model Person {
      name : Name
   }
   type alias Name as String
   service People {
      operation find(name : Name) : Person
   }
}`).Compile()
	testutil.AssertNoError(t, err)
	insp := &inspector{doc: doc}

	eval := func(line string) (string, error) {
		var out strings.Builder
		quit, err := insp.eval(line, &out)
		testutil.ExpectFalse(t, quit)
		return out.String(), err
	}

	out, err := eval("types")
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "demo.Name\ndemo.Person\n", out)

	out, err = eval("type demo.Name")
	testutil.AssertNoError(t, err)
	testutil.ExpectNoDiff(t, "alias \"demo.Name\" {\n\taliases = \"lang.taxi.String\"\n}\n", out)

	_, err = eval("at [unknown source] 3 7")
	testutil.ExpectEq(t, "at expects 3 arguments, got 4", err.Error())

	_, err = eval("service demo.Person")
	testutil.ExpectEq(t, "demo.Person is not defined", err.Error())

	_, err = eval("show demo.Missing")
	testutil.ExpectEq(t, "demo.Missing is not defined", err.Error())

	_, err = eval("frobnicate")
	testutil.ExpectEq(t, `Unknown command "frobnicate", try 'help'`, err.Error())

	testutil.ExpectSliceEq(t,
		[]string{"show demo.Name", "show demo.Person", "show demo.People"},
		insp.complete("show demo."),
	)

	quit, err := insp.eval(":quit", &strings.Builder{})
	testutil.AssertNoError(t, err)
	testutil.ExpectTrue(t, quit)
}

func TestInspectorDeclarationAt(t *testing.T) {
	t.Parallel()
	doc, err := compiler.NewCompiler([]compiler.Source{{
		Name:    "people.taxi",
		Content: []byte("namespace demo {\n   model Person {\n      name : String\n   }\n}\n"),
	}}).Compile()
	testutil.AssertNoError(t, err)

	var out strings.Builder
	_, err = (&inspector{doc: doc}).eval("at people.taxi 3 8", &out)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "field demo.Person.name (people.taxi:3:7)\n", out.String())
}
