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

package compiler_test

import (
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/BlexSetlog/taxilang/compiler"
	"github.com/BlexSetlog/taxilang/encoding/taxitext"
	"github.com/BlexSetlog/taxilang/internal/testutil"
	"github.com/BlexSetlog/taxilang/schema"
)

var (
	testdata       fs.FS
	schemaErrors   map[string]*testutil.Diagnostic
	schemaWarnings map[string]*testutil.Diagnostic
)

func init() {
	var err error
	testdata, err = testutil.TestdataFS()
	if err != nil {
		panic(err)
	}
	schemaErrors, err = testutil.LoadSchemaErrors(testdata)
	if err != nil {
		panic(err)
	}
	schemaWarnings, err = testutil.LoadSchemaWarnings(testdata)
	if err != nil {
		panic(err)
	}
}

// schemaTest runs one case under testdata/schema. A case with an
// `expect_err.json` must fail with exactly those errors; any other case
// must compile to the taxitext in `expect_ok.txt`, reporting only the
// warnings in `expect_warn.json`.
func schemaTest(t *testing.T, testName string) {
	t.Parallel()

	caseDir := fmt.Sprintf("schema/%s", testName)
	result := compileTestInputs(t, testName)

	expectErrPath := caseDir + "/expect_err.json"
	if _, err := fs.Stat(testdata, expectErrPath); err == nil {
		expectErrors := testutil.LoadExpectedErrors(t, schemaErrors, testdata, expectErrPath)
		if len(expectErrors) == 0 {
			t.Fatalf("%s lists no errors", expectErrPath)
		}
		testutil.ExpectDiagnostics(t, result.Errors, expectErrors)
		return
	}

	expectText, err := fs.ReadFile(testdata, caseDir+"/expect_ok.txt")
	testutil.AssertNoError(t, err)

	var expectWarnings []*testutil.ExpectedDiagnostic
	expectWarnPath := caseDir + "/expect_warn.json"
	if _, err := fs.Stat(testdata, expectWarnPath); err == nil {
		expectWarnings = testutil.LoadExpectedWarnings(t, schemaWarnings, testdata, expectWarnPath)
	}

	if len(result.Errors) > 0 {
		for _, err := range result.Errors {
			testutil.ExpectNoError(t, err)
		}
		t.FailNow()
	}
	testutil.ExpectDiagnostics(t, result.Warnings, expectWarnings)

	doc, err := result.Document()
	testutil.AssertNoError(t, err)
	testutil.ExpectNoDiff(t, string(expectText), taxitext.Encode(doc))
}

// compileTestInputs compiles schema/<name>/<name>.taxi. Any `*.part.taxi`
// files are compiled with it as additional sources, and any other `.taxi`
// files are compiled first and offered to it as imports.
func compileTestInputs(t *testing.T, testName string) compiler.CompileResult {
	testSrcs, err := fs.ReadDir(testdata, fmt.Sprintf("schema/%s", testName))
	testutil.AssertNoError(t, err)

	mainName := testName + ".taxi"
	srcPath := fmt.Sprintf("schema/%s/%s", testName, mainName)
	src, err := fs.ReadFile(testdata, srcPath)
	testutil.AssertNoError(t, err)
	sources := []compiler.Source{{Name: mainName, Content: src}}

	var deps []*schema.Document
	for _, fileEntry := range testSrcs {
		fileName := fileEntry.Name()
		if !strings.HasSuffix(fileName, ".taxi") || fileName == mainName {
			continue
		}

		filePath := fmt.Sprintf("schema/%s/%s", testName, fileName)
		fileContent, err := fs.ReadFile(testdata, filePath)
		testutil.AssertNoError(t, err)

		if strings.HasSuffix(fileName, ".part.taxi") {
			sources = append(sources, compiler.Source{
				Name:    fileName,
				Content: fileContent,
			})
			continue
		}

		result := compiler.Compile([]compiler.Source{{
			Name:    fileName,
			Content: fileContent,
		}})
		if len(result.Errors) > 0 {
			for _, err := range result.Errors {
				testutil.ExpectNoError(t, err)
			}
			t.FailNow()
		}

		doc, err := result.Document()
		testutil.AssertNoError(t, err)
		deps = append(deps, doc)
	}

	var compileOpts []compiler.CompileOption
	if len(deps) > 0 {
		mergedDeps, err := compiler.Merge(deps)
		testutil.AssertNoError(t, err)
		compileOpts = append(compileOpts, compiler.WithDependencies(mergedDeps))
	}

	return compiler.Compile(sources, compileOpts...)
}

func TestSchema(t *testing.T) {
	t.Parallel()

	testDirs, err := fs.ReadDir(testdata, "schema")
	testutil.AssertNoError(t, err)

	for _, testDir := range testDirs {
		if testDir.IsDir() {
			testName := testDir.Name()
			t.Run(testName, func(t *testing.T) {
				schemaTest(t, testName)
			})
		}
	}
}
