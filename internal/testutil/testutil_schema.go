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

package testutil

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/BlexSetlog/taxilang/syntax"
)

// Diagnostic is one entry of a diagnostics catalogue. Entries are keyed by
// a SCREAMING_CASE name, from which the diagnostic's kind is derived:
// UNRESOLVED_TYPE in the error catalogue is "UnresolvedTypeError".
type Diagnostic struct {
	Key     string
	Kind    string
	Code    uint32
	Message string
	Pattern *regexp.Regexp
}

func LoadSchemaErrors(testdata fs.FS) (map[string]*Diagnostic, error) {
	return loadCatalogue(testdata, "diagnostics/schema_errors.json", "Error", "")
}

func LoadSchemaWarnings(testdata fs.FS) (map[string]*Diagnostic, error) {
	return loadCatalogue(testdata, "diagnostics/schema_warnings.json", "Warning", "")
}

// loadCatalogue reads a catalogue file. Keys starting with '_' are section
// markers and may reserve a code without describing a diagnostic. Message
// patterns are compiled with patternFlags prepended.
func loadCatalogue(testdata fs.FS, path, kindSuffix, patternFlags string) (map[string]*Diagnostic, error) {
	type raw struct {
		Code    uint32 `json:"code"`
		Message string `json:"message"`
		Pattern string `json:"message_pattern"`
	}

	jsonData, err := fs.ReadFile(testdata, path)
	if err != nil {
		return nil, err
	}

	var rawEntries map[string]raw
	decoder := json.NewDecoder(bytes.NewReader(jsonData))
	decoder.UseNumber()
	if err := decoder.Decode(&rawEntries); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	out := make(map[string]*Diagnostic, len(rawEntries))
	codes := make(map[uint32]string, len(rawEntries))
	for key, raw := range rawEntries {
		if key[0] != '_' && raw.Code == 0 {
			return nil, fmt.Errorf("%s: %q has no code", path, key)
		}
		if raw.Code != 0 {
			if prev, conflict := codes[raw.Code]; conflict {
				return nil, fmt.Errorf("%s: code %d used by both %q and %q", path, raw.Code, prev, key)
			}
			codes[raw.Code] = key
		}
		if key[0] == '_' {
			continue
		}

		var pattern *regexp.Regexp
		if raw.Pattern != "" {
			pattern, err = regexp.Compile(patternFlags + raw.Pattern)
			if err != nil {
				return nil, fmt.Errorf("%s: %q: %w", path, key, err)
			}
		}
		out[key] = &Diagnostic{
			Key:     key,
			Kind:    kindName(key) + kindSuffix,
			Code:    raw.Code,
			Message: raw.Message,
			Pattern: pattern,
		}
	}
	return out, nil
}

func kindName(key string) string {
	var buf strings.Builder
	for _, word := range strings.Split(key, "_") {
		if word == "" {
			continue
		}
		buf.WriteString(word[:1])
		buf.WriteString(strings.ToLower(word[1:]))
	}
	return buf.String()
}

// ExpectedDiagnostic is a catalogued diagnostic expected at a given span.
type ExpectedDiagnostic struct {
	Diagnostic
	Span syntax.Span
}

// LoadExpectedErrors reads an `expect_err.json` file:
//
//	{"errors": [{"error": "UNRESOLVED_TYPE", "error_span": {"start": 44, "len": 3}}]}
func LoadExpectedErrors(
	t *testing.T,
	catalogue map[string]*Diagnostic,
	testdata fs.FS,
	jsonPath string,
) []*ExpectedDiagnostic {
	t.Helper()
	return loadExpected(t, catalogue, testdata, jsonPath, "error")
}

// LoadExpectedWarnings reads an `expect_warn.json` file, which has the
// same shape as `expect_err.json` with "warning" in place of "error".
func LoadExpectedWarnings(
	t *testing.T,
	catalogue map[string]*Diagnostic,
	testdata fs.FS,
	jsonPath string,
) []*ExpectedDiagnostic {
	t.Helper()
	return loadExpected(t, catalogue, testdata, jsonPath, "warning")
}

func loadExpected(
	t *testing.T,
	catalogue map[string]*Diagnostic,
	testdata fs.FS,
	jsonPath string,
	field string,
) []*ExpectedDiagnostic {
	t.Helper()

	jsonData, err := fs.ReadFile(testdata, jsonPath)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string][]map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(jsonData))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		t.Fatalf("%s: %v", jsonPath, err)
	}

	var out []*ExpectedDiagnostic
	for _, entry := range raw[field+"s"] {
		name, _ := entry[field].(string)
		diag, ok := catalogue[name]
		if !ok {
			t.Fatalf("%s: unknown schema %s name %q", jsonPath, field, name)
		}
		out = append(out, &ExpectedDiagnostic{
			Diagnostic: *diag,
			Span:       SpanOrDie(t, entry[field+"_span"]),
		})
	}

	slices.SortFunc(out, func(a, b *ExpectedDiagnostic) int {
		if x := cmp.Compare(a.Span.Start(), b.Span.Start()); x != 0 {
			return x
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return out
}

// Reported is a diagnostic reported by the compiler.
type Reported interface {
	Code() uint32
	Message() string
	Span() syntax.Span
}

// ExpectDiagnostics compares reported diagnostics with expectations, in
// order. Reported values with a Kind method must match the catalogued
// kind.
func ExpectDiagnostics[R Reported](t *testing.T, got []R, want []*ExpectedDiagnostic) {
	t.Helper()
	for ii := range max(len(got), len(want)) {
		if ii >= len(got) {
			name := want[ii].Message
			if name == "" {
				name = want[ii].Key
			}
			t.Errorf("expected diagnostic %q (code %d)", name, want[ii].Code)
			continue
		}
		if ii >= len(want) {
			t.Errorf("unexpected diagnostic %q (code %d)", got[ii].Message(), got[ii].Code())
			continue
		}

		g, w := got[ii], want[ii]
		ExpectEq(t, w.Code, g.Code())
		if kinded, ok := any(g).(interface{ Kind() string }); ok {
			ExpectEq(t, w.Kind, kinded.Kind())
		}
		if w.Pattern != nil {
			ExpectMatch(t, w.Pattern, g.Message())
		} else if w.Message != "" {
			ExpectEq(t, w.Message, g.Message())
		}
		ExpectEq(t, w.Span, g.Span())
	}
}
