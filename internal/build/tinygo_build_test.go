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
	"path/filepath"
	"testing"

	"github.com/BlexSetlog/taxilang/internal/testutil"
)

func TestTinygoArgs(t *testing.T) {
	t.Parallel()
	pwd := filepath.FromSlash("/src/taxilang")

	opts := &buildOptions{language: "go", target: "wasm-unknown"}
	testutil.ExpectSliceEq(t, []string{
		"build",
		"-o=" + filepath.Join(pwd, "taxi-codegen-go.wasm"),
		"-target=wasm-unknown",
		"-no-debug",
		"./bin/taxi-codegen-go",
	}, tinygoArgs(opts, pwd))

	opts = &buildOptions{
		language: "go",
		target:   "wasi",
		output:   filepath.Join("plugins", "go.wasm"),
		debug:    true,
	}
	testutil.ExpectSliceEq(t, []string{
		"build",
		"-o=" + filepath.Join(pwd, "plugins", "go.wasm"),
		"-target=wasi",
		"./bin/taxi-codegen-go",
	}, tinygoArgs(opts, pwd))
}

func TestTinygoEnv(t *testing.T) {
	t.Parallel()
	environ := []string{"PATH=/usr/bin"}
	testutil.ExpectSliceEq(t, environ, tinygoEnv(&buildOptions{}, environ))
	testutil.ExpectSliceEq(t,
		[]string{"PATH=/usr/bin", "WASMOPT=/opt/wasm-opt"},
		tinygoEnv(&buildOptions{wasmOpt: "/opt/wasm-opt"}, environ),
	)
}
