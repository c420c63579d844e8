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

// Command build compiles a codegen plugin to WebAssembly with TinyGo.
//
//	go run ./internal/build --language=go -o plugins/taxi-codegen-go.wasm
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/pflag"
)

type buildOptions struct {
	tinygo   string
	output   string
	language string
	target   string
	wasmOpt  string
	debug    bool
}

func main() {
	opts := &buildOptions{}
	flags := pflag.NewFlagSet("build", pflag.ExitOnError)
	flags.StringVar(&opts.tinygo, "tinygo", "tinygo", "TinyGo executable")
	flags.StringVarP(&opts.output, "output", "o", "", "plugin path (default taxi-codegen-LANGUAGE.wasm)")
	flags.StringVarP(&opts.language, "language", "l", "go", "plugin language, selects bin/taxi-codegen-LANGUAGE")
	flags.StringVar(&opts.target, "target", "wasm-unknown", "TinyGo target")
	flags.StringVar(&opts.wasmOpt, "wasm-opt", "", "wasm-opt executable used by TinyGo")
	flags.BoolVar(&opts.debug, "debug", false, "keep debug information")
	flags.Parse(os.Args[1:])

	pwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	tinygo, err := exec.LookPath(opts.tinygo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cmd := exec.Command(tinygo, tinygoArgs(opts, pwd)...)
	cmd.Env = tinygoEnv(opts, os.Environ())
	cmd.Dir = pwd
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func tinygoArgs(opts *buildOptions, pwd string) []string {
	output := opts.output
	if output == "" {
		output = fmt.Sprintf("taxi-codegen-%s.wasm", opts.language)
	}
	if !filepath.IsAbs(output) {
		output = filepath.Join(pwd, output)
	}
	args := []string{
		"build",
		"-o=" + output,
		"-target=" + opts.target,
	}
	if !opts.debug {
		args = append(args, "-no-debug")
	}
	return append(args, "./bin/taxi-codegen-"+opts.language)
}

func tinygoEnv(opts *buildOptions, environ []string) []string {
	env := append([]string(nil), environ...)
	if opts.wasmOpt != "" {
		env = append(env, "WASMOPT="+opts.wasmOpt)
	}
	return env
}
