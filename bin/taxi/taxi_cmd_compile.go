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
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/BlexSetlog/taxilang/codegen"
	"github.com/BlexSetlog/taxilang/encoding/taxitext"
)

type cmdCompile struct {
	global  *globalOptions
	outPath string
	format  string
	deps    []string
}

func (*cmdCompile) help() *commandHelp {
	return &commandHelp{
		usage:   "compile [SOURCES...]",
		summary: "Compile sources and print the resulting document",
	}
}

func (cmd *cmdCompile) flags(flags *pflag.FlagSet) {
	flags.StringVarP(&cmd.outPath, "output", "o", "", "write the document to this file instead of stdout")
	flags.StringVarP(&cmd.format, "format", "f", "text", "output format ('text' or 'yaml')")
	flags.StringSliceVar(&cmd.deps, "dep", nil, "dependency sources to import from")
}

func (cmd *cmdCompile) run(ctx context.Context, argv []string) int {
	outputYAML := false
	switch cmd.format {
	case "text", "taxitext":
	case "yaml":
		outputYAML = true
	default:
		fmt.Fprintf(os.Stderr, "Unsupported output format %q\n", cmd.format)
		return 1
	}

	p, err := loadProject(cmd.global, argv, cmd.deps)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	result, err := p.compile(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	doc, err := result.Document()
	if err != nil {
		return 1
	}

	var output string
	if outputYAML {
		buf, err := yaml.Marshal(codegen.NewRequest(doc, nil))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		output = string(buf)
	} else {
		output = taxitext.Encode(doc)
	}

	if cmd.outPath == "" {
		if _, err := os.Stdout.WriteString(output); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	openFlags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	fp, err := os.OpenFile(cmd.outPath, openFlags, 0o666)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	_, writeErr := fp.WriteString(output)
	closeErr := fp.Close()
	if writeErr != nil {
		fmt.Fprintln(os.Stderr, writeErr)
		return 1
	}
	if closeErr != nil {
		fmt.Fprintln(os.Stderr, closeErr)
		return 1
	}
	return 0
}
