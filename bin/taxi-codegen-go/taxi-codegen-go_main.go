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
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/BlexSetlog/taxilang/codegen"
	"github.com/BlexSetlog/taxilang/codegen/golang"
	"github.com/BlexSetlog/taxilang/compiler"
)

func main() {
	flags := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	goPackage := flags.String("package", golang.DefaultPackage, "Go package of the generated file")
	flags.Parse(os.Args[1:])
	args := flags.Args()
	if len(args) < 1 {
		log.Fatalf("usage: %s [--package=NAME] TAXI_SOURCE...", os.Args[0])
	}

	var sources []compiler.Source
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("ReadFile(%q): %v", path, err)
		}
		sources = append(sources, compiler.Source{Name: path, Content: src})
	}

	compiled := compiler.Compile(sources)
	for _, warn := range compiled.Warnings {
		log.Printf("[WARN ] %s: %v", warn.SourceName(), warn)
	}
	if len(compiled.Errors) > 0 {
		for _, err := range compiled.Errors {
			log.Printf("[ERROR] %s:%d:%d: %v", err.SourceName(), err.Line(), err.Column(), err)
		}
		os.Exit(1)
	}
	doc, err := compiled.Document()
	if err != nil {
		log.Fatal(err)
	}

	resp, err := golang.Generate(codegen.NewRequest(doc, map[string]string{
		"package": *goPackage,
	}))
	if err != nil {
		log.Fatal(err)
	}
	if _, err := os.Stdout.WriteString(resp.Files[0].Content); err != nil {
		log.Fatal(err)
	}
}
