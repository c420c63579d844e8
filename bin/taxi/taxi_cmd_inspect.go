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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/pflag"

	"github.com/BlexSetlog/taxilang/encoding/taxitext"
	"github.com/BlexSetlog/taxilang/schema"
)

const historyFile = ".taxi_history"

type cmdInspect struct {
	global *globalOptions
	deps   []string
}

func (*cmdInspect) help() *commandHelp {
	return &commandHelp{
		usage:   "inspect [SOURCES...]",
		summary: "Browse a compiled document interactively",
	}
}

func (cmd *cmdInspect) flags(flags *pflag.FlagSet) {
	flags.StringSliceVar(&cmd.deps, "dep", nil, "dependency sources to import from")
}

func (cmd *cmdInspect) run(ctx context.Context, argv []string) int {
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
	insp := &inspector{doc: doc}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(insp.complete)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		line, err := ln.Prompt("taxi> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return 0
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		quit, err := insp.eval(line, os.Stdout)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		if quit {
			return 0
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
	}
}

const inspectHelp = `Commands:
  show NAME              any declaration
  type NAME              a type, enum or type alias
  service NAME           a service
  policy NAME            a policy
  types                  list type names
  services               list service names
  at SOURCE LINE COLUMN  the declaration at a source position
  :quit                  exit
`

// inspector answers queries about one compiled document.
type inspector struct {
	doc *schema.Document
}

func (insp *inspector) eval(line string, w io.Writer) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	command, args := fields[0], fields[1:]
	want := map[string]int{
		"show": 1, "type": 1, "service": 1, "policy": 1,
		"types": 0, "services": 0, "at": 3,
	}
	if n, ok := want[command]; ok && len(args) != n {
		return false, fmt.Errorf("%s expects %d arguments, got %d", command, n, len(args))
	}

	switch command {
	case ":quit", ":q", "quit", "exit":
		return true, nil
	case "help", ":help":
		_, err := io.WriteString(w, inspectHelp)
		return false, err
	case "types":
		return false, writeLines(w, insp.doc.TypeNames())
	case "services":
		var names []string
		for _, s := range insp.doc.Services() {
			names = append(names, s.QualifiedName())
		}
		return false, writeLines(w, names)
	case "show":
		entity, err := insp.doc.Lookup(args[0])
		if err != nil {
			return false, err
		}
		return false, writeEntity(w, entity)
	case "type":
		t, err := insp.doc.Type(args[0])
		if err != nil {
			return false, err
		}
		if p, ok := t.(*schema.PrimitiveType); ok {
			_, err := fmt.Fprintf(w, "primitive %q\n\t%s\n", p.QualifiedName(), p.Doc())
			return false, err
		}
		return false, writeEntity(w, t)
	case "service":
		s, err := insp.doc.Service(args[0])
		if err != nil {
			return false, err
		}
		return false, writeEntity(w, s)
	case "policy":
		p, err := insp.doc.Policy(args[0])
		if err != nil {
			return false, err
		}
		return false, writeEntity(w, p)
	case "at":
		lineNo, lineErr := strconv.ParseUint(args[1], 10, 32)
		column, columnErr := strconv.ParseUint(args[2], 10, 32)
		if lineErr != nil || columnErr != nil {
			return false, fmt.Errorf("Invalid position %s:%s", args[1], args[2])
		}
		decl, ok := insp.doc.DeclarationAt(args[0], uint32(lineNo), uint32(column))
		if !ok {
			return false, fmt.Errorf("No declaration at %s:%d:%d", args[0], lineNo, column)
		}
		_, err := fmt.Fprintf(w, "%s %s (%s)\n", decl.Kind, decl.Name, decl.Unit)
		return false, err
	}
	return false, fmt.Errorf("Unknown command %q, try 'help'", command)
}

// complete offers declaration names for the argument of a command.
func (insp *inspector) complete(line string) []string {
	command, prefix, ok := strings.Cut(line, " ")
	if !ok {
		return nil
	}
	var names []string
	switch command {
	case "show", "type":
		names = insp.doc.TypeNames()
		if command == "show" {
			for _, s := range insp.doc.Services() {
				names = append(names, s.QualifiedName())
			}
			for _, p := range insp.doc.Policies() {
				names = append(names, p.QualifiedName())
			}
		}
	case "service":
		for _, s := range insp.doc.Services() {
			names = append(names, s.QualifiedName())
		}
	case "policy":
		for _, p := range insp.doc.Policies() {
			names = append(names, p.QualifiedName())
		}
	}
	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			out = append(out, command+" "+name)
		}
	}
	return out
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// writeEntity renders a single declaration in taxitext form.
func writeEntity(w io.Writer, entity any) error {
	var contents schema.DocumentContents
	switch entity := entity.(type) {
	case schema.Type:
		contents.Types = []schema.Type{entity}
	case *schema.Service:
		contents.Services = []*schema.Service{entity}
	case *schema.Policy:
		contents.Policies = []*schema.Policy{entity}
	case *schema.Function:
		contents.Functions = []*schema.Function{entity}
	case *schema.View:
		contents.Views = []*schema.View{entity}
	default:
		panic("unreachable")
	}
	return taxitext.EncodeTo(schema.NewDocument(contents), w)
}
