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
)

type cmdValidate struct {
	global *globalOptions
	deps   []string
	strict bool
}

func (*cmdValidate) help() *commandHelp {
	return &commandHelp{
		usage:   "validate [SOURCES...]",
		summary: "Report every error and warning in the sources",
	}
}

func (cmd *cmdValidate) flags(flags *pflag.FlagSet) {
	flags.StringSliceVar(&cmd.deps, "dep", nil, "dependency sources to import from")
	flags.BoolVar(&cmd.strict, "strict", false, "fail if any warning is reported")
}

func (cmd *cmdValidate) run(ctx context.Context, argv []string) int {
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
	if len(result.Errors) > 0 {
		return 1
	}
	if cmd.strict && len(result.Warnings) > 0 {
		return 1
	}
	cmd.global.logf("%d sources valid", len(p.sources))
	return 0
}
