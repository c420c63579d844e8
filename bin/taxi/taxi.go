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
	stdflag "flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type command interface {
	help() *commandHelp
	flags(flags *pflag.FlagSet)
	run(ctx context.Context, argv []string) int
}

type commandHelp struct {
	usage   string
	summary string
}

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configPath string
	verbose    bool
}

func (g *globalOptions) logf(format string, args ...any) {
	if g.verbose {
		log.Printf(format, args...)
	}
}

func main() {
	ctx := context.Background()
	global := &globalOptions{}

	taxiCmd := &cobra.Command{
		Use: "taxi [options] COMMAND",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	taxiCmd.RunE = func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(os.Stderr, taxiCmd.UsageString())
		os.Exit(1)
		return nil
	}
	taxiCmd.PersistentFlags().StringVar(
		&global.configPath, "config", "",
		"project file to read when no sources are given (default ./taxi.yaml)",
	)
	taxiCmd.PersistentFlags().BoolVarP(
		&global.verbose, "verbose", "v", false,
		"log source loading and plugin activity",
	)

	commands := []command{
		&cmdCompile{global: global},
		&cmdValidate{global: global},
		&cmdCodegen{global: global},
		&cmdInspect{global: global},
	}
	for _, cmd := range commands {
		help := cmd.help()
		cobraCmd := &cobra.Command{
			Use:   help.usage,
			Short: help.summary,
			RunE: func(_ *cobra.Command, args []string) error {
				os.Exit(cmd.run(ctx, args))
				return nil
			},
		}
		taxiCmd.AddCommand(cobraCmd)
		cmd.flags(cobraCmd.Flags())
	}

	taxiCmd.Flags().AddGoFlagSet(stdflag.CommandLine)
	taxiCmd.ParseFlags(nil)
	if _, err := taxiCmd.ExecuteC(); err != nil {
		os.Exit(1)
	}
}
