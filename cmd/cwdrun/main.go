// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the cwdrun command-line interface (CLI).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/matt-FFFFFF/cwdlock"
	"github.com/matt-FFFFFF/cwdlock/internal/ctxlog"
	"github.com/matt-FFFFFF/cwdlock/internal/signalbroker"
	"github.com/matt-FFFFFF/cwdlock/internal/steps"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag  = "file"
	chdirFlag = "chdir"
)

// ErrNothingToRun is returned when neither a step file nor a command is given.
var ErrNothingToRun = errors.New("nothing to run: provide --file or a command")

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Name: "cwdrun",
	Description: `Cwdrun executes commands in temporarily changed working directories.
Each command runs inside a scope: the directory in effect beforehand is
restored when the command finishes, whether it succeeded or not.

Run a single command in a directory:

    cwdrun -C ./subdir -- make test

Or run a sequence of steps from a YAML file, each in its own scope:

    cwdrun -f steps.yaml`,
	Usage:     "cwdrun [-C dir] command | cwdrun -f steps.yaml",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:      fileFlag,
			Aliases:   []string{"f"},
			Usage:     "Run the steps defined in this YAML file",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:     chdirFlag,
			Aliases:  []string{"C"},
			Usage:    "Directory to change to before running the command",
			OnlyOnce: true,
		},
	},
	Action: run,
}

func run(ctx context.Context, cmd *cli.Command) error {
	if file := cmd.String(fileFlag); file != "" {
		def, err := steps.Load(file)
		if err != nil {
			return err
		}

		return steps.Run(ctx, def)
	}

	args := cmd.Args().Slice()
	if len(args) == 0 {
		return ErrNothingToRun
	}

	def := &steps.Definition{
		Steps: []steps.Step{{
			Dir: cmd.String(chdirFlag),
			Run: strings.Join(args, " "),
		}},
	}

	return steps.Run(ctx, def)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", cwdlock.Version, cwdlock.Commit)

	if err := rootCmd.Run(ctx, os.Args); err != nil {
		ctxlog.Error(ctx, "cwdrun failed", "error", err)
		os.Exit(1)
	}
}
