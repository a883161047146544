// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package steps loads and executes cwdrun step files. Each step runs
// inside a working directory scope, so the process directory is restored
// between steps and after the run, even when a step fails.
package steps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/cwdlock"
	"github.com/matt-FFFFFF/cwdlock/internal/ctxlog"
	"github.com/spf13/afero"
)

// FS is a filesystem abstraction used for file operations.
// Default is the OS filesystem, but can be replaced with a mock for testing.
var FS = afero.NewOsFs()

var (
	// ErrLoadDefinition is returned when the step file cannot be read or parsed.
	ErrLoadDefinition = errors.New("failed to load step definition")
	// ErrNoRun is returned when a step has no command line.
	ErrNoRun = errors.New("step has no run command")
	// ErrStepFailed is returned when a step's command fails.
	ErrStepFailed = errors.New("step failed")
	// ErrLockPoisoned is returned when the working directory lock needs
	// recovery before steps can run.
	ErrLockPoisoned = errors.New("working directory lock requires recovery")
)

// Load reads and parses a step file.
func Load(path string) (*Definition, error) {
	data, err := afero.ReadFile(FS, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadDefinition, err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadDefinition, err)
	}

	for i, s := range def.Steps {
		if s.Run == "" {
			return nil, fmt.Errorf("%w: step %d (%s)", ErrNoRun, i, s.Label())
		}
	}

	return &def, nil
}

// Run executes the steps serially under the process-wide working directory
// lock. A failing step does not stop the run; errors are aggregated and
// returned once all steps have been attempted or the context is cancelled.
func Run(ctx context.Context, def *Definition) error {
	locked, err := cwdlock.Lock()
	if err != nil {
		locked.Unlock()

		return fmt.Errorf("%w: %w", ErrLockPoisoned, err)
	}
	defer locked.Unlock()

	var errs *multierror.Error

	for i, step := range def.Steps {
		select {
		case <-ctx.Done():
			errs = multierror.Append(errs, ctx.Err())

			return errs.ErrorOrNil()
		default:
		}

		ctxlog.Info(ctx, "step", "index", i, "label", step.Label(), "dir", step.Dir)

		if err := runStep(ctx, locked, step); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("step %d (%s): %w", i, step.Label(), err))
		}
	}

	return errs.ErrorOrNil()
}

// runStep executes one step inside its own scope. If the scope fails to
// restore the previous directory the panic is caught here and the scope
// stack repaired via Restore, so one broken step cannot take down the
// whole run.
func runStep(ctx context.Context, locked *cwdlock.Locked, step Step) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		restored, rerr := locked.ScopeStack().Restore(FS)
		if rerr != nil {
			err = multierror.Append(err, rerr).ErrorOrNil()

			return
		}

		locked.ClearPoison()
		ctxlog.Warn(ctx, "step", "detail", "recreated deleted working directory", "restored", restored)

		if perr, ok := r.(error); ok {
			err = multierror.Append(err, perr).ErrorOrNil()

			return
		}

		err = multierror.Append(err, fmt.Errorf("%w: %v", ErrStepFailed, r)).ErrorOrNil()
	}()

	guard, err := locked.Scoped()
	if err != nil {
		return err
	}
	defer guard.Close()

	if step.Dir != "" {
		if err := guard.Chdir(step.Dir); err != nil {
			return err
		}
	}

	cmd := shellCommand(ctx, step.Run)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	for k, v := range step.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %w", ErrStepFailed, err)
	}

	return nil
}

func shellCommand(ctx context.Context, run string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", run)
	}

	return exec.CommandContext(ctx, "sh", "-c", run)
}
