// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cwdlock

import (
	"fmt"
	"log/slog"
)

// Guard represents one scope of working directory change. It is created by
// Scoped, which saves the directory current at that moment, and it
// restores that directory exactly once: either through an explicit Reset
// or through the deferred Close.
//
// Guards nest by calling Scoped on an existing guard. They share one
// stack, so they must be closed in reverse order of creation; an outer
// guard must not be used while an inner one is open.
type Guard struct {
	cwd      *cwd
	hasReset bool
}

func newGuard(c *cwd) (*Guard, error) {
	if err := c.push(); err != nil {
		return nil, err
	}

	return &Guard{cwd: c}, nil
}

// Scoped begins a nested scope under g.
func (g *Guard) Scoped() (*Guard, error) {
	return newGuard(g.cwd)
}

// Getwd returns the process working directory.
func (g *Guard) Getwd() (string, error) {
	return osGetwd()
}

// Chdir changes the process working directory within the scope. The
// previous directory is restored when the scope ends regardless of how
// many times Chdir is called.
func (g *Guard) Chdir(dir string) error {
	return osChdir(dir)
}

// Reset restores the directory saved when g was created and returns it.
// Calling Reset again, or after the restore already happened, is a no-op
// returning "". If the restore fails the saved directory stays on the
// stack and the error is returned; Reset can then be retried.
func (g *Guard) Reset() (string, error) {
	if g.hasReset {
		return "", nil
	}

	dir, err := g.cwd.pop()
	if err != nil {
		return "", err
	}

	if dir == "" {
		// Nothing to pop even though this guard pushed an entry. The
		// stack was drained externally; leave hasReset unset so the
		// caller can see the inconsistency.
		return "", nil
	}

	g.hasReset = true

	return dir, nil
}

// Close ends the scope, restoring the saved directory if Reset has not
// already done so. It is meant to be deferred at scope creation.
//
// Close has no caller to hand an error to, and a silently wrong working
// directory corrupts every later relative path in the process, so a failed
// restore is fatal: Close records the expected directory, marks the lock
// poisoned and panics with the OS error. The saved directory remains on
// the scope stack for recovery; see Stack.
func (g *Guard) Close() {
	if g.hasReset {
		return
	}

	expected := g.cwd.peek()

	if _, err := g.Reset(); err != nil {
		g.cwd.expected = expected
		g.cwd.poisoned = true
		slog.Error("cannot restore working directory, poisoning lock",
			"expected", expected, "error", err)
		panic(fmt.Errorf("%w: %q: %w", ErrRestoreFailed, expected, err))
	}
}
