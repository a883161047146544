// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cwdlock

import (
	"os"
	"sync"
)

// OS accessors for the process working directory.
// These can be replaced with a mock for testing.
var (
	osGetwd = os.Getwd
	osChdir = os.Chdir
)

// The per-process shared state. It is a logic error to call os.Getwd or
// os.Chdir anywhere in the process without holding mu.
var (
	mu     sync.Mutex
	shared cwd
)

// cwd is the state protected by the process-wide lock: the stack of
// directories still owed a restore, the poison flag, and the directory the
// process is expected to be in after a failed restore.
type cwd struct {
	stack    []string
	poisoned bool
	expected string
}

// push reads the current working directory and saves it on the stack.
// On a read failure the stack is left unmodified.
func (c *cwd) push() error {
	dir, err := osGetwd()
	if err != nil {
		return err
	}

	c.stack = append(c.stack, dir)

	return nil
}

// pop removes the most recently saved directory and changes back to it.
// An empty stack is a no-op returning "". If the change fails the entry is
// put back so the stack still records every directory owed a restore.
func (c *cwd) pop() (string, error) {
	if len(c.stack) == 0 {
		return "", nil
	}

	dir := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]

	if err := osChdir(dir); err != nil {
		c.stack = append(c.stack, dir)

		return "", err
	}

	return dir, nil
}

// peek returns the top of the stack without removing it, or "" when empty.
func (c *cwd) peek() string {
	if len(c.stack) == 0 {
		return ""
	}

	return c.stack[len(c.stack)-1]
}

// Locked is the handle returned by Lock. It is the only way to read or
// change the process working directory, and the root from which scopes are
// created. A Locked must not be shared between goroutines and must not be
// used after Unlock.
type Locked struct {
	cwd      *cwd
	unlocked bool
}

// Lock acquires the process-wide working directory lock, blocking until it
// is available. If a previous scope failed its deferred restore the handle
// is returned together with ErrPoisoned; the caller can then inspect the
// scope stack, repair the damage and call ClearPoison.
func Lock() (*Locked, error) {
	mu.Lock()

	l := &Locked{cwd: &shared}
	if shared.poisoned {
		return l, ErrPoisoned
	}

	return l, nil
}

// Unlock releases the process-wide lock. It is safe to call more than
// once; only the first call releases.
func (l *Locked) Unlock() {
	if l.unlocked {
		return
	}

	l.unlocked = true
	mu.Unlock()
}

// Getwd returns the process working directory.
func (l *Locked) Getwd() (string, error) {
	return osGetwd()
}

// Chdir changes the process working directory. The change is not tracked
// by any scope; use Scoped first if it should be undone.
func (l *Locked) Chdir(dir string) error {
	return osChdir(dir)
}

// Scoped begins a new scope: the current directory is saved and the
// returned Guard restores it on Close or Reset. If reading the current
// directory fails no scope is created and the stack is unchanged.
func (l *Locked) Scoped() (*Guard, error) {
	return newGuard(l.cwd)
}

// ScopeStack returns raw access to the stack of saved directories. It is
// intended for recovering a poisoned lock; normal use goes through Scoped.
func (l *Locked) ScopeStack() *Stack {
	return &Stack{cwd: l.cwd}
}

// Poisoned reports whether a deferred restore has failed since the poison
// flag was last cleared.
func (l *Locked) Poisoned() bool {
	return l.cwd.poisoned
}

// ClearPoison re-arms the lock for normal use after recovery. The caller
// is responsible for having drained or repaired the scope stack first.
func (l *Locked) ClearPoison() {
	l.cwd.poisoned = false
	l.cwd.expected = ""
}

// Expected returns the directory the process should be in, recorded when a
// deferred restore failed. The second return is false when no expectation
// has been recorded.
func (l *Locked) Expected() (string, bool) {
	return l.cwd.expected, l.cwd.expected != ""
}
