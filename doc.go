// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cwdlock serialises access to the process working directory and
// provides scoped, automatically reversible directory changes.
//
// The working directory is process-global state: a goroutine resolving a
// relative path races with any other goroutine calling os.Chdir. This
// package funnels every read and write of the working directory through a
// single process-wide lock, and layers a nestable scope abstraction on top
// so that a temporary change is always undone, in LIFO order, when the
// scope ends.
//
//	locked, err := cwdlock.Lock()
//	if err != nil {
//	    // the lock is poisoned, see below
//	}
//	defer locked.Unlock()
//
//	guard, err := locked.Scoped()
//	if err != nil {
//	    return err
//	}
//	defer guard.Close()
//
//	if err := guard.Chdir("subdir"); err != nil {
//	    return err
//	}
//	// ... work relative to subdir ...
//	// guard.Close restores the previous directory.
//
// Scopes nest by calling Scoped on an existing guard. Guards must be
// closed innermost-first; this is a usage contract, not something the
// package checks at runtime.
//
// If the deferred restore fails (for example the directory to restore to
// was deleted while the scope was open) Close panics with the OS error and
// marks the lock poisoned. The saved directory stays on the scope stack so
// a supervising caller can lock, inspect the stack, recreate the missing
// directory and drain the debt. See [Locked.ScopeStack] and
// [Stack.Restore].
package cwdlock
