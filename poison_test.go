// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cwdlock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// breakScope opens a scope in dir, deletes dir and lets the deferred Close
// fail, asserting that the failure escalates as a panic.
func breakScope(t *testing.T, locked *Locked, dir string) {
	t.Helper()

	defer func() {
		r := recover()
		require.NotNil(t, r, "Close must panic when the restore target is gone")

		err, ok := r.(error)
		require.True(t, ok, "the panic value carries the OS error")
		assert.ErrorIs(t, err, ErrRestoreFailed)
		assert.ErrorIs(t, err, os.ErrNotExist)
	}()

	guard, err := locked.Scoped()
	require.NoError(t, err)
	defer guard.Close()

	require.NoError(t, os.Remove(dir))
}

func TestImplicitRestoreFailurePoisonsLock(t *testing.T) {
	keepWd(t)

	base := scratchDir(t)
	doomed := filepath.Join(base, "doomed")
	require.NoError(t, os.Mkdir(doomed, 0o755))

	locked, err := Lock()
	require.NoError(t, err)

	require.NoError(t, locked.Chdir(doomed))

	breakScope(t, locked, doomed)

	assert.True(t, locked.Poisoned())

	expected, ok := locked.Expected()
	assert.True(t, ok)
	assert.Equal(t, doomed, expected)

	stack := locked.ScopeStack()
	assert.Equal(t, []string{doomed}, stack.Entries(), "the unrestored entry stays visible")

	locked.Unlock()

	// A fresh Lock observes the poisoning but still hands out the state
	// for recovery.
	locked, err = Lock()
	require.ErrorIs(t, err, ErrPoisoned)
	require.NotNil(t, locked)
	defer locked.Unlock()

	// Remediate: recreate the directory, drain the debt, clear the flag.
	require.NoError(t, os.Mkdir(doomed, 0o755))

	stack = locked.ScopeStack()

	restored, err := stack.Pop()
	require.NoError(t, err)
	assert.Equal(t, doomed, restored)
	assert.Zero(t, stack.Len())

	locked.ClearPoison()
	assert.False(t, locked.Poisoned())

	_, ok = locked.Expected()
	assert.False(t, ok)

	got, err := locked.Getwd()
	require.NoError(t, err)
	assert.Equal(t, doomed, got)

	// Normal use works again.
	guard, err := locked.Scoped()
	require.NoError(t, err)
	guard.Close()
}
