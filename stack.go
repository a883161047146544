// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cwdlock

import (
	"os"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// dirMode is the permission applied to directories recreated by Restore.
const dirMode = os.FileMode(0o755)

// Stack is raw access to the saved directories still owed a restore,
// obtained from Locked.ScopeStack. Its purpose is cleaning up after a
// poisoned lock: it can inspect and pop entries but never push, since
// creating new scopes is the job of Scoped.
type Stack struct {
	cwd *cwd
}

// Len returns the number of directories still owed a restore.
func (s *Stack) Len() int {
	return len(s.cwd.stack)
}

// Entries returns a copy of the saved directories, oldest first.
func (s *Stack) Entries() []string {
	return slices.Clone(s.cwd.stack)
}

// Pop removes the most recently saved directory and changes back to it,
// returning the directory. An empty stack is a no-op returning "". On
// failure the entry is kept and the OS error returned, so Pop can be
// retried once the cause is repaired.
func (s *Stack) Pop() (string, error) {
	return s.cwd.pop()
}

// Restore drains the stack, recreating any saved directory that no longer
// exists on fsys before changing back to it. It returns the directories
// restored, newest first. Errors are aggregated; Restore stops at the
// first entry it cannot restore, since later entries cannot be reached
// without popping the top.
//
// Restore does not clear the poison flag: the caller decides whether the
// process is fit to continue via Locked.ClearPoison.
func (s *Stack) Restore(fsys afero.Fs) ([]string, error) {
	var (
		restored []string
		errs     *multierror.Error
	)

	for s.Len() > 0 {
		top := s.cwd.peek()

		if ok, err := afero.DirExists(fsys, top); err != nil {
			errs = multierror.Append(errs, err)

			break
		} else if !ok {
			if err := fsys.MkdirAll(top, dirMode); err != nil {
				errs = multierror.Append(errs, err)

				break
			}
		}

		dir, err := s.Pop()
		if err != nil {
			errs = multierror.Append(errs, err)

			break
		}

		restored = append(restored, dir)
	}

	return restored, errs.ErrorOrNil()
}
