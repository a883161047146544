// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cwdlock

import "errors"

var (
	// ErrPoisoned is returned by Lock when a previous scope failed to
	// restore the working directory. The returned handle is still usable
	// for inspection and recovery via ScopeStack and ClearPoison.
	ErrPoisoned = errors.New("working directory lock is poisoned by a failed restore")

	// ErrRestoreFailed wraps the OS error carried by the panic raised when
	// a deferred restore fails.
	ErrRestoreFailed = errors.New("failed to restore working directory")
)
