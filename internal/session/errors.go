// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyToken is returned by Login when no access token is given.
	ErrEmptyToken = errors.New("access token is required")

	// ErrInvalidProfile is returned by Login when the profile cannot be
	// encoded as JSON.
	ErrInvalidProfile = errors.New("user profile is not serializable")
)

// PersistenceCorruptDataError reports a stored value that could not be read
// or decoded during hydration. The key is purged and hydration continues.
type PersistenceCorruptDataError struct {
	Key string
	Err error
}

func (e *PersistenceCorruptDataError) Error() string {
	return fmt.Sprintf("corrupt persisted %q: %v", e.Key, e.Err)
}

func (e *PersistenceCorruptDataError) Unwrap() error { return e.Err }

// PersistenceWriteError reports that storage rejected a write. The in-memory
// state is unchanged when this is returned.
type PersistenceWriteError struct {
	Op  string
	Err error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("failed to persist session (%s): %v", e.Op, e.Err)
}

func (e *PersistenceWriteError) Unwrap() error { return e.Err }

// RemoteInvalidationError reports a failed server-side logout. It is
// informational only; local logout has already happened.
type RemoteInvalidationError struct {
	Err error
}

func (e *RemoteInvalidationError) Error() string {
	return fmt.Sprintf("server-side logout failed: %v", e.Err)
}

func (e *RemoteInvalidationError) Unwrap() error { return e.Err }
