// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	// Backend is one of "file", "sqlite" or "memory" (default: "file").
	Backend string

	// Path is the backing file for the file and sqlite backends.
	Path string

	// Passphrase, when set, wraps the backend in an EncryptedStore.
	Passphrase string
}

// Open creates the store described by opts.
func Open(opts Options) (Store, error) {
	var (
		store Store
		err   error
	)

	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		store, err = NewFileStore(opts.Path)
	case BackendSQLite:
		store, err = NewSQLiteStore(opts.Path)
	case BackendMemory:
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want file, sqlite or memory)", opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	if opts.Passphrase != "" {
		enc, err := NewEncryptedStore(store, opts.Passphrase)
		if err != nil {
			Close(store)
			return nil, err
		}
		store = enc
	}
	return store, nil
}

// WatchPath returns the file Watch should observe for s, or "" when s is
// not file-backed.
func WatchPath(s Store) string {
	switch st := s.(type) {
	case *FileStore:
		return st.Path()
	case *SQLiteStore:
		return st.Path()
	case *EncryptedStore:
		return WatchPath(st.Inner())
	default:
		return ""
	}
}
