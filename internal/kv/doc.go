// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kv provides the durable key-value storage behind the newsdesk session.
//
// All backends share one contract: a missing key is never an error, removing
// a missing key is a no-op, and a Batch is applied as a single unit.
//
// # Key Types
//
//   - Store: Get / Set / Remove over string keys and values
//   - Batch: a set of writes and removals applied together
//   - FileStore: one JSON object file, written atomically (0600)
//   - SQLiteStore: a single-table SQLite database (modernc.org/sqlite)
//   - EncryptedStore: AES-GCM wrapper around any Store
//   - MemoryStore: process-local map, used by tests and --ephemeral
//
// # Usage
//
// Open the backend named in configuration:
//
//	store, err := kv.Open(kv.Options{Backend: "file", Path: path})
//	if err != nil {
//	    return err
//	}
//	defer kv.Close(store)
//
// Apply several writes at once:
//
//	err := kv.Apply(store, kv.Batch{
//	    Set:    map[string]string{"accessToken": token},
//	    Remove: []string{"user"},
//	})
//
// Pick up changes written by another process:
//
//	go kv.Watch(ctx, path, 250*time.Millisecond, onChange, onError)
package kv
