// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore keeps every key in a single JSON object file.
//
// Each read goes to disk so values written by another process are seen.
// Each write replaces the whole file atomically, which makes Apply atomic.
// SECURITY: The file is written 0600 inside a 0700 directory.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed store at path. The parent directory is
// created if missing.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the value for key.
func (f *FileStore) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set stores value under key.
func (f *FileStore) Set(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return f.Apply(Batch{Set: map[string]string{key: value}})
}

// Remove deletes key.
func (f *FileStore) Remove(key string) error {
	return f.Apply(Batch{Remove: []string{key}})
}

// Apply writes the batch with one atomic file replacement.
// A corrupt file is discarded and replaced by the batch contents.
func (f *FileStore) Apply(b Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return err
		}
		values = make(map[string]string)
	}

	changed := false
	for k, v := range b.Set {
		if old, ok := values[k]; !ok || old != v {
			values[k] = v
			changed = true
		}
	}
	for _, k := range b.Remove {
		if _, ok := values[k]; ok {
			delete(values, k)
			changed = true
		}
	}
	if !changed && err == nil {
		return nil
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	return writeFileAtomic(f.path, data, 0600)
}

// load reads the file. A missing or empty file is an empty store.
func (f *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	if len(data) == 0 {
		return make(map[string]string), nil
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(f.path), err)
	}
	return values, nil
}

// =============================================================================
// ATOMIC WRITE
// =============================================================================

// RELIABILITY: Atomic write with fsync prevents a torn session file on crash.
//
// writeFileAtomic writes to a temp file in the same directory, syncs it,
// then renames it over path. Readers see either the old file or the new one.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync data to disk: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
