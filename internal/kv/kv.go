// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrCorrupt indicates stored data exists but cannot be decoded.
	ErrCorrupt = errors.New("stored data is corrupt")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store is closed")

	// ErrEmptyKey indicates an operation was attempted with an empty key.
	ErrEmptyKey = errors.New("empty key")
)

// =============================================================================
// STORE CONTRACT
// =============================================================================

// Store is a durable string key-value store.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent;
	// absence is never reported as an error.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Remove deletes key. Removing an absent key succeeds.
	Remove(key string) error
}

// Batch is a group of writes and removals applied as one unit.
// A key listed in both Set and Remove is removed.
type Batch struct {
	Set    map[string]string
	Remove []string
}

// Keys returns every key the batch touches, sorted.
func (b Batch) Keys() []string {
	seen := make(map[string]bool, len(b.Set)+len(b.Remove))
	keys := make([]string, 0, len(b.Set)+len(b.Remove))
	for k := range b.Set {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, k := range b.Remove {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// removes reports whether the batch removes key.
func (b Batch) removes(key string) bool {
	for _, k := range b.Remove {
		if k == key {
			return true
		}
	}
	return false
}

// Batcher is implemented by stores that can apply a Batch atomically.
type Batcher interface {
	Apply(b Batch) error
}

// Apply writes b to s. Stores implementing Batcher apply it atomically.
// Other stores get a sequential apply that restores the previous values of
// every touched key if any step fails.
func Apply(s Store, b Batch) error {
	for _, k := range b.Keys() {
		if k == "" {
			return ErrEmptyKey
		}
	}
	if batcher, ok := s.(Batcher); ok {
		return batcher.Apply(b)
	}
	return applySequential(s, b)
}

type priorValue struct {
	value   string
	present bool
}

func applySequential(s Store, b Batch) error {
	keys := b.Keys()
	prior := make(map[string]priorValue, len(keys))
	for _, k := range keys {
		v, ok, err := s.Get(k)
		if err != nil && !errors.Is(err, ErrCorrupt) {
			return fmt.Errorf("snapshot %q before batch: %w", k, err)
		}
		prior[k] = priorValue{value: v, present: ok}
	}

	var done []string
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			k := done[i]
			p := prior[k]
			if p.present {
				_ = s.Set(k, p.value)
			} else {
				_ = s.Remove(k)
			}
		}
	}

	for _, k := range keys {
		var err error
		if b.removes(k) {
			err = s.Remove(k)
		} else {
			err = s.Set(k, b.Set[k])
		}
		if err != nil {
			rollback()
			return fmt.Errorf("apply %q: %w", k, err)
		}
		done = append(done, k)
	}
	return nil
}

// Close releases the store if it holds resources.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
