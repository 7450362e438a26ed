// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CONTRACT TESTS (every backend)
// =============================================================================

type backendFactory func(t *testing.T) Store

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"encrypted": func(t *testing.T) Store {
			s, err := newEncryptedStore(NewMemoryStore(), "correct horse", 1000)
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_Contract(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			_, ok, err := s.Get("accessToken")
			require.NoError(t, err)
			assert.False(t, ok, "absent key must report ok=false")

			require.NoError(t, s.Set("accessToken", "tok-123"))
			v, ok, err := s.Get("accessToken")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "tok-123", v)

			require.NoError(t, s.Set("accessToken", "tok-456"))
			v, _, _ = s.Get("accessToken")
			assert.Equal(t, "tok-456", v)

			require.NoError(t, s.Remove("accessToken"))
			_, ok, err = s.Get("accessToken")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Remove("accessToken"), "removing an absent key succeeds")
		})
	}
}

func TestStore_ApplyBatch(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			require.NoError(t, s.Set("user", `{"id":1}`))

			err := Apply(s, Batch{
				Set:    map[string]string{"accessToken": "a", "refresh_token": "r"},
				Remove: []string{"user"},
			})
			require.NoError(t, err)

			v, ok, _ := s.Get("accessToken")
			assert.True(t, ok)
			assert.Equal(t, "a", v)
			v, ok, _ = s.Get("refresh_token")
			assert.True(t, ok)
			assert.Equal(t, "r", v)
			_, ok, _ = s.Get("user")
			assert.False(t, ok)
		})
	}
}

func TestStore_EmptyKeyRejected(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			err := Apply(factory(t), Batch{Set: map[string]string{"": "x"}})
			assert.ErrorIs(t, err, ErrEmptyKey)
		})
	}
}

// =============================================================================
// SEQUENTIAL APPLY ROLLBACK
// =============================================================================

// flakyStore fails Set for one key and does not implement Batcher.
type flakyStore struct {
	values  map[string]string
	failKey string
}

func (f *flakyStore) Get(key string) (string, bool, error) {
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *flakyStore) Set(key, value string) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	f.values[key] = value
	return nil
}

func (f *flakyStore) Remove(key string) error {
	delete(f.values, key)
	return nil
}

func TestApply_SequentialRollback(t *testing.T) {
	s := &flakyStore{
		values:  map[string]string{"accessToken": "old", "user": "u"},
		failKey: "user",
	}

	err := Apply(s, Batch{Set: map[string]string{
		"accessToken":   "new",
		"refresh_token": "r",
		"user":          "u2",
	}})
	require.Error(t, err)

	assert.Equal(t, map[string]string{"accessToken": "old", "user": "u"}, s.values,
		"a failed batch must leave the previous values in place")
}

func TestBatch_Keys(t *testing.T) {
	b := Batch{Set: map[string]string{"b": "1", "a": "2"}, Remove: []string{"c", "a"}}
	assert.Equal(t, []string{"a", "b", "c"}, b.Keys())
}

// =============================================================================
// FILE STORE
// =============================================================================

func TestFileStore_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("accessToken", "tok"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, _, err = s.Get("accessToken")
	assert.ErrorIs(t, err, ErrCorrupt)

	// Next write replaces the damaged file.
	require.NoError(t, s.Remove("accessToken"))
	_, ok, err := s.Get("accessToken")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_SharedBetweenInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	a, err := NewFileStore(path)
	require.NoError(t, err)
	b, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, a.Set("accessToken", "tok"))
	v, ok, err := b.Get("accessToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)
}

// =============================================================================
// SQLITE STORE
// =============================================================================

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("accessToken", "tok"))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get("accessToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)
}

func TestSQLiteStore_Closed(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "double close is a no-op")

	_, _, err = s.Get("accessToken")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set("accessToken", "x"), ErrClosed)
}

// =============================================================================
// OPEN
// =============================================================================

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Options{Backend: "file", Path: filepath.Join(dir, "a.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
	assert.Equal(t, filepath.Join(dir, "a.json"), WatchPath(s))

	s, err = Open(Options{Backend: "SQLite", Path: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, Close(s))

	s, err = Open(Options{Backend: "memory"})
	require.NoError(t, err)
	assert.Equal(t, "", WatchPath(s))

	_, err = Open(Options{Backend: "redis"})
	assert.Error(t, err)
}
