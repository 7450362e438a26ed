// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIterations = 1000

func TestEncryptedStore_ValuesSealedAtRest(t *testing.T) {
	inner := NewMemoryStore()
	s, err := newEncryptedStore(inner, "passphrase", testIterations)
	require.NoError(t, err)

	require.NoError(t, s.Set("accessToken", "tok-123"))

	raw, ok, err := inner.Get("accessToken")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(raw, encryptedPrefix))
	assert.NotContains(t, raw, "tok-123")

	v, ok, err := s.Get("accessToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-123", v)
}

func TestEncryptedStore_ReopenWithSamePassphrase(t *testing.T) {
	inner := NewMemoryStore()
	s, err := newEncryptedStore(inner, "passphrase", testIterations)
	require.NoError(t, err)
	require.NoError(t, s.Set("user", `{"id":7}`))

	again, err := newEncryptedStore(inner, "passphrase", testIterations)
	require.NoError(t, err)
	v, ok, err := again.Get("user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":7}`, v)
}

func TestEncryptedStore_WrongPassphraseRejectedOnOpen(t *testing.T) {
	inner := NewMemoryStore()
	s, err := newEncryptedStore(inner, "right", testIterations)
	require.NoError(t, err)
	require.NoError(t, s.Set("accessToken", "tok"))
	sealed, _, _ := inner.Get("accessToken")

	_, err = newEncryptedStore(inner, "wrong", testIterations)
	assert.ErrorIs(t, err, ErrWrongPassphrase)

	raw, ok, err := inner.Get("accessToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sealed, raw)

	again, err := newEncryptedStore(inner, "right", testIterations)
	require.NoError(t, err)
	v, _, err := again.Get("accessToken")
	require.NoError(t, err)
	assert.Equal(t, "tok", v)
}

func TestEncryptedStore_DamagedSaltResetsCheck(t *testing.T) {
	inner := NewMemoryStore()
	_, err := newEncryptedStore(inner, "right", testIterations)
	require.NoError(t, err)
	require.NoError(t, inner.Set(SaltKey, "not base64!"))

	_, err = newEncryptedStore(inner, "other", testIterations)
	assert.NoError(t, err)
}

func TestOpen_WrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	inner, err := NewFileStore(path)
	require.NoError(t, err)
	_, err = newEncryptedStore(inner, "right", testIterations)
	require.NoError(t, err)
	require.NoError(t, Close(inner))

	_, err = Open(Options{Backend: BackendFile, Path: path, Passphrase: "wrong"})
	assert.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestEncryptedStore_SwappedValueRejected(t *testing.T) {
	inner := NewMemoryStore()
	s, err := newEncryptedStore(inner, "passphrase", testIterations)
	require.NoError(t, err)
	require.NoError(t, s.Set("accessToken", "tok"))

	sealed, _, _ := inner.Get("accessToken")
	require.NoError(t, inner.Set("refresh_token", sealed))

	_, _, err = s.Get("refresh_token")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestEncryptedStore_PlaintextIsCorrupt(t *testing.T) {
	inner := NewMemoryStore()
	require.NoError(t, inner.Set("accessToken", "plain"))
	s, err := newEncryptedStore(inner, "passphrase", testIterations)
	require.NoError(t, err)

	_, _, err = s.Get("accessToken")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestEncryptedStore_ReservedKey(t *testing.T) {
	s, err := newEncryptedStore(NewMemoryStore(), "passphrase", testIterations)
	require.NoError(t, err)

	for _, k := range []string{SaltKey, CheckKey} {
		assert.ErrorIs(t, s.Set(k, "x"), ErrReservedKey)
		assert.ErrorIs(t, s.Remove(k), ErrReservedKey)
		_, ok, err := s.Get(k)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestNewEncryptedStore_EmptyPassphrase(t *testing.T) {
	_, err := NewEncryptedStore(NewMemoryStore(), "")
	assert.Error(t, err)
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_ReportsWriteFromAnotherInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	writer, err := NewFileStore(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		}, nil)
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, writer.Set("accessToken", "tok"))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the write")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchLoop_ReportsErrorsAndKeepsWatching(t *testing.T) {
	events := make(chan fsnotify.Event)
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	reported := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		watchLoop(ctx, events, errs, "session.json", 10*time.Millisecond,
			func() { changed <- struct{}{} },
			func(err error) { reported <- err })
	}()

	errs <- errors.New("queue overflow")
	select {
	case err := <-reported:
		assert.EqualError(t, err, "queue overflow")
	case <-time.After(5 * time.Second):
		t.Fatal("error was not reported")
	}

	events <- fsnotify.Event{Name: "/tmp/x/session.json", Op: fsnotify.Write}
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("change after an error was not reported")
	}

	cancel()
	<-done
}

func TestWatchLoop_NilErrorHandler(t *testing.T) {
	errs := make(chan error, 1)
	errs <- errors.New("ignored")
	close(errs)

	done := make(chan struct{})
	go func() {
		defer close(done)
		watchLoop(context.Background(), nil, errs, "session.json", time.Millisecond, func() {}, nil)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watchLoop did not return after errors closed")
	}
}
