// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choihjin/news-front-project/internal/config"
	"github.com/choihjin/news-front-project/internal/kv"
	"github.com/choihjin/news-front-project/internal/session"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(dir, "session.json")
	cfg.Log.File = filepath.Join(dir, "newsdesk.log")
	cfg.Session.WatchDebounceMS = 20
	return cfg
}

func TestNew_WiresSessionOverConfiguredStorage(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg, Options{})
	require.NoError(t, err)
	require.NoError(t, a.Session.Login("tok", session.UserProfile{"id": 1}))
	require.NoError(t, a.Close())

	b, err := New(cfg, Options{})
	require.NoError(t, err)
	defer b.Close()
	assert.True(t, b.Session.IsAuthenticated())
	assert.NotNil(t, b.API)
	assert.NotNil(t, b.Search)
	assert.NotNil(t, b.Routes)
}

func TestNew_OfflineHasNoRemote(t *testing.T) {
	cfg := testConfig(t)
	cfg.API.Offline = true

	a, err := New(cfg, Options{Ephemeral: true})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.API)
	require.NoError(t, a.Session.Login("tok", nil))
	res := a.Session.Logout(context.Background())
	assert.True(t, res.RemoteSkipped)
}

func TestNew_LogoutReachesBackend(t *testing.T) {
	hits := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- r.URL.Path
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.API.BaseURL = srv.URL

	a, err := New(cfg, Options{Ephemeral: true})
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Session.Login("tok", nil, session.WithRefreshToken("r")))
	res := a.Session.Logout(context.Background())
	assert.NoError(t, res.RemoteErr)
	assert.Equal(t, "/auth/logout/", <-hits)
}

func TestNew_WrongPassphraseKeepsStoredSession(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Encrypt = true
	cfg.Storage.Passphrase = "correct"

	a, err := New(cfg, Options{})
	require.NoError(t, err)
	require.NoError(t, a.Session.Login("tok-123", session.UserProfile{"id": 7}, session.WithRefreshToken("rt")))
	require.NoError(t, a.Close())

	before, err := os.ReadFile(cfg.Storage.Path)
	require.NoError(t, err)

	cfg.Storage.Passphrase = "typo"
	_, err = New(cfg, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, kv.ErrWrongPassphrase)

	after, err := os.ReadFile(cfg.Storage.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	cfg.Storage.Passphrase = "correct"
	b, err := New(cfg, Options{})
	require.NoError(t, err)
	defer b.Close()
	assert.True(t, b.Session.IsAuthenticated())
	assert.Equal(t, "tok-123", b.Session.Snapshot().AccessToken)
	assert.Equal(t, "rt", b.Session.Snapshot().RefreshToken)
}

func TestNew_EncryptedStorageNeedsPassphrase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Encrypt = true

	_, err := New(cfg, Options{})
	assert.ErrorIs(t, err, ErrPassphraseRequired)
}

func TestNew_LogToFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Log.Level = "debug"

	a, err := New(cfg, Options{LogToFile: true, Ephemeral: true})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	data, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "app.started")
}

func TestStartWatch_ReloadsOnExternalLogout(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg, Options{})
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Session.Login("tok", nil))

	a.StartWatch(context.Background())
	a.StartWatch(context.Background()) // second call is a no-op
	time.Sleep(100 * time.Millisecond)

	// Another process clears the session file.
	other, err := kv.NewFileStore(cfg.Storage.Path)
	require.NoError(t, err)
	require.NoError(t, kv.Apply(other, kv.Batch{Remove: session.Keys}))

	assert.Eventually(t, func() bool { return !a.Session.IsAuthenticated() },
		5*time.Second, 20*time.Millisecond)
}

func TestStartWatch_DisabledForMemory(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, Options{Ephemeral: true})
	require.NoError(t, err)

	a.StartWatch(context.Background())
	assert.Nil(t, a.watchCancel)
	require.NoError(t, a.Close())
}
