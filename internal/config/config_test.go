// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the data directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("NEWSDESK_HOME", home)
	for _, name := range []string{
		"NEWSDESK_API_URL", "NEWSDESK_LOGOUT_PATH", "NEWSDESK_OFFLINE",
		"NEWSDESK_STORAGE_BACKEND", "NEWSDESK_STORAGE_PATH", "NEWSDESK_STORAGE_PASSPHRASE",
		"NEWSDESK_LOG_LEVEL", "NEWSDESK_LOG_FORMAT",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	return home
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("API.BaseURL = %q, want http://localhost:8000", cfg.API.BaseURL)
	}
	assert.Equal(t, "/auth/logout/", cfg.API.LogoutPath)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout())
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(home, "session.json"), cfg.Storage.Path)
	assert.Equal(t, filepath.Join(home, "newsdesk.log"), cfg.Log.File)
	assert.True(t, cfg.Session.Watch)
	assert.Equal(t, 250*time.Millisecond, cfg.Session.WatchDebounce())
}

func TestDataDir_DefaultsToHome(t *testing.T) {
	t.Setenv("NEWSDESK_HOME", "")
	os.Unsetenv("NEWSDESK_HOME")
	t.Setenv("HOME", "/tmp/newsdesk-home-test")

	dir, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/newsdesk-home-test", ".newsdesk"), dir)
}

// =============================================================================
// FILE + ENV
// =============================================================================

func TestLoadFromPath_FileThenEnv(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, `
[api]
base_url = "https://news.example.com"
timeout_secs = 5

[storage]
backend = "SQLite"

[log]
level = "debug"
`)
	t.Setenv("NEWSDESK_LOG_LEVEL", "warn")
	t.Setenv("NEWSDESK_OFFLINE", "true")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "https://news.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.API.TimeoutSecs)
	assert.Equal(t, "/auth/logout/", cfg.API.LogoutPath, "unset keys keep defaults")
	assert.True(t, cfg.API.Offline)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(home, "session.db"), cfg.Storage.Path)
	assert.Equal(t, "warn", cfg.Log.Level, "environment wins over file")
}

func TestLoadFromPath_FixesPermissions(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, "[api]\nbase_url = \"http://localhost:9000\"\n")

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadFromPath_UnknownKey(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, "[api]\nbase_ulr = \"http://x\"\n")

	_, err := LoadFromPath(path)
	assert.ErrorContains(t, err, "api.base_ulr")
}

func TestLoadFromPath_PassphraseOnlyFromEnv(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, "[storage]\nencrypt = true\n")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.True(t, cfg.Storage.NeedsPassphrase())

	t.Setenv("NEWSDESK_STORAGE_PASSPHRASE", "secret")
	cfg, err = LoadFromPath(path)
	require.NoError(t, err)
	assert.False(t, cfg.Storage.NeedsPassphrase())
	assert.Equal(t, "secret", cfg.Storage.Passphrase)
}

func TestLoadFromPath_InvalidReportsEveryField(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, home, `
[api]
base_url = "ftp://example.com"
logout_path = "logout"

[storage]
backend = "redis"

[log]
format = "xml"
`)

	_, err := LoadFromPath(path)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs), "expected ValidateErrors, got %v", err)

	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	for _, want := range []string{"api.base_url", "api.logout_path", "storage.backend", "log.format"} {
		assert.True(t, fields[want], "missing validation error for %s", want)
	}
}

func TestValidate_OfflineAllowsEmptyURL(t *testing.T) {
	isolate(t)
	cfg := Default()
	require.NoError(t, fillDefaults(cfg))

	cfg.API.BaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg.API.Offline = true
	assert.NoError(t, cfg.Validate())
}

// =============================================================================
// SAVE
// =============================================================================

func TestSave_RoundTrip(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "nested", "config.toml")

	cfg := Default()
	cfg.API.BaseURL = "https://news.example.com"
	cfg.Storage.Passphrase = "must-not-be-written"
	require.NoError(t, Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "must-not-be-written")

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://news.example.com", loaded.API.BaseURL)
}

// =============================================================================
// GET
// =============================================================================

func TestGet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("api.base_url")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", v)

	v, err = cfg.Get("session.watch")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = cfg.Get("api.nope")
	assert.Error(t, err)
	_, err = cfg.Get("api.base_url.x")
	assert.Error(t, err)
	_, err = cfg.Get("storage.passphrase")
	assert.Error(t, err, "passphrase is not addressable")
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "api.base_url")
	assert.Contains(t, keys, "log.file")
	assert.NotContains(t, keys, "storage.passphrase")

	cfg := Default()
	for _, k := range keys {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}
