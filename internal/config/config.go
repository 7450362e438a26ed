// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete newsdesk configuration.
type Config struct {
	API     APIConfig     `toml:"api" json:"api"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Session SessionConfig `toml:"session" json:"session"`
	Log     LogConfig     `toml:"log" json:"log"`
}

// APIConfig configures the news backend.
type APIConfig struct {
	// BaseURL of the backend, e.g. "http://localhost:8000".
	BaseURL string `toml:"base_url" json:"base_url" env:"NEWSDESK_API_URL"`

	// LogoutPath is appended to BaseURL for server-side logout.
	LogoutPath string `toml:"logout_path" json:"logout_path" env:"NEWSDESK_LOGOUT_PATH"`

	TimeoutSecs    int     `toml:"timeout_secs" json:"timeout_secs"`
	RequestsPerSec float64 `toml:"requests_per_sec" json:"requests_per_sec"`

	// Offline skips every network call; logout is local only.
	Offline bool `toml:"offline" json:"offline" env:"NEWSDESK_OFFLINE"`
}

// Timeout returns TimeoutSecs as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// StorageConfig selects where the session is persisted.
type StorageConfig struct {
	// Backend is "file", "sqlite" or "memory".
	Backend string `toml:"backend" json:"backend" env:"NEWSDESK_STORAGE_BACKEND"`

	// Path of the backing file. Defaults to session.json or session.db in
	// the data directory.
	Path string `toml:"path" json:"path" env:"NEWSDESK_STORAGE_PATH"`

	// Encrypt seals stored values with a passphrase.
	Encrypt bool `toml:"encrypt" json:"encrypt"`

	// Passphrase is never read from or written to the config file.
	// SECURITY: Supplied through the environment or an interactive prompt.
	Passphrase string `toml:"-" json:"-" env:"NEWSDESK_STORAGE_PASSPHRASE"`
}

// NeedsPassphrase reports whether encryption is on but no passphrase is set.
func (s StorageConfig) NeedsPassphrase() bool {
	return s.Encrypt && s.Passphrase == ""
}

// SessionConfig controls cross-process session sync.
type SessionConfig struct {
	// Watch reloads the session when another process changes storage.
	Watch           bool `toml:"watch" json:"watch"`
	WatchDebounceMS int  `toml:"watch_debounce_ms" json:"watch_debounce_ms"`
}

// WatchDebounce returns WatchDebounceMS as a duration.
func (s SessionConfig) WatchDebounce() time.Duration {
	return time.Duration(s.WatchDebounceMS) * time.Millisecond
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `toml:"level" json:"level" env:"NEWSDESK_LOG_LEVEL"`
	Format string `toml:"format" json:"format" env:"NEWSDESK_LOG_FORMAT"`

	// File receives the terminal UI's logs. CLI commands log to stderr.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8000",
			LogoutPath:     "/auth/logout/",
			TimeoutSecs:    10,
			RequestsPerSec: 2,
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		Session: SessionConfig{
			Watch:           true,
			WatchDebounceMS: 250,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// fillDefaults fills unset values, including paths that depend on the data
// directory.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.API.LogoutPath == "" {
		cfg.API.LogoutPath = defaults.API.LogoutPath
	}
	if cfg.API.TimeoutSecs == 0 {
		cfg.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if cfg.Session.WatchDebounceMS == 0 {
		cfg.Session.WatchDebounceMS = defaults.Session.WatchDebounceMS
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}

	dir, err := DataDir()
	if err != nil {
		return err
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Backend {
		case "sqlite":
			cfg.Storage.Path = filepath.Join(dir, "session.db")
		case "file":
			cfg.Storage.Path = filepath.Join(dir, "session.json")
		}
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(dir, "newsdesk.log")
	}
	return nil
}

// =============================================================================
// PATH HELPERS
// =============================================================================

type dirEnv struct {
	Home string `env:"NEWSDESK_HOME"`
}

// DataDir returns the newsdesk data directory: $NEWSDESK_HOME or ~/.newsdesk.
func DataDir() (string, error) {
	var d dirEnv
	if err := env.Parse(&d); err != nil {
		return "", fmt.Errorf("parse env: %w", err)
	}
	if d.Home != "" {
		return d.Home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".newsdesk"), nil
}

// Path returns the config file path.
func Path() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions tightens a config file to 0600.
// SECURITY: The file may name an encrypted store location and backend URL.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads the default config file if present, then applies environment
// overrides, defaults and validation.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load for an explicit file. A missing file is not an error.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := fillDefaults(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path into cfg. Keys absent from the file keep their
// current values.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnvOverrides overlays NEWSDESK_* environment variables. Unset
// variables leave the current values alone.
func (c *Config) ApplyEnvOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes cfg as TOML to path with 0600 permissions.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// SECURITY: Create file with restrictive permissions (0600 = owner read/write only)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# newsdesk configuration file")
	fmt.Fprintln(file, "# The storage passphrase is read from NEWSDESK_STORAGE_PASSPHRASE, never from here.")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every invalid setting.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns ValidateErrors if anything
// is wrong.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.API.BaseURL == "" {
		if !c.API.Offline {
			errs = append(errs, ValidationError{"api.base_url", "required unless api.offline is set"})
		}
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{"api.base_url", fmt.Sprintf("invalid URL %q, must be http(s)://host", c.API.BaseURL)})
	}
	if !strings.HasPrefix(c.API.LogoutPath, "/") {
		errs = append(errs, ValidationError{"api.logout_path", fmt.Sprintf("%q must start with /", c.API.LogoutPath)})
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 300 {
		errs = append(errs, ValidationError{"api.timeout_secs", fmt.Sprintf("%d out of range 1-300", c.API.TimeoutSecs)})
	}
	if c.API.RequestsPerSec < 0 {
		errs = append(errs, ValidationError{"api.requests_per_sec", "must not be negative"})
	}

	switch c.Storage.Backend {
	case "file", "sqlite":
		if c.Storage.Path == "" {
			errs = append(errs, ValidationError{"storage.path", "required for " + c.Storage.Backend + " backend"})
		}
	case "memory":
	default:
		errs = append(errs, ValidationError{"storage.backend", fmt.Sprintf("invalid backend %q, must be one of: file, sqlite, memory", c.Storage.Backend)})
	}

	if c.Session.WatchDebounceMS < 0 {
		errs = append(errs, ValidationError{"session.watch_debounce_ms", "must not be negative"})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{"log.level", fmt.Sprintf("invalid level %q, must be one of: debug, info, warn, error", c.Log.Level)})
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{"log.format", fmt.Sprintf("invalid format %q, must be text or json", c.Log.Format)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// DOT-NOTATION ACCESS
// =============================================================================

// Get returns the value at a dotted TOML key such as "api.base_url".
func (c *Config) Get(key string) (any, error) {
	if key == "" {
		return nil, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTOMLName(v, part)
		if !ok {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field.Interface(), nil
		}
		if field.Kind() != reflect.Struct {
			return nil, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return nil, fmt.Errorf("invalid key: %s", key)
}

func fieldByTOMLName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]
		if tag != "" && tag != "-" && strings.EqualFold(tag, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// Keys lists every dotted key Get accepts.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		prefix := section.Tag.Get("toml")
		for j := 0; j < section.Type.NumField(); j++ {
			tag := strings.Split(section.Type.Field(j).Tag.Get("toml"), ",")[0]
			if tag == "" || tag == "-" {
				continue
			}
			keys = append(keys, prefix+"."+tag)
		}
	}
	return keys
}
