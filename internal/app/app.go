// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires newsdesk components from a configuration.
//
// Everything is built explicitly in New; there are no package-level
// singletons, so tests and commands each get their own graph.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/choihjin/news-front-project/internal/api"
	"github.com/choihjin/news-front-project/internal/config"
	"github.com/choihjin/news-front-project/internal/kv"
	"github.com/choihjin/news-front-project/internal/logging"
	"github.com/choihjin/news-front-project/internal/router"
	"github.com/choihjin/news-front-project/internal/search"
	"github.com/choihjin/news-front-project/internal/session"
)

// ErrPassphraseRequired is returned when storage encryption is enabled but no
// passphrase was supplied.
var ErrPassphraseRequired = errors.New("storage is encrypted: set NEWSDESK_STORAGE_PASSPHRASE")

// Options adjusts how New builds the graph.
type Options struct {
	// LogWriter receives log output. Ignored when LogToFile is set.
	LogWriter io.Writer

	// LogToFile writes logs to cfg.Log.File (the terminal UI owns stdout).
	LogToFile bool

	// Ephemeral forces the in-memory backend.
	Ephemeral bool
}

// App holds the wired components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	KV      kv.Store
	API     *api.Client // nil in offline mode
	Session *session.Store
	Search  *search.Store
	Routes  *router.Table

	logCloser io.Closer

	watchMu     sync.Mutex
	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

// New builds an App. The caller must Close it.
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg.Storage.NeedsPassphrase() && !opts.Ephemeral {
		return nil, ErrPassphraseRequired
	}

	a := &App{Config: cfg}

	switch {
	case opts.LogToFile:
		logger, closer, err := logging.NewFile(cfg.Log.File, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return nil, err
		}
		a.Logger, a.logCloser = logger, closer
	case opts.LogWriter != nil:
		a.Logger = logging.New(opts.LogWriter, cfg.Log.Level, cfg.Log.Format)
	default:
		a.Logger = logging.Discard()
	}

	storeOpts := kv.Options{
		Backend: cfg.Storage.Backend,
		Path:    cfg.Storage.Path,
	}
	if cfg.Storage.Encrypt {
		storeOpts.Passphrase = cfg.Storage.Passphrase
	}
	if opts.Ephemeral {
		storeOpts = kv.Options{Backend: kv.BackendMemory}
	}
	store, err := kv.Open(storeOpts)
	if err != nil {
		a.closeLog()
		return nil, fmt.Errorf("failed to open session storage: %w", err)
	}
	a.KV = store

	// A nil *api.Client must not reach the session as a non-nil interface.
	var remote session.Invalidator
	if !cfg.API.Offline {
		a.API = api.NewClient(api.Config{
			BaseURL:           cfg.API.BaseURL,
			LogoutPath:        cfg.API.LogoutPath,
			Timeout:           cfg.API.Timeout(),
			RequestsPerSecond: cfg.API.RequestsPerSec,
		}, a.Logger.With("component", "api"))
		remote = a.API
	}

	a.Session = session.New(store, remote,
		session.WithLogger(a.Logger.With("component", "session")),
		session.WithRemoteTimeout(cfg.API.Timeout()))
	a.Search = search.New()
	a.Routes = router.Default()

	a.Logger.Debug("app.started",
		"backend", storeOpts.Backend,
		"encrypted", storeOpts.Passphrase != "",
		"offline", cfg.API.Offline)
	return a, nil
}

// StartWatch reloads the session whenever another process changes storage.
// It is a no-op when watching is disabled or the backend has no file.
func (a *App) StartWatch(ctx context.Context) {
	path := kv.WatchPath(a.KV)
	if !a.Config.Session.Watch || path == "" {
		return
	}

	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	if a.watchCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.watchCancel, a.watchDone = cancel, done

	go func() {
		defer close(done)
		err := kv.Watch(ctx, path, a.Config.Session.WatchDebounce(), func() {
			a.Session.Reload()
		}, func(err error) {
			a.Logger.Warn("session.watch.error", "path", path, "error", err)
		})
		if err != nil {
			a.Logger.Warn("session.watch.failed", "path", path, "error", err)
		}
	}()
}

// Close stops the watcher and releases storage and the log file.
func (a *App) Close() error {
	a.watchMu.Lock()
	cancel, done := a.watchCancel, a.watchDone
	a.watchCancel, a.watchDone = nil, nil
	a.watchMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	var errs []error
	if a.KV != nil {
		if err := kv.Close(a.KV); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	if err := a.closeLog(); err != nil {
		errs = append(errs, fmt.Errorf("close log: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) closeLog() error {
	if a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	return err
}
