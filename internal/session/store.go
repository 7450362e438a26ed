// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/choihjin/news-front-project/internal/kv"
	"github.com/choihjin/news-front-project/internal/logging"
)

// Invalidator invalidates a session on the server. api.Client implements it.
type Invalidator interface {
	InvalidateSession(ctx context.Context, refreshToken string) error
}

// =============================================================================
// OPTIONS
// =============================================================================

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRemoteTimeout bounds the server-side logout call. Zero leaves only the
// caller's context in charge.
func WithRemoteTimeout(d time.Duration) Option {
	return func(s *Store) { s.remoteTimeout = d }
}

// LoginOption configures a single Login call.
type LoginOption func(*loginOptions)

type loginOptions struct {
	refreshToken string
}

// WithRefreshToken stores the refresh token issued with the access token.
// Without it any previously stored refresh token is removed.
func WithRefreshToken(token string) LoginOption {
	return func(o *loginOptions) { o.refreshToken = token }
}

// LogoutResult describes what happened during Logout. Logout itself cannot
// fail: the session is always cleared locally.
type LogoutResult struct {
	// RemoteErr is a *RemoteInvalidationError when the server call failed.
	RemoteErr error

	// RemoteSkipped is true when no server is configured (offline mode).
	RemoteSkipped bool

	// CleanupErr reports keys that could not be removed from storage.
	// Memory is logged out regardless.
	CleanupErr error
}

// =============================================================================
// STORE
// =============================================================================

type observer struct {
	id int
	fn func(State)
}

// Store holds the session state and keeps it in sync with persistence.
//
// Login, Logout and Reload are serialized: an operation holds opMu from start
// to finish, including the network call, so overlapping calls never
// interleave. Readers use mu and are not blocked by a slow server.
type Store struct {
	opMu     sync.Mutex
	inFlight atomic.Bool

	mu    sync.RWMutex
	state State

	obsMu     sync.Mutex
	observers []observer
	nextObsID int

	kv            kv.Store
	remote        Invalidator
	logger        *slog.Logger
	remoteTimeout time.Duration
}

// New creates a store over backend and hydrates it. remote may be nil, in
// which case Logout skips the server call.
func New(backend kv.Store, remote Invalidator, opts ...Option) *Store {
	s := &Store{
		kv:     backend,
		remote: remote,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.state = s.hydrate()
	s.logger.Debug("session.hydrated", "authenticated", s.state.Authenticated)
	return s
}

// =============================================================================
// READS
// =============================================================================

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// IsAuthenticated reports whether an access token is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Authenticated
}

// User returns a copy of the profile, or nil when logged out or unknown.
func (s *Store) User() UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User.Clone()
}

// InFlight reports whether a Login, Logout or Reload is running.
func (s *Store) InFlight() bool {
	return s.inFlight.Load()
}

// =============================================================================
// OBSERVERS
// =============================================================================

// Subscribe registers fn to receive every state change. Observers run
// synchronously, in subscription order, before the mutating call returns.
// They must not call Login, Logout or Reload.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers = append(s.observers, observer{id: id, fn: fn})
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			defer s.obsMu.Unlock()
			for i, o := range s.observers {
				if o.id == id {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// swap replaces the state and notifies observers outside the state lock.
func (s *Store) swap(next State) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	s.obsMu.Lock()
	observers := make([]observer, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.Unlock()

	for _, o := range observers {
		o.fn(next.clone())
	}
}

// begin acquires the operation lock and returns its release function.
func (s *Store) begin() func() {
	s.opMu.Lock()
	s.inFlight.Store(true)
	return func() {
		s.inFlight.Store(false)
		s.opMu.Unlock()
	}
}

// =============================================================================
// LOGIN
// =============================================================================

// Login records an already-issued access token and optional profile. Storage
// is written first as one batch; memory changes only if that succeeds.
func (s *Store) Login(accessToken string, user UserProfile, opts ...LoginOption) error {
	if accessToken == "" {
		return ErrEmptyToken
	}
	var o loginOptions
	for _, opt := range opts {
		opt(&o)
	}

	next := State{Authenticated: true, AccessToken: accessToken, RefreshToken: o.refreshToken}
	batch := kv.Batch{Set: map[string]string{KeyAccessToken: accessToken}}

	if user != nil {
		raw, normalized, err := encodeProfile(user)
		if err != nil {
			return err
		}
		batch.Set[KeyUser] = raw
		next.User = normalized
	} else {
		batch.Remove = append(batch.Remove, KeyUser)
	}

	if o.refreshToken != "" {
		batch.Set[KeyRefreshToken] = o.refreshToken
	} else {
		batch.Remove = append(batch.Remove, KeyRefreshToken)
	}

	release := s.begin()
	defer release()

	if err := kv.Apply(s.kv, batch); err != nil {
		s.logger.Error("session.login.persist_failed", "error", err)
		return &PersistenceWriteError{Op: "login", Err: err}
	}

	s.swap(next)
	s.logger.Info("session.login",
		"token", logging.Fingerprint(accessToken),
		"has_refresh", o.refreshToken != "",
		"has_user", next.User != nil)
	return nil
}

// =============================================================================
// LOGOUT
// =============================================================================

// Logout ends the session. The server is asked to invalidate the refresh
// token; whatever happens there, storage and memory are cleared before
// Logout returns.
func (s *Store) Logout(ctx context.Context) (result LogoutResult) {
	release := s.begin()
	defer release()

	// RELIABILITY: Cleanup is deferred so it runs on every exit path,
	// including a panic in the remote call.
	defer func() {
		result.CleanupErr = s.clearLocked()
	}()

	refresh := s.storedRefreshToken()

	if s.remote == nil {
		result.RemoteSkipped = true
		s.logger.Debug("session.logout.remote_skipped")
		return result
	}

	if err := s.invalidate(ctx, refresh); err != nil {
		result.RemoteErr = err
		s.logger.Warn("session.logout.remote_failed", "error", err)
	}
	return result
}

// invalidate calls the remote and converts every failure, panics included,
// into a RemoteInvalidationError.
func (s *Store) invalidate(ctx context.Context, refresh string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RemoteInvalidationError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if s.remoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.remoteTimeout)
		defer cancel()
	}

	if err := s.remote.InvalidateSession(ctx, refresh); err != nil {
		return &RemoteInvalidationError{Err: err}
	}
	return nil
}

// storedRefreshToken reads the refresh token from storage rather than memory,
// so a token written by another client is still invalidated.
func (s *Store) storedRefreshToken() string {
	v, ok, err := s.kv.Get(KeyRefreshToken)
	if err != nil {
		s.logger.Warn("session.logout.refresh_unreadable", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

// clearLocked removes every session key and logs the store out in memory.
// The caller holds opMu.
func (s *Store) clearLocked() error {
	err := kv.Apply(s.kv, kv.Batch{Remove: Keys})
	if err != nil {
		// Batch failed as a unit; remove what can be removed.
		var errs []error
		for _, key := range Keys {
			if rerr := s.kv.Remove(key); rerr != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, rerr))
			}
		}
		err = errors.Join(errs...)
		if err != nil {
			s.logger.Error("session.logout.cleanup_failed", "error", err)
		}
	}

	s.swap(loggedOut())
	s.logger.Info("session.logout")
	return err
}

// =============================================================================
// HYDRATION
// =============================================================================

// Reload re-reads storage, for example after another process changed it.
// Observers are notified only if the state changed.
func (s *Store) Reload() State {
	release := s.begin()
	defer release()

	next := s.hydrate()

	s.mu.RLock()
	changed := !reflect.DeepEqual(s.state, next)
	s.mu.RUnlock()

	if changed {
		s.swap(next)
		s.logger.Info("session.reloaded", "authenticated", next.Authenticated)
	}
	return next.clone()
}

// hydrate builds a State from storage. It never fails: unreadable or
// inconsistent entries are logged and purged so storage matches memory.
func (s *Store) hydrate() State {
	token, ok, err := s.kv.Get(KeyAccessToken)
	if err != nil {
		s.reportCorrupt(KeyAccessToken, err)
		s.purge(Keys...)
		return loggedOut()
	}
	if !ok || token == "" {
		// Leftovers without a token are stale.
		s.purge(s.present(Keys...)...)
		return loggedOut()
	}

	st := State{Authenticated: true, AccessToken: token}

	if refresh, ok, err := s.kv.Get(KeyRefreshToken); err != nil {
		s.reportCorrupt(KeyRefreshToken, err)
		s.purge(KeyRefreshToken)
	} else if ok {
		st.RefreshToken = refresh
	}

	raw, ok, err := s.kv.Get(KeyUser)
	switch {
	case err != nil:
		s.reportCorrupt(KeyUser, err)
		s.purge(KeyUser)
	case ok:
		user, derr := decodeProfile(raw)
		if derr != nil {
			s.reportCorrupt(KeyUser, derr)
			s.purge(KeyUser)
		} else {
			st.User = user
		}
	}
	return st
}

func (s *Store) reportCorrupt(key string, err error) {
	cerr := &PersistenceCorruptDataError{Key: key, Err: err}
	s.logger.Warn("session.hydrate.corrupt", "key", key, "error", cerr)
}

// present returns the keys that currently exist in storage.
func (s *Store) present(keys ...string) []string {
	var out []string
	for _, key := range keys {
		if _, ok, err := s.kv.Get(key); err != nil || ok {
			out = append(out, key)
		}
	}
	return out
}

func (s *Store) purge(keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := kv.Apply(s.kv, kv.Batch{Remove: keys}); err != nil {
		s.logger.Error("session.hydrate.purge_failed", "keys", keys, "error", err)
	}
}
