// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CHANGE WATCHER
// =============================================================================

// DefaultWatchDebounce collapses the burst of events one atomic write makes.
const DefaultWatchDebounce = 250 * time.Millisecond

// Watch calls onChange after the file at path (or one of its SQLite
// companions such as path-wal) changes. Bursts of events within debounce
// produce one call. Watcher errors are passed to onError, which may be nil,
// and do not stop the watch. Watch blocks until ctx is cancelled.
//
// The parent directory is watched rather than the file itself, because an
// atomic rename replaces the inode a file watch would be attached to.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(), onError func(error)) error {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	watchLoop(ctx, watcher.Events, watcher.Errors, filepath.Base(path), debounce, onChange, onError)
	return nil
}

// watchLoop debounces events for base until ctx is done or a channel closes.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error,
	base string, debounce time.Duration, onChange func(), onError func(error)) {
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if !relevant(event, base) {
				continue
			}
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			pending = true

		case <-timer.C:
			pending = false
			onChange()

		case err, ok := <-errs:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

// relevant reports whether event touches the watched file.
func relevant(event fsnotify.Event, base string) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".tmp-") {
		return false
	}
	if name != base && !strings.HasPrefix(name, base+"-") {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
