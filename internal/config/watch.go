// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CONFIG WATCHER
// =============================================================================

// Watcher reloads the config file when it changes on disk. Editors
// often replace the file (write + rename), so the parent directory is
// watched rather than the file itself, and events are debounced.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	onChange func(*Config)

	mu      sync.Mutex
	pending time.Time
}

// NewWatcher creates a watcher for the given config path. onChange is
// called with the freshly loaded config after each valid change;
// changes that fail to load or validate are skipped.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:     path,
		debounce: 250 * time.Millisecond,
		watcher:  fsw,
		onChange: onChange,
	}, nil
}

// Watch blocks until ctx is cancelled, reloading on changes.
func (w *Watcher) Watch(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	defer w.watcher.Close()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.mu.Lock()
				w.pending = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			// Non-fatal.
			_ = err

		case <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()
			if !due {
				continue
			}

			cfg, err := LoadFromPath(w.path)
			if err != nil {
				// Keep running with the previous config.
				continue
			}
			if w.onChange != nil {
				w.onChange(cfg)
			}
		}
	}
}
