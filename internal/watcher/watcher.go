// Package watcher observes a repository working tree and emits a coalesced
// "repository changed" signal once per quiet period.
package watcher

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RepoWatcher watches a working tree recursively and debounces its events.
type RepoWatcher struct {
	root      string
	fs        *fsnotify.Watcher
	debouncer *Debouncer
	logger    *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
	errOnce   sync.Once
}

// New starts watching root. An error means the backend is unavailable; the
// caller should carry on without automatic refreshes.
func New(root string, window time.Duration, logger *slog.Logger) (*RepoWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := addWatchTree(fw, root, root); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}

	w := &RepoWatcher{
		root:      root,
		fs:        fw,
		debouncer: NewDebouncer(window),
		logger:    logger,
		done:      make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Signals returns the debounced change channel. It is closed when the
// watcher stops.
func (w *RepoWatcher) Signals() <-chan struct{} {
	return w.debouncer.Signals()
}

// Close stops the watcher.
func (w *RepoWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func (w *RepoWatcher) loop() {
	defer w.debouncer.Close()

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ignored(w.root, ev.Name) {
				continue
			}

			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addWatchTree(w.fs, w.root, ev.Name)
				}
			}

			w.debouncer.Trigger()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.errOnce.Do(func() {
				w.logger.Warn("file watcher error", "root", w.root, "err", err)
			})

		case <-w.done:
			return
		}
	}
}

// ignored reports whether a path under root should not trigger a refresh:
// lock files and the high-churn internals of .git.
func ignored(root, path string) bool {
	if strings.HasSuffix(path, ".lock") {
		return true
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) >= 2 && parts[0] == ".git" {
		switch parts[1] {
		case "objects", "logs", "lfs":
			return true
		}
	}
	return false
}

func addWatchTree(fw *fsnotify.Watcher, root, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// The root must be watchable; unreadable subdirectories are skipped.
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignored(root, path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil && path == dir {
			return err
		}
		return nil
	})
}
