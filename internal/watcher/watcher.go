// Package watcher re-runs a callback when a query file is saved.
//
// It backs `kqlified run --watch`: each save of the learner's .kql file is
// graded again after a short debounce.
package watcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors one file and reports its content after each change.
type Watcher struct {
	path string
	dir  string

	// Configuration
	debounceDelay time.Duration
	logger        *slog.Logger

	// Internal state
	fsWatcher *fsnotify.Watcher
	pending   time.Time
	mu        sync.Mutex

	onChange func(ctx context.Context, content string)
}

// Config holds configuration options for the Watcher.
type Config struct {
	Path          string
	DebounceDelay time.Duration // Default: 100ms
	Logger        *slog.Logger
	OnChange      func(ctx context.Context, content string)
}

// New creates a new Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file path is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}

	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", cfg.Path, err)
	}

	debounce := cfg.DebounceDelay
	if debounce == 0 {
		debounce = 100 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Watcher{
		path:          path,
		dir:           filepath.Dir(path),
		debounceDelay: debounce,
		logger:        logger.With("component", "watcher", "path", path),
		onChange:      cfg.OnChange,
	}, nil
}

// Start begins watching. It blocks until the context is cancelled.
//
// The parent directory is watched rather than the file itself so that
// editors which save by writing a temp file and renaming it over the
// original keep triggering.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Debug("watching")

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("event", "op", event.Op.String())

	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

// processDebounced delivers pending changes serially, after the debounce
// delay has passed without further events.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	ready := !w.pending.IsZero() && time.Since(w.pending) >= w.debounceDelay
	if ready {
		w.pending = time.Time{}
	}
	w.mu.Unlock()

	if !ready {
		return
	}

	content, err := os.ReadFile(w.path)
	if err != nil {
		// Mid-rename saves briefly remove the file; the next event retries.
		w.logger.Debug("read failed", "error", err)
		return
	}
	w.onChange(ctx, string(content))
}
