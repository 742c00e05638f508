package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	amerrors "github.com/Aman-CERP/openmc-assist/internal/errors"
)

// DefaultDebounce is the quiet period after the last change before a
// re-ingest starts.
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-runs ingestion of one root whenever a matching file under it
// changes. Bursts of events within the debounce window collapse into a
// single run.
type Watcher struct {
	runner   *Runner
	kind     Kind
	root     string
	exts     map[string]bool
	maxDepth int
	debounce time.Duration
	onRun    func(*Stats, error)
	logger   *slog.Logger
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// OnRun registers a callback invoked after every triggered run.
func OnRun(fn func(*Stats, error)) WatchOption {
	return func(w *Watcher) { w.onRun = fn }
}

// NewWatcher creates a Watcher for root using the runner's configuration
// for extensions and depth.
func NewWatcher(r *Runner, kind Kind, root string, opts ...WatchOption) *Watcher {
	exts := r.cfg.Paths.DocExtensions
	if kind == KindExamples {
		exts = r.cfg.Paths.ExampleExtensions
	}
	w := &Watcher{
		runner:   r,
		kind:     kind,
		root:     root,
		exts:     make(map[string]bool, len(exts)),
		maxDepth: r.cfg.Paths.MaxDepth,
		debounce: DefaultDebounce,
		logger:   r.logger,
	}
	for _, e := range exts {
		w.exts[strings.ToLower(e)] = true
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch blocks until ctx is cancelled. It does not ingest on start; callers
// run the initial ingestion themselves. A store failure during a triggered
// run stops the watch and is returned.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}
	w.logger.Info("watch_started", slog.String("root", w.root), slog.String("kind", string(w.kind)))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch_stopped", slog.String("root", w.root))
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(fsw, ev) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch_error", slog.String("error", err.Error()))

		case <-timer.C:
			stats, err := w.runner.Run(ctx, w.kind, w.root)
			if w.onRun != nil {
				w.onRun(stats, err)
			}
			if err == nil {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			if amerrors.IsStoreError(err) {
				return err
			}
			w.logger.Warn("watch_run_failed", slog.String("error", err.Error()))
		}
	}
}

// handle reports whether ev should schedule a run. New directories are
// added to the watch list and always schedule one, since files moved in
// with them produce no events of their own.
func (w *Watcher) handle(fsw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !w.withinDepth(ev.Name) {
				return false
			}
			if err := w.addTree(fsw, ev.Name); err != nil {
				w.logger.Warn("watch_add_failed", slog.String("path", ev.Name), slog.String("error", err.Error()))
			}
			return true
		}
	}
	if !w.exts[strings.ToLower(filepath.Ext(ev.Name))] {
		return false
	}
	w.logger.Debug("watch_event", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
	return true
}

// addTree watches dir and every subdirectory that can still hold files the
// scanner would collect.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !w.withinDepth(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) withinDepth(dir string) bool {
	if w.maxDepth < 0 {
		return true
	}
	rel, err := filepath.Rel(w.root, dir)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return len(strings.Split(filepath.ToSlash(rel), "/")) <= w.maxDepth
}
