// Package watch rebuilds the site whenever one of its input directories
// changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/reportsite/internal/logfields"
)

// DefaultDebounce is how long the watcher waits for a burst of changes to
// settle before rebuilding.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc runs one full build.
type BuildFunc func(ctx context.Context) error

// Watcher runs an initial build, then one rebuild per settled burst of
// filesystem changes. Builds never overlap; requests that arrive during a
// build are coalesced into a single follow-up build.
type Watcher struct {
	dirs     []string
	exclude  []string
	build    BuildFunc
	debounce time.Duration
}

// New returns a Watcher over dirs (watched recursively).
func New(build BuildFunc, dirs ...string) *Watcher {
	return &Watcher{dirs: dirs, build: build, debounce: DefaultDebounce}
}

// WithDebounce overrides DefaultDebounce.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// Exclude ignores events below dir, typically the build output.
func (w *Watcher) Exclude(dir string) *Watcher {
	if abs, err := filepath.Abs(dir); err == nil {
		w.exclude = append(w.exclude, abs)
	}
	return w
}

// Run blocks until ctx is done. Build failures are logged and do not stop
// the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()

	watched := 0
	for _, dir := range w.dirs {
		if _, err := os.Stat(dir); err != nil {
			slog.Warn("Not watching missing directory", logfields.Path(dir))
			continue
		}
		addDirsRecursive(fw, dir)
		watched++
	}
	if watched == 0 {
		return errors.New("none of the watched directories exist")
	}

	w.runBuild(ctx, "initial")
	slog.Info("Watching for changes", logfields.Count(watched))
	return w.serve(ctx, fw.Events, fw.Errors, func(dir string) { addDirsRecursive(fw, dir) })
}

// serve turns events into debounced rebuilds until ctx is done or either
// channel closes. The rebuild worker has exited by the time it returns.
func (w *Watcher) serve(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, addDir func(string)) error {
	rebuildReq := make(chan struct{}, 1)
	trigger, stop := debouncer(w.debounce, rebuildReq)
	defer stop()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-rebuildReq:
				w.runBuild(ctx, "change")
			}
		}
	}()
	defer wg.Wait()
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping watcher")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			w.handleEvent(ev, addDir, trigger)
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) runBuild(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	slog.Info("Building site", slog.String("reason", reason))
	if err := w.build(ctx); err != nil {
		slog.Warn("Build failed; waiting for changes", logfields.Error(err))
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event, addDir func(string), trigger func()) {
	if shouldIgnoreEvent(ev.Name) || w.excluded(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			addDir(ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func (w *Watcher) excluded(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, ex := range w.exclude {
		if abs == ex || strings.HasPrefix(abs, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// debouncer returns a trigger that requests a rebuild once no further
// trigger has arrived for d, and a stop func cancelling any pending timer.
func debouncer(d time.Duration, rebuildReq chan<- struct{}) (trigger func(), stop func()) {
	var mu sync.Mutex
	var timer *time.Timer
	trigger = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	stop = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return trigger, stop
}

func addDirsRecursive(fw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent reports editor temp files and other noise.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
