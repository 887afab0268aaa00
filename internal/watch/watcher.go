package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/torfstack/bust/internal/logging"
	"github.com/torfstack/bust/internal/util"
)

// RebuildFunc is called with the paths that changed since the last call.
type RebuildFunc func(ctx context.Context, changed []string) error

// Watcher triggers a rebuild once the files below RootPath stop
// changing for the debounce interval. Rebuilds run on the watcher's own
// goroutine, one at a time.
type Watcher struct {
	watcher  *fsnotify.Watcher
	RootPath string
	ignore   []string
	debounce time.Duration
	pending  *util.SyncSlice[string]
	rebuild  RebuildFunc
}

func NewWatcher(rootPath string, debounce time.Duration, rebuild RebuildFunc, ignore ...string) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  watcher,
		RootPath: filepath.Clean(rootPath),
		debounce: debounce,
		pending:  util.NewSyncSlice[string](),
		rebuild:  rebuild,
	}
	for _, dir := range ignore {
		abs, err := filepath.Abs(dir)
		if err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("could not resolve ignored directory '%s': %w", dir, err)
		}
		w.ignore = append(w.ignore, abs)
	}

	// NOTE: fsnotify does not recursively watch subdirectories
	err = filepath.Walk(w.RootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if w.ignored(path) {
				return filepath.SkipDir
			}
			if err = w.addDir(path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return w, nil
}

func (w *Watcher) addDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("add-dir: could not stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil
	}

	if err = w.watcher.Add(path); err != nil {
		return fmt.Errorf("add-dir: could not add directory to watcher: %w", err)
	}
	logging.Debugf("Added directory to watcher: %s", path)
	return nil
}

func (w *Watcher) ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range w.ignore {
		rel, err := filepath.Rel(dir, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) Close() {
	if err := w.watcher.Close(); err != nil {
		logging.Error("Error closing watcher", err)
	}
}

// Run blocks until ctx is done or the underlying watcher stops.
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Name == w.RootPath || w.ignored(event.Name) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err = w.addDir(event.Name); err != nil {
						return fmt.Errorf("add-dir: could not add directory to watcher: %w", err)
					}
				}
			}

			logging.Debugf("Received %s event: %s", event.Op, event.Name)
			w.pending.Add(event.Name)
			timer.Reset(w.debounce)

		case <-timer.C:
			changed := w.pending.Drain()
			if len(changed) == 0 {
				continue
			}
			if err := w.rebuild(ctx, changed); err != nil {
				logging.Error("Rebuild failed", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			logging.Error("FSNotify error", err)
		}
	}
}
