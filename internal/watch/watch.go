// Package watch re-runs a callback whenever schema files change below a
// directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lokireturns/loki-jsonschema-resolver/internal/fileutil"
	"github.com/lokireturns/loki-jsonschema-resolver/logging"
)

// DefaultDebounce is how long the watcher waits for further events before
// running.
const DefaultDebounce = 250 * time.Millisecond

// RunFunc is invoked once at start and after every burst of changes. An
// error is logged and does not stop the watcher.
type RunFunc func(ctx context.Context) error

// Watcher watches a directory tree for changes to files with one extension.
type Watcher struct {
	Root      string
	Extension string
	Debounce  time.Duration
	Logger    logging.Logger
	Run       RunFunc

	// runs receives the result of each run. Used by tests.
	runs chan error
}

// New returns a Watcher with the default debounce and no logging.
func New(root, ext string, run RunFunc) *Watcher {
	return &Watcher{
		Root:      root,
		Extension: ext,
		Debounce:  DefaultDebounce,
		Logger:    logging.NopLogger{},
		Run:       run,
	}
}

// Watch runs once, then again after each change, until ctx is done. It
// returns nil when ctx is canceled.
//
// Saves made by the run itself are seen as changes too, so a run that
// rewrites files is followed by one more run. That run finds nothing to do
// and writes nothing.
func (w *Watcher) Watch(ctx context.Context) error {
	if w.Run == nil {
		return errors.New("watch: no run function")
	}
	log := w.Logger
	if log == nil {
		log = logging.NopLogger{}
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dirs, err := fileutil.ListDirs(w.Root)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch: adding %s: %w", dir, err)
		}
	}
	log.Info("watching for changes", "root", w.Root, "directories", len(dirs))

	w.runOnce(ctx, log)

	// Reset and Stop never leave a stale value in C since Go 1.23.
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				w.addIfDir(watcher, event.Name, log)
			}
			if !w.relevant(event) {
				continue
			}
			log.Debug("file changed", "event", event.Op.String(), "file", event.Name)
			timer.Reset(debounce)

		case <-timer.C:
			w.runOnce(ctx, log)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("file watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context, log logging.Logger) {
	err := w.Run(ctx)
	if err != nil && ctx.Err() == nil {
		log.Error("run failed", "error", err)
	}
	if w.runs != nil {
		w.runs <- err
	}
}

// relevant reports whether event touches a watched, non-hidden file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	return !strings.HasPrefix(name, ".") && strings.HasSuffix(name, w.Extension)
}

func (w *Watcher) addIfDir(watcher *fsnotify.Watcher, path string, log logging.Logger) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	if err := watcher.Add(path); err != nil {
		log.Warn("cannot watch new directory", "dir", path, "error", err)
		return
	}
	log.Debug("watching new directory", "dir", path)
}
