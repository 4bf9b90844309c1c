// Package watch detects source changes and triggers rebuilds.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ltfschoen/trunk/internal/config"
	"github.com/ltfschoen/trunk/internal/pipelines"
)

// debounce coalesces the event bursts editors and build tools produce into
// a single rebuild trigger.
const debounce = 300 * time.Millisecond

// Watcher watches the target dir recursively and emits one trigger per
// change burst. Paths under the dist dir, the configured ignore list, and
// any path announced by a pipeline worker through the ignore channel are
// excluded.
type Watcher struct {
	rtc    *config.RtcWatch
	logger *slog.Logger

	mu      sync.Mutex
	ignored map[string]struct{}
}

// New creates a Watcher seeded with the configured ignore paths.
func New(rtc *config.RtcWatch, logger *slog.Logger) *Watcher {
	w := &Watcher{
		rtc:     rtc,
		logger:  logger,
		ignored: make(map[string]struct{}),
	}
	w.Ignore(rtc.Dist)
	for _, p := range rtc.Ignore {
		w.Ignore(p)
	}
	return w
}

// Ignore excludes a path (and everything under it) from change detection.
func (w *Watcher) Ignore(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ignored[filepath.Clean(path)] = struct{}{}
}

// Drain consumes worker ignore notifications for the lifetime of ctx.
func (w *Watcher) Drain(ctx context.Context, ch *pipelines.IgnoreChan) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case path := <-ch.C:
				w.logger.Debug("ignoring worker-owned path", "path", path)
				w.Ignore(path)
			}
		}
	}()
}

// isIgnored reports whether path sits at or below an ignored path.
func (w *Watcher) isIgnored(path string) bool {
	path = filepath.Clean(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	for ignored := range w.ignored {
		if path == ignored || strings.HasPrefix(path, ignored+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Run blocks until ctx is done, invoking onChange after each debounced
// change burst.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.rtc.TargetDir); err != nil {
		return err
	}

	var timer *time.Timer
	trigger := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-trigger:
			onChange()
		case err := <-fsw.Errors:
			w.logger.Warn("watch error", "error", err)
		case event := <-fsw.Events:
			if w.isIgnored(event.Name) {
				continue
			}
			// New directories need their own watches.
			if event.Op.Has(fsnotify.Create) {
				if err := w.addRecursive(fsw, event.Name); err != nil {
					w.logger.Debug("could not watch new path", "path", event.Name, "error", err)
				}
			}
			w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.AfterFunc(debounce, func() {
					select {
					case trigger <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(debounce)
			}
		}
	}
}

// addRecursive registers path and every non-ignored directory below it.
// Non-directory paths are skipped; fsnotify watches their parent already.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		if w.isIgnored(path) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
