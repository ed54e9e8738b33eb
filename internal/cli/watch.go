package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mark-chris/attackkb/internal/knowledge"
)

// defaultReloadDelay lets editors and exporters finish writing before a reload
const defaultReloadDelay = 500 * time.Millisecond

// dataWatcher triggers a reload when the technique exports change
type dataWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	isDir   bool
	delay   time.Duration
	logger  *zap.Logger
}

// newDataWatcher watches path, a single export or a directory tree of exports.
// A single file is watched through its parent directory so that atomic
// replacements (write to temp, rename) are seen.
func newDataWatcher(path string, logger *zap.Logger) (*dataWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open data path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dw := &dataWatcher{
		watcher: w,
		path:    abs,
		isDir:   info.IsDir(),
		delay:   defaultReloadDelay,
		logger:  logger,
	}

	if !dw.isDir {
		if err := w.Add(filepath.Dir(abs)); err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
		}
		return dw, nil
	}

	// fsnotify is not recursive
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", abs, err)
	}

	return dw, nil
}

// relevant reports whether an event touches the watched exports
func (dw *dataWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if !dw.isDir {
		return filepath.Clean(event.Name) == dw.path
	}
	return knowledge.IsExportFile(event.Name)
}

// run delivers debounced reloads until ctx is done or the watcher is closed
func (dw *dataWatcher) run(ctx context.Context, reload func(context.Context)) {
	ticker := time.NewTicker(dw.delay / 5)
	defer ticker.Stop()

	pending := false
	var lastEvent time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}

			// New subdirectories need their own watch
			if dw.isDir && event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = dw.watcher.Add(event.Name)
				}
			}

			if !dw.relevant(event) {
				continue
			}

			dw.logger.Debug("data change detected",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()))
			pending = true
			lastEvent = time.Now()

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Warn("watcher error", zap.Error(err))

		case <-ticker.C:
			if pending && time.Since(lastEvent) >= dw.delay {
				pending = false
				reload(ctx)
			}
		}
	}
}

// Close stops watching
func (dw *dataWatcher) Close() error {
	return dw.watcher.Close()
}
