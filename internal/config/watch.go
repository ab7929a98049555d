package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teslashibe/go-evergreen/internal/log"
)

// settle is how long a burst of writes must be quiet before fn runs.
const settle = 100 * time.Millisecond

// Watch calls fn after path is written, created or replaced, until ctx is
// cancelled. The parent directory is watched so editors that save by
// rename are seen too. Bursts of events produce one call.
func Watch(ctx context.Context, path string, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	logger := log.Component("config").With("path", abs)
	logger.Info("watching config")

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.After(settle)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)

		case <-pending:
			pending = nil
			logger.Debug("config changed")
			fn()
		}
	}
}
