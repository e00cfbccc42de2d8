// ABOUTME: Watches the payload file with fsnotify and re-parses it after writes settle.
// ABOUTME: Watches the parent directory so editors that replace the file by rename are still seen.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/2389-research/syncview/catalog"
)

const defaultDebounce = 100 * time.Millisecond

// catalogWatcher reloads one payload file. onLoad and onError run on the
// watcher goroutine.
type catalogWatcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	onLoad   func(*catalog.Catalog)
	onError  func(error)
}

// Run watches until ctx is cancelled.
func (w *catalogWatcher) Run(ctx context.Context) error {
	target, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	debounce := w.debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	w.logger.Info("watching payload", "path", target)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("payload watcher error", "error", err)

		case <-timer.C:
			w.reload()
		}
	}
}

func (w *catalogWatcher) reload() {
	data, err := os.ReadFile(w.path)
	if err == nil {
		var cat *catalog.Catalog
		if cat, err = catalog.Parse(data); err == nil {
			w.logger.Info("payload reloaded", "path", w.path, "catalog", cat.ID)
			w.onLoad(cat)
			return
		}
	}
	w.logger.Warn("payload reload failed", "path", w.path, "error", err)
	if w.onError != nil {
		w.onError(err)
	}
}
