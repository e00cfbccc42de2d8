// ABOUTME: Tests for the payload watcher: reload after a write, error reporting, and shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/2389-research/syncview/catalog"
)

func startWatcher(t *testing.T, path string) (chan *catalog.Catalog, chan error) {
	t.Helper()
	loaded := make(chan *catalog.Catalog, 4)
	failed := make(chan error, 4)
	w := &catalogWatcher{
		path:     path,
		debounce: 20 * time.Millisecond,
		logger:   slog.New(slog.DiscardHandler),
		onLoad:   func(c *catalog.Catalog) { loaded <- c },
		onError:  func(err error) { failed <- err },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("watcher returned %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	time.Sleep(100 * time.Millisecond)
	return loaded, failed
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writePayload(t, testPayload)
	loaded, _ := startWatcher(t, path)

	if err := os.WriteFile(path, []byte(testPayload), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cat := <-loaded:
		if len(cat.Series) != 1 {
			t.Errorf("reloaded catalog has %d series", len(cat.Series))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatcherReportsBadPayload(t *testing.T) {
	path := writePayload(t, testPayload)
	_, failed := startWatcher(t, path)

	if err := os.WriteFile(path, []byte(`{"myData": 5}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-failed:
		if err == nil {
			t.Error("expected a parse error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no error after a bad write")
	}
}
