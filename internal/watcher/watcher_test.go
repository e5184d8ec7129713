package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{OnChange: func(context.Context, string) {}}); err == nil {
		t.Fatalf("expected error without a path")
	}
	if _, err := New(Config{Path: "query.kql"}); err == nil {
		t.Fatalf("expected error without a callback")
	}
}

func TestWatcherReportsSaves(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "query.kql")
	if err := os.WriteFile(path, []byte("SigninLogs"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	changes := make(chan string, 10)
	w, err := New(Config{
		Path:          path,
		DebounceDelay: 20 * time.Millisecond,
		OnChange: func(_ context.Context, content string) {
			changes <- content
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("noise"), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	want := "SigninLogs | where ResultType != 0"
	if err := os.WriteFile(path, []byte(want), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case got := <-changes:
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for change")
	}

	select {
	case got := <-changes:
		t.Fatalf("unexpected extra change %q", got)
	case <-time.After(200 * time.Millisecond):
	}
}
