package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func collectIngests() (func(string), func() []string) {
	var mu sync.Mutex
	var got []string
	record := func(path string) {
		mu.Lock()
		got = append(got, path)
		mu.Unlock()
	}
	snapshot := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), got...)
	}
	return record, snapshot
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_IngestsNewFile(t *testing.T) {
	dir := t.TempDir()
	record, snapshot := collectIngests()
	w := NewWatcher([]string{dir}, []string{".txt"}, record)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "drop.txt")
	if err := os.WriteFile(path, []byte("policy text"), 0644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 3*time.Second, func() bool { return len(snapshot()) >= 1 }) {
		t.Fatal("ingest callback not invoked")
	}
	if got := snapshot(); got[0] != path {
		t.Errorf("got %q, want %q", got[0], path)
	}
}

func TestWatcher_FiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	record, snapshot := collectIngests()
	w := NewWatcher([]string{dir}, []string{".pdf"}, record)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Second)
	if got := snapshot(); len(got) != 0 {
		t.Errorf("expected no ingests for filtered extension, got %v", got)
	}
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	record, snapshot := collectIngests()
	w := NewWatcher([]string{dir}, nil, record)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "big.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := f.WriteString("more data\n"); err != nil {
			t.Fatal(err)
		}
		_ = f.Sync()
		time.Sleep(50 * time.Millisecond)
	}
	_ = f.Close()

	if !waitFor(t, 3*time.Second, func() bool { return len(snapshot()) >= 1 }) {
		t.Fatal("ingest callback not invoked")
	}
	// the burst of writes lands within one debounce window
	time.Sleep(600 * time.Millisecond)
	if got := snapshot(); len(got) != 1 {
		t.Errorf("expected 1 ingest after debounce, got %d", len(got))
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher([]string{filepath.Join(t.TempDir(), "nope")}, nil, func(string) {})
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Error("expected error for missing directory")
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher([]string{dir}, nil, func(string) {})
	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop()
}
