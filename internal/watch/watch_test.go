package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsFileCreate(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	name := filepath.Join(dir, "created.txt")
	if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-w.Events():
		if ev.Path != "created.txt" {
			t.Errorf("event path = %q, want %q", ev.Path, "created.txt")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for create event")
	}
}

func TestWatcherReportsNestedDirCreate(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}

	// Drain until we see the directory creation, then confirm a file
	// created inside the new subdirectory is also reported: New's
	// recursive watch must extend to directories created after Watch
	// starts.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-w.Events():
		case <-deadline:
			t.Fatal("timed out waiting for subdirectory create event")
		}
		if _, err := os.Stat(sub); err == nil {
			break
		}
	}

	time.Sleep(50 * time.Millisecond)
	nestedFile := filepath.Join(sub, "nested.txt")
	if err := os.WriteFile(nestedFile, []byte("y"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-w.Events():
		if ev.Path != filepath.Join("sub", "nested.txt") {
			t.Errorf("event path = %q, want sub/nested.txt", ev.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for nested file create event")
	}
}

func TestWatcherCloseStopsEvents(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case _, ok := <-w.Events():
		if ok {
			t.Error("expected Events channel to be closed after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Events channel to close")
	}
}
