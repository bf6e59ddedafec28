package credwatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credential")

	// Missing file is an empty credential, not an error.
	got, err := Read(path)
	if err != nil || got != "" {
		t.Errorf("Read(missing) = %q, %v", got, err)
	}

	if err := os.WriteFile(path, []byte("  tok-123\n"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err = Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "tok-123" {
		t.Errorf("Read = %q, want trimmed tok-123", got)
	}
}

func TestWatcher_FiresOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credential")
	if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
		t.Fatal(err)
	}

	changes := make(chan string, 4)
	w, err := New(path, func(c string) { changes <- c }, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()
	w.SetDebounce(20 * time.Millisecond)
	w.Start(context.Background())

	if err := os.WriteFile(path, []byte("new-token\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		if got != "new-token" {
			t.Errorf("callback credential = %q, want new-token", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("callback never fired")
	}
}

func TestWatcher_IgnoresUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credential")
	if err := os.WriteFile(path, []byte("same"), 0600); err != nil {
		t.Fatal(err)
	}

	changes := make(chan string, 4)
	w, err := New(path, func(c string) { changes <- c }, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()
	w.SetDebounce(20 * time.Millisecond)
	w.Start(context.Background())

	// Rewrite the identical content.
	if err := os.WriteFile(path, []byte("same"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		t.Errorf("unexpected callback with %q", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_RemovalYieldsEmptyCredential(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credential")
	if err := os.WriteFile(path, []byte("tok"), 0600); err != nil {
		t.Fatal(err)
	}

	changes := make(chan string, 4)
	w, err := New(path, func(c string) { changes <- c }, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()
	w.SetDebounce(20 * time.Millisecond)
	w.Start(context.Background())

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		if got != "" {
			t.Errorf("callback credential = %q, want empty after removal", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("callback never fired")
	}
}
