package plugin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spadesx/spadesx/internal/plugin/command"
)

// diskOpener serves images backed by a file on disk. The file content is
// ignored; the plugin is named after the file.
type diskOpener struct{}

func (diskOpener) Accepts(path string) bool { return filepath.Ext(path) == ".img" }

func (diskOpener) Open(_ context.Context, path string) (Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return symbols(strings.TrimSuffix(filepath.Base(path), ".img"), nil), nil
}

func TestWatcherReportsChangedImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "walls.img")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	builtins := NewBuiltinOpener()
	reg := NewRegistry(command.NewRouter(), WithOpeners(builtins, diskOpener{}))
	reg.Bind(fakeServer{}, &fakeAPI{reg: reg})
	if _, err := reg.Load(context.Background(), path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	builtins.Register("inner", func() Symbols { return symbols("inner", nil) })
	if _, err := reg.Load(context.Background(), BuiltinPrefix+"inner"); err != nil {
		t.Fatalf("Load(builtin) error = %v", err)
	}

	w, err := NewWatcher(reg)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()
	if err := w.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if len(w.dirs) != 1 {
		t.Errorf("watching %d dirs, want 1", len(w.dirs))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Files that are not loaded images are ignored.
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case got := <-w.Changes():
		if got != path {
			t.Errorf("Changes() = %q, want %q", got, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported for the rewritten image")
	}
}
