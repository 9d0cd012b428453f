package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// touch creates the named files (and their parent dirs) under root.
func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(path, []byte("image"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
}

func TestLoaderResolve(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	touch(t, first, "shared.lua")
	touch(t, second, "shared.lua", "late.so", "nested/inner.lua")
	if err := os.Mkdir(filepath.Join(first, "dir.lua"), 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	touch(t, second, "dir.lua")

	l := NewLoader(WithPaths(first, second))

	tests := []struct {
		name    string
		entry   string
		want    string
		wantErr bool
	}{
		{"builtin passes through", BuiltinPrefix + "babel", BuiltinPrefix + "babel", false},
		{"absolute existing", filepath.Join(second, "late.so"), filepath.Join(second, "late.so"), false},
		{"absolute missing", filepath.Join(first, "gone.so"), "", true},
		{"first path wins", "shared.lua", filepath.Join(first, "shared.lua"), false},
		{"found in later path", "late.so", filepath.Join(second, "late.so"), false},
		{"relative with dirs", "nested/inner.lua", filepath.Join(second, "nested", "inner.lua"), false},
		{"directory is skipped", "dir.lua", filepath.Join(second, "dir.lua"), false},
		{"missing", "nowhere.lua", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Resolve(tt.entry)
			if tt.wantErr {
				if !errors.Is(err, ErrPluginNotFound) {
					t.Fatalf("Resolve(%q) error = %v, want ErrPluginNotFound", tt.entry, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.entry, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.entry, got, tt.want)
			}
		})
	}
}

func TestLoaderResolveAll(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.lua", "b.so")
	l := NewLoader(WithPaths(dir))

	tests := []struct {
		name    string
		entries []string
		want    []string
		missing []string
	}{
		{
			name:    "all found keeps order",
			entries: []string{"b.so", BuiltinPrefix + "babel", "a.lua"},
			want:    []string{filepath.Join(dir, "b.so"), BuiltinPrefix + "babel", filepath.Join(dir, "a.lua")},
		},
		{
			name:    "missing entries skipped",
			entries: []string{"x.lua", "a.lua", "y.so"},
			want:    []string{filepath.Join(dir, "a.lua")},
			missing: []string{"x.lua", "y.so"},
		},
		{
			name:    "nothing found",
			entries: []string{"x.lua"},
			want:    []string{},
			missing: []string{"x.lua"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.ResolveAll(tt.entries)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ResolveAll() = %v, want %v", got, tt.want)
			}
			if len(tt.missing) == 0 {
				if err != nil {
					t.Fatalf("ResolveAll() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrPluginNotFound) {
				t.Fatalf("ResolveAll() error = %v, want ErrPluginNotFound", err)
			}
			joined, ok := err.(interface{ Unwrap() []error })
			if !ok {
				t.Fatalf("ResolveAll() error %T is not a joined error", err)
			}
			if n := len(joined.Unwrap()); n != len(tt.missing) {
				t.Errorf("ResolveAll() reported %d errors, want %d", n, len(tt.missing))
			}
		})
	}
}

func TestLoaderDiscover(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	touch(t, first, "zeta.lua", "mid.so", "notes.txt", "sub/deep.lua")
	touch(t, second, "alpha.so", "mid.so", "README")

	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{
			name:  "sorted by file name, first path wins",
			paths: []string{first, second},
			want: []string{
				filepath.Join(second, "alpha.so"),
				filepath.Join(first, "mid.so"),
				filepath.Join(first, "zeta.lua"),
			},
		},
		{
			name:  "order of paths decides duplicates",
			paths: []string{second, first},
			want: []string{
				filepath.Join(second, "alpha.so"),
				filepath.Join(second, "mid.so"),
				filepath.Join(first, "zeta.lua"),
			},
		},
		{
			name:  "missing dir is not an error",
			paths: []string{filepath.Join(first, "absent"), second},
			want: []string{
				filepath.Join(second, "alpha.so"),
				filepath.Join(second, "mid.so"),
			},
		},
		{
			name:  "no paths",
			paths: nil,
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLoader(WithPaths(tt.paths...)).Discover()
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Discover() = %v, want %v", got, tt.want)
			}
		})
	}
}
