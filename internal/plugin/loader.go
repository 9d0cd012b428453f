package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ImageExtensions are the file extensions recognised as plugin images.
var ImageExtensions = []string{".so", ".lua"}

// Loader locates plugin images on disk.
type Loader struct {
	// Search paths for plugins (checked in order)
	paths []string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPaths sets the plugin search paths.
func WithPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.paths = paths
	}
}

// NewLoader creates a new plugin loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		paths: DefaultPluginPaths(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// DefaultPluginPaths returns the default plugin search paths.
func DefaultPluginPaths() []string {
	paths := make([]string, 0, 2)

	// Working directory plugins: ./plugins/
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, "plugins"))
	}

	// User plugins: ~/.config/spadesx/plugins/
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "spadesx", "plugins"))
	}

	return paths
}

// Paths returns the configured search paths.
func (l *Loader) Paths() []string {
	return l.paths
}

// AddPath adds a search path.
func (l *Loader) AddPath(path string) {
	l.paths = append(l.paths, path)
}

func isImage(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Resolve turns a configured load entry into an image path. Builtin entries
// pass through; absolute paths must exist; anything else is searched for in
// the search paths, first match wins.
func (l *Loader) Resolve(entry string) (string, error) {
	if strings.HasPrefix(entry, BuiltinPrefix) {
		return entry, nil
	}
	if filepath.IsAbs(entry) {
		if _, err := os.Stat(entry); err != nil {
			return "", fmt.Errorf("%w: %s", ErrPluginNotFound, entry)
		}
		return entry, nil
	}

	for _, basePath := range l.paths {
		candidate := filepath.Join(basePath, entry)
		if stat, err := os.Stat(candidate); err == nil && !stat.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrPluginNotFound, entry)
}

// ResolveAll resolves entries in order. Entries that cannot be found are
// skipped and reported together.
func (l *Loader) ResolveAll(entries []string) ([]string, error) {
	paths := make([]string, 0, len(entries))
	var errs []error
	for _, entry := range entries {
		path, err := l.Resolve(entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

// Discover finds every image in the search paths. Returns paths sorted by file
// name; when two paths hold the same file name the earlier search path wins.
func (l *Loader) Discover() ([]string, error) {
	found := make(map[string]string)

	for _, basePath := range l.paths {
		entries, err := os.ReadDir(basePath)
		if err != nil {
			if os.IsNotExist(err) {
				continue // Not an error if path doesn't exist
			}
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !isImage(entry.Name()) {
				continue
			}
			if _, exists := found[entry.Name()]; !exists {
				found[entry.Name()] = filepath.Join(basePath, entry.Name())
			}
		}
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = found[name]
	}
	return paths, nil
}
