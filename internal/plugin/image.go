package plugin

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Image is an opened plugin module whose exports can be looked up by name.
type Image interface {
	// Lookup returns the exported symbol. Functions are returned as func values,
	// the info record as *pluginapi.Info.
	Lookup(name string) (any, bool)

	// Close releases the image. Symbols must not be used afterwards.
	Close() error
}

// Opener opens plugin images of one kind.
type Opener interface {
	// Accepts reports whether the opener handles path.
	Accepts(path string) bool

	// Open opens the image at path.
	Open(ctx context.Context, path string) (Image, error)
}

// BuiltinPrefix marks the path of a statically linked plugin.
const BuiltinPrefix = "builtin:"

// Symbols is a statically linked image: a table of exports keyed by symbol name.
type Symbols map[string]any

// Lookup implements Image. Nil functions count as absent.
func (s Symbols) Lookup(name string) (any, bool) {
	sym, ok := s[name]
	if !ok || sym == nil {
		return nil, false
	}
	if v := reflect.ValueOf(sym); (v.Kind() == reflect.Func || v.Kind() == reflect.Pointer) && v.IsNil() {
		return nil, false
	}
	return sym, true
}

// Close implements Image.
func (s Symbols) Close() error {
	return nil
}

// BuiltinOpener serves images compiled into the server binary. Paths look like
// "builtin:babel".
type BuiltinOpener struct {
	mu     sync.RWMutex
	images map[string]func() Symbols
}

// NewBuiltinOpener creates an empty builtin opener.
func NewBuiltinOpener() *BuiltinOpener {
	return &BuiltinOpener{images: make(map[string]func() Symbols)}
}

// Register adds a builtin image. The factory is called on every open so each
// load gets fresh plugin state.
func (o *BuiltinOpener) Register(name string, factory func() Symbols) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.images[name] = factory
}

// Names returns the registered builtin names, sorted.
func (o *BuiltinOpener) Names() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.images))
	for name := range o.images {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Accepts implements Opener.
func (o *BuiltinOpener) Accepts(path string) bool {
	return strings.HasPrefix(path, BuiltinPrefix)
}

// Open implements Opener.
func (o *BuiltinOpener) Open(ctx context.Context, path string) (Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(path, BuiltinPrefix)

	o.mu.RLock()
	factory, ok := o.images[name]
	o.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, path)
	}
	return factory(), nil
}
