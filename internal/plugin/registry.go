package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spadesx/spadesx/internal/logging"
	"github.com/spadesx/spadesx/internal/plugin/command"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Registry owns every loaded plugin and sequences their lifecycle.
//
// Plugin code is only ever called from the goroutine that drives the registry
// (the server tick goroutine). The mutex guards the record list so that
// introspection from other goroutines is safe.
type Registry struct {
	mu sync.RWMutex

	openers []Opener
	router  *command.Router
	logger  *zap.Logger

	// Bound environment handed to plugin init
	srv pluginapi.Server
	api pluginapi.API

	// Loaded plugins in ordinal order
	records []*Record
	byName  map[string]*Record

	nextOrdinal uint64

	// Plugin whose code is currently executing
	active *Record

	// Event handlers (protected by mu)
	eventHandlers []EventHandler
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the host logger. Plugin loggers are derived from it.
func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithOpeners sets the image openers, tried in order.
func WithOpeners(openers ...Opener) RegistryOption {
	return func(r *Registry) {
		r.openers = openers
	}
}

// EventHandler handles registry events.
// Handlers must be non-blocking and must not call back into the Registry.
// Panics in handlers are recovered.
type EventHandler func(event RegistryEvent)

// RegistryEvent represents a registry event.
type RegistryEvent struct {
	Type   RegistryEventType
	Plugin string
	Error  error
}

// RegistryEventType is the type of registry event.
type RegistryEventType int

const (
	// EventPluginLoaded is emitted when a plugin reaches StateRunning.
	EventPluginLoaded RegistryEventType = iota
	// EventPluginUnloaded is emitted after an orderly unload.
	EventPluginUnloaded
	// EventPluginEvicted is emitted when a plugin is removed without shutdown.
	EventPluginEvicted
	// EventPluginError is emitted when a plugin fails to load.
	EventPluginError
)

// String returns a string representation of the event type.
func (t RegistryEventType) String() string {
	switch t {
	case EventPluginLoaded:
		return "loaded"
	case EventPluginUnloaded:
		return "unloaded"
	case EventPluginEvicted:
		return "evicted"
	case EventPluginError:
		return "error"
	default:
		return "unknown"
	}
}

// NewRegistry creates an empty registry. Commands registered by plugins go to
// router and are removed from it when their owner leaves.
func NewRegistry(router *command.Router, opts ...RegistryOption) *Registry {
	r := &Registry{
		openers: []Opener{NativeOpener{}},
		router:  router,
		logger:  zap.NewNop(),
		byName:  make(map[string]*Record),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind sets the server handle and capability table passed to plugin init.
// It must be called before the first Load.
func (r *Registry) Bind(srv pluginapi.Server, api pluginapi.API) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.srv = srv
	r.api = api
}

// Router returns the command router plugins register into.
func (r *Registry) Router() *command.Router {
	return r.router
}

// ActiveOrdinal returns the ordinal of the plugin whose code is executing.
// ok is false when the host itself is running.
func (r *Registry) ActiveOrdinal() (ordinal uint64, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == nil {
		return 0, false
	}
	return r.active.ordinal, true
}

func (r *Registry) opener(path string) Opener {
	for _, o := range r.openers {
		if o.Accepts(path) {
			return o
		}
	}
	return nil
}

// Load opens the image at path, validates it and runs its init function.
// On any failure nothing stays in the registry.
func (r *Registry) Load(ctx context.Context, path string) (*Record, error) {
	rec, err := r.load(ctx, path)
	if err != nil {
		r.emitEvent(RegistryEvent{Type: EventPluginError, Plugin: path, Error: err})
		return nil, err
	}
	r.logger.Info("plugin loaded",
		zap.String("plugin", rec.info.Name),
		zap.String("version", rec.info.Version),
		zap.Uint64("ordinal", rec.ordinal),
		zap.Strings("handlers", rec.handlers.Names()))
	r.emitEvent(RegistryEvent{Type: EventPluginLoaded, Plugin: rec.info.Name})
	return rec, nil
}

func (r *Registry) load(ctx context.Context, path string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	srv, api := r.srv, r.api
	r.mu.RUnlock()
	if srv == nil || api == nil {
		return nil, ErrNotBound
	}

	o := r.opener(path)
	if o == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoOpener, path)
	}
	img, err := o.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	rec, err := resolve(img, path)
	if err != nil {
		img.Close()
		return nil, err
	}

	// Enter the registry (brief lock)
	r.mu.Lock()
	if _, exists := r.byName[rec.info.Name]; exists {
		r.mu.Unlock()
		img.Close()
		return nil, fmt.Errorf("plugin %q: %w", rec.info.Name, ErrAlreadyLoaded)
	}
	r.nextOrdinal++
	rec.ordinal = r.nextOrdinal
	rec.log = logging.NewPluginLogger(r.logger, rec.info.Name)
	rec.state = StateInitialized
	r.records = append(r.records, rec)
	r.byName[rec.info.Name] = rec
	r.mu.Unlock()

	var code int
	fault := r.invoke(rec, func() {
		code = rec.initFn(srv, api, rec.log)
	})
	if fault != nil || code != 0 {
		cause := fault
		if cause == nil {
			cause = fmt.Errorf("init returned %d", code)
		}
		err := fmt.Errorf("plugin %q: %w: %w", rec.info.Name, ErrInitFailed, cause)
		r.remove(rec, err)
		return nil, err
	}

	rec.setState(StateRunning)
	return rec, nil
}

// LoadAll loads images in list order. A failing image does not stop the
// rest; all failures are returned joined.
func (r *Registry) LoadAll(ctx context.Context, paths []string) error {
	var loadErrors []error
	for _, path := range paths {
		if _, err := r.Load(ctx, path); err != nil {
			r.logger.Error("plugin load failed", zap.String("path", path), zap.Error(err))
			loadErrors = append(loadErrors, fmt.Errorf("%s: %w", path, err))
		}
	}

	if len(loadErrors) > 0 {
		return fmt.Errorf("failed to load %d plugins: %w", len(loadErrors), errors.Join(loadErrors...))
	}
	return nil
}

// Unload calls the plugin's shutdown function once, removes its commands and
// handlers, and closes its image.
func (r *Registry) Unload(ctx context.Context, name string) error {
	r.mu.RLock()
	rec, exists := r.byName[name]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("plugin %q: %w", name, ErrPluginNotFound)
	}
	if rec.State() != StateRunning {
		return fmt.Errorf("plugin %q: %w", name, ErrNotRunning)
	}

	rec.setState(StateShuttingDown)
	srv := r.server()
	if fault := r.invoke(rec, func() { rec.shutdownFn(srv) }); fault != nil {
		r.logger.Warn("plugin shutdown faulted", zap.String("plugin", name), zap.Error(fault))
	}

	r.remove(rec, nil)
	r.logger.Info("plugin unloaded", zap.String("plugin", name))
	r.emitEvent(RegistryEvent{Type: EventPluginUnloaded, Plugin: name})
	return nil
}

// UnloadAll unloads all plugins in reverse load order.
func (r *Registry) UnloadAll(ctx context.Context) error {
	// Get names in reverse load order (brief lock)
	r.mu.RLock()
	names := make([]string, len(r.records))
	for i, rec := range r.records {
		names[len(r.records)-1-i] = rec.info.Name
	}
	r.mu.RUnlock()

	var unloadErrors []error
	for _, name := range names {
		if err := r.Unload(ctx, name); err != nil {
			unloadErrors = append(unloadErrors, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(unloadErrors) > 0 {
		return fmt.Errorf("failed to unload %d plugins: %w", len(unloadErrors), errors.Join(unloadErrors...))
	}
	return nil
}

// Evict removes a plugin without calling its shutdown function. It is used
// when the plugin faulted and can no longer be trusted to run.
func (r *Registry) Evict(rec *Record, cause error) {
	if rec.State() == StateUnloaded {
		return
	}
	r.remove(rec, cause)
	r.logger.Error("plugin evicted", zap.String("plugin", rec.info.Name), zap.Error(cause))
	r.emitEvent(RegistryEvent{Type: EventPluginEvicted, Plugin: rec.info.Name, Error: cause})
}

// remove drops the record, its commands and its handlers under one lock, then
// closes the image.
func (r *Registry) remove(rec *Record, cause error) {
	r.mu.Lock()
	if cur, ok := r.byName[rec.info.Name]; ok && cur == rec {
		delete(r.byName, rec.info.Name)
	}
	for i, other := range r.records {
		if other == rec {
			r.records = append(r.records[:i:i], r.records[i+1:]...)
			break
		}
	}
	if r.router != nil {
		r.router.RemoveOwner(rec.ordinal)
	}
	rec.mu.Lock()
	rec.handlers = Handlers{}
	rec.state = StateUnloaded
	rec.err = cause
	rec.mu.Unlock()
	r.mu.Unlock()

	if rec.log != nil {
		rec.log.Close()
	}
	if err := rec.image.Close(); err != nil {
		r.logger.Warn("plugin image close failed", zap.String("plugin", rec.info.Name), zap.Error(err))
	}
}

// invoke runs fn as plugin code: rec is the active plugin for the duration
// and a panic is returned as a fault instead of propagating.
func (r *Registry) invoke(rec *Record, fn func()) (fault error) {
	r.mu.Lock()
	prev := r.active
	r.active = rec
	r.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			if err, ok := p.(error); ok {
				fault = fmt.Errorf("%w: %w", ErrPluginFault, err)
			} else {
				fault = fmt.Errorf("%w: %v", ErrPluginFault, p)
			}
		}
		r.mu.Lock()
		r.active = prev
		r.mu.Unlock()
	}()

	fn()
	return nil
}

func (r *Registry) server() pluginapi.Server {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.srv
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.byName[name]
	return rec, exists
}

// List returns all loaded plugins in ordinal order.
func (r *Registry) List() []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Record, len(r.records))
	copy(result, r.records)
	return result
}

// Count returns the number of loaded plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Subscribe adds an event handler.
// Returns an unsubscribe function to remove the handler.
func (r *Registry) Subscribe(handler EventHandler) func() {
	if handler == nil {
		return func() {}
	}

	r.mu.Lock()
	r.eventHandlers = append(r.eventHandlers, handler)
	index := len(r.eventHandlers) - 1
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		// Set to nil instead of removing to avoid index shifting issues
		if index < len(r.eventHandlers) {
			r.eventHandlers[index] = nil
		}
	}
}

// emitEvent sends an event to all handlers.
// Handlers are called outside any locks and panics are recovered.
func (r *Registry) emitEvent(event RegistryEvent) {
	r.mu.RLock()
	handlers := make([]EventHandler, len(r.eventHandlers))
	copy(handlers, r.eventHandlers)
	r.mu.RUnlock()

	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		func() {
			defer func() {
				_ = recover()
			}()
			handler(event)
		}()
	}
}

func (r *Registry) byOrdinal(ordinal uint64) *Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.ordinal == ordinal {
			return rec
		}
	}
	return nil
}
