package plugin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spadesx/spadesx/internal/logging"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Handlers holds a plugin's optional event handlers. A nil field means the
// plugin does not export that handler.
type Handlers struct {
	OnServerInit       pluginapi.OnServerInitFunc
	OnServerShutdown   pluginapi.OnServerShutdownFunc
	OnBlockDestroy     pluginapi.OnBlockDestroyFunc
	OnBlockPlace       pluginapi.OnBlockPlaceFunc
	OnCommand          pluginapi.OnCommandFunc
	OnPlayerConnect    pluginapi.OnPlayerConnectFunc
	OnPlayerDisconnect pluginapi.OnPlayerDisconnectFunc
	OnGrenadeExplode   pluginapi.OnGrenadeExplodeFunc
	OnTick             pluginapi.OnTickFunc
	OnPlayerHit        pluginapi.OnPlayerHitFunc
	OnColorChange      pluginapi.OnColorChangeFunc
}

// Names returns the symbol names of the handlers that are present.
func (h *Handlers) Names() []string {
	var names []string
	add := func(present bool, name string) {
		if present {
			names = append(names, name)
		}
	}
	add(h.OnServerInit != nil, pluginapi.SymbolOnServerInit)
	add(h.OnServerShutdown != nil, pluginapi.SymbolOnServerShutdown)
	add(h.OnBlockDestroy != nil, pluginapi.SymbolOnBlockDestroy)
	add(h.OnBlockPlace != nil, pluginapi.SymbolOnBlockPlace)
	add(h.OnCommand != nil, pluginapi.SymbolOnCommand)
	add(h.OnPlayerConnect != nil, pluginapi.SymbolOnPlayerConnect)
	add(h.OnPlayerDisconnect != nil, pluginapi.SymbolOnPlayerDisconnect)
	add(h.OnGrenadeExplode != nil, pluginapi.SymbolOnGrenadeExplode)
	add(h.OnTick != nil, pluginapi.SymbolOnTick)
	add(h.OnPlayerHit != nil, pluginapi.SymbolOnPlayerHit)
	add(h.OnColorChange != nil, pluginapi.SymbolOnColorChange)
	return names
}

// Record is a loaded plugin. It is owned by the Registry.
type Record struct {
	mu sync.RWMutex

	// Identity
	info    pluginapi.Info
	path    string
	ordinal uint64

	// Image and resolved entry points
	image      Image
	initFn     pluginapi.InitFunc
	shutdownFn pluginapi.ShutdownFunc
	handlers   Handlers

	log *logging.PluginLogger

	state State
	err   error
}

// Name returns the plugin name.
func (r *Record) Name() string {
	return r.info.Name
}

// Info returns the metadata the plugin exported.
func (r *Record) Info() pluginapi.Info {
	return r.info
}

// Path returns the image path the plugin was loaded from.
func (r *Record) Path() string {
	return r.path
}

// Ordinal returns the plugin's position in load order. It never changes.
func (r *Record) Ordinal() uint64 {
	return r.ordinal
}

// State returns the current plugin state.
func (r *Record) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Error returns the cause of the plugin's removal, if it was evicted.
func (r *Record) Error() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Handlers returns a copy of the resolved handler table.
func (r *Record) Handlers() Handlers {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers
}

func (r *Record) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// String returns "name vversion".
func (r *Record) String() string {
	return r.info.String()
}

// lookup resolves one symbol and asserts its type. A missing optional symbol
// yields the zero value; a present symbol of the wrong type is an error.
func lookup[T any](img Image, name string, required bool) (T, error) {
	var zero T
	sym, ok := img.Lookup(name)
	if !ok {
		if required {
			return zero, fmt.Errorf("%w: %s", ErrMissingSymbol, name)
		}
		return zero, nil
	}
	v, ok := sym.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", ErrBadSymbol, name, sym)
	}
	return v, nil
}

// resolve reads the metadata and entry points out of an image into a new
// record in StateLoading.
func resolve(img Image, path string) (*Record, error) {
	info, err := lookup[*pluginapi.Info](img, pluginapi.SymbolInfo, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMetadata, err)
	}
	if err := ValidateInfo(info); err != nil {
		return nil, err
	}
	if err := CheckABI(info); err != nil {
		return nil, err
	}

	r := &Record{
		info:  *info,
		path:  path,
		image: img,
		state: StateLoading,
	}

	if r.initFn, err = lookup[pluginapi.InitFunc](img, pluginapi.SymbolInit, true); err != nil {
		return nil, err
	}
	if r.shutdownFn, err = lookup[pluginapi.ShutdownFunc](img, pluginapi.SymbolShutdown, true); err != nil {
		return nil, err
	}

	h := &r.handlers
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	h.OnServerInit, err = lookup[pluginapi.OnServerInitFunc](img, pluginapi.SymbolOnServerInit, false)
	collect(err)
	h.OnServerShutdown, err = lookup[pluginapi.OnServerShutdownFunc](img, pluginapi.SymbolOnServerShutdown, false)
	collect(err)
	h.OnBlockDestroy, err = lookup[pluginapi.OnBlockDestroyFunc](img, pluginapi.SymbolOnBlockDestroy, false)
	collect(err)
	h.OnBlockPlace, err = lookup[pluginapi.OnBlockPlaceFunc](img, pluginapi.SymbolOnBlockPlace, false)
	collect(err)
	h.OnCommand, err = lookup[pluginapi.OnCommandFunc](img, pluginapi.SymbolOnCommand, false)
	collect(err)
	h.OnPlayerConnect, err = lookup[pluginapi.OnPlayerConnectFunc](img, pluginapi.SymbolOnPlayerConnect, false)
	collect(err)
	h.OnPlayerDisconnect, err = lookup[pluginapi.OnPlayerDisconnectFunc](img, pluginapi.SymbolOnPlayerDisconnect, false)
	collect(err)
	h.OnGrenadeExplode, err = lookup[pluginapi.OnGrenadeExplodeFunc](img, pluginapi.SymbolOnGrenadeExplode, false)
	collect(err)
	h.OnTick, err = lookup[pluginapi.OnTickFunc](img, pluginapi.SymbolOnTick, false)
	collect(err)
	h.OnPlayerHit, err = lookup[pluginapi.OnPlayerHitFunc](img, pluginapi.SymbolOnPlayerHit, false)
	collect(err)
	h.OnColorChange, err = lookup[pluginapi.OnColorChangeFunc](img, pluginapi.SymbolOnColorChange, false)
	collect(err)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}
