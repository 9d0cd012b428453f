package plugin

import (
	"errors"

	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Plugin system errors.
var (
	// ErrPluginNotFound is returned when no loaded plugin has the given name.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrNoOpener is returned when no opener accepts an image path.
	ErrNoOpener = errors.New("no opener for plugin image")

	// ErrBadMetadata is returned when the exported info record is missing or invalid.
	ErrBadMetadata = errors.New("invalid plugin metadata")

	// ErrABIMismatch is returned when a plugin was built against another API version.
	ErrABIMismatch = errors.New("plugin API version mismatch")

	// ErrMissingSymbol is returned when a required entry point is not exported.
	ErrMissingSymbol = errors.New("required plugin symbol missing")

	// ErrBadSymbol is returned when an exported symbol has the wrong type.
	ErrBadSymbol = errors.New("plugin symbol has wrong type")

	// ErrAlreadyLoaded is returned when a plugin with the same name is loaded.
	ErrAlreadyLoaded = errors.New("plugin is already loaded")

	// ErrInitFailed is returned when a plugin's init function fails or panics.
	ErrInitFailed = errors.New("plugin init failed")

	// ErrNotRunning is returned when an operation needs a running plugin.
	ErrNotRunning = errors.New("plugin is not running")

	// ErrNotBound is returned when plugins are loaded before the registry is
	// bound to a server.
	ErrNotBound = errors.New("registry is not bound to a server")

	// ErrPluginFault is the cause recorded when a plugin panics inside a callback.
	ErrPluginFault = errors.New("plugin fault")
)

// ResultOf maps a host-side error to the result code reported to plugins.
func ResultOf(err error) pluginapi.Result {
	switch {
	case err == nil:
		return pluginapi.ResultOK
	case errors.Is(err, ErrPluginNotFound), errors.Is(err, ErrNoOpener), errors.Is(err, ErrMissingSymbol):
		return pluginapi.ResultNotFound
	case errors.Is(err, ErrBadMetadata), errors.Is(err, ErrBadSymbol):
		return pluginapi.ResultInvalidParam
	case errors.Is(err, ErrABIMismatch), errors.Is(err, ErrAlreadyLoaded),
		errors.Is(err, ErrNotRunning), errors.Is(err, ErrNotBound):
		return pluginapi.ResultInvalidState
	default:
		return pluginapi.ResultError
	}
}
