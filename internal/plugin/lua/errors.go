package lua

import "errors"

// Errors for Lua plugin images.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrRuntime wraps a Lua error raised while a handler was running.
	ErrRuntime = errors.New("lua runtime error")

	// ErrBadInfo is returned when spadesx_plugin_info is not a well-formed table.
	ErrBadInfo = errors.New("malformed spadesx_plugin_info")
)
