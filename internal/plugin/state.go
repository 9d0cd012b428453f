package plugin

// State represents the lifecycle state of a plugin.
type State int

// Plugin states.
const (
	// StateUnloaded - Plugin is not in the registry.
	StateUnloaded State = iota

	// StateLoading - Image is open and its symbols are being resolved.
	StateLoading

	// StateInitialized - Plugin is in the registry and its init function is running.
	StateInitialized

	// StateRunning - Plugin receives events.
	StateRunning

	// StateShuttingDown - Plugin's shutdown function is running.
	StateShuttingDown
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	default:
		return "unknown"
	}
}

// Receives reports whether a plugin in this state is sent events.
func (s State) Receives() bool {
	return s == StateRunning
}
