// Package plugin hosts SpadesX server plugins.
//
// A plugin is an image exporting a metadata record, an init and a shutdown
// function, and any of the optional event handlers named in pluginapi. Three
// kinds of image are supported:
//   - Go shared objects built with -buildmode=plugin (path ends in ".so")
//   - Lua scripts (path ends in ".lua", see the lua subpackage)
//   - builtin images compiled into the server (path "builtin:<name>")
//
// # Lifecycle
//
// The Registry loads images in configuration order:
//
//	reg := plugin.NewRegistry(router, plugin.WithLogger(logger),
//	    plugin.WithOpeners(builtins, plugin.NativeOpener{}, lua.Opener{}))
//	reg.Bind(srv, tables.Full)
//	if err := reg.LoadAll(ctx, cfg.Plugins.Load); err != nil {
//	    logger.Warn("some plugins failed to load", zap.Error(err))
//	}
//	defer reg.UnloadAll(ctx)
//
// Each plugin moves through unloaded, loading, initialized, running and
// shutting-down. A plugin gets an ordinal when it enters the registry; events
// reach plugins in ascending ordinal order. An init function returning
// non-zero, or any panic inside plugin code, evicts the plugin without calling
// its shutdown function.
//
// # Dispatch
//
// The Dispatcher turns server events into handler calls. Notification events
// reach every plugin. Decision events stop at the first ResultDeny. Chat
// commands try the command router first and then each plugin's OnCommand
// handler.
//
// # Threading
//
// Plugin code runs only on the goroutine that drives the Registry and
// Dispatcher. Introspection (List, Get, Count) is safe from any goroutine.
package plugin
