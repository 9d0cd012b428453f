// Package pluginapi defines the contract between the SpadesX server and its plugins.
//
// A plugin is an independently built image (a Go shared object, a Lua script, or a
// statically linked builtin) that exports a metadata record and two lifecycle entry
// points, plus any subset of the optional event handlers:
//
//	var SpadesXPluginInfo = pluginapi.Info{
//	    Name:        "My Plugin",
//	    Version:     "1.0.0",
//	    Author:      "Your Name",
//	    Description: "Plugin description",
//	    APIVersion:  pluginapi.Version,
//	}
//
//	func SpadesXPluginInit(srv pluginapi.Server, api pluginapi.API, log pluginapi.Logger) int {
//	    return 0
//	}
//
//	func SpadesXPluginShutdown(srv pluginapi.Server) {}
//
// Handles passed to callbacks (Player, Map) are borrowed: they are only meaningful for
// the duration of the callback that received them. Accessors given a null or stale
// handle return zero values; mutators return an error Result.
//
// All callbacks run on the server's single tick goroutine. A callback must not block.
package pluginapi
