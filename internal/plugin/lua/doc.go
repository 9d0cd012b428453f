// Package lua runs SpadesX plugins written in Lua.
//
// A Lua plugin is a single script. Loading it runs the script once; the
// script defines its metadata and entry points as globals named after the C
// symbols:
//
//	spadesx_plugin_info = {
//	    name = "Hello",
//	    version = "1.0.0",
//	    author = "someone",
//	    description = "greets players",
//	    api_version = SPADESX_PLUGIN_API_VERSION,
//	}
//
//	function spadesx_plugin_init(server, api, log)
//	    API = api
//	    log.info("loaded", "server", server:name())
//	    return 0
//	end
//
//	function spadesx_plugin_shutdown(server) end
//
//	function spadesx_plugin_on_player_connect(server, player)
//	    API.player_send_notice(player, "Hello, " .. API.player_get_name(player))
//	end
//
// # Values
//
// Player and map handles are numbers. Positions are {x, y, z} tables, blocks
// are {x, y, z, color} tables and teams are {id, name, color} tables. Handlers
// that may rewrite a value (on_block_place, on_color_change) receive a table
// and the host reads it back after the call. Handlers answer with a result
// code such as PLUGIN_ALLOW or PLUGIN_DENY; true and false work too.
//
// # Errors
//
// A Lua error raised inside a handler is a fault: the registry evicts the
// plugin and the event carries on as if the plugin had no opinion.
//
// The state has only the base, table, string and math libraries. require
// resolves those and the "spadesx" module holding the plugin constants.
package lua
