package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// apiFuncs returns the Lua view of the full capability table. Functions are
// called with a dot (api.player_get_name(p)); the server argument of the
// original C table is implicit.
func (im *image) apiFuncs(api pluginapi.API) map[string]lua.LGFunction {
	funcs := map[string]func(b *Bridge) int{
		"get_player": func(b *Bridge) int {
			id := b.L.CheckInt(1)
			if id < 0 || id > 255 {
				return b.push(b.Player(pluginapi.NoPlayer))
			}
			return b.push(b.Player(api.GetPlayer(uint8(id))))
		},
		"player_get_name": func(b *Bridge) int {
			return b.push(lua.LString(api.PlayerName(b.CheckPlayer(1))))
		},
		"player_get_team": func(b *Bridge) int {
			return b.push(b.Team(api.PlayerTeam(b.CheckPlayer(1))))
		},
		"player_get_tool": func(b *Bridge) int {
			return b.push(lua.LNumber(api.PlayerTool(b.CheckPlayer(1))))
		},
		"player_get_blocks": func(b *Bridge) int {
			return b.push(lua.LNumber(api.PlayerBlocks(b.CheckPlayer(1))))
		},
		"player_get_grenades": func(b *Bridge) int {
			return b.push(lua.LNumber(api.PlayerGrenades(b.CheckPlayer(1))))
		},
		"player_get_color": func(b *Bridge) int {
			return b.push(lua.LNumber(api.PlayerColor(b.CheckPlayer(1))))
		},
		"player_get_hp": func(b *Bridge) int {
			return b.push(lua.LNumber(api.PlayerHP(b.CheckPlayer(1))))
		},
		"player_get_position": func(b *Bridge) int {
			return b.push(b.Vec3(api.PlayerPosition(b.CheckPlayer(1))))
		},
		"player_get_permissions": func(b *Bridge) int {
			return b.push(lua.LNumber(api.PlayerPermissions(b.CheckPlayer(1))))
		},
		"player_set_color": func(b *Bridge) int {
			return b.pushResult(api.PlayerSetColor(b.CheckPlayer(1), b.CheckUint32(2)))
		},
		"player_set_color_broadcast": func(b *Bridge) int {
			return b.pushResult(api.PlayerSetColorBroadcast(b.CheckPlayer(1), b.CheckUint32(2)))
		},
		"player_restock": func(b *Bridge) int {
			return b.pushResult(api.PlayerRestock(b.CheckPlayer(1)))
		},
		"player_send_notice": func(b *Bridge) int {
			return b.pushResult(api.PlayerSendNotice(b.CheckPlayer(1), b.L.CheckString(2)))
		},
		"player_kill": func(b *Bridge) int {
			return b.pushResult(api.PlayerKill(b.CheckPlayer(1)))
		},
		"player_set_hp": func(b *Bridge) int {
			p := b.CheckPlayer(1)
			hp := b.L.CheckInt(2)
			if hp < 0 || hp > 255 {
				return b.pushResult(pluginapi.ResultInvalidHP)
			}
			return b.pushResult(api.PlayerSetHP(p, uint8(hp)))
		},
		"player_set_position": func(b *Bridge) int {
			return b.pushResult(api.PlayerSetPosition(b.CheckPlayer(1), b.CheckVec3(2)))
		},
		"get_map": func(b *Bridge) int {
			return b.push(lua.LNumber(api.GetMap()))
		},
		"map_get_block": func(b *Bridge) int {
			return b.push(lua.LNumber(api.MapBlock(b.CheckMap(1), b.CheckInt32(2), b.CheckInt32(3), b.CheckInt32(4))))
		},
		"map_set_block": func(b *Bridge) int {
			return b.pushResult(api.MapSetBlock(b.CheckInt32(1), b.CheckInt32(2), b.CheckInt32(3), b.CheckUint32(4)))
		},
		"map_remove_block": func(b *Bridge) int {
			return b.pushResult(api.MapRemoveBlock(b.CheckInt32(1), b.CheckInt32(2), b.CheckInt32(3)))
		},
		"map_find_top_block": func(b *Bridge) int {
			return b.push(lua.LNumber(api.MapFindTopBlock(b.CheckMap(1), b.CheckInt32(2), b.CheckInt32(3))))
		},
		"map_is_valid_pos": func(b *Bridge) int {
			return b.push(lua.LBool(api.MapIsValidPos(b.CheckMap(1), b.CheckInt32(2), b.CheckInt32(3), b.CheckInt32(4))))
		},
		"broadcast_message": func(b *Bridge) int {
			return b.pushResult(api.BroadcastMessage(b.L.CheckString(1)))
		},
		"register_command": func(b *Bridge) int {
			name := b.L.CheckString(1)
			description := b.L.OptString(2, "")
			fn := b.L.CheckFunction(3)
			required := uint32(b.L.OptInt64(4, 0))
			return b.pushResult(api.RegisterCommand(name, description, im.commandHandler(name, fn), required))
		},
		"result_string": func(b *Bridge) int {
			return luaResultString(b.L)
		},
	}

	out := make(map[string]lua.LGFunction, len(funcs)+2)
	for name, fn := range funcs {
		out[name] = bridged(fn)
	}
	return out
}

// bootstrapFuncs extends apiFuncs with the init_* entries.
func (im *image) bootstrapFuncs(api pluginapi.BootstrapAPI) map[string]lua.LGFunction {
	out := im.apiFuncs(api)
	out["init_add_block"] = bridged(func(b *Bridge) int {
		return b.pushResult(api.InitAddBlock(b.CheckInt32(1), b.CheckInt32(2), b.CheckInt32(3), b.CheckUint32(4)))
	})
	out["init_set_intel_position"] = bridged(func(b *Bridge) int {
		team := b.L.CheckInt(1)
		if team < 0 || team > 255 {
			return b.pushResult(pluginapi.ResultInvalidTeam)
		}
		return b.pushResult(api.InitSetIntelPosition(uint8(team), b.CheckInt32(2), b.CheckInt32(3), b.CheckInt32(4)))
	})
	return out
}

// logFuncs returns the Lua view of a plugin logger: log.info(msg, key, value, ...).
func logFuncs(log pluginapi.Logger) map[string]lua.LGFunction {
	level := func(lvl pluginapi.LogLevel) lua.LGFunction {
		return bridged(func(b *Bridge) int {
			log.Log(lvl, b.L.CheckString(1), b.logArgs(2)...)
			return 0
		})
	}
	return map[string]lua.LGFunction{
		"debug":   level(pluginapi.LogDebug),
		"info":    level(pluginapi.LogInfo),
		"warn":    level(pluginapi.LogWarning),
		"warning": level(pluginapi.LogWarning),
		"error":   level(pluginapi.LogError),
		"fatal":   level(pluginapi.LogFatal),
	}
}

// serverMethods back the server userdata: server:name(), server:tick(),
// server:max_players().
var serverMethods = map[string]lua.LGFunction{
	"name": func(L *lua.LState) int {
		L.Push(lua.LString(checkServer(L).Name()))
		return 1
	},
	"tick": func(L *lua.LState) int {
		L.Push(lua.LNumber(checkServer(L).Tick()))
		return 1
	},
	"max_players": func(L *lua.LState) int {
		L.Push(lua.LNumber(checkServer(L).MaxPlayers()))
		return 1
	},
}

const serverTypeName = "spadesx.server"

func checkServer(L *lua.LState) pluginapi.Server {
	ud := L.CheckUserData(1)
	srv, ok := ud.Value.(pluginapi.Server)
	if !ok {
		L.ArgError(1, "server expected")
		return nil
	}
	return srv
}
