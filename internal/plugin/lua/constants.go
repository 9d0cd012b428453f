package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// constants are installed as globals and as fields of the spadesx module.
var constants = map[string]lua.LNumber{
	"SPADESX_PLUGIN_API_VERSION": lua.LNumber(pluginapi.Version),

	"PLUGIN_OK":                           lua.LNumber(pluginapi.ResultOK),
	"PLUGIN_ALLOW":                        lua.LNumber(pluginapi.ResultAllow),
	"PLUGIN_DENY":                         lua.LNumber(pluginapi.ResultDeny),
	"PLUGIN_ERROR":                        lua.LNumber(pluginapi.ResultError),
	"PLUGIN_ERROR_INVALID_PARAM":          lua.LNumber(pluginapi.ResultInvalidParam),
	"PLUGIN_ERROR_NULL_POINTER":           lua.LNumber(pluginapi.ResultNullPointer),
	"PLUGIN_ERROR_OUT_OF_RANGE":           lua.LNumber(pluginapi.ResultOutOfRange),
	"PLUGIN_ERROR_NOT_FOUND":              lua.LNumber(pluginapi.ResultNotFound),
	"PLUGIN_ERROR_PERMISSION_DENIED":      lua.LNumber(pluginapi.ResultPermissionDenied),
	"PLUGIN_ERROR_INVALID_STATE":          lua.LNumber(pluginapi.ResultInvalidState),
	"PLUGIN_ERROR_PLAYER_NOT_FOUND":       lua.LNumber(pluginapi.ResultPlayerNotFound),
	"PLUGIN_ERROR_PLAYER_DEAD":            lua.LNumber(pluginapi.ResultPlayerDead),
	"PLUGIN_ERROR_PLAYER_DISCONNECTED":    lua.LNumber(pluginapi.ResultPlayerDisconnected),
	"PLUGIN_ERROR_INVALID_TEAM":           lua.LNumber(pluginapi.ResultInvalidTeam),
	"PLUGIN_ERROR_INVALID_HP":             lua.LNumber(pluginapi.ResultInvalidHP),
	"PLUGIN_ERROR_MAP_OUT_OF_BOUNDS":      lua.LNumber(pluginapi.ResultMapOutOfBounds),
	"PLUGIN_ERROR_MAP_INVALID_COLOR":      lua.LNumber(pluginapi.ResultMapInvalidColor),
	"PLUGIN_ERROR_MAP_NO_BLOCK":           lua.LNumber(pluginapi.ResultMapNoBlock),
	"PLUGIN_ERROR_CMD_ALREADY_REGISTERED": lua.LNumber(pluginapi.ResultCmdAlreadyRegistered),
	"PLUGIN_ERROR_CMD_INVALID_NAME":       lua.LNumber(pluginapi.ResultCmdInvalidName),
	"PLUGIN_ERROR_CMD_TOO_MANY":           lua.LNumber(pluginapi.ResultCmdTooMany),

	"TOOL_SPADE":   lua.LNumber(pluginapi.ToolSpade),
	"TOOL_BLOCK":   lua.LNumber(pluginapi.ToolBlock),
	"TOOL_GUN":     lua.LNumber(pluginapi.ToolGun),
	"TOOL_GRENADE": lua.LNumber(pluginapi.ToolGrenade),

	"HIT_TORSO": lua.LNumber(pluginapi.HitTorso),
	"HIT_HEAD":  lua.LNumber(pluginapi.HitHead),
	"HIT_ARMS":  lua.LNumber(pluginapi.HitArms),
	"HIT_LEGS":  lua.LNumber(pluginapi.HitLegs),
	"HIT_MELEE": lua.LNumber(pluginapi.HitMelee),

	"TEAM_BLUE":  lua.LNumber(pluginapi.TeamBlue),
	"TEAM_GREEN": lua.LNumber(pluginapi.TeamGreen),
	"TEAM_NONE":  lua.LNumber(pluginapi.TeamNone),

	"PERM_NONE":      lua.LNumber(pluginapi.PermNone),
	"PERM_MODERATOR": lua.LNumber(pluginapi.PermModerator),
	"PERM_ADMIN":     lua.LNumber(pluginapi.PermAdmin),
	"PERM_MANAGER":   lua.LNumber(pluginapi.PermManager),
	"PERM_TRUSTED":   lua.LNumber(pluginapi.PermTrusted),

	"NO_PLAYER": lua.LNumber(pluginapi.NoPlayer),
}

func installConstants(L *lua.LState) {
	for name, v := range constants {
		L.SetGlobal(name, v)
	}
	L.PreloadModule(ModuleName, func(L *lua.LState) int {
		mod := L.NewTable()
		for name, v := range constants {
			mod.RawSetString(name, v)
		}
		mod.RawSetString("result_string", L.NewFunction(luaResultString))
		L.Push(mod)
		return 1
	})
}

// luaResultString is result_string(code): the text for a result code, or nil.
func luaResultString(L *lua.LState) int {
	s, ok := pluginapi.ResultString(pluginapi.Result(L.CheckInt(1)))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(s))
	return 1
}
