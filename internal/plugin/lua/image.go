package lua

import (
	"context"
	"fmt"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/spadesx/spadesx/internal/plugin"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Extension is the file extension of Lua plugin images.
const Extension = ".lua"

// globals maps exported symbol names to the Lua globals a script defines.
var globals = map[string]string{
	pluginapi.SymbolInfo:               "spadesx_plugin_info",
	pluginapi.SymbolInit:               "spadesx_plugin_init",
	pluginapi.SymbolShutdown:           "spadesx_plugin_shutdown",
	pluginapi.SymbolOnServerInit:       "spadesx_plugin_on_server_init",
	pluginapi.SymbolOnServerShutdown:   "spadesx_plugin_on_server_shutdown",
	pluginapi.SymbolOnBlockDestroy:     "spadesx_plugin_on_block_destroy",
	pluginapi.SymbolOnBlockPlace:       "spadesx_plugin_on_block_place",
	pluginapi.SymbolOnCommand:          "spadesx_plugin_on_command",
	pluginapi.SymbolOnPlayerConnect:    "spadesx_plugin_on_player_connect",
	pluginapi.SymbolOnPlayerDisconnect: "spadesx_plugin_on_player_disconnect",
	pluginapi.SymbolOnGrenadeExplode:   "spadesx_plugin_on_grenade_explode",
	pluginapi.SymbolOnTick:             "spadesx_plugin_on_tick",
	pluginapi.SymbolOnPlayerHit:        "spadesx_plugin_on_player_hit",
	pluginapi.SymbolOnColorChange:      "spadesx_plugin_on_color_change",
}

// GlobalName returns the Lua global that provides an exported symbol.
func GlobalName(symbol string) (string, bool) {
	name, ok := globals[symbol]
	return name, ok
}

// Opener opens ".lua" plugin images. The script runs once at open time and
// must define its entry points as globals.
type Opener struct {
	// Logger receives the script's print output. Nil discards it.
	Logger *zap.Logger
}

// Accepts implements plugin.Opener.
func (o Opener) Accepts(path string) bool {
	return filepath.Ext(path) == Extension
}

// Open implements plugin.Opener.
func (o Opener) Open(ctx context.Context, path string) (plugin.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("script", filepath.Base(path)))

	state := NewState(WithPrint(func(line string) {
		logger.Info(line)
	}))
	if err := state.DoFile(path); err != nil {
		state.Close()
		return nil, fmt.Errorf("lua: %s: %w", path, err)
	}

	im := &image{state: state, path: path}
	mt := state.L.NewTypeMetatable(serverTypeName)
	state.L.SetField(mt, "__index", state.L.SetFuncs(state.L.NewTable(), serverMethods))
	return im, nil
}

// image is a loaded Lua script.
type image struct {
	state *State
	path  string
}

// Lookup implements plugin.Image. Functions come back wrapped in the
// pluginapi handler types; a global of the wrong Lua type is returned as is
// so the registry reports it.
func (im *image) Lookup(name string) (any, bool) {
	global, ok := globals[name]
	if !ok {
		return nil, false
	}
	v := im.state.GetGlobal(global)
	if v == lua.LNil {
		return nil, false
	}

	if name == pluginapi.SymbolInfo {
		t, ok := v.(*lua.LTable)
		if !ok {
			return v, true
		}
		return im.readInfo(t), true
	}

	fn, ok := v.(*lua.LFunction)
	if !ok {
		return v, true
	}
	return im.wrap(name, global, fn), true
}

// Close implements plugin.Image.
func (im *image) Close() error {
	return im.state.Close()
}

func (im *image) readInfo(t *lua.LTable) *pluginapi.Info {
	b := NewBridge(im.state.L)
	info := &pluginapi.Info{}
	info.Name, _ = b.GetTableString(t, "name")
	info.Version, _ = b.GetTableString(t, "version")
	info.Author, _ = b.GetTableString(t, "author")
	info.Description, _ = b.GetTableString(t, "description")
	if v, ok := b.GetTableInt(t, "api_version"); ok && v >= 0 {
		info.APIVersion = uint32(v)
	}
	return info
}

// call runs fn and panics on a Lua error so that the registry treats it as a
// plugin fault.
func (im *image) call(global string, fn *lua.LFunction, args ...lua.LValue) lua.LValue {
	ret, err := im.state.Call(fn, args...)
	if err != nil {
		panic(fmt.Errorf("%w: %s: %w", ErrRuntime, global, err))
	}
	return ret
}

func (im *image) server(srv pluginapi.Server) lua.LValue {
	L := im.state.L
	ud := L.NewUserData()
	ud.Value = srv
	L.SetMetatable(ud, L.GetTypeMetatable(serverTypeName))
	return ud
}

func (im *image) table(funcs map[string]lua.LGFunction) *lua.LTable {
	return im.state.L.SetFuncs(im.state.L.NewTable(), funcs)
}

func (im *image) commandHandler(name string, fn *lua.LFunction) pluginapi.CommandHandler {
	b := NewBridge(im.state.L)
	return func(srv pluginapi.Server, player pluginapi.Player, args string) pluginapi.Result {
		return b.Result(im.call("command /"+name, fn, im.server(srv), b.Player(player), lua.LString(args)))
	}
}

// wrap adapts a Lua function to the Go signature of the named symbol.
func (im *image) wrap(name, global string, fn *lua.LFunction) any {
	b := NewBridge(im.state.L)

	switch name {
	case pluginapi.SymbolInit:
		return func(srv pluginapi.Server, api pluginapi.API, log pluginapi.Logger) int {
			ret := im.call(global, fn, im.server(srv), im.table(im.apiFuncs(api)), im.table(logFuncs(log)))
			if n, ok := ret.(lua.LNumber); ok {
				return int(n)
			}
			return 0
		}
	case pluginapi.SymbolShutdown:
		return func(srv pluginapi.Server) {
			im.call(global, fn, im.server(srv))
		}
	case pluginapi.SymbolOnServerInit:
		return func(srv pluginapi.Server, api pluginapi.BootstrapAPI) {
			im.call(global, fn, im.server(srv), im.table(im.bootstrapFuncs(api)))
		}
	case pluginapi.SymbolOnServerShutdown:
		return func(srv pluginapi.Server) {
			im.call(global, fn, im.server(srv))
		}
	case pluginapi.SymbolOnBlockDestroy:
		return func(srv pluginapi.Server, player pluginapi.Player, tool pluginapi.Tool, block *pluginapi.Block) pluginapi.Result {
			return b.Result(im.call(global, fn, im.server(srv), b.Player(player), lua.LNumber(tool), b.Block(*block)))
		}
	case pluginapi.SymbolOnBlockPlace:
		return func(srv pluginapi.Server, player pluginapi.Player, block *pluginapi.Block) pluginapi.Result {
			t := b.Block(*block)
			res := b.Result(im.call(global, fn, im.server(srv), b.Player(player), t))
			*block = b.ReadBlock(t)
			return res
		}
	case pluginapi.SymbolOnCommand:
		return func(srv pluginapi.Server, player pluginapi.Player, command string) pluginapi.Result {
			return b.Result(im.call(global, fn, im.server(srv), b.Player(player), lua.LString(command)))
		}
	case pluginapi.SymbolOnPlayerConnect:
		return func(srv pluginapi.Server, player pluginapi.Player) {
			im.call(global, fn, im.server(srv), b.Player(player))
		}
	case pluginapi.SymbolOnPlayerDisconnect:
		return func(srv pluginapi.Server, player pluginapi.Player, reason string) {
			im.call(global, fn, im.server(srv), b.Player(player), lua.LString(reason))
		}
	case pluginapi.SymbolOnGrenadeExplode:
		return func(srv pluginapi.Server, player pluginapi.Player, pos pluginapi.Vec3f) {
			im.call(global, fn, im.server(srv), b.Player(player), b.Vec3(pos))
		}
	case pluginapi.SymbolOnTick:
		return func(srv pluginapi.Server) {
			im.call(global, fn, im.server(srv))
		}
	case pluginapi.SymbolOnPlayerHit:
		return func(srv pluginapi.Server, shooter, victim pluginapi.Player, hit pluginapi.HitType, weapon uint8) pluginapi.Result {
			return b.Result(im.call(global, fn, im.server(srv), b.Player(shooter), b.Player(victim), lua.LNumber(hit), lua.LNumber(weapon)))
		}
	case pluginapi.SymbolOnColorChange:
		// The color travels in a table {color=} so the handler can rewrite it.
		return func(srv pluginapi.Server, player pluginapi.Player, newColor *uint32) pluginapi.Result {
			t := im.state.L.CreateTable(0, 1)
			t.RawSetString("color", lua.LNumber(*newColor))
			res := b.Result(im.call(global, fn, im.server(srv), b.Player(player), t))
			if c, ok := t.RawGetString("color").(lua.LNumber); ok {
				*newColor = uint32(c)
			}
			return res
		}
	}
	return fn
}
