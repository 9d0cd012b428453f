package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Bridge converts the plugin value types between Go and Lua.
//
// Player and map handles cross as numbers. Vectors, blocks and teams cross as
// tables with lower-case field names.
type Bridge struct {
	L *lua.LState
}

// NewBridge creates a new Bridge for the given Lua state.
func NewBridge(L *lua.LState) *Bridge {
	return &Bridge{L: L}
}

// Player converts a player handle to a Lua value.
func (b *Bridge) Player(p pluginapi.Player) lua.LValue {
	return lua.LNumber(p)
}

// CheckPlayer reads argument n as a player handle. nil reads as NoPlayer.
func (b *Bridge) CheckPlayer(n int) pluginapi.Player {
	if b.L.Get(n) == lua.LNil {
		return pluginapi.NoPlayer
	}
	return pluginapi.Player(b.L.CheckNumber(n))
}

// CheckMap reads argument n as a map handle. nil reads as NoMap.
func (b *Bridge) CheckMap(n int) pluginapi.Map {
	if b.L.Get(n) == lua.LNil {
		return pluginapi.NoMap
	}
	return pluginapi.Map(b.L.CheckNumber(n))
}

// CheckInt32 reads argument n as a coordinate.
func (b *Bridge) CheckInt32(n int) int32 {
	return int32(b.L.CheckInt64(n))
}

// CheckUint32 reads argument n as a color or permission mask.
func (b *Bridge) CheckUint32(n int) uint32 {
	return uint32(b.L.CheckInt64(n))
}

// CheckUint8 reads argument n and raises an error when it does not fit a byte.
func (b *Bridge) CheckUint8(n int) uint8 {
	v := b.L.CheckInt(n)
	if v < 0 || v > 255 {
		b.L.ArgError(n, fmt.Sprintf("%d out of range 0-255", v))
	}
	return uint8(v)
}

// Vec3 converts a position to {x=, y=, z=}.
func (b *Bridge) Vec3(v pluginapi.Vec3f) *lua.LTable {
	t := b.L.CreateTable(0, 3)
	t.RawSetString("x", lua.LNumber(v.X))
	t.RawSetString("y", lua.LNumber(v.Y))
	t.RawSetString("z", lua.LNumber(v.Z))
	return t
}

// CheckVec3 reads argument n as a position table.
func (b *Bridge) CheckVec3(n int) pluginapi.Vec3f {
	t := b.L.CheckTable(n)
	return pluginapi.Vec3f{
		X: float32(b.number(t, "x")),
		Y: float32(b.number(t, "y")),
		Z: float32(b.number(t, "z")),
	}
}

// Block converts a block to {x=, y=, z=, color=}.
func (b *Bridge) Block(blk pluginapi.Block) *lua.LTable {
	t := b.L.CreateTable(0, 4)
	b.WriteBlock(t, blk)
	return t
}

// WriteBlock stores blk's fields into t.
func (b *Bridge) WriteBlock(t *lua.LTable, blk pluginapi.Block) {
	t.RawSetString("x", lua.LNumber(blk.X))
	t.RawSetString("y", lua.LNumber(blk.Y))
	t.RawSetString("z", lua.LNumber(blk.Z))
	t.RawSetString("color", lua.LNumber(blk.Color))
}

// ReadBlock reads a block table. Fields that are missing or not numbers read as 0.
func (b *Bridge) ReadBlock(t *lua.LTable) pluginapi.Block {
	return pluginapi.Block{
		X:     int32(b.number(t, "x")),
		Y:     int32(b.number(t, "y")),
		Z:     int32(b.number(t, "z")),
		Color: uint32(b.number(t, "color")),
	}
}

// Team converts a team to {id=, name=, color=}.
func (b *Bridge) Team(team pluginapi.Team) *lua.LTable {
	t := b.L.CreateTable(0, 3)
	t.RawSetString("id", lua.LNumber(team.ID))
	t.RawSetString("name", lua.LString(team.Name))
	t.RawSetString("color", lua.LNumber(team.Color))
	return t
}

// Result converts a handler's return value. Numbers are result codes, booleans
// mean allow or deny, and anything else reads as ResultOK.
func (b *Bridge) Result(v lua.LValue) pluginapi.Result {
	switch rv := v.(type) {
	case lua.LNumber:
		return pluginapi.Result(int(rv))
	case lua.LBool:
		if rv {
			return pluginapi.ResultAllow
		}
		return pluginapi.ResultDeny
	default:
		return pluginapi.ResultOK
	}
}

// GetTableString returns a string field.
func (b *Bridge) GetTableString(t *lua.LTable, key string) (string, bool) {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s), true
	}
	return "", false
}

// GetTableInt returns an integer field.
func (b *Bridge) GetTableInt(t *lua.LTable, key string) (int, bool) {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return int(n), true
	}
	return 0, false
}

func (b *Bridge) number(t *lua.LTable, key string) float64 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// logArgs converts the arguments after position first into Go key/value pairs.
func (b *Bridge) logArgs(first int) []any {
	n := b.L.GetTop()
	if n < first {
		return nil
	}
	kv := make([]any, 0, n-first+1)
	for i := first; i <= n; i++ {
		switch v := b.L.Get(i).(type) {
		case lua.LString:
			kv = append(kv, string(v))
		case lua.LNumber:
			kv = append(kv, float64(v))
		case lua.LBool:
			kv = append(kv, bool(v))
		default:
			kv = append(kv, b.L.ToStringMeta(v).String())
		}
	}
	return kv
}

func (b *Bridge) push(v lua.LValue) int {
	b.L.Push(v)
	return 1
}

func (b *Bridge) pushResult(r pluginapi.Result) int {
	return b.push(lua.LNumber(r))
}

// bridged adapts a function written against a Bridge. Each call gets a bridge
// over the calling thread, which differs from the main state inside coroutines.
func bridged(fn func(b *Bridge) int) lua.LGFunction {
	return func(L *lua.LState) int {
		return fn(&Bridge{L: L})
	}
}
