// Package capability builds the function tables plugins use to reach the server.
//
// Two tables exist per server. Full is handed to every plugin at init and stays
// valid for the plugin's lifetime. Bootstrap is handed only to OnServerInit: it
// adds world writes that skip network replication and refuses every
// replicating mutator. Once Close is called its bootstrap-only entries return
// ResultInvalidState.
package capability

import (
	"sync/atomic"

	"github.com/spadesx/spadesx/internal/plugin/command"
	"github.com/spadesx/spadesx/internal/world"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Owner reports which plugin's code is currently executing.
type Owner interface {
	ActiveOrdinal() (ordinal uint64, ok bool)
}

// Tables holds both capability tables of one server.
type Tables struct {
	Full      *Full
	Bootstrap *Bootstrap
}

// New builds the tables over w. Commands are registered into router on behalf
// of the plugin owner reports as active.
func New(w *world.World, router *command.Router, owner Owner) *Tables {
	full := &Full{world: w, router: router, owner: owner}
	return &Tables{
		Full:      full,
		Bootstrap: &Bootstrap{Full: full},
	}
}

// Full is the capability table valid for a plugin's whole lifetime.
type Full struct {
	world  *world.World
	router *command.Router
	owner  Owner
}

var _ pluginapi.API = (*Full)(nil)

func (f *Full) GetPlayer(id uint8) pluginapi.Player {
	return f.world.GetPlayer(id)
}

func (f *Full) PlayerName(p pluginapi.Player) string {
	return f.world.PlayerName(p)
}

func (f *Full) PlayerTeam(p pluginapi.Player) pluginapi.Team {
	return f.world.PlayerTeam(p)
}

func (f *Full) PlayerTool(p pluginapi.Player) pluginapi.Tool {
	return f.world.PlayerTool(p)
}

func (f *Full) PlayerBlocks(p pluginapi.Player) uint8 {
	return f.world.PlayerBlocks(p)
}

func (f *Full) PlayerGrenades(p pluginapi.Player) uint8 {
	return f.world.PlayerGrenades(p)
}

func (f *Full) PlayerColor(p pluginapi.Player) uint32 {
	return f.world.PlayerColor(p)
}

func (f *Full) PlayerHP(p pluginapi.Player) uint8 {
	return f.world.PlayerHP(p)
}

func (f *Full) PlayerPosition(p pluginapi.Player) pluginapi.Vec3f {
	return f.world.PlayerPosition(p)
}

func (f *Full) PlayerPermissions(p pluginapi.Player) uint32 {
	return f.world.PlayerPermissions(p)
}

func (f *Full) PlayerSetColor(p pluginapi.Player, color uint32) pluginapi.Result {
	return f.world.SetPlayerColor(p, color, false)
}

func (f *Full) PlayerSetColorBroadcast(p pluginapi.Player, color uint32) pluginapi.Result {
	return f.world.SetPlayerColor(p, color, true)
}

func (f *Full) PlayerRestock(p pluginapi.Player) pluginapi.Result {
	return f.world.Restock(p)
}

func (f *Full) PlayerSendNotice(p pluginapi.Player, message string) pluginapi.Result {
	return f.world.SendNotice(p, message)
}

func (f *Full) PlayerKill(p pluginapi.Player) pluginapi.Result {
	return f.world.Kill(p)
}

func (f *Full) PlayerSetHP(p pluginapi.Player, hp uint8) pluginapi.Result {
	return f.world.SetHP(p, hp)
}

func (f *Full) PlayerSetPosition(p pluginapi.Player, pos pluginapi.Vec3f) pluginapi.Result {
	return f.world.SetPosition(p, pos)
}

func (f *Full) GetMap() pluginapi.Map {
	return f.world.Map()
}

func (f *Full) MapBlock(m pluginapi.Map, x, y, z int32) uint32 {
	return f.world.Block(m, x, y, z)
}

func (f *Full) MapSetBlock(x, y, z int32, color uint32) pluginapi.Result {
	return f.world.SetBlock(x, y, z, color)
}

func (f *Full) MapRemoveBlock(x, y, z int32) pluginapi.Result {
	return f.world.RemoveBlock(x, y, z)
}

func (f *Full) MapFindTopBlock(m pluginapi.Map, x, y int32) int32 {
	return f.world.FindTopBlock(m, x, y)
}

func (f *Full) MapIsValidPos(m pluginapi.Map, x, y, z int32) bool {
	return f.world.IsValidPos(m, x, y, z)
}

func (f *Full) BroadcastMessage(message string) pluginapi.Result {
	return f.world.Broadcast(message)
}

// RegisterCommand registers a command owned by the calling plugin. Outside
// plugin code there is no caller to own it and ResultInvalidState is returned.
func (f *Full) RegisterCommand(name, description string, handler pluginapi.CommandHandler, requiredPermissions uint32) pluginapi.Result {
	ordinal, ok := f.owner.ActiveOrdinal()
	if !ok {
		return pluginapi.ResultInvalidState
	}
	return f.router.Register(ordinal, name, description, handler, requiredPermissions)
}

// Bootstrap is the table handed to OnServerInit.
type Bootstrap struct {
	*Full
	closed atomic.Bool
}

var _ pluginapi.BootstrapAPI = (*Bootstrap)(nil)

// Close ends the bootstrap window.
func (b *Bootstrap) Close() {
	b.closed.Store(true)
}

// Closed reports whether the bootstrap window has ended.
func (b *Bootstrap) Closed() bool {
	return b.closed.Load()
}

// InitAddBlock places a block without replication.
func (b *Bootstrap) InitAddBlock(x, y, z int32, color uint32) pluginapi.Result {
	if b.closed.Load() {
		return pluginapi.ResultInvalidState
	}
	return b.world.PlaceBlockSilent(x, y, z, color)
}

// InitSetIntelPosition places a team's intel without replication.
func (b *Bootstrap) InitSetIntelPosition(team uint8, x, y, z int32) pluginapi.Result {
	if b.closed.Load() {
		return pluginapi.ResultInvalidState
	}
	return b.world.SetIntel(team, x, y, z)
}

// MapSetBlock is not available during bootstrap; use InitAddBlock.
func (b *Bootstrap) MapSetBlock(x, y, z int32, color uint32) pluginapi.Result {
	return pluginapi.ResultInvalidState
}

// MapRemoveBlock is not available during bootstrap.
func (b *Bootstrap) MapRemoveBlock(x, y, z int32) pluginapi.Result {
	return pluginapi.ResultInvalidState
}

// PlayerSetColorBroadcast is not available during bootstrap.
func (b *Bootstrap) PlayerSetColorBroadcast(p pluginapi.Player, color uint32) pluginapi.Result {
	return pluginapi.ResultInvalidState
}
