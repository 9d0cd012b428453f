package world

import (
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

type player struct {
	active   bool
	name     string
	team     uint8
	tool     pluginapi.Tool
	blocks   uint8
	grenades uint8
	color    uint32
	hp       uint8
	alive    bool
	pos      pluginapi.Vec3f
	perms    uint32
}

// Join places a new player in the lowest free slot and returns its handle.
func (w *World) Join(name string, team uint8, perms uint32) (pluginapi.Player, error) {
	if team != pluginapi.TeamNone && int(team) >= len(w.teams) {
		return pluginapi.NoPlayer, ErrInvalidTeam
	}
	for i := range w.slots {
		if w.slots[i].active {
			continue
		}
		w.gens[i]++
		if w.gens[i] == 0 {
			w.gens[i] = 1
		}
		color := uint32(0)
		if team != pluginapi.TeamNone {
			color = w.teams[team].Color
		}
		w.slots[i] = player{
			active:   true,
			name:     name,
			team:     team,
			tool:     pluginapi.ToolBlock,
			blocks:   RestockBlocks,
			grenades: RestockGrenades,
			color:    color,
			hp:       MaxHP,
			alive:    true,
			perms:    perms,
		}
		return pluginapi.MakePlayer(uint8(i), w.gens[i]), nil
	}
	return pluginapi.NoPlayer, ErrServerFull
}

// Leave frees the player's slot. Every outstanding handle to it becomes stale.
func (w *World) Leave(p pluginapi.Player) error {
	pl, r := w.lookup(p)
	if r != pluginapi.ResultOK {
		return ErrInvalidPlayer
	}
	*pl = player{}
	w.gens[p.Slot()]++
	return nil
}

// lookup resolves a handle. A null handle yields ResultPlayerNotFound; a handle
// whose player has left yields ResultPlayerDisconnected.
func (w *World) lookup(p pluginapi.Player) (*player, pluginapi.Result) {
	if p.IsNull() {
		return nil, pluginapi.ResultPlayerNotFound
	}
	slot := int(p.Slot())
	if slot >= MaxPlayers || w.gens[slot] != p.Gen() || !w.slots[slot].active {
		return nil, pluginapi.ResultPlayerDisconnected
	}
	return &w.slots[slot], pluginapi.ResultOK
}

func (w *World) get(p pluginapi.Player) *player {
	pl, _ := w.lookup(p)
	return pl
}

// Valid reports whether p refers to a connected player.
func (w *World) Valid(p pluginapi.Player) bool {
	return w.get(p) != nil
}

// GetPlayer returns the handle of the player in slot id, or NoPlayer.
func (w *World) GetPlayer(id uint8) pluginapi.Player {
	if int(id) >= MaxPlayers || !w.slots[id].active {
		return pluginapi.NoPlayer
	}
	return pluginapi.MakePlayer(id, w.gens[id])
}

// Players returns handles for every connected player in slot order.
func (w *World) Players() []pluginapi.Player {
	var out []pluginapi.Player
	for i := range w.slots {
		if w.slots[i].active {
			out = append(out, pluginapi.MakePlayer(uint8(i), w.gens[i]))
		}
	}
	return out
}

// PlayerCount returns the number of connected players.
func (w *World) PlayerCount() int {
	n := 0
	for i := range w.slots {
		if w.slots[i].active {
			n++
		}
	}
	return n
}

// FindPlayer returns the connected player with the given name.
func (w *World) FindPlayer(name string) (pluginapi.Player, bool) {
	for i := range w.slots {
		if w.slots[i].active && w.slots[i].name == name {
			return pluginapi.MakePlayer(uint8(i), w.gens[i]), true
		}
	}
	return pluginapi.NoPlayer, false
}

// Getters return defaults for null or stale handles.

func (w *World) PlayerName(p pluginapi.Player) string {
	if pl := w.get(p); pl != nil {
		return pl.name
	}
	return ""
}

func (w *World) PlayerTeam(p pluginapi.Player) pluginapi.Team {
	if pl := w.get(p); pl != nil {
		return w.Team(pl.team)
	}
	return pluginapi.Team{ID: pluginapi.TeamNone}
}

func (w *World) PlayerTool(p pluginapi.Player) pluginapi.Tool {
	if pl := w.get(p); pl != nil {
		return pl.tool
	}
	return 0
}

func (w *World) PlayerBlocks(p pluginapi.Player) uint8 {
	if pl := w.get(p); pl != nil {
		return pl.blocks
	}
	return 0
}

func (w *World) PlayerGrenades(p pluginapi.Player) uint8 {
	if pl := w.get(p); pl != nil {
		return pl.grenades
	}
	return 0
}

func (w *World) PlayerColor(p pluginapi.Player) uint32 {
	if pl := w.get(p); pl != nil {
		return pl.color
	}
	return 0
}

func (w *World) PlayerHP(p pluginapi.Player) uint8 {
	if pl := w.get(p); pl != nil {
		return pl.hp
	}
	return 0
}

func (w *World) PlayerAlive(p pluginapi.Player) bool {
	if pl := w.get(p); pl != nil {
		return pl.alive
	}
	return false
}

func (w *World) PlayerPosition(p pluginapi.Player) pluginapi.Vec3f {
	if pl := w.get(p); pl != nil {
		return pl.pos
	}
	return pluginapi.Vec3f{}
}

func (w *World) PlayerPermissions(p pluginapi.Player) uint32 {
	if pl := w.get(p); pl != nil {
		return pl.perms
	}
	return 0
}

// SetPlayerColor changes the tool color. When broadcast is set the change is
// replicated to every client.
func (w *World) SetPlayerColor(p pluginapi.Player, color uint32, broadcast bool) pluginapi.Result {
	pl, r := w.lookup(p)
	if r != pluginapi.ResultOK {
		return r
	}
	pl.color = color
	if broadcast {
		w.repl.PlayerColor(p.Slot(), color)
	}
	return pluginapi.ResultOK
}

// Restock refills blocks and grenades.
func (w *World) Restock(p pluginapi.Player) pluginapi.Result {
	pl, r := w.lookup(p)
	if r != pluginapi.ResultOK {
		return r
	}
	pl.blocks = RestockBlocks
	pl.grenades = RestockGrenades
	w.repl.PlayerRestock(p.Slot(), pl.blocks, pl.grenades)
	return pluginapi.ResultOK
}

// SendNotice delivers a message to one player.
func (w *World) SendNotice(p pluginapi.Player, message string) pluginapi.Result {
	if _, r := w.lookup(p); r != pluginapi.ResultOK {
		return r
	}
	if message == "" {
		return pluginapi.ResultInvalidParam
	}
	w.repl.Notice(p.Slot(), message)
	return pluginapi.ResultOK
}

// Kill kills a living player.
func (w *World) Kill(p pluginapi.Player) pluginapi.Result {
	pl, r := w.lookup(p)
	if r != pluginapi.ResultOK {
		return r
	}
	if !pl.alive {
		return pluginapi.ResultPlayerDead
	}
	pl.alive = false
	pl.hp = 0
	w.repl.PlayerKilled(p.Slot())
	return pluginapi.ResultOK
}

// SetHP sets a living player's health. Zero kills the player.
func (w *World) SetHP(p pluginapi.Player, hp uint8) pluginapi.Result {
	pl, r := w.lookup(p)
	if r != pluginapi.ResultOK {
		return r
	}
	if hp > MaxHP {
		return pluginapi.ResultInvalidHP
	}
	if !pl.alive {
		return pluginapi.ResultPlayerDead
	}
	if hp == 0 {
		return w.Kill(p)
	}
	pl.hp = hp
	w.repl.PlayerHP(p.Slot(), hp)
	return pluginapi.ResultOK
}

// SetPosition moves a player and replicates the move.
func (w *World) SetPosition(p pluginapi.Player, pos pluginapi.Vec3f) pluginapi.Result {
	pl, r := w.lookup(p)
	if r != pluginapi.ResultOK {
		return r
	}
	if !w.inBoundsf(pos) {
		return pluginapi.ResultMapOutOfBounds
	}
	pl.pos = pos
	w.repl.PlayerPosition(p.Slot(), pos)
	return pluginapi.ResultOK
}

// inBoundsf reports whether pos lies inside the map box. NaN is never inside.
func (w *World) inBoundsf(pos pluginapi.Vec3f) bool {
	return pos.X >= 0 && pos.X < float32(w.sx) &&
		pos.Y >= 0 && pos.Y < float32(w.sy) &&
		pos.Z >= 0 && pos.Z < float32(w.sz)
}

// Host-side updates driven by client input. They do not replicate; the
// transport already echoes client state.

// UpdateTool records the tool a player switched to.
func (w *World) UpdateTool(p pluginapi.Player, tool pluginapi.Tool) bool {
	pl := w.get(p)
	if pl == nil || tool > pluginapi.ToolGrenade {
		return false
	}
	pl.tool = tool
	return true
}

// UpdatePosition records a client-reported position. Positions outside the
// map are ignored.
func (w *World) UpdatePosition(p pluginapi.Player, pos pluginapi.Vec3f) bool {
	pl := w.get(p)
	if pl == nil || !w.inBoundsf(pos) {
		return false
	}
	pl.pos = pos
	return true
}

// SetPermissions replaces a player's permission bits.
func (w *World) SetPermissions(p pluginapi.Player, perms uint32) bool {
	pl := w.get(p)
	if pl == nil {
		return false
	}
	pl.perms = perms
	return true
}

// UseBlock takes one block from the player's stock.
func (w *World) UseBlock(p pluginapi.Player) bool {
	pl := w.get(p)
	if pl == nil || pl.blocks == 0 {
		return false
	}
	pl.blocks--
	return true
}

// UseGrenade takes one grenade from the player's stock.
func (w *World) UseGrenade(p pluginapi.Player) bool {
	pl := w.get(p)
	if pl == nil || pl.grenades == 0 {
		return false
	}
	pl.grenades--
	return true
}

// Damage subtracts dmg from a living player's health and reports whether the
// hit was fatal.
func (w *World) Damage(p pluginapi.Player, dmg uint8) (killed bool) {
	pl := w.get(p)
	if pl == nil || !pl.alive {
		return false
	}
	if dmg >= pl.hp {
		w.Kill(p)
		return true
	}
	pl.hp -= dmg
	w.repl.PlayerHP(p.Slot(), pl.hp)
	return false
}

// Respawn restores a dead player.
func (w *World) Respawn(p pluginapi.Player, pos pluginapi.Vec3f) bool {
	pl := w.get(p)
	if pl == nil {
		return false
	}
	pl.alive = true
	pl.hp = MaxHP
	pl.blocks = RestockBlocks
	pl.grenades = RestockGrenades
	pl.pos = pos
	w.repl.PlayerPosition(p.Slot(), pos)
	return true
}
