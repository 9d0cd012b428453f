// Package world is the server-owned player table and voxel map, exposed to plugins
// through opaque handles.
//
// World is not safe for concurrent use. It is owned by the server's tick
// goroutine; everything else talks to it through the server's event inbox.
package world

import (
	"errors"

	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Limits and defaults.
const (
	MaxPlayers = 32

	DefaultSizeX int32 = 512
	DefaultSizeY int32 = 512
	DefaultSizeZ int32 = 64

	MaxHP           uint8 = 100
	RestockBlocks   uint8 = 50
	RestockGrenades uint8 = 3
)

// liveMap is the handle of the one map the server runs.
const liveMap pluginapi.Map = 1

// Errors returned to the host side. Plugins see result codes instead.
var (
	ErrServerFull    = errors.New("server is full")
	ErrInvalidTeam   = errors.New("invalid team")
	ErrInvalidPlayer = errors.New("invalid player handle")
	ErrInvalidSize   = errors.New("invalid map size")
)

// Config configures a World.
type Config struct {
	SizeX, SizeY, SizeZ int32

	// Teams holds team 0 and team 1.
	Teams [2]pluginapi.Team

	// Replicator receives every replicated change. Nil means no network.
	Replicator Replicator
}

// DefaultConfig returns a 512x512x64 map with the classic blue and green teams.
func DefaultConfig() Config {
	return Config{
		SizeX: DefaultSizeX,
		SizeY: DefaultSizeY,
		SizeZ: DefaultSizeZ,
		Teams: [2]pluginapi.Team{
			{ID: pluginapi.TeamBlue, Name: "Blue", Color: pluginapi.Color(0xFF, 0x00, 0x00, 0xFF)},
			{ID: pluginapi.TeamGreen, Name: "Green", Color: pluginapi.Color(0xFF, 0x00, 0xFF, 0x00)},
		},
	}
}

type intel struct {
	x, y, z int32
	set     bool
}

// World holds the live player table and map.
type World struct {
	sx, sy, sz int32
	blocks     map[int]uint32

	slots [MaxPlayers]player
	gens  [MaxPlayers]uint32

	teams [2]pluginapi.Team
	intel [2]intel

	repl Replicator
}

// New creates an empty world.
func New(cfg Config) (*World, error) {
	if cfg.SizeX <= 0 || cfg.SizeY <= 0 || cfg.SizeZ <= 0 {
		return nil, ErrInvalidSize
	}
	repl := cfg.Replicator
	if repl == nil {
		repl = NopReplicator{}
	}
	w := &World{
		sx:     cfg.SizeX,
		sy:     cfg.SizeY,
		sz:     cfg.SizeZ,
		blocks: make(map[int]uint32),
		teams:  cfg.Teams,
		repl:   repl,
	}
	for i := range w.teams {
		w.teams[i].ID = uint8(i)
	}
	return w, nil
}

// SetReplicator replaces the replication sink.
func (w *World) SetReplicator(r Replicator) {
	if r == nil {
		r = NopReplicator{}
	}
	w.repl = r
}

// Size returns the map dimensions.
func (w *World) Size() (x, y, z int32) {
	return w.sx, w.sy, w.sz
}

// Map returns the handle of the live map.
func (w *World) Map() pluginapi.Map {
	return liveMap
}

// Team returns the snapshot of team id, or a TeamNone team.
func (w *World) Team(id uint8) pluginapi.Team {
	if int(id) >= len(w.teams) {
		return pluginapi.Team{ID: pluginapi.TeamNone}
	}
	return w.teams[id]
}

// Broadcast sends a message to every connected player.
func (w *World) Broadcast(message string) pluginapi.Result {
	if message == "" {
		return pluginapi.ResultInvalidParam
	}
	w.repl.Broadcast(message)
	return pluginapi.ResultOK
}
