package pluginapi

import "fmt"

// Version is the plugin API version implemented by this host.
// A plugin whose Info.APIVersion differs is rejected at load time.
const Version uint32 = 1

// Info is the metadata record every plugin exports.
type Info struct {
	Name        string
	Version     string
	Author      string
	Description string
	APIVersion  uint32
}

// String returns "name vversion".
func (i Info) String() string {
	return fmt.Sprintf("%s v%s", i.Name, i.Version)
}

// Server is the opaque server handle passed to every callback.
type Server interface {
	// Name returns the configured server name.
	Name() string

	// Tick returns the number of ticks run since the server started.
	Tick() uint64

	// MaxPlayers returns the capacity of the player slot table.
	MaxPlayers() int
}

// Player is a borrowed reference to a connected player.
//
// The zero value is the null handle. A handle becomes stale the moment the
// player disconnects; stale handles behave like null ones.
type Player uint64

// NoPlayer is the null player handle.
const NoPlayer Player = 0

// MakePlayer packs a slot index and generation into a handle.
// Generation 0 is reserved for the null handle.
func MakePlayer(slot uint8, gen uint32) Player {
	if gen == 0 {
		return NoPlayer
	}
	return Player(uint64(gen)<<8 | uint64(slot))
}

// Slot returns the slot index encoded in the handle.
func (p Player) Slot() uint8 { return uint8(p) }

// Gen returns the slot generation encoded in the handle.
func (p Player) Gen() uint32 { return uint32(p >> 8) }

// IsNull reports whether p is the null handle.
func (p Player) IsNull() bool { return p == NoPlayer }

// Map is a borrowed reference to the voxel map. The zero value is the null handle.
type Map uint32

// NoMap is the null map handle.
const NoMap Map = 0

// Team identifiers.
const (
	TeamBlue  uint8 = 0
	TeamGreen uint8 = 1

	// TeamNone is reported for spectators and for null player handles.
	TeamNone uint8 = 255
)

// Team is a snapshot of a team's identity.
type Team struct {
	ID    uint8
	Name  string
	Color uint32
}

// Block is a voxel coordinate with its color.
type Block struct {
	X, Y, Z int32
	Color   uint32
}

// Vec3f is a position in map space. Z grows downward.
type Vec3f struct {
	X, Y, Z float32
}

// Tool is the item a player is holding.
type Tool = uint8

// Tools.
const (
	ToolSpade   Tool = 0
	ToolBlock   Tool = 1
	ToolGun     Tool = 2
	ToolGrenade Tool = 3
)

// HitType describes where a hit landed.
type HitType = uint8

// Hit types.
const (
	HitTorso HitType = 0
	HitHead  HitType = 1
	HitArms  HitType = 2
	HitLegs  HitType = 3
	HitMelee HitType = 4
)

// Permission bits attached to players and required by commands.
// A command is usable when the player holds any of its required bits.
const (
	PermNone      uint32 = 0
	PermModerator uint32 = 1 << 0
	PermAdmin     uint32 = 1 << 1
	PermManager   uint32 = 1 << 2
	PermTrusted   uint32 = 1 << 3
)

// Color packs an ARGB color in the layout used on the wire.
func Color(a, r, g, b uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}
