package ws

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// ProtocolVersion is the client protocol version accepted in hello.
const ProtocolVersion = 1

// Client message types.
const (
	TypeHello        = "hello"
	TypeBlockDestroy = "block_destroy"
	TypeBlockPlace   = "block_place"
	TypeChat         = "chat"
	TypeHit          = "hit"
	TypeColor        = "color"
	TypeGrenade      = "grenade"
	TypeMove         = "move"
	TypeTool         = "tool"
	TypeRespawn      = "respawn"
)

// Server message types.
const (
	TypeWelcome        = "welcome"
	TypeMap            = "map"
	TypeBlockSet       = "block_set"
	TypeBlockRemoved   = "block_removed"
	TypePlayerColor    = "player_color"
	TypePlayerHP       = "player_hp"
	TypePlayerKilled   = "player_killed"
	TypePlayerPosition = "player_position"
	TypeRestock        = "restock"
	TypeNotice         = "notice"
	TypeBroadcast      = "broadcast"
	TypeError          = "error"
)

var errNoType = errors.New("message has no type")

// peekType returns the "type" field of a raw message without decoding it.
func peekType(msg []byte) (string, error) {
	if !gjson.ValidBytes(msg) {
		return "", errors.New("malformed json")
	}
	t := gjson.GetBytes(msg, "type")
	if t.Type != gjson.String || t.Str == "" {
		return "", errNoType
	}
	return t.Str, nil
}

// Client messages.

type helloMsg struct {
	Type    string `json:"type"`
	Version int    `json:"v"`
	Name    string `json:"name"`
	Team    uint8  `json:"team"`
}

type blockDestroyMsg struct {
	X    int32 `json:"x"`
	Y    int32 `json:"y"`
	Z    int32 `json:"z"`
	Tool uint8 `json:"tool"`
}

type blockPlaceMsg struct {
	X     int32  `json:"x"`
	Y     int32  `json:"y"`
	Z     int32  `json:"z"`
	Color uint32 `json:"color,omitempty"`
}

type chatMsg struct {
	Text string `json:"text"`
}

type hitMsg struct {
	Victim  uint8 `json:"victim"`
	HitType uint8 `json:"hit_type"`
	Weapon  uint8 `json:"weapon"`
}

type colorMsg struct {
	Color uint32 `json:"color"`
}

type vecMsg struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func (v vecMsg) vec() pluginapi.Vec3f {
	return pluginapi.Vec3f{X: v.X, Y: v.Y, Z: v.Z}
}

type toolMsg struct {
	Tool uint8 `json:"tool"`
}

// Server messages.

type teamInfo struct {
	ID    uint8  `json:"id"`
	Name  string `json:"name"`
	Color uint32 `json:"color"`
}

type welcomeMsg struct {
	Type    string   `json:"type"`
	Version int      `json:"v"`
	Session string   `json:"session"`
	Server  string   `json:"server"`
	Slot    uint8    `json:"slot"`
	Team    teamInfo `json:"team"`
	Size    [3]int32 `json:"size"`
}

// mapMsg carries the map as [x, y, z, color] tuples.
type mapMsg struct {
	Type   string      `json:"type"`
	Blocks [][4]uint32 `json:"blocks"`
}

type blockMsg struct {
	Type  string `json:"type"`
	X     int32  `json:"x"`
	Y     int32  `json:"y"`
	Z     int32  `json:"z"`
	Color uint32 `json:"color,omitempty"`
}

type playerColorMsg struct {
	Type  string `json:"type"`
	Slot  uint8  `json:"slot"`
	Color uint32 `json:"color"`
}

type playerHPMsg struct {
	Type string `json:"type"`
	Slot uint8  `json:"slot"`
	HP   uint8  `json:"hp"`
}

type playerKilledMsg struct {
	Type string `json:"type"`
	Slot uint8  `json:"slot"`
}

type playerPositionMsg struct {
	Type string  `json:"type"`
	Slot uint8   `json:"slot"`
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
	Z    float32 `json:"z"`
}

type restockMsg struct {
	Type     string `json:"type"`
	Blocks   uint8  `json:"blocks"`
	Grenades uint8  `json:"grenades"`
}

type textMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func encodeBlocks(blocks []pluginapi.Block) [][4]uint32 {
	out := make([][4]uint32, len(blocks))
	for i, b := range blocks {
		out[i] = [4]uint32{uint32(b.X), uint32(b.Y), uint32(b.Z), b.Color}
	}
	return out
}
