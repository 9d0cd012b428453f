package world

import "github.com/spadesx/spadesx/pkg/pluginapi"

// Replicator receives world changes that clients must see.
type Replicator interface {
	BlockSet(b pluginapi.Block)
	BlockRemoved(x, y, z int32)
	PlayerColor(slot uint8, color uint32)
	PlayerHP(slot uint8, hp uint8)
	PlayerKilled(slot uint8)
	PlayerPosition(slot uint8, pos pluginapi.Vec3f)
	PlayerRestock(slot uint8, blocks, grenades uint8)
	Notice(slot uint8, message string)
	Broadcast(message string)
}

// NopReplicator drops everything.
type NopReplicator struct{}

func (NopReplicator) BlockSet(pluginapi.Block) {}
func (NopReplicator) BlockRemoved(int32, int32, int32) {}
func (NopReplicator) PlayerColor(uint8, uint32) {}
func (NopReplicator) PlayerHP(uint8, uint8) {}
func (NopReplicator) PlayerKilled(uint8) {}
func (NopReplicator) PlayerPosition(uint8, pluginapi.Vec3f) {}
func (NopReplicator) PlayerRestock(uint8, uint8, uint8) {}
func (NopReplicator) Notice(uint8, string) {}
func (NopReplicator) Broadcast(string) {}
