package world

import (
	"sort"

	"github.com/spadesx/spadesx/pkg/pluginapi"
)

func (w *World) inBounds(x, y, z int32) bool {
	return x >= 0 && x < w.sx && y >= 0 && y < w.sy && z >= 0 && z < w.sz
}

func (w *World) index(x, y, z int32) int {
	return (int(x)*int(w.sy)+int(y))*int(w.sz) + int(z)
}

// IsValidPos reports whether (x, y, z) lies inside map m.
func (w *World) IsValidPos(m pluginapi.Map, x, y, z int32) bool {
	return m == liveMap && w.inBounds(x, y, z)
}

// Block returns the color at (x, y, z), or 0 when the cell is empty, out of
// bounds, or m is not the live map.
func (w *World) Block(m pluginapi.Map, x, y, z int32) uint32 {
	if m != liveMap || !w.inBounds(x, y, z) {
		return 0
	}
	return w.blocks[w.index(x, y, z)]
}

// Solid reports whether the cell holds a block.
func (w *World) Solid(x, y, z int32) bool {
	return w.Block(liveMap, x, y, z) != 0
}

// FindTopBlock returns the z of the topmost solid block in column (x, y).
// Z grows downward, so the topmost block has the smallest z.
func (w *World) FindTopBlock(m pluginapi.Map, x, y int32) int32 {
	if m != liveMap || !w.inBounds(x, y, 0) {
		return -1
	}
	for z := int32(0); z < w.sz; z++ {
		if _, ok := w.blocks[w.index(x, y, z)]; ok {
			return z
		}
	}
	return -1
}

// SetBlock places a block and replicates it.
func (w *World) SetBlock(x, y, z int32, color uint32) pluginapi.Result {
	if r := w.putBlock(x, y, z, color); r != pluginapi.ResultOK {
		return r
	}
	w.repl.BlockSet(pluginapi.Block{X: x, Y: y, Z: z, Color: color})
	return pluginapi.ResultOK
}

// PlaceBlockSilent places a block without replication. It is used while the
// map is being built, before any client can be connected.
func (w *World) PlaceBlockSilent(x, y, z int32, color uint32) pluginapi.Result {
	return w.putBlock(x, y, z, color)
}

func (w *World) putBlock(x, y, z int32, color uint32) pluginapi.Result {
	if !w.inBounds(x, y, z) {
		return pluginapi.ResultMapOutOfBounds
	}
	if color == 0 {
		return pluginapi.ResultMapInvalidColor
	}
	w.blocks[w.index(x, y, z)] = color
	return pluginapi.ResultOK
}

// RemoveBlock removes a block and replicates the removal.
func (w *World) RemoveBlock(x, y, z int32) pluginapi.Result {
	if !w.inBounds(x, y, z) {
		return pluginapi.ResultMapOutOfBounds
	}
	idx := w.index(x, y, z)
	if _, ok := w.blocks[idx]; !ok {
		return pluginapi.ResultMapNoBlock
	}
	delete(w.blocks, idx)
	w.repl.BlockRemoved(x, y, z)
	return pluginapi.ResultOK
}

// BlockCount returns the number of solid cells.
func (w *World) BlockCount() int {
	return len(w.blocks)
}

// Blocks returns every solid cell ordered by x, then y, then z.
func (w *World) Blocks() []pluginapi.Block {
	out := make([]pluginapi.Block, 0, len(w.blocks))
	plane := int(w.sy) * int(w.sz)
	for idx, color := range w.blocks {
		out = append(out, pluginapi.Block{
			X:     int32(idx / plane),
			Y:     int32(idx % plane / int(w.sz)),
			Z:     int32(idx % int(w.sz)),
			Color: color,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return out
}

// ClearBlocks empties the map without replication.
func (w *World) ClearBlocks() {
	w.blocks = make(map[int]uint32)
}

// SetIntel places team's intel without replication.
func (w *World) SetIntel(team uint8, x, y, z int32) pluginapi.Result {
	if int(team) >= len(w.intel) {
		return pluginapi.ResultInvalidTeam
	}
	if !w.inBounds(x, y, z) {
		return pluginapi.ResultMapOutOfBounds
	}
	w.intel[team] = intel{x: x, y: y, z: z, set: true}
	return pluginapi.ResultOK
}

// Intel returns the intel position of team and whether one was set.
func (w *World) Intel(team uint8) (x, y, z int32, ok bool) {
	if int(team) >= len(w.intel) {
		return 0, 0, 0, false
	}
	in := w.intel[team]
	return in.x, in.y, in.z, in.set
}
