package world

import (
	"testing"

	"github.com/spadesx/spadesx/pkg/pluginapi"
)

func TestSetAndRemoveBlock(t *testing.T) {
	w, rec := newTestWorld(t)
	m := w.Map()

	if got := w.SetBlock(10, 20, 30, 0xFF00FF00); got != pluginapi.ResultOK {
		t.Fatalf("SetBlock = %v", got)
	}
	if got := w.Block(m, 10, 20, 30); got != 0xFF00FF00 {
		t.Errorf("Block = %#x", got)
	}
	if got := w.Block(pluginapi.NoMap, 10, 20, 30); got != 0 {
		t.Errorf("Block on null map = %#x, want 0", got)
	}
	if len(rec.set) != 1 {
		t.Errorf("replicated sets = %d, want 1", len(rec.set))
	}

	if got := w.RemoveBlock(10, 20, 30); got != pluginapi.ResultOK {
		t.Fatalf("RemoveBlock = %v", got)
	}
	if got := w.RemoveBlock(10, 20, 30); got != pluginapi.ResultMapNoBlock {
		t.Errorf("RemoveBlock empty = %v, want ResultMapNoBlock", got)
	}
	if rec.removed != 1 {
		t.Errorf("replicated removals = %d, want 1", rec.removed)
	}
}

func TestBlockValidation(t *testing.T) {
	w, rec := newTestWorld(t)

	tests := []struct {
		name    string
		x, y, z int32
		color   uint32
		want    pluginapi.Result
	}{
		{"negative x", -1, 0, 0, 1, pluginapi.ResultMapOutOfBounds},
		{"x too large", 512, 0, 0, 1, pluginapi.ResultMapOutOfBounds},
		{"z too large", 0, 0, 64, 1, pluginapi.ResultMapOutOfBounds},
		{"zero color", 0, 0, 0, 0, pluginapi.ResultMapInvalidColor},
		{"corner", 511, 511, 63, 1, pluginapi.ResultOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.SetBlock(tt.x, tt.y, tt.z, tt.color); got != tt.want {
				t.Errorf("SetBlock = %v, want %v", got, tt.want)
			}
		})
	}

	if len(rec.set) != 1 {
		t.Errorf("replicated sets = %d, want only the valid one", len(rec.set))
	}
	if got := w.RemoveBlock(0, -5, 0); got != pluginapi.ResultMapOutOfBounds {
		t.Errorf("RemoveBlock out of bounds = %v", got)
	}
}

func TestOutOfBoundsReadAfterRejectedWrite(t *testing.T) {
	w, _ := newTestWorld(t)
	m := w.Map()
	if w.IsValidPos(m, 600, 0, 0) {
		t.Fatal("IsValidPos(600, 0, 0) = true")
	}
	if got := w.SetBlock(600, 0, 0, 0xFFFFFFFF); got != pluginapi.ResultMapOutOfBounds {
		t.Fatalf("SetBlock = %v", got)
	}
	if got := w.Block(m, 600, 0, 0); got != 0 {
		t.Errorf("Block = %#x, want 0", got)
	}
}

func TestFindTopBlock(t *testing.T) {
	w, _ := newTestWorld(t)
	m := w.Map()

	if got := w.FindTopBlock(m, 5, 5); got != -1 {
		t.Errorf("empty column = %d, want -1", got)
	}
	w.PlaceBlockSilent(5, 5, 40, 1)
	w.PlaceBlockSilent(5, 5, 12, 1)
	if got := w.FindTopBlock(m, 5, 5); got != 12 {
		t.Errorf("FindTopBlock = %d, want 12", got)
	}
	if got := w.FindTopBlock(m, -1, 5); got != -1 {
		t.Errorf("out of bounds column = %d, want -1", got)
	}
	if got := w.FindTopBlock(pluginapi.NoMap, 5, 5); got != -1 {
		t.Errorf("null map = %d, want -1", got)
	}
}

func TestPlaceBlockSilentDoesNotReplicate(t *testing.T) {
	w, rec := newTestWorld(t)
	if got := w.PlaceBlockSilent(1, 2, 3, 7); got != pluginapi.ResultOK {
		t.Fatalf("PlaceBlockSilent = %v", got)
	}
	if len(rec.set) != 0 {
		t.Error("silent placement replicated")
	}
	if !w.Solid(1, 2, 3) {
		t.Error("block not written")
	}
}

func TestBlocksOrdered(t *testing.T) {
	w, _ := newTestWorld(t)
	w.PlaceBlockSilent(3, 0, 0, 1)
	w.PlaceBlockSilent(1, 9, 2, 2)
	w.PlaceBlockSilent(1, 9, 1, 3)

	got := w.Blocks()
	want := []pluginapi.Block{
		{X: 1, Y: 9, Z: 1, Color: 3},
		{X: 1, Y: 9, Z: 2, Color: 2},
		{X: 3, Y: 0, Z: 0, Color: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("Blocks() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Blocks()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestIntel(t *testing.T) {
	w, _ := newTestWorld(t)

	if got := w.SetIntel(2, 0, 0, 0); got != pluginapi.ResultInvalidTeam {
		t.Errorf("SetIntel team 2 = %v, want ResultInvalidTeam", got)
	}
	if got := w.SetIntel(0, 0, 0, -1); got != pluginapi.ResultMapOutOfBounds {
		t.Errorf("SetIntel z=-1 = %v, want ResultMapOutOfBounds", got)
	}
	if got := w.SetIntel(1, 255, 256, 10); got != pluginapi.ResultOK {
		t.Fatalf("SetIntel = %v", got)
	}
	x, y, z, ok := w.Intel(1)
	if !ok || x != 255 || y != 256 || z != 10 {
		t.Errorf("Intel(1) = %d %d %d %v", x, y, z, ok)
	}
	if _, _, _, ok := w.Intel(0); ok {
		t.Error("team 0 intel reported set")
	}
}
