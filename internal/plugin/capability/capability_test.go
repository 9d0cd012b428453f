package capability

import (
	"testing"

	"github.com/spadesx/spadesx/internal/plugin/command"
	"github.com/spadesx/spadesx/internal/world"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

type fixedOwner struct {
	ordinal uint64
	ok      bool
}

func (o *fixedOwner) ActiveOrdinal() (uint64, bool) { return o.ordinal, o.ok }

type countingReplicator struct {
	world.NopReplicator
	sets int
}

func (c *countingReplicator) BlockSet(pluginapi.Block) { c.sets++ }

func newTables(t *testing.T) (*Tables, *world.World, *countingReplicator, *fixedOwner) {
	t.Helper()
	rep := &countingReplicator{}
	cfg := world.DefaultConfig()
	cfg.Replicator = rep
	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	owner := &fixedOwner{}
	return New(w, command.NewRouter(), owner), w, rep, owner
}

func TestBootstrapWritesWithoutReplication(t *testing.T) {
	tables, w, rep, _ := newTables(t)
	b := tables.Bootstrap

	if got := b.InitAddBlock(206, 240, 1, 0xFF00FFFF); got != pluginapi.ResultOK {
		t.Fatalf("InitAddBlock = %v", got)
	}
	if rep.sets != 0 {
		t.Error("InitAddBlock replicated")
	}
	if got := b.MapBlock(b.GetMap(), 206, 240, 1); got != 0xFF00FFFF {
		t.Errorf("MapBlock = %#x", got)
	}

	top := b.MapFindTopBlock(b.GetMap(), 206, 240)
	if got := b.InitSetIntelPosition(0, 206, 240, top); got != pluginapi.ResultOK {
		t.Errorf("InitSetIntelPosition = %v", got)
	}
	if got := b.InitSetIntelPosition(2, 0, 0, 0); got != pluginapi.ResultInvalidTeam {
		t.Errorf("InitSetIntelPosition team 2 = %v, want ResultInvalidTeam", got)
	}
	if _, _, z, ok := w.Intel(0); !ok || z != 1 {
		t.Errorf("intel z = %d, ok = %v", z, ok)
	}
}

func TestBootstrapRefusesReplicatingMutators(t *testing.T) {
	tables, w, rep, _ := newTables(t)
	b := tables.Bootstrap
	p, _ := w.Join("early", pluginapi.TeamBlue, 0)
	w.PlaceBlockSilent(1, 1, 1, 1)

	if got := b.MapSetBlock(0, 0, 0, 1); got != pluginapi.ResultInvalidState {
		t.Errorf("MapSetBlock = %v, want ResultInvalidState", got)
	}
	if got := b.MapRemoveBlock(1, 1, 1); got != pluginapi.ResultInvalidState {
		t.Errorf("MapRemoveBlock = %v, want ResultInvalidState", got)
	}
	if got := b.PlayerSetColorBroadcast(p, 5); got != pluginapi.ResultInvalidState {
		t.Errorf("PlayerSetColorBroadcast = %v, want ResultInvalidState", got)
	}
	if rep.sets != 0 || !w.Solid(1, 1, 1) {
		t.Error("refused mutator changed state")
	}

	// The same calls through the full table work.
	if got := tables.Full.MapSetBlock(0, 0, 0, 1); got != pluginapi.ResultOK || rep.sets != 1 {
		t.Errorf("Full.MapSetBlock = %v, sets = %d", got, rep.sets)
	}
}

func TestBootstrapClosed(t *testing.T) {
	tables, w, _, _ := newTables(t)
	b := tables.Bootstrap
	b.Close()

	if !b.Closed() {
		t.Fatal("Closed() = false after Close")
	}
	if got := b.InitAddBlock(0, 0, 0, 1); got != pluginapi.ResultInvalidState {
		t.Errorf("InitAddBlock after Close = %v, want ResultInvalidState", got)
	}
	if got := b.InitSetIntelPosition(0, 0, 0, 0); got != pluginapi.ResultInvalidState {
		t.Errorf("InitSetIntelPosition after Close = %v, want ResultInvalidState", got)
	}
	if w.BlockCount() != 0 {
		t.Error("closed bootstrap table wrote to the map")
	}
	if _, _, _, ok := w.Intel(0); ok {
		t.Error("closed bootstrap table set intel")
	}

	// Read-only queries still work.
	if b.MapIsValidPos(b.GetMap(), 0, 0, 0) != true {
		t.Error("MapIsValidPos through closed bootstrap table = false")
	}
}

func TestRegisterCommandOwnership(t *testing.T) {
	tables, _, _, owner := newTables(t)
	handler := func(pluginapi.Server, pluginapi.Player, string) pluginapi.Result { return pluginapi.ResultAllow }

	if got := tables.Full.RegisterCommand("restock", "", handler, 0); got != pluginapi.ResultInvalidState {
		t.Errorf("RegisterCommand with no active plugin = %v, want ResultInvalidState", got)
	}

	owner.ordinal, owner.ok = 7, true
	if got := tables.Full.RegisterCommand("restock", "Refill", handler, 0); got != pluginapi.ResultOK {
		t.Fatalf("RegisterCommand = %v", got)
	}
	if got := tables.Full.RegisterCommand("restock", "", handler, 0); got != pluginapi.ResultCmdAlreadyRegistered {
		t.Errorf("duplicate RegisterCommand = %v, want ResultCmdAlreadyRegistered", got)
	}
	cmd, ok := tables.Full.router.Lookup("restock")
	if !ok || cmd.Owner != 7 {
		t.Errorf("Lookup = %+v, %v", cmd, ok)
	}
}

func TestFullDelegatesToWorld(t *testing.T) {
	tables, w, _, _ := newTables(t)
	f := tables.Full
	p, _ := w.Join("deuce", pluginapi.TeamGreen, pluginapi.PermTrusted)

	if f.GetPlayer(p.Slot()) != p {
		t.Error("GetPlayer mismatch")
	}
	if f.PlayerName(p) != "deuce" || f.PlayerTeam(p).ID != pluginapi.TeamGreen {
		t.Error("player queries mismatch")
	}
	if f.PlayerPermissions(p) != pluginapi.PermTrusted {
		t.Errorf("PlayerPermissions = %d", f.PlayerPermissions(p))
	}
	if got := f.PlayerSetHP(p, 101); got != pluginapi.ResultInvalidHP {
		t.Errorf("PlayerSetHP(101) = %v", got)
	}
	if got := f.PlayerRestock(pluginapi.NoPlayer); got != pluginapi.ResultPlayerNotFound {
		t.Errorf("PlayerRestock(null) = %v", got)
	}
	if got := f.MapSetBlock(600, 0, 0, 1); got != pluginapi.ResultMapOutOfBounds {
		t.Errorf("MapSetBlock out of bounds = %v", got)
	}
	if got := f.MapBlock(f.GetMap(), 600, 0, 0); got != 0 {
		t.Errorf("MapBlock out of bounds = %#x", got)
	}
}
