package world

import (
	"math"
	"testing"

	"github.com/spadesx/spadesx/pkg/pluginapi"
)

type recorder struct {
	set      []pluginapi.Block
	removed  int
	colors   map[uint8]uint32
	notices  []string
	restocks int
	kills    int
	hps      []uint8
	moves    int
	bcasts   []string
}

func (r *recorder) BlockSet(b pluginapi.Block) { r.set = append(r.set, b) }
func (r *recorder) BlockRemoved(x, y, z int32) { r.removed++ }
func (r *recorder) PlayerHP(slot uint8, hp uint8) { r.hps = append(r.hps, hp) }
func (r *recorder) PlayerKilled(slot uint8) { r.kills++ }
func (r *recorder) Notice(slot uint8, message string) { r.notices = append(r.notices, message) }
func (r *recorder) Broadcast(message string) { r.bcasts = append(r.bcasts, message) }

func (r *recorder) PlayerColor(slot uint8, color uint32) {
	if r.colors == nil {
		r.colors = make(map[uint8]uint32)
	}
	r.colors[slot] = color
}

func (r *recorder) PlayerPosition(slot uint8, pos pluginapi.Vec3f) {
	r.moves++
}

func (r *recorder) PlayerRestock(slot uint8, blocks, grenades uint8) {
	r.restocks++
}

func newTestWorld(t *testing.T) (*World, *recorder) {
	t.Helper()
	rec := &recorder{}
	cfg := DefaultConfig()
	cfg.Replicator = rec
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w, rec
}

func TestNewRejectsBadSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SizeZ = 0
	if _, err := New(cfg); err != ErrInvalidSize {
		t.Errorf("New() error = %v, want ErrInvalidSize", err)
	}
}

func TestJoinLeave(t *testing.T) {
	w, _ := newTestWorld(t)

	p, err := w.Join("deuce", pluginapi.TeamBlue, pluginapi.PermNone)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if p.Slot() != 0 {
		t.Errorf("first player slot = %d, want 0", p.Slot())
	}
	if !w.Valid(p) {
		t.Fatal("joined player not valid")
	}
	if w.GetPlayer(0) != p {
		t.Error("GetPlayer(0) does not match joined handle")
	}
	if got := w.PlayerHP(p); got != MaxHP {
		t.Errorf("PlayerHP = %d, want %d", got, MaxHP)
	}
	if got := w.PlayerColor(p); got != w.Team(pluginapi.TeamBlue).Color {
		t.Errorf("PlayerColor = %#x, want team color", got)
	}

	if err := w.Leave(p); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if w.Valid(p) {
		t.Error("handle still valid after Leave")
	}
	if err := w.Leave(p); err != ErrInvalidPlayer {
		t.Errorf("second Leave error = %v, want ErrInvalidPlayer", err)
	}

	// The slot is reused with a new generation.
	q, err := w.Join("other", pluginapi.TeamGreen, 0)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if q.Slot() != p.Slot() || q == p {
		t.Errorf("reused handle = %#x, old = %#x", q, p)
	}
	if w.Valid(p) {
		t.Error("stale handle became valid after slot reuse")
	}
}

func TestJoinFull(t *testing.T) {
	w, _ := newTestWorld(t)
	for i := 0; i < MaxPlayers; i++ {
		if _, err := w.Join("p", pluginapi.TeamBlue, 0); err != nil {
			t.Fatalf("Join %d: %v", i, err)
		}
	}
	if _, err := w.Join("late", pluginapi.TeamBlue, 0); err != ErrServerFull {
		t.Errorf("Join error = %v, want ErrServerFull", err)
	}
}

func TestJoinInvalidTeam(t *testing.T) {
	w, _ := newTestWorld(t)
	if _, err := w.Join("x", 7, 0); err != ErrInvalidTeam {
		t.Errorf("Join team 7 error = %v, want ErrInvalidTeam", err)
	}
	if _, err := w.Join("spec", pluginapi.TeamNone, 0); err != nil {
		t.Errorf("Join spectator: %v", err)
	}
}

func TestNullHandleDefaults(t *testing.T) {
	w, _ := newTestWorld(t)

	if got := w.PlayerName(pluginapi.NoPlayer); got != "" {
		t.Errorf("PlayerName = %q", got)
	}
	if got := w.PlayerTeam(pluginapi.NoPlayer); got.ID != pluginapi.TeamNone {
		t.Errorf("PlayerTeam.ID = %d, want TeamNone", got.ID)
	}
	if got := w.PlayerHP(pluginapi.NoPlayer); got != 0 {
		t.Errorf("PlayerHP = %d", got)
	}
	if got := w.PlayerPosition(pluginapi.NoPlayer); got != (pluginapi.Vec3f{}) {
		t.Errorf("PlayerPosition = %v", got)
	}
	if w.Valid(pluginapi.NoPlayer) {
		t.Error("null handle reported valid")
	}
}

func TestMutatorsRejectBadHandles(t *testing.T) {
	w, rec := newTestWorld(t)
	p, _ := w.Join("gone", pluginapi.TeamBlue, 0)
	_ = w.Leave(p)

	tests := []struct {
		name string
		fn   func(pluginapi.Player) pluginapi.Result
	}{
		{"SetPlayerColor", func(p pluginapi.Player) pluginapi.Result { return w.SetPlayerColor(p, 1, true) }},
		{"Restock", w.Restock},
		{"SendNotice", func(p pluginapi.Player) pluginapi.Result { return w.SendNotice(p, "hi") }},
		{"Kill", w.Kill},
		{"SetHP", func(p pluginapi.Player) pluginapi.Result { return w.SetHP(p, 10) }},
		{"SetPosition", func(p pluginapi.Player) pluginapi.Result { return w.SetPosition(p, pluginapi.Vec3f{}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(pluginapi.NoPlayer); got != pluginapi.ResultPlayerNotFound {
				t.Errorf("null handle = %v, want ResultPlayerNotFound", got)
			}
			if got := tt.fn(p); got != pluginapi.ResultPlayerDisconnected {
				t.Errorf("stale handle = %v, want ResultPlayerDisconnected", got)
			}
		})
	}

	if len(rec.notices) != 0 || rec.restocks != 0 || rec.kills != 0 || len(rec.colors) != 0 {
		t.Error("rejected mutator replicated a change")
	}
}

func TestRestock(t *testing.T) {
	w, rec := newTestWorld(t)
	p, _ := w.Join("builder", pluginapi.TeamBlue, 0)
	w.UseBlock(p)
	w.UseGrenade(p)

	for i := 0; i < 2; i++ {
		if got := w.Restock(p); got != pluginapi.ResultOK {
			t.Fatalf("Restock = %v", got)
		}
		if w.PlayerBlocks(p) != RestockBlocks || w.PlayerGrenades(p) != RestockGrenades {
			t.Errorf("after restock %d: blocks=%d grenades=%d", i, w.PlayerBlocks(p), w.PlayerGrenades(p))
		}
	}
	if rec.restocks != 2 {
		t.Errorf("restocks replicated = %d, want 2", rec.restocks)
	}
}

func TestSetHPAndKill(t *testing.T) {
	w, rec := newTestWorld(t)
	p, _ := w.Join("target", pluginapi.TeamGreen, 0)

	if got := w.SetHP(p, 101); got != pluginapi.ResultInvalidHP {
		t.Errorf("SetHP(101) = %v, want ResultInvalidHP", got)
	}
	if got := w.SetHP(p, 40); got != pluginapi.ResultOK || w.PlayerHP(p) != 40 {
		t.Errorf("SetHP(40) = %v, hp = %d", got, w.PlayerHP(p))
	}
	if got := w.Kill(p); got != pluginapi.ResultOK {
		t.Fatalf("Kill = %v", got)
	}
	if got := w.Kill(p); got != pluginapi.ResultPlayerDead {
		t.Errorf("second Kill = %v, want ResultPlayerDead", got)
	}
	if got := w.SetHP(p, 50); got != pluginapi.ResultPlayerDead {
		t.Errorf("SetHP on dead player = %v, want ResultPlayerDead", got)
	}
	if rec.kills != 1 {
		t.Errorf("kills replicated = %d, want 1", rec.kills)
	}

	w.Respawn(p, pluginapi.Vec3f{X: 1, Y: 1, Z: 1})
	if !w.PlayerAlive(p) || w.PlayerHP(p) != MaxHP {
		t.Error("Respawn did not restore the player")
	}
	if killed := w.Damage(p, 30); killed || w.PlayerHP(p) != 70 {
		t.Errorf("Damage(30) killed=%v hp=%d", killed, w.PlayerHP(p))
	}
	if killed := w.Damage(p, 200); !killed || w.PlayerAlive(p) {
		t.Error("Damage(200) should kill")
	}
}

func TestSetPlayerColor(t *testing.T) {
	w, rec := newTestWorld(t)
	p, _ := w.Join("painter", pluginapi.TeamBlue, 0)

	if got := w.SetPlayerColor(p, 0xFF123456, false); got != pluginapi.ResultOK {
		t.Fatalf("SetPlayerColor = %v", got)
	}
	if len(rec.colors) != 0 {
		t.Error("local color change was replicated")
	}
	if got := w.SetPlayerColor(p, 0xFF654321, true); got != pluginapi.ResultOK {
		t.Fatalf("SetPlayerColor broadcast = %v", got)
	}
	if rec.colors[p.Slot()] != 0xFF654321 || w.PlayerColor(p) != 0xFF654321 {
		t.Error("broadcast color change not applied")
	}
}

func TestSendNotice(t *testing.T) {
	w, rec := newTestWorld(t)
	p, _ := w.Join("reader", pluginapi.TeamBlue, 0)

	if got := w.SendNotice(p, ""); got != pluginapi.ResultInvalidParam {
		t.Errorf("empty notice = %v, want ResultInvalidParam", got)
	}
	if got := w.SendNotice(p, "Restocked!"); got != pluginapi.ResultOK {
		t.Errorf("SendNotice = %v", got)
	}
	if len(rec.notices) != 1 || rec.notices[0] != "Restocked!" {
		t.Errorf("notices = %v", rec.notices)
	}
	if got := w.Broadcast("hello"); got != pluginapi.ResultOK || len(rec.bcasts) != 1 {
		t.Errorf("Broadcast = %v, sent %d", got, len(rec.bcasts))
	}
}

func TestSetPositionBounds(t *testing.T) {
	w, rec := newTestWorld(t)
	p, _ := w.Join("walker", pluginapi.TeamBlue, 0)

	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	bad := []pluginapi.Vec3f{
		{X: 600},
		{X: -1},
		{Y: 512},
		{Z: 64},
		{X: nan, Y: 1, Z: 1},
		{X: 1, Y: nan, Z: 1},
		{X: 1, Y: 1, Z: nan},
		{X: inf},
		{Z: -inf},
	}
	for _, pos := range bad {
		if got := w.SetPosition(p, pos); got != pluginapi.ResultMapOutOfBounds {
			t.Errorf("SetPosition(%v) = %v, want %v", pos, got, pluginapi.ResultMapOutOfBounds)
		}
		if w.UpdatePosition(p, pos) {
			t.Errorf("UpdatePosition(%v) accepted", pos)
		}
	}
	if rec.moves != 0 {
		t.Error("out of bounds move replicated")
	}
	if got := w.PlayerPosition(p); got != (pluginapi.Vec3f{}) {
		t.Errorf("position after rejected moves = %v", got)
	}

	pos := pluginapi.Vec3f{X: 256, Y: 256, Z: 10}
	if got := w.SetPosition(p, pos); got != pluginapi.ResultOK || w.PlayerPosition(p) != pos {
		t.Errorf("SetPosition = %v, pos = %v", got, w.PlayerPosition(p))
	}
}

func TestFindPlayerAndPermissions(t *testing.T) {
	w, _ := newTestWorld(t)
	p, _ := w.Join("admin", pluginapi.TeamBlue, pluginapi.PermAdmin)

	got, ok := w.FindPlayer("admin")
	if !ok || got != p {
		t.Fatalf("FindPlayer = %v, %v", got, ok)
	}
	if w.PlayerPermissions(p) != pluginapi.PermAdmin {
		t.Errorf("PlayerPermissions = %d", w.PlayerPermissions(p))
	}
	w.SetPermissions(p, pluginapi.PermAdmin|pluginapi.PermManager)
	if w.PlayerPermissions(p)&pluginapi.PermManager == 0 {
		t.Error("SetPermissions did not apply")
	}
	if w.PlayerCount() != 1 || len(w.Players()) != 1 {
		t.Errorf("PlayerCount = %d", w.PlayerCount())
	}
}
