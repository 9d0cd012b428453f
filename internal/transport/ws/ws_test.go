package ws

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/spadesx/spadesx/internal/server"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

func TestPeekType(t *testing.T) {
	tests := []struct {
		msg     string
		want    string
		wantErr bool
	}{
		{`{"type":"chat","text":"hi"}`, TypeChat, false},
		{`{"text":"hi"}`, "", true},
		{`{"type":7}`, "", true},
		{`{"type":""}`, "", true},
		{`not json`, "", true},
	}
	for _, tt := range tests {
		got, err := peekType([]byte(tt.msg))
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("peekType(%s) = %q, %v; want %q, err %v", tt.msg, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		msg   string
		valid bool
	}{
		{"hello", `{"type":"hello","v":1,"name":"ace","team":0}`, true},
		{"hello spectator", `{"type":"hello","v":1,"name":"ace","team":255}`, true},
		{"hello bad team", `{"type":"hello","v":1,"name":"ace","team":3}`, false},
		{"hello no name", `{"type":"hello","v":1,"team":0}`, false},
		{"destroy", `{"type":"block_destroy","x":1,"y":2,"z":3,"tool":0}`, true},
		{"destroy no tool", `{"type":"block_destroy","x":1,"y":2,"z":3}`, false},
		{"destroy float", `{"type":"block_destroy","x":1.5,"y":2,"z":3,"tool":0}`, false},
		{"place", `{"type":"block_place","x":1,"y":2,"z":3}`, true},
		{"place color", `{"type":"block_place","x":1,"y":2,"z":3,"color":4294967295}`, true},
		{"place bad color", `{"type":"block_place","x":1,"y":2,"z":3,"color":-1}`, false},
		{"chat", `{"type":"chat","text":"hello"}`, true},
		{"chat number", `{"type":"chat","text":5}`, false},
		{"hit", `{"type":"hit","victim":3,"hit_type":1,"weapon":2}`, true},
		{"hit bad type", `{"type":"hit","victim":3,"hit_type":5}`, false},
		{"hit bad slot", `{"type":"hit","victim":32,"hit_type":1}`, false},
		{"move", `{"type":"move","x":1.5,"y":2.25,"z":3}`, true},
		{"grenade missing z", `{"type":"grenade","x":1,"y":2}`, false},
		{"tool", `{"type":"tool","tool":3}`, true},
		{"tool out of range", `{"type":"tool","tool":4}`, false},
		{"respawn", `{"type":"respawn"}`, true},
		{"unknown", `{"type":"teleport"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate([]byte(tt.msg))
			if (err == nil) != tt.valid {
				t.Errorf("validate(%s) error = %v, want valid=%v", tt.msg, err, tt.valid)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"🇩🇪🇫🇷🇮🇹", 2, "🇩🇪🇫🇷"},
		{"", 4, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  deuce  ", "deuce"},
		{"a\x00b\tc", "abc"},
		{"averyveryverylongname", "averyveryverylon"},
		{" \n ", ""},
		{"Rene\u0301", "Ren\u00e9"},
	}
	for _, tt := range tests {
		if got := cleanName(tt.in); got != tt.want {
			t.Errorf("cleanName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type nopServer struct{ submitted []server.Event }

func (n *nopServer) Name() string { return "nop" }

func (n *nopServer) Submit(ev server.Event) error {
	n.submitted = append(n.submitted, ev)
	return nil
}

func attached(h *Hub, slot uint8, gen uint32) *session {
	s := newSession("p", 8)
	s.slot = slot
	s.player = pluginapi.MakePlayer(slot, gen)
	h.attach(s)
	return s
}

func drain(s *session) []map[string]any {
	var out []map[string]any
	for {
		select {
		case b := <-s.out:
			var m map[string]any
			if err := json.Unmarshal(b, &m); err == nil {
				out = append(out, m)
			}
		default:
			return out
		}
	}
}

func TestHubReplication(t *testing.T) {
	h := NewHub(&nopServer{}, [3]int32{512, 512, 64})
	a := attached(h, 0, 1)
	b := attached(h, 1, 1)

	h.BlockSet(pluginapi.Block{X: 1, Y: 2, Z: 3, Color: 0xFF0000FF})
	h.Notice(1, "only b")
	h.PlayerRestock(0, 50, 3)
	h.ResendBlock(0, pluginapi.Block{X: 4, Y: 5, Z: 6})

	gotA, gotB := drain(a), drain(b)
	wantA := []string{TypeBlockSet, TypeRestock, TypeBlockRemoved}
	wantB := []string{TypeBlockSet, TypeNotice}
	check := func(name string, got []map[string]any, want []string) {
		t.Helper()
		if len(got) != len(want) {
			t.Fatalf("%s got %d messages, want %d: %v", name, len(got), len(want), got)
		}
		for i := range want {
			if got[i]["type"] != want[i] {
				t.Errorf("%s message %d type = %v, want %s", name, i, got[i]["type"], want[i])
			}
		}
	}
	check("a", gotA, wantA)
	check("b", gotB, wantB)
	if gotB[1]["text"] != "only b" {
		t.Errorf("notice text = %v", gotB[1]["text"])
	}

	h.detach(a)
	if h.Sessions() != 1 {
		t.Errorf("Sessions() = %d, want 1", h.Sessions())
	}
	if got := h.playerAt(0); !got.IsNull() {
		t.Errorf("playerAt(0) = %v after detach", got)
	}
}

func TestSlowSessionIsDropped(t *testing.T) {
	h := NewHub(&nopServer{}, [3]int32{8, 8, 8})
	s := newSession("slow", 1)
	h.attach(s)

	h.Broadcast("one")
	if s.closed() {
		t.Fatal("closed after one message")
	}
	h.Broadcast("two")
	if !s.closed() {
		t.Error("session with a full queue was not closed")
	}
}

func TestDecode(t *testing.T) {
	h := NewHub(&nopServer{}, [3]int32{512, 512, 64})
	me := attached(h, 2, 5)
	victim := attached(h, 7, 1)

	tests := []struct {
		name string
		msg  string
		want server.Event
	}{
		{"destroy", `{"type":"block_destroy","x":1,"y":2,"z":3,"tool":2}`,
			server.BlockDestroy{Player: me.player, Tool: 2, X: 1, Y: 2, Z: 3}},
		{"place", `{"type":"block_place","x":1,"y":2,"z":3,"color":16}`,
			server.BlockPlace{Player: me.player, Block: pluginapi.Block{X: 1, Y: 2, Z: 3, Color: 16}}},
		{"chat", `{"type":"chat","text":"/restock"}`,
			server.Chat{Player: me.player, Text: "/restock"}},
		{"hit", `{"type":"hit","victim":7,"hit_type":1,"weapon":4}`,
			server.Hit{Shooter: me.player, Victim: victim.player, Type: pluginapi.HitHead, Weapon: 4}},
		{"color", `{"type":"color","color":255}`,
			server.ColorChange{Player: me.player, Color: 255}},
		{"move", `{"type":"move","x":1.5,"y":2,"z":3}`,
			server.Move{Player: me.player, Pos: pluginapi.Vec3f{X: 1.5, Y: 2, Z: 3}}},
		{"grenade", `{"type":"grenade","x":1,"y":2,"z":3}`,
			server.GrenadeExplode{Player: me.player, Pos: pluginapi.Vec3f{X: 1, Y: 2, Z: 3}}},
		{"tool", `{"type":"tool","tool":1}`,
			server.ToolChange{Player: me.player, Tool: pluginapi.ToolBlock}},
		{"respawn", `{"type":"respawn"}`,
			server.Respawn{Player: me.player}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.decode(me, []byte(tt.msg))
			if err != nil {
				t.Fatalf("decode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("decode() = %#v, want %#v", got, tt.want)
			}
		})
	}

	failures := []struct {
		name, msg, errPart string
	}{
		{"empty slot", `{"type":"hit","victim":9,"hit_type":1}`, "no player in slot 9"},
		{"hello again", `{"type":"hello","v":1,"name":"x","team":0}`, "already joined"},
		{"schema", `{"type":"tool","tool":9}`, "invalid tool"},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.decode(me, []byte(tt.msg))
			if err == nil || !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("decode() error = %v, want it to contain %q", err, tt.errPart)
			}
		})
	}
}

type fullServer struct{ calls int }

func (f *fullServer) Name() string { return "full" }

func (f *fullServer) Submit(server.Event) error {
	f.calls++
	if f.calls < 3 {
		return server.ErrInboxFull
	}
	return nil
}

func TestLeaveRetriesFullInbox(t *testing.T) {
	srv := &fullServer{}
	h := NewHub(srv, [3]int32{8, 8, 8})
	s := attached(h, 0, 1)

	h.leave(s, "quit")
	if srv.calls != 3 {
		t.Errorf("Submit called %d times, want 3", srv.calls)
	}
	if h.Sessions() != 0 {
		t.Error("session still attached after leave")
	}
}

type stoppedServer struct{ calls int }

func (s *stoppedServer) Name() string { return "stopped" }

func (s *stoppedServer) Submit(server.Event) error {
	s.calls++
	return server.ErrStopped
}

func TestLeaveGivesUpWhenStopped(t *testing.T) {
	srv := &stoppedServer{}
	h := NewHub(srv, [3]int32{8, 8, 8})
	h.leave(attached(h, 0, 1), "quit")
	if srv.calls != 1 {
		t.Errorf("Submit called %d times, want 1", srv.calls)
	}
}
