package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/spadesx/spadesx/internal/plugin"
	"github.com/spadesx/spadesx/internal/server"
	"github.com/spadesx/spadesx/internal/world"
	"github.com/spadesx/spadesx/plugins/babel"
)

// liveServer runs a real server with the Babel gamemode behind the hub.
func liveServer(t *testing.T) string {
	t.Helper()
	w, err := world.New(world.DefaultConfig())
	if err != nil {
		t.Fatalf("world.New() error = %v", err)
	}
	builtins := plugin.NewBuiltinOpener()
	babel.Register(builtins)

	cfg := server.DefaultConfig()
	cfg.TickRate = 200
	srv, err := server.New(cfg, w, server.WithOpeners(builtins))
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}
	sx, sy, sz := w.Size()
	hub := NewHub(srv, [3]int32{sx, sy, sz})
	srv.AttachTransport(hub)
	if err := srv.Start(context.Background(), []string{plugin.BuiltinPrefix + babel.Name}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Run(ctx)
	}()

	ts := httptest.NewServer(hub.Handler())
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
		cancel()
		<-done
		srv.Shutdown(context.Background())
	})
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
}

// next reads messages until one of type typ arrives.
func next(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatalf("bad server message %s: %v", b, err)
		}
		if m["type"] == typ {
			return m
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	url := liveServer(t)
	conn := dial(t, url)

	send(t, conn, `{"type":"hello","v":1,"name":"  ace  ","team":1}`)
	welcome := next(t, conn, TypeWelcome)
	if welcome["server"] != "SpadesX" {
		t.Errorf("welcome server = %v", welcome["server"])
	}
	if team, _ := welcome["team"].(map[string]any); team["name"] != "Green" {
		t.Errorf("welcome team = %v", welcome["team"])
	}
	if id, _ := welcome["session"].(string); len(id) != 36 {
		t.Errorf("session id = %q, want a uuid", id)
	}

	m := next(t, conn, TypeMap)
	blocks, _ := m["blocks"].([]any)
	wantBlocks := int((babel.PlatformMaxX - babel.PlatformMinX + 1) * (babel.PlatformMaxY - babel.PlatformMinY + 1))
	if len(blocks) != wantBlocks {
		t.Errorf("map has %d blocks, want %d", len(blocks), wantBlocks)
	}

	for _, want := range babel.Welcome {
		if got := next(t, conn, TypeNotice)["text"]; got != want {
			t.Errorf("notice = %v, want %q", got, want)
		}
	}

	send(t, conn, `{"type":"chat","text":"/restock"}`)
	if got := next(t, conn, TypeNotice)["text"]; got != babel.MsgRestocked {
		t.Errorf("notice = %v, want %q", got, babel.MsgRestocked)
	}

	send(t, conn, `{"type":"block_destroy","x":250,"y":250,"z":1,"tool":0}`)
	if got := next(t, conn, TypeNotice)["text"]; got != babel.MsgPlatform {
		t.Errorf("notice = %v, want %q", got, babel.MsgPlatform)
	}
	resent := next(t, conn, TypeBlockSet)
	if resent["x"] != float64(250) || resent["color"] != float64(babel.PlatformColor) {
		t.Errorf("resent block = %v", resent)
	}

	send(t, conn, `{"type":"tool","tool":7}`)
	if got, _ := next(t, conn, TypeError)["message"].(string); !strings.Contains(got, "invalid tool") {
		t.Errorf("error message = %q", got)
	}

	send(t, conn, `{"type":"chat","text":"gg"}`)
	if got := next(t, conn, TypeBroadcast)["text"]; got != "ace: gg" {
		t.Errorf("broadcast = %v", got)
	}
}

func TestHandshakeRejections(t *testing.T) {
	url := liveServer(t)

	tests := []struct {
		name string
		msg  string
		text string
	}{
		{"not hello", `{"type":"chat","text":"hi"}`, "expected hello"},
		{"bad version", `{"type":"hello","v":2,"name":"x","team":0}`, "bad protocol version"},
		{"bad team", `{"type":"hello","v":1,"name":"x","team":9}`, "invalid hello"},
		{"blank name", `{"type":"hello","v":1,"name":"   ","team":0}`, "empty name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := dial(t, url)
			send(t, conn, tt.msg)
			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			_, _, err := conn.ReadMessage()
			ce, ok := err.(*websocket.CloseError)
			if !ok {
				t.Fatalf("ReadMessage() error = %v, want a close", err)
			}
			if ce.Code != websocket.ClosePolicyViolation || ce.Text != tt.text {
				t.Errorf("close = %d %q, want %d %q", ce.Code, ce.Text, websocket.ClosePolicyViolation, tt.text)
			}
		})
	}
}
