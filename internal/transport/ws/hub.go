// Package ws is the websocket transport. Clients speak a small JSON protocol;
// every inbound message is validated against an embedded JSON schema and
// turned into a server event, and every replicated world change is fanned out
// to the connected sessions.
package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rivo/uniseg"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/spadesx/spadesx/internal/server"
	"github.com/spadesx/spadesx/internal/world"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Limits.
const (
	DefaultQueueSize = 256

	// MaxNoticeGraphemes bounds notices and broadcasts in user-perceived
	// characters.
	MaxNoticeGraphemes = 256

	// MaxNameGraphemes bounds player names.
	MaxNameGraphemes = 16
)

// Server is the part of the game server the transport needs.
type Server interface {
	Name() string
	Submit(ev server.Event) error
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the transport logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Hub) {
		h.logger = l
	}
}

// WithQueueSize sets the per-session outbound queue length. A session whose
// queue fills up is disconnected.
func WithQueueSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

// Hub owns the connected sessions. It implements server.Transport.
type Hub struct {
	srv    Server
	size   [3]int32
	logger *zap.Logger

	upgrader  websocket.Upgrader
	queueSize int

	mu       sync.RWMutex
	sessions [world.MaxPlayers]*session
}

var _ server.Transport = (*Hub)(nil)

// NewHub creates a hub feeding srv. size is the map size announced to clients.
func NewHub(srv Server, size [3]int32, opts ...Option) *Hub {
	h := &Hub{
		srv:       srv,
		size:      size,
		logger:    zap.NewNop(),
		queueSize: DefaultQueueSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Sessions returns the number of attached sessions.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, s := range h.sessions {
		if s != nil {
			n++
		}
	}
	return n
}

// Close disconnects every session.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		if s != nil {
			s.close()
		}
	}
}

func (h *Hub) attach(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old := h.sessions[s.slot]; old != nil && old != s {
		old.close()
	}
	h.sessions[s.slot] = s
}

func (h *Hub) detach(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[s.slot] == s {
		h.sessions[s.slot] = nil
	}
}

// playerAt returns the handle of the player in slot, or NoPlayer.
func (h *Hub) playerAt(slot uint8) pluginapi.Player {
	if int(slot) >= len(h.sessions) {
		return pluginapi.NoPlayer
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if s := h.sessions[slot]; s != nil {
		return s.player
	}
	return pluginapi.NoPlayer
}

func (h *Hub) encode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("encode message", zap.Error(err))
		return nil
	}
	return b
}

func (h *Hub) broadcast(v any) {
	b := h.encode(v)
	if b == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		if s != nil {
			s.enqueue(b)
		}
	}
}

func (h *Hub) to(slot uint8, v any) {
	if int(slot) >= len(h.sessions) {
		return
	}
	b := h.encode(v)
	if b == nil {
		return
	}
	h.mu.RLock()
	s := h.sessions[slot]
	h.mu.RUnlock()
	if s != nil {
		s.enqueue(b)
	}
}

// truncate cuts s to at most limit grapheme clusters.
func truncate(s string, limit int) string {
	if uniseg.GraphemeClusterCount(s) <= limit {
		return s
	}
	rest, cut, state := s, 0, -1
	for n := 0; n < limit && rest != ""; n++ {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		cut += len(cluster)
	}
	return s[:cut]
}

// cleanName trims, normalizes and shortens a requested player name. Control
// characters are dropped.
func cleanName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, norm.NFC.String(name))
	return truncate(strings.TrimSpace(name), MaxNameGraphemes)
}

// Replication. These run on the tick goroutine.

func (h *Hub) BlockSet(b pluginapi.Block) {
	h.broadcast(blockMsg{Type: TypeBlockSet, X: b.X, Y: b.Y, Z: b.Z, Color: b.Color})
}

func (h *Hub) BlockRemoved(x, y, z int32) {
	h.broadcast(blockMsg{Type: TypeBlockRemoved, X: x, Y: y, Z: z})
}

func (h *Hub) PlayerColor(slot uint8, color uint32) {
	h.broadcast(playerColorMsg{Type: TypePlayerColor, Slot: slot, Color: color})
}

func (h *Hub) PlayerHP(slot uint8, hp uint8) {
	h.to(slot, playerHPMsg{Type: TypePlayerHP, Slot: slot, HP: hp})
}

func (h *Hub) PlayerKilled(slot uint8) {
	h.broadcast(playerKilledMsg{Type: TypePlayerKilled, Slot: slot})
}

func (h *Hub) PlayerPosition(slot uint8, pos pluginapi.Vec3f) {
	h.broadcast(playerPositionMsg{Type: TypePlayerPosition, Slot: slot, X: pos.X, Y: pos.Y, Z: pos.Z})
}

func (h *Hub) PlayerRestock(slot uint8, blocks, grenades uint8) {
	h.to(slot, restockMsg{Type: TypeRestock, Blocks: blocks, Grenades: grenades})
}

func (h *Hub) Notice(slot uint8, message string) {
	h.to(slot, textMsg{Type: TypeNotice, Text: truncate(message, MaxNoticeGraphemes)})
}

func (h *Hub) Broadcast(message string) {
	h.broadcast(textMsg{Type: TypeBroadcast, Text: truncate(message, MaxNoticeGraphemes)})
}

// ResendBlock implements server.Transport.
func (h *Hub) ResendBlock(slot uint8, b pluginapi.Block) {
	if b.Color == 0 {
		h.to(slot, blockMsg{Type: TypeBlockRemoved, X: b.X, Y: b.Y, Z: b.Z})
		return
	}
	h.to(slot, blockMsg{Type: TypeBlockSet, X: b.X, Y: b.Y, Z: b.Z, Color: b.Color})
}
