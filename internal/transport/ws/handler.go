package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spadesx/spadesx/internal/server"
	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// Timeouts and limits for a connection.
const (
	helloTimeout   = 5 * time.Second
	joinTimeout    = 5 * time.Second
	readTimeout    = 60 * time.Second
	writeTimeout   = 5 * time.Second
	maxMessageSize = 4 * 1024

	leaveRetry = 10 * time.Millisecond
)

// Handler returns the HTTP handler that upgrades clients to websocket
// sessions.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetReadLimit(maxMessageSize)

		sess := h.handshake(conn)
		if sess == nil {
			return
		}
		log := h.logger.With(zap.String("session", sess.id), zap.String("player", sess.name), zap.Uint8("slot", sess.slot))
		log.Info("session started", zap.String("remote", r.RemoteAddr))

		go h.writeLoop(conn, sess)
		reason := h.readLoop(conn, sess, log)

		sess.close()
		h.leave(sess, reason)
		log.Info("session ended", zap.String("reason", reason))
	}
}

func closeWith(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// handshake reads the hello, asks the server for a slot and returns the
// attached session, or nil when the client was turned away.
func (h *Hub) handshake(conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(helloTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	typ, err := peekType(msg)
	if err != nil || typ != TypeHello {
		closeWith(conn, websocket.ClosePolicyViolation, "expected hello")
		return nil
	}
	if err := validate(msg); err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, "invalid hello")
		return nil
	}
	var hello helloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, "invalid hello")
		return nil
	}
	if hello.Version != ProtocolVersion {
		closeWith(conn, websocket.ClosePolicyViolation, "bad protocol version")
		return nil
	}
	name := cleanName(hello.Name)
	if name == "" {
		closeWith(conn, websocket.ClosePolicyViolation, "empty name")
		return nil
	}

	sess := newSession(name, h.queueSize)
	results := make(chan server.JoinResult, 1)
	err = h.srv.Submit(server.Connect{
		Name: name,
		Team: hello.Team,
		Joined: func(res server.JoinResult) {
			if res.Err == nil {
				h.welcome(sess, res)
			}
			results <- res
		},
	})
	if err != nil {
		_ = writeJSON(conn, errorMsg{Type: TypeError, Message: err.Error()})
		closeWith(conn, websocket.CloseTryAgainLater, "server busy")
		return nil
	}

	timer := time.NewTimer(joinTimeout)
	defer timer.Stop()
	select {
	case res := <-results:
		if res.Err != nil {
			_ = writeJSON(conn, errorMsg{Type: TypeError, Message: res.Err.Error()})
			closeWith(conn, websocket.CloseTryAgainLater, "join refused")
			return nil
		}
		return sess
	case <-timer.C:
		// The join may still land; give the slot back if it does.
		go func() {
			if res := <-results; res.Err == nil {
				sess.close()
				h.leave(sess, "join timed out")
			}
		}()
		closeWith(conn, websocket.CloseTryAgainLater, "join timed out")
		return nil
	}
}

// welcome attaches sess at its slot and queues the welcome and the map. It
// runs on the tick goroutine, before plugins hear about the player.
func (h *Hub) welcome(sess *session, res server.JoinResult) {
	sess.player = res.Player
	sess.slot = res.Player.Slot()
	h.attach(sess)

	sess.enqueue(h.encode(welcomeMsg{
		Type:    TypeWelcome,
		Version: ProtocolVersion,
		Session: sess.id,
		Server:  h.srv.Name(),
		Slot:    sess.slot,
		Team:    teamInfo{ID: res.Team.ID, Name: res.Team.Name, Color: res.Team.Color},
		Size:    h.size,
	}))
	sess.enqueue(h.encode(mapMsg{Type: TypeMap, Blocks: encodeBlocks(res.Blocks)}))
}

func (h *Hub) writeLoop(conn *websocket.Conn, sess *session) {
	defer conn.Close()
	for {
		select {
		case <-sess.done:
			closeWith(conn, websocket.CloseNormalClosure, "")
			return
		case b := <-sess.out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				sess.close()
				return
			}
		}
	}
}

func (h *Hub) readLoop(conn *websocket.Conn, sess *session, log *zap.Logger) string {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			switch {
			case sess.closed():
				return "kicked"
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				return "quit"
			default:
				return "connection lost"
			}
		}

		ev, err := h.decode(sess, msg)
		if err != nil {
			log.Debug("bad message", zap.Error(err))
			sess.enqueue(h.encode(errorMsg{Type: TypeError, Message: err.Error()}))
			continue
		}
		if err := h.srv.Submit(ev); err != nil {
			if errors.Is(err, server.ErrStopped) {
				return "server stopped"
			}
			log.Warn("event dropped", zap.Error(err))
		}
	}
}

// decode turns a client message into a server event for sess.
func (h *Hub) decode(sess *session, msg []byte) (server.Event, error) {
	typ, err := peekType(msg)
	if err != nil {
		return nil, err
	}
	if err := validate(msg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", typ, err)
	}

	p := sess.player
	switch typ {
	case TypeBlockDestroy:
		var m blockDestroyMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		return server.BlockDestroy{Player: p, Tool: m.Tool, X: m.X, Y: m.Y, Z: m.Z}, nil
	case TypeBlockPlace:
		var m blockPlaceMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		return server.BlockPlace{Player: p, Block: pluginapi.Block{X: m.X, Y: m.Y, Z: m.Z, Color: m.Color}}, nil
	case TypeChat:
		var m chatMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		return server.Chat{Player: p, Text: m.Text}, nil
	case TypeHit:
		var m hitMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		victim := h.playerAt(m.Victim)
		if victim.IsNull() {
			return nil, fmt.Errorf("no player in slot %d", m.Victim)
		}
		return server.Hit{Shooter: p, Victim: victim, Type: m.HitType, Weapon: m.Weapon}, nil
	case TypeColor:
		var m colorMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		return server.ColorChange{Player: p, Color: m.Color}, nil
	case TypeGrenade:
		var m vecMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		return server.GrenadeExplode{Player: p, Pos: m.vec()}, nil
	case TypeMove:
		var m vecMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		return server.Move{Player: p, Pos: m.vec()}, nil
	case TypeTool:
		var m toolMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return nil, err
		}
		return server.ToolChange{Player: p, Tool: m.Tool}, nil
	case TypeRespawn:
		return server.Respawn{Player: p}, nil
	case TypeHello:
		return nil, errors.New("already joined")
	default:
		return nil, fmt.Errorf("unknown message type %q", typ)
	}
}

// leave detaches sess and tells the server the player is gone. The
// disconnect is retried while the inbox is full so the slot is never leaked.
func (h *Hub) leave(sess *session, reason string) {
	h.detach(sess)
	for {
		err := h.srv.Submit(server.Disconnect{Player: sess.player, Reason: reason})
		if err == nil || !errors.Is(err, server.ErrInboxFull) {
			return
		}
		time.Sleep(leaveRetry)
	}
}
