package ws

import (
	"sync"

	"github.com/google/uuid"

	"github.com/spadesx/spadesx/pkg/pluginapi"
)

// session is one connected client. player and slot are set once the join is
// accepted and never change afterwards.
type session struct {
	id   string
	name string

	slot   uint8
	player pluginapi.Player

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(name string, queueSize int) *session {
	return &session{
		id:   uuid.NewString(),
		name: name,
		out:  make(chan []byte, queueSize),
		done: make(chan struct{}),
	}
}

// enqueue queues b for the writer. A client that cannot keep up is dropped.
func (s *session) enqueue(b []byte) {
	select {
	case <-s.done:
	case s.out <- b:
	default:
		s.close()
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
