package signal

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/krether/huddle/internal/core"
)

// ErrBackpressure reports a send buffer that filled faster than the
// write pump drained it.
var ErrBackpressure = errors.New("backpressure")

// wsConduit adapts a websocket connection to core.Conduit. Sends go
// through a bounded buffer; the write pump owns every write to the
// socket. Close marks the conduit dead and closes the buffer so the
// pump can flush what is queued, announce the close and drop the
// socket.
type wsConduit struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newConduit(conn *websocket.Conn, buffer int) *wsConduit {
	return &wsConduit{conn: conn, send: make(chan []byte, buffer)}
}

func (c *wsConduit) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConduitClosed
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConduit) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
}
