package stubs

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/luminaquant/lumina-go/internal/protocol"
)

const (
	stubWriteWait      = 2 * time.Second
	stubMaxMessageSize = 64 * 1024
)

// outMsg is a server-to-client frame. The zero fields are omitted so pong
// and heartbeat go out as bare {"type":...} objects, matching the backend.
type outMsg struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
}

// hub tracks connected WebSocket clients and fans broadcasts out to them.
type hub struct {
	mu      sync.Mutex
	clients map[string]*client
	log     zerolog.Logger
}

func newHub(log zerolog.Logger) *hub {
	return &hub{
		clients: make(map[string]*client),
		log:     log.With().Str("component", "stub_hub").Logger(),
	}
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	// closed is guarded by the hub mutex; every close of send and every send
	// into it goes through the hub so a pruned client never panics a late
	// reply.
	closed bool
}

func (h *hub) add(conn *websocket.Conn) *client {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 64),
	}
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info().Str("client", c.id).Int("connections", n).Msg("client connected")
	return c
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info().Str("client", c.id).Int("connections", n).Msg("client disconnected")
}

// broadcast sends one frame to every client. A client whose buffer is full
// is pruned so a slow consumer cannot stall the loop.
func (h *hub) broadcast(msg outMsg) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- data:
		default:
			delete(h.clients, id)
			if !c.closed {
				c.closed = true
				close(c.send)
			}
			h.log.Warn().Str("client", id).Msg("pruning slow client")
		}
	}
}

// sendTo queues a frame for one client, best effort. A client the broadcaster
// already pruned is skipped.
func (h *hub) sendTo(c *client, msg outMsg) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal message")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump drains the client's send queue onto the socket and emits a bare
// heartbeat frame on idle, the way the backend does after its 30s receive
// timeout.
func (c *client) writePump(h *hub, heartbeat time.Duration) {
	ticker := time.NewTicker(heartbeat)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(stubWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(stubWriteWait))
			data, _ := json.Marshal(outMsg{Type: "heartbeat"})
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

// readPump handles inbound commands until the peer goes away.
func (c *client) readPump(s *Server) {
	defer func() {
		s.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(stubMaxMessageSize)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd protocol.Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.log.Warn().Err(err).Msg("unparseable client command")
			continue
		}
		s.handleCommand(c, cmd)
	}
}
