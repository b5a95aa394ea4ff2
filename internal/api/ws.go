// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dejvthedrummer/naucse.python.cz/internal/log"
	"github.com/dejvthedrummer/naucse.python.cz/internal/metrics"
	"github.com/dejvthedrummer/naucse.python.cz/internal/validate"
	"github.com/dejvthedrummer/naucse.python.cz/internal/watch"
)

const (
	writeWait   = 10 * time.Second
	sendBuffer  = 8
	maxReadSize = 512
)

// pushMessage is sent to websocket clients on connect and after every reload.
type pushMessage struct {
	Version  uint64          `json:"version"`
	Stale    bool            `json:"stale"`
	LoadedAt time.Time       `json:"loaded_at"`
	SHA256   string          `json:"sha256,omitempty"`
	Report   validate.Report `json:"report"`
}

func newPush(st watch.State) pushMessage {
	return pushMessage{
		Version:  st.Version,
		Stale:    st.Stale,
		LoadedAt: st.LoadedAt,
		SHA256:   st.SHA256,
		Report:   st.Report,
	}
}

func encodePush(st watch.State) ([]byte, error) {
	return json.Marshal(newPush(st))
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// hub tracks connected clients. Sends happen under mu so a client's
// channel is never written after removal closes it.
type hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func newHub() *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			// Reports carry no secrets; any origin may subscribe.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// add registers c and queues initial as its first message.
func (h *hub) add(c *client, initial []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	c.send <- initial
	metrics.IncWebsocketClients()
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.DecWebsocketClients()
}

// broadcast queues msg for every client without blocking. Slow clients
// miss messages; the next push carries the full report again.
func (h *hub) broadcast(msg []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
	return len(h.clients)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.conn.Close()
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "ws")

	conn, err := s.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		logger.Debug().Err(err).Str(log.FieldEvent, "ws.upgrade_failed").Msg("websocket upgrade failed")
		return
	}

	initial, err := encodePush(s.source.Get())
	if err != nil {
		_ = conn.Close()
		logger.Error().Err(err).Str(log.FieldEvent, "ws.encode_error").Msg("failed to encode push message")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	s.hub.add(c, initial)
	logger.Info().
		Str(log.FieldEvent, "ws.connected").
		Str(log.FieldRemoteAddr, r.RemoteAddr).
		Msg("report client connected")

	go c.writeLoop()
	c.readLoop()

	s.hub.remove(c)
	logger.Info().
		Str(log.FieldEvent, "ws.disconnected").
		Str(log.FieldRemoteAddr, r.RemoteAddr).
		Msg("report client disconnected")
}

// writeLoop is the connection's only writer. It closes the connection when
// the send channel is closed or a write fails.
func (c *client) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readLoop discards client messages and returns when the peer goes away.
func (c *client) readLoop() {
	c.conn.SetReadLimit(maxReadSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
