package live

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 2 * time.Second

// subscriber is one live-feed connection, keyed in the hub by its
// underlying conn.
type subscriber interface {
	send(line []byte) error
	close()
	isWebsocket() bool
}

type tcpSubscriber struct{ conn net.Conn }

func (s tcpSubscriber) send(line []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	_, err := s.conn.Write(line)
	return err
}

func (s tcpSubscriber) close() { _ = s.conn.Close() }
func (s tcpSubscriber) isWebsocket() bool { return false }

type wsSubscriber struct{ conn *websocket.Conn }

func (s wsSubscriber) send(line []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, line)
}

func (s wsSubscriber) close() { _ = s.conn.Close() }
func (s wsSubscriber) isWebsocket() bool { return true }

// Hub fans live-feed events out to TCP and websocket subscribers. A
// subscriber whose write fails is closed and dropped.
type Hub struct {
	mu     sync.Mutex
	subs   map[any]subscriber
	logger *slog.Logger
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[any]subscriber),
		logger: logger.With("component", "live"),
	}
}

func (h *Hub) Add(conn net.Conn) { h.subscribe(conn, tcpSubscriber{conn}) }

func (h *Hub) Remove(conn net.Conn) {
	h.unsubscribe(conn)
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn) { h.subscribe(ws, wsSubscriber{ws}) }

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.unsubscribe(ws)
	_ = ws.Close()
}

func (h *Hub) subscribe(key any, s subscriber) {
	h.mu.Lock()
	h.subs[key] = s
	h.mu.Unlock()
}

func (h *Hub) unsubscribe(key any) {
	h.mu.Lock()
	delete(h.subs, key)
	h.mu.Unlock()
}

// Publish sends ev to every subscriber as one JSON line.
func (h *Hub) Publish(ev Event) {
	h.BroadcastJSON(ev)
}

// BroadcastJSON writes v as a JSON line to every subscriber and drops the
// ones that fail.
func (h *Hub) BroadcastJSON(v any) {
	line, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("marshal broadcast", "err", err)
		return
	}
	line = append(line, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	for key, s := range h.subs {
		if err := s.send(line); err != nil {
			h.logger.Debug("dropping subscriber", "websocket", s.isWebsocket(), "err", err)
			s.close()
			delete(h.subs, key)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	var st Stats
	for _, s := range h.subs {
		if s.isWebsocket() {
			st.WSClients++
		} else {
			st.TCPClients++
		}
	}
	return st
}

// Welcome greets a new TCP subscriber with the current subscriber count.
func (h *Hub) Welcome(conn net.Conn) {
	st := h.Stats()
	msg := fmt.Sprintf("{\"type\":%q,\"message\":\"connected\",\"clients\":%d}\n", EventWelcome, st.TCPClients+st.WSClients)
	_ = tcpSubscriber{conn}.send([]byte(msg))
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, s := range h.subs {
		s.close()
		delete(h.subs, key)
	}
}
