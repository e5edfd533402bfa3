package events

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"bibhub/internal/logging"
)

// writeTimeout bounds one write to a subscriber; slow subscribers are
// dropped.
const writeTimeout = 2 * time.Second

// Hub holds the connected subscribers.
type Hub struct {
	mu        sync.Mutex
	tcp       map[net.Conn]struct{}
	ws        map[*websocket.Conn]struct{}
	logger    zerolog.Logger
	published int
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
	Published  int `json:"published"`
}

func NewHub() *Hub {
	return &Hub{
		tcp:    make(map[net.Conn]struct{}),
		ws:     make(map[*websocket.Conn]struct{}),
		logger: logging.Component("events"),
	}
}

func (h *Hub) addTCP(c net.Conn) {
	h.mu.Lock()
	h.tcp[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) removeTCP(c net.Conn) {
	h.mu.Lock()
	delete(h.tcp, c)
	h.mu.Unlock()
	_ = c.Close()
}

func (h *Hub) addWS(ws *websocket.Conn) {
	h.mu.Lock()
	h.ws[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) removeWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.ws, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// Publish sends ev to every subscriber. Subscribers failing the write are
// disconnected.
func (h *Hub) Publish(ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error().Err(err).Str("type", ev.Type).Msg("encode event")
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	h.published++

	for c := range h.tcp {
		_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := c.Write(b); err != nil {
			_ = c.Close()
			delete(h.tcp, c)
		}
	}
	for ws := range h.ws {
		_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.ws, ws)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.tcp),
		WSClients:  len(h.ws),
		Published:  h.published,
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.tcp {
		_ = c.Close()
		delete(h.tcp, c)
	}
	for ws := range h.ws {
		_ = ws.Close()
		delete(h.ws, ws)
	}
}

func welcome(transport string) []byte {
	b, _ := json.Marshal(struct {
		Type      string `json:"type"`
		Transport string `json:"transport"`
	}{TypeWelcome, transport})
	return append(b, '\n')
}
