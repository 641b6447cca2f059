package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alejandrodnm/tradejournal/internal/domain"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
	sendBuffer   = 16
)

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub reparte snapshots de Statistics a los clientes websocket conectados.
// Implementa ports.StatsPublisher.
type Hub struct {
	upgrader websocket.Upgrader
	metrics  *Metrics

	mu      sync.RWMutex
	clients map[*streamClient]struct{}
}

// NewHub crea un hub. allowedOrigin vacío acepta cualquier origen.
func NewHub(allowedOrigin string) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
		clients: make(map[*streamClient]struct{}),
	}
}

// PublishStats envía el snapshot a todos los clientes. Un cliente lento
// pierde el mensaje en lugar de bloquear al resto.
func (h *Hub) PublishStats(_ context.Context, s domain.Statistics) {
	msg, err := json.Marshal(s)
	if err != nil {
		slog.Error("stream: marshal statistics", "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slog.Warn("stream: client buffer full, dropping snapshot")
		}
	}
}

// Clients devuelve el número de clientes conectados.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve hace el upgrade, envía el snapshot inicial y bloquea hasta que el
// cliente se desconecta.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, initial domain.Statistics) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("stream: upgrade failed", "err", err)
		return
	}

	c := &streamClient{conn: conn, send: make(chan []byte, sendBuffer)}
	if msg, err := json.Marshal(initial); err == nil {
		c.send <- msg
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.StreamClients.Inc()
	}
	slog.Debug("stream: client connected", "remote", r.RemoteAddr)

	go h.writePump(c)
	h.readPump(c)
}

// readPump solo atiende pongs y el cierre; los mensajes del cliente se ignoran.
func (h *Hub) readPump(c *streamClient) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		close(c.send)
		h.mu.Unlock()
		if h.metrics != nil {
			h.metrics.StreamClients.Dec()
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *streamClient) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
