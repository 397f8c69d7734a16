// Package realtime keeps websocket connections keyed by user id and delivers
// notifications to whichever of them are online.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"wellbe/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// Envelope is the frame written to websocket clients.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Client is one websocket connection of a user.
type Client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks live connections. A user may hold several (phone, browser).
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// Attach registers conn for userID and starts its pumps.
func (h *Hub) Attach(userID string, conn *websocket.Conn) *Client {
	c := &Client{hub: h, userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	go c.writePump()
	go c.readPump()
	return c
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.logger.Debug("realtime client registered", zap.String("userId", c.userID))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; ok {
		delete(set, c)
		close(c.send)
	}
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	h.logger.Debug("realtime client unregistered", zap.String("userId", c.userID))
}

// Online reports how many connections userID currently has.
func (h *Hub) Online(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Deliver writes a raw frame to every connection of userID. Slow clients whose
// buffer is full miss the frame rather than block the caller.
func (h *Hub) Deliver(userID string, frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.clients[userID] {
		select {
		case c.send <- frame:
			delivered++
		default:
			h.logger.Warn("realtime client buffer full, dropping frame", zap.String("userId", userID))
		}
	}
	return delivered
}

// Publish implements notification.Publisher for a single-instance deployment.
func (h *Hub) Publish(_ context.Context, userID string, n *models.Notification) error {
	frame, err := json.Marshal(Envelope{Type: "notification", Data: n})
	if err != nil {
		return fmt.Errorf("realtime: failed to encode notification: %w", err)
	}
	h.Deliver(userID, frame)
	return nil
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// Clients only listen; inbound frames are drained and ignored.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
