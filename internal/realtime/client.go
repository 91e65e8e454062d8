package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Inbound is a frame sent by a client.
type Inbound struct {
	Type        string `json:"type"`
	HouseholdID uint64 `json:"householdId,omitempty"`
}

// InboundHandler reacts to one client frame.
type InboundHandler func(ctx context.Context, c *Client, msg Inbound)

// Client represents a single authenticated websocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	UserID uint64
}

// NewClient creates a Client tied to the given hub and connection.
func NewClient(hub *Hub, conn *websocket.Conn, userID uint64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		UserID: userID,
	}
}

func (c *Client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Reply queues a frame for this client only.
func (c *Client) Reply(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; ok {
		c.enqueue(data)
	}
}

// Run starts the write pump and runs the read pump until the connection
// closes, then unregisters the client.
func (c *Client) Run(ctx context.Context, onMessage InboundHandler) {
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx, onMessage)
}

func (c *Client) readPump(ctx context.Context, onMessage InboundHandler) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if onMessage != nil {
			onMessage(ctx, c, msg)
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
