// Package realtime fans domain events out to connected websocket clients.
//
// Delivery is best effort: there is no persistence, replay or acknowledgement,
// and a client whose send buffer is full misses the frame.
package realtime

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/yukikurage/household-api/internal/metrics"
	"go.uber.org/zap"
)

// Broadcaster publishes an event on a channel. Implementations never block
// the caller on slow consumers and never report failure.
type Broadcaster interface {
	Publish(channel, event string, payload any)
}

// HouseholdChannel reaches every connected member of a household.
func HouseholdChannel(householdID uint64) string {
	return "household:" + strconv.FormatUint(householdID, 10)
}

// UserChannel reaches every connection of a single user.
func UserChannel(userID uint64) string {
	return "user:" + strconv.FormatUint(userID, 10)
}

// EventMembershipRevoked is published on a user channel when the user loses
// access to a household. Every hub that delivers it also unsubscribes that
// user's clients from the household channel.
const EventMembershipRevoked = "membership_revoked"

// MembershipRevoked is the payload of EventMembershipRevoked.
type MembershipRevoked struct {
	HouseholdID uint64 `json:"household_id"`
}

// Frame is the JSON shape written to clients.
type Frame struct {
	Event   string `json:"event"`
	Channel string `json:"channel,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Hub keeps the process-local room table.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]map[string]struct{}
	logger  *zap.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]map[string]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.clients[c] = make(map[string]struct{})
	}
	h.mu.Unlock()
}

// Unregister removes a client from every room and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channels, ok := h.clients[c]
	if !ok {
		return
	}
	for channel := range channels {
		h.removeFromRoom(c, channel)
	}
	delete(h.clients, c)
	close(c.send)
}

// Join subscribes a registered client to channel.
func (h *Hub) Join(c *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channels, ok := h.clients[c]
	if !ok {
		return
	}
	room, ok := h.rooms[channel]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[channel] = room
	}
	room[c] = struct{}{}
	channels[channel] = struct{}{}
}

// Leave unsubscribes a client from channel.
func (h *Hub) Leave(c *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if channels, ok := h.clients[c]; ok {
		delete(channels, channel)
		h.removeFromRoom(c, channel)
	}
}

func (h *Hub) removeFromRoom(c *Client, channel string) {
	room, ok := h.rooms[channel]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, channel)
	}
}

// Publish sends a frame to every client in channel.
func (h *Hub) Publish(channel, event string, payload any) {
	data, err := json.Marshal(Frame{Event: event, Channel: channel, Data: payload})
	if err != nil {
		h.logger.Error("marshal realtime frame", zap.String("event", event), zap.Error(err))
		return
	}

	h.deliver(channel, data)
	if event == EventMembershipRevoked {
		if revoked, ok := decodeRevoked(payload); ok {
			h.evict(channel, HouseholdChannel(revoked.HouseholdID))
		}
	}
}

func (h *Hub) deliver(channel string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[channel] {
		if c.enqueue(data) {
			metrics.RecordFrame(metrics.FrameDelivered)
		} else {
			metrics.RecordFrame(metrics.FrameDropped)
		}
	}
}

// evict removes every client of the from room from the target room.
func (h *Hub) evict(from, target string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.rooms[from] {
		delete(h.clients[c], target)
		h.removeFromRoom(c, target)
	}
}

// decodeRevoked accepts the typed payload from local publishers and the raw
// JSON handed over by the redis relay.
func decodeRevoked(payload any) (MembershipRevoked, bool) {
	switch p := payload.(type) {
	case MembershipRevoked:
		return p, true
	case *MembershipRevoked:
		if p == nil {
			return MembershipRevoked{}, false
		}
		return *p, true
	case json.RawMessage:
		var out MembershipRevoked
		if err := json.Unmarshal(p, &out); err != nil {
			return MembershipRevoked{}, false
		}
		return out, true
	}
	return MembershipRevoked{}, false
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of clients subscribed to channel.
func (h *Hub) RoomSize(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[channel])
}
