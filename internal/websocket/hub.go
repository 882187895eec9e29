package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukerupert/gahshomar/internal/model"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Message is a change notification for one calendar item. FirstDay and
// LastDay are the day keys the item touches so clients can rebuild only the
// affected cells.
type Message struct {
	Type     string              `json:"type"`
	Action   string              `json:"action"`
	ID       string              `json:"id"`
	Item     *model.CalendarItem `json:"item,omitempty"`
	FirstDay string              `json:"first_day,omitempty"`
	LastDay  string              `json:"last_day,omitempty"`
}

// ItemMessage builds an item_<action> message. Deleted items are sent
// without a body.
func ItemMessage(action string, item model.CalendarItem) Message {
	msg := Message{
		Type:   "item_" + action,
		Action: action,
		ID:     item.ID,
	}
	if item.Schedule != nil {
		first, last := item.Schedule.Span()
		msg.FirstDay, msg.LastDay = first.DayKey(), last.DayKey()
	}
	if action != ActionDeleted {
		it := item
		msg.Item = &it
	}
	return msg
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends msg to every client whose watched days overlap it.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.window.overlaps(msg.FirstDay, msg.LastDay) {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Warn("client buffer full, dropping message", "type", msg.Type, "id", msg.ID)
		}
	}
}

// ItemChanged broadcasts a change to item.
func (h *Hub) ItemChanged(action string, item model.CalendarItem) {
	h.Broadcast(ItemMessage(action, item))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
