package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event is one Server-Sent Event pushed to the dashboard.
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// EventRepairStatusChanged is broadcast after every successful status
// transition so open dashboards refresh their repair board.
const EventRepairStatusChanged = "repair.status_changed"

// Client is one connected dashboard session.
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub fans events out to all connected clients. A client whose channel is
// full misses the event; the dashboard reconciles on its next full fetch.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a client.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("sse client registered",
		zap.String("client_id", client.ID),
		zap.String("user_id", client.UserID),
		zap.Int("total", len(h.clients)),
	)
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("sse client unregistered",
			zap.String("client_id", clientID),
			zap.Int("total", len(h.clients)),
		)
	}
}

// Broadcast sends an event to every connected client without blocking.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
		}
	}
}

// BroadcastJSON marshals payload and broadcasts it under eventType.
func (h *Hub) BroadcastJSON(eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("sse payload marshal failed", zap.Error(err))
		return
	}
	h.Broadcast(Event{EventType: eventType, Data: string(data)})
}
