// internal/handler/websocket_types.go
package handler

import (
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"receipt-emulator/internal/model"
)

// Client represents a WebSocket client
type Client struct {
	ID          string            `json:"id"`
	Connection  *websocket.Conn   `json:"-"`
	Send        chan []byte       `json:"-"`
	SourceType  model.SourceType  `json:"source_type,omitempty"`
	EventTypes  []model.EventType `json:"event_types,omitempty"`
	UserAgent   string            `json:"user_agent"`
	RemoteAddr  string            `json:"remote_addr"`
	ConnectedAt time.Time         `json:"connected_at"`
	mutex       sync.RWMutex
}

// wants reports whether the event passes the client's filter. An empty
// filter field matches everything. Listener events carry no source type and
// are filtered by event type only.
func (c *Client) wants(eventType model.EventType, sourceType model.SourceType) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if len(c.EventTypes) > 0 && !slices.Contains(c.EventTypes, eventType) {
		return false
	}
	return c.SourceType == "" || sourceType == "" || c.SourceType == sourceType
}

func (c *Client) setFilter(sourceType model.SourceType, eventTypes []model.EventType) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.SourceType = sourceType
	c.EventTypes = eventTypes
}

// parseEventTypes keeps the names of known event types
func parseEventTypes(names []string) ([]model.EventType, []string) {
	var types []model.EventType
	var unknown []string
	for _, name := range names {
		t := model.EventType(name)
		switch t {
		case model.EventJobCompleted, model.EventJobFailed, model.EventListenerStarted, model.EventListenerStopped:
			types = append(types, t)
		default:
			unknown = append(unknown, name)
		}
	}
	return types, unknown
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ConnectionManager tracks connected WebSocket clients
type ConnectionManager struct {
	clients map[string]*Client
	mutex   sync.RWMutex
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]*Client),
	}
}

// Register registers a new client
func (cm *ConnectionManager) Register(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.clients[client.ID] = client
}

// Unregister removes a client and closes its send channel
func (cm *ConnectionManager) Unregister(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	if _, ok := cm.clients[client.ID]; ok {
		delete(cm.clients, client.ID)
		close(client.Send)
	}
}

// Each calls fn for every registered client while holding the registry lock,
// so no send channel is closed underneath fn
func (cm *ConnectionManager) Each(fn func(*Client)) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	for _, client := range cm.clients {
		fn(client)
	}
}

// Send queues a message for a registered client. It reports false when the
// client is gone or its buffer is full.
func (cm *ConnectionManager) Send(client *Client, message []byte) bool {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	if _, ok := cm.clients[client.ID]; !ok {
		return false
	}
	select {
	case client.Send <- message:
		return true
	default:
		return false
	}
}

// CloseAll unregisters every client
func (cm *ConnectionManager) CloseAll() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	for id, client := range cm.clients {
		delete(cm.clients, id)
		close(client.Send)
	}
}

// Count returns the number of connected clients
func (cm *ConnectionManager) Count() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.clients)
}
