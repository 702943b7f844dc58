// internal/handler/websocket_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"receipt-emulator/internal/model"
	"receipt-emulator/internal/utils"
)

const (
	wsReadDeadline  = 60 * time.Second
	wsPingInterval  = 54 * time.Second
	wsWriteDeadline = 10 * time.Second
)

// WebSocketHandler streams job events to WebSocket clients
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	logger      *utils.ServiceLogger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(allowedOrigins []string, logger *zap.Logger) *WebSocketHandler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}

	return &WebSocketHandler{
		upgrader:    upgrader,
		connections: NewConnectionManager(),
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
	}
}

// HandleJobStream upgrades the request and streams job and listener events
// @Summary Live job feed
// @Description WebSocket stream of job.completed, job.failed, listener.started and listener.stopped events
// @Tags Jobs
// @Param source_type query string false "Only job events from this source type"
// @Param event_type query []string false "Only these event types" collectionFormat(multi)
// @Router /ws/jobs [get]
func (h *WebSocketHandler) HandleJobStream(c *gin.Context) {
	eventTypes, unknown := parseEventTypes(c.QueryArray("event_type"))
	if len(unknown) > 0 {
		utils.ValidationErrorResponse(c, map[string]string{"event_type": "unknown event type: " + unknown[0]})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 256),
		SourceType:  model.SourceType(c.Query("source_type")),
		EventTypes:  eventTypes,
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)
	h.logger.Info("Job stream client connected",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
	)

	h.sendMessage(client, &WebSocketMessage{
		Type:      "connected",
		Data:      map[string]interface{}{"client_id": client.ID},
		Timestamp: time.Now(),
	})

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// Run broadcasts events until ctx is done or events is closed, then
// disconnects every client
func (h *WebSocketHandler) Run(ctx context.Context, events <-chan model.Event) {
	defer h.connections.CloseAll()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			h.broadcastEvent(event)
		}
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	return h.connections.Count()
}

func (h *WebSocketHandler) broadcastEvent(event model.Event) {
	message := &WebSocketMessage{
		Type:      string(event.Type),
		Data:      event,
		Timestamp: event.Timestamp,
	}
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	sourceType, _ := event.Data["source_type"].(string)
	h.connections.Each(func(client *Client) {
		if !client.wants(event.Type, model.SourceType(sourceType)) {
			return
		}
		select {
		case client.Send <- messageBytes:
		default:
			h.logger.Warn("Client send channel full during broadcast",
				zap.String("client_id", client.ID),
			)
		}
	})
}

// handleClientRead handles reading messages from WebSocket client
func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
		h.logger.Info("Job stream client disconnected", zap.String("client_id", client.ID))
	}()

	client.Connection.SetReadDeadline(time.Now().Add(wsReadDeadline))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			return
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.sendError(client, "invalid message")
			continue
		}

		h.handleClientMessage(client, &message)
	}
}

// handleClientWrite handles writing messages to WebSocket client
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Error("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientMessage handles incoming client messages
func (h *WebSocketHandler) handleClientMessage(client *Client, message *WebSocketMessage) {
	switch message.Type {
	case "subscribe":
		var filter struct {
			SourceType string   `json:"source_type"`
			EventTypes []string `json:"event_types"`
		}
		if raw, err := json.Marshal(message.Data); err == nil {
			json.Unmarshal(raw, &filter)
		}
		eventTypes, unknown := parseEventTypes(filter.EventTypes)
		if len(unknown) > 0 {
			h.sendError(client, "unknown event type: "+unknown[0])
			return
		}
		client.setFilter(model.SourceType(filter.SourceType), eventTypes)
		h.sendMessage(client, &WebSocketMessage{
			Type: "subscription_confirmed",
			Data: map[string]interface{}{
				"source_type": filter.SourceType,
				"event_types": eventTypes,
			},
			Timestamp: time.Now(),
		})
	case "ping":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
		})
	default:
		h.sendError(client, "unknown message type: "+message.Type)
	}
}

// sendMessage queues a message for one client
func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	if !h.connections.Send(client, messageBytes) {
		h.logger.Warn("Client unavailable, dropping message",
			zap.String("client_id", client.ID),
		)
	}
}

// sendError sends an error message to a client
func (h *WebSocketHandler) sendError(client *Client, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type:      "error",
		Data:      map[string]interface{}{"error": errorMsg},
		Timestamp: time.Now(),
	})
}
