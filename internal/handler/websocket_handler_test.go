package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"receipt-emulator/internal/model"
)

func startJobStream(t *testing.T) (*WebSocketHandler, chan model.Event, string) {
	t.Helper()

	h := NewWebSocketHandler([]string{"*"}, zap.NewNop())
	events := make(chan model.Event, 8)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx, events)

	router := gin.New()
	router.GET("/ws/jobs", h.HandleJobStream)
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	return h, events, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/jobs"
}

func dialJobStream(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if msg := readMessage(t, conn); msg.Type != "connected" {
		t.Fatalf("first message = %q, want connected", msg.Type)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WebSocketMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WebSocketMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func jobEvent(eventType model.EventType, sourceType model.SourceType) model.Event {
	return model.Event{
		Type:      eventType,
		Source:    string(sourceType) + "-test",
		Data:      model.JSONObject{"source_type": string(sourceType)},
		Timestamp: time.Now(),
	}
}

func TestJobStreamBroadcast(t *testing.T) {
	h, events, url := startJobStream(t)
	conn := dialJobStream(t, url)

	if h.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", h.ClientCount())
	}

	events <- jobEvent(model.EventJobCompleted, model.SourceTCP)
	if msg := readMessage(t, conn); msg.Type != string(model.EventJobCompleted) {
		t.Errorf("message type = %q", msg.Type)
	}
}

func TestJobStreamFilters(t *testing.T) {
	_, events, url := startJobStream(t)

	failedOnly := dialJobStream(t, url+"?event_type=job.failed")
	serialOnly := dialJobStream(t, url+"?source_type=SERIAL")

	events <- jobEvent(model.EventJobCompleted, model.SourceTCP)
	events <- jobEvent(model.EventJobFailed, model.SourceTCP)
	events <- model.Event{Type: model.EventListenerStopped, Source: "tcp", Timestamp: time.Now()}

	if msg := readMessage(t, failedOnly); msg.Type != string(model.EventJobFailed) {
		t.Errorf("event_type filter delivered %q first", msg.Type)
	}
	// listener events have no source type and pass a source filter
	if msg := readMessage(t, serialOnly); msg.Type != string(model.EventListenerStopped) {
		t.Errorf("source_type filter delivered %q first", msg.Type)
	}
}

func TestJobStreamSubscribeMessage(t *testing.T) {
	_, events, url := startJobStream(t)
	conn := dialJobStream(t, url)

	err := conn.WriteJSON(WebSocketMessage{
		Type: "subscribe",
		Data: map[string]interface{}{"event_types": []string{"listener.started"}},
	})
	if err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != "subscription_confirmed" {
		t.Fatalf("reply = %q, want subscription_confirmed", msg.Type)
	}

	events <- jobEvent(model.EventJobCompleted, model.SourceTCP)
	events <- model.Event{Type: model.EventListenerStarted, Source: "tcp", Timestamp: time.Now()}
	if msg := readMessage(t, conn); msg.Type != string(model.EventListenerStarted) {
		t.Errorf("message type = %q, want listener.started", msg.Type)
	}

	conn.WriteJSON(WebSocketMessage{
		Type: "subscribe",
		Data: map[string]interface{}{"event_types": []string{"job.exploded"}},
	})
	msg := readMessage(t, conn)
	data, _ := json.Marshal(msg.Data)
	if msg.Type != "error" || !strings.Contains(string(data), "job.exploded") {
		t.Errorf("reply = %s %s, want error naming the event type", msg.Type, data)
	}
}

func TestJobStreamRejectsUnknownEventType(t *testing.T) {
	h := NewWebSocketHandler(nil, zap.NewNop())
	router := gin.New()
	router.GET("/ws/jobs", h.HandleJobStream)

	req := httptest.NewRequest(http.MethodGet, "/ws/jobs?event_type=printer.on_fire", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
