package ws

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/HerbHall/netwatch/internal/event"
	"github.com/HerbHall/netwatch/internal/telemetry"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Subscriber is the part of the event bus the handler needs.
type Subscriber interface {
	Subscribe(topic string, h event.Handler) func()
}

// Handler serves the telemetry stream.
type Handler struct {
	hub    *Hub
	logger *zap.Logger
	unsubs []func()
}

var _ interface {
	RegisterRoutes(mux *http.ServeMux)
} = (*Handler)(nil)

var topicTypes = map[string]MessageType{
	telemetry.TopicDeviceRegistered: MessageDeviceRegistered,
	telemetry.TopicMetricsIngested:  MessageMetricsIngested,
	telemetry.TopicDeviceDeleted:    MessageDeviceDeleted,
	telemetry.TopicDeviceOffline:    MessageDeviceOffline,
	telemetry.TopicDeviceOnline:     MessageDeviceOnline,
}

// NewHandler creates the stream handler and subscribes it to telemetry
// events on bus.
func NewHandler(bus Subscriber, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:    NewHub(logger),
		logger: logger,
	}
	if bus != nil {
		for topic, typ := range topicTypes {
			h.unsubs = append(h.unsubs, bus.Subscribe(topic, h.forward(typ)))
		}
	}
	return h
}

// RegisterRoutes registers the stream endpoint.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws/telemetry", h.handleStream)
}

// Close detaches the handler from the event bus.
func (h *Handler) Close() {
	for _, unsub := range h.unsubs {
		unsub()
	}
	h.unsubs = nil
}

// handleStream upgrades the connection and streams events until the client
// goes away. ?device_id=N limits the stream to one device.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	var deviceID int64
	if s := r.URL.Query().Get("device_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "invalid device_id", http.StatusBadRequest)
			return
		}
		deviceID = id
	}

	// Streams outlive the server's per-request deadlines.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Credentials are checked by the auth middleware before the upgrade.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		id:       uuid.NewString(),
		deviceID: deviceID,
		conn:     conn,
		send:     make(chan Message, 256),
		logger:   h.logger,
	}
	h.hub.Register(client)

	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	client.readPump(ctx)

	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

func (h *Handler) forward(typ MessageType) event.Handler {
	return func(_ context.Context, e event.Event) {
		msg := Message{Type: typ, Timestamp: e.Timestamp, Data: e.Payload}
		switch p := e.Payload.(type) {
		case telemetry.DeviceEvent:
			msg.DeviceID = p.DeviceID
		case telemetry.MetricsEvent:
			msg.DeviceID = p.DeviceID
		default:
			return
		}
		h.hub.Broadcast(msg)
	}
}
