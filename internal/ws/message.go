package ws

import "time"

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageDeviceRegistered MessageType = "device.registered"
	MessageMetricsIngested  MessageType = "metrics.ingested"
	MessageDeviceDeleted    MessageType = "device.deleted"
	MessageDeviceOffline    MessageType = "device.offline"
	MessageDeviceOnline     MessageType = "device.online"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType `json:"type"`
	DeviceID  int64       `json:"device_id"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}
