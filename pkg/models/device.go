package models

import "time"

// DeviceStatus is the liveness state reported for a device.
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusOffline DeviceStatus = "offline"
)

// DefaultLocation is stored when a registration omits the location.
const DefaultLocation = "Unknown"

// Device is a monitored host as persisted by the server. Hostname is unique.
// Liveness is not stored; it is derived from LastSeen when the device is read.
type Device struct {
	ID             int64     `json:"id"`
	Hostname       string    `json:"hostname"`
	Username       string    `json:"username"`
	Location       string    `json:"location"`
	LastSeen       time.Time `json:"last_seen"`
	ConnectionType string    `json:"connection_type"`
	WifiSSID       string    `json:"wifi_ssid"`
	SignalStrength string    `json:"signal_strength"`
	InternalIP     string    `json:"internal_ip"`
	ExternalIP     string    `json:"external_ip"`
	CreatedAt      time.Time `json:"created_at"`
}

// Status derives liveness from LastSeen: a device not heard from within
// staleAfter is offline.
func (d *Device) Status(now time.Time, staleAfter time.Duration) DeviceStatus {
	if d.LastSeen.IsZero() || now.Sub(d.LastSeen) > staleAfter {
		return DeviceStatusOffline
	}
	return DeviceStatusOnline
}

// DeviceSummary is the GET /devices representation. LastSeen is rendered in
// the display time zone.
type DeviceSummary struct {
	ID             int64        `json:"id" example:"1"`
	Hostname       string       `json:"hostname" example:"front-desk-pc"`
	Username       string       `json:"username" example:"front-desk-pc"`
	Location       string       `json:"location" example:"Unknown"`
	LastSeen       string       `json:"last_seen" example:"2026-03-14T18:05:00+08:00"`
	ConnectionType string       `json:"connection_type" example:"Wi-Fi"`
	WifiSSID       string       `json:"wifi_ssid" example:"office-5g"`
	SignalStrength string       `json:"signal_strength" example:"-62 dBm"`
	Status         DeviceStatus `json:"status" example:"online"`
}

// RegisterRequest is the body of POST /devices. Every field is optional;
// the server falls back to its own identity when hostname is empty.
type RegisterRequest struct {
	Hostname string `json:"hostname,omitempty"`
	Username string `json:"username,omitempty"`
	Location string `json:"location,omitempty"`
}

// RegisterResponse is returned by POST /devices.
type RegisterResponse struct {
	ID      int64  `json:"id" example:"1"`
	Message string `json:"message" example:"Device registered successfully"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message" example:"Metrics updated successfully"`
}

// ErrorResponse carries a human-readable failure.
type ErrorResponse struct {
	Error string `json:"error" example:"Device not found"`
}
