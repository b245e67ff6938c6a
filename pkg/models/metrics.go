package models

import "time"

// ConnectionInfo describes the active network link of a device.
type ConnectionInfo struct {
	ConnectionType string `json:"connection_type,omitempty"`
	WifiSSID       string `json:"wifi_ssid,omitempty"`
	SignalStrength string `json:"signal_strength,omitempty"`
}

// IPAddresses holds the LAN address and the address seen from the internet.
type IPAddresses struct {
	InternalIP string `json:"internal_ip,omitempty"`
	ExternalIP string `json:"external_ip,omitempty"`
}

// SpeedTest is a throughput measurement in Mbps.
type SpeedTest struct {
	Download *float64 `json:"download"`
	Upload   *float64 `json:"upload"`
}

// DeviceIdentity identifies the host a snapshot was taken on.
type DeviceIdentity struct {
	Hostname string `json:"hostname"`
	Username string `json:"username"`
	System   string `json:"system,omitempty"`
	Version  string `json:"version,omitempty"`
}

// Submission is the body of POST /devices/{id}/metrics. Pointer fields are
// nullable: a nil value means the measurement was unavailable and is stored
// as NULL, never as zero.
type Submission struct {
	Timestamp         *time.Time          `json:"timestamp,omitempty"`
	DeviceInfo        *DeviceIdentity     `json:"device_info,omitempty"`
	ConnectionInfo    ConnectionInfo      `json:"connection_info"`
	IPAddresses       IPAddresses         `json:"ip_addresses"`
	DNSResolutionTime *float64            `json:"dns_resolution_time"`
	SpeedTest         *SpeedTest          `json:"speed_test,omitempty"`
	PingResults       map[string]*float64 `json:"ping_results"`
}

// MetricSample is one immutable stored measurement.
type MetricSample struct {
	ID                int64     `json:"id"`
	DeviceID          int64     `json:"device_id"`
	Timestamp         time.Time `json:"timestamp"`
	DNSResolutionTime *float64  `json:"dns_resolution_time"`
	DownloadSpeed     *float64  `json:"download_speed"`
	UploadSpeed       *float64  `json:"upload_speed"`
	Latency           *float64  `json:"latency"`
}

// MetricPoint is the GET /devices/{id}/metrics representation of a sample,
// with the timestamp rendered in the display time zone.
type MetricPoint struct {
	Timestamp         string   `json:"timestamp" example:"2026-03-14T18:05:00+08:00"`
	DNSResolutionTime *float64 `json:"dns_resolution_time" example:"12.5"`
	DownloadSpeed     *float64 `json:"download_speed"`
	UploadSpeed       *float64 `json:"upload_speed"`
	Latency           *float64 `json:"latency" example:"20.1"`
}

// Float returns a pointer to v, for building nullable measurements.
func Float(v float64) *float64 {
	return &v
}
