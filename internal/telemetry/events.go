package telemetry

// Topics published on the event bus.
const (
	TopicDeviceRegistered = "telemetry.device.registered"
	TopicMetricsIngested  = "telemetry.metrics.ingested"
	TopicDeviceDeleted    = "telemetry.device.deleted"
	TopicDeviceOffline    = "telemetry.device.offline"
	TopicDeviceOnline     = "telemetry.device.online"
)

const eventSource = "telemetry"

// DeviceEvent is the payload of registration, deletion, and liveness events.
type DeviceEvent struct {
	DeviceID int64  `json:"device_id"`
	Hostname string `json:"hostname,omitempty"`
	Created  bool   `json:"created,omitempty"`
}

// MetricsEvent is the payload of TopicMetricsIngested.
type MetricsEvent struct {
	DeviceID          int64    `json:"device_id"`
	SampleID          int64    `json:"sample_id"`
	DNSResolutionTime *float64 `json:"dns_resolution_time"`
	DownloadSpeed     *float64 `json:"download_speed"`
	UploadSpeed       *float64 `json:"upload_speed"`
	Latency           *float64 `json:"latency"`
}
