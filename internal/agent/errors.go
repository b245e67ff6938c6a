package agent

import "errors"

var (
	// ErrTransport marks a delivery that did not reach the server or was not
	// accepted by it. The snapshot stays buffered.
	ErrTransport = errors.New("transport failure")

	// ErrDeviceUnknown means the server no longer knows this device, so the
	// agent must register again.
	ErrDeviceUnknown = errors.New("device unknown to server")

	// ErrRejected means the server refused the payload itself (400 or 413).
	// Resending the same snapshot cannot succeed, so it is dropped.
	ErrRejected = errors.New("snapshot rejected by server")
)
