package models

import (
	"testing"
	"time"
)

func TestDeviceStatus(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	stale := 15 * time.Minute

	tests := []struct {
		name     string
		lastSeen time.Time
		want     DeviceStatus
	}{
		{"never seen", time.Time{}, DeviceStatusOffline},
		{"just now", now, DeviceStatusOnline},
		{"at the threshold", now.Add(-stale), DeviceStatusOnline},
		{"past the threshold", now.Add(-stale - time.Second), DeviceStatusOffline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Device{LastSeen: tt.lastSeen}
			if got := d.Status(now, stale); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}
