package telemetry

import (
	"database/sql"

	"github.com/HerbHall/netwatch/internal/store"
)

// Component is the migration namespace for telemetry tables.
const Component = "telemetry"

// Migrations returns the schema for devices and their metric samples.
func Migrations() []store.Migration {
	return []store.Migration{
		{
			Version:     1,
			Description: "create devices and metric_samples tables",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS devices (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						hostname TEXT NOT NULL UNIQUE,
						username TEXT NOT NULL DEFAULT '',
						location TEXT NOT NULL DEFAULT 'Unknown',
						last_seen TEXT NOT NULL,
						connection_type TEXT NOT NULL DEFAULT '',
						wifi_ssid TEXT NOT NULL DEFAULT '',
						signal_strength TEXT NOT NULL DEFAULT '',
						internal_ip TEXT NOT NULL DEFAULT '',
						external_ip TEXT NOT NULL DEFAULT '',
						created_at TEXT NOT NULL
					)`,

					`CREATE TABLE IF NOT EXISTS metric_samples (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						device_id INTEGER NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
						timestamp TEXT NOT NULL,
						dns_resolution_time REAL,
						download_speed REAL,
						upload_speed REAL,
						latency REAL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_metric_samples_device_time ON metric_samples(device_id, timestamp)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
