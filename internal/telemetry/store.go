package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/netwatch/internal/store"
	"github.com/HerbHall/netwatch/pkg/models"
)

// timeLayout is fixed-width so that stored timestamps sort lexically in
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// Store provides database access for devices and metric samples.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// -- Devices --

// DeviceDefaults fills attributes a new device was registered without.
type DeviceDefaults struct {
	Username string
	Location string
}

// UpsertDevice inserts d keyed by hostname, taking empty attributes from
// defaults. For an existing row only last_seen is refreshed, plus username
// and location when d carries them; empty values keep what is stored.
// d.ID is set either way.
func (s *Store) UpsertDevice(ctx context.Context, d *models.Device, defaults DeviceDefaults) (created bool, err error) {
	err = store.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM devices WHERE hostname = ?`, d.Hostname,
		).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if d.Username == "" {
				d.Username = defaults.Username
			}
			if d.Location == "" {
				d.Location = defaults.Location
			}
			res, err := tx.ExecContext(ctx, `
				INSERT INTO devices (hostname, username, location, last_seen, created_at)
				VALUES (?, ?, ?, ?, ?)`,
				d.Hostname, d.Username, d.Location, formatTime(d.LastSeen), formatTime(d.CreatedAt),
			)
			if err != nil {
				return fmt.Errorf("insert device: %w", err)
			}
			if d.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("insert device id: %w", err)
			}
			created = true
			return nil
		case err != nil:
			return fmt.Errorf("lookup device: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE devices SET
				username  = COALESCE(NULLIF(?, ''), username),
				location  = COALESCE(NULLIF(?, ''), location),
				last_seen = ?
			WHERE id = ?`,
			d.Username, d.Location, formatTime(d.LastSeen), id,
		); err != nil {
			return fmt.Errorf("update device: %w", err)
		}
		d.ID = id
		return nil
	})
	return created, err
}

const deviceColumns = `id, hostname, username, location, last_seen, connection_type,
	wifi_ssid, signal_strength, internal_ip, external_ip, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*models.Device, error) {
	var d models.Device
	var lastSeen, createdAt string
	if err := row.Scan(
		&d.ID, &d.Hostname, &d.Username, &d.Location, &lastSeen, &d.ConnectionType,
		&d.WifiSSID, &d.SignalStrength, &d.InternalIP, &d.ExternalIP, &createdAt,
	); err != nil {
		return nil, err
	}
	var err error
	if d.LastSeen, err = parseTime(lastSeen); err != nil {
		return nil, err
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDevice returns a device by ID. Returns nil, nil if not found.
func (s *Store) GetDevice(ctx context.Context, id int64) (*models.Device, error) {
	d, err := scanDevice(s.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get device: %w", err)
	}
	return d, nil
}

// ListDevices returns every device ordered by ID.
func (s *Store) ListDevices(ctx context.Context) ([]models.Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, *d)
	}
	return devices, rows.Err()
}

// DeleteDevice removes a device and all of its samples in one transaction.
// Returns false if the device did not exist.
func (s *Store) DeleteDevice(ctx context.Context, id int64) (bool, error) {
	var found bool
	err := store.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM metric_samples WHERE device_id = ?`, id); err != nil {
			return fmt.Errorf("delete samples: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete device: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete device rows: %w", err)
		}
		found = n > 0
		return nil
	})
	return found, err
}

// -- Samples --

// RecordSubmission overwrites the device's connectivity fields, refreshes
// last_seen, and appends sample, all in one transaction. Returns false if
// the device does not exist, in which case nothing is written.
func (s *Store) RecordSubmission(ctx context.Context, conn models.ConnectionInfo, ips models.IPAddresses, seen time.Time, sample *models.MetricSample) (bool, error) {
	var found bool
	err := store.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE devices SET
				connection_type = ?, wifi_ssid = ?, signal_strength = ?,
				internal_ip = ?, external_ip = ?, last_seen = ?
			WHERE id = ?`,
			conn.ConnectionType, conn.WifiSSID, conn.SignalStrength,
			ips.InternalIP, ips.ExternalIP, formatTime(seen), sample.DeviceID,
		)
		if err != nil {
			return fmt.Errorf("update device: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update device rows: %w", err)
		}
		if n == 0 {
			return nil
		}
		found = true
		return insertSample(ctx, tx, sample)
	})
	return found, err
}

// InsertSample appends a sample without touching the device row.
func (s *Store) InsertSample(ctx context.Context, sample *models.MetricSample) error {
	return store.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		return insertSample(ctx, tx, sample)
	})
}

func insertSample(ctx context.Context, tx *sql.Tx, m *models.MetricSample) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO metric_samples (
			device_id, timestamp, dns_resolution_time, download_speed, upload_speed, latency
		) VALUES (?, ?, ?, ?, ?, ?)`,
		m.DeviceID, formatTime(m.Timestamp),
		m.DNSResolutionTime, m.DownloadSpeed, m.UploadSpeed, m.Latency,
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert sample id: %w", err)
	}
	return nil
}

// ListSamples returns a device's samples with timestamp >= since, oldest first.
func (s *Store) ListSamples(ctx context.Context, deviceID int64, since time.Time) ([]models.MetricSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, device_id, timestamp, dns_resolution_time, download_speed, upload_speed, latency
		FROM metric_samples
		WHERE device_id = ? AND timestamp >= ?
		ORDER BY timestamp ASC, id ASC`,
		deviceID, formatTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	var samples []models.MetricSample
	for rows.Next() {
		var m models.MetricSample
		var ts string
		var dns, down, up, lat sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.DeviceID, &ts, &dns, &down, &up, &lat); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		if m.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		m.DNSResolutionTime = nullFloat(dns)
		m.DownloadSpeed = nullFloat(down)
		m.UploadSpeed = nullFloat(up)
		m.Latency = nullFloat(lat)
		samples = append(samples, m)
	}
	return samples, rows.Err()
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
