// Package telemetry ingests device registrations and metric submissions,
// stores them, and answers time-bucketed queries.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/netwatch/internal/event"
	"github.com/HerbHall/netwatch/internal/probe"
	"github.com/HerbHall/netwatch/pkg/models"
	"go.uber.org/zap"
)

// ErrInvalidDevice is returned when a registration has no usable hostname.
var ErrInvalidDevice = errors.New("hostname is required")

// Config holds ingest and query settings.
type Config struct {
	// LatencyHost selects which ping result is stored as a sample's latency.
	LatencyHost string `mapstructure:"latency_host"`
	// StaleAfter is how long a device may go unheard before it is offline.
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// DefaultConfig returns the default ingest settings.
func DefaultConfig() Config {
	return Config{
		LatencyHost: "8.8.8.8",
		StaleAfter:  15 * time.Minute,
	}
}

// DeviceState is a device with its liveness derived at read time.
type DeviceState struct {
	models.Device
	Status models.DeviceStatus
}

// Service is the server ingestor and query API.
type Service struct {
	store  *Store
	probes probe.Set
	bus    event.Publisher
	tasks  *Tasks
	poll   TaskFunc
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the ingestor. probes supplies the server's own identity
// and the ad-hoc speed test; bus may be nil.
func NewService(st *Store, probes probe.Set, bus event.Publisher, tasks *Tasks, cfg Config, logger *zap.Logger) *Service {
	if cfg.LatencyHost == "" {
		cfg.LatencyHost = DefaultConfig().LatencyHost
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultConfig().StaleAfter
	}
	return &Service{
		store:  st,
		probes: probes,
		bus:    bus,
		tasks:  tasks,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// EnablePolling makes newly registered devices get a collection task
// running fn. Devices already stored are started by StartPolling.
func (s *Service) EnablePolling(fn TaskFunc) {
	s.poll = fn
}

// StartPolling launches a collection task for every stored device.
func (s *Service) StartPolling(ctx context.Context) error {
	if s.poll == nil {
		return nil
	}
	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	for i := range devices {
		s.tasks.Start(devices[i].ID, s.poll)
	}
	return nil
}

// RegisterDevice upserts a device by hostname and reports whether it was
// newly created. An empty hostname falls back to this host's identity.
// Defaults apply only to new devices; re-registering without a username or
// location keeps the stored values.
func (s *Service) RegisterDevice(ctx context.Context, req models.RegisterRequest) (int64, bool, error) {
	defaults := DeviceDefaults{Location: models.DefaultLocation}
	if req.Hostname == "" {
		id, err := s.probes.DeviceIdentity()
		if err != nil || id.Hostname == "" {
			return 0, false, fmt.Errorf("%w: %v", ErrInvalidDevice, err)
		}
		req.Hostname = id.Hostname
		defaults.Username = id.Username
	}
	if defaults.Username == "" {
		defaults.Username = req.Hostname
	}

	now := s.now().UTC()
	d := &models.Device{
		Hostname:  req.Hostname,
		Username:  req.Username,
		Location:  req.Location,
		LastSeen:  now,
		CreatedAt: now,
	}
	created, err := s.store.UpsertDevice(ctx, d, defaults)
	if err != nil {
		ingestErrorsTotal.WithLabelValues("storage").Inc()
		return 0, false, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if created {
		registrationsTotal.WithLabelValues("created").Inc()
		s.logger.Info("device registered", zap.Int64("device_id", d.ID), zap.String("hostname", d.Hostname))
		if s.poll != nil {
			s.tasks.Start(d.ID, s.poll)
		}
	} else {
		registrationsTotal.WithLabelValues("updated").Inc()
		s.logger.Debug("device re-registered", zap.Int64("device_id", d.ID), zap.String("hostname", d.Hostname))
	}

	s.publish(ctx, TopicDeviceRegistered, DeviceEvent{DeviceID: d.ID, Hostname: d.Hostname, Created: created})
	return d.ID, created, nil
}

// maxClockSkew bounds how far an agent timestamp may sit ahead of the server
// clock, or before the device's registration, and still be kept.
const maxClockSkew = 5 * time.Minute

// SubmitMetrics records a snapshot for a device: its connectivity fields are
// overwritten, last_seen is refreshed, and one sample is appended. Absent
// measurements are stored as NULL. An agent timestamp outside
// [created_at - maxClockSkew, now + maxClockSkew] is replaced by server time.
func (s *Service) SubmitMetrics(ctx context.Context, deviceID int64, sub *models.Submission) error {
	d, err := s.device(ctx, deviceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			ingestErrorsTotal.WithLabelValues("not_found").Inc()
		} else {
			ingestErrorsTotal.WithLabelValues("storage").Inc()
		}
		return err
	}

	now := s.now().UTC()
	ts := now
	if sub.Timestamp != nil && !sub.Timestamp.IsZero() {
		ts = sub.Timestamp.UTC()
		if ts.After(now.Add(maxClockSkew)) || ts.Before(d.CreatedAt.Add(-maxClockSkew)) {
			s.logger.Debug("agent timestamp out of range, using server time",
				zap.Int64("device_id", deviceID),
				zap.Time("agent_time", ts),
				zap.Time("created_at", d.CreatedAt),
			)
			ts = now
		}
	}

	sample := &models.MetricSample{
		DeviceID:          deviceID,
		Timestamp:         ts,
		DNSResolutionTime: sub.DNSResolutionTime,
		Latency:           sub.PingResults[s.cfg.LatencyHost],
	}
	if sub.SpeedTest != nil {
		sample.DownloadSpeed = sub.SpeedTest.Download
		sample.UploadSpeed = sub.SpeedTest.Upload
	}

	found, err := s.store.RecordSubmission(ctx, sub.ConnectionInfo, sub.IPAddresses, now, sample)
	if err != nil {
		ingestErrorsTotal.WithLabelValues("storage").Inc()
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !found {
		ingestErrorsTotal.WithLabelValues("not_found").Inc()
		return ErrNotFound
	}

	samplesIngestedTotal.WithLabelValues("submission").Inc()
	s.publish(ctx, TopicMetricsIngested, metricsEvent(sample))
	return nil
}

// RunAdHocSpeedTest runs the server's throughput probe on behalf of a device
// and stores the result as a sample with only the speed fields set. Nothing
// is stored when the probe fails.
func (s *Service) RunAdHocSpeedTest(ctx context.Context, deviceID int64) (probe.Throughput, error) {
	if _, err := s.device(ctx, deviceID); err != nil {
		return probe.Throughput{}, err
	}

	tp, err := s.probes.ThroughputTest(ctx)
	if err != nil {
		s.logger.Warn("ad-hoc speed test failed", zap.Int64("device_id", deviceID), zap.Error(err))
		return probe.Throughput{}, fmt.Errorf("speed test: %w", err)
	}

	sample := &models.MetricSample{
		DeviceID:      deviceID,
		Timestamp:     s.now().UTC(),
		DownloadSpeed: models.Float(tp.Download),
		UploadSpeed:   models.Float(tp.Upload),
	}
	if err := s.store.InsertSample(ctx, sample); err != nil {
		ingestErrorsTotal.WithLabelValues("storage").Inc()
		return probe.Throughput{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	samplesIngestedTotal.WithLabelValues("speedtest").Inc()
	s.publish(ctx, TopicMetricsIngested, metricsEvent(sample))
	return tp, nil
}

// DeleteDevice removes a device and its samples and cancels its collection
// task.
func (s *Service) DeleteDevice(ctx context.Context, deviceID int64) error {
	s.tasks.Cancel(deviceID)

	found, err := s.store.DeleteDevice(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !found {
		return ErrNotFound
	}

	s.logger.Info("device deleted", zap.Int64("device_id", deviceID))
	s.publish(ctx, TopicDeviceDeleted, DeviceEvent{DeviceID: deviceID})
	return nil
}

// ListMetrics returns the device's samples since the start of the current
// hour, day, or month (UTC), oldest first.
func (s *Service) ListMetrics(ctx context.Context, deviceID int64, tf Timeframe) ([]models.MetricSample, error) {
	if _, err := s.device(ctx, deviceID); err != nil {
		return nil, err
	}
	samples, err := s.store.ListSamples(ctx, deviceID, tf.Cutoff(s.now()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return samples, nil
}

// ListDevices returns every device with its derived status.
func (s *Service) ListDevices(ctx context.Context) ([]DeviceState, error) {
	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	now := s.now()
	out := make([]DeviceState, len(devices))
	for i := range devices {
		out[i] = DeviceState{
			Device: devices[i],
			Status: devices[i].Status(now, s.cfg.StaleAfter),
		}
	}
	return out, nil
}

func (s *Service) device(ctx context.Context, id int64) (*models.Device, error) {
	d, err := s.store.GetDevice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if d == nil {
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *Service) publish(ctx context.Context, topic string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event.Event{Topic: topic, Source: eventSource, Payload: payload})
}

func metricsEvent(m *models.MetricSample) MetricsEvent {
	return MetricsEvent{
		DeviceID:          m.DeviceID,
		SampleID:          m.ID,
		DNSResolutionTime: m.DNSResolutionTime,
		DownloadSpeed:     m.DownloadSpeed,
		UploadSpeed:       m.UploadSpeed,
		Latency:           m.Latency,
	}
}
