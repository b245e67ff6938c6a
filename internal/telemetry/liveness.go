package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/HerbHall/netwatch/internal/event"
	"github.com/HerbHall/netwatch/pkg/models"
	"go.uber.org/zap"
)

// Monitor periodically derives every device's status and publishes an event
// when it changes. Status is never written back to storage.
type Monitor struct {
	svc      *Service
	bus      event.Publisher
	interval time.Duration
	logger   *zap.Logger

	mu   sync.Mutex
	last map[int64]models.DeviceStatus

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor creates a liveness monitor sweeping every interval.
func NewMonitor(svc *Service, bus event.Publisher, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Monitor{
		svc:      svc,
		bus:      bus,
		interval: interval,
		logger:   logger,
		last:     make(map[int64]models.DeviceStatus),
	}
}

// Start begins the sweep loop in the background.
func (m *Monitor) Start(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.Sweep(m.ctx)

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.Sweep(m.ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to finish.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// Sweep runs one pass. The first observation of a device records its status
// without publishing.
func (m *Monitor) Sweep(ctx context.Context) {
	devices, err := m.svc.ListDevices(ctx)
	if err != nil {
		m.logger.Warn("liveness sweep failed", zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[int64]struct{}, len(devices))
	counts := map[models.DeviceStatus]int{}
	for i := range devices {
		d := &devices[i]
		seen[d.ID] = struct{}{}
		counts[d.Status]++

		prev, known := m.last[d.ID]
		m.last[d.ID] = d.Status
		if !known || prev == d.Status {
			continue
		}

		topic := TopicDeviceOnline
		if d.Status == models.DeviceStatusOffline {
			topic = TopicDeviceOffline
		}
		m.logger.Info("device status changed",
			zap.Int64("device_id", d.ID),
			zap.String("hostname", d.Hostname),
			zap.String("status", string(d.Status)),
		)
		if m.bus != nil {
			m.bus.Publish(ctx, event.Event{
				Topic:   topic,
				Source:  eventSource,
				Payload: DeviceEvent{DeviceID: d.ID, Hostname: d.Hostname},
			})
		}
	}

	for id := range m.last {
		if _, ok := seen[id]; !ok {
			delete(m.last, id)
		}
	}

	devicesByStatus.WithLabelValues(string(models.DeviceStatusOnline)).Set(float64(counts[models.DeviceStatusOnline]))
	devicesByStatus.WithLabelValues(string(models.DeviceStatusOffline)).Set(float64(counts[models.DeviceStatusOffline]))
}
