package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/HerbHall/netwatch/internal/probe"
	"go.uber.org/zap"
)

// PollerConfig controls the optional server-side collector.
type PollerConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	PingHosts []string      `mapstructure:"ping_hosts"`
}

// Poller measures from the server on behalf of each registered device and
// feeds the results through SubmitMetrics. Agents remain the authoritative
// source; poller samples describe the server's own vantage point.
type Poller struct {
	svc    *Service
	probes probe.Set
	cfg    PollerConfig
	logger *zap.Logger
}

// NewPoller creates a poller. Call Service.EnablePolling(p.Run) to attach it.
func NewPoller(svc *Service, probes probe.Set, cfg PollerConfig, logger *zap.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if len(cfg.PingHosts) == 0 {
		cfg.PingHosts = probe.DefaultPingHosts
	}
	return &Poller{svc: svc, probes: probes, cfg: cfg, logger: logger}
}

// Run is a TaskFunc: it collects immediately and then on every interval
// until ctx is cancelled or the device disappears.
func (p *Poller) Run(ctx context.Context, deviceID int64) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		if !p.collect(ctx, deviceID) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// collect reports whether the task should keep running.
func (p *Poller) collect(ctx context.Context, deviceID int64) bool {
	sub := probe.Collect(ctx, p.probes, probe.SnapshotOptions{PingHosts: p.cfg.PingHosts}, p.logger)
	if ctx.Err() != nil {
		return false
	}
	err := p.svc.SubmitMetrics(ctx, deviceID, &sub)
	switch {
	case errors.Is(err, ErrNotFound):
		p.logger.Debug("device gone, stopping poll", zap.Int64("device_id", deviceID))
		return false
	case err != nil:
		p.logger.Warn("poll submission failed", zap.Int64("device_id", deviceID), zap.Error(err))
	}
	return true
}
