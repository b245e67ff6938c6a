package probe

import (
	"context"

	"github.com/HerbHall/netwatch/pkg/models"
	"go.uber.org/zap"
)

// DefaultPingHosts are the targets pinged on every collection.
var DefaultPingHosts = []string{"google.com", "8.8.8.8", "1.1.1.1"}

// SnapshotOptions controls which measurements Collect takes.
type SnapshotOptions struct {
	PingHosts  []string
	Throughput bool
}

// Collect runs every probe in set and assembles a submission. A failed probe
// leaves its field null or empty; Collect itself never fails.
func Collect(ctx context.Context, set Set, opts SnapshotOptions, logger *zap.Logger) models.Submission {
	var sub models.Submission

	if info, err := set.ConnectionInfo(ctx); err == nil {
		sub.ConnectionInfo = info
	} else {
		logger.Debug("connection info unavailable", zap.Error(err))
	}

	// IPAddresses returns whatever it found even on error.
	ips, err := set.IPAddresses(ctx)
	sub.IPAddresses = ips
	if err != nil {
		logger.Debug("ip addresses unavailable", zap.Error(err))
	}

	if ms, err := set.DNSResolutionTime(ctx); err == nil {
		sub.DNSResolutionTime = models.Float(ms)
	} else {
		logger.Debug("dns timing unavailable", zap.Error(err))
	}

	sub.PingResults = make(map[string]*float64, len(opts.PingHosts))
	for _, host := range opts.PingHosts {
		if ms, err := set.Ping(ctx, host); err == nil {
			sub.PingResults[host] = models.Float(ms)
		} else {
			sub.PingResults[host] = nil
			logger.Debug("ping unavailable", zap.String("host", host), zap.Error(err))
		}
	}

	if opts.Throughput {
		if tp, err := set.ThroughputTest(ctx); err == nil {
			sub.SpeedTest = &models.SpeedTest{
				Download: models.Float(tp.Download),
				Upload:   models.Float(tp.Upload),
			}
		} else {
			logger.Debug("throughput test unavailable", zap.Error(err))
		}
	}

	return sub
}
