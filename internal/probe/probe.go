// Package probe implements the host-level measurements an agent reports:
// link information, addresses, DNS timing, ICMP latency, and throughput.
package probe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/user"
	"runtime"
	"time"

	"github.com/HerbHall/netwatch/pkg/models"
	"github.com/shirou/gopsutil/v4/host"
	"go.uber.org/zap"
)

// ErrUnavailable marks a single measurement that could not be taken. Callers
// record the field as null and carry on.
var ErrUnavailable = errors.New("probe unavailable")

// Throughput is a speed test result in Mbps.
type Throughput struct {
	Download float64 `json:"download"`
	Upload   float64 `json:"upload"`
}

// Set is the collection of measurements available on a host. Every method
// fails independently.
type Set interface {
	ConnectionInfo(ctx context.Context) (models.ConnectionInfo, error)
	IPAddresses(ctx context.Context) (models.IPAddresses, error)
	DNSResolutionTime(ctx context.Context) (float64, error)
	Ping(ctx context.Context, host string) (float64, error)
	ThroughputTest(ctx context.Context) (Throughput, error)
	DeviceIdentity() (models.DeviceIdentity, error)
}

// System is the Set backed by the local operating system.
type System struct {
	cfg       Config
	logger    *zap.Logger
	wifi      wifiReader
	speedTest speedRunner
}

var _ Set = (*System)(nil)

// NewSystem creates a probe set for the current host.
func NewSystem(cfg Config, logger *zap.Logger) *System {
	return &System{
		cfg:    cfg,
		logger: logger,
		wifi:   newWifiReader(logger),
	}
}

// DeviceIdentity reports hostname, login user, and OS details.
func (s *System) DeviceIdentity() (models.DeviceIdentity, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return models.DeviceIdentity{}, fmt.Errorf("%w: hostname: %v", ErrUnavailable, err)
	}

	id := models.DeviceIdentity{
		Hostname: hostname,
		Username: hostname,
		System:   runtime.GOOS,
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		id.Username = u.Username
	}
	if info, err := host.Info(); err == nil {
		id.System = info.Platform
		id.Version = info.PlatformVersion
	} else {
		s.logger.Debug("host info unavailable", zap.Error(err))
	}
	return id, nil
}

// unavailable wraps err so errors.Is(err, ErrUnavailable) holds.
func unavailable(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, what, err)
}

// millis converts d to milliseconds rounded to two decimals.
func millis(d time.Duration) float64 {
	return round2(float64(d) / float64(time.Millisecond))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
