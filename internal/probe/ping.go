package probe

import (
	"context"
	"errors"
	"net"
	"runtime"
	"time"

	probing "github.com/prometheus-community/pro-bing"
	"go.uber.org/zap"
)

// DNSResolutionTime measures how long the system resolver takes to resolve
// the configured host, in milliseconds.
func (s *System) DNSResolutionTime(ctx context.Context) (float64, error) {
	var r net.Resolver
	start := time.Now()
	if _, err := r.LookupHost(ctx, s.cfg.DNSHost); err != nil {
		return 0, unavailable("dns lookup "+s.cfg.DNSHost, err)
	}
	return millis(time.Since(start)), nil
}

// Ping sends ICMP echo requests to host and returns the average RTT in ms.
func (s *System) Ping(ctx context.Context, host string) (float64, error) {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return 0, unavailable("resolve "+host, err)
	}

	pinger.Count = s.cfg.PingCount
	pinger.Timeout = s.cfg.PingTimeout
	// Windows only supports privileged raw sockets; elsewhere unprivileged
	// UDP ping avoids needing root.
	pinger.SetPrivileged(runtime.GOOS == "windows")

	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Debug("ping failed", zap.String("host", host), zap.Error(err))
			return 0, unavailable("ping "+host, err)
		}
	case <-ctx.Done():
		pinger.Stop()
		<-done
		return 0, unavailable("ping "+host, ctx.Err())
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, unavailable("ping "+host, errors.New("no reply"))
	}
	return millis(stats.AvgRtt), nil
}
