package probe

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/showwin/speedtest-go/speedtest"
	"go.uber.org/zap"
)

// speedRunner performs one download and upload measurement. serverIDs pins
// speedtest.net servers; empty selects the nearest one.
type speedRunner func(ctx context.Context, serverIDs []int) (download, upload speedtest.ByteRate, err error)

// ThroughputTest measures download and upload speed against a speedtest.net
// server, reporting each direction in Mbps.
func (s *System) ThroughputTest(ctx context.Context) (Throughput, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ThroughputTimeout)
	defer cancel()

	run := s.speedTest
	if run == nil {
		run = s.runSpeedtestNet
	}
	down, up, err := run(ctx, s.cfg.SpeedtestServerIDs)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return Throughput{}, unavailable("speed test", err)
	}
	return throughputOf(down, up)
}

func (s *System) runSpeedtestNet(ctx context.Context, serverIDs []int) (speedtest.ByteRate, speedtest.ByteRate, error) {
	client := speedtest.New()
	if _, err := client.FetchUserInfoContext(ctx); err != nil {
		return 0, 0, fmt.Errorf("fetch client info: %w", err)
	}
	servers, err := client.FetchServerListContext(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch server list: %w", err)
	}
	targets, err := servers.FindServer(serverIDs)
	if err != nil {
		return 0, 0, fmt.Errorf("select server: %w", err)
	}
	if len(targets) == 0 {
		return 0, 0, errors.New("no speed test server available")
	}

	srv := targets[0]
	s.logger.Debug("running speed test",
		zap.String("server", srv.Name),
		zap.String("sponsor", srv.Sponsor),
		zap.Float64("distance_km", srv.Distance),
	)
	if err := srv.DownloadTestContext(ctx); err != nil {
		return 0, 0, fmt.Errorf("download test: %w", err)
	}
	if err := srv.UploadTestContext(ctx); err != nil {
		return 0, 0, fmt.Errorf("upload test: %w", err)
	}
	return srv.DLSpeed, srv.ULSpeed, nil
}

func throughputOf(down, up speedtest.ByteRate) (Throughput, error) {
	d, u := down.Mbps(), up.Mbps()
	if !(d > 0 && u > 0) || math.IsInf(d+u, 0) {
		return Throughput{}, unavailable("speed test", fmt.Errorf("no data transferred (download %v, upload %v)", d, u))
	}
	return Throughput{Download: round2(d), Upload: round2(u)}, nil
}
