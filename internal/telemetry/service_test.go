package telemetry

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/HerbHall/netwatch/internal/probe"
	"github.com/HerbHall/netwatch/pkg/models"
)

func TestRegisterDevice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, created, err := env.svc.RegisterDevice(ctx, models.RegisterRequest{Hostname: "pc-1"})
	if err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	if !created {
		t.Error("created = false, want true")
	}

	d, err := env.store.GetDevice(ctx, id)
	if err != nil || d == nil {
		t.Fatalf("GetDevice: %v, %v", d, err)
	}
	if d.Username != "pc-1" {
		t.Errorf("Username = %q, want hostname fallback %q", d.Username, "pc-1")
	}
	if d.Location != models.DefaultLocation {
		t.Errorf("Location = %q, want %q", d.Location, models.DefaultLocation)
	}

	again, created, err := env.svc.RegisterDevice(ctx, models.RegisterRequest{Hostname: "pc-1"})
	if err != nil {
		t.Fatalf("RegisterDevice again: %v", err)
	}
	if created || again != id {
		t.Errorf("re-register = (%d, %v), want (%d, false)", again, created, id)
	}

	want := []string{TopicDeviceRegistered, TopicDeviceRegistered}
	if got := env.events.topics(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestRegisterDevice_ReRegisterKeepsAttributes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, _, err := env.svc.RegisterDevice(ctx, models.RegisterRequest{Hostname: "pc-1", Username: "alice", Location: "Office 3F"})
	if err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}

	env.setClock(env.clock.Add(time.Hour))
	again, created, err := env.svc.RegisterDevice(ctx, models.RegisterRequest{Hostname: "pc-1"})
	if err != nil {
		t.Fatalf("RegisterDevice again: %v", err)
	}
	if created || again != id {
		t.Fatalf("re-register = (%d, %v), want (%d, false)", again, created, id)
	}

	d, _ := env.store.GetDevice(ctx, id)
	if d.Location != "Office 3F" {
		t.Errorf("Location = %q, want %q", d.Location, "Office 3F")
	}
	if d.Username != "alice" {
		t.Errorf("Username = %q, want %q", d.Username, "alice")
	}
	if !d.LastSeen.Equal(env.clock) {
		t.Errorf("LastSeen = %v, want %v", d.LastSeen, env.clock)
	}
}

func TestRegisterDevice_EmptyBodyUsesServerIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id, _, err := env.svc.RegisterDevice(ctx, models.RegisterRequest{})
	if err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	d, _ := env.store.GetDevice(ctx, id)
	if d.Hostname != "netwatch-server" || d.Username != "svc" {
		t.Errorf("device = %q/%q, want netwatch-server/svc", d.Hostname, d.Username)
	}
}

func TestRegisterDevice_NoIdentity(t *testing.T) {
	env := newTestEnv(t)
	env.probes.identity = models.DeviceIdentity{}
	env.probes.identityErr = probe.ErrUnavailable

	_, _, err := env.svc.RegisterDevice(context.Background(), models.RegisterRequest{})
	if !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("error = %v, want ErrInvalidDevice", err)
	}
}

func TestSubmitMetrics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := mustRegister(t, env.svc, "pc-1")

	sub := submissionAt(env.clock.Add(-2*time.Minute), 12.5)
	sub.ConnectionInfo = models.ConnectionInfo{ConnectionType: "Wi-Fi", WifiSSID: "office", SignalStrength: "-60 dBm"}
	sub.IPAddresses = models.IPAddresses{InternalIP: "192.168.1.20", ExternalIP: "203.0.113.7"}
	sub.PingResults["1.1.1.1"] = nil

	if err := env.svc.SubmitMetrics(ctx, id, sub); err != nil {
		t.Fatalf("SubmitMetrics: %v", err)
	}

	d, _ := env.store.GetDevice(ctx, id)
	if d.WifiSSID != "office" || d.ExternalIP != "203.0.113.7" {
		t.Errorf("device connectivity = %+v, want overwritten", d)
	}
	if !d.LastSeen.Equal(env.clock) {
		t.Errorf("LastSeen = %v, want receipt time %v", d.LastSeen, env.clock)
	}

	samples, err := env.svc.ListMetrics(ctx, id, TimeframeHour)
	if err != nil {
		t.Fatalf("ListMetrics: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("len(samples) = %d, want 1", len(samples))
	}
	s := samples[0]
	if !s.Timestamp.Equal(*sub.Timestamp) {
		t.Errorf("Timestamp = %v, want agent time %v", s.Timestamp, *sub.Timestamp)
	}
	if s.Latency == nil || *s.Latency != 20.1 {
		t.Errorf("Latency = %v, want 20.1", s.Latency)
	}
	if s.DownloadSpeed != nil || s.UploadSpeed != nil {
		t.Error("speed fields set without a speed test")
	}
}

func TestSubmitMetrics_DefaultsToServerTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := mustRegister(t, env.svc, "pc-1")

	if err := env.svc.SubmitMetrics(ctx, id, &models.Submission{}); err != nil {
		t.Fatalf("SubmitMetrics: %v", err)
	}
	samples, _ := env.svc.ListMetrics(ctx, id, TimeframeHour)
	if len(samples) != 1 || !samples[0].Timestamp.Equal(env.clock) {
		t.Fatalf("samples = %+v, want one at %v", samples, env.clock)
	}
	if samples[0].Latency != nil || samples[0].DNSResolutionTime != nil {
		t.Error("empty submission stored non-null measurements")
	}
}

func TestSubmitMetrics_OutOfRangeTimestampUsesServerTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := mustRegister(t, env.svc, "pc-1")

	tests := []struct {
		name string
		ts   time.Time
		want time.Time
	}{
		{"far future", time.Date(9999, 12, 31, 23, 59, 0, 0, time.UTC), env.clock},
		{"ahead beyond skew", env.clock.Add(maxClockSkew + time.Minute), env.clock},
		{"before registration", env.clock.Add(-24 * time.Hour), env.clock},
		{"ahead within skew", env.clock.Add(maxClockSkew - time.Minute), env.clock.Add(maxClockSkew - time.Minute)},
		{"just before registration", env.clock.Add(-time.Minute), env.clock.Add(-time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := countSamples(t, env.store, id)
			if err := env.svc.SubmitMetrics(ctx, id, submissionAt(tt.ts, 1)); err != nil {
				t.Fatalf("SubmitMetrics: %v", err)
			}
			if n := countSamples(t, env.store, id); n != before+1 {
				t.Fatalf("samples = %d, want %d", n, before+1)
			}
			samples, err := env.store.ListSamples(ctx, id, time.Time{})
			if err != nil {
				t.Fatalf("ListSamples: %v", err)
			}
			if !slices.ContainsFunc(samples, func(s models.MetricSample) bool { return s.Timestamp.Equal(tt.want) }) {
				t.Errorf("no sample at %v", tt.want)
			}
			if slices.ContainsFunc(samples, func(s models.MetricSample) bool { return s.Timestamp.Equal(tt.ts) }) && !tt.ts.Equal(tt.want) {
				t.Errorf("sample stored at out-of-range time %v", tt.ts)
			}
		})
	}
}

func TestSubmitMetrics_NotFound(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.SubmitMetrics(context.Background(), 7, submissionAt(env.clock, 1))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListMetrics_TimeBuckets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	id := mustRegister(t, env.svc, "pc-1")
	env.setClock(time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC))

	for _, ts := range []time.Time{
		time.Date(2026, 3, 14, 9, 59, 0, 0, time.UTC),
		time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 14, 10, 1, 0, 0, time.UTC),
	} {
		if err := env.svc.SubmitMetrics(ctx, id, submissionAt(ts, 5)); err != nil {
			t.Fatalf("SubmitMetrics: %v", err)
		}
	}

	hour, err := env.svc.ListMetrics(ctx, id, TimeframeHour)
	if err != nil {
		t.Fatalf("ListMetrics hour: %v", err)
	}
	if len(hour) != 2 {
		t.Fatalf("hour: len = %d, want 2", len(hour))
	}
	if hour[0].Timestamp.Minute() != 0 || hour[1].Timestamp.Minute() != 1 {
		t.Errorf("hour samples = %v, %v; want 10:00, 10:01", hour[0].Timestamp, hour[1].Timestamp)
	}

	day, err := env.svc.ListMetrics(ctx, id, TimeframeDay)
	if err != nil {
		t.Fatalf("ListMetrics day: %v", err)
	}
	if len(day) != 3 {
		t.Errorf("day: len = %d, want 3", len(day))
	}
}

func TestListMetrics_NotFound(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.svc.ListMetrics(context.Background(), 3, TimeframeDay); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRunAdHocSpeedTest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := mustRegister(t, env.svc, "pc-1")
	env.probes.throughput = probe.Throughput{Download: 94.2, Upload: 38.7}

	tp, err := env.svc.RunAdHocSpeedTest(ctx, id)
	if err != nil {
		t.Fatalf("RunAdHocSpeedTest: %v", err)
	}
	if tp.Download != 94.2 || tp.Upload != 38.7 {
		t.Errorf("throughput = %+v, want 94.2/38.7", tp)
	}

	samples, _ := env.svc.ListMetrics(ctx, id, TimeframeHour)
	if len(samples) != 1 {
		t.Fatalf("len(samples) = %d, want 1", len(samples))
	}
	s := samples[0]
	if s.DownloadSpeed == nil || *s.DownloadSpeed != 94.2 {
		t.Errorf("DownloadSpeed = %v, want 94.2", s.DownloadSpeed)
	}
	if s.DNSResolutionTime != nil || s.Latency != nil {
		t.Error("speed test sample has dns or latency set")
	}
}

func TestRunAdHocSpeedTest_ProbeFailureStoresNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := mustRegister(t, env.svc, "pc-1")
	env.probes.throughputErr = probe.ErrUnavailable

	if _, err := env.svc.RunAdHocSpeedTest(ctx, id); !errors.Is(err, probe.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
	if n := countSamples(t, env.store, id); n != 0 {
		t.Errorf("samples = %d, want 0", n)
	}
}

func TestRunAdHocSpeedTest_NotFound(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.svc.RunAdHocSpeedTest(context.Background(), 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteDevice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := mustRegister(t, env.svc, "pc-1")
	if err := env.svc.SubmitMetrics(ctx, id, submissionAt(env.clock, 1)); err != nil {
		t.Fatalf("SubmitMetrics: %v", err)
	}

	started := make(chan struct{})
	env.tasks.Start(id, func(ctx context.Context, _ int64) {
		close(started)
		<-ctx.Done()
	})
	<-started

	if err := env.svc.DeleteDevice(ctx, id); err != nil {
		t.Fatalf("DeleteDevice: %v", err)
	}
	if env.tasks.Running(id) {
		t.Error("collection task still running after delete")
	}
	if _, err := env.svc.ListMetrics(ctx, id, TimeframeMonth); !errors.Is(err, ErrNotFound) {
		t.Errorf("ListMetrics after delete: error = %v, want ErrNotFound", err)
	}
	if n := countSamples(t, env.store, id); n != 0 {
		t.Errorf("samples after delete = %d, want 0", n)
	}
	if err := env.svc.DeleteDevice(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: error = %v, want ErrNotFound", err)
	}
}

func TestListDevices_DerivedStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mustRegister(t, env.svc, "fresh")

	env.setClock(env.clock.Add(-time.Hour))
	mustRegister(t, env.svc, "stale")
	env.setClock(env.clock.Add(time.Hour))

	devices, err := env.svc.ListDevices(ctx)
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	got := map[string]models.DeviceStatus{}
	for _, d := range devices {
		got[d.Hostname] = d.Status
	}
	if got["fresh"] != models.DeviceStatusOnline {
		t.Errorf("fresh status = %q, want online", got["fresh"])
	}
	if got["stale"] != models.DeviceStatusOffline {
		t.Errorf("stale status = %q, want offline", got["stale"])
	}
}

func TestPolling_StartsTaskForNewDevice(t *testing.T) {
	env := newTestEnv(t)
	ran := make(chan int64, 1)
	env.svc.EnablePolling(func(ctx context.Context, id int64) {
		ran <- id
		<-ctx.Done()
	})

	id := mustRegister(t, env.svc, "polled")
	select {
	case got := <-ran:
		if got != id {
			t.Errorf("task device = %d, want %d", got, id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("collection task did not start")
	}
	if !env.tasks.Running(id) {
		t.Error("Running = false, want true")
	}
}
