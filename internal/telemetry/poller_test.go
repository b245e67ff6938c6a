package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestPoller_SubmitsAndStopsOnDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := NewPoller(env.svc, env.probes, PollerConfig{Enabled: true, Interval: time.Hour}, env.svc.logger)
	env.svc.EnablePolling(p.Run)

	id := mustRegister(t, env.svc, "pc-1")

	deadline := time.Now().Add(2 * time.Second)
	for {
		n := countSamples(t, env.store, id)
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("samples = %d, want 1 after first poll", n)
		}
		time.Sleep(10 * time.Millisecond)
	}

	samples, _ := env.svc.ListMetrics(ctx, id, TimeframeHour)
	if len(samples) != 1 || samples[0].Latency == nil || *samples[0].Latency != 11.25 {
		t.Errorf("poll sample = %+v, want latency 11.25", samples)
	}

	if err := env.svc.DeleteDevice(ctx, id); err != nil {
		t.Fatalf("DeleteDevice: %v", err)
	}
	if env.tasks.Running(id) {
		t.Error("poll task still running after delete")
	}
}

func TestPoller_ExitsForUnknownDevice(t *testing.T) {
	env := newTestEnv(t)
	p := NewPoller(env.svc, env.probes, PollerConfig{Interval: time.Hour}, env.svc.logger)

	done := make(chan struct{})
	go func() {
		p.Run(context.Background(), 404)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return for a missing device")
	}
}
