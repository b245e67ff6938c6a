// Package agent is the device-side collector: it registers with the server,
// takes a snapshot every interval, and delivers it, buffering snapshots the
// server could not accept.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/HerbHall/netwatch/internal/probe"
	"github.com/HerbHall/netwatch/pkg/models"
	"github.com/google/uuid"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

// State is the agent's lifecycle state.
type State string

const (
	StateUnregistered State = "unregistered"
	StateRegistering  State = "registering"
	StateActive       State = "active"
	StateDegraded     State = "degraded"
)

// Agent is the collection loop for one device.
type Agent struct {
	cfg       *Config
	probes    probe.Set
	transport Transport
	buffer    Buffer
	identity  models.DeviceIdentity
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	state    State
	deviceID int64
	cancel   context.CancelFunc
}

// New creates an agent. The buffer is owned by the agent from here on.
func New(cfg *Config, probes probe.Set, transport Transport, buffer Buffer, logger *zap.Logger) *Agent {
	a := &Agent{
		cfg:       cfg,
		probes:    probes,
		transport: transport,
		buffer:    buffer,
		logger:    logger,
		now:       time.Now,
		state:     StateUnregistered,
	}
	if id, err := probes.DeviceIdentity(); err == nil {
		a.identity = id
	} else {
		logger.Warn("device identity unavailable", zap.Error(err))
	}
	return a
}

// Run registers and then collects every interval until ctx is cancelled or
// Stop is called.
func (a *Agent) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()
	defer cancel()

	a.logger.Info("agent starting",
		zap.String("hostname", a.identity.Hostname),
		zap.String("endpoint", a.cfg.Server.Endpoint),
		zap.Duration("interval", a.cfg.Agent.Interval),
		zap.Int("buffered", a.buffer.Len()),
	)

	for {
		if a.DeviceID() == 0 {
			if err := a.Register(ctx); err != nil {
				a.logger.Info("agent stopped before registration")
				return nil
			}
		}

		wait := a.cfg.Agent.Interval
		if a.safeCycle(ctx) {
			wait = a.cfg.Agent.FaultCooldown
		}
		if !sleep(ctx, wait) {
			a.logger.Info("agent shutting down", zap.Int("buffered", a.buffer.Len()))
			return nil
		}
	}
}

// Stop signals Run to return.
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// State returns the current lifecycle state.
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// DeviceID returns the server-assigned ID, or 0 before registration.
func (a *Agent) DeviceID() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.deviceID
}

func (a *Agent) setState(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != s {
		a.logger.Info("agent state changed", zap.String("from", string(a.state)), zap.String("to", string(s)))
		a.state = s
	}
}

// Register retries registration with exponential backoff until it succeeds
// or ctx is cancelled.
func (a *Agent) Register(ctx context.Context) error {
	a.setState(StateRegistering)
	b := &backoff.Backoff{
		Min:    a.cfg.Agent.RegisterBackoffMin,
		Max:    a.cfg.Agent.RegisterBackoffMax,
		Factor: 2,
		Jitter: true,
	}
	req := models.RegisterRequest{
		Hostname: a.identity.Hostname,
		Username: a.identity.Username,
		Location: a.cfg.Agent.Location,
	}

	for {
		id, err := a.attemptRegister(ctx, req)
		if err == nil {
			a.mu.Lock()
			a.deviceID = id
			a.mu.Unlock()
			a.setState(StateActive)
			a.logger.Info("device registered", zap.Int64("device_id", id))
			return nil
		}

		wait := b.Duration()
		a.logger.Warn("registration failed, retrying",
			zap.Duration("backoff", wait),
			zap.Float64("attempt", b.Attempt()),
			zap.Error(err),
		)
		if !sleep(ctx, wait) {
			a.setState(StateUnregistered)
			return ctx.Err()
		}
	}
}

func (a *Agent) attemptRegister(ctx context.Context, req models.RegisterRequest) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Server.Timeout)
	defer cancel()
	return a.transport.Register(ctx, req)
}

// CollectSnapshot runs the probe set and stamps the result. The throughput
// test only runs in the first ThroughputWindow of each hour.
func (a *Agent) CollectSnapshot(ctx context.Context) (Entry, error) {
	now := a.now()
	opts := probe.SnapshotOptions{
		PingHosts:  a.cfg.Probe.PingHosts,
		Throughput: sinceHour(now) < a.cfg.Probe.ThroughputWindow,
	}
	sub := probe.Collect(ctx, a.probes, opts, a.logger)
	if ctx.Err() != nil {
		return Entry{}, fmt.Errorf("collect snapshot: %w", ctx.Err())
	}

	collected := now.UTC()
	sub.Timestamp = &collected
	if a.identity.Hostname != "" {
		id := a.identity
		sub.DeviceInfo = &id
	}
	return Entry{ID: uuid.NewString(), CollectedAt: collected, Submission: sub}, nil
}

// Deliver sends one snapshot within the server timeout. A nil error means the
// server accepted it. ErrRejected means the server refused the payload and
// the snapshot should be discarded rather than retried.
func (a *Agent) Deliver(ctx context.Context, e Entry) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Server.Timeout)
	defer cancel()

	err := a.transport.Submit(ctx, a.DeviceID(), e)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDeviceUnknown):
		a.logger.Warn("server no longer knows this device, re-registering", zap.Error(err))
		a.mu.Lock()
		a.deviceID = 0
		a.mu.Unlock()
		a.setState(StateUnregistered)
	case errors.Is(err, ErrRejected):
		a.logger.Warn("server rejected snapshot, dropping it", zap.String("snapshot_id", e.ID), zap.Error(err))
	default:
		a.logger.Warn("delivery failed", zap.String("snapshot_id", e.ID), zap.Error(err))
	}
	return err
}

// RunCycle drains the buffer oldest-first, then collects and delivers a fresh
// snapshot. A buffered entry is removed only after the server accepted or
// rejected it.
// When the drain stops early the fresh snapshot is queued behind the
// remaining entries so that delivery order matches collection order.
func (a *Agent) RunCycle(ctx context.Context) error {
	drained := a.drain(ctx)

	e, err := a.CollectSnapshot(ctx)
	if err != nil {
		return err
	}

	if drained && a.DeviceID() != 0 {
		deliverErr := a.Deliver(ctx, e)
		if deliverErr == nil {
			a.setState(StateActive)
			return nil
		}
		if errors.Is(deliverErr, ErrRejected) {
			return nil
		}
	}

	evicted, err := a.buffer.Push(e)
	if err != nil {
		return fmt.Errorf("buffer snapshot: %w", err)
	}
	if evicted {
		a.logger.Warn("buffer full, dropped oldest snapshot")
	}
	a.logger.Info("snapshot buffered", zap.String("snapshot_id", e.ID), zap.Int("buffered", a.buffer.Len()))
	if a.DeviceID() != 0 {
		a.setState(StateDegraded)
	}
	return nil
}

// drain reports whether the buffer was emptied.
func (a *Agent) drain(ctx context.Context) bool {
	n := a.buffer.Len()
	if n == 0 {
		return true
	}
	a.logger.Info("sending buffered snapshots", zap.Int("buffered", n))

	sent := 0
	for a.DeviceID() != 0 && ctx.Err() == nil {
		e, ok, err := a.buffer.Front()
		if err != nil {
			a.logger.Error("read buffer", zap.Error(err))
			return false
		}
		if !ok {
			a.logger.Info("buffer drained", zap.Int("sent", sent))
			return true
		}
		deliverErr := a.Deliver(ctx, e)
		if deliverErr != nil && !errors.Is(deliverErr, ErrRejected) {
			break
		}
		if err := a.buffer.PopFront(); err != nil {
			a.logger.Error("remove delivered snapshot", zap.Error(err))
			return false
		}
		if deliverErr == nil {
			sent++
		}
	}
	a.logger.Info("buffer drain stopped", zap.Int("sent", sent), zap.Int("remaining", a.buffer.Len()))
	return false
}

// safeCycle runs one cycle and reports whether it faulted.
func (a *Agent) safeCycle(ctx context.Context) (faulted bool) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("collection cycle panicked",
				zap.Any("panic", r),
				zap.Duration("cooldown", a.cfg.Agent.FaultCooldown),
			)
			faulted = true
		}
	}()
	if err := a.RunCycle(ctx); err != nil {
		if ctx.Err() != nil {
			return false
		}
		a.logger.Error("collection cycle failed", zap.Error(err))
		return true
	}
	return false
}

// sinceHour is the time elapsed since the top of the local hour.
func sinceHour(t time.Time) time.Duration {
	return time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
