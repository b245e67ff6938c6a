package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/HerbHall/netwatch/internal/event"
	"github.com/HerbHall/netwatch/internal/probe"
	"github.com/HerbHall/netwatch/internal/store"
	"github.com/HerbHall/netwatch/pkg/models"
	"go.uber.org/zap"
)

type fakeProbes struct {
	identity      models.DeviceIdentity
	identityErr   error
	throughput    probe.Throughput
	throughputErr error
}

func (f *fakeProbes) ConnectionInfo(context.Context) (models.ConnectionInfo, error) {
	return models.ConnectionInfo{ConnectionType: "Ethernet"}, nil
}

func (f *fakeProbes) IPAddresses(context.Context) (models.IPAddresses, error) {
	return models.IPAddresses{InternalIP: "10.0.0.1"}, nil
}

func (f *fakeProbes) DNSResolutionTime(context.Context) (float64, error) {
	return 3.5, nil
}

func (f *fakeProbes) Ping(_ context.Context, host string) (float64, error) {
	if host == "8.8.8.8" {
		return 11.25, nil
	}
	return 0, probe.ErrUnavailable
}

func (f *fakeProbes) ThroughputTest(context.Context) (probe.Throughput, error) {
	return f.throughput, f.throughputErr
}

func (f *fakeProbes) DeviceIdentity() (models.DeviceIdentity, error) {
	return f.identity, f.identityErr
}

// recorder collects every event published on a bus.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) handle(_ context.Context, e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Topic
	}
	return out
}

type testEnv struct {
	svc    *Service
	store  *Store
	probes *fakeProbes
	tasks  *Tasks
	events *recorder
	clock  time.Time
}

func (e *testEnv) setClock(t time.Time) {
	e.clock = t
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), Component, Migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := zap.NewNop()
	bus := event.NewBus(logger)
	rec := &recorder{}
	bus.SubscribeAll(rec.handle)

	tasks := NewTasks(logger)
	t.Cleanup(tasks.StopAll)

	env := &testEnv{
		store:  NewStore(db.DB()),
		probes: &fakeProbes{identity: models.DeviceIdentity{Hostname: "netwatch-server", Username: "svc"}},
		tasks:  tasks,
		events: rec,
		clock:  time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}
	env.svc = NewService(env.store, env.probes, bus, tasks, DefaultConfig(), logger)
	env.svc.now = func() time.Time { return env.clock }
	return env
}

func mustRegister(t *testing.T, svc *Service, hostname string) int64 {
	t.Helper()
	id, _, err := svc.RegisterDevice(context.Background(), models.RegisterRequest{Hostname: hostname})
	if err != nil {
		t.Fatalf("RegisterDevice(%q): %v", hostname, err)
	}
	return id
}

func submissionAt(ts time.Time, dns float64) *models.Submission {
	return &models.Submission{
		Timestamp:         &ts,
		DNSResolutionTime: models.Float(dns),
		PingResults:       map[string]*float64{"8.8.8.8": models.Float(20.1)},
	}
}

func countSamples(t *testing.T, st *Store, deviceID int64) int {
	t.Helper()
	var n int
	err := st.db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM metric_samples WHERE device_id = ?`, deviceID,
	).Scan(&n)
	if err != nil {
		t.Fatalf("count samples: %v", err)
	}
	return n
}
