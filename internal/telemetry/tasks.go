package telemetry

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// TaskFunc is the body of a per-device collection task. It must return
// when ctx is cancelled.
type TaskFunc func(ctx context.Context, deviceID int64)

// Tasks is the registry of server-side collection tasks, at most one per
// device. Every task can be cancelled individually or all at once.
type Tasks struct {
	mu      sync.Mutex
	running map[int64]*task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  *zap.Logger
}

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTasks creates an empty registry.
func NewTasks(logger *zap.Logger) *Tasks {
	ctx, cancel := context.WithCancel(context.Background())
	return &Tasks{
		running: make(map[int64]*task),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
	}
}

// Start launches fn for deviceID. It is a no-op returning false if a task
// for the device is already running or the registry has been stopped.
func (t *Tasks) Start(deviceID int64, fn TaskFunc) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ctx.Err() != nil {
		return false
	}
	if _, ok := t.running[deviceID]; ok {
		return false
	}

	ctx, cancel := context.WithCancel(t.ctx)
	tk := &task{cancel: cancel, done: make(chan struct{})}
	t.running[deviceID] = tk
	collectionTasks.Inc()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer close(tk.done)
		defer t.remove(deviceID, tk)
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("collection task panicked",
					zap.Int64("device_id", deviceID), zap.Any("panic", r))
			}
		}()
		fn(ctx, deviceID)
	}()

	t.logger.Debug("collection task started", zap.Int64("device_id", deviceID))
	return true
}

// Cancel stops the device's task and waits for it to return. Returns false
// if no task was running.
func (t *Tasks) Cancel(deviceID int64) bool {
	t.mu.Lock()
	tk, ok := t.running[deviceID]
	t.mu.Unlock()
	if !ok {
		return false
	}
	tk.cancel()
	<-tk.done
	t.logger.Debug("collection task cancelled", zap.Int64("device_id", deviceID))
	return true
}

// Running reports whether a task is registered for the device.
func (t *Tasks) Running(deviceID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.running[deviceID]
	return ok
}

// Len returns the number of running tasks.
func (t *Tasks) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.running)
}

// StopAll cancels every task and waits for them to exit. Start fails
// afterwards.
func (t *Tasks) StopAll() {
	t.mu.Lock()
	t.cancel()
	t.mu.Unlock()
	t.wg.Wait()
}

// remove drops the entry only if it still belongs to tk.
func (t *Tasks) remove(deviceID int64, tk *task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running[deviceID] == tk {
		delete(t.running, deviceID)
		collectionTasks.Dec()
	}
}
