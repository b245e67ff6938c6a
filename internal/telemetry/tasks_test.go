package telemetry

import (
	"context"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func blockingTask(started chan<- int64) TaskFunc {
	return func(ctx context.Context, id int64) {
		started <- id
		<-ctx.Done()
	}
}

func TestTasks_StartCancel(t *testing.T) {
	tasks := NewTasks(zap.NewNop())
	defer tasks.StopAll()
	started := make(chan int64, 4)

	if !tasks.Start(1, blockingTask(started)) {
		t.Fatal("Start(1) = false, want true")
	}
	<-started
	if tasks.Start(1, blockingTask(started)) {
		t.Error("duplicate Start(1) = true, want false")
	}
	if !tasks.Start(2, blockingTask(started)) {
		t.Fatal("Start(2) = false, want true")
	}
	<-started

	if got := tasks.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
	if !tasks.Cancel(1) {
		t.Error("Cancel(1) = false, want true")
	}
	if tasks.Running(1) {
		t.Error("Running(1) = true after cancel")
	}
	if tasks.Cancel(1) {
		t.Error("second Cancel(1) = true, want false")
	}
	if !tasks.Running(2) {
		t.Error("Running(2) = false, want true")
	}
}

func TestTasks_StopAll(t *testing.T) {
	tasks := NewTasks(zap.NewNop())
	started := make(chan int64, 3)
	var stopped atomic.Int32

	for id := int64(1); id <= 3; id++ {
		tasks.Start(id, func(ctx context.Context, id int64) {
			started <- id
			<-ctx.Done()
			stopped.Add(1)
		})
	}
	for range 3 {
		<-started
	}

	tasks.StopAll()

	if got := stopped.Load(); got != 3 {
		t.Errorf("stopped = %d, want 3", got)
	}
	if got := tasks.Len(); got != 0 {
		t.Errorf("Len = %d, want 0", got)
	}
	if tasks.Start(4, blockingTask(started)) {
		t.Error("Start after StopAll = true, want false")
	}
}

func TestTasks_FinishedTaskIsRemoved(t *testing.T) {
	tasks := NewTasks(zap.NewNop())
	defer tasks.StopAll()
	done := make(chan struct{})

	tasks.Start(1, func(context.Context, int64) { close(done) })
	<-done
	tasks.StopAll()

	if tasks.Running(1) {
		t.Error("Running(1) = true after task returned")
	}
}

func TestTasks_PanicIsContained(t *testing.T) {
	tasks := NewTasks(zap.NewNop())
	tasks.Start(1, func(context.Context, int64) { panic("boom") })
	tasks.StopAll()

	if tasks.Len() != 0 {
		t.Errorf("Len = %d, want 0 after panicking task", tasks.Len())
	}
}
