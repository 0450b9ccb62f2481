package tasks

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/google/uuid"
)

var ErrTaskCancelled = errors.New("task cancelled")

type TaskState int32

const (
	TaskCreated TaskState = iota
	TaskRunning
	TaskCancelled
	TaskCompleted
)

func (s TaskState) String() string {
	switch s {
	case TaskCreated:
		return "created"
	case TaskRunning:
		return "running"
	case TaskCancelled:
		return "cancelled"
	case TaskCompleted:
		return "completed"
	}
	return fmt.Sprintf("TaskState(%d)", int32(s))
}

// TrackableTask is background work that reports progress from 0 to 100, can
// be cancelled cooperatively and signals completion. A task moves from
// Created to Running, then to Completed, passing through Cancelled when
// Cancel was called before it finished.
type TrackableTask struct {
	id   uuid.UUID
	name string

	mu        sync.Mutex
	completed *sync.Cond
	state     TaskState
	err       error
	done      chan struct{}

	cancelRequested atomic.Bool
	wasCancelled    bool
	progress        atomic.Uint32

	progressUpdates *Broadcaster[float32]
	log             *logger.Logger
}

func NewTrackableTask(name string) *TrackableTask {
	t := &TrackableTask{
		id:              uuid.New(),
		name:            name,
		done:            make(chan struct{}),
		progressUpdates: NewBroadcaster[float32](),
		log:             logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "task-"+name)),
	}
	t.completed = sync.NewCond(&t.mu)
	return t
}

func (t *TrackableTask) ID() string {
	return t.id.String()
}

func (t *TrackableTask) Name() string {
	return t.name
}

func (t *TrackableTask) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Progress is the last reported completion percentage
func (t *TrackableTask) Progress() float32 {
	return math.Float32frombits(t.progress.Load())
}

// Subscribe delivers every progress update from now on. The channel closes
// when the task completes.
func (t *TrackableTask) Subscribe() (<-chan float32, func()) {
	return t.progressUpdates.Subscribe()
}

// Cancel asks the task to stop. Work already started on a unit runs to its end.
func (t *TrackableTask) Cancel() {
	if !t.cancelRequested.CompareAndSwap(false, true) {
		return
	}
	t.mu.Lock()
	if t.state != TaskCompleted {
		t.state = TaskCancelled
	}
	t.mu.Unlock()
	t.log.Infoln("Cancellation requested")
}

func (t *TrackableTask) IsCancelled() bool {
	return t.cancelRequested.Load()
}

// WasCancelled reports whether the task finished early because of Cancel
func (t *TrackableTask) WasCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wasCancelled
}

// Err is the error the task completed with; ErrTaskCancelled after a cancellation
func (t *TrackableTask) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *TrackableTask) IsCompleted() bool {
	return t.State() == TaskCompleted
}

// Done is closed once the task has completed
func (t *TrackableTask) Done() <-chan struct{} {
	return t.done
}

// WaitForCompletion blocks until the task has completed
func (t *TrackableTask) WaitForCompletion() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.state != TaskCompleted {
		t.completed.Wait()
	}
	return t.err
}

// Wait blocks until the task completes or ctx ends. Ending ctx does not cancel the task.
func (t *TrackableTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *TrackableTask) start() {
	t.mu.Lock()
	if t.state == TaskCreated {
		t.state = TaskRunning
	}
	t.mu.Unlock()
	t.log.Debugln("Started", t.ID())
}

func (t *TrackableTask) setProgress(p float32) {
	if p > 100 {
		p = 100
	}
	t.progress.Store(math.Float32bits(p))
	t.progressUpdates.Publish(p)
}

// complete finishes the task. cancelled tells whether the work stopped early;
// a Cancel arriving after the work was done does not count.
func (t *TrackableTask) complete(cancelled bool, err error) {
	if cancelled && err == nil {
		err = ErrTaskCancelled
	}
	if !cancelled {
		t.setProgress(100)
	}

	t.mu.Lock()
	t.wasCancelled = cancelled
	t.err = err
	t.state = TaskCompleted
	t.completed.Broadcast()
	close(t.done)
	t.mu.Unlock()

	t.progressUpdates.Close()
	t.log.Debugln("Completed", t.ID(), "cancelled:", cancelled)
}
