package core

// task_limiter.go bounds the number of detached persistence tasks.
//
// An upload takes a slot before its job row is created and the task gives
// it back when it ends. When every slot is busy a new upload waits up to
// maxWait and then fails with ErrTooManyUploads, so no job is created that
// could not start. Drain blocks shutdown until running tasks finish.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyUploads is returned when no task slot frees up in time.
var ErrTooManyUploads = errors.New("too many concurrent uploads, please try again later")

const (
	defaultMaxTasks    = 5
	defaultTaskMaxWait = 30 * time.Second
	drainPollInterval  = 100 * time.Millisecond
)

// TaskLimiter is a counting semaphore over persistence tasks.
type TaskLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewTaskLimiter allows at most max concurrent tasks.
func NewTaskLimiter(max int, maxWait time.Duration) *TaskLimiter {
	if max <= 0 {
		max = defaultMaxTasks
	}
	if maxWait <= 0 {
		maxWait = defaultTaskMaxWait
	}
	return &TaskLimiter{slots: make(chan struct{}, max), maxWait: maxWait}
}

// Acquire takes a slot. The caller must Release it exactly once.
func (l *TaskLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-timer.C:
		return ErrTooManyUploads
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release gives a slot back.
func (l *TaskLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Active returns the number of running tasks.
func (l *TaskLimiter) Active() int {
	return int(l.active.Load())
}

// Capacity returns the maximum number of concurrent tasks.
func (l *TaskLimiter) Capacity() int {
	return cap(l.slots)
}

// Drain blocks until no task is running or ctx ends.
func (l *TaskLimiter) Drain(ctx context.Context) error {
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for l.Active() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
