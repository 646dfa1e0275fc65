// Package task manages the lifecycle of the long-running goroutines of a device:
// starting them, signalling them to stop and waiting for their termination.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-lcdm/logger"
)

// Func is the body of one loop iteration. Return true to keep running, false to stop.
type Func func(ctx context.Context) bool

// ErrStopped is returned when starting a task on a stopped Manager.
var ErrStopped = errors.New("task: manager already stopped")

// ErrWaitTimeout is returned by WaitTimeout when tasks are still running after the deadline.
var ErrWaitTimeout = errors.New("task: timeout waiting for tasks to terminate")

// Manager runs named task loops in their own goroutines.
//
// Stop cancels the shared context; loops observe the cancellation between
// iterations only, so an iteration in progress always runs to completion.
//
//	mgr := task.NewManager(ctx, logger)
//	_ = mgr.Start("dispatcher", func(ctx context.Context) bool {
//	    // ... one unit of work ...
//	    return true
//	})
//	mgr.Stop()
//	_ = mgr.WaitTimeout(3 * time.Second)
type Manager struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger logger.Logger
	count  atomic.Int32
}

// NewManager creates a Manager whose tasks stop when ctx is cancelled or Stop is called.
func NewManager(ctx context.Context, l logger.Logger) *Manager {
	mgr := &Manager{logger: l}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// Start launches taskFunc in a loop on a new goroutine.
//
// onPanic, when not nil, is called with the recovered value if an iteration
// panics; the loop then continues with the next iteration.
func (mgr *Manager) Start(name string, taskFunc Func, onPanic func(r any)) error {
	select {
	case <-mgr.ctx.Done():
		return fmt.Errorf("start %s: %w", name, ErrStopped)
	default:
	}

	mgr.logger.Debug("lcdm: start task", "name", name)

	mgr.wg.Add(1)
	mgr.count.Add(1)

	go func() {
		defer func() {
			mgr.count.Add(-1)
			mgr.wg.Done()
			mgr.logger.Debug("lcdm: task terminated", "name", name, "task_count", mgr.Count())
		}()

		for {
			select {
			case <-mgr.ctx.Done():
				return
			default:
			}

			if !mgr.runIteration(name, taskFunc, onPanic) {
				return
			}
		}
	}()

	return nil
}

// runIteration calls taskFunc with panic protection.
func (mgr *Manager) runIteration(name string, taskFunc Func, onPanic func(r any)) (keepRunning bool) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("lcdm: panic in task", "name", name, "panic", r)
			if onPanic != nil {
				onPanic(r)
			}
			keepRunning = true
		}
	}()

	return taskFunc(mgr.ctx)
}

// Stop signals all running tasks to terminate after their current iteration.
func (mgr *Manager) Stop() {
	mgr.cancel()
}

// Done returns a channel closed once Stop is called or the parent context ends.
func (mgr *Manager) Done() <-chan struct{} {
	return mgr.ctx.Done()
}

// Wait blocks until all tasks have terminated.
func (mgr *Manager) Wait() {
	mgr.wg.Wait()
}

// WaitTimeout waits for all tasks to terminate, giving up after d.
func (mgr *Manager) WaitTimeout(d time.Duration) error {
	done := make(chan struct{})
	go func() {
		mgr.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(d):
		return ErrWaitTimeout
	}
}

// Count returns the number of running tasks.
func (mgr *Manager) Count() int {
	return int(mgr.count.Load())
}
