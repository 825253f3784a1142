package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driven"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
	"github.com/custodia-labs/labinv/internal/logger"
)

// Ensure TaskQueue implements the interface.
var _ driving.TaskQueue = (*TaskQueue)(nil)

// historyRetention is how many results per kind the store keeps.
const historyRetention = 100

type queuedUnit struct {
	task domain.Task
	fn   driving.TaskFunc
	done chan domain.TaskResult
}

// TaskQueue runs submitted units one at a time in submission order.
// Cancellation is cooperative: the stop flag is checked between units and
// the unit in flight always runs to completion.
type TaskQueue struct {
	store driven.TaskStore

	mu       sync.Mutex
	running  bool
	stopped  bool
	stopCh   chan struct{}
	wakeCh   chan struct{}
	loopDone chan struct{}
	pending  []queuedUnit
}

// NewTaskQueue creates a queue. The store is optional (can be nil).
func NewTaskQueue(store driven.TaskStore) *TaskQueue {
	return &TaskQueue{
		store:  store,
		stopCh: make(chan struct{}),
		wakeCh: make(chan struct{}, 1),
	}
}

// Start runs the worker loop. This method blocks until Stop is called or
// the context is cancelled; units still queued then are cancelled.
func (q *TaskQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return nil // Already running
	}
	if q.stopped {
		q.mu.Unlock()
		return domain.ErrQueueStopped
	}
	q.running = true
	q.loopDone = make(chan struct{})
	q.mu.Unlock()

	defer q.shutdown()
	for {
		// The stop flag and the context are checked before every unit.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.stopCh:
			return nil
		default:
		}

		if unit, ok := q.next(); ok {
			q.run(ctx, unit)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.stopCh:
			return nil
		case <-q.wakeCh:
		}
	}
}

// Stop stops the worker after the unit in flight and waits for it.
// Queued units are cancelled. The queue accepts no more work afterwards.
func (q *TaskQueue) Stop() error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	close(q.stopCh)
	running := q.running
	done := q.loopDone
	q.mu.Unlock()

	if running {
		<-done
	} else {
		q.CancelPending()
	}
	return nil
}

// Submit queues a unit. The returned channel receives exactly one result.
func (q *TaskQueue) Submit(task domain.Task, fn driving.TaskFunc) (<-chan domain.TaskResult, error) {
	if fn == nil {
		return nil, fmt.Errorf("submit task: %w: nil function", domain.ErrInvalidInput)
	}
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil, domain.ErrQueueStopped
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	task.EnqueuedAt = time.Now()
	unit := queuedUnit{task: task, fn: fn, done: make(chan domain.TaskResult, 1)}
	q.pending = append(q.pending, unit)
	q.mu.Unlock()

	select {
	case q.wakeCh <- struct{}{}:
	default:
	}
	logger.Debug("task queue: submitted %s %q", task.Kind, task.Name)
	return unit.done, nil
}

// CancelPending completes every queued unit as cancelled and returns how
// many were cancelled. The unit in flight is not interrupted.
func (q *TaskQueue) CancelPending() int {
	q.mu.Lock()
	units := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, unit := range units {
		q.finish(context.Background(), unit, domain.TaskResult{
			Status:  domain.TaskCancelled,
			EndedAt: time.Now(),
			Error:   domain.ErrTaskCancelled.Error(),
		})
	}
	if len(units) > 0 {
		logger.Debug("task queue: cancelled %d pending unit(s)", len(units))
	}
	return len(units)
}

// Pending returns how many units wait to run.
func (q *TaskQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// History returns recorded results, newest first.
func (q *TaskQueue) History(ctx context.Context, kind string, limit int) ([]domain.TaskResult, error) {
	if q.store == nil {
		return nil, nil
	}
	return q.store.GetHistory(ctx, kind, limit)
}

func (q *TaskQueue) next() (queuedUnit, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return queuedUnit{}, false
	}
	unit := q.pending[0]
	q.pending = q.pending[1:]
	return unit, true
}

func (q *TaskQueue) run(ctx context.Context, unit queuedUnit) {
	logger.Debug("task queue: running %s %q", unit.task.Kind, unit.task.Name)
	result := domain.TaskResult{StartedAt: time.Now()}

	err := q.call(ctx, unit.fn)

	result.EndedAt = time.Now()
	if err != nil {
		result.Status = domain.TaskFailed
		result.Error = err.Error()
	} else {
		result.Status = domain.TaskSucceeded
	}
	q.finish(ctx, unit, result)
}

func (q *TaskQueue) call(ctx context.Context, fn driving.TaskFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn(ctx)
}

func (q *TaskQueue) finish(ctx context.Context, unit queuedUnit, result domain.TaskResult) {
	result.TaskID = unit.task.ID
	result.Kind = unit.task.Kind
	result.Name = unit.task.Name

	if q.store != nil {
		// History is best effort; the run context may already be cancelled.
		storeCtx := context.WithoutCancel(ctx)
		if err := q.store.RecordResult(storeCtx, &result); err != nil {
			logger.Warn("task queue: failed to record result for %s: %v", result.TaskID, err)
		}
		if err := q.store.PruneHistory(storeCtx, historyRetention); err != nil {
			logger.Warn("task queue: failed to prune history: %v", err)
		}
	}
	logger.Debug("task queue: %s %q %s", result.Kind, result.Name, result.Status)
	unit.done <- result
}

func (q *TaskQueue) shutdown() {
	q.CancelPending()
	q.mu.Lock()
	q.running = false
	done := q.loopDone
	q.mu.Unlock()
	close(done)
}
