package driving

import (
	"context"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// TaskFunc is one unit of work.
type TaskFunc func(ctx context.Context) error

// TaskQueue runs units of work one at a time.
type TaskQueue interface {
	// Start runs queued units until the context is cancelled or Stop is called.
	// Blocks until then.
	Start(ctx context.Context) error

	// Submit queues a unit and returns a channel receiving its result.
	Submit(task domain.Task, fn TaskFunc) (<-chan domain.TaskResult, error)

	// CancelPending completes every queued unit as cancelled without running it.
	// The unit in flight is not interrupted.
	CancelPending() int

	// Stop stops the worker after the unit in flight.
	Stop() error

	// Pending returns how many units wait to run.
	Pending() int

	// History returns recorded results of the given kind, newest first.
	// An empty kind matches every kind and limit <= 0 returns all.
	History(ctx context.Context, kind string, limit int) ([]domain.TaskResult, error)
}
