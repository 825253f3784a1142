package domain

import "time"

// TaskStatus is the outcome of a queued unit of work.
type TaskStatus string

// Task statuses.
const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether the status is final.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskSucceeded || s == TaskFailed || s == TaskCancelled
}

// Task is a unit of work for the task queue.
type Task struct {
	// ID is the unique identifier for the unit.
	ID string

	// Kind groups units of the same job, e.g. "batch-create" or "sid-retrieval".
	Kind string

	// Name is a human-readable description.
	Name string

	// EnqueuedAt is when the unit was submitted.
	EnqueuedAt time.Time
}

// TaskResult represents the outcome of a task execution.
type TaskResult struct {
	// TaskID identifies which unit ran.
	TaskID string

	// Kind and Name are copied from the task.
	Kind string
	Name string

	// Status is the final status.
	Status TaskStatus

	// StartedAt is when the unit started. Zero for cancelled units.
	StartedAt time.Time

	// EndedAt is when the unit completed.
	EndedAt time.Time

	// Error contains the error message if Status is TaskFailed.
	Error string
}

// Duration returns how long the unit ran.
func (r TaskResult) Duration() time.Duration {
	if r.StartedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Task kinds for built-in jobs.
const (
	TaskKindBatchCreate  = "batch-create"
	TaskKindSIDRetrieval = "sid-retrieval"
	TaskKindCSVImport    = "csv-import"
)
