package driven

import (
	"context"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// TaskStore persists the execution history of queued units.
type TaskStore interface {
	// RecordResult logs a unit's outcome.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetHistory returns recent results, optionally filtered by kind.
	// Results are ordered by end time descending (most recent first).
	GetHistory(ctx context.Context, kind string, limit int) ([]domain.TaskResult, error)

	// PruneHistory removes old results beyond the retention limit.
	// Keeps the most recent 'keep' results per kind.
	PruneHistory(ctx context.Context, keep int) error
}
