package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driven"
)

// timestampLayout is fixed width so stored times sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// taskStore implements driven.TaskStore.
type taskStore struct {
	store *Store
}

var _ driven.TaskStore = (*taskStore)(nil)

// RecordResult logs a unit's outcome.
func (s *taskStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO task_results (task_id, kind, name, status, started_at, ended_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, result.TaskID,
		result.Kind,
		result.Name,
		string(result.Status),
		formatNullableTime(result.StartedAt),
		result.EndedAt.UTC().Format(timestampLayout),
		nullString(result.Error))

	if err != nil {
		return fmt.Errorf("recording task result: %w", err)
	}
	return nil
}

// GetHistory returns recent results, optionally filtered by kind.
// Results are ordered by end time descending (most recent first).
func (s *taskStore) GetHistory(ctx context.Context, kind string, limit int) ([]domain.TaskResult, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT task_id, kind, name, status, started_at, ended_at, error
		FROM task_results
		WHERE ? = '' OR kind = ?
		ORDER BY ended_at DESC, id DESC
		LIMIT ?
	`, kind, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("querying task history: %w", err)
	}
	defer rows.Close()

	var results []domain.TaskResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		result, err := scanTaskResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task history: %w", err)
	}

	return results, nil
}

// PruneHistory removes old results beyond the retention limit.
// Keeps the most recent 'keep' results per kind.
func (s *taskStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM task_results
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY kind ORDER BY ended_at DESC, id DESC) as rn
				FROM task_results
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning task history: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanTaskResult scans a task result from *sql.Rows.
func scanTaskResult(rows *sql.Rows) (*domain.TaskResult, error) {
	var result domain.TaskResult
	var status, endedAt string
	var startedAt, errMsg sql.NullString

	if err := rows.Scan(&result.TaskID, &result.Kind, &result.Name,
		&status, &startedAt, &endedAt, &errMsg); err != nil {
		return nil, fmt.Errorf("scanning task result: %w", err)
	}

	result.Status = domain.TaskStatus(status)
	result.StartedAt = parseNullableTime(startedAt)
	if t, err := time.Parse(timestampLayout, endedAt); err == nil {
		result.EndedAt = t
	}
	if errMsg.Valid {
		result.Error = errMsg.String
	}

	return &result, nil
}

// formatNullableTime formats a time to RFC3339 string, or returns nil for zero time.
func formatNullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timestampLayout)
}

// parseNullableTime parses a nullable RFC3339 string to time.Time.
// Returns zero time if the string is empty or invalid.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timestampLayout, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
