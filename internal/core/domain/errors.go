package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates a required setting (server URL, token) is missing.
	ErrNotConfigured = errors.New("not configured")

	// Search Errors.

	// ErrFilterNotAllowed indicates a filter value is not permitted in the current context.
	// The search parameters are left unchanged.
	ErrFilterNotAllowed = errors.New("filter not allowed in this context")

	// ErrStaleResponse indicates a fetch was superseded by a newer one.
	// The response was discarded without touching fetcher state.
	ErrStaleResponse = errors.New("stale response discarded")

	// Task Errors.

	// ErrQueueStopped indicates the task queue no longer accepts work.
	ErrQueueStopped = errors.New("task queue stopped")

	// ErrTaskCancelled indicates a queued unit was cancelled before it started.
	ErrTaskCancelled = errors.New("task cancelled")

	// Action Errors.

	// ErrNotConfirmed indicates a destructive action was declined or nobody confirmed it.
	ErrNotConfirmed = errors.New("action not confirmed")

	// ErrValidationFailed indicates client-side validation blocked a submission.
	ErrValidationFailed = errors.New("validation failed")

	// Server Errors.

	// ErrUnauthorized indicates the server rejected the configured credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the server rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrServerUnavailable indicates the server kept failing after all retries.
	ErrServerUnavailable = errors.New("server unavailable")
)

// OperationError reports a transport failure for a named operation.
// It is what the user sees when a request to the server fails.
type OperationError struct {
	// Op names the attempted operation, e.g. "search inventory".
	Op string

	// Err is the underlying failure.
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// FieldError is a single client-side validation problem.
type FieldError struct {
	// Row identifies the offending row (username or display name), empty for global problems.
	Row string

	// Field is the offending field name.
	Field string

	// Message describes the problem.
	Message string
}

func (e FieldError) String() string {
	if e.Row == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s", e.Row, e.Field, e.Message)
}

// ValidationErrors collects client-side validation problems.
// It matches ErrValidationFailed with errors.Is.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.String())
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

// Is reports whether target is ErrValidationFailed.
func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidationFailed
}
