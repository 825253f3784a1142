package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// RegistrationService drives batch creation of users, groups and communities.
type RegistrationService interface {
	// ParseCSV parses an uploaded CSV file into "toCreate" tables.
	ParseCSV(ctx context.Context, filename string, r io.Reader) (*domain.ParsedRegistration, []string, error)

	// ParseInputString parses pasted text into "toCreate" tables.
	ParseInputString(ctx context.Context, input string) (*domain.ParsedRegistration, []string, error)

	// Validate runs client-side checks. It returns domain.ValidationErrors.
	Validate(parsed *domain.ParsedRegistration) error

	// Create validates and submits the tables one after another.
	// Server validation messages are routed into the result's rows.
	Create(ctx context.Context, parsed *domain.ParsedRegistration) (*domain.BatchCreateResult, error)

	// StopCreate cancels tables not yet submitted.
	StopCreate()
}
