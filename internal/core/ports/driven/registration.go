package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// RegistrationParser turns batch registration input into "toCreate" tables.
// The server parser and the offline CSV parser both implement it.
type RegistrationParser interface {
	// ParseCSV parses an uploaded CSV file.
	// Validation messages the parser produced are routed into the returned rows
	// where possible; the rest are returned as messages.
	ParseCSV(ctx context.Context, filename string, r io.Reader) (*domain.ParsedRegistration, []string, error)

	// ParseInputString parses pasted text in the same format.
	ParseInputString(ctx context.Context, input string) (*domain.ParsedRegistration, []string, error)
}

// RegistrationClient creates users, groups and communities on the server.
// Each call returns the server's validation messages; an error means the
// request itself failed.
type RegistrationClient interface {
	// CreateUsers submits the users table.
	CreateUsers(ctx context.Context, users []domain.UserRow) ([]string, error)

	// CreateGroups submits the groups table.
	CreateGroups(ctx context.Context, groups []domain.GroupRow) ([]string, error)

	// CreateCommunities submits the communities table.
	CreateCommunities(ctx context.Context, communities []domain.CommunityRow) ([]string, error)
}
