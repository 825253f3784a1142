package driving

import (
	"context"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// AdminService administers communities, groups and file systems.
// Deletions publish a confirm-action event and only proceed when confirmed.
type AdminService interface {
	// ListCommunities returns all communities.
	ListCommunities(ctx context.Context) ([]domain.Community, error)

	// ListGroups returns lab groups sorted by display name.
	ListGroups(ctx context.Context) ([]domain.LabGroup, error)

	// DeleteCommunity deletes a community after confirmation.
	DeleteCommunity(ctx context.Context, id int64) error

	// DeleteGroup deletes a lab group after confirmation.
	DeleteGroup(ctx context.Context, id int64) error

	// DeleteFileSystem deletes a network file system after confirmation.
	DeleteFileSystem(ctx context.Context, id int64) error
}

// LDAPService retrieves directory SIDs for users one at a time.
type LDAPService interface {
	// RetrieveSIDs looks up each user in order. progress, if set, is called after each user.
	RetrieveSIDs(ctx context.Context, usernames []string, progress func(domain.SIDResult)) ([]domain.SIDResult, error)

	// Stop prevents lookups that have not started yet.
	Stop()
}

// RecordActionService handles the record dialogs raised on the event bus.
type RecordActionService interface {
	// OpenDialog publishes a dialog event. It fails when no dialog handles it.
	OpenDialog(ctx context.Context, event domain.Event) error

	// Rename changes a record's name.
	Rename(ctx context.Context, id domain.GlobalID, name string) error

	// Tag replaces tags on each record.
	Tag(ctx context.Context, ids []domain.GlobalID, tags []string) error

	// Share shares records with lab groups.
	Share(ctx context.Context, ids []domain.GlobalID, groupIDs []int64) error

	// Compare fetches records and builds a side by side comparison.
	Compare(ctx context.Context, ids []domain.GlobalID) (*domain.Comparison, error)

	// CopyGlobalIDs copies the ids to the system clipboard.
	CopyGlobalIDs(ids []domain.GlobalID) error
}
