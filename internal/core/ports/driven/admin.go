package driven

import (
	"context"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// AdminClient is the server's community, group and file system administration API.
type AdminClient interface {
	// ListCommunities returns all communities.
	ListCommunities(ctx context.Context) ([]domain.Community, error)

	// ListGroups returns all lab groups in server order.
	ListGroups(ctx context.Context) ([]domain.LabGroup, error)

	// DeleteCommunity removes a community.
	DeleteCommunity(ctx context.Context, id int64) error

	// DeleteGroup removes a lab group.
	DeleteGroup(ctx context.Context, id int64) error

	// DeleteFileSystem removes a configured network file system.
	DeleteFileSystem(ctx context.Context, id int64) error
}

// LDAPClient looks up directory details for users.
type LDAPClient interface {
	// RetrieveSID asks the server to fetch and store the user's LDAP SID.
	RetrieveSID(ctx context.Context, username string) (string, error)
}
