package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driven"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
	"github.com/custodia-labs/labinv/internal/logger"
)

// Ensure AdminService implements the interface.
var _ driving.AdminService = (*AdminService)(nil)

// AdminService administers communities, lab groups and file systems.
type AdminService struct {
	client driven.AdminClient
	bus    driving.EventBus
}

// NewAdminService creates an admin service. Deletions are confirmed
// through confirm-action handlers on bus.
func NewAdminService(client driven.AdminClient, bus driving.EventBus) *AdminService {
	return &AdminService{client: client, bus: bus}
}

// ListCommunities returns all communities.
func (s *AdminService) ListCommunities(ctx context.Context) ([]domain.Community, error) {
	communities, err := s.client.ListCommunities(ctx)
	if err != nil {
		return nil, wrapOp("list communities", err)
	}
	return communities, nil
}

// ListGroups returns lab groups sorted by display name.
func (s *AdminService) ListGroups(ctx context.Context) ([]domain.LabGroup, error) {
	groups, err := s.client.ListGroups(ctx)
	if err != nil {
		return nil, wrapOp("list groups", err)
	}
	domain.SortLabGroups(groups)
	return groups, nil
}

// DeleteCommunity deletes a community after confirmation.
func (s *AdminService) DeleteCommunity(ctx context.Context, id int64) error {
	return s.confirmedDelete(ctx, "community", id, s.client.DeleteCommunity)
}

// DeleteGroup deletes a lab group after confirmation.
func (s *AdminService) DeleteGroup(ctx context.Context, id int64) error {
	return s.confirmedDelete(ctx, "group", id, s.client.DeleteGroup)
}

// DeleteFileSystem deletes a network file system after confirmation.
func (s *AdminService) DeleteFileSystem(ctx context.Context, id int64) error {
	return s.confirmedDelete(ctx, "file system", id, s.client.DeleteFileSystem)
}

func (s *AdminService) confirmedDelete(
	ctx context.Context,
	what string,
	id int64,
	del func(context.Context, int64) error,
) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid %s id %d", domain.ErrInvalidInput, what, id)
	}

	confirmed, err := s.confirm(ctx, domain.ConfirmAction{
		Title:        "Delete " + what,
		Message:      fmt.Sprintf("Are you sure you want to delete %s %d? This cannot be undone.", what, id),
		ConfirmLabel: "Delete",
	})
	if err != nil {
		return err
	}
	if !confirmed {
		logger.Debug("admin: delete %s %d not confirmed", what, id)
		return domain.ErrNotConfirmed
	}

	if err := del(ctx, id); err != nil {
		return wrapOp(fmt.Sprintf("delete %s %d", what, id), err)
	}
	logger.Info("admin: deleted %s %d", what, id)
	return nil
}

// confirm publishes the action and waits for the first answer. Handlers
// may answer during Publish or later from another goroutine.
func (s *AdminService) confirm(ctx context.Context, action domain.ConfirmAction) (bool, error) {
	if s.bus == nil {
		return false, nil
	}
	answer := make(chan bool, 1)
	var once sync.Once
	action.Respond = func(confirmed bool) {
		once.Do(func() { answer <- confirmed })
	}

	if s.bus.Publish(ctx, action) == 0 {
		return false, nil
	}
	select {
	case confirmed := <-answer:
		return confirmed, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
