package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

func TestAdmin_ListGroupsSortsByDisplayName(t *testing.T) {
	client := &mockAdminClient{groups: []domain.LabGroup{
		{ID: 3, DisplayName: "zeta lab"},
		{ID: 1, DisplayName: "Alpha Lab"},
		{ID: 2, DisplayName: "beta lab"},
	}}
	s := NewAdminService(client, nil)

	groups, err := s.ListGroups(context.Background())

	require.NoError(t, err)
	names := []string{groups[0].DisplayName, groups[1].DisplayName, groups[2].DisplayName}
	assert.Equal(t, []string{"Alpha Lab", "beta lab", "zeta lab"}, names)
}

func TestAdmin_ListErrors(t *testing.T) {
	s := NewAdminService(&mockAdminClient{err: errors.New("403")}, nil)
	ctx := context.Background()

	_, err := s.ListGroups(ctx)
	var opErr *domain.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "list groups", opErr.Op)

	_, err = s.ListCommunities(ctx)
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "list communities", opErr.Op)
}

func TestAdmin_DeleteNeedsConfirmation(t *testing.T) {
	tests := []struct {
		name      string
		subscribe bool
		answer    bool
		wantErr   error
		wantCalls []string
	}{
		{"confirmed", true, true, nil, []string{"community", "group", "filesystem"}},
		{"declined", true, false, domain.ErrNotConfirmed, nil},
		{"nobody listening", false, false, domain.ErrNotConfirmed, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewEventBus()
			var prompts []domain.ConfirmAction
			if tt.subscribe {
				SubscribeTo(bus, domain.EventConfirmAction, func(_ context.Context, e domain.ConfirmAction) {
					prompts = append(prompts, e)
					e.Respond(tt.answer)
				})
			}
			client := &mockAdminClient{}
			s := NewAdminService(client, bus)
			ctx := context.Background()

			for _, del := range []func(context.Context, int64) error{s.DeleteCommunity, s.DeleteGroup, s.DeleteFileSystem} {
				err := del(ctx, 7)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.NoError(t, err)
				}
			}

			assert.Equal(t, tt.wantCalls, client.deleted)
			if tt.subscribe {
				require.Len(t, prompts, 3)
				assert.Equal(t, "Delete community", prompts[0].Title)
				assert.Equal(t, "Delete", prompts[0].ConfirmLabel)
				assert.Contains(t, prompts[2].Message, "file system 7")
			}
		})
	}
}

func TestAdmin_AsynchronousAnswer(t *testing.T) {
	bus := NewEventBus()
	SubscribeTo(bus, domain.EventConfirmAction, func(_ context.Context, e domain.ConfirmAction) {
		go func() {
			time.Sleep(5 * time.Millisecond)
			e.Respond(true)
			e.Respond(false)
		}()
	})
	client := &mockAdminClient{}
	s := NewAdminService(client, bus)

	require.NoError(t, s.DeleteGroup(context.Background(), 4))
	assert.Equal(t, []string{"group"}, client.deleted)
}

func TestAdmin_ConfirmationCancelled(t *testing.T) {
	bus := NewEventBus()
	bus.Subscribe(domain.EventConfirmAction, func(context.Context, domain.Event) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &mockAdminClient{}
	s := NewAdminService(client, bus)

	err := s.DeleteCommunity(ctx, 1)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.deleted)
}

func TestAdmin_InvalidID(t *testing.T) {
	s := NewAdminService(&mockAdminClient{}, NewEventBus())

	assert.ErrorIs(t, s.DeleteGroup(context.Background(), 0), domain.ErrInvalidInput)
}

func TestAdmin_DeleteFailure(t *testing.T) {
	bus := NewEventBus()
	SubscribeTo(bus, domain.EventConfirmAction, func(_ context.Context, e domain.ConfirmAction) { e.Respond(true) })
	s := NewAdminService(&mockAdminClient{err: errors.New("group has members")}, bus)

	err := s.DeleteGroup(context.Background(), 9)

	var opErr *domain.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "delete group 9", opErr.Op)
}
