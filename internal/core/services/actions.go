package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driven"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
	"github.com/custodia-labs/labinv/internal/logger"
)

// Ensure RecordActionService implements the interface.
var _ driving.RecordActionService = (*RecordActionService)(nil)

// RecordActionService provides actions on inventory records.
type RecordActionService struct {
	client driven.InventoryClient
	bus    driving.EventBus
}

// NewRecordActionService creates a new record action service.
func NewRecordActionService(client driven.InventoryClient, bus driving.EventBus) *RecordActionService {
	return &RecordActionService{client: client, bus: bus}
}

// OpenDialog publishes a dialog event for the handlers registered on the bus.
func (s *RecordActionService) OpenDialog(ctx context.Context, event domain.Event) error {
	if event == nil {
		return fmt.Errorf("%w: event is nil", domain.ErrInvalidInput)
	}
	if s.bus == nil || s.bus.Publish(ctx, event) == 0 {
		return fmt.Errorf("%w: no handler for %s", domain.ErrNotConfigured, event.Name())
	}
	return nil
}

// Rename changes a record's name.
func (s *RecordActionService) Rename(ctx context.Context, id domain.GlobalID, name string) error {
	if err := requireIDs(id); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if err := s.client.RenameRecord(ctx, id, name); err != nil {
		return wrapOp("rename "+id.String(), err)
	}
	logger.Info("renamed %s to %q", id, name)
	return nil
}

// Tag replaces the tags on each record. Tags are trimmed and deduplicated.
func (s *RecordActionService) Tag(ctx context.Context, ids []domain.GlobalID, tags []string) error {
	if err := requireIDs(ids...); err != nil {
		return err
	}
	tags = cleanTags(tags)
	for _, id := range ids {
		if err := s.client.SetTags(ctx, id, tags); err != nil {
			return wrapOp("tag "+id.String(), err)
		}
	}
	logger.Info("tagged %d record(s)", len(ids))
	return nil
}

// Share shares the records with the given lab groups.
func (s *RecordActionService) Share(ctx context.Context, ids []domain.GlobalID, groupIDs []int64) error {
	if err := requireIDs(ids...); err != nil {
		return err
	}
	if len(groupIDs) == 0 {
		return fmt.Errorf("%w: no groups to share with", domain.ErrInvalidInput)
	}
	if err := s.client.ShareRecords(ctx, ids, groupIDs); err != nil {
		return wrapOp("share records", err)
	}
	return nil
}

// Compare fetches the records in order and builds the comparison table.
func (s *RecordActionService) Compare(ctx context.Context, ids []domain.GlobalID) (*domain.Comparison, error) {
	if len(ids) < 2 {
		return nil, fmt.Errorf("%w: select at least two records to compare", domain.ErrInvalidInput)
	}
	if err := requireIDs(ids...); err != nil {
		return nil, err
	}
	records := make([]domain.InventoryRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.client.GetRecord(ctx, id)
		if err != nil {
			return nil, wrapOp("get "+id.String(), err)
		}
		records = append(records, *rec)
	}
	cmp := domain.CompareRecords(records)
	return &cmp, nil
}

// CopyGlobalIDs copies the ids, one per line, to the system clipboard.
func (s *RecordActionService) CopyGlobalIDs(ids []domain.GlobalID) error {
	if err := requireIDs(ids...); err != nil {
		return err
	}
	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = id.String()
	}
	return copyToClipboard(strings.Join(lines, "\n"))
}

func requireIDs(ids ...domain.GlobalID) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no records selected", domain.ErrInvalidInput)
	}
	for _, id := range ids {
		if !id.IsValid() {
			return fmt.Errorf("%w: invalid global id %q", domain.ErrInvalidInput, id)
		}
	}
	return nil
}

func cleanTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// copyToClipboard writes text to the system clipboard.
func copyToClipboard(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("%w: no clipboard utility found (install xclip, xsel or wl-clipboard)", domain.ErrNotConfigured)
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
