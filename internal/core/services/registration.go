package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driven"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
	"github.com/custodia-labs/labinv/internal/logger"
)

// Ensure RegistrationService implements the interface.
var _ driving.RegistrationService = (*RegistrationService)(nil)

// RegistrationService parses and creates users, groups and communities in batch.
type RegistrationService struct {
	parser   driven.RegistrationParser
	client   driven.RegistrationClient
	queue    driving.TaskQueue
	validate *validator.Validate

	mu      sync.Mutex
	stopped bool
}

// NewRegistrationService creates a registration service. The queue must be
// started by the caller.
func NewRegistrationService(
	parser driven.RegistrationParser,
	client driven.RegistrationClient,
	queue driving.TaskQueue,
) *RegistrationService {
	return &RegistrationService{
		parser:   parser,
		client:   client,
		queue:    queue,
		validate: newValidator(),
	}
}

// ParseCSV parses an uploaded CSV file.
func (s *RegistrationService) ParseCSV(
	ctx context.Context,
	filename string,
	r io.Reader,
) (*domain.ParsedRegistration, []string, error) {
	parsed, messages, err := s.parser.ParseCSV(ctx, filename, r)
	if err != nil {
		return nil, nil, wrapOp("parse csv", err)
	}
	return parsed, messages, nil
}

// ParseInputString parses pasted registration text.
func (s *RegistrationService) ParseInputString(
	ctx context.Context,
	input string,
) (*domain.ParsedRegistration, []string, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil, fmt.Errorf("%w: input is empty", domain.ErrInvalidInput)
	}
	parsed, messages, err := s.parser.ParseInputString(ctx, input)
	if err != nil {
		return nil, nil, wrapOp("parse input", err)
	}
	return parsed, messages, nil
}

// Validate checks required fields, email syntax, duplicate usernames and
// that every group names a PI. It returns domain.ValidationErrors.
func (s *RegistrationService) Validate(parsed *domain.ParsedRegistration) error {
	if parsed == nil || parsed.IsEmpty() {
		return fmt.Errorf("%w: nothing to create", domain.ErrInvalidInput)
	}

	var errs domain.ValidationErrors
	for i, u := range parsed.Users {
		if err := s.validate.Struct(u); err != nil {
			errs = append(errs, fieldErrors(rowName(domain.RowKindUser, i, u.Username), err)...)
		}
	}
	for _, dup := range domain.DuplicateUsernames(parsed.Users) {
		errs = append(errs, domain.FieldError{
			Row:     rowName(domain.RowKindUser, -1, dup),
			Field:   "username",
			Message: fmt.Sprintf("username %q is used more than once", dup),
		})
	}
	for i, g := range parsed.Groups {
		if err := s.validate.Struct(g); err != nil {
			errs = append(errs, fieldErrors(rowName(domain.RowKindGroup, i, g.DisplayName), err)...)
		}
	}
	for i, c := range parsed.Communities {
		if err := s.validate.Struct(c); err != nil {
			errs = append(errs, fieldErrors(rowName(domain.RowKindCommunity, i, c.DisplayName), err)...)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Create validates, then submits users, groups and communities in that
// order as separate queue units. Each table waits for the previous one.
// Server validation messages are routed to rows; they are not errors.
func (s *RegistrationService) Create(
	ctx context.Context,
	parsed *domain.ParsedRegistration,
) (*domain.BatchCreateResult, error) {
	if err := s.Validate(parsed); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.stopped = false
	s.mu.Unlock()

	result := &domain.BatchCreateResult{
		Created: make(map[domain.RowKind]int),
		Rows:    cloneRegistration(parsed),
	}

	var messages []string
	for _, kind := range result.Rows.VisibleTables() {
		if s.isStopped() {
			result.Cancelled = append(result.Cancelled, kind)
			continue
		}

		var tableMessages []string
		fn := func(ctx context.Context) error {
			var err error
			tableMessages, err = s.createTable(ctx, kind, &result.Rows)
			return err
		}
		task := domain.Task{Kind: domain.TaskKindBatchCreate, Name: "create " + string(kind) + "s"}
		done, err := s.queue.Submit(task, fn)
		if err != nil {
			return result, wrapOp("create "+string(kind)+"s", err)
		}

		var res domain.TaskResult
		select {
		case res = <-done:
		case <-ctx.Done():
			return result, ctx.Err()
		}

		switch res.Status {
		case domain.TaskCancelled:
			result.Cancelled = append(result.Cancelled, kind)
			continue
		case domain.TaskFailed:
			return result, &domain.OperationError{Op: "create " + string(kind) + "s", Err: fmt.Errorf("%s", res.Error)}
		}

		messages = append(messages, tableMessages...)
		result.Created[kind] = tableSize(result.Rows, kind) - countRowsWithErrors(result.Rows, kind, tableMessages)
		logger.Info("registration: created %d %s(s)", result.Created[kind], kind)
	}

	result.Unrouted = result.Rows.RouteValidationMessages(messages)
	return result, nil
}

// StopCreate cancels tables that have not been submitted yet.
// A table already being created completes.
func (s *RegistrationService) StopCreate() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.queue.CancelPending()
}

func (s *RegistrationService) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *RegistrationService) createTable(
	ctx context.Context,
	kind domain.RowKind,
	rows *domain.ParsedRegistration,
) ([]string, error) {
	switch kind {
	case domain.RowKindUser:
		return s.client.CreateUsers(ctx, rows.Users)
	case domain.RowKindGroup:
		return s.client.CreateGroups(ctx, rows.Groups)
	case domain.RowKindCommunity:
		return s.client.CreateCommunities(ctx, rows.Communities)
	default:
		return nil, fmt.Errorf("%w: unknown table %q", domain.ErrInvalidInput, kind)
	}
}

func tableSize(p domain.ParsedRegistration, kind domain.RowKind) int {
	switch kind {
	case domain.RowKindUser:
		return len(p.Users)
	case domain.RowKindGroup:
		return len(p.Groups)
	case domain.RowKindCommunity:
		return len(p.Communities)
	}
	return 0
}

// countRowsWithErrors counts distinct rows of kind named by messages.
func countRowsWithErrors(p domain.ParsedRegistration, kind domain.RowKind, messages []string) int {
	keys := make(map[string]struct{})
	for _, raw := range messages {
		vm, ok := domain.ParseValidationMessage(raw)
		if !ok || vm.Kind != kind {
			continue
		}
		keys[vm.UniqueKey] = struct{}{}
	}
	n := 0
	switch kind {
	case domain.RowKindUser:
		for _, u := range p.Users {
			if _, ok := keys[u.Username]; ok {
				n++
			}
		}
	case domain.RowKindGroup:
		for _, g := range p.Groups {
			if _, ok := keys[g.DisplayName]; ok {
				n++
			}
		}
	case domain.RowKindCommunity:
		for _, c := range p.Communities {
			if _, ok := keys[c.DisplayName]; ok {
				n++
			}
		}
	}
	return n
}

func rowName(kind domain.RowKind, index int, key string) string {
	if key != "" {
		return fmt.Sprintf("%s %q", kind, key)
	}
	return fmt.Sprintf("%s row %d", kind, index+1)
}

func cloneRegistration(p *domain.ParsedRegistration) domain.ParsedRegistration {
	out := domain.ParsedRegistration{
		Users:       append([]domain.UserRow(nil), p.Users...),
		Groups:      append([]domain.GroupRow(nil), p.Groups...),
		Communities: append([]domain.CommunityRow(nil), p.Communities...),
	}
	for i := range out.Users {
		out.Users[i].Errors = nil
	}
	for i := range out.Groups {
		out.Groups[i].Errors = nil
	}
	for i := range out.Communities {
		out.Communities[i].Errors = nil
	}
	return out
}
