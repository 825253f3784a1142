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

// Ensure LDAPService implements the interface.
var _ driving.LDAPService = (*LDAPService)(nil)

// LDAPService retrieves LDAP SIDs one user at a time through the task queue.
type LDAPService struct {
	client driven.LDAPClient
	queue  driving.TaskQueue

	mu      sync.Mutex
	stopped bool
}

// NewLDAPService creates an LDAP service.
func NewLDAPService(client driven.LDAPClient, queue driving.TaskQueue) *LDAPService {
	return &LDAPService{client: client, queue: queue}
}

// RetrieveSIDs requests the SID of each user in order. A failed lookup is
// recorded on its result and does not stop the run. Users skipped after
// Stop are not included in the results.
func (s *LDAPService) RetrieveSIDs(
	ctx context.Context,
	usernames []string,
	progress func(domain.SIDResult),
) ([]domain.SIDResult, error) {
	if len(usernames) == 0 {
		return nil, fmt.Errorf("%w: no usernames", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	s.stopped = false
	s.mu.Unlock()

	results := make([]domain.SIDResult, 0, len(usernames))
	for _, username := range usernames {
		if s.isStopped() {
			logger.Info("ldap: stopped before %q", username)
			break
		}

		res := domain.SIDResult{Username: username}
		fn := func(ctx context.Context) error {
			sid, err := s.client.RetrieveSID(ctx, username)
			if err != nil {
				return err
			}
			res.SID = sid
			return nil
		}
		task := domain.Task{Kind: domain.TaskKindSIDRetrieval, Name: username}
		done, err := s.queue.Submit(task, fn)
		if err != nil {
			return results, wrapOp("retrieve sid", err)
		}

		var tr domain.TaskResult
		select {
		case tr = <-done:
		case <-ctx.Done():
			return results, ctx.Err()
		}

		if tr.Status == domain.TaskCancelled {
			break
		}
		if tr.Status == domain.TaskFailed {
			res.Error = tr.Error
		}
		results = append(results, res)
		if progress != nil {
			progress(res)
		}
	}
	return results, nil
}

// Stop prevents lookups that have not started yet.
func (s *LDAPService) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.queue.CancelPending()
}

func (s *LDAPService) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
