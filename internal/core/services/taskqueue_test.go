package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/custodia-labs/labinv/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/labinv/internal/core/domain"
)

// noLeaks fails the test if goroutines it started outlive its cleanups.
func noLeaks(t *testing.T) {
	t.Helper()
	current := goleak.IgnoreCurrent()
	t.Cleanup(func() { goleak.VerifyNone(t, current) })
}

func startQueue(t *testing.T, q *TaskQueue) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.Start(context.Background())
	}()
	t.Cleanup(func() {
		_ = q.Stop()
		<-done
	})
}

func waitResult(t *testing.T, ch <-chan domain.TaskResult) domain.TaskResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for task result")
		return domain.TaskResult{}
	}
}

func TestTaskQueue_RunsInSubmissionOrder(t *testing.T) {
	noLeaks(t)
	q := NewTaskQueue(nil)

	var mu sync.Mutex
	var order []int
	var results []<-chan domain.TaskResult
	for i := range 5 {
		ch, err := q.Submit(domain.Task{Kind: "test"}, func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
		results = append(results, ch)
	}

	startQueue(t, q)
	for _, ch := range results {
		assert.Equal(t, domain.TaskSucceeded, waitResult(t, ch).Status)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestTaskQueue_SingleConcurrency(t *testing.T) {
	noLeaks(t)
	q := NewTaskQueue(nil)
	startQueue(t, q)

	var mu sync.Mutex
	running, peak := 0, 0
	fn := func(context.Context) error {
		mu.Lock()
		running++
		peak = max(peak, running)
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		running--
		mu.Unlock()
		return nil
	}

	var results []<-chan domain.TaskResult
	for range 4 {
		ch, err := q.Submit(domain.Task{Kind: "test"}, fn)
		require.NoError(t, err)
		results = append(results, ch)
	}
	for _, ch := range results {
		waitResult(t, ch)
	}

	assert.Equal(t, 1, peak)
}

func TestTaskQueue_FailureAndPanic(t *testing.T) {
	noLeaks(t)
	q := NewTaskQueue(nil)
	startQueue(t, q)

	failed, err := q.Submit(domain.Task{Kind: "test", Name: "fails"}, func(context.Context) error {
		return errors.New("server said no")
	})
	require.NoError(t, err)
	panicked, err := q.Submit(domain.Task{Kind: "test", Name: "panics"}, func(context.Context) error {
		panic("boom")
	})
	require.NoError(t, err)
	after, err := q.Submit(domain.Task{Kind: "test", Name: "after"}, func(context.Context) error { return nil })
	require.NoError(t, err)

	r := waitResult(t, failed)
	assert.Equal(t, domain.TaskFailed, r.Status)
	assert.Equal(t, "server said no", r.Error)
	assert.Equal(t, "fails", r.Name)

	r = waitResult(t, panicked)
	assert.Equal(t, domain.TaskFailed, r.Status)
	assert.Contains(t, r.Error, "boom")

	assert.Equal(t, domain.TaskSucceeded, waitResult(t, after).Status, "queue survives a panic")
}

func TestTaskQueue_CancelPendingKeepsInFlight(t *testing.T) {
	noLeaks(t)
	q := NewTaskQueue(nil)
	startQueue(t, q)

	started := make(chan struct{})
	release := make(chan struct{})
	inFlight, err := q.Submit(domain.Task{Kind: "test"}, func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)
	<-started

	ran := false
	queued, err := q.Submit(domain.Task{Kind: "test"}, func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, q.CancelPending())
	r := waitResult(t, queued)
	assert.Equal(t, domain.TaskCancelled, r.Status)
	assert.Equal(t, domain.ErrTaskCancelled.Error(), r.Error)

	close(release)
	assert.Equal(t, domain.TaskSucceeded, waitResult(t, inFlight).Status)
	assert.False(t, ran)
	assert.Zero(t, q.Pending())
}

func TestTaskQueue_StopCancelsQueuedAndRejectsNewWork(t *testing.T) {
	noLeaks(t)
	q := NewTaskQueue(nil)

	queued, err := q.Submit(domain.Task{Kind: "test"}, func(context.Context) error { return nil })
	require.NoError(t, err)

	require.NoError(t, q.Stop())
	assert.Equal(t, domain.TaskCancelled, waitResult(t, queued).Status)

	_, err = q.Submit(domain.Task{Kind: "test"}, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, domain.ErrQueueStopped)
	assert.ErrorIs(t, q.Start(context.Background()), domain.ErrQueueStopped)
	assert.NoError(t, q.Stop(), "second stop is a no-op")
}

func TestTaskQueue_ContextCancelStopsWorker(t *testing.T) {
	noLeaks(t)
	q := NewTaskQueue(nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- q.Start(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestTaskQueue_SubmitNilFunction(t *testing.T) {
	q := NewTaskQueue(nil)

	_, err := q.Submit(domain.Task{Kind: "test"}, nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTaskQueue_RecordsHistory(t *testing.T) {
	noLeaks(t)
	store := memory.NewTaskStore()
	q := NewTaskQueue(store)
	startQueue(t, q)

	ch, err := q.Submit(domain.Task{ID: "t-1", Kind: "ldap", Name: "alice"}, func(context.Context) error { return nil })
	require.NoError(t, err)
	waitResult(t, ch)

	history, err := q.History(context.Background(), "ldap", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "t-1", history[0].TaskID)
	assert.Equal(t, domain.TaskSucceeded, history[0].Status)
}

func TestTaskQueue_HistoryWithoutStore(t *testing.T) {
	q := NewTaskQueue(nil)

	history, err := q.History(context.Background(), "", 10)

	assert.NoError(t, err)
	assert.Nil(t, history)
}
