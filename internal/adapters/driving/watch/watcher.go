// Package watch turns a drop folder into a batch registration inbox.
// CSV files written into the folder are parsed and created.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
	"github.com/custodia-labs/labinv/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is imported.
const DefaultDebounce = 500 * time.Millisecond

// Result reports one imported file.
type Result struct {
	Path     string
	Messages []string
	Created  *domain.BatchCreateResult
	Err      error
}

// Watcher imports *.csv files dropped into a directory.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	service     driving.RegistrationService
	dir         string
	debounceDur time.Duration
	pending     map[string]time.Time
	onResult    func(Result)
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a watcher for dir. onResult, if set, is called after each file.
func NewWatcher(dir string, service driving.RegistrationService, onResult func(Result)) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch %s: %w: not a directory", dir, domain.ErrInvalidInput)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		watcher:     fw,
		service:     service,
		dir:         dir,
		debounceDur: DefaultDebounce,
		pending:     make(map[string]time.Time),
		onResult:    onResult,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet period. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounceDur = d
}

// Start begins watching. This method is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("watching %s for registration CSV files", w.dir)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the file being imported.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		logger.Warn("watch: error closing watcher: %v", err)
	}
}

// Done is closed when the event loop exits.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("watch: %v", err)
		case <-ticker.C:
			w.processDue(ctx)
		}
	}
}

func (w *Watcher) tick() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t := w.debounceDur / 5; t > 0 {
		return t
	}
	return 10 * time.Millisecond
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.EqualFold(filepath.Ext(event.Name), ".csv") {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	logger.Debug("watch: %s %s", event.Op, event.Name)

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// processDue imports files that have been quiet for the debounce period.
func (w *Watcher) processDue(ctx context.Context) {
	w.mu.Lock()
	var due []string
	for path, last := range w.pending {
		if time.Since(last) >= w.debounceDur {
			due = append(due, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range due {
		res := w.importFile(ctx, path)
		if w.onResult != nil {
			w.onResult(res)
		}
	}
}

func (w *Watcher) importFile(ctx context.Context, path string) Result {
	res := Result{Path: path}

	f, err := os.Open(path)
	if err != nil {
		res.Err = err
		return res
	}
	defer f.Close()

	parsed, messages, err := w.service.ParseCSV(ctx, path, f)
	if err != nil {
		res.Err = err
		logger.Error("watch: %s: %v", filepath.Base(path), err)
		return res
	}
	res.Messages = messages
	if parsed.RowErrorCount() > 0 {
		res.Err = fmt.Errorf("%w: %d row(s) rejected by the parser", domain.ErrValidationFailed, parsed.RowErrorCount())
		return res
	}

	res.Created, res.Err = w.service.Create(ctx, parsed)
	if res.Err != nil {
		logger.Error("watch: %s: %v", filepath.Base(path), res.Err)
	} else {
		logger.Info("watch: imported %s", filepath.Base(path))
	}
	return res
}
