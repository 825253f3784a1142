package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
	"github.com/custodia-labs/labinv/internal/logger"
)

// Ensure EventBus implements the interface.
var _ driving.EventBus = (*EventBus)(nil)

type subscription struct {
	id      uint64
	handler driving.Handler
}

// EventBus delivers events synchronously to handlers subscribed by name.
type EventBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[domain.EventName][]subscription
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[domain.EventName][]subscription)}
}

// Subscribe registers handler for name. Calling the returned function
// removes it; calling it again does nothing.
func (b *EventBus) Subscribe(name domain.EventName, handler driving.Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(name, id) })
	}
}

func (b *EventBus) unsubscribe(name domain.EventName, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[name]
	for i, s := range subs {
		if s.id == id {
			b.subs[name] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[name]) == 0 {
		delete(b.subs, name)
	}
}

// Publish runs every handler subscribed to the event's name in subscription
// order and returns how many ran. A panicking handler is logged and skipped.
func (b *EventBus) Publish(ctx context.Context, event domain.Event) int {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[event.Name()]...)
	b.mu.RUnlock()

	logger.Debug("event %s: %d handler(s)", event.Name(), len(subs))
	ran := 0
	for _, s := range subs {
		if b.dispatch(ctx, s.handler, event) {
			ran++
		}
	}
	return ran
}

func (b *EventBus) dispatch(ctx context.Context, handler driving.Handler, event domain.Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event %s: handler panicked: %v", event.Name(), r)
			ok = false
		}
	}()
	handler(ctx, event)
	return true
}

// Subscribers returns how many handlers listen for name.
func (b *EventBus) Subscribers(name domain.EventName) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}

// SubscribeTo registers a handler that only sees events of type T.
func SubscribeTo[T domain.Event](bus driving.EventBus, name domain.EventName, fn func(context.Context, T)) func() {
	return bus.Subscribe(name, func(ctx context.Context, event domain.Event) {
		if typed, ok := event.(T); ok {
			fn(ctx, typed)
		}
	})
}
