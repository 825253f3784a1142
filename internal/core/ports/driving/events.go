package driving

import (
	"context"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// Handler receives a published event.
type Handler func(ctx context.Context, event domain.Event)

// EventBus is a typed in-process publish/subscribe bus.
type EventBus interface {
	// Subscribe registers a handler for name and returns a function that removes it.
	Subscribe(name domain.EventName, handler Handler) (unsubscribe func())

	// Publish delivers event to every handler subscribed to its name, in
	// subscription order, and returns how many handlers ran.
	Publish(ctx context.Context, event domain.Event) int
}
