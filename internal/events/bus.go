// Package events re-exports the platform event bus for convenience.
// This allows internal modules to import events from internal/events
// while the implementation lives in platform/events.
package events

import (
	"context"

	platformevents "homni_backend/platform/events"
	"homni_backend/platform/logger"
)

// InMemoryBus is a type alias to the platform InMemoryBus
type InMemoryBus = platformevents.InMemoryBus

// Option is a type alias to the platform bus Option
type Option = platformevents.Option

// WithFailureHook re-exports platformevents.WithFailureHook.
var WithFailureHook = platformevents.WithFailureHook

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger, opts ...Option) *InMemoryBus {
	return platformevents.NewInMemoryBus(log, opts...)
}

// SubscribeTyped registers fn for events of type T.
func SubscribeTyped[T Event](bus Bus, fn func(ctx context.Context, event T) error) func() {
	return platformevents.SubscribeTyped(bus, fn)
}
