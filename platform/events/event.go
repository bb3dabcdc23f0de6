// Package events provides event bus infrastructure for decoupled,
// event-driven communication between modules.
// This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"fmt"
	"time"
)

// Event is the base interface all domain events must implement.
type Event interface {
	// EventName returns a unique identifier for the event type.
	EventName() string
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

// Handler processes events of a specific type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc is an adapter to allow ordinary functions to be used as handlers.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus is the interface for publishing and subscribing to domain events.
type Bus interface {
	// Publish delivers an event to every handler registered for its name,
	// in registration order. Handler errors and panics are contained and
	// logged; the publisher never observes them.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers like Publish and additionally returns the
	// joined handler errors.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for an event name. The returned
	// function removes exactly this registration and is the only way to
	// remove a HandlerFunc.
	Subscribe(eventName string, handler Handler) (unsubscribe func())

	// SubscribeOnce registers a handler that is removed before its first invocation.
	SubscribeOnce(eventName string, handler Handler) (unsubscribe func())

	// Unsubscribe removes the first registration of handler for eventName.
	// Handlers are matched with ==, so only comparable values such as
	// pointers can be removed this way.
	Unsubscribe(eventName string, handler Handler)

	// Clear removes every registration.
	Clear()
}

// SubscribeTyped registers fn for events of type T. T must be a value type
// whose zero value reports its event name.
func SubscribeTyped[T Event](bus Bus, fn func(ctx context.Context, event T) error) (unsubscribe func()) {
	var zero T
	return bus.Subscribe(zero.EventName(), HandlerFunc(func(ctx context.Context, event Event) error {
		typed, ok := event.(T)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", event, event.EventName())
		}
		return fn(ctx, typed)
	}))
}
