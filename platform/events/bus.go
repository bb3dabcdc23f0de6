package events

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"homni_backend/platform/logger"
)

// FailureHook is notified for every handler that fails.
type FailureHook func(eventName string, err error)

// Option configures an InMemoryBus.
type Option func(*InMemoryBus)

// WithFailureHook reports handler failures to fn in addition to the log.
func WithFailureHook(fn FailureHook) Option {
	return func(b *InMemoryBus) {
		b.onFailure = fn
	}
}

type subscription struct {
	id      uint64
	handler Handler
	once    bool
}

// InMemoryBus is a synchronous, process-local Bus.
//
// Handlers run on the publisher's goroutine in registration order. The
// registry is guarded so subscriptions may change while requests publish
// concurrently; handlers are invoked outside the lock and may themselves
// subscribe or publish.
type InMemoryBus struct {
	mu        sync.Mutex
	handlers  map[string][]*subscription
	nextID    uint64
	log       *logger.Logger
	onFailure FailureHook
}

var _ Bus = (*InMemoryBus)(nil)

// NewInMemoryBus creates an empty bus.
func NewInMemoryBus(log *logger.Logger, opts ...Option) *InMemoryBus {
	b := &InMemoryBus{
		handlers: make(map[string][]*subscription),
		log:      log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for eventName.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) func() {
	return b.add(eventName, handler, false)
}

// SubscribeOnce registers handler for a single delivery.
func (b *InMemoryBus) SubscribeOnce(eventName string, handler Handler) func() {
	return b.add(eventName, handler, true)
}

func (b *InMemoryBus) add(eventName string, handler Handler, once bool) func() {
	b.mu.Lock()
	b.nextID++
	sub := &subscription{id: b.nextID, handler: handler, once: once}
	b.handlers[eventName] = append(b.handlers[eventName], sub)
	b.mu.Unlock()

	return func() { b.removeByID(eventName, sub.id) }
}

// Unsubscribe removes the first registration whose handler equals handler.
// Only comparable handler values (pointers, comparable structs) can match.
// A HandlerFunc never matches; remove it with the function returned by
// Subscribe.
func (b *InMemoryBus) Unsubscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventName]
	for i, sub := range subs {
		if sameHandler(sub.handler, handler) {
			b.handlers[eventName] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (b *InMemoryBus) removeByID(eventName string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventName]
	for i, sub := range subs {
		if sub.id == id {
			b.handlers[eventName] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Clear removes every registration for every event name.
func (b *InMemoryBus) Clear() {
	b.mu.Lock()
	b.handlers = make(map[string][]*subscription)
	b.mu.Unlock()
}

// ListenerCount reports how many handlers are registered for eventName.
func (b *InMemoryBus) ListenerCount(eventName string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[eventName])
}

// Publish delivers event to its handlers. Failures are logged and dropped.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	_ = b.dispatch(ctx, event)
}

// PublishSync delivers event to its handlers and returns their joined errors.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	return errors.Join(b.dispatch(ctx, event)...)
}

func (b *InMemoryBus) dispatch(ctx context.Context, event Event) []error {
	if event == nil {
		return nil
	}
	name := event.EventName()

	var failures []error
	for _, sub := range b.snapshot(name) {
		if err := invoke(ctx, sub.handler, event); err != nil {
			b.reportFailure(name, err)
			failures = append(failures, err)
		}
	}
	return failures
}

// snapshot copies the current handlers and drops once-handlers from the
// registry so a nested publish cannot deliver to them twice.
func (b *InMemoryBus) snapshot(eventName string) []*subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventName]
	if len(subs) == 0 {
		return nil
	}

	out := make([]*subscription, len(subs))
	copy(out, subs)

	kept := subs[:0:0]
	for _, sub := range subs {
		if !sub.once {
			kept = append(kept, sub)
		}
	}
	if len(kept) != len(subs) {
		b.handlers[eventName] = kept
	}
	return out
}

func (b *InMemoryBus) reportFailure(eventName string, err error) {
	if b.log != nil {
		b.log.EventListenerFailed(eventName, err)
	}
	if b.onFailure != nil {
		b.onFailure(eventName, err)
	}
}

func invoke(ctx context.Context, handler Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

func sameHandler(a, b Handler) bool {
	if a == nil || b == nil {
		return false
	}
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}
	return a == b
}
