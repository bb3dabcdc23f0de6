package events

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"homni_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	Value string
}

func (testEvent) EventName() string { return "test.happened" }

type otherEvent struct{ BaseEvent }

func (otherEvent) EventName() string { return "test.other" }

type recordingHandler struct {
	calls int
}

func (h *recordingHandler) Handle(context.Context, Event) error {
	h.calls++
	return nil
}

func newTestBus(opts ...Option) *InMemoryBus {
	return NewInMemoryBus(logger.Discard(), opts...)
}

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	bus := newTestBus()
	var order []string

	bus.Subscribe("test.happened", HandlerFunc(func(context.Context, Event) error {
		order = append(order, "first")
		return nil
	}))
	bus.Subscribe("test.happened", HandlerFunc(func(context.Context, Event) error {
		order = append(order, "second")
		return nil
	}))

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent()})

	if strings.Join(order, ",") != "first,second" {
		t.Fatalf("unexpected delivery order %v", order)
	}
}

func TestPublishIsolatesFailingListeners(t *testing.T) {
	var failures []string
	bus := newTestBus(WithFailureHook(func(name string, err error) {
		failures = append(failures, name+": "+err.Error())
	}))

	reached := 0
	bus.Subscribe("test.happened", HandlerFunc(func(context.Context, Event) error {
		return errors.New("listener down")
	}))
	bus.Subscribe("test.happened", HandlerFunc(func(context.Context, Event) error {
		panic("listener exploded")
	}))
	bus.Subscribe("test.happened", HandlerFunc(func(context.Context, Event) error {
		reached++
		return nil
	}))

	bus.Publish(context.Background(), testEvent{})

	if reached != 1 {
		t.Fatalf("expected healthy listener to run once, got %d", reached)
	}
	if len(failures) != 2 {
		t.Fatalf("expected two reported failures, got %v", failures)
	}
	if !strings.Contains(failures[1], "listener exploded") {
		t.Fatalf("expected panic value in failure report, got %q", failures[1])
	}
}

func TestPublishSyncJoinsErrors(t *testing.T) {
	bus := newTestBus()
	errA := errors.New("a")
	errB := errors.New("b")
	bus.Subscribe("test.happened", HandlerFunc(func(context.Context, Event) error { return errA }))
	bus.Subscribe("test.happened", HandlerFunc(func(context.Context, Event) error { return errB }))

	err := bus.PublishSync(context.Background(), testEvent{})
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected both errors joined, got %v", err)
	}
}

func TestPublishWithoutListenersIsNoop(t *testing.T) {
	bus := newTestBus()
	if err := bus.PublishSync(context.Background(), testEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSubscribeOnceFiresOnce(t *testing.T) {
	bus := newTestBus()
	handler := &recordingHandler{}
	bus.SubscribeOnce("test.happened", handler)

	bus.Publish(context.Background(), testEvent{})
	bus.Publish(context.Background(), testEvent{})

	if handler.calls != 1 {
		t.Fatalf("expected one call, got %d", handler.calls)
	}
	if bus.ListenerCount("test.happened") != 0 {
		t.Fatal("expected once-handler removed after delivery")
	}
}

func TestSubscribeOnceSurvivesNestedPublish(t *testing.T) {
	bus := newTestBus()
	calls := 0
	bus.SubscribeOnce("test.happened", HandlerFunc(func(ctx context.Context, e Event) error {
		calls++
		bus.Publish(ctx, e)
		return nil
	}))

	bus.Publish(context.Background(), testEvent{})

	if calls != 1 {
		t.Fatalf("expected once-handler to run once under re-entrant publish, got %d", calls)
	}
}

func TestUnsubscribeByHandlerIdentity(t *testing.T) {
	bus := newTestBus()
	kept := &recordingHandler{}
	removed := &recordingHandler{}
	bus.Subscribe("test.happened", kept)
	bus.Subscribe("test.happened", removed)

	bus.Unsubscribe("test.happened", removed)
	bus.Publish(context.Background(), testEvent{})

	if removed.calls != 0 || kept.calls != 1 {
		t.Fatalf("unexpected calls kept=%d removed=%d", kept.calls, removed.calls)
	}
}

func TestUnsubscribeUnknownHandlerIsNoop(t *testing.T) {
	bus := newTestBus()
	bus.Subscribe("test.happened", &recordingHandler{})
	bus.Unsubscribe("test.happened", &recordingHandler{})
	bus.Unsubscribe("never.registered", &recordingHandler{})

	if bus.ListenerCount("test.happened") != 1 {
		t.Fatal("expected registration to remain")
	}
}

func TestUnsubscribeFuncRemovesOnlyItsRegistration(t *testing.T) {
	bus := newTestBus()
	handler := &recordingHandler{}
	first := bus.Subscribe("test.happened", handler)
	bus.Subscribe("test.happened", handler)

	first()
	first()
	bus.Publish(context.Background(), testEvent{})

	if handler.calls != 1 {
		t.Fatalf("expected one remaining registration, got %d calls", handler.calls)
	}
}

func TestClosuresFromOneLiteralAreRemovedIndependently(t *testing.T) {
	bus := newTestBus()
	var got []string
	listener := func(label string) HandlerFunc {
		return func(context.Context, Event) error {
			got = append(got, label)
			return nil
		}
	}
	first := listener("first")
	second := listener("second")
	unsubscribeFirst := bus.Subscribe("test.happened", first)
	bus.Subscribe("test.happened", second)

	bus.Unsubscribe("test.happened", second)
	if bus.ListenerCount("test.happened") != 2 {
		t.Fatal("expected func handlers to be left alone by Unsubscribe")
	}

	unsubscribeFirst()
	bus.Publish(context.Background(), testEvent{})

	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("expected only the second closure to run, got %v", got)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	bus := newTestBus()
	a := &recordingHandler{}
	b := &recordingHandler{}
	bus.Subscribe("test.happened", a)
	bus.Subscribe("test.other", b)

	bus.Clear()
	bus.Publish(context.Background(), testEvent{})
	bus.Publish(context.Background(), otherEvent{})

	if a.calls+b.calls != 0 {
		t.Fatal("expected no deliveries after Clear")
	}
}

func TestSubscribeTypedReceivesConcretePayload(t *testing.T) {
	bus := newTestBus()
	var got string
	SubscribeTyped(bus, func(_ context.Context, e testEvent) error {
		got = e.Value
		return nil
	})

	bus.Publish(context.Background(), testEvent{BaseEvent: BaseEvent{Timestamp: time.Now()}, Value: "hello"})

	if got != "hello" {
		t.Fatalf("expected typed payload, got %q", got)
	}
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := newTestBus()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			unsubscribe := bus.Subscribe("test.happened", HandlerFunc(func(context.Context, Event) error { return nil }))
			unsubscribe()
		}
	}()
	for i := 0; i < 200; i++ {
		bus.Publish(context.Background(), testEvent{})
	}
	<-done
}
