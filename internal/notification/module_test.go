package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"homni_backend/internal/email"
	"homni_backend/internal/events"
	leadrepo "homni_backend/internal/leads/repository"
	"homni_backend/platform/logger"

	"github.com/google/uuid"
)

type testNotificationConfig struct{}

func (testNotificationConfig) GetAppBaseURL() string { return "https://homni.example.no/" }

type testSender struct {
	mu    sync.Mutex
	sent  []email.LeadConfirmation
	to    []string
	err   error
	block chan struct{}
}

func (s *testSender) SendLeadConfirmationEmail(_ context.Context, to string, data email.LeadConfirmation) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, data)
	s.to = append(s.to, to)
	return nil
}

func (s *testSender) SendCustomEmail(context.Context, string, string, string) error { return nil }

type testLeadStore struct {
	mu     sync.Mutex
	leads  map[uuid.UUID]leadrepo.Lead
	marked []uuid.UUID
}

func (s *testLeadStore) GetByID(_ context.Context, id uuid.UUID) (leadrepo.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok {
		return leadrepo.Lead{}, leadrepo.ErrNotFound
	}
	return lead, nil
}

func (s *testLeadStore) MarkConfirmationEmailSent(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, id)
	return nil
}

const testLeadEmail = "kari@example.no"

func newTestModule(t *testing.T) (*Module, *testSender, *testLeadStore, events.Bus, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	store := &testLeadStore{leads: map[uuid.UUID]leadrepo.Lead{
		id: {ID: id, Title: "Trenger forsikring", Category: "insurance"},
	}}
	sender := &testSender{}
	m := New(store, sender, testNotificationConfig{}, logger.Discard())
	bus := events.NewInMemoryBus(logger.Discard())
	m.RegisterHandlers(bus)
	return m, sender, store, bus, id
}

func TestLeadCreatedSendsConfirmation(t *testing.T) {
	m, sender, store, bus, id := newTestModule(t)

	bus.Publish(context.Background(), events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    id,
		Source:    events.SourceAnonymous,
		Category:  "insurance",
		Email:     testLeadEmail,
	})
	m.Wait()

	if len(sender.sent) != 1 || sender.to[0] != testLeadEmail {
		t.Fatalf("expected one confirmation to %s, got %v", testLeadEmail, sender.to)
	}
	if sender.sent[0].Title != "Trenger forsikring" || sender.sent[0].StatusURL != "https://homni.example.no" {
		t.Fatalf("unexpected confirmation data %+v", sender.sent[0])
	}
	if len(store.marked) != 1 || store.marked[0] != id {
		t.Fatalf("expected lead marked, got %v", store.marked)
	}
}

func TestLeadCreatedSkipsWhenNotApplicable(t *testing.T) {
	tests := map[string]events.LeadCreated{
		"no email":    {Source: events.SourceAnonymous},
		"bulk import": {Source: events.SourceBulkImport, Email: testLeadEmail},
	}

	for name, event := range tests {
		t.Run(name, func(t *testing.T) {
			m, sender, _, bus, id := newTestModule(t)
			event.LeadID = id
			bus.Publish(context.Background(), event)
			m.Wait()
			if len(sender.sent) != 0 {
				t.Fatal("expected no email")
			}
		})
	}
}

func TestLeadCreatedDoesNotBlockPublisher(t *testing.T) {
	m, sender, _, bus, id := newTestModule(t)
	sender.block = make(chan struct{})

	done := make(chan struct{})
	go func() {
		bus.Publish(context.Background(), events.LeadCreated{LeadID: id, Source: events.SourceAnonymous, Email: testLeadEmail})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish waited for email delivery")
	}
	close(sender.block)
	m.Wait()
}

func TestSendFailureLeavesLeadUnmarked(t *testing.T) {
	m, sender, store, bus, id := newTestModule(t)
	sender.err = errors.New("smtp: 421 service not available")

	err := bus.PublishSync(context.Background(), events.LeadCreated{LeadID: id, Source: events.SourceAnonymous, Email: testLeadEmail})
	if err != nil {
		t.Fatalf("expected handler to succeed, got %v", err)
	}
	m.Wait()
	if len(store.marked) != 0 {
		t.Fatal("expected lead not marked after failed send")
	}
}

func TestAlreadyConfirmedLeadIsSkipped(t *testing.T) {
	m, sender, store, bus, id := newTestModule(t)
	sentAt := time.Now()
	lead := store.leads[id]
	lead.ConfirmationEmailSentAt = &sentAt
	store.leads[id] = lead

	bus.Publish(context.Background(), events.LeadCreated{LeadID: id, Source: events.SourceAnonymous, Email: testLeadEmail})
	m.Wait()
	if len(sender.sent) != 0 {
		t.Fatal("expected no second confirmation")
	}
}
