package intake

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"homni_backend/internal/events"
	"homni_backend/internal/leads/dedup"
	"homni_backend/internal/leads/distribution"
	"homni_backend/internal/leads/repository"
	"homni_backend/platform/apperr"
	"homni_backend/platform/logger"

	"github.com/google/uuid"
)

// memoryStore keeps created leads and answers duplicate lookups over them.
type memoryStore struct {
	mu        sync.Mutex
	leads     []repository.Lead
	createErr error
	lookupErr error
	now       func() time.Time
}

func (m *memoryStore) Create(_ context.Context, p repository.CreateLeadParams) (repository.Lead, error) {
	if m.createErr != nil {
		return repository.Lead{}, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	lead := repository.Lead{
		ID:             uuid.New(),
		Title:          p.Title,
		Description:    p.Description,
		Category:       p.Category,
		LeadType:       p.LeadType,
		AnonymousEmail: p.AnonymousEmail,
		SessionID:      p.SessionID,
		Status:         p.Status,
		Metadata:       p.Metadata,
		CreatedAt:      m.now(),
	}
	m.leads = append(m.leads, lead)
	return lead, nil
}

func (m *memoryStore) HasRecentLead(_ context.Context, key, category string, since time.Time) (bool, error) {
	if m.lookupErr != nil {
		return false, m.lookupErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if l.AnonymousEmail != nil && *l.AnonymousEmail == key && l.Category == category && !l.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

type fakeDispatcher struct {
	outcome distribution.Outcome
	err     error
	panics  bool
	calls   []uuid.UUID
}

func (f *fakeDispatcher) Dispatch(_ context.Context, id uuid.UUID) (distribution.Outcome, error) {
	f.calls = append(f.calls, id)
	if f.panics {
		panic("rpc client nil")
	}
	return f.outcome, f.err
}

type fakeRetry struct {
	scheduled []uuid.UUID
	err       error
}

func (f *fakeRetry) ScheduleDistributionRetry(_ context.Context, id uuid.UUID) error {
	f.scheduled = append(f.scheduled, id)
	return f.err
}

type outcomeRecorder struct{ outcomes []string }

func (r *outcomeRecorder) RecordIntake(outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

type harness struct {
	svc        *Service
	store      *memoryStore
	dispatcher *fakeDispatcher
	retry      *fakeRetry
	recorder   *outcomeRecorder
	created    *[]events.LeadCreated
	clock      *time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	h := &harness{clock: &clock}
	now := func() time.Time { return *h.clock }

	h.store = &memoryStore{now: now}
	h.dispatcher = &fakeDispatcher{}
	h.retry = &fakeRetry{}
	h.recorder = &outcomeRecorder{}

	bus := events.NewInMemoryBus(logger.Discard())
	var created []events.LeadCreated
	h.created = &created
	events.SubscribeTyped(bus, func(_ context.Context, e events.LeadCreated) error {
		created = append(created, e)
		return nil
	})

	guard := dedup.New(h.store, logger.Discard(), dedup.WithClock(now))
	h.svc = New(h.store, guard, h.dispatcher, bus, logger.Discard())
	h.svc.SetRetryScheduler(h.retry)
	h.svc.SetRecorder(h.recorder)
	h.svc.now = now
	return h
}

func insuranceRequest(email string) CreateAnonymousLeadInput {
	metadata := map[string]any{}
	if email != "" {
		metadata["email"] = email
	}
	return CreateAnonymousLeadInput{
		Title:       "Need insurance",
		Description: "Bil og innbo for familie på fire",
		Category:    "insurance",
		Metadata:    metadata,
	}
}

func TestCreateAnonymousLeadHappyPath(t *testing.T) {
	h := newHarness(t)
	companyID := uuid.New()
	cost := 99.0
	h.dispatcher.outcome = distribution.Outcome{Distributed: true, CompanyID: &companyID, Cost: &cost}

	result, err := h.svc.CreateAnonymousLead(context.Background(), insuranceRequest("A@B.no"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ID == uuid.Nil || !result.Distributed || *result.AssignedTo != companyID || *result.Cost != cost {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(*h.created) != 1 {
		t.Fatalf("expected exactly one lead.created, got %d", len(*h.created))
	}
	event := (*h.created)[0]
	if event.Category != "insurance" || event.Source != events.SourceAnonymous || event.UserID != nil || event.LeadID != result.ID {
		t.Fatalf("unexpected lead.created payload %+v", event)
	}

	stored := h.store.leads[0]
	if stored.LeadType != repository.LeadTypeVisitor || stored.Status != "new" {
		t.Fatalf("unexpected stored lead %+v", stored)
	}
	if stored.AnonymousEmail == nil || *stored.AnonymousEmail != "a@b.no" {
		t.Fatalf("expected lower-cased identity key, got %v", stored.AnonymousEmail)
	}
	if stored.SessionID == nil || !strings.HasPrefix(*stored.SessionID, "anon_") || len(*stored.SessionID) != 17 {
		t.Fatalf("unexpected session id %v", stored.SessionID)
	}
	if len(h.retry.scheduled) != 0 {
		t.Fatal("expected no retry for a distributed lead")
	}
	if h.recorder.outcomes[0] != OutcomeCreated {
		t.Fatalf("unexpected recorded outcome %v", h.recorder.outcomes)
	}
}

func TestCreateAnonymousLeadRejectsDuplicateWithinWindow(t *testing.T) {
	h := newHarness(t)

	if _, err := h.svc.CreateAnonymousLead(context.Background(), insuranceRequest("a@b.no")); err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	*h.clock = h.clock.Add(23*time.Hour + 59*time.Minute)

	_, err := h.svc.CreateAnonymousLead(context.Background(), insuranceRequest("a@b.no"))
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if e, _ := apperr.As(err); e.HTTPStatus() != http.StatusConflict || e.Message != MsgDuplicateSubmission {
		t.Fatalf("unexpected duplicate error %+v", e)
	}
	if len(h.store.leads) != 1 || len(*h.created) != 1 {
		t.Fatalf("expected one row and one event, got %d rows %d events", len(h.store.leads), len(*h.created))
	}
	if len(h.dispatcher.calls) != 1 {
		t.Fatalf("expected no distribution for the duplicate, got %d calls", len(h.dispatcher.calls))
	}
}

func TestCreateAnonymousLeadAcceptsAfterWindow(t *testing.T) {
	h := newHarness(t)

	if _, err := h.svc.CreateAnonymousLead(context.Background(), insuranceRequest("a@b.no")); err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	*h.clock = h.clock.Add(24*time.Hour + time.Minute)

	if _, err := h.svc.CreateAnonymousLead(context.Background(), insuranceRequest("a@b.no")); err != nil {
		t.Fatalf("expected resubmission after window to succeed, got %v", err)
	}
	if len(h.store.leads) != 2 {
		t.Fatalf("expected two rows, got %d", len(h.store.leads))
	}
}

func TestCreateAnonymousLeadWithoutEmailBypassesGuard(t *testing.T) {
	h := newHarness(t)
	h.store.lookupErr = errors.New("lookup must not run")

	for i := 0; i < 2; i++ {
		if _, err := h.svc.CreateAnonymousLead(context.Background(), insuranceRequest("")); err != nil {
			t.Fatalf("submission %d failed: %v", i, err)
		}
	}
	if len(h.store.leads) != 2 {
		t.Fatalf("expected both submissions stored, got %d", len(h.store.leads))
	}
	if h.store.leads[0].AnonymousEmail != nil {
		t.Fatal("expected no identity key stored")
	}
}

func TestCreateAnonymousLeadFailsOpenWhenGuardLookupFails(t *testing.T) {
	h := newHarness(t)
	h.store.lookupErr = errors.New("statement timeout")

	if _, err := h.svc.CreateAnonymousLead(context.Background(), insuranceRequest("a@b.no")); err != nil {
		t.Fatalf("expected lead accepted when duplicate lookup fails, got %v", err)
	}
	if len(h.store.leads) != 1 {
		t.Fatal("expected lead stored")
	}
}

func TestCreateAnonymousLeadSurvivesDistributionFailure(t *testing.T) {
	tests := map[string]func(d *fakeDispatcher){
		"error": func(d *fakeDispatcher) { d.err = errors.New("rpc unreachable") },
		"panic": func(d *fakeDispatcher) { d.panics = true },
	}

	for name, breakIt := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			breakIt(h.dispatcher)

			result, err := h.svc.CreateAnonymousLead(context.Background(), insuranceRequest("a@b.no"))
			if err != nil {
				t.Fatalf("expected success despite distribution failure, got %v", err)
			}
			if result.ID == uuid.Nil || result.Distributed || result.AssignedTo != nil {
				t.Fatalf("unexpected result %+v", result)
			}
			if len(h.retry.scheduled) != 1 || h.retry.scheduled[0] != result.ID {
				t.Fatalf("expected retry scheduled for %s, got %v", result.ID, h.retry.scheduled)
			}
		})
	}
}

func TestCreateAnonymousLeadIgnoresRetrySchedulingFailure(t *testing.T) {
	h := newHarness(t)
	h.retry.err = errors.New("redis down")

	if _, err := h.svc.CreateAnonymousLead(context.Background(), insuranceRequest("a@b.no")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateAnonymousLeadInsertFailure(t *testing.T) {
	h := newHarness(t)
	h.store.createErr = errors.New("duplicate key value violates unique constraint")

	_, err := h.svc.CreateAnonymousLead(context.Background(), insuranceRequest("a@b.no"))
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if e, _ := apperr.As(err); e.Message != MsgCreateFailed {
		t.Fatalf("expected generic message, got %q", e.Message)
	}
	if len(*h.created) != 0 || len(h.dispatcher.calls) != 0 {
		t.Fatal("expected no event and no distribution after insert failure")
	}
	if h.recorder.outcomes[0] != OutcomeFailed {
		t.Fatalf("unexpected recorded outcome %v", h.recorder.outcomes)
	}
}

func TestCreateAnonymousLeadRejectsContentEmptyAfterSanitizing(t *testing.T) {
	tests := map[string]func(*CreateAnonymousLeadInput){
		"markup-only description": func(in *CreateAnonymousLeadInput) { in.Description = "<b></b>" },
		"whitespace title":        func(in *CreateAnonymousLeadInput) { in.Title = " \t " },
		"whitespace category":     func(in *CreateAnonymousLeadInput) { in.Category = "   " },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			in := insuranceRequest("a@b.no")
			mutate(&in)

			_, err := h.svc.CreateAnonymousLead(context.Background(), in)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(h.store.leads) != 0 || len(*h.created) != 0 || len(h.dispatcher.calls) != 0 {
				t.Fatal("expected nothing stored, published or dispatched")
			}
		})
	}
}

func TestCreateAnonymousLeadIsolatesFailingListener(t *testing.T) {
	h := newHarness(t)
	bus := events.NewInMemoryBus(logger.Discard())
	reached := false
	bus.Subscribe("lead.created", events.HandlerFunc(func(context.Context, events.Event) error {
		panic("analytics listener crashed")
	}))
	bus.Subscribe("lead.created", events.HandlerFunc(func(context.Context, events.Event) error {
		reached = true
		return nil
	}))
	h.svc.bus = bus

	if _, err := h.svc.CreateAnonymousLead(context.Background(), insuranceRequest("a@b.no")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reached {
		t.Fatal("expected second listener to run")
	}
	if len(h.dispatcher.calls) != 1 {
		t.Fatal("expected distribution to run after listener failure")
	}
}

func TestCreateAnonymousLeadNormalizesContactMetadata(t *testing.T) {
	h := newHarness(t)
	input := insuranceRequest(" Kari@Example.NO ")
	input.Title = "<b>Need</b> insurance"
	input.Metadata["phone"] = "412 34 567"

	if _, err := h.svc.CreateAnonymousLead(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := h.store.leads[0]
	if stored.Title != "Need insurance" {
		t.Fatalf("expected sanitized title, got %q", stored.Title)
	}
	if stored.Metadata["email"] != "kari@example.no" || stored.Metadata["phone"] != "+4741234567" {
		t.Fatalf("unexpected metadata %v", stored.Metadata)
	}
	if _, ok := input.Metadata["phone"].(string); !ok || input.Metadata["phone"] != "412 34 567" {
		t.Fatal("expected caller metadata left untouched")
	}
}
