// Package intake accepts anonymous lead submissions from the public site.
package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"homni_backend/internal/events"
	"homni_backend/internal/leads/dedup"
	"homni_backend/internal/leads/distribution"
	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/repository"
	"homni_backend/platform/apperr"
	"homni_backend/platform/logger"
	"homni_backend/platform/phone"
	"homni_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	// MsgDuplicateSubmission is shown when the same visitor already asked in this category today.
	MsgDuplicateSubmission = "Du har allerede sendt en forespørsel i denne kategorien i dag. Prøv igjen i morgen."
	// MsgCreateFailed is shown when the lead could not be stored.
	MsgCreateFailed = "Kunne ikke sende forespørsel. Prøv igjen senere."
	// MsgMissingContent is shown when title, description or category is empty once markup is stripped.
	MsgMissingContent = "Tittel, beskrivelse og kategori må fylles ut."

	sessionPrefix = "anon_"
)

// Intake outcome labels passed to Recorder.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// Metadata keys with special handling.
const (
	MetadataEmail = "email"
	MetadataPhone = "phone"
)

// LeadCreator persists leads.
type LeadCreator interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
}

// DuplicateChecker is satisfied by *dedup.Guard.
type DuplicateChecker interface {
	Check(ctx context.Context, identityKey, category string) dedup.Verdict
}

// LeadDispatcher is satisfied by *distribution.Dispatcher.
type LeadDispatcher interface {
	Dispatch(ctx context.Context, leadID uuid.UUID) (distribution.Outcome, error)
}

// RetryScheduler queues a later distribution attempt.
type RetryScheduler interface {
	ScheduleDistributionRetry(ctx context.Context, leadID uuid.UUID) error
}

// Recorder receives one outcome per submission, for metrics.
type Recorder interface {
	RecordIntake(outcome string, elapsed time.Duration)
}

// CreateAnonymousLeadInput is a validated public submission.
type CreateAnonymousLeadInput struct {
	Title       string
	Description string
	Category    string
	ServiceType *string
	Metadata    map[string]any
}

// CreateAnonymousLeadResult reports the stored lead and the distribution attempt.
type CreateAnonymousLeadResult struct {
	ID          uuid.UUID
	Distributed bool
	AssignedTo  *uuid.UUID
	Cost        *float64
}

// Service runs the intake chain: guard, insert, lead.created, dispatch.
type Service struct {
	repo         LeadCreator
	guard        DuplicateChecker
	dispatcher   LeadDispatcher
	bus          events.Bus
	log          *logger.Logger
	retry        RetryScheduler
	recorder     Recorder
	newSessionID func() string
	now          func() time.Time
}

// New creates the intake service.
func New(repo LeadCreator, guard DuplicateChecker, dispatcher LeadDispatcher, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:         repo,
		guard:        guard,
		dispatcher:   dispatcher,
		bus:          bus,
		log:          log,
		newSessionID: newSessionID,
		now:          time.Now,
	}
}

// SetRetryScheduler enables delayed retries for leads left unassigned.
func (s *Service) SetRetryScheduler(retry RetryScheduler) {
	s.retry = retry
}

// SetRecorder enables intake metrics.
func (s *Service) SetRecorder(recorder Recorder) {
	s.recorder = recorder
}

// CreateAnonymousLead stores a visitor's request and tries to distribute it.
// It fails only for a duplicate submission or a failed insert; distribution
// problems are logged and reported as Distributed=false.
func (s *Service) CreateAnonymousLead(ctx context.Context, input CreateAnonymousLeadInput) (CreateAnonymousLeadResult, error) {
	started := s.now()
	log := s.log.WithContext(ctx)

	metadata := normalizeMetadata(input.Metadata)
	identityKey := IdentityKey(metadata)
	category := strings.TrimSpace(input.Category)
	title := sanitize.Text(input.Title)
	description := sanitize.Text(input.Description)
	if title == "" || description == "" || category == "" {
		return CreateAnonymousLeadResult{}, apperr.Validation(MsgMissingContent).WithOp("intake.CreateAnonymousLead")
	}

	if identityKey != "" {
		// Unknown (lookup failed) is accepted: losing a real lead costs more
		// than storing an occasional duplicate.
		if s.guard.Check(ctx, identityKey, category) == dedup.Duplicate {
			log.Info("duplicate lead submission rejected", slog.String("category", category))
			s.record(OutcomeDuplicate, started)
			return CreateAnonymousLeadResult{}, apperr.Conflict(MsgDuplicateSubmission).WithOp("intake.CreateAnonymousLead")
		}
	}

	params := repository.CreateLeadParams{
		Title:       title,
		Description: description,
		Category:    category,
		ServiceType: trimmedPtr(input.ServiceType),
		LeadType:    repository.LeadTypeVisitor,
		SessionID:   ptr(s.newSessionID()),
		Status:      domain.LeadStatusNew,
		Metadata:    metadata,
	}
	if identityKey != "" {
		params.AnonymousEmail = ptr(identityKey)
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		log.Error("failed to create anonymous lead",
			slog.String("category", category),
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		s.record(OutcomeFailed, started)
		return CreateAnonymousLeadResult{}, apperr.Wrap(apperr.KindInternal, MsgCreateFailed, err).WithOp("intake.CreateAnonymousLead")
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Source:    events.SourceAnonymous,
		Category:  lead.Category,
		Email:     identityKey,
	})

	result := CreateAnonymousLeadResult{ID: lead.ID}
	outcome, err := s.dispatch(ctx, lead.ID)
	if err != nil {
		log.DistributionFailed(lead.ID.String(), lead.Category, err)
	} else {
		result.Distributed = outcome.Distributed
		result.AssignedTo = outcome.CompanyID
		result.Cost = outcome.Cost
	}

	if !result.Distributed {
		s.scheduleRetry(ctx, lead.ID)
	}

	s.record(OutcomeCreated, started)
	return result, nil
}

// dispatch never lets a distribution panic escape the intake call.
func (s *Service) dispatch(ctx context.Context, leadID uuid.UUID) (outcome distribution.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("distribution panicked: %v", r)
		}
	}()
	return s.dispatcher.Dispatch(ctx, leadID)
}

func (s *Service) scheduleRetry(ctx context.Context, leadID uuid.UUID) {
	if s.retry == nil {
		return
	}
	if err := s.retry.ScheduleDistributionRetry(ctx, leadID); err != nil {
		s.log.WithContext(ctx).Warn("failed to schedule distribution retry",
			slog.String("lead_id", leadID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) record(outcome string, started time.Time) {
	if s.recorder != nil {
		s.recorder.RecordIntake(outcome, s.now().Sub(started))
	}
}

// IdentityKey returns the lower-cased email from metadata, or "" when absent.
func IdentityKey(metadata map[string]any) string {
	raw, ok := metadata[MetadataEmail].(string)
	if !ok {
		return ""
	}
	return sanitize.Email(raw)
}

// normalizeMetadata copies metadata with email lower-cased and phone in E.164.
func normalizeMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	if email, ok := out[MetadataEmail].(string); ok {
		if key := sanitize.Email(email); key != "" {
			out[MetadataEmail] = key
		} else {
			delete(out, MetadataEmail)
		}
	}
	if raw, ok := out[MetadataPhone].(string); ok {
		out[MetadataPhone] = phone.NormalizeE164(raw)
	}
	return out
}

func newSessionID() string {
	return sessionPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func ptr[T any](v T) *T {
	return &v
}
