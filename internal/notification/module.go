// Package notification sends notifications in response to domain events.
// Domain modules publish events and never talk to email providers directly.
package notification

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"homni_backend/internal/email"
	"homni_backend/internal/events"
	leadrepo "homni_backend/internal/leads/repository"
	"homni_backend/platform/config"
	"homni_backend/platform/logger"

	"github.com/google/uuid"
)

const sendTimeout = 30 * time.Second

// LeadStore is the part of the leads repository notifications need.
type LeadStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadrepo.Lead, error)
	MarkConfirmationEmailSent(ctx context.Context, id uuid.UUID) error
}

// Module subscribes to lead events and delivers visitor notifications.
type Module struct {
	leads  LeadStore
	sender email.Sender
	cfg    config.NotificationConfig
	log    *logger.Logger
	wg     sync.WaitGroup
}

func New(leads LeadStore, sender email.Sender, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{leads: leads, sender: sender, cfg: cfg, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterHandlers subscribes to the events this module reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCreated{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadCreated:
		return m.handleLeadCreated(ctx, e)
	default:
		return nil
	}
}

// Wait blocks until in-flight sends have finished.
func (m *Module) Wait() {
	m.wg.Wait()
}

// handleLeadCreated queues a confirmation for anonymous leads with an email.
// Delivery runs in the background so the intake request never waits on SMTP.
func (m *Module) handleLeadCreated(ctx context.Context, e events.LeadCreated) error {
	if e.Source != events.SourceAnonymous || e.Email == "" {
		return nil
	}

	sendCtx := context.WithoutCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(sendCtx, sendTimeout)
		defer cancel()
		m.sendLeadConfirmation(ctx, e)
	}()
	return nil
}

func (m *Module) sendLeadConfirmation(ctx context.Context, e events.LeadCreated) {
	log := &logger.Logger{Logger: m.log.WithContext(ctx).With(slog.String("lead_id", e.LeadID.String()))}

	lead, err := m.leads.GetByID(ctx, e.LeadID)
	if err != nil {
		log.Warn("confirmation email skipped, lead not readable", slog.String("error", err.Error()))
		return
	}
	if lead.ConfirmationEmailSentAt != nil {
		return
	}

	err = m.sender.SendLeadConfirmationEmail(ctx, e.Email, email.LeadConfirmation{
		LeadID:    lead.ID.String(),
		Title:     lead.Title,
		Category:  lead.Category,
		StatusURL: strings.TrimRight(m.cfg.GetAppBaseURL(), "/"),
	})
	if err != nil {
		log.Error("failed to send lead confirmation email", slog.String("error", err.Error()))
		return
	}

	if err := m.leads.MarkConfirmationEmailSent(ctx, lead.ID); err != nil && !errors.Is(err, leadrepo.ErrNotFound) {
		log.DatabaseError("mark confirmation email sent", err)
		return
	}
	log.Info("lead confirmation email sent")
}
