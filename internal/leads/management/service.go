// Package management handles reading leads and moving them through the pipeline.
package management

import (
	"context"
	"errors"
	"log/slog"

	"homni_backend/internal/events"
	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/repository"
	"homni_backend/internal/leads/transport"
	"homni_backend/platform/apperr"
	"homni_backend/platform/logger"

	"github.com/google/uuid"
)

const msgLeadNotFound = "lead not found"

// Repository defines the data access interface needed by the management service.
type Repository interface {
	repository.LeadReader
	UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) (repository.Lead, error)
}

type Service struct {
	repo Repository
	bus  events.Bus
	log  *logger.Logger
}

func New(repo Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// GetByID retrieves a lead by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound(msgLeadNotFound)
		}
		return transport.LeadResponse{}, err
	}
	return ToLeadResponse(lead), nil
}

// UpdateStatus moves a lead to a new status. Any input is normalized first,
// so legacy spellings are accepted. Setting the current status again is a
// no-op: no history row and no event.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, rawStatus string, notes *string, actorID *uuid.UUID) (transport.LeadResponse, error) {
	next := domain.NormalizeLeadStatus(rawStatus)

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound(msgLeadNotFound)
		}
		return transport.LeadResponse{}, err
	}

	previous := domain.NormalizeLeadStatus(string(current.Status))
	if previous == next {
		return ToLeadResponse(current), nil
	}

	history := map[string]any{}
	if notes != nil && *notes != "" {
		history["notes"] = *notes
	}
	if actorID != nil {
		history["updated_by"] = actorID.String()
	}

	updated, err := s.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
		LeadID:         id,
		PreviousStatus: previous,
		NewStatus:      next,
		Method:         repository.HistoryMethodManualUpdate,
		Metadata:       history,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound(msgLeadNotFound)
		}
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "could not update lead status", err).WithOp("management.UpdateStatus")
	}

	s.log.WithContext(ctx).Info("lead status changed",
		slog.String("lead_id", id.String()),
		slog.String("from", string(previous)),
		slog.String("to", string(next)),
	)

	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    id,
		OldStatus: string(previous),
		NewStatus: string(next),
		ByUserID:  actorID,
	})

	return ToLeadResponse(updated), nil
}
