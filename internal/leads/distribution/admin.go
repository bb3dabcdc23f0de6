package distribution

import (
	"context"
	"fmt"
	"time"

	"homni_backend/internal/events"
	"homni_backend/internal/leads/repository"
	"homni_backend/platform/apperr"
	"homni_backend/platform/logger"

	"github.com/google/uuid"
)

// ResultManual labels manual assignments passed to Recorder.
const ResultManual = "manual"

// AdminStore backs manual assignment and reporting.
type AdminStore interface {
	AssignLeadToCompany(ctx context.Context, leadID, companyID uuid.UUID) (repository.ManualAssignment, error)
	DistributionStats(ctx context.Context, from, to *time.Time) (repository.DistributionStats, error)
}

// Admin lets operators place a lead by hand and inspect distribution totals.
type Admin struct {
	store    AdminStore
	bus      events.Bus
	log      *logger.Logger
	recorder Recorder
}

// NewAdmin creates an Admin. recorder may be nil.
func NewAdmin(store AdminStore, bus events.Bus, log *logger.Logger, recorder Recorder) *Admin {
	return &Admin{store: store, bus: bus, log: log, recorder: recorder}
}

func assignRefusal(reason string) error {
	switch reason {
	case repository.AssignReasonLeadNotFound:
		return apperr.NotFound("lead not found")
	case repository.AssignReasonCompanyNotFound:
		return apperr.NotFound("company not found")
	case repository.AssignReasonAlreadyAssigned:
		return apperr.Conflict("lead is already assigned")
	case repository.AssignReasonCompanyInactive:
		return apperr.Validation("company is not active")
	case repository.AssignReasonInsufficientBudget:
		return apperr.Validation("company budget is too low for this lead")
	default:
		return apperr.Wrap(apperr.KindInternal, "could not assign lead",
			fmt.Errorf("unexpected assignment refusal %q", reason))
	}
}

// AssignManually assigns leadID to companyID, debiting the company's budget,
// and publishes lead.assigned. Refusals from the store map to typed errors.
func (a *Admin) AssignManually(ctx context.Context, leadID, companyID uuid.UUID) (Outcome, error) {
	result, err := a.store.AssignLeadToCompany(ctx, leadID, companyID)
	if err != nil {
		return Outcome{}, apperr.Wrap(apperr.KindInternal, "could not assign lead", err).WithOp("distribution.AssignManually")
	}
	if !result.Success {
		reason := ""
		if result.Reason != nil {
			reason = *result.Reason
		}
		return Outcome{}, assignRefusal(reason)
	}

	if a.recorder != nil {
		a.recorder.RecordDistribution(ResultManual)
	}
	a.log.WithContext(ctx).Info("lead manually assigned",
		"leadId", leadID,
		"companyId", companyID,
	)

	a.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		CompanyID: companyID,
		Cost:      result.Cost,
	})

	return Outcome{Distributed: true, CompanyID: &companyID, Cost: result.Cost}, nil
}

// Stats returns distribution totals for leads created in [from, to).
func (a *Admin) Stats(ctx context.Context, from, to *time.Time) (repository.DistributionStats, error) {
	if from != nil && to != nil && !from.Before(*to) {
		return repository.DistributionStats{}, apperr.Validation("from must be before to")
	}
	return a.store.DistributionStats(ctx, from, to)
}
