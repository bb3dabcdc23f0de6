// Package distribution calls the assignment procedure for stored leads and
// publishes the outcome. The matching rules live in the database function;
// this package owns the calling contract and its failure handling.
package distribution

import (
	"context"
	"fmt"

	"homni_backend/internal/events"
	"homni_backend/internal/leads/repository"
	"homni_backend/platform/logger"

	"github.com/google/uuid"
)

// Result labels passed to Recorder.
const (
	ResultAssigned   = "assigned"
	ResultUnassigned = "unassigned"
	ResultEmpty      = "empty"
	ResultError      = "error"
)

// Engine assigns a lead to a company. A nil assignment means the engine
// produced no answer for the lead.
type Engine interface {
	AssignLead(ctx context.Context, leadID uuid.UUID) (*repository.Assignment, error)
}

// Recorder receives one result label per dispatch, for metrics.
type Recorder interface {
	RecordDistribution(result string)
}

// Outcome is what callers learn from a dispatch. CompanyID and Cost are only
// set when the lead was distributed.
type Outcome struct {
	Distributed bool
	CompanyID   *uuid.UUID
	Cost        *float64
}

// Dispatcher runs the engine and publishes lead.assigned on success.
type Dispatcher struct {
	engine   Engine
	bus      events.Bus
	log      *logger.Logger
	recorder Recorder
}

// NewDispatcher creates a Dispatcher. recorder may be nil.
func NewDispatcher(engine Engine, bus events.Bus, log *logger.Logger, recorder Recorder) *Dispatcher {
	return &Dispatcher{engine: engine, bus: bus, log: log, recorder: recorder}
}

// Dispatch attempts to assign leadID. Engine errors are returned wrapped;
// an engine that declines or returns nothing yields a zero Outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, leadID uuid.UUID) (Outcome, error) {
	assignment, err := d.engine.AssignLead(ctx, leadID)
	if err != nil {
		d.record(ResultError)
		return Outcome{}, fmt.Errorf("assign lead %s: %w", leadID, err)
	}
	if assignment == nil {
		d.record(ResultEmpty)
		return Outcome{}, nil
	}
	if !assignment.Success || assignment.CompanyID == nil {
		d.record(ResultUnassigned)
		return Outcome{}, nil
	}

	d.record(ResultAssigned)
	d.log.WithContext(ctx).Info("lead assigned",
		"leadId", leadID,
		"companyId", *assignment.CompanyID,
	)

	d.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		CompanyID: *assignment.CompanyID,
		Cost:      assignment.Cost,
	})

	return Outcome{
		Distributed: true,
		CompanyID:   assignment.CompanyID,
		Cost:        assignment.Cost,
	}, nil
}

func (d *Dispatcher) record(result string) {
	if d.recorder != nil {
		d.recorder.RecordDistribution(result)
	}
}
