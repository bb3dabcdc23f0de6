package distribution

import (
	"context"
	"math"
	"time"

	"homni_backend/internal/leads/repository"
	"homni_backend/platform/logger"

	"github.com/google/uuid"
)

// QueueStore lists leads that distribution has not placed yet. ListQueued
// orders by last attempt so marked leads move behind untried ones.
type QueueStore interface {
	ListQueued(ctx context.Context, limit int) ([]repository.Lead, error)
	QueueByCategory(ctx context.Context) ([]repository.QueueCategory, error)
	MarkDistributionAttempted(ctx context.Context, leadID uuid.UUID) error
}

// LeadDispatcher is satisfied by *Dispatcher.
type LeadDispatcher interface {
	Dispatch(ctx context.Context, leadID uuid.UUID) (Outcome, error)
}

// QueueStatus describes the fallback queue of unassigned new leads.
type QueueStatus struct {
	TotalQueued        int
	OldestLeadAgeHours float64
	Categories         map[string]int
}

// ProcessResult counts a queue processing run. A lead that stays
// unassigned counts as failed.
type ProcessResult struct {
	Processed  int
	Successful int
	Failed     int
}

// Backlog works off leads whose first distribution attempt did not assign them.
type Backlog struct {
	store      QueueStore
	dispatcher LeadDispatcher
	log        *logger.Logger
	now        func() time.Time
}

// NewBacklog creates a Backlog.
func NewBacklog(store QueueStore, dispatcher LeadDispatcher, log *logger.Logger) *Backlog {
	return &Backlog{store: store, dispatcher: dispatcher, log: log, now: time.Now}
}

// Status summarizes the queue.
func (b *Backlog) Status(ctx context.Context) (QueueStatus, error) {
	groups, err := b.store.QueueByCategory(ctx)
	if err != nil {
		return QueueStatus{}, err
	}

	status := QueueStatus{Categories: make(map[string]int, len(groups))}
	var oldest time.Time
	for _, g := range groups {
		status.TotalQueued += g.Count
		status.Categories[g.Category] = g.Count
		if oldest.IsZero() || g.Oldest.Before(oldest) {
			oldest = g.Oldest
		}
	}
	if !oldest.IsZero() {
		hours := b.now().Sub(oldest).Hours()
		status.OldestLeadAgeHours = math.Round(hours*10) / 10
	}
	return status, nil
}

// ProcessQueued dispatches up to limit queued leads. One lead's failure
// never stops the batch. Leads left unassigned are marked as attempted, so
// leads no company can take do not keep later leads out of the batch.
func (b *Backlog) ProcessQueued(ctx context.Context, limit int) (ProcessResult, error) {
	leads, err := b.store.ListQueued(ctx, limit)
	if err != nil {
		return ProcessResult{}, err
	}

	var result ProcessResult
	for _, lead := range leads {
		if ctx.Err() != nil {
			break
		}
		result.Processed++

		outcome, err := b.dispatcher.Dispatch(ctx, lead.ID)
		if err == nil && outcome.Distributed {
			result.Successful++
			continue
		}

		result.Failed++
		if err != nil {
			b.log.DistributionFailed(lead.ID.String(), lead.Category, err)
		}
		if err := b.store.MarkDistributionAttempted(ctx, lead.ID); err != nil {
			b.log.DatabaseError("mark distribution attempt", err)
		}
	}

	if result.Processed > 0 {
		b.log.Info("processed queued leads",
			"processed", result.Processed,
			"successful", result.Successful,
			"failed", result.Failed,
		)
	}
	return result, nil
}
