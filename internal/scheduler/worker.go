package scheduler

import (
	"context"
	"errors"
	"fmt"

	"homni_backend/internal/leads/distribution"
	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/repository"
	"homni_backend/platform/config"
	"homni_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// LeadLoader reads the current state of a lead.
type LeadLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
}

// LeadDispatcher is satisfied by *distribution.Dispatcher.
type LeadDispatcher interface {
	Dispatch(ctx context.Context, leadID uuid.UUID) (distribution.Outcome, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	leads  LeadLoader
	disp   LeadDispatcher
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, leads LeadLoader, disp LeadDispatcher, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := newWorker(leads, disp, log)
	w.server = server
	return w, nil
}

func newWorker(leads LeadLoader, disp LeadDispatcher, log *logger.Logger) *Worker {
	w := &Worker{
		mux:   asynq.NewServeMux(),
		leads: leads,
		disp:  disp,
		log:   log,
	}
	w.mux.HandleFunc(TaskDistributeLead, w.handleDistributeLead)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleDistributeLead retries distribution for one lead. Leads that were
// assigned or moved on since the task was queued are skipped. Dispatch errors
// are returned so asynq retries them.
func (w *Worker) handleDistributeLead(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDistributeLeadPayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("parse lead id: %v: %w", err, asynq.SkipRetry)
	}

	lead, err := w.leads.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if lead.IsAssigned() || lead.Status != domain.LeadStatusNew {
		return nil
	}

	outcome, err := w.disp.Dispatch(ctx, leadID)
	if err != nil {
		w.log.WithContext(ctx).DistributionFailed(leadID.String(), lead.Category, err)
		return err
	}
	if !outcome.Distributed {
		w.log.Info("lead still unassigned after retry", "leadId", leadID, "category", lead.Category)
	}
	return nil
}
