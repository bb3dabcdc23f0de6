package scheduler

import (
	"context"
	"time"

	"homni_backend/internal/leads/distribution"
	"homni_backend/platform/logger"
)

const (
	defaultBacklogSweepInterval = 10 * time.Minute
	defaultBacklogBatchSize     = 50
)

// BacklogProcessor is satisfied by *distribution.Backlog.
type BacklogProcessor interface {
	ProcessQueued(ctx context.Context, limit int) (distribution.ProcessResult, error)
}

// BacklogSweeper periodically dispatches leads still waiting in the fallback queue.
type BacklogSweeper struct {
	backlog   BacklogProcessor
	log       *logger.Logger
	interval  time.Duration
	batchSize int
}

func NewBacklogSweeper(backlog BacklogProcessor, log *logger.Logger, interval time.Duration, batchSize int) *BacklogSweeper {
	if interval <= 0 {
		interval = defaultBacklogSweepInterval
	}
	if batchSize <= 0 {
		batchSize = defaultBacklogBatchSize
	}
	return &BacklogSweeper{
		backlog:   backlog,
		log:       log,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (s *BacklogSweeper) Run(ctx context.Context) {
	if s == nil || s.backlog == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		s.sweep(ctx)
	}
}

func (s *BacklogSweeper) sweep(ctx context.Context) {
	result, err := s.backlog.ProcessQueued(ctx, s.batchSize)
	if err != nil {
		s.log.Warn("backlog sweep failed", "error", err)
		return
	}
	if result.Processed == 0 {
		return
	}
	s.log.Info("backlog sweep finished",
		"processed", result.Processed,
		"successful", result.Successful,
		"failed", result.Failed,
	)
}
