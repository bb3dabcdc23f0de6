package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homni_backend/internal/events"
	"homni_backend/internal/leads"
	"homni_backend/internal/scheduler"
	"homni_backend/platform/config"
	"homni_backend/platform/db"
	"homni_backend/platform/logger"
	"homni_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// Worker-side distribution wiring; no HTTP routes are mounted here.
	leadsModule := leads.NewModule(pool, eventBus, validator.New(), cfg, nil, log)

	worker, err := scheduler.NewWorker(cfg, leadsModule.Repository(), leadsModule.Dispatcher(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	sweeper := scheduler.NewBacklogSweeper(
		leadsModule.Backlog(),
		log,
		cfg.GetBacklogSweepInterval(),
		cfg.GetBacklogBatchSize(),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		worker.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		sweeper.Run(groupCtx)
		return nil
	})
	_ = group.Wait()

	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt*attempt) * baseDelay):
			}
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}
