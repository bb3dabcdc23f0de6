// Package leads provides the lead intake and distribution module.
// This file wires the leads services and registers their routes.
package leads

import (
	"homni_backend/internal/events"
	apphttp "homni_backend/internal/http"
	"homni_backend/internal/leads/dedup"
	"homni_backend/internal/leads/distribution"
	"homni_backend/internal/leads/handler"
	"homni_backend/internal/leads/imports"
	"homni_backend/internal/leads/intake"
	"homni_backend/internal/leads/management"
	"homni_backend/internal/leads/repository"
	"homni_backend/internal/metrics"
	"homni_backend/platform/config"
	"homni_backend/platform/db"
	"homni_backend/platform/httpkit"
	"homni_backend/platform/logger"
	"homni_backend/platform/validator"
)

// Module is the leads module implementing http.Module.
type Module struct {
	repo          *repository.Repository
	intake        *intake.Service
	management    *management.Service
	dispatcher    *distribution.Dispatcher
	backlog       *distribution.Backlog
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	intakeLimiter *httpkit.IPRateLimiter
}

// NewModule creates and initializes the leads module with all its dependencies.
// recorder may be nil.
func NewModule(pool db.DBTX, bus events.Bus, val *validator.Validator, cfg config.IntakeConfig, recorder *metrics.Recorder, log *logger.Logger) *Module {
	repo := repository.New(pool)

	guardOpts := []dedup.Option{dedup.WithWindow(cfg.GetDedupWindow())}
	var distRecorder distribution.Recorder
	if recorder != nil {
		guardOpts = append(guardOpts, dedup.WithRecorder(recorder))
		distRecorder = recorder
	}
	guard := dedup.New(repo, log, guardOpts...)

	dispatcher := distribution.NewDispatcher(repo, bus, log, distRecorder)
	backlog := distribution.NewBacklog(repo, dispatcher, log)
	admin := distribution.NewAdmin(repo, bus, log, distRecorder)

	intakeSvc := intake.New(repo, guard, dispatcher, bus, log)
	if recorder != nil {
		intakeSvc.SetRecorder(recorder)
	}

	mgmt := management.New(repo, bus, log)
	importSvc := imports.New(repo, bus, val, log)

	return &Module{
		repo:          repo,
		intake:        intakeSvc,
		management:    mgmt,
		dispatcher:    dispatcher,
		backlog:       backlog,
		handler:       handler.New(mgmt, backlog, importSvc, admin, val),
		publicHandler: handler.NewPublicHandler(intakeSvc, val),
		intakeLimiter: httpkit.NewPerMinuteRateLimiter(cfg.GetIntakeRatePerMinute(), cfg.GetIntakeRateBurst(), log),
	}
}

// SetRetryScheduler enables delayed distribution retries for intake.
func (m *Module) SetRetryScheduler(retry intake.RetryScheduler) {
	m.intake.SetRetryScheduler(retry)
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Repository returns the lead store for modules that read leads.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// Dispatcher returns the distribution dispatcher.
func (m *Module) Dispatcher() *distribution.Dispatcher {
	return m.dispatcher
}

// Backlog returns the fallback queue processor.
func (m *Module) Backlog() *distribution.Backlog {
	return m.backlog
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/public/leads")
	public.Use(m.intakeLimiter.RateLimit())
	m.publicHandler.RegisterRoutes(public)

	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
