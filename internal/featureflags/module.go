// Package featureflags provides admin management of feature flags.
package featureflags

import (
	"homni_backend/internal/events"
	"homni_backend/internal/featureflags/handler"
	"homni_backend/internal/featureflags/repository"
	"homni_backend/internal/featureflags/service"
	apphttp "homni_backend/internal/http"
	"homni_backend/platform/db"
	"homni_backend/platform/logger"
)

// Module is the feature flags module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool db.DBTX, bus events.Bus, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), bus, log)
	return &Module{handler: handler.New(svc), service: svc}
}

func (m *Module) Name() string {
	return "featureflags"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Admin.Group("/feature-flags")
	group.GET("", m.handler.List)
	group.POST("/:id/toggle", m.handler.Toggle)
}

var _ apphttp.Module = (*Module)(nil)
