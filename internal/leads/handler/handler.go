package handler

import (
	"context"
	"net/http"
	"time"

	"homni_backend/internal/leads/distribution"
	"homni_backend/internal/leads/repository"
	"homni_backend/internal/leads/transport"
	"homni_backend/platform/httpkit"
	"homni_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidLeadID    = "invalid lead id"
	msgInvalidRange     = "from and to must be RFC3339 timestamps"

	defaultProcessLimit = 50
)

// LeadService is satisfied by *management.Service.
type LeadService interface {
	GetByID(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, rawStatus string, notes *string, actorID *uuid.UUID) (transport.LeadResponse, error)
}

// QueueService is satisfied by *distribution.Backlog.
type QueueService interface {
	Status(ctx context.Context) (distribution.QueueStatus, error)
	ProcessQueued(ctx context.Context, limit int) (distribution.ProcessResult, error)
}

// ImportService is satisfied by *imports.Service.
type ImportService interface {
	Import(ctx context.Context, rows []transport.ImportLeadRow, validateOnly bool, importedBy *uuid.UUID) (transport.BulkImportResponse, error)
}

// DistributionAdmin is satisfied by *distribution.Admin.
type DistributionAdmin interface {
	AssignManually(ctx context.Context, leadID, companyID uuid.UUID) (distribution.Outcome, error)
	Stats(ctx context.Context, from, to *time.Time) (repository.DistributionStats, error)
}

// Handler handles authenticated lead endpoints.
type Handler struct {
	leads   LeadService
	queue   QueueService
	imports ImportService
	admin   DistributionAdmin
	val     *validator.Validator
}

// New creates a new leads handler.
func New(leads LeadService, queue QueueService, imports ImportService, admin DistributionAdmin, val *validator.Validator) *Handler {
	return &Handler{leads: leads, queue: queue, imports: imports, admin: admin, val: val}
}

// RegisterRoutes mounts lead routes on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id/status", h.UpdateStatus)
}

// RegisterAdminRoutes mounts queue and import routes on the admin group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/queue", h.QueueStatus)
	rg.POST("/queue/process", h.ProcessQueue)
	rg.POST("/import", h.BulkImport)
	rg.GET("/distribution/stats", h.DistributionStats)
	rg.POST("/:id/assign", h.AssignLead)
}

// GetByID returns a lead.
// GET /api/v1/leads/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	result, err := h.leads.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateStatus moves a lead to a new status.
// PATCH /api/v1/leads/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.leads.UpdateStatus(c.Request.Context(), id, req.Status, req.Notes, httpkit.GetIdentity(c).ActorID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// QueueStatus summarizes the fallback queue.
// GET /api/v1/admin/leads/queue
func (h *Handler) QueueStatus(c *gin.Context) {
	status, err := h.queue.Status(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.QueueStatusResponse{
		TotalQueued:        status.TotalQueued,
		OldestLeadAgeHours: status.OldestLeadAgeHours,
		Categories:         status.Categories,
	})
}

// ProcessQueue dispatches queued leads now.
// POST /api/v1/admin/leads/queue/process
func (h *Handler) ProcessQueue(c *gin.Context) {
	var req transport.ProcessQueueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultProcessLimit
	}

	result, err := h.queue.ProcessQueued(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ProcessQueueResponse{
		Processed:  result.Processed,
		Successful: result.Successful,
		Failed:     result.Failed,
	})
}

// BulkImport imports leads uploaded by an admin.
// POST /api/v1/admin/leads/import
func (h *Handler) BulkImport(c *gin.Context) {
	var req transport.BulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	result, err := h.imports.Import(c.Request.Context(), req.Leads, req.ValidateOnly, httpkit.GetIdentity(c).ActorID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AssignLead places a lead with a company chosen by an admin.
// POST /api/v1/admin/leads/:id/assign
func (h *Handler) AssignLead(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	outcome, err := h.admin.AssignManually(c.Request.Context(), id, req.CompanyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.AssignLeadResponse{LeadID: id, CompanyID: req.CompanyID, Cost: outcome.Cost})
}

// DistributionStats reports lead and revenue totals per category.
// GET /api/v1/admin/leads/distribution/stats?from=&to=
func (h *Handler) DistributionStats(c *gin.Context) {
	from, okFrom := parseTimeQuery(c, "from")
	to, okTo := parseTimeQuery(c, "to")
	if !okFrom || !okTo {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRange, nil)
		return
	}

	stats, err := h.admin.Stats(c.Request.Context(), from, to)
	if httpkit.HandleError(c, err) {
		return
	}

	byCategory := make(map[string]transport.CategoryStatsResponse, len(stats.ByCategory))
	for category, cs := range stats.ByCategory {
		byCategory[category] = transport.CategoryStatsResponse{Total: cs.Total, Assigned: cs.Assigned}
	}
	httpkit.OK(c, transport.DistributionStatsResponse{
		TotalLeads:    stats.TotalLeads,
		AssignedLeads: stats.AssignedLeads,
		QueuedLeads:   stats.QueuedLeads,
		TotalRevenue:  stats.TotalRevenue,
		ByCategory:    byCategory,
	})
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func parseLeadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return uuid.Nil, false
	}
	return id, true
}
