package handler

import (
	"net/http"

	"homni_backend/internal/featureflags/service"
	"homni_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidID = "invalid feature flag id"

// Handler handles HTTP requests for feature flags.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// List returns all feature flags.
// GET /api/v1/admin/feature-flags
func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Toggle flips a feature flag.
// POST /api/v1/admin/feature-flags/:id/toggle
func (h *Handler) Toggle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.Toggle(c.Request.Context(), id, httpkit.GetIdentity(c).ActorID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
