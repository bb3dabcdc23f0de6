package handler

import (
	"context"
	"net/http"
	"strings"

	"homni_backend/internal/leads/intake"
	"homni_backend/internal/leads/transport"
	"homni_backend/platform/httpkit"
	"homni_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// IntakeService is satisfied by *intake.Service.
type IntakeService interface {
	CreateAnonymousLead(ctx context.Context, input intake.CreateAnonymousLeadInput) (intake.CreateAnonymousLeadResult, error)
}

// PublicHandler handles unauthenticated lead submissions.
type PublicHandler struct {
	intake IntakeService
	val    *validator.Validator
}

// NewPublicHandler creates a handler for the public submission form.
func NewPublicHandler(svc IntakeService, val *validator.Validator) *PublicHandler {
	return &PublicHandler{intake: svc, val: val}
}

// RegisterRoutes mounts public routes under /public/leads.
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.CreateAnonymousLead)
}

// CreateAnonymousLead accepts a visitor's request.
// POST /api/v1/public/leads
func (h *PublicHandler) CreateAnonymousLead(c *gin.Context) {
	var req transport.CreateAnonymousLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	if field, rule, ok := h.validateMetadata(req.Metadata); !ok {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, map[string]string{field: rule})
		return
	}

	result, err := h.intake.CreateAnonymousLead(c.Request.Context(), intake.CreateAnonymousLeadInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ServiceType: req.ServiceType,
		Metadata:    req.Metadata,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.CreateAnonymousLeadResponse{
		ID:          result.ID,
		Distributed: result.Distributed,
		AssignedTo:  result.AssignedTo,
		Cost:        result.Cost,
	})
}

// validateMetadata checks the contact fields the intake relies on.
func (h *PublicHandler) validateMetadata(metadata map[string]any) (field, rule string, ok bool) {
	raw, present := metadata[intake.MetadataEmail]
	if !present || raw == nil {
		return "", "", true
	}
	email, isString := raw.(string)
	if !isString {
		return "metadata.email", "string", false
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", "", true
	}
	if err := h.val.Var(email, "email"); err != nil {
		return "metadata.email", "email", false
	}
	return "", "", true
}
