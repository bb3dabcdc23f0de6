package management

import (
	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/repository"
	"homni_backend/internal/leads/transport"
)

// ToLeadResponse maps a stored lead to its API view. The pipeline stage is
// always derived from the status so the view never disagrees with it.
func ToLeadResponse(lead repository.Lead) transport.LeadResponse {
	stage := domain.StatusToPipelineStage(lead.Status)
	metadata := lead.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return transport.LeadResponse{
		ID:                 lead.ID,
		Title:              lead.Title,
		Description:        lead.Description,
		Category:           lead.Category,
		ServiceType:        lead.ServiceType,
		LeadType:           lead.LeadType,
		Status:             string(lead.Status),
		StatusLabel:        domain.StatusLabel(lead.Status),
		PipelineStage:      string(stage),
		PipelineStageLabel: domain.PipelineStageLabel(stage),
		CompanyID:          lead.CompanyID,
		SubmittedBy:        lead.SubmittedBy,
		Metadata:           metadata,
		AttributedAt:       lead.AttributedAt,
		CreatedAt:          lead.CreatedAt,
		UpdatedAt:          lead.UpdatedAt,
	}
}
