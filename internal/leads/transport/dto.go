package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// CreateAnonymousLeadRequest is the public submission form.
type CreateAnonymousLeadRequest struct {
	Title       string         `json:"title" validate:"required,notblank,max=200"`
	Description string         `json:"description" validate:"required,notblank,max=2000"`
	Category    string         `json:"category" validate:"required,notblank,max=100"`
	ServiceType *string        `json:"serviceType,omitempty" validate:"omitempty,max=100"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type UpdateStatusRequest struct {
	Status string  `json:"status" validate:"required,max=50"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type ProcessQueueRequest struct {
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
}

type AssignLeadRequest struct {
	CompanyID uuid.UUID `json:"companyId" validate:"required"`
}

// ImportLeadRow is one row of a bulk import. Rows are validated by the
// import service so that failures are reported per row instead of failing
// the whole request.
type ImportLeadRow struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Title       string `json:"title,omitempty"`
}

type BulkImportRequest struct {
	Leads        []ImportLeadRow `json:"leads" validate:"required,min=1,max=5000"`
	ValidateOnly bool            `json:"validateOnly"`
}

// Response DTOs

type CreateAnonymousLeadResponse struct {
	ID          uuid.UUID  `json:"id"`
	Distributed bool       `json:"distributed"`
	AssignedTo  *uuid.UUID `json:"assignedTo,omitempty"`
	Cost        *float64   `json:"cost,omitempty"`
}

type LeadResponse struct {
	ID                 uuid.UUID      `json:"id"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	Category           string         `json:"category"`
	ServiceType        *string        `json:"serviceType,omitempty"`
	LeadType           string         `json:"leadType"`
	Status             string         `json:"status"`
	StatusLabel        string         `json:"statusLabel"`
	PipelineStage      string         `json:"pipelineStage"`
	PipelineStageLabel string         `json:"pipelineStageLabel"`
	CompanyID          *uuid.UUID     `json:"companyId,omitempty"`
	SubmittedBy        *uuid.UUID     `json:"submittedBy,omitempty"`
	Metadata           map[string]any `json:"metadata"`
	AttributedAt       *time.Time     `json:"attributedAt,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

type QueueStatusResponse struct {
	TotalQueued        int            `json:"totalQueued"`
	OldestLeadAgeHours float64        `json:"oldestLeadAgeHours"`
	Categories         map[string]int `json:"categories"`
}

type ProcessQueueResponse struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type AssignLeadResponse struct {
	LeadID    uuid.UUID `json:"leadId"`
	CompanyID uuid.UUID `json:"companyId"`
	Cost      *float64  `json:"cost,omitempty"`
}

type CategoryStatsResponse struct {
	Total    int `json:"total"`
	Assigned int `json:"assigned"`
}

type DistributionStatsResponse struct {
	TotalLeads    int                              `json:"totalLeads"`
	AssignedLeads int                              `json:"assignedLeads"`
	QueuedLeads   int                              `json:"queuedLeads"`
	TotalRevenue  float64                          `json:"totalRevenue"`
	ByCategory    map[string]CategoryStatsResponse `json:"byCategory"`
}

type ImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type BulkImportResponse struct {
	Success int              `json:"success"`
	Total   int              `json:"total"`
	Errors  []ImportRowError `json:"errors"`
}
