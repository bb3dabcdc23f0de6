// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"homni_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// Lead sources carried on LeadCreated.
const (
	SourceAnonymous  = "anonymous"
	SourceBulkImport = "bulk_import"
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published after a lead row is committed.
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID  `json:"leadId"`
	Source   string     `json:"source"`
	Category string     `json:"category"`
	UserID   *uuid.UUID `json:"userId"`
	// Email is the visitor's identity key, empty when none was given.
	Email string `json:"-"`
}

func (e LeadCreated) EventName() string { return "lead.created" }

// LeadAssigned is published after distribution assigned a lead to a company.
type LeadAssigned struct {
	BaseEvent
	LeadID       uuid.UUID  `json:"leadId"`
	CompanyID    uuid.UUID  `json:"companyId"`
	AssignmentID *uuid.UUID `json:"assignmentId,omitempty"`
	Cost         *float64   `json:"cost,omitempty"`
}

func (e LeadAssigned) EventName() string { return "lead.assigned" }

// LeadStatusChanged is published after a status update is committed.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID  `json:"leadId"`
	OldStatus string     `json:"oldStatus"`
	NewStatus string     `json:"newStatus"`
	ByUserID  *uuid.UUID `json:"byUserId,omitempty"`
}

func (e LeadStatusChanged) EventName() string { return "lead.status_changed" }

// =============================================================================
// Platform Domain Events
// =============================================================================

// FeatureFlagToggled is published when an admin flips a feature flag.
type FeatureFlagToggled struct {
	BaseEvent
	FlagID   uuid.UUID  `json:"flagId"`
	Name     string     `json:"name"`
	Enabled  bool       `json:"enabled"`
	ByUserID *uuid.UUID `json:"byUserId,omitempty"`
}

func (e FeatureFlagToggled) EventName() string { return "feature.flag.toggled" }
