package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
}

// LeadWriter provides write operations for lead management.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	UpdateStatus(ctx context.Context, params UpdateStatusParams) (Lead, error)
}

// IdentityLookup answers duplicate questions by visitor identity key.
type IdentityLookup interface {
	HasRecentLead(ctx context.Context, identityKey, category string, since time.Time) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// DistributionStore runs assignments and exposes the fallback queue.
type DistributionStore interface {
	AssignLead(ctx context.Context, leadID uuid.UUID) (*Assignment, error)
	ListQueued(ctx context.Context, limit int) ([]Lead, error)
	QueueByCategory(ctx context.Context) ([]QueueCategory, error)
	MarkDistributionAttempted(ctx context.Context, leadID uuid.UUID) error
	AssignLeadToCompany(ctx context.Context, leadID, companyID uuid.UUID) (ManualAssignment, error)
	DistributionStats(ctx context.Context, from, to *time.Time) (DistributionStats, error)
}

// ConfirmationTracker stamps sent confirmation emails.
type ConfirmationTracker interface {
	MarkConfirmationEmailSent(ctx context.Context, id uuid.UUID) error
}

// ImportLogger records bulk import runs.
type ImportLogger interface {
	InsertImportLog(ctx context.Context, params ImportLogParams) error
}

// LeadsRepository composes every lead store capability.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	IdentityLookup
	DistributionStore
	ConfirmationTracker
	ImportLogger
}

var _ LeadsRepository = (*Repository)(nil)
