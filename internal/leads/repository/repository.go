package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"homni_backend/internal/leads/domain"
	"homni_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("lead not found")

// Lead types stored in leads.lead_type.
const (
	LeadTypeVisitor       = "visitor"
	LeadTypeUserSubmitted = "user_submitted"
	LeadTypeBulkImport    = "bulk_import"
)

type Repository struct {
	pool db.DBTX
}

func New(pool db.DBTX) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID                      uuid.UUID
	Title                   string
	Description             string
	Category                string
	ServiceType             *string
	LeadType                string
	SubmittedBy             *uuid.UUID
	AnonymousEmail          *string
	SessionID               *string
	CompanyID               *uuid.UUID
	Status                  domain.LeadStatus
	PipelineStage           domain.PipelineStage
	Metadata                map[string]any
	AttributedAt            *time.Time
	ConfirmationEmailSentAt *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// IsAssigned reports whether distribution already placed the lead.
func (l Lead) IsAssigned() bool {
	return l.CompanyID != nil
}

type CreateLeadParams struct {
	Title          string
	Description    string
	Category       string
	ServiceType    *string
	LeadType       string
	SubmittedBy    *uuid.UUID
	AnonymousEmail *string
	SessionID      *string
	Status         domain.LeadStatus
	Metadata       map[string]any
}

const leadColumns = `id, title, description, category, service_type, lead_type, submitted_by,
	anonymous_email, session_id, company_id, status, pipeline_stage, metadata,
	attributed_at, confirmation_email_sent_at, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var (
		lead     Lead
		status   string
		stage    string
		metadata []byte
	)
	err := row.Scan(
		&lead.ID, &lead.Title, &lead.Description, &lead.Category, &lead.ServiceType, &lead.LeadType, &lead.SubmittedBy,
		&lead.AnonymousEmail, &lead.SessionID, &lead.CompanyID, &status, &stage, &metadata,
		&lead.AttributedAt, &lead.ConfirmationEmailSentAt, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}

	lead.Status = domain.LeadStatus(status)
	lead.PipelineStage = domain.PipelineStage(stage)
	lead.Metadata = map[string]any{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &lead.Metadata); err != nil {
			return Lead{}, fmt.Errorf("decode lead metadata: %w", err)
		}
	}
	return lead, nil
}

func encodeMetadata(metadata map[string]any) (string, error) {
	if metadata == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("encode lead metadata: %w", err)
	}
	return string(raw), nil
}

// Create inserts a lead. Status is normalized so the CHECK constraint never
// sees a non-canonical value.
func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	metadata, err := encodeMetadata(params.Metadata)
	if err != nil {
		return Lead{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			title, description, category, service_type, lead_type, submitted_by,
			anonymous_email, session_id, status, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)
		RETURNING `+leadColumns,
		params.Title, params.Description, params.Category, params.ServiceType, params.LeadType, params.SubmittedBy,
		params.AnonymousEmail, params.SessionID, string(domain.NormalizeLeadStatus(string(params.Status))), metadata,
	)
	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// HasRecentLead reports whether a lead with the same identity key and
// category was created at or after since. The key is compared case-insensitively.
func (r *Repository) HasRecentLead(ctx context.Context, identityKey, category string, since time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM leads
			WHERE lower(anonymous_email) = lower($1)
				AND category = $2
				AND created_at >= $3
		)
	`, identityKey, category, since).Scan(&exists)
	return exists, err
}

// ExistsByEmail reports whether any lead carries this identity key.
func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM leads WHERE lower(anonymous_email) = lower($1))
	`, email).Scan(&exists)
	return exists, err
}

func (r *Repository) MarkConfirmationEmailSent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET confirmation_email_sent_at = now(), updated_at = now()
		WHERE id = $1 AND confirmation_email_sent_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
