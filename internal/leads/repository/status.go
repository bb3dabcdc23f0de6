package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"homni_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// HistoryMethodManualUpdate marks status changes made through the API.
const HistoryMethodManualUpdate = "manual_update"

type UpdateStatusParams struct {
	LeadID         uuid.UUID
	PreviousStatus domain.LeadStatus
	NewStatus      domain.LeadStatus
	Method         string
	Metadata       map[string]any
}

// UpdateStatus writes the new status and its lead_history row in one transaction.
func (r *Repository) UpdateStatus(ctx context.Context, params UpdateStatusParams) (lead Lead, err error) {
	history, err := json.Marshal(params.Metadata)
	if err != nil {
		return Lead{}, fmt.Errorf("encode history metadata: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	lead, err = scanLead(tx.QueryRow(ctx, `
		UPDATE leads SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		params.LeadID, string(params.NewStatus),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO lead_history (lead_id, method, previous_status, new_status, metadata)
		VALUES ($1, $2, $3, $4, $5::jsonb)
	`, params.LeadID, params.Method, string(params.PreviousStatus), string(params.NewStatus), string(history)); err != nil {
		return Lead{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}
