package repository

import (
	"context"
	"errors"
	"time"

	"homni_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("feature flag not found")

type FeatureFlag struct {
	ID                uuid.UUID
	Name              string
	Description       *string
	IsEnabled         bool
	RolloutPercentage int
	TargetRoles       []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Repository struct {
	pool db.DBTX
}

func New(pool db.DBTX) *Repository {
	return &Repository{pool: pool}
}

const flagColumns = `id, name, description, is_enabled, rollout_percentage, target_roles, created_at, updated_at`

func scanFlag(row pgx.Row) (FeatureFlag, error) {
	var f FeatureFlag
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.IsEnabled, &f.RolloutPercentage, &f.TargetRoles, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func (r *Repository) List(ctx context.Context) ([]FeatureFlag, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+flagColumns+` FROM feature_flags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]FeatureFlag, 0)
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// Toggle flips is_enabled in a single statement and returns the updated flag.
func (r *Repository) Toggle(ctx context.Context, id uuid.UUID) (FeatureFlag, error) {
	f, err := scanFlag(r.pool.QueryRow(ctx, `
		UPDATE feature_flags SET is_enabled = NOT is_enabled, updated_at = now()
		WHERE id = $1
		RETURNING `+flagColumns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return FeatureFlag{}, ErrNotFound
	}
	return f, err
}
