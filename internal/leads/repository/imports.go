package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type ImportLogParams struct {
	ImportType   string
	ImportedBy   *uuid.UUID
	TotalRecords int
	SuccessCount int
	ErrorCount   int
	Errors       any
}

func (r *Repository) InsertImportLog(ctx context.Context, params ImportLogParams) error {
	errs, err := json.Marshal(params.Errors)
	if err != nil {
		return fmt.Errorf("encode import errors: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO import_logs (import_type, imported_by, total_records, success_count, error_count, errors)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
	`, params.ImportType, params.ImportedBy, params.TotalRecords, params.SuccessCount, params.ErrorCount, string(errs))
	return err
}
