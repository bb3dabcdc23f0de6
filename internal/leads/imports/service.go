// Package imports loads leads in bulk from admin uploads.
package imports

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"homni_backend/internal/events"
	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/repository"
	"homni_backend/internal/leads/transport"
	"homni_backend/platform/logger"
	"homni_backend/platform/phone"
	"homni_backend/platform/sanitize"
	"homni_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	// BatchSize is how many rows are handled before the next batch starts.
	BatchSize = 50

	// ImportType is stored on import_logs rows written by this service.
	ImportType = "bulk_leads"

	defaultCategory = "other"
)

// Row error messages.
const (
	errMissingFields = "Missing required fields: name and email are required"
	errInvalidEmail  = "Invalid email format"
	errEmailExists   = "Lead with this email already exists"
	errLookupFailed  = "Could not check for an existing lead"
	errSaveFailed    = "Could not save lead"
)

// Repository defines the data access needed by bulk import.
type Repository interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	InsertImportLog(ctx context.Context, params repository.ImportLogParams) error
}

type Service struct {
	repo Repository
	bus  events.Bus
	val  *validator.Validator
	log  *logger.Logger
	now  func() time.Time
}

func New(repo Repository, bus events.Bus, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, val: val, log: log, now: time.Now}
}

// Import validates and stores rows. Each row is judged on its own: a bad row
// is reported with its 1-based position and never stops the rest. With
// validateOnly nothing is written, including the import log.
func (s *Service) Import(ctx context.Context, rows []transport.ImportLeadRow, validateOnly bool, importedBy *uuid.UUID) (transport.BulkImportResponse, error) {
	result := transport.BulkImportResponse{
		Total:  len(rows),
		Errors: make([]transport.ImportRowError, 0),
	}

	for start := 0; start < len(rows); start += BatchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		end := min(start+BatchSize, len(rows))
		for i := start; i < end; i++ {
			rowNumber := i + 1
			if msg := s.importRow(ctx, rows[i], rowNumber, validateOnly, importedBy); msg != "" {
				result.Errors = append(result.Errors, transport.ImportRowError{Row: rowNumber, Error: msg})
				continue
			}
			result.Success++
		}
	}

	if validateOnly {
		return result, nil
	}

	if err := s.repo.InsertImportLog(ctx, repository.ImportLogParams{
		ImportType:   ImportType,
		ImportedBy:   importedBy,
		TotalRecords: result.Total,
		SuccessCount: result.Success,
		ErrorCount:   len(result.Errors),
		Errors:       result.Errors,
	}); err != nil {
		s.log.WithContext(ctx).DatabaseError("insert import log", err)
	}

	s.log.WithContext(ctx).Info("bulk import completed",
		slog.Int("total", result.Total),
		slog.Int("success", result.Success),
		slog.Int("failed", len(result.Errors)),
	)
	return result, nil
}

// importRow returns an error message for the row, or "" when it was accepted.
func (s *Service) importRow(ctx context.Context, row transport.ImportLeadRow, rowNumber int, validateOnly bool, importedBy *uuid.UUID) string {
	name := sanitize.Text(row.Name)
	email := sanitize.Email(row.Email)
	if name == "" || email == "" {
		return errMissingFields
	}
	if err := s.val.Var(email, "email"); err != nil {
		return errInvalidEmail
	}
	if validateOnly {
		return ""
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("import lookup lead by email", err)
		return errLookupFailed
	}
	if exists {
		return errEmailExists
	}

	category := strings.ToLower(strings.TrimSpace(row.Category))
	if category == "" {
		category = defaultCategory
	}
	title := sanitize.Text(row.Title)
	if title == "" {
		title = name
	}

	metadata := map[string]any{
		"name":         name,
		"email":        email,
		"imported_at":  s.now().UTC().Format(time.RFC3339),
		"original_row": rowNumber,
	}
	if p := phone.NormalizeE164(row.Phone); p != "" {
		metadata["phone"] = p
	}
	if importedBy != nil {
		metadata["imported_by"] = importedBy.String()
	}

	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		Title:          title,
		Description:    sanitize.Text(row.Description),
		Category:       category,
		LeadType:       repository.LeadTypeBulkImport,
		SubmittedBy:    importedBy,
		AnonymousEmail: &email,
		Status:         domain.LeadStatusNew,
		Metadata:       metadata,
	})
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("import create lead", err)
		return errSaveFailed
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Source:    events.SourceBulkImport,
		Category:  lead.Category,
		UserID:    importedBy,
		Email:     email,
	})
	return ""
}
