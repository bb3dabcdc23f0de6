package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Assignment is the single row returned by distribute_new_lead_v3.
type Assignment struct {
	Success   bool
	CompanyID *uuid.UUID
	Cost      *float64
}

// AssignLead runs the distribution procedure for a lead. The procedure
// returns at most one row; a nil Assignment means it returned none.
func (r *Repository) AssignLead(ctx context.Context, leadID uuid.UUID) (*Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT success, company_id, assignment_cost::float8
		FROM distribute_new_lead_v3($1)
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var result Assignment
	if err := rows.Scan(&result.Success, &result.CompanyID, &result.Cost); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListQueued returns unassigned leads still in status new. Leads never
// retried come first, then the least recently attempted, oldest first.
func (r *Repository) ListQueued(ctx context.Context, limit int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE company_id IS NULL AND status = 'new'
		ORDER BY last_distribution_attempt_at ASC NULLS FIRST, created_at ASC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// MarkDistributionAttempted stamps a lead the queue could not place so the
// next run starts with leads that have waited longest since their last try.
func (r *Repository) MarkDistributionAttempted(ctx context.Context, leadID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET distribution_attempts = distribution_attempts + 1,
			last_distribution_attempt_at = now()
		WHERE id = $1
	`, leadID)
	return err
}

// Manual assignment failure reasons returned by assign_lead_with_budget.
const (
	AssignReasonLeadNotFound       = "lead_not_found"
	AssignReasonAlreadyAssigned    = "lead_already_assigned"
	AssignReasonCompanyNotFound    = "company_not_found"
	AssignReasonCompanyInactive    = "company_inactive"
	AssignReasonInsufficientBudget = "insufficient_budget"
)

// ManualAssignment is the row returned by assign_lead_with_budget.
type ManualAssignment struct {
	Success bool
	Cost    *float64
	Reason  *string
}

// AssignLeadToCompany assigns a lead to a chosen company and debits its
// budget. A lead that already has a company is refused.
func (r *Repository) AssignLeadToCompany(ctx context.Context, leadID, companyID uuid.UUID) (ManualAssignment, error) {
	var result ManualAssignment
	err := r.pool.QueryRow(ctx, `
		SELECT success, assignment_cost::float8, failure_reason
		FROM assign_lead_with_budget($1, $2)
	`, leadID, companyID).Scan(&result.Success, &result.Cost, &result.Reason)
	return result, err
}

// DistributionStats summarizes distribution over an optional date range.
type DistributionStats struct {
	TotalLeads    int
	AssignedLeads int
	QueuedLeads   int
	TotalRevenue  float64
	ByCategory    map[string]CategoryStats
}

// CategoryStats is one category's share of DistributionStats.
type CategoryStats struct {
	Total    int
	Assigned int
}

// DistributionStats counts leads created in [from, to). Nil bounds are open.
func (r *Repository) DistributionStats(ctx context.Context, from, to *time.Time) (DistributionStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.category,
			count(*)::int,
			count(l.company_id)::int,
			count(*) FILTER (WHERE l.company_id IS NULL AND l.status = 'new')::int,
			coalesce(sum(a.cost), 0)::float8
		FROM leads l
		LEFT JOIN lead_assignments a ON a.lead_id = l.id
		WHERE ($1::timestamptz IS NULL OR l.created_at >= $1)
			AND ($2::timestamptz IS NULL OR l.created_at < $2)
		GROUP BY l.category
		ORDER BY l.category
	`, from, to)
	if err != nil {
		return DistributionStats{}, err
	}
	defer rows.Close()

	stats := DistributionStats{ByCategory: make(map[string]CategoryStats)}
	for rows.Next() {
		var (
			category                string
			total, assigned, queued int
			revenue                 float64
		)
		if err := rows.Scan(&category, &total, &assigned, &queued, &revenue); err != nil {
			return DistributionStats{}, err
		}
		stats.TotalLeads += total
		stats.AssignedLeads += assigned
		stats.QueuedLeads += queued
		stats.TotalRevenue += revenue
		stats.ByCategory[category] = CategoryStats{Total: total, Assigned: assigned}
	}
	if rows.Err() != nil {
		return DistributionStats{}, rows.Err()
	}
	return stats, nil
}

// QueueCategory is one category's share of the fallback queue.
type QueueCategory struct {
	Category string
	Count    int
	Oldest   time.Time
}

// QueueByCategory summarizes unassigned new leads per category.
func (r *Repository) QueueByCategory(ctx context.Context) ([]QueueCategory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT category, count(*)::int, min(created_at)
		FROM leads
		WHERE company_id IS NULL AND status = 'new'
		GROUP BY category
		ORDER BY category
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]QueueCategory, 0)
	for rows.Next() {
		var item QueueCategory
		if err := rows.Scan(&item.Category, &item.Count, &item.Oldest); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
