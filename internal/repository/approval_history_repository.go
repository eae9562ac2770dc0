package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pay-equity-api/internal/models"
)

// ApprovalHistoryRepository reads the append-only audit trail.
type ApprovalHistoryRepository struct {
	db *sqlx.DB
}

// NewApprovalHistoryRepository constructs the repository.
func NewApprovalHistoryRepository(db *sqlx.DB) *ApprovalHistoryRepository {
	return &ApprovalHistoryRepository{db: db}
}

// ListByReport returns every entry for a report in chronological order.
func (r *ApprovalHistoryRepository) ListByReport(ctx context.Context, reportID string) ([]models.ApprovalHistoryEntry, error) {
	const query = `SELECT id, report_id, jurisdiction_id, action_type, previous_status, new_status, approved_by, reason, notes, timestamp
FROM approval_history WHERE report_id = $1 ORDER BY timestamp ASC, id ASC`
	var entries []models.ApprovalHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, reportID); err != nil {
		return nil, fmt.Errorf("list approval history: %w", err)
	}
	return entries, nil
}
