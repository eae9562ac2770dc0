package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pay-equity-api/internal/models"
)

// JobClassificationRepository persists the job rows of a report.
type JobClassificationRepository struct {
	db *sqlx.DB
}

// NewJobClassificationRepository constructs the repository.
func NewJobClassificationRepository(db *sqlx.DB) *JobClassificationRepository {
	return &JobClassificationRepository{db: db}
}

// ListByReport returns the report's classifications in job number order.
func (r *JobClassificationRepository) ListByReport(ctx context.Context, reportID string) ([]models.JobClassification, error) {
	const query = `SELECT id, report_id, job_number, title, points, male_count, female_count, min_salary, max_salary,
       years_to_max, years_service_pay, exceptional_service_code, created_at
FROM job_classifications WHERE report_id = $1 ORDER BY job_number ASC`
	var jobs []models.JobClassification
	if err := r.db.SelectContext(ctx, &jobs, query, reportID); err != nil {
		return nil, fmt.Errorf("list job classifications: %w", err)
	}
	return jobs, nil
}

// ReplaceForReport swaps the full job set of a draft, unsubmitted report.
// The report row is locked for the duration; sql.ErrNoRows means the report
// is missing or no longer editable.
func (r *JobClassificationRepository) ReplaceForReport(ctx context.Context, reportID string, jobs []models.JobClassification) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin job classification transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lockedID string
	const lockQuery = `SELECT id FROM reports WHERE id = $1 AND approval_status = $2 AND submitted_at IS NULL FOR UPDATE`
	if err = tx.GetContext(ctx, &lockedID, lockQuery, reportID, models.ApprovalStatusDraft); err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("lock report for job replacement: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM job_classifications WHERE report_id = $1`, reportID); err != nil {
		return fmt.Errorf("delete job classifications: %w", err)
	}

	const insertQuery = `INSERT INTO job_classifications
	(id, report_id, job_number, title, points, male_count, female_count, min_salary, max_salary,
	 years_to_max, years_service_pay, exceptional_service_code, created_at)
	VALUES (:id, :report_id, :job_number, :title, :points, :male_count, :female_count, :min_salary, :max_salary,
	 :years_to_max, :years_service_pay, :exceptional_service_code, :created_at)`
	now := time.Now().UTC()
	for i := range jobs {
		job := &jobs[i]
		job.ReportID = reportID
		if job.ID == "" {
			job.ID = uuid.NewString()
		}
		if job.CreatedAt.IsZero() {
			job.CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, insertQuery, job); err != nil {
			return fmt.Errorf("insert job classification %s: %w", job.JobNumber, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit job classifications: %w", err)
	}
	return nil
}
