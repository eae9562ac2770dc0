package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/pay-equity-api/internal/models"
)

// ErrCertificateExists is returned when a certificate row already exists for
// the report being transitioned.
var ErrCertificateExists = errors.New("certificate already issued for report")

const uniqueViolation = "23505"

const reportColumns = `id, jurisdiction_id, report_year, case_number, case_description, submitted_at,
       approval_status, compliance_status, case_status, requires_manual_review, auto_approved,
       submitted_on_time, submission_deadline, approved_by, approved_at, rejection_reason,
       certificate_generated_at, test_results, test_applicability, created_at, updated_at`

// ReportRepository persists compliance reports and their workflow transitions.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new draft report with generated defaults.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	report.ApprovalStatus = models.ApprovalStatusDraft
	if report.ComplianceStatus == "" {
		report.ComplianceStatus = models.ComplianceStatusUnknown
	}
	if report.CaseStatus == "" {
		report.CaseStatus = models.CaseStatusDraft
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = report.CreatedAt
	const query = `INSERT INTO reports
	(id, jurisdiction_id, report_year, case_number, case_description, approval_status, compliance_status, case_status,
	 requires_manual_review, auto_approved, submitted_on_time, created_at, updated_at)
	VALUES (:id, :jurisdiction_id, :report_year, :case_number, :case_description, :approval_status, :compliance_status, :case_status,
	 :requires_manual_review, :auto_approved, :submitted_on_time, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// GetByID returns a report by identifier. Missing rows surface as sql.ErrNoRows.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns reports matching the filter, oldest submission first so the
// review queue is worked in arrival order.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 3)
	builder.WriteString(`SELECT ` + reportColumns + ` FROM reports`)

	conditions := make([]string, 0, 3)
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			statuses[i] = string(status)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("approval_status = ANY($%d)", len(args)))
	}
	if filter.JurisdictionID != "" {
		args = append(args, filter.JurisdictionID)
		conditions = append(conditions, fmt.Sprintf("jurisdiction_id = $%d", len(args)))
	}
	if filter.ReportYear > 0 {
		args = append(args, filter.ReportYear)
		conditions = append(conditions, fmt.Sprintf("report_year = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY submitted_at ASC NULLS LAST, created_at ASC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// MarkSubmitted stamps the submission time on a draft report that has not
// been submitted yet. sql.ErrNoRows means the precondition did not hold.
func (r *ReportRepository) MarkSubmitted(ctx context.Context, id string, submittedAt, deadline time.Time) error {
	const query = `UPDATE reports
	SET submitted_at = $1, submission_deadline = $2, case_status = $3, updated_at = $4
	WHERE id = $5 AND approval_status = $6 AND submitted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query,
		submittedAt, deadline, models.CaseStatusSubmitted, time.Now().UTC(), id, models.ApprovalStatusDraft)
	if err != nil {
		return fmt.Errorf("mark report submitted: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check report submit rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// TransitionParams carries one approval workflow transition. Report holds
// the new state; ExpectedStatus is the status read before the decision.
type TransitionParams struct {
	Report         *models.Report
	ExpectedStatus models.ApprovalStatus
	Certificate    *models.ComplianceCertificate
	History        *models.ApprovalHistoryEntry
}

type transitionRow struct {
	models.Report
	ExpectedStatus models.ApprovalStatus `db:"expected_status"`
}

// ApplyTransition writes the report state, the optional certificate and the
// history entry in one transaction. sql.ErrNoRows means the report status no
// longer matched ExpectedStatus; ErrCertificateExists means another
// transition issued the certificate first.
func (r *ReportRepository) ApplyTransition(ctx context.Context, params TransitionParams) (err error) {
	if params.Report == nil || params.History == nil {
		return fmt.Errorf("apply transition: report and history entry are required")
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	params.Report.UpdatedAt = time.Now().UTC()
	const updateQuery = `UPDATE reports SET
	approval_status = :approval_status, compliance_status = :compliance_status, case_status = :case_status,
	requires_manual_review = :requires_manual_review, auto_approved = :auto_approved,
	submitted_on_time = :submitted_on_time, submission_deadline = :submission_deadline,
	approved_by = :approved_by, approved_at = :approved_at, rejection_reason = :rejection_reason,
	certificate_generated_at = :certificate_generated_at, test_results = :test_results,
	test_applicability = :test_applicability, updated_at = :updated_at
	WHERE id = :id AND approval_status = :expected_status`
	result, err := tx.NamedExecContext(ctx, updateQuery, transitionRow{Report: *params.Report, ExpectedStatus: params.ExpectedStatus})
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check report update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if cert := params.Certificate; cert != nil {
		if cert.ID == "" {
			cert.ID = uuid.NewString()
		}
		if cert.CreatedAt.IsZero() {
			cert.CreatedAt = time.Now().UTC()
		}
		const certQuery = `INSERT INTO compliance_certificates
		(id, report_id, jurisdiction_id, report_year, certificate_data, file_name, generated_by, created_at)
		VALUES (:id, :report_id, :jurisdiction_id, :report_year, :certificate_data, :file_name, :generated_by, :created_at)`
		if _, err = tx.NamedExecContext(ctx, certQuery, cert); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return ErrCertificateExists
			}
			return fmt.Errorf("insert certificate: %w", err)
		}
	}

	entry := params.History
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	const historyQuery = `INSERT INTO approval_history
	(id, report_id, jurisdiction_id, action_type, previous_status, new_status, approved_by, reason, notes, timestamp)
	VALUES (:id, :report_id, :jurisdiction_id, :action_type, :previous_status, :new_status, :approved_by, :reason, :notes, :timestamp)`
	if _, err = tx.NamedExecContext(ctx, historyQuery, entry); err != nil {
		return fmt.Errorf("insert approval history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}
