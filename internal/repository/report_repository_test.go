package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pay-equity-api/internal/models"
)

var reportRowColumns = []string{
	"id", "jurisdiction_id", "report_year", "case_number", "case_description", "submitted_at",
	"approval_status", "compliance_status", "case_status", "requires_manual_review", "auto_approved",
	"submitted_on_time", "submission_deadline", "approved_by", "approved_at", "rejection_reason",
	"certificate_generated_at", "test_results", "test_applicability", "created_at", "updated_at",
}

func newReportRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReportRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reports")).
		WithArgs(sqlmock.AnyArg(), "jur-1", 2024, "PE-2024-001", "annual report", "draft", "Unknown", "Draft",
			false, false, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	report := &models.Report{JurisdictionID: "jur-1", ReportYear: 2024, CaseNumber: "PE-2024-001", CaseDescription: "annual report"}
	require.NoError(t, repo.Create(context.Background(), report))
	require.NotEmpty(t, report.ID)

	results := `{"statisticalTest":{"ratio":98.5,"passed":true},"maleDominatedClasses":4,"analyzedAt":"2024-01-20T10:00:00Z"}`
	rows := sqlmock.NewRows(reportRowColumns).
		AddRow(report.ID, "jur-1", 2024, "PE-2024-001", "annual report", nil,
			"pending", "Out of Compliance", "Under Review", true, false,
			true, nil, nil, nil, nil,
			nil, results, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, jurisdiction_id, report_year")).
		WithArgs(report.ID).
		WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), report.ID)
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusPending, fetched.ApprovalStatus)
	require.Equal(t, 98.5, fetched.TestResults.Statistical.Ratio)
	require.Equal(t, 4, fetched.TestResults.MaleDominated)
	require.True(t, fetched.TestApplicability == models.TestApplicability{})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows(reportRowColumns).
		AddRow("rep-1", "jur-1", 2024, "PE-1", "", time.Now(),
			"pending", "Unknown", "Under Review", true, false,
			false, nil, nil, nil, nil,
			nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(`FROM reports WHERE approval_status = ANY\(\$1\) AND jurisdiction_id = \$2 AND report_year = \$3 ORDER BY submitted_at ASC NULLS LAST, created_at ASC LIMIT 50 OFFSET 0`).
		WithArgs(sqlmock.AnyArg(), "jur-1", 2024).
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.ReportFilter{
		Status:         []models.ApprovalStatus{models.ApprovalStatusPending},
		JurisdictionID: "jur-1",
		ReportYear:     2024,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "rep-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryMarkSubmittedRequiresDraft(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	submitted := time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)
	deadline := time.Date(2024, 2, 1, 5, 59, 59, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports")).
		WithArgs(submitted, deadline, models.CaseStatusSubmitted, sqlmock.AnyArg(), "rep-1", models.ApprovalStatusDraft).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkSubmitted(context.Background(), "rep-1", submitted, deadline))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkSubmitted(context.Background(), "rep-1", submitted, deadline)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func transitionFixture() TransitionParams {
	reviewer := "Reviewer One"
	now := time.Now().UTC()
	return TransitionParams{
		Report: &models.Report{
			ID:               "rep-1",
			JurisdictionID:   "jur-1",
			ReportYear:       2024,
			ApprovalStatus:   models.ApprovalStatusApproved,
			ComplianceStatus: models.ComplianceStatusCompliant,
			CaseStatus:       models.CaseStatusCompliant,
			ApprovedBy:       &reviewer,
			ApprovedAt:       &now,
		},
		ExpectedStatus: models.ApprovalStatusPending,
		Certificate: &models.ComplianceCertificate{
			ReportID: "rep-1", JurisdictionID: "jur-1", ReportYear: 2024,
			CertificateData: "certificates/rep-1.pdf", FileName: "rep-1.pdf", GeneratedBy: reviewer,
		},
		History: &models.ApprovalHistoryEntry{
			ReportID: "rep-1", JurisdictionID: "jur-1", ActionType: models.HistoryActionApproved,
			PreviousStatus: models.ApprovalStatusPending, NewStatus: models.ApprovalStatusApproved,
			ApprovedBy: &reviewer, Reason: "ALT_ANALYSIS_OK",
		},
	}
}

func TestReportRepositoryApplyTransitionCommits(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE reports SET .* WHERE id = \? AND approval_status = \?`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO compliance_certificates")).
		WithArgs(sqlmock.AnyArg(), "rep-1", "jur-1", 2024, "certificates/rep-1.pdf", "rep-1.pdf", "Reviewer One", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO approval_history")).
		WithArgs(sqlmock.AnyArg(), "rep-1", "jur-1", "approved", "pending", "approved", "Reviewer One", "ALT_ANALYSIS_OK", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	params := transitionFixture()
	require.NoError(t, repo.ApplyTransition(context.Background(), params))
	require.NotEmpty(t, params.History.ID)
	require.NotEmpty(t, params.Certificate.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryApplyTransitionStaleStatusRollsBack(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApplyTransition(context.Background(), transitionFixture())
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryApplyTransitionDuplicateCertificate(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO compliance_certificates")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.ApplyTransition(context.Background(), transitionFixture())
	require.True(t, errors.Is(err, ErrCertificateExists))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryApplyTransitionHistoryFailure(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	params := transitionFixture()
	params.Certificate = nil

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO approval_history")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.ApplyTransition(context.Background(), params)
	require.Error(t, err)
	require.Contains(t, err.Error(), "insert approval history")
	require.NoError(t, mock.ExpectationsWereMet())
}
