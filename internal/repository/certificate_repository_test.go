package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pay-equity-api/internal/models"
)

func TestCertificateRepositoryGetByReportID(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewCertificateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM compliance_certificates WHERE report_id = $1")).
		WithArgs("rep-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "jurisdiction_id", "report_year", "certificate_data",
			"file_name", "generated_by", "created_at"}).
			AddRow("cert-1", "rep-1", "jur-1", 2024, "certificates/rep-1.pdf", "rep-1.pdf", models.AutoApprovalActor, time.Now()))

	cert, err := repo.GetByReportID(context.Background(), "rep-1")
	require.NoError(t, err)
	require.Equal(t, "cert-1", cert.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateRepositoryGetByReportIDNotFound(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewCertificateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM compliance_certificates WHERE report_id = $1")).
		WithArgs("rep-2").
		WillReturnError(sql.ErrNoRows)

	cert, err := repo.GetByReportID(context.Background(), "rep-2")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.Nil(t, cert)
	require.NoError(t, mock.ExpectationsWereMet())
}
