package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pay-equity-api/internal/models"
)

// CertificateRepository reads issued compliance certificates. Inserts happen
// inside ReportRepository.ApplyTransition.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs the repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// GetByReportID returns the certificate issued for a report or sql.ErrNoRows.
func (r *CertificateRepository) GetByReportID(ctx context.Context, reportID string) (*models.ComplianceCertificate, error) {
	const query = `SELECT id, report_id, jurisdiction_id, report_year, certificate_data, file_name, generated_by, created_at
FROM compliance_certificates WHERE report_id = $1`
	var cert models.ComplianceCertificate
	if err := r.db.GetContext(ctx, &cert, query, reportID); err != nil {
		return nil, err
	}
	return &cert, nil
}
