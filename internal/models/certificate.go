package models

import "time"

// ComplianceCertificate is issued at most once per report.
type ComplianceCertificate struct {
	ID              string    `db:"id" json:"id"`
	ReportID        string    `db:"report_id" json:"reportId"`
	JurisdictionID  string    `db:"jurisdiction_id" json:"jurisdictionId"`
	ReportYear      int       `db:"report_year" json:"reportYear"`
	CertificateData string    `db:"certificate_data" json:"certificateData"`
	FileName        string    `db:"file_name" json:"fileName"`
	GeneratedBy     string    `db:"generated_by" json:"generatedBy"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

// CertificateArtifact references a rendered certificate held by storage.
type CertificateArtifact struct {
	Handle   string
	FileName string
	Checksum string
}
