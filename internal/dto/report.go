package dto

import (
	"time"

	"github.com/noah-isme/pay-equity-api/internal/models"
)

// CreateReportRequest captures POST /reports payload.
type CreateReportRequest struct {
	JurisdictionID  string `json:"jurisdictionId" validate:"required"`
	ReportYear      int    `json:"reportYear" validate:"required,gte=2000,lte=2100"`
	CaseNumber      string `json:"caseNumber" validate:"required,max=64"`
	CaseDescription string `json:"caseDescription" validate:"max=2000"`
}

// JobClassificationInput is one row of a job replacement payload.
type JobClassificationInput struct {
	JobNumber              string   `json:"jobNumber" validate:"required,max=32"`
	Title                  string   `json:"title" validate:"required,max=200"`
	Points                 int      `json:"points" validate:"gt=0"`
	MaleCount              int      `json:"maleCount" validate:"gte=0"`
	FemaleCount            int      `json:"femaleCount" validate:"gte=0"`
	MinSalary              float64  `json:"minSalary" validate:"gte=0"`
	MaxSalary              float64  `json:"maxSalary" validate:"gtefield=MinSalary"`
	YearsToMax             float64  `json:"yearsToMax" validate:"gte=0"`
	YearsServicePay        *float64 `json:"yearsServicePay,omitempty" validate:"omitempty,gte=0"`
	ExceptionalServiceCode string   `json:"exceptionalServiceCode,omitempty" validate:"omitempty,oneof=longevity certification education shift_differential performance other"`
}

// Model converts the input into a classification row.
func (in JobClassificationInput) Model() models.JobClassification {
	job := models.JobClassification{
		JobNumber:       in.JobNumber,
		Title:           in.Title,
		Points:          in.Points,
		MaleCount:       in.MaleCount,
		FemaleCount:     in.FemaleCount,
		MinSalary:       in.MinSalary,
		MaxSalary:       in.MaxSalary,
		YearsToMax:      in.YearsToMax,
		YearsServicePay: in.YearsServicePay,
	}
	if in.ExceptionalServiceCode != "" {
		code := models.ExceptionalServiceCode(in.ExceptionalServiceCode)
		job.ExceptionalServiceCode = &code
	}
	return job
}

// ReplaceJobsRequest captures PUT /reports/:id/jobs payload.
type ReplaceJobsRequest struct {
	Jobs []JobClassificationInput `json:"jobs" validate:"required,min=1,dive"`
}

// ReportQuery mirrors supported listing filters.
type ReportQuery struct {
	Status         []models.ApprovalStatus
	JurisdictionID string
	ReportYear     int
	Page           int
	PageSize       int
}

// ComplianceResponse is the compliance preview of a report.
type ComplianceResponse struct {
	ReportID           string                  `json:"reportId"`
	Result             models.ComplianceResult `json:"result"`
	Summary            string                  `json:"summary"`
	SubmissionDeadline time.Time               `json:"submissionDeadline"`
	GeneratedAt        time.Time               `json:"generatedAt"`
	Cached             bool                    `json:"-"`
}

// HistoryExportFormat enumerates audit trail export encodings.
type HistoryExportFormat string

const (
	HistoryExportCSV HistoryExportFormat = "csv"
	HistoryExportPDF HistoryExportFormat = "pdf"
)

// FileResponse is a rendered download.
type FileResponse struct {
	FileName    string
	ContentType string
	Data        []byte
}
