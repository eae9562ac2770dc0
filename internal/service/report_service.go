package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pay-equity-api/internal/compliance"
	"github.com/noah-isme/pay-equity-api/internal/dto"
	"github.com/noah-isme/pay-equity-api/internal/models"
	appErrors "github.com/noah-isme/pay-equity-api/pkg/errors"
	"github.com/noah-isme/pay-equity-api/pkg/export"
)

type reportStore interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
	MarkSubmitted(ctx context.Context, id string, submittedAt, deadline time.Time) error
}

type jobStore interface {
	jobLister
	ReplaceForReport(ctx context.Context, reportID string, jobs []models.JobClassification) error
}

type historyLister interface {
	ListByReport(ctx context.Context, reportID string) ([]models.ApprovalHistoryEntry, error)
}

type jurisdictionReader interface {
	GetByID(ctx context.Context, id string) (*models.Jurisdiction, error)
}

type autoProcessor interface {
	AutoProcess(ctx context.Context, reportID string) (*ApprovalOutcome, error)
}

type previewCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type titledDatasetRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportStores groups the record stores used by ReportService.
type ReportStores struct {
	Reports       reportStore
	Jobs          jobStore
	History       historyLister
	Jurisdictions jurisdictionReader
}

// ReportService manages report drafts, submission, compliance previews and
// the audit trail.
type ReportService struct {
	stores    ReportStores
	approvals autoProcessor
	deadline  *compliance.DeadlineEvaluator
	analyzer  *compliance.Analyzer
	cache     previewCache
	cacheTTL  time.Duration
	csv       datasetRenderer
	pdf       titledDatasetRenderer
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// ReportServiceOption configures the service.
type ReportServiceOption func(*ReportService)

// WithPreviewCache caches compliance previews for ttl.
func WithPreviewCache(cache previewCache, ttl time.Duration) ReportServiceOption {
	return func(s *ReportService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithReportClock overrides the time source.
func WithReportClock(now func() time.Time) ReportServiceOption {
	return func(s *ReportService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewReportService constructs the service.
func NewReportService(stores ReportStores, approvals autoProcessor, deadline *compliance.DeadlineEvaluator, validate *validator.Validate, logger *zap.Logger, opts ...ReportServiceOption) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if deadline == nil {
		deadline = compliance.NewDeadlineEvaluator(nil)
	}
	svc := &ReportService{
		stores:    stores,
		approvals: approvals,
		deadline:  deadline,
		analyzer:  compliance.NewAnalyzer(),
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create opens a draft report. Jurisdiction users may only file for their
// own jurisdiction.
func (s *ReportService) Create(ctx context.Context, req dto.CreateReportRequest, claims *models.JWTClaims) (*models.Report, error) {
	req.JurisdictionID = strings.TrimSpace(req.JurisdictionID)
	req.CaseNumber = strings.TrimSpace(req.CaseNumber)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	if err := authorizeJurisdiction(claims, req.JurisdictionID); err != nil {
		return nil, err
	}
	if _, err := s.stores.Jurisdictions.GetByID(ctx, req.JurisdictionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "jurisdiction not found")
		}
		return nil, appErrors.Dependency(err, "failed to load jurisdiction")
	}

	report := &models.Report{
		JurisdictionID:  req.JurisdictionID,
		ReportYear:      req.ReportYear,
		CaseNumber:      req.CaseNumber,
		CaseDescription: strings.TrimSpace(req.CaseDescription),
	}
	if err := s.stores.Reports.Create(ctx, report); err != nil {
		return nil, appErrors.Dependency(err, "failed to create report")
	}
	s.logger.Info("report created", zap.String("report_id", report.ID), zap.String("jurisdiction_id", report.JurisdictionID))
	return report, nil
}

// Get returns a report visible to the caller.
func (s *ReportService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Report, error) {
	report, err := s.stores.Reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Dependency(err, "failed to load report")
	}
	if err := authorizeJurisdiction(claims, report.JurisdictionID); err != nil {
		return nil, err
	}
	return report, nil
}

// List returns the review queue page matching the query.
func (s *ReportService) List(ctx context.Context, query dto.ReportQuery) ([]models.Report, *models.Pagination, error) {
	for _, status := range query.Status {
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown approval status %q", status))
		}
	}
	page := query.Page
	if page <= 0 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	reports, err := s.stores.Reports.List(ctx, models.ReportFilter{
		Status:         query.Status,
		JurisdictionID: query.JurisdictionID,
		ReportYear:     query.ReportYear,
		Limit:          size,
		Offset:         (page - 1) * size,
	})
	if err != nil {
		return nil, nil, appErrors.Dependency(err, "failed to list reports")
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, &models.Pagination{Page: page, PageSize: size, TotalCount: len(reports)}, nil
}

// ReplaceJobs swaps the job classifications of a draft report.
func (s *ReportService) ReplaceJobs(ctx context.Context, id string, req dto.ReplaceJobsRequest, claims *models.JWTClaims) ([]models.JobClassification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job classifications")
	}
	report, err := s.Get(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	if report.ApprovalStatus != models.ApprovalStatusDraft || report.SubmittedAt != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "job classifications can only change while the report is an unsubmitted draft")
	}

	jobs := make([]models.JobClassification, 0, len(req.Jobs))
	seen := make(map[string]struct{}, len(req.Jobs))
	for _, in := range req.Jobs {
		job := in.Model()
		job.JobNumber = strings.TrimSpace(job.JobNumber)
		if _, dup := seen[job.JobNumber]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate job number %s", job.JobNumber))
		}
		seen[job.JobNumber] = struct{}{}
		if err := job.Validate(); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := s.stores.Jobs.ReplaceForReport(ctx, report.ID, jobs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "report is no longer an unsubmitted draft")
		}
		return nil, appErrors.Dependency(err, "failed to replace job classifications")
	}
	s.invalidatePreview(ctx, report.ID)
	return jobs, nil
}

// Jobs lists a report's job classifications.
func (s *ReportService) Jobs(ctx context.Context, id string, claims *models.JWTClaims) ([]models.JobClassification, error) {
	report, err := s.Get(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	jobs, err := s.stores.Jobs.ListByReport(ctx, report.ID)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to load job classifications")
	}
	if jobs == nil {
		jobs = []models.JobClassification{}
	}
	return jobs, nil
}

// Preview analyzes the current job classifications without changing state.
func (s *ReportService) Preview(ctx context.Context, id string, claims *models.JWTClaims) (*dto.ComplianceResponse, error) {
	report, err := s.Get(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	key := compliancePreviewKey(report.ID)
	if s.cache != nil {
		var cached dto.ComplianceResponse
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			cached.Cached = true
			return &cached, nil
		}
	}

	jobs, err := s.stores.Jobs.ListByReport(ctx, report.ID)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to load job classifications")
	}
	result, err := s.analyzer.Analyze(jobs)
	if err != nil {
		return nil, err
	}
	resp := &dto.ComplianceResponse{
		ReportID:           report.ID,
		Result:             result,
		Summary:            compliance.Summarize(result),
		SubmissionDeadline: s.deadline.SubmissionDeadline(report.ReportYear),
		GeneratedAt:        s.now().UTC(),
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, resp, s.cacheTTL)
	}
	return resp, nil
}

// Submit finalizes a draft and runs automatic processing on it. Calling it
// again on a submitted draft re-runs the automatic step.
func (s *ReportService) Submit(ctx context.Context, id string, claims *models.JWTClaims) (*ApprovalOutcome, error) {
	report, err := s.Get(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	if report.ApprovalStatus != models.ApprovalStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "report has already been submitted")
	}
	// A stamped draft means automatic processing failed after submission.
	if report.SubmittedAt != nil {
		s.logger.Info("retrying automatic processing", zap.String("report_id", report.ID))
		return s.approvals.AutoProcess(ctx, report.ID)
	}
	jobs, err := s.stores.Jobs.ListByReport(ctx, report.ID)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to load job classifications")
	}
	if len(jobs) == 0 {
		return nil, appErrors.ErrInsufficientData
	}

	submittedAt := s.now().UTC().Truncate(time.Second)
	deadline := s.deadline.SubmissionDeadline(report.ReportYear)
	if err := s.stores.Reports.MarkSubmitted(ctx, report.ID, submittedAt, deadline); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConcurrentModification, "report was submitted concurrently")
		}
		return nil, appErrors.Dependency(err, "failed to submit report")
	}
	s.logger.Info("report submitted",
		zap.String("report_id", report.ID),
		zap.Time("submitted_at", submittedAt),
		zap.Time("submission_deadline", deadline))
	return s.approvals.AutoProcess(ctx, report.ID)
}

// History returns the audit trail in chronological order.
func (s *ReportService) History(ctx context.Context, id string, claims *models.JWTClaims) ([]models.ApprovalHistoryEntry, error) {
	report, err := s.Get(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	entries, err := s.stores.History.ListByReport(ctx, report.ID)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to load approval history")
	}
	if entries == nil {
		entries = []models.ApprovalHistoryEntry{}
	}
	return entries, nil
}

// ExportHistory renders the audit trail as CSV or PDF.
func (s *ReportService) ExportHistory(ctx context.Context, id string, format dto.HistoryExportFormat, claims *models.JWTClaims) (*dto.FileResponse, error) {
	if format == "" {
		format = dto.HistoryExportCSV
	}
	if format != dto.HistoryExportCSV && format != dto.HistoryExportPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	report, err := s.Get(ctx, id, claims)
	if err != nil {
		return nil, err
	}
	entries, err := s.stores.History.ListByReport(ctx, report.ID)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to load approval history")
	}

	dataset := export.Dataset{Headers: []string{"Timestamp", "Action", "From", "To", "By", "Reason", "Notes"}}
	for _, entry := range entries {
		by, notes := "", ""
		if entry.ApprovedBy != nil {
			by = *entry.ApprovedBy
		}
		if entry.Notes != nil {
			notes = *entry.Notes
		}
		dataset.Append(
			entry.Timestamp.UTC().Format(time.RFC3339),
			string(entry.ActionType),
			string(entry.PreviousStatus),
			string(entry.NewStatus),
			by,
			entry.Reason,
			notes,
		)
	}

	base := fmt.Sprintf("approval-history-%s-%d", sanitizeFileComponent(report.CaseNumber), report.ReportYear)
	var (
		data        []byte
		contentType string
		fileName    string
	)
	switch format {
	case dto.HistoryExportPDF:
		data, err = s.pdf.Render(dataset, fmt.Sprintf("Approval history - case %s (%d)", report.CaseNumber, report.ReportYear))
		contentType, fileName = "application/pdf", base+".pdf"
	default:
		data, err = s.csv.Render(dataset)
		contentType, fileName = "text/csv", base+".csv"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render approval history")
	}
	return &dto.FileResponse{FileName: fileName, ContentType: contentType, Data: data}, nil
}

func (s *ReportService) invalidatePreview(ctx context.Context, reportID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, compliancePreviewKey(reportID))
}

// authorizeJurisdiction limits jurisdiction users to their own records.
func authorizeJurisdiction(claims *models.JWTClaims, jurisdictionID string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleJurisdiction && claims.JurisdictionID != jurisdictionID {
		return appErrors.Clone(appErrors.ErrForbidden, "report belongs to another jurisdiction")
	}
	return nil
}

func sanitizeFileComponent(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "report"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, value)
}
