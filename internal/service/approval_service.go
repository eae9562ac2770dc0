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
	"github.com/noah-isme/pay-equity-api/internal/repository"
	"github.com/noah-isme/pay-equity-api/pkg/cache"
	appErrors "github.com/noah-isme/pay-equity-api/pkg/errors"
)

// CertificateRenderer produces durable certificate artifacts.
type CertificateRenderer interface {
	Render(ctx context.Context, report *models.Report, jurisdiction *models.Jurisdiction) (models.CertificateArtifact, error)
	// Discard removes an artifact whose transition did not commit.
	Discard(ctx context.Context, artifact models.CertificateArtifact) error
}

// Notifier delivers one notification.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification) error
}

// EffectDispatcher accepts post-commit notification requests.
type EffectDispatcher interface {
	Dispatch(ctx context.Context, notifications []models.Notification)
}

type transitionStore interface {
	GetByID(ctx context.Context, id string) (*models.Report, error)
	ApplyTransition(ctx context.Context, params repository.TransitionParams) error
}

type jobLister interface {
	ListByReport(ctx context.Context, reportID string) ([]models.JobClassification, error)
}

type certificateLookup interface {
	GetByReportID(ctx context.Context, reportID string) (*models.ComplianceCertificate, error)
}

type jurisdictionDirectory interface {
	GetByID(ctx context.Context, id string) (*models.Jurisdiction, error)
	ListContacts(ctx context.Context, jurisdictionID string) ([]models.Contact, error)
}

type reportLocker interface {
	Acquire(ctx context.Context, key string) (func(context.Context) error, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// ApprovalStores groups the record stores the state machine reads and writes.
type ApprovalStores struct {
	Reports       transitionStore
	Jobs          jobLister
	Certificates  certificateLookup
	Jurisdictions jurisdictionDirectory
}

// ApprovalOutcome is the committed result of a state machine operation.
type ApprovalOutcome struct {
	Report        *models.Report
	Approved      bool
	Certificate   *models.ComplianceCertificate
	History       *models.ApprovalHistoryEntry
	Notifications []models.Notification
}

// ApprovalService drives reports through draft, pending and the terminal
// approved, auto_approved and rejected states.
type ApprovalService struct {
	stores     ApprovalStores
	renderer   CertificateRenderer
	dispatcher EffectDispatcher
	analyzer   *compliance.Analyzer
	deadline   *compliance.DeadlineEvaluator
	locker     reportLocker
	cache      cacheInvalidator
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
	staffEmail string
}

// ApprovalServiceOption configures the service.
type ApprovalServiceOption func(*ApprovalService)

// WithApprovalLocker serializes operations per report across instances.
func WithApprovalLocker(locker reportLocker) ApprovalServiceOption {
	return func(s *ApprovalService) {
		if locker != nil {
			s.locker = locker
		}
	}
}

// WithApprovalCache invalidates the compliance preview after transitions.
func WithApprovalCache(cache cacheInvalidator) ApprovalServiceOption {
	return func(s *ApprovalService) {
		s.cache = cache
	}
}

// WithApprovalMetrics records transition metrics.
func WithApprovalMetrics(metrics *MetricsService) ApprovalServiceOption {
	return func(s *ApprovalService) {
		s.metrics = metrics
	}
}

// WithApprovalClock overrides the time source.
func WithApprovalClock(now func() time.Time) ApprovalServiceOption {
	return func(s *ApprovalService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStaffRecipient sets the address of review staff notifications.
func WithStaffRecipient(email string) ApprovalServiceOption {
	return func(s *ApprovalService) {
		s.staffEmail = strings.TrimSpace(email)
	}
}

// NewApprovalService constructs the state machine.
func NewApprovalService(stores ApprovalStores, renderer CertificateRenderer, dispatcher EffectDispatcher, deadline *compliance.DeadlineEvaluator, validate *validator.Validate, logger *zap.Logger, opts ...ApprovalServiceOption) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if deadline == nil {
		deadline = compliance.NewDeadlineEvaluator(nil)
	}
	svc := &ApprovalService{
		stores:     stores,
		renderer:   renderer,
		dispatcher: dispatcher,
		analyzer:   compliance.NewAnalyzer(),
		deadline:   deadline,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// transition is a fully decided state change awaiting commit.
type transition struct {
	previous      *models.Report
	next          *models.Report
	entry         *models.ApprovalHistoryEntry
	certificate   *models.ComplianceCertificate
	artifact      *models.CertificateArtifact
	notifications []models.Notification
	approved      bool
}

// AutoProcess disposes of a finalized submission automatically. Terminal
// reports are a no-op returning Approved=false.
func (s *ApprovalService) AutoProcess(ctx context.Context, reportID string) (*ApprovalOutcome, error) {
	outcome, err := s.withLock(ctx, reportID, func() (*ApprovalOutcome, error) {
		report, err := s.loadReport(ctx, reportID)
		if err != nil {
			return nil, err
		}
		if report.ApprovalStatus.IsTerminal() {
			s.logger.Info("auto process skipped for terminal report",
				zap.String("report_id", report.ID), zap.String("status", string(report.ApprovalStatus)))
			return &ApprovalOutcome{Report: report}, nil
		}
		t, err := s.decideAutomatic(ctx, report)
		if err != nil {
			return nil, err
		}
		return s.commit(ctx, t)
	})
	s.recordFailure("auto_process", err)
	return outcome, err
}

func (s *ApprovalService) decideAutomatic(ctx context.Context, report *models.Report) (*transition, error) {
	now := s.now().UTC()
	deadline := s.deadline.SubmissionDeadline(report.ReportYear)
	next := *report
	next.SubmissionDeadline = &deadline

	if !s.deadline.OnTime(report) {
		next.ApprovalStatus = models.ApprovalStatusPending
		next.CaseStatus = models.CaseStatusUnderReview
		next.RequiresManualReview = true
		next.SubmittedOnTime = false
		return &transition{
			previous:      report,
			next:          &next,
			entry:         s.historyEntry(report, &next, models.HistoryActionManualReview, models.AutoApprovalActor, compliance.ReasonLateSubmission, "", now),
			notifications: s.staffNotifications(&next, compliance.ReasonLateSubmission, now),
		}, nil
	}
	next.SubmittedOnTime = true

	jobs, err := s.stores.Jobs.ListByReport(ctx, report.ID)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to load job classifications")
	}
	result, err := s.analyzer.Analyze(jobs)
	if err != nil {
		return nil, err
	}
	next.TestResults, next.TestApplicability = result.Snapshot(now)
	next.RequiresManualReview = result.RequiresManualReview
	summary := compliance.Summarize(result)

	switch {
	case result.RequiresManualReview:
		next.ApprovalStatus = models.ApprovalStatusPending
		next.CaseStatus = models.CaseStatusUnderReview
		return &transition{
			previous:      report,
			next:          &next,
			entry:         s.historyEntry(report, &next, models.HistoryActionManualReview, models.AutoApprovalActor, compliance.ReasonFewMaleDominated, summary, now),
			notifications: s.staffNotifications(&next, compliance.ReasonFewMaleDominated, now),
		}, nil

	case result.IsCompliant:
		next.ApprovalStatus = models.ApprovalStatusAutoApproved
		next.AutoApproved = true
		next.CaseStatus = models.CaseStatusCompliant
		next.ComplianceStatus = models.ComplianceStatusCompliant
		t := &transition{
			previous: report,
			next:     &next,
			entry:    s.historyEntry(report, &next, models.HistoryActionAutoApproved, models.AutoApprovalActor, summary, "", now),
			approved: true,
		}
		if err := s.issueCertificate(ctx, t, models.AutoApprovalActor, now); err != nil {
			return nil, err
		}
		t.notifications = s.contactNotifications(ctx, &next, models.NotificationReportApproved, summary, now)
		return t, nil

	default:
		next.ApprovalStatus = models.ApprovalStatusPending
		next.CaseStatus = models.CaseStatusNonCompliant
		next.ComplianceStatus = models.ComplianceStatusNonCompliant
		return &transition{
			previous:      report,
			next:          &next,
			entry:         s.historyEntry(report, &next, models.HistoryActionFailedTests, models.AutoApprovalActor, summary, "", now),
			notifications: s.staffNotifications(&next, "compliance tests failed", now),
		}, nil
	}
}

// HumanApprove records a reviewer's approval and issues the certificate if
// none exists yet.
func (s *ApprovalService) HumanApprove(ctx context.Context, reportID string, req dto.ApprovalDecisionRequest, reviewer string) (*ApprovalOutcome, error) {
	outcome, err := s.humanDecision(ctx, reportID, req, reviewer, false)
	s.recordFailure("approve", err)
	return outcome, err
}

// HumanReject records a reviewer's rejection. Notes are mandatory.
func (s *ApprovalService) HumanReject(ctx context.Context, reportID string, req dto.ApprovalDecisionRequest, reviewer string) (*ApprovalOutcome, error) {
	outcome, err := s.humanDecision(ctx, reportID, req, reviewer, true)
	s.recordFailure("reject", err)
	return outcome, err
}

func (s *ApprovalService) humanDecision(ctx context.Context, reportID string, req dto.ApprovalDecisionRequest, reviewer string, reject bool) (*ApprovalOutcome, error) {
	req.ReasonCode = strings.TrimSpace(req.ReasonCode)
	req.Notes = strings.TrimSpace(req.Notes)
	reviewer = strings.TrimSpace(reviewer)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "reason code is required")
	}
	if reject && req.Notes == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "notes are required to reject a report")
	}
	if reviewer == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reviewer identity is required")
	}

	return s.withLock(ctx, reportID, func() (*ApprovalOutcome, error) {
		report, err := s.loadReport(ctx, reportID)
		if err != nil {
			return nil, err
		}
		if !models.CanTransition(report.ApprovalStatus, models.ApprovalStatusApproved) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState,
				fmt.Sprintf("report is %s and can no longer be reviewed", report.ApprovalStatus))
		}

		now := s.now().UTC()
		next := *report
		next.ApprovedBy = &reviewer
		next.ApprovedAt = &now

		t := &transition{previous: report, next: &next}
		if reject {
			reason := req.ReasonCode + ": " + req.Notes
			next.ApprovalStatus = models.ApprovalStatusRejected
			next.RejectionReason = &reason
			next.CaseStatus = models.CaseStatusNonCompliant
			next.ComplianceStatus = models.ComplianceStatusNonCompliant
			t.entry = s.historyEntry(report, &next, models.HistoryActionRejected, reviewer, req.ReasonCode, req.Notes, now)
			t.notifications = s.contactNotifications(ctx, &next, models.NotificationReportRejected, reason, now)
			return s.commit(ctx, t)
		}

		next.ApprovalStatus = models.ApprovalStatusApproved
		next.RejectionReason = nil
		next.CaseStatus = models.CaseStatusCompliant
		next.ComplianceStatus = models.ComplianceStatusCompliant
		t.approved = true
		t.entry = s.historyEntry(report, &next, models.HistoryActionApproved, reviewer, req.ReasonCode, req.Notes, now)
		if err := s.issueCertificate(ctx, t, reviewer, now); err != nil {
			return nil, err
		}
		t.notifications = s.contactNotifications(ctx, &next, models.NotificationReportApproved, req.ReasonCode, now)
		return s.commit(ctx, t)
	})
}

// issueCertificate renders a certificate unless one already exists. The
// artifact is produced before the transaction opens.
func (s *ApprovalService) issueCertificate(ctx context.Context, t *transition, generatedBy string, now time.Time) error {
	existing, err := s.stores.Certificates.GetByReportID(ctx, t.next.ID)
	switch {
	case err == nil:
		generated := existing.CreatedAt
		t.next.CertificateGeneratedAt = &generated
		t.certificate = existing
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return appErrors.Dependency(err, "failed to check existing certificate")
	}

	jurisdiction, err := s.stores.Jurisdictions.GetByID(ctx, t.next.JurisdictionID)
	if err != nil {
		return appErrors.Dependency(err, "failed to load jurisdiction for certificate")
	}
	if s.renderer == nil {
		return appErrors.Dependency(errors.New("no certificate renderer configured"), "certificate rendering unavailable")
	}
	artifact, err := s.renderer.Render(ctx, t.next, jurisdiction)
	if err != nil {
		if ctx.Err() != nil {
			return appErrors.Dependency(ctx.Err(), "certificate rendering cancelled")
		}
		return appErrors.Dependency(err, "failed to render compliance certificate")
	}
	t.artifact = &artifact
	t.certificate = &models.ComplianceCertificate{
		ReportID:        t.next.ID,
		JurisdictionID:  t.next.JurisdictionID,
		ReportYear:      t.next.ReportYear,
		CertificateData: artifact.Handle,
		FileName:        artifact.FileName,
		GeneratedBy:     generatedBy,
		CreatedAt:       now,
	}
	t.next.CertificateGeneratedAt = &now
	return nil
}

// commit persists the transition, then hands notifications to delivery.
func (s *ApprovalService) commit(ctx context.Context, t *transition) (*ApprovalOutcome, error) {
	params := repository.TransitionParams{
		Report:         t.next,
		ExpectedStatus: t.previous.ApprovalStatus,
		History:        t.entry,
	}
	newCertificate := t.artifact != nil
	if newCertificate {
		params.Certificate = t.certificate
	}

	if err := s.stores.Reports.ApplyTransition(ctx, params); err != nil {
		if newCertificate {
			s.discard(t.artifact)
		}
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, repository.ErrCertificateExists) {
			return nil, appErrors.Clone(appErrors.ErrConcurrentModification,
				fmt.Sprintf("report %s changed while it was being processed", t.next.ID))
		}
		return nil, appErrors.Dependency(err, "failed to persist report transition")
	}

	s.logger.Info("report transitioned",
		zap.String("report_id", t.next.ID),
		zap.String("action_type", string(t.entry.ActionType)),
		zap.String("from", string(t.previous.ApprovalStatus)),
		zap.String("to", string(t.next.ApprovalStatus)),
		zap.Bool("certificate_issued", newCertificate),
	)
	s.metrics.RecordTransition(t.entry.ActionType)
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, compliancePreviewKey(t.next.ID))
	}
	if s.dispatcher != nil && len(t.notifications) > 0 {
		s.dispatcher.Dispatch(ctx, t.notifications)
	}

	return &ApprovalOutcome{
		Report:        t.next,
		Approved:      t.approved,
		Certificate:   t.certificate,
		History:       t.entry,
		Notifications: t.notifications,
	}, nil
}

func (s *ApprovalService) discard(artifact *models.CertificateArtifact) {
	// the caller's context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.renderer.Discard(ctx, *artifact); err != nil {
		s.logger.Warn("failed to discard orphaned certificate", zap.String("handle", artifact.Handle), zap.Error(err))
	}
}

func (s *ApprovalService) withLock(ctx context.Context, reportID string, fn func() (*ApprovalOutcome, error)) (*ApprovalOutcome, error) {
	if s.locker == nil {
		return fn()
	}
	release, err := s.locker.Acquire(ctx, reportID)
	switch {
	case errors.Is(err, cache.ErrLockHeld):
		return nil, appErrors.Clone(appErrors.ErrConcurrentModification,
			fmt.Sprintf("report %s is being processed by another request", reportID))
	case err != nil:
		// the optimistic status check still guards the write
		s.logger.Warn("report lock unavailable", zap.String("report_id", reportID), zap.Error(err))
		return fn()
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			s.logger.Warn("failed to release report lock", zap.String("report_id", reportID), zap.Error(err))
		}
	}()
	return fn()
}

func (s *ApprovalService) loadReport(ctx context.Context, reportID string) (*models.Report, error) {
	report, err := s.stores.Reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Dependency(err, "failed to load report")
	}
	return report, nil
}

func (s *ApprovalService) historyEntry(prev, next *models.Report, action models.HistoryAction, actor, reason, notes string, at time.Time) *models.ApprovalHistoryEntry {
	entry := &models.ApprovalHistoryEntry{
		ReportID:       next.ID,
		JurisdictionID: next.JurisdictionID,
		ActionType:     action,
		PreviousStatus: prev.ApprovalStatus,
		NewStatus:      next.ApprovalStatus,
		ApprovedBy:     &actor,
		Reason:         reason,
		Timestamp:      at,
	}
	if notes != "" {
		entry.Notes = &notes
	}
	return entry
}

func (s *ApprovalService) staffNotifications(report *models.Report, reason string, at time.Time) []models.Notification {
	if s.staffEmail == "" {
		return nil
	}
	return []models.Notification{{
		Type:           models.NotificationStaffReview,
		Recipient:      s.staffEmail,
		ReportID:       report.ID,
		JurisdictionID: report.JurisdictionID,
		Payload:        notificationPayload(report, reason),
		RequestedAt:    at,
	}}
}

// contactNotifications addresses every jurisdiction contact. A failed lookup
// only costs the notifications.
func (s *ApprovalService) contactNotifications(ctx context.Context, report *models.Report, kind models.NotificationType, reason string, at time.Time) []models.Notification {
	contacts, err := s.stores.Jurisdictions.ListContacts(ctx, report.JurisdictionID)
	if err != nil {
		s.logger.Warn("failed to load jurisdiction contacts",
			zap.String("report_id", report.ID), zap.String("jurisdiction_id", report.JurisdictionID), zap.Error(err))
		return nil
	}
	notifications := make([]models.Notification, 0, len(contacts))
	for _, contact := range contacts {
		if strings.TrimSpace(contact.Email) == "" {
			continue
		}
		payload := notificationPayload(report, reason)
		payload["contact_name"] = contact.Name
		notifications = append(notifications, models.Notification{
			Type:           kind,
			Recipient:      contact.Email,
			ReportID:       report.ID,
			JurisdictionID: report.JurisdictionID,
			Payload:        payload,
			RequestedAt:    at,
		})
	}
	return notifications
}

func notificationPayload(report *models.Report, reason string) map[string]string {
	return map[string]string{
		"case_number":     report.CaseNumber,
		"report_year":     fmt.Sprintf("%d", report.ReportYear),
		"approval_status": string(report.ApprovalStatus),
		"reason":          reason,
	}
}

func (s *ApprovalService) recordFailure(operation string, err error) {
	if err == nil {
		return
	}
	code := appErrors.FromError(err).Code
	s.metrics.RecordTransitionError(operation, code)
	s.logger.Warn("approval operation failed", zap.String("operation", operation), zap.String("code", code), zap.Error(err))
}
