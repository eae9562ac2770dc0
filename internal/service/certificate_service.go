package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pay-equity-api/internal/compliance"
	"github.com/noah-isme/pay-equity-api/internal/dto"
	"github.com/noah-isme/pay-equity-api/internal/models"
	appErrors "github.com/noah-isme/pay-equity-api/pkg/errors"
	"github.com/noah-isme/pay-equity-api/pkg/export"
	"github.com/noah-isme/pay-equity-api/pkg/storage"
)

type artifactStorage interface {
	Save(name string, data []byte) (string, error)
	Read(name string) ([]byte, error)
	Delete(name string) error
}

type tokenSigner interface {
	Generate(subject, path string) (string, time.Time, error)
	Parse(token string) (storage.SignedToken, error)
}

// CertificateConfig tunes certificate rendering and download links.
type CertificateConfig struct {
	Issuer    string
	APIPrefix string
}

// CertificateService renders certificate PDFs into storage and serves them
// through signed links.
type CertificateService struct {
	storage      artifactStorage
	signer       tokenSigner
	certificates certificateLookup
	metrics      *MetricsService
	logger       *zap.Logger
	cfg          CertificateConfig
	now          func() time.Time
}

// NewCertificateService constructs the service.
func NewCertificateService(store artifactStorage, signer tokenSigner, certificates certificateLookup, metrics *MetricsService, cfg CertificateConfig, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &CertificateService{
		storage:      store,
		signer:       signer,
		certificates: certificates,
		metrics:      metrics,
		logger:       logger,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Render produces the certificate PDF for a report that is about to be
// approved. Every call writes a fresh handle.
func (s *CertificateService) Render(ctx context.Context, report *models.Report, jurisdiction *models.Jurisdiction) (artifact models.CertificateArtifact, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveCertificateRender(time.Since(start), err)
	}()
	if err = ctx.Err(); err != nil {
		return models.CertificateArtifact{}, err
	}
	if report == nil || jurisdiction == nil {
		return models.CertificateArtifact{}, fmt.Errorf("report and jurisdiction required")
	}

	approvedBy := models.AutoApprovalActor
	if report.ApprovedBy != nil && *report.ApprovedBy != "" {
		approvedBy = *report.ApprovedBy
	}
	doc := export.CertificateDocument{
		Issuer:           s.cfg.Issuer,
		JurisdictionName: jurisdiction.Name,
		JurisdictionCode: jurisdiction.JurisdictionID,
		ReportYear:       report.ReportYear,
		CaseNumber:       report.CaseNumber,
		ApprovedBy:       approvedBy,
		IssuedAt:         s.now(),
	}
	if !report.TestResults.IsZero() {
		summary := compliance.Summarize(models.RestoreResult(report.TestResults, report.TestApplicability))
		doc.Lines = strings.Split(summary, "; ")
	}

	data, err := export.RenderCertificate(doc)
	if err != nil {
		return models.CertificateArtifact{}, fmt.Errorf("render certificate: %w", err)
	}
	handle := fmt.Sprintf("%d/%s/%s.pdf", report.ReportYear, report.ID, uuid.NewString())
	checksum, err := s.storage.Save(handle, data)
	if err != nil {
		return models.CertificateArtifact{}, fmt.Errorf("store certificate: %w", err)
	}
	s.logger.Debug("certificate rendered", zap.String("report_id", report.ID), zap.String("handle", handle))
	return models.CertificateArtifact{
		Handle:   handle,
		FileName: certificateFileName(jurisdiction, report),
		Checksum: checksum,
	}, nil
}

// Discard removes an artifact whose transition never committed.
func (s *CertificateService) Discard(_ context.Context, artifact models.CertificateArtifact) error {
	if artifact.Handle == "" {
		return nil
	}
	return s.storage.Delete(artifact.Handle)
}

// GetForReport returns the certificate metadata with a signed download link.
func (s *CertificateService) GetForReport(ctx context.Context, reportID string) (*dto.CertificateResponse, error) {
	certificate, err := s.certificates.GetByReportID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Dependency(err, "failed to load certificate")
	}
	token, expiresAt, err := s.signer.Generate(certificate.ReportID, certificate.CertificateData)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign certificate link")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	return &dto.CertificateResponse{
		Certificate: certificate,
		DownloadURL: fmt.Sprintf("%s/certificates/download/%s", prefix, token),
		ExpiresAt:   expiresAt,
	}, nil
}

// Download resolves a signed token into the certificate PDF.
func (s *CertificateService) Download(ctx context.Context, token string) (*dto.FileResponse, error) {
	parsed, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download link")
	}
	certificate, err := s.certificates.GetByReportID(ctx, parsed.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Dependency(err, "failed to load certificate")
	}
	if certificate.CertificateData != parsed.Path {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
	}
	data, err := s.storage.Read(certificate.CertificateData)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to read certificate")
	}
	return &dto.FileResponse{
		FileName:    certificate.FileName,
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func certificateFileName(jurisdiction *models.Jurisdiction, report *models.Report) string {
	code := strings.TrimSpace(jurisdiction.JurisdictionID)
	if code == "" {
		code = report.JurisdictionID
	}
	return fmt.Sprintf("pay-equity-certificate-%s-%d.pdf", sanitizeFileComponent(code), report.ReportYear)
}
