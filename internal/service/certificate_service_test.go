package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pay-equity-api/internal/models"
	appErrors "github.com/noah-isme/pay-equity-api/pkg/errors"
	"github.com/noah-isme/pay-equity-api/pkg/storage"
)

func newCertificateFixture(t *testing.T) (*CertificateService, *memoryStore, *storage.LocalStorage) {
	t.Helper()
	store := newMemoryStore()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewCertificateService(files, signer, store, nil, CertificateConfig{Issuer: "Pay Equity Office", APIPrefix: "/api/v1/"}, nil)
	return svc, store, files
}

func TestCertificateServiceRendersUniqueHandles(t *testing.T) {
	svc, _, files := newCertificateFixture(t)
	report := submittedReport("r1", onTime())
	jurisdiction := &models.Jurisdiction{ID: "jur-1", JurisdictionID: "MN 0042", Name: "City of Lakeside"}

	first, err := svc.Render(context.Background(), report, jurisdiction)
	require.NoError(t, err)
	second, err := svc.Render(context.Background(), report, jurisdiction)
	require.NoError(t, err)

	assert.NotEqual(t, first.Handle, second.Handle)
	assert.True(t, strings.HasPrefix(first.Handle, "2024/r1/"))
	assert.Equal(t, "pay-equity-certificate-MN-0042-2024.pdf", first.FileName)
	assert.Len(t, first.Checksum, 64)

	data, err := files.Read(first.Handle)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	require.NoError(t, svc.Discard(context.Background(), second))
	_, err = files.Read(second.Handle)
	assert.Error(t, err)
}

func TestCertificateServiceRenderHonoursCancellation(t *testing.T) {
	svc, _, _ := newCertificateFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Render(ctx, submittedReport("r1", onTime()), &models.Jurisdiction{Name: "City"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCertificateServiceSignedDownload(t *testing.T) {
	svc, store, _ := newCertificateFixture(t)
	report := submittedReport("r1", onTime())
	artifact, err := svc.Render(context.Background(), report, &models.Jurisdiction{JurisdictionID: "MN-1", Name: "City"})
	require.NoError(t, err)
	store.certificates["r1"] = &models.ComplianceCertificate{
		ID: "cert-1", ReportID: "r1", CertificateData: artifact.Handle, FileName: artifact.FileName,
	}

	resp, err := svc.GetForReport(context.Background(), "r1")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resp.DownloadURL, "/api/v1/certificates/download/"))
	token := strings.TrimPrefix(resp.DownloadURL, "/api/v1/certificates/download/")

	file, err := svc.Download(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, artifact.FileName, file.FileName)
	assert.NotEmpty(t, file.Data)

	_, err = svc.Download(context.Background(), token+"x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestCertificateServiceRejectsForeignPath(t *testing.T) {
	svc, store, _ := newCertificateFixture(t)
	store.certificates["r1"] = &models.ComplianceCertificate{ReportID: "r1", CertificateData: "2024/r1/real.pdf"}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	token, _, err := signer.Generate("r1", "2024/r1/other.pdf")
	require.NoError(t, err)

	_, err = svc.Download(context.Background(), token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestCertificateServiceMissingCertificate(t *testing.T) {
	svc, _, _ := newCertificateFixture(t)
	_, err := svc.GetForReport(context.Background(), "r1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
