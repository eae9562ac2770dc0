package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pay-equity-api/internal/dto"
	"github.com/noah-isme/pay-equity-api/internal/middleware"
	"github.com/noah-isme/pay-equity-api/internal/models"
	"github.com/noah-isme/pay-equity-api/internal/service"
	appErrors "github.com/noah-isme/pay-equity-api/pkg/errors"
)

type reportServiceMock struct {
	report     *models.Report
	reports    []models.Report
	jobs       []models.JobClassification
	preview    *dto.ComplianceResponse
	outcome    *service.ApprovalOutcome
	history    []models.ApprovalHistoryEntry
	file       *dto.FileResponse
	err        error
	lastQuery  dto.ReportQuery
	lastFormat dto.HistoryExportFormat
	lastClaims *models.JWTClaims
}

func (m *reportServiceMock) Create(_ context.Context, _ dto.CreateReportRequest, claims *models.JWTClaims) (*models.Report, error) {
	m.lastClaims = claims
	return m.report, m.err
}

func (m *reportServiceMock) Get(_ context.Context, _ string, claims *models.JWTClaims) (*models.Report, error) {
	m.lastClaims = claims
	return m.report, m.err
}

func (m *reportServiceMock) List(_ context.Context, query dto.ReportQuery) ([]models.Report, *models.Pagination, error) {
	m.lastQuery = query
	return m.reports, &models.Pagination{Page: 1, PageSize: 50, TotalCount: len(m.reports)}, m.err
}

func (m *reportServiceMock) ReplaceJobs(context.Context, string, dto.ReplaceJobsRequest, *models.JWTClaims) ([]models.JobClassification, error) {
	return m.jobs, m.err
}

func (m *reportServiceMock) Jobs(context.Context, string, *models.JWTClaims) ([]models.JobClassification, error) {
	return m.jobs, m.err
}

func (m *reportServiceMock) Preview(context.Context, string, *models.JWTClaims) (*dto.ComplianceResponse, error) {
	return m.preview, m.err
}

func (m *reportServiceMock) Submit(context.Context, string, *models.JWTClaims) (*service.ApprovalOutcome, error) {
	return m.outcome, m.err
}

func (m *reportServiceMock) History(context.Context, string, *models.JWTClaims) ([]models.ApprovalHistoryEntry, error) {
	return m.history, m.err
}

func (m *reportServiceMock) ExportHistory(_ context.Context, _ string, format dto.HistoryExportFormat, _ *models.JWTClaims) (*dto.FileResponse, error) {
	m.lastFormat = format
	return m.file, m.err
}

type approvalServiceMock struct {
	outcome      *service.ApprovalOutcome
	err          error
	lastReviewer string
	lastRequest  dto.ApprovalDecisionRequest
	rejected     bool
}

func (m *approvalServiceMock) HumanApprove(_ context.Context, _ string, req dto.ApprovalDecisionRequest, reviewer string) (*service.ApprovalOutcome, error) {
	m.lastReviewer, m.lastRequest = reviewer, req
	return m.outcome, m.err
}

func (m *approvalServiceMock) HumanReject(_ context.Context, _ string, req dto.ApprovalDecisionRequest, reviewer string) (*service.ApprovalOutcome, error) {
	m.lastReviewer, m.lastRequest, m.rejected = reviewer, req, true
	return m.outcome, m.err
}

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

var reviewerClaims = &models.JWTClaims{UserID: "u-7", Role: models.RoleReviewer, FullName: "Rita Reviewer"}

func TestReportHandlerCreate(t *testing.T) {
	svc := &reportServiceMock{report: &models.Report{ID: "r1", ApprovalStatus: models.ApprovalStatusDraft}}
	h := NewReportHandler(svc, &approvalServiceMock{})

	payload, _ := json.Marshal(dto.CreateReportRequest{JurisdictionID: "jur-1", ReportYear: 2024, CaseNumber: "PE-1"})
	c, w := newGinContext(http.MethodPost, "/reports", payload)
	c.Set(middleware.ContextUserKey, reviewerClaims)

	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, reviewerClaims, svc.lastClaims)
	assert.Contains(t, string(decode(t, w).Data), `"approvalStatus":"draft"`)
}

func TestReportHandlerCreateRejectsMalformedJSON(t *testing.T) {
	h := NewReportHandler(&reportServiceMock{}, &approvalServiceMock{})
	c, w := newGinContext(http.MethodPost, "/reports", []byte("{"))

	h.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decode(t, w).Error.Code)
}

func TestReportHandlerListParsesFilters(t *testing.T) {
	svc := &reportServiceMock{reports: []models.Report{{ID: "r1"}}}
	h := NewReportHandler(svc, &approvalServiceMock{})

	c, w := newGinContext(http.MethodGet, "/reports?status=pending,%20draft&jurisdictionId=jur-1&year=2024&page=2", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.ApprovalStatus{models.ApprovalStatusPending, models.ApprovalStatusDraft}, svc.lastQuery.Status)
	assert.Equal(t, "jur-1", svc.lastQuery.JurisdictionID)
	assert.Equal(t, 2024, svc.lastQuery.ReportYear)
	assert.Equal(t, 2, svc.lastQuery.Page)
	assert.NotNil(t, decode(t, w).Pagination)

	c, w = newGinContext(http.MethodGet, "/reports?year=soon", nil)
	h.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerComplianceReportsCacheHit(t *testing.T) {
	svc := &reportServiceMock{preview: &dto.ComplianceResponse{ReportID: "r1", Summary: "Result: In Compliance", Cached: true}}
	h := NewReportHandler(svc, &approvalServiceMock{})

	c, w := newGinContext(http.MethodGet, "/reports/r1/compliance", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	h.Compliance(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, string(env.Data), "In Compliance")
}

func TestReportHandlerMapsTaxonomyErrors(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"not found":       {appErrors.ErrNotFound, http.StatusNotFound},
		"insufficient":    {appErrors.ErrInsufficientData, http.StatusUnprocessableEntity},
		"invalid class":   {appErrors.ErrInvalidClassification, http.StatusUnprocessableEntity},
		"invalid state":   {appErrors.ErrInvalidState, http.StatusConflict},
		"concurrent":      {appErrors.ErrConcurrentModification, http.StatusConflict},
		"dependency":      {appErrors.ErrDependencyFailure, http.StatusBadGateway},
		"forbidden scope": {appErrors.ErrForbidden, http.StatusForbidden},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := NewReportHandler(&reportServiceMock{err: tc.err}, &approvalServiceMock{})
			c, w := newGinContext(http.MethodPost, "/reports/r1/submit", nil)
			c.Params = gin.Params{{Key: "id", Value: "r1"}}

			h.Submit(c)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestReportHandlerSubmit(t *testing.T) {
	outcome := &service.ApprovalOutcome{
		Report:        &models.Report{ID: "r1", ApprovalStatus: models.ApprovalStatusAutoApproved},
		Approved:      true,
		Certificate:   &models.ComplianceCertificate{ID: "cert-1"},
		Notifications: []models.Notification{{Recipient: "clerk@lakeside.gov"}},
	}
	h := NewReportHandler(&reportServiceMock{outcome: outcome}, &approvalServiceMock{})
	c, w := newGinContext(http.MethodPost, "/reports/r1/submit", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	h.Submit(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body dto.ApprovalResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &body))
	assert.True(t, body.Approved)
	assert.Equal(t, "cert-1", body.Certificate.ID)
	assert.NotContains(t, w.Body.String(), "clerk@lakeside.gov")
}

func TestReportHandlerApproveUsesReviewerIdentity(t *testing.T) {
	approvals := &approvalServiceMock{outcome: &service.ApprovalOutcome{Report: &models.Report{ID: "r1"}, Approved: true}}
	h := NewReportHandler(&reportServiceMock{}, approvals)

	payload, _ := json.Marshal(dto.ApprovalDecisionRequest{ReasonCode: "ALT_OK", Notes: "checked"})
	c, w := newGinContext(http.MethodPost, "/reports/r1/approve", payload)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	c.Set(middleware.ContextUserKey, reviewerClaims)

	h.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rita Reviewer", approvals.lastReviewer)
	assert.Equal(t, "ALT_OK", approvals.lastRequest.ReasonCode)
	assert.False(t, approvals.rejected)
}

func TestReportHandlerRejectRequiresClaims(t *testing.T) {
	approvals := &approvalServiceMock{}
	h := NewReportHandler(&reportServiceMock{}, approvals)

	payload, _ := json.Marshal(dto.ApprovalDecisionRequest{ReasonCode: "NO", Notes: "bad data"})
	c, w := newGinContext(http.MethodPost, "/reports/r1/reject", payload)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}

	h.Reject(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, approvals.rejected)
}

func TestReportHandlerExportHistory(t *testing.T) {
	svc := &reportServiceMock{file: &dto.FileResponse{FileName: "history.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}}
	h := NewReportHandler(svc, &approvalServiceMock{})

	c, w := newGinContext(http.MethodGet, "/reports/r1/history/export?format=PDF", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	h.ExportHistory(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.HistoryExportPDF, svc.lastFormat)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "history.pdf")
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

type certificateServiceMock struct {
	resp     *dto.CertificateResponse
	file     *dto.FileResponse
	err      error
	reportID string
}

func (m *certificateServiceMock) GetForReport(_ context.Context, reportID string) (*dto.CertificateResponse, error) {
	m.reportID = reportID
	return m.resp, m.err
}

func (m *certificateServiceMock) Download(context.Context, string) (*dto.FileResponse, error) {
	return m.file, m.err
}

func TestCertificateHandlerChecksReportAccess(t *testing.T) {
	certs := &certificateServiceMock{resp: &dto.CertificateResponse{DownloadURL: "/api/v1/certificates/download/t"}}
	h := NewCertificateHandler(&reportServiceMock{err: appErrors.ErrForbidden}, certs)

	c, w := newGinContext(http.MethodGet, "/reports/r1/certificate", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	h.Get(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, certs.reportID)

	h = NewCertificateHandler(&reportServiceMock{report: &models.Report{ID: "r1"}}, certs)
	c, w = newGinContext(http.MethodGet, "/reports/r1/certificate", nil)
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "r1", certs.reportID)
}

func TestCertificateHandlerDownload(t *testing.T) {
	certs := &certificateServiceMock{file: &dto.FileResponse{FileName: "cert.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}}
	h := NewCertificateHandler(&reportServiceMock{}, certs)

	c, w := newGinContext(http.MethodGet, "/certificates/download/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}
	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF", w.Body.String())

	certs.err = appErrors.ErrUnauthorized
	c, w = newGinContext(http.MethodGet, "/certificates/download/bad", nil)
	h.Download(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"database": func(context.Context) error { return nil },
	})
	c, w := newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, map[string]ReadinessCheck{
		"redis": func(context.Context) error { return appErrors.ErrDependencyFailure },
	})
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis")

	c, w = newGinContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	h := NewAuthHandler()

	c, w := newGinContext(http.MethodGet, "/auth/me", nil)
	h.Me(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newGinContext(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-9", Role: models.RoleJurisdiction, JurisdictionID: "jur-1"})
	h.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	data := string(decode(t, w).Data)
	assert.Contains(t, data, `"role":"JURISDICTION"`)
	assert.Contains(t, data, `"jurisdictionId":"jur-1"`)
}
