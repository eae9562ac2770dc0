package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pay-equity-api/internal/dto"
	"github.com/noah-isme/pay-equity-api/internal/middleware"
	"github.com/noah-isme/pay-equity-api/internal/models"
	"github.com/noah-isme/pay-equity-api/internal/service"
	appErrors "github.com/noah-isme/pay-equity-api/pkg/errors"
	"github.com/noah-isme/pay-equity-api/pkg/response"
)

type reportService interface {
	Create(ctx context.Context, req dto.CreateReportRequest, claims *models.JWTClaims) (*models.Report, error)
	Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Report, error)
	List(ctx context.Context, query dto.ReportQuery) ([]models.Report, *models.Pagination, error)
	ReplaceJobs(ctx context.Context, id string, req dto.ReplaceJobsRequest, claims *models.JWTClaims) ([]models.JobClassification, error)
	Jobs(ctx context.Context, id string, claims *models.JWTClaims) ([]models.JobClassification, error)
	Preview(ctx context.Context, id string, claims *models.JWTClaims) (*dto.ComplianceResponse, error)
	Submit(ctx context.Context, id string, claims *models.JWTClaims) (*service.ApprovalOutcome, error)
	History(ctx context.Context, id string, claims *models.JWTClaims) ([]models.ApprovalHistoryEntry, error)
	ExportHistory(ctx context.Context, id string, format dto.HistoryExportFormat, claims *models.JWTClaims) (*dto.FileResponse, error)
}

type approvalService interface {
	HumanApprove(ctx context.Context, reportID string, req dto.ApprovalDecisionRequest, reviewer string) (*service.ApprovalOutcome, error)
	HumanReject(ctx context.Context, reportID string, req dto.ApprovalDecisionRequest, reviewer string) (*service.ApprovalOutcome, error)
}

// ReportHandler exposes report lifecycle and review endpoints.
type ReportHandler struct {
	reports   reportService
	approvals approvalService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService, approvals approvalService) *ReportHandler {
	return &ReportHandler{reports: reports, approvals: approvals}
}

// Create godoc
// @Summary Create draft report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.CreateReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	report, err := h.reports.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// List godoc
// @Summary List reports
// @Tags Reports
// @Produce json
// @Param status query string false "Comma separated approval statuses"
// @Param jurisdictionId query string false "Jurisdiction"
// @Param year query int false "Report year"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	query := dto.ReportQuery{JurisdictionID: strings.TrimSpace(c.Query("jurisdictionId"))}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if status := strings.TrimSpace(raw); status != "" {
			query.Status = append(query.Status, models.ApprovalStatus(status))
		}
	}
	var err error
	if query.ReportYear, err = intQuery(c, "year"); err != nil {
		response.Error(c, err)
		return
	}
	if query.Page, err = intQuery(c, "page"); err != nil {
		response.Error(c, err)
		return
	}
	if query.PageSize, err = intQuery(c, "pageSize"); err != nil {
		response.Error(c, err)
		return
	}
	reports, pagination, err := h.reports.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, pagination)
}

// Get godoc
// @Summary Get report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), reportID(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ListJobs godoc
// @Summary List job classifications
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/jobs [get]
func (h *ReportHandler) ListJobs(c *gin.Context) {
	jobs, err := h.reports.Jobs(c.Request.Context(), reportID(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, nil)
}

// ReplaceJobs godoc
// @Summary Replace job classifications of a draft report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.ReplaceJobsRequest true "Job classifications"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/jobs [put]
func (h *ReportHandler) ReplaceJobs(c *gin.Context) {
	var req dto.ReplaceJobsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	jobs, err := h.reports.ReplaceJobs(c.Request.Context(), reportID(c), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, nil)
}

// Compliance godoc
// @Summary Preview compliance determination
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/compliance [get]
func (h *ReportHandler) Compliance(c *gin.Context) {
	preview, err := h.reports.Preview(c.Request.Context(), reportID(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, preview.Cached)
	response.JSON(c, http.StatusOK, preview, nil, middleware.ExtractMeta(c))
}

// Submit godoc
// @Summary Submit report for compliance processing
// @Tags Approvals
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/submit [post]
func (h *ReportHandler) Submit(c *gin.Context) {
	outcome, err := h.reports.Submit(c.Request.Context(), reportID(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, approvalResponse(outcome), nil)
}

// Approve godoc
// @Summary Approve report after review
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.ApprovalDecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/approve [post]
func (h *ReportHandler) Approve(c *gin.Context) {
	h.decide(c, h.approvals.HumanApprove)
}

// Reject godoc
// @Summary Reject report after review
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.ApprovalDecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/reject [post]
func (h *ReportHandler) Reject(c *gin.Context) {
	h.decide(c, h.approvals.HumanReject)
}

type decisionFunc func(ctx context.Context, reportID string, req dto.ApprovalDecisionRequest, reviewer string) (*service.ApprovalOutcome, error)

func (h *ReportHandler) decide(c *gin.Context, decide decisionFunc) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ApprovalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	outcome, err := decide(c.Request.Context(), reportID(c), req, claims.Identity())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, approvalResponse(outcome), nil)
}

// History godoc
// @Summary Approval history
// @Tags Approvals
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/history [get]
func (h *ReportHandler) History(c *gin.Context) {
	entries, err := h.reports.History(c.Request.Context(), reportID(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ExportHistory godoc
// @Summary Export approval history
// @Tags Approvals
// @Produce octet-stream
// @Param id path string true "Report ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /reports/{id}/history/export [get]
func (h *ReportHandler) ExportHistory(c *gin.Context) {
	format := dto.HistoryExportFormat(strings.ToLower(c.DefaultQuery("format", string(dto.HistoryExportCSV))))
	file, err := h.reports.ExportHistory(c.Request.Context(), reportID(c), format, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.FileName, file.ContentType, file.Data)
}

func approvalResponse(outcome *service.ApprovalOutcome) dto.ApprovalResponse {
	return dto.ApprovalResponse{
		Report:      outcome.Report,
		Approved:    outcome.Approved,
		Certificate: outcome.Certificate,
		History:     outcome.History,
	}
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be a non-negative integer")
	}
	return value, nil
}
