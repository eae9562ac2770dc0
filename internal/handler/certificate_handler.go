package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pay-equity-api/internal/dto"
	"github.com/noah-isme/pay-equity-api/internal/models"
	"github.com/noah-isme/pay-equity-api/pkg/response"
)

type reportReader interface {
	Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Report, error)
}

type certificateService interface {
	GetForReport(ctx context.Context, reportID string) (*dto.CertificateResponse, error)
	Download(ctx context.Context, token string) (*dto.FileResponse, error)
}

// CertificateHandler serves compliance certificates.
type CertificateHandler struct {
	reports      reportReader
	certificates certificateService
}

// NewCertificateHandler constructs handler.
func NewCertificateHandler(reports reportReader, certificates certificateService) *CertificateHandler {
	return &CertificateHandler{reports: reports, certificates: certificates}
}

// Get godoc
// @Summary Certificate metadata and signed download link
// @Tags Certificates
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/certificate [get]
func (h *CertificateHandler) Get(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), reportID(c), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	certificate, err := h.certificates.GetForReport(c.Request.Context(), report.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certificate, nil)
}

// Download godoc
// @Summary Download certificate by signed token
// @Tags Certificates
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Router /certificates/download/{token} [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	file, err := h.certificates.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.FileName, file.ContentType, file.Data)
}
