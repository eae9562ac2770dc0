package dto

import (
	"time"

	"github.com/noah-isme/pay-equity-api/internal/models"
)

// ApprovalDecisionRequest captures a reviewer decision. Notes are mandatory
// for rejections.
type ApprovalDecisionRequest struct {
	ReasonCode string `json:"reasonCode" validate:"required,max=64"`
	Notes      string `json:"notes" validate:"max=4000"`
}

// ApprovalResponse is returned by submit, approve and reject.
type ApprovalResponse struct {
	Report      *models.Report                `json:"report"`
	Approved    bool                          `json:"approved"`
	Certificate *models.ComplianceCertificate `json:"certificate,omitempty"`
	History     *models.ApprovalHistoryEntry  `json:"history,omitempty"`
}

// CertificateResponse exposes certificate metadata and a signed download link.
type CertificateResponse struct {
	Certificate *models.ComplianceCertificate `json:"certificate"`
	DownloadURL string                        `json:"downloadUrl"`
	ExpiresAt   time.Time                     `json:"expiresAt"`
}
