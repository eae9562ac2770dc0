package models

import "time"

// NotificationType identifies the template a mailer should use.
type NotificationType string

const (
	NotificationStaffReview    NotificationType = "staff_review_required"
	NotificationReportApproved NotificationType = "report_approved"
	NotificationReportRejected NotificationType = "report_rejected"
)

// Notification is a post-commit delivery request.
type Notification struct {
	Type           NotificationType  `json:"type"`
	Recipient      string            `json:"recipient"`
	ReportID       string            `json:"reportId"`
	JurisdictionID string            `json:"jurisdictionId"`
	Payload        map[string]string `json:"payload,omitempty"`
	RequestedAt    time.Time         `json:"requestedAt"`
}
