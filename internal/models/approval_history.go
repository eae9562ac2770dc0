package models

import "time"

// HistoryAction enumerates audit trail action types.
type HistoryAction string

const (
	HistoryActionManualReview HistoryAction = "manual_review_required"
	HistoryActionAutoApproved HistoryAction = "auto_approved"
	HistoryActionFailedTests  HistoryAction = "failed_tests"
	HistoryActionApproved     HistoryAction = "approved"
	HistoryActionRejected     HistoryAction = "rejected"
)

// AutoApprovalActor is recorded as approver for automatic transitions.
const AutoApprovalActor = "Auto-Approval System"

// ApprovalHistoryEntry is an append-only record of one transition.
type ApprovalHistoryEntry struct {
	ID             string         `db:"id" json:"id"`
	ReportID       string         `db:"report_id" json:"reportId"`
	JurisdictionID string         `db:"jurisdiction_id" json:"jurisdictionId"`
	ActionType     HistoryAction  `db:"action_type" json:"actionType"`
	PreviousStatus ApprovalStatus `db:"previous_status" json:"previousStatus"`
	NewStatus      ApprovalStatus `db:"new_status" json:"newStatus"`
	ApprovedBy     *string        `db:"approved_by" json:"approvedBy,omitempty"`
	Reason         string         `db:"reason" json:"reason"`
	Notes          *string        `db:"notes" json:"notes,omitempty"`
	Timestamp      time.Time      `db:"timestamp" json:"timestamp"`
}
