package models

import "time"

// ApprovalStatus is the workflow state of a compliance report. The string
// values are part of the persisted contract.
type ApprovalStatus string

const (
	ApprovalStatusDraft        ApprovalStatus = "draft"
	ApprovalStatusPending      ApprovalStatus = "pending"
	ApprovalStatusApproved     ApprovalStatus = "approved"
	ApprovalStatusAutoApproved ApprovalStatus = "auto_approved"
	ApprovalStatusRejected     ApprovalStatus = "rejected"
)

// validTransitions lists every allowed (from -> to) pair. Approved,
// auto-approved and rejected reports have no outgoing transitions.
var validTransitions = map[ApprovalStatus][]ApprovalStatus{
	ApprovalStatusDraft: {
		ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusAutoApproved, ApprovalStatusRejected,
	},
	ApprovalStatusPending: {
		ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusAutoApproved, ApprovalStatusRejected,
	},
}

// IsTerminal reports whether no transition leaves the status.
func (s ApprovalStatus) IsTerminal() bool {
	_, ok := validTransitions[s]
	return !ok
}

// Valid reports whether the status belongs to the enumeration.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalStatusDraft, ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusAutoApproved, ApprovalStatusRejected:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from -> to is permitted.
func CanTransition(from, to ApprovalStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ComplianceStatus is the outcome of the last compliance determination.
type ComplianceStatus string

const (
	ComplianceStatusUnknown      ComplianceStatus = "Unknown"
	ComplianceStatusCompliant    ComplianceStatus = "In Compliance"
	ComplianceStatusNonCompliant ComplianceStatus = "Out of Compliance"
)

// CaseStatus mirrors compliance status plus the submission lifecycle.
type CaseStatus string

const (
	CaseStatusDraft        CaseStatus = "Draft"
	CaseStatusSubmitted    CaseStatus = "Submitted"
	CaseStatusUnderReview  CaseStatus = "Under Review"
	CaseStatusCompliant    CaseStatus = "In Compliance"
	CaseStatusNonCompliant CaseStatus = "Out of Compliance"
)

// Report is a jurisdiction's pay equity submission for one report year.
type Report struct {
	ID                     string            `db:"id" json:"id"`
	JurisdictionID         string            `db:"jurisdiction_id" json:"jurisdictionId"`
	ReportYear             int               `db:"report_year" json:"reportYear"`
	CaseNumber             string            `db:"case_number" json:"caseNumber"`
	CaseDescription        string            `db:"case_description" json:"caseDescription"`
	SubmittedAt            *time.Time        `db:"submitted_at" json:"submittedAt,omitempty"`
	ApprovalStatus         ApprovalStatus    `db:"approval_status" json:"approvalStatus"`
	ComplianceStatus       ComplianceStatus  `db:"compliance_status" json:"complianceStatus"`
	CaseStatus             CaseStatus        `db:"case_status" json:"caseStatus"`
	RequiresManualReview   bool              `db:"requires_manual_review" json:"requiresManualReview"`
	AutoApproved           bool              `db:"auto_approved" json:"autoApproved"`
	SubmittedOnTime        bool              `db:"submitted_on_time" json:"submittedOnTime"`
	SubmissionDeadline     *time.Time        `db:"submission_deadline" json:"submissionDeadline,omitempty"`
	ApprovedBy             *string           `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt             *time.Time        `db:"approved_at" json:"approvedAt,omitempty"`
	RejectionReason        *string           `db:"rejection_reason" json:"rejectionReason,omitempty"`
	CertificateGeneratedAt *time.Time        `db:"certificate_generated_at" json:"certificateGeneratedAt,omitempty"`
	TestResults            TestResults       `db:"test_results" json:"testResults"`
	TestApplicability      TestApplicability `db:"test_applicability" json:"testApplicability"`
	CreatedAt              time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt              time.Time         `db:"updated_at" json:"updatedAt"`
}

// ReportFilter constrains listing queries.
type ReportFilter struct {
	Status         []ApprovalStatus
	JurisdictionID string
	ReportYear     int
	Limit          int
	Offset         int
}
