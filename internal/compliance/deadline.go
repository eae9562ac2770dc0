package compliance

import (
	"time"

	"github.com/noah-isme/pay-equity-api/internal/models"
)

// DeadlineEvaluator applies the January 31 statutory filing deadline in the
// jurisdiction's local time zone.
type DeadlineEvaluator struct {
	loc *time.Location
}

// NewDeadlineEvaluator constructs an evaluator; nil location means UTC.
func NewDeadlineEvaluator(loc *time.Location) *DeadlineEvaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &DeadlineEvaluator{loc: loc}
}

// SubmissionDeadline returns January 31 of reportYear, 23:59:59 local.
func (e *DeadlineEvaluator) SubmissionDeadline(reportYear int) time.Time {
	return time.Date(reportYear, time.January, 31, 23, 59, 59, 0, e.loc)
}

// OnTime reports whether the report was submitted by its deadline. A report
// without a submission timestamp is late. Sub-second precision is ignored.
func (e *DeadlineEvaluator) OnTime(report *models.Report) bool {
	if report == nil || report.SubmittedAt == nil {
		return false
	}
	submitted := report.SubmittedAt.In(e.loc).Truncate(time.Second)
	return !submitted.After(e.SubmissionDeadline(report.ReportYear))
}
