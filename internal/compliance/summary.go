package compliance

import (
	"fmt"
	"strings"

	"github.com/noah-isme/pay-equity-api/internal/models"
)

// Transition reasons recorded on manual review entries.
const (
	ReasonLateSubmission   = "late submission"
	ReasonFewMaleDominated = "three or fewer male-dominated classes"
)

// Summarize renders the pass/fail prose for a structured result.
func Summarize(result models.ComplianceResult) string {
	parts := []string{
		fmt.Sprintf("Statistical test: %s", statisticalLine(result.Statistical)),
		fmt.Sprintf("Salary range test: %s", outcomeLine(result.SalaryRange)),
		fmt.Sprintf("Exceptional service pay test: %s", outcomeLine(result.ESP)),
		fmt.Sprintf("Male-dominated classes: %d, female-dominated classes: %d, balanced classes: %d",
			result.MaleDominated, result.FemaleDominated, result.Balanced),
	}
	if result.RequiresManualReview {
		parts = append(parts, "Alternative analysis required: "+ReasonFewMaleDominated)
	}
	verdict := "Out of Compliance"
	if result.IsCompliant {
		verdict = "In Compliance"
	}
	parts = append(parts, "Result: "+verdict)
	return strings.Join(parts, "; ")
}

func statisticalLine(test models.StatisticalTest) string {
	status := "FAIL"
	if test.Passed {
		status = "PASS"
	}
	line := fmt.Sprintf("%s (underpayment ratio %.2f", status, test.Ratio)
	if test.DegreesOfFreedom > 0 {
		reliability := "not significant"
		if test.Significant {
			reliability = "significant"
		}
		line += fmt.Sprintf(", t=%.2f df=%d %s", test.TStatistic, test.DegreesOfFreedom, reliability)
	}
	line += ")"
	if test.Reason != "" {
		line += " - " + test.Reason
	}
	return line
}

func outcomeLine(outcome models.TestOutcome) string {
	ratio, ok := outcome.Ratio()
	if !ok {
		return "N/A (" + outcome.Reason() + ")"
	}
	status := "FAIL"
	if outcome.Passed() {
		status = "PASS"
	}
	return fmt.Sprintf("%s (%.2f%%)", status, ratio)
}
