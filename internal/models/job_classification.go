package models

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/noah-isme/pay-equity-api/pkg/errors"
)

// Dominance classifies a job class by the gender share of its incumbents.
type Dominance string

const (
	DominanceMale     Dominance = "male-dominated"
	DominanceFemale   Dominance = "female-dominated"
	DominanceBalanced Dominance = "balanced"
)

// DominancePercent is the incumbent share (in percent) at which a class
// counts as dominated by one gender.
const DominancePercent = 70

// ExceptionalServiceCode enumerates supplemental pay categories.
type ExceptionalServiceCode string

const (
	ESPLongevity         ExceptionalServiceCode = "longevity"
	ESPCertification     ExceptionalServiceCode = "certification"
	ESPEducation         ExceptionalServiceCode = "education"
	ESPShiftDifferential ExceptionalServiceCode = "shift_differential"
	ESPPerformance       ExceptionalServiceCode = "performance"
	ESPOther             ExceptionalServiceCode = "other"
)

// Valid reports whether the code belongs to the enumerated set.
func (c ExceptionalServiceCode) Valid() bool {
	switch c {
	case ESPLongevity, ESPCertification, ESPEducation, ESPShiftDifferential, ESPPerformance, ESPOther:
		return true
	default:
		return false
	}
}

// JobClassification is one row of job-level data within a report.
type JobClassification struct {
	ID                     string                  `db:"id" json:"id"`
	ReportID               string                  `db:"report_id" json:"reportId"`
	JobNumber              string                  `db:"job_number" json:"jobNumber"`
	Title                  string                  `db:"title" json:"title"`
	Points                 int                     `db:"points" json:"points"`
	MaleCount              int                     `db:"male_count" json:"maleCount"`
	FemaleCount            int                     `db:"female_count" json:"femaleCount"`
	MinSalary              float64                 `db:"min_salary" json:"minSalary"`
	MaxSalary              float64                 `db:"max_salary" json:"maxSalary"`
	YearsToMax             float64                 `db:"years_to_max" json:"yearsToMax"`
	YearsServicePay        *float64                `db:"years_service_pay" json:"yearsServicePay,omitempty"`
	ExceptionalServiceCode *ExceptionalServiceCode `db:"exceptional_service_code" json:"exceptionalServiceCode,omitempty"`
	CreatedAt              time.Time               `db:"created_at" json:"createdAt"`
}

// Dominance applies the 70% rule. Both counts zero is an invalid class.
func (j JobClassification) Dominance() (Dominance, error) {
	if j.MaleCount < 0 || j.FemaleCount < 0 {
		return "", appErrors.Clone(appErrors.ErrInvalidClassification,
			fmt.Sprintf("job %s: incumbent counts must not be negative", j.label()))
	}
	total := j.MaleCount + j.FemaleCount
	if total == 0 {
		return "", appErrors.Clone(appErrors.ErrInvalidClassification,
			fmt.Sprintf("job %s: male and female counts are both zero", j.label()))
	}
	// integer comparison keeps exactly 70% on the dominated side
	switch {
	case j.MaleCount*100 >= total*DominancePercent:
		return DominanceMale, nil
	case j.FemaleCount*100 >= total*DominancePercent:
		return DominanceFemale, nil
	default:
		return DominanceBalanced, nil
	}
}

// MidpointSalary is the monthly pay used by the statistical test.
func (j JobClassification) MidpointSalary() float64 {
	return (j.MinSalary + j.MaxSalary) / 2
}

// HasESP reports whether the class receives exceptional service pay.
func (j JobClassification) HasESP() bool {
	return j.ExceptionalServiceCode != nil && strings.TrimSpace(string(*j.ExceptionalServiceCode)) != ""
}

// Validate checks the data-entry constraints of a classification.
func (j JobClassification) Validate() error {
	invalid := func(msg string) error {
		return appErrors.Clone(appErrors.ErrInvalidClassification, fmt.Sprintf("job %s: %s", j.label(), msg))
	}
	if strings.TrimSpace(j.JobNumber) == "" {
		return invalid("job number is required")
	}
	if j.Points <= 0 {
		return invalid("points must be positive")
	}
	if _, err := j.Dominance(); err != nil {
		return err
	}
	if j.MinSalary < 0 || j.MaxSalary < j.MinSalary {
		return invalid("max salary must be greater than or equal to min salary")
	}
	if j.YearsToMax < 0 {
		return invalid("years to max must not be negative")
	}
	if j.YearsServicePay != nil && *j.YearsServicePay < 0 {
		return invalid("years of service pay must not be negative")
	}
	if j.HasESP() && !j.ExceptionalServiceCode.Valid() {
		return invalid(fmt.Sprintf("unknown exceptional service code %q", *j.ExceptionalServiceCode))
	}
	return nil
}

func (j JobClassification) label() string {
	if j.JobNumber != "" {
		return j.JobNumber
	}
	return strings.TrimSpace(j.Title)
}

// MaleDominatedCount counts male-dominated classes.
func MaleDominatedCount(jobs []JobClassification) (int, error) {
	return countDominance(jobs, DominanceMale)
}

// FemaleDominatedCount counts female-dominated classes.
func FemaleDominatedCount(jobs []JobClassification) (int, error) {
	return countDominance(jobs, DominanceFemale)
}

func countDominance(jobs []JobClassification, want Dominance) (int, error) {
	count := 0
	for _, job := range jobs {
		d, err := job.Dominance()
		if err != nil {
			return 0, err
		}
		if d == want {
			count++
		}
	}
	return count, nil
}
