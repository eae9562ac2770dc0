// Package compliance implements the statutory pay equity tests and the
// submission deadline rule.
package compliance

import (
	"math"

	"github.com/noah-isme/pay-equity-api/internal/models"
	appErrors "github.com/noah-isme/pay-equity-api/pkg/errors"
)

// ManualReviewThreshold is the largest male-dominated class count that still
// forces an alternative analysis by a human reviewer.
const ManualReviewThreshold = 3

// Analyzer computes compliance results from a report's job classifications.
type Analyzer struct{}

// NewAnalyzer constructs an analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze runs the three tests and the manual-review gate. An empty job set
// fails with InsufficientData and malformed classes with
// InvalidClassification; callers must not change report state on error.
func (a *Analyzer) Analyze(jobs []models.JobClassification) (models.ComplianceResult, error) {
	if len(jobs) == 0 {
		return models.ComplianceResult{}, appErrors.ErrInsufficientData
	}
	var male, female []models.JobClassification
	balanced := 0
	for _, job := range jobs {
		if err := job.Validate(); err != nil {
			return models.ComplianceResult{}, err
		}
		d, err := job.Dominance()
		if err != nil {
			return models.ComplianceResult{}, err
		}
		switch d {
		case models.DominanceMale:
			male = append(male, job)
		case models.DominanceFemale:
			female = append(female, job)
		default:
			balanced++
		}
	}

	result := models.ComplianceResult{
		Statistical:          statisticalTest(male, female),
		SalaryRange:          salaryRangeTest(male, female),
		ESP:                  espTest(jobs, male, female),
		MaleDominated:        len(male),
		FemaleDominated:      len(female),
		Balanced:             balanced,
		RequiresManualReview: len(male) <= ManualReviewThreshold,
	}
	result.IsCompliant = !result.RequiresManualReview &&
		result.Statistical.Passed &&
		result.SalaryRange.Satisfied() &&
		result.ESP.Satisfied()
	return result, nil
}

// statisticalTest compares female-dominated pay against the pay line fitted
// over male-dominated classes.
func statisticalTest(male, female []models.JobClassification) models.StatisticalTest {
	if len(male) == 0 {
		return models.StatisticalTest{Reason: "no male-dominated classes to fit a predicted pay line"}
	}
	points := make([]float64, len(male))
	pay := make([]float64, len(male))
	for i, job := range male {
		points[i] = float64(job.Points)
		pay[i] = job.MidpointSalary()
	}
	line := fitPayLine(points, pay)
	test := models.StatisticalTest{Intercept: round2(line.intercept), Slope: line.slope}

	if len(female) == 0 {
		test.Ratio = 100
		test.Passed = true
		test.Reason = "no female-dominated classes to compare"
		return test
	}

	ratios := make([]float64, 0, len(female))
	residuals := make([]float64, 0, len(female))
	for _, job := range female {
		predicted := line.predict(float64(job.Points))
		if predicted <= 0 {
			continue
		}
		actual := job.MidpointSalary()
		ratios = append(ratios, actual/predicted*100)
		residuals = append(residuals, actual-predicted)
	}
	if len(ratios) == 0 {
		test.Reason = "predicted pay is not positive for any female-dominated class"
		return test
	}

	test.ComparedClasses = len(ratios)
	test.Ratio = round2(mean(ratios))
	test.Passed = test.Ratio >= models.PassingRatio

	t, df, ok := oneSampleT(residuals)
	if df > 0 {
		test.DegreesOfFreedom = df
	}
	test.TStatistic = round2(t)
	if critical, found := CriticalValue(df); found {
		test.CriticalValue = critical
		test.Significant = ok && math.Abs(t) > critical
	}
	return test
}

func salaryRangeTest(male, female []models.JobClassification) models.TestOutcome {
	if len(male) == 0 || len(female) == 0 {
		return models.NotApplicable("requires both male-dominated and female-dominated classes")
	}
	maleYears := yearsToMax(male)
	femaleYears := yearsToMax(female)
	if len(maleYears) == 0 || len(femaleYears) == 0 {
		return models.NotApplicable("no years-to-maximum data for both male-dominated and female-dominated classes")
	}
	ratio := round2(mean(maleYears) / mean(femaleYears) * 100)
	return models.Evaluated(ratio, ratio >= models.PassingRatio)
}

func yearsToMax(jobs []models.JobClassification) []float64 {
	years := make([]float64, 0, len(jobs))
	for _, job := range jobs {
		if job.YearsToMax > 0 {
			years = append(years, job.YearsToMax)
		}
	}
	return years
}

func espTest(all, male, female []models.JobClassification) models.TestOutcome {
	if espCount(all) == 0 {
		return models.NotApplicable("no classes receive exceptional service pay")
	}
	if len(male) == 0 || len(female) == 0 {
		return models.NotApplicable("requires both male-dominated and female-dominated classes")
	}
	malePct := float64(espCount(male)) / float64(len(male)) * 100
	femalePct := float64(espCount(female)) / float64(len(female)) * 100
	if malePct == 0 {
		return models.Evaluated(100, true)
	}
	ratio := round2(femalePct / malePct * 100)
	return models.Evaluated(ratio, ratio >= models.PassingRatio)
}

func espCount(jobs []models.JobClassification) int {
	count := 0
	for _, job := range jobs {
		if job.HasESP() {
			count++
		}
	}
	return count
}
