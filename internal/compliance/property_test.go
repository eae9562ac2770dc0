package compliance

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/noah-isme/pay-equity-api/internal/models"
)

// TestFewMaleClassesAlwaysRequireReview checks the manual-review gate.
// Property: MaleDominatedCount(jobs) <= 3 => RequiresManualReview && !IsCompliant
func TestFewMaleClassesAlwaysRequireReview(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("three or fewer male-dominated classes force manual review", prop.ForAll(
		func(maleClasses, femaleClasses int, points []int) bool {
			jobs := make([]models.JobClassification, 0, maleClasses+femaleClasses+1)
			for i := 0; i < maleClasses; i++ {
				jobs = append(jobs, maleJob(pointsAt(points, i), float64(1000+10*pointsAt(points, i))))
			}
			for i := 0; i < femaleClasses; i++ {
				jobs = append(jobs, femaleJob(pointsAt(points, i+maleClasses), float64(1000+10*pointsAt(points, i))))
			}
			if len(jobs) == 0 {
				jobs = append(jobs, newJob(100, 5, 5, 3000))
			}
			result, err := NewAnalyzer().Analyze(jobs)
			if err != nil {
				return false
			}
			return result.RequiresManualReview && !result.IsCompliant
		},
		gen.IntRange(0, ManualReviewThreshold),
		gen.IntRange(0, 12),
		gen.SliceOf(gen.IntRange(1, 1000)),
	))

	properties.TestingRun(t)
}

// TestBothCountsZeroIsInvalid checks that a class without incumbents poisons
// the whole job set. Property: some entry with 0/0 => Analyze fails
func TestBothCountsZeroIsInvalid(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("zero incumbents fail analysis", prop.ForAll(
		func(valid int, position int) bool {
			jobs := make([]models.JobClassification, 0, valid+1)
			for i := 0; i < valid; i++ {
				jobs = append(jobs, maleJob(100+i, 3000))
			}
			idx := 0
			if len(jobs) > 0 {
				idx = position % (len(jobs) + 1)
			}
			bad := newJob(150, 0, 0, 4000)
			jobs = append(jobs[:idx], append([]models.JobClassification{bad}, jobs[idx:]...)...)
			_, err := NewAnalyzer().Analyze(jobs)
			return err != nil
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

func pointsAt(points []int, i int) int {
	if len(points) == 0 {
		return 100 + i
	}
	return points[i%len(points)]
}
