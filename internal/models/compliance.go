package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PassingRatio is the minimum ratio (percent) each test must reach.
const PassingRatio = 80.0

// StatisticalTest captures the underpayment-ratio test and its companion
// significance check.
type StatisticalTest struct {
	Ratio            float64 `json:"ratio"`
	Passed           bool    `json:"passed"`
	ComparedClasses  int     `json:"comparedClasses"`
	Intercept        float64 `json:"intercept"`
	Slope            float64 `json:"slope"`
	TStatistic       float64 `json:"tStatistic"`
	DegreesOfFreedom int     `json:"degreesOfFreedom"`
	CriticalValue    float64 `json:"criticalValue"`
	Significant      bool    `json:"significant"`
	Reason           string  `json:"reason,omitempty"`
}

// TestOutcome is either NotApplicable(reason) or Evaluated(ratio, passed).
// The zero value is not applicable with no reason.
type TestOutcome struct {
	applicable bool
	ratio      float64
	passed     bool
	reason     string
}

// NotApplicable builds an outcome for a test whose preconditions are unmet.
func NotApplicable(reason string) TestOutcome {
	return TestOutcome{reason: reason}
}

// Evaluated builds an outcome for a test that produced a ratio.
func Evaluated(ratio float64, passed bool) TestOutcome {
	return TestOutcome{applicable: true, ratio: ratio, passed: passed}
}

// Applicable reports whether the test was evaluated.
func (o TestOutcome) Applicable() bool { return o.applicable }

// Ratio returns the evaluated ratio; ok is false when not applicable.
func (o TestOutcome) Ratio() (ratio float64, ok bool) { return o.ratio, o.applicable }

// Passed reports the evaluated verdict; false when not applicable.
func (o TestOutcome) Passed() bool { return o.applicable && o.passed }

// Reason is the not-applicable explanation.
func (o TestOutcome) Reason() string { return o.reason }

// Satisfied is the aggregation rule: not applicable counts as satisfied.
func (o TestOutcome) Satisfied() bool { return !o.applicable || o.passed }

type testOutcomeJSON struct {
	Applicable bool     `json:"applicable"`
	Ratio      *float64 `json:"ratio,omitempty"`
	Passed     *bool    `json:"passed,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (o TestOutcome) MarshalJSON() ([]byte, error) {
	wire := testOutcomeJSON{Applicable: o.applicable, Reason: o.reason}
	if o.applicable {
		ratio, passed := o.ratio, o.passed
		wire.Ratio = &ratio
		wire.Passed = &passed
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *TestOutcome) UnmarshalJSON(data []byte) error {
	var wire testOutcomeJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if !wire.Applicable {
		*o = NotApplicable(wire.Reason)
		return nil
	}
	var ratio float64
	var passed bool
	if wire.Ratio != nil {
		ratio = *wire.Ratio
	}
	if wire.Passed != nil {
		passed = *wire.Passed
	}
	*o = Evaluated(ratio, passed)
	return nil
}

// ComplianceResult is the outcome of one compliance analysis run.
type ComplianceResult struct {
	Statistical          StatisticalTest `json:"statisticalTest"`
	SalaryRange          TestOutcome     `json:"salaryRangeTest"`
	ESP                  TestOutcome     `json:"espTest"`
	MaleDominated        int             `json:"maleDominatedClasses"`
	FemaleDominated      int             `json:"femaleDominatedClasses"`
	Balanced             int             `json:"balancedClasses"`
	RequiresManualReview bool            `json:"requiresManualReview"`
	IsCompliant          bool            `json:"isCompliant"`
}

// RatioResult is the stored form of an evaluated ratio test.
type RatioResult struct {
	Ratio  float64 `json:"ratio"`
	Passed bool    `json:"passed"`
}

// TestResults is the persisted snapshot of test outcomes (JSONB).
type TestResults struct {
	Statistical          StatisticalTest `json:"statisticalTest"`
	SalaryRange          *RatioResult    `json:"salaryRangeTest,omitempty"`
	ESP                  *RatioResult    `json:"espTest,omitempty"`
	MaleDominated        int             `json:"maleDominatedClasses"`
	FemaleDominated      int             `json:"femaleDominatedClasses"`
	Balanced             int             `json:"balancedClasses"`
	RequiresManualReview bool            `json:"requiresManualReview"`
	IsCompliant          bool            `json:"isCompliant"`
	AnalyzedAt           time.Time       `json:"analyzedAt"`
}

// Applicability records whether a conditional test applied and why not.
type Applicability struct {
	Applicable bool   `json:"applicable"`
	Reason     string `json:"reason,omitempty"`
}

// TestApplicability is the persisted applicability snapshot (JSONB).
type TestApplicability struct {
	SalaryRange Applicability `json:"salaryRangeTest"`
	ESP         Applicability `json:"espTest"`
}

// Snapshot splits the result into its persisted representation.
func (r ComplianceResult) Snapshot(at time.Time) (TestResults, TestApplicability) {
	results := TestResults{
		Statistical:          r.Statistical,
		MaleDominated:        r.MaleDominated,
		FemaleDominated:      r.FemaleDominated,
		Balanced:             r.Balanced,
		RequiresManualReview: r.RequiresManualReview,
		IsCompliant:          r.IsCompliant,
		AnalyzedAt:           at.UTC(),
	}
	if ratio, ok := r.SalaryRange.Ratio(); ok {
		results.SalaryRange = &RatioResult{Ratio: ratio, Passed: r.SalaryRange.Passed()}
	}
	if ratio, ok := r.ESP.Ratio(); ok {
		results.ESP = &RatioResult{Ratio: ratio, Passed: r.ESP.Passed()}
	}
	applicability := TestApplicability{
		SalaryRange: Applicability{Applicable: r.SalaryRange.Applicable(), Reason: r.SalaryRange.Reason()},
		ESP:         Applicability{Applicable: r.ESP.Applicable(), Reason: r.ESP.Reason()},
	}
	return results, applicability
}

// RestoreResult rebuilds the structured result from a stored snapshot.
func RestoreResult(results TestResults, applicability TestApplicability) ComplianceResult {
	restore := func(stored *RatioResult, a Applicability) TestOutcome {
		if !a.Applicable || stored == nil {
			return NotApplicable(a.Reason)
		}
		return Evaluated(stored.Ratio, stored.Passed)
	}
	return ComplianceResult{
		Statistical:          results.Statistical,
		SalaryRange:          restore(results.SalaryRange, applicability.SalaryRange),
		ESP:                  restore(results.ESP, applicability.ESP),
		MaleDominated:        results.MaleDominated,
		FemaleDominated:      results.FemaleDominated,
		Balanced:             results.Balanced,
		RequiresManualReview: results.RequiresManualReview,
		IsCompliant:          results.IsCompliant,
	}
}

// IsZero reports whether no analysis has been recorded.
func (t TestResults) IsZero() bool {
	return t.AnalyzedAt.IsZero()
}

// Value marshals the snapshot for persistence; an empty snapshot is NULL.
func (t TestResults) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal test results: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSONB payloads into the snapshot.
func (t *TestResults) Scan(value interface{}) error {
	*t = TestResults{}
	return scanJSON(value, t, "test results")
}

// Value marshals the applicability snapshot for persistence.
func (t TestApplicability) Value() (driver.Value, error) {
	if t == (TestApplicability{}) {
		return nil, nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal test applicability: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSONB payloads into the applicability snapshot.
func (t *TestApplicability) Scan(value interface{}) error {
	*t = TestApplicability{}
	return scanJSON(value, t, "test applicability")
}

func scanJSON(value interface{}, dest interface{}, what string) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for %s", value, what)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return nil
}
