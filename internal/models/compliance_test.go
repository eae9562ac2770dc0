package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTestOutcomeVariants(t *testing.T) {
	na := NotApplicable("no ESP codes")
	require.False(t, na.Applicable())
	require.True(t, na.Satisfied())
	require.False(t, na.Passed())
	_, ok := na.Ratio()
	require.False(t, ok)

	failed := Evaluated(62.5, false)
	require.True(t, failed.Applicable())
	require.False(t, failed.Satisfied())

	payload, err := json.Marshal(na)
	require.NoError(t, err)
	require.JSONEq(t, `{"applicable":false,"reason":"no ESP codes"}`, string(payload))

	var decoded TestOutcome
	require.NoError(t, json.Unmarshal([]byte(`{"applicable":true,"ratio":91.2,"passed":true}`), &decoded))
	require.Equal(t, Evaluated(91.2, true), decoded)
}

func TestSnapshotRestoresStructuredResult(t *testing.T) {
	result := ComplianceResult{
		Statistical:     StatisticalTest{Ratio: 97.5, Passed: true},
		SalaryRange:     Evaluated(85, true),
		ESP:             NotApplicable("no classes receive exceptional service pay"),
		MaleDominated:   5,
		FemaleDominated: 3,
		IsCompliant:     true,
	}
	results, applicability := result.Snapshot(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, results.SalaryRange)
	require.Nil(t, results.ESP)
	require.False(t, applicability.ESP.Applicable)

	value, err := results.Value()
	require.NoError(t, err)
	var scanned TestResults
	require.NoError(t, scanned.Scan(value))

	appValue, err := applicability.Value()
	require.NoError(t, err)
	var scannedApp TestApplicability
	require.NoError(t, scannedApp.Scan(appValue))

	require.Equal(t, result, RestoreResult(scanned, scannedApp))
}

func TestEmptySnapshotPersistsAsNull(t *testing.T) {
	value, err := TestResults{}.Value()
	require.NoError(t, err)
	require.Nil(t, value)

	var results TestResults
	require.NoError(t, results.Scan(nil))
	require.True(t, results.IsZero())
}
