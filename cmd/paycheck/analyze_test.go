package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const compliantCSV = `job_number,title,points,male_count,female_count,min_salary,max_salary,years_to_max
M1,Crew A,200,10,0,4000,6000,5
M2,Crew B,200,10,0,4000,6000,5
M3,Crew C,200,10,0,4000,6000,5
M4,Crew D,200,10,0,4000,6000,5
F1,Clerk,200,0,10,4000,6000,5
`

func writeJobs(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestAnalyzePrintsSummary(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runAnalyze(&out, writeJobs(t, compliantCSV), false))
	assert.Contains(t, out.String(), "Result: In Compliance")
}

func TestAnalyzeJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runAnalyze(&out, writeJobs(t, compliantCSV), true))

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, true, result["isCompliant"])
	assert.EqualValues(t, 4, result["maleDominatedClasses"])
}

func TestAnalyzeCommandRequiresFile(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"analyze"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}
