package importer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `Job Number,Title,Points,Male Count,Female Count,Min Salary,Max Salary,Years To Max,Years Service Pay,Exceptional Service Code
M1,Maintenance,200,10,0,"$4,000",5000,5,,
F1,Clerk,200,0,10,3000,4000,8,2.5,Longevity

`

func TestReadCSV(t *testing.T) {
	jobs, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "M1", jobs[0].JobNumber)
	assert.Equal(t, 4000.0, jobs[0].MinSalary)
	assert.Nil(t, jobs[0].YearsServicePay)
	assert.Empty(t, jobs[0].ExceptionalServiceCode)

	assert.Equal(t, 10, jobs[1].FemaleCount)
	require.NotNil(t, jobs[1].YearsServicePay)
	assert.Equal(t, 2.5, *jobs[1].YearsServicePay)
	assert.Equal(t, "longevity", jobs[1].ExceptionalServiceCode)
}

func TestReadCSVRejectsMissingColumnsAndBadNumbers(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("job_number,title\nM1,Maintenance\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "points")

	bad := strings.Replace(sampleCSV, "200,10,0", "lots,10,0", 1)
	_, err = ReadCSV(strings.NewReader(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2 points")
}

func TestReadXLSX(t *testing.T) {
	book := excelize.NewFile()
	defer book.Close()
	sheet := book.GetSheetName(0)
	rows := [][]interface{}{
		{"job_number", "title", "points", "male_count", "female_count", "min_salary", "max_salary", "years_to_max"},
		{"M1", "Maintenance", 200, 8, 2, 4000, 5000, 5},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, book.Write(&buf))

	jobs, err := ReadXLSX(&buf)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, 8, jobs[0].MaleCount)
	assert.Equal(t, 5000.0, jobs[0].MaxSalary)
}

func TestReadFileDispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "jobs.CSV")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o600))

	jobs, err := ReadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	txtPath := filepath.Join(dir, "jobs.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte(sampleCSV), 0o600))
	_, err = ReadFile(txtPath)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}
