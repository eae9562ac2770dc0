// Package importer reads job classification rows from CSV and XLSX files.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/pay-equity-api/internal/dto"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var requiredColumns = []string{
	"jobnumber", "title", "points", "malecount", "femalecount", "minsalary", "maxsalary", "yearstomax",
}

// ReadFile loads job rows from path, choosing the decoder by extension.
func ReadFile(path string) ([]dto.JobClassificationInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadCSV decodes a header row followed by one job per line.
func ReadCSV(r io.Reader) ([]dto.JobClassificationInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return decodeRows(rows)
}

// ReadXLSX decodes the first worksheet of a workbook.
func ReadXLSX(r io.Reader) ([]dto.JobClassificationInput, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return decodeRows(rows)
}

func decodeRows(rows [][]string) ([]dto.JobClassificationInput, error) {
	if len(rows) == 0 {
		return nil, errors.New("file is empty")
	}
	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[normalizeHeader(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	jobs := make([]dto.JobClassificationInput, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		line := n + 2
		cell := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		job := dto.JobClassificationInput{
			JobNumber:              cell("jobnumber"),
			Title:                  cell("title"),
			ExceptionalServiceCode: strings.ToLower(cell("exceptionalservicecode")),
		}
		var err error
		if job.Points, err = parseInt(cell("points")); err != nil {
			return nil, fmt.Errorf("row %d points: %w", line, err)
		}
		if job.MaleCount, err = parseInt(cell("malecount")); err != nil {
			return nil, fmt.Errorf("row %d male count: %w", line, err)
		}
		if job.FemaleCount, err = parseInt(cell("femalecount")); err != nil {
			return nil, fmt.Errorf("row %d female count: %w", line, err)
		}
		if job.MinSalary, err = parseAmount(cell("minsalary")); err != nil {
			return nil, fmt.Errorf("row %d min salary: %w", line, err)
		}
		if job.MaxSalary, err = parseAmount(cell("maxsalary")); err != nil {
			return nil, fmt.Errorf("row %d max salary: %w", line, err)
		}
		if job.YearsToMax, err = parseAmount(cell("yearstomax")); err != nil {
			return nil, fmt.Errorf("row %d years to max: %w", line, err)
		}
		if raw := cell("yearsservicepay"); raw != "" {
			value, err := parseAmount(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d years of service pay: %w", line, err)
			}
			job.YearsServicePay = &value
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func normalizeHeader(name string) string {
	replacer := strings.NewReplacer("_", "", " ", "", "-", "")
	return replacer.Replace(strings.ToLower(strings.TrimSpace(name)))
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
}

func parseAmount(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(raw)
	return strconv.ParseFloat(cleaned, 64)
}
