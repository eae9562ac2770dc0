package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/noah-isme/pay-equity-api/internal/compliance"
	"github.com/noah-isme/pay-equity-api/internal/importer"
	"github.com/noah-isme/pay-equity-api/internal/models"
)

func analyzeCmd() *cobra.Command {
	var (
		file   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the compliance analysis on a job file without touching the database",
		Example: `  paycheck analyze --file jobs.csv
  paycheck analyze --file jobs.xlsx --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd.OutOrStdout(), file, asJSON)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV or XLSX job classification file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw result as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runAnalyze(out io.Writer, file string, asJSON bool) error {
	inputs, err := importer.ReadFile(file)
	if err != nil {
		return err
	}
	jobs := make([]models.JobClassification, 0, len(inputs))
	for _, in := range inputs {
		jobs = append(jobs, in.Model())
	}

	result, err := compliance.NewAnalyzer().Analyze(jobs)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	_, err = fmt.Fprintln(out, compliance.Summarize(result))
	return err
}
