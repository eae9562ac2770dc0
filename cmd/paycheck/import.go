package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/pay-equity-api/internal/app"
	"github.com/noah-isme/pay-equity-api/internal/dto"
	"github.com/noah-isme/pay-equity-api/internal/importer"
)

func importCmd() *cobra.Command {
	var reportID, file string
	cmd := &cobra.Command{
		Use:     "import",
		Short:   "Replace the job classifications of a draft report from a file",
		Example: `  paycheck import --report 6f1c... --file jobs.xlsx`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inputs, err := importer.ReadFile(file)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app.App) error {
				jobs, err := a.Reports.ReplaceJobs(cmd.Context(), reportID, dto.ReplaceJobsRequest{Jobs: inputs}, cliClaims)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d job classifications into report %s\n", len(jobs), reportID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reportID, "report", "", "report ID")
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV or XLSX job classification file")
	_ = cmd.MarkFlagRequired("report")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
