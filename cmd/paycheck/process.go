package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/pay-equity-api/internal/app"
)

func processCmd() *cobra.Command {
	var reportID string
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run automatic processing for a submitted report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				outcome, err := a.Approvals.AutoProcess(cmd.Context(), reportID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "report %s: %s\n", outcome.Report.ID, outcome.Report.ApprovalStatus)
				if outcome.Certificate != nil {
					fmt.Fprintf(out, "certificate %s issued as %s\n", outcome.Certificate.ID, outcome.Certificate.FileName)
				}
				if outcome.History != nil && outcome.History.Notes != nil {
					fmt.Fprintln(out, *outcome.History.Notes)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reportID, "report", "", "report ID")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}
