package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"readiness/internal/app/server"
	"readiness/internal/domain/assessment"
	"readiness/internal/domain/pipeline"
)

var (
	reportInput string
	reportOut   string
	reportEmail string
)

// reportFile is the offline equivalent of the report endpoint body.
type reportFile struct {
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Firm    string             `json:"firm"`
	Scores  map[string]float64 `json:"scores"`
	Answers assessment.Answers `json:"answers"`
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build a PDF report from a JSON file of scores or answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(reportInput)
		if err != nil {
			return eris.Wrapf(err, "read %s", reportInput)
		}
		var in reportFile
		if err := json.Unmarshal(raw, &in); err != nil {
			return eris.Wrapf(err, "parse %s", reportInput)
		}

		app, err := server.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		res, err := app.Pipeline.GenerateReport(cmd.Context(), pipeline.ReportRequest{
			Name:      in.Name,
			Email:     reportEmail,
			Firm:      in.Firm,
			Scores:    in.Scores,
			Answers:   in.Answers,
			SendEmail: reportEmail != "",
		})
		if err != nil {
			return err
		}
		if err := os.WriteFile(reportOut, res.PDF, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", reportOut)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes, recommendations: %s, chart: %t, emailed: %t)\n",
			reportOut, len(res.PDF), res.Source, res.ChartRendered, res.EmailQueued)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportInput, "input", "i", "", "JSON file with firm and scores or answers")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "report.pdf", "output PDF path")
	reportCmd.Flags().StringVar(&reportEmail, "email", "", "also email the report to this address")
	_ = reportCmd.MarkFlagRequired("input")
}
