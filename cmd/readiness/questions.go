package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"readiness/internal/domain/assessment"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Print the question bank as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"categories": assessment.Categories(),
			"questions":  assessment.Questions(),
		})
	},
}
