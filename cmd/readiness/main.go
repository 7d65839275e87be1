package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"readiness/internal/app/server"
	"readiness/internal/platform/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "readiness",
	Short:         "AI readiness assessment service for law firms",
	Long:          "Scores readiness assessments, builds PDF reports with tailored recommendations, and captures marketing leads.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		server.SetupLogger(cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, reportCmd, questionsCmd, leadsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
