package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"readiness/internal/app/server"
	"readiness/internal/domain/leads"
	"readiness/internal/platform/crypto"
)

var (
	leadsExportOut string
	leadsRetainFor time.Duration
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Lead store maintenance",
}

var leadsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export captured leads to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := server.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		enc, err := crypto.New(cfg.DataEncryptionKey)
		if err != nil {
			return eris.Wrap(err, "encryption key")
		}
		svc := leads.NewService(store.Leads, enc, leads.Options{})

		f, err := os.Create(leadsExportOut)
		if err != nil {
			return eris.Wrapf(err, "create %s", leadsExportOut)
		}
		defer f.Close()

		n, err := svc.Export(ctx, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d leads from %s store to %s\n", n, store.Kind, leadsExportOut)
		return nil
	},
}

var leadsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete leads older than the retention period",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := server.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		svc := leads.NewService(store.Leads, nil, leads.Options{})
		n, err := svc.ApplyRetention(ctx, leadsRetainFor)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d leads older than %s\n", n, leadsRetainFor)
		return nil
	},
}

func init() {
	leadsExportCmd.Flags().StringVarP(&leadsExportOut, "out", "o", "leads.xlsx", "output workbook path")
	leadsPurgeCmd.Flags().DurationVar(&leadsRetainFor, "older-than", 2*365*24*time.Hour, "retention period")
	leadsCmd.AddCommand(leadsExportCmd, leadsPurgeCmd)
}
