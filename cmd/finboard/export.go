package main

import (
	"fmt"

	"github.com/spf13/cobra"

	applog "finboard/internal/log"
	"finboard/internal/sheets"
	"finboard/internal/sheets/google"
	"finboard/internal/views"
)

func newExportCmd(a *app) *cobra.Command {
	var allowEmpty bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the history view to a Google Sheets worksheet",
		Long: `Export replaces the contents of GOOGLE_SHEET_NAME in GOOGLE_SPREADSHEET_ID
with the history view for the current filters, one row per transaction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := a.logger.WithComponent(applog.ComponentSheets)

			writer, err := google.NewFromConfig(ctx, a.cfg)
			if err != nil {
				return err
			}
			groups, err := a.groups(ctx, views.ViewHistory)
			if err != nil {
				return err
			}
			res, err := sheets.Export(ctx, writer, groups, sheets.ExportOptions{
				FocalAccount: a.focus,
				Now:          a.now(),
				AllowEmpty:   allowEmpty,
			})
			if err != nil {
				logger.Error("Export failed", applog.FieldOperation, applog.OpExport, applog.FieldError, err)
				return err
			}
			logger.Info("Export complete", applog.FieldOperation, applog.OpExport, "range", res.Range, applog.FieldCount, res.Rows)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", res.Rows, res.Range)
			return nil
		},
	}
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "write the header even when no transaction matches")
	return cmd
}
