package main

import (
	"fmt"
	"time"

	"github.com/fentz26/labtrack/internal/export"
	"github.com/fentz26/labtrack/internal/view"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a table to CSV or XLSX",
	Long: `Export every row of a table that passes the current window and search,
across all pages. Names and IDs are exported as the role sees them.
The format follows the file extension: .xlsx for a workbook, anything
else for CSV.`,
	RunE: runExport,
}

var exportOut string

func init() {
	addQueryFlags(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (.csv or .xlsx)")
	exportCmd.MarkFlagRequired("out")
}

func runExport(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Close()

	role, table, q, err := tableQuery(rt)
	if err != nil {
		return err
	}
	if err := rt.requireRole(role); err != nil {
		return err
	}
	rec, err := rt.loadOnce(cmd.Context(), role)
	if err != nil {
		return err
	}

	rows := view.Derive(table.Partition(rec.Snapshot()).Records(), table, q, time.Now())
	if err := export.WriteFile(exportOut, view.Projected(rows)); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Printf("✓ Exported %d samples to %s\n", len(rows), exportOut)
	return nil
}
