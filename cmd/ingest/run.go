package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"job-ingest-go/internal/ingest"
)

func newRunCommand() *cobra.Command {
	var (
		selection string
		output    string
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one ingestion pass",
		Long: `Fetch candidates from the selected sources and resolve them into the store.

Selection is "all", a group ("ats", "careers", "boards") or a comma-separated
list of source names. Named sources run even when disabled in the config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.Log.Sync()

			report, err := a.Runner.Run(ctx, selection)
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			if output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				renderReport(cmd.OutOrStdout(), report)
			}
			if report.Failed() {
				return fmt.Errorf("one or more sources failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&selection, "sources", "s", "all", "sources to run")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "abort the run after this long (0 disables)")
	return cmd
}

func renderReport(w io.Writer, r *ingest.RunReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Run %s (%s)", r.RunID, r.Duration.Round(time.Millisecond)))
	t.AppendHeader(table.Row{"Source", "Kind", "Fetched", "Duplicates", "Created", "Updated", "Skipped", "Errors", "Cancelled", "Duration", "Error"})
	for _, s := range r.Sources {
		t.AppendRow(table.Row{
			s.Name, s.Kind, s.Fetched, s.Duplicates, s.Created, s.Updated, s.Skipped, s.Errors, s.Cancelled,
			s.Duration.Round(time.Millisecond), s.Error,
		})
	}
	tot := r.Totals()
	t.AppendFooter(table.Row{
		"Total", "", tot.Fetched, tot.Duplicates, tot.Created, tot.Updated, tot.Skipped, tot.Errors, tot.Cancelled, "", "",
	})
	t.Render()
}
