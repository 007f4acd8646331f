package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/harvest"
	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/storage"
)

// Report output formats.
const (
	outputText  = "text"
	outputJSON  = "json"
	outputTable = "table"
)

var errRunFailed = errors.New("harvest run failed")

func newHarvestCommand() *cobra.Command {
	var (
		dryRun bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Run one harvest and print the run report",
		Long: `Run one harvest: check the catalog, delete the objects listed in the previous
run log, publish the root, collection and item features, then write the new
run log. The command exits non-zero when the run aborted or failed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != outputText && output != outputJSON && output != outputTable {
				return fmt.Errorf("unknown output format %q", output)
			}

			a, err := newApp(dryRun)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := a.orchestrator.Run(ctx)
			if err != nil {
				return err
			}

			if err = printReport(cmd.OutOrStdout(), report, output); err != nil {
				return err
			}

			if mem, ok := a.store.(*storage.MemoryStore); ok && dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), "Objects that would be published:")
				for _, key := range mem.Keys(a.cfg.Storage.OutputBucket) {
					fmt.Fprintln(cmd.OutOrStdout(), "  "+key)
				}
			}

			if report.Failed() {
				return fmt.Errorf("%w: %s", errRunFailed, report.Outcome)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "harvest into an in-memory store instead of the configured bucket")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "report format: text, json or table")

	return cmd
}

func printReport(w io.Writer, report *harvest.Report, format string) error {
	switch format {
	case outputText:
		_, err := fmt.Fprintln(w, report.Message())
		return err
	case outputTable:
		renderReportTable(w, report)
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// renderReportTable prints the per-kind counters, then the failures if any.
func renderReportTable(w io.Writer, report *harvest.Report) {
	fmt.Fprintf(w, "Run %s: %s, deleted %d prior objects\n", report.RunID, report.Outcome, report.Deleted)

	counts := table.NewWriter()
	counts.SetOutputMirror(w)
	counts.SetStyle(table.StyleLight)
	counts.AppendHeader(table.Row{"Kind", "Published", "Failed"})

	failed := 0
	for _, kind := range []harvest.Kind{harvest.KindRoot, harvest.KindCollection, harvest.KindItem} {
		c := report.Entities[kind]
		failed += c.Failed
		counts.AppendRow(table.Row{kind, c.Published, c.Failed})
	}
	counts.AppendFooter(table.Row{"Total", report.Published, failed})
	counts.Render()

	if len(report.Failures) == 0 {
		return
	}

	failures := table.NewWriter()
	failures.SetOutputMirror(w)
	failures.SetStyle(table.StyleLight)
	failures.AppendHeader(table.Row{"Kind", "Entity", "Key", "Error"})
	for _, f := range report.Failures {
		failures.AppendRow(table.Row{f.Kind, f.ID, f.Key, f.Error})
	}
	failures.Render()
}
