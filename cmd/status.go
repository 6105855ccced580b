package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FutingLiang/dmv-routes-frontend/internal/runlog"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show import run history",
	Long:  "Displays recent ingestion runs recorded in the run log.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "db")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		entries, err := runlog.New(st.Pool()).List(ctx, statusLimit)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		if len(entries) == 0 {
			zap.L().Info("no import runs found, run 'dmv-routes ingest' to import spreadsheets")
			return nil
		}

		formatStatusEntries(os.Stdout, entries)
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "number of runs to show (0 for all)")
	rootCmd.AddCommand(statusCmd)
}

// formatStatusEntries writes a tabular representation of run entries to w.
func formatStatusEntries(out io.Writer, entries []runlog.RunEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tDURATION\tFILES OK/FAIL/SKIP\tROWS\tDROPPED\tPUBLISHED\tERROR")
	_, _ = fmt.Fprintln(w, "--\t------\t-------\t--------\t------------------\t----\t-------\t---------\t-----")

	for _, e := range entries {
		dur := "-"
		if e.CompletedAt != nil {
			dur = e.CompletedAt.Sub(e.StartedAt).Round(time.Second).String()
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d/%d\t%d\t%d\t%t\t%s\n",
			e.ID.String()[:8],
			e.Status,
			e.StartedAt.Format("2006-01-02 15:04"),
			dur,
			e.FilesSucceeded, e.FilesFailed, e.FilesSkipped,
			e.RowsInserted,
			e.RowsDropped,
			e.Published,
			truncate(e.Error, 60),
		)
	}
	_ = w.Flush()
}
