package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FutingLiang/dmv-routes-frontend/internal/db"
	"github.com/FutingLiang/dmv-routes-frontend/internal/ingest"
	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
	"github.com/FutingLiang/dmv-routes-frontend/internal/runlog"
)

// ingestLockKey is the advisory lock that keeps ingestion runs exclusive.
const ingestLockKey int64 = 20250114

var (
	ingestDir       string
	ingestReportDir string
	ingestWorkers   int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Import route spreadsheets into Postgres",
	Long: "Classifies every workbook in the source directory, normalizes its headers and values, " +
		"loads the rows into a staging table and swaps it over the live routes table. " +
		"Writes success, failure, skip and row-failure CSV reports.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		applyIngestFlags()

		st, err := openStore(ctx, "ingest")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		lock, err := db.TryLock(ctx, st.Pool(), ingestLockKey)
		if errors.Is(err, db.ErrLocked) {
			return eris.New("ingest: another import run is in progress")
		}
		if err != nil {
			return err
		}
		defer lock.Release(ctx) //nolint:errcheck

		rl, runID := startRunLog(ctx, st.Pool(), cfg.Ingest.Dir, st.Table())

		report, err := runIngest(ctx, st)
		if report == nil {
			failRunLog(ctx, rl, runID, err)
			return err
		}

		paths, werr := ingest.WriteReports(cfg.Ingest.ReportDir, report)
		if werr != nil {
			zap.L().Error("writing reports failed", zap.Error(werr))
		}
		for _, p := range paths {
			zap.L().Info("report written", zap.String("path", p))
		}

		printIngestSummary(os.Stdout, report)

		if err != nil {
			failRunLog(ctx, rl, runID, err)
			return err
		}
		completeRunLog(ctx, rl, runID, report)
		return werr
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "source directory (default from config)")
	ingestCmd.Flags().StringVar(&ingestReportDir, "report-dir", "", "report output directory (default: source directory)")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "parallel spreadsheet parsers (default from config)")
	rootCmd.AddCommand(ingestCmd)
}

func applyIngestFlags() {
	if ingestDir != "" {
		if cfg.Ingest.ReportDir == cfg.Ingest.Dir {
			cfg.Ingest.ReportDir = ingestDir
		}
		cfg.Ingest.Dir = ingestDir
	}
	if ingestReportDir != "" {
		cfg.Ingest.ReportDir = ingestReportDir
	}
	if ingestWorkers > 0 {
		cfg.Ingest.Workers = ingestWorkers
	}
}

func runIngest(ctx context.Context, sink ingest.Sink) (*ingest.Report, error) {
	aliases, err := ingest.LoadAliases(cfg.Ingest.AliasesFile)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Ingest.Timezone)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: load timezone %s", cfg.Ingest.Timezone)
	}

	eng := ingest.NewEngine(sink, aliases, ingest.Options{
		Dir:            cfg.Ingest.Dir,
		Glob:           cfg.Ingest.Glob,
		YearTag:        cfg.Ingest.YearTag,
		PreferredSheet: cfg.Ingest.PreferredSheet,
		Workers:        cfg.Ingest.Workers,
		Location:       loc,
		Table:          cfg.Ingest.Table,
	})
	return eng.Run(ctx)
}

// startRunLog records the run when the run log table has been migrated.
// A nil RunLog means the run is not recorded.
func startRunLog(ctx context.Context, pool db.Pool, dir, table string) (*runlog.RunLog, uuid.UUID) {
	log := zap.L().With(zap.String("component", "ingest"))
	ok, err := db.TableExists(ctx, pool, "dmv_import_runs")
	if err != nil || !ok {
		log.Warn("run log unavailable, run 'dmv-routes migrate' to enable it", zap.Error(err))
		return nil, uuid.Nil
	}
	rl := runlog.New(pool)
	id, err := rl.Start(ctx, dir, table)
	if err != nil {
		log.Warn("recording run start failed", zap.Error(err))
		return nil, uuid.Nil
	}
	log.Info("import run started", zap.String("run_id", id.String()))
	return rl, id
}

func completeRunLog(ctx context.Context, rl *runlog.RunLog, id uuid.UUID, r *ingest.Report) {
	if rl == nil {
		return
	}
	if err := rl.Complete(ctx, id, runlog.RunResult{
		FilesSucceeded: len(r.Succeeded),
		FilesFailed:    len(r.Failed),
		FilesSkipped:   len(r.Skipped),
		RowsInserted:   r.RowsInserted(),
		RowsDropped:    int64(r.RowsDropped()),
		Published:      r.Published,
	}); err != nil {
		zap.L().Warn("recording run completion failed", zap.Error(err))
	}
}

func failRunLog(ctx context.Context, rl *runlog.RunLog, id uuid.UUID, runErr error) {
	if rl == nil || runErr == nil {
		return
	}
	if err := rl.Fail(ctx, id, runErr.Error()); err != nil {
		zap.L().Warn("recording run failure failed", zap.Error(err))
	}
}

// printIngestSummary renders the per-file outcome and the per-district row
// counts of the live table.
func printIngestSummary(w io.Writer, r *ingest.Report) {
	files := table.NewWriter()
	files.SetOutputMirror(w)
	files.SetStyle(table.StyleLight)
	files.AppendHeader(table.Row{"檔案名稱", "分區", "路線類型", "匯入筆數", "失敗筆數", "狀態"})
	for _, f := range r.Succeeded {
		files.AppendRow(table.Row{f.File, f.District, f.RouteType, f.Inserted, len(f.Failures), "ok"})
	}
	for _, f := range r.Failed {
		files.AppendRow(table.Row{f.File, f.District, f.RouteType, 0, len(f.Failures), truncate(f.Err, 60)})
	}
	for _, name := range r.Skipped {
		files.AppendRow(table.Row{name, "", "", 0, 0, "skipped"})
	}
	files.Render()

	counts := table.NewWriter()
	counts.SetOutputMirror(w)
	counts.SetStyle(table.StyleLight)
	counts.AppendHeader(table.Row{"分區", "路線類型", "筆數"})
	for _, c := range r.Counts {
		name := route.UnknownAuthority
		if c.District != "" {
			name = c.District
		}
		counts.AppendRow(table.Row{name, c.RouteType, c.Rows})
	}
	counts.AppendFooter(table.Row{"總計", "", r.TotalRows()})
	counts.Render()

	_, _ = fmt.Fprintf(w, "succeeded=%d failed=%d skipped=%d rows_dropped=%d published=%t\n",
		len(r.Succeeded), len(r.Failed), len(r.Skipped), r.RowsDropped(), r.Published)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
