package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FutingLiang/dmv-routes-frontend/internal/db"
	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
	"github.com/FutingLiang/dmv-routes-frontend/internal/workbook"
)

// ImportedAtLayout formats the per-run imported_at stamp.
const ImportedAtLayout = "2006-01-02 15:04:05-0700"

// Sink is where parsed records go. Rows are staged in a scratch table that
// Publish swaps over the live one.
type Sink interface {
	Recreate(ctx context.Context) error
	Copy(ctx context.Context, recs []route.Record) (int64, error)
	InsertEach(ctx context.Context, recs []route.Record) (int64, []db.RowError)
	Publish(ctx context.Context) error
	Summary(ctx context.Context) ([]route.Count, error)
}

// Options configures an Engine.
type Options struct {
	Dir            string
	Glob           string
	YearTag        string
	PreferredSheet string
	Workers        int
	Location       *time.Location
	Table          string
}

// Engine runs one import over a directory of spreadsheets.
type Engine struct {
	sink       Sink
	aliases    Aliases
	classifier Classifier
	opts       Options
	now        func() time.Time
}

// NewEngine creates an import engine writing to sink.
func NewEngine(sink Sink, aliases Aliases, opts Options) *Engine {
	if opts.Glob == "" {
		opts.Glob = "*.xlsx"
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Engine{
		sink:       sink,
		aliases:    aliases,
		classifier: Classifier{YearTag: opts.YearTag},
		opts:       opts,
		now:        time.Now,
	}
}

// parsed is the outcome of reading one classified file.
type parsed struct {
	sheet   string
	records []route.Record
	columns ColumnMap
	err     error
	done    chan struct{}
}

// run holds the mutable state of a single Run.
type run struct {
	report *Report
	staged bool
}

// Run imports every candidate file in the configured directory. A single
// file never aborts the run; an unreadable directory does.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	log := zap.L().With(zap.String("component", "ingest.engine"))

	names, err := e.discover()
	if err != nil {
		return nil, err
	}

	st := &run{report: &Report{
		Table:      e.opts.Table,
		ImportedAt: e.now().In(e.opts.Location).Format(ImportedAtLayout),
	}}

	type job struct {
		name  string
		class Classification
		res   *parsed
	}
	var jobs []job
	for _, name := range names {
		c := e.classifier.Classify(name)
		switch c.Outcome {
		case NotCandidate:
			log.Debug("ignoring non-candidate file", zap.String("file", name))
			continue
		case Unclassified:
			log.Warn("cannot classify file, skipping", zap.String("file", name))
			st.report.Skipped = append(st.report.Skipped, name)
			continue
		}
		if strings.HasPrefix(name, "~$") {
			log.Warn("file looks like an office lock file", zap.String("file", name))
		}
		jobs = append(jobs, job{name: name, class: c, res: &parsed{done: make(chan struct{})}})
	}

	log.Info("discovered files",
		zap.Int("candidates", len(jobs)),
		zap.Int("skipped", len(st.report.Skipped)),
	)

	// Parse in parallel; load in discovery order as results become ready.
	g := new(errgroup.Group)
	g.SetLimit(e.opts.Workers)
	go func() {
		for _, j := range jobs {
			g.Go(func() error {
				defer close(j.res.done)
				if ctx.Err() != nil {
					j.res.err = eris.Wrap(ctx.Err(), "ingest: cancelled before parse")
					return nil
				}
				j.res.sheet, j.res.records, j.res.columns, j.res.err = e.parseFile(j.name, j.class, st.report.ImportedAt)
				return nil
			})
		}
	}()

	for _, j := range jobs {
		<-j.res.done
		e.loadFile(ctx, st, j.name, j.class, j.res)
	}
	_ = g.Wait()

	var publishErr error
	if st.staged {
		if err := e.sink.Publish(ctx); err != nil {
			publishErr = eris.Wrap(err, "ingest: publish staged table")
			log.Error("publish failed", zap.Error(err))
		} else {
			st.report.Published = true
		}
	} else {
		log.Warn("no file loaded, live table left unchanged")
	}

	counts, err := e.sink.Summary(ctx)
	if err != nil {
		log.Warn("summary query failed", zap.Error(err))
	}
	st.report.Counts = counts

	log.Info("ingest run complete",
		zap.Int("succeeded", len(st.report.Succeeded)),
		zap.Int("failed", len(st.report.Failed)),
		zap.Int("skipped", len(st.report.Skipped)),
		zap.Int64("rows_inserted", st.report.RowsInserted()),
		zap.Int("rows_dropped", st.report.RowsDropped()),
	)
	return st.report, publishErr
}

// discover lists files matching the glob, in lexical order.
func (e *Engine) discover() ([]string, error) {
	entries, err := os.ReadDir(e.opts.Dir)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read source dir %s", e.opts.Dir)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := filepath.Match(e.opts.Glob, entry.Name())
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: bad glob %q", e.opts.Glob)
		}
		if ok {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// parseFile reads one spreadsheet into canonical records.
func (e *Engine) parseFile(name string, c Classification, importedAt string) (string, []route.Record, ColumnMap, error) {
	sheet, err := workbook.Read(filepath.Join(e.opts.Dir, name), workbook.ReadOptions{PreferredSheet: e.opts.PreferredSheet})
	if err != nil {
		return "", nil, ColumnMap{}, eris.Wrapf(err, "ingest: read %s", name)
	}
	if len(sheet.Rows) == 0 {
		return sheet.Name, nil, MapColumns(nil, e.aliases), nil
	}

	cm := MapColumns(sheet.Rows[0], e.aliases)
	records := make([]route.Record, 0, len(sheet.Rows)-1)
	for i, row := range sheet.Rows[1:] {
		if workbook.Blank(row) {
			continue
		}
		rec := route.Record{
			District:   c.District,
			RouteType:  c.RouteType,
			SourceFile: name,
			ImportedAt: importedAt,
			SheetRow:   i + 2,
		}
		for f := range cm.Index {
			raw, _ := cm.Cell(row, f)
			rec.Set(f, CleanField(f, raw))
		}
		records = append(records, rec)
	}
	return sheet.Name, records, cm, nil
}

// loadFile writes one parsed file and records its outcome.
func (e *Engine) loadFile(ctx context.Context, st *run, name string, c Classification, p *parsed) {
	log := zap.L().With(
		zap.String("component", "ingest.engine"),
		zap.String("file", name),
		zap.String("district", string(c.District)),
		zap.String("route_type", string(c.RouteType)),
	)

	res := FileResult{File: name, District: c.District, RouteType: c.RouteType, Sheet: p.sheet}
	fail := func(err error) {
		res.Err = err.Error()
		st.report.Failed = append(st.report.Failed, res)
		log.Error("file failed", zap.Error(err))
	}

	if p.err != nil {
		fail(p.err)
		return
	}
	if err := ctx.Err(); err != nil {
		fail(eris.Wrap(err, "ingest: cancelled"))
		return
	}

	if len(p.columns.Unmapped) > 0 {
		log.Info("unmapped columns not stored", zap.Strings("columns", p.columns.Unmapped))
	}
	if len(p.columns.Duplicates) > 0 {
		log.Warn("duplicate columns ignored", zap.Strings("columns", p.columns.Duplicates))
	}
	if len(p.columns.Missing) > 0 {
		log.Debug("missing columns loaded as NULL", zap.Strings("columns", p.columns.MissingHeaders()))
	}

	if !st.staged {
		if err := e.sink.Recreate(ctx); err != nil {
			fail(eris.Wrap(err, "ingest: create table"))
			return
		}
		st.staged = true
	}

	res.Rows = len(p.records)
	if len(p.records) == 0 {
		log.Warn("file has no data rows")
		st.report.Succeeded = append(st.report.Succeeded, res)
		return
	}

	n, err := e.sink.Copy(ctx, p.records)
	if err == nil {
		res.Inserted = n
		st.report.Succeeded = append(st.report.Succeeded, res)
		log.Info("file loaded", zap.Int64("rows", n))
		return
	}

	log.Warn("bulk insert failed, retrying row by row", zap.Error(err))
	n, rowErrs := e.sink.InsertEach(ctx, p.records)
	res.Inserted = n
	for _, re := range rowErrs {
		rf := RowFailure{File: name, Err: re.Err.Error()}
		if re.Index >= 0 && re.Index < len(p.records) {
			rf.SheetRow = p.records[re.Index].SheetRow
		}
		res.Failures = append(res.Failures, rf)
		log.Warn("row dropped", zap.Int("sheet_row", rf.SheetRow), zap.Error(re.Err))
	}

	if n == 0 {
		fail(eris.Wrapf(err, "ingest: every row of %s rejected", name))
		return
	}
	st.report.Succeeded = append(st.report.Succeeded, res)
	log.Info("file loaded with dropped rows", zap.Int64("rows", n), zap.Int("dropped", len(rowErrs)))
}
