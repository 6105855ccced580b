package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
)

// Report file names.
const (
	SuccessReport = "匯入成功清單.csv"
	FailureReport = "匯入失敗清單.csv"
	SkipReport    = "略過清單.csv"
	RowReport     = "逐行失敗清單.csv"
)

// FileResult is the outcome for one classified file.
type FileResult struct {
	File      string
	Sheet     string
	District  route.District
	RouteType route.RouteType
	Rows      int
	Inserted  int64
	Failures  []RowFailure
	Err       string
}

// RowFailure is a single row rejected during the row-by-row retry.
type RowFailure struct {
	File     string
	SheetRow int
	Err      string
}

// Report summarizes one import run.
type Report struct {
	Table      string
	ImportedAt string
	Succeeded  []FileResult
	Failed     []FileResult
	Skipped    []string
	Published  bool
	Counts     []route.Count
}

// RowsInserted sums inserted rows over succeeded files.
func (r *Report) RowsInserted() int64 {
	var n int64
	for _, f := range r.Succeeded {
		n += f.Inserted
	}
	return n
}

// RowFailures lists every dropped row across the run.
func (r *Report) RowFailures() []RowFailure {
	var out []RowFailure
	for _, f := range r.Succeeded {
		out = append(out, f.Failures...)
	}
	for _, f := range r.Failed {
		out = append(out, f.Failures...)
	}
	return out
}

// RowsDropped counts rows rejected by the database.
func (r *Report) RowsDropped() int {
	return len(r.RowFailures())
}

// TotalRows sums the summary counts.
func (r *Report) TotalRows() int64 {
	var n int64
	for _, c := range r.Counts {
		n += c.Rows
	}
	return n
}

// WriteReports writes the run CSVs (UTF-8 with BOM so spreadsheet apps
// detect the encoding) into dir and returns the paths written. The success
// list is always written; the others only when non-empty.
func WriteReports(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "ingest: create report dir %s", dir)
	}

	var written []string
	write := func(name string, header []string, rows [][]string) error {
		path := filepath.Join(dir, name)
		if err := writeCSV(path, header, rows); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	success := make([][]string, 0, len(r.Succeeded))
	for _, f := range r.Succeeded {
		success = append(success, []string{
			f.File, r.Table,
			strconv.FormatInt(f.Inserted, 10),
			strconv.Itoa(len(f.Failures)),
		})
	}
	if err := write(SuccessReport, []string{"檔案名稱", "寫入資料表", "匯入筆數", "失敗筆數"}, success); err != nil {
		return written, err
	}

	if len(r.Failed) > 0 {
		rows := make([][]string, 0, len(r.Failed))
		for _, f := range r.Failed {
			rows = append(rows, []string{f.File, f.Err})
		}
		if err := write(FailureReport, []string{"檔案名稱", "錯誤訊息"}, rows); err != nil {
			return written, err
		}
	}

	if len(r.Skipped) > 0 {
		rows := make([][]string, 0, len(r.Skipped))
		for _, name := range r.Skipped {
			rows = append(rows, []string{name})
		}
		if err := write(SkipReport, []string{"未識別檔案名稱"}, rows); err != nil {
			return written, err
		}
	}

	if failures := r.RowFailures(); len(failures) > 0 {
		rows := make([][]string, 0, len(failures))
		for _, f := range failures {
			rows = append(rows, []string{f.File, strconv.Itoa(f.SheetRow), f.Err})
		}
		if err := write(RowReport, []string{"檔案名稱", "列號", "錯誤訊息"}, rows); err != nil {
			return written, err
		}
	}

	return written, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "ingest: create %s", path)
	}
	defer f.Close()

	if err := encodeCSV(f, header, rows); err != nil {
		return eris.Wrapf(err, "ingest: write %s", path)
	}
	return f.Close()
}

// encodeCSV writes header and rows to w with a leading UTF-8 BOM.
func encodeCSV(w io.Writer, header []string, rows [][]string) error {
	tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(tw)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return tw.Close()
}
