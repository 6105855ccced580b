//go:build !integration

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FutingLiang/dmv-routes-frontend/internal/config"
	"github.com/FutingLiang/dmv-routes-frontend/internal/ingest"
	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
)

func TestPrintIngestSummary(t *testing.T) {
	r := &ingest.Report{
		Table: "dmv_routes_2025",
		Succeeded: []ingest.FileResult{
			{File: "114年臺北國道.xlsx", District: route.Taipei, RouteType: route.Highway, Rows: 10, Inserted: 9,
				Failures: []ingest.RowFailure{{File: "114年臺北國道.xlsx", SheetRow: 7, Err: "value too long"}}},
		},
		Failed:    []ingest.FileResult{{File: "114年嘉義國道.xlsx", District: route.Chiayi, RouteType: route.Highway, Err: "xlsx: open file"}},
		Skipped:   []string{"114年其他.xlsx"},
		Published: true,
		Counts: []route.Count{
			{District: "taipei", RouteType: "hwy_routes", Rows: 9},
			{District: "", RouteType: "local_routes", Rows: 2},
		},
	}

	var buf bytes.Buffer
	printIngestSummary(&buf, r)
	out := buf.String()

	assert.Contains(t, out, "114年臺北國道.xlsx")
	assert.Contains(t, out, "xlsx: open file")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, route.UnknownAuthority)
	assert.Contains(t, out, "總計")
	assert.Contains(t, out, "11")
	assert.Contains(t, out, "succeeded=1 failed=1 skipped=1 rows_dropped=1 published=true")
}

func TestApplyIngestFlags(t *testing.T) {
	saved := cfg
	t.Cleanup(func() {
		cfg = saved
		ingestDir, ingestReportDir, ingestWorkers = "", "", 0
	})

	cfg = &config.Config{Ingest: config.IngestConfig{Dir: ".", ReportDir: ".", Workers: 4}}
	ingestDir = "/data/114"
	ingestWorkers = 8
	applyIngestFlags()
	assert.Equal(t, "/data/114", cfg.Ingest.Dir)
	assert.Equal(t, "/data/114", cfg.Ingest.ReportDir)
	assert.Equal(t, 8, cfg.Ingest.Workers)

	cfg = &config.Config{Ingest: config.IngestConfig{Dir: ".", ReportDir: "/reports", Workers: 4}}
	ingestDir, ingestWorkers = "/data/114", 0
	applyIngestFlags()
	assert.Equal(t, "/reports", cfg.Ingest.ReportDir)
	assert.Equal(t, 4, cfg.Ingest.Workers)

	ingestReportDir = "/tmp/out"
	applyIngestFlags()
	assert.Equal(t, "/tmp/out", cfg.Ingest.ReportDir)
}
