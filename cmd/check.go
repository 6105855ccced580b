package main

import (
	"context"
	"io"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
	"github.com/FutingLiang/dmv-routes-frontend/internal/runlog"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the routes table",
	Long:  "Reports whether the routes table exists, its row count, per-authority counts and pending migrations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "db")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Ping(ctx); err != nil {
			return err
		}
		res, err := checkTable(ctx, st)
		if err != nil {
			return err
		}
		if pending, err := runlog.Pending(ctx, st.Pool()); err == nil {
			res.PendingMigrations = pending
		}

		printCheck(os.Stdout, res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

type tableChecker interface {
	Table() string
	TableExists(ctx context.Context) (bool, error)
	CountRows(ctx context.Context) (int64, error)
	RouteGroups(ctx context.Context) ([]route.Group, error)
}

type checkResult struct {
	Table             string
	Exists            bool
	Rows              int64
	ByAuthority       map[string]int
	PendingMigrations []string
}

func checkTable(ctx context.Context, c tableChecker) (checkResult, error) {
	res := checkResult{Table: c.Table()}
	exists, err := c.TableExists(ctx)
	if err != nil || !exists {
		return res, err
	}
	res.Exists = true

	if res.Rows, err = c.CountRows(ctx); err != nil {
		return res, err
	}
	groups, err := c.RouteGroups(ctx)
	if err != nil {
		return res, err
	}
	res.ByAuthority = make(map[string]int)
	for _, g := range groups {
		res.ByAuthority[route.ResolveAuthority(g.District, g.SourceFile)] += g.Routes
	}
	return res, nil
}

func printCheck(w io.Writer, res checkResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"項目", "值"})
	t.AppendRow(table.Row{"資料表", res.Table})
	t.AppendRow(table.Row{"存在", res.Exists})
	if res.Exists {
		t.AppendRow(table.Row{"總筆數", res.Rows})
	}
	if len(res.PendingMigrations) > 0 {
		t.AppendRow(table.Row{"待套用 migration", len(res.PendingMigrations)})
	}
	t.Render()

	if !res.Exists {
		return
	}
	printAuthorityCounts(w, res.ByAuthority)
}

// printAuthorityCounts lists authorities in display order, then any others.
func printAuthorityCounts(w io.Writer, counts map[string]int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"監理所", "路線數"})

	seen := make(map[string]bool)
	for _, auth := range route.AuthorityOrder {
		seen[auth] = true
		if n, ok := counts[auth]; ok {
			t.AppendRow(table.Row{auth, n})
		}
	}
	var rest []string
	for auth := range counts {
		if !seen[auth] {
			rest = append(rest, auth)
		}
	}
	sort.Strings(rest)
	for _, auth := range rest {
		t.AppendRow(table.Row{auth, counts[auth]})
	}
	t.Render()
}
