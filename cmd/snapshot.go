package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
	"github.com/FutingLiang/dmv-routes-frontend/internal/store"
)

var snapshotOut string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Copy the routes table into a local SQLite file",
	Long:  "Writes every row of the routes table into a SQLite database for offline use and prints per-authority counts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "db")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		counts, err := takeSnapshot(ctx, st, snapshotOut)
		if err != nil {
			return err
		}
		printAuthorityCounts(os.Stdout, counts)
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotOut, "out", "dmv_routes.db", "SQLite output path")
	rootCmd.AddCommand(snapshotCmd)
}

type routeSource interface {
	Table() string
	AllRoutes(ctx context.Context) ([]store.RouteRow, error)
}

// takeSnapshot copies src into the SQLite file at path and returns row
// counts per authority name.
func takeSnapshot(ctx context.Context, src routeSource, path string) (map[string]int, error) {
	rows, err := src.AllRoutes(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := store.NewSQLite(path)
	if err != nil {
		return nil, err
	}
	defer snap.Close() //nolint:errcheck

	if err := snap.Migrate(ctx); err != nil {
		return nil, err
	}
	n, err := snap.Write(ctx, src.Table(), rows)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot")
	}
	zap.L().Info("snapshot written", zap.String("path", path), zap.Int64("rows", n))

	byKey, err := snap.CountByDistrict(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(byKey))
	for key, c := range byKey {
		counts[route.AuthorityName(key)] += int(c)
	}
	return counts, nil
}
