package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FutingLiang/dmv-routes-frontend/internal/runlog"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply bookkeeping schema migrations",
	Long:  "Applies pending SQL migrations for the import run log in lexicographic order.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "db")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ran, err := runlog.Migrate(ctx, st.Pool())
		if err != nil {
			return eris.Wrap(err, "migrate")
		}

		zap.L().Info("all migrations applied successfully", zap.Strings("applied", ran))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
