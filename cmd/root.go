package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	_ "time/tzdata"

	"github.com/FutingLiang/dmv-routes-frontend/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "dmv-routes",
	Short: "Bus route spreadsheet import and statistics service",
	Long:  "Imports the district motor vehicle offices' route spreadsheets into Postgres and serves route listings, statistics and xlsx exports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
