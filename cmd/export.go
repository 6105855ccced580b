package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FutingLiang/dmv-routes-frontend/internal/export"
	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
	"github.com/FutingLiang/dmv-routes-frontend/internal/stats"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:       "export {detailed|sample}",
	Short:     "Write a statistics workbook to disk",
	Long:      "Writes the same xlsx workbooks served by the /export endpoints.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"detailed", "sample"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "db")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		out, err := exportWorkbook(ctx, st, args[0], exportOut)
		if err != nil {
			return err
		}
		zap.L().Info("workbook written", zap.String("path", out))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default: the download filename)")
	rootCmd.AddCommand(exportCmd)
}

type groupReader interface {
	RouteGroups(ctx context.Context) ([]route.Group, error)
}

func exportWorkbook(ctx context.Context, r groupReader, kind, out string) (string, error) {
	var write func(f *os.File, groups []route.Group) error
	switch kind {
	case "detailed":
		if out == "" {
			out = export.DetailedFilename
		}
		write = func(f *os.File, groups []route.Group) error {
			return export.WriteDetailed(f, stats.DetailedStats(groups))
		}
	case "sample":
		if out == "" {
			out = export.SampleFilename
		}
		write = func(f *os.File, groups []route.Group) error {
			return export.WriteSample(f, stats.BuildSampleTable(groups))
		}
	default:
		return "", eris.Errorf("export: unknown workbook %q (want detailed or sample)", kind)
	}

	groups, err := r.RouteGroups(ctx)
	if err != nil {
		return "", err
	}

	f, err := os.Create(out)
	if err != nil {
		return "", eris.Wrapf(err, "export: create %s", out)
	}
	if err := write(f, groups); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", eris.Wrapf(err, "export: close %s", out)
	}
	return out, nil
}
