package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbal/cli/internal/config"
	"github.com/satishbabariya/dbal/cli/internal/ui"
	"github.com/satishbabariya/dbal/cli/internal/watch"
	"github.com/satishbabariya/dbal/runtime/driver"
)

// transferFormat picks the format from the flag, then the file extension.
func transferFormat(flag, path string) (driver.Format, error) {
	if flag != "" {
		return driver.ParseFormat(flag)
	}
	return driver.FormatFromPath(path), nil
}

func newExportCommand(a *app) *cobra.Command {
	var (
		tables      []string
		format, out string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write table contents as an SQL script or YAML",
		Example: `  dbal export --tables "#__users" --out users.yaml
  dbal export --format sql > dump.sql`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := transferFormat(format, out)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if len(tables) == 0 {
				if tables, err = s.d.TableList(ctx); err != nil {
					return err
				}
			}
			exp := s.d.Exporter(f)
			if out == "" {
				return exp.Export(ctx, cmd.OutOrStdout(), tables...)
			}
			if err := exp.ExportFile(ctx, config.AppFs, out, tables...); err != nil {
				return err
			}
			ui.PrintSuccess("exported %d table(s) to %s", len(tables), out)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&tables, "tables", "t", nil, "tables to export (default all)")
	cmd.Flags().StringVar(&format, "format", "", "sql or yaml (default from --out extension, else sql)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCommand(a *app) *cobra.Command {
	var (
		format  string
		watchIt bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Run an SQL script or load a YAML export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := transferFormat(format, path)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			run := func(ctx context.Context) error {
				n, err := s.d.Importer(f).ImportFile(ctx, config.AppFs, path)
				if err != nil {
					return err
				}
				ui.PrintSuccess("imported %s: %d statement(s)", path, n)
				return nil
			}
			if !watchIt {
				return run(ctx)
			}

			w, err := watch.New(path, watch.DefaultDebounce, run)
			if err != nil {
				return err
			}
			ui.PrintInfo("watching %s, press Ctrl+C to stop", path)
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "sql or yaml (default from the file extension)")
	cmd.Flags().BoolVarP(&watchIt, "watch", "w", false, "import again whenever the file changes")
	return cmd
}
