package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbal/cli/internal/config"
	"github.com/satishbabariya/dbal/cli/internal/ui"
)

func newInitCommand(a *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Save the current connection flags as the default configuration",
		Example: `  dbal init -a pgsql --dsn postgres://localhost/app --prefix jos_
  dbal init --path ./.dbal.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := config.Save(a.v, a.cfg, path)
			if err != nil {
				return err
			}
			ui.PrintSuccess("configuration written to %s", file)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "file to write (default ~/.config/dbal/.dbal.yaml)")
	return cmd
}
