package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbal/cli/internal/ui"
)

func newTablesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables [table]",
		Short: "List tables, or the columns of one table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 0 {
				tables, err := s.d.TableList(ctx)
				if err != nil {
					return err
				}
				rows := make([][]string, len(tables))
				for i, t := range tables {
					rows[i] = []string{t}
				}
				return ui.PrintTable(cmd.OutOrStdout(), []string{"table"}, rows)
			}

			cols, err := s.d.TableColumns(ctx, args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, len(cols))
			for i, c := range cols {
				rows[i] = []string{strconv.Itoa(i + 1), c}
			}
			return ui.PrintTable(cmd.OutOrStdout(), []string{"#", "column"}, rows)
		},
	}
}
