package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbal/cli/internal/ui"
	"github.com/satishbabariya/dbal/query"
	"github.com/satishbabariya/dbal/runtime/driver"
)

func newQueryCommand(a *app) *cobra.Command {
	var (
		file          string
		limit, offset int
		yes, stats    bool
	)

	cmd := &cobra.Command{
		Use:   "query [sql]",
		Short: "Run one statement and print its result",
		Long: `Run one statement. Rows are printed as a table; for other statements the
number of affected rows is reported. Statements that delete or rewrite data
ask for confirmation unless --yes is given.`,
		Example: `  dbal query "SELECT * FROM #__users" --limit 10
  dbal query --file cleanup.sql --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sql, err := readSQL(args, file)
			if err != nil {
				return err
			}
			flavor, err := a.flavor()
			if err != nil {
				return err
			}
			if !yes && destructive(flavor, sql) {
				ok, err := confirm("This statement modifies existing data. Continue?")
				if err != nil {
					return err
				}
				if !ok {
					ui.PrintWarning("aborted")
					return nil
				}
			}

			ctx := cmd.Context()
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := runQuery(ctx, cmd.OutOrStdout(), s.d, sql, limit, offset); err != nil {
				return err
			}
			if stats {
				fmt.Fprintln(cmd.ErrOrStderr(), s.stats.Stats())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the statement from a file")
	cmd.Flags().IntVar(&limit, "limit", 0, "limit the rows returned")
	cmd.Flags().IntVar(&offset, "offset", 0, "skip rows before returning")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask before destructive statements")
	cmd.Flags().BoolVar(&stats, "stats", false, "print query statistics to stderr")
	return cmd
}

func runQuery(ctx context.Context, w io.Writer, d *driver.Driver, sql string, limit, offset int) error {
	q := d.NewQuery().SetQuery(sql).SetLimit(limit, offset)
	if err := d.SetQuery(ctx, q); err != nil {
		return err
	}
	if !d.Statement().ReturnsRows() {
		if err := d.Execute(ctx); err != nil {
			return err
		}
		n, err := d.AffectedRows()
		if err != nil {
			return err
		}
		ui.PrintSuccess("%d row(s) affected", n)
		return nil
	}

	it, err := d.Iterator(ctx, "", query.FetchNum)
	if err != nil {
		return err
	}
	defer it.Close()

	var rows [][]string
	for _, v := range it.All() {
		values := v.([]any)
		row := make([]string, len(values))
		for i, x := range values {
			row[i] = formatValue(x)
		}
		rows = append(rows, row)
	}
	if err := it.Err(); err != nil {
		return err
	}
	if err := ui.PrintTable(w, d.Statement().Columns(), rows); err != nil {
		return err
	}
	ui.PrintInfo("%d row(s)", len(rows))
	return nil
}
