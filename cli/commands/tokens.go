package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbal/cli/internal/ui"
	"github.com/satishbabariya/dbal/query/lexer"
)

func newTokensCommand(a *app) *cobra.Command {
	var (
		file              string
		split, statements bool
	)

	cmd := &cobra.Command{
		Use:   "tokens [sql]",
		Short: "Show how the adapter's lexer reads a statement",
		Long: `Print the statement highlighted, followed by its tokens. --split shows the
select-list split used by the SQL Server alias rewrite; --statements shows
how a script is cut into statements.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sql, err := readSQL(args, file)
			if err != nil {
				return err
			}
			flavor, err := a.flavor()
			if err != nil {
				return err
			}
			toks, err := flavor.Tokenize(sql)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, ui.Highlight(toks))

			var rows [][]string
			for _, t := range toks {
				if t.Kind == lexer.Whitespace {
					continue
				}
				rows = append(rows, []string{strconv.Itoa(t.Offset), t.Kind.String(), ui.TokenColor(t.Kind).Sprint(t.Text)})
			}
			if err := ui.PrintTable(w, []string{"offset", "kind", "text"}, rows); err != nil {
				return err
			}

			if split {
				ui.PrintSection(w, "expression split")
				for i, part := range flavor.SplitExpression(sql) {
					fmt.Fprintf(w, "%d: %s\n", i, strings.Join(part, " | "))
				}
			}
			if statements {
				ui.PrintSection(w, "statements")
				for i, stmt := range flavor.SplitStatements(sql) {
					fmt.Fprintf(w, "%d: %s\n", i+1, stmt)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read SQL from a file")
	cmd.Flags().BoolVar(&split, "split", false, "show the select-list expression split")
	cmd.Flags().BoolVar(&statements, "statements", false, "show the statement split")
	return cmd
}
