package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbal/cli/internal/ui"
	"github.com/satishbabariya/dbal/runtime/driver"
)

func newAdaptersCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "adapters",
		Short: "List the registered adapters and whether their driver is linked in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			md := adaptersMarkdown(driver.Default)
			if plain {
				_, err := fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			return ui.PrintMarkdown(cmd.OutOrStdout(), md)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print raw markdown")
	return cmd
}

func adaptersMarkdown(r *driver.Registry) string {
	available := make(map[string]bool)
	for _, name := range r.Available() {
		available[name] = true
	}

	var b strings.Builder
	b.WriteString("# Adapters\n\n")
	b.WriteString("| Adapter | Aliases | database/sql driver | Available |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, name := range r.Names() {
		a, err := r.Lookup(name)
		if err != nil {
			continue
		}
		mark := "no"
		if available[name] {
			mark = "yes"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", a.Name, strings.Join(a.Aliases, ", "), a.DriverName, mark)
	}
	return b.String()
}
