package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbal/cli/internal/ui"
	"github.com/satishbabariya/dbal/cli/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Get()
			fmt.Fprintln(cmd.OutOrStdout(), info.FullString())
			if info.Development() {
				ui.PrintWarning("development build")
			}
		},
	}
}
