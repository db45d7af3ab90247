// Package commands implements the dbal command line tool.
package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/satishbabariya/dbal/cli/internal/config"
	"github.com/satishbabariya/dbal/cli/internal/ui"
	"github.com/satishbabariya/dbal/cli/internal/version"
)

// app carries the state shared by every command.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// Execute runs the CLI until it finishes or is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		ui.PrintError("%v", err)
		return err
	}
	return nil
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	cmd := &cobra.Command{
		Use:   "dbal",
		Short: "Build, render and run SQL across MySQL, PostgreSQL, SQLite and SQL Server",
		Long: `dbal renders portable queries for each supported backend, runs statements
through a prepared-statement driver and moves table data in and out as SQL
scripts or YAML.

Table names written as #__name receive the configured prefix.`,
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default .dbal.yaml in ., $HOME or ~/.config/dbal)")
	f.StringP("adapter", "a", "sqlite", "database adapter")
	f.String("dsn", "", "data source name (falls back to DATABASE_URL)")
	f.String("database", "", "database to select after connecting")
	f.String("prefix", "", "table prefix substituted for #__")
	f.Bool("scrollable", false, "buffer result sets so cursors can move backwards")
	f.Bool("debug", false, "log queries and connection events to stderr")
	f.Bool("json-logs", false, "write debug logs as JSON")
	for _, name := range []string{"adapter", "dsn", "database", "prefix", "scrollable", "debug"} {
		_ = a.v.BindPFlag(name, f.Lookup(name))
	}
	_ = a.v.BindPFlag("json_logs", f.Lookup("json-logs"))

	cmd.AddCommand(
		newQueryCommand(a),
		newRenderCommand(a),
		newTokensCommand(a),
		newTablesCommand(a),
		newExportCommand(a),
		newImportCommand(a),
		newAdaptersCommand(),
		newInitCommand(a),
		newVersionCommand(),
	)
	return cmd
}
