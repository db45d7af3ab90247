package commands

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cast"

	"github.com/satishbabariya/dbal/cli/internal/config"
	"github.com/satishbabariya/dbal/internal/debug"
	"github.com/satishbabariya/dbal/query/lexer"
	"github.com/satishbabariya/dbal/runtime/driver"
)

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	debug.Init(debug.Options{Enabled: cfg.Debug, JSON: cfg.JSONLogs})
	if cfg.File != "" {
		debug.Debug("config loaded", "file", cfg.File)
	}
	return nil
}

// session is an open driver plus the monitor counting its statements.
type session struct {
	d     *driver.Driver
	stats *driver.StatsMonitor
}

func (s *session) Close() error { return s.d.Close() }

func (a *app) open(ctx context.Context) (*session, error) {
	opts := a.cfg.DriverOptions()
	if opts.DSN == "" {
		return nil, errors.New("no data source configured: use --dsn, DBAL_DSN or DATABASE_URL")
	}
	stats := driver.NewStatsMonitor(
		driver.WithSlowThreshold(a.cfg.SlowQuery),
		driver.WithSlowQueryLog(),
	)
	opts.Monitor = driver.ChainMonitor{&driver.DebugMonitor{}, stats}
	opts.Dispatcher = driver.DispatcherFunc(func(_ context.Context, e driver.Event) error {
		debug.Info("connection event", "event", e.Name, "adapter", e.Adapter)
		return nil
	})

	d, err := driver.Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &session{d: d, stats: stats}, nil
}

// flavor returns the lexer flavor of the configured adapter without
// connecting.
func (a *app) flavor() (lexer.Flavor, error) {
	ad, err := driver.Lookup(a.cfg.Adapter)
	if err != nil {
		return lexer.Flavor{}, err
	}
	return ad.Flavor, nil
}

// readSQL returns the statement text from file, or the joined arguments.
func readSQL(args []string, file string) (string, error) {
	if file != "" {
		data, err := afero.ReadFile(config.AppFs, file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	sql := strings.TrimSpace(strings.Join(args, " "))
	if sql == "" {
		return "", errors.New("no SQL given: pass it as arguments or with --file")
	}
	return sql, nil
}

var destructiveVerbs = map[string]bool{
	"DELETE": true, "DROP": true, "TRUNCATE": true, "UPDATE": true, "ALTER": true,
}

// destructive reports whether the first keyword of sql changes or removes
// existing data.
func destructive(f lexer.Flavor, sql string) bool {
	toks, err := f.Tokenize(sql)
	if err != nil {
		return false
	}
	for _, t := range toks {
		if t.Kind == lexer.Whitespace || t.Kind == lexer.Comment {
			continue
		}
		return t.Kind == lexer.Word && destructiveVerbs[strings.ToUpper(t.Text)]
	}
	return false
}

// confirm asks a yes/no question. Tests replace it.
var confirm = func(message string) (bool, error) {
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &ok)
	return ok, err
}

// formatValue renders a fetched value for table output.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		if utf8.Valid(x) {
			return string(x)
		}
		return "0x" + hex.EncodeToString(x)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return cast.ToString(v)
}
