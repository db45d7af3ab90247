// Package sqlgen provides the backend dialects queries render with.
package sqlgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/satishbabariya/dbal/query"
	"github.com/satishbabariya/dbal/query/lexer"
)

// ErrUnknownDialect is returned by NewDialect for names it does not know.
var ErrUnknownDialect = errors.New("unknown dialect")

// Env is the connection state a dialect may consult while rendering.
type Env interface {
	// TableColumns returns the column names of table in ordinal order.
	TableColumns(ctx context.Context, table string) ([]string, error)
	// TablePrefix is substituted for "#__" in table names.
	TablePrefix() string
	// ServerVersion returns the backend version string.
	ServerVersion(ctx context.Context) (string, error)
}

// StaticEnv is an Env backed by fixed values, for rendering without a
// connection.
type StaticEnv struct {
	Prefix  string
	Version string
	Columns map[string][]string
}

func (e StaticEnv) TableColumns(_ context.Context, table string) ([]string, error) {
	cols, ok := e.Columns[table]
	if !ok {
		return nil, fmt.Errorf("sqlgen: no columns known for table %q", table)
	}
	return cols, nil
}

func (e StaticEnv) TablePrefix() string { return e.Prefix }

func (e StaticEnv) ServerVersion(context.Context) (string, error) { return e.Version, nil }

// NewDialect returns the dialect for an adapter name.
func NewDialect(name string, env Env) (query.Dialect, error) {
	switch strings.ToLower(name) {
	case "mysql", "mysqli", "mariadb":
		return NewMySQL(), nil
	case "postgres", "postgresql", "pgsql":
		return NewPostgreSQL(), nil
	case "sqlite", "sqlite3":
		return NewSQLite(), nil
	case "sqlserver", "sqlsrv", "mssql":
		return NewSQLServer(env), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDialect, name)
	}
}

// Flavor returns the lexer flavor matching a dialect.
func Flavor(d query.Dialect) lexer.Flavor {
	switch d.Name() {
	case "mysql":
		return lexer.MySQL
	case "postgres":
		return lexer.PostgreSQL
	case "sqlite":
		return lexer.SQLite
	case "sqlserver":
		return lexer.SQLServer
	default:
		return lexer.ANSI
	}
}

// renderUpdateFrom renders an UPDATE whose joins are expressed as
// "UPDATE t SET ... FROM joined WHERE on-conditions".
func renderUpdateFrom(q *query.Query, flavor lexer.Flavor) string {
	var b strings.Builder
	write := func(el *query.Element) {
		if el != nil {
			b.WriteString(el.String())
		}
	}

	write(q.Clause(query.ClauseUpdate))
	write(q.Clause(query.ClauseSet))

	var tables, conds []string
	if w := q.Clause(query.ClauseWhere); w != nil {
		cond := strings.Join(w.Strings(), w.Glue())
		if strings.TrimSpace(w.Glue()) != "AND" && len(w.Elements()) > 1 {
			cond = "(" + cond + ")"
		}
		conds = append(conds, cond)
	}
	for _, j := range q.Joins() {
		for _, frag := range j.Strings() {
			on := flavor.TopLevel(frag, "ON")
			if len(on) == 0 {
				tables = append(tables, strings.TrimSpace(frag))
				continue
			}
			tables = append(tables, strings.TrimSpace(frag[:on[0]]))
			conds = append(conds, strings.TrimSpace(frag[on[0]+len("ON"):]))
		}
	}
	if len(tables) > 0 {
		write(query.NewElement("FROM", tables, ","))
	}
	if len(conds) > 0 {
		write(query.NewElement("WHERE", conds, " AND "))
	}
	return strings.TrimPrefix(b.String(), "\n")
}
