package driver

import (
	"database/sql"
	"time"

	"github.com/satishbabariya/dbal/query"
)

// Options configures a Driver.
type Options struct {
	// Adapter names the backend, for example "mysql" or "sqlserver".
	Adapter string
	DSN     string
	// Database is selected after connecting when Select is set.
	Database string
	Select   bool
	Charset  string
	// Prefix replaces "#__" in table names.
	Prefix string

	// ConnectTimeout bounds opening the connection. Zero means no limit.
	ConnectTimeout  time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Scrollable buffers every result set so Fetch can move backwards.
	Scrollable bool
	// MetadataTTL bounds how long table columns stay cached. Zero keeps
	// them until a DDL helper invalidates them.
	MetadataTTL time.Duration

	Monitor    QueryMonitor
	Dispatcher Dispatcher
	Registry   *Registry

	// Open replaces sql.Open, mainly for tests.
	Open func(driverName, dsn string) (*sql.DB, error)
}

// StatementOptions configures a prepared statement.
type StatementOptions struct {
	Scrollable bool
	// Convert rewrites the resolved value of an input parameter that carries
	// options. Nil leaves values alone.
	Convert ParamConverter
}

// ParamConverter maps a resolved parameter value to the type the backend
// driver should receive, based on p.Options.
type ParamConverter func(p query.Param, v any) (any, error)
