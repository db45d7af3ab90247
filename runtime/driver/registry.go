package driver

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/satishbabariya/dbal/query"
	"github.com/satishbabariya/dbal/query/lexer"
	"github.com/satishbabariya/dbal/query/sqlgen"
)

// Preparer prepares statements. *sql.Conn and *sql.Tx implement it.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// TxSyntax holds the statements a backend uses for transactions and
// savepoints. Save and RollbackTo take the savepoint name.
type TxSyntax struct {
	Begin      string
	Commit     string
	Rollback   string
	Save       string
	RollbackTo string
}

var (
	standardTx = TxSyntax{
		Begin:      "BEGIN",
		Commit:     "COMMIT",
		Rollback:   "ROLLBACK",
		Save:       "SAVEPOINT %s",
		RollbackTo: "ROLLBACK TO SAVEPOINT %s",
	}
	sqlServerTx = TxSyntax{
		Begin:      "BEGIN TRANSACTION",
		Commit:     "COMMIT TRANSACTION",
		Rollback:   "ROLLBACK TRANSACTION",
		Save:       "SAVE TRANSACTION %s",
		RollbackTo: "ROLLBACK TRANSACTION %s",
	}
)

// Adapter describes one backend: the database/sql driver it runs on, how
// its SQL is written, and the constructors for the objects a Driver hands
// out. Constructors left nil fall back to the package defaults.
type Adapter struct {
	Name       string
	Aliases    []string
	DriverName string

	Flavor      lexer.Flavor
	Placeholder lexer.Placeholder
	Tx          TxSyntax

	NewDialect   func(env sqlgen.Env) query.Dialect
	NewStatement func(ctx context.Context, p Preparer, sql string, a *Adapter, opts StatementOptions) (*Statement, error)
	NewIterator  func(stmt *Statement, keyColumn string, mode query.FetchMode) (*Iterator, error)
	NewImporter  func(d *Driver, f Format) *Importer
	NewExporter  func(d *Driver, f Format) *Exporter

	// ConvertParam applies parameter options. Nil ignores them.
	ConvertParam ParamConverter

	// Metadata statements. ColumnsSQL and the table argument use the
	// adapter's placeholder. LastIDSQL is empty when the driver reports
	// LastInsertId itself.
	VersionSQL  string
	ColumnsSQL  string
	TablesSQL   string
	LastIDSQL   string
	TruncateSQL string
	// CharsetSQL and SelectSQL take the charset and database name; empty
	// when the backend sets them through the DSN.
	CharsetSQL string
	SelectSQL  string
}

func (a *Adapter) statement(ctx context.Context, p Preparer, sql string, opts StatementOptions) (*Statement, error) {
	if opts.Convert == nil {
		opts.Convert = a.ConvertParam
	}
	if a.NewStatement != nil {
		return a.NewStatement(ctx, p, sql, a, opts)
	}
	return Prepare(ctx, p, sql, a.Flavor, a.Placeholder, opts)
}

func (a *Adapter) iterator(stmt *Statement, keyColumn string, mode query.FetchMode) (*Iterator, error) {
	if a.NewIterator != nil {
		return a.NewIterator(stmt, keyColumn, mode)
	}
	return NewIterator(stmt, keyColumn, mode)
}

// Registry maps adapter names to adapters. It is filled at start up and
// read afterwards.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]*Adapter
	aliases  map[string]string

	probed    bool
	available []string
}

func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]*Adapter),
		aliases:  make(map[string]string),
	}
}

// Register adds a, replacing an adapter of the same name.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := strings.ToLower(a.Name)
	r.adapters[name] = &a
	for _, alias := range a.Aliases {
		r.aliases[strings.ToLower(alias)] = name
	}
	r.probed = false
}

// Lookup returns the adapter registered under name or one of its aliases.
func (r *Registry) Lookup(name string) (*Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := strings.ToLower(name)
	if target, ok := r.aliases[key]; ok {
		key = target
	}
	a, ok := r.adapters[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAdapter, name)
	}
	return a, nil
}

// Names lists the registered adapters, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Available lists the adapters whose database/sql driver is linked into
// the binary. The result is computed once; Refresh recomputes it.
func (r *Registry) Available() []string {
	r.mu.RLock()
	if r.probed {
		defer r.mu.RUnlock()
		return slices.Clone(r.available)
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.probed {
		r.probe()
	}
	return slices.Clone(r.available)
}

func (r *Registry) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probe()
}

func (r *Registry) probe() {
	linked := sql.Drivers()
	r.available = r.available[:0]
	for name, a := range r.adapters {
		if slices.Contains(linked, a.DriverName) {
			r.available = append(r.available, name)
		}
	}
	sort.Strings(r.available)
	r.probed = true
}

// Default is the registry New uses when Options.Registry is nil.
var Default = NewRegistry()

func Register(a Adapter) { Default.Register(a) }

func Lookup(name string) (*Adapter, error) { return Default.Lookup(name) }

func Available() []string { return Default.Available() }

func init() {
	Register(Adapter{
		Name:        "mysql",
		Aliases:     []string{"mysqli", "mariadb", "pdomysql"},
		DriverName:  "mysql",
		Flavor:      lexer.MySQL,
		Placeholder: lexer.Question,
		Tx:          TxSyntax{Begin: "START TRANSACTION", Commit: standardTx.Commit, Rollback: standardTx.Rollback, Save: standardTx.Save, RollbackTo: standardTx.RollbackTo},
		NewDialect:  func(sqlgen.Env) query.Dialect { return sqlgen.NewMySQL() },
		VersionSQL:  "SELECT VERSION()",
		ColumnsSQL: "SELECT COLUMN_NAME FROM information_schema.COLUMNS " +
			"WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION",
		TablesSQL: "SELECT TABLE_NAME FROM information_schema.TABLES " +
			"WHERE TABLE_SCHEMA = DATABASE() ORDER BY TABLE_NAME",
		TruncateSQL: "TRUNCATE TABLE %s",
		CharsetSQL:  "SET NAMES %s",
		SelectSQL:   "USE %s",
	})
	Register(Adapter{
		Name:        "postgres",
		Aliases:     []string{"postgresql", "pgsql", "pdopostgresql"},
		DriverName:  "postgres",
		Flavor:      lexer.PostgreSQL,
		Placeholder: lexer.Dollar,
		Tx:          standardTx,
		NewDialect:  func(sqlgen.Env) query.Dialect { return sqlgen.NewPostgreSQL() },
		VersionSQL:  "SHOW server_version",
		ColumnsSQL: "SELECT column_name FROM information_schema.columns " +
			"WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position",
		TablesSQL: "SELECT table_name FROM information_schema.tables " +
			"WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name",
		LastIDSQL:   "SELECT LASTVAL()",
		TruncateSQL: "TRUNCATE TABLE %s RESTART IDENTITY",
		CharsetSQL:  "SET client_encoding TO '%s'",
	})
	Register(sqliteAdapter("sqlite", "sqlite", "pdosqlite"))
	Register(Adapter{
		Name:         "sqlserver",
		Aliases:      []string{"sqlsrv", "mssql"},
		DriverName:   "sqlserver",
		Flavor:       lexer.SQLServer,
		Placeholder:  lexer.AtP,
		Tx:           sqlServerTx,
		NewDialect:   func(env sqlgen.Env) query.Dialect { return sqlgen.NewSQLServer(env) },
		ConvertParam: sqlServerParam,
		VersionSQL:   "SELECT CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128))",
		ColumnsSQL: "SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS " +
			"WHERE TABLE_NAME = @p1 ORDER BY ORDINAL_POSITION",
		TablesSQL: "SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES " +
			"WHERE TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME",
		LastIDSQL:   "SELECT CAST(@@IDENTITY AS BIGINT)",
		TruncateSQL: "TRUNCATE TABLE %s",
		SelectSQL:   "USE %s",
	})
}

// sqliteAdapter describes SQLite on the named database/sql driver.
func sqliteAdapter(name, driverName string, aliases ...string) Adapter {
	return Adapter{
		Name:        name,
		Aliases:     aliases,
		DriverName:  driverName,
		Flavor:      lexer.SQLite,
		Placeholder: lexer.Question,
		Tx:          standardTx,
		NewDialect:  func(sqlgen.Env) query.Dialect { return sqlgen.NewSQLite() },
		VersionSQL:  "SELECT sqlite_version()",
		ColumnsSQL:  "SELECT name FROM pragma_table_info(?) ORDER BY cid",
		TablesSQL: "SELECT name FROM sqlite_master " +
			"WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
		TruncateSQL: "DELETE FROM %s",
	}
}

// sqlite3Adapter runs SQLite on mattn/go-sqlite3, available in cgo builds.
func sqlite3Adapter() Adapter { return sqliteAdapter("sqlite3", "sqlite3") }
