// Package driver runs queries against a database through one pinned
// connection: it prepares statements from query builders or raw SQL, binds
// parameters, retries once after a lost connection, and exposes result
// loading, transactions and table metadata.
//
// A Driver is not safe for concurrent use. Use one per goroutine.
package driver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/satishbabariya/dbal/internal/debug"
	"github.com/satishbabariya/dbal/query"
	"github.com/satishbabariya/dbal/query/cache"
)

// TablePlaceholder is replaced by the table prefix in every statement.
const TablePlaceholder = "#__"

// Driver owns one connection and the current query and statement.
type Driver struct {
	opts    Options
	adapter *Adapter
	dialect query.Dialect

	db   *sql.DB
	conn *sql.Conn

	query *query.Query
	sql   string
	stmt  *Statement

	count   int
	depth   int
	columns *cache.LRU[[]string]
	version string
}

// New creates a driver for opts.Adapter. It does not connect.
func New(opts Options) (*Driver, error) {
	reg := opts.Registry
	if reg == nil {
		reg = Default
	}
	a, err := reg.Lookup(opts.Adapter)
	if err != nil {
		return nil, err
	}
	d := &Driver{
		opts:    opts,
		adapter: a,
		columns: cache.New[[]string](256, opts.MetadataTTL),
	}
	d.dialect = a.NewDialect(d)
	return d, nil
}

// Open creates a driver and connects it.
func Open(ctx context.Context, opts Options) (*Driver, error) {
	d, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := d.Connect(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Name returns the adapter name.
func (d *Driver) Name() string { return d.adapter.Name }

func (d *Driver) Adapter() *Adapter { return d.adapter }

func (d *Driver) Dialect() query.Dialect { return d.dialect }

// Prefix returns the table prefix.
func (d *Driver) Prefix() string { return d.opts.Prefix }

// TablePrefix returns the table prefix. It lets the driver serve as the
// dialect's environment.
func (d *Driver) TablePrefix() string { return d.opts.Prefix }

// Count returns how many times a statement was executed.
func (d *Driver) Count() int { return d.count }

// TransactionDepth returns the current transaction nesting level.
func (d *Driver) TransactionDepth() int { return d.depth }

// NewQuery returns an empty query rendered with the driver's dialect.
func (d *Driver) NewQuery() *query.Query { return query.New(d.dialect) }

func (d *Driver) Quote(text string) string { return "'" + d.dialect.Escape(text, false) + "'" }

func (d *Driver) QuoteName(name string) string { return d.dialect.QuoteName(name) }

// ReplacePrefix replaces placeholder with the table prefix outside string
// literals.
func (d *Driver) ReplacePrefix(sql, placeholder string) string {
	return d.adapter.Flavor.ReplacePrefix(sql, placeholder, d.opts.Prefix)
}

// Connect opens the connection unless one is open.
func (d *Driver) Connect(ctx context.Context) error {
	if d.conn != nil {
		return nil
	}
	if err := d.open(ctx); err != nil {
		return &ConnectionFailureError{Adapter: d.adapter.Name, Err: err}
	}
	debug.Debug("connected", "adapter", d.adapter.Name)
	d.dispatch(ctx, EventConnected)
	return nil
}

func (d *Driver) open(ctx context.Context) error {
	openFn := d.opts.Open
	if openFn == nil {
		openFn = sql.Open
	}
	db, err := openFn(d.adapter.DriverName, d.opts.DSN)
	if err != nil {
		return err
	}
	if d.opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(d.opts.MaxOpenConns)
	}
	if d.opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(d.opts.MaxIdleConns)
	}
	if d.opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(d.opts.ConnMaxLifetime)
	}

	if d.opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.ConnectTimeout)
		defer cancel()
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return err
	}

	var setup []string
	if d.opts.Charset != "" && d.adapter.CharsetSQL != "" {
		setup = append(setup, fmt.Sprintf(d.adapter.CharsetSQL, d.opts.Charset))
	}
	if d.opts.Select && d.opts.Database != "" && d.adapter.SelectSQL != "" {
		setup = append(setup, fmt.Sprintf(d.adapter.SelectSQL, d.dialect.QuoteName(d.opts.Database)))
	}
	for _, stmt := range setup {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			conn.Close()
			db.Close()
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	d.db, d.conn = db, conn
	return nil
}

// Connected reports whether the connection answers a ping.
func (d *Driver) Connected(ctx context.Context) bool {
	return d.conn != nil && d.conn.PingContext(ctx) == nil
}

// Disconnect frees the current statement and closes the connection.
func (d *Driver) Disconnect(ctx context.Context) error {
	if d.conn == nil {
		return nil
	}
	d.freeStatement()
	err := d.dropConnection()
	debug.Debug("disconnected", "adapter", d.adapter.Name)
	d.dispatch(ctx, EventDisconnected)
	return err
}

// dropConnection closes the connection without notifying anyone. Open
// transactions die with it.
func (d *Driver) dropConnection() error {
	var err error
	if d.conn != nil {
		err = d.conn.Close()
	}
	if d.db != nil {
		if cerr := d.db.Close(); err == nil {
			err = cerr
		}
	}
	d.conn, d.db = nil, nil
	d.depth = 0
	return err
}

func (d *Driver) freeStatement() {
	if d.stmt == nil {
		return
	}
	if err := d.stmt.Close(); err != nil {
		debug.Debug("closing statement", "error", err)
	}
	d.stmt = nil
}

// Query returns the current query.
func (d *Driver) Query() *query.Query { return d.query }

// Statement returns the current statement.
func (d *Driver) Statement() *Statement { return d.stmt }

// SetQuery makes q the current query and prepares it. q is a raw SQL
// string or a *query.Query; a query is rendered with the driver's dialect.
// The previous statement is freed first.
func (d *Driver) SetQuery(ctx context.Context, q any) error {
	var qq *query.Query
	switch v := q.(type) {
	case string:
		qq = d.NewQuery().SetQuery(v)
	case *query.Query:
		qq = v.SetDialect(d.dialect)
	default:
		return fmt.Errorf("driver: cannot use %T as a query", q)
	}
	if err := qq.Err(); err != nil {
		return err
	}

	d.freeStatement()
	d.query, d.sql = nil, ""

	rendered, err := qq.Render(ctx)
	if err != nil {
		return err
	}
	d.query = qq
	d.sql = d.ReplacePrefix(rendered, TablePlaceholder)

	if err := d.Connect(ctx); err != nil {
		return err
	}
	return d.prepare(ctx)
}

func (d *Driver) prepare(ctx context.Context) error {
	stmt, err := d.adapter.statement(ctx, d.conn, d.sql, StatementOptions{Scrollable: d.opts.Scrollable})
	if err != nil {
		return err
	}
	d.stmt = stmt
	return nil
}

// Execute runs the current statement with the query's bound parameters.
//
// If execution fails and the connection no longer answers, the driver
// reconnects, prepares the statement again and retries exactly once. When
// the reconnect fails the original execution error is returned.
func (d *Driver) Execute(ctx context.Context) error {
	if d.stmt == nil {
		return ErrNoQuery
	}
	if err := d.Connect(ctx); err != nil {
		return err
	}
	return d.execute(ctx, true)
}

func (d *Driver) execute(ctx context.Context, retry bool) error {
	d.count++
	params := d.query.Bounded()

	start := time.Now()
	if d.opts.Monitor != nil {
		d.opts.Monitor.StartQuery(ctx, d.sql, params)
	}
	err := d.stmt.Execute(ctx, params)
	if d.opts.Monitor != nil {
		d.opts.Monitor.StopQuery(ctx, err)
	}
	if err == nil {
		return nil
	}
	debug.Query(ctx, d.sql, time.Since(start), err)

	if !retry || d.Connected(ctx) {
		return err
	}

	debug.Warn("connection lost, reconnecting", "adapter", d.adapter.Name)
	d.freeStatement()
	d.dropConnection()
	if cerr := d.Connect(ctx); cerr != nil {
		debug.Warn("reconnect failed", "adapter", d.adapter.Name, "error", cerr)
		return err
	}
	if perr := d.prepare(ctx); perr != nil {
		debug.Warn("prepare after reconnect failed", "adapter", d.adapter.Name, "error", perr)
		return err
	}
	return d.execute(ctx, false)
}

// AffectedRows returns the rows changed by the last mutation.
func (d *Driver) AffectedRows() (int64, error) {
	if d.stmt == nil {
		return 0, ErrNoQuery
	}
	return d.stmt.RowCount()
}

// Run prepares and executes q in one step.
func (d *Driver) Run(ctx context.Context, q any) error {
	if err := d.SetQuery(ctx, q); err != nil {
		return err
	}
	return d.Execute(ctx)
}

// Close disconnects the driver.
func (d *Driver) Close() error { return d.Disconnect(context.Background()) }
